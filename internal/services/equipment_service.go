// internal/services/equipment_service.go
package services

import (
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tezrent/tezrent-backend/internal/models"
	"github.com/tezrent/tezrent-backend/internal/utils"
)

// EquipmentService owns the catalog: sellers list equipment with unit
// counts and an optional operating manual, customers search it.
type EquipmentService struct {
	db      *gorm.DB
	storage *StorageService
}

func NewEquipmentService(db *gorm.DB, storage *StorageService) *EquipmentService {
	return &EquipmentService{db: db, storage: storage}
}

type CreateEquipmentRequest struct {
	Name              string                 `json:"name" validate:"required,min=3,max=255"`
	Description       string                 `json:"description" validate:"required,min=10"`
	Category          string                 `json:"category" validate:"required"`
	DailyRate         float64                `json:"daily_rate" validate:"required,gt=0"`
	TotalUnits        int                    `json:"total_units" validate:"required,min=1"`
	Images            []string               `json:"images,omitempty"`
	Tags              []string               `json:"tags,omitempty"`
	Specifications    map[string]interface{} `json:"specifications,omitempty"`
	ManualDescription string                 `json:"manual_description,omitempty" validate:"max=2000"`
}

type UpdateEquipmentRequest struct {
	Name              string                 `json:"name,omitempty" validate:"omitempty,min=3,max=255"`
	Description       string                 `json:"description,omitempty" validate:"omitempty,min=10"`
	Category          string                 `json:"category,omitempty"`
	DailyRate         float64                `json:"daily_rate,omitempty" validate:"omitempty,gt=0"`
	Images            []string               `json:"images,omitempty"`
	Tags              []string               `json:"tags,omitempty"`
	Specifications    map[string]interface{} `json:"specifications,omitempty"`
	ManualDescription string                 `json:"manual_description,omitempty" validate:"max=2000"`
	Status            models.EquipmentStatus `json:"status,omitempty" validate:"omitempty,oneof=available unavailable inactive"`
}

type EquipmentSearchParams struct {
	utils.PaginationParams
	SellerID     *uuid.UUID `json:"seller_id,omitempty"`
	RateMin      *float64   `json:"rate_min,omitempty"`
	RateMax      *float64   `json:"rate_max,omitempty"`
	OnlyInStock  bool       `json:"only_in_stock,omitempty"`
	IncludeAll   bool       `json:"-"`
}

func (s *EquipmentService) CreateEquipment(sellerID uuid.UUID, req *CreateEquipmentRequest) (*models.Equipment, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var seller models.User
	if err := s.db.First(&seller, "id = ?", sellerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: seller %s", ErrNotFound, sellerID)
		}
		return nil, err
	}

	if seller.Status != models.UserStatusActive {
		return nil, fmt.Errorf("%w: seller account is not active", ErrInvalidState)
	}

	if seller.UserType != models.UserTypeSeller && seller.UserType != models.UserTypeAdmin {
		return nil, fmt.Errorf("%w: only sellers can list equipment", ErrUnauthorized)
	}

	equipment := &models.Equipment{
		SellerID:          sellerID,
		Name:              req.Name,
		Description:       req.Description,
		Category:          req.Category,
		DailyRate:         decimal.NewFromFloat(req.DailyRate).Round(2),
		TotalUnits:        req.TotalUnits,
		AvailableUnits:    req.TotalUnits,
		Status:            models.EquipmentStatusAvailable,
		Images:            req.Images,
		Tags:              req.Tags,
		Specifications:    models.JSONB(req.Specifications),
		ManualDescription: req.ManualDescription,
	}

	if err := s.db.Create(equipment).Error; err != nil {
		return nil, fmt.Errorf("failed to create equipment: %w", err)
	}

	return equipment, nil
}

func (s *EquipmentService) GetEquipment(id uuid.UUID) (*models.Equipment, error) {
	var equipment models.Equipment
	if err := s.db.Preload("Seller").First(&equipment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: equipment %s", ErrNotFound, id)
		}
		return nil, err
	}

	return &equipment, nil
}

func (s *EquipmentService) UpdateEquipment(id, sellerID uuid.UUID, actorType models.UserType, req *UpdateEquipmentRequest) (*models.Equipment, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var equipment models.Equipment
	if err := s.db.First(&equipment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: equipment %s", ErrNotFound, id)
		}
		return nil, err
	}

	if equipment.SellerID != sellerID && actorType != models.UserTypeAdmin {
		return nil, fmt.Errorf("%w: not your equipment", ErrUnauthorized)
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Category != "" {
		updates["category"] = req.Category
	}
	if req.DailyRate > 0 {
		updates["daily_rate"] = decimal.NewFromFloat(req.DailyRate).Round(2)
	}
	if req.Images != nil {
		updates["images"] = req.Images
	}
	if req.Tags != nil {
		updates["tags"] = req.Tags
	}
	if req.Specifications != nil {
		updates["specifications"] = models.JSONB(req.Specifications)
	}
	if req.ManualDescription != "" {
		updates["manual_description"] = req.ManualDescription
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}

	if err := s.db.Model(&equipment).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update equipment: %w", err)
	}

	return &equipment, nil
}

// AttachManual uploads the operating manual. Documents provisioned for
// future rentals of this equipment will reference it and stay locked until
// the rental is paid.
func (s *EquipmentService) AttachManual(id, sellerID uuid.UUID, actorType models.UserType, file multipart.File, header *multipart.FileHeader) (*models.Equipment, error) {
	var equipment models.Equipment
	if err := s.db.First(&equipment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: equipment %s", ErrNotFound, id)
		}
		return nil, err
	}

	if equipment.SellerID != sellerID && actorType != models.UserTypeAdmin {
		return nil, fmt.Errorf("%w: not your equipment", ErrUnauthorized)
	}

	upload, err := s.storage.UploadFile(file, header, s.storage.GetDefaultUploadOptions("equipment_manuals"))
	if err != nil {
		return nil, fmt.Errorf("%w: storing manual: %v", ErrStorage, err)
	}

	if err := s.db.Model(&equipment).Update("operating_manual_ref", upload.Key).Error; err != nil {
		return nil, err
	}

	equipment.OperatingManualRef = upload.Key
	return &equipment, nil
}

func (s *EquipmentService) SearchEquipment(params EquipmentSearchParams) ([]models.Equipment, int64, error) {
	query := s.db.Model(&models.Equipment{}).Preload("Seller")

	if params.SellerID != nil {
		query = query.Where("seller_id = ?", *params.SellerID)
	}

	if !params.IncludeAll {
		query = query.Where("status = ?", models.EquipmentStatusAvailable)
	}

	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
	}

	if params.RateMin != nil {
		query = query.Where("daily_rate >= ?", *params.RateMin)
	}

	if params.RateMax != nil {
		query = query.Where("daily_rate <= ?", *params.RateMax)
	}

	if params.OnlyInStock {
		query = query.Where("available_units > 0")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count equipment: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "name", "daily_rate", "available_units"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var equipment []models.Equipment
	if err := query.Find(&equipment).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch equipment: %w", err)
	}

	return equipment, total, nil
}

func (s *EquipmentService) GetSellerEquipment(sellerID uuid.UUID, params utils.PaginationParams) ([]models.Equipment, int64, error) {
	searchParams := EquipmentSearchParams{
		PaginationParams: params,
		SellerID:         &sellerID,
		IncludeAll:       true,
	}
	return s.SearchEquipment(searchParams)
}
