// internal/services/rental_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tezrent/tezrent-backend/internal/config"
	"github.com/tezrent/tezrent-backend/internal/models"
	"github.com/tezrent/tezrent-backend/internal/utils"
)

// RentalService runs the rental lifecycle: request evaluation with the
// auto-approval rule, the seller approval flow, activation, completion
// with its revenue snapshot, and cancellation.
type RentalService struct {
	db        *gorm.DB
	config    *config.Config
	stock     *StockService
	documents *DocumentService
}

func NewRentalService(db *gorm.DB, cfg *config.Config, stock *StockService, documents *DocumentService) *RentalService {
	return &RentalService{
		db:        db,
		config:    cfg,
		stock:     stock,
		documents: documents,
	}
}

type CreateRentalRequest struct {
	EquipmentID     string `json:"equipment_id" validate:"required,uuid"`
	StartDate       string `json:"start_date" validate:"required"`
	EndDate         string `json:"end_date" validate:"required"`
	Quantity        int    `json:"quantity" validate:"required,min=1"`
	DeliveryAddress string `json:"delivery_address" validate:"max=1000"`
	CustomerNotes   string `json:"customer_notes" validate:"max=2000"`
}

const rentalDateLayout = "2006-01-02"

// CreateRental evaluates a rental request. Stock reservation, pricing,
// the auto-approval decision, the rental row, its status trail and the
// document set all commit or roll back together.
func (s *RentalService) CreateRental(customerID uuid.UUID, req *CreateRentalRequest) (*models.Rental, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	startDate, err := time.Parse(rentalDateLayout, req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid start_date format, expected YYYY-MM-DD", ErrValidation)
	}
	endDate, err := time.Parse(rentalDateLayout, req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid end_date format, expected YYYY-MM-DD", ErrValidation)
	}

	if !endDate.After(startDate) {
		return nil, fmt.Errorf("%w: end_date must be after start_date", ErrValidation)
	}

	today := time.Now().In(s.config.Location()).Format(rentalDateLayout)
	if req.StartDate < today {
		return nil, fmt.Errorf("%w: start_date must not be in the past", ErrValidation)
	}

	equipmentID, err := uuid.Parse(req.EquipmentID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid equipment_id", ErrValidation)
	}

	var rental *models.Rental

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var equipment models.Equipment
		if err := tx.First(&equipment, "id = ?", equipmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: equipment %s", ErrNotFound, equipmentID)
			}
			return err
		}

		if equipment.Status != models.EquipmentStatusAvailable {
			return fmt.Errorf("%w: equipment is not available for rental", ErrInvalidState)
		}

		if equipment.SellerID == customerID {
			return fmt.Errorf("%w: cannot rent your own equipment", ErrValidation)
		}

		if err := s.stock.Reserve(tx, equipment.ID, req.Quantity); err != nil {
			return err
		}

		totalDays := int(endDate.Sub(startDate).Hours()/24) + 1
		quantity := decimal.NewFromInt(int64(req.Quantity))
		subtotal := equipment.DailyRate.Mul(decimal.NewFromInt(int64(totalDays))).Mul(quantity)
		deliveryFee := decimal.NewFromFloat(s.config.Platform.DeliveryFee)
		insuranceFee := subtotal.
			Mul(decimal.NewFromFloat(s.config.Platform.InsurancePercent)).
			Div(decimal.NewFromInt(100)).
			Round(2)
		totalAmount := subtotal.Add(deliveryFee).Add(insuranceFee)
		commissionRate := decimal.NewFromFloat(s.config.Payment.CommissionPercent).
			Div(decimal.NewFromInt(100))

		rental = &models.Rental{
			RentalReference: models.NewRentalReference(),
			EquipmentID:     equipment.ID,
			CustomerID:      customerID,
			SellerID:        equipment.SellerID,
			StartDate:       startDate,
			EndDate:         endDate,
			Quantity:        req.Quantity,
			TotalDays:       totalDays,
			DailyRate:       equipment.DailyRate,
			Subtotal:        subtotal,
			DeliveryFee:     deliveryFee,
			InsuranceFee:    insuranceFee,
			TotalAmount:     totalAmount,
			CommissionRate:  commissionRate,
			Status:          models.RentalStatusPending,
			DeliveryAddress: req.DeliveryAddress,
			CustomerNotes:   req.CustomerNotes,
		}

		// Small orders skip the seller review queue.
		if req.Quantity < s.config.Platform.AutoApprovalThreshold {
			now := time.Now()
			rental.Status = models.RentalStatusApproved
			rental.ApprovedAt = &now
		}

		if err := tx.Create(rental).Error; err != nil {
			return err
		}

		if err := s.recordStatusChange(tx, rental.ID, "", rental.Status, &customerID, "Rental request created", true); err != nil {
			return err
		}

		return s.documents.Provision(tx, rental, &equipment)
	})
	if err != nil {
		return nil, err
	}

	return rental, nil
}

// ApproveRental moves a pending rental to approved. Only the owning
// seller or an admin may approve.
func (s *RentalService) ApproveRental(rentalID, actorID uuid.UUID, actorType models.UserType, notes string) (*models.Rental, error) {
	var rental *models.Rental

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		rental, err = s.loadRental(tx, rentalID)
		if err != nil {
			return err
		}

		if rental.SellerID != actorID && actorType != models.UserTypeAdmin {
			return fmt.Errorf("%w: only the equipment owner can approve this rental", ErrUnauthorized)
		}

		if rental.Status != models.RentalStatusPending {
			return fmt.Errorf("%w: cannot approve a %s rental", ErrInvalidState, rental.Status)
		}

		now := time.Now()
		oldStatus := rental.Status
		rental.Status = models.RentalStatusApproved
		rental.ApprovedAt = &now
		if notes != "" {
			rental.SellerNotes = notes
		}

		if err := tx.Save(rental).Error; err != nil {
			return err
		}

		return s.recordStatusChange(tx, rental.ID, oldStatus, rental.Status, &actorID, notes, true)
	})
	if err != nil {
		return nil, err
	}

	return rental, nil
}

// RejectRental declines a pending rental and returns its reserved units.
func (s *RentalService) RejectRental(rentalID, actorID uuid.UUID, actorType models.UserType, reason string) (*models.Rental, error) {
	var rental *models.Rental

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		rental, err = s.loadRental(tx, rentalID)
		if err != nil {
			return err
		}

		if rental.SellerID != actorID && actorType != models.UserTypeAdmin {
			return fmt.Errorf("%w: only the equipment owner can reject this rental", ErrUnauthorized)
		}

		if rental.Status != models.RentalStatusPending {
			return fmt.Errorf("%w: cannot reject a %s rental", ErrInvalidState, rental.Status)
		}

		oldStatus := rental.Status
		rental.Status = models.RentalStatusRejected
		if reason != "" {
			rental.SellerNotes = reason
		}

		if err := tx.Save(rental).Error; err != nil {
			return err
		}

		if err := s.stock.Release(tx, rental.EquipmentID, rental.Quantity); err != nil {
			return err
		}

		return s.recordStatusChange(tx, rental.ID, oldStatus, rental.Status, &actorID, reason, true)
	})
	if err != nil {
		return nil, err
	}

	return rental, nil
}

// CancelRental cancels a rental and returns its reserved units. Customers
// may cancel before the rental becomes active; the seller and admins may
// also cancel an active rental.
func (s *RentalService) CancelRental(rentalID, actorID uuid.UUID, actorType models.UserType, reason string) (*models.Rental, error) {
	var rental *models.Rental

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		rental, err = s.loadRental(tx, rentalID)
		if err != nil {
			return err
		}

		isCustomer := rental.CustomerID == actorID
		isSeller := rental.SellerID == actorID
		isAdmin := actorType == models.UserTypeAdmin
		if !isCustomer && !isSeller && !isAdmin {
			return fmt.Errorf("%w: not a party to this rental", ErrUnauthorized)
		}

		switch rental.Status {
		case models.RentalStatusPending, models.RentalStatusApproved:
			// any party may cancel
		case models.RentalStatusActive:
			if isCustomer && !isSeller && !isAdmin {
				return fmt.Errorf("%w: an active rental can only be cancelled by the seller", ErrInvalidState)
			}
		default:
			return fmt.Errorf("%w: cannot cancel a %s rental", ErrInvalidState, rental.Status)
		}

		now := time.Now()
		oldStatus := rental.Status
		rental.Status = models.RentalStatusCancelled
		rental.CancelledAt = &now
		rental.CancellationReason = reason

		if err := tx.Save(rental).Error; err != nil {
			return err
		}

		if err := s.stock.Release(tx, rental.EquipmentID, rental.Quantity); err != nil {
			return err
		}

		return s.recordStatusChange(tx, rental.ID, oldStatus, rental.Status, &actorID, reason, true)
	})
	if err != nil {
		return nil, err
	}

	return rental, nil
}

// ActivateRental marks an approved rental as handed over to the customer.
func (s *RentalService) ActivateRental(rentalID, actorID uuid.UUID, actorType models.UserType) (*models.Rental, error) {
	var rental *models.Rental

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		rental, err = s.loadRental(tx, rentalID)
		if err != nil {
			return err
		}

		if rental.SellerID != actorID && actorType != models.UserTypeAdmin {
			return fmt.Errorf("%w: only the equipment owner can activate this rental", ErrUnauthorized)
		}

		if rental.Status != models.RentalStatusApproved {
			return fmt.Errorf("%w: cannot activate a %s rental", ErrInvalidState, rental.Status)
		}

		now := time.Now()
		oldStatus := rental.Status
		rental.Status = models.RentalStatusActive
		rental.ActivatedAt = &now

		if err := tx.Save(rental).Error; err != nil {
			return err
		}

		return s.recordStatusChange(tx, rental.ID, oldStatus, rental.Status, &actorID, "Equipment handed over", true)
	})
	if err != nil {
		return nil, err
	}

	return rental, nil
}

// CompleteRental confirms the equipment came back, returns the units to
// stock and writes the RentalSale revenue snapshot, all in one
// transaction. A completed rental can therefore never lack its sale row.
func (s *RentalService) CompleteRental(rentalID, actorID uuid.UUID, actorType models.UserType) (*models.Rental, error) {
	var rental *models.Rental

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		rental, err = s.loadRental(tx, rentalID)
		if err != nil {
			return err
		}

		if rental.SellerID != actorID && actorType != models.UserTypeAdmin {
			return fmt.Errorf("%w: only the equipment owner can complete this rental", ErrUnauthorized)
		}

		if rental.Status != models.RentalStatusActive {
			return fmt.Errorf("%w: cannot complete a %s rental", ErrInvalidState, rental.Status)
		}

		now := time.Now()
		oldStatus := rental.Status
		rental.Status = models.RentalStatusCompleted
		rental.CompletedAt = &now

		if err := tx.Save(rental).Error; err != nil {
			return err
		}

		if err := s.stock.Release(tx, rental.EquipmentID, rental.Quantity); err != nil {
			return err
		}

		commissionAmount := rental.TotalAmount.Mul(rental.CommissionRate).Round(2)
		sale := models.RentalSale{
			RentalID:         rental.ID,
			SellerID:         rental.SellerID,
			CustomerID:       rental.CustomerID,
			EquipmentID:      rental.EquipmentID,
			TotalRevenue:     rental.TotalAmount,
			CommissionRate:   rental.CommissionRate,
			CommissionAmount: commissionAmount,
			SellerPayout:     rental.TotalAmount.Sub(commissionAmount),
			RentalDays:       rental.TotalDays,
			Quantity:         rental.Quantity,
			RentalStartDate:  rental.StartDate,
			RentalEndDate:    rental.EndDate,
			SaleDate:         now,
			PayoutStatus:     models.PayoutStatusPending,
		}
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}

		return s.recordStatusChange(tx, rental.ID, oldStatus, rental.Status, &actorID, "Equipment returned", true)
	})
	if err != nil {
		return nil, err
	}

	return rental, nil
}

// GetRental returns a rental with its related records. Only parties to
// the rental and admins may read it.
func (s *RentalService) GetRental(rentalID, requesterID uuid.UUID, requesterType models.UserType) (*models.Rental, error) {
	var rental models.Rental
	err := s.db.
		Preload("Equipment").
		Preload("Customer").
		Preload("Seller").
		Preload("Payments").
		Preload("StatusUpdates", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc")
		}).
		First(&rental, "id = ?", rentalID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: rental %s", ErrNotFound, rentalID)
		}
		return nil, err
	}

	if rental.CustomerID != requesterID && rental.SellerID != requesterID && requesterType != models.UserTypeAdmin {
		return nil, fmt.Errorf("%w: rental %s", ErrUnauthorized, rentalID)
	}

	return &rental, nil
}

// ListRentals pages through the rentals visible to the requester:
// customers see their own requests, sellers their incoming ones, admins
// everything.
func (s *RentalService) ListRentals(requesterID uuid.UUID, requesterType models.UserType, status string, params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.Model(&models.Rental{}).Preload("Equipment")

	switch requesterType {
	case models.UserTypeCustomer:
		query = query.Where("customer_id = ?", requesterID)
	case models.UserTypeSeller:
		query = query.Where("seller_id = ?", requesterID)
	case models.UserTypeAdmin:
		// no scoping
	default:
		return nil, fmt.Errorf("%w: unknown requester type", ErrUnauthorized)
	}

	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var rentals []models.Rental
	query = utils.ApplySort(query, params, []string{"created_at", "start_date", "total_amount", "status"})
	query = utils.ApplyPagination(query, params)
	if err := query.Find(&rentals).Error; err != nil {
		return nil, err
	}

	result := utils.CreatePaginationResult(rentals, total, params)
	return &result, nil
}

type SellerDashboard struct {
	PendingRentals   int64           `json:"pending_rentals"`
	ApprovedRentals  int64           `json:"approved_rentals"`
	ActiveRentals    int64           `json:"active_rentals"`
	CompletedRentals int64           `json:"completed_rentals"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	TotalPayout      decimal.Decimal `json:"total_payout"`
	ListedEquipment  int64           `json:"listed_equipment"`
}

func (s *RentalService) GetSellerDashboard(sellerID uuid.UUID) (*SellerDashboard, error) {
	dashboard := &SellerDashboard{}

	statuses := map[models.RentalStatus]*int64{
		models.RentalStatusPending:   &dashboard.PendingRentals,
		models.RentalStatusApproved:  &dashboard.ApprovedRentals,
		models.RentalStatusActive:    &dashboard.ActiveRentals,
		models.RentalStatusCompleted: &dashboard.CompletedRentals,
	}
	for status, dest := range statuses {
		if err := s.db.Model(&models.Rental{}).
			Where("seller_id = ? AND status = ?", sellerID, status).
			Count(dest).Error; err != nil {
			return nil, err
		}
	}

	var totals struct {
		Revenue decimal.Decimal
		Payout  decimal.Decimal
	}
	err := s.db.Model(&models.RentalSale{}).
		Select("COALESCE(SUM(total_revenue), 0) as revenue, COALESCE(SUM(seller_payout), 0) as payout").
		Where("seller_id = ?", sellerID).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	dashboard.TotalRevenue = totals.Revenue
	dashboard.TotalPayout = totals.Payout

	if err := s.db.Model(&models.Equipment{}).
		Where("seller_id = ? AND status != ?", sellerID, models.EquipmentStatusInactive).
		Count(&dashboard.ListedEquipment).Error; err != nil {
		return nil, err
	}

	return dashboard, nil
}

type CustomerDashboard struct {
	PendingRentals   int64           `json:"pending_rentals"`
	ApprovedRentals  int64           `json:"approved_rentals"`
	ActiveRentals    int64           `json:"active_rentals"`
	CompletedRentals int64           `json:"completed_rentals"`
	TotalSpend       decimal.Decimal `json:"total_spend"`
}

func (s *RentalService) GetCustomerDashboard(customerID uuid.UUID) (*CustomerDashboard, error) {
	dashboard := &CustomerDashboard{}

	statuses := map[models.RentalStatus]*int64{
		models.RentalStatusPending:   &dashboard.PendingRentals,
		models.RentalStatusApproved:  &dashboard.ApprovedRentals,
		models.RentalStatusActive:    &dashboard.ActiveRentals,
		models.RentalStatusCompleted: &dashboard.CompletedRentals,
	}
	for status, dest := range statuses {
		if err := s.db.Model(&models.Rental{}).
			Where("customer_id = ? AND status = ?", customerID, status).
			Count(dest).Error; err != nil {
			return nil, err
		}
	}

	var totals struct {
		Spend decimal.Decimal
	}
	err := s.db.Model(&models.Rental{}).
		Select("COALESCE(SUM(total_amount), 0) as spend").
		Where("customer_id = ? AND status = ?", customerID, models.RentalStatusCompleted).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	dashboard.TotalSpend = totals.Spend

	return dashboard, nil
}

func (s *RentalService) loadRental(tx *gorm.DB, rentalID uuid.UUID) (*models.Rental, error) {
	var rental models.Rental
	if err := tx.First(&rental, "id = ?", rentalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: rental %s", ErrNotFound, rentalID)
		}
		return nil, err
	}
	return &rental, nil
}

func (s *RentalService) recordStatusChange(tx *gorm.DB, rentalID uuid.UUID, oldStatus, newStatus models.RentalStatus, actorID *uuid.UUID, notes string, visible bool) error {
	update := models.RentalStatusUpdate{
		RentalID:          rentalID,
		OldStatus:         oldStatus,
		NewStatus:         newStatus,
		UpdatedByID:       actorID,
		Notes:             notes,
		VisibleToCustomer: visible,
	}
	return tx.Create(&update).Error
}
