// internal/handlers/equipment.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tezrent/tezrent-backend/internal/services"
	"github.com/tezrent/tezrent-backend/internal/utils"
)

type EquipmentHandler struct {
	equipmentService *services.EquipmentService
}

func NewEquipmentHandler(equipmentService *services.EquipmentService) *EquipmentHandler {
	return &EquipmentHandler{
		equipmentService: equipmentService,
	}
}

// POST /equipment
func (h *EquipmentHandler) CreateEquipment(c *gin.Context) {
	sellerID, _, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	equipment, err := h.equipmentService.CreateEquipment(sellerID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, equipment)
}

// GET /equipment
func (h *EquipmentHandler) SearchEquipment(c *gin.Context) {
	params := services.EquipmentSearchParams{
		PaginationParams: utils.GetPaginationParams(c),
	}

	if rateMin := c.Query("rate_min"); rateMin != "" {
		if v, err := strconv.ParseFloat(rateMin, 64); err == nil {
			params.RateMin = &v
		}
	}
	if rateMax := c.Query("rate_max"); rateMax != "" {
		if v, err := strconv.ParseFloat(rateMax, 64); err == nil {
			params.RateMax = &v
		}
	}
	params.OnlyInStock = c.Query("in_stock") == "true"

	equipment, total, err := h.equipmentService.SearchEquipment(params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(equipment, total, params.PaginationParams))
}

// GET /equipment/:id
func (h *EquipmentHandler) GetEquipment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	equipment, err := h.equipmentService.GetEquipment(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, equipment)
}

// PUT /equipment/:id
func (h *EquipmentHandler) UpdateEquipment(c *gin.Context) {
	sellerID, userType, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	equipment, err := h.equipmentService.UpdateEquipment(id, sellerID, userType, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, equipment)
}

// POST /equipment/:id/manual
func (h *EquipmentHandler) AttachManual(c *gin.Context) {
	sellerID, userType, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "Manual file is required", nil)
		return
	}
	defer file.Close()

	equipment, err := h.equipmentService.AttachManual(id, sellerID, userType, file, header)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, equipment)
}

// GET /equipment/mine
func (h *EquipmentHandler) GetMyEquipment(c *gin.Context) {
	sellerID, _, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	equipment, total, err := h.equipmentService.GetSellerEquipment(sellerID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(equipment, total, params))
}
