// internal/handlers/rental.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tezrent/tezrent-backend/internal/models"
	"github.com/tezrent/tezrent-backend/internal/services"
	"github.com/tezrent/tezrent-backend/internal/utils"
)

type RentalHandler struct {
	rentalService   *services.RentalService
	documentService *services.DocumentService
}

func NewRentalHandler(rentalService *services.RentalService, documentService *services.DocumentService) *RentalHandler {
	return &RentalHandler{
		rentalService:   rentalService,
		documentService: documentService,
	}
}

type rentalActionRequest struct {
	Reason string `json:"reason,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// POST /rentals
func (h *RentalHandler) CreateRental(c *gin.Context) {
	customerID, _, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateRentalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	rental, err := h.rentalService.CreateRental(customerID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, rental)
}

// GET /rentals
func (h *RentalHandler) ListRentals(c *gin.Context) {
	userID, userType, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	result, err := h.rentalService.ListRentals(userID, userType, c.Query("status"), params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /rentals/:id
func (h *RentalHandler) GetRental(c *gin.Context) {
	userID, userType, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	rental, err := h.rentalService.GetRental(id, userID, userType)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, rental)
}

// POST /rentals/:id/approve
func (h *RentalHandler) ApproveRental(c *gin.Context) {
	h.transition(c, func(rentalID, actorID uuid.UUID, actorType models.UserType, req *rentalActionRequest) (*models.Rental, error) {
		return h.rentalService.ApproveRental(rentalID, actorID, actorType, req.Notes)
	})
}

// POST /rentals/:id/reject
func (h *RentalHandler) RejectRental(c *gin.Context) {
	h.transition(c, func(rentalID, actorID uuid.UUID, actorType models.UserType, req *rentalActionRequest) (*models.Rental, error) {
		return h.rentalService.RejectRental(rentalID, actorID, actorType, req.Reason)
	})
}

// POST /rentals/:id/cancel
func (h *RentalHandler) CancelRental(c *gin.Context) {
	h.transition(c, func(rentalID, actorID uuid.UUID, actorType models.UserType, req *rentalActionRequest) (*models.Rental, error) {
		return h.rentalService.CancelRental(rentalID, actorID, actorType, req.Reason)
	})
}

// POST /rentals/:id/activate
func (h *RentalHandler) ActivateRental(c *gin.Context) {
	h.transition(c, func(rentalID, actorID uuid.UUID, actorType models.UserType, _ *rentalActionRequest) (*models.Rental, error) {
		return h.rentalService.ActivateRental(rentalID, actorID, actorType)
	})
}

// POST /rentals/:id/complete
func (h *RentalHandler) CompleteRental(c *gin.Context) {
	h.transition(c, func(rentalID, actorID uuid.UUID, actorType models.UserType, _ *rentalActionRequest) (*models.Rental, error) {
		return h.rentalService.CompleteRental(rentalID, actorID, actorType)
	})
}

// GET /rentals/:id/documents
func (h *RentalHandler) ListDocuments(c *gin.Context) {
	userID, userType, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	documents, err := h.documentService.ListDocuments(id, userID, userType)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"documents": documents,
	})
}

// POST /rentals/:id/documents/provision (admin repair)
func (h *RentalHandler) ProvisionDocuments(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.documentService.EnsureProvisioned(id); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Documents provisioned",
	})
}

// GET /rentals/dashboard/seller
func (h *RentalHandler) SellerDashboard(c *gin.Context) {
	sellerID, _, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	dashboard, err := h.rentalService.GetSellerDashboard(sellerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, dashboard)
}

// GET /rentals/dashboard/customer
func (h *RentalHandler) CustomerDashboard(c *gin.Context) {
	customerID, _, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	dashboard, err := h.rentalService.GetCustomerDashboard(customerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, dashboard)
}

func (h *RentalHandler) transition(c *gin.Context, fn func(uuid.UUID, uuid.UUID, models.UserType, *rentalActionRequest) (*models.Rental, error)) {
	actorID, actorType, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	rentalID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req rentalActionRequest
	_ = c.ShouldBindJSON(&req) // body is optional on transitions

	rental, err := fn(rentalID, actorID, actorType, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, rental)
}
