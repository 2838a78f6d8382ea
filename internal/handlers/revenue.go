// internal/handlers/revenue.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tezrent/tezrent-backend/internal/models"
	"github.com/tezrent/tezrent-backend/internal/services"
	"github.com/tezrent/tezrent-backend/internal/utils"
)

type RevenueHandler struct {
	revenueService *services.RevenueService
}

func NewRevenueHandler(revenueService *services.RevenueService) *RevenueHandler {
	return &RevenueHandler{
		revenueService: revenueService,
	}
}

// GET /revenue/summary
func (h *RevenueHandler) GetSummary(c *gin.Context) {
	sellerID, ok := h.resolveScope(c)
	if !ok {
		return
	}

	summary, err := h.revenueService.Summarize(sellerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, summary)
}

// GET /revenue/trends
func (h *RevenueHandler) GetTrends(c *gin.Context) {
	sellerID, ok := h.resolveScope(c)
	if !ok {
		return
	}

	points, err := h.revenueService.Trends(sellerID, c.Query("period"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"trends": points,
	})
}

// POST /revenue/payouts/:id/complete
func (h *RevenueHandler) CompletePayout(c *gin.Context) {
	saleID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Reference string `json:"reference"`
	}
	_ = c.ShouldBindJSON(&req)

	sale, err := h.revenueService.MarkPayoutCompleted(saleID, req.Reference)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, sale)
}

// resolveScope pins sellers to their own sales. Admins default to the
// platform-wide view and may narrow it with ?seller_id=.
func (h *RevenueHandler) resolveScope(c *gin.Context) (*uuid.UUID, bool) {
	userID, userType, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return nil, false
	}

	if userType != models.UserTypeAdmin {
		return &userID, true
	}

	if raw := c.Query("seller_id"); raw != "" {
		sellerID, err := uuid.Parse(raw)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid seller_id", nil)
			return nil, false
		}
		return &sellerID, true
	}

	return nil, true
}
