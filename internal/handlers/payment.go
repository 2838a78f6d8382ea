// internal/handlers/payment.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tezrent/tezrent-backend/internal/services"
	"github.com/tezrent/tezrent-backend/internal/utils"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// POST /rentals/:id/payments/receipt
func (h *PaymentHandler) RecordReceipt(c *gin.Context) {
	actorID, actorType, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	rentalID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("receipt")
	if err != nil {
		utils.BadRequestResponse(c, "Receipt file is required", nil)
		return
	}
	defer file.Close()

	req := services.RecordReceiptRequest{
		ReceiptNumber: c.PostForm("receipt_number"),
		PaymentMethod: c.PostForm("payment_method"),
		Notes:         c.PostForm("notes"),
	}

	payment, err := h.paymentService.RecordReceipt(rentalID, actorID, actorType, file, header, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, payment)
}

// POST /rentals/:id/payments/intent
func (h *PaymentHandler) CreatePaymentIntent(c *gin.Context) {
	customerID, _, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	rentalID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	intent, err := h.paymentService.CreatePaymentIntent(rentalID, customerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, intent)
}

// POST /payments/confirm
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	var req struct {
		PaymentIntentID string `json:"payment_intent_id" validate:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	payment, err := h.paymentService.ConfirmPayment(req.PaymentIntentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, payment)
}

// GET /rentals/:id/payments
func (h *PaymentHandler) GetRentalPayments(c *gin.Context) {
	userID, userType, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	rentalID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	payments, err := h.paymentService.GetRentalPayments(rentalID, userID, userType)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"payments": payments,
	})
}

// GET /payments/history
func (h *PaymentHandler) GetPaymentHistory(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	payments, total, err := h.paymentService.GetPaymentHistory(userID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(payments, total, params))
}
