// internal/services/payment_service.go
package services

import (
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"gorm.io/gorm"

	"github.com/tezrent/tezrent-backend/internal/config"
	"github.com/tezrent/tezrent-backend/internal/models"
	"github.com/tezrent/tezrent-backend/internal/utils"
)

// PaymentService records rental payments. Sellers confirm offline payments
// by uploading a receipt; customers can pay by card through the gateway.
// A completed payment is what unlocks payment-gated documents.
type PaymentService struct {
	db      *gorm.DB
	config  *config.Config
	storage *StorageService
}

func NewPaymentService(db *gorm.DB, cfg *config.Config, storage *StorageService) *PaymentService {
	// Initialize Stripe
	stripe.Key = cfg.Payment.StripeSecretKey

	return &PaymentService{
		db:      db,
		config:  cfg,
		storage: storage,
	}
}

type RecordReceiptRequest struct {
	ReceiptNumber string `json:"receipt_number" validate:"max=100"`
	PaymentMethod string `json:"payment_method" validate:"omitempty,oneof=card bank_transfer cash other"`
	Notes         string `json:"notes" validate:"max=2000"`
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"client_secret"`
	PaymentID    string `json:"payment_id"`
	Status       string `json:"status"`
}

// RecordReceipt confirms an offline payment. Only the owning seller (or an
// admin) may record one, and only once the rental passed review. The
// receipt file is stored first; the payment row flips to completed in a
// transaction, so a completed payment always carries its receipt.
func (s *PaymentService) RecordReceipt(rentalID, actorID uuid.UUID, actorType models.UserType, file multipart.File, header *multipart.FileHeader, req *RecordReceiptRequest) (*models.RentalPayment, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var rental models.Rental
	if err := s.db.First(&rental, "id = ?", rentalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: rental %s", ErrNotFound, rentalID)
		}
		return nil, err
	}

	if rental.SellerID != actorID && actorType != models.UserTypeAdmin {
		return nil, fmt.Errorf("%w: only the equipment owner can record a payment", ErrUnauthorized)
	}

	switch rental.Status {
	case models.RentalStatusApproved, models.RentalStatusActive, models.RentalStatusCompleted:
	default:
		return nil, fmt.Errorf("%w: cannot record a payment for a %s rental", ErrInvalidState, rental.Status)
	}

	upload, err := s.storage.UploadFile(file, header, s.storage.GetDefaultUploadOptions("payment_receipts"))
	if err != nil {
		return nil, fmt.Errorf("%w: storing receipt: %v", ErrStorage, err)
	}

	method := models.PaymentMethod(req.PaymentMethod)
	if method == "" {
		method = models.PaymentMethodCash
	}

	var payment models.RentalPayment

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Complete the open payment row if one exists, otherwise create it.
		err := tx.Where("rental_id = ? AND payment_status = ?", rentalID, models.PaymentStatusPending).
			Order("created_at asc").
			First(&payment).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now()
		payment.RentalID = rentalID
		payment.Amount = rental.TotalAmount
		payment.PaymentMethod = method
		payment.PaymentStatus = models.PaymentStatusCompleted
		payment.ReceiptFileRef = upload.Key
		payment.ReceiptNumber = req.ReceiptNumber
		payment.Notes = req.Notes
		payment.RecordedByID = &actorID
		payment.CompletedAt = &now

		return tx.Save(&payment).Error
	})
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

// CreatePaymentIntent starts a card payment for the rental's total amount.
func (s *PaymentService) CreatePaymentIntent(rentalID, customerID uuid.UUID) (*PaymentIntentResponse, error) {
	var rental models.Rental
	if err := s.db.First(&rental, "id = ?", rentalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: rental %s", ErrNotFound, rentalID)
		}
		return nil, err
	}

	if rental.CustomerID != customerID {
		return nil, fmt.Errorf("%w: not your rental", ErrUnauthorized)
	}

	switch rental.Status {
	case models.RentalStatusApproved, models.RentalStatusActive:
	default:
		return nil, fmt.Errorf("%w: cannot pay for a %s rental", ErrInvalidState, rental.Status)
	}

	amountInCents := rental.TotalAmount.Mul(decimal.NewFromInt(100)).IntPart()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountInCents),
		Currency: stripe.String(s.config.Payment.Currency),
	}
	params.AddMetadata("rental_id", rental.ID.String())
	params.AddMetadata("rental_reference", rental.RentalReference)
	params.AddMetadata("customer_id", customerID.String())

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	payment := models.RentalPayment{
		RentalID:         rental.ID,
		Amount:           rental.TotalAmount,
		PaymentMethod:    models.PaymentMethodCard,
		PaymentStatus:    models.PaymentStatusPending,
		GatewayReference: pi.ID,
	}
	if err := s.db.Create(&payment).Error; err != nil {
		return nil, err
	}

	return &PaymentIntentResponse{
		ClientSecret: pi.ClientSecret,
		PaymentID:    pi.ID,
		Status:       string(pi.Status),
	}, nil
}

// ConfirmPayment syncs a card payment row with the gateway's view of the
// payment intent.
func (s *PaymentService) ConfirmPayment(paymentIntentID string) (*models.RentalPayment, error) {
	pi, err := paymentintent.Get(paymentIntentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}

	var payment models.RentalPayment
	if err := s.db.First(&payment, "gateway_reference = ?", paymentIntentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: payment for intent %s", ErrNotFound, paymentIntentID)
		}
		return nil, err
	}

	applyGatewayStatus(&payment, pi.Status)

	if err := s.db.Save(&payment).Error; err != nil {
		return nil, err
	}

	return &payment, nil
}

// applyGatewayStatus maps the gateway's view of the intent onto the payment
// row. Completed is terminal: a late or replayed gateway status never
// downgrades the payment, so documents it unlocked stay unlocked, and
// CompletedAt is set exactly when the status is completed.
func applyGatewayStatus(payment *models.RentalPayment, status stripe.PaymentIntentStatus) {
	if payment.PaymentStatus == models.PaymentStatusCompleted {
		return
	}

	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		now := time.Now()
		payment.PaymentStatus = models.PaymentStatusCompleted
		payment.CompletedAt = &now
	case stripe.PaymentIntentStatusRequiresAction, stripe.PaymentIntentStatusRequiresConfirmation,
		stripe.PaymentIntentStatusRequiresPaymentMethod, stripe.PaymentIntentStatusProcessing:
		payment.PaymentStatus = models.PaymentStatusPending
		payment.CompletedAt = nil
	default:
		payment.PaymentStatus = models.PaymentStatusFailed
		payment.CompletedAt = nil
	}
}

// GetRentalPayments lists a rental's payments for any party to the rental.
func (s *PaymentService) GetRentalPayments(rentalID, requesterID uuid.UUID, requesterType models.UserType) ([]models.RentalPayment, error) {
	var rental models.Rental
	if err := s.db.First(&rental, "id = ?", rentalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: rental %s", ErrNotFound, rentalID)
		}
		return nil, err
	}

	if rental.CustomerID != requesterID && rental.SellerID != requesterID && requesterType != models.UserTypeAdmin {
		return nil, fmt.Errorf("%w: rental %s", ErrUnauthorized, rentalID)
	}

	var payments []models.RentalPayment
	if err := s.db.Where("rental_id = ?", rentalID).Order("created_at asc").Find(&payments).Error; err != nil {
		return nil, err
	}

	return payments, nil
}

// GetPaymentHistory pages through payments on rentals the user is party to.
func (s *PaymentService) GetPaymentHistory(userID uuid.UUID, params utils.PaginationParams) ([]models.RentalPayment, int64, error) {
	query := s.db.Model(&models.RentalPayment{}).
		Where("rental_id IN (?)",
			s.db.Model(&models.Rental{}).Select("id").Where("customer_id = ? OR seller_id = ?", userID, userID)).
		Preload("Rental")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "amount", "payment_status"})
	query = utils.ApplyPagination(query, params)

	var payments []models.RentalPayment
	if err := query.Find(&payments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch payments: %w", err)
	}

	return payments, total, nil
}
