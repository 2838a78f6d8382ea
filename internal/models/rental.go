// internal/models/rental.go
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Rental struct {
	BaseModel
	RentalReference string    `json:"rental_reference" gorm:"size:20;uniqueIndex;not null"`
	EquipmentID     uuid.UUID `json:"equipment_id" gorm:"type:uuid;not null;index"`
	CustomerID      uuid.UUID `json:"customer_id" gorm:"type:uuid;not null;index"`
	SellerID        uuid.UUID `json:"seller_id" gorm:"type:uuid;not null;index"`
	StartDate       time.Time `json:"start_date" gorm:"not null"`
	EndDate         time.Time `json:"end_date" gorm:"not null"`
	Quantity        int       `json:"quantity" gorm:"not null"`
	TotalDays       int       `json:"total_days" gorm:"not null"`

	// Pricing snapshot taken at creation
	DailyRate       decimal.Decimal `json:"daily_rate" gorm:"type:decimal(10,2);not null"`
	Subtotal        decimal.Decimal `json:"subtotal" gorm:"type:decimal(10,2);not null"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee" gorm:"type:decimal(10,2);default:0"`
	InsuranceFee    decimal.Decimal `json:"insurance_fee" gorm:"type:decimal(10,2);default:0"`
	SecurityDeposit decimal.Decimal `json:"security_deposit" gorm:"type:decimal(10,2);default:0"`
	TotalAmount     decimal.Decimal `json:"total_amount" gorm:"type:decimal(10,2);not null"`
	CommissionRate  decimal.Decimal `json:"commission_rate" gorm:"type:decimal(5,4);not null"`

	Status             RentalStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	DeliveryAddress    string       `json:"delivery_address" gorm:"type:text"`
	CustomerNotes      string       `json:"customer_notes" gorm:"type:text"`
	SellerNotes        string       `json:"seller_notes" gorm:"type:text"`
	CancellationReason string       `json:"cancellation_reason,omitempty" gorm:"type:text"`
	ApprovedAt         *time.Time   `json:"approved_at"`
	ActivatedAt        *time.Time   `json:"activated_at"`
	CompletedAt        *time.Time   `json:"completed_at"`
	CancelledAt        *time.Time   `json:"cancelled_at"`

	// Relationships
	Equipment     Equipment            `json:"equipment,omitempty" gorm:"foreignKey:EquipmentID"`
	Customer      User                 `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Seller        User                 `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
	Documents     []RentalDocument     `json:"documents,omitempty" gorm:"foreignKey:RentalID"`
	Payments      []RentalPayment      `json:"payments,omitempty" gorm:"foreignKey:RentalID"`
	StatusUpdates []RentalStatusUpdate `json:"status_updates,omitempty" gorm:"foreignKey:RentalID"`
}

// NewRentalReference returns a human-facing reference like RNT3F9A21BC.
func NewRentalReference() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "RNT" + strings.ToUpper(raw[:8])
}

type RentalStatusUpdate struct {
	BaseModel
	RentalID          uuid.UUID    `json:"rental_id" gorm:"type:uuid;not null;index"`
	OldStatus         RentalStatus `json:"old_status" gorm:"type:varchar(20)"`
	NewStatus         RentalStatus `json:"new_status" gorm:"type:varchar(20);not null"`
	UpdatedByID       *uuid.UUID   `json:"updated_by_id" gorm:"type:uuid;index"`
	Notes             string       `json:"notes" gorm:"type:text"`
	VisibleToCustomer bool         `json:"visible_to_customer"`

	// Relationships
	Rental    Rental `json:"rental,omitempty" gorm:"foreignKey:RentalID"`
	UpdatedBy *User  `json:"updated_by,omitempty" gorm:"foreignKey:UpdatedByID"`
}
