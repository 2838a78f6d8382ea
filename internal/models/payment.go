// internal/models/payment.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RentalPayment struct {
	BaseModel
	RentalID         uuid.UUID       `json:"rental_id" gorm:"type:uuid;not null;index"`
	Amount           decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	PaymentMethod    PaymentMethod   `json:"payment_method" gorm:"type:varchar(20);not null"`
	PaymentStatus    PaymentStatus   `json:"payment_status" gorm:"type:varchar(20);default:'pending';index"`
	ReceiptFileRef   string          `json:"receipt_file_ref" gorm:"size:512"`
	ReceiptNumber    string          `json:"receipt_number" gorm:"size:100"`
	Notes            string          `json:"notes" gorm:"type:text"`
	GatewayReference string          `json:"gateway_reference" gorm:"size:255"`
	RecordedByID     *uuid.UUID      `json:"recorded_by_id" gorm:"type:uuid"`
	CompletedAt      *time.Time      `json:"completed_at"`

	// Relationships
	Rental     Rental `json:"rental,omitempty" gorm:"foreignKey:RentalID"`
	RecordedBy *User  `json:"recorded_by,omitempty" gorm:"foreignKey:RecordedByID"`
}
