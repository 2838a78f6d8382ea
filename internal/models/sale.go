// internal/models/sale.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RentalSale is the immutable revenue snapshot written when a rental
// completes. Aggregation reads this table, never the rentals themselves.
type RentalSale struct {
	BaseModel
	RentalID    uuid.UUID `json:"rental_id" gorm:"type:uuid;not null;uniqueIndex"`
	SellerID    uuid.UUID `json:"seller_id" gorm:"type:uuid;not null;index"`
	CustomerID  uuid.UUID `json:"customer_id" gorm:"type:uuid;not null;index"`
	EquipmentID uuid.UUID `json:"equipment_id" gorm:"type:uuid;not null;index"`

	TotalRevenue     decimal.Decimal `json:"total_revenue" gorm:"type:decimal(10,2);not null"`
	CommissionRate   decimal.Decimal `json:"commission_rate" gorm:"type:decimal(5,4);not null"`
	CommissionAmount decimal.Decimal `json:"commission_amount" gorm:"type:decimal(10,2);not null"`
	SellerPayout     decimal.Decimal `json:"seller_payout" gorm:"type:decimal(10,2);not null"`

	RentalDays      int       `json:"rental_days" gorm:"not null"`
	Quantity        int       `json:"quantity" gorm:"not null"`
	RentalStartDate time.Time `json:"rental_start_date" gorm:"not null"`
	RentalEndDate   time.Time `json:"rental_end_date" gorm:"not null"`
	SaleDate        time.Time `json:"sale_date" gorm:"not null;index"`

	PayoutStatus    PayoutStatus `json:"payout_status" gorm:"type:varchar(20);default:'pending';index"`
	PayoutDate      *time.Time   `json:"payout_date"`
	PayoutReference string       `json:"payout_reference" gorm:"size:100"`

	// Relationships
	Rental    Rental    `json:"rental,omitempty" gorm:"foreignKey:RentalID"`
	Seller    User      `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
	Customer  User      `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Equipment Equipment `json:"equipment,omitempty" gorm:"foreignKey:EquipmentID"`
}
