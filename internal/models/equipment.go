// internal/models/equipment.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Equipment struct {
	BaseModel
	SellerID           uuid.UUID       `json:"seller_id" gorm:"type:uuid;not null;index"`
	Name               string          `json:"name" gorm:"size:255;not null"`
	Description        string          `json:"description" gorm:"type:text"`
	Category           string          `json:"category" gorm:"size:100;index"`
	DailyRate          decimal.Decimal `json:"daily_rate" gorm:"type:decimal(10,2);not null"`
	TotalUnits         int             `json:"total_units" gorm:"not null;default:0"`
	AvailableUnits     int             `json:"available_units" gorm:"not null;default:0"`
	Status             EquipmentStatus `json:"status" gorm:"type:varchar(20);default:'available';index"`
	Images             pq.StringArray  `json:"images" gorm:"type:text[]"`
	Tags               pq.StringArray  `json:"tags" gorm:"type:text[]"`
	Specifications     JSONB           `json:"specifications" gorm:"type:jsonb"`
	OperatingManualRef string          `json:"operating_manual_ref" gorm:"size:512"`
	ManualDescription  string          `json:"manual_description" gorm:"type:text"`

	// Relationships
	Seller  User     `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
	Rentals []Rental `json:"rentals,omitempty" gorm:"foreignKey:EquipmentID"`
}

func (Equipment) TableName() string {
	return "equipment"
}
