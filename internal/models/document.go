// internal/models/document.go
package models

import (
	"github.com/google/uuid"
)

// RentalDocument is a file attached to a rental. Exactly one document per
// (rental, document_type) pair; the unique index makes provisioning
// idempotent under concurrent retries.
type RentalDocument struct {
	BaseModel
	RentalID          uuid.UUID    `json:"rental_id" gorm:"type:uuid;not null;uniqueIndex:idx_rental_documents_rental_type"`
	DocumentType      DocumentType `json:"document_type" gorm:"type:varchar(30);not null;uniqueIndex:idx_rental_documents_rental_type"`
	Title             string       `json:"title" gorm:"size:255;not null"`
	Description       string       `json:"description" gorm:"type:text"`
	FileRef           string       `json:"file_ref" gorm:"size:512;not null"`
	UploadedByID *uuid.UUID `json:"uploaded_by_id" gorm:"type:uuid"`

	// No column defaults on the flags: gorm drops a false through a
	// default, so every creation site sets them explicitly.
	VisibleToCustomer bool `json:"visible_to_customer"`
	RequiresPayment   bool `json:"requires_payment"`

	// Relationships
	Rental     Rental `json:"rental,omitempty" gorm:"foreignKey:RentalID"`
	UploadedBy *User  `json:"uploaded_by,omitempty" gorm:"foreignKey:UploadedByID"`
}
