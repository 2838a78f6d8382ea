// internal/services/document_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tezrent/tezrent-backend/internal/models"
)

// DocumentService provisions rental paperwork and resolves who can see
// which file. Lock state is never stored: it is derived from payment state
// on every read.
type DocumentService struct {
	db      *gorm.DB
	storage *StorageService
}

func NewDocumentService(db *gorm.DB, storage *StorageService) *DocumentService {
	return &DocumentService{db: db, storage: storage}
}

// DocumentView is the read model returned to API callers. FileURL is
// blanked for customers while the document is locked.
type DocumentView struct {
	ID                uuid.UUID           `json:"id"`
	DocumentType      models.DocumentType `json:"document_type"`
	Title             string              `json:"title"`
	Description       string              `json:"description"`
	FileURL           string              `json:"file_url,omitempty"`
	RequiresPayment   bool                `json:"requires_payment"`
	IsLocked          bool                `json:"is_locked"`
	VisibleToCustomer bool                `json:"visible_to_customer"`
	CreatedAt         time.Time           `json:"created_at"`
}

const agreementTemplate = `EQUIPMENT RENTAL AGREEMENT
Reference: %s

This rental agreement is made between:

LESSOR (Equipment Owner): %s
LESSEE (Customer): %s

EQUIPMENT: %s
QUANTITY: %d unit(s)
RENTAL PERIOD: %s to %s (%d day(s))
DAILY RATE: %s
TOTAL AMOUNT: %s

TERMS AND CONDITIONS:

1. The lessee agrees to use the equipment only for its intended purpose
   and to operate it according to the manufacturer's instructions.
2. The lessee is responsible for the equipment from delivery until
   collection and shall report damage or malfunction immediately.
3. The rental charge covers the period stated above. Late returns are
   billed at the daily rate per additional day.
4. The lessor warrants that the equipment is in good working order at
   the start of the rental period.
5. Cancellation before the rental start date releases the reserved
   units; amounts already paid are refunded per platform policy.

Generated on %s.
`

// Provision creates the standard document set for a rental inside the
// caller's transaction. Safe to call again for the same rental: the unique
// index on (rental_id, document_type) plus FirstOrCreate make every call
// after the first a no-op.
func (s *DocumentService) Provision(tx *gorm.DB, rental *models.Rental, equipment *models.Equipment) error {
	content := s.renderAgreement(tx, rental, equipment)

	upload, err := s.storage.StoreBytes([]byte(content), "rental_agreement.txt", "text/plain; charset=utf-8", "rental-documents")
	if err != nil {
		return fmt.Errorf("%w: storing rental agreement: %v", ErrStorage, err)
	}

	agreement := models.RentalDocument{
		RentalID:     rental.ID,
		DocumentType: models.DocumentTypeRentalAgreement,
	}
	err = tx.Where("rental_id = ? AND document_type = ?", rental.ID, models.DocumentTypeRentalAgreement).
		Attrs(models.RentalDocument{
			Title:             fmt.Sprintf("Rental Agreement - %s", rental.RentalReference),
			Description:       fmt.Sprintf("Rental agreement for %s", equipment.Name),
			FileRef:           upload.Key,
			VisibleToCustomer: true,
			RequiresPayment:   false,
		}).
		FirstOrCreate(&agreement).Error
	if err != nil {
		return err
	}

	if equipment.OperatingManualRef == "" {
		return nil
	}

	description := equipment.ManualDescription
	if description == "" {
		description = fmt.Sprintf("Operating manual for %s", equipment.Name)
	}

	manual := models.RentalDocument{
		RentalID:     rental.ID,
		DocumentType: models.DocumentTypeOperatingManual,
	}
	return tx.Where("rental_id = ? AND document_type = ?", rental.ID, models.DocumentTypeOperatingManual).
		Attrs(models.RentalDocument{
			Title:             fmt.Sprintf("Operating Manual - %s", equipment.Name),
			Description:       description,
			FileRef:           equipment.OperatingManualRef,
			VisibleToCustomer: true,
			RequiresPayment:   true,
		}).
		FirstOrCreate(&manual).Error
}

// EnsureProvisioned backfills the document set for an existing rental.
// Used by the admin repair endpoint; idempotent like Provision.
func (s *DocumentService) EnsureProvisioned(rentalID uuid.UUID) error {
	var rental models.Rental
	if err := s.db.Preload("Equipment").First(&rental, "id = ?", rentalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: rental %s", ErrNotFound, rentalID)
		}
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.Provision(tx, &rental, &rental.Equipment)
	})
}

// ListDocuments returns the documents the requester may see. Customers get
// only customer-visible documents with locked file URLs withheld; the
// owning seller and admins see everything.
func (s *DocumentService) ListDocuments(rentalID uuid.UUID, requesterID uuid.UUID, requesterType models.UserType) ([]DocumentView, error) {
	var rental models.Rental
	if err := s.db.First(&rental, "id = ?", rentalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: rental %s", ErrNotFound, rentalID)
		}
		return nil, err
	}

	isCustomer := rental.CustomerID == requesterID
	isSeller := rental.SellerID == requesterID
	isAdmin := requesterType == models.UserTypeAdmin
	if !isCustomer && !isSeller && !isAdmin {
		return nil, fmt.Errorf("%w: rental %s", ErrUnauthorized, rentalID)
	}

	var documents []models.RentalDocument
	if err := s.db.Where("rental_id = ?", rentalID).Order("created_at asc").Find(&documents).Error; err != nil {
		return nil, err
	}

	paid, err := s.hasCompletedPayment(s.db, rentalID)
	if err != nil {
		return nil, err
	}

	views := make([]DocumentView, 0, len(documents))
	for _, doc := range documents {
		if isCustomer && !isSeller && !isAdmin && !doc.VisibleToCustomer {
			continue
		}

		locked := doc.RequiresPayment && !paid

		view := DocumentView{
			ID:                doc.ID,
			DocumentType:      doc.DocumentType,
			Title:             doc.Title,
			Description:       doc.Description,
			RequiresPayment:   doc.RequiresPayment,
			IsLocked:          locked,
			VisibleToCustomer: doc.VisibleToCustomer,
			CreatedAt:         doc.CreatedAt,
		}

		// Sellers and admins can always open the file; customers only
		// once the rental is paid.
		if !locked || isSeller || isAdmin {
			view.FileURL = s.storage.ResolveURL(doc.FileRef)
		}

		views = append(views, view)
	}

	return views, nil
}

func (s *DocumentService) hasCompletedPayment(db *gorm.DB, rentalID uuid.UUID) (bool, error) {
	var count int64
	err := db.Model(&models.RentalPayment{}).
		Where("rental_id = ? AND payment_status = ?", rentalID, models.PaymentStatusCompleted).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *DocumentService) renderAgreement(tx *gorm.DB, rental *models.Rental, equipment *models.Equipment) string {
	return fmt.Sprintf(agreementTemplate,
		rental.RentalReference,
		s.partyName(tx, rental.SellerID),
		s.partyName(tx, rental.CustomerID),
		equipment.Name,
		rental.Quantity,
		rental.StartDate.Format("2006-01-02"),
		rental.EndDate.Format("2006-01-02"),
		rental.TotalDays,
		rental.DailyRate.StringFixed(2),
		rental.TotalAmount.StringFixed(2),
		time.Now().Format("2006-01-02"),
	)
}

func (s *DocumentService) partyName(tx *gorm.DB, userID uuid.UUID) string {
	var user models.User
	if err := tx.Select("id", "username", "company_name").First(&user, "id = ?", userID).Error; err != nil {
		return userID.String()
	}
	if user.CompanyName != "" {
		return user.CompanyName
	}
	return user.Username
}
