// internal/services/equipment_service_test.go
package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/tezrent/tezrent-backend/internal/models"
)

type EquipmentServiceSuite struct {
	suite.Suite
	db        *gorm.DB
	equipment *EquipmentService
	seller    *models.User
}

func (s *EquipmentServiceSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.equipment = NewEquipmentService(s.db, newTestStorage(s.T()))
	s.seller = createTestUser(s.T(), s.db, models.UserTypeSeller)
}

func (s *EquipmentServiceSuite) newListing() *CreateEquipmentRequest {
	return &CreateEquipmentRequest{
		Name:        "13m Scissor Lift",
		Description: "Electric scissor lift for indoor work at height",
		Category:    "access",
		DailyRate:   180.555,
		TotalUnits:  4,
	}
}

func (s *EquipmentServiceSuite) TestCreateEquipmentDefaults() {
	created, err := s.equipment.CreateEquipment(s.seller.ID, s.newListing())
	s.Require().NoError(err)

	s.Equal(models.EquipmentStatusAvailable, created.Status)
	s.Equal(4, created.TotalUnits)
	s.Equal(4, created.AvailableUnits)
	s.True(created.DailyRate.Equal(decimal.RequireFromString("180.56")), "got %s", created.DailyRate)
}

func (s *EquipmentServiceSuite) TestCreateByCustomerDenied() {
	customer := createTestUser(s.T(), s.db, models.UserTypeCustomer)
	_, err := s.equipment.CreateEquipment(customer.ID, s.newListing())
	s.ErrorIs(err, ErrUnauthorized)
}

func (s *EquipmentServiceSuite) TestCreateBySuspendedSellerDenied() {
	s.Require().NoError(s.db.Model(s.seller).Update("status", models.UserStatusSuspended).Error)

	_, err := s.equipment.CreateEquipment(s.seller.ID, s.newListing())
	s.ErrorIs(err, ErrInvalidState)
}

func (s *EquipmentServiceSuite) TestCreateValidation() {
	req := s.newListing()
	req.Name = ""

	_, err := s.equipment.CreateEquipment(s.seller.ID, req)
	s.ErrorIs(err, ErrValidation)
}

func (s *EquipmentServiceSuite) TestUpdateOwnerOnly() {
	created, err := s.equipment.CreateEquipment(s.seller.ID, s.newListing())
	s.Require().NoError(err)

	rival := createTestUser(s.T(), s.db, models.UserTypeSeller)
	_, err = s.equipment.UpdateEquipment(created.ID, rival.ID, models.UserTypeSeller, &UpdateEquipmentRequest{
		DailyRate: 200,
	})
	s.ErrorIs(err, ErrUnauthorized)

	admin := createTestUser(s.T(), s.db, models.UserTypeAdmin)
	updated, err := s.equipment.UpdateEquipment(created.ID, admin.ID, models.UserTypeAdmin, &UpdateEquipmentRequest{
		Status: models.EquipmentStatusUnavailable,
	})
	s.Require().NoError(err)
	s.NotNil(updated)
}

func (s *EquipmentServiceSuite) TestAttachManual() {
	created, err := s.equipment.CreateEquipment(s.seller.ID, s.newListing())
	s.Require().NoError(err)

	file, header := newTestUpload("manual.pdf", "operating instructions")
	updated, err := s.equipment.AttachManual(created.ID, s.seller.ID, models.UserTypeSeller, file, header)
	s.Require().NoError(err)
	s.NotEmpty(updated.OperatingManualRef)
	s.Contains(updated.OperatingManualRef, "equipment-manuals/")
}

func (s *EquipmentServiceSuite) TestAttachManualRejectsWrongType() {
	created, err := s.equipment.CreateEquipment(s.seller.ID, s.newListing())
	s.Require().NoError(err)

	file, header := newTestUpload("manual.exe", "not a manual")
	_, err = s.equipment.AttachManual(created.ID, s.seller.ID, models.UserTypeSeller, file, header)
	s.ErrorIs(err, ErrStorage)
}

func (s *EquipmentServiceSuite) TestSearchFilters() {
	_, err := s.equipment.CreateEquipment(s.seller.ID, s.newListing())
	s.Require().NoError(err)

	crane := s.newListing()
	crane.Name = "50t Mobile Crane"
	crane.Description = "All-terrain mobile crane with operator"
	crane.Category = "lifting"
	crane.DailyRate = 950
	created, err := s.equipment.CreateEquipment(s.seller.ID, crane)
	s.Require().NoError(err)

	params := EquipmentSearchParams{PaginationParams: testPaginationParams()}
	params.Category = "lifting"
	results, total, err := s.equipment.SearchEquipment(params)
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Equal("50t Mobile Crane", results[0].Name)

	rateMax := 500.0
	params = EquipmentSearchParams{PaginationParams: testPaginationParams(), RateMax: &rateMax}
	_, total, err = s.equipment.SearchEquipment(params)
	s.Require().NoError(err)
	s.EqualValues(1, total)

	params = EquipmentSearchParams{PaginationParams: testPaginationParams()}
	params.Search = "crane"
	_, total, err = s.equipment.SearchEquipment(params)
	s.Require().NoError(err)
	s.EqualValues(1, total)

	// Draining stock hides the listing from in-stock searches.
	s.Require().NoError(s.db.Model(created).Update("available_units", 0).Error)
	params = EquipmentSearchParams{PaginationParams: testPaginationParams(), OnlyInStock: true}
	_, total, err = s.equipment.SearchEquipment(params)
	s.Require().NoError(err)
	s.EqualValues(1, total)
}

func (s *EquipmentServiceSuite) TestSearchHidesInactiveListings() {
	created, err := s.equipment.CreateEquipment(s.seller.ID, s.newListing())
	s.Require().NoError(err)
	s.Require().NoError(s.db.Model(created).Update("status", models.EquipmentStatusInactive).Error)

	params := EquipmentSearchParams{PaginationParams: testPaginationParams()}
	_, total, err := s.equipment.SearchEquipment(params)
	s.Require().NoError(err)
	s.EqualValues(0, total)

	// The owner's own listing view still includes it.
	_, total, err = s.equipment.GetSellerEquipment(s.seller.ID, testPaginationParams())
	s.Require().NoError(err)
	s.EqualValues(1, total)
}

func TestEquipmentServiceSuite(t *testing.T) {
	suite.Run(t, new(EquipmentServiceSuite))
}
