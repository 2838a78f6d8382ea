// internal/services/rental_service_test.go
package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/tezrent/tezrent-backend/internal/models"
)

type RentalServiceSuite struct {
	suite.Suite
	db        *gorm.DB
	stock     *StockService
	rentals   *RentalService
	seller    *models.User
	customer  *models.User
	equipment *models.Equipment
}

func (s *RentalServiceSuite) SetupTest() {
	s.db = newTestDB(s.T())
	cfg := newTestConfig()
	storage := newTestStorage(s.T())
	s.stock = NewStockService(s.db)
	documents := NewDocumentService(s.db, storage)
	s.rentals = NewRentalService(s.db, cfg, s.stock, documents)

	s.seller = createTestUser(s.T(), s.db, models.UserTypeSeller)
	s.customer = createTestUser(s.T(), s.db, models.UserTypeCustomer)
	s.equipment = createTestEquipment(s.T(), s.db, s.seller.ID, 10, "235.00")
}

// newRequest builds a five-day request starting tomorrow.
func (s *RentalServiceSuite) newRequest(quantity int) *CreateRentalRequest {
	return &CreateRentalRequest{
		EquipmentID:     s.equipment.ID.String(),
		StartDate:       futureDate(1),
		EndDate:         futureDate(5),
		Quantity:        quantity,
		DeliveryAddress: "Plot 14, Industrial Area 3",
	}
}

func (s *RentalServiceSuite) available() int {
	available, err := s.stock.AvailableUnits(s.equipment.ID)
	s.Require().NoError(err)
	return available
}

func (s *RentalServiceSuite) TestSmallOrderAutoApproved() {
	rental, err := s.rentals.CreateRental(s.customer.ID, s.newRequest(2))
	s.Require().NoError(err)

	s.Equal(models.RentalStatusApproved, rental.Status)
	s.NotNil(rental.ApprovedAt)
	s.Equal(8, s.available())
}

func (s *RentalServiceSuite) TestLargeOrderAwaitsReview() {
	rental, err := s.rentals.CreateRental(s.customer.ID, s.newRequest(5))
	s.Require().NoError(err)

	s.Equal(models.RentalStatusPending, rental.Status)
	s.Nil(rental.ApprovedAt)
	s.Equal(5, s.available())
}

func (s *RentalServiceSuite) TestPricingSnapshot() {
	rental, err := s.rentals.CreateRental(s.customer.ID, s.newRequest(2))
	s.Require().NoError(err)

	s.Equal(5, rental.TotalDays)
	s.True(rental.DailyRate.Equal(decimal.RequireFromString("235.00")))
	s.True(rental.Subtotal.Equal(decimal.RequireFromString("2350.00")), "got %s", rental.Subtotal)
	s.True(rental.TotalAmount.Equal(decimal.RequireFromString("2350.00")))
	s.True(rental.CommissionRate.Equal(decimal.RequireFromString("0.1")))
	s.True(len(rental.RentalReference) == 11 && rental.RentalReference[:3] == "RNT")
}

func (s *RentalServiceSuite) TestEndBeforeStartRejected() {
	req := s.newRequest(1)
	req.StartDate = futureDate(5)
	req.EndDate = futureDate(1)

	_, err := s.rentals.CreateRental(s.customer.ID, req)
	s.ErrorIs(err, ErrValidation)
}

func (s *RentalServiceSuite) TestSameDayRentalRejected() {
	req := s.newRequest(1)
	req.StartDate = futureDate(2)
	req.EndDate = futureDate(2)

	_, err := s.rentals.CreateRental(s.customer.ID, req)
	s.ErrorIs(err, ErrValidation)
}

func (s *RentalServiceSuite) TestStartInPastRejected() {
	req := s.newRequest(1)
	req.StartDate = futureDate(-2)
	req.EndDate = futureDate(3)

	_, err := s.rentals.CreateRental(s.customer.ID, req)
	s.ErrorIs(err, ErrValidation)
}

func (s *RentalServiceSuite) TestCannotRentOwnEquipment() {
	_, err := s.rentals.CreateRental(s.seller.ID, s.newRequest(1))
	s.ErrorIs(err, ErrValidation)
}

func (s *RentalServiceSuite) TestInsufficientStockRollsBack() {
	_, err := s.rentals.CreateRental(s.customer.ID, s.newRequest(11))
	s.ErrorIs(err, ErrInsufficientStock)

	s.Equal(10, s.available())

	var count int64
	s.NoError(s.db.Model(&models.Rental{}).Count(&count).Error)
	s.Zero(count)
}

func (s *RentalServiceSuite) TestUnavailableEquipmentRejected() {
	s.NoError(s.db.Model(s.equipment).Update("status", models.EquipmentStatusUnavailable).Error)

	_, err := s.rentals.CreateRental(s.customer.ID, s.newRequest(1))
	s.ErrorIs(err, ErrInvalidState)
}

func (s *RentalServiceSuite) TestApproveFlow() {
	rental, err := s.rentals.CreateRental(s.customer.ID, s.newRequest(5))
	s.Require().NoError(err)

	approved, err := s.rentals.ApproveRental(rental.ID, s.seller.ID, models.UserTypeSeller, "Crane booked for delivery")
	s.Require().NoError(err)
	s.Equal(models.RentalStatusApproved, approved.Status)
	s.NotNil(approved.ApprovedAt)
	s.Equal("Crane booked for delivery", approved.SellerNotes)
}

func (s *RentalServiceSuite) TestApproveByStrangerDenied() {
	rental, err := s.rentals.CreateRental(s.customer.ID, s.newRequest(5))
	s.Require().NoError(err)

	_, err = s.rentals.ApproveRental(rental.ID, s.customer.ID, models.UserTypeCustomer, "")
	s.ErrorIs(err, ErrUnauthorized)
}

func (s *RentalServiceSuite) TestApproveTwiceRejected() {
	rental, err := s.rentals.CreateRental(s.customer.ID, s.newRequest(5))
	s.Require().NoError(err)

	_, err = s.rentals.ApproveRental(rental.ID, s.seller.ID, models.UserTypeSeller, "")
	s.Require().NoError(err)

	_, err = s.rentals.ApproveRental(rental.ID, s.seller.ID, models.UserTypeSeller, "")
	s.ErrorIs(err, ErrInvalidState)
}

func (s *RentalServiceSuite) TestRejectReleasesStock() {
	rental, err := s.rentals.CreateRental(s.customer.ID, s.newRequest(5))
	s.Require().NoError(err)
	s.Equal(5, s.available())

	rejected, err := s.rentals.RejectRental(rental.ID, s.seller.ID, models.UserTypeSeller, "Fleet in maintenance")
	s.Require().NoError(err)
	s.Equal(models.RentalStatusRejected, rejected.Status)
	s.Equal(10, s.available())
}

func (s *RentalServiceSuite) TestCancelReleasesStock() {
	rental, err := s.rentals.CreateRental(s.customer.ID, s.newRequest(2))
	s.Require().NoError(err)
	s.Equal(8, s.available())

	cancelled, err := s.rentals.CancelRental(rental.ID, s.customer.ID, models.UserTypeCustomer, "Project postponed")
	s.Require().NoError(err)
	s.Equal(models.RentalStatusCancelled, cancelled.Status)
	s.NotNil(cancelled.CancelledAt)
	s.Equal("Project postponed", cancelled.CancellationReason)
	s.Equal(10, s.available())
}

func (s *RentalServiceSuite) TestCustomerCannotCancelActiveRental() {
	rental, err := s.rentals.CreateRental(s.customer.ID, s.newRequest(2))
	s.Require().NoError(err)

	_, err = s.rentals.ActivateRental(rental.ID, s.seller.ID, models.UserTypeSeller)
	s.Require().NoError(err)

	_, err = s.rentals.CancelRental(rental.ID, s.customer.ID, models.UserTypeCustomer, "")
	s.ErrorIs(err, ErrInvalidState)

	// The seller still can.
	cancelled, err := s.rentals.CancelRental(rental.ID, s.seller.ID, models.UserTypeSeller, "Breakdown on site")
	s.Require().NoError(err)
	s.Equal(models.RentalStatusCancelled, cancelled.Status)
	s.Equal(10, s.available())
}

func (s *RentalServiceSuite) TestActivateRequiresApproval() {
	rental, err := s.rentals.CreateRental(s.customer.ID, s.newRequest(5))
	s.Require().NoError(err)

	_, err = s.rentals.ActivateRental(rental.ID, s.seller.ID, models.UserTypeSeller)
	s.ErrorIs(err, ErrInvalidState)
}

func (s *RentalServiceSuite) TestCompleteWritesSaleSnapshot() {
	rental, err := s.rentals.CreateRental(s.customer.ID, s.newRequest(2))
	s.Require().NoError(err)

	_, err = s.rentals.ActivateRental(rental.ID, s.seller.ID, models.UserTypeSeller)
	s.Require().NoError(err)

	completed, err := s.rentals.CompleteRental(rental.ID, s.seller.ID, models.UserTypeSeller)
	s.Require().NoError(err)
	s.Equal(models.RentalStatusCompleted, completed.Status)
	s.NotNil(completed.CompletedAt)
	s.Equal(10, s.available())

	var sale models.RentalSale
	s.Require().NoError(s.db.First(&sale, "rental_id = ?", rental.ID).Error)
	s.True(sale.TotalRevenue.Equal(decimal.RequireFromString("2350.00")))
	s.True(sale.CommissionAmount.Equal(decimal.RequireFromString("235.00")), "got %s", sale.CommissionAmount)
	s.True(sale.SellerPayout.Equal(decimal.RequireFromString("2115.00")), "got %s", sale.SellerPayout)
	s.Equal(models.PayoutStatusPending, sale.PayoutStatus)
	s.Equal(5, sale.RentalDays)
	s.Equal(2, sale.Quantity)
}

func (s *RentalServiceSuite) TestCompleteRequiresActive() {
	rental, err := s.rentals.CreateRental(s.customer.ID, s.newRequest(2))
	s.Require().NoError(err)

	_, err = s.rentals.CompleteRental(rental.ID, s.seller.ID, models.UserTypeSeller)
	s.ErrorIs(err, ErrInvalidState)
}

func (s *RentalServiceSuite) TestStatusTrailRecorded() {
	rental, err := s.rentals.CreateRental(s.customer.ID, s.newRequest(5))
	s.Require().NoError(err)

	_, err = s.rentals.ApproveRental(rental.ID, s.seller.ID, models.UserTypeSeller, "")
	s.Require().NoError(err)

	var updates []models.RentalStatusUpdate
	s.Require().NoError(s.db.Where("rental_id = ?", rental.ID).Order("created_at asc").Find(&updates).Error)
	s.Require().Len(updates, 2)
	s.Equal(models.RentalStatusPending, updates[0].NewStatus)
	s.Equal(models.RentalStatusPending, updates[1].OldStatus)
	s.Equal(models.RentalStatusApproved, updates[1].NewStatus)
}

func (s *RentalServiceSuite) TestGetRentalPartyCheck() {
	rental, err := s.rentals.CreateRental(s.customer.ID, s.newRequest(2))
	s.Require().NoError(err)

	stranger := createTestUser(s.T(), s.db, models.UserTypeCustomer)
	_, err = s.rentals.GetRental(rental.ID, stranger.ID, models.UserTypeCustomer)
	s.ErrorIs(err, ErrUnauthorized)

	got, err := s.rentals.GetRental(rental.ID, s.customer.ID, models.UserTypeCustomer)
	s.Require().NoError(err)
	s.Equal(rental.ID, got.ID)
	s.NotEmpty(got.StatusUpdates)
}

func (s *RentalServiceSuite) TestListRentalsScopedByRole() {
	_, err := s.rentals.CreateRental(s.customer.ID, s.newRequest(2))
	s.Require().NoError(err)

	other := createTestUser(s.T(), s.db, models.UserTypeCustomer)

	params := testPaginationParams()
	mine, err := s.rentals.ListRentals(s.customer.ID, models.UserTypeCustomer, "", params)
	s.Require().NoError(err)
	s.EqualValues(1, mine.Total)

	theirs, err := s.rentals.ListRentals(other.ID, models.UserTypeCustomer, "", params)
	s.Require().NoError(err)
	s.EqualValues(0, theirs.Total)

	sellers, err := s.rentals.ListRentals(s.seller.ID, models.UserTypeSeller, "approved", params)
	s.Require().NoError(err)
	s.EqualValues(1, sellers.Total)
}

func (s *RentalServiceSuite) TestSellerDashboard() {
	rental, err := s.rentals.CreateRental(s.customer.ID, s.newRequest(2))
	s.Require().NoError(err)
	_, err = s.rentals.ActivateRental(rental.ID, s.seller.ID, models.UserTypeSeller)
	s.Require().NoError(err)
	_, err = s.rentals.CompleteRental(rental.ID, s.seller.ID, models.UserTypeSeller)
	s.Require().NoError(err)

	_, err = s.rentals.CreateRental(s.customer.ID, s.newRequest(5))
	s.Require().NoError(err)

	dashboard, err := s.rentals.GetSellerDashboard(s.seller.ID)
	s.Require().NoError(err)
	s.EqualValues(1, dashboard.PendingRentals)
	s.EqualValues(1, dashboard.CompletedRentals)
	s.EqualValues(1, dashboard.ListedEquipment)
	s.True(dashboard.TotalRevenue.Equal(decimal.RequireFromString("2350.00")))
	s.True(dashboard.TotalPayout.Equal(decimal.RequireFromString("2115.00")))
}

func (s *RentalServiceSuite) TestCustomerDashboard() {
	rental, err := s.rentals.CreateRental(s.customer.ID, s.newRequest(2))
	s.Require().NoError(err)
	_, err = s.rentals.ActivateRental(rental.ID, s.seller.ID, models.UserTypeSeller)
	s.Require().NoError(err)
	_, err = s.rentals.CompleteRental(rental.ID, s.seller.ID, models.UserTypeSeller)
	s.Require().NoError(err)

	dashboard, err := s.rentals.GetCustomerDashboard(s.customer.ID)
	s.Require().NoError(err)
	s.EqualValues(1, dashboard.CompletedRentals)
	s.True(dashboard.TotalSpend.Equal(decimal.RequireFromString("2350.00")))
}

func TestRentalServiceSuite(t *testing.T) {
	suite.Run(t, new(RentalServiceSuite))
}
