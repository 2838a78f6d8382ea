// internal/services/revenue_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/tezrent/tezrent-backend/internal/models"
)

type RevenueServiceSuite struct {
	suite.Suite
	db      *gorm.DB
	revenue *RevenueService
	seller  *models.User
}

func (s *RevenueServiceSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.revenue = NewRevenueService(s.db, newTestConfig())
	s.seller = createTestUser(s.T(), s.db, models.UserTypeSeller)
}

// createSale seeds a revenue snapshot directly. Commission is 10% of
// revenue, matching what rental completion writes.
func (s *RevenueServiceSuite) createSale(sellerID uuid.UUID, revenue string, saleDate time.Time) *models.RentalSale {
	total := decimal.RequireFromString(revenue)
	commission := total.Mul(decimal.RequireFromString("0.1")).Round(2)

	sale := &models.RentalSale{
		RentalID:         uuid.New(),
		SellerID:         sellerID,
		CustomerID:       uuid.New(),
		EquipmentID:      uuid.New(),
		TotalRevenue:     total,
		CommissionRate:   decimal.RequireFromString("0.1"),
		CommissionAmount: commission,
		SellerPayout:     total.Sub(commission),
		RentalDays:       5,
		Quantity:         2,
		RentalStartDate:  saleDate.AddDate(0, 0, -5),
		RentalEndDate:    saleDate,
		SaleDate:         saleDate,
		PayoutStatus:     models.PayoutStatusPending,
	}
	s.Require().NoError(s.db.Create(sale).Error)
	return sale
}

func (s *RevenueServiceSuite) thisMonth() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).Add(time.Hour)
}

func (s *RevenueServiceSuite) lastMonth() time.Time {
	return s.thisMonth().AddDate(0, 0, -15)
}

func (s *RevenueServiceSuite) TestSummarizeTotals() {
	s.createSale(s.seller.ID, "2350.00", s.thisMonth())
	s.createSale(s.seller.ID, "1000.00", s.thisMonth())

	summary, err := s.revenue.Summarize(&s.seller.ID)
	s.Require().NoError(err)

	s.EqualValues(2, summary.TotalSales)
	s.True(summary.TotalRevenue.Equal(decimal.RequireFromString("3350.00")), "got %s", summary.TotalRevenue)
	s.True(summary.TotalCommission.Equal(decimal.RequireFromString("335.00")))
	s.True(summary.TotalPayout.Equal(decimal.RequireFromString("3015.00")))
	s.True(summary.AverageSaleValue.Equal(decimal.RequireFromString("1675.00")))
	s.InDelta(5.0, summary.AverageRentalDays, 0.001)
	s.EqualValues(2, summary.ThisMonth.Sales)
	s.EqualValues(2, summary.ThisYear.Sales)
}

func (s *RevenueServiceSuite) TestGrowthZeroWithoutPriorSales() {
	s.createSale(s.seller.ID, "500.00", s.thisMonth())

	summary, err := s.revenue.Summarize(&s.seller.ID)
	s.Require().NoError(err)

	s.Zero(summary.Growth.RevenuePercent)
	s.Zero(summary.Growth.SalesPercent)
}

func (s *RevenueServiceSuite) TestGrowthAgainstLastMonth() {
	s.createSale(s.seller.ID, "1000.00", s.lastMonth())
	s.createSale(s.seller.ID, "2000.00", s.thisMonth())

	summary, err := s.revenue.Summarize(&s.seller.ID)
	s.Require().NoError(err)

	s.InDelta(100.0, summary.Growth.RevenuePercent, 0.001)
	s.InDelta(0.0, summary.Growth.SalesPercent, 0.001)
	s.EqualValues(1, summary.LastMonth.Sales)
}

func (s *RevenueServiceSuite) TestPendingPayoutsRequireCompletedPayment() {
	paid := s.createSale(s.seller.ID, "2350.00", s.thisMonth())
	s.createSale(s.seller.ID, "800.00", s.thisMonth())

	now := time.Now()
	payment := models.RentalPayment{
		RentalID:      paid.RentalID,
		Amount:        paid.TotalRevenue,
		PaymentMethod: models.PaymentMethodCash,
		PaymentStatus: models.PaymentStatusCompleted,
		CompletedAt:   &now,
	}
	s.Require().NoError(s.db.Create(&payment).Error)

	summary, err := s.revenue.Summarize(&s.seller.ID)
	s.Require().NoError(err)

	s.EqualValues(1, summary.PendingPayouts.Count)
	// Gross rental value, not the seller's net payout.
	s.True(summary.PendingPayouts.Amount.Equal(decimal.RequireFromString("2350.00")), "got %s", summary.PendingPayouts.Amount)
}

func (s *RevenueServiceSuite) TestSellerScoping() {
	other := createTestUser(s.T(), s.db, models.UserTypeSeller)
	s.createSale(s.seller.ID, "1000.00", s.thisMonth())
	s.createSale(other.ID, "9000.00", s.thisMonth())

	mine, err := s.revenue.Summarize(&s.seller.ID)
	s.Require().NoError(err)
	s.EqualValues(1, mine.TotalSales)
	s.True(mine.TotalRevenue.Equal(decimal.RequireFromString("1000.00")))

	platform, err := s.revenue.Summarize(nil)
	s.Require().NoError(err)
	s.EqualValues(2, platform.TotalSales)
	s.True(platform.TotalRevenue.Equal(decimal.RequireFromString("10000.00")))
}

func (s *RevenueServiceSuite) TestMonthlyTrends() {
	sale := s.createSale(s.seller.ID, "2350.00", s.thisMonth())

	points, err := s.revenue.Trends(&s.seller.ID, "monthly")
	s.Require().NoError(err)
	s.Require().Len(points, 12)

	last := points[len(points)-1]
	s.Equal(sale.SaleDate.UTC().Format("2006-01"), last.Period)
	s.EqualValues(1, last.Sales)
	s.True(last.Revenue.Equal(decimal.RequireFromString("2350.00")))
	s.True(last.Payout.Equal(decimal.RequireFromString("2115.00")))

	// Empty buckets report zero, not null.
	s.True(points[0].Revenue.Equal(decimal.Zero))
}

func (s *RevenueServiceSuite) TestDailyTrends() {
	now := time.Now().UTC()
	s.createSale(s.seller.ID, "600.00", now)

	points, err := s.revenue.Trends(&s.seller.ID, "daily")
	s.Require().NoError(err)
	s.Require().Len(points, 30)

	last := points[len(points)-1]
	s.Equal(now.Format("2006-01-02"), last.Period)
	s.EqualValues(1, last.Sales)
}

func (s *RevenueServiceSuite) TestTrendsRejectUnknownPeriod() {
	_, err := s.revenue.Trends(&s.seller.ID, "hourly")
	s.ErrorIs(err, ErrValidation)
}

func (s *RevenueServiceSuite) TestMarkPayoutCompleted() {
	sale := s.createSale(s.seller.ID, "2350.00", s.thisMonth())

	updated, err := s.revenue.MarkPayoutCompleted(sale.ID, "TRF-2026-0815")
	s.Require().NoError(err)
	s.Equal(models.PayoutStatusCompleted, updated.PayoutStatus)
	s.Equal("TRF-2026-0815", updated.PayoutReference)
	s.NotNil(updated.PayoutDate)

	_, err = s.revenue.MarkPayoutCompleted(sale.ID, "TRF-2026-0816")
	s.ErrorIs(err, ErrInvalidState)
}

func (s *RevenueServiceSuite) TestMarkPayoutUnknownSale() {
	_, err := s.revenue.MarkPayoutCompleted(uuid.New(), "TRF")
	s.ErrorIs(err, ErrNotFound)
}

func TestRevenueServiceSuite(t *testing.T) {
	suite.Run(t, new(RevenueServiceSuite))
}
