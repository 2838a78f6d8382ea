// internal/services/revenue_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tezrent/tezrent-backend/internal/config"
	"github.com/tezrent/tezrent-backend/internal/models"
)

// RevenueService aggregates RentalSale snapshots. All calendar windows use
// the platform's reference timezone, and growth percentages fall back to 0
// when the comparison window is empty.
type RevenueService struct {
	db     *gorm.DB
	config *config.Config
}

func NewRevenueService(db *gorm.DB, cfg *config.Config) *RevenueService {
	return &RevenueService{db: db, config: cfg}
}

type WindowStats struct {
	Sales      int64           `json:"sales"`
	Revenue    decimal.Decimal `json:"revenue"`
	Commission decimal.Decimal `json:"commission"`
	Payout     decimal.Decimal `json:"payout"`
}

type GrowthStats struct {
	RevenuePercent float64 `json:"revenue_percent"`
	SalesPercent   float64 `json:"sales_percent"`
}

type PendingPayouts struct {
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

type RevenueSummary struct {
	TotalSales        int64           `json:"total_sales"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalCommission   decimal.Decimal `json:"total_commission"`
	TotalPayout       decimal.Decimal `json:"total_payout"`
	AverageSaleValue  decimal.Decimal `json:"average_sale_value"`
	AverageRentalDays float64         `json:"average_rental_days"`
	ThisMonth         WindowStats     `json:"this_month"`
	LastMonth         WindowStats     `json:"last_month"`
	ThisYear          WindowStats     `json:"this_year"`
	Growth            GrowthStats     `json:"growth"`
	PendingPayouts    PendingPayouts  `json:"pending_payouts"`
}

// Summarize computes the revenue summary. A nil sellerID aggregates the
// whole platform; otherwise only that seller's sales count.
func (s *RevenueService) Summarize(sellerID *uuid.UUID) (*RevenueSummary, error) {
	now := time.Now().In(s.config.Location())
	thisMonthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.config.Location())
	lastMonthStart := thisMonthStart.AddDate(0, -1, 0)
	yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, s.config.Location())

	summary := &RevenueSummary{}

	lifetime, err := s.windowStats(sellerID, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	summary.TotalSales = lifetime.Sales
	summary.TotalRevenue = lifetime.Revenue
	summary.TotalCommission = lifetime.Commission
	summary.TotalPayout = lifetime.Payout

	if summary.TotalSales > 0 {
		summary.AverageSaleValue = summary.TotalRevenue.
			Div(decimal.NewFromInt(summary.TotalSales)).
			Round(2)
	}

	var avgDays struct {
		Avg float64
	}
	query := s.scoped(sellerID).Select("COALESCE(AVG(rental_days), 0) as avg")
	if err := query.Scan(&avgDays).Error; err != nil {
		return nil, err
	}
	summary.AverageRentalDays = avgDays.Avg

	thisMonth, err := s.windowStats(sellerID, thisMonthStart, time.Time{})
	if err != nil {
		return nil, err
	}
	summary.ThisMonth = *thisMonth

	lastMonth, err := s.windowStats(sellerID, lastMonthStart, thisMonthStart)
	if err != nil {
		return nil, err
	}
	summary.LastMonth = *lastMonth

	thisYear, err := s.windowStats(sellerID, yearStart, time.Time{})
	if err != nil {
		return nil, err
	}
	summary.ThisYear = *thisYear

	summary.Growth = GrowthStats{
		RevenuePercent: growthPercent(thisMonth.Revenue, lastMonth.Revenue),
		SalesPercent: growthPercent(
			decimal.NewFromInt(thisMonth.Sales),
			decimal.NewFromInt(lastMonth.Sales),
		),
	}

	pending, err := s.pendingPayouts(sellerID)
	if err != nil {
		return nil, err
	}
	summary.PendingPayouts = *pending

	return summary, nil
}

type TrendPoint struct {
	Period  string          `json:"period"`
	Sales   int64           `json:"sales"`
	Revenue decimal.Decimal `json:"revenue"`
	Payout  decimal.Decimal `json:"payout"`
}

// Trends returns a revenue series bucketed by day (last 30 days) or month
// (last 12 months). Bucketing happens in Go so the query stays portable.
func (s *RevenueService) Trends(sellerID *uuid.UUID, period string) ([]TrendPoint, error) {
	loc := s.config.Location()
	now := time.Now().In(loc)

	var start time.Time
	var buckets int
	switch period {
	case "daily":
		buckets = 30
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -(buckets - 1))
	case "monthly", "":
		buckets = 12
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, -(buckets - 1), 0)
	default:
		return nil, fmt.Errorf("%w: period must be daily or monthly", ErrValidation)
	}

	var sales []models.RentalSale
	query := s.scoped(sellerID).Where("sale_date >= ?", start).Order("sale_date asc")
	if err := query.Find(&sales).Error; err != nil {
		return nil, err
	}

	labelFor := func(t time.Time) string {
		if period == "daily" {
			return t.In(loc).Format("2006-01-02")
		}
		return t.In(loc).Format("2006-01")
	}

	points := make([]TrendPoint, 0, buckets)
	index := make(map[string]*TrendPoint, buckets)
	for i := 0; i < buckets; i++ {
		var bucketStart time.Time
		if period == "daily" {
			bucketStart = start.AddDate(0, 0, i)
		} else {
			bucketStart = start.AddDate(0, i, 0)
		}
		points = append(points, TrendPoint{
			Period:  labelFor(bucketStart),
			Revenue: decimal.Zero,
			Payout:  decimal.Zero,
		})
		index[points[i].Period] = &points[i]
	}

	for _, sale := range sales {
		point, ok := index[labelFor(sale.SaleDate)]
		if !ok {
			continue
		}
		point.Sales++
		point.Revenue = point.Revenue.Add(sale.TotalRevenue)
		point.Payout = point.Payout.Add(sale.SellerPayout)
	}

	return points, nil
}

// MarkPayoutCompleted records that the transfer for a sale went out.
func (s *RevenueService) MarkPayoutCompleted(saleID uuid.UUID, reference string) (*models.RentalSale, error) {
	var sale models.RentalSale
	if err := s.db.First(&sale, "id = ?", saleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: sale %s", ErrNotFound, saleID)
		}
		return nil, err
	}

	switch sale.PayoutStatus {
	case models.PayoutStatusPending, models.PayoutStatusProcessing, models.PayoutStatusOnHold:
	default:
		return nil, fmt.Errorf("%w: payout already %s", ErrInvalidState, sale.PayoutStatus)
	}

	now := time.Now()
	sale.PayoutStatus = models.PayoutStatusCompleted
	sale.PayoutDate = &now
	sale.PayoutReference = reference

	if err := s.db.Save(&sale).Error; err != nil {
		return nil, err
	}

	return &sale, nil
}

func (s *RevenueService) windowStats(sellerID *uuid.UUID, from, to time.Time) (*WindowStats, error) {
	query := s.scoped(sellerID)
	if !from.IsZero() {
		query = query.Where("sale_date >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("sale_date < ?", to)
	}

	stats := &WindowStats{}
	if err := query.Count(&stats.Sales).Error; err != nil {
		return nil, err
	}

	var sums struct {
		Revenue    decimal.Decimal
		Commission decimal.Decimal
		Payout     decimal.Decimal
	}
	err := query.
		Select("COALESCE(SUM(total_revenue), 0) as revenue, COALESCE(SUM(commission_amount), 0) as commission, COALESCE(SUM(seller_payout), 0) as payout").
		Scan(&sums).Error
	if err != nil {
		return nil, err
	}

	stats.Revenue = sums.Revenue
	stats.Commission = sums.Commission
	stats.Payout = sums.Payout
	return stats, nil
}

func (s *RevenueService) pendingPayouts(sellerID *uuid.UUID) (*PendingPayouts, error) {
	paidRentals := s.db.Model(&models.RentalPayment{}).
		Select("rental_id").
		Where("payment_status = ?", models.PaymentStatusCompleted)

	query := s.scoped(sellerID).
		Where("payout_status = ?", models.PayoutStatusPending).
		Where("rental_id IN (?)", paidRentals)

	pending := &PendingPayouts{}
	if err := query.Count(&pending.Count).Error; err != nil {
		return nil, err
	}

	// Amount is the gross rental value awaiting payout, not the seller's
	// net share.
	var sum struct {
		Amount decimal.Decimal
	}
	if err := query.Select("COALESCE(SUM(total_revenue), 0) as amount").Scan(&sum).Error; err != nil {
		return nil, err
	}
	pending.Amount = sum.Amount

	return pending, nil
}

// growthPercent compares two windows. An empty comparison window means
// there is nothing to grow from, so the result is 0, not a division error.
func growthPercent(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		return 0
	}
	return current.Sub(previous).
		Div(previous).
		Mul(decimal.NewFromInt(100)).
		Round(2).
		InexactFloat64()
}

func (s *RevenueService) scoped(sellerID *uuid.UUID) *gorm.DB {
	query := s.db.Model(&models.RentalSale{})
	if sellerID != nil {
		query = query.Where("seller_id = ?", *sellerID)
	}
	return query
}
