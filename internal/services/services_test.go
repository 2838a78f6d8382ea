// internal/services/services_test.go
package services

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tezrent/tezrent-backend/internal/config"
	"github.com/tezrent/tezrent-backend/internal/models"
	"github.com/tezrent/tezrent-backend/internal/utils"
)

// newTestDB opens an in-memory database pinned to a single connection so
// concurrent test writers serialize instead of each getting a fresh empty
// database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Equipment{},
		&models.Rental{},
		&models.RentalStatusUpdate{},
		&models.RentalDocument{},
		&models.RentalPayment{},
		&models.RentalSale{},
	))

	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		JWT: config.JWTConfig{
			SecretKey:       "test-secret",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 24,
		},
		Payment: config.PaymentConfig{
			Currency:          "aed",
			CommissionPercent: 10.0,
		},
		Platform: config.PlatformConfig{
			Timezone:              "UTC",
			AutoApprovalThreshold: 5,
		},
	}
}

// newTestStorage runs in local mode, so nothing leaves the process.
func newTestStorage(t *testing.T) *StorageService {
	t.Helper()

	storage, err := NewStorageService(newTestConfig())
	require.NoError(t, err)
	return storage
}

func createTestUser(t *testing.T, db *gorm.DB, userType models.UserType) *models.User {
	t.Helper()

	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	user := &models.User{
		Username: fmt.Sprintf("user_%s", suffix),
		Email:    fmt.Sprintf("user_%s@example.com", suffix),
		UserType: userType,
		Status:   models.UserStatusActive,
	}
	if userType == models.UserTypeSeller {
		user.CompanyName = "Test Rentals LLC"
	}
	require.NoError(t, user.SetPassword("TestPass123!"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestEquipment(t *testing.T, db *gorm.DB, sellerID uuid.UUID, units int, dailyRate string) *models.Equipment {
	t.Helper()

	equipment := &models.Equipment{
		SellerID:       sellerID,
		Name:           "20kVA Diesel Generator",
		Description:    "Silenced diesel generator for site power",
		Category:       "power",
		DailyRate:      decimal.RequireFromString(dailyRate),
		TotalUnits:     units,
		AvailableUnits: units,
		Status:         models.EquipmentStatusAvailable,
	}
	require.NoError(t, db.Create(equipment).Error)
	return equipment
}

type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

// newTestUpload fakes a multipart upload without an HTTP request.
func newTestUpload(name, content string) (multipart.File, *multipart.FileHeader) {
	header := &multipart.FileHeader{
		Filename: name,
		Size:     int64(len(content)),
		Header:   textproto.MIMEHeader{"Content-Type": []string{"application/pdf"}},
	}
	return memFile{bytes.NewReader([]byte(content))}, header
}

func futureDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format(rentalDateLayout)
}

func testPaginationParams() utils.PaginationParams {
	return utils.PaginationParams{
		Page:  1,
		Limit: 20,
		Sort:  "created_at",
		Order: "desc",
	}
}
