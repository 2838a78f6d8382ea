// internal/services/stock_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tezrent/tezrent-backend/internal/models"
)

// StockService owns the available-unit counters on equipment rows.
// Reservations and releases are single guarded UPDATE statements, so two
// concurrent requests can never take the counter below zero.
type StockService struct {
	db *gorm.DB
}

func NewStockService(db *gorm.DB) *StockService {
	return &StockService{db: db}
}

// Reserve decrements available_units by quantity. The guard lives in the
// WHERE clause: if another request drained the stock first, zero rows match
// and the reservation fails without touching the counter.
func (s *StockService) Reserve(tx *gorm.DB, equipmentID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInsufficientStock)
	}

	result := tx.Model(&models.Equipment{}).
		Where("id = ? AND available_units >= ?", equipmentID, quantity).
		Update("available_units", gorm.Expr("available_units - ?", quantity))
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var equipment models.Equipment
		if err := tx.Select("id", "available_units").First(&equipment, "id = ?", equipmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: equipment %s", ErrNotFound, equipmentID)
			}
			return err
		}
		return fmt.Errorf("%w: requested %d, available %d", ErrInsufficientStock, quantity, equipment.AvailableUnits)
	}

	return nil
}

// Release returns previously reserved units. Capped at total_units so a
// double release can never inflate stock past the fleet size.
func (s *StockService) Release(tx *gorm.DB, equipmentID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return nil
	}

	result := tx.Model(&models.Equipment{}).
		Where("id = ? AND available_units + ? <= total_units", equipmentID, quantity).
		Update("available_units", gorm.Expr("available_units + ?", quantity))
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var equipment models.Equipment
		if err := tx.Select("id").First(&equipment, "id = ?", equipmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: equipment %s", ErrNotFound, equipmentID)
			}
			return err
		}
		return fmt.Errorf("release would exceed total units for equipment %s", equipmentID)
	}

	return nil
}

// AvailableUnits reads the current counter, mainly for handlers and tests.
func (s *StockService) AvailableUnits(equipmentID uuid.UUID) (int, error) {
	var equipment models.Equipment
	if err := s.db.Select("id", "available_units").First(&equipment, "id = ?", equipmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: equipment %s", ErrNotFound, equipmentID)
		}
		return 0, err
	}
	return equipment.AvailableUnits, nil
}
