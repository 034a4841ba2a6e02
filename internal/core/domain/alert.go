package domain

import (
	"time"

	"github.com/google/uuid"
)

type AlertLevel string

const (
	LevelNone       AlertLevel = ""
	LevelLow        AlertLevel = "low"
	LevelCritical   AlertLevel = "critical"
	LevelOutOfStock AlertLevel = "out_of_stock"
)

type AlertStatus string

const (
	AlertStatusActive       AlertStatus = "active"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
)

// Evaluate classifies stock health against the configured minimum.
// The critical boundary is inclusive: a quantity at exactly half the
// minimum classifies as critical. Integer arithmetic keeps the halving
// exact, so Evaluate(q, m) compares 2*q against m.
func Evaluate(quantity, minQuantity int) AlertLevel {
	switch {
	case quantity <= 0:
		return LevelOutOfStock
	case minQuantity <= 0:
		return LevelNone
	case 2*quantity <= minQuantity:
		return LevelCritical
	case quantity <= minQuantity:
		return LevelLow
	default:
		return LevelNone
	}
}

// LowStockAlert is owned exclusively by the alert lifecycle manager.
// At most one alert per item is open (active or acknowledged) at a time;
// resolved alerts are terminal and a fresh breach creates a new instance.
type LowStockAlert struct {
	ID              uuid.UUID
	ItemID          uuid.UUID
	CurrentQuantity int
	MinQuantity     int
	Level           AlertLevel
	Status          AlertStatus
	AcknowledgedBy  string
	AcknowledgedAt  *time.Time
	ResolvedAt      *time.Time
	CreatedAt       time.Time
}

func NewLowStockAlert(item *InventoryItem, level AlertLevel) *LowStockAlert {
	return &LowStockAlert{
		ID:              uuid.New(),
		ItemID:          item.ID,
		CurrentQuantity: item.Quantity,
		MinQuantity:     item.MinQuantity,
		Level:           level,
		Status:          AlertStatusActive,
		CreatedAt:       time.Now(),
	}
}

// Open reports whether the alert still demands attention.
func (a *LowStockAlert) Open() bool {
	return a.Status == AlertStatusActive || a.Status == AlertStatusAcknowledged
}
