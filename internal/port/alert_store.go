package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"medstock/internal/core/domain"
)

// AlertStore writes are deliberately partial: level changes, acknowledgement,
// and resolution each touch only their own columns, so concurrent transitions
// never overwrite one another's fields.
type AlertStore interface {
	// CreateAlert inserts a new alert; domain.ErrAlertExists when another
	// open alert for the same item won a concurrent race.
	CreateAlert(ctx context.Context, alert *domain.LowStockAlert) error

	// UpdateAlertLevel refreshes the alert's level and quantity snapshot
	// without touching status or acknowledgement fields.
	UpdateAlertLevel(ctx context.Context, alertID uuid.UUID, level domain.AlertLevel, currentQuantity, minQuantity int) error

	// AcknowledgeAlert records the acknowledger on a still-active alert.
	// Returns false without error when the alert is no longer active.
	AcknowledgeAlert(ctx context.Context, alertID uuid.UUID, userID string, at time.Time) (bool, error)

	// ResolveAlert closes the alert, keeping any acknowledgement on record.
	ResolveAlert(ctx context.Context, alertID uuid.UUID, currentQuantity int, resolvedAt time.Time) error

	// GetAlert retrieves an alert by ID; nil when not found.
	GetAlert(ctx context.Context, alertID uuid.UUID) (*domain.LowStockAlert, error)

	// GetOpenAlertByItem returns the item's open (active or acknowledged)
	// alert, or nil when the item has none.
	GetOpenAlertByItem(ctx context.Context, itemID uuid.UUID) (*domain.LowStockAlert, error)

	// ListAlerts filters by status; the empty status lists everything.
	ListAlerts(ctx context.Context, status domain.AlertStatus) ([]domain.LowStockAlert, error)
}
