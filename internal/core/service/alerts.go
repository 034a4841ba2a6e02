package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"medstock/internal/core/domain"
	"medstock/internal/port"
)

// AlertManager owns the low-stock alert lifecycle. No other component
// writes alert records.
type AlertManager struct {
	store     port.AlertStore
	publisher port.EventPublisher
	logger    *zap.Logger
}

func NewAlertManager(store port.AlertStore, publisher port.EventPublisher, logger *zap.Logger) *AlertManager {
	return &AlertManager{
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// Reconcile brings the item's stored alert in line with its current
// quantity: it creates an alert on a fresh breach, updates the open alert
// in place when the level moves (acknowledgement survives), and resolves it
// once the quantity recovers above the minimum. Returns the alert it
// touched, or nil when the item is healthy and had none.
func (m *AlertManager) Reconcile(ctx context.Context, item *domain.InventoryItem) (*domain.LowStockAlert, error) {
	level := domain.Evaluate(item.Quantity, item.MinQuantity)

	open, err := m.store.GetOpenAlertByItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}

	switch {
	case level == domain.LevelNone && open == nil:
		return nil, nil

	case level == domain.LevelNone:
		return m.resolve(ctx, open, item.Quantity)

	case open == nil:
		alert := domain.NewLowStockAlert(item, level)
		if err := m.store.CreateAlert(ctx, alert); err != nil {
			if !errors.Is(err, domain.ErrAlertExists) {
				return nil, err
			}
			// Lost a concurrent create; fall through to updating the winner.
			open, err = m.store.GetOpenAlertByItem(ctx, item.ID)
			if err != nil {
				return nil, err
			}
			if open == nil {
				return nil, domain.ErrAlertExists
			}
			return m.update(ctx, open, item, level)
		}
		m.publish(ctx, domain.AlertRaisedEvent{
			AlertID:         alert.ID,
			ItemID:          item.ID,
			Level:           level,
			CurrentQuantity: item.Quantity,
			MinQuantity:     item.MinQuantity,
			OccurredAt:      alert.CreatedAt,
		})
		return alert, nil

	default:
		return m.update(ctx, open, item, level)
	}
}

// update refreshes the open alert's snapshot and level. The write touches
// only those columns, so an acknowledgement landing after our read is never
// overwritten back to active.
func (m *AlertManager) update(ctx context.Context, open *domain.LowStockAlert, item *domain.InventoryItem, level domain.AlertLevel) (*domain.LowStockAlert, error) {
	if open.Level == level && open.CurrentQuantity == item.Quantity && open.MinQuantity == item.MinQuantity {
		return open, nil
	}

	if err := m.store.UpdateAlertLevel(ctx, open.ID, level, item.Quantity, item.MinQuantity); err != nil {
		return nil, err
	}

	previous := open.Level
	open.Level = level
	open.CurrentQuantity = item.Quantity
	open.MinQuantity = item.MinQuantity

	if previous != level {
		m.publish(ctx, domain.AlertLevelChangedEvent{
			AlertID:         open.ID,
			ItemID:          open.ItemID,
			PreviousLevel:   previous,
			Level:           level,
			CurrentQuantity: item.Quantity,
			OccurredAt:      time.Now(),
		})
	}
	return open, nil
}

func (m *AlertManager) resolve(ctx context.Context, open *domain.LowStockAlert, quantity int) (*domain.LowStockAlert, error) {
	now := time.Now()
	if err := m.store.ResolveAlert(ctx, open.ID, quantity, now); err != nil {
		return nil, err
	}

	open.Status = domain.AlertStatusResolved
	open.ResolvedAt = &now
	open.CurrentQuantity = quantity

	m.publish(ctx, domain.AlertResolvedEvent{
		AlertID:    open.ID,
		ItemID:     open.ItemID,
		OccurredAt: now,
	})
	return open, nil
}

// Acknowledge records that a user has seen the alert. Acknowledging twice
// is a no-op; a resolved alert cannot be acknowledged.
func (m *AlertManager) Acknowledge(ctx context.Context, alertID uuid.UUID, userID string) (*domain.LowStockAlert, error) {
	alert, err := m.store.GetAlert(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, domain.ErrAlertNotFound
	}
	if alert.Status == domain.AlertStatusResolved {
		return nil, domain.ErrAlertResolved
	}
	if alert.Status == domain.AlertStatusAcknowledged {
		return alert, nil
	}

	now := time.Now()
	ok, err := m.store.AcknowledgeAlert(ctx, alertID, userID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race with a resolve or another acknowledger; report what
		// actually happened.
		alert, err = m.store.GetAlert(ctx, alertID)
		if err != nil {
			return nil, err
		}
		if alert == nil {
			return nil, domain.ErrAlertNotFound
		}
		if alert.Status == domain.AlertStatusAcknowledged {
			return alert, nil
		}
		return nil, domain.ErrAlertResolved
	}

	alert.Status = domain.AlertStatusAcknowledged
	alert.AcknowledgedBy = userID
	alert.AcknowledgedAt = &now

	m.publish(ctx, domain.AlertAcknowledgedEvent{
		AlertID:        alert.ID,
		ItemID:         alert.ItemID,
		AcknowledgedBy: userID,
		OccurredAt:     now,
	})
	return alert, nil
}

func (m *AlertManager) publish(ctx context.Context, event any) {
	if err := m.publisher.Publish(ctx, event); err != nil {
		m.logger.Warn("failed to publish alert event", zap.Error(err))
	}
}
