package domain

import (
	"time"

	"github.com/google/uuid"
)

// Events emitted after a movement is durably recorded. Subscribers use them
// to refresh dashboards and notification panels without re-fetching.

type TransactionRecordedEvent struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	ItemID        uuid.UUID       `json:"item_id"`
	UserID        string          `json:"user_id"`
	Type          TransactionType `json:"type"`
	Quantity      int             `json:"quantity"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

type StockAdjustedEvent struct {
	ItemID      uuid.UUID `json:"item_id"`
	Delta       int       `json:"delta"`
	NewQuantity int       `json:"new_quantity"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type AlertRaisedEvent struct {
	AlertID         uuid.UUID  `json:"alert_id"`
	ItemID          uuid.UUID  `json:"item_id"`
	Level           AlertLevel `json:"level"`
	CurrentQuantity int        `json:"current_quantity"`
	MinQuantity     int        `json:"min_quantity"`
	OccurredAt      time.Time  `json:"occurred_at"`
}

type AlertLevelChangedEvent struct {
	AlertID         uuid.UUID  `json:"alert_id"`
	ItemID          uuid.UUID  `json:"item_id"`
	PreviousLevel   AlertLevel `json:"previous_level"`
	Level           AlertLevel `json:"level"`
	CurrentQuantity int        `json:"current_quantity"`
	OccurredAt      time.Time  `json:"occurred_at"`
}

type AlertAcknowledgedEvent struct {
	AlertID        uuid.UUID `json:"alert_id"`
	ItemID         uuid.UUID `json:"item_id"`
	AcknowledgedBy string    `json:"acknowledged_by"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type AlertResolvedEvent struct {
	AlertID    uuid.UUID `json:"alert_id"`
	ItemID     uuid.UUID `json:"item_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
