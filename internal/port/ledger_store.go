package port

import (
	"context"

	"github.com/google/uuid"

	"medstock/internal/core/domain"
)

type LedgerStore interface {
	CreateItem(ctx context.Context, item *domain.InventoryItem) error

	// GetItem retrieves an item by ID; nil when the item does not exist.
	GetItem(ctx context.Context, itemID uuid.UUID) (*domain.InventoryItem, error)

	ListItems(ctx context.Context) ([]domain.InventoryItem, error)

	// ApplyDelta persists the transaction row and applies the signed delta
	// to the item in a single database transaction. The update is
	// conditional: it never drives quantity below zero. Returns the updated
	// item, or domain.ErrInsufficientStock / domain.ErrItemNotFound with no
	// partial state written.
	ApplyDelta(ctx context.Context, txn domain.Transaction, delta int) (*domain.InventoryItem, error)

	// ApplyVersioned backs the degraded read-modify-write path: it persists
	// the transaction row and writes the precomputed quantity guarded by a
	// version check, both in a single database transaction. Returns
	// domain.ErrLedgerConflict when the item changed underneath the caller;
	// the transaction row rolls back with it.
	ApplyVersioned(ctx context.Context, txn domain.Transaction, item domain.InventoryItem) error
}
