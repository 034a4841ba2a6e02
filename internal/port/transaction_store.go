package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"medstock/internal/core/domain"
)

type TransactionStore interface {
	// GetTransaction retrieves a movement by ID; nil when not found.
	GetTransaction(ctx context.Context, txnID uuid.UUID) (*domain.Transaction, error)

	// ListTransactions returns movement history, newest first.
	// uuid.Nil lists across all items.
	ListTransactions(ctx context.Context, itemID uuid.UUID) ([]domain.Transaction, error)

	// CompleteOpenCheckouts marks a user's open checkouts on an item as
	// completed, oldest first, covering at most the returned quantity.
	// Reports how many checkouts were completed.
	CompleteOpenCheckouts(ctx context.Context, itemID uuid.UUID, userID string, quantity int) (int, error)

	// MarkOverdue flags active checkouts whose due date has passed.
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}
