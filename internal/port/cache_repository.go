package port

import "context"

type CacheRepository interface {
	// SetApplied fences a ledger application by transaction id, returns
	// false if the transaction was already applied.
	SetApplied(ctx context.Context, txnID string) (bool, error)

	// ClearApplied drops the fence so a failed application can be retried.
	ClearApplied(ctx context.Context, txnID string) error

	// SetQuantity mirrors an item's on-hand count for dashboard reads.
	SetQuantity(ctx context.Context, itemID string, quantity int) error

	// GetQuantity returns the cached count; ok is false on a cache miss.
	GetQuantity(ctx context.Context, itemID string) (quantity int, ok bool, err error)
}
