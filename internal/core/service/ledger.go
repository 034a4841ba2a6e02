package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"medstock/internal/core/domain"
	"medstock/internal/port"
)

// DeltaApplier persists a stock movement and applies its signed delta to the
// owning item. Implementations differ in the consistency guarantee they
// offer; Name identifies which path ran in logs and tests.
type DeltaApplier interface {
	Name() string
	Apply(ctx context.Context, txn domain.Transaction, delta int) (*domain.InventoryItem, error)
}

// AtomicApplier delegates to the store's single-statement conditional
// update, so the read-modify-write is never observable by other callers.
type AtomicApplier struct {
	store port.LedgerStore
}

func NewAtomicApplier(store port.LedgerStore) *AtomicApplier {
	return &AtomicApplier{store: store}
}

func (a *AtomicApplier) Name() string { return "atomic" }

func (a *AtomicApplier) Apply(ctx context.Context, txn domain.Transaction, delta int) (*domain.InventoryItem, error) {
	return a.store.ApplyDelta(ctx, txn, delta)
}

// ReadModifyWriteApplier is the degraded path: it reads the current
// quantity, computes the new one in process, and writes it back with a
// version check. Concurrent writers can force it to fail where the atomic
// path would have serialized, so it is only used when the atomic path is
// unavailable. The transaction row and the quantity land in one store
// transaction, so a lost version race leaves no orphan movement behind.
type ReadModifyWriteApplier struct {
	store port.LedgerStore
}

func NewReadModifyWriteApplier(store port.LedgerStore) *ReadModifyWriteApplier {
	return &ReadModifyWriteApplier{store: store}
}

func (a *ReadModifyWriteApplier) Name() string { return "read-modify-write" }

func (a *ReadModifyWriteApplier) Apply(ctx context.Context, txn domain.Transaction, delta int) (*domain.InventoryItem, error) {
	item, err := a.store.GetItem(ctx, txn.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrItemNotFound
	}

	next := item.Quantity + delta
	if next < 0 {
		return nil, fmt.Errorf("%w: have %d, need %d", domain.ErrInsufficientStock, item.Quantity, -delta)
	}

	updated := *item
	updated.Quantity = next
	if err := a.store.ApplyVersioned(ctx, txn, updated); err != nil {
		return nil, err
	}

	return a.store.GetItem(ctx, txn.ItemID)
}

// Ledger owns every write to an item's on-hand quantity. It prefers the
// atomic path and falls back to read-modify-write only on a ledger
// conflict, logging a warning each time the weaker path runs. Applications
// are fenced per transaction id so a resubmitted movement is never counted
// twice.
type Ledger struct {
	atomic   DeltaApplier
	fallback DeltaApplier
	cache    port.CacheRepository
	logger   *zap.Logger
}

func NewLedger(atomic, fallback DeltaApplier, cache port.CacheRepository, logger *zap.Logger) *Ledger {
	return &Ledger{
		atomic:   atomic,
		fallback: fallback,
		cache:    cache,
		logger:   logger,
	}
}

func (l *Ledger) ApplyDelta(ctx context.Context, txn domain.Transaction, delta int) (*domain.InventoryItem, error) {
	fenced := true
	ok, err := l.cache.SetApplied(ctx, txn.ID.String())
	if err != nil {
		// The fence is a retry guard, not a correctness gate for first
		// submissions; losing it briefly beats rejecting every movement.
		l.logger.Warn("idempotency fence unavailable, applying without it",
			zap.String("transaction_id", txn.ID.String()),
			zap.Error(err))
		fenced = false
	} else if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateTransaction, txn.ID)
	}

	item, err := l.atomic.Apply(ctx, txn, delta)
	if err == nil {
		l.syncCache(ctx, item)
		return item, nil
	}

	if !errors.Is(err, domain.ErrLedgerConflict) {
		l.release(ctx, txn, fenced)
		return nil, err
	}

	l.logger.Warn("atomic ledger path unavailable, using degraded path",
		zap.String("path", l.fallback.Name()),
		zap.String("transaction_id", txn.ID.String()),
		zap.Error(err))

	item, err = l.fallback.Apply(ctx, txn, delta)
	if err != nil {
		l.release(ctx, txn, fenced)
		return nil, err
	}

	l.syncCache(ctx, item)
	return item, nil
}

func (l *Ledger) syncCache(ctx context.Context, item *domain.InventoryItem) {
	if err := l.cache.SetQuantity(ctx, item.ID.String(), item.Quantity); err != nil {
		l.logger.Warn("failed to mirror quantity to cache",
			zap.String("item_id", item.ID.String()),
			zap.Error(err))
	}
}

func (l *Ledger) release(ctx context.Context, txn domain.Transaction, fenced bool) {
	if !fenced {
		return
	}
	if err := l.cache.ClearApplied(ctx, txn.ID.String()); err != nil {
		l.logger.Error("CRITICAL: failed to release idempotency fence, retry of this transaction will be rejected",
			zap.String("transaction_id", txn.ID.String()),
			zap.Error(err))
	}
}
