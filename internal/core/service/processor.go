package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"medstock/internal/core/domain"
	"medstock/internal/port"
)

// RecordResult carries everything a caller needs to refresh derived views
// without re-fetching: the recorded movement, the item it changed, and the
// alert the change produced or resolved (nil when none).
type RecordResult struct {
	Transaction domain.Transaction
	Item        *domain.InventoryItem
	Alert       *domain.LowStockAlert
}

// Processor validates and records stock movements. The transaction row and
// the quantity delta become durable together, so the movement history can
// always explain every quantity change and a ledger failure leaves no
// orphan transaction behind.
type Processor struct {
	ledger    *Ledger
	items     port.LedgerStore
	txns      port.TransactionStore
	alerts    *AlertManager
	publisher port.EventPublisher
	logger    *zap.Logger
}

func NewProcessor(ledger *Ledger, items port.LedgerStore, txns port.TransactionStore, alerts *AlertManager, publisher port.EventPublisher, logger *zap.Logger) *Processor {
	return &Processor{
		ledger:    ledger,
		items:     items,
		txns:      txns,
		alerts:    alerts,
		publisher: publisher,
		logger:    logger,
	}
}

func (p *Processor) Record(ctx context.Context, in domain.TransactionInput) (*RecordResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	txn := domain.NewTransaction(in)
	delta := in.Type.Delta(in.Quantity)

	item, err := p.ledger.ApplyDelta(ctx, txn, delta)
	if errors.Is(err, domain.ErrDuplicateTransaction) {
		return p.replay(ctx, txn.ID)
	}
	if err != nil {
		return nil, err
	}

	if txn.Type == domain.TypeCheckin {
		if _, err := p.txns.CompleteOpenCheckouts(ctx, txn.ItemID, txn.UserID, txn.Quantity); err != nil {
			p.logger.Warn("failed to complete open checkouts",
				zap.String("item_id", txn.ItemID.String()),
				zap.String("user_id", txn.UserID),
				zap.Error(err))
		}
	}

	alert, err := p.alerts.Reconcile(ctx, item)
	if err != nil {
		// The quantity change is already durable; the periodic sweep
		// re-evaluates alerts, so a failed reconciliation degrades instead
		// of aborting the whole submission.
		p.logger.Error("alert reconciliation failed",
			zap.String("item_id", item.ID.String()),
			zap.Error(err))
		alert = nil
	}

	now := time.Now()
	p.publish(ctx, domain.TransactionRecordedEvent{
		TransactionID: txn.ID,
		ItemID:        txn.ItemID,
		UserID:        txn.UserID,
		Type:          txn.Type,
		Quantity:      txn.Quantity,
		OccurredAt:    now,
	})
	p.publish(ctx, domain.StockAdjustedEvent{
		ItemID:      item.ID,
		Delta:       delta,
		NewQuantity: item.Quantity,
		OccurredAt:  now,
	})

	return &RecordResult{Transaction: txn, Item: item, Alert: alert}, nil
}

// replay answers a resubmission of an already-applied transaction id with
// the recorded movement and the item's current state, so a client that lost
// the first response converges without special-casing a conflict.
func (p *Processor) replay(ctx context.Context, txnID uuid.UUID) (*RecordResult, error) {
	txn, err := p.txns.GetTransaction(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		// Fenced but never persisted: an application is still in flight.
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateTransaction, txnID)
	}

	item, err := p.items.GetItem(ctx, txn.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrItemNotFound
	}

	p.logger.Info("replayed duplicate transaction submission",
		zap.String("transaction_id", txnID.String()),
		zap.String("item_id", txn.ItemID.String()))
	return &RecordResult{Transaction: *txn, Item: item}, nil
}

func (p *Processor) publish(ctx context.Context, event any) {
	if err := p.publisher.Publish(ctx, event); err != nil {
		p.logger.Warn("failed to publish event", zap.Error(err))
	}
}
