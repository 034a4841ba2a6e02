package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"medstock/internal/port"
)

// Sweeper periodically re-evaluates every item's alert and flags past-due
// checkouts. It is an operational safety net for reconciliations missed at
// transaction time; it needs no coordination with in-flight submissions.
type Sweeper struct {
	items    port.LedgerStore
	txns     port.TransactionStore
	alerts   *AlertManager
	interval time.Duration
	logger   *zap.Logger
}

func NewSweeper(items port.LedgerStore, txns port.TransactionStore, alerts *AlertManager, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		items:    items,
		txns:     txns,
		alerts:   alerts,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs a single pass. Per-item failures are logged and skipped so
// one bad row cannot starve the rest.
func (s *Sweeper) Sweep(ctx context.Context) {
	items, err := s.items.ListItems(ctx)
	if err != nil {
		s.logger.Error("sweep: failed to list items", zap.Error(err))
		return
	}

	for i := range items {
		if _, err := s.alerts.Reconcile(ctx, &items[i]); err != nil {
			s.logger.Warn("sweep: alert reconciliation failed",
				zap.String("item_id", items[i].ID.String()),
				zap.Error(err))
		}
	}

	flagged, err := s.txns.MarkOverdue(ctx, time.Now())
	if err != nil {
		s.logger.Warn("sweep: failed to flag overdue checkouts", zap.Error(err))
		return
	}
	if flagged > 0 {
		s.logger.Info("sweep: flagged overdue checkouts", zap.Int64("count", flagged))
	}
}
