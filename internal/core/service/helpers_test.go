package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"medstock/internal/adapter/storage"
	"medstock/internal/core/domain"
)

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []any
}

func (p *capturePublisher) Publish(ctx context.Context, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) Events() []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]any, len(p.events))
	copy(out, p.events)
	return out
}

type fixture struct {
	store     *storage.MemoryAdapter
	cache     *storage.MemoryCache
	publisher *capturePublisher
	ledger    *Ledger
	alerts    *AlertManager
	processor *Processor
	sweeper   *Sweeper
}

func newFixture() *fixture {
	store := storage.NewMemoryAdapter()
	cache := storage.NewMemoryCache()
	publisher := &capturePublisher{}
	log := zap.NewNop()

	ledger := NewLedger(NewAtomicApplier(store), NewReadModifyWriteApplier(store), cache, log)
	alerts := NewAlertManager(store, publisher, log)

	return &fixture{
		store:     store,
		cache:     cache,
		publisher: publisher,
		ledger:    ledger,
		alerts:    alerts,
		processor: NewProcessor(ledger, store, store, alerts, publisher, log),
		sweeper:   NewSweeper(store, store, alerts, time.Minute, log),
	}
}

func (f *fixture) seedItem(t *testing.T, quantity, minQuantity int) *domain.InventoryItem {
	t.Helper()
	item := domain.NewInventoryItem("SKU-"+uuid.NewString()[:8], "Test Supply", quantity, minQuantity)
	if err := f.store.CreateItem(context.Background(), item); err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

func testTxn(itemID uuid.UUID, txnType domain.TransactionType, quantity int) domain.Transaction {
	return domain.NewTransaction(domain.TransactionInput{
		ItemID:   itemID,
		UserID:   "tester",
		Type:     txnType,
		Quantity: quantity,
	})
}
