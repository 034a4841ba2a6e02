package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"medstock/internal/core/domain"
)

// MemoryAdapter keeps the whole store in process behind one mutex. It backs
// tests and local development; the mutex gives it the same per-item
// serialization the MySQL adapter gets from its conditional update.
type MemoryAdapter struct {
	mu     sync.Mutex
	items  map[uuid.UUID]domain.InventoryItem
	txns   []domain.Transaction
	alerts map[uuid.UUID]domain.LowStockAlert
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		items:  make(map[uuid.UUID]domain.InventoryItem),
		alerts: make(map[uuid.UUID]domain.LowStockAlert),
	}
}

func (m *MemoryAdapter) CreateItem(ctx context.Context, item *domain.InventoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.items {
		if existing.SKU == item.SKU {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateSKU, item.SKU)
		}
	}
	m.items[item.ID] = *item
	return nil
}

func (m *MemoryAdapter) GetItem(ctx context.Context, itemID uuid.UUID) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[itemID]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (m *MemoryAdapter) ListItems(ctx context.Context) ([]domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]domain.InventoryItem, 0, len(m.items))
	for _, item := range m.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SKU < items[j].SKU })
	return items, nil
}

func (m *MemoryAdapter) ApplyDelta(ctx context.Context, txn domain.Transaction, delta int) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[txn.ItemID]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	next := item.Quantity + delta
	if next < 0 {
		return nil, fmt.Errorf("%w: have %d, need %d", domain.ErrInsufficientStock, item.Quantity, -delta)
	}

	m.txns = append(m.txns, txn)
	item.Quantity = next
	item.Version++
	item.UpdatedAt = time.Now()
	m.items[txn.ItemID] = item
	return &item, nil
}

// ApplyVersioned persists the movement and the precomputed quantity together
// under the version check; a stale version writes nothing at all.
func (m *MemoryAdapter) ApplyVersioned(ctx context.Context, txn domain.Transaction, item domain.InventoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.items[item.ID]
	if !ok || current.Version != item.Version {
		return domain.ErrLedgerConflict
	}

	m.txns = append(m.txns, txn)
	current.Quantity = item.Quantity
	current.Version++
	current.UpdatedAt = time.Now()
	m.items[item.ID] = current
	return nil
}

func (m *MemoryAdapter) GetTransaction(ctx context.Context, txnID uuid.UUID) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.txns {
		if m.txns[i].ID == txnID {
			txn := m.txns[i]
			return &txn, nil
		}
	}
	return nil, nil
}

func (m *MemoryAdapter) ListTransactions(ctx context.Context, itemID uuid.UUID) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var txns []domain.Transaction
	for i := len(m.txns) - 1; i >= 0; i-- {
		if itemID == uuid.Nil || m.txns[i].ItemID == itemID {
			txns = append(txns, m.txns[i])
		}
	}
	return txns, nil
}

func (m *MemoryAdapter) CompleteOpenCheckouts(ctx context.Context, itemID uuid.UUID, userID string, quantity int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	completed := 0
	remaining := quantity
	for i := range m.txns {
		txn := &m.txns[i]
		if txn.ItemID != itemID || txn.UserID != userID || txn.Type != domain.TypeCheckout {
			continue
		}
		if txn.Status != domain.TxnStatusActive && txn.Status != domain.TxnStatusOverdue {
			continue
		}
		if txn.Quantity > remaining {
			break
		}
		remaining -= txn.Quantity
		txn.Status = domain.TxnStatusCompleted
		completed++
	}
	return completed, nil
}

func (m *MemoryAdapter) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var flagged int64
	for i := range m.txns {
		txn := &m.txns[i]
		if txn.Type == domain.TypeCheckout && txn.Status == domain.TxnStatusActive &&
			txn.DueDate != nil && txn.DueDate.Before(asOf) {
			txn.Status = domain.TxnStatusOverdue
			flagged++
		}
	}
	return flagged, nil
}

func (m *MemoryAdapter) CreateAlert(ctx context.Context, alert *domain.LowStockAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.alerts {
		if existing.ItemID == alert.ItemID && existing.Open() {
			return fmt.Errorf("%w: item %s", domain.ErrAlertExists, alert.ItemID)
		}
	}
	m.alerts[alert.ID] = *alert
	return nil
}

func (m *MemoryAdapter) UpdateAlertLevel(ctx context.Context, alertID uuid.UUID, level domain.AlertLevel, currentQuantity, minQuantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert, ok := m.alerts[alertID]
	if !ok {
		return domain.ErrAlertNotFound
	}
	alert.Level = level
	alert.CurrentQuantity = currentQuantity
	alert.MinQuantity = minQuantity
	m.alerts[alertID] = alert
	return nil
}

func (m *MemoryAdapter) AcknowledgeAlert(ctx context.Context, alertID uuid.UUID, userID string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert, ok := m.alerts[alertID]
	if !ok || alert.Status != domain.AlertStatusActive {
		return false, nil
	}
	ackAt := at
	alert.Status = domain.AlertStatusAcknowledged
	alert.AcknowledgedBy = userID
	alert.AcknowledgedAt = &ackAt
	m.alerts[alertID] = alert
	return true, nil
}

func (m *MemoryAdapter) ResolveAlert(ctx context.Context, alertID uuid.UUID, currentQuantity int, resolvedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert, ok := m.alerts[alertID]
	if !ok {
		return domain.ErrAlertNotFound
	}
	resAt := resolvedAt
	alert.Status = domain.AlertStatusResolved
	alert.ResolvedAt = &resAt
	alert.CurrentQuantity = currentQuantity
	m.alerts[alertID] = alert
	return nil
}

func (m *MemoryAdapter) GetAlert(ctx context.Context, alertID uuid.UUID) (*domain.LowStockAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert, ok := m.alerts[alertID]
	if !ok {
		return nil, nil
	}
	return &alert, nil
}

func (m *MemoryAdapter) GetOpenAlertByItem(ctx context.Context, itemID uuid.UUID) (*domain.LowStockAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, alert := range m.alerts {
		if alert.ItemID == itemID && alert.Open() {
			a := alert
			return &a, nil
		}
	}
	return nil, nil
}

func (m *MemoryAdapter) ListAlerts(ctx context.Context, status domain.AlertStatus) ([]domain.LowStockAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var alerts []domain.LowStockAlert
	for _, alert := range m.alerts {
		if status == "" || alert.Status == status {
			alerts = append(alerts, alert)
		}
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].CreatedAt.After(alerts[j].CreatedAt) })
	return alerts, nil
}

// MemoryCache is the in-process counterpart of the Redis adapter.
type MemoryCache struct {
	mu      sync.Mutex
	applied map[string]bool
	onHand  map[string]int
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		applied: make(map[string]bool),
		onHand:  make(map[string]int),
	}
}

func (c *MemoryCache) SetApplied(ctx context.Context, txnID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.applied[txnID] {
		return false, nil
	}
	c.applied[txnID] = true
	return true, nil
}

func (c *MemoryCache) ClearApplied(ctx context.Context, txnID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.applied, txnID)
	return nil
}

func (c *MemoryCache) SetQuantity(ctx context.Context, itemID string, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onHand[itemID] = quantity
	return nil
}

func (c *MemoryCache) GetQuantity(ctx context.Context, itemID string) (int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	quantity, ok := c.onHand[itemID]
	return quantity, ok, nil
}
