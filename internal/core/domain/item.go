package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryItem is the authoritative on-hand record for a supply item.
// Quantity is mutated only through the ledger; Version backs the
// read-modify-write fallback path.
type InventoryItem struct {
	ID          uuid.UUID
	SKU         string
	Name        string
	Quantity    int
	MinQuantity int
	MaxQuantity *int
	UnitPrice   decimal.Decimal
	Version     int // optimistic locking
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewInventoryItem(sku, name string, quantity, minQuantity int) *InventoryItem {
	return &InventoryItem{
		ID:          uuid.New(),
		SKU:         sku,
		Name:        name,
		Quantity:    quantity,
		MinQuantity: minQuantity,
		UnitPrice:   decimal.Zero,
		Version:     1,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

// Valuation returns unit price times on-hand quantity.
func (i *InventoryItem) Valuation() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
