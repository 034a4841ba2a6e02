package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTransactionTypeDelta(t *testing.T) {
	tests := []struct {
		txnType  TransactionType
		quantity int
		want     int
	}{
		{TypeCheckout, 5, -5},
		{TypeCheckin, 5, 5},
		{TypeLost, 2, -2},
		{TypeDamaged, 1, -1},
		{TypeMaintenance, 3, -3},
	}

	for _, tt := range tests {
		if got := tt.txnType.Delta(tt.quantity); got != tt.want {
			t.Errorf("%s.Delta(%d) = %d, want %d", tt.txnType, tt.quantity, got, tt.want)
		}
	}
}

func TestTransactionTypeInitialStatus(t *testing.T) {
	tests := []struct {
		txnType TransactionType
		want    TransactionStatus
	}{
		{TypeCheckout, TxnStatusActive},
		{TypeMaintenance, TxnStatusActive},
		{TypeCheckin, TxnStatusCompleted},
		{TypeLost, TxnStatusLost},
		{TypeDamaged, TxnStatusDamaged},
	}

	for _, tt := range tests {
		if got := tt.txnType.InitialStatus(); got != tt.want {
			t.Errorf("%s.InitialStatus() = %q, want %q", tt.txnType, got, tt.want)
		}
	}
}

func TestTransactionInputValidate(t *testing.T) {
	due := time.Now().Add(24 * time.Hour)
	valid := TransactionInput{
		ItemID:   uuid.New(),
		UserID:   "nurse-7",
		Type:     TypeCheckout,
		Quantity: 2,
		DueDate:  &due,
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(in *TransactionInput)
	}{
		{"missing item id", func(in *TransactionInput) { in.ItemID = uuid.Nil }},
		{"missing user id", func(in *TransactionInput) { in.UserID = "" }},
		{"unknown type", func(in *TransactionInput) { in.Type = "borrow" }},
		{"zero quantity", func(in *TransactionInput) { in.Quantity = 0 }},
		{"negative quantity", func(in *TransactionInput) { in.Quantity = -4 }},
		{"due date on checkin", func(in *TransactionInput) { in.Type = TypeCheckin }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			err := in.Validate()
			if !errors.Is(err, ErrInvalidTransaction) {
				t.Errorf("Validate() = %v, want ErrInvalidTransaction", err)
			}
		})
	}
}

func TestNewTransaction(t *testing.T) {
	in := TransactionInput{
		ItemID:   uuid.New(),
		UserID:   "nurse-7",
		Type:     TypeCheckout,
		Quantity: 2,
	}

	txn := NewTransaction(in)
	if txn.ID == uuid.Nil {
		t.Error("expected generated transaction id")
	}
	if txn.Status != TxnStatusActive {
		t.Errorf("status = %q, want %q", txn.Status, TxnStatusActive)
	}

	// A caller-supplied id must survive so resubmissions are recognizable.
	in.ID = uuid.New()
	txn = NewTransaction(in)
	if txn.ID != in.ID {
		t.Errorf("transaction id = %s, want caller-supplied %s", txn.ID, in.ID)
	}
}

func TestItemValuation(t *testing.T) {
	item := NewInventoryItem("SKU-3", "Saline", 8, 4)
	if !item.Valuation().IsZero() {
		t.Errorf("unpriced item valuation = %s, want 0", item.Valuation())
	}
}
