package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TypeCheckout    TransactionType = "checkout"
	TypeCheckin     TransactionType = "checkin"
	TypeLost        TransactionType = "lost"
	TypeDamaged     TransactionType = "damaged"
	TypeMaintenance TransactionType = "maintenance"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TypeCheckout, TypeCheckin, TypeLost, TypeDamaged, TypeMaintenance:
		return true
	}
	return false
}

// Delta returns the signed quantity change the movement applies to the
// item's on-hand count. Checkin is the only inbound movement.
func (t TransactionType) Delta(quantity int) int {
	if t == TypeCheckin {
		return quantity
	}
	return -quantity
}

// InitialStatus returns the status a freshly recorded movement carries.
// Only checkouts and maintenance sends stay open; the rest are final facts.
func (t TransactionType) InitialStatus() TransactionStatus {
	switch t {
	case TypeCheckout, TypeMaintenance:
		return TxnStatusActive
	case TypeLost:
		return TxnStatusLost
	case TypeDamaged:
		return TxnStatusDamaged
	default:
		return TxnStatusCompleted
	}
}

type TransactionStatus string

const (
	TxnStatusActive    TransactionStatus = "active"
	TxnStatusCompleted TransactionStatus = "completed"
	TxnStatusOverdue   TransactionStatus = "overdue"
	TxnStatusLost      TransactionStatus = "lost"
	TxnStatusDamaged   TransactionStatus = "damaged"
)

// Transaction is an append-only stock-movement fact. Later checkins may
// complete an earlier checkout's status, but the quantities never change.
type Transaction struct {
	ID        uuid.UUID
	ItemID    uuid.UUID
	UserID    string
	Type      TransactionType
	Quantity  int
	Status    TransactionStatus
	DueDate   *time.Time
	Notes     string
	CreatedAt time.Time
}

// TransactionInput is what callers submit. ID is optional; a caller that
// sets it can safely resubmit the same movement after a network failure.
type TransactionInput struct {
	ID       uuid.UUID
	ItemID   uuid.UUID
	UserID   string
	Type     TransactionType
	Quantity int
	DueDate  *time.Time
	Notes    string
}

func (in TransactionInput) Validate() error {
	if in.ItemID == uuid.Nil {
		return fmt.Errorf("%w: item id is required", ErrInvalidTransaction)
	}
	if in.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidTransaction)
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: unrecognized type %q", ErrInvalidTransaction, in.Type)
	}
	if in.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidTransaction, in.Quantity)
	}
	if in.DueDate != nil && in.Type != TypeCheckout {
		return fmt.Errorf("%w: due date only applies to checkout", ErrInvalidTransaction)
	}
	return nil
}

// NewTransaction builds the movement record for a validated input.
func NewTransaction(in TransactionInput) Transaction {
	id := in.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return Transaction{
		ID:        id,
		ItemID:    in.ItemID,
		UserID:    in.UserID,
		Type:      in.Type,
		Quantity:  in.Quantity,
		Status:    in.Type.InitialStatus(),
		DueDate:   in.DueDate,
		Notes:     in.Notes,
		CreatedAt: time.Now(),
	}
}
