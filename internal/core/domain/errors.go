package domain

import "errors"

var (
	ErrInvalidTransaction   = errors.New("invalid transaction")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrItemNotFound         = errors.New("item not found")
	ErrDuplicateSKU         = errors.New("sku already exists")
	ErrDuplicateTransaction = errors.New("transaction already applied")
	ErrLedgerConflict       = errors.New("ledger conflict")
	ErrAlertNotFound        = errors.New("alert not found")
	ErrAlertResolved        = errors.New("alert already resolved")
	ErrAlertExists          = errors.New("open alert already exists for item")
)
