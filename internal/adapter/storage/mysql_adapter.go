package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"medstock/internal/core/domain"
)

// MySQL error numbers the adapter cares about.
const (
	mysqlErrDupEntry        = 1062
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
)

// MySQLAdapter is the authoritative store for items, transactions, and
// alerts. Quantity updates go through a single conditional statement so two
// checkouts racing for the last unit can never both succeed.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// InitSchema creates the tables if they do not exist. The generated
// open_marker column gives "at most one open alert per item" a unique index
// to lean on instead of an application-side scan.
func (m *MySQLAdapter) InitSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS inventory_items (
			id CHAR(36) PRIMARY KEY,
			sku VARCHAR(64) NOT NULL UNIQUE,
			name VARCHAR(255) NOT NULL,
			quantity INT NOT NULL DEFAULT 0,
			min_quantity INT NOT NULL DEFAULT 0,
			max_quantity INT NULL,
			unit_price DECIMAL(12,2) NOT NULL DEFAULT 0,
			version INT NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			CHECK (quantity >= 0),
			CHECK (min_quantity >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id CHAR(36) PRIMARY KEY,
			item_id CHAR(36) NOT NULL,
			user_id VARCHAR(64) NOT NULL,
			type VARCHAR(16) NOT NULL,
			quantity INT NOT NULL,
			status VARCHAR(16) NOT NULL,
			due_date DATETIME NULL,
			notes TEXT,
			created_at DATETIME NOT NULL,
			KEY idx_txn_item (item_id),
			KEY idx_txn_user_item (user_id, item_id),
			KEY idx_txn_status (status),
			CHECK (quantity > 0)
		)`,
		`CREATE TABLE IF NOT EXISTS low_stock_alerts (
			id CHAR(36) PRIMARY KEY,
			item_id CHAR(36) NOT NULL,
			current_quantity INT NOT NULL,
			min_quantity INT NOT NULL,
			alert_level VARCHAR(16) NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'active',
			acknowledged_by VARCHAR(64) NULL,
			acknowledged_at DATETIME NULL,
			resolved_at DATETIME NULL,
			created_at DATETIME NOT NULL,
			open_marker CHAR(36) GENERATED ALWAYS AS
				(IF(status IN ('active','acknowledged'), item_id, NULL)) STORED,
			UNIQUE KEY uq_open_alert_per_item (open_marker),
			KEY idx_alert_item (item_id),
			KEY idx_alert_status (status)
		)`,
	}

	for _, stmt := range statements {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// classify maps driver errors the ledger reacts to onto domain sentinels:
// lock contention becomes a ledger conflict so the caller can fall back.
func classify(op string, err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlErrLockWaitTimeout, mysqlErrDeadlock:
			return fmt.Errorf("%s: %w: %v", op, domain.ErrLedgerConflict, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTransaction(ctx context.Context, ex execer, txn domain.Transaction) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO transactions (id, item_id, user_id, type, quantity, status, due_date, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID.String(), txn.ItemID.String(), txn.UserID, string(txn.Type),
		txn.Quantity, string(txn.Status), txn.DueDate, txn.Notes, txn.CreatedAt,
	)
	if err != nil {
		return classify("insert transaction", err)
	}
	return nil
}

// ApplyDelta writes the transaction row and the quantity delta in one
// database transaction. The conditional update rejects any delta that would
// drive quantity negative; commit makes both rows durable together, so an
// audit can always explain a quantity change by its movement record and a
// failed delta leaves no orphan transaction.
func (m *MySQLAdapter) ApplyDelta(ctx context.Context, txn domain.Transaction, delta int) (*domain.InventoryItem, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify("begin tx", err)
	}
	defer tx.Rollback()

	if err := insertTransaction(ctx, tx, txn); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE inventory_items
		SET quantity = quantity + ?, version = version + 1, updated_at = NOW()
		WHERE id = ? AND quantity + ? >= 0`,
		delta, txn.ItemID.String(), delta,
	)
	if err != nil {
		return nil, classify("update quantity", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		// Distinguish a missing item from an exhausted one.
		var current int
		err := tx.QueryRowContext(ctx,
			`SELECT quantity FROM inventory_items WHERE id = ?`,
			txn.ItemID.String(),
		).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("query quantity: %w", err)
		}
		return nil, fmt.Errorf("%w: have %d, need %d", domain.ErrInsufficientStock, current, -delta)
	}

	item, err := scanItem(tx.QueryRowContext(ctx, selectItem+` WHERE id = ?`, txn.ItemID.String()))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, classify("commit", err)
	}
	return item, nil
}

// ApplyVersioned writes the transaction row and a precomputed quantity with
// a version check, both in one database transaction. Losing the version race
// rolls the movement row back with it, so the degraded path leaves no orphan
// transactions either.
func (m *MySQLAdapter) ApplyVersioned(ctx context.Context, txn domain.Transaction, item domain.InventoryItem) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin tx", err)
	}
	defer tx.Rollback()

	if err := insertTransaction(ctx, tx, txn); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE inventory_items
		SET quantity = ?, version = version + 1, updated_at = NOW()
		WHERE id = ? AND version = ?`,
		item.Quantity, item.ID.String(), item.Version,
	)
	if err != nil {
		return classify("update quantity", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrLedgerConflict
	}

	if err := tx.Commit(); err != nil {
		return classify("commit", err)
	}
	return nil
}

const selectItem = `
	SELECT id, sku, name, quantity, min_quantity, max_quantity, unit_price, version, created_at, updated_at
	FROM inventory_items`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.InventoryItem, error) {
	var (
		item   domain.InventoryItem
		id     string
		maxQty sql.NullInt64
	)
	err := row.Scan(&id, &item.SKU, &item.Name, &item.Quantity, &item.MinQuantity,
		&maxQty, &item.UnitPrice, &item.Version, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}

	item.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse item id: %w", err)
	}
	if maxQty.Valid {
		v := int(maxQty.Int64)
		item.MaxQuantity = &v
	}
	return &item, nil
}

func (m *MySQLAdapter) CreateItem(ctx context.Context, item *domain.InventoryItem) error {
	var maxQty any
	if item.MaxQuantity != nil {
		maxQty = *item.MaxQuantity
	}
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO inventory_items (id, sku, name, quantity, min_quantity, max_quantity, unit_price, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID.String(), item.SKU, item.Name, item.Quantity, item.MinQuantity,
		maxQty, item.UnitPrice, item.Version, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlErrDupEntry {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateSKU, item.SKU)
		}
		return classify("insert item", err)
	}
	return nil
}

func (m *MySQLAdapter) GetItem(ctx context.Context, itemID uuid.UUID) (*domain.InventoryItem, error) {
	item, err := scanItem(m.db.QueryRowContext(ctx, selectItem+` WHERE id = ?`, itemID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}
	return item, nil
}

func (m *MySQLAdapter) ListItems(ctx context.Context) ([]domain.InventoryItem, error) {
	rows, err := m.db.QueryContext(ctx, selectItem+` ORDER BY sku`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []domain.InventoryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

const selectTransaction = `
	SELECT id, item_id, user_id, type, quantity, status, due_date, notes, created_at
	FROM transactions`

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var (
		txn     domain.Transaction
		id      string
		itemID  string
		dueDate sql.NullTime
		notes   sql.NullString
	)
	err := row.Scan(&id, &itemID, &txn.UserID, &txn.Type, &txn.Quantity,
		&txn.Status, &dueDate, &notes, &txn.CreatedAt)
	if err != nil {
		return nil, err
	}

	if txn.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse transaction id: %w", err)
	}
	if txn.ItemID, err = uuid.Parse(itemID); err != nil {
		return nil, fmt.Errorf("parse item id: %w", err)
	}
	if dueDate.Valid {
		d := dueDate.Time
		txn.DueDate = &d
	}
	txn.Notes = notes.String
	return &txn, nil
}

func (m *MySQLAdapter) GetTransaction(ctx context.Context, txnID uuid.UUID) (*domain.Transaction, error) {
	txn, err := scanTransaction(m.db.QueryRowContext(ctx, selectTransaction+` WHERE id = ?`, txnID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query transaction: %w", err)
	}
	return txn, nil
}

func (m *MySQLAdapter) ListTransactions(ctx context.Context, itemID uuid.UUID) ([]domain.Transaction, error) {
	query := selectTransaction
	var args []any
	if itemID != uuid.Nil {
		query += ` WHERE item_id = ?`
		args = append(args, itemID.String())
	}
	query += ` ORDER BY created_at DESC`

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, *txn)
	}
	return txns, rows.Err()
}

// CompleteOpenCheckouts marks the user's open checkouts on the item as
// completed, oldest first, while the returned quantity still covers them.
func (m *MySQLAdapter) CompleteOpenCheckouts(ctx context.Context, itemID uuid.UUID, userID string, quantity int) (int, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, classify("begin tx", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, quantity FROM transactions
		WHERE item_id = ? AND user_id = ? AND type = 'checkout' AND status IN ('active','overdue')
		ORDER BY created_at
		FOR UPDATE`,
		itemID.String(), userID,
	)
	if err != nil {
		return 0, classify("select open checkouts", err)
	}

	var ids []string
	remaining := quantity
	for rows.Next() {
		var id string
		var qty int
		if err := rows.Scan(&id, &qty); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan checkout: %w", err)
		}
		if qty > remaining {
			break
		}
		remaining -= qty
		ids = append(ids, id)
	}
	if err := rows.Close(); err != nil {
		return 0, fmt.Errorf("close rows: %w", err)
	}

	if len(ids) == 0 {
		return 0, tx.Commit()
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE transactions SET status = 'completed' WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, classify("complete checkouts", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, classify("commit", err)
	}
	return len(ids), nil
}

func (m *MySQLAdapter) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	result, err := m.db.ExecContext(ctx, `
		UPDATE transactions SET status = 'overdue'
		WHERE type = 'checkout' AND status = 'active' AND due_date IS NOT NULL AND due_date < ?`,
		asOf,
	)
	if err != nil {
		return 0, classify("mark overdue", err)
	}
	return result.RowsAffected()
}

const selectAlert = `
	SELECT id, item_id, current_quantity, min_quantity, alert_level, status,
	       acknowledged_by, acknowledged_at, resolved_at, created_at
	FROM low_stock_alerts`

func scanAlert(row rowScanner) (*domain.LowStockAlert, error) {
	var (
		alert  domain.LowStockAlert
		id     string
		itemID string
		ackBy  sql.NullString
		ackAt  sql.NullTime
		resAt  sql.NullTime
	)
	err := row.Scan(&id, &itemID, &alert.CurrentQuantity, &alert.MinQuantity,
		&alert.Level, &alert.Status, &ackBy, &ackAt, &resAt, &alert.CreatedAt)
	if err != nil {
		return nil, err
	}

	if alert.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse alert id: %w", err)
	}
	if alert.ItemID, err = uuid.Parse(itemID); err != nil {
		return nil, fmt.Errorf("parse item id: %w", err)
	}
	alert.AcknowledgedBy = ackBy.String
	if ackAt.Valid {
		t := ackAt.Time
		alert.AcknowledgedAt = &t
	}
	if resAt.Valid {
		t := resAt.Time
		alert.ResolvedAt = &t
	}
	return &alert, nil
}

func (m *MySQLAdapter) CreateAlert(ctx context.Context, alert *domain.LowStockAlert) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO low_stock_alerts (id, item_id, current_quantity, min_quantity, alert_level, status,
			acknowledged_by, acknowledged_at, resolved_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		alert.ID.String(), alert.ItemID.String(), alert.CurrentQuantity, alert.MinQuantity,
		string(alert.Level), string(alert.Status),
		nullString(alert.AcknowledgedBy), alert.AcknowledgedAt, alert.ResolvedAt, alert.CreatedAt,
	)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlErrDupEntry {
			return fmt.Errorf("%w: item %s", domain.ErrAlertExists, alert.ItemID)
		}
		return classify("insert alert", err)
	}
	return nil
}

// UpdateAlertLevel touches only the level and quantity snapshot. Status and
// acknowledgement columns stay untouched so a concurrent acknowledgement is
// never erased by a level change.
func (m *MySQLAdapter) UpdateAlertLevel(ctx context.Context, alertID uuid.UUID, level domain.AlertLevel, currentQuantity, minQuantity int) error {
	_, err := m.db.ExecContext(ctx, `
		UPDATE low_stock_alerts
		SET current_quantity = ?, min_quantity = ?, alert_level = ?
		WHERE id = ?`,
		currentQuantity, minQuantity, string(level), alertID.String(),
	)
	if err != nil {
		return classify("update alert level", err)
	}
	return nil
}

// AcknowledgeAlert is conditioned on the alert still being active; a lost
// race reports false so the caller can re-read.
func (m *MySQLAdapter) AcknowledgeAlert(ctx context.Context, alertID uuid.UUID, userID string, at time.Time) (bool, error) {
	result, err := m.db.ExecContext(ctx, `
		UPDATE low_stock_alerts
		SET status = 'acknowledged', acknowledged_by = ?, acknowledged_at = ?
		WHERE id = ? AND status = 'active'`,
		userID, at, alertID.String(),
	)
	if err != nil {
		return false, classify("acknowledge alert", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// ResolveAlert closes the alert; acknowledgement columns stay on record.
func (m *MySQLAdapter) ResolveAlert(ctx context.Context, alertID uuid.UUID, currentQuantity int, resolvedAt time.Time) error {
	_, err := m.db.ExecContext(ctx, `
		UPDATE low_stock_alerts
		SET status = 'resolved', resolved_at = ?, current_quantity = ?
		WHERE id = ?`,
		resolvedAt, currentQuantity, alertID.String(),
	)
	if err != nil {
		return classify("resolve alert", err)
	}
	return nil
}

func (m *MySQLAdapter) GetAlert(ctx context.Context, alertID uuid.UUID) (*domain.LowStockAlert, error) {
	alert, err := scanAlert(m.db.QueryRowContext(ctx, selectAlert+` WHERE id = ?`, alertID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query alert: %w", err)
	}
	return alert, nil
}

func (m *MySQLAdapter) GetOpenAlertByItem(ctx context.Context, itemID uuid.UUID) (*domain.LowStockAlert, error) {
	alert, err := scanAlert(m.db.QueryRowContext(ctx,
		selectAlert+` WHERE item_id = ? AND status IN ('active','acknowledged')`,
		itemID.String(),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query open alert: %w", err)
	}
	return alert, nil
}

func (m *MySQLAdapter) ListAlerts(ctx context.Context, status domain.AlertStatus) ([]domain.LowStockAlert, error) {
	query := selectAlert
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []domain.LowStockAlert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, *alert)
	}
	return alerts, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
