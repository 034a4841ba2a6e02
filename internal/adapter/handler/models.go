package handler

import (
	"time"

	"medstock/internal/core/domain"
)

type CreateItemRequest struct {
	SKU         string `json:"sku" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Quantity    int    `json:"quantity" binding:"min=0"`
	MinQuantity int    `json:"min_quantity" binding:"min=0"`
	MaxQuantity *int   `json:"max_quantity"`
	UnitPrice   string `json:"unit_price"`
}

type RecordTransactionRequest struct {
	// TransactionID lets a client resubmit the same movement after a
	// network failure without double-counting. Optional.
	TransactionID string     `json:"transaction_id"`
	ItemID        string     `json:"item_id" binding:"required"`
	UserID        string     `json:"user_id" binding:"required"`
	Type          string     `json:"type" binding:"required"`
	Quantity      int        `json:"quantity" binding:"required,min=1"`
	DueDate       *time.Time `json:"due_date"`
	Notes         string     `json:"notes"`
}

type AcknowledgeAlertRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type ItemResponse struct {
	ID          string `json:"id"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	MinQuantity int    `json:"min_quantity"`
	MaxQuantity *int   `json:"max_quantity,omitempty"`
	UnitPrice   string `json:"unit_price"`
	UpdatedAt   string `json:"updated_at"`
}

type TransactionResponse struct {
	ID        string     `json:"id"`
	ItemID    string     `json:"item_id"`
	UserID    string     `json:"user_id"`
	Type      string     `json:"type"`
	Quantity  int        `json:"quantity"`
	Status    string     `json:"status"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type AlertResponse struct {
	ID              string     `json:"id"`
	ItemID          string     `json:"item_id"`
	CurrentQuantity int        `json:"current_quantity"`
	MinQuantity     int        `json:"min_quantity"`
	Level           string     `json:"alert_level"`
	Status          string     `json:"status"`
	AcknowledgedBy  string     `json:"acknowledged_by,omitempty"`
	AcknowledgedAt  *time.Time `json:"acknowledged_at,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type RecordTransactionResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Item        ItemResponse        `json:"item"`
	Alert       *AlertResponse      `json:"alert,omitempty"`
}

type StatsResponse struct {
	ItemCount      int    `json:"item_count"`
	OpenAlertCount int    `json:"open_alert_count"`
	TotalValuation string `json:"total_valuation"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func toItemResponse(item *domain.InventoryItem) ItemResponse {
	return ItemResponse{
		ID:          item.ID.String(),
		SKU:         item.SKU,
		Name:        item.Name,
		Quantity:    item.Quantity,
		MinQuantity: item.MinQuantity,
		MaxQuantity: item.MaxQuantity,
		UnitPrice:   item.UnitPrice.String(),
		UpdatedAt:   item.UpdatedAt.Format(time.RFC3339),
	}
}

func toTransactionResponse(txn domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:        txn.ID.String(),
		ItemID:    txn.ItemID.String(),
		UserID:    txn.UserID,
		Type:      string(txn.Type),
		Quantity:  txn.Quantity,
		Status:    string(txn.Status),
		DueDate:   txn.DueDate,
		Notes:     txn.Notes,
		CreatedAt: txn.CreatedAt,
	}
}

func toAlertResponse(alert *domain.LowStockAlert) AlertResponse {
	return AlertResponse{
		ID:              alert.ID.String(),
		ItemID:          alert.ItemID.String(),
		CurrentQuantity: alert.CurrentQuantity,
		MinQuantity:     alert.MinQuantity,
		Level:           string(alert.Level),
		Status:          string(alert.Status),
		AcknowledgedBy:  alert.AcknowledgedBy,
		AcknowledgedAt:  alert.AcknowledgedAt,
		ResolvedAt:      alert.ResolvedAt,
		CreatedAt:       alert.CreatedAt,
	}
}
