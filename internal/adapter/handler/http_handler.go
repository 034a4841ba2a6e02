package handler

import (
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"medstock/internal/core/domain"
	"medstock/internal/core/service"
	"medstock/internal/port"
)

type Handler struct {
	processor *service.Processor
	alerts    *service.AlertManager
	items     port.LedgerStore
	txns      port.TransactionStore
	alertRead port.AlertStore
	cache     port.CacheRepository
	logger    *zap.Logger
}

func New(processor *service.Processor, alerts *service.AlertManager, items port.LedgerStore,
	txns port.TransactionStore, alertRead port.AlertStore, cache port.CacheRepository, logger *zap.Logger) *Handler {
	return &Handler{
		processor: processor,
		alerts:    alerts,
		items:     items,
		txns:      txns,
		alertRead: alertRead,
		cache:     cache,
		logger:    logger,
	}
}

func (h *Handler) Register(r *gin.Engine) {
	r.GET("/health", h.HealthCheck)

	api := r.Group("/api/v1")
	api.POST("/transactions", h.RecordTransaction)
	api.GET("/transactions", h.ListTransactions)
	api.GET("/transactions/export", h.ExportTransactions)
	api.POST("/items", h.CreateItem)
	api.GET("/items", h.ListItems)
	api.GET("/items/:id", h.GetItem)
	api.GET("/items/:id/quantity", h.GetQuantity)
	api.GET("/alerts", h.ListAlerts)
	api.POST("/alerts/:id/acknowledge", h.AcknowledgeAlert)
	api.GET("/stats", h.Stats)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) RecordTransaction(c *gin.Context) {
	var req RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid item id"})
		return
	}

	var txnID uuid.UUID
	if req.TransactionID != "" {
		if txnID, err = uuid.Parse(req.TransactionID); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid transaction id"})
			return
		}
	}

	result, err := h.processor.Record(c.Request.Context(), domain.TransactionInput{
		ID:       txnID,
		ItemID:   itemID,
		UserID:   req.UserID,
		Type:     domain.TransactionType(req.Type),
		Quantity: req.Quantity,
		DueDate:  req.DueDate,
		Notes:    req.Notes,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := RecordTransactionResponse{
		Transaction: toTransactionResponse(result.Transaction),
		Item:        toItemResponse(result.Item),
	}
	if result.Alert != nil {
		alert := toAlertResponse(result.Alert)
		resp.Alert = &alert
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) CreateItem(c *gin.Context) {
	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	item := domain.NewInventoryItem(req.SKU, req.Name, req.Quantity, req.MinQuantity)
	item.MaxQuantity = req.MaxQuantity
	if req.UnitPrice != "" {
		price, err := decimal.NewFromString(req.UnitPrice)
		if err != nil || price.IsNegative() {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid unit price"})
			return
		}
		item.UnitPrice = price
	}

	if err := h.items.CreateItem(c.Request.Context(), item); err != nil {
		h.writeError(c, err)
		return
	}

	h.logger.Info("item created",
		zap.String("item_id", item.ID.String()),
		zap.String("sku", item.SKU))
	c.JSON(http.StatusCreated, toItemResponse(item))
}

func (h *Handler) ListItems(c *gin.Context) {
	items, err := h.items.ListItems(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := make([]ItemResponse, 0, len(items))
	for i := range items {
		out = append(out, toItemResponse(&items[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid item id"})
		return
	}

	item, err := h.items.GetItem(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "item not found"})
		return
	}
	c.JSON(http.StatusOK, toItemResponse(item))
}

// GetQuantity serves the dashboard hot path from the cache mirror, falling
// back to the store on a miss.
func (h *Handler) GetQuantity(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid item id"})
		return
	}

	quantity, ok, err := h.cache.GetQuantity(c.Request.Context(), id.String())
	if err != nil {
		h.logger.Warn("quantity cache read failed", zap.Error(err))
		ok = false
	}
	if !ok {
		item, err := h.items.GetItem(c.Request.Context(), id)
		if err != nil {
			h.writeError(c, err)
			return
		}
		if item == nil {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "item not found"})
			return
		}
		quantity = item.Quantity
	}
	c.JSON(http.StatusOK, gin.H{"item_id": id.String(), "quantity": quantity})
}

func (h *Handler) ListTransactions(c *gin.Context) {
	itemID, ok := h.parseOptionalItemID(c)
	if !ok {
		return
	}

	txns, err := h.txns.ListTransactions(c.Request.Context(), itemID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := make([]TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		out = append(out, toTransactionResponse(txn))
	}
	c.JSON(http.StatusOK, out)
}

// ExportTransactions streams the movement history as flat CSV rows for
// reporting.
func (h *Handler) ExportTransactions(c *gin.Context) {
	itemID, ok := h.parseOptionalItemID(c)
	if !ok {
		return
	}

	txns, err := h.txns.ListTransactions(c.Request.Context(), itemID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="transactions.csv"`)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"date", "item", "user", "type", "quantity", "status", "due_date", "notes"})
	for _, txn := range txns {
		dueDate := ""
		if txn.DueDate != nil {
			dueDate = txn.DueDate.Format(time.RFC3339)
		}
		_ = w.Write([]string{
			txn.CreatedAt.Format(time.RFC3339),
			txn.ItemID.String(),
			txn.UserID,
			string(txn.Type),
			strconv.Itoa(txn.Quantity),
			string(txn.Status),
			dueDate,
			txn.Notes,
		})
	}
	w.Flush()
}

func (h *Handler) ListAlerts(c *gin.Context) {
	alerts, err := h.alertRead.ListAlerts(c.Request.Context(), domain.AlertStatus(c.Query("status")))
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := make([]AlertResponse, 0, len(alerts))
	for i := range alerts {
		out = append(out, toAlertResponse(&alerts[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) AcknowledgeAlert(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid alert id"})
		return
	}

	var req AcknowledgeAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	alert, err := h.alerts.Acknowledge(c.Request.Context(), id, req.UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAlertResponse(alert))
}

func (h *Handler) Stats(c *gin.Context) {
	items, err := h.items.ListItems(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	valuation := decimal.Zero
	for i := range items {
		valuation = valuation.Add(items[i].Valuation())
	}

	openAlerts := 0
	for _, status := range []domain.AlertStatus{domain.AlertStatusActive, domain.AlertStatusAcknowledged} {
		alerts, err := h.alertRead.ListAlerts(c.Request.Context(), status)
		if err != nil {
			h.writeError(c, err)
			return
		}
		openAlerts += len(alerts)
	}

	c.JSON(http.StatusOK, StatsResponse{
		ItemCount:      len(items),
		OpenAlertCount: openAlerts,
		TotalValuation: valuation.String(),
	})
}

func (h *Handler) parseOptionalItemID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.Query("item_id")
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid item id"})
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps domain errors onto HTTP statuses; everything else is an
// internal persistence failure reported for manual retry.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidTransaction):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrItemNotFound), errors.Is(err, domain.ErrAlertNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInsufficientStock):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrDuplicateTransaction), errors.Is(err, domain.ErrDuplicateSKU):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrAlertResolved):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	default:
		h.logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
