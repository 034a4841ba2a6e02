package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"medstock/internal/adapter/events"
	"medstock/internal/adapter/storage"
	"medstock/internal/core/service"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storage.NewMemoryAdapter()
	cache := storage.NewMemoryCache()
	publisher := events.NewMemoryPublisher()
	log := zap.NewNop()

	ledger := service.NewLedger(service.NewAtomicApplier(store), service.NewReadModifyWriteApplier(store), cache, log)
	alerts := service.NewAlertManager(store, publisher, log)
	processor := service.NewProcessor(ledger, store, store, alerts, publisher, log)

	router := gin.New()
	New(processor, alerts, store, store, store, cache, log).Register(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createItem(t *testing.T, router *gin.Engine, sku string, quantity, minQuantity int) ItemResponse {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/v1/items", CreateItemRequest{
		SKU:         sku,
		Name:        "Test Supply",
		Quantity:    quantity,
		MinQuantity: minQuantity,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var item ItemResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	return item
}

func TestHealthCheck(t *testing.T) {
	router := setupRouter(t)
	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateItem(t *testing.T) {
	router := setupRouter(t)

	item := createItem(t, router, "GAUZE-4X4", 50, 10)
	assert.Equal(t, "GAUZE-4X4", item.SKU)
	assert.Equal(t, 50, item.Quantity)

	// Duplicate SKU conflicts.
	w := doJSON(t, router, http.MethodPost, "/api/v1/items", CreateItemRequest{
		SKU: "GAUZE-4X4", Name: "Again", Quantity: 1,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Missing required fields fail binding.
	w = doJSON(t, router, http.MethodPost, "/api/v1/items", map[string]any{"quantity": 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Malformed price is rejected before any write.
	w = doJSON(t, router, http.MethodPost, "/api/v1/items", CreateItemRequest{
		SKU: "SALINE-1L", Name: "Saline", Quantity: 5, UnitPrice: "not-a-number",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/items/"+item.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/items/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordTransaction(t *testing.T) {
	router := setupRouter(t)
	item := createItem(t, router, "SYRINGE-5ML", 10, 4)

	// Checkout that crosses the minimum returns the alert inline.
	w := doJSON(t, router, http.MethodPost, "/api/v1/transactions", RecordTransactionRequest{
		ItemID: item.ID, UserID: "nurse-1", Type: "checkout", Quantity: 7,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var result RecordTransactionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 3, result.Item.Quantity)
	assert.Equal(t, "active", result.Transaction.Status)
	require.NotNil(t, result.Alert)
	assert.Equal(t, "low", result.Alert.Level)

	// Oversubscription conflicts and changes nothing.
	w = doJSON(t, router, http.MethodPost, "/api/v1/transactions", RecordTransactionRequest{
		ItemID: item.ID, UserID: "nurse-1", Type: "checkout", Quantity: 4,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Unknown type is a validation error.
	w = doJSON(t, router, http.MethodPost, "/api/v1/transactions", RecordTransactionRequest{
		ItemID: item.ID, UserID: "nurse-1", Type: "transfer", Quantity: 1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Movements against a missing item 404.
	w = doJSON(t, router, http.MethodPost, "/api/v1/transactions", RecordTransactionRequest{
		ItemID: "0c9a7e3e-0000-4000-8000-000000000000", UserID: "nurse-1", Type: "checkout", Quantity: 1,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecordTransactionIdempotent(t *testing.T) {
	router := setupRouter(t)
	item := createItem(t, router, "GLOVES-M", 10, 2)

	req := RecordTransactionRequest{
		TransactionID: "7d8f9f1a-1111-4111-8111-111111111111",
		ItemID:        item.ID,
		UserID:        "nurse-1",
		Type:          "checkout",
		Quantity:      2,
	}

	w := doJSON(t, router, http.MethodPost, "/api/v1/transactions", req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Resubmission replays the recorded movement without applying it again.
	w = doJSON(t, router, http.MethodPost, "/api/v1/transactions", req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var replayed RecordTransactionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &replayed))
	assert.Equal(t, req.TransactionID, replayed.Transaction.ID)
	assert.Equal(t, 8, replayed.Item.Quantity)

	w = doJSON(t, router, http.MethodGet, "/api/v1/items/"+item.ID, nil)
	var got ItemResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 8, got.Quantity)
}

func TestGetQuantity(t *testing.T) {
	router := setupRouter(t)
	item := createItem(t, router, "MASK-N95", 30, 5)

	// No movement yet, so the cache misses and the store answers.
	w := doJSON(t, router, http.MethodGet, "/api/v1/items/"+item.ID+"/quantity", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 30, body["quantity"])

	// After a movement the mirrored value serves the read.
	w = doJSON(t, router, http.MethodPost, "/api/v1/transactions", RecordTransactionRequest{
		ItemID: item.ID, UserID: "nurse-1", Type: "checkout", Quantity: 10,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/items/"+item.ID+"/quantity", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 20, body["quantity"])

	w = doJSON(t, router, http.MethodGet, "/api/v1/items/7d8f9f1a-2222-4222-8222-222222222222/quantity", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAlertEndpoints(t *testing.T) {
	router := setupRouter(t)
	item := createItem(t, router, "BANDAGE-L", 10, 4)

	w := doJSON(t, router, http.MethodPost, "/api/v1/transactions", RecordTransactionRequest{
		ItemID: item.ID, UserID: "nurse-1", Type: "checkout", Quantity: 9,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/alerts?status=active", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var alerts []AlertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alerts))
	require.Len(t, alerts, 1)
	assert.Equal(t, "critical", alerts[0].Level)

	w = doJSON(t, router, http.MethodPost, "/api/v1/alerts/"+alerts[0].ID+"/acknowledge", AcknowledgeAlertRequest{UserID: "charge-nurse"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var acked AlertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &acked))
	assert.Equal(t, "acknowledged", acked.Status)
	assert.Equal(t, "charge-nurse", acked.AcknowledgedBy)

	// Unknown alert id 404s.
	w = doJSON(t, router, http.MethodPost, "/api/v1/alerts/7d8f9f1a-3333-4333-8333-333333333333/acknowledge", AcknowledgeAlertRequest{UserID: "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Restock resolves; acknowledging a resolved alert conflicts.
	w = doJSON(t, router, http.MethodPost, "/api/v1/transactions", RecordTransactionRequest{
		ItemID: item.ID, UserID: "nurse-1", Type: "checkin", Quantity: 9,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/alerts/"+alerts[0].ID+"/acknowledge", AcknowledgeAlertRequest{UserID: "x"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/alerts?status=resolved", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alerts))
	assert.Len(t, alerts, 1)
}

func TestExportTransactions(t *testing.T) {
	router := setupRouter(t)
	item := createItem(t, router, "SUTURE-KIT", 10, 2)

	w := doJSON(t, router, http.MethodPost, "/api/v1/transactions", RecordTransactionRequest{
		ItemID: item.ID, UserID: "nurse-1", Type: "checkout", Quantity: 2, Notes: "OR room 3",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/transactions/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "date,item,user,type,quantity,status,due_date,notes", lines[0])
	assert.Contains(t, lines[1], item.ID)
	assert.Contains(t, lines[1], "OR room 3")
}

func TestStats(t *testing.T) {
	router := setupRouter(t)
	item := createItem(t, router, "IV-KIT", 10, 4)
	createItem(t, router, "TAPE-ROLL", 100, 10)

	w := doJSON(t, router, http.MethodPost, "/api/v1/transactions", RecordTransactionRequest{
		ItemID: item.ID, UserID: "nurse-1", Type: "checkout", Quantity: 8,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.ItemCount)
	assert.Equal(t, 1, stats.OpenAlertCount)
}

func TestListTransactionsFilter(t *testing.T) {
	router := setupRouter(t)
	first := createItem(t, router, "SWAB-A", 10, 2)
	second := createItem(t, router, "SWAB-B", 10, 2)

	for _, id := range []string{first.ID, second.ID} {
		w := doJSON(t, router, http.MethodPost, "/api/v1/transactions", RecordTransactionRequest{
			ItemID: id, UserID: "nurse-1", Type: "checkout", Quantity: 1,
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, router, http.MethodGet, "/api/v1/transactions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var txns []TransactionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &txns))
	assert.Len(t, txns, 2)

	w = doJSON(t, router, http.MethodGet, "/api/v1/transactions?item_id="+first.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &txns))
	require.Len(t, txns, 1)
	assert.Equal(t, first.ID, txns[0].ItemID)

	w = doJSON(t, router, http.MethodGet, "/api/v1/transactions?item_id=junk", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
