package handler_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdant-ops/gardenledger/internal/domain"
	"github.com/verdant-ops/gardenledger/internal/testutil"
)

func TestInventoryHandler_RecordWithExpense(t *testing.T) {
	e := newEnv(t)
	productID := uuid.New()

	rr := e.do(http.MethodPost, "/inventory/movements", map[string]interface{}{
		"productId":     productID,
		"productName":   "Bark mulch 50L",
		"type":          "in",
		"quantity":      "3",
		"unitCost":      "12.40",
		"movementDate":  "2025-02-10",
		"createExpense": true,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	movement := decode[domain.StockMovementDTO](t, rr)
	require.NotNil(t, movement.LinkedExpense)
	assert.Equal(t, "37.2", movement.LinkedExpense.Amount.String())

	rr = e.do(http.MethodGet, "/inventory/movements/"+movement.ID.String()+"/expense", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	ref := decode[*domain.LedgerEntryRef](t, rr)
	require.NotNil(t, ref)
	assert.Equal(t, movement.LinkedExpense.ID, ref.ID)

	rr = e.do(http.MethodGet, "/inventory/movements?productId="+productID.String(), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[[]domain.StockMovementDTO](t, rr)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].LinkedExpense)
}

func TestInventoryHandler_ReconcilesExistingExpense(t *testing.T) {
	e := newEnv(t)
	expense := testutil.CreateTestLedgerEntry(t, e.db, e.accountID, domain.LedgerEntryExpense, domain.LedgerEntryPaid, domain.NewDate(2025, 2, 5), "50.00")

	rr := e.do(http.MethodPost, "/inventory/movements", map[string]interface{}{
		"productId":    uuid.New(),
		"type":         "in",
		"quantity":     "4",
		"unitCost":     "12.50",
		"movementDate": "2025-02-05",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	movement := decode[domain.StockMovementDTO](t, rr)

	rr = e.do(http.MethodGet, "/inventory/movements/"+movement.ID.String()+"/expense", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	ref := decode[*domain.LedgerEntryRef](t, rr)
	require.NotNil(t, ref)
	assert.Equal(t, expense.ID, ref.ID)
}

func TestInventoryHandler_NoMatchAnswersNull(t *testing.T) {
	e := newEnv(t)

	rr := e.do(http.MethodPost, "/inventory/movements", map[string]interface{}{
		"productId": uuid.New(),
		"type":      "out",
		"quantity":  "1",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	movement := decode[domain.StockMovementDTO](t, rr)

	rr = e.do(http.MethodGet, "/inventory/movements/"+movement.ID.String()+"/expense", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "null", strings.TrimSpace(rr.Body.String()))
}

func TestInventoryHandler_Errors(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name     string
		method   string
		target   string
		body     interface{}
		wantCode int
	}{
		{name: "zero quantity", method: http.MethodPost, target: "/inventory/movements", body: map[string]interface{}{"productId": uuid.New(), "type": "in", "quantity": "0"}, wantCode: http.StatusBadRequest},
		{name: "bad type", method: http.MethodPost, target: "/inventory/movements", body: map[string]interface{}{"productId": uuid.New(), "type": "transfer", "quantity": "1"}, wantCode: http.StatusBadRequest},
		{name: "expense without cost", method: http.MethodPost, target: "/inventory/movements", body: map[string]interface{}{"productId": uuid.New(), "type": "in", "quantity": "1", "createExpense": true}, wantCode: http.StatusBadRequest},
		{name: "unknown movement", method: http.MethodGet, target: "/inventory/movements/" + uuid.NewString() + "/expense", wantCode: http.StatusNotFound},
		{name: "bad product filter", method: http.MethodGet, target: "/inventory/movements?productId=abc", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := e.do(tt.method, tt.target, tt.body)
			assert.Equal(t, tt.wantCode, rr.Code, rr.Body.String())
		})
	}
}
