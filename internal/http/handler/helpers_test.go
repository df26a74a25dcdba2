package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/verdant-ops/gardenledger/internal/domain"
	"github.com/verdant-ops/gardenledger/internal/http/handler"
	"github.com/verdant-ops/gardenledger/internal/repository"
	"github.com/verdant-ops/gardenledger/internal/service"
	"github.com/verdant-ops/gardenledger/internal/storage"
	"github.com/verdant-ops/gardenledger/internal/testutil"
)

const testStoreTimeout = 5 * time.Second

// env wires the handlers against a fresh database the same way the API does.
// The clock is fixed at 2025-02-12 10:00 UTC.
type env struct {
	t         *testing.T
	db        *gorm.DB
	ctx       context.Context
	accountID uuid.UUID
	plan      *domain.Plan
	mux       http.Handler
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	clock := &testutil.FixedClock{At: time.Date(2025, 2, 12, 10, 0, 0, 0, time.UTC)}

	plans := repository.NewPlanRepository(db)
	executions := repository.NewExecutionRepository(db)
	ledger := repository.NewLedgerRepository(db)
	movements := repository.NewStockMovementRepository(db)

	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	planService := service.NewPlanService(plans, testStoreTimeout, logger)
	executionService := service.NewExecutionService(plans, executions, clock, testStoreTimeout, logger)
	schedulerService := service.NewSchedulerService(plans, executions, clock, service.DefaultOverdueThresholdDays, service.DefaultSummaryWindowMonths, testStoreTimeout, logger)
	closureService := service.NewClosureService(ledger, executionService, clock, nil, testStoreTimeout, logger)
	reconciler := service.NewReconciliationService(ledger, testStoreTimeout, logger)
	inventoryService := service.NewInventoryService(movements, ledger, reconciler, clock, nil, testStoreTimeout, logger)
	photoService := service.NewPhotoService(local, executionService, logger)

	planHandler := handler.NewPlanHandler(planService, schedulerService, logger)
	executionHandler := handler.NewExecutionHandler(executionService, logger)
	closureHandler := handler.NewClosureHandler(closureService, logger)
	inventoryHandler := handler.NewInventoryHandler(inventoryService, logger)
	photoHandler := handler.NewPhotoHandler(photoService, 1, logger)

	r := chi.NewRouter()
	r.Route("/plans", func(r chi.Router) {
		r.Get("/", planHandler.List)
		r.Post("/", planHandler.Create)
		r.Get("/{id}", planHandler.GetByID)
		r.Put("/{id}", planHandler.Update)
		r.Post("/{id}/pause", planHandler.Pause)
		r.Post("/{id}/resume", planHandler.Resume)
		r.Get("/{id}/overview", planHandler.Overview)
		r.Get("/{id}/status", planHandler.Status)
		r.Get("/{id}/executions", executionHandler.List)
		r.Get("/{id}/executions/{executionId}", executionHandler.GetByID)
		r.Get("/{id}/template", executionHandler.GetTemplate)
		r.Put("/{id}/template", executionHandler.SaveTemplate)
		r.Post("/{id}/periods/{year}/{month}", executionHandler.GetOrCreatePeriod)
		r.Post("/{id}/adhoc", executionHandler.RecordAdHoc)
		r.Post("/{id}/events/{kind}", executionHandler.AppendEvent)
		r.Post("/{id}/close", closureHandler.Close)
		r.Put("/{id}/executions/{executionId}/checklist", executionHandler.UpdateChecklist)
		r.Put("/{id}/executions/{executionId}/links", executionHandler.LinkReferences)
		r.Post("/{id}/executions/{executionId}/photos", photoHandler.Upload)
		r.Get("/{id}/executions/{executionId}/photos", photoHandler.Download)
	})
	r.Route("/inventory/movements", func(r chi.Router) {
		r.Post("/", inventoryHandler.RecordMovement)
		r.Get("/", inventoryHandler.ListMovements)
		r.Get("/{id}/expense", inventoryHandler.GetExpense)
	})

	accountID := uuid.New()
	return &env{
		t:         t,
		db:        db,
		ctx:       testutil.AccountContext(accountID),
		accountID: accountID,
		plan:      testutil.CreateTestPlan(t, db, accountID),
		mux:       r,
	}
}

// do sends a JSON request as the env's account. A string body is sent verbatim.
func (e *env) do(method, target string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.send(req)
}

// send serves req as the env's account
func (e *env) send(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.mux.ServeHTTP(rr, req.WithContext(e.ctx))
	return rr
}

func (e *env) planURL(suffix string) string {
	return "/plans/" + e.plan.ID.String() + suffix
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}
