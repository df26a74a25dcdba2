package router_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/verdant-ops/gardenledger/internal/auth"
	"github.com/verdant-ops/gardenledger/internal/config"
	"github.com/verdant-ops/gardenledger/internal/http/handler"
	"github.com/verdant-ops/gardenledger/internal/http/middleware"
	"github.com/verdant-ops/gardenledger/internal/http/router"
	"github.com/verdant-ops/gardenledger/internal/repository"
	"github.com/verdant-ops/gardenledger/internal/service"
	"github.com/verdant-ops/gardenledger/internal/storage"
	"github.com/verdant-ops/gardenledger/internal/testutil"
)

const testAPIKey = "router-test-key"

func setupRouter(t *testing.T) (http.Handler, *config.Config) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	cfg := &config.Config{
		App:    config.AppConfig{Environment: "development"},
		Auth:   config.AuthConfig{JWTSecret: "router-test-secret", Audience: "gardenledger-api"},
		ApiKey: config.ApiKeyConfig{Value: testAPIKey},
		Server: config.ServerConfig{RequestTimeout: 10},
		CORS:   config.CORSConfig{AllowedMethods: []string{http.MethodGet, http.MethodPost}},
	}

	plans := repository.NewPlanRepository(db)
	executions := repository.NewExecutionRepository(db)
	ledger := repository.NewLedgerRepository(db)
	movements := repository.NewStockMovementRepository(db)
	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	clock := service.SystemClock{}
	planService := service.NewPlanService(plans, time.Second, logger)
	executionService := service.NewExecutionService(plans, executions, clock, time.Second, logger)
	schedulerService := service.NewSchedulerService(plans, executions, clock, 25, 6, time.Second, logger)
	reconciler := service.NewReconciliationService(ledger, time.Second, logger)

	rt := router.NewRouter(
		cfg,
		logger,
		auth.NewMiddleware(cfg, logger),
		middleware.NewAccountScopeMiddleware(logger),
		middleware.NewRateLimiter(&cfg.RateLimit, logger),
		router.Handlers{
			Health:    handler.NewHealthHandler(db, logger),
			Plan:      handler.NewPlanHandler(planService, schedulerService, logger),
			Execution: handler.NewExecutionHandler(executionService, logger),
			Closure:   handler.NewClosureHandler(service.NewClosureService(ledger, executionService, clock, nil, time.Second, logger), logger),
			Inventory: handler.NewInventoryHandler(service.NewInventoryService(movements, ledger, reconciler, clock, nil, time.Second, logger), logger),
			Photo:     handler.NewPhotoHandler(service.NewPhotoService(local, executionService, logger), 5, logger),
		},
	)
	return rt.Setup(), cfg
}

func TestRouter_Health(t *testing.T) {
	h, _ := setupRouter(t)

	for _, path := range []string{"/health", "/health/db", "/health/ready"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
	}
}

func TestRouter_RequiresAuthentication(t *testing.T) {
	h, _ := setupRouter(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouter_APIKeyScopesToAccount(t *testing.T) {
	h, _ := setupRouter(t)
	accountID := uuid.New()

	send := func(method, path, body string, account uuid.UUID) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("x-api-key", testAPIKey)
		req.Header.Set(auth.AccountHeader, account.String())
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	rr := send(http.MethodPost, "/api/v1/plans", `{"clientId":"`+uuid.NewString()+`","name":"Roof terrace"}`, accountID)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	location := rr.Header().Get("Location")

	rr = send(http.MethodGet, location, "", accountID)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = send(http.MethodGet, location, "", uuid.New())
	assert.Equal(t, http.StatusNotFound, rr.Code, "another account cannot see the plan")

	rr = send(http.MethodGet, location+"/template", "", accountID)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_PlanMutationsRequireManager(t *testing.T) {
	h, cfg := setupRouter(t)

	validator := auth.NewJWTValidator(&cfg.Auth)
	token, err := validator.IssueToken(&auth.UserContext{
		UserID:    uuid.New(),
		Email:     "crew@example.com",
		AccountID: uuid.New(),
		Roles:     []auth.Role{auth.RoleStaff},
	}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/plans", strings.NewReader(`{"clientId":"`+uuid.NewString()+`","name":"Patio"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code, "staff may read")
}
