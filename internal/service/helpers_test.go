package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/verdant-ops/gardenledger/internal/domain"
	"github.com/verdant-ops/gardenledger/internal/repository"
	"github.com/verdant-ops/gardenledger/internal/service"
	"github.com/verdant-ops/gardenledger/internal/testutil"
)

const testStoreTimeout = 5 * time.Second

var errStoreDown = errors.New("connection reset by peer")

type fixture struct {
	db         *gorm.DB
	ctx        context.Context
	accountID  uuid.UUID
	plan       *domain.Plan
	clock      *testutil.FixedClock
	plans      *repository.PlanRepository
	executions *repository.ExecutionRepository
	ledger     *repository.LedgerRepository
	movements  *repository.StockMovementRepository
}

// newFixture sets up a database with one plan (Monday of week 2, labor 80, markup 10)
// and a clock fixed at 2025-02-12 10:00 UTC
func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.SetupTestDB(t)
	accountID := uuid.New()
	return &fixture{
		db:         db,
		ctx:        testutil.AccountContext(accountID),
		accountID:  accountID,
		plan:       testutil.CreateTestPlan(t, db, accountID),
		clock:      &testutil.FixedClock{At: time.Date(2025, 2, 12, 10, 0, 0, 0, time.UTC)},
		plans:      repository.NewPlanRepository(db),
		executions: repository.NewExecutionRepository(db),
		ledger:     repository.NewLedgerRepository(db),
		movements:  repository.NewStockMovementRepository(db),
	}
}

func (f *fixture) executionService() *service.ExecutionService {
	return f.executionServiceWith(f.executions)
}

func (f *fixture) executionServiceWith(store service.ExecutionStore) *service.ExecutionService {
	return service.NewExecutionService(f.plans, store, f.clock, testStoreTimeout, zap.NewNop())
}

func (f *fixture) closureService(executions *service.ExecutionService) *service.ClosureService {
	return f.closureServiceWith(f.ledger, executions)
}

func (f *fixture) closureServiceWith(ledger service.FinancialLedger, executions *service.ExecutionService) *service.ClosureService {
	return service.NewClosureService(ledger, executions, f.clock, nil, testStoreTimeout, zap.NewNop())
}

// closePeriod closes the February 2025 period with the plan defaults
func (f *fixture) closePeriod(t *testing.T, executions *service.ExecutionService) *domain.PlanExecution {
	t.Helper()

	period, err := executions.GetOrCreatePeriod(f.ctx, f.plan.ID, 2025, time.February)
	require.NoError(t, err)
	_, err = f.closureService(executions).CloseExecution(f.ctx, f.plan.ID, &domain.CloseExecutionRequest{
		ExecutionID:  &period.ID,
		LedgerStatus: domain.LedgerEntryPaid,
	})
	require.NoError(t, err)
	return period
}

func (f *fixture) schedulerService() *service.SchedulerService {
	return service.NewSchedulerService(f.plans, f.executions, f.clock, 25, 6, testStoreTimeout, zap.NewNop())
}

func (f *fixture) reconciliationService() *service.ReconciliationService {
	return service.NewReconciliationService(f.ledger, testStoreTimeout, zap.NewNop())
}

func (f *fixture) inventoryService(movements service.StockMovementStore) *service.InventoryService {
	return service.NewInventoryService(movements, f.ledger, f.reconciliationService(), f.clock, nil, testStoreTimeout, zap.NewNop())
}

// failingUpdateStore is an execution store whose updates always fail
type failingUpdateStore struct {
	*repository.ExecutionRepository
}

func (failingUpdateStore) Update(ctx context.Context, execution *domain.PlanExecution) error {
	return errStoreDown
}

// failingLedger is a financial ledger that rejects every insert
type failingLedger struct {
	*repository.LedgerRepository
}

func (failingLedger) Create(ctx context.Context, entry *domain.LedgerEntry) error {
	return errStoreDown
}

// blockingExecutionStore never answers cycle-key lookups before the deadline
type blockingExecutionStore struct {
	*repository.ExecutionRepository
}

func (blockingExecutionStore) GetByCycleKey(ctx context.Context, planID uuid.UUID, key domain.CycleKey) (*domain.PlanExecution, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// failingMovementStore rejects every insert
type failingMovementStore struct {
	*repository.StockMovementRepository
}

func (failingMovementStore) Create(ctx context.Context, movement *domain.StockMovement) error {
	return errStoreDown
}

func intPtr(v int) *int {
	return &v
}
