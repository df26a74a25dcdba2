package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/verdant-ops/gardenledger/internal/domain"
	"github.com/verdant-ops/gardenledger/internal/repository"
)

// PlanStore is the persistence surface for plans
type PlanStore interface {
	Create(ctx context.Context, plan *domain.Plan) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Plan, error)
	Update(ctx context.Context, plan *domain.Plan) error
	List(ctx context.Context, page, pageSize int, filters *domain.PlanFilters, sort repository.SortConfig) ([]domain.Plan, int64, error)
	ListActive(ctx context.Context) ([]domain.Plan, error)
}

// ExecutionStore is the persistence surface for plan executions
type ExecutionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PlanExecution, error)
	GetByCycleKey(ctx context.Context, planID uuid.UUID, key domain.CycleKey) (*domain.PlanExecution, error)
	Create(ctx context.Context, execution *domain.PlanExecution) error
	CreateIfAbsent(ctx context.Context, execution *domain.PlanExecution) (*domain.PlanExecution, bool, error)
	Update(ctx context.Context, execution *domain.PlanExecution) error
	ListByPlan(ctx context.Context, planID uuid.UUID, excludeTemplate bool) ([]domain.PlanExecution, error)
}

// FinancialLedger is the external ledger that closures and inventory purchases write to
type FinancialLedger interface {
	Create(ctx context.Context, entry *domain.LedgerEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.LedgerEntry, error)
	FindMatching(ctx context.Context, entryType domain.LedgerEntryType, status domain.LedgerEntryStatus, date domain.Date, amount decimal.Decimal, limit int) ([]domain.LedgerEntry, error)
}

// StockMovementStore is the persistence surface for inventory movements
type StockMovementStore interface {
	Create(ctx context.Context, movement *domain.StockMovement) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.StockMovement, error)
	List(ctx context.Context, productID *uuid.UUID, limit int) ([]domain.StockMovement, error)
}

var (
	_ PlanStore          = (*repository.PlanRepository)(nil)
	_ ExecutionStore     = (*repository.ExecutionRepository)(nil)
	_ FinancialLedger    = (*repository.LedgerRepository)(nil)
	_ StockMovementStore = (*repository.StockMovementRepository)(nil)
)

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

// Now returns time.Now()
func (SystemClock) Now() time.Time {
	return time.Now()
}

// storeContext bounds one store call. A zero timeout leaves ctx unchanged.
func storeContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
