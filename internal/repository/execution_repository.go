package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/verdant-ops/gardenledger/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ExecutionRepository handles database operations for plan executions.
// (plan_id, cycle_key) is unique, see migrations/00002_unique_cycle_key.sql.
type ExecutionRepository struct {
	db *gorm.DB
}

func NewExecutionRepository(db *gorm.DB) *ExecutionRepository {
	return &ExecutionRepository{db: db}
}

func (r *ExecutionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PlanExecution, error) {
	var execution domain.PlanExecution
	query := r.db.WithContext(ctx).Where("id = ?", id)
	query = ApplyAccountFilter(ctx, query)
	if err := query.First(&execution).Error; err != nil {
		return nil, err
	}
	return &execution, nil
}

func (r *ExecutionRepository) GetByCycleKey(ctx context.Context, planID uuid.UUID, key domain.CycleKey) (*domain.PlanExecution, error) {
	var execution domain.PlanExecution
	query := r.db.WithContext(ctx).Where("plan_id = ? AND cycle_key = ?", planID, key)
	query = ApplyAccountFilter(ctx, query)
	if err := query.First(&execution).Error; err != nil {
		return nil, err
	}
	return &execution, nil
}

// Create inserts a new execution. A duplicate cycle key fails with gorm.ErrDuplicatedKey.
func (r *ExecutionRepository) Create(ctx context.Context, execution *domain.PlanExecution) error {
	return r.db.WithContext(ctx).Create(execution).Error
}

// CreateIfAbsent inserts execution unless its (plan_id, cycle_key) already exists, and returns
// the stored row either way. created reports whether this call inserted it.
func (r *ExecutionRepository) CreateIfAbsent(ctx context.Context, execution *domain.PlanExecution) (*domain.PlanExecution, bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "plan_id"}, {Name: "cycle_key"}},
			DoNothing: true,
		}).
		Create(execution)
	if result.Error != nil {
		return nil, false, result.Error
	}
	if result.RowsAffected == 1 {
		return execution, true, nil
	}

	stored, err := r.GetByCycleKey(ctx, execution.PlanID, execution.CycleKey)
	if err != nil {
		return nil, false, err
	}
	return stored, false, nil
}

// Update saves every column of execution
func (r *ExecutionRepository) Update(ctx context.Context, execution *domain.PlanExecution) error {
	query := r.db.WithContext(ctx).Model(execution).Where("id = ?", execution.ID)
	query = ApplyAccountFilter(ctx, query)
	result := query.Select("*").Omit("id", "account_id", "plan_id", "created_at").Updates(execution)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByPlan returns the executions of a plan, newest first
func (r *ExecutionRepository) ListByPlan(ctx context.Context, planID uuid.UUID, excludeTemplate bool) ([]domain.PlanExecution, error) {
	var executions []domain.PlanExecution
	query := r.db.WithContext(ctx).Where("plan_id = ?", planID)
	query = ApplyAccountFilter(ctx, query)
	if excludeTemplate {
		query = query.Where("cycle_kind <> ?", domain.CycleKindTemplate)
	}
	err := query.Order("created_at DESC").Order("id DESC").Find(&executions).Error
	return executions, err
}
