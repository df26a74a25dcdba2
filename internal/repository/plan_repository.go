package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/verdant-ops/gardenledger/internal/domain"
	"gorm.io/gorm"
)

var planSortFields = map[string]string{
	"name":      "name",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// PlanRepository handles database operations for maintenance plans
type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) Create(ctx context.Context, plan *domain.Plan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *PlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Plan, error) {
	var plan domain.Plan
	query := r.db.WithContext(ctx).Where("id = ?", id)
	query = ApplyAccountFilter(ctx, query)
	if err := query.First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// Update saves every column of plan, preserving its owner and creation time
func (r *PlanRepository) Update(ctx context.Context, plan *domain.Plan) error {
	existing, err := r.GetByID(ctx, plan.ID)
	if err != nil {
		return err
	}
	plan.AccountID = existing.AccountID
	plan.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(plan).Error
}

// List returns one page of plans ordered by sort
func (r *PlanRepository) List(ctx context.Context, page, pageSize int, filters *domain.PlanFilters, sort SortConfig) ([]domain.Plan, int64, error) {
	var plans []domain.Plan
	var total int64

	page, pageSize = NormalizePage(page, pageSize)

	query := r.db.WithContext(ctx).Model(&domain.Plan{})
	query = ApplyAccountFilter(ctx, query)

	if filters != nil {
		if filters.ClientID != nil {
			query = query.Where("client_id = ?", *filters.ClientID)
		}
		if filters.Status != nil {
			query = query.Where("status = ?", *filters.Status)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order(BuildOrderClause(sort, planSortFields, "created_at")).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&plans).Error
	return plans, total, err
}

// ListActive returns every active plan visible in ctx
func (r *PlanRepository) ListActive(ctx context.Context) ([]domain.Plan, error) {
	var plans []domain.Plan
	query := r.db.WithContext(ctx).Where("status = ?", domain.PlanStatusActive)
	query = ApplyAccountFilter(ctx, query)
	err := query.Order("created_at ASC").Find(&plans).Error
	return plans, err
}
