package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/verdant-ops/gardenledger/internal/domain"
	"github.com/verdant-ops/gardenledger/internal/mapper"
	"github.com/verdant-ops/gardenledger/internal/repository"
	"go.uber.org/zap"
)

// PlanService handles business logic for maintenance plans
type PlanService struct {
	plans        PlanStore
	storeTimeout time.Duration
	logger       *zap.Logger
}

// NewPlanService creates a new PlanService instance
func NewPlanService(plans PlanStore, storeTimeout time.Duration, logger *zap.Logger) *PlanService {
	return &PlanService{
		plans:        plans,
		storeTimeout: storeTimeout,
		logger:       logger,
	}
}

// ValidateRecurrence checks the optional recurrence fields of a plan
func ValidateRecurrence(weekday, weekOfMonth, billingDay *int) error {
	if weekday != nil && (*weekday < 0 || *weekday > 6) {
		return fmt.Errorf("%w: preferred weekday %d not in 0..6", ErrInvalidRecurrence, *weekday)
	}
	if weekOfMonth != nil && (*weekOfMonth < 1 || *weekOfMonth > 4) {
		return fmt.Errorf("%w: preferred week of month %d not in 1..4", ErrInvalidRecurrence, *weekOfMonth)
	}
	if billingDay != nil && (*billingDay < 1 || *billingDay > 31) {
		return fmt.Errorf("%w: billing day %d not in 1..31", ErrInvalidRecurrence, *billingDay)
	}
	return nil
}

func validateCommercialDefaults(labor, markup decimal.Decimal) error {
	if labor.IsNegative() {
		return fmt.Errorf("%w: default labor cost must not be negative", ErrInvalidInput)
	}
	if markup.IsNegative() {
		return fmt.Errorf("%w: materials markup must not be negative", ErrInvalidInput)
	}
	return nil
}

// Create creates a new active plan in the caller's account
func (s *PlanService) Create(ctx context.Context, req *domain.CreatePlanRequest) (*domain.PlanDTO, error) {
	if err := ValidateRecurrence(req.PreferredWeekday, req.PreferredWeekOfMonth, req.BillingDay); err != nil {
		return nil, err
	}
	if err := validateCommercialDefaults(req.DefaultLaborCost, req.MaterialsMarkupPct); err != nil {
		return nil, err
	}

	accountID, ok := repository.AccountIDForWrite(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	plan := &domain.Plan{
		AccountID:            accountID,
		ClientID:             req.ClientID,
		Name:                 req.Name,
		PreferredWeekday:     req.PreferredWeekday,
		PreferredWeekOfMonth: req.PreferredWeekOfMonth,
		BillingDay:           req.BillingDay,
		DefaultLaborCost:     req.DefaultLaborCost.Round(2),
		MaterialsMarkupPct:   req.MaterialsMarkupPct.Round(2),
		Status:               domain.PlanStatusActive,
		Notes:                req.Notes,
	}

	callCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	if err := s.plans.Create(callCtx, plan); err != nil {
		s.logger.Error("Failed to create plan", zap.Error(err))
		return nil, mapper.FormatError("plan", "create", translateStoreError(err, ErrPlanNotFound))
	}

	s.logger.Info("Plan created",
		zap.String("plan_id", plan.ID.String()),
		zap.String("client_id", plan.ClientID.String()),
	)

	dto := mapper.ToPlanDTO(plan)
	return &dto, nil
}

// GetByID retrieves a plan by ID
func (s *PlanService) GetByID(ctx context.Context, id uuid.UUID) (*domain.PlanDTO, error) {
	plan, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToPlanDTO(plan)
	return &dto, nil
}

func (s *PlanService) get(ctx context.Context, id uuid.UUID) (*domain.Plan, error) {
	callCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	plan, err := s.plans.GetByID(callCtx, id)
	if err != nil {
		return nil, translateStoreError(err, ErrPlanNotFound)
	}
	return plan, nil
}

// List returns a paginated list of plans
func (s *PlanService) List(ctx context.Context, page, pageSize int, filters *domain.PlanFilters, sort repository.SortConfig) (*domain.PaginatedResponse, error) {
	page, pageSize = repository.NormalizePage(page, pageSize)

	callCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	plans, total, err := s.plans.List(callCtx, page, pageSize, filters, sort)
	if err != nil {
		return nil, mapper.FormatError("plans", "list", translateStoreError(err, ErrPlanNotFound))
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &domain.PaginatedResponse{
		Data:       mapper.ToPlanDTOs(plans),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Update replaces the recurrence and commercial defaults of a plan.
// Existing periods keep the values they were seeded with.
func (s *PlanService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdatePlanRequest) (*domain.PlanDTO, error) {
	if err := ValidateRecurrence(req.PreferredWeekday, req.PreferredWeekOfMonth, req.BillingDay); err != nil {
		return nil, err
	}
	if err := validateCommercialDefaults(req.DefaultLaborCost, req.MaterialsMarkupPct); err != nil {
		return nil, err
	}

	plan, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	mapper.ApplyPlanUpdate(plan, req)
	plan.DefaultLaborCost = plan.DefaultLaborCost.Round(2)
	plan.MaterialsMarkupPct = plan.MaterialsMarkupPct.Round(2)

	if err := s.save(ctx, plan); err != nil {
		return nil, err
	}

	dto := mapper.ToPlanDTO(plan)
	return &dto, nil
}

// Pause stops a plan from being scheduled. Pausing a paused plan is a no-op.
func (s *PlanService) Pause(ctx context.Context, id uuid.UUID) (*domain.PlanDTO, error) {
	return s.setStatus(ctx, id, domain.PlanStatusPaused)
}

// Resume reactivates a paused plan
func (s *PlanService) Resume(ctx context.Context, id uuid.UUID) (*domain.PlanDTO, error) {
	return s.setStatus(ctx, id, domain.PlanStatusActive)
}

func (s *PlanService) setStatus(ctx context.Context, id uuid.UUID, status domain.PlanStatus) (*domain.PlanDTO, error) {
	plan, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if plan.Status != status {
		plan.Status = status
		if err := s.save(ctx, plan); err != nil {
			return nil, err
		}
		s.logger.Info("Plan status changed",
			zap.String("plan_id", plan.ID.String()),
			zap.String("status", string(status)),
		)
	}

	dto := mapper.ToPlanDTO(plan)
	return &dto, nil
}

func (s *PlanService) save(ctx context.Context, plan *domain.Plan) error {
	callCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	if err := s.plans.Update(callCtx, plan); err != nil {
		s.logger.Error("Failed to update plan",
			zap.String("plan_id", plan.ID.String()),
			zap.Error(err),
		)
		return mapper.FormatError("plan", "update", translateStoreError(err, ErrPlanNotFound))
	}
	return nil
}
