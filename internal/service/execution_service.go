package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/verdant-ops/gardenledger/internal/domain"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// ExecutionService manages the execution ledger of maintenance plans: one template per plan,
// one period execution per billing month and any number of ad-hoc visits.
// Every mutation is a direct read-modify-write against the store.
type ExecutionService struct {
	plans        PlanStore
	executions   ExecutionStore
	clock        Clock
	storeTimeout time.Duration
	logger       *zap.Logger
}

// NewExecutionService creates a new ExecutionService instance
func NewExecutionService(
	plans PlanStore,
	executions ExecutionStore,
	clock Clock,
	storeTimeout time.Duration,
	logger *zap.Logger,
) *ExecutionService {
	return &ExecutionService{
		plans:        plans,
		executions:   executions,
		clock:        clock,
		storeTimeout: storeTimeout,
		logger:       logger,
	}
}

func (s *ExecutionService) loadPlan(ctx context.Context, planID uuid.UUID) (*domain.Plan, error) {
	callCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	plan, err := s.plans.GetByID(callCtx, planID)
	if err != nil {
		return nil, translateStoreError(err, ErrPlanNotFound)
	}
	return plan, nil
}

// findByCycleKey returns the execution for key, or nil when none exists
func (s *ExecutionService) findByCycleKey(ctx context.Context, planID uuid.UUID, key domain.CycleKey) (*domain.PlanExecution, error) {
	callCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	execution, err := s.executions.GetByCycleKey(callCtx, planID, key)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, translateStoreError(err, ErrExecutionNotFound)
	}
	return execution, nil
}

// getOrCreate returns the execution for the candidate's cycle key, inserting the candidate
// when none exists. A concurrent insert of the same key resolves to the stored row.
func (s *ExecutionService) getOrCreate(ctx context.Context, candidate *domain.PlanExecution) (*domain.PlanExecution, error) {
	existing, err := s.findByCycleKey(ctx, candidate.PlanID, candidate.CycleKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	callCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	stored, created, err := s.executions.CreateIfAbsent(callCtx, candidate)
	if err != nil {
		s.logger.Error("Failed to create execution",
			zap.String("plan_id", candidate.PlanID.String()),
			zap.String("cycle_key", candidate.CycleKey.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to create execution: %w", translateStoreError(err, ErrExecutionNotFound))
	}
	if created {
		s.logger.Info("Execution created",
			zap.String("plan_id", stored.PlanID.String()),
			zap.String("execution_id", stored.ID.String()),
			zap.String("cycle_key", stored.CycleKey.String()),
		)
	}
	return stored, nil
}

func (s *ExecutionService) newExecution(plan *domain.Plan, key domain.CycleKey, details domain.ExecutionDetails) *domain.PlanExecution {
	now := s.clock.Now().UTC()
	return &domain.PlanExecution{
		BaseModel: domain.BaseModel{CreatedAt: now, UpdatedAt: now},
		AccountID: plan.AccountID,
		PlanID:    plan.ID,
		CycleKey:  key,
		CycleKind: key.Kind,
		Status:    domain.ExecutionStatusOpen,
		Details:   datatypes.NewJSONType(details),
	}
}

func (s *ExecutionService) save(ctx context.Context, execution *domain.PlanExecution) error {
	callCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	execution.UpdatedAt = s.clock.Now().UTC()
	if err := s.executions.Update(callCtx, execution); err != nil {
		s.logger.Error("Failed to update execution",
			zap.String("execution_id", execution.ID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to update execution: %w", translateStoreError(err, ErrExecutionNotFound))
	}
	return nil
}

// GetOrCreateTemplate returns the plan's template execution, creating an empty one if absent
func (s *ExecutionService) GetOrCreateTemplate(ctx context.Context, planID uuid.UUID) (*domain.PlanExecution, error) {
	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	return s.getOrCreate(ctx, s.newExecution(plan, domain.TemplateKey(), domain.ExecutionDetails{}))
}

// GetOrCreatePeriod returns the execution of the given billing month, creating an open one if
// absent. New periods are seeded with the plan's labor cost and markup and the template checklist.
func (s *ExecutionService) GetOrCreatePeriod(ctx context.Context, planID uuid.UUID, year int, month time.Month) (*domain.PlanExecution, error) {
	if !domain.ValidPeriod(year, month) {
		return nil, fmt.Errorf("%w: period %d-%02d", ErrInvalidInput, year, int(month))
	}

	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	key := domain.PeriodKey(year, month)
	existing, err := s.findByCycleKey(ctx, planID, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	template, err := s.findByCycleKey(ctx, planID, domain.TemplateKey())
	if err != nil {
		return nil, err
	}

	return s.getOrCreate(ctx, s.newExecution(plan, key, seedPeriodDetails(plan, template)))
}

func seedPeriodDetails(plan *domain.Plan, template *domain.PlanExecution) domain.ExecutionDetails {
	labor := plan.DefaultLaborCost
	markup := plan.MaterialsMarkupPct
	details := domain.ExecutionDetails{Labor: &labor, MarkupPct: &markup}

	if template != nil {
		for _, item := range template.Details.Data().Checklist {
			details.Checklist = append(details.Checklist, domain.ChecklistEntry{
				Key:   item.Key,
				Label: item.Label,
			})
		}
	}
	return details
}

// RecordAdHoc stores an out-of-cycle visit that is already done
func (s *ExecutionService) RecordAdHoc(ctx context.Context, planID uuid.UUID, details domain.ExecutionDetails, finalAmount decimal.Decimal) (*domain.PlanExecution, error) {
	if finalAmount.IsNegative() {
		return nil, fmt.Errorf("%w: final amount must not be negative", ErrInvalidInput)
	}
	if err := details.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	amount := finalAmount.Round(2)
	execution := s.newExecution(plan, domain.AdHocKey(now), details)
	execution.Status = domain.ExecutionStatusDone
	execution.FinalAmount = &amount
	completedAt := now.UTC()
	execution.CompletedAt = &completedAt

	callCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	if err := s.executions.Create(callCtx, execution); err != nil {
		s.logger.Error("Failed to record ad-hoc execution",
			zap.String("plan_id", planID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to record ad-hoc execution: %w", translateStoreError(err, ErrPlanNotFound))
	}

	s.logger.Info("Ad-hoc execution recorded",
		zap.String("plan_id", planID.String()),
		zap.String("execution_id", execution.ID.String()),
		zap.String("final_amount", amount.StringFixed(2)),
	)
	return execution, nil
}

// AppendSeasonalEvent appends a fertilization or pest entry to the current month's period,
// creating the period if needed. Entries without a date are dated today.
func (s *ExecutionService) AppendSeasonalEvent(ctx context.Context, planID uuid.UUID, event domain.SeasonalEvent) (*domain.PlanExecution, error) {
	now := s.clock.Now()
	today := domain.DateOf(now)

	switch event.Kind {
	case domain.SeasonalFertilization:
		if event.Fertilization == nil {
			return nil, fmt.Errorf("%w: fertilization entry required", ErrInvalidInput)
		}
	case domain.SeasonalPests:
		if event.Pest == nil {
			return nil, fmt.Errorf("%w: pest entry required", ErrInvalidInput)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported seasonal event kind %q", ErrInvalidInput, event.Kind)
	}

	period, err := s.GetOrCreatePeriod(ctx, planID, now.Year(), now.Month())
	if err != nil {
		return nil, err
	}
	if period.IsDone() {
		return nil, ErrExecutionClosed
	}

	details := period.Details.Data()
	switch event.Kind {
	case domain.SeasonalFertilization:
		entry := *event.Fertilization
		if entry.Date == nil {
			entry.Date = &today
		}
		details.Fertilization = append(details.Fertilization, entry)
	case domain.SeasonalPests:
		entry := *event.Pest
		if entry.Date == nil {
			entry.Date = &today
		}
		details.Pests = append(details.Pests, entry)
	}
	period.Details = datatypes.NewJSONType(details)

	if err := s.save(ctx, period); err != nil {
		return nil, err
	}
	return period, nil
}

// ListExecutions returns the plan's executions newest first
func (s *ExecutionService) ListExecutions(ctx context.Context, planID uuid.UUID, excludeTemplate bool) ([]domain.PlanExecution, error) {
	if _, err := s.loadPlan(ctx, planID); err != nil {
		return nil, err
	}

	callCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	executions, err := s.executions.ListByPlan(callCtx, planID, excludeTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", translateStoreError(err, ErrPlanNotFound))
	}
	return executions, nil
}

// SaveTemplateDefaults replaces the template checklist and seasonal schedule
func (s *ExecutionService) SaveTemplateDefaults(ctx context.Context, planID uuid.UUID, checklist []domain.ChecklistEntry, schedule domain.SeasonalSchedule) (*domain.PlanExecution, error) {
	template, err := s.GetOrCreateTemplate(ctx, planID)
	if err != nil {
		return nil, err
	}

	details := template.Details.Data()
	details.Checklist = checklist
	details.Schedule = &schedule
	if err := details.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	template.Details = datatypes.NewJSONType(details)

	if err := s.save(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

// getPlanExecution loads an execution and checks that it belongs to planID
func (s *ExecutionService) getPlanExecution(ctx context.Context, planID, executionID uuid.UUID) (*domain.PlanExecution, error) {
	callCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	execution, err := s.executions.GetByID(callCtx, executionID)
	if err != nil {
		return nil, translateStoreError(err, ErrExecutionNotFound)
	}
	if execution.PlanID != planID {
		return nil, ErrExecutionNotFound
	}
	return execution, nil
}

// GetExecution returns one execution of a plan
func (s *ExecutionService) GetExecution(ctx context.Context, planID, executionID uuid.UUID) (*domain.PlanExecution, error) {
	return s.getPlanExecution(ctx, planID, executionID)
}

// UpdateChecklist replaces the checklist of a period or ad-hoc execution.
// Closed periods are immutable; template defaults go through SaveTemplateDefaults.
func (s *ExecutionService) UpdateChecklist(ctx context.Context, planID, executionID uuid.UUID, checklist []domain.ChecklistEntry) (*domain.PlanExecution, error) {
	execution, err := s.getPlanExecution(ctx, planID, executionID)
	if err != nil {
		return nil, err
	}
	switch {
	case execution.CycleKind == domain.CycleKindTemplate:
		return nil, fmt.Errorf("%w: template checklist is edited through the template defaults", ErrInvalidInput)
	case execution.IsClosedPeriod():
		return nil, ErrExecutionClosed
	}

	details := execution.Details.Data()
	details.Checklist = checklist
	execution.Details = datatypes.NewJSONType(details)

	if err := s.save(ctx, execution); err != nil {
		return nil, err
	}
	return execution, nil
}

// LinkReferences sets the weak references to tasks and appointments. Nil fields are kept.
func (s *ExecutionService) LinkReferences(ctx context.Context, planID, executionID uuid.UUID, taskID, appointmentID *uuid.UUID) (*domain.PlanExecution, error) {
	execution, err := s.getPlanExecution(ctx, planID, executionID)
	if err != nil {
		return nil, err
	}
	if execution.IsClosedPeriod() {
		return nil, ErrExecutionClosed
	}
	if taskID != nil {
		execution.LinkedTaskID = taskID
	}
	if appointmentID != nil {
		execution.LinkedAppointmentID = appointmentID
	}

	if err := s.save(ctx, execution); err != nil {
		return nil, err
	}
	return execution, nil
}

// AddPhotoReference appends an opaque photo reference to an execution
func (s *ExecutionService) AddPhotoReference(ctx context.Context, planID, executionID uuid.UUID, ref string) (*domain.PlanExecution, error) {
	execution, err := s.getPlanExecution(ctx, planID, executionID)
	if err != nil {
		return nil, err
	}
	if execution.CycleKind == domain.CycleKindTemplate {
		return nil, fmt.Errorf("%w: photos cannot be attached to the template", ErrInvalidInput)
	}
	if execution.IsClosedPeriod() {
		return nil, ErrExecutionClosed
	}

	details := execution.Details.Data()
	details.Photos = append(details.Photos, ref)
	execution.Details = datatypes.NewJSONType(details)

	if err := s.save(ctx, execution); err != nil {
		return nil, err
	}
	return execution, nil
}
