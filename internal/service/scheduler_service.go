package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/verdant-ops/gardenledger/internal/domain"
	"github.com/verdant-ops/gardenledger/internal/mapper"
	"github.com/verdant-ops/gardenledger/internal/recurrence"
	"go.uber.org/zap"
)

// DefaultOverdueThresholdDays is used when no positive threshold is configured
const DefaultOverdueThresholdDays = 25

// DefaultSummaryWindowMonths is used when no positive summary window is requested or configured
const DefaultSummaryWindowMonths = 6

// ComputeStatus reports when the plan was last serviced and whether it is overdue.
// A plan with no completed execution is always overdue.
func ComputeStatus(executions []domain.PlanExecution, now time.Time, thresholdDays int) domain.PlanStatusReport {
	if thresholdDays <= 0 {
		thresholdDays = DefaultOverdueThresholdDays
	}

	var last *time.Time
	for i := range executions {
		e := &executions[i]
		if !e.IsDone() || e.CycleKind == domain.CycleKindTemplate {
			continue
		}
		doneAt := e.DoneAt()
		if last == nil || doneAt.After(*last) {
			last = &doneAt
		}
	}

	if last == nil {
		return domain.PlanStatusReport{Overdue: true}
	}

	days := int(now.Sub(*last).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return domain.PlanStatusReport{
		LastDoneAt:        last,
		DaysSinceLastDone: &days,
		Overdue:           days > thresholdDays,
	}
}

// ComputeNextDue returns the next date the seasonal activity kind is due. Without a month list
// for kind in the template schedule it falls back to the preferred visit date of the current month.
func ComputeNextDue(plan *domain.Plan, template *domain.PlanExecution, kind domain.SeasonalKind, now time.Time) *domain.Date {
	var months []int
	if template != nil {
		months = template.Details.Data().Schedule.Months(kind)
	}

	if len(months) > 0 {
		date, ok := recurrence.NextDueDate(months, now.Year(), now.Month(), plan.WeekdayRule(), plan.PreferredWeekOfMonth)
		if !ok {
			return nil
		}
		return &date
	}

	date := recurrence.PreferredDateInMonth(now.Year(), now.Month(), plan.WeekdayRule(), plan.PreferredWeekOfMonth)
	return &date
}

// Summarize aggregates the done executions created inside the trailing window.
// Checklist labels that never occur in the window are omitted.
func Summarize(executions []domain.PlanExecution, windowMonths int, now time.Time) domain.ProgressSummary {
	if windowMonths <= 0 {
		windowMonths = DefaultSummaryWindowMonths
	}
	cutoff := now.AddDate(0, -windowMonths, 0)

	summary := domain.ProgressSummary{
		WindowMonths: windowMonths,
		Checklist:    []domain.ChecklistCompletion{},
	}
	byLabel := make(map[string]*domain.ChecklistCompletion)

	for i := range executions {
		e := &executions[i]
		if !e.IsDone() || e.CreatedAt.Before(cutoff) {
			continue
		}

		details := e.Details.Data()
		summary.ExecutionCount++
		summary.FertilizationCount += len(details.Fertilization)
		summary.PestCount += len(details.Pests)

		for _, item := range details.Checklist {
			c, ok := byLabel[item.Label]
			if !ok {
				c = &domain.ChecklistCompletion{Label: item.Label}
				byLabel[item.Label] = c
			}
			c.TotalCount++
			if item.Done {
				c.DoneCount++
			}
		}
	}

	for _, c := range byLabel {
		c.PercentDone = int(math.Round(float64(c.DoneCount) / float64(c.TotalCount) * 100))
		summary.Checklist = append(summary.Checklist, *c)
	}
	sort.Slice(summary.Checklist, func(i, j int) bool {
		return summary.Checklist[i].Label < summary.Checklist[j].Label
	})

	return summary
}

// SchedulerService answers read-only scheduling questions about plans
type SchedulerService struct {
	plans                PlanStore
	executions           ExecutionStore
	clock                Clock
	overdueThresholdDays int
	summaryWindowMonths  int
	storeTimeout         time.Duration
	logger               *zap.Logger
}

// NewSchedulerService creates a new SchedulerService instance.
// Non-positive thresholds fall back to the package defaults.
func NewSchedulerService(
	plans PlanStore,
	executions ExecutionStore,
	clock Clock,
	overdueThresholdDays int,
	summaryWindowMonths int,
	storeTimeout time.Duration,
	logger *zap.Logger,
) *SchedulerService {
	if overdueThresholdDays <= 0 {
		overdueThresholdDays = DefaultOverdueThresholdDays
	}
	if summaryWindowMonths <= 0 {
		summaryWindowMonths = DefaultSummaryWindowMonths
	}
	return &SchedulerService{
		plans:                plans,
		executions:           executions,
		clock:                clock,
		overdueThresholdDays: overdueThresholdDays,
		summaryWindowMonths:  summaryWindowMonths,
		storeTimeout:         storeTimeout,
		logger:               logger,
	}
}

// OverdueThresholdDays returns the configured threshold
func (s *SchedulerService) OverdueThresholdDays() int {
	return s.overdueThresholdDays
}

func (s *SchedulerService) loadPlan(ctx context.Context, planID uuid.UUID) (*domain.Plan, error) {
	callCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	plan, err := s.plans.GetByID(callCtx, planID)
	if err != nil {
		return nil, translateStoreError(err, ErrPlanNotFound)
	}
	return plan, nil
}

func (s *SchedulerService) listExecutions(ctx context.Context, planID uuid.UUID) ([]domain.PlanExecution, error) {
	callCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	executions, err := s.executions.ListByPlan(callCtx, planID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", translateStoreError(err, ErrPlanNotFound))
	}
	return executions, nil
}

// Status computes the overdue status of one plan
func (s *SchedulerService) Status(ctx context.Context, planID uuid.UUID) (*domain.PlanStatusReport, error) {
	if _, err := s.loadPlan(ctx, planID); err != nil {
		return nil, err
	}
	executions, err := s.listExecutions(ctx, planID)
	if err != nil {
		return nil, err
	}
	report := ComputeStatus(executions, s.clock.Now(), s.overdueThresholdDays)
	return &report, nil
}

// Overview returns status, next due dates and the progress summary of a plan in one read.
// windowMonths <= 0 selects the configured window.
func (s *SchedulerService) Overview(ctx context.Context, planID uuid.UUID, windowMonths int) (*domain.PlanOverviewDTO, error) {
	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	executions, err := s.listExecutions(ctx, planID)
	if err != nil {
		return nil, err
	}

	var template *domain.PlanExecution
	for i := range executions {
		if executions[i].CycleKind == domain.CycleKindTemplate {
			template = &executions[i]
			break
		}
	}

	if windowMonths <= 0 {
		windowMonths = s.summaryWindowMonths
	}

	now := s.clock.Now()
	nextDue := make(map[domain.SeasonalKind]*domain.Date, 3)
	for _, kind := range []domain.SeasonalKind{domain.SeasonalFertilization, domain.SeasonalPests, domain.SeasonalWeeds} {
		nextDue[kind] = ComputeNextDue(plan, template, kind, now)
	}

	return &domain.PlanOverviewDTO{
		Plan:      mapper.ToPlanDTO(plan),
		Status:    ComputeStatus(executions, now, s.overdueThresholdDays),
		NextDue:   nextDue,
		NextVisit: recurrence.PreferredDateInMonth(now.Year(), now.Month(), plan.WeekdayRule(), plan.PreferredWeekOfMonth),
		Summary:   Summarize(executions, windowMonths, now),
	}, nil
}

// OverduePlan pairs an active plan with its status
type OverduePlan struct {
	Plan   domain.Plan
	Status domain.PlanStatusReport
}

// OverdueReport returns the active plans visible to ctx that are overdue. Plans whose
// executions cannot be read are logged and skipped.
func (s *SchedulerService) OverdueReport(ctx context.Context) ([]OverduePlan, error) {
	callCtx, cancel := storeContext(ctx, s.storeTimeout)
	plans, err := s.plans.ListActive(callCtx)
	cancel()
	if err != nil {
		s.logger.Error("Failed to list active plans", zap.Error(err))
		return nil, fmt.Errorf("failed to list active plans: %w", translateStoreError(err, ErrPlanNotFound))
	}

	now := s.clock.Now()
	var overdue []OverduePlan
	for _, plan := range plans {
		executions, err := s.listExecutions(ctx, plan.ID)
		if err != nil {
			s.logger.Warn("Skipping plan in overdue report",
				zap.String("plan_id", plan.ID.String()),
				zap.Error(err),
			)
			continue
		}
		status := ComputeStatus(executions, now, s.overdueThresholdDays)
		if status.Overdue {
			overdue = append(overdue, OverduePlan{Plan: plan, Status: status})
		}
	}
	return overdue, nil
}
