package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/verdant-ops/gardenledger/internal/domain"
	"github.com/verdant-ops/gardenledger/internal/mapper"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// ClosureService closes open executions and books their income in the financial ledger.
// The ledger write and the execution update are two separate store calls; a failure of the
// second is reported as a *PartialFailureError carrying the orphaned ledger entry id.
type ClosureService struct {
	ledger           FinancialLedger
	executionService *ExecutionService
	clock            Clock
	incomeCategoryID *uuid.UUID
	storeTimeout     time.Duration
	logger           *zap.Logger
}

// NewClosureService creates a new ClosureService instance. incomeCategoryID may be nil.
func NewClosureService(
	ledger FinancialLedger,
	executionService *ExecutionService,
	clock Clock,
	incomeCategoryID *uuid.UUID,
	storeTimeout time.Duration,
	logger *zap.Logger,
) *ClosureService {
	return &ClosureService{
		ledger:           ledger,
		executionService: executionService,
		clock:            clock,
		incomeCategoryID: incomeCategoryID,
		storeTimeout:     storeTimeout,
		logger:           logger,
	}
}

// CloseExecution closes the given execution, or the current month's period when no id is given.
// Labor defaults to the plan's labor cost and materials to the ones recorded on the execution.
func (s *ClosureService) CloseExecution(ctx context.Context, planID uuid.UUID, req *domain.CloseExecutionRequest) (*domain.CloseExecutionResult, error) {
	if req.LedgerStatus != domain.LedgerEntryPaid && req.LedgerStatus != domain.LedgerEntryPending {
		return nil, fmt.Errorf("%w: ledger status must be paid or pending", ErrInvalidInput)
	}
	if req.LaborOverride != nil && req.LaborOverride.IsNegative() {
		return nil, fmt.Errorf("%w: labor must not be negative", ErrInvalidInput)
	}
	for i, m := range req.MaterialsOverride {
		if m.Quantity.IsNegative() || m.UnitCost.IsNegative() {
			return nil, fmt.Errorf("%w: materials[%d] must not be negative", ErrInvalidInput, i)
		}
	}

	plan, err := s.executionService.loadPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	// Step 1: resolve the execution
	execution, err := s.resolveExecution(ctx, plan.ID, req.ExecutionID)
	if err != nil {
		return nil, err
	}
	if execution.CycleKind == domain.CycleKindTemplate {
		return nil, fmt.Errorf("%w: the template cannot be closed", ErrInvalidInput)
	}
	if execution.IsDone() {
		return nil, ErrExecutionClosed
	}

	// Step 2: compute the amount
	details := execution.Details.Data()
	labor := plan.DefaultLaborCost
	if req.LaborOverride != nil {
		labor = *req.LaborOverride
	}
	materials := details.Materials
	if req.MaterialsOverride != nil {
		materials = req.MaterialsOverride
	}
	markup := plan.MaterialsMarkupPct
	if details.MarkupPct != nil {
		markup = *details.MarkupPct
	}
	finalAmount := domain.ComputeFinalAmount(labor, materials, markup)

	// Step 3: book the income
	now := s.clock.Now()
	today := domain.DateOf(now)
	clientID := plan.ClientID
	entry := &domain.LedgerEntry{
		AccountID:       plan.AccountID,
		Type:            domain.LedgerEntryIncome,
		Status:          req.LedgerStatus,
		TransactionDate: today,
		Amount:          finalAmount,
		ClientID:        &clientID,
		CategoryID:      s.incomeCategoryID,
		Description:     mapper.ClosureDescription(plan, execution.CycleKey),
	}
	switch req.LedgerStatus {
	case domain.LedgerEntryPending:
		due := today
		if req.DueDate != nil {
			due = *req.DueDate
		}
		entry.DueDate = &due
	case domain.LedgerEntryPaid:
		paidAt := now.UTC()
		entry.PaidAt = &paidAt
	}

	ledgerCtx, cancel := storeContext(ctx, s.storeTimeout)
	err = s.ledger.Create(ledgerCtx, entry)
	cancel()
	if err != nil {
		s.logger.Error("Failed to create ledger entry for closure",
			zap.String("plan_id", plan.ID.String()),
			zap.String("execution_id", execution.ID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to create ledger entry: %w", translateStoreError(err, ErrNotFound))
	}

	// Step 4: mark the execution done
	completedAt := now.UTC()
	details.Labor = &labor
	details.Materials = materials
	details.MarkupPct = &markup
	execution.Details = datatypes.NewJSONType(details)
	execution.Status = domain.ExecutionStatusDone
	execution.FinalAmount = &finalAmount
	execution.CompletedAt = &completedAt
	execution.LinkedLedgerEntryID = &entry.ID

	if err := s.executionService.save(ctx, execution); err != nil {
		s.logger.Error("Ledger entry orphaned by failed closure",
			zap.String("plan_id", plan.ID.String()),
			zap.String("execution_id", execution.ID.String()),
			zap.String("ledger_entry_id", entry.ID.String()),
			zap.Error(err),
		)
		return nil, &PartialFailureError{
			Operation:     "close_execution",
			LedgerEntryID: entry.ID,
			ExecutionID:   execution.ID,
			Err:           err,
		}
	}

	s.logger.Info("Execution closed",
		zap.String("plan_id", plan.ID.String()),
		zap.String("execution_id", execution.ID.String()),
		zap.String("ledger_entry_id", entry.ID.String()),
		zap.String("final_amount", finalAmount.StringFixed(2)),
		zap.String("ledger_status", string(req.LedgerStatus)),
	)

	// Step 5: report what was written
	return &domain.CloseExecutionResult{
		ExecutionID:   execution.ID,
		FinalAmount:   finalAmount,
		LedgerEntryID: entry.ID,
	}, nil
}

func (s *ClosureService) resolveExecution(ctx context.Context, planID uuid.UUID, executionID *uuid.UUID) (*domain.PlanExecution, error) {
	if executionID != nil {
		return s.executionService.getPlanExecution(ctx, planID, *executionID)
	}

	now := s.clock.Now()
	return s.executionService.GetOrCreatePeriod(ctx, planID, now.Year(), now.Month())
}
