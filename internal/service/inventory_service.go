package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/verdant-ops/gardenledger/internal/domain"
	"github.com/verdant-ops/gardenledger/internal/mapper"
	"github.com/verdant-ops/gardenledger/internal/repository"
	"go.uber.org/zap"
)

// InventoryService records stock movements and reports the expense each purchase was paid with
type InventoryService struct {
	movements         StockMovementStore
	ledger            FinancialLedger
	reconciler        *ReconciliationService
	clock             Clock
	expenseCategoryID *uuid.UUID
	storeTimeout      time.Duration
	logger            *zap.Logger
}

// NewInventoryService creates a new InventoryService instance. expenseCategoryID may be nil.
func NewInventoryService(
	movements StockMovementStore,
	ledger FinancialLedger,
	reconciler *ReconciliationService,
	clock Clock,
	expenseCategoryID *uuid.UUID,
	storeTimeout time.Duration,
	logger *zap.Logger,
) *InventoryService {
	return &InventoryService{
		movements:         movements,
		ledger:            ledger,
		reconciler:        reconciler,
		clock:             clock,
		expenseCategoryID: expenseCategoryID,
		storeTimeout:      storeTimeout,
		logger:            logger,
	}
}

// RecordMovement stores an inventory movement. When CreateExpense is set on an "in" movement
// with a unit cost, a paid expense for the total is booked first. The two records are not
// linked; the expense is found again by FindLinkedExpense.
func (s *InventoryService) RecordMovement(ctx context.Context, req *domain.RecordMovementRequest) (*domain.StockMovementDTO, error) {
	if !req.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	if req.UnitCost != nil && req.UnitCost.IsNegative() {
		return nil, fmt.Errorf("%w: unit cost must not be negative", ErrInvalidInput)
	}
	if req.CreateExpense && (req.Type != domain.StockMovementIn || req.UnitCost == nil) {
		return nil, fmt.Errorf("%w: an expense can only be created for an incoming movement with a unit cost", ErrInvalidInput)
	}

	accountID, ok := repository.AccountIDForWrite(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	now := s.clock.Now()
	movement := &domain.StockMovement{
		AccountID:    accountID,
		ProductID:    req.ProductID,
		ProductName:  req.ProductName,
		Type:         req.Type,
		Quantity:     req.Quantity,
		UnitCost:     req.UnitCost,
		MovementDate: domain.DateOf(now),
		Notes:        req.Notes,
	}
	if req.MovementDate != nil {
		movement.MovementDate = *req.MovementDate
	}

	var expense *domain.LedgerEntry
	if req.CreateExpense {
		total, _ := movement.Total()
		paidAt := now.UTC()
		expense = &domain.LedgerEntry{
			AccountID:       accountID,
			Type:            domain.LedgerEntryExpense,
			Status:          domain.LedgerEntryPaid,
			TransactionDate: movement.MovementDate,
			Amount:          total,
			PaidAt:          &paidAt,
			CategoryID:      s.expenseCategoryID,
			Description:     mapper.StockPurchaseDescription(movement),
		}

		ledgerCtx, cancel := storeContext(ctx, s.storeTimeout)
		err := s.ledger.Create(ledgerCtx, expense)
		cancel()
		if err != nil {
			s.logger.Error("Failed to create expense for stock purchase",
				zap.String("product_id", req.ProductID.String()),
				zap.Error(err),
			)
			return nil, fmt.Errorf("failed to create expense: %w", translateStoreError(err, ErrNotFound))
		}
	}

	callCtx, cancel := storeContext(ctx, s.storeTimeout)
	err := s.movements.Create(callCtx, movement)
	cancel()
	if err != nil {
		if expense != nil {
			s.logger.Error("Expense orphaned by failed stock movement",
				zap.String("ledger_entry_id", expense.ID.String()),
				zap.Error(err),
			)
			return nil, &PartialFailureError{
				Operation:     "record_movement",
				LedgerEntryID: expense.ID,
				Err:           err,
			}
		}
		s.logger.Error("Failed to record stock movement", zap.Error(err))
		return nil, fmt.Errorf("failed to record stock movement: %w", translateStoreError(err, ErrNotFound))
	}

	s.logger.Info("Stock movement recorded",
		zap.String("movement_id", movement.ID.String()),
		zap.String("product_id", movement.ProductID.String()),
		zap.String("type", string(movement.Type)),
		zap.Bool("expense_created", expense != nil),
	)

	var ref *domain.LedgerEntryRef
	if expense != nil {
		r := expense.Ref()
		ref = &r
	}
	dto := mapper.ToStockMovementDTO(movement, ref)
	return &dto, nil
}

// GetMovementExpense reconciles one movement against the financial ledger.
// A nil result with a nil error means no matching expense was found.
func (s *InventoryService) GetMovementExpense(ctx context.Context, movementID uuid.UUID) (*domain.LedgerEntryRef, error) {
	callCtx, cancel := storeContext(ctx, s.storeTimeout)
	movement, err := s.movements.GetByID(callCtx, movementID)
	cancel()
	if err != nil {
		return nil, translateStoreError(err, ErrMovementNotFound)
	}
	return s.reconciler.FindLinkedExpense(ctx, movement)
}

// ListMovementsWithExpenses lists movements newest first with their reconciled expense
func (s *InventoryService) ListMovementsWithExpenses(ctx context.Context, productID *uuid.UUID, limit int) ([]domain.StockMovementDTO, error) {
	callCtx, cancel := storeContext(ctx, s.storeTimeout)
	movements, err := s.movements.List(callCtx, productID, limit)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to list stock movements: %w", translateStoreError(err, ErrNotFound))
	}

	dtos := make([]domain.StockMovementDTO, 0, len(movements))
	for i := range movements {
		ref, err := s.reconciler.FindLinkedExpense(ctx, &movements[i])
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, mapper.ToStockMovementDTO(&movements[i], ref))
	}
	return dtos, nil
}
