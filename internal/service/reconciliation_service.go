package service

import (
	"context"
	"time"

	"github.com/verdant-ops/gardenledger/internal/domain"
	"go.uber.org/zap"
)

// ReconciliationService links inventory purchases to expense entries by value.
//
// Matching is best effort: an "in" movement is paired with the first paid expense booked on the
// same date for the same total. Nothing is stored; the match is recomputed on every read.
// Two purchases with the same date and total resolve to the same expense, and an expense
// booked on another day or with a rounded amount is not found. Neither is an error.
type ReconciliationService struct {
	ledger       FinancialLedger
	storeTimeout time.Duration
	logger       *zap.Logger
}

// NewReconciliationService creates a new ReconciliationService instance
func NewReconciliationService(ledger FinancialLedger, storeTimeout time.Duration, logger *zap.Logger) *ReconciliationService {
	return &ReconciliationService{
		ledger:       ledger,
		storeTimeout: storeTimeout,
		logger:       logger,
	}
}

// FindLinkedExpense returns the expense that probably paid for movement, or nil when the
// movement is not an "in" movement with a unit cost or no entry matches.
func (s *ReconciliationService) FindLinkedExpense(ctx context.Context, movement *domain.StockMovement) (*domain.LedgerEntryRef, error) {
	if movement == nil || movement.Type != domain.StockMovementIn {
		return nil, nil
	}
	total, ok := movement.Total()
	if !ok {
		return nil, nil
	}

	callCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	entries, err := s.ledger.FindMatching(callCtx, domain.LedgerEntryExpense, domain.LedgerEntryPaid, movement.MovementDate, total, 1)
	if err != nil {
		s.logger.Error("Failed to look up expense for stock movement",
			zap.String("movement_id", movement.ID.String()),
			zap.Error(err),
		)
		return nil, translateStoreError(err, ErrNotFound)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	ref := entries[0].Ref()
	return &ref, nil
}
