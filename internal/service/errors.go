package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned when no account can be resolved for the caller
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTimeout is returned when a store call exceeds its deadline. The outcome of the
	// call is unknown; callers must re-query before retrying.
	ErrTimeout = errors.New("store call timed out, outcome unknown")

	// ErrPartialFailure is matched by every *PartialFailureError
	ErrPartialFailure = errors.New("partial failure")
)

// Maintenance plan errors
var (
	ErrPlanNotFound      = fmt.Errorf("plan %w", ErrNotFound)
	ErrExecutionNotFound = fmt.Errorf("execution %w", ErrNotFound)
	ErrMovementNotFound  = fmt.Errorf("stock movement %w", ErrNotFound)

	// ErrInvalidRecurrence is returned for a weekday outside 0..6, a week of month outside 1..4
	// or a billing day outside 1..31
	ErrInvalidRecurrence = errors.New("invalid recurrence")

	// ErrExecutionClosed is returned when mutating a period execution that is already done
	ErrExecutionClosed = errors.New("execution is already closed")
)

// PartialFailureError reports that a ledger entry was written but the record depending on it
// was not. The entry is orphaned and must be reconciled manually.
type PartialFailureError struct {
	Operation     string
	LedgerEntryID uuid.UUID
	ExecutionID   uuid.UUID
	Err           error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s: ledger entry %s was created but the follow-up write failed: %v", e.Operation, e.LedgerEntryID, e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrPartialFailure) match
func (e *PartialFailureError) Is(target error) bool {
	return target == ErrPartialFailure
}

// translateStoreError maps store-level failures onto service errors. notFound is returned
// for missing records, unique-key violations become ErrConflict and deadline errors become
// ErrTimeout. Everything else passes through.
func translateStoreError(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	default:
		return err
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
