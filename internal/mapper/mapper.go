package mapper

import (
	"fmt"
	"time"

	"github.com/verdant-ops/gardenledger/internal/domain"
)

const timestampLayout = "2006-01-02T15:04:05Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ToPlanDTO converts Plan to PlanDTO
func ToPlanDTO(plan *domain.Plan) domain.PlanDTO {
	return domain.PlanDTO{
		ID:                   plan.ID,
		ClientID:             plan.ClientID,
		Name:                 plan.Name,
		PreferredWeekday:     plan.PreferredWeekday,
		PreferredWeekOfMonth: plan.PreferredWeekOfMonth,
		BillingDay:           plan.BillingDay,
		DefaultLaborCost:     plan.DefaultLaborCost,
		MaterialsMarkupPct:   plan.MaterialsMarkupPct,
		Status:               plan.Status,
		Notes:                plan.Notes,
		CreatedAt:            formatTimestamp(plan.CreatedAt),
		UpdatedAt:            formatTimestamp(plan.UpdatedAt),
	}
}

// ToPlanDTOs converts a slice of plans
func ToPlanDTOs(plans []domain.Plan) []domain.PlanDTO {
	dtos := make([]domain.PlanDTO, len(plans))
	for i := range plans {
		dtos[i] = ToPlanDTO(&plans[i])
	}
	return dtos
}

// ToExecutionDTO converts PlanExecution to ExecutionDTO
func ToExecutionDTO(execution *domain.PlanExecution) domain.ExecutionDTO {
	dto := domain.ExecutionDTO{
		ID:                  execution.ID,
		PlanID:              execution.PlanID,
		CycleKey:            execution.CycleKey,
		CycleKind:           execution.CycleKind,
		Status:              execution.Status,
		FinalAmount:         execution.FinalAmount,
		Details:             execution.Details.Data(),
		LinkedTaskID:        execution.LinkedTaskID,
		LinkedAppointmentID: execution.LinkedAppointmentID,
		LinkedLedgerEntryID: execution.LinkedLedgerEntryID,
		CreatedAt:           formatTimestamp(execution.CreatedAt),
		UpdatedAt:           formatTimestamp(execution.UpdatedAt),
	}

	if execution.CompletedAt != nil {
		dto.CompletedAt = formatTimestamp(*execution.CompletedAt)
	}

	return dto
}

// ToExecutionDTOs converts a slice of executions, keeping their order
func ToExecutionDTOs(executions []domain.PlanExecution) []domain.ExecutionDTO {
	dtos := make([]domain.ExecutionDTO, len(executions))
	for i := range executions {
		dtos[i] = ToExecutionDTO(&executions[i])
	}
	return dtos
}

// ToStockMovementDTO converts StockMovement to StockMovementDTO. expense is the reconciled
// expense entry, if one was found.
func ToStockMovementDTO(movement *domain.StockMovement, expense *domain.LedgerEntryRef) domain.StockMovementDTO {
	return domain.StockMovementDTO{
		ID:            movement.ID,
		ProductID:     movement.ProductID,
		ProductName:   movement.ProductName,
		Type:          movement.Type,
		Quantity:      movement.Quantity,
		UnitCost:      movement.UnitCost,
		MovementDate:  movement.MovementDate,
		Notes:         movement.Notes,
		LinkedExpense: expense,
		CreatedAt:     formatTimestamp(movement.CreatedAt),
	}
}

// ApplyPlanUpdate copies the mutable fields of req onto plan
func ApplyPlanUpdate(plan *domain.Plan, req *domain.UpdatePlanRequest) {
	plan.Name = req.Name
	plan.PreferredWeekday = req.PreferredWeekday
	plan.PreferredWeekOfMonth = req.PreferredWeekOfMonth
	plan.BillingDay = req.BillingDay
	plan.DefaultLaborCost = req.DefaultLaborCost
	plan.MaterialsMarkupPct = req.MaterialsMarkupPct
	plan.Notes = req.Notes
}

// ClosureDescription is the ledger description of a closed execution
func ClosureDescription(plan *domain.Plan, key domain.CycleKey) string {
	switch key.Kind {
	case domain.CycleKindPeriod:
		return fmt.Sprintf("Maintenance %s %04d-%02d", plan.Name, key.Year, int(key.Month))
	case domain.CycleKindAdHoc:
		return fmt.Sprintf("Maintenance %s ad-hoc %s", plan.Name, domain.DateOf(key.At))
	default:
		return "Maintenance " + plan.Name
	}
}

// StockPurchaseDescription is the ledger description of an expense created for a stock purchase
func StockPurchaseDescription(movement *domain.StockMovement) string {
	if movement.ProductName != "" {
		return fmt.Sprintf("Stock purchase: %s x %s", movement.ProductName, movement.Quantity.String())
	}
	return fmt.Sprintf("Stock purchase: %s x %s", movement.ProductID, movement.Quantity.String())
}

// FormatError creates a formatted error message
func FormatError(entity, operation string, err error) error {
	return fmt.Errorf("failed to %s %s: %w", operation, entity, err)
}
