package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ============================================================================
// Plan DTOs
// ============================================================================

// PlanDTO is the API representation of a maintenance plan
type PlanDTO struct {
	ID                   uuid.UUID       `json:"id"`
	ClientID             uuid.UUID       `json:"clientId"`
	Name                 string          `json:"name"`
	PreferredWeekday     *int            `json:"preferredWeekday,omitempty"`
	PreferredWeekOfMonth *int            `json:"preferredWeekOfMonth,omitempty"`
	BillingDay           *int            `json:"billingDay,omitempty"`
	DefaultLaborCost     decimal.Decimal `json:"defaultLaborCost"`
	MaterialsMarkupPct   decimal.Decimal `json:"materialsMarkupPct"`
	Status               PlanStatus      `json:"status"`
	Notes                string          `json:"notes,omitempty"`
	CreatedAt            string          `json:"createdAt"`
	UpdatedAt            string          `json:"updatedAt"`
}

// CreatePlanRequest is the body of POST /plans.
// Recurrence bounds are checked by the plan service so they surface as invalid_recurrence.
type CreatePlanRequest struct {
	ClientID             uuid.UUID       `json:"clientId" validate:"required"`
	Name                 string          `json:"name" validate:"required,max=200"`
	PreferredWeekday     *int            `json:"preferredWeekday,omitempty"`
	PreferredWeekOfMonth *int            `json:"preferredWeekOfMonth,omitempty"`
	BillingDay           *int            `json:"billingDay,omitempty"`
	DefaultLaborCost     decimal.Decimal `json:"defaultLaborCost"`
	MaterialsMarkupPct   decimal.Decimal `json:"materialsMarkupPct"`
	Notes                string          `json:"notes,omitempty" validate:"max=2000"`
}

// UpdatePlanRequest is the body of PUT /plans/{id}
type UpdatePlanRequest struct {
	Name                 string          `json:"name" validate:"required,max=200"`
	PreferredWeekday     *int            `json:"preferredWeekday,omitempty"`
	PreferredWeekOfMonth *int            `json:"preferredWeekOfMonth,omitempty"`
	BillingDay           *int            `json:"billingDay,omitempty"`
	DefaultLaborCost     decimal.Decimal `json:"defaultLaborCost"`
	MaterialsMarkupPct   decimal.Decimal `json:"materialsMarkupPct"`
	Notes                string          `json:"notes,omitempty" validate:"max=2000"`
}

// PaginatedResponse wraps one page of a listing
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// PlanFilters narrows plan listings
type PlanFilters struct {
	ClientID *uuid.UUID
	Status   *PlanStatus
}

// ============================================================================
// Execution DTOs
// ============================================================================

// ExecutionDTO is the API representation of a plan execution
type ExecutionDTO struct {
	ID                  uuid.UUID        `json:"id"`
	PlanID              uuid.UUID        `json:"planId"`
	CycleKey            CycleKey         `json:"cycleKey"`
	CycleKind           CycleKind        `json:"cycleKind"`
	Status              ExecutionStatus  `json:"status"`
	FinalAmount         *decimal.Decimal `json:"finalAmount,omitempty"`
	CompletedAt         string           `json:"completedAt,omitempty"`
	Details             ExecutionDetails `json:"details"`
	LinkedTaskID        *uuid.UUID       `json:"linkedTaskId,omitempty"`
	LinkedAppointmentID *uuid.UUID       `json:"linkedAppointmentId,omitempty"`
	LinkedLedgerEntryID *uuid.UUID       `json:"linkedLedgerEntryId,omitempty"`
	CreatedAt           string           `json:"createdAt"`
	UpdatedAt           string           `json:"updatedAt"`
}

// SaveTemplateRequest is the body of PUT /plans/{id}/template
type SaveTemplateRequest struct {
	Checklist []ChecklistEntry `json:"checklist" validate:"dive"`
	Schedule  SeasonalSchedule `json:"schedule"`
}

// RecordAdHocRequest is the body of POST /plans/{id}/adhoc
type RecordAdHocRequest struct {
	Details     ExecutionDetails `json:"details"`
	FinalAmount decimal.Decimal  `json:"finalAmount"`
}

// UpdateChecklistRequest replaces the checklist of an open execution
type UpdateChecklistRequest struct {
	Checklist []ChecklistEntry `json:"checklist" validate:"required,dive"`
}

// LinkReferencesRequest sets weak references to other subsystems. Nil fields are left unchanged.
type LinkReferencesRequest struct {
	TaskID        *uuid.UUID `json:"taskId,omitempty"`
	AppointmentID *uuid.UUID `json:"appointmentId,omitempty"`
}

// CloseExecutionRequest is the body of POST /plans/{id}/close
type CloseExecutionRequest struct {
	ExecutionID       *uuid.UUID        `json:"executionId,omitempty"`
	LaborOverride     *decimal.Decimal  `json:"laborOverride,omitempty"`
	MaterialsOverride []MaterialLine    `json:"materialsOverride,omitempty" validate:"omitempty,dive"`
	LedgerStatus      LedgerEntryStatus `json:"ledgerStatus" validate:"required,oneof=paid pending"`
	DueDate           *Date             `json:"dueDate,omitempty"`
}

// CloseExecutionResult identifies what a closure wrote
type CloseExecutionResult struct {
	ExecutionID   uuid.UUID       `json:"executionId"`
	FinalAmount   decimal.Decimal `json:"finalAmount"`
	LedgerEntryID uuid.UUID       `json:"ledgerEntryId"`
}

// ============================================================================
// Scheduling DTOs
// ============================================================================

// PlanStatusReport is the overdue status of a plan
type PlanStatusReport struct {
	LastDoneAt        *time.Time `json:"lastDoneAt,omitempty"`
	DaysSinceLastDone *int       `json:"daysSinceLastDone,omitempty"`
	Overdue           bool       `json:"overdue"`
}

// ChecklistCompletion is the completion rate of one checklist label inside a window
type ChecklistCompletion struct {
	Label       string `json:"label"`
	DoneCount   int    `json:"doneCount"`
	TotalCount  int    `json:"totalCount"`
	PercentDone int    `json:"percentDone"`
}

// ProgressSummary aggregates completed executions inside a trailing window
type ProgressSummary struct {
	WindowMonths       int                   `json:"windowMonths"`
	ExecutionCount     int                   `json:"executionCount"`
	FertilizationCount int                   `json:"fertilizationCount"`
	PestCount          int                   `json:"pestCount"`
	Checklist          []ChecklistCompletion `json:"checklist"`
}

// PlanOverviewDTO bundles everything a plan screen needs in one read
type PlanOverviewDTO struct {
	Plan    PlanDTO                `json:"plan"`
	Status  PlanStatusReport       `json:"status"`
	NextDue map[SeasonalKind]*Date `json:"nextDue"`
	// NextVisit is the preferred visit date in the current month, independent of seasonal planning
	NextVisit Date            `json:"nextVisit"`
	Summary   ProgressSummary `json:"summary"`
}

// ============================================================================
// Inventory DTOs
// ============================================================================

// RecordMovementRequest is the body of POST /inventory/movements
type RecordMovementRequest struct {
	ProductID     uuid.UUID         `json:"productId" validate:"required"`
	ProductName   string            `json:"productName" validate:"max=200"`
	Type          StockMovementType `json:"type" validate:"required,oneof=in out"`
	Quantity      decimal.Decimal   `json:"quantity"`
	UnitCost      *decimal.Decimal  `json:"unitCost,omitempty"`
	MovementDate  *Date             `json:"movementDate,omitempty"`
	Notes         string            `json:"notes,omitempty" validate:"max=1000"`
	CreateExpense bool              `json:"createExpense"`
}

// StockMovementDTO is the API representation of an inventory movement
type StockMovementDTO struct {
	ID            uuid.UUID         `json:"id"`
	ProductID     uuid.UUID         `json:"productId"`
	ProductName   string            `json:"productName,omitempty"`
	Type          StockMovementType `json:"type"`
	Quantity      decimal.Decimal   `json:"quantity"`
	UnitCost      *decimal.Decimal  `json:"unitCost,omitempty"`
	MovementDate  Date              `json:"movementDate"`
	Notes         string            `json:"notes,omitempty"`
	LinkedExpense *LedgerEntryRef   `json:"linkedExpense,omitempty"`
	CreatedAt     string            `json:"createdAt"`
}
