package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

// BeforeCreate assigns a new ID when the caller did not provide one
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// PlanStatus represents the lifecycle status of a maintenance plan
type PlanStatus string

const (
	PlanStatusActive PlanStatus = "active"
	PlanStatusPaused PlanStatus = "paused"
)

// Plan is a recurring-service contract with a client
type Plan struct {
	BaseModel
	AccountID            uuid.UUID       `gorm:"type:uuid;not null;index;column:account_id"`
	ClientID             uuid.UUID       `gorm:"type:uuid;not null;index;column:client_id"`
	Name                 string          `gorm:"type:varchar(200);not null"`
	PreferredWeekday     *int            `gorm:"column:preferred_weekday"`
	PreferredWeekOfMonth *int            `gorm:"column:preferred_week_of_month"`
	BillingDay           *int            `gorm:"column:billing_day"`
	DefaultLaborCost     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0;column:default_labor_cost"`
	MaterialsMarkupPct   decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0;column:materials_markup_pct"`
	Status               PlanStatus      `gorm:"type:varchar(20);not null;default:'active';index"`
	Notes                string          `gorm:"type:text"`
}

// TableName returns the database table name
func (Plan) TableName() string {
	return "maintenance_plans"
}

// WeekdayRule returns the preferred weekday as a time.Weekday, or nil when unset
func (p *Plan) WeekdayRule() *time.Weekday {
	if p.PreferredWeekday == nil {
		return nil
	}
	wd := time.Weekday(*p.PreferredWeekday)
	return &wd
}

// ExecutionStatus represents the status of a plan execution
type ExecutionStatus string

const (
	ExecutionStatusOpen ExecutionStatus = "open"
	ExecutionStatusDone ExecutionStatus = "done"
)

// PlanExecution is one cycle of a plan: its template, a billing period or an ad-hoc visit.
// The (plan_id, cycle_key) pair is unique at the storage layer.
type PlanExecution struct {
	BaseModel
	AccountID           uuid.UUID                            `gorm:"type:uuid;not null;index;column:account_id"`
	PlanID              uuid.UUID                            `gorm:"type:uuid;not null;uniqueIndex:idx_plan_executions_plan_cycle,priority:1;column:plan_id"`
	CycleKey            CycleKey                             `gorm:"type:varchar(64);not null;uniqueIndex:idx_plan_executions_plan_cycle,priority:2;column:cycle_key"`
	CycleKind           CycleKind                            `gorm:"type:varchar(20);not null;index;column:cycle_kind"`
	Status              ExecutionStatus                      `gorm:"type:varchar(20);not null;default:'open'"`
	FinalAmount         *decimal.Decimal                     `gorm:"type:numeric(12,2);column:final_amount"`
	CompletedAt         *time.Time                           `gorm:"column:completed_at"`
	Details             datatypes.JSONType[ExecutionDetails] `gorm:"column:details"`
	LinkedTaskID        *uuid.UUID                           `gorm:"type:uuid;column:linked_task_id"`
	LinkedAppointmentID *uuid.UUID                           `gorm:"type:uuid;column:linked_appointment_id"`
	LinkedLedgerEntryID *uuid.UUID                           `gorm:"type:uuid;column:linked_ledger_entry_id"`
}

// TableName returns the database table name
func (PlanExecution) TableName() string {
	return "plan_executions"
}

// IsDone reports whether the execution has been closed
func (e *PlanExecution) IsDone() bool {
	return e.Status == ExecutionStatusDone
}

// IsClosedPeriod reports whether the execution is a billing period that has been closed.
// Closed periods are immutable.
func (e *PlanExecution) IsClosedPeriod() bool {
	return e.CycleKind == CycleKindPeriod && e.IsDone()
}

// DoneAt returns the moment the execution was completed, falling back to creation time
func (e *PlanExecution) DoneAt() time.Time {
	if e.CompletedAt != nil {
		return *e.CompletedAt
	}
	return e.CreatedAt
}

// LedgerEntryType distinguishes income from expense entries
type LedgerEntryType string

const (
	LedgerEntryIncome  LedgerEntryType = "income"
	LedgerEntryExpense LedgerEntryType = "expense"
)

// LedgerEntryStatus represents the settlement status of a ledger entry
type LedgerEntryStatus string

const (
	LedgerEntryPaid    LedgerEntryStatus = "paid"
	LedgerEntryPending LedgerEntryStatus = "pending"
)

// LedgerEntry is a financial transaction in the financial ledger
type LedgerEntry struct {
	BaseModel
	AccountID       uuid.UUID         `gorm:"type:uuid;not null;index;column:account_id"`
	Type            LedgerEntryType   `gorm:"type:varchar(20);not null;index:idx_ledger_entries_match,priority:1"`
	Status          LedgerEntryStatus `gorm:"type:varchar(20);not null;index:idx_ledger_entries_match,priority:2"`
	TransactionDate Date              `gorm:"type:date;not null;index:idx_ledger_entries_match,priority:3;column:transaction_date"`
	Amount          decimal.Decimal   `gorm:"type:numeric(12,2);not null"`
	DueDate         *Date             `gorm:"type:date;column:due_date"`
	PaidAt          *time.Time        `gorm:"column:paid_at"`
	ClientID        *uuid.UUID        `gorm:"type:uuid;index;column:client_id"`
	CategoryID      *uuid.UUID        `gorm:"type:uuid;column:category_id"`
	Description     string            `gorm:"type:varchar(500)"`
}

// TableName returns the database table name
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// LedgerEntryRef is a lightweight reference to a ledger entry
type LedgerEntryRef struct {
	ID              uuid.UUID       `json:"id"`
	Type            LedgerEntryType `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionDate Date            `json:"transactionDate"`
	Description     string          `json:"description,omitempty"`
}

// Ref returns a lightweight reference to the entry
func (e *LedgerEntry) Ref() LedgerEntryRef {
	return LedgerEntryRef{
		ID:              e.ID,
		Type:            e.Type,
		Amount:          e.Amount,
		TransactionDate: e.TransactionDate,
		Description:     e.Description,
	}
}

// StockMovementType represents the direction of an inventory movement
type StockMovementType string

const (
	StockMovementIn  StockMovementType = "in"
	StockMovementOut StockMovementType = "out"
)

// StockMovement is an inventory ledger line
type StockMovement struct {
	BaseModel
	AccountID    uuid.UUID         `gorm:"type:uuid;not null;index;column:account_id"`
	ProductID    uuid.UUID         `gorm:"type:uuid;not null;index;column:product_id"`
	ProductName  string            `gorm:"type:varchar(200);column:product_name"`
	Type         StockMovementType `gorm:"type:varchar(10);not null"`
	Quantity     decimal.Decimal   `gorm:"type:numeric(12,3);not null"`
	UnitCost     *decimal.Decimal  `gorm:"type:numeric(12,2);column:unit_cost"`
	MovementDate Date              `gorm:"type:date;not null;column:movement_date"`
	Notes        string            `gorm:"type:text"`
}

// TableName returns the database table name
func (StockMovement) TableName() string {
	return "stock_movements"
}

// Total returns quantity times unit cost rounded to cents, or false when the unit cost is unknown
func (m *StockMovement) Total() (decimal.Decimal, bool) {
	if m.UnitCost == nil {
		return decimal.Zero, false
	}
	return m.Quantity.Mul(*m.UnitCost).Round(2), true
}
