package service_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdant-ops/gardenledger/internal/domain"
	"github.com/verdant-ops/gardenledger/internal/testutil"
)

func stockIn(date domain.Date, quantity, unitCost string) *domain.StockMovement {
	cost := decimal.RequireFromString(unitCost)
	return &domain.StockMovement{
		BaseModel:    domain.BaseModel{ID: uuid.New()},
		ProductID:    uuid.New(),
		Type:         domain.StockMovementIn,
		Quantity:     decimal.RequireFromString(quantity),
		UnitCost:     &cost,
		MovementDate: date,
	}
}

func TestReconciliationService_FindLinkedExpense(t *testing.T) {
	f := newFixture(t)
	reconciler := f.reconciliationService()
	may1 := domain.NewDate(2025, time.May, 1)

	match := testutil.CreateTestLedgerEntry(t, f.db, f.accountID, domain.LedgerEntryExpense, domain.LedgerEntryPaid, may1, "100.00")
	testutil.CreateTestLedgerEntry(t, f.db, f.accountID, domain.LedgerEntryExpense, domain.LedgerEntryPaid, may1.AddDays(1), "100.00")
	testutil.CreateTestLedgerEntry(t, f.db, f.accountID, domain.LedgerEntryExpense, domain.LedgerEntryPending, may1, "100.00")
	testutil.CreateTestLedgerEntry(t, f.db, f.accountID, domain.LedgerEntryIncome, domain.LedgerEntryPaid, may1, "100.00")
	testutil.CreateTestLedgerEntry(t, f.db, f.accountID, domain.LedgerEntryExpense, domain.LedgerEntryPaid, may1, "99.99")

	ref, err := reconciler.FindLinkedExpense(f.ctx, stockIn(may1, "5", "20"))
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, match.ID, ref.ID)
	assert.Equal(t, domain.LedgerEntryExpense, ref.Type)
	assert.Equal(t, "2025-05-01", ref.TransactionDate.String())
}

func TestReconciliationService_FindLinkedExpense_RoundsTotal(t *testing.T) {
	f := newFixture(t)
	reconciler := f.reconciliationService()
	date := domain.NewDate(2025, time.May, 2)

	match := testutil.CreateTestLedgerEntry(t, f.db, f.accountID, domain.LedgerEntryExpense, domain.LedgerEntryPaid, date, "4.17")

	// 3 x 1.389 = 4.167
	ref, err := reconciler.FindLinkedExpense(f.ctx, stockIn(date, "3", "1.389"))
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, match.ID, ref.ID)
}

func TestReconciliationService_FindLinkedExpense_NoMatch(t *testing.T) {
	f := newFixture(t)
	reconciler := f.reconciliationService()
	may1 := domain.NewDate(2025, time.May, 1)
	testutil.CreateTestLedgerEntry(t, f.db, f.accountID, domain.LedgerEntryExpense, domain.LedgerEntryPaid, may1, "100.00")

	out := stockIn(may1, "5", "20")
	out.Type = domain.StockMovementOut

	noCost := stockIn(may1, "5", "20")
	noCost.UnitCost = nil

	tests := []struct {
		name     string
		movement *domain.StockMovement
	}{
		{name: "outgoing movement", movement: out},
		{name: "unknown unit cost", movement: noCost},
		{name: "different total", movement: stockIn(may1, "4", "20")},
		{name: "different date", movement: stockIn(may1.AddDays(-1), "5", "20")},
		{name: "nil movement", movement: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := reconciler.FindLinkedExpense(f.ctx, tt.movement)
			require.NoError(t, err, "no match is not an error")
			assert.Nil(t, ref)
		})
	}
}

func TestReconciliationService_FindLinkedExpense_AccountScoped(t *testing.T) {
	f := newFixture(t)
	reconciler := f.reconciliationService()
	may1 := domain.NewDate(2025, time.May, 1)
	testutil.CreateTestLedgerEntry(t, f.db, uuid.New(), domain.LedgerEntryExpense, domain.LedgerEntryPaid, may1, "100.00")

	ref, err := reconciler.FindLinkedExpense(f.ctx, stockIn(may1, "5", "20"))
	require.NoError(t, err)
	assert.Nil(t, ref, "expenses of other accounts never match")
}
