package repository_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdant-ops/gardenledger/internal/domain"
	"github.com/verdant-ops/gardenledger/internal/repository"
	"github.com/verdant-ops/gardenledger/internal/testutil"
)

func TestLedgerRepository_FindMatching(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewLedgerRepository(db)
	accountID := uuid.New()
	ctx := testutil.AccountContext(accountID)
	may1 := domain.NewDate(2025, time.May, 1)

	match := testutil.CreateTestLedgerEntry(t, db, accountID, domain.LedgerEntryExpense, domain.LedgerEntryPaid, may1, "100.00")
	testutil.CreateTestLedgerEntry(t, db, accountID, domain.LedgerEntryExpense, domain.LedgerEntryPending, may1, "100.00")
	testutil.CreateTestLedgerEntry(t, db, accountID, domain.LedgerEntryIncome, domain.LedgerEntryPaid, may1, "100.00")
	testutil.CreateTestLedgerEntry(t, db, accountID, domain.LedgerEntryExpense, domain.LedgerEntryPaid, may1.AddDays(1), "100.00")
	testutil.CreateTestLedgerEntry(t, db, accountID, domain.LedgerEntryExpense, domain.LedgerEntryPaid, may1, "100.01")
	testutil.CreateTestLedgerEntry(t, db, uuid.New(), domain.LedgerEntryExpense, domain.LedgerEntryPaid, may1, "100.00")

	found, err := repo.FindMatching(ctx, domain.LedgerEntryExpense, domain.LedgerEntryPaid, may1, decimal.NewFromInt(100), 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, match.ID, found[0].ID)
	assert.Equal(t, "2025-05-01", found[0].TransactionDate.String())
}

func TestLedgerRepository_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewLedgerRepository(db)
	accountID := uuid.New()
	ctx := testutil.AccountContext(accountID)
	clientID := uuid.New()
	due := domain.NewDate(2025, time.June, 15)

	entry := &domain.LedgerEntry{
		AccountID:       accountID,
		Type:            domain.LedgerEntryIncome,
		Status:          domain.LedgerEntryPending,
		TransactionDate: domain.NewDate(2025, time.June, 1),
		Amount:          decimal.RequireFromString("122.50"),
		DueDate:         &due,
		ClientID:        &clientID,
		Description:     "Maintenance June",
	}
	require.NoError(t, repo.Create(ctx, entry))

	stored, err := repo.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("122.5").Equal(stored.Amount))
	require.NotNil(t, stored.DueDate)
	assert.Equal(t, "2025-06-15", stored.DueDate.String())
	assert.Nil(t, stored.PaidAt)
	assert.Equal(t, clientID, *stored.ClientID)
}
