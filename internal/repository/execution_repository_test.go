package repository_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/verdant-ops/gardenledger/internal/domain"
	"github.com/verdant-ops/gardenledger/internal/repository"
	"github.com/verdant-ops/gardenledger/internal/testutil"
)

func newExecution(plan *domain.Plan, key domain.CycleKey, createdAt time.Time) *domain.PlanExecution {
	return &domain.PlanExecution{
		BaseModel: domain.BaseModel{CreatedAt: createdAt, UpdatedAt: createdAt},
		AccountID: plan.AccountID,
		PlanID:    plan.ID,
		CycleKey:  key,
		CycleKind: key.Kind,
		Status:    domain.ExecutionStatusOpen,
	}
}

func TestExecutionRepository_CreateIfAbsent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewExecutionRepository(db)
	accountID := uuid.New()
	ctx := testutil.AccountContext(accountID)
	plan := testutil.CreateTestPlan(t, db, accountID)
	now := time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC)

	first, created, err := repo.CreateIfAbsent(ctx, newExecution(plan, domain.PeriodKey(2025, time.February), now))
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := repo.CreateIfAbsent(ctx, newExecution(plan, domain.PeriodKey(2025, time.February), now.Add(time.Hour)))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&domain.PlanExecution{}).Where("plan_id = ?", plan.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestExecutionRepository_UniqueCycleKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewExecutionRepository(db)
	accountID := uuid.New()
	ctx := testutil.AccountContext(accountID)
	plan := testutil.CreateTestPlan(t, db, accountID)
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, newExecution(plan, domain.TemplateKey(), now)))
	assert.ErrorIs(t, repo.Create(ctx, newExecution(plan, domain.TemplateKey(), now)), gorm.ErrDuplicatedKey)

	other := testutil.CreateTestPlan(t, db, accountID)
	assert.NoError(t, repo.Create(ctx, newExecution(other, domain.TemplateKey(), now)))
}

func TestExecutionRepository_UpdateRoundTripsDetails(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewExecutionRepository(db)
	accountID := uuid.New()
	ctx := testutil.AccountContext(accountID)
	plan := testutil.CreateTestPlan(t, db, accountID)

	execution := newExecution(plan, domain.PeriodKey(2025, time.May), time.Now().UTC())
	require.NoError(t, repo.Create(ctx, execution))

	labor := decimal.NewFromInt(100)
	amount := decimal.RequireFromString("122.00")
	completed := time.Date(2025, 5, 12, 15, 0, 0, 0, time.UTC)
	entryID := uuid.New()
	execution.Status = domain.ExecutionStatusDone
	execution.FinalAmount = &amount
	execution.CompletedAt = &completed
	execution.LinkedLedgerEntryID = &entryID
	execution.Details = datatypes.NewJSONType(domain.ExecutionDetails{
		Labor:     &labor,
		Materials: []domain.MaterialLine{{Name: "Mulch", Quantity: decimal.NewFromInt(2), UnitCost: decimal.NewFromInt(10)}},
		Checklist: []domain.ChecklistEntry{{Key: "mow", Label: "Mow lawn", Done: true}},
		Extra:     map[string]json.RawMessage{"legacy_flag": json.RawMessage(`true`)},
	})
	require.NoError(t, repo.Update(ctx, execution))

	stored, err := repo.GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDone())
	require.NotNil(t, stored.FinalAmount)
	assert.True(t, amount.Equal(*stored.FinalAmount))
	assert.Equal(t, entryID, *stored.LinkedLedgerEntryID)
	assert.Equal(t, domain.PeriodKey(2025, time.May), stored.CycleKey)

	details := stored.Details.Data()
	require.NotNil(t, details.Labor)
	assert.True(t, labor.Equal(*details.Labor))
	require.Len(t, details.Checklist, 1)
	assert.True(t, details.Checklist[0].Done)
	assert.JSONEq(t, `true`, string(details.Extra["legacy_flag"]))
}

func TestExecutionRepository_ListByPlan(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewExecutionRepository(db)
	accountID := uuid.New()
	ctx := testutil.AccountContext(accountID)
	plan := testutil.CreateTestPlan(t, db, accountID)
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newExecution(plan, domain.TemplateKey(), base)))
	require.NoError(t, repo.Create(ctx, newExecution(plan, domain.PeriodKey(2025, time.January), base.Add(24*time.Hour))))
	adhocAt := base.Add(10 * 24 * time.Hour)
	require.NoError(t, repo.Create(ctx, newExecution(plan, domain.AdHocKey(adhocAt), adhocAt)))
	require.NoError(t, repo.Create(ctx, newExecution(plan, domain.PeriodKey(2025, time.February), base.Add(31*24*time.Hour))))

	list, err := repo.ListByPlan(ctx, plan.ID, true)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, domain.PeriodKey(2025, time.February), list[0].CycleKey)
	assert.Equal(t, domain.CycleKindAdHoc, list[1].CycleKind)
	assert.Equal(t, domain.PeriodKey(2025, time.January), list[2].CycleKey)

	all, err := repo.ListByPlan(ctx, plan.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, domain.CycleKindTemplate, all[3].CycleKind)
}

func TestExecutionRepository_AccountIsolation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewExecutionRepository(db)
	owner := uuid.New()
	plan := testutil.CreateTestPlan(t, db, owner)

	execution := newExecution(plan, domain.TemplateKey(), time.Now().UTC())
	require.NoError(t, repo.Create(testutil.AccountContext(owner), execution))

	_, err := repo.GetByID(testutil.AccountContext(uuid.New()), execution.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.GetByID(context.Background(), execution.ID)
	assert.NoError(t, err, "unscoped contexts see every account")
}
