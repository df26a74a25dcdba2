// Package testutil provides database fixtures shared by repository, service and handler tests.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/verdant-ops/gardenledger/internal/auth"
	"github.com/verdant-ops/gardenledger/internal/database"
	"github.com/verdant-ops/gardenledger/internal/domain"
)

// SetupTestDB returns a migrated database for one test. It uses an in-memory SQLite
// database unless TEST_DATABASE_DSN points at a PostgreSQL instance.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	var dialector gorm.Dialector
	if dsn := os.Getenv("TEST_DATABASE_DSN"); dsn != "" {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open("file::memory:")
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	if dialector.Name() == database.DriverSQLite {
		// every connection to :memory: is a separate database
		sqlDB.SetMaxOpenConns(1)
	}

	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		CleanupTestData(t, db)
		_ = sqlDB.Close()
	})
	return db
}

// CleanupTestData deletes every row written by a test
func CleanupTestData(t *testing.T, db *gorm.DB) {
	for _, table := range []string{"plan_executions", "ledger_entries", "stock_movements", "maintenance_plans"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			t.Logf("Note: Could not clean table %s: %v", table, err)
		}
	}
}

// AccountContext returns a context scoped to accountID the way the auth middleware would
func AccountContext(accountID uuid.UUID) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:      uuid.New(),
		DisplayName: "Test User",
		Email:       "test@example.com",
		AccountID:   accountID,
		Roles:       []auth.Role{auth.RoleOwner},
	})
}

// CreateTestPlan inserts an active plan owned by accountID, Monday of week 2
func CreateTestPlan(t *testing.T, db *gorm.DB, accountID uuid.UUID, mutate ...func(*domain.Plan)) *domain.Plan {
	t.Helper()

	weekday := 1
	week := 2
	plan := &domain.Plan{
		AccountID:            accountID,
		ClientID:             uuid.New(),
		Name:                 "Front garden",
		PreferredWeekday:     &weekday,
		PreferredWeekOfMonth: &week,
		DefaultLaborCost:     decimal.NewFromInt(80),
		MaterialsMarkupPct:   decimal.NewFromInt(10),
		Status:               domain.PlanStatusActive,
	}
	for _, m := range mutate {
		m(plan)
	}
	require.NoError(t, db.Create(plan).Error)
	return plan
}

// CreateTestLedgerEntry inserts a ledger entry for the account
func CreateTestLedgerEntry(t *testing.T, db *gorm.DB, accountID uuid.UUID, entryType domain.LedgerEntryType, status domain.LedgerEntryStatus, date domain.Date, amount string) *domain.LedgerEntry {
	t.Helper()

	entry := &domain.LedgerEntry{
		AccountID:       accountID,
		Type:            entryType,
		Status:          status,
		TransactionDate: date,
		Amount:          decimal.RequireFromString(amount),
		Description:     "test entry",
	}
	require.NoError(t, db.Create(entry).Error)
	return entry
}

// FixedClock is a clock that always returns the same instant
type FixedClock struct {
	At time.Time
}

// Now returns the fixed instant
func (c *FixedClock) Now() time.Time {
	return c.At
}

// Advance moves the clock forward
func (c *FixedClock) Advance(d time.Duration) {
	c.At = c.At.Add(d)
}
