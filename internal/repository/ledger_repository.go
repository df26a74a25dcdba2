package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/verdant-ops/gardenledger/internal/domain"
	"gorm.io/gorm"
)

// LedgerRepository is the store of the financial ledger
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Create(ctx context.Context, entry *domain.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *LedgerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LedgerEntry, error) {
	var entry domain.LedgerEntry
	query := r.db.WithContext(ctx).Where("id = ?", id)
	query = ApplyAccountFilter(ctx, query)
	if err := query.First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindMatching returns up to limit entries with the given type, status, date and amount.
// No ordering is applied; callers must not rely on which of several matches comes first.
func (r *LedgerRepository) FindMatching(ctx context.Context, entryType domain.LedgerEntryType, status domain.LedgerEntryStatus, date domain.Date, amount decimal.Decimal, limit int) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	query := r.db.WithContext(ctx).
		Where("type = ? AND status = ? AND transaction_date = ? AND amount = ?", entryType, status, date, amount)
	query = ApplyAccountFilter(ctx, query)
	err := query.Limit(limit).Find(&entries).Error
	return entries, err
}
