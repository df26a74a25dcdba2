package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/verdant-ops/gardenledger/internal/domain"
	"gorm.io/gorm"
)

// StockMovementRepository handles database operations for inventory movements
type StockMovementRepository struct {
	db *gorm.DB
}

func NewStockMovementRepository(db *gorm.DB) *StockMovementRepository {
	return &StockMovementRepository{db: db}
}

func (r *StockMovementRepository) Create(ctx context.Context, movement *domain.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *StockMovementRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.StockMovement, error) {
	var movement domain.StockMovement
	query := r.db.WithContext(ctx).Where("id = ?", id)
	query = ApplyAccountFilter(ctx, query)
	if err := query.First(&movement).Error; err != nil {
		return nil, err
	}
	return &movement, nil
}

// List returns movements newest first, optionally for one product
func (r *StockMovementRepository) List(ctx context.Context, productID *uuid.UUID, limit int) ([]domain.StockMovement, error) {
	var movements []domain.StockMovement
	_, limit = NormalizePage(1, limit)

	query := r.db.WithContext(ctx).Model(&domain.StockMovement{})
	query = ApplyAccountFilter(ctx, query)
	if productID != nil {
		query = query.Where("product_id = ?", *productID)
	}
	err := query.Order("movement_date DESC").Order("created_at DESC").Limit(limit).Find(&movements).Error
	return movements, err
}
