package repository

import (
	"context"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// Conditional decrement: the WHERE clause keeps stock_quantity from ever
// going below zero, so two concurrent checkouts cannot oversell.
func (r *InventoryGormRepository) DecreaseProductStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

func (r *InventoryGormRepository) DecreaseVariantStockIfEnough(ctx context.Context, variantID int64, qty int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.ProductVariant{}).
		Where("id = ? AND stock_quantity >= ?", variantID, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

func (r *InventoryGormRepository) IncreaseProductStock(ctx context.Context, productID int64, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", qty))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *InventoryGormRepository) IncreaseVariantStock(ctx context.Context, variantID int64, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.ProductVariant{}).
		Where("id = ?", variantID).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", qty))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
