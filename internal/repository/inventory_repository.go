package repository

import "context"

// Stock mutations. The decrement is conditional on sufficient stock so the
// counter can never go negative, even under concurrent conversions.
type InventoryRepository interface {
	DecreaseProductStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)
	DecreaseVariantStockIfEnough(ctx context.Context, variantID int64, qty int64) (bool, error)

	// Restore paths, used on cancellation.
	IncreaseProductStock(ctx context.Context, productID int64, qty int64) error
	IncreaseVariantStock(ctx context.Context, variantID int64, qty int64) error
}
