package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is a unique-constraint violation surfaced by the driver.
	ErrDuplicate = errors.New("duplicate")
)

// Catalog reads only. This service never edits products beyond stock.
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (model.Product, error)
	FindVariantByID(ctx context.Context, variantID int64) (model.ProductVariant, error)
}
