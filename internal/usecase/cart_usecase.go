package usecase

import (
	"context"
	"net/http"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/rs/zerolog"
)

type CartUsecase struct {
	tx     repo.TransactionManager
	logger zerolog.Logger
}

func NewCartUsecase(tx repo.TransactionManager, logger zerolog.Logger) *CartUsecase {
	return &CartUsecase{
		tx:     tx,
		logger: logger.With().Str("usecase", "cart").Logger(),
	}
}

type CartItemOutput struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id,omitempty"`
	Name      string `json:"name"`
	SKU       string `json:"sku"`
	Image     string `json:"image,omitempty"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
}

type CartOutput struct {
	ID       int64            `json:"id"`
	Items    []CartItemOutput `json:"items"`
	Subtotal int64            `json:"subtotal"`
}

// GetCart returns the caller's active cart, creating an empty one on first
// touch. Prices shown here are indicative; the binding price is computed at
// checkout.
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartOutput, error) {
	if userID <= 0 {
		return CartOutput{}, NewDomainError(http.StatusUnauthorized, CodeValidation, "unauthorized")
	}

	var out CartOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().GetOrCreateActiveByUserID(ctx, userID)
		if err != nil {
			return errInternal()
		}
		out, err = u.buildOutput(ctx, r, cart)
		return err
	})
	if err != nil {
		return CartOutput{}, err
	}
	return out, nil
}

type AddCartItemInput struct {
	ProductID int64
	VariantID *int64
	Quantity  int64
}

func (u *CartUsecase) AddItem(ctx context.Context, userID int64, in AddCartItemInput) (CartOutput, error) {
	if userID <= 0 {
		return CartOutput{}, NewDomainError(http.StatusUnauthorized, CodeValidation, "unauthorized")
	}
	if in.ProductID <= 0 || in.Quantity <= 0 {
		return CartOutput{}, errValidation("product_id and a positive quantity are required")
	}

	var out CartOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, in.ProductID)
		if err == repo.ErrNotFound {
			return errValidation("product not found")
		}
		if err != nil {
			return errInternal()
		}
		if !p.InStock {
			return errOutOfStock(p.Name)
		}
		if in.VariantID != nil {
			v, err := r.Products().FindVariantByID(ctx, *in.VariantID)
			if err == repo.ErrNotFound {
				return errValidation("product variant not found")
			}
			if err != nil {
				return errInternal()
			}
			if v.ProductID != p.ID {
				return errValidation("variant does not belong to product")
			}
		}

		cart, err := r.Carts().GetOrCreateActiveByUserID(ctx, userID)
		if err != nil {
			return errInternal()
		}
		if err := r.CartItems().UpsertByCartAndProduct(ctx, cart.ID, in.ProductID, in.VariantID, in.Quantity); err != nil {
			return errInternal()
		}

		out, err = u.buildOutput(ctx, r, cart)
		return err
	})
	if err != nil {
		return CartOutput{}, err
	}
	return out, nil
}

func (u *CartUsecase) UpdateItemQuantity(ctx context.Context, userID int64, cartItemID int64, qty int64) (CartOutput, error) {
	if userID <= 0 {
		return CartOutput{}, NewDomainError(http.StatusUnauthorized, CodeValidation, "unauthorized")
	}
	if cartItemID <= 0 {
		return CartOutput{}, errValidation("invalid id")
	}
	if qty < 0 {
		return CartOutput{}, errValidation("quantity must not be negative")
	}

	var out CartOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		owned, err := r.CartItems().IsOwnedByUser(ctx, cartItemID, userID)
		if err != nil {
			return errInternal()
		}
		if !owned {
			return NewDomainError(http.StatusNotFound, CodeValidation, "cart item not found")
		}

		// quantity zero means remove
		if qty == 0 {
			if err := r.CartItems().DeleteByID(ctx, cartItemID); err != nil {
				return errInternal()
			}
		} else if err := r.CartItems().UpdateQuantity(ctx, cartItemID, qty); err != nil {
			return errInternal()
		}

		cart, err := r.Carts().FindActiveByUserID(ctx, userID)
		if err != nil {
			return errInternal()
		}
		out, err = u.buildOutput(ctx, r, cart)
		return err
	})
	if err != nil {
		return CartOutput{}, err
	}
	return out, nil
}

func (u *CartUsecase) RemoveItem(ctx context.Context, userID int64, cartItemID int64) (CartOutput, error) {
	return u.UpdateItemQuantity(ctx, userID, cartItemID, 0)
}

func (u *CartUsecase) ClearCart(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return NewDomainError(http.StatusUnauthorized, CodeValidation, "unauthorized")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindActiveByUserID(ctx, userID)
		if err == repo.ErrNotFound {
			return nil
		}
		if err != nil {
			return errInternal()
		}
		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			return errInternal()
		}
		return nil
	})
}

func (u *CartUsecase) buildOutput(ctx context.Context, r repo.TxRepos, cart model.Cart) (CartOutput, error) {
	items, err := r.CartItems().ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartOutput{}, errInternal()
	}

	out := CartOutput{ID: cart.ID, Items: make([]CartItemOutput, 0, len(items))}
	for _, ci := range items {
		p, err := r.Products().FindByID(ctx, ci.ProductID)
		if err == repo.ErrNotFound {
			// product withdrawn since it was added; hide the line
			continue
		}
		if err != nil {
			return CartOutput{}, errInternal()
		}

		line := CartItemOutput{
			ID:        ci.ID,
			ProductID: ci.ProductID,
			Name:      p.Name,
			SKU:       p.SKU,
			Image:     p.Thumbnail,
			UnitPrice: p.Price,
			Quantity:  ci.Quantity,
		}
		if ci.VariantID != nil {
			v, err := r.Products().FindVariantByID(ctx, *ci.VariantID)
			if err == repo.ErrNotFound {
				continue
			}
			if err != nil {
				return CartOutput{}, errInternal()
			}
			line.VariantID = ci.VariantID
			line.UnitPrice = v.Price
			line.SKU = v.SKU
		}
		line.Subtotal = line.UnitPrice * line.Quantity

		out.Items = append(out.Items, line)
		out.Subtotal += line.Subtotal
	}

	return out, nil
}
