package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"app/internal/domain/model"
	"app/internal/payos"
	repo "app/internal/repository"

	"github.com/rs/zerolog"
)

// PaymentLinkCreator is the slice of the gateway client the order flow needs.
type PaymentLinkCreator interface {
	Configured() bool
	CreatePaymentLink(ctx context.Context, in payos.CreatePaymentLinkInput) (payos.PaymentLink, error)
}

type OrderUsecase struct {
	tx          repo.TransactionManager
	payments    PaymentLinkCreator
	notifier    Notifier
	frontendURL string
	logger      zerolog.Logger
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	payments PaymentLinkCreator,
	notifier Notifier,
	frontendURL string,
	logger zerolog.Logger,
) *OrderUsecase {
	return &OrderUsecase{
		tx:          tx,
		payments:    payments,
		notifier:    notifier,
		frontendURL: frontendURL,
		logger:      logger.With().Str("usecase", "order").Logger(),
	}
}

type Address struct {
	FirstName string
	LastName  string
	Company   string
	Address1  string
	Address2  string
	City      string
	State     string
	Zip       string
	Country   string
	Phone     string
}

type CreateOrderInput struct {
	OrderCode     string // optional external code; becomes the order number
	Shipping      Address
	Billing       Address
	PaymentMethod string
	Notes         string
}

type OrderItemOutput struct {
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id,omitempty"`
	Name      string `json:"name"`
	SKU       string `json:"sku"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
	Image     string `json:"image,omitempty"`
}

type OrderOutput struct {
	ID            int64             `json:"id"`
	Number        string            `json:"number"`
	UserID        int64             `json:"user_id"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	PaymentMethod string            `json:"payment_method"`
	Subtotal      int64             `json:"subtotal"`
	Tax           int64             `json:"tax"`
	ShippingCost  int64             `json:"shipping_cost"`
	Discount      int64             `json:"discount"`
	Total         int64             `json:"total"`
	CreatedAt     time.Time         `json:"created_at"`
	Items         []OrderItemOutput `json:"items"`
}

type OrderListOutput struct {
	Total       int64         `json:"total"`
	Pages       int64         `json:"pages"`
	CurrentPage int           `json:"current_page"`
	Orders      []OrderOutput `json:"orders"`
}

type RepayOutput struct {
	Order      OrderOutput `json:"order"`
	PaymentURL string      `json:"payment_url"`
}

// CreateOrder converts the caller's active cart into an order.
// Pricing, stock reservation, order creation and cart conversion all happen
// in one transaction; any failure leaves nothing behind.
func (u *OrderUsecase) CreateOrder(ctx context.Context, userID int64, in CreateOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewDomainError(http.StatusUnauthorized, CodeValidation, "unauthorized")
	}
	method := strings.TrimSpace(in.PaymentMethod)
	if method == "" {
		return OrderOutput{}, errValidation("payment_method is required")
	}

	var out OrderOutput
	var ownerEmail string

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// The cart row is locked for the whole conversion so a concurrent
		// request against the same cart waits and then sees it converted.
		cart, err := r.Carts().FindActiveByUserIDForUpdate(ctx, userID)
		if err == repo.ErrNotFound {
			return errEmptyCart()
		}
		if err != nil {
			return errInternal()
		}

		cartItems, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return errInternal()
		}
		if len(cartItems) == 0 {
			return errEmptyCart()
		}

		lines, err := u.resolveLines(ctx, r, cartItems)
		if err != nil {
			return err
		}

		quote, err := PriceOrder(lines, method)
		if err != nil {
			u.logger.Error().Err(err).Int64("user_id", userID).Msg("pricing contract violation")
			return errInternal()
		}

		number, err := u.resolveOrderNumber(ctx, r, in.OrderCode)
		if err != nil {
			return err
		}

		now := time.Now()
		order := model.Order{
			Number:         number,
			UserID:         userID,
			PaymentMethod:  method,
			Status:         model.OrderStatusPending,
			PaymentStatus:  model.PaymentStatusPending,
			Subtotal:       quote.Subtotal,
			Tax:            quote.Tax,
			ShippingCost:   quote.ShippingCost,
			Discount:       quote.Discount,
			Total:          quote.Total,
			PayosOrderCode: in.OrderCode,
			Notes:          in.Notes,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		applyAddresses(&order, in.Shipping, in.Billing)

		orderID, err := r.Orders().Create(ctx, order)
		if err == repo.ErrDuplicate {
			// ExistsByNumber raced with a concurrent insert
			return errDuplicateOrderNumber(number)
		}
		if err != nil {
			return errInternal()
		}

		items := make([]model.OrderItem, 0, len(lines))
		for _, l := range lines {
			items = append(items, model.OrderItem{
				ProductID: l.ProductID,
				VariantID: l.VariantID,
				Name:      l.Name,
				SKU:       l.SKU,
				Price:     l.UnitPrice,
				Quantity:  l.Quantity,
				Subtotal:  l.Subtotal,
				Image:     l.Image,
				CreatedAt: now,
			})
		}
		if err := r.OrderItems().CreateBulk(ctx, orderID, items); err != nil {
			return errInternal()
		}

		// Reserve stock. The conditional decrement re-checks availability, so
		// a line that raced past the earlier read still cannot oversell.
		for _, l := range lines {
			ok, err := decreaseStock(ctx, r.Inventory(), l)
			if err != nil {
				return errInternal()
			}
			if !ok {
				return errStockConflict(l.Name)
			}
		}

		if err := r.Carts().UpdateStatus(ctx, cart.ID, model.CartStatusConverted); err != nil {
			return errInternal()
		}
		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			return errInternal()
		}

		if owner, err := r.Users().FindByID(ctx, userID); err == nil {
			ownerEmail = owner.Email
		}

		order.ID = orderID
		out = toOrderOutput(order, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	u.notifyCreated(ctx, ownerEmail, out)
	return out, nil
}

// CancelOrder cancels a pending or processing order and restores its stock.
func (u *OrderUsecase) CancelOrder(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewDomainError(http.StatusUnauthorized, CodeValidation, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, errValidation("invalid id")
	}

	var out OrderOutput
	var ownerEmail string

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return errOrderNotFound()
		}
		if err != nil {
			return errInternal()
		}
		// foreign orders look like they don't exist
		if o.UserID != userID {
			return errOrderNotFound()
		}

		if !o.CanCancel() {
			return errInvalidOrderState(string(o.Status), string(model.OrderStatusCancelled))
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusCancelled); err != nil {
			return errInternal()
		}

		// Restore from the frozen item quantities; the cart is long gone.
		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return errInternal()
		}
		if err := restoreStock(ctx, r.Inventory(), items); err != nil {
			return errInternal()
		}

		if owner, err := r.Users().FindByID(ctx, userID); err == nil {
			ownerEmail = owner.Email
		}

		o.Status = model.OrderStatusCancelled
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	if ownerEmail != "" {
		if err := u.notifier.OrderCancelled(ctx, ownerEmail, OrderNotice{Number: out.Number, Total: out.Total}); err != nil {
			u.logger.Warn().Err(err).Str("order_number", out.Number).Msg("cancellation notice failed")
		}
	}
	return out, nil
}

// RepayOrder resets a failed or cancelled order to a payable state and
// issues a fresh payment link.
func (u *OrderUsecase) RepayOrder(ctx context.Context, userID int64, orderID int64) (RepayOutput, error) {
	if userID <= 0 {
		return RepayOutput{}, NewDomainError(http.StatusUnauthorized, CodeValidation, "unauthorized")
	}
	if orderID <= 0 {
		return RepayOutput{}, errValidation("invalid id")
	}

	var order model.Order

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return errOrderNotFound()
		}
		if err != nil {
			return errInternal()
		}
		if o.UserID != userID {
			return errOrderNotFound()
		}

		if !o.CanRepay() {
			return errInvalidOrderState(
				fmt.Sprintf("%s/%s", o.Status, o.PaymentStatus),
				string(model.OrderStatusPending),
			)
		}

		if err := r.Orders().UpdateStatuses(ctx, orderID, model.OrderStatusPending, model.PaymentStatusPending); err != nil {
			return errInternal()
		}

		o.Status = model.OrderStatusPending
		o.PaymentStatus = model.PaymentStatusPending
		order = o
		return nil
	})
	if err != nil {
		return RepayOutput{}, err
	}

	paymentURL, err := u.newPaymentURL(ctx, &order)
	if err != nil {
		return RepayOutput{}, err
	}

	return RepayOutput{
		Order:      toOrderOutput(order, nil),
		PaymentURL: paymentURL,
	}, nil
}

// newPaymentURL asks the gateway for a fresh payment link. Without configured
// credentials it falls back to the frontend checkout page so local setups
// keep working.
func (u *OrderUsecase) newPaymentURL(ctx context.Context, o *model.Order) (string, error) {
	if !u.payments.Configured() {
		return fmt.Sprintf("%s/checkout?repayOrder=%d&amount=%d", u.frontendURL, o.ID, o.Total), nil
	}

	link, err := u.payments.CreatePaymentLink(ctx, payos.CreatePaymentLinkInput{
		OrderCode:   o.ID,
		Amount:      o.Total,
		Description: fmt.Sprintf("Repay order %s", o.Number),
	})
	if err != nil {
		u.logger.Error().Err(err).Int64("order_id", o.ID).Msg("payment link creation failed")
		return "", errGateway("failed to create payment link")
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		return r.Orders().SetPaymentLink(ctx, o.ID, link.PaymentLinkID, strconv.FormatInt(link.OrderCode, 10))
	})
	if err != nil {
		return "", errInternal()
	}

	return link.CheckoutURL, nil
}

// UpdateStatusByNumber is the external payment-system entry point: it sets
// status and/or payment status on the order addressed by its number.
func (u *OrderUsecase) UpdateStatusByNumber(ctx context.Context, number string, status string, paymentStatus string) (OrderOutput, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return OrderOutput{}, errValidation("invalid number")
	}
	if status == "" && paymentStatus == "" {
		return OrderOutput{}, errValidation("status or payment_status is required")
	}
	if status != "" && !model.ValidOrderStatus(status) {
		return OrderOutput{}, errValidation("invalid status")
	}
	if paymentStatus != "" && !model.ValidPaymentStatus(paymentStatus) {
		return OrderOutput{}, errValidation("invalid payment_status")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByNumber(ctx, number)
		if err == repo.ErrNotFound {
			return errOrderNotFound()
		}
		if err != nil {
			return errInternal()
		}

		newStatus := o.Status
		if status != "" {
			newStatus = model.OrderStatus(status)
		}
		newPayment := o.PaymentStatus
		if paymentStatus != "" {
			newPayment = model.PaymentStatus(paymentStatus)
		}

		if err := r.Orders().UpdateStatuses(ctx, o.ID, newStatus, newPayment); err != nil {
			return errInternal()
		}

		o.Status = newStatus
		o.PaymentStatus = newPayment
		out = toOrderOutput(o, nil)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	u.logger.Info().
		Str("order_number", number).
		Str("status", out.Status).
		Str("payment_status", out.PaymentStatus).
		Msg("order status updated by number")

	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page int, limit int) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, NewDomainError(http.StatusUnauthorized, CodeValidation, "unauthorized")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	var out OrderListOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return errInternal()
		}

		outs := make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return errInternal()
			}
			outs = append(outs, toOrderOutput(o, items))
		}

		out = OrderListOutput{
			Total:       total,
			Pages:       (total + int64(limit) - 1) / int64(limit),
			CurrentPage: page,
			Orders:      outs,
		}
		return nil
	})
	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) GetMyOrder(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewDomainError(http.StatusUnauthorized, CodeValidation, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, errValidation("invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return errOrderNotFound()
		}
		if err != nil {
			return errInternal()
		}
		if o.UserID != userID {
			return errOrderNotFound()
		}

		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return errInternal()
		}

		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) GetMyOrderByNumber(ctx context.Context, userID int64, number string) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewDomainError(http.StatusUnauthorized, CodeValidation, "unauthorized")
	}
	number = strings.TrimSpace(number)
	if number == "" {
		return OrderOutput{}, errValidation("invalid number")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByNumber(ctx, number)
		if err == repo.ErrNotFound {
			return errOrderNotFound()
		}
		if err != nil {
			return errInternal()
		}
		if o.UserID != userID {
			return errOrderNotFound()
		}

		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return errInternal()
		}

		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// resolveLines turns cart items into priced lines, checking availability.
// The variant price overrides the product price; the variant stock counter
// is the one that matters when a variant is chosen.
func (u *OrderUsecase) resolveLines(ctx context.Context, r repo.TxRepos, cartItems []model.CartItem) ([]PricedLine, error) {
	lines := make([]PricedLine, 0, len(cartItems))

	for _, ci := range cartItems {
		p, err := r.Products().FindByID(ctx, ci.ProductID)
		if err == repo.ErrNotFound {
			return nil, errValidation("product no longer exists")
		}
		if err != nil {
			return nil, errInternal()
		}

		if !p.InStock {
			return nil, errOutOfStock(p.Name)
		}

		line := PricedLine{
			ProductID: p.ID,
			Name:      p.Name,
			SKU:       p.SKU,
			Image:     p.Thumbnail,
			UnitPrice: p.Price,
			Quantity:  ci.Quantity,
		}

		if ci.VariantID != nil {
			v, err := r.Products().FindVariantByID(ctx, *ci.VariantID)
			if err == repo.ErrNotFound {
				return nil, errValidation("product variant no longer exists")
			}
			if err != nil {
				return nil, errInternal()
			}
			if v.StockQuantity < ci.Quantity {
				return nil, errInsufficientStock(p.Name+" ("+v.Name+")", v.StockQuantity)
			}
			line.VariantID = ci.VariantID
			line.UnitPrice = v.Price
			line.SKU = v.SKU
		} else if p.StockQuantity < ci.Quantity {
			return nil, errInsufficientStock(p.Name, p.StockQuantity)
		}

		line.Subtotal = line.UnitPrice * line.Quantity
		lines = append(lines, line)
	}

	return lines, nil
}

// resolveOrderNumber uses the caller-supplied code when present, otherwise
// generates a sequential ORD-YYMM-NNNNN number.
func (u *OrderUsecase) resolveOrderNumber(ctx context.Context, r repo.TxRepos, orderCode string) (string, error) {
	number := strings.TrimSpace(orderCode)
	if number == "" {
		count, err := r.Orders().Count(ctx)
		if err != nil {
			return "", errInternal()
		}
		number = fmt.Sprintf("ORD-%s-%05d", time.Now().Format("0601"), count+1)
	}

	exists, err := r.Orders().ExistsByNumber(ctx, number)
	if err != nil {
		return "", errInternal()
	}
	if exists {
		return "", errDuplicateOrderNumber(number)
	}
	return number, nil
}

func (u *OrderUsecase) notifyCreated(ctx context.Context, email string, out OrderOutput) {
	if email == "" {
		return
	}
	if err := u.notifier.OrderCreated(ctx, email, OrderNotice{Number: out.Number, Total: out.Total}); err != nil {
		u.logger.Warn().Err(err).Str("order_number", out.Number).Msg("confirmation notice failed")
	}
}

func decreaseStock(ctx context.Context, inv repo.InventoryRepository, l PricedLine) (bool, error) {
	if l.VariantID != nil {
		return inv.DecreaseVariantStockIfEnough(ctx, *l.VariantID, l.Quantity)
	}
	return inv.DecreaseProductStockIfEnough(ctx, l.ProductID, l.Quantity)
}

func restoreStock(ctx context.Context, inv repo.InventoryRepository, items []model.OrderItem) error {
	for _, it := range items {
		if it.VariantID != nil {
			if err := inv.IncreaseVariantStock(ctx, *it.VariantID, it.Quantity); err != nil {
				return err
			}
			continue
		}
		if err := inv.IncreaseProductStock(ctx, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Name:      it.Name,
			SKU:       it.SKU,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal,
			Image:     it.Image,
		})
	}

	return OrderOutput{
		ID:            o.ID,
		Number:        o.Number,
		UserID:        o.UserID,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		PaymentMethod: o.PaymentMethod,
		Subtotal:      o.Subtotal,
		Tax:           o.Tax,
		ShippingCost:  o.ShippingCost,
		Discount:      o.Discount,
		Total:         o.Total,
		CreatedAt:     o.CreatedAt,
		Items:         outItems,
	}
}

func applyAddresses(o *model.Order, shipping Address, billing Address) {
	o.ShippingFirstName = shipping.FirstName
	o.ShippingLastName = shipping.LastName
	o.ShippingCompany = shipping.Company
	o.ShippingAddress1 = shipping.Address1
	o.ShippingAddress2 = shipping.Address2
	o.ShippingCity = shipping.City
	o.ShippingState = shipping.State
	o.ShippingZip = shipping.Zip
	o.ShippingCountry = shipping.Country
	o.ShippingPhone = shipping.Phone

	o.BillingFirstName = billing.FirstName
	o.BillingLastName = billing.LastName
	o.BillingCompany = billing.Company
	o.BillingAddress1 = billing.Address1
	o.BillingAddress2 = billing.Address2
	o.BillingCity = billing.City
	o.BillingState = billing.State
	o.BillingZip = billing.Zip
	o.BillingCountry = billing.Country
	o.BillingPhone = billing.Phone
}
