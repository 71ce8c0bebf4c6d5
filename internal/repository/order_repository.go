package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

// PaymentUpdate is everything the webhook persists onto the order in one go.
type PaymentUpdate struct {
	Status         model.OrderStatus
	PaymentStatus  model.PaymentStatus
	TransactionID  string
	PaymentLinkID  string
	GatewayPayload string
	PaidAt         time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	FindByNumber(ctx context.Context, number string) (model.Order, error)
	FindByPayosOrderCode(ctx context.Context, code string) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)
	Count(ctx context.Context) (int64, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)

	UpdateStatuses(ctx context.Context, orderID int64, status model.OrderStatus, paymentStatus model.PaymentStatus) error
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	// ApplyPayment persists the gateway outcome in a single update.
	ApplyPayment(ctx context.Context, orderID int64, upd PaymentUpdate) error
	// SetPaymentLink records the payment-initiation reference issued on repay.
	SetPaymentLink(ctx context.Context, orderID int64, paymentLinkID string, payosOrderCode string) error

	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}
