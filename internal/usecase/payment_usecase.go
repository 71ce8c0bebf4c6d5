package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"app/internal/domain/model"
	"app/internal/payos"
	repo "app/internal/repository"

	"github.com/rs/zerolog"
)

// PaymentGateway is the full gateway surface the payment endpoints expose.
type PaymentGateway interface {
	Configured() bool
	CreatePaymentLink(ctx context.Context, in payos.CreatePaymentLinkInput) (payos.PaymentLink, error)
	GetPaymentInfo(ctx context.Context, orderCode string) (json.RawMessage, error)
	CancelPayment(ctx context.Context, orderCode string, reason string) (json.RawMessage, error)
	GetBankList(ctx context.Context) (json.RawMessage, error)
}

type PaymentUsecase struct {
	tx      repo.TransactionManager
	gateway PaymentGateway
	logger  zerolog.Logger
}

func NewPaymentUsecase(tx repo.TransactionManager, gateway PaymentGateway, logger zerolog.Logger) *PaymentUsecase {
	return &PaymentUsecase{
		tx:      tx,
		gateway: gateway,
		logger:  logger.With().Str("usecase", "payment").Logger(),
	}
}

type PaymentLinkOutput struct {
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
	CheckoutURL string `json:"checkout_url"`
	QRCode      string `json:"qr_code,omitempty"`
}

// CreateLinkForOrder issues a gateway payment link for an order the caller
// owns. The order id doubles as the gateway order code.
func (u *PaymentUsecase) CreateLinkForOrder(ctx context.Context, userID int64, orderID int64) (PaymentLinkOutput, error) {
	if userID <= 0 {
		return PaymentLinkOutput{}, NewDomainError(http.StatusUnauthorized, CodeValidation, "unauthorized")
	}
	if orderID <= 0 {
		return PaymentLinkOutput{}, errValidation("invalid id")
	}
	if !u.gateway.Configured() {
		return PaymentLinkOutput{}, errGateway("payment gateway is not configured")
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
		if o.Status != model.OrderStatusPending || o.PaymentStatus != model.PaymentStatusPending {
			return errInvalidOrderState(
				fmt.Sprintf("%s/%s", o.Status, o.PaymentStatus),
				string(model.OrderStatusPending),
			)
		}
		order = o
		return nil
	})
	if err != nil {
		return PaymentLinkOutput{}, err
	}

	link, err := u.gateway.CreatePaymentLink(ctx, payos.CreatePaymentLinkInput{
		OrderCode:   order.ID,
		Amount:      order.Total,
		Description: fmt.Sprintf("Payment for order %s", order.Number),
	})
	if err != nil {
		u.logger.Error().Err(err).Int64("order_id", order.ID).Msg("payment link creation failed")
		return PaymentLinkOutput{}, errGateway("failed to create payment link")
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		return r.Orders().SetPaymentLink(ctx, order.ID, link.PaymentLinkID, strconv.FormatInt(link.OrderCode, 10))
	})
	if err != nil {
		return PaymentLinkOutput{}, errInternal()
	}

	return PaymentLinkOutput{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		CheckoutURL: link.CheckoutURL,
		QRCode:      link.QRCode,
	}, nil
}

// GetPaymentInfo proxies the gateway's view of a payment.
func (u *PaymentUsecase) GetPaymentInfo(ctx context.Context, orderCode string) (json.RawMessage, error) {
	if orderCode == "" {
		return nil, errValidation("invalid order code")
	}
	if !u.gateway.Configured() {
		return nil, errGateway("payment gateway is not configured")
	}

	raw, err := u.gateway.GetPaymentInfo(ctx, orderCode)
	if err != nil {
		u.logger.Error().Err(err).Str("order_code", orderCode).Msg("payment info lookup failed")
		return nil, errGateway("failed to fetch payment info")
	}
	return raw, nil
}

// CancelPayment asks the gateway to void the payment link for an order the
// caller owns. The order itself is not touched here; the user-facing cancel
// flow handles that.
func (u *PaymentUsecase) CancelPayment(ctx context.Context, userID int64, orderID int64, reason string) (json.RawMessage, error) {
	if userID <= 0 {
		return nil, NewDomainError(http.StatusUnauthorized, CodeValidation, "unauthorized")
	}
	if orderID <= 0 {
		return nil, errValidation("invalid id")
	}
	if !u.gateway.Configured() {
		return nil, errGateway("payment gateway is not configured")
	}

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
		return nil
	})
	if err != nil {
		return nil, err
	}

	raw, err := u.gateway.CancelPayment(ctx, strconv.FormatInt(orderID, 10), reason)
	if err != nil {
		u.logger.Error().Err(err).Int64("order_id", orderID).Msg("payment cancellation failed")
		return nil, errGateway("failed to cancel payment")
	}
	return raw, nil
}

// GetBankList proxies the public VietQR bank directory.
func (u *PaymentUsecase) GetBankList(ctx context.Context) (json.RawMessage, error) {
	raw, err := u.gateway.GetBankList(ctx)
	if err != nil {
		u.logger.Error().Err(err).Msg("bank list fetch failed")
		return nil, errGateway("failed to fetch bank list")
	}
	return raw, nil
}
