package usecase

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"app/internal/domain/model"
	"app/internal/payos"
	repo "app/internal/repository"

	"github.com/rs/zerolog"
)

// gateway timestamps come as "2006-01-02 15:04:05"; some payloads use RFC 3339
const gatewayTimeLayout = "2006-01-02 15:04:05"

type WebhookUsecase struct {
	tx           repo.TransactionManager
	checksumKey  string
	insecureSkip bool
	notifier     Notifier
	logger       zerolog.Logger
}

func NewWebhookUsecase(
	tx repo.TransactionManager,
	checksumKey string,
	insecureSkip bool,
	notifier Notifier,
	logger zerolog.Logger,
) *WebhookUsecase {
	return &WebhookUsecase{
		tx:           tx,
		checksumKey:  checksumKey,
		insecureSkip: insecureSkip,
		notifier:     notifier,
		logger:       logger.With().Str("usecase", "webhook").Logger(),
	}
}

// WebhookResult tells the handler what happened. Applied is false for the
// acknowledged no-ops: unsuccessful payments and duplicate deliveries.
type WebhookResult struct {
	OrderNumber string `json:"order_number,omitempty"`
	Applied     bool   `json:"applied"`
}

type webhookData struct {
	OrderCode           json.Number `json:"orderCode"`
	Amount              int64       `json:"amount"`
	Reference           string      `json:"reference"`
	TransactionDateTime string      `json:"transactionDateTime"`
	PaymentLinkID       string      `json:"paymentLinkId"`
	Description         string      `json:"description"`
	Code                string      `json:"code"`
	Desc                string      `json:"desc"`
}

type webhookEnvelope struct {
	Code    string      `json:"code"`
	Desc    string      `json:"desc"`
	Success bool        `json:"success"`
	Data    webhookData `json:"data"`
}

// Process verifies and applies one webhook delivery. The raw body is what
// gets verified; re-serialized JSON would not match the signature.
func (u *WebhookUsecase) Process(ctx context.Context, rawBody []byte) (WebhookResult, error) {
	if err := u.verify(rawBody); err != nil {
		return WebhookResult{}, err
	}

	var env webhookEnvelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		return WebhookResult{}, errValidation("malformed webhook payload")
	}

	// Only confirmed-successful payments change anything. Everything else is
	// acknowledged so the gateway stops retrying.
	if !env.Success || env.Code != "00" {
		u.logger.Info().
			Str("code", env.Code).
			Str("desc", env.Desc).
			Msg("non-success webhook acknowledged")
		return WebhookResult{Applied: false}, nil
	}

	orderCode := strings.TrimSpace(env.Data.OrderCode.String())
	if orderCode == "" {
		return WebhookResult{}, errValidation("missing order code")
	}

	var result WebhookResult
	var ownerEmail string
	var notice PaymentNotice

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := resolveWebhookOrder(ctx, r.Orders(), orderCode)
		if err == repo.ErrNotFound {
			return errOrderNotFound()
		}
		if err != nil {
			return errInternal()
		}

		result.OrderNumber = o.Number

		// Duplicate delivery: the payment is already on the order.
		if o.Reconciled() {
			u.logger.Info().Str("order_number", o.Number).Msg("webhook replay ignored")
			return nil
		}

		update := repo.PaymentUpdate{
			Status:         model.OrderStatusProcessing,
			PaymentStatus:  model.PaymentStatusCompleted,
			TransactionID:  env.Data.Reference,
			PaymentLinkID:  env.Data.PaymentLinkID,
			GatewayPayload: string(rawBody),
			PaidAt:         parseGatewayTime(env.Data.TransactionDateTime),
		}
		if err := r.Orders().ApplyPayment(ctx, o.ID, update); err != nil {
			return errInternal()
		}

		if owner, err := r.Users().FindByID(ctx, o.UserID); err == nil {
			ownerEmail = owner.Email
		}

		result.Applied = true
		notice = PaymentNotice{
			Number:        o.Number,
			Amount:        env.Data.Amount,
			TransactionID: env.Data.Reference,
		}
		return nil
	})
	if err != nil {
		return WebhookResult{}, err
	}

	if result.Applied {
		u.logger.Info().
			Str("order_number", result.OrderNumber).
			Int64("amount", env.Data.Amount).
			Str("reference", env.Data.Reference).
			Msg("payment reconciled")

		if ownerEmail != "" {
			if err := u.notifier.PaymentConfirmed(ctx, ownerEmail, notice); err != nil {
				u.logger.Warn().Err(err).Str("order_number", result.OrderNumber).Msg("payment notice failed")
			}
		}
	}

	return result, nil
}

func (u *WebhookUsecase) verify(rawBody []byte) error {
	if u.checksumKey == "" {
		if u.insecureSkip {
			u.logger.Warn().Msg("webhook signature verification skipped: no checksum key")
			return nil
		}
		return errSignatureMismatch()
	}

	ok, err := payos.VerifyWebhookSignature(u.checksumKey, rawBody)
	if err != nil {
		return errValidation("malformed webhook payload")
	}
	if !ok {
		return errSignatureMismatch()
	}
	return nil
}

// resolveWebhookOrder tries the gateway order code as a primary key, then as
// an order number, then as a stored gateway code.
func resolveWebhookOrder(ctx context.Context, orders repo.OrderRepository, orderCode string) (model.Order, error) {
	if id, err := strconv.ParseInt(orderCode, 10, 64); err == nil && id > 0 {
		o, err := orders.FindByID(ctx, id)
		if err == nil {
			return o, nil
		}
		if err != repo.ErrNotFound {
			return model.Order{}, err
		}
	}

	o, err := orders.FindByNumber(ctx, orderCode)
	if err == nil {
		return o, nil
	}
	if err != repo.ErrNotFound {
		return model.Order{}, err
	}

	return orders.FindByPayosOrderCode(ctx, orderCode)
}

func parseGatewayTime(s string) time.Time {
	if s != "" {
		if t, err := time.Parse(gatewayTimeLayout, s); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
	}
	return time.Now()
}
