package usecase

import (
	"context"
	"encoding/json"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/rs/zerolog"
)

type AdminOrderUsecase struct {
	tx     repo.TransactionManager
	audit  repo.AuditLogRepository
	logger zerolog.Logger
}

func NewAdminOrderUsecase(tx repo.TransactionManager, audit repo.AuditLogRepository, logger zerolog.Logger) *AdminOrderUsecase {
	return &AdminOrderUsecase{
		tx:     tx,
		audit:  audit,
		logger: logger.With().Str("usecase", "admin_order").Logger(),
	}
}

func (u *AdminOrderUsecase) ListOrders(ctx context.Context, f repo.AdminOrderListFilter) (OrderListOutput, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Status != "" && !model.ValidOrderStatus(f.Status) {
		return OrderListOutput{}, errValidation("invalid status")
	}

	var out OrderListOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, f)
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
			Pages:       (total + int64(f.Limit) - 1) / int64(f.Limit),
			CurrentPage: f.Page,
			Orders:      outs,
		}
		return nil
	})
	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

func (u *AdminOrderUsecase) GetOrder(ctx context.Context, orderID int64) (OrderOutput, error) {
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

type AdminStatusUpdateInput struct {
	Status        string
	PaymentStatus string
}

// UpdateOrderStatus is the admin override. Unlike user cancellation it is not
// restricted by the state machine, but a move into cancelled still returns
// the reserved stock, and every change lands in the audit log.
func (u *AdminOrderUsecase) UpdateOrderStatus(ctx context.Context, adminID int64, orderID int64, in AdminStatusUpdateInput) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, errValidation("invalid id")
	}
	if in.Status == "" && in.PaymentStatus == "" {
		return OrderOutput{}, errValidation("status or payment_status is required")
	}
	if in.Status != "" && !model.ValidOrderStatus(in.Status) {
		return OrderOutput{}, errValidation("invalid status")
	}
	if in.PaymentStatus != "" && !model.ValidPaymentStatus(in.PaymentStatus) {
		return OrderOutput{}, errValidation("invalid payment_status")
	}

	var out OrderOutput
	var before, after model.Order

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return errOrderNotFound()
		}
		if err != nil {
			return errInternal()
		}
		before = o

		newStatus := o.Status
		if in.Status != "" {
			newStatus = model.OrderStatus(in.Status)
		}
		newPayment := o.PaymentStatus
		if in.PaymentStatus != "" {
			newPayment = model.PaymentStatus(in.PaymentStatus)
		}

		if err := r.Orders().UpdateStatuses(ctx, orderID, newStatus, newPayment); err != nil {
			return errInternal()
		}

		if newStatus == model.OrderStatusCancelled && o.Status != model.OrderStatusCancelled {
			items, err := r.OrderItems().ListByOrderID(ctx, orderID)
			if err != nil {
				return errInternal()
			}
			if err := restoreStock(ctx, r.Inventory(), items); err != nil {
				return errInternal()
			}
		}

		o.Status = newStatus
		o.PaymentStatus = newPayment
		after = o

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return errInternal()
		}
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	u.writeAudit(ctx, adminID, orderID, before, after)
	return out, nil
}

// writeAudit records the override. Audit failures are logged, not surfaced;
// the status change has already been committed.
func (u *AdminOrderUsecase) writeAudit(ctx context.Context, adminID int64, orderID int64, before model.Order, after model.Order) {
	beforeJSON, _ := json.Marshal(map[string]string{
		"status":         string(before.Status),
		"payment_status": string(before.PaymentStatus),
	})
	afterJSON, _ := json.Marshal(map[string]string{
		"status":         string(after.Status),
		"payment_status": string(after.PaymentStatus),
	})

	err := u.audit.Create(ctx, model.AuditLog{
		ActorUserID:  adminID,
		Action:       model.AuditActionUpdateOrderStatus,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   orderID,
		BeforeJSON:   string(beforeJSON),
		AfterJSON:    string(afterJSON),
		CreatedAt:    time.Now(),
	})
	if err != nil {
		u.logger.Error().Err(err).Int64("order_id", orderID).Msg("audit write failed")
	}
}
