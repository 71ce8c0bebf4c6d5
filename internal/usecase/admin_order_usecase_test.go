package usecase

import (
	"context"
	"testing"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type adminEnv struct {
	uc        *AdminOrderUsecase
	orders    *OrderRepoMock
	items     *OrderItemRepoMock
	inventory *InventoryRepoMock
	audit     *AuditRepoMock
}

func newAdminEnv() *adminEnv {
	e := &adminEnv{
		orders:    &OrderRepoMock{},
		items:     &OrderItemRepoMock{},
		inventory: &InventoryRepoMock{},
		audit:     &AuditRepoMock{},
	}
	tx := &TxManagerMock{Repos: &TxReposMock{
		orders:     e.orders,
		orderItems: e.items,
		carts:      &CartRepoMock{},
		cartItems:  &CartItemRepoMock{},
		products:   &ProductRepoMock{},
		inventory:  e.inventory,
		users:      &UserRepoMock{},
	}}
	tx.On("WithinTx", mock.Anything).Return(nil)
	e.uc = NewAdminOrderUsecase(tx, e.audit, zerolog.Nop())
	return e
}

func TestAdminUpdateStatus_WritesAudit(t *testing.T) {
	e := newAdminEnv()

	e.orders.On("FindByID", mock.Anything, int64(55)).
		Return(model.Order{ID: 55, Status: model.OrderStatusProcessing, PaymentStatus: model.PaymentStatusCompleted}, nil)
	e.orders.On("UpdateStatuses", mock.Anything, int64(55), model.OrderStatusCompleted, model.PaymentStatusCompleted).Return(nil)
	e.items.On("ListByOrderID", mock.Anything, int64(55)).Return([]model.OrderItem{}, nil)

	var logged model.AuditLog
	e.audit.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { logged = args.Get(1).(model.AuditLog) }).
		Return(nil)

	out, err := e.uc.UpdateOrderStatus(context.Background(), 1, 55, AdminStatusUpdateInput{Status: "completed"})
	require.NoError(t, err)

	assert.Equal(t, "completed", out.Status)
	assert.Equal(t, int64(1), logged.ActorUserID)
	assert.Equal(t, model.AuditActionUpdateOrderStatus, logged.Action)
	assert.Equal(t, int64(55), logged.ResourceID)
	assert.Contains(t, logged.BeforeJSON, "processing")
	assert.Contains(t, logged.AfterJSON, "completed")
}

func TestAdminUpdateStatus_CancelRestoresStock(t *testing.T) {
	e := newAdminEnv()

	e.orders.On("FindByID", mock.Anything, int64(55)).
		Return(model.Order{ID: 55, Status: model.OrderStatusPending, PaymentStatus: model.PaymentStatusPending}, nil)
	e.orders.On("UpdateStatuses", mock.Anything, int64(55), model.OrderStatusCancelled, model.PaymentStatusPending).Return(nil)
	e.items.On("ListByOrderID", mock.Anything, int64(55)).
		Return([]model.OrderItem{{OrderID: 55, ProductID: 10, Quantity: 3}}, nil)
	e.inventory.On("IncreaseProductStock", mock.Anything, int64(10), int64(3)).Return(nil)
	e.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := e.uc.UpdateOrderStatus(context.Background(), 1, 55, AdminStatusUpdateInput{Status: "cancelled"})
	require.NoError(t, err)

	e.inventory.AssertExpectations(t)
}

func TestAdminUpdateStatus_AlreadyCancelledSkipsRestore(t *testing.T) {
	e := newAdminEnv()

	e.orders.On("FindByID", mock.Anything, int64(55)).
		Return(model.Order{ID: 55, Status: model.OrderStatusCancelled, PaymentStatus: model.PaymentStatusPending}, nil)
	e.orders.On("UpdateStatuses", mock.Anything, int64(55), model.OrderStatusCancelled, model.PaymentStatusFailed).Return(nil)
	e.items.On("ListByOrderID", mock.Anything, int64(55)).Return([]model.OrderItem{}, nil)
	e.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := e.uc.UpdateOrderStatus(context.Background(), 1, 55, AdminStatusUpdateInput{Status: "cancelled", PaymentStatus: "failed"})
	require.NoError(t, err)

	e.inventory.AssertNotCalled(t, "IncreaseProductStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminUpdateStatus_InvalidStatus(t *testing.T) {
	e := newAdminEnv()

	_, err := e.uc.UpdateOrderStatus(context.Background(), 1, 55, AdminStatusUpdateInput{Status: "shipped"})
	assertDomainCode(t, err, CodeValidation)
}

func TestAdminListOrders_Filters(t *testing.T) {
	e := newAdminEnv()

	var got repo.AdminOrderListFilter
	e.orders.On("ListAdmin", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(1).(repo.AdminOrderListFilter) }).
		Return([]model.Order{{ID: 55}}, int64(1), nil)
	e.items.On("ListByOrderID", mock.Anything, int64(55)).Return([]model.OrderItem{}, nil)

	out, err := e.uc.ListOrders(context.Background(), repo.AdminOrderListFilter{Status: "pending", Page: 2, Limit: 5})
	require.NoError(t, err)

	assert.Equal(t, "pending", got.Status)
	assert.Equal(t, 2, got.Page)
	assert.Equal(t, int64(1), out.Total)
	assert.Equal(t, int64(1), out.Pages)
	require.Len(t, out.Orders, 1)
}

func TestAdminListOrders_InvalidStatus(t *testing.T) {
	e := newAdminEnv()

	_, err := e.uc.ListOrders(context.Background(), repo.AdminOrderListFilter{Status: "shipped"})
	assertDomainCode(t, err, CodeValidation)
}
