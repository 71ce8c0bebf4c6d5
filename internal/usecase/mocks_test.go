package usecase

import (
	"context"
	"encoding/json"

	"app/internal/domain/model"
	"app/internal/payos"
	repo "app/internal/repository"

	"github.com/stretchr/testify/mock"
)

// TxManagerMock runs the closure against a fixed set of repo mocks.
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	carts      repo.CartRepository
	cartItems  repo.CartItemRepository
	products   repo.ProductRepository
	inventory  repo.InventoryRepository
	users      repo.UserRepository
}

func (r *TxReposMock) Orders() repo.OrderRepository         { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *TxReposMock) Carts() repo.CartRepository           { return r.carts }
func (r *TxReposMock) CartItems() repo.CartItemRepository   { return r.cartItems }
func (r *TxReposMock) Products() repo.ProductRepository     { return r.products }
func (r *TxReposMock) Inventory() repo.InventoryRepository  { return r.inventory }
func (r *TxReposMock) Users() repo.UserRepository           { return r.users }

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByNumber(ctx context.Context, number string) (model.Order, error) {
	args := m.Called(ctx, number)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByPayosOrderCode(ctx context.Context, code string) (model.Order, error) {
	args := m.Called(ctx, code)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	args := m.Called(ctx, number)
	return args.Bool(0), args.Error(1)
}

func (m *OrderRepoMock) UpdateStatuses(ctx context.Context, orderID int64, status model.OrderStatus, paymentStatus model.PaymentStatus) error {
	args := m.Called(ctx, orderID, status, paymentStatus)
	return args.Error(0)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *OrderRepoMock) ApplyPayment(ctx context.Context, orderID int64, upd repo.PaymentUpdate) error {
	args := m.Called(ctx, orderID, upd)
	return args.Error(0)
}

func (m *OrderRepoMock) SetPaymentLink(ctx context.Context, orderID int64, paymentLinkID string, payosOrderCode string) error {
	args := m.Called(ctx, orderID, paymentLinkID, payosOrderCode)
	return args.Error(0)
}

func (m *OrderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type CartRepoMock struct{ mock.Mock }

func (m *CartRepoMock) GetOrCreateActiveByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) FindActiveByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) FindActiveByUserIDForUpdate(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error {
	args := m.Called(ctx, cartID, status)
	return args.Error(0)
}

func (m *CartRepoMock) Clear(ctx context.Context, cartID int64) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

type CartItemRepoMock struct{ mock.Mock }

func (m *CartItemRepoMock) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, cartID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *CartItemRepoMock) UpsertByCartAndProduct(ctx context.Context, cartID int64, productID int64, variantID *int64, addQty int64) error {
	args := m.Called(ctx, cartID, productID, variantID, addQty)
	return args.Error(0)
}

func (m *CartItemRepoMock) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	args := m.Called(ctx, cartItemID, qty)
	return args.Error(0)
}

func (m *CartItemRepoMock) DeleteByID(ctx context.Context, cartItemID int64) error {
	args := m.Called(ctx, cartItemID)
	return args.Error(0)
}

func (m *CartItemRepoMock) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	args := m.Called(ctx, cartItemID)
	ci, _ := args.Get(0).(model.CartItem)
	return ci, args.Error(1)
}

func (m *CartItemRepoMock) IsOwnedByUser(ctx context.Context, cartItemID int64, userID int64) (bool, error) {
	args := m.Called(ctx, cartItemID, userID)
	return args.Bool(0), args.Error(1)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) FindVariantByID(ctx context.Context, variantID int64) (model.ProductVariant, error) {
	args := m.Called(ctx, variantID)
	v, _ := args.Get(0).(model.ProductVariant)
	return v, args.Error(1)
}

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) DecreaseProductStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	args := m.Called(ctx, productID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *InventoryRepoMock) DecreaseVariantStockIfEnough(ctx context.Context, variantID int64, qty int64) (bool, error) {
	args := m.Called(ctx, variantID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *InventoryRepoMock) IncreaseProductStock(ctx context.Context, productID int64, qty int64) error {
	args := m.Called(ctx, productID, qty)
	return args.Error(0)
}

func (m *InventoryRepoMock) IncreaseVariantStock(ctx context.Context, variantID int64, qty int64) error {
	args := m.Called(ctx, variantID, qty)
	return args.Error(0)
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) FindByID(ctx context.Context, id int64) (model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) Create(ctx context.Context, u model.User) (int64, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(int64), args.Error(1)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) OrderCreated(ctx context.Context, email string, n OrderNotice) error {
	args := m.Called(ctx, email, n)
	return args.Error(0)
}

func (m *NotifierMock) OrderCancelled(ctx context.Context, email string, n OrderNotice) error {
	args := m.Called(ctx, email, n)
	return args.Error(0)
}

func (m *NotifierMock) PaymentConfirmed(ctx context.Context, email string, n PaymentNotice) error {
	args := m.Called(ctx, email, n)
	return args.Error(0)
}

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) Configured() bool {
	return m.Called().Bool(0)
}

func (m *GatewayMock) CreatePaymentLink(ctx context.Context, in payos.CreatePaymentLinkInput) (payos.PaymentLink, error) {
	args := m.Called(ctx, in)
	link, _ := args.Get(0).(payos.PaymentLink)
	return link, args.Error(1)
}

func (m *GatewayMock) GetPaymentInfo(ctx context.Context, orderCode string) (json.RawMessage, error) {
	args := m.Called(ctx, orderCode)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

func (m *GatewayMock) CancelPayment(ctx context.Context, orderCode string, reason string) (json.RawMessage, error) {
	args := m.Called(ctx, orderCode, reason)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

func (m *GatewayMock) GetBankList(ctx context.Context) (json.RawMessage, error) {
	args := m.Called(ctx)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}
