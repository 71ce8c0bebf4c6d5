package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/payos"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const whKey = "0123456789abcdef0123456789abcdef"

// fakeTxManager either fails outright or runs the closure against fixed repos.
type fakeTxManager struct {
	err   error
	repos repo.TxRepos
}

func (m *fakeTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	if m.err != nil {
		return m.err
	}
	return fn(m.repos)
}

type fakeTxRepos struct {
	orders repo.OrderRepository
	users  repo.UserRepository
}

func (r *fakeTxRepos) Orders() repo.OrderRepository         { return r.orders }
func (r *fakeTxRepos) OrderItems() repo.OrderItemRepository { return nil }
func (r *fakeTxRepos) Carts() repo.CartRepository           { return nil }
func (r *fakeTxRepos) CartItems() repo.CartItemRepository   { return nil }
func (r *fakeTxRepos) Products() repo.ProductRepository     { return nil }
func (r *fakeTxRepos) Inventory() repo.InventoryRepository  { return nil }
func (r *fakeTxRepos) Users() repo.UserRepository           { return r.users }

// fakeOrderRepo serves one canned order for lookups; everything else is inert.
type fakeOrderRepo struct {
	order   model.Order
	lookupE error
	applied bool
}

func (f *fakeOrderRepo) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	if f.lookupE != nil {
		return model.Order{}, f.lookupE
	}
	return f.order, nil
}

func (f *fakeOrderRepo) FindByNumber(ctx context.Context, number string) (model.Order, error) {
	return model.Order{}, f.lookupE
}

func (f *fakeOrderRepo) FindByPayosOrderCode(ctx context.Context, code string) (model.Order, error) {
	return model.Order{}, f.lookupE
}

func (f *fakeOrderRepo) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	return nil, 0, nil
}

func (f *fakeOrderRepo) Create(ctx context.Context, order model.Order) (int64, error) { return 0, nil }
func (f *fakeOrderRepo) Count(ctx context.Context) (int64, error)                     { return 0, nil }
func (f *fakeOrderRepo) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	return false, nil
}

func (f *fakeOrderRepo) UpdateStatuses(ctx context.Context, orderID int64, status model.OrderStatus, paymentStatus model.PaymentStatus) error {
	return nil
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	return nil
}

func (f *fakeOrderRepo) ApplyPayment(ctx context.Context, orderID int64, upd repo.PaymentUpdate) error {
	f.applied = true
	return nil
}

func (f *fakeOrderRepo) SetPaymentLink(ctx context.Context, orderID int64, paymentLinkID string, payosOrderCode string) error {
	return nil
}

func (f *fakeOrderRepo) ListAdmin(ctx context.Context, filter repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	return nil, 0, nil
}

type fakeUserRepo struct{}

func (f *fakeUserRepo) FindByID(ctx context.Context, id int64) (model.User, error) {
	return model.User{}, repo.ErrNotFound
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return model.User{}, repo.ErrNotFound
}

func (f *fakeUserRepo) Create(ctx context.Context, u model.User) (int64, error) { return 0, nil }

type noopNotifier struct{}

func (noopNotifier) OrderCreated(ctx context.Context, email string, n usecase.OrderNotice) error {
	return nil
}

func (noopNotifier) OrderCancelled(ctx context.Context, email string, n usecase.OrderNotice) error {
	return nil
}

func (noopNotifier) PaymentConfirmed(ctx context.Context, email string, n usecase.PaymentNotice) error {
	return nil
}

func newWebhookServer(t *testing.T, tx repo.TransactionManager, checksumKey string, insecureSkip bool) *echo.Echo {
	t.Helper()

	wh := usecase.NewWebhookUsecase(tx, checksumKey, insecureSkip, noopNotifier{}, zerolog.Nop())
	orderUC := usecase.NewOrderUsecase(tx, nil, noopNotifier{}, "http://localhost:5175", zerolog.Nop())
	h := NewOrderHandler(orderUC, wh, zerolog.Nop())

	e := echo.New()
	h.RegisterRoutes(e, config.Config{JWTSecret: "test-secret"})
	return e
}

func signedBody(t *testing.T, payload map[string]interface{}) string {
	t.Helper()
	sig, err := payos.SignWebhookPayload(whKey, payload)
	require.NoError(t, err)
	payload["signature"] = sig
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	delete(payload, "signature")
	return string(body)
}

func webhookPayload() map[string]interface{} {
	return map[string]interface{}{
		"code":    "00",
		"desc":    "success",
		"success": true,
		"data": map[string]interface{}{
			"orderCode": 55,
			"amount":    250000,
			"reference": "FT2508000123",
		},
	}
}

func postWebhook(e *echo.Echo, path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestWebhook_Success(t *testing.T) {
	orders := &fakeOrderRepo{order: model.Order{
		ID: 55, Number: "ORD-2508-00001", UserID: 7,
		Status: model.OrderStatusPending, PaymentStatus: model.PaymentStatusPending,
	}}
	tx := &fakeTxManager{repos: &fakeTxRepos{orders: orders, users: &fakeUserRepo{}}}
	e := newWebhookServer(t, tx, whKey, false)

	rec := postWebhook(e, "/webhook/payos", signedBody(t, webhookPayload()))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, orders.applied)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, true, resp["applied"])
	assert.Equal(t, "ORD-2508-00001", resp["order_number"])
}

func TestWebhook_AllAliasesRoute(t *testing.T) {
	for _, path := range []string{
		"/orders/HandleWebhook",
		"/orders/handlewebhook",
		"/orders/webhook",
		"/webhook/payos",
		"/webhooks/payos",
	} {
		t.Run(path, func(t *testing.T) {
			orders := &fakeOrderRepo{order: model.Order{ID: 55, UserID: 7, Status: model.OrderStatusPending}}
			tx := &fakeTxManager{repos: &fakeTxRepos{orders: orders, users: &fakeUserRepo{}}}
			e := newWebhookServer(t, tx, whKey, false)

			rec := postWebhook(e, path, signedBody(t, webhookPayload()))
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestWebhook_BadSignatureIs401(t *testing.T) {
	tx := &fakeTxManager{repos: &fakeTxRepos{orders: &fakeOrderRepo{}, users: &fakeUserRepo{}}}
	e := newWebhookServer(t, tx, whKey, false)

	payload := webhookPayload()
	payload["signature"] = "deadbeef"
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	rec := postWebhook(e, "/webhook/payos", string(body))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhook_UnknownOrderIs404(t *testing.T) {
	orders := &fakeOrderRepo{lookupE: repo.ErrNotFound}
	tx := &fakeTxManager{repos: &fakeTxRepos{orders: orders, users: &fakeUserRepo{}}}
	e := newWebhookServer(t, tx, whKey, false)

	rec := postWebhook(e, "/webhook/payos", signedBody(t, webhookPayload()))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhook_InternalFailureIsSoft200(t *testing.T) {
	tx := &fakeTxManager{err: errors.New("db down")}
	e := newWebhookServer(t, tx, whKey, false)

	rec := postWebhook(e, "/webhook/payos", signedBody(t, webhookPayload()))

	// gateway retries can't fix this; acknowledge so it stops resending
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
}

func TestWebhook_MalformedBodyIs400(t *testing.T) {
	tx := &fakeTxManager{repos: &fakeTxRepos{orders: &fakeOrderRepo{}, users: &fakeUserRepo{}}}
	e := newWebhookServer(t, tx, whKey, false)

	rec := postWebhook(e, "/webhook/payos", "not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhook_NonSuccessAcknowledged(t *testing.T) {
	orders := &fakeOrderRepo{}
	tx := &fakeTxManager{repos: &fakeTxRepos{orders: orders, users: &fakeUserRepo{}}}
	e := newWebhookServer(t, tx, whKey, false)

	payload := webhookPayload()
	payload["success"] = false
	payload["code"] = "01"

	rec := postWebhook(e, "/webhook/payos", signedBody(t, payload))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, orders.applied)
}

func TestOrdersRequireAuth(t *testing.T) {
	tx := &fakeTxManager{repos: &fakeTxRepos{orders: &fakeOrderRepo{}, users: &fakeUserRepo{}}}
	e := newWebhookServer(t, tx, whKey, false)

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStatusUpdateByNumberRequiresAuth(t *testing.T) {
	orders := &fakeOrderRepo{order: model.Order{
		ID: 55, Number: "ORD-2508-00001",
		Status: model.OrderStatusPending, PaymentStatus: model.PaymentStatusPending,
	}}
	tx := &fakeTxManager{repos: &fakeTxRepos{orders: orders, users: &fakeUserRepo{}}}
	e := newWebhookServer(t, tx, whKey, false)

	req := httptest.NewRequest(http.MethodPatch, "/orders/number/ORD-2508-00001/status",
		strings.NewReader(`{"status":"processing","payment_status":"completed"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
