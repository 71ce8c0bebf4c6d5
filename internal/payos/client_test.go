package payos

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCreds() Credentials {
	return Credentials{ClientID: "cid", APIKey: "apikey", ChecksumKey: key}
}

func TestCreatePaymentLink(t *testing.T) {
	var got map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/payment-requests", r.URL.Path)
		assert.Equal(t, "cid", r.Header.Get("x-client-id"))
		assert.Equal(t, "apikey", r.Header.Get("x-api-key"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": "00",
			"desc": "success",
			"data": map[string]interface{}{
				"paymentLinkId": "pl_1",
				"orderCode":     55,
				"checkoutUrl":   "https://pay.payos.vn/web/pl_1",
				"qrCode":        "000201...",
				"status":        "PENDING",
			},
		})
	}))
	defer srv.Close()

	c := NewClient(testCreds(), srv.URL, "https://shop.vn", zerolog.Nop())

	link, err := c.CreatePaymentLink(context.Background(), CreatePaymentLinkInput{
		OrderCode: 55,
		Amount:    250000,
	})
	require.NoError(t, err)

	assert.Equal(t, "pl_1", link.PaymentLinkID)
	assert.Equal(t, "https://pay.payos.vn/web/pl_1", link.CheckoutURL)

	// defaults filled from the frontend URL, request signed
	assert.Equal(t, "https://shop.vn/checkout/success", got["returnUrl"])
	assert.Equal(t, "https://shop.vn/checkout/cancel", got["cancelUrl"])
	assert.Equal(t, "Payment for order 55", got["description"])

	wantSig, err := SignPaymentRequest(key, 250000,
		"https://shop.vn/checkout/cancel", "Payment for order 55", 55, "https://shop.vn/checkout/success")
	require.NoError(t, err)
	assert.Equal(t, wantSig, got["signature"])
}

func TestCreatePaymentLink_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"401","desc":"invalid key"}`))
	}))
	defer srv.Close()

	c := NewClient(testCreds(), srv.URL, "https://shop.vn", zerolog.Nop())

	_, err := c.CreatePaymentLink(context.Background(), CreatePaymentLinkInput{OrderCode: 55, Amount: 1})
	require.Error(t, err)

	var ge *GatewayError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, http.StatusUnauthorized, ge.StatusCode)
}

func TestCreatePaymentLink_EmptyCheckoutURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"00","desc":"ok","data":{}}`))
	}))
	defer srv.Close()

	c := NewClient(testCreds(), srv.URL, "https://shop.vn", zerolog.Nop())

	_, err := c.CreatePaymentLink(context.Background(), CreatePaymentLinkInput{OrderCode: 55, Amount: 1})
	assert.Error(t, err)
}

func TestCreatePaymentLink_NotConfigured(t *testing.T) {
	c := NewClient(Credentials{}, "http://gateway.invalid", "https://shop.vn", zerolog.Nop())

	_, err := c.CreatePaymentLink(context.Background(), CreatePaymentLinkInput{OrderCode: 1, Amount: 1})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.False(t, c.Configured())
}

func TestGetPaymentInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/payment-requests/55", r.URL.Path)
		w.Write([]byte(`{"code":"00","desc":"ok","data":{"status":"PAID","amount":250000}}`))
	}))
	defer srv.Close()

	c := NewClient(testCreds(), srv.URL, "https://shop.vn", zerolog.Nop())

	raw, err := c.GetPaymentInfo(context.Background(), "55")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"PAID","amount":250000}`, string(raw))
}

func TestCancelPayment_DefaultReason(t *testing.T) {
	var got map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/payment-requests/55/cancel", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"code":"00","desc":"ok","data":{"status":"CANCELLED"}}`))
	}))
	defer srv.Close()

	c := NewClient(testCreds(), srv.URL, "https://shop.vn", zerolog.Nop())

	_, err := c.CancelPayment(context.Background(), "55", "")
	require.NoError(t, err)
	assert.Equal(t, "User cancelled", got["cancellationReason"])
}
