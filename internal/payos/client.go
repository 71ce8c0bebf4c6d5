package payos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const bankListURL = "https://api.vietqr.io/v2/banks"

// ErrNotConfigured means one or more gateway credentials are missing.
// Checked before any network call.
var ErrNotConfigured = errors.New("payos credentials are not configured")

// Credentials is the injected gateway configuration. Never read from the
// environment inside this package.
type Credentials struct {
	ClientID    string
	APIKey      string
	ChecksumKey string
}

func (c Credentials) complete() bool {
	return c.ClientID != "" && c.APIKey != "" && c.ChecksumKey != ""
}

// GatewayError is a failed or unreachable gateway call.
type GatewayError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payos gateway: %v", e.Err)
	}
	return fmt.Sprintf("payos gateway: status %d: %s", e.StatusCode, e.Body)
}

func (e *GatewayError) Unwrap() error { return e.Err }

type Client struct {
	creds       Credentials
	baseURL     string
	frontendURL string
	httpClient  *http.Client
	logger      zerolog.Logger
}

func NewClient(creds Credentials, baseURL string, frontendURL string, logger zerolog.Logger) *Client {
	return &Client{
		creds:       creds,
		baseURL:     baseURL,
		frontendURL: frontendURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		logger:      logger.With().Str("component", "payos").Logger(),
	}
}

// Configured reports whether all gateway credentials are present.
func (c *Client) Configured() bool { return c.creds.complete() }

// ChecksumKey exposes the shared secret for webhook verification wiring.
func (c *Client) ChecksumKey() string { return c.creds.ChecksumKey }

type CreatePaymentLinkInput struct {
	OrderCode   int64
	Amount      int64
	Description string
	ReturnURL   string
	CancelURL   string
}

type paymentLinkItem struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
	Price    int64  `json:"price"`
}

type createPaymentLinkBody struct {
	OrderCode   int64             `json:"orderCode"`
	Amount      int64             `json:"amount"`
	Description string            `json:"description"`
	ReturnURL   string            `json:"returnUrl"`
	CancelURL   string            `json:"cancelUrl"`
	Items       []paymentLinkItem `json:"items"`
	Signature   string            `json:"signature"`
}

// PaymentLink is the subset of the gateway response the service uses.
type PaymentLink struct {
	PaymentLinkID string `json:"paymentLinkId"`
	OrderCode     int64  `json:"orderCode"`
	CheckoutURL   string `json:"checkoutUrl"`
	QRCode        string `json:"qrCode"`
	Status        string `json:"status"`
}

type gatewayEnvelope struct {
	Code string          `json:"code"`
	Desc string          `json:"desc"`
	Data json.RawMessage `json:"data"`
}

// CreatePaymentLink signs and posts a payment-request to the gateway.
// Empty return/cancel URLs fall back to the frontend checkout pages.
func (c *Client) CreatePaymentLink(ctx context.Context, in CreatePaymentLinkInput) (PaymentLink, error) {
	if !c.creds.complete() {
		return PaymentLink{}, ErrNotConfigured
	}

	if in.Description == "" {
		in.Description = fmt.Sprintf("Payment for order %d", in.OrderCode)
	}
	if in.ReturnURL == "" {
		in.ReturnURL = c.frontendURL + "/checkout/success"
	}
	if in.CancelURL == "" {
		in.CancelURL = c.frontendURL + "/checkout/cancel"
	}

	sig, err := SignPaymentRequest(c.creds.ChecksumKey, in.Amount, in.CancelURL, in.Description, in.OrderCode, in.ReturnURL)
	if err != nil {
		return PaymentLink{}, err
	}

	body := createPaymentLinkBody{
		OrderCode:   in.OrderCode,
		Amount:      in.Amount,
		Description: in.Description,
		ReturnURL:   in.ReturnURL,
		CancelURL:   in.CancelURL,
		Items: []paymentLinkItem{
			{Name: in.Description, Quantity: 1, Price: in.Amount},
		},
		Signature: sig,
	}

	var env gatewayEnvelope
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/v2/payment-requests", body, &env); err != nil {
		return PaymentLink{}, err
	}

	var link PaymentLink
	if err := json.Unmarshal(env.Data, &link); err != nil {
		return PaymentLink{}, &GatewayError{Err: fmt.Errorf("unexpected payment-link response: %w", err)}
	}
	if link.CheckoutURL == "" {
		return PaymentLink{}, &GatewayError{Err: errors.New("gateway returned empty checkout url")}
	}

	c.logger.Info().
		Int64("order_code", in.OrderCode).
		Str("payment_link_id", link.PaymentLinkID).
		Msg("payment link created")

	return link, nil
}

// GetPaymentInfo fetches the gateway's view of a payment request.
func (c *Client) GetPaymentInfo(ctx context.Context, orderCode string) (json.RawMessage, error) {
	if !c.creds.complete() {
		return nil, ErrNotConfigured
	}

	var env gatewayEnvelope
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/v2/payment-requests/"+orderCode, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// CancelPayment cancels an open payment request on the gateway side.
func (c *Client) CancelPayment(ctx context.Context, orderCode string, reason string) (json.RawMessage, error) {
	if !c.creds.complete() {
		return nil, ErrNotConfigured
	}
	if reason == "" {
		reason = "User cancelled"
	}

	body := map[string]string{"cancellationReason": reason}

	var env gatewayEnvelope
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/v2/payment-requests/"+orderCode+"/cancel", body, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// GetBankList proxies the public VietQR bank directory. No credentials needed.
func (c *Client) GetBankList(ctx context.Context) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, bankListURL, nil)
	if err != nil {
		return nil, &GatewayError{Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &GatewayError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &GatewayError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	return raw, nil
}

func (c *Client) do(ctx context.Context, method string, url string, body interface{}, out *gatewayEnvelope) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return &GatewayError{Err: err}
	}
	req.Header.Set("x-client-id", c.creds.ClientID)
	req.Header.Set("x-api-key", c.creds.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &GatewayError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &GatewayError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return &GatewayError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &GatewayError{Err: fmt.Errorf("unexpected gateway response: %w", err)}
	}
	return nil
}
