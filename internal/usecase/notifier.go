package usecase

import "context"

// OrderNotice and PaymentNotice are what notifications carry. Kept small on
// purpose; the notifier renders them however it likes.
type OrderNotice struct {
	Number string
	Total  int64
}

type PaymentNotice struct {
	Number        string
	Amount        int64
	TransactionID string
}

// Notifier delivers best-effort messages to the order owner. Every call site
// logs and swallows failures; a broken mail server must never fail an order
// or a webhook response.
type Notifier interface {
	OrderCreated(ctx context.Context, email string, n OrderNotice) error
	OrderCancelled(ctx context.Context, email string, n OrderNotice) error
	PaymentConfirmed(ctx context.Context, email string, n PaymentNotice) error
}
