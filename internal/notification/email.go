// Package notification delivers order and payment emails. Delivery is
// best effort everywhere; callers log failures and move on.
package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"app/internal/usecase"

	"github.com/rs/zerolog"
)

type EmailNotifier struct {
	addr   string
	host   string
	from   string
	logger zerolog.Logger
}

func NewEmailNotifier(host string, port int, from string, logger zerolog.Logger) *EmailNotifier {
	return &EmailNotifier{
		addr:   fmt.Sprintf("%s:%d", host, port),
		host:   host,
		from:   from,
		logger: logger.With().Str("component", "email").Logger(),
	}
}

func (n *EmailNotifier) OrderCreated(ctx context.Context, email string, o usecase.OrderNotice) error {
	subject := fmt.Sprintf("Order %s confirmed", o.Number)
	body := fmt.Sprintf("Thank you for your order.\r\n\r\nOrder number: %s\r\nTotal: %d VND\r\n", o.Number, o.Total)
	return n.send(ctx, email, subject, body)
}

func (n *EmailNotifier) OrderCancelled(ctx context.Context, email string, o usecase.OrderNotice) error {
	subject := fmt.Sprintf("Order %s cancelled", o.Number)
	body := fmt.Sprintf("Your order %s (%d VND) has been cancelled.\r\n", o.Number, o.Total)
	return n.send(ctx, email, subject, body)
}

func (n *EmailNotifier) PaymentConfirmed(ctx context.Context, email string, p usecase.PaymentNotice) error {
	subject := fmt.Sprintf("Payment received for order %s", p.Number)
	body := fmt.Sprintf("We received your payment of %d VND for order %s.\r\nTransaction: %s\r\n",
		p.Amount, p.Number, p.TransactionID)
	return n.send(ctx, email, subject, body)
}

func (n *EmailNotifier) send(ctx context.Context, to string, subject string, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(n.addr, nil, n.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}

	n.logger.Info().Str("to", to).Str("subject", subject).Msg("mail sent")
	return nil
}

// LogNotifier stands in when no SMTP host is configured.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "email").Logger()}
}

func (n *LogNotifier) OrderCreated(ctx context.Context, email string, o usecase.OrderNotice) error {
	n.logger.Info().Str("to", email).Str("order_number", o.Number).Msg("order confirmation (not sent: smtp disabled)")
	return nil
}

func (n *LogNotifier) OrderCancelled(ctx context.Context, email string, o usecase.OrderNotice) error {
	n.logger.Info().Str("to", email).Str("order_number", o.Number).Msg("cancellation notice (not sent: smtp disabled)")
	return nil
}

func (n *LogNotifier) PaymentConfirmed(ctx context.Context, email string, p usecase.PaymentNotice) error {
	n.logger.Info().Str("to", email).Str("order_number", p.Number).Msg("payment notice (not sent: smtp disabled)")
	return nil
}
