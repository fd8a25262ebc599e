package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Skizzles/Nameless-Store/internal/mailer"
	"github.com/Skizzles/Nameless-Store/internal/modules/orders"
	"github.com/Skizzles/Nameless-Store/internal/modules/payments"
	"github.com/Skizzles/Nameless-Store/internal/shared/money"
)

// Receipts sends the customer an email when a payment outcome lands. It
// subscribes to the payment event dispatcher, so delivery inherits the
// ledger's exactly-once outcome guarantee.
type Receipts struct {
	mailer   mailer.Service
	orders   orders.Repository
	logger   *slog.Logger
	fromAddr string
	fromName string
}

func NewReceipts(m mailer.Service, ord orders.Repository, logger *slog.Logger, fromAddr, fromName string) *Receipts {
	if logger == nil {
		logger = slog.Default()
	}
	return &Receipts{mailer: m, orders: ord, logger: logger, fromAddr: fromAddr, fromName: fromName}
}

// Listener returns the dispatcher subscription.
func (r *Receipts) Listener() payments.Listener {
	return func(ctx context.Context, ev payments.Event) error {
		return r.send(ctx, ev)
	}
}

func (r *Receipts) send(ctx context.Context, ev payments.Event) error {
	order, err := r.orders.Get(ctx, ev.Payment.OrderID)
	if err != nil {
		return fmt.Errorf("receipt order lookup: %w", err)
	}
	if order.Email == "" {
		r.logger.WarnContext(ctx, "order has no email, skipping receipt",
			"order_id", order.ID)
		return nil
	}

	subject, intro := receiptCopy(ev.Outcome, order.ID)
	amount := money.Format(ev.Payment.Currency, ev.Payment.AmountCents)

	text := fmt.Sprintf("%s\n\nOrder: #%d\nAmount: %s\n\nThank you!",
		intro, order.ID, amount)
	html := fmt.Sprintf(`
<html>
  <body style="font-family: sans-serif;">
    <h2>%s</h2>
    <p>%s</p>
    <p><strong>Order:</strong> #%d</p>
    <p><strong>Amount:</strong> %s</p>
    <p>Thank you!</p>
  </body>
</html>
`, subject, intro, order.ID, amount)

	err = r.mailer.Send(ctx, mailer.Email{
		From:     r.fromAddr,
		FromName: r.fromName,
		To:       []string{order.Email},
		Subject:  subject,
		TextBody: text,
		HTMLBody: html,
	})
	if err != nil {
		return fmt.Errorf("receipt send: %w", err)
	}

	r.logger.InfoContext(ctx, "receipt sent",
		"order_id", order.ID, "outcome", string(ev.Outcome))
	return nil
}

func receiptCopy(outcome payments.Outcome, orderID uint) (subject, intro string) {
	switch outcome {
	case payments.OutcomeCompleted:
		return fmt.Sprintf("Payment received for order #%d", orderID),
			"We received your payment. Your order is now being processed."
	case payments.OutcomeRefunded:
		return fmt.Sprintf("Refund issued for order #%d", orderID),
			"Your payment has been refunded."
	case payments.OutcomeReversed:
		return fmt.Sprintf("Payment reversed for order #%d", orderID),
			"Your payment was reversed by the payment provider."
	case payments.OutcomeDenied:
		return fmt.Sprintf("Payment declined for order #%d", orderID),
			"Your payment was declined by the payment provider."
	default:
		return fmt.Sprintf("Payment update for order #%d", orderID),
			"There is an update on your payment."
	}
}
