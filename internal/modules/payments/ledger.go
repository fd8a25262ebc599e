package payments

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Skizzles/Nameless-Store/internal/modules/orders"
)

// Fields carries the provider-reported charge data used when the ledger has
// to create a new payment row.
type Fields struct {
	OrderID        uint
	SubscriptionID *string
	PaymentID      string
	TransactionID  string
	AmountCents    int
	Currency       string
	FeeCents       *int
}

// OrderStore is the slice of the orders repository the ledger drives:
// moving an order along when a payment outcome lands.
type OrderStore interface {
	SetStatus(ctx context.Context, id uint, status string) error
}

// Ledger is the idempotent payment registry. Both the return flow and the
// webhook pipeline call RegisterOrUpdate for the same underlying charge;
// lookup-before-create plus the unique provider-identifier indexes
// guarantee at most one row per external charge.
type Ledger struct {
	repo   Repository
	orders OrderStore
	events *Dispatcher
	logger *slog.Logger
}

func NewLedger(repo Repository, ord OrderStore, events *Dispatcher, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{repo: repo, orders: ord, events: events, logger: logger}
}

// RegisterOrUpdate looks up a payment by the given provider identifier and
// inserts it when absent. When the row already exists the call is a no-op
// for creation; an unknown fee is merged in if the provider now reports
// one. Returns the stored payment and whether this call created it.
func (l *Ledger) RegisterOrUpdate(ctx context.Context, key Key, f Fields) (Payment, bool, error) {
	existing, err := l.repo.Find(ctx, key)
	if err == nil {
		l.mergeFee(ctx, &existing, f.FeeCents)
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Payment{}, false, err
	}

	p := Payment{
		ID:             uuid.NewString(),
		OrderID:        f.OrderID,
		GatewayID:      key.GatewayID,
		SubscriptionID: f.SubscriptionID,
		PaymentID:      f.PaymentID,
		TransactionID:  f.TransactionID,
		AmountCents:    f.AmountCents,
		Currency:       f.Currency,
		FeeCents:       f.FeeCents,
		Status:         StatusPending,
	}
	err = l.repo.Create(ctx, &p)
	if err == nil {
		l.logger.InfoContext(ctx, "payment registered",
			"gateway", key.GatewayID, "payment_id", f.PaymentID, "transaction_id", f.TransactionID,
			"order_id", f.OrderID, "amount_cents", f.AmountCents,
		)
		return p, true, nil
	}
	if !errors.Is(err, ErrDuplicate) {
		return Payment{}, false, err
	}

	// Lost the race against the other notification path. The row exists
	// now; re-read it and report success.
	existing, ferr := l.repo.Find(ctx, key)
	if ferr != nil {
		return Payment{}, false, ferr
	}
	l.mergeFee(ctx, &existing, f.FeeCents)
	return existing, false, nil
}

// Lookup finds an existing payment without creating one.
func (l *Ledger) Lookup(ctx context.Context, key Key) (Payment, error) {
	return l.repo.Find(ctx, key)
}

// HandleOutcome transitions the payment to the outcome's status and, when
// this call performed the transition, notifies listeners and moves the
// order along. A repeated outcome for the same payment is a no-op, which
// keeps fulfillment side effects exactly-once.
func (l *Ledger) HandleOutcome(ctx context.Context, p Payment, outcome Outcome) error {
	changed, err := l.repo.SetStatus(ctx, p.ID, outcome.paymentStatus())
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	p.Status = outcome.paymentStatus()

	orderStatus := ""
	switch outcome {
	case OutcomeCompleted:
		orderStatus = orders.StatusPaid
	case OutcomeRefunded:
		orderStatus = orders.StatusRefunded
	case OutcomeReversed:
		orderStatus = orders.StatusReversed
	case OutcomeDenied:
		orderStatus = orders.StatusDenied
	}
	if orderStatus != "" {
		if err := l.orders.SetStatus(ctx, p.OrderID, orderStatus); err != nil {
			return err
		}
	}

	l.logger.InfoContext(ctx, "payment outcome handled",
		"payment_id", p.ID, "outcome", string(outcome), "order_id", p.OrderID,
	)
	if l.events != nil {
		l.events.dispatch(ctx, Event{Payment: p, Outcome: outcome})
	}
	return nil
}

func (l *Ledger) mergeFee(ctx context.Context, p *Payment, fee *int) {
	if fee == nil || p.FeeCents != nil {
		return
	}
	if err := l.repo.UpdateFee(ctx, p.ID, *fee); err != nil {
		l.logger.WarnContext(ctx, "fee merge failed", "payment_id", p.ID, "err", err)
		return
	}
	p.FeeCents = fee
}
