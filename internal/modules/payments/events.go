package payments

import (
	"context"
	"log/slog"
)

// Outcome is the typed result of a payment event delivered by the provider.
type Outcome string

const (
	OutcomeCompleted Outcome = "COMPLETED"
	OutcomeRefunded  Outcome = "REFUNDED"
	OutcomeReversed  Outcome = "REVERSED"
	OutcomeDenied    Outcome = "DENIED"
)

func (o Outcome) paymentStatus() string {
	switch o {
	case OutcomeCompleted:
		return StatusCompleted
	case OutcomeRefunded:
		return StatusRefunded
	case OutcomeReversed:
		return StatusReversed
	case OutcomeDenied:
		return StatusDenied
	}
	return StatusPending
}

// Event is delivered to listeners exactly once per outcome per payment.
type Event struct {
	Payment Payment
	Outcome Outcome
}

// Listener receives payment outcome events. Listener errors are logged and
// do not fail the ledger operation; fulfillment retries are a listener
// concern.
type Listener func(ctx context.Context, ev Event) error

type Dispatcher struct {
	logger    *slog.Logger
	listeners []Listener
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{logger: logger}
}

func (d *Dispatcher) Subscribe(l Listener) {
	d.listeners = append(d.listeners, l)
}

func (d *Dispatcher) dispatch(ctx context.Context, ev Event) {
	for _, l := range d.listeners {
		if err := l(ctx, ev); err != nil {
			d.logger.ErrorContext(ctx, "payment event listener failed",
				"payment_id", ev.Payment.ID,
				"outcome", string(ev.Outcome),
				"err", err,
			)
		}
	}
}
