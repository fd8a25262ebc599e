package paypal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/Skizzles/Nameless-Store/internal/modules/gateways"
	"github.com/Skizzles/Nameless-Store/internal/modules/payments"
	"github.com/Skizzles/Nameless-Store/internal/modules/subscriptions"
	"github.com/Skizzles/Nameless-Store/internal/shared/apperr"
)

// HandleListener runs the webhook pipeline: shared-key check, signature
// verification, forensic logging, then dispatch. The returned error's kind
// maps to the HTTP status the provider sees; nil acknowledges the event.
func (g *Gateway) HandleListener(ctx context.Context, req gateways.WebhookRequest) error {
	storedKey, err := g.d.Settings.Get(ctx, keyWebhookKey)
	if err != nil {
		return apperr.Wrap(err)
	}
	if storedKey == "" || req.Key != storedKey {
		g.d.Logger.ErrorContext(ctx, "webhook key missing or invalid", "gateway", Name)
		return apperr.UnauthorizedErr("Missing or invalid webhook key.")
	}

	api := g.ensureAPI(ctx)
	if api == nil {
		return apperr.ConfigErr("Gateway not configured.", nil)
	}

	if err := g.verifySignature(ctx, api, req); err != nil {
		return err
	}

	var ev webhookEvent
	if err := json.Unmarshal(req.Body, &ev); err != nil || ev.EventType == "" {
		// Still log the body for replay before rejecting dispatch.
		if logErr := g.d.WebhookLogs.Log(ctx, Name, "unknown", req.Body); logErr != nil {
			return apperr.Wrap(logErr)
		}
		g.d.Logger.WarnContext(ctx, "webhook body has no event type", "gateway", Name)
		return nil
	}

	if err := g.d.WebhookLogs.Log(ctx, Name, ev.EventType, req.Body); err != nil {
		return apperr.Wrap(err)
	}

	return g.dispatch(ctx, ev)
}

func (g *Gateway) verifySignature(ctx context.Context, api API, req gateways.WebhookRequest) error {
	webhookID, err := g.d.Settings.Get(ctx, keyWebhookID)
	if err != nil {
		return apperr.Wrap(err)
	}

	ok, err := api.VerifyWebhookSignature(ctx, VerifySignature{
		AuthAlgo:         req.Headers.Get("Paypal-Auth-Algo"),
		CertURL:          req.Headers.Get("Paypal-Cert-Url"),
		TransmissionID:   req.Headers.Get("Paypal-Transmission-Id"),
		TransmissionSig:  req.Headers.Get("Paypal-Transmission-Sig"),
		TransmissionTime: req.Headers.Get("Paypal-Transmission-Time"),
		WebhookID:        webhookID,
		WebhookEvent:     json.RawMessage(req.Body),
	})
	if err != nil {
		g.d.Logger.ErrorContext(ctx, "webhook signature verification errored", "gateway", Name, "err", err)
		return apperr.ProviderErr("Could not verify webhook signature.", err)
	}
	if !ok {
		g.d.Logger.ErrorContext(ctx, "webhook signature invalid", "gateway", Name)
		return apperr.UnauthorizedErr("Invalid webhook signature.")
	}
	return nil
}

func (g *Gateway) dispatch(ctx context.Context, ev webhookEvent) error {
	switch ev.EventType {
	case "PAYMENT.SALE.COMPLETED":
		return g.onSaleCompleted(ctx, ev)

	case "PAYMENT.SALE.REFUNDED":
		// The refund event references the original sale by sale_id.
		return g.onSaleOutcome(ctx, ev.Resource.SaleID, payments.OutcomeRefunded)

	case "PAYMENT.SALE.REVERSED":
		return g.onSaleOutcome(ctx, ev.Resource.ID, payments.OutcomeReversed)

	case "PAYMENT.SALE.DENIED":
		return g.onSaleOutcome(ctx, ev.Resource.ID, payments.OutcomeDenied)

	case "BILLING.SUBSCRIPTION.CREATED":
		return g.onSubscriptionEvent(ctx, ev.Resource.ID, g.d.Subs.Activate)

	case "BILLING.SUBSCRIPTION.CANCELLED":
		return g.onSubscriptionEvent(ctx, ev.Resource.ID, g.d.Subs.Cancel)

	case "BILLING.SUBSCRIPTION.SUSPENDED":
		return g.onSubscriptionEvent(ctx, ev.Resource.ID, g.d.Subs.Suspend)

	case "BILLING.SUBSCRIPTION.RE-ACTIVATED":
		return g.onSubscriptionEvent(ctx, ev.Resource.ID, g.d.Subs.Reactivate)

	case "BILLING.PLAN.CREATED", "BILLING.PLAN.UPDATED":
		// Plans are a provider-side catalog mirrored at creation time;
		// nothing to reconcile locally.
		return nil

	default:
		// Acknowledge so the provider stops retrying an event we
		// intentionally ignore.
		g.d.Logger.ErrorContext(ctx, "unknown webhook event type",
			"gateway", Name, "event_type", ev.EventType)
		return nil
	}
}

func (g *Gateway) onSaleCompleted(ctx context.Context, ev webhookEvent) error {
	switch {
	case ev.Resource.ParentPayment != "":
		return g.onSinglePaymentCompleted(ctx, ev)
	case ev.Resource.BillingAgreementID != "":
		return g.onSubscriptionPaymentCompleted(ctx, ev)
	default:
		g.d.Logger.ErrorContext(ctx, "completed sale without payment or agreement reference",
			"gateway", Name, "sale_id", ev.Resource.ID)
		return apperr.IntegrityErr(fmt.Errorf("sale %s has no parent payment or billing agreement", ev.Resource.ID))
	}
}

// onSinglePaymentCompleted registers (or finds) the payment by its parent
// payment id and applies the COMPLETED outcome. The return flow may have
// registered the same charge already; the ledger resolves the race.
func (g *Gateway) onSinglePaymentCompleted(ctx context.Context, ev webhookEvent) error {
	fields, err := g.saleFields(ev)
	if err != nil {
		g.d.Logger.ErrorContext(ctx, "completed sale has malformed fields",
			"gateway", Name, "sale_id", ev.Resource.ID, "err", err)
		return apperr.Wrap(err)
	}
	fields.PaymentID = ev.Resource.ParentPayment

	p, _, err := g.d.Ledger.RegisterOrUpdate(ctx,
		payments.Key{GatewayID: Name, Column: payments.ByPaymentID, Value: ev.Resource.ParentPayment},
		fields)
	if err != nil {
		return apperr.Wrap(err)
	}
	if err := g.d.Ledger.HandleOutcome(ctx, p, payments.OutcomeCompleted); err != nil {
		return apperr.Wrap(err)
	}
	return nil
}

// onSubscriptionPaymentCompleted requires the subscription to exist: only
// the return flow creates them, so a completed recurring sale for an
// unknown agreement is a data-integrity alarm. Recurring sales have no
// parent payment, so the ledger key is the sale's transaction id.
func (g *Gateway) onSubscriptionPaymentCompleted(ctx context.Context, ev webhookEvent) error {
	sub, err := g.d.Subs.FindByAgreementID(ctx, Name, ev.Resource.BillingAgreementID)
	if err != nil {
		if errors.Is(err, subscriptions.ErrNotFound) {
			g.d.Logger.ErrorContext(ctx, "payment received for unknown subscription",
				"gateway", Name, "agreement_id", ev.Resource.BillingAgreementID)
			return apperr.IntegrityErr(fmt.Errorf("no subscription for agreement %s", ev.Resource.BillingAgreementID))
		}
		return apperr.Wrap(err)
	}

	fields, ferr := g.saleFields(ev)
	if ferr != nil {
		g.d.Logger.ErrorContext(ctx, "completed sale has malformed fields",
			"gateway", Name, "sale_id", ev.Resource.ID, "err", ferr)
		return apperr.Wrap(ferr)
	}
	fields.OrderID = sub.OrderID
	fields.SubscriptionID = &sub.ID
	fields.PaymentID = ev.ID

	p, _, err := g.d.Ledger.RegisterOrUpdate(ctx,
		payments.Key{GatewayID: Name, Column: payments.ByTransactionID, Value: ev.Resource.ID},
		fields)
	if err != nil {
		return apperr.Wrap(err)
	}
	if err := g.d.Ledger.HandleOutcome(ctx, p, payments.OutcomeCompleted); err != nil {
		return apperr.Wrap(err)
	}

	if !g.SyncSubscription(ctx, sub) {
		// Payment is recorded; a failed sync only delays reconciliation
		// until the next pull.
		g.d.Logger.WarnContext(ctx, "post-payment subscription sync failed",
			"gateway", Name, "subscription_id", sub.ID)
	}
	return nil
}

func (g *Gateway) saleFields(ev webhookEvent) (payments.Fields, error) {
	amount, err := toCents(ev.Resource.Amount.Total)
	if err != nil {
		return payments.Fields{}, err
	}

	f := payments.Fields{
		TransactionID: ev.Resource.ID,
		AmountCents:   amount,
		Currency:      ev.Resource.Amount.Currency,
	}
	if ev.Resource.TransactionFee != nil {
		if fee, err := toCents(ev.Resource.TransactionFee.Value); err == nil {
			f.FeeCents = &fee
		}
	}
	if ev.Resource.InvoiceNumber != "" {
		orderID, err := strconv.ParseUint(ev.Resource.InvoiceNumber, 10, 64)
		if err != nil {
			return payments.Fields{}, fmt.Errorf("invalid invoice number %q", ev.Resource.InvoiceNumber)
		}
		f.OrderID = uint(orderID)
	}
	return f, nil
}

// onSaleOutcome applies a refund/reversal/denial to an existing payment.
// A charge that was never recorded locally is silently ignored; there is
// nothing to reconcile.
func (g *Gateway) onSaleOutcome(ctx context.Context, transactionID string, outcome payments.Outcome) error {
	if transactionID == "" {
		return nil
	}
	p, err := g.d.Ledger.Lookup(ctx,
		payments.Key{GatewayID: Name, Column: payments.ByTransactionID, Value: transactionID})
	if err != nil {
		if errors.Is(err, payments.ErrNotFound) {
			return nil
		}
		return apperr.Wrap(err)
	}
	if err := g.d.Ledger.HandleOutcome(ctx, p, outcome); err != nil {
		return apperr.Wrap(err)
	}
	return nil
}

// onSubscriptionEvent applies a lifecycle transition to a locally known
// subscription; events for unknown agreements are acknowledged without
// effect.
func (g *Gateway) onSubscriptionEvent(ctx context.Context, agreementID string,
	apply func(context.Context, subscriptions.Subscription) error) error {
	if agreementID == "" {
		return nil
	}
	sub, err := g.d.Subs.FindByAgreementID(ctx, Name, agreementID)
	if err != nil {
		if errors.Is(err, subscriptions.ErrNotFound) {
			return nil
		}
		return apperr.Wrap(err)
	}
	if err := apply(ctx, sub); err != nil {
		return apperr.Wrap(err)
	}
	return nil
}
