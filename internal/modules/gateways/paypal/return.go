package paypal

import (
	"context"
	"strconv"

	"github.com/Skizzles/Nameless-Store/internal/modules/gateways"
	"github.com/Skizzles/Nameless-Store/internal/modules/payments"
	"github.com/Skizzles/Nameless-Store/internal/modules/subscriptions"
)

// HandleReturn completes the checkout after the browser comes back from the
// provider's approval page. A payment id means a one-off payment; a token
// means a billing agreement. The webhook pipeline races this handler for
// the same charge, so registration goes through the idempotent ledger.
func (g *Gateway) HandleReturn(ctx context.Context, req gateways.ReturnRequest) bool {
	if req.Params.Get("do") != "success" {
		return false
	}

	paymentID := req.Params.Get("paymentId")
	token := req.Params.Get("token")
	if paymentID == "" && token == "" {
		g.d.Logger.ErrorContext(ctx, "return callback missing payment id and token", "gateway", Name)
		g.AddError(errProcessingOrder)
		return false
	}

	api := g.ensureAPI(ctx)
	if g.HasErrors() {
		return false
	}

	if paymentID != "" {
		return g.completePayment(ctx, api, paymentID, req.Params.Get("PayerID"))
	}
	return g.activateAgreement(ctx, api, token, req.PendingOrderID)
}

func (g *Gateway) completePayment(ctx context.Context, api API, paymentID, payerID string) bool {
	if _, err := api.ExecutePayment(ctx, paymentID, payerID); err != nil {
		g.d.Logger.ErrorContext(ctx, "payment execute failed",
			"gateway", Name, "payment_id", paymentID, "err", err)
		g.AddError(errProcessingOrder)
		return false
	}

	// Re-fetch: the execute response does not carry the related sale.
	payment, err := api.GetPayment(ctx, paymentID)
	if err != nil {
		g.d.Logger.ErrorContext(ctx, "payment fetch failed",
			"gateway", Name, "payment_id", paymentID, "err", err)
		g.AddError(errProcessingOrder)
		return false
	}

	if len(payment.Transactions) == 0 {
		g.d.Logger.ErrorContext(ctx, "executed payment has no transactions",
			"gateway", Name, "payment_id", paymentID)
		g.AddError(errProcessingOrder)
		return false
	}
	txn := payment.Transactions[0]

	var sale *Sale
	for _, rr := range txn.RelatedResources {
		if rr.Sale != nil {
			sale = rr.Sale
			break
		}
	}
	if sale == nil {
		g.d.Logger.ErrorContext(ctx, "executed payment has no sale",
			"gateway", Name, "payment_id", paymentID)
		g.AddError(errProcessingOrder)
		return false
	}

	orderID, err := strconv.ParseUint(txn.InvoiceNumber, 10, 64)
	if err != nil {
		g.d.Logger.ErrorContext(ctx, "payment carries invalid invoice number",
			"gateway", Name, "payment_id", paymentID, "invoice_number", txn.InvoiceNumber)
		g.AddError(errProcessingOrder)
		return false
	}

	amount, err := toCents(txn.Amount.Total)
	if err != nil {
		g.d.Logger.ErrorContext(ctx, "payment carries invalid amount",
			"gateway", Name, "payment_id", paymentID, "err", err)
		g.AddError(errProcessingOrder)
		return false
	}

	var fee *int
	if sale.TransactionFee != nil {
		if f, err := toCents(sale.TransactionFee.Value); err == nil {
			fee = &f
		}
	}

	_, _, err = g.d.Ledger.RegisterOrUpdate(ctx,
		payments.Key{GatewayID: Name, Column: payments.ByPaymentID, Value: payment.ID},
		payments.Fields{
			OrderID:       uint(orderID),
			PaymentID:     payment.ID,
			TransactionID: sale.ID,
			AmountCents:   amount,
			Currency:      txn.Amount.Currency,
			FeeCents:      fee,
		})
	if err != nil {
		g.d.Logger.ErrorContext(ctx, "payment registration failed",
			"gateway", Name, "payment_id", paymentID, "err", err)
		g.AddError(errProcessingOrder)
		return false
	}
	return true
}

// activateAgreement executes the approved agreement and creates the local
// subscription in pending state. Only this path creates subscriptions; the
// webhook pipeline transitions existing ones.
func (g *Gateway) activateAgreement(ctx context.Context, api API, token string, pendingOrderID uint) bool {
	executed, err := api.ExecuteAgreement(ctx, token)
	if err != nil {
		g.d.Logger.ErrorContext(ctx, "agreement execute failed", "gateway", Name, "err", err)
		g.AddError(errProcessingOrder)
		return false
	}

	agreement, err := api.GetAgreement(ctx, executed.ID)
	if err != nil {
		g.d.Logger.ErrorContext(ctx, "agreement fetch failed",
			"gateway", Name, "agreement_id", executed.ID, "err", err)
		g.AddError(errProcessingOrder)
		return false
	}

	if pendingOrderID == 0 {
		// The session no longer knows which order this agreement pays
		// for. This is an integrity failure, not a retryable condition.
		g.d.Logger.ErrorContext(ctx, "agreement return without pending order",
			"gateway", Name, "agreement_id", agreement.ID)
		g.AddError(errProcessingOrder)
		return false
	}

	order, err := g.d.Orders.Get(ctx, pendingOrderID)
	if err != nil {
		g.d.Logger.ErrorContext(ctx, "pending order lookup failed",
			"gateway", Name, "order_id", pendingOrderID, "err", err)
		g.AddError(errProcessingOrder)
		return false
	}

	sub := subscriptions.Subscription{
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		GatewayID:   Name,
		AgreementID: agreement.ID,
	}

	if agreement.Plan != nil && len(agreement.Plan.PaymentDefinitions) > 0 {
		def := agreement.Plan.PaymentDefinitions[0]
		if cents, err := toCents(def.Amount.Value); err == nil {
			sub.AmountCents = cents
		}
		sub.Currency = def.Amount.Currency
		sub.Frequency = def.Frequency
		if n, err := strconv.Atoi(def.FrequencyInterval); err == nil {
			sub.FrequencyInterval = n
		}
	}

	if p := agreement.Payer; p != nil {
		sub.Verified = p.Status == "verified"
		if p.PayerInfo != nil {
			sub.Email = p.PayerInfo.Email
			sub.PayerID = p.PayerInfo.PayerID
		}
	}

	if d := agreement.AgreementDetails; d != nil {
		sub.LastPaymentDate = parseProviderTime(d.LastPaymentDate)
		sub.NextBillingDate = parseProviderTime(d.NextBillingDate)
	}

	if _, err := g.d.Subs.Register(ctx, sub); err != nil {
		g.d.Logger.ErrorContext(ctx, "subscription store failed",
			"gateway", Name, "agreement_id", agreement.ID, "err", err)
		g.AddError(errProcessingOrder)
		return false
	}
	return true
}
