package paypal

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Skizzles/Nameless-Store/internal/modules/gateways"
	"github.com/Skizzles/Nameless-Store/internal/modules/orders"
	"github.com/Skizzles/Nameless-Store/internal/modules/payments"
	"github.com/Skizzles/Nameless-Store/internal/modules/products"
	"github.com/Skizzles/Nameless-Store/internal/modules/settings"
	"github.com/Skizzles/Nameless-Store/internal/modules/subscriptions"
)

// Name is the gateway identifier used in URLs and as the ledger gateway id.
const Name = "paypal_business"

// Settings keys.
const (
	keyClientID     = "paypal_business.client_id"
	keyClientSecret = "paypal_business.client_secret"
	keyWebhookKey   = "paypal_business.webhook_key" // shared secret in the listener URL
	keyWebhookID    = "paypal_business.webhook_id"  // provider-issued webhook identifier
)

const planMetaKey = "paypal_plan_id"

// Webhook event types subscribed to during lazy webhook registration.
var webhookEventTypes = []string{
	"PAYMENT.SALE.COMPLETED",
	"PAYMENT.SALE.DENIED",
	"PAYMENT.SALE.REFUNDED",
	"PAYMENT.SALE.REVERSED",
	"BILLING.SUBSCRIPTION.CREATED",
	"BILLING.SUBSCRIPTION.CANCELLED",
	"BILLING.SUBSCRIPTION.SUSPENDED",
	"BILLING.SUBSCRIPTION.RE-ACTIVATED",
	"BILLING.SUBSCRIPTION.UPDATED",
	"BILLING.SUBSCRIPTION.EXPIRED",
	"BILLING.PLAN.CREATED",
	"BILLING.PLAN.UPDATED",
}

const errProcessingOrder = "There was an error processing this order."
const errNotConfigured = "Administration have not completed the configuration of this gateway!"

// Deps are the collaborators a gateway instance works against.
type Deps struct {
	Settings    settings.Store
	Ledger      *payments.Ledger
	Subs        *subscriptions.Service
	Orders      orders.Repository
	Products    products.Repository
	WebhookLogs gateways.WebhookLogStore
	Logger      *slog.Logger

	// BaseURL is the public origin of this store, for return/cancel and
	// listener URLs.
	BaseURL string

	// NewAPI builds the REST client from stored credentials. Tests inject
	// a fake here.
	NewAPI func(clientID, clientSecret string) API
}

// Gateway integrates the storefront with the provider's REST payment and
// billing-agreement API. One instance serves one request interaction.
type Gateway struct {
	gateways.ErrorLog
	d   Deps
	api API
}

// Factory returns a gateways.Factory producing fresh instances.
func Factory(d Deps) gateways.Factory {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.NewAPI == nil {
		d.NewAPI = func(id, secret string) API {
			return NewClient(LiveBase, id, secret)
		}
	}
	return func() gateways.Gateway {
		return &Gateway{d: d}
	}
}

func (g *Gateway) Name() string { return Name }

func (g *Gateway) OnCheckoutPageLoad(_ context.Context, _ orders.Order) {
	// Nothing to prepare; the hosted checkout needs no client-side state.
}

// ensureAPI loads credentials, builds the REST client and lazily registers
// the webhook on first use. Returns nil with a recorded error when the
// gateway is not configured; no provider call is attempted in that case
// except the one-time webhook registration itself.
func (g *Gateway) ensureAPI(ctx context.Context) API {
	if g.api != nil {
		return g.api
	}

	clientID, err := g.d.Settings.Get(ctx, keyClientID)
	if err == nil {
		var secret string
		secret, err = g.d.Settings.Get(ctx, keyClientSecret)
		if err == nil {
			if clientID == "" || secret == "" {
				g.d.Logger.ErrorContext(ctx, "gateway credentials not set", "gateway", Name)
				g.AddError(errNotConfigured)
				return nil
			}
			g.api = g.d.NewAPI(clientID, secret)
		}
	}
	if err != nil {
		g.d.Logger.ErrorContext(ctx, "reading gateway settings failed", "gateway", Name, "err", err)
		g.AddError(errNotConfigured)
		return nil
	}

	if err := g.ensureWebhook(ctx); err != nil {
		g.d.Logger.ErrorContext(ctx, "webhook registration failed", "gateway", Name, "err", err)
		g.AddError("PayPal integration incorrectly configured!")
		g.api = nil
		return nil
	}
	return g.api
}

// ensureWebhook registers the listener URL with the provider once and
// persists the generated shared key plus the provider webhook id.
func (g *Gateway) ensureWebhook(ctx context.Context) error {
	hookKey, err := g.d.Settings.Get(ctx, keyWebhookKey)
	if err != nil {
		return err
	}
	if hookKey != "" {
		return nil
	}

	key := uuid.NewString()
	listener := fmt.Sprintf("%s/store/listener?gateway=%s&key=%s", g.d.BaseURL, Name, key)
	webhookID, err := g.api.CreateWebhook(ctx, listener, webhookEventTypes)
	if err != nil {
		return err
	}

	return g.d.Settings.SetMultiple(ctx, map[string]string{
		keyWebhookKey: key,
		keyWebhookID:  webhookID,
	})
}

func (g *Gateway) returnURL(do string) string {
	return fmt.Sprintf("%s/store/process/?gateway=%s&do=%s", g.d.BaseURL, Name, do)
}

// ProcessOrder creates a provider-side payment (one-off) or billing
// agreement (subscription) and returns the approval URL.
func (g *Gateway) ProcessOrder(ctx context.Context, o orders.Order) string {
	api := g.ensureAPI(ctx)
	if g.HasErrors() {
		return ""
	}

	if !o.Subscription {
		return g.processSinglePayment(ctx, api, o)
	}
	return g.processAgreement(ctx, api, o)
}

func (g *Gateway) processSinglePayment(ctx context.Context, api API, o orders.Order) string {
	p := Payment{
		Intent: "sale",
		Payer:  Payer{PaymentMethod: "paypal"},
		Transactions: []Transaction{{
			Amount:        Amount{Total: fromCents(o.TotalCents), Currency: o.Currency},
			Description:   o.Description,
			InvoiceNumber: strconv.FormatUint(uint64(o.ID), 10),
			Custom:        strconv.FormatUint(uint64(o.ID), 10),
		}},
		RedirectURLs: &RedirectURLs{
			ReturnURL: g.returnURL("success"),
			CancelURL: g.returnURL("cancel"),
		},
	}

	created, err := api.CreatePayment(ctx, p)
	if err != nil {
		g.d.Logger.ErrorContext(ctx, "payment create failed", "gateway", Name, "order_id", o.ID, "err", err)
		g.AddError(errProcessingOrder)
		return ""
	}
	return approvalLink(created.Links)
}

func (g *Gateway) processAgreement(ctx context.Context, api API, o orders.Order) string {
	items, err := g.d.Orders.GetItems(ctx, o.ID)
	if err != nil || len(items) == 0 {
		g.d.Logger.ErrorContext(ctx, "subscription order has no items", "order_id", o.ID, "err", err)
		g.AddError(errProcessingOrder)
		return ""
	}

	product, err := g.d.Products.Get(ctx, items[0].ProductID)
	if err != nil {
		g.d.Logger.ErrorContext(ctx, "subscription product lookup failed", "order_id", o.ID, "err", err)
		g.AddError(errProcessingOrder)
		return ""
	}

	plan, ok := g.plan(ctx, api, product)
	if !ok {
		return ""
	}

	agreement := Agreement{
		Name:        product.Name,
		Description: product.Name,
		// The provider requires a start date in the future; the first
		// charge is collected at approval.
		StartDate: time.Now().Add(5 * time.Minute).UTC().Format(time.RFC3339),
		Payer:     &Payer{PaymentMethod: "paypal"},
		Plan:      &Plan{ID: plan},
	}

	created, err := api.CreateAgreement(ctx, agreement)
	if err != nil {
		g.d.Logger.ErrorContext(ctx, "agreement create failed", "gateway", Name, "order_id", o.ID, "err", err)
		g.AddError(errProcessingOrder)
		return ""
	}
	return approvalLink(created.Links)
}

// plan resolves the product's cached billing-plan id, creating and
// activating a new plan on first use.
func (g *Gateway) plan(ctx context.Context, api API, product products.Product) (string, bool) {
	cached, err := g.d.Products.GetMeta(ctx, product.ID, planMetaKey)
	if err != nil {
		g.d.Logger.ErrorContext(ctx, "plan cache lookup failed", "product_id", product.ID, "err", err)
		g.AddError(errProcessingOrder)
		return "", false
	}
	if cached != "" {
		return cached, true
	}

	billing := product.Billing()
	plan := Plan{
		Name:        "Payment Order",
		Description: product.Name,
		Type:        "INFINITE",
		PaymentDefinitions: []PaymentDefinition{{
			Name:              "Regular Payments",
			Type:              "REGULAR",
			Frequency:         billing.Period,
			FrequencyInterval: strconv.Itoa(billing.Interval),
			Amount:            Currency{Value: fromCents(product.PriceCents), Currency: product.Currency},
		}},
		MerchantPreferences: &MerchantPreferences{
			ReturnURL:               g.returnURL("success"),
			CancelURL:               g.returnURL("cancel"),
			InitialFailAmountAction: "CONTINUE",
			MaxFailAttempts:         "0",
		},
	}

	created, err := api.CreatePlan(ctx, plan)
	if err != nil {
		g.d.Logger.ErrorContext(ctx, "plan create failed", "product_id", product.ID, "err", err)
		g.AddError(errProcessingOrder)
		return "", false
	}
	if err := api.ActivatePlan(ctx, created.ID); err != nil {
		g.d.Logger.ErrorContext(ctx, "plan activate failed", "plan_id", created.ID, "err", err)
		g.AddError(errProcessingOrder)
		return "", false
	}
	if err := g.d.Products.SetMeta(ctx, product.ID, planMetaKey, created.ID); err != nil {
		g.d.Logger.ErrorContext(ctx, "plan cache store failed", "product_id", product.ID, "err", err)
		g.AddError(errProcessingOrder)
		return "", false
	}
	return created.ID, true
}

func (g *Gateway) CancelSubscription(ctx context.Context, sub subscriptions.Subscription) bool {
	api := g.ensureAPI(ctx)
	if g.HasErrors() {
		return false
	}

	if err := api.CancelAgreement(ctx, sub.AgreementID, "Cancelled the agreement"); err != nil {
		g.d.Logger.ErrorContext(ctx, "agreement cancel failed",
			"agreement_id", sub.AgreementID, "err", err)
		g.AddError(errProcessingOrder)
		return false
	}
	return true
}

// SyncSubscription pulls the authoritative agreement state and overwrites
// the local record. This is the reconciliation backstop for missed or
// out-of-order webhooks.
func (g *Gateway) SyncSubscription(ctx context.Context, sub subscriptions.Subscription) bool {
	api := g.ensureAPI(ctx)
	if g.HasErrors() {
		return false
	}

	agreement, err := api.GetAgreement(ctx, sub.AgreementID)
	if err != nil {
		g.d.Logger.ErrorContext(ctx, "agreement fetch failed",
			"agreement_id", sub.AgreementID, "err", err)
		g.AddError(errProcessingOrder)
		return false
	}

	fields := subscriptions.SyncFields{Status: mapAgreementState(agreement.State)}
	if d := agreement.AgreementDetails; d != nil {
		fields.LastPaymentDate = parseProviderTime(d.LastPaymentDate)
		fields.NextBillingDate = parseProviderTime(d.NextBillingDate)
	}

	if err := g.d.Subs.ApplySync(ctx, sub, fields); err != nil {
		g.d.Logger.ErrorContext(ctx, "subscription sync store failed",
			"subscription_id", sub.ID, "err", err)
		g.AddError(errProcessingOrder)
		return false
	}
	return true
}

// ChargePayment is a no-op: billing agreements are charged by the provider
// on schedule, not by the merchant.
func (g *Gateway) ChargePayment(_ context.Context, _ subscriptions.Subscription) bool {
	return false
}

// mapAgreementState is the fixed provider-status table. Anything unmapped
// is unknown, never coerced into an active or cancelled state.
func mapAgreementState(state string) subscriptions.Status {
	switch state {
	case "Active":
		return subscriptions.StatusActive
	case "Cancelled":
		return subscriptions.StatusCancelled
	case "Suspended":
		return subscriptions.StatusPaused
	default:
		return subscriptions.StatusUnknown
	}
}

func parseProviderTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
