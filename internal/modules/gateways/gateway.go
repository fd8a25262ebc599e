package gateways

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Skizzles/Nameless-Store/internal/modules/orders"
	"github.com/Skizzles/Nameless-Store/internal/modules/subscriptions"
)

// ReturnRequest is the browser redirect back from the provider's hosted
// checkout page. PendingOrderID comes from the customer's signed cart
// cookie, not from the provider.
type ReturnRequest struct {
	Params         url.Values
	PendingOrderID uint
}

// WebhookRequest is a raw server-to-server event push. Key is the shared
// secret from the listener URL; the body is unparsed JSON.
type WebhookRequest struct {
	Key     string
	Headers http.Header
	Body    []byte
}

// Gateway is the lifecycle contract every payment provider integration
// implements. A gateway instance lives for one request interaction and
// accumulates user-facing errors instead of aborting on the first problem,
// so a single checkout can report every configuration fault at once; check
// HasErrors before trusting any result.
type Gateway interface {
	Name() string

	// OnCheckoutPageLoad lets the provider prepare checkout-page state.
	OnCheckoutPageLoad(ctx context.Context, o orders.Order)

	// ProcessOrder creates the provider-side payment or billing agreement
	// and returns the approval URL the browser is redirected to. An empty
	// URL with HasErrors set means the order could not be processed.
	ProcessOrder(ctx context.Context, o orders.Order) (redirectURL string)

	// HandleReturn completes a payment or activates an agreement after the
	// browser returns. False means the flow failed and no partial state
	// was written.
	HandleReturn(ctx context.Context, req ReturnRequest) bool

	// HandleListener runs the webhook pipeline for one raw event. The
	// returned error's kind decides the HTTP response code.
	HandleListener(ctx context.Context, req WebhookRequest) error

	CancelSubscription(ctx context.Context, sub subscriptions.Subscription) bool
	SyncSubscription(ctx context.Context, sub subscriptions.Subscription) bool
	// ChargePayment initiates a recurring charge for providers that need
	// manual charge initiation; driven by an external scheduler.
	ChargePayment(ctx context.Context, sub subscriptions.Subscription) bool

	HasErrors() bool
	Errors() []string
}
