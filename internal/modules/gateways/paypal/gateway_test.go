package paypal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skizzles/Nameless-Store/internal/modules/orders"
	"github.com/Skizzles/Nameless-Store/internal/modules/products"
	"github.com/Skizzles/Nameless-Store/internal/modules/subscriptions"
)

func TestProcessOrderWithoutCredentials(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.settings.SetMultiple(context.Background(), map[string]string{
		keyClientID:     "",
		keyClientSecret: "",
	}))

	redirect := f.gw.ProcessOrder(context.Background(), orders.Order{ID: 1, TotalCents: 500, Currency: "USD"})

	assert.Empty(t, redirect)
	require.True(t, f.gw.HasErrors())
	assert.Contains(t, f.gw.Errors(), errNotConfigured)
}

func TestProcessOrderSinglePayment(t *testing.T) {
	f := newFixture(t)

	var created Payment
	f.api.createPayment = func(p Payment) (Payment, error) {
		created = p
		p.ID = "PAY-1"
		p.Links = []Link{
			{Rel: "self", Href: "https://api.example/self"},
			{Rel: "approval_url", Href: "https://api.example/approve"},
		}
		return p, nil
	}

	redirect := f.gw.ProcessOrder(context.Background(), orders.Order{
		ID:          7,
		TotalCents:  1250,
		Currency:    "USD",
		Description: "Rank upgrade",
	})

	require.False(t, f.gw.HasErrors(), "errors: %v", f.gw.Errors())
	assert.Equal(t, "https://api.example/approve", redirect)
	assert.Equal(t, "sale", created.Intent)
	require.Len(t, created.Transactions, 1)
	txn := created.Transactions[0]
	assert.Equal(t, "12.50", txn.Amount.Total)
	assert.Equal(t, "USD", txn.Amount.Currency)
	assert.Equal(t, "7", txn.InvoiceNumber)
	require.NotNil(t, created.RedirectURLs)
	assert.Equal(t, "https://store.example/store/process/?gateway=paypal_business&do=success",
		created.RedirectURLs.ReturnURL)
	assert.Equal(t, "https://store.example/store/process/?gateway=paypal_business&do=cancel",
		created.RedirectURLs.CancelURL)
}

func TestProcessOrderSubscriptionCreatesAndCachesPlan(t *testing.T) {
	f := newFixture(t)
	f.prods.rows[3] = products.Product{
		ID:          3,
		Name:        "VIP",
		PriceCents:  999,
		Currency:    "USD",
		PaymentType: products.PaymentTypeSubscription,
		Durability:  `{"period":"month","interval":1}`,
	}
	f.orders.rows[9] = &orders.Order{ID: 9, Subscription: true, Currency: "USD"}
	f.orders.items[9] = []orders.OrderItem{{OrderID: 9, ProductID: 3, Quantity: 1}}

	planCreates := 0
	f.api.createPlan = func(p Plan) (Plan, error) {
		planCreates++
		assert.Equal(t, "INFINITE", p.Type)
		require.Len(t, p.PaymentDefinitions, 1)
		def := p.PaymentDefinitions[0]
		assert.Equal(t, "month", def.Frequency)
		assert.Equal(t, "1", def.FrequencyInterval)
		assert.Equal(t, "9.99", def.Amount.Value)
		p.ID = "P-123"
		return p, nil
	}
	activated := ""
	f.api.activatePlan = func(planID string) error {
		activated = planID
		return nil
	}
	f.api.createAgreement = func(a Agreement) (Agreement, error) {
		require.NotNil(t, a.Plan)
		assert.Equal(t, "P-123", a.Plan.ID)
		assert.NotEmpty(t, a.StartDate)
		a.ID = "I-1"
		a.Links = []Link{{Rel: "approval_url", Href: "https://api.example/approve-agreement"}}
		return a, nil
	}

	redirect := f.gw.ProcessOrder(context.Background(), *f.orders.rows[9])
	require.False(t, f.gw.HasErrors(), "errors: %v", f.gw.Errors())
	assert.Equal(t, "https://api.example/approve-agreement", redirect)
	assert.Equal(t, "P-123", activated)

	cached, err := f.prods.GetMeta(context.Background(), 3, planMetaKey)
	require.NoError(t, err)
	assert.Equal(t, "P-123", cached)

	// Second checkout reuses the cached plan.
	f.gw.ProcessOrder(context.Background(), *f.orders.rows[9])
	assert.Equal(t, 1, planCreates)
}

func TestEnsureWebhookRegistersOnce(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.settings.SetMultiple(context.Background(), map[string]string{
		keyWebhookKey: "",
		keyWebhookID:  "",
	}))

	f.api.createPayment = func(p Payment) (Payment, error) {
		p.Links = []Link{{Rel: "approval_url", Href: "https://api.example/approve"}}
		return p, nil
	}

	f.gw.ProcessOrder(context.Background(), orders.Order{ID: 1, TotalCents: 100, Currency: "USD"})
	require.False(t, f.gw.HasErrors(), "errors: %v", f.gw.Errors())

	key, err := f.settings.Get(context.Background(), keyWebhookKey)
	require.NoError(t, err)
	assert.NotEmpty(t, key)
	id, err := f.settings.Get(context.Background(), keyWebhookID)
	require.NoError(t, err)
	assert.Equal(t, "WH-FAKE", id)
}

func TestCancelSubscription(t *testing.T) {
	f := newFixture(t)
	sub := f.seedSubscription(t, "I-300", subscriptions.StatusActive, 0)

	cancelled := ""
	f.api.cancelAgreement = func(agreementID string) error {
		cancelled = agreementID
		return nil
	}

	assert.True(t, f.gw.CancelSubscription(context.Background(), sub))
	assert.Equal(t, "I-300", cancelled)
}

func TestSyncSubscriptionOverwritesState(t *testing.T) {
	f := newFixture(t)
	sub := f.seedSubscription(t, "I-400", subscriptions.StatusActive, 0)

	f.api.getAgreement = func(agreementID string) (Agreement, error) {
		return Agreement{
			ID:    agreementID,
			State: "Suspended",
			AgreementDetails: &AgreementDetails{
				LastPaymentDate: "2026-08-01T00:00:00Z",
				NextBillingDate: "2026-09-01T00:00:00Z",
			},
		}, nil
	}

	require.True(t, f.gw.SyncSubscription(context.Background(), sub))

	got, ok := f.subs.get(sub.ID)
	require.True(t, ok)
	assert.Equal(t, subscriptions.StatusPaused, got.Status)
	require.NotNil(t, got.LastPaymentDate)
	require.NotNil(t, got.NextBillingDate)
}

func TestMapAgreementState(t *testing.T) {
	assert.Equal(t, subscriptions.StatusActive, mapAgreementState("Active"))
	assert.Equal(t, subscriptions.StatusCancelled, mapAgreementState("Cancelled"))
	assert.Equal(t, subscriptions.StatusPaused, mapAgreementState("Suspended"))
	assert.Equal(t, subscriptions.StatusUnknown, mapAgreementState("Expired"))
	assert.Equal(t, subscriptions.StatusUnknown, mapAgreementState(""))
}
