package paypal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skizzles/Nameless-Store/internal/modules/cart"
	"github.com/Skizzles/Nameless-Store/internal/modules/orders"
	"github.com/Skizzles/Nameless-Store/internal/modules/payments"
	"github.com/Skizzles/Nameless-Store/internal/modules/products"
	"github.com/Skizzles/Nameless-Store/internal/modules/subscriptions"
)

// fakeAPI is a scriptable provider backend. Unset hooks fail loudly so a
// test never silently exercises a call it did not expect.
type fakeAPI struct {
	createPayment  func(Payment) (Payment, error)
	executePayment func(paymentID, payerID string) (Payment, error)
	getPayment     func(paymentID string) (Payment, error)

	createAgreement  func(Agreement) (Agreement, error)
	executeAgreement func(token string) (Agreement, error)
	getAgreement     func(agreementID string) (Agreement, error)
	cancelAgreement  func(agreementID string) error

	createPlan   func(Plan) (Plan, error)
	activatePlan func(planID string) error

	verify    func(VerifySignature) (bool, error)
	verifyArg *VerifySignature
}

func (f *fakeAPI) CreatePayment(_ context.Context, p Payment) (Payment, error) {
	if f.createPayment == nil {
		return Payment{}, errors.New("unexpected CreatePayment")
	}
	return f.createPayment(p)
}

func (f *fakeAPI) ExecutePayment(_ context.Context, paymentID, payerID string) (Payment, error) {
	if f.executePayment == nil {
		return Payment{}, errors.New("unexpected ExecutePayment")
	}
	return f.executePayment(paymentID, payerID)
}

func (f *fakeAPI) GetPayment(_ context.Context, paymentID string) (Payment, error) {
	if f.getPayment == nil {
		return Payment{}, errors.New("unexpected GetPayment")
	}
	return f.getPayment(paymentID)
}

func (f *fakeAPI) CreateAgreement(_ context.Context, a Agreement) (Agreement, error) {
	if f.createAgreement == nil {
		return Agreement{}, errors.New("unexpected CreateAgreement")
	}
	return f.createAgreement(a)
}

func (f *fakeAPI) ExecuteAgreement(_ context.Context, token string) (Agreement, error) {
	if f.executeAgreement == nil {
		return Agreement{}, errors.New("unexpected ExecuteAgreement")
	}
	return f.executeAgreement(token)
}

func (f *fakeAPI) GetAgreement(_ context.Context, agreementID string) (Agreement, error) {
	if f.getAgreement == nil {
		return Agreement{}, errors.New("unexpected GetAgreement")
	}
	return f.getAgreement(agreementID)
}

func (f *fakeAPI) CancelAgreement(_ context.Context, agreementID, _ string) error {
	if f.cancelAgreement == nil {
		return errors.New("unexpected CancelAgreement")
	}
	return f.cancelAgreement(agreementID)
}

func (f *fakeAPI) CreatePlan(_ context.Context, p Plan) (Plan, error) {
	if f.createPlan == nil {
		return Plan{}, errors.New("unexpected CreatePlan")
	}
	return f.createPlan(p)
}

func (f *fakeAPI) ActivatePlan(_ context.Context, planID string) error {
	if f.activatePlan == nil {
		return errors.New("unexpected ActivatePlan")
	}
	return f.activatePlan(planID)
}

func (f *fakeAPI) CreateWebhook(_ context.Context, _ string, _ []string) (string, error) {
	return "WH-FAKE", nil
}

func (f *fakeAPI) VerifyWebhookSignature(_ context.Context, v VerifySignature) (bool, error) {
	f.verifyArg = &v
	if f.verify == nil {
		return true, nil
	}
	return f.verify(v)
}

type memSettings struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemSettings(values map[string]string) *memSettings {
	if values == nil {
		values = map[string]string{}
	}
	return &memSettings{values: values}
}

func (s *memSettings) Get(_ context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[name], nil
}

func (s *memSettings) SetMultiple(_ context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.values[k] = v
	}
	return nil
}

// memPayments enforces the same provider-identifier uniqueness the real
// table does.
type memPayments struct {
	mu   sync.Mutex
	rows []payments.Payment
}

func (m *memPayments) find(key payments.Key) (int, bool) {
	for i, r := range m.rows {
		if r.GatewayID != key.GatewayID {
			continue
		}
		switch key.Column {
		case payments.ByPaymentID:
			if r.PaymentID == key.Value {
				return i, true
			}
		case payments.ByTransactionID:
			if r.TransactionID == key.Value {
				return i, true
			}
		}
	}
	return 0, false
}

func (m *memPayments) Find(_ context.Context, key payments.Key) (payments.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.find(key); ok {
		return m.rows[i], nil
	}
	return payments.Payment{}, payments.ErrNotFound
}

func (m *memPayments) Create(_ context.Context, p *payments.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.GatewayID == p.GatewayID && (r.PaymentID == p.PaymentID || r.TransactionID == p.TransactionID) {
			return payments.ErrDuplicate
		}
	}
	m.rows = append(m.rows, *p)
	return nil
}

func (m *memPayments) UpdateFee(_ context.Context, id string, feeCents int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id && m.rows[i].FeeCents == nil {
			m.rows[i].FeeCents = &feeCents
		}
	}
	return nil
}

func (m *memPayments) SetStatus(_ context.Context, id, status string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id {
			if m.rows[i].Status == status || payments.IsTerminalStatus(m.rows[i].Status) {
				return false, nil
			}
			m.rows[i].Status = status
			return true, nil
		}
	}
	return false, payments.ErrNotFound
}

func (m *memPayments) all() []payments.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]payments.Payment(nil), m.rows...)
}

type memSubs struct {
	mu   sync.Mutex
	rows map[string]*subscriptions.Subscription
}

func newMemSubs() *memSubs {
	return &memSubs{rows: map[string]*subscriptions.Subscription{}}
}

func (m *memSubs) FindByAgreementID(_ context.Context, gatewayID, agreementID string) (subscriptions.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.GatewayID == gatewayID && r.AgreementID == agreementID {
			return *r, nil
		}
	}
	return subscriptions.Subscription{}, subscriptions.ErrNotFound
}

func (m *memSubs) Create(_ context.Context, s *subscriptions.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.rows[s.ID] = &cp
	return nil
}

func (m *memSubs) SetStatus(_ context.Context, id string, status subscriptions.Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return false, subscriptions.ErrNotFound
	}
	if r.Status == status || r.Status == subscriptions.StatusCancelled {
		return false, nil
	}
	r.Status = status
	return true, nil
}

func (m *memSubs) ApplySync(_ context.Context, id string, f subscriptions.SyncFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return subscriptions.ErrNotFound
	}
	r.Status = f.Status
	if f.LastPaymentDate != nil {
		r.LastPaymentDate = f.LastPaymentDate
	}
	if f.NextBillingDate != nil {
		r.NextBillingDate = f.NextBillingDate
	}
	return nil
}

func (m *memSubs) get(id string) (subscriptions.Subscription, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return subscriptions.Subscription{}, false
	}
	return *r, true
}

type memOrders struct {
	mu       sync.Mutex
	rows     map[uint]*orders.Order
	items    map[uint][]orders.OrderItem
	statuses map[uint][]string
}

func newMemOrders(rows ...orders.Order) *memOrders {
	m := &memOrders{
		rows:     map[uint]*orders.Order{},
		items:    map[uint][]orders.OrderItem{},
		statuses: map[uint][]string{},
	}
	for i := range rows {
		o := rows[i]
		m.rows[o.ID] = &o
	}
	return m
}

func (m *memOrders) Get(_ context.Context, id uint) (orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.rows[id]; ok {
		return *o, nil
	}
	return orders.Order{}, orders.ErrNotFound
}

func (m *memOrders) GetItems(_ context.Context, orderID uint) ([]orders.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[orderID], nil
}

func (m *memOrders) CreateFromCart(_ context.Context, _ *cart.ShoppingCart, _ *cart.Recipient, _ string) (orders.Order, error) {
	return orders.Order{}, errors.New("unexpected CreateFromCart")
}

func (m *memOrders) SetStatus(_ context.Context, id uint, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.rows[id]; ok {
		o.Status = status
	}
	m.statuses[id] = append(m.statuses[id], status)
	return nil
}

type memProducts struct {
	mu   sync.Mutex
	rows map[uint]products.Product
	meta map[string]string
}

func newMemProducts(rows ...products.Product) *memProducts {
	m := &memProducts{rows: map[uint]products.Product{}, meta: map[string]string{}}
	for _, p := range rows {
		m.rows[p.ID] = p
	}
	return m
}

func (m *memProducts) Get(_ context.Context, id uint) (products.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.rows[id]; ok {
		return p, nil
	}
	return products.Product{}, gorm.ErrRecordNotFound
}

func (m *memProducts) ListPurchasable(_ context.Context, ids []uint, subscriptionMode bool) ([]products.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []products.Product
	for _, id := range ids {
		if p, ok := m.rows[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProducts) GetMeta(_ context.Context, productID uint, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.meta[metaKeyFor(productID, name)], nil
}

func (m *memProducts) SetMeta(_ context.Context, productID uint, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta[metaKeyFor(productID, name)] = value
	return nil
}

func metaKeyFor(productID uint, name string) string {
	return fmt.Sprintf("%d:%s", productID, name)
}

type memWebhookLogs struct {
	mu      sync.Mutex
	entries []string
}

func (m *memWebhookLogs) Log(_ context.Context, _, eventType string, _ []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, eventType)
	return nil
}

// fixture wires a gateway instance to in-memory stores and a scriptable
// provider, mirroring the production dependency graph.
type fixture struct {
	gw       *Gateway
	api      *fakeAPI
	settings *memSettings
	pays     *memPayments
	subs     *memSubs
	orders   *memOrders
	prods    *memProducts
	logs     *memWebhookLogs
	events   *payments.Dispatcher
}

const testWebhookKey = "test-webhook-key"

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		api: &fakeAPI{},
		settings: newMemSettings(map[string]string{
			keyClientID:     "client",
			keyClientSecret: "secret",
			keyWebhookKey:   testWebhookKey,
			keyWebhookID:    "WH-1",
		}),
		pays:   &memPayments{},
		subs:   newMemSubs(),
		orders: newMemOrders(),
		prods:  newMemProducts(),
		logs:   &memWebhookLogs{},
		events: payments.NewDispatcher(slog.Default()),
	}

	ledger := payments.NewLedger(f.pays, f.orders, f.events, slog.Default())
	subSvc := subscriptions.NewService(f.subs, slog.Default())

	factory := Factory(Deps{
		Settings:    f.settings,
		Ledger:      ledger,
		Subs:        subSvc,
		Orders:      f.orders,
		Products:    f.prods,
		WebhookLogs: f.logs,
		Logger:      slog.Default(),
		BaseURL:     "https://store.example",
		NewAPI:      func(_, _ string) API { return f.api },
	})
	f.gw = factory().(*Gateway)
	return f
}

func (f *fixture) seedSubscription(t *testing.T, agreementID string, status subscriptions.Status, orderID uint) subscriptions.Subscription {
	t.Helper()
	sub := subscriptions.Subscription{
		ID:          uuid.NewString(),
		OrderID:     orderID,
		CustomerID:  uuid.NewString(),
		GatewayID:   Name,
		AgreementID: agreementID,
		Status:      status,
		AmountCents: 999,
		Currency:    "USD",
		Frequency:   "month",
	}
	if err := f.subs.Create(context.Background(), &sub); err != nil {
		t.Fatalf("seed subscription: %v", err)
	}
	return sub
}
