package subscriptions_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skizzles/Nameless-Store/internal/modules/subscriptions"
)

type memRepo struct {
	rows map[string]*subscriptions.Subscription
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[string]*subscriptions.Subscription)}
}

func (m *memRepo) FindByAgreementID(_ context.Context, gatewayID, agreementID string) (subscriptions.Subscription, error) {
	for _, s := range m.rows {
		if s.GatewayID == gatewayID && s.AgreementID == agreementID {
			return *s, nil
		}
	}
	return subscriptions.Subscription{}, subscriptions.ErrNotFound
}

func (m *memRepo) Create(_ context.Context, s *subscriptions.Subscription) error {
	cp := *s
	m.rows[s.ID] = &cp
	return nil
}

func (m *memRepo) SetStatus(_ context.Context, id string, status subscriptions.Status) (bool, error) {
	s, ok := m.rows[id]
	if !ok || s.Status == status || s.Status == subscriptions.StatusCancelled {
		return false, nil
	}
	s.Status = status
	return true, nil
}

func (m *memRepo) ApplySync(_ context.Context, id string, f subscriptions.SyncFields) error {
	s, ok := m.rows[id]
	if !ok {
		return subscriptions.ErrNotFound
	}
	s.Status = f.Status
	if f.LastPaymentDate != nil {
		s.LastPaymentDate = f.LastPaymentDate
	}
	if f.NextBillingDate != nil {
		s.NextBillingDate = f.NextBillingDate
	}
	return nil
}

func register(t *testing.T, svc *subscriptions.Service) subscriptions.Subscription {
	t.Helper()
	sub, err := svc.Register(context.Background(), subscriptions.Subscription{
		OrderID:     42,
		CustomerID:  "c1",
		GatewayID:   "paypal_business",
		AgreementID: "I-AGR1",
		AmountCents: 500,
		Currency:    "EUR",
		Frequency:   "month",
	})
	require.NoError(t, err)
	return sub
}

func TestLifecycle_PendingToActiveToPausedToActive(t *testing.T) {
	repo := newMemRepo()
	svc := subscriptions.NewService(repo, slog.Default())
	ctx := context.Background()

	sub := register(t, svc)
	assert.Equal(t, subscriptions.StatusPending, repo.rows[sub.ID].Status)

	require.NoError(t, svc.Activate(ctx, sub))
	assert.Equal(t, subscriptions.StatusActive, repo.rows[sub.ID].Status)

	require.NoError(t, svc.Suspend(ctx, sub))
	assert.Equal(t, subscriptions.StatusPaused, repo.rows[sub.ID].Status)

	require.NoError(t, svc.Reactivate(ctx, sub))
	assert.Equal(t, subscriptions.StatusActive, repo.rows[sub.ID].Status)
}

func TestCancel_TerminalAndFiresListenerOnce(t *testing.T) {
	repo := newMemRepo()
	svc := subscriptions.NewService(repo, slog.Default())
	ctx := context.Background()

	var cancelled int
	svc.OnCancelled(func(_ context.Context, _ subscriptions.Subscription) error {
		cancelled++
		return nil
	})

	sub := register(t, svc)
	require.NoError(t, svc.Activate(ctx, sub))
	require.NoError(t, svc.Cancel(ctx, sub))
	require.NoError(t, svc.Cancel(ctx, sub))
	assert.Equal(t, 1, cancelled)

	// nothing mutates a cancelled subscription via events
	require.NoError(t, svc.Reactivate(ctx, sub))
	require.NoError(t, svc.Suspend(ctx, sub))
	assert.Equal(t, subscriptions.StatusCancelled, repo.rows[sub.ID].Status)
}

func TestApplySync_OverwritesFields(t *testing.T) {
	repo := newMemRepo()
	svc := subscriptions.NewService(repo, slog.Default())
	ctx := context.Background()

	sub := register(t, svc)

	last := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	next := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.ApplySync(ctx, sub, subscriptions.SyncFields{
		Status:          subscriptions.StatusActive,
		LastPaymentDate: &last,
		NextBillingDate: &next,
	}))

	got := repo.rows[sub.ID]
	assert.Equal(t, subscriptions.StatusActive, got.Status)
	assert.Equal(t, &last, got.LastPaymentDate)
	assert.Equal(t, &next, got.NextBillingDate)

	// sync with no dates keeps the stored ones
	require.NoError(t, svc.ApplySync(ctx, sub, subscriptions.SyncFields{
		Status: subscriptions.StatusPaused,
	}))
	assert.Equal(t, subscriptions.StatusPaused, repo.rows[sub.ID].Status)
	assert.Equal(t, &last, repo.rows[sub.ID].LastPaymentDate)
}
