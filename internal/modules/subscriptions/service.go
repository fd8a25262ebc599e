package subscriptions

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// CancelListener is notified exactly once when a subscription reaches the
// terminal cancelled state, for downstream expiry side effects.
type CancelListener func(ctx context.Context, s Subscription) error

// Service applies lifecycle transitions to subscriptions. Webhook events
// transition existing rows; only the return flow creates them.
type Service struct {
	repo      Repository
	logger    *slog.Logger
	onCancel  []CancelListener
	onCreated []func(ctx context.Context, s Subscription)
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

func (s *Service) OnCancelled(l CancelListener) { s.onCancel = append(s.onCancel, l) }

func (s *Service) OnActivated(f func(ctx context.Context, sub Subscription)) {
	s.onCreated = append(s.onCreated, f)
}

// Register creates the subscription row in pending state following the
// return-flow agreement confirmation.
func (s *Service) Register(ctx context.Context, sub Subscription) (Subscription, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	sub.Status = StatusPending
	if err := s.repo.Create(ctx, &sub); err != nil {
		return Subscription{}, err
	}
	s.logger.InfoContext(ctx, "subscription registered",
		"subscription_id", sub.ID, "agreement_id", sub.AgreementID, "order_id", sub.OrderID,
	)
	return sub, nil
}

func (s *Service) FindByAgreementID(ctx context.Context, gatewayID, agreementID string) (Subscription, error) {
	return s.repo.FindByAgreementID(ctx, gatewayID, agreementID)
}

// Activate confirms the agreement's first billing (webhook CREATED).
func (s *Service) Activate(ctx context.Context, sub Subscription) error {
	changed, err := s.repo.SetStatus(ctx, sub.ID, StatusActive)
	if err != nil {
		return err
	}
	if changed {
		sub.Status = StatusActive
		for _, f := range s.onCreated {
			f(ctx, sub)
		}
		s.logger.InfoContext(ctx, "subscription activated", "subscription_id", sub.ID)
	}
	return nil
}

// Suspend pauses the subscription (webhook SUSPENDED). Cancelled rows are
// never resurrected.
func (s *Service) Suspend(ctx context.Context, sub Subscription) error {
	_, err := s.repo.SetStatus(ctx, sub.ID, StatusPaused)
	return err
}

// Reactivate resumes a paused subscription (webhook RE-ACTIVATED).
func (s *Service) Reactivate(ctx context.Context, sub Subscription) error {
	_, err := s.repo.SetStatus(ctx, sub.ID, StatusActive)
	return err
}

// Cancel moves the subscription to its terminal state and fires the
// cancellation side effects once.
func (s *Service) Cancel(ctx context.Context, sub Subscription) error {
	changed, err := s.repo.SetStatus(ctx, sub.ID, StatusCancelled)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	sub.Status = StatusCancelled
	for _, l := range s.onCancel {
		if err := l(ctx, sub); err != nil {
			s.logger.ErrorContext(ctx, "subscription cancel listener failed",
				"subscription_id", sub.ID, "err", err)
		}
	}
	s.logger.InfoContext(ctx, "subscription cancelled", "subscription_id", sub.ID)
	return nil
}

// ApplySync overwrites local fields with the provider's authoritative
// state. This is the reconciliation backstop for missed or out-of-order
// webhooks; both paths converge on the same provider source, so no lock is
// held across the pull.
func (s *Service) ApplySync(ctx context.Context, sub Subscription, f SyncFields) error {
	if err := s.repo.ApplySync(ctx, sub.ID, f); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "subscription synced",
		"subscription_id", sub.ID, "status", string(f.Status),
	)
	return nil
}
