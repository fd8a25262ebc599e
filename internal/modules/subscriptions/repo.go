package subscriptions

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("subscription not found")

// SyncFields are the authoritative values pulled from the provider during a
// sync; they overwrite local state unconditionally.
type SyncFields struct {
	Status          Status
	LastPaymentDate *time.Time
	NextBillingDate *time.Time
}

type Repository interface {
	FindByAgreementID(ctx context.Context, gatewayID, agreementID string) (Subscription, error)
	Create(ctx context.Context, s *Subscription) error
	// SetStatus transitions the status unless the row is already cancelled
	// or already holds the target status. Returns whether it changed.
	SetStatus(ctx context.Context, id string, status Status) (bool, error)
	// ApplySync overwrites status and billing dates regardless of the
	// current state.
	ApplySync(ctx context.Context, id string, f SyncFields) error
}

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) FindByAgreementID(ctx context.Context, gatewayID, agreementID string) (Subscription, error) {
	var s Subscription
	err := r.db.WithContext(ctx).
		First(&s, "gateway_id = ? AND agreement_id = ?", gatewayID, agreementID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Subscription{}, ErrNotFound
	}
	return s, err
}

func (r *Repo) Create(ctx context.Context, s *Subscription) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *Repo) SetStatus(ctx context.Context, id string, status Status) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Subscription{}).
		Where("id = ? AND status <> ? AND status <> ?", id, status, StatusCancelled).
		Updates(map[string]any{"status": status, "updated_at": time.Now()})
	return res.RowsAffected > 0, res.Error
}

func (r *Repo) ApplySync(ctx context.Context, id string, f SyncFields) error {
	updates := map[string]any{
		"status":     f.Status,
		"updated_at": time.Now(),
	}
	if f.LastPaymentDate != nil {
		updates["last_payment_date"] = f.LastPaymentDate
	}
	if f.NextBillingDate != nil {
		updates["next_billing_date"] = f.NextBillingDate
	}
	return r.db.WithContext(ctx).Model(&Subscription{}).
		Where("id = ?", id).
		Updates(updates).Error
}
