package payments

import (
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// KeyColumn selects which provider identifier a ledger lookup uses.
type KeyColumn string

const (
	ByPaymentID     KeyColumn = "payment_id"     // provider's parent payment id
	ByTransactionID KeyColumn = "transaction_id" // provider's sale/transaction id
)

// Key identifies one external charge within a gateway.
type Key struct {
	GatewayID string
	Column    KeyColumn
	Value     string
}

type Repository interface {
	Find(ctx context.Context, key Key) (Payment, error)
	// Create inserts a new payment row. Returns ErrDuplicate when a row
	// for either provider identifier already exists.
	Create(ctx context.Context, p *Payment) error
	UpdateFee(ctx context.Context, id string, feeCents int) error
	// SetStatus transitions the payment status, returning true when the
	// row actually changed (false means the status was already set).
	SetStatus(ctx context.Context, id, status string) (bool, error)
}

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Find(ctx context.Context, key Key) (Payment, error) {
	var p Payment
	err := r.db.WithContext(ctx).
		First(&p, "gateway_id = ? AND "+string(key.Column)+" = ?", key.GatewayID, key.Value).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Payment{}, ErrNotFound
	}
	return p, err
}

func (r *Repo) Create(ctx context.Context, p *Payment) error {
	err := r.db.WithContext(ctx).Create(p).Error
	if isDup(err) {
		return ErrDuplicate
	}
	return err
}

func (r *Repo) UpdateFee(ctx context.Context, id string, feeCents int) error {
	return r.db.WithContext(ctx).Model(&Payment{}).
		Where("id = ? AND fee_cents IS NULL", id).
		Updates(map[string]any{"fee_cents": feeCents, "updated_at": time.Now()}).Error
}

func (r *Repo) SetStatus(ctx context.Context, id, status string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Payment{}).
		Where("id = ? AND status <> ? AND status NOT IN ?", id, status, terminalStatuses).
		Updates(map[string]any{"status": status, "updated_at": time.Now()})
	return res.RowsAffected > 0, res.Error
}

func isDup(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
