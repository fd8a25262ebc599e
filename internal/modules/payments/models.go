package payments

import "time"

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusRefunded  = "refunded"
	StatusReversed  = "reversed"
	StatusDenied    = "denied"
)

// Refunds, reversals and denials are final. A late redelivered completion
// event must not resurrect the row or re-fire its listeners.
var terminalStatuses = []string{StatusRefunded, StatusReversed, StatusDenied}

func IsTerminalStatus(s string) bool {
	for _, t := range terminalStatuses {
		if s == t {
			return true
		}
	}
	return false
}

// Payment is one external charge. The (gateway_id, payment_id) and
// (gateway_id, transaction_id) pairs are unique so that the return flow and
// the webhook pipeline can never record the same charge twice, whichever
// observes it first.
type Payment struct {
	ID             string    `gorm:"type:char(36);primaryKey"`
	OrderID        uint      `gorm:"not null;index:ix_store_payments_order"`
	GatewayID      string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_store_payments_gateway_payment,priority:1;uniqueIndex:ux_store_payments_gateway_txn,priority:1"`
	SubscriptionID *string   `gorm:"type:char(36)"`
	PaymentID      string    `gorm:"type:varchar(128);not null;uniqueIndex:ux_store_payments_gateway_payment,priority:2"`
	TransactionID  string    `gorm:"type:varchar(128);not null;uniqueIndex:ux_store_payments_gateway_txn,priority:2"`
	AmountCents    int       `gorm:"not null"`
	Currency       string    `gorm:"type:char(3);not null"`
	FeeCents       *int      `gorm:""` // provider does not always report fees
	Status         string    `gorm:"type:varchar(32);not null;default:'pending'"`
	CreatedAt      time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt      time.Time `gorm:"type:datetime(3);not null"`
}

func (Payment) TableName() string { return "store_payments" }
