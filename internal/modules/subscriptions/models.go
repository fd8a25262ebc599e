package subscriptions

import "time"

// Status is the internal lifecycle state of a recurring billing agreement.
type Status string

const (
	StatusPending   Status = "pending" // agreement created via return flow, not yet confirmed
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCancelled Status = "cancelled" // terminal
	// StatusUnknown marks an unrecognized provider status string. It is a
	// sentinel, never a transition target chosen deliberately.
	StatusUnknown Status = "unknown"
)

// Subscription is one recurring billing agreement. Created only by the
// return flow; webhooks and sync pulls mutate it afterwards.
type Subscription struct {
	ID                string     `gorm:"type:char(36);primaryKey"`
	OrderID           uint       `gorm:"not null;index:ix_store_subscriptions_order"`
	CustomerID        string     `gorm:"type:char(36);not null;index:ix_store_subscriptions_customer"`
	GatewayID         string     `gorm:"type:varchar(64);not null;uniqueIndex:ux_store_subscriptions_agreement,priority:1"`
	AgreementID       string     `gorm:"type:varchar(128);not null;uniqueIndex:ux_store_subscriptions_agreement,priority:2"`
	Status            Status     `gorm:"type:varchar(32);not null;default:'pending'"`
	AmountCents       int        `gorm:"not null"`
	Currency          string     `gorm:"type:char(3);not null"`
	Frequency         string     `gorm:"type:varchar(16);not null"` // day|week|month|year
	FrequencyInterval int        `gorm:"not null;default:1"`
	Email             string     `gorm:"type:varchar(255);not null"`
	PayerID           string     `gorm:"type:varchar(64);not null"`
	Verified          bool       `gorm:"not null;default:false"`
	LastPaymentDate   *time.Time `gorm:"type:datetime(3)"`
	NextBillingDate   *time.Time `gorm:"type:datetime(3)"`
	CreatedAt         time.Time  `gorm:"type:datetime(3);not null"`
	UpdatedAt         time.Time  `gorm:"type:datetime(3);not null"`
}

func (Subscription) TableName() string { return "store_subscriptions" }
