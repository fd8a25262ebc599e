package orders

import "time"

const (
	StatusCreated   = "created"
	StatusPaid      = "paid"
	StatusRefunded  = "refunded"
	StatusReversed  = "reversed"
	StatusDenied    = "denied"
	StatusCancelled = "cancelled"
)

// Order is one checkout attempt. It is immutable once a terminal payment is
// recorded; Payment and Subscription rows reference it by id.
type Order struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	CustomerID    string    `gorm:"type:char(36);not null;index:ix_store_orders_customer"`
	Email         string    `gorm:"type:varchar(255);not null"`
	Description   string    `gorm:"type:varchar(255);not null"`
	SubtotalCents int       `gorm:"not null"`
	DiscountCents int       `gorm:"not null;default:0"`
	TotalCents    int       `gorm:"not null"`
	Currency      string    `gorm:"type:char(3);not null"`
	Subscription  bool      `gorm:"not null;default:false"`
	Status        string    `gorm:"type:varchar(32);not null;default:'created'"`
	CreatedAt     time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt     time.Time `gorm:"type:datetime(3);not null"`
}

func (Order) TableName() string { return "store_orders" }

// OrderItem snapshots one cart line at order time.
type OrderItem struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	OrderID    uint   `gorm:"not null;index:ix_store_order_items_order"`
	ProductID  uint   `gorm:"not null"`
	Name       string `gorm:"type:varchar(128);not null"`
	PriceCents int    `gorm:"not null"`
	Quantity   int    `gorm:"not null"`
	FieldsJSON string `gorm:"type:text"`
}

func (OrderItem) TableName() string { return "store_order_items" }
