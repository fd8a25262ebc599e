package products

import (
	"encoding/json"
	"time"
)

// Payment types a product can be bought with.
const (
	PaymentTypeSingle       = 1 // one-off payment only
	PaymentTypeSubscription = 2 // recurring only
	PaymentTypeBoth         = 3
)

type Product struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	Name        string    `gorm:"type:varchar(128);not null"`
	Description string    `gorm:"type:text"`
	PriceCents  int       `gorm:"not null"`
	Currency    string    `gorm:"type:char(3);not null"`
	PaymentType int       `gorm:"not null;default:1"`
	Durability  string    `gorm:"type:varchar(255)"` // JSON: {"period":"month","interval":1}
	Disabled    bool      `gorm:"not null;default:false"`
	Deleted     bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt   time.Time `gorm:"type:datetime(3);not null"`
}

func (Product) TableName() string { return "store_products" }

// BillingCycle is the recurring billing frequency parsed from Durability.
type BillingCycle struct {
	Period   string `json:"period"`
	Interval int    `json:"interval"`
}

// Billing returns the product's billing cycle, defaulting to monthly when
// the durability field is empty or malformed.
func (p Product) Billing() BillingCycle {
	cycle := BillingCycle{Period: "month", Interval: 1}
	if p.Durability == "" {
		return cycle
	}
	var parsed BillingCycle
	if err := json.Unmarshal([]byte(p.Durability), &parsed); err != nil {
		return cycle
	}
	if parsed.Period != "" {
		cycle.Period = parsed.Period
	}
	if parsed.Interval > 0 {
		cycle.Interval = parsed.Interval
	}
	return cycle
}

// ProductMeta holds per-product gateway metadata, such as the cached
// provider billing-plan id.
type ProductMeta struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	ProductID uint   `gorm:"not null;uniqueIndex:ux_products_meta_product_name,priority:1"`
	Name      string `gorm:"type:varchar(64);not null;uniqueIndex:ux_products_meta_product_name,priority:2"`
	Value     string `gorm:"type:varchar(255);not null"`
}

func (ProductMeta) TableName() string { return "store_products_meta" }
