package cart

import "time"

// Coupon is a flat discount applied at most once per cart.
type Coupon struct {
	ID                 uint      `gorm:"primaryKey;autoIncrement"`
	Code               string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	DiscountValueCents int       `gorm:"not null"`
	Active             bool      `gorm:"not null;default:true"`
	CreatedAt          time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt          time.Time `gorm:"type:datetime(3);not null"`
}

func (Coupon) TableName() string { return "store_coupons" }
