package cart

import (
	"github.com/Skizzles/Nameless-Store/internal/modules/products"
)

// Recipient is the customer the cart is priced for. Per-item discounts may
// depend on who receives the purchase, not only on who pays.
type Recipient struct {
	CustomerID string
	Email      string
}

// DiscountFunc computes the per-item discount in cents for a recipient.
// The default resolver returns no discount.
type DiscountFunc func(it Item, r *Recipient) int

// Item is one cart line: a product snapshot, a quantity and the customer's
// custom field selections.
type Item struct {
	Product  products.Product
	Quantity int
	Fields   map[string]string
}

// SubtotalCents is unit price times quantity, before any discount.
func (it Item) SubtotalCents() int {
	return it.Product.PriceCents * it.Quantity
}

// TotalCents is the discounted line total for the recipient. The floor at
// zero is applied on the cart total, not per line, so that the real price
// and discount totals stay complementary.
func (it Item) TotalCents(r *Recipient, discount DiscountFunc) int {
	return it.SubtotalCents() - it.DiscountCents(r, discount)
}

// DiscountCents is the line discount for the recipient.
func (it Item) DiscountCents(r *Recipient, discount DiscountFunc) int {
	if discount == nil {
		return 0
	}
	d := discount(it, r)
	if d < 0 {
		return 0
	}
	return d
}
