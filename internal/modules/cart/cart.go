package cart

// ShoppingCart holds the items, the active coupon and the checkout mode for
// one customer session. All monetary math is integer cents.
type ShoppingCart struct {
	items            []Item
	coupon           *Coupon
	subscriptionMode bool
	orderID          uint // pending order, 0 if none
	discount         DiscountFunc
}

func New() *ShoppingCart {
	return &ShoppingCart{}
}

// SetDiscountFunc installs the per-item discount resolver used by the
// pricing methods. nil means no per-item discounts.
func (sc *ShoppingCart) SetDiscountFunc(f DiscountFunc) { sc.discount = f }

// Add puts an item into the cart. In subscription mode the cart carries
// exactly one item, so any previous items are dropped.
func (sc *ShoppingCart) Add(it Item) {
	if sc.subscriptionMode {
		sc.items = sc.items[:0]
	}
	for i := range sc.items {
		if sc.items[i].Product.ID == it.Product.ID {
			sc.items[i] = it
			return
		}
	}
	sc.items = append(sc.items, it)
}

func (sc *ShoppingCart) Remove(productID uint) {
	for i := range sc.items {
		if sc.items[i].Product.ID == productID {
			sc.items = append(sc.items[:i], sc.items[i+1:]...)
			return
		}
	}
}

func (sc *ShoppingCart) Clear() {
	sc.items = nil
	sc.coupon = nil
	sc.orderID = 0
}

func (sc *ShoppingCart) Items() []Item { return sc.items }

func (sc *ShoppingCart) SetCoupon(c *Coupon) { sc.coupon = c }
func (sc *ShoppingCart) Coupon() *Coupon     { return sc.coupon }

func (sc *ShoppingCart) SetOrderID(id uint) { sc.orderID = id }
func (sc *ShoppingCart) OrderID() uint      { return sc.orderID }

// SetSubscriptionMode switches the cart between one-off and recurring
// checkout. Changing mode empties the cart, since the purchasable product
// set differs per mode.
func (sc *ShoppingCart) SetSubscriptionMode(on bool) {
	if sc.subscriptionMode == on {
		return
	}
	sc.subscriptionMode = on
	sc.items = nil
}

func (sc *ShoppingCart) IsSubscriptionMode() bool { return sc.subscriptionMode }

// TotalCents is the sum of undiscounted line subtotals.
func (sc *ShoppingCart) TotalCents() int {
	total := 0
	for _, it := range sc.items {
		total += it.SubtotalCents()
	}
	return total
}

// TotalRealPriceCents is the amount the recipient actually pays: discounted
// line totals minus the coupon, floored at zero.
func (sc *ShoppingCart) TotalRealPriceCents(r *Recipient) int {
	price := 0
	for _, it := range sc.items {
		price += it.TotalCents(r, sc.discount)
	}
	if sc.coupon != nil {
		price -= sc.coupon.DiscountValueCents
	}
	if price < 0 {
		return 0
	}
	return price
}

// TotalDiscountCents is the nominal discount for the recipient including
// the coupon. When discounts exceed the cart total this still reports the
// full nominal value; the floor only applies to the real price.
func (sc *ShoppingCart) TotalDiscountCents(r *Recipient) int {
	discount := 0
	for _, it := range sc.items {
		discount += it.DiscountCents(r, sc.discount)
	}
	if sc.coupon != nil {
		discount += sc.coupon.DiscountValueCents
	}
	return discount
}
