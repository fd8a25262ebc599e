package cart_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skizzles/Nameless-Store/internal/modules/cart"
	"github.com/Skizzles/Nameless-Store/internal/modules/products"
)

func item(id uint, priceCents, qty int) cart.Item {
	return cart.Item{
		Product:  products.Product{ID: id, Name: "Rank", PriceCents: priceCents, Currency: "EUR"},
		Quantity: qty,
	}
}

func TestTotals_NoCouponNoDiscount(t *testing.T) {
	sc := cart.New()
	sc.Add(item(1, 1000, 2))
	sc.Add(item(2, 250, 1))

	assert.Equal(t, 2250, sc.TotalCents())
	assert.Equal(t, 2250, sc.TotalRealPriceCents(nil))
	assert.Equal(t, 0, sc.TotalDiscountCents(nil))
}

func TestTotals_CouponApplied(t *testing.T) {
	sc := cart.New()
	sc.Add(item(1, 1000, 2))
	sc.SetCoupon(&cart.Coupon{ID: 7, Code: "SAVE5", DiscountValueCents: 500, Active: true})

	assert.Equal(t, 2000, sc.TotalCents())
	assert.Equal(t, 1500, sc.TotalRealPriceCents(nil))
	assert.Equal(t, 500, sc.TotalDiscountCents(nil))
}

func TestTotals_RealPlusDiscountEqualsTotal(t *testing.T) {
	perItem := func(it cart.Item, _ *cart.Recipient) int {
		// 10% off per line
		return it.SubtotalCents() / 10
	}

	sc := cart.New()
	sc.SetDiscountFunc(perItem)
	sc.Add(item(1, 999, 3))
	sc.Add(item(2, 1250, 1))
	sc.SetCoupon(&cart.Coupon{DiscountValueCents: 300, Active: true})

	r := &cart.Recipient{CustomerID: "c1"}
	assert.Equal(t, sc.TotalCents(), sc.TotalRealPriceCents(r)+sc.TotalDiscountCents(r))
}

func TestTotals_FlooredAtZero(t *testing.T) {
	sc := cart.New()
	sc.Add(item(1, 100, 1))
	sc.SetCoupon(&cart.Coupon{DiscountValueCents: 5000, Active: true})

	assert.Equal(t, 0, sc.TotalRealPriceCents(nil))
	// nominal discount still reported in full
	assert.Equal(t, 5000, sc.TotalDiscountCents(nil))
}

func TestSubscriptionMode_SingleItemOnly(t *testing.T) {
	sc := cart.New()
	sc.SetSubscriptionMode(true)
	sc.Add(item(1, 1000, 1))
	sc.Add(item(2, 500, 1))

	require.Len(t, sc.Items(), 1)
	assert.Equal(t, uint(2), sc.Items()[0].Product.ID)
}

func TestSetSubscriptionMode_SetsRequestedValueAndClearsItems(t *testing.T) {
	sc := cart.New()
	sc.Add(item(1, 1000, 1))

	sc.SetSubscriptionMode(true)
	assert.True(t, sc.IsSubscriptionMode())
	assert.Empty(t, sc.Items())

	sc.Add(item(2, 500, 1))
	sc.SetSubscriptionMode(false)
	assert.False(t, sc.IsSubscriptionMode())
	assert.Empty(t, sc.Items())

	// no-op when mode already matches
	sc.Add(item(3, 250, 1))
	sc.SetSubscriptionMode(false)
	assert.Len(t, sc.Items(), 1)
}

// --- Hydration ---

type stubProducts struct {
	byID map[uint]products.Product
}

func (s *stubProducts) Get(_ context.Context, id uint) (products.Product, error) {
	p, ok := s.byID[id]
	if !ok {
		return products.Product{}, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (s *stubProducts) ListPurchasable(_ context.Context, ids []uint, subscriptionMode bool) ([]products.Product, error) {
	var out []products.Product
	for _, id := range ids {
		p, ok := s.byID[id]
		if !ok || p.Disabled || p.Deleted {
			continue
		}
		if subscriptionMode && p.PaymentType == products.PaymentTypeSingle {
			continue
		}
		if !subscriptionMode && p.PaymentType == products.PaymentTypeSubscription {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *stubProducts) GetMeta(_ context.Context, _ uint, _ string) (string, error) { return "", nil }
func (s *stubProducts) SetMeta(_ context.Context, _ uint, _, _ string) error        { return nil }

type stubCoupons struct {
	byID map[uint]cart.Coupon
}

func (s *stubCoupons) Get(_ context.Context, id uint) (cart.Coupon, error) {
	c, ok := s.byID[id]
	if !ok {
		return cart.Coupon{}, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (s *stubCoupons) FindByCode(_ context.Context, code string) (cart.Coupon, error) {
	for _, c := range s.byID {
		if c.Code == code {
			return c, nil
		}
	}
	return cart.Coupon{}, gorm.ErrRecordNotFound
}

func TestHydrate_SkipsUnpurchasableAndFiresHook(t *testing.T) {
	repo := &stubProducts{byID: map[uint]products.Product{
		1: {ID: 1, Name: "VIP", PriceCents: 1000, PaymentType: products.PaymentTypeBoth},
		2: {ID: 2, Name: "Gone", PriceCents: 500, PaymentType: products.PaymentTypeSingle, Disabled: true},
	}}
	svc := cart.NewService(repo, &stubCoupons{})

	var hooked []string
	svc.SetProductHook(func(_ products.Product, name, _ string) {
		hooked = append(hooked, name)
	})

	sc, err := svc.Hydrate(context.Background(), cart.State{
		Items: []cart.StateItem{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
	})
	require.NoError(t, err)

	require.Len(t, sc.Items(), 1)
	assert.Equal(t, 2000, sc.TotalCents())
	assert.Equal(t, []string{"VIP"}, hooked)
}

func TestHydrate_MissingCouponIgnored(t *testing.T) {
	repo := &stubProducts{byID: map[uint]products.Product{
		1: {ID: 1, Name: "VIP", PriceCents: 1000, PaymentType: products.PaymentTypeBoth},
	}}
	svc := cart.NewService(repo, &stubCoupons{})

	sc, err := svc.Hydrate(context.Background(), cart.State{
		Items:    []cart.StateItem{{ProductID: 1, Quantity: 1}},
		CouponID: 99,
	})
	require.NoError(t, err)
	assert.Nil(t, sc.Coupon())
	assert.Equal(t, 1000, sc.TotalRealPriceCents(nil))
}
