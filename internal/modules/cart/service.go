package cart

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skizzles/Nameless-Store/internal/modules/products"
)

// State is the serializable cart content carried in the customer's signed
// cookie: product ids with quantity and field selections, the coupon, the
// checkout mode and the pending order id.
type State struct {
	Items            []StateItem `json:"items,omitempty"`
	CouponID         uint        `json:"coupon_id,omitempty"`
	SubscriptionMode bool        `json:"subscription_mode,omitempty"`
	OrderID          uint        `json:"order_id,omitempty"`
}

type StateItem struct {
	ProductID uint              `json:"id"`
	Quantity  int               `json:"quantity"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// ProductHook is invoked once per hydrated cart product with display
// metadata. Extensions may decorate the product; no return value is
// required.
type ProductHook func(p products.Product, name, description string)

type CouponRepository interface {
	Get(ctx context.Context, id uint) (Coupon, error)
	FindByCode(ctx context.Context, code string) (Coupon, error)
}

type GormCouponRepo struct{ db *gorm.DB }

func NewGormCouponRepo(db *gorm.DB) *GormCouponRepo { return &GormCouponRepo{db: db} }

func (r *GormCouponRepo) Get(ctx context.Context, id uint) (Coupon, error) {
	var c Coupon
	err := r.db.WithContext(ctx).First(&c, "id = ? AND active = 1", id).Error
	return c, err
}

func (r *GormCouponRepo) FindByCode(ctx context.Context, code string) (Coupon, error) {
	var c Coupon
	err := r.db.WithContext(ctx).First(&c, "code = ? AND active = 1", code).Error
	return c, err
}

// Service hydrates a ShoppingCart from its persisted state.
type Service struct {
	products products.Repository
	coupons  CouponRepository
	hook     ProductHook
	discount DiscountFunc
}

func NewService(p products.Repository, c CouponRepository) *Service {
	return &Service{products: p, coupons: c}
}

func (s *Service) SetProductHook(h ProductHook)   { s.hook = h }
func (s *Service) SetDiscountFunc(f DiscountFunc) { s.discount = f }

// Hydrate builds a priced ShoppingCart from cookie state. Products that are
// gone, disabled or not purchasable in the current mode are dropped rather
// than failing the whole cart.
func (s *Service) Hydrate(ctx context.Context, st State) (*ShoppingCart, error) {
	sc := New()
	sc.SetSubscriptionMode(st.SubscriptionMode)
	sc.SetOrderID(st.OrderID)
	sc.SetDiscountFunc(s.discount)

	if len(st.Items) == 0 {
		return sc, nil
	}

	if st.CouponID != 0 {
		c, err := s.coupons.Get(ctx, st.CouponID)
		if err == nil {
			sc.SetCoupon(&c)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	ids := make([]uint, 0, len(st.Items))
	byID := make(map[uint]StateItem, len(st.Items))
	for _, it := range st.Items {
		if it.ProductID == 0 || it.Quantity <= 0 {
			continue
		}
		if _, ok := byID[it.ProductID]; !ok {
			ids = append(ids, it.ProductID)
		}
		byID[it.ProductID] = it
	}

	loaded, err := s.products.ListPurchasable(ctx, ids, st.SubscriptionMode)
	if err != nil {
		return nil, err
	}

	for _, p := range loaded {
		if s.hook != nil {
			s.hook(p, p.Name, p.Description)
		}
		st := byID[p.ID]
		sc.Add(Item{Product: p, Quantity: st.Quantity, Fields: st.Fields})
	}

	return sc, nil
}
