package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Skizzles/Nameless-Store/internal/http/middleware"
	"github.com/Skizzles/Nameless-Store/internal/http/storecookie"
	"github.com/Skizzles/Nameless-Store/internal/http/validation"
	"github.com/Skizzles/Nameless-Store/internal/modules/cart"
	"github.com/Skizzles/Nameless-Store/internal/shared/apperr"
)

type CartHandler struct {
	Logger  *slog.Logger
	Cookie  *storecookie.Codec
	CartSvc *cart.Service
	Coupons cart.CouponRepository
}

func NewCartHandler(logger *slog.Logger, ck *storecookie.Codec, svc *cart.Service, coupons cart.CouponRepository) *CartHandler {
	return &CartHandler{Logger: logger, Cookie: ck, CartSvc: svc, Coupons: coupons}
}

type addItemInput struct {
	ProductID uint              `form:"product_id" json:"product_id" binding:"required,gt=0"`
	Quantity  int               `form:"quantity" json:"quantity" binding:"omitempty,gt=0"`
	Fields    map[string]string `form:"-" json:"fields"`
}

// POST /store/cart/add
func (h *CartHandler) Add(c *gin.Context) {
	var in addItemInput
	if err := c.ShouldBind(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid cart item.", validation.FromBindError(err, &in)))
		return
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}

	state := h.Cookie.GetState(c)

	kept := state.Items[:0]
	for _, it := range state.Items {
		if it.ProductID != in.ProductID {
			kept = append(kept, it)
		}
	}
	state.Items = append(kept, cart.StateItem{
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Fields:    in.Fields,
	})
	if state.SubscriptionMode {
		// One item at a time in subscription mode.
		state.Items = state.Items[len(state.Items)-1:]
	}

	h.respondWithCart(c, state)
}

type removeItemInput struct {
	ProductID uint `form:"product_id" json:"product_id" binding:"required,gt=0"`
}

// POST /store/cart/remove
func (h *CartHandler) Remove(c *gin.Context) {
	var in removeItemInput
	if err := c.ShouldBind(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid cart item.", validation.FromBindError(err, &in)))
		return
	}

	state := h.Cookie.GetState(c)
	kept := state.Items[:0]
	for _, it := range state.Items {
		if it.ProductID != in.ProductID {
			kept = append(kept, it)
		}
	}
	state.Items = kept

	h.respondWithCart(c, state)
}

type modeInput struct {
	Subscription bool `form:"subscription" json:"subscription"`
}

// POST /store/cart/mode toggles subscription checkout. Changing the mode
// empties the cart.
func (h *CartHandler) SetMode(c *gin.Context) {
	var in modeInput
	if err := c.ShouldBind(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid request.", validation.FromBindError(err, &in)))
		return
	}

	state := h.Cookie.GetState(c)
	if state.SubscriptionMode != in.Subscription {
		state.SubscriptionMode = in.Subscription
		state.Items = nil
		state.CouponID = 0
	}

	h.respondWithCart(c, state)
}

type couponInput struct {
	Code string `form:"code" json:"code" binding:"required,max=64"`
}

// POST /store/cart/coupon
func (h *CartHandler) ApplyCoupon(c *gin.Context) {
	var in couponInput
	if err := c.ShouldBind(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid coupon.", validation.FromBindError(err, &in)))
		return
	}

	coupon, err := h.Coupons.FindByCode(c.Request.Context(), in.Code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			middleware.Fail(c, apperr.NotFoundErr("Unknown or inactive coupon code."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	state := h.Cookie.GetState(c)
	state.CouponID = coupon.ID
	h.respondWithCart(c, state)
}

// GET /store/cart
func (h *CartHandler) Show(c *gin.Context) {
	state := h.Cookie.GetState(c)
	sc, err := h.CartSvc.Hydrate(c.Request.Context(), state)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, cartView(sc))
}

// respondWithCart re-hydrates the updated state (dropping anything no
// longer purchasable), persists the cookie and returns the summary.
func (h *CartHandler) respondWithCart(c *gin.Context, state cart.State) {
	sc, err := h.CartSvc.Hydrate(c.Request.Context(), state)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	state.Items = stateItems(sc)
	if err := h.Cookie.Set(c, state); err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, cartView(sc))
}

func stateItems(sc *cart.ShoppingCart) []cart.StateItem {
	items := sc.Items()
	out := make([]cart.StateItem, 0, len(items))
	for _, it := range items {
		out = append(out, cart.StateItem{
			ProductID: it.Product.ID,
			Quantity:  it.Quantity,
			Fields:    it.Fields,
		})
	}
	return out
}

type cartItemView struct {
	ProductID     uint   `json:"product_id"`
	Name          string `json:"name"`
	Quantity      int    `json:"quantity"`
	PriceCents    int    `json:"price_cents"`
	SubtotalCents int    `json:"subtotal_cents"`
}

type cartViewBody struct {
	Items              []cartItemView `json:"items"`
	SubscriptionMode   bool           `json:"subscription_mode"`
	TotalCents         int            `json:"total_cents"`
	TotalRealCents     int            `json:"total_real_cents"`
	TotalDiscountCents int            `json:"total_discount_cents"`
}

func cartView(sc *cart.ShoppingCart) cartViewBody {
	items := sc.Items()
	v := cartViewBody{
		Items:              make([]cartItemView, 0, len(items)),
		SubscriptionMode:   sc.IsSubscriptionMode(),
		TotalCents:         sc.TotalCents(),
		TotalRealCents:     sc.TotalRealPriceCents(nil),
		TotalDiscountCents: sc.TotalDiscountCents(nil),
	}
	for _, it := range items {
		v.Items = append(v.Items, cartItemView{
			ProductID:     it.Product.ID,
			Name:          it.Product.Name,
			Quantity:      it.Quantity,
			PriceCents:    it.Product.PriceCents,
			SubtotalCents: it.SubtotalCents(),
		})
	}
	return v
}
