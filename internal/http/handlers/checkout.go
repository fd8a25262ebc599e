package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Skizzles/Nameless-Store/internal/http/middleware"
	"github.com/Skizzles/Nameless-Store/internal/http/storecookie"
	"github.com/Skizzles/Nameless-Store/internal/http/validation"
	"github.com/Skizzles/Nameless-Store/internal/modules/cart"
	"github.com/Skizzles/Nameless-Store/internal/modules/gateways"
	"github.com/Skizzles/Nameless-Store/internal/modules/orders"
	"github.com/Skizzles/Nameless-Store/internal/shared/apperr"
)

type CheckoutHandler struct {
	Logger   *slog.Logger
	Cookie   *storecookie.Codec
	CartSvc  *cart.Service
	Orders   orders.Repository
	Gateways *gateways.Registry
}

func NewCheckoutHandler(logger *slog.Logger, ck *storecookie.Codec, svc *cart.Service, ord orders.Repository, reg *gateways.Registry) *CheckoutHandler {
	return &CheckoutHandler{Logger: logger, Cookie: ck, CartSvc: svc, Orders: ord, Gateways: reg}
}

type checkoutInput struct {
	Email   string `form:"email" json:"email" binding:"required,email,max=255"`
	Gateway string `form:"gateway" json:"gateway" binding:"required,max=64"`
}

// POST /store/checkout snapshots the cart into an order and hands the
// customer to the gateway's approval page.
func (h *CheckoutHandler) Post(c *gin.Context) {
	var in checkoutInput
	if err := c.ShouldBind(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid checkout data.", validation.FromBindError(err, &in)))
		return
	}

	gw, ok := h.Gateways.Get(in.Gateway)
	if !ok {
		middleware.Fail(c, apperr.NotFoundErr("Unknown payment gateway."))
		return
	}

	state := h.Cookie.GetState(c)
	sc, err := h.CartSvc.Hydrate(c.Request.Context(), state)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	if len(sc.Items()) == 0 {
		middleware.Fail(c, apperr.InvalidErr("Your cart is empty.", nil))
		return
	}

	recipient := &cart.Recipient{CustomerID: uuid.NewString(), Email: in.Email}
	order, err := h.Orders.CreateFromCart(c.Request.Context(), sc, recipient, in.Email)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	redirect := gw.ProcessOrder(c.Request.Context(), order)
	if gw.HasErrors() || redirect == "" {
		h.Logger.ErrorContext(c.Request.Context(), "checkout gateway failed",
			"gateway", in.Gateway, "order_id", order.ID, "errors", gw.Errors())
		middleware.Fail(c, apperr.ProviderErr(firstError(gw), nil))
		return
	}

	// Remember which order the return flow belongs to.
	state.OrderID = order.ID
	if err := h.Cookie.Set(c, state); err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id": order.ID,
		"redirect": redirect,
	})
}

func firstError(gw gateways.Gateway) string {
	errs := gw.Errors()
	if len(errs) == 0 {
		return "There was an error processing this order."
	}
	return errs[0]
}
