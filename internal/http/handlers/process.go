package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Skizzles/Nameless-Store/internal/http/middleware"
	"github.com/Skizzles/Nameless-Store/internal/http/storecookie"
	"github.com/Skizzles/Nameless-Store/internal/modules/cart"
	"github.com/Skizzles/Nameless-Store/internal/modules/gateways"
	"github.com/Skizzles/Nameless-Store/internal/shared/apperr"
)

type ProcessHandler struct {
	Logger   *slog.Logger
	Cookie   *storecookie.Codec
	Gateways *gateways.Registry
}

func NewProcessHandler(logger *slog.Logger, ck *storecookie.Codec, reg *gateways.Registry) *ProcessHandler {
	return &ProcessHandler{Logger: logger, Cookie: ck, Gateways: reg}
}

// GET /store/process/ is where the provider sends the browser back after
// approval or cancellation. The pending order id travels in the signed
// store cookie, never in the provider-controlled query string.
func (h *ProcessHandler) Handle(c *gin.Context) {
	name := c.Query("gateway")
	gw, ok := h.Gateways.Get(name)
	if !ok {
		middleware.Fail(c, apperr.NotFoundErr("Unknown payment gateway."))
		return
	}

	state := h.Cookie.GetState(c)

	completed := gw.HandleReturn(c.Request.Context(), gateways.ReturnRequest{
		Params:         c.Request.URL.Query(),
		PendingOrderID: state.OrderID,
	})

	if gw.HasErrors() {
		h.Logger.ErrorContext(c.Request.Context(), "return flow failed",
			"gateway", name, "order_id", state.OrderID, "errors", gw.Errors())
		middleware.Fail(c, apperr.ProviderErr(firstError(gw), nil))
		return
	}

	if !completed {
		// Customer cancelled at the provider; the cart stays intact.
		c.JSON(http.StatusOK, gin.H{"completed": false})
		return
	}

	// The checkout is done; start the next cart fresh.
	if err := h.Cookie.Set(c, cart.State{}); err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed": true, "order_id": state.OrderID})
}
