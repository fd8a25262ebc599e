package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Skizzles/Nameless-Store/internal/http/middleware"
	"github.com/Skizzles/Nameless-Store/internal/http/validation"
	"github.com/Skizzles/Nameless-Store/internal/modules/gateways"
	"github.com/Skizzles/Nameless-Store/internal/modules/subscriptions"
	"github.com/Skizzles/Nameless-Store/internal/shared/apperr"
)

type SubscriptionHandler struct {
	Logger   *slog.Logger
	Subs     *subscriptions.Service
	Gateways *gateways.Registry
}

func NewSubscriptionHandler(logger *slog.Logger, subs *subscriptions.Service, reg *gateways.Registry) *SubscriptionHandler {
	return &SubscriptionHandler{Logger: logger, Subs: subs, Gateways: reg}
}

type cancelSubscriptionInput struct {
	Gateway     string `form:"gateway" json:"gateway" binding:"required,max=64"`
	AgreementID string `form:"agreement_id" json:"agreement_id" binding:"required,max=128"`
}

// POST /store/subscription/cancel cancels the provider-side agreement and
// the local record. The provider's own cancellation webhook may still
// arrive afterwards; the state machine treats it as a no-op.
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	var in cancelSubscriptionInput
	if err := c.ShouldBind(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid cancellation request.", validation.FromBindError(err, &in)))
		return
	}

	gw, ok := h.Gateways.Get(in.Gateway)
	if !ok {
		middleware.Fail(c, apperr.NotFoundErr("Unknown payment gateway."))
		return
	}

	sub, err := h.Subs.FindByAgreementID(c.Request.Context(), in.Gateway, in.AgreementID)
	if err != nil {
		if errors.Is(err, subscriptions.ErrNotFound) {
			middleware.Fail(c, apperr.NotFoundErr("Unknown subscription."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	if sub.Status != subscriptions.StatusCancelled {
		if !gw.CancelSubscription(c.Request.Context(), sub) || gw.HasErrors() {
			middleware.Fail(c, apperr.ProviderErr(firstError(gw), nil))
			return
		}
		if err := h.Subs.Cancel(c.Request.Context(), sub); err != nil {
			middleware.Fail(c, apperr.Wrap(err))
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}
