package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Skizzles/Nameless-Store/internal/http/middleware"
	"github.com/Skizzles/Nameless-Store/internal/modules/gateways"
	"github.com/Skizzles/Nameless-Store/internal/shared/apperr"
)

type ListenerHandler struct {
	Logger   *slog.Logger
	Gateways *gateways.Registry
}

func NewListenerHandler(logger *slog.Logger, reg *gateways.Registry) *ListenerHandler {
	return &ListenerHandler{Logger: logger, Gateways: reg}
}

// POST /store/listener receives provider webhooks. The response status is
// the retry contract: 2xx acknowledges, 4xx tells the provider the request
// itself is bad, 5xx asks for a retry.
func (h *ListenerHandler) Handle(c *gin.Context) {
	name := c.Query("gateway")
	gw, ok := h.Gateways.Get(name)
	if !ok {
		middleware.Fail(c, apperr.NotFoundErr("Unknown payment gateway."))
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		middleware.Fail(c, apperr.InvalidErr("Unreadable request body.", nil))
		return
	}

	err = gw.HandleListener(c.Request.Context(), gateways.WebhookRequest{
		Key:     c.Query("key"),
		Headers: c.Request.Header,
		Body:    body,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
