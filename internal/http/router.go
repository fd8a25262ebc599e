package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Skizzles/Nameless-Store/internal/config"
	"github.com/Skizzles/Nameless-Store/internal/http/handlers"
	"github.com/Skizzles/Nameless-Store/internal/http/middleware"
	"github.com/Skizzles/Nameless-Store/internal/http/storecookie"
	"github.com/Skizzles/Nameless-Store/internal/mailer"
	"github.com/Skizzles/Nameless-Store/internal/modules/cart"
	"github.com/Skizzles/Nameless-Store/internal/modules/email"
	"github.com/Skizzles/Nameless-Store/internal/modules/gateways"
	"github.com/Skizzles/Nameless-Store/internal/modules/gateways/paypal"
	"github.com/Skizzles/Nameless-Store/internal/modules/orders"
	"github.com/Skizzles/Nameless-Store/internal/modules/payments"
	"github.com/Skizzles/Nameless-Store/internal/modules/products"
	"github.com/Skizzles/Nameless-Store/internal/modules/settings"
	"github.com/Skizzles/Nameless-Store/internal/modules/subscriptions"
)

// NewRouter wires repositories, the payment ledger, the gateway registry
// and the HTTP surface.
func NewRouter(logger *slog.Logger, db *gorm.DB, cfg config.Config, mail mailer.Service) *gin.Engine {
	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	settingsRepo := settings.NewRepo(db)
	productsRepo := products.NewGormRepo(db)
	couponsRepo := cart.NewGormCouponRepo(db)
	ordersRepo := orders.NewRepo(db)
	paymentsRepo := payments.NewRepo(db)
	subsRepo := subscriptions.NewRepo(db)
	webhookLogs := gateways.NewGormWebhookLogRepo(db)

	events := payments.NewDispatcher(logger)
	ledger := payments.NewLedger(paymentsRepo, ordersRepo, events, logger)
	subsSvc := subscriptions.NewService(subsRepo, logger)
	cartSvc := cart.NewService(productsRepo, couponsRepo)

	receipts := email.NewReceipts(mail, ordersRepo, logger, cfg.Mail.FromAddr, cfg.Mail.FromName)
	events.Subscribe(receipts.Listener())

	registry := gateways.NewRegistry()
	paypalDeps := paypal.Deps{
		Settings:    settingsRepo,
		Ledger:      ledger,
		Subs:        subsSvc,
		Orders:      ordersRepo,
		Products:    productsRepo,
		WebhookLogs: webhookLogs,
		Logger:      logger,
		BaseURL:     cfg.BaseURL,
	}
	if !cfg.IsProd() {
		paypalDeps.NewAPI = func(id, secret string) paypal.API {
			return paypal.NewClient(paypal.SandboxBase, id, secret)
		}
	}
	registry.Register(paypal.Name, paypal.Factory(paypalDeps))

	cookie := storecookie.New([]byte(cfg.CookieSecret), cfg.CookieName, cfg.IsProd())

	cartH := handlers.NewCartHandler(logger, cookie, cartSvc, couponsRepo)
	checkoutH := handlers.NewCheckoutHandler(logger, cookie, cartSvc, ordersRepo, registry)
	processH := handlers.NewProcessHandler(logger, cookie, registry)
	listenerH := handlers.NewListenerHandler(logger, registry)
	subsH := handlers.NewSubscriptionHandler(logger, subsSvc, registry)

	r := gin.New()
	// ErrorHandler must wrap Recovery: a recovered panic only records the
	// error, and the outer handler renders the 500. The other way round a
	// panic would unwind past ErrorHandler and gin would answer 200,
	// acknowledging webhooks that were never processed.
	r.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.ErrorHandler(logger),
		middleware.Recovery(logger),
	)

	store := r.Group("/store")
	{
		store.GET("/cart", cartH.Show)
		store.POST("/cart/add", cartH.Add)
		store.POST("/cart/remove", cartH.Remove)
		store.POST("/cart/mode", cartH.SetMode)
		store.POST("/cart/coupon", cartH.ApplyCoupon)

		store.POST("/checkout", checkoutH.Post)
		store.POST("/subscription/cancel", subsH.Cancel)
		store.GET("/process/", processH.Handle)
		store.POST("/listener", listenerH.Handle)
	}

	return r
}
