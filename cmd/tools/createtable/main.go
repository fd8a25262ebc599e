package main

import (
	"log"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/Skizzles/Nameless-Store/internal/config"
	"github.com/Skizzles/Nameless-Store/internal/modules/cart"
	"github.com/Skizzles/Nameless-Store/internal/modules/gateways"
	"github.com/Skizzles/Nameless-Store/internal/modules/orders"
	"github.com/Skizzles/Nameless-Store/internal/modules/payments"
	"github.com/Skizzles/Nameless-Store/internal/modules/products"
	"github.com/Skizzles/Nameless-Store/internal/modules/settings"
	"github.com/Skizzles/Nameless-Store/internal/modules/subscriptions"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if cfg.DBDSN == "" {
		log.Fatal("DB_DSN environment variable is required")
	}

	db, err := gorm.Open(mysql.Open(cfg.DBDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(
		&settings.Setting{},
		&products.Product{},
		&products.ProductMeta{},
		&cart.Coupon{},
		&orders.Order{},
		&orders.OrderItem{},
		&payments.Payment{},
		&subscriptions.Subscription{},
		&gateways.WebhookLog{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate store schema: %v", err)
	}

	log.Println("✓ store schema migrated successfully")
}
