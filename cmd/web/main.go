package main

import (
	"log"
	"os"

	"log/slog"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/Skizzles/Nameless-Store/internal/config"
	apphttp "github.com/Skizzles/Nameless-Store/internal/http"
	"github.com/Skizzles/Nameless-Store/internal/mailer"
)

func main() {
	// Load .env file (ignore error if not found - prod uses real env vars)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if cfg.DBDSN == "" {
		log.Fatal("DB_DSN environment variable is required")
	}

	db, err := gorm.Open(mysql.Open(cfg.DBDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	var mail mailer.Service
	switch cfg.Mail.Provider {
	case "smtp":
		mail = mailer.NewSMTPMailer(cfg.SMTP)
	default:
		mail = &mailer.Mock{}
		logger.Warn("mail provider is mock, receipts are not delivered")
	}

	r := apphttp.NewRouter(logger, db, cfg, mail)
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
