package config

import (
	"os"
	"strconv"
)

// Config is read once at boot from the environment; godotenv fills the
// environment from .env during development.
type Config struct {
	Env     string // "dev" or "prod"
	Addr    string
	BaseURL string // public origin used in provider return/listener URLs

	DBDSN string

	CookieSecret string
	CookieName   string

	Mail MailConfig
	SMTP SMTPConfig
}

type MailConfig struct {
	Provider string // "smtp" or "mock"
	FromAddr string
	FromName string
}

type SMTPConfig struct {
	Host          string
	Port          string
	Username      string
	Password      string
	TLSMode       string // "", "starttls" or "tls"
	SkipVerifyTLS bool
}

func Load() Config {
	return Config{
		Env:     getenv("APP_ENV", "dev"),
		Addr:    getenv("HTTP_ADDR", ":8080"),
		BaseURL: getenv("BASE_URL", "http://localhost:8080"),

		DBDSN: os.Getenv("DB_DSN"),

		CookieSecret: getenv("COOKIE_SECRET", "dev-only-secret"),
		CookieName:   getenv("COOKIE_NAME", "store_state"),

		Mail: MailConfig{
			Provider: getenv("MAIL_PROVIDER", "mock"),
			FromAddr: getenv("MAIL_FROM", "no-reply@localhost"),
			FromName: getenv("MAIL_FROM_NAME", "Store"),
		},
		SMTP: SMTPConfig{
			Host:          os.Getenv("SMTP_HOST"),
			Port:          getenv("SMTP_PORT", "587"),
			Username:      os.Getenv("SMTP_USERNAME"),
			Password:      os.Getenv("SMTP_PASSWORD"),
			TLSMode:       getenv("SMTP_TLS_MODE", "starttls"),
			SkipVerifyTLS: getbool("SMTP_SKIP_VERIFY_TLS", false),
		},
	}
}

func (c Config) IsProd() bool { return c.Env == "prod" }

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getbool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
