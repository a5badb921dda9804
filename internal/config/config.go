package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	AppPort string
	AppEnv  string

	JWTSecret string

	// Shared secret for the payment gateway's checkout signature.
	PaymentKeySecret string

	// Optional. When empty, product locks are process-local and
	// Idempotency-Key headers are ignored.
	RedisURL string
	// Product locks are held through checkout and the stock decrement after
	// it, so the lease must outlast both.
	LockTTL time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	StoreName    string

	NotificationWorkers   int
	NotificationQueueSize int
	NotificationTimeout   time.Duration

	CheckoutTimeout  time.Duration
	ReconcileTimeout time.Duration

	CORSAllowedOrigins []string
	InternalSecretKey  string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		AppPort: getEnv("APP_PORT", "8080"),
		AppEnv:  os.Getenv("APP_ENV"),

		JWTSecret:        os.Getenv("JWT_SECRET"),
		PaymentKeySecret: os.Getenv("PAYMENT_KEY_SECRET"),

		RedisURL: os.Getenv("REDIS_URL"),
		LockTTL:  getEnvDuration("LOCK_TTL", 45*time.Second),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     getEnv("MAIL_FROM", "orders@aurelia.local"),
		StoreName:    getEnv("STORE_NAME", "Aurelia Jewels"),

		NotificationWorkers:   getEnvInt("NOTIFICATION_WORKERS", 2),
		NotificationQueueSize: getEnvInt("NOTIFICATION_QUEUE_SIZE", 256),
		NotificationTimeout:   getEnvDuration("NOTIFICATION_TIMEOUT", 15*time.Second),

		CheckoutTimeout:  getEnvDuration("CHECKOUT_TIMEOUT", 20*time.Second),
		ReconcileTimeout: getEnvDuration("RECONCILE_TIMEOUT", 15*time.Second),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		InternalSecretKey:  os.Getenv("INTERNAL_SECRET_KEY"),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	return cfg
}

func (c *Config) Validate() error {
	if c.CheckoutTimeout <= 0 || c.ReconcileTimeout <= 0 {
		return errors.New("CHECKOUT_TIMEOUT and RECONCILE_TIMEOUT must be positive")
	}
	if hold := c.CheckoutTimeout + c.ReconcileTimeout; c.LockTTL <= hold {
		return fmt.Errorf("LOCK_TTL=%s must be greater than CHECKOUT_TIMEOUT+RECONCILE_TIMEOUT=%s", c.LockTTL, hold)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
