package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	MongoDBURI  string
	Environment string
	LogLevel    string

	JWTSecret            string
	PaymentWebhookSecret string

	// Platform pricing policy, fixed service-side rather than per site.
	ServiceFeePercent float64
	TaxPercent        float64

	// PaymentDeadline is how long an unpaid reservation keeps its dates.
	PaymentDeadline time.Duration
	// SweepInterval is how often the expiry sweeper runs.
	SweepInterval time.Duration

	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPassword  string
	SMTPFromName  string
	SMTPFromEmail string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:                 getEnvWithDefault("PORT", "8080"),
		MongoDBURI:           os.Getenv("MONGODB_URI"),
		Environment:          getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:             getEnvWithDefault("LOG_LEVEL", "info"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		PaymentWebhookSecret: os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		SMTPHost:             os.Getenv("SMTP_HOST"),
		SMTPUser:             os.Getenv("SMTP_USER"),
		SMTPPassword:         os.Getenv("SMTP_PASSWORD"),
		SMTPFromName:         getEnvWithDefault("SMTP_FROM_NAME", "Campsited"),
		SMTPFromEmail:        getEnvWithDefault("SMTP_FROM_EMAIL", "bookings@campsited.example"),
	}

	// Validate required fields
	if cfg.MongoDBURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.PaymentWebhookSecret == "" {
		return nil, fmt.Errorf("PAYMENT_WEBHOOK_SECRET is required")
	}

	var err error
	if cfg.ServiceFeePercent, err = getEnvFloat("SERVICE_FEE_PERCENT", 10); err != nil {
		return nil, err
	}
	if cfg.TaxPercent, err = getEnvFloat("TAX_PERCENT", 8); err != nil {
		return nil, err
	}

	deadlineMinutes, err := getEnvInt("PAYMENT_DEADLINE_MINUTES", 30)
	if err != nil {
		return nil, err
	}
	cfg.PaymentDeadline = time.Duration(deadlineMinutes) * time.Minute

	sweepMinutes, err := getEnvInt("SWEEP_INTERVAL_MINUTES", 10)
	if err != nil {
		return nil, err
	}
	cfg.SweepInterval = time.Duration(sweepMinutes) * time.Minute

	if cfg.SMTPPort, err = getEnvInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %v", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %v", key, err)
	}
	return f, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
