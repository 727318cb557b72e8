package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"invoicing/internal/invoice"
	"invoicing/internal/logger"
	"invoicing/internal/money"
)

type Config struct {
	// Ledger storage
	DatabasePath string

	// Invoice defaults
	NumberPrefix       string
	TaxPercentage      money.Percentage
	DiscountPercentage money.Percentage
	PaymentTermDays    int

	// Overdue sweep
	SweepInterval time.Duration

	// Google Sheets register export (optional)
	GoogleSheetURL       string
	GoogleSheetWorksheet string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		DatabasePath:         getEnv("LEDGER_DATABASE_PATH", "ledger.db"),
		NumberPrefix:         getEnv("INVOICE_NUMBER_PREFIX", invoice.DefaultNumberPrefix),
		GoogleSheetURL:       getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet: getEnv("GOOGLE_SHEET_WORKSHEET", "Receivables"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:        getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:            getEnv("LOG_OUTPUT", "stderr"),
	}

	var err error
	if config.TaxPercentage, err = money.ParsePercentage(getEnv("DEFAULT_TAX_PERCENTAGE", "18.00")); err != nil {
		return nil, fmt.Errorf("DEFAULT_TAX_PERCENTAGE: %w", err)
	}
	if config.DiscountPercentage, err = money.ParsePercentage(getEnv("DEFAULT_DISCOUNT_PERCENTAGE", "0")); err != nil {
		return nil, fmt.Errorf("DEFAULT_DISCOUNT_PERCENTAGE: %w", err)
	}
	if config.PaymentTermDays, err = strconv.Atoi(getEnv("DEFAULT_PAYMENT_TERM_DAYS", "15")); err != nil {
		return nil, fmt.Errorf("DEFAULT_PAYMENT_TERM_DAYS: %w", err)
	}
	if config.SweepInterval, err = time.ParseDuration(getEnv("OVERDUE_SWEEP_INTERVAL", "24h")); err != nil {
		return nil, fmt.Errorf("OVERDUE_SWEEP_INTERVAL: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("LEDGER_DATABASE_PATH is required")
	}
	if c.NumberPrefix == "" || strings.Contains(c.NumberPrefix, "-") {
		return fmt.Errorf("INVOICE_NUMBER_PREFIX must be non-empty and must not contain '-'")
	}
	if c.PaymentTermDays < 0 {
		return fmt.Errorf("DEFAULT_PAYMENT_TERM_DAYS must not be negative")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("OVERDUE_SWEEP_INTERVAL must be positive")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// InvoiceDefaults returns the values applied to new invoices.
func (c *Config) InvoiceDefaults() invoice.Defaults {
	return invoice.Defaults{
		NumberPrefix:       c.NumberPrefix,
		TaxPercentage:      c.TaxPercentage,
		DiscountPercentage: c.DiscountPercentage,
		PaymentTermDays:    c.PaymentTermDays,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
