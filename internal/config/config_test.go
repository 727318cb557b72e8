package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"LEDGER_DATABASE_PATH", "INVOICE_NUMBER_PREFIX", "DEFAULT_TAX_PERCENTAGE",
		"DEFAULT_DISCOUNT_PERCENTAGE", "DEFAULT_PAYMENT_TERM_DAYS", "OVERDUE_SWEEP_INTERVAL",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ledger.db", cfg.DatabasePath)
	assert.Equal(t, "INV", cfg.NumberPrefix)
	assert.Equal(t, "18.00", cfg.TaxPercentage.String())
	assert.True(t, cfg.DiscountPercentage.IsZero())
	assert.Equal(t, 15, cfg.PaymentTermDays)
	assert.Equal(t, 24*time.Hour, cfg.SweepInterval)

	d := cfg.InvoiceDefaults()
	assert.Equal(t, "INV", d.NumberPrefix)
	assert.Equal(t, 15, d.PaymentTermDays)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"DEFAULT_TAX_PERCENTAGE", "120"},
		{"DEFAULT_DISCOUNT_PERCENTAGE", "-1"},
		{"DEFAULT_PAYMENT_TERM_DAYS", "soon"},
		{"DEFAULT_PAYMENT_TERM_DAYS", "-3"},
		{"INVOICE_NUMBER_PREFIX", "INV-X"},
		{"OVERDUE_SWEEP_INTERVAL", "daily"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
