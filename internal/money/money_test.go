package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyPercentage(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		rate   string
		want   string
	}{
		{"gst on round base", "4000.00", "18", "720.00"},
		{"discount", "4000.00", "5", "200.00"},
		{"gst after discount", "3800.00", "18.00", "684.00"},
		{"half rounds up", "0.25", "10", "0.03"},
		{"below half rounds down", "0.24", "10", "0.02"},
		{"fractional rate", "199.99", "7.5", "15.00"},
		{"zero rate", "123.45", "0", "0.00"},
		{"full rate", "123.45", "100", "123.45"},
		{"long scale just below half", "0.00499999999999999999", "100", "0.00"},
		{"long scale fraction of rate", "1.999999999999999999", "0.25", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MustFromString(tt.amount).ApplyPercentage(MustPercentage(tt.rate))
			assert.True(t, got.Equal(MustFromString(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestMoneyArithmeticIsExact(t *testing.T) {
	a := MustFromString("0.10")
	b := MustFromString("0.20")

	assert.True(t, a.Add(b).Equal(MustFromString("0.30")))
	assert.Equal(t, "0.30", a.Add(b).String())

	price := MustFromString("1499.99")
	assert.Equal(t, "4499.97", price.MulQuantity(decimal.NewFromInt(3)).String())
	assert.Equal(t, "749.995", price.MulQuantity(decimal.RequireFromString("0.5")).Decimal().String())
}

func TestMoneyComparisons(t *testing.T) {
	small := New(1, -2)
	large := New(100, 0)

	assert.True(t, small.LessThan(large))
	assert.True(t, large.GreaterThan(small))
	assert.Equal(t, -1, small.Cmp(large))
	assert.True(t, Zero().IsZero())
	assert.True(t, small.IsPositive())
	assert.True(t, small.Sub(large).IsNegative())
	assert.True(t, New(10, 0).Equal(MustFromString("10.00")))
}

func TestSum(t *testing.T) {
	total := Sum(MustFromString("2500.00"), MustFromString("1500.00"), Zero())
	assert.Equal(t, "4000.00", total.String())
	assert.True(t, Sum().IsZero())
}

func TestParsePercentage(t *testing.T) {
	p, err := ParsePercentage("18.00")
	require.NoError(t, err)
	assert.Equal(t, "18.00", p.String())

	_, err = ParsePercentage("100.01")
	assert.ErrorIs(t, err, ErrPercentageOutOfRange)

	_, err = ParsePercentage("-1")
	assert.ErrorIs(t, err, ErrPercentageOutOfRange)

	_, err = ParsePercentage("eighteen")
	assert.Error(t, err)
}

func TestFromStringRejectsGarbage(t *testing.T) {
	_, err := FromString("12,50")
	assert.Error(t, err)
}
