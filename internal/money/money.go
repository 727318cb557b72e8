// Package money provides exact decimal arithmetic for currency amounts and
// percentage rates.
//
// Amounts are backed by shopspring/decimal and never pass through a floating
// point type. Rounding happens in exactly one place: when a Percentage is
// applied to an amount, the result is rounded half-up to two fractional digits.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept after a percentage is applied.
const Scale = 2

var hundred = decimal.NewFromInt(100)

// Money is an exact decimal currency amount. The zero value is 0.00.
type Money struct {
	d decimal.Decimal
}

// Zero returns 0.00.
func Zero() Money {
	return Money{}
}

// New returns units * 10^exp, e.g. New(250000, -2) is 2500.00.
func New(units int64, exp int32) Money {
	return Money{d: decimal.New(units, exp)}
}

// FromDecimal wraps an existing decimal value.
func FromDecimal(d decimal.Decimal) Money {
	return Money{d: d}
}

// FromString parses a plain decimal literal such as "2500.00".
func FromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("money: invalid amount %q: %w", s, err)
	}
	return Money{d: d}, nil
}

// MustFromString is FromString for literals known to be valid.
func MustFromString(s string) Money {
	m, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Decimal exposes the underlying value.
func (m Money) Decimal() decimal.Decimal {
	return m.d
}

func (m Money) Add(o Money) Money {
	return Money{d: m.d.Add(o.d)}
}

// Sub may produce a negative amount; callers that need a balance must check
// the sign themselves.
func (m Money) Sub(o Money) Money {
	return Money{d: m.d.Sub(o.d)}
}

// MulQuantity multiplies by a quantity without rounding.
func (m Money) MulQuantity(q decimal.Decimal) Money {
	return Money{d: m.d.Mul(q)}
}

// ApplyPercentage returns round(m * p / 100) rounded half-up to Scale digits.
func (m Money) ApplyPercentage(p Percentage) Money {
	return Money{d: m.d.Mul(p.d).Shift(-2).Round(Scale)}
}

// Round2 rounds half-up to Scale digits.
func (m Money) Round2() Money {
	return Money{d: m.d.Round(Scale)}
}

func (m Money) Cmp(o Money) int {
	return m.d.Cmp(o.d)
}

// Equal compares numerically, so 10 and 10.00 are equal.
func (m Money) Equal(o Money) bool {
	return m.d.Equal(o.d)
}

func (m Money) LessThan(o Money) bool {
	return m.d.LessThan(o.d)
}

func (m Money) GreaterThan(o Money) bool {
	return m.d.GreaterThan(o.d)
}

func (m Money) IsZero() bool {
	return m.d.IsZero()
}

func (m Money) IsPositive() bool {
	return m.d.IsPositive()
}

func (m Money) IsNegative() bool {
	return m.d.IsNegative()
}

// String renders the amount with exactly two fractional digits.
func (m Money) String() string {
	return m.d.StringFixed(Scale)
}

// Sum adds up a list of amounts.
func Sum(amounts ...Money) Money {
	total := Zero()
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
