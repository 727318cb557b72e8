package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrPercentageOutOfRange is returned for rates outside [0, 100].
var ErrPercentageOutOfRange = errors.New("percentage must be between 0 and 100")

// Percentage is a rate in [0, 100], e.g. 18.00 for 18% GST.
type Percentage struct {
	d decimal.Decimal
}

// NewPercentage validates the range.
func NewPercentage(d decimal.Decimal) (Percentage, error) {
	if d.IsNegative() || d.GreaterThan(hundred) {
		return Percentage{}, fmt.Errorf("%w: got %s", ErrPercentageOutOfRange, d.String())
	}
	return Percentage{d: d}, nil
}

// ParsePercentage parses "18", "18.00" or "7.5".
func ParsePercentage(s string) (Percentage, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Percentage{}, fmt.Errorf("money: invalid percentage %q: %w", s, err)
	}
	return NewPercentage(d)
}

// MustPercentage is ParsePercentage for literals known to be valid.
func MustPercentage(s string) Percentage {
	p, err := ParsePercentage(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Percentage) Decimal() decimal.Decimal {
	return p.d
}

func (p Percentage) IsZero() bool {
	return p.d.IsZero()
}

func (p Percentage) Equal(o Percentage) bool {
	return p.d.Equal(o.d)
}

func (p Percentage) String() string {
	return p.d.StringFixed(Scale)
}
