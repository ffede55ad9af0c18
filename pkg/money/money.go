package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a currency value in minor units (cents)
type Amount int64

const minorUnitsExp = 2

var ErrInvalidAmount = errors.New("invalid money amount")

// FromMajor converts a whole major-unit value (e.g. 1500 rand) to an Amount
func FromMajor(major int64) Amount {
	return Amount(major * 100)
}

// Parse reads a decimal string such as "1499.99" into an Amount.
// More than two fractional digits are rejected rather than rounded.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	scaled := d.Shift(minorUnitsExp)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, s, minorUnitsExp)
	}
	return Amount(scaled.IntPart()), nil
}

// MustParse is Parse for constants and tests
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Mul multiplies a unit price by a quantity
func (a Amount) Mul(qty int) Amount {
	return a * Amount(qty)
}

// Decimal returns the amount in major units
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -minorUnitsExp)
}

// String formats the amount with two decimal places, e.g. "1550.00"
func (a Amount) String() string {
	return a.Decimal().StringFixed(minorUnitsExp)
}

// Format renders the amount with a currency symbol for display
func (a Amount) Format(symbol string) string {
	if a < 0 {
		return "-" + symbol + (-a).String()
	}
	return symbol + a.String()
}

// Max returns the larger of two amounts
func Max(a, b Amount) Amount {
	if a > b {
		return a
	}
	return b
}
