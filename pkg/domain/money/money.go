package money

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits every ledger amount is stored with.
const Scale = 2

var (
	// ErrInvalidAmount is returned when a string cannot be parsed as a decimal amount.
	ErrInvalidAmount = errors.New("invalid monetary amount")
	// ErrTooPrecise is returned when an amount has more fractional digits than Scale.
	ErrTooPrecise = errors.New("amount has more fractional digits than allowed")
)

// Money is an exact decimal monetary value.
// Invariants:
//   - Arithmetic is exact; no binary floating point is ever involved.
//   - The zero value is a valid zero amount.
type Money struct {
	amount decimal.Decimal
}

// Zero returns a zero amount.
func Zero() Money {
	return Money{amount: decimal.Zero}
}

// New parses a decimal string such as "40.00" into Money.
// Amounts with more than Scale fractional digits are rejected rather than rounded.
func New(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	m := Money{amount: d}
	if !m.FitsScale() {
		return Money{}, fmt.Errorf("%w: %q", ErrTooPrecise, s)
	}
	return m, nil
}

// MustParse is like New but panics on error. Intended for tests and constants.
func MustParse(s string) Money {
	m, err := New(s)
	if err != nil {
		panic(err)
	}
	return m
}

// FromDecimal wraps an existing decimal value.
func FromDecimal(d decimal.Decimal) Money {
	return Money{amount: d}
}

// Decimal returns the underlying decimal value.
func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Sub returns m - other. The result may be negative; callers enforce non-negativity.
func (m Money) Sub(other Money) Money {
	return Money{amount: m.amount.Sub(other.amount)}
}

// IsPositive reports whether m > 0.
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative reports whether m < 0.
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// IsZero reports whether m == 0.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// LessThan reports whether m < other.
func (m Money) LessThan(other Money) bool {
	return m.amount.LessThan(other.amount)
}

// GreaterThanOrEqual reports whether m >= other.
func (m Money) GreaterThanOrEqual(other Money) bool {
	return m.amount.GreaterThanOrEqual(other.amount)
}

// Equals compares by numeric value, so 60 equals 60.00.
func (m Money) Equals(other Money) bool {
	return m.amount.Equal(other.amount)
}

// FitsScale reports whether m can be stored without rounding.
func (m Money) FitsScale() bool {
	return m.amount.Equal(m.amount.Truncate(Scale))
}

// String renders the amount with exactly Scale fractional digits, e.g. "60.00".
func (m Money) String() string {
	return m.amount.StringFixed(Scale)
}

// MarshalJSON renders the amount as a fixed-scale JSON string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts both JSON strings and numbers.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, string(data))
	}
	m.amount = d
	return nil
}

// Value implements driver.Valuer.
func (m Money) Value() (driver.Value, error) {
	return m.amount.Value()
}

// Scan implements sql.Scanner.
func (m *Money) Scan(value any) error {
	return m.amount.Scan(value)
}
