package valueobject

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"github.com/vaultledger/backend/internal/domain/shared"
)

// MinorUnitPlaces is the number of decimal places held by one minor unit (cents).
const MinorUnitPlaces = 2

// MaxMinorUnits bounds a single amount so that sums of a few amounts
// can never overflow int64.
const MaxMinorUnits int64 = 1_000_000_000_000_000

// Money is a value object holding a monetary amount in integer minor units.
// It is immutable and comparable with ==.
type Money int64

// Zero returns a zero amount
func Zero() Money {
	return 0
}

// NewMoneyFromMinor creates Money from minor units (cents)
func NewMoneyFromMinor(minor int64) Money {
	return Money(minor)
}

// NewMoneyFromDecimal converts a major-unit decimal into Money.
// The value must be representable exactly in minor units.
func NewMoneyFromDecimal(amount decimal.Decimal) (Money, error) {
	scaled := amount.Shift(MinorUnitPlaces)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, shared.ErrInvalidInput.WithDetail("amount %s has more than %d decimal places", amount.String(), MinorUnitPlaces)
	}
	return fromScaled(scaled)
}

// NewMoneyFromString parses a major-unit decimal string such as "12.34"
func NewMoneyFromString(amount string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, shared.ErrInvalidInput.WithDetail("invalid amount %q", amount)
	}
	return NewMoneyFromDecimal(d)
}

// RoundToMoney converts a major-unit decimal into Money using banker's rounding
// on the sub-cent part.
func RoundToMoney(amount decimal.Decimal) (Money, error) {
	return fromScaled(amount.Shift(MinorUnitPlaces).RoundBank(0))
}

func fromScaled(scaled decimal.Decimal) (Money, error) {
	limit := decimal.NewFromInt(MaxMinorUnits)
	if scaled.Abs().GreaterThan(limit) {
		return 0, shared.ErrInvalidInput.WithDetail("amount exceeds the supported range")
	}
	return Money(scaled.IntPart()), nil
}

// Minor returns the amount in minor units
func (m Money) Minor() int64 {
	return int64(m)
}

// Decimal returns the amount in major units
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -MinorUnitPlaces)
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m == 0
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m > 0
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m < 0
}

// Add returns the sum of both amounts
func (m Money) Add(other Money) Money {
	return m + other
}

// Subtract returns the difference of both amounts
func (m Money) Subtract(other Money) Money {
	return m - other
}

// Negate returns the amount with the sign reversed
func (m Money) Negate() Money {
	return -m
}

// Abs returns the absolute value
func (m Money) Abs() Money {
	if m < 0 {
		return -m
	}
	return m
}

// CheckedAdd adds other and reports overflow as invalid input
func (m Money) CheckedAdd(other Money) (Money, error) {
	if (other > 0 && m > math.MaxInt64-other) || (other < 0 && m < math.MinInt64-other) {
		return 0, shared.ErrInvalidInput.WithDetail("amount overflow")
	}
	return m + other, nil
}

// LessThan returns true if this amount is less than the other
func (m Money) LessThan(other Money) bool {
	return m < other
}

// GreaterThan returns true if this amount is greater than the other
func (m Money) GreaterThan(other Money) bool {
	return m > other
}

// Min returns the smaller of two amounts
func Min(a, b Money) Money {
	if a < b {
		return a
	}
	return b
}

// String returns the amount in major units with two decimal places
func (m Money) String() string {
	return m.Decimal().StringFixed(MinorUnitPlaces)
}

// MarshalJSON encodes the amount as a major-unit decimal string
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts a decimal string ("12.34") or a JSON number (12.34)
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("money: %w", err)
		}
		s = n.String()
	}
	parsed, err := NewMoneyFromString(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
