// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// Quantity is a stock or forecast quantity. Same representation as Money,
// separated for readability of signatures.
type Quantity = decimal.Decimal

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

var hundred = decimal.NewFromInt(100)

// Round2 rounds to cents.
func Round2(m Money) Money {
	return m.Round(2)
}

// Percent returns part/whole*100 rounded to 2 places.
// ok is false when whole is not positive.
func Percent(part, whole Money) (pct Money, ok bool) {
	if !whole.IsPositive() {
		return decimal.Zero, false
	}
	return part.Div(whole).Mul(hundred).Round(2), true
}

// Share returns total*pct/100.
func Share(total, pct Money) Money {
	return total.Mul(pct).Div(hundred)
}

// Sum adds all values.
func Sum(values ...Money) Money {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
