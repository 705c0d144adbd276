// Package types provides the numeric helpers shared by the costing code.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// Quantity is a measured amount (kg, units, litres) kept at full precision.
type Quantity = decimal.Decimal

// DisplayPlaces is the number of fractional digits shown to users.
const DisplayPlaces int32 = 2

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants, seed data and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Display rounds half away from zero to two places, the way totals are shown.
func Display(d decimal.Decimal) decimal.Decimal {
	return d.Round(DisplayPlaces)
}

// SafeDiv divides num by den and returns zero when den is zero or negative.
// Every ratio in the costing rules (batch size, yield, required quantity, box
// quantity) treats a non-positive denominator as "not calculable".
func SafeDiv(num, den decimal.Decimal) decimal.Decimal {
	if !den.IsPositive() {
		return decimal.Zero
	}
	return num.Div(den)
}

// Sum adds all values.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Percent returns base * pct / 100.
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(decimal.NewFromInt(100))
}
