// Package core holds the ledger's domain types: accounts, contacts, cash
// transactions, loans and their payments, plus money and date handling.
//
// Amounts are kept in int64 minor units everywhere; decimal strings coming
// from the outside world are converted exactly once, at the edge.
package core

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseAmount converts a user-entered decimal string ("1500", "1500.5",
// "1500,5", "1,234.56") into positive minor units, half-up rounded past two
// decimals. A comma followed by one or two trailing digits is a decimal
// separator; other commas are thousands separators. Returns ErrInvalidAmount
// for malformed, zero or negative input.
func ParseAmount(s string) (Money, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return Money{}, err
	}
	if d.Sign() <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: d.Mul(hundred).Round(0).IntPart()}, nil
}

// ParseSignedAmount is ParseAmount without the positivity check. Plain cash
// transactions carry their own sign convention (outflow negative) and may
// legitimately be zero.
func ParseSignedAmount(s string) (Money, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: d.Mul(hundred).Round(0).IntPart()}, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(normalizeAmount(s))
	if err != nil {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return d, nil
}

// normalizeAmount strips spaces and thousands separators and accepts a
// decimal comma.
func normalizeAmount(s string) string {
	cleaned := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' || s[i] == '_' {
			continue
		}
		cleaned = append(cleaned, s[i])
	}

	out := make([]byte, 0, len(cleaned))
	for i := 0; i < len(cleaned); i++ {
		if cleaned[i] == ',' {
			if isDecimalComma(string(cleaned[i+1:])) {
				out = append(out, '.')
			}
			continue
		}
		out = append(out, cleaned[i])
	}
	return string(out)
}

// isDecimalComma reports whether the input after a comma is one or two
// trailing digits, which marks the comma as a decimal separator ("1500,5",
// "12,34") rather than a thousands separator ("1,234").
func isDecimalComma(rest string) bool {
	if len(rest) < 1 || len(rest) > 2 {
		return false
	}
	for i := 0; i < len(rest); i++ {
		if rest[i] < '0' || rest[i] > '9' {
			return false
		}
	}
	return true
}

// Units returns the major-unit value as a float64 for display purposes only.
// Calculations stay in cents.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// Neg returns the amount with its sign flipped.
func (m Money) Neg() Money {
	return Money{Cents: -m.Cents}
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

// Min returns the smaller of the two amounts.
func (m Money) Min(other Money) Money {
	if other.Cents < m.Cents {
		return other
	}
	return m
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.Cents == 0 }

// IsPositive reports whether the amount is strictly positive.
func (m Money) IsPositive() bool { return m.Cents > 0 }
