// Package core holds the domain model: money, dates, debts and the
// validation rules that apply to them before anything is written.
//
// This file contains the Money type. Amounts are exact two-decimal
// values; nothing in the system ever touches a binary float.
package core

import (
	"github.com/shopspring/decimal"
)

// Money is an exact monetary amount with a fixed scale of two decimal
// places. It is stored and transmitted as its canonical decimal string
// (String), so a value always round-trips losslessly.
//
// The zero value is a valid 0.00 amount.
type Money struct {
	amount decimal.Decimal
}

// maxAmount guards against absurd inputs; the same cap is enforced on
// every user-entered amount.
var maxAmount = decimal.New(99999999999, -2) // 999,999,999.99

// ParseAmount parses a user-supplied total. It accepts plain decimal
// notation with at most two fractional digits and requires the value to
// be strictly positive and at most 999,999,999.99. Anything else is
// ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34
//	ParseAmount("100")   -> 100.00
//	ParseAmount("0")     -> ErrInvalidAmount
//	ParseAmount("1.999") -> ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	m, err := ParseSigned(s)
	if err != nil {
		return Money{}, err
	}
	if m.Sign() <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

// ParseSigned parses a possibly negative amount with at most two
// fractional digits. Used for persisted shares and nets; user input goes
// through ParseAmount.
func ParseSigned(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.Exponent() < -2 {
		return Money{}, ErrInvalidAmount
	}
	if d.Abs().GreaterThan(maxAmount) {
		return Money{}, ErrInvalidAmount
	}
	return Money{amount: d}, nil
}

// FromCents builds a Money from an integer number of minor units.
func FromCents(cents int64) Money {
	return Money{amount: decimal.New(cents, -2)}
}

// Cents returns the amount as an integer number of minor units. Exact
// because the scale is fixed at two.
func (m Money) Cents() int64 {
	return m.amount.Mul(decimal.New(100, 0)).IntPart()
}

// String returns the canonical decimal representation with exactly two
// fractional digits, e.g. "33.30".
func (m Money) String() string {
	return m.amount.StringFixed(2)
}

func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

func (m Money) Sub(other Money) Money {
	return Money{amount: m.amount.Sub(other.amount)}
}

func (m Money) Neg() Money {
	return Money{amount: m.amount.Neg()}
}

func (m Money) Abs() Money {
	return Money{amount: m.amount.Abs()}
}

// Cmp compares two amounts: -1 if m < other, 0 if equal, +1 if m > other.
func (m Money) Cmp(other Money) int {
	return m.amount.Cmp(other.amount)
}

// Sign returns -1, 0 or +1 depending on the sign of the amount.
func (m Money) Sign() int {
	return m.amount.Sign()
}

func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount)
}

// SplitEqually divides a non-negative amount into n parts that sum back
// to the amount exactly. The division happens in minor units: every part
// gets floor(cents/n) and the leftover cents are handed out one each to
// the first (cents mod n) parts. Which participants map to those first
// slots is the caller's decision; see ledger.ShareOrder.
func (m Money) SplitEqually(n int) []Money {
	if n <= 0 {
		return nil
	}
	cents := m.Cents()
	base := cents / int64(n)
	rem := cents % int64(n)

	parts := make([]Money, n)
	for i := range parts {
		c := base
		if int64(i) < rem {
			c++
		}
		parts[i] = FromCents(c)
	}
	return parts
}

// MarshalJSON encodes the amount as its canonical decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON decodes a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return ErrInvalidAmount
	}
	parsed, err := ParseSigned(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
