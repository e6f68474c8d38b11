// Package money provides exact decimal amounts for parsed statements and
// currency-aware display using the Fowler Money pattern. Amounts never pass
// through float64.
package money

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Common currency codes (ISO-4217)
const (
	RUB = "RUB" // Russian Ruble, the home currency of supported statements
	USD = "USD" // US Dollar
	EUR = "EUR" // Euro
	CNY = "CNY" // Chinese Yuan
	KZT = "KZT" // Kazakhstani Tenge
)

// DefaultCurrency is used when a statement does not name one.
const DefaultCurrency = RUB

// Money represents a monetary value with currency.
// It wraps go-money for safe arithmetic and formatting.
type Money struct {
	m *money.Money
}

// New creates a new Money value from minor units and currency code.
func New(amountMinor int64, currencyCode string) *Money {
	return &Money{
		m: money.New(amountMinor, normalizeCode(currencyCode)),
	}
}

// NewFromDecimal creates Money from a decimal.Decimal value.
// This is the safest way to create Money from a parsed amount.
func NewFromDecimal(amount decimal.Decimal, currencyCode string) *Money {
	code := normalizeCode(currencyCode)
	currency := money.GetCurrency(code)

	multiplier := decimal.New(1, int32(currency.Fraction))
	minor := amount.Mul(multiplier).Round(0).IntPart()

	return New(minor, code)
}

// Zero returns a zero Money value for the given currency
func Zero(currencyCode string) *Money {
	return New(0, currencyCode)
}

// Amount returns the amount in minor units (kopecks, cents)
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// Currency returns the ISO-4217 currency code
func (m *Money) Currency() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Currency().Code
}

// IsNegative returns true if the amount is less than zero
func (m *Money) IsNegative() bool {
	return m != nil && m.m != nil && m.m.IsNegative()
}

// Abs returns the absolute value
func (m *Money) Abs() *Money {
	if m == nil || m.m == nil {
		return Zero(DefaultCurrency)
	}
	return &Money{m: m.m.Absolute()}
}

// Add adds two Money values. Returns error if currencies don't match.
func (m *Money) Add(other *Money) (*Money, error) {
	if m == nil || m.m == nil {
		return other, nil
	}
	if other == nil || other.m == nil {
		return m, nil
	}

	result, err := m.m.Add(other.m)
	if err != nil {
		return nil, err
	}
	return &Money{m: result}, nil
}

// Display returns a formatted string for display (e.g., "-1,382.63 ₽")
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return Zero(DefaultCurrency).Display()
	}
	return m.m.Display()
}

// String returns the amount as a decimal string (e.g., "1234.56")
func (m *Money) String() string {
	return m.ToDecimal().StringFixed(2)
}

// ToDecimal converts to decimal.Decimal for precise calculations
func (m *Money) ToDecimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	currency := m.m.Currency()
	d := decimal.NewFromInt(m.m.Amount())
	divisor := decimal.New(1, int32(currency.Fraction))
	return d.Div(divisor)
}

// Format renders an exact decimal amount in the given currency.
func Format(amount decimal.Decimal, currencyCode string) string {
	return NewFromDecimal(amount, currencyCode).Display()
}

// FormatSigned is Format with an explicit "+" for positive amounts.
func FormatSigned(amount decimal.Decimal, currencyCode string) string {
	s := Format(amount, currencyCode)
	if amount.IsPositive() {
		return "+" + s
	}
	return s
}

// Sum adds decimals exactly.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

func normalizeCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "RUR" || code == "" {
		return DefaultCurrency
	}
	if money.GetCurrency(code) == nil {
		return DefaultCurrency
	}
	return code
}
