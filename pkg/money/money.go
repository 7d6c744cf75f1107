package money

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var currencyCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// Currency is an ISO 4217 currency code with its display symbol.
type Currency struct {
	code   string
	symbol string
}

// NewCurrency creates a Currency after validating the code is exactly 3 uppercase letters.
// The symbol defaults to the code when empty.
func NewCurrency(code, symbol string) (Currency, error) {
	if !currencyCodeRe.MatchString(code) {
		return Currency{}, fmt.Errorf("invalid currency code %q: must be exactly 3 uppercase letters", code)
	}
	if symbol == "" {
		symbol = code
	}
	return Currency{code: code, symbol: symbol}, nil
}

// MustCurrency creates a Currency and panics on error. Intended for package-level variable
// initialization only.
func MustCurrency(code, symbol string) Currency {
	c, err := NewCurrency(code, symbol)
	if err != nil {
		panic(err)
	}
	return c
}

// Code returns the ISO 4217 currency code.
func (c Currency) Code() string { return c.code }

// Symbol returns the display symbol.
func (c Currency) Symbol() string { return c.symbol }

// String returns the currency code.
func (c Currency) String() string { return c.code }

// ZAR is the South African rand, the only currency loans are configured in.
var ZAR = MustCurrency("ZAR", "R")

// Money represents an immutable monetary amount with currency.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// New creates a Money value from a decimal amount and currency.
func New(amount decimal.Decimal, currency Currency) Money {
	return Money{amount: amount, currency: currency}
}

// Rand creates a ZAR Money value.
func Rand(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: ZAR}
}

const (
	// MaxFractionDigits is the finest scale an amount may carry (cents).
	MaxFractionDigits = 2
	// MaxWholeDigits bounds the integer part of an amount.
	MaxWholeDigits = 12

	maxInputLength = 32
)

// ErrPrecision is returned for amounts finer than cents or wider than
// MaxWholeDigits.
var ErrPrecision = errors.New("amount precision out of range")

// CheckPrecision rejects amounts with more than MaxFractionDigits decimal
// places or more than MaxWholeDigits whole digits. It reads only the
// exponent and coefficient, so no rescaling happens.
func CheckPrecision(amount decimal.Decimal) error {
	if amount.Exponent() < -MaxFractionDigits {
		return fmt.Errorf("%w: at most %d decimal places", ErrPrecision, MaxFractionDigits)
	}
	if whole := amount.NumDigits() + int(amount.Exponent()); whole > MaxWholeDigits {
		return fmt.Errorf("%w: at most %d whole digits", ErrPrecision, MaxWholeDigits)
	}
	return nil
}

// Parse reads a user-entered amount such as "5000", "R5 000" or "5,000.50".
// Currency symbols, spaces and thousands separators are ignored. Amounts
// failing CheckPrecision are rejected.
func Parse(raw string, currency Currency) (Money, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, currency.symbol)
	cleaned = strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(cleaned)
	if cleaned == "" {
		return Money{}, fmt.Errorf("invalid amount %q: empty", raw)
	}
	if len(cleaned) > maxInputLength {
		return Money{}, fmt.Errorf("invalid amount: %w: longer than %d characters", ErrPrecision, maxInputLength)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	if err := CheckPrecision(d); err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return Money{amount: d, currency: currency}, nil
}

// Amount returns the decimal amount.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the currency.
func (m Money) Currency() Currency { return m.currency }

// IsPositive returns true if the amount is strictly greater than zero.
func (m Money) IsPositive() bool { return m.amount.IsPositive() }

// Add returns the sum of m and other. Returns an error if the currencies do not match.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("currency mismatch: cannot add %s to %s", other.currency, m.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// GreaterThan reports whether m exceeds other. Currencies must match.
func (m Money) GreaterThan(other Money) bool {
	return m.currency == other.currency && m.amount.GreaterThan(other.amount)
}

// Equal returns true if both the amount and currency of m and other are equal.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// Format renders the amount with its symbol, thousands separators and two
// decimals, for example "R12,345.67". Negative amounts get a leading minus.
func (m Money) Format() string {
	rounded := m.amount.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}

	fixed := rounded.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	return sign + m.currency.symbol + groupThousands(intPart) + "." + frac
}

// String formats the Money value as "<amount> <currency>", for example "100.00 ZAR".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(2), m.currency.Code())
}

// FormatZAR formats a rand amount for display.
func FormatZAR(amount decimal.Decimal) string {
	return Rand(amount).Format()
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
