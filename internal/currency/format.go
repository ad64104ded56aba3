// Package currency renders monetary amounts for display and parses decimal
// amount strings into integer minor units.
//
// Formatting is locale-aware through the currency definitions shipped with
// go-money (grouping separator, decimal mark, symbol placement). Amounts can
// be masked for the balance-visibility toggle: the mask keeps the currency
// symbol but reveals nothing about the value or its magnitude.
package currency

import (
	"math"
	"strings"

	"github.com/Rhymond/go-money"
)

// maskLiteral is appended to the currency symbol when an amount is hidden.
const maskLiteral = " ••••••"

// nonFinite replaces NaN and infinite inputs, whose rendering the underlying
// formatter leaves unspecified.
const nonFinite = "—"

// Formatter renders amounts of a single currency. It is a pure value: the
// same input always produces the same string.
type Formatter struct {
	code     string
	grapheme string
}

// NewFormatter builds a formatter for an ISO 4217 code. Unknown codes fall
// back to a plain "$" symbol with two-decimal formatting.
func NewFormatter(code string) Formatter {
	code = strings.ToUpper(strings.TrimSpace(code))
	if c := money.GetCurrency(code); c != nil {
		return Formatter{code: code, grapheme: c.Grapheme}
	}
	return Formatter{code: money.ARS, grapheme: "$"}
}

// Code returns the ISO code the formatter renders.
func (f Formatter) Code() string {
	return f.code
}

// Symbol returns the currency symbol.
func (f Formatter) Symbol() string {
	return f.grapheme
}

// Format renders a major-unit amount. When visible is false the fixed mask is
// returned no matter the value. Negative amounts carry a leading minus;
// non-finite input renders as "—".
func (f Formatter) Format(amount float64, visible bool) string {
	if !visible {
		return f.Masked()
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nonFinite
	}
	return f.FormatMinor(int64(math.Round(amount * 100)))
}

// FormatMinor renders an amount given in integer minor units.
func (f Formatter) FormatMinor(cents int64) string {
	return money.New(cents, f.code).Display()
}

// Masked returns the hidden-amount placeholder for this currency.
func (f Formatter) Masked() string {
	return f.grapheme + maskLiteral
}
