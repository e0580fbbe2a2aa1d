/*
static.go - Static last-resort rate table

PURPOSE:
  The terminal strategy of the provider chain. Keyed by source currency,
  valued in rate-to-reference-currency. Intentionally approximate: a business
  fallback that keeps estimates rendering when every live source is down,
  never a pricing guarantee.
*/
package fx

import "github.com/shopspring/decimal"

// StaticTable maps a source currency to its approximate rate into the
// reference currency. Read-only after construction; safe for concurrent use.
type StaticTable map[string]decimal.Decimal

// Rate returns the table's rate for currency, defaulting to 1 for entries
// the table does not carry. Always succeeds.
func (t StaticTable) Rate(currency string) decimal.Decimal {
	if r, ok := t[currency]; ok {
		return r
	}
	return decimal.NewFromInt(1)
}

// DefaultTRYTable is the shipped fallback for a TRY reference currency.
func DefaultTRYTable() StaticTable {
	return StaticTable{
		"USD": decimal.NewFromInt(30),
		"EUR": decimal.NewFromInt(33),
		"GBP": decimal.NewFromInt(38),
		"JPY": decimal.NewFromFloat(0.20),
		"CNY": decimal.NewFromFloat(4.2),
		"INR": decimal.NewFromFloat(0.36),
		"CAD": decimal.NewFromInt(22),
		"AUD": decimal.NewFromInt(20),
		"CHF": decimal.NewFromInt(34),
		"SGD": decimal.NewFromInt(22),
	}
}
