/*
Package costing turns a product's bill of materials into a cost estimate.

PURPOSE:
  Each BOM line is pinned to one purchase lot with its own currency and
  purchase date. The estimator prices every line from its lot, rolls raw
  amounts into per-currency subtotals, and normalizes everything into a
  single reference-currency total using historical rates resolved per
  (currency, date) pair.

RESULT SHAPE (this file):
  - BreakdownRow: one priced (or unpriced) BOM line
  - CurrencySubtotal: raw pre-conversion sum per currency
  - RateNote: one per distinct (currency, date) pair used, with provenance
  - Estimate: the aggregate, including the missing-cost flag

DEGRADATION POLICY:
  Partial results beat failed estimates. A line without a resolvable
  purchase still appears, unpriced, with a warning; an unresolvable material
  degrades to a placeholder name. Only a missing product is a hard error.

SEE ALSO:
  - estimator.go: The aggregation algorithm
  - fx: Rate resolution and per-call memoization
*/
package costing

import (
	"github.com/shopspring/decimal"

	"github.com/atolye/costing-engine/catalog"
)

// BreakdownRow is the per-material cost of one BOM line. Cost fields are nil
// when the line's pinned purchase could not be resolved (HasCost=false).
type BreakdownRow struct {
	MaterialID   catalog.MaterialID
	MaterialName string
	QtyRequired  decimal.Decimal
	Unit         string
	UnitCost     *decimal.Decimal
	Currency     *string
	LineTotal    *decimal.Decimal // QtyRequired x UnitCost, in Currency
	LineTotalRef *decimal.Decimal // LineTotal converted at the lot's purchase date
	HasCost      bool
	Warning      string // empty unless the row degraded
}

// CurrencySubtotal is the raw, pre-conversion sum of all priced lines in one
// currency.
type CurrencySubtotal struct {
	Currency string
	Total    decimal.Decimal
}

// RateNote records one exchange rate used by an estimate. Date is YYYY-MM-DD,
// empty when the lot carried no purchase date and the static fallback was
// used instead of a historical lookup.
type RateNote struct {
	From string
	To   string
	Rate decimal.Decimal
	Date string
	Live bool
}

// Estimate is the full read-time cost projection for one product. Nothing in
// it is persisted.
type Estimate struct {
	ProductID   catalog.ProductID
	ProductName string

	// Breakdown rows appear in BOM scan order, which the store does not
	// guarantee to be stable.
	Breakdown []BreakdownRow

	// Subtotals are sorted lexicographically by currency code.
	Subtotals []CurrencySubtotal

	// TotalReference is nil when no line contributed a positive
	// reference-currency amount: "nothing costed" is not the same as a
	// legitimate zero.
	TotalReference *decimal.Decimal

	Rates           []RateNote
	HasMissingCosts bool
}
