/*
Package dashboard builds the back-office overview in one pass.

PURPOSE:
  Scans all products, materials, and purchases once and buckets them into
  the chart series and counters the dashboard page renders: activity over
  time, spend and inventory value by currency, material/product rankings,
  and a reference-currency spend total.

KNOWN INCONSISTENCY (kept deliberately):
  The per-product cost estimate converts with historical rates fetched from
  live providers; this bulk path converts today's spend total with the
  static fallback table only. The asymmetry trades historical-date accuracy
  for bounded page-load latency over potentially hundreds of purchases. It
  is preserved for behavioral compatibility, not because it is right.

SCALING NOTE:
  Full scans with no pagination are acceptable only while document volume
  stays small. This is a flagged limit, not a design goal.

SEE ALSO:
  - builder.go: The aggregation pass
*/
package dashboard

import "github.com/shopspring/decimal"

// Series is a chart-oriented pair of parallel sequences: Labels[i] describes
// Data[i]. Time series carry YYYY-MM-DD labels sorted ascending.
type Series struct {
	Labels []string
	Data   []float64
}

// RateNote records one static fallback rate applied to the spend total.
// Exactly one note per non-reference currency used, however many purchases
// carried it.
type RateNote struct {
	Currency string
	Rate     decimal.Decimal
}

// Snapshot is the full dashboard payload. Built fresh per render, never
// cached across requests.
type Snapshot struct {
	ProductsOverTime  Series // products created per calendar day
	PurchasesOverTime Series // purchases made per calendar day
	SpendingOverTime  Series // spend per day, same-currency sums, NOT normalized
	MaterialsByType   Series
	InventoryValue    Series // remaining qty x unit cost, per currency, NOT normalized
	TopMaterials      Series // top 10 by cumulative purchased quantity
	TopProducts       Series // top 10 by cumulative unit count

	TotalProducts  int
	TotalMaterials int
	TotalPurchases int
	TotalUnitCount int

	// SpendByCurrency is the raw spend per currency; TotalSpendReference is
	// the same spend normalized into the reference currency through the
	// static fallback only.
	SpendByCurrency     map[string]decimal.Decimal
	TotalSpendReference decimal.Decimal
	Rates               []RateNote
}
