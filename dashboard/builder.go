/*
builder.go - Single-pass dashboard aggregation

PURPOSE:
  Implements buildDashboard: three collection scans, day-bucketed time
  series, top-N rankings with stable tie-breaks, and a static-fallback-only
  spend normalization.

BEST-EFFORT POLICY:
  Missing or malformed fields never fail the build: documents without dates
  drop out of time series, unknown currencies default through the table,
  stale material references fall out of rankings. Only a failed collection
  scan is an error.
*/
package dashboard

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atolye/costing-engine/catalog"
	"github.com/atolye/costing-engine/fx"
)

const topN = 10

// Builder assembles dashboard snapshots. Stateless across calls; safe for
// concurrent use.
type Builder struct {
	store    catalog.Store
	resolver *fx.Resolver
	ref      string
}

// NewBuilder wires a builder. reference is the currency the spend total is
// normalized into.
func NewBuilder(store catalog.Store, resolver *fx.Resolver, reference string) *Builder {
	return &Builder{store: store, resolver: resolver, ref: reference}
}

// Build runs the aggregation pass. An empty store yields empty series and
// maps, not an error.
func (b *Builder) Build(ctx context.Context) (*Snapshot, error) {
	products, err := b.store.Products(ctx)
	if err != nil {
		return nil, err
	}
	materials, err := b.store.Materials(ctx)
	if err != nil {
		return nil, err
	}
	purchases, err := b.store.Purchases(ctx)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		TotalProducts:   len(products),
		TotalMaterials:  len(materials),
		TotalPurchases:  len(purchases),
		SpendByCurrency: make(map[string]decimal.Decimal),
	}

	snap.ProductsOverTime = countByDay(products, func(p catalog.Product) *time.Time { return p.CreatedAt })
	snap.PurchasesOverTime = countByDay(purchases, func(p catalog.Purchase) *time.Time { return p.PurchaseDate })
	snap.SpendingOverTime = spendingByDay(purchases)
	snap.MaterialsByType = materialsByType(materials)
	snap.InventoryValue = inventoryByCurrency(purchases)
	snap.TopMaterials = topMaterialsByQty(materials, purchases)
	snap.TopProducts = topProductsByCount(products)

	for _, p := range products {
		snap.TotalUnitCount += unitCount(p)
	}

	b.aggregateSpend(purchases, snap)
	return snap, nil
}

// aggregateSpend fills the per-currency spend map and the reference-currency
// total. Static fallback only: no live rate calls on this bulk path.
func (b *Builder) aggregateSpend(purchases []catalog.Purchase, snap *Snapshot) {
	noted := make(map[string]bool)
	total := decimal.Zero

	for _, p := range purchases {
		currency := currencyOf(p)
		amount := p.Amount()
		snap.SpendByCurrency[currency] = snap.SpendByCurrency[currency].Add(amount)

		if currency == b.ref {
			total = total.Add(amount)
			continue
		}

		quote := b.resolver.Fallback(currency, b.ref)
		total = total.Add(amount.Mul(quote.Rate))
		if !noted[currency] {
			noted[currency] = true
			snap.Rates = append(snap.Rates, RateNote{Currency: currency, Rate: quote.Rate})
		}
	}
	snap.TotalSpendReference = total
}

// =============================================================================
// BUCKETING
// =============================================================================

// countByDay buckets documents by calendar day (time-of-day truncated) and
// emits ascending-date labels with aligned counts. Documents without a date
// are skipped.
func countByDay[T any](docs []T, dateOf func(T) *time.Time) Series {
	counts := make(map[string]int)
	for _, d := range docs {
		if at := dateOf(d); at != nil {
			counts[at.Format("2006-01-02")]++
		}
	}

	s := Series{}
	for _, day := range sortedKeys(counts) {
		s.Labels = append(s.Labels, day)
		s.Data = append(s.Data, float64(counts[day]))
	}
	return s
}

// spendingByDay sums qty x unit cost per purchase day. Amounts in different
// currencies land in the same bucket un-normalized; a known simplification.
func spendingByDay(purchases []catalog.Purchase) Series {
	spend := make(map[string]decimal.Decimal)
	for _, p := range purchases {
		if p.PurchaseDate == nil {
			continue
		}
		day := p.PurchaseDate.Format("2006-01-02")
		spend[day] = spend[day].Add(p.Amount())
	}

	s := Series{}
	for _, day := range sortedKeys(spend) {
		s.Labels = append(s.Labels, day)
		s.Data = append(s.Data, spend[day].InexactFloat64())
	}
	return s
}

func materialsByType(materials []catalog.Material) Series {
	counts := make(map[string]int)
	var order []string
	for _, m := range materials {
		t := string(m.Type)
		if t == "" {
			t = string(catalog.MaterialOther)
		}
		if _, seen := counts[t]; !seen {
			order = append(order, t)
		}
		counts[t]++
	}

	s := Series{}
	for _, t := range order {
		s.Labels = append(s.Labels, t)
		s.Data = append(s.Data, float64(counts[t]))
	}
	return s
}

// inventoryByCurrency values what is left of each lot, grouped by currency.
// Not normalized: the point is to show holdings per currency.
func inventoryByCurrency(purchases []catalog.Purchase) Series {
	values := make(map[string]decimal.Decimal)
	var order []string
	for _, p := range purchases {
		c := currencyOf(p)
		if _, seen := values[c]; !seen {
			order = append(order, c)
		}
		values[c] = values[c].Add(p.RemainingValue())
	}

	s := Series{}
	for _, c := range order {
		s.Labels = append(s.Labels, c)
		s.Data = append(s.Data, values[c].InexactFloat64())
	}
	return s
}

// =============================================================================
// RANKINGS
// =============================================================================

type ranked struct {
	label string
	value decimal.Decimal
}

// topMaterialsByQty ranks materials by cumulative purchased quantity.
// Purchases referencing materials that no longer resolve drop out of the
// ranking. Ties keep first-encountered order (stable sort).
func topMaterialsByQty(materials []catalog.Material, purchases []catalog.Purchase) Series {
	names := make(map[catalog.MaterialID]string, len(materials))
	for _, m := range materials {
		names[m.ID] = m.Name
	}

	qty := make(map[catalog.MaterialID]decimal.Decimal)
	var order []catalog.MaterialID
	for _, p := range purchases {
		name, known := names[p.MaterialID]
		if !known || name == "" {
			continue
		}
		if _, seen := qty[p.MaterialID]; !seen {
			order = append(order, p.MaterialID)
		}
		qty[p.MaterialID] = qty[p.MaterialID].Add(p.QtyPurchased)
	}

	entries := make([]ranked, 0, len(order))
	for _, id := range order {
		entries = append(entries, ranked{label: names[id], value: qty[id]})
	}
	return rankTop(entries)
}

// topProductsByCount ranks products by cumulative unit count, grouped by
// product name.
func topProductsByCount(products []catalog.Product) Series {
	counts := make(map[string]int)
	var order []string
	for _, p := range products {
		name := p.Name
		if name == "" {
			name = "Unknown"
		}
		if _, seen := counts[name]; !seen {
			order = append(order, name)
		}
		counts[name] += unitCount(p)
	}

	entries := make([]ranked, 0, len(order))
	for _, name := range order {
		entries = append(entries, ranked{label: name, value: decimal.NewFromInt(int64(counts[name]))})
	}
	return rankTop(entries)
}

func rankTop(entries []ranked) Series {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].value.GreaterThan(entries[j].value)
	})
	if len(entries) > topN {
		entries = entries[:topN]
	}

	s := Series{}
	for _, e := range entries {
		s.Labels = append(s.Labels, e.label)
		s.Data = append(s.Data, e.value.InexactFloat64())
	}
	return s
}

// =============================================================================
// HELPERS
// =============================================================================

// currencyOf defaults documents without a currency to USD, matching how the
// back office has always read them.
func currencyOf(p catalog.Purchase) string {
	if p.Currency == "" {
		return "USD"
	}
	return p.Currency
}

// unitCount treats a document without a count as a single unit.
func unitCount(p catalog.Product) int {
	if p.Count <= 0 {
		return 1
	}
	return p.Count
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
