/*
estimator.go - BOM cost aggregation

PURPOSE:
  Implements estimateCost: load the product, scan its BOM, price each line
  from its pinned lot, and accumulate per-currency subtotals plus a
  reference-currency total converted line by line.

WHY LINE-BY-LINE CONVERSION:
  Two lines in the same currency may point at lots bought on different
  dates, so they convert at different historical rates. Converting a summed
  subtotal would collapse those dates into one.

CALL BOUNDS:
  Rate lookups go through a request-scoped fx.QuoteCache, so external calls
  are bounded by the number of distinct (currency, date) pairs in the BOM,
  not the number of lines.
*/
package costing

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atolye/costing-engine/catalog"
	"github.com/atolye/costing-engine/fx"
)

// WarningNoPurchase marks a breakdown row whose BOM line had no resolvable
// pinned purchase.
const WarningNoPurchase = "no purchase specified for this material"

// Estimator computes read-time cost estimates. Stateless across calls; safe
// for concurrent use.
type Estimator struct {
	store    catalog.Store
	resolver *fx.Resolver
	ref      string // reference currency, e.g. "TRY"
	log      *slog.Logger
}

// NewEstimator wires an estimator. reference is the currency every total is
// normalized into. A nil logger defaults to slog.Default().
func NewEstimator(store catalog.Store, resolver *fx.Resolver, reference string, log *slog.Logger) *Estimator {
	if log == nil {
		log = slog.Default()
	}
	return &Estimator{store: store, resolver: resolver, ref: reference, log: log}
}

// Estimate builds the cost estimate for one product. The only hard failures
// are a missing product (catalog.ErrNotFound), a failed BOM scan, and caller
// cancellation; every per-line anomaly is absorbed into the result.
func (e *Estimator) Estimate(ctx context.Context, id catalog.ProductID) (*Estimate, error) {
	product, err := e.store.Product(ctx, id)
	if err != nil {
		return nil, err
	}

	lines, err := e.store.BOMForProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	est := &Estimate{ProductID: id, ProductName: product.Name}
	cache := fx.NewQuoteCache(e.resolver, e.ref)
	subtotals := make(map[string]decimal.Decimal)
	total := decimal.Zero

	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row := BreakdownRow{
			MaterialID:   line.MaterialID,
			MaterialName: e.materialName(ctx, line.MaterialID),
			QtyRequired:  line.QtyRequired,
			Unit:         line.Unit,
		}

		purchase := e.pinnedPurchase(ctx, line.PurchaseID)
		if purchase == nil {
			row.Warning = WarningNoPurchase
			est.HasMissingCosts = true
			est.Breakdown = append(est.Breakdown, row)
			continue
		}

		unitCost := purchase.UnitCost
		currency := purchase.Currency
		lineTotal := line.QtyRequired.Mul(unitCost)

		row.HasCost = true
		row.UnitCost = &unitCost
		row.Currency = &currency
		row.LineTotal = &lineTotal

		subtotals[currency] = subtotals[currency].Add(lineTotal)

		refTotal := lineTotal
		if currency != e.ref {
			quote, fresh := cache.Quote(ctx, currency, purchase.PurchaseDate)
			if fresh {
				est.Rates = append(est.Rates, rateNote(currency, e.ref, purchase.PurchaseDate, quote))
			}
			refTotal = lineTotal.Mul(quote.Rate)
		}
		row.LineTotalRef = &refTotal
		total = total.Add(refTotal)

		est.Breakdown = append(est.Breakdown, row)
	}

	est.Subtotals = sortedSubtotals(subtotals)
	if total.IsPositive() {
		est.TotalReference = &total
	}
	return est, nil
}

// materialName resolves the line's material for display. A stale reference
// degrades to a placeholder, never aborts the estimate.
func (e *Estimator) materialName(ctx context.Context, id catalog.MaterialID) string {
	if id == "" {
		return "Unknown"
	}
	m, err := e.store.Material(ctx, id)
	if err != nil {
		if !catalog.IsNotFound(err) {
			e.log.Warn("material lookup failed", "material_id", id, "err", err)
		}
		return "Unknown"
	}
	if m.Name == "" {
		return "Unknown"
	}
	return m.Name
}

// pinnedPurchase resolves a BOM line's lot. Absent ids, stale references, and
// read failures all yield nil: the line stays in the breakdown, unpriced.
func (e *Estimator) pinnedPurchase(ctx context.Context, id catalog.PurchaseID) *catalog.Purchase {
	if id == "" {
		return nil
	}
	p, err := e.store.Purchase(ctx, id)
	if err != nil {
		if !catalog.IsNotFound(err) {
			e.log.Warn("purchase lookup failed", "purchase_id", id, "err", err)
		}
		return nil
	}
	return p
}

func rateNote(from, to string, on *time.Time, q fx.Quote) RateNote {
	n := RateNote{From: from, To: to, Rate: q.Rate, Live: q.Live}
	if on != nil {
		n.Date = on.Format("2006-01-02")
	}
	return n
}

func sortedSubtotals(m map[string]decimal.Decimal) []CurrencySubtotal {
	if len(m) == 0 {
		return nil
	}
	out := make([]CurrencySubtotal, 0, len(m))
	for currency, total := range m {
		out = append(out, CurrencySubtotal{Currency: currency, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}
