package costing_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atolye/costing-engine/catalog"
	"github.com/atolye/costing-engine/costing"
	"github.com/atolye/costing-engine/fx"
	"github.com/atolye/costing-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingProvider always answers with fixed rates and counts invocations.
type countingProvider struct {
	rates map[string]decimal.Decimal
	calls int
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Historical(_ context.Context, _ string, _ time.Time) (map[string]decimal.Decimal, error) {
	p.calls++
	return p.rates, nil
}

func tryRate(rate float64) *countingProvider {
	return &countingProvider{rates: map[string]decimal.Decimal{"TRY": decimal.NewFromFloat(rate)}}
}

func newEstimator(store catalog.Store, p fx.Provider) *costing.Estimator {
	resolver := fx.NewResolver([]fx.Provider{p}, fx.DefaultTRYTable(), quietLogger())
	return costing.NewEstimator(store, resolver, "TRY", quietLogger())
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func seedMaterial(t *testing.T, s *memory.Store, id, name string) {
	t.Helper()
	require.NoError(t, s.PutMaterial(context.Background(), catalog.Material{
		ID: catalog.MaterialID(id), Type: catalog.MaterialGemstone, Name: name, Unit: "ct",
	}))
}

func seedPurchase(t *testing.T, s *memory.Store, id, materialID string, unitCost float64, currency string, on *time.Time) {
	t.Helper()
	require.NoError(t, s.PutPurchase(context.Background(), catalog.Purchase{
		ID:           catalog.PurchaseID(id),
		MaterialID:   catalog.MaterialID(materialID),
		Supplier:     "acme",
		PurchaseDate: on,
		QtyPurchased: decimal.NewFromInt(10),
		QtyRemaining: decimal.NewFromInt(10),
		UnitCost:     decimal.NewFromFloat(unitCost),
		Currency:     currency,
	}))
}

func seedProduct(t *testing.T, s *memory.Store, id, name string) {
	t.Helper()
	require.NoError(t, s.PutProduct(context.Background(), catalog.Product{
		ID: catalog.ProductID(id), SKU: "SKU-" + id, Name: name, Count: 1,
	}))
}

func seedLine(t *testing.T, s *memory.Store, id, productID, materialID, purchaseID string, qty float64) {
	t.Helper()
	require.NoError(t, s.PutBOMLine(context.Background(), catalog.BOMLine{
		ID:          catalog.BOMLineID(id),
		ProductID:   catalog.ProductID(productID),
		MaterialID:  catalog.MaterialID(materialID),
		PurchaseID:  catalog.PurchaseID(purchaseID),
		QtyRequired: decimal.NewFromFloat(qty),
		Unit:        "ct",
	}))
}

// =============================================================================
// ESTIMATE TESTS
// =============================================================================

func TestEstimate_ProductNotFound_IsHardError(t *testing.T) {
	s := memory.New()
	e := newEstimator(s, tryRate(30))

	_, err := e.Estimate(context.Background(), "missing")

	assert.True(t, catalog.IsNotFound(err))
}

func TestEstimate_MixedCurrenciesWithMissingLot(t *testing.T) {
	// GIVEN: Product P with three BOM lines
	//   A: 2 ct of M1 via a lot at 100 USD/ct
	//   B: 3 g of M2 via a lot at 50 TRY/g
	//   C: 5 ct of M3 pinned to a lot that no longer exists
	// WHEN: Estimating with USD->TRY at 35 on A's purchase date
	// THEN: 3 rows (A priced, B priced, C unpriced with warning),
	//       subtotals [TRY 150, USD 200], missing-cost flag set,
	//       reference total 150 + 200*35

	s := memory.New()
	seedProduct(t, s, "p1", "Ring")
	seedMaterial(t, s, "m1", "Diamond")
	seedMaterial(t, s, "m2", "Gold")
	seedMaterial(t, s, "m3", "Sapphire")
	seedPurchase(t, s, "lot-a", "m1", 100, "USD", date(2024, time.March, 1))
	seedPurchase(t, s, "lot-b", "m2", 50, "TRY", date(2024, time.April, 2))
	seedLine(t, s, "line-a", "p1", "m1", "lot-a", 2)
	seedLine(t, s, "line-b", "p1", "m2", "lot-b", 3)
	seedLine(t, s, "line-c", "p1", "m3", "lot-gone", 5)

	p := tryRate(35)
	est, err := newEstimator(s, p).Estimate(context.Background(), "p1")
	require.NoError(t, err)

	require.Len(t, est.Breakdown, 3)

	rowA := est.Breakdown[0]
	assert.True(t, rowA.HasCost)
	assert.Equal(t, "Diamond", rowA.MaterialName)
	assert.Equal(t, "200", rowA.LineTotal.String())
	assert.Equal(t, "7000", rowA.LineTotalRef.String())

	rowB := est.Breakdown[1]
	assert.True(t, rowB.HasCost)
	assert.Equal(t, "150", rowB.LineTotal.String())
	assert.Equal(t, "150", rowB.LineTotalRef.String(), "reference-currency lines convert 1:1")

	rowC := est.Breakdown[2]
	assert.False(t, rowC.HasCost)
	assert.Equal(t, costing.WarningNoPurchase, rowC.Warning)
	assert.Nil(t, rowC.UnitCost)
	assert.Nil(t, rowC.LineTotal)
	assert.Nil(t, rowC.LineTotalRef)

	require.Len(t, est.Subtotals, 2)
	assert.Equal(t, "TRY", est.Subtotals[0].Currency)
	assert.Equal(t, "150", est.Subtotals[0].Total.String())
	assert.Equal(t, "USD", est.Subtotals[1].Currency)
	assert.Equal(t, "200", est.Subtotals[1].Total.String())

	assert.True(t, est.HasMissingCosts)
	require.NotNil(t, est.TotalReference)
	assert.Equal(t, "7150", est.TotalReference.String())

	require.Len(t, est.Rates, 1)
	assert.Equal(t, "USD", est.Rates[0].From)
	assert.Equal(t, "TRY", est.Rates[0].To)
	assert.Equal(t, "2024-03-01", est.Rates[0].Date)
	assert.True(t, est.Rates[0].Live)
}

func TestEstimate_AllReferenceCurrency_ResolverNeverInvoked(t *testing.T) {
	// GIVEN: Every BOM line priced in the reference currency
	// THEN: No provider call, reference total equals the raw sum

	s := memory.New()
	seedProduct(t, s, "p1", "Bracelet")
	seedMaterial(t, s, "m1", "Silver")
	seedPurchase(t, s, "lot-1", "m1", 20, "TRY", date(2024, time.May, 1))
	seedPurchase(t, s, "lot-2", "m1", 25, "TRY", date(2024, time.June, 1))
	seedLine(t, s, "line-1", "p1", "m1", "lot-1", 4)
	seedLine(t, s, "line-2", "p1", "m1", "lot-2", 2)

	p := tryRate(35)
	est, err := newEstimator(s, p).Estimate(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, 0, p.calls, "reference-currency lines need no resolution")
	require.NotNil(t, est.TotalReference)
	assert.Equal(t, "130", est.TotalReference.String())
	assert.Empty(t, est.Rates)
	assert.False(t, est.HasMissingCosts)
}

func TestEstimate_NoPricedLines_TotalIsNilNotZero(t *testing.T) {
	// GIVEN: A product whose only line has no resolvable lot
	// THEN: The reference total is nil, distinguishing "nothing costed"
	//       from a legitimate zero

	s := memory.New()
	seedProduct(t, s, "p1", "Pendant")
	seedMaterial(t, s, "m1", "Opal")
	seedLine(t, s, "line-1", "p1", "m1", "lot-gone", 1)

	est, err := newEstimator(s, tryRate(30)).Estimate(context.Background(), "p1")
	require.NoError(t, err)

	assert.Nil(t, est.TotalReference)
	assert.True(t, est.HasMissingCosts)
	assert.Empty(t, est.Subtotals)
}

func TestEstimate_SharedCurrencyDatePair_ResolvedOnce(t *testing.T) {
	// GIVEN: Four lines pinned to lots sharing one (currency, date) pair
	// THEN: The provider is invoked exactly once, and one rate note emitted

	s := memory.New()
	seedProduct(t, s, "p1", "Tiara")
	seedMaterial(t, s, "m1", "Ruby")
	on := date(2024, time.July, 4)
	for _, id := range []string{"lot-1", "lot-2", "lot-3", "lot-4"} {
		seedPurchase(t, s, id, "m1", 10, "USD", on)
	}
	seedLine(t, s, "line-1", "p1", "m1", "lot-1", 1)
	seedLine(t, s, "line-2", "p1", "m1", "lot-2", 1)
	seedLine(t, s, "line-3", "p1", "m1", "lot-3", 1)
	seedLine(t, s, "line-4", "p1", "m1", "lot-4", 1)

	p := tryRate(30)
	est, err := newEstimator(s, p).Estimate(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, 1, p.calls, "one resolution per distinct (currency, date) pair")
	assert.Len(t, est.Rates, 1)
}

func TestEstimate_DistinctDatesSameCurrency_ResolvedPerDate(t *testing.T) {
	// GIVEN: Two USD lots bought on different dates
	// THEN: Each date resolves separately, preserving per-line date accuracy

	s := memory.New()
	seedProduct(t, s, "p1", "Brooch")
	seedMaterial(t, s, "m1", "Emerald")
	seedPurchase(t, s, "lot-1", "m1", 10, "USD", date(2024, time.January, 1))
	seedPurchase(t, s, "lot-2", "m1", 10, "USD", date(2024, time.February, 1))
	seedLine(t, s, "line-1", "p1", "m1", "lot-1", 1)
	seedLine(t, s, "line-2", "p1", "m1", "lot-2", 1)

	p := tryRate(30)
	est, err := newEstimator(s, p).Estimate(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, 2, p.calls)
	assert.Len(t, est.Rates, 2)
}

func TestEstimate_StaleMaterialReference_DegradesToUnknown(t *testing.T) {
	// GIVEN: A line whose material id no longer resolves but whose lot does
	// THEN: The row is priced under the "Unknown" placeholder

	s := memory.New()
	seedProduct(t, s, "p1", "Chain")
	seedPurchase(t, s, "lot-1", "m-gone", 5, "TRY", date(2024, time.March, 3))
	seedLine(t, s, "line-1", "p1", "m-gone", "lot-1", 2)

	est, err := newEstimator(s, tryRate(30)).Estimate(context.Background(), "p1")
	require.NoError(t, err)

	require.Len(t, est.Breakdown, 1)
	assert.Equal(t, "Unknown", est.Breakdown[0].MaterialName)
	assert.True(t, est.Breakdown[0].HasCost)
	assert.Equal(t, "10", est.Breakdown[0].LineTotal.String())
}

func TestEstimate_LotWithoutPurchaseDate_UsesStaticFallback(t *testing.T) {
	// GIVEN: A USD lot with no purchase date
	// THEN: The static table converts it and the note carries fallback
	//       provenance with an empty date

	s := memory.New()
	seedProduct(t, s, "p1", "Earring")
	seedMaterial(t, s, "m1", "Pearl")
	seedPurchase(t, s, "lot-1", "m1", 10, "USD", nil)
	seedLine(t, s, "line-1", "p1", "m1", "lot-1", 1)

	p := tryRate(99)
	est, err := newEstimator(s, p).Estimate(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, 0, p.calls, "no historical lookup without a date")
	require.Len(t, est.Rates, 1)
	assert.False(t, est.Rates[0].Live)
	assert.Equal(t, "", est.Rates[0].Date)
	require.NotNil(t, est.TotalReference)
	assert.Equal(t, "300", est.TotalReference.String())
}

func TestEstimate_EmptyBOM_SucceedsWithEmptyBreakdown(t *testing.T) {
	s := memory.New()
	seedProduct(t, s, "p1", "Bare")

	est, err := newEstimator(s, tryRate(30)).Estimate(context.Background(), "p1")
	require.NoError(t, err)

	assert.Empty(t, est.Breakdown)
	assert.Nil(t, est.TotalReference)
	assert.False(t, est.HasMissingCosts)
}

func TestEstimate_CanceledContext_Aborts(t *testing.T) {
	s := memory.New()
	seedProduct(t, s, "p1", "Ring")
	seedMaterial(t, s, "m1", "Gold")
	seedPurchase(t, s, "lot-1", "m1", 10, "TRY", date(2024, time.March, 1))
	seedLine(t, s, "line-1", "p1", "m1", "lot-1", 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newEstimator(s, tryRate(30)).Estimate(ctx, "p1")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestEstimate_CurrencySubtotals_SortedByCode(t *testing.T) {
	// GIVEN: Lines in EUR, USD, and GBP
	// THEN: Subtotals come back in lexicographic currency order

	s := memory.New()
	seedProduct(t, s, "p1", "Set")
	seedMaterial(t, s, "m1", "Mixed")
	seedPurchase(t, s, "lot-usd", "m1", 1, "USD", date(2024, time.March, 1))
	seedPurchase(t, s, "lot-eur", "m1", 1, "EUR", date(2024, time.March, 1))
	seedPurchase(t, s, "lot-gbp", "m1", 1, "GBP", date(2024, time.March, 1))
	seedLine(t, s, "l1", "p1", "m1", "lot-usd", 1)
	seedLine(t, s, "l2", "p1", "m1", "lot-eur", 1)
	seedLine(t, s, "l3", "p1", "m1", "lot-gbp", 1)

	est, err := newEstimator(s, tryRate(30)).Estimate(context.Background(), "p1")
	require.NoError(t, err)

	require.Len(t, est.Subtotals, 3)
	assert.Equal(t, "EUR", est.Subtotals[0].Currency)
	assert.Equal(t, "GBP", est.Subtotals[1].Currency)
	assert.Equal(t, "USD", est.Subtotals[2].Currency)
}
