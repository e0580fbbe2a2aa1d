package fx_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/atolye/costing-engine/fx"
)

func TestQuoteCache_OneResolutionPerCurrencyDatePair(t *testing.T) {
	// GIVEN: A cache over a counting provider
	// WHEN: The same (currency, date) pair is requested three times
	// THEN: The provider is called exactly once

	p := &stubProvider{name: "p1", rates: rates(map[string]float64{"TRY": 30})}
	r := fx.NewResolver([]fx.Provider{p}, fx.DefaultTRYTable(), quietLogger())
	cache := fx.NewQuoteCache(r, "TRY")

	on := anyDate()
	_, fresh1 := cache.Quote(context.Background(), "USD", &on)
	_, fresh2 := cache.Quote(context.Background(), "USD", &on)
	_, fresh3 := cache.Quote(context.Background(), "USD", &on)

	assert.Equal(t, 1, p.calls)
	assert.True(t, fresh1, "first lookup is fresh")
	assert.False(t, fresh2)
	assert.False(t, fresh3)
	assert.Equal(t, 1, cache.Len())
}

func TestQuoteCache_DistinctDatesResolveSeparately(t *testing.T) {
	// GIVEN: Two lookups for the same currency on different dates
	// THEN: Each date is its own cache entry and provider call

	p := &stubProvider{name: "p1", rates: rates(map[string]float64{"TRY": 30})}
	r := fx.NewResolver([]fx.Provider{p}, fx.DefaultTRYTable(), quietLogger())
	cache := fx.NewQuoteCache(r, "TRY")

	d1 := anyDate()
	d2 := d1.AddDate(0, 0, 1)
	cache.Quote(context.Background(), "USD", &d1)
	cache.Quote(context.Background(), "USD", &d2)

	assert.Equal(t, 2, p.calls)
	assert.Equal(t, 2, cache.Len())
}

func TestQuoteCache_NilDateUsesStaticFallback(t *testing.T) {
	// GIVEN: A lookup with no usable date
	// THEN: No provider call; the static table answers with Live=false

	p := &stubProvider{name: "p1", rates: rates(map[string]float64{"TRY": 99})}
	r := fx.NewResolver([]fx.Provider{p}, fx.DefaultTRYTable(), quietLogger())
	cache := fx.NewQuoteCache(r, "TRY")

	q, fresh := cache.Quote(context.Background(), "EUR", nil)

	assert.Equal(t, 0, p.calls)
	assert.True(t, fresh)
	assert.False(t, q.Live)
	assert.True(t, q.Rate.Equal(decimal.NewFromInt(33)))
}
