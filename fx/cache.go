/*
cache.go - Request-scoped quote memoization

PURPOSE:
  Bounds external calls within one aggregation to the number of distinct
  (currency, date) pairs actually present, not the number of BOM lines.
  A cache lives for exactly one aggregation call and is never shared, which
  kills duplicate lookups without introducing cross-request staleness.
*/
package fx

import (
	"context"
	"time"
)

type cacheKey struct {
	currency string
	date     string // YYYY-MM-DD, empty when the source document had no date
}

// QuoteCache memoizes resolutions into a fixed target currency, keyed by
// (source currency, date). Not safe for concurrent use; create one per
// aggregation call.
type QuoteCache struct {
	resolver *Resolver
	target   string
	quotes   map[cacheKey]Quote
}

// NewQuoteCache creates an empty cache resolving into target.
func NewQuoteCache(resolver *Resolver, target string) *QuoteCache {
	return &QuoteCache{
		resolver: resolver,
		target:   target,
		quotes:   make(map[cacheKey]Quote),
	}
}

// Quote resolves (from -> target) as of on, memoized. fresh is true on the
// first lookup of a (currency, date) pair, so callers can record each rate
// note exactly once.
//
// A nil date means the source document carried no usable date; those resolve
// through the static fallback, since a historical lookup without a date is
// meaningless.
func (c *QuoteCache) Quote(ctx context.Context, from string, on *time.Time) (q Quote, fresh bool) {
	k := cacheKey{currency: from}
	if on != nil {
		k.date = on.Format("2006-01-02")
	}

	if q, ok := c.quotes[k]; ok {
		return q, false
	}

	if on == nil {
		q = c.resolver.Fallback(from, c.target)
	} else {
		q = c.resolver.Resolve(ctx, from, c.target, *on)
	}
	c.quotes[k] = q
	return q, true
}

// Len reports how many distinct (currency, date) pairs have been resolved.
func (c *QuoteCache) Len() int { return len(c.quotes) }
