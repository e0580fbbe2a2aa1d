/*
resolver.go - Ordered provider chain with static last resort

PURPOSE:
  Implements the resolution algorithm: identity short-circuit, then each
  provider in order, then the static table. The chain tolerates any subset of
  providers being unavailable and guarantees a numeric rate on every call.

FAILURE POLICY:
  A provider that errors, times out, or omits the requested currency is
  logged at warn level and skipped. Nothing here ever reaches the caller as
  an error; provenance tells the caller how much to trust the rate.
*/
package fx

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a resolved exchange rate with provenance.
type Quote struct {
	Rate decimal.Decimal
	// Live is true when the rate came from an external provider, false when
	// it came from the static table. Fallback quotes are informational and
	// must be surfaced to the user, never silently trusted.
	Live bool
}

// Resolver walks an ordered provider chain and terminates with the static
// table. Stateless across calls; safe for concurrent use.
type Resolver struct {
	providers []Provider
	table     StaticTable
	log       *slog.Logger
}

// NewResolver builds a resolver over the given chain. Providers are tried in
// slice order. A nil logger defaults to slog.Default().
func NewResolver(providers []Provider, table StaticTable, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{providers: providers, table: table, log: log}
}

var one = decimal.NewFromInt(1)

// Resolve returns the rate converting 1 unit of from into to as of the given
// date. Never fails: exhausting the chain lands on the static table, which
// always answers.
func (r *Resolver) Resolve(ctx context.Context, from, to string, on time.Time) Quote {
	// Identity conversion is not a provider call.
	if from == to {
		return Quote{Rate: one, Live: true}
	}

	for _, p := range r.providers {
		providerAttempts.WithLabelValues(p.Name()).Inc()

		rates, err := p.Historical(ctx, from, on)
		if err != nil {
			providerFailures.WithLabelValues(p.Name()).Inc()
			r.log.Warn("fx provider failed",
				"provider", p.Name(),
				"base", from,
				"date", on.Format("2006-01-02"),
				"err", err)
			continue
		}

		rate, ok := rates[to]
		if !ok || !rate.IsPositive() {
			providerFailures.WithLabelValues(p.Name()).Inc()
			r.log.Warn("fx provider omitted currency",
				"provider", p.Name(),
				"base", from,
				"target", to,
				"date", on.Format("2006-01-02"))
			continue
		}

		return Quote{Rate: rate, Live: true}
	}

	fallbackResolutions.Inc()
	r.log.Warn("all fx providers failed, using static fallback",
		"base", from,
		"target", to,
		"date", on.Format("2006-01-02"))
	return r.fallback(from, to)
}

// Fallback resolves through the static table only, skipping every live
// provider. This is the bulk path: dashboard aggregation over hundreds of
// purchases trades historical-date precision for bounded latency.
func (r *Resolver) Fallback(from, to string) Quote {
	if from == to {
		return Quote{Rate: one, Live: true}
	}
	return r.fallback(from, to)
}

func (r *Resolver) fallback(from, _ string) Quote {
	return Quote{Rate: r.table.Rate(from), Live: false}
}
