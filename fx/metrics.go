package fx

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Provider health is the one part of the resolver worth watching in
// production: a rising fallback count means estimates are silently running
// on approximate rates.
var (
	providerAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fx_provider_attempts_total",
		Help: "Historical-rate lookups attempted, per provider.",
	}, []string{"provider"})

	providerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fx_provider_failures_total",
		Help: "Historical-rate lookups that were skipped, per provider.",
	}, []string{"provider"})

	fallbackResolutions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fx_fallback_resolutions_total",
		Help: "Resolutions answered by the static table after all providers failed.",
	})
)
