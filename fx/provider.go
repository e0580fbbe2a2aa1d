/*
Package fx resolves historical foreign-exchange rates.

PURPOSE:
  Given (source currency, target currency, date), produce a rate and its
  provenance. Historical FX data has no single reliable free source, so the
  resolver walks an ordered chain of external providers and terminates with a
  static reference table that always succeeds. Resolution never fails.

KEY CONCEPTS:
  - Provider: one external historical-rate source, queried with (base, date),
    answering a map of target-currency-code -> rate
  - Resolver: the ordered chain plus the static last resort
  - Quote: a rate with a provenance flag (live provider vs. static table)
  - QuoteCache: request-scoped memo that bounds external calls to the number
    of distinct (currency, date) pairs in one aggregation

PROVENANCE:
  Quotes with Live=false come from the static table. The table is a business
  fallback, intentionally approximate; callers surface the flag to users and
  never silently trust fallback rates for financial reporting.

SEE ALSO:
  - resolver.go: The chain algorithm
  - static.go: The fallback table
  - cache.go: Per-call memoization
*/
package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PROVIDER - One external historical-rate source
// =============================================================================

// Provider is a single historical-FX source. Historical returns every rate
// the source knows for base on the given date. Any failure mode (transport,
// non-200, malformed payload) is an error; the resolver treats errors and
// missing target currencies identically: skip and try the next provider.
type Provider interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Historical returns target-currency-code -> rate for 1 unit of base on
	// the given date.
	Historical(ctx context.Context, base string, on time.Time) (map[string]decimal.Decimal, error)
}

// =============================================================================
// HTTP PROVIDERS - The free historical-rate endpoints
// =============================================================================

// urlStyle describes how a provider encodes (base, date) into a request.
type urlStyle int

const (
	// stylePath: GET {base-url}/{BASE}/{date}, e.g. exchangerate-api.com's
	// /v4/historical/USD/2024-03-01.
	stylePath urlStyle = iota
	// styleQuery: GET {base-url}/{date}?base={BASE}, e.g. exchangerate.host
	// and fixer.io. These payloads carry a "success" field that must be true.
	styleQuery
)

// HTTPProvider queries one free historical-FX endpoint. Each provider owns
// its client so one slow endpoint cannot hold up the next attempt beyond its
// own timeout.
type HTTPProvider struct {
	name    string
	baseURL string
	style   urlStyle
	needsOK bool
	client  *http.Client
}

// ratesPayload is the common response shape of the free endpoints.
type ratesPayload struct {
	Success *bool                      `json:"success,omitempty"`
	Rates   map[string]decimal.Decimal `json:"rates"`
}

// NewExchangeRateAPI targets api.exchangerate-api.com's historical endpoint.
// Pass the base URL up to and including /v4/historical.
func NewExchangeRateAPI(baseURL string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		name:    "exchangerate-api.com",
		baseURL: baseURL,
		style:   stylePath,
		client:  &http.Client{Timeout: timeout},
	}
}

// NewExchangeRateHost targets api.exchangerate.host.
func NewExchangeRateHost(baseURL string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		name:    "exchangerate.host",
		baseURL: baseURL,
		style:   styleQuery,
		needsOK: true,
		client:  &http.Client{Timeout: timeout},
	}
}

// NewFixer targets api.fixer.io's date endpoint.
func NewFixer(baseURL string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		name:    "fixer.io",
		baseURL: baseURL,
		style:   styleQuery,
		needsOK: true,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) Name() string { return p.name }

// Historical fetches all rates for base on the given date. The request
// inherits the caller's context, so caller cancellation propagates even
// though each attempt also has its own client timeout.
func (p *HTTPProvider) Historical(ctx context.Context, base string, on time.Time) (map[string]decimal.Decimal, error) {
	date := on.Format("2006-01-02")

	var url string
	switch p.style {
	case stylePath:
		url = fmt.Sprintf("%s/%s/%s", p.baseURL, base, date)
	default:
		url = fmt.Sprintf("%s/%s?base=%s", p.baseURL, date, base)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d", p.name, resp.StatusCode)
	}

	var payload ratesPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%s: malformed payload: %w", p.name, err)
	}
	if p.needsOK && (payload.Success == nil || !*payload.Success) {
		return nil, fmt.Errorf("%s: payload reports failure", p.name)
	}
	if payload.Rates == nil {
		return nil, fmt.Errorf("%s: payload has no rates", p.name)
	}
	return payload.Rates, nil
}
