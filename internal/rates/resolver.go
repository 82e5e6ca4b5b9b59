package rates

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
	"tally/internal/currency"
)

// DefaultProviderTimeout bounds each provider attempt.
const DefaultProviderTimeout = 8 * time.Second

var one = decimal.NewFromInt(1)

// Resolver tries an ordered, fixed chain of providers until one returns a
// usable rate. Attempts are sequential: the goal is the cheapest successful
// answer, not the fastest. There is no cache and no per-provider retry;
// callers needing a stable rate across a multi-step operation must resolve
// once and reuse the value.
type Resolver struct {
	providers []Provider
	timeout   time.Duration
}

// NewResolver builds a resolver over the given provider chain. A
// non-positive timeout falls back to DefaultProviderTimeout.
func NewResolver(timeout time.Duration, providers ...Provider) *Resolver {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &Resolver{providers: providers, timeout: timeout}
}

// DefaultProviders returns the standard chain in fallback order. The
// exchangerate.host adapter is appended only when an API key is supplied.
func DefaultProviders(timeout time.Duration, exchangeRateHostKey string) []Provider {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	client := &http.Client{Timeout: timeout}

	providers := []Provider{
		NewFrankfurter(client),
		NewOpenERAPI(client),
		NewFawaz(client),
	}
	if exchangeRateHostKey != "" {
		providers = append(providers, NewExchangeRateHost(client, exchangeRateHostKey))
	}
	return providers
}

// Resolve returns the live from->to rate. Identical currencies resolve to 1
// without touching the network. When every provider fails the error is a
// *core.RateUnavailableError carrying each provider's failure.
func (r *Resolver) Resolve(ctx context.Context, from, to string) (decimal.Decimal, error) {
	f := currency.Normalize(from)
	t := currency.Normalize(to)

	if f == t {
		return one, nil
	}

	var failures []core.ProviderFailure
	for _, p := range r.providers {
		attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
		rate, err := p.Quote(attemptCtx, f, t)
		cancel()

		if err == nil {
			err = validRate(rate)
		}
		if err != nil {
			slog.WarnContext(ctx, "Exchange rate provider failed",
				"provider", p.Name(),
				"from", f,
				"to", t,
				"error", err)
			failures = append(failures, core.ProviderFailure{Provider: p.Name(), Message: err.Error()})
			continue
		}

		slog.InfoContext(ctx, "Exchange rate resolved",
			"provider", p.Name(),
			"from", f,
			"to", t,
			"rate", rate.String())
		return rate, nil
	}

	slog.ErrorContext(ctx, "All exchange rate providers failed",
		"from", f,
		"to", t,
		"providers_tried", len(failures))
	return decimal.Zero, &core.RateUnavailableError{From: f, To: t, Attempts: failures}
}
