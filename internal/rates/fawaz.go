package rates

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	fawazPrimaryBaseURL  = "https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api@latest"
	fawazFallbackBaseURL = "https://latest.currency-api.pages.dev"
)

// Fawaz queries the CDN-backed keyless currency API
// (https://github.com/fawazahmed0/currency-api). The dataset is published on
// two hosts; the fallback host is tried when the primary CDN fails. That is
// a host fallback inside one provider, not a retry.
type Fawaz struct {
	PrimaryBaseURL  string
	FallbackBaseURL string
	Client          *http.Client
}

func NewFawaz(client *http.Client) *Fawaz {
	return &Fawaz{
		PrimaryBaseURL:  fawazPrimaryBaseURL,
		FallbackBaseURL: fawazFallbackBaseURL,
		Client:          client,
	}
}

func (p *Fawaz) Name() string { return "fawaz" }

func (p *Fawaz) Quote(ctx context.Context, from, to string) (decimal.Decimal, error) {
	f := strings.ToLower(from)
	t := strings.ToLower(to)

	rate, primaryErr := p.quoteFromHost(ctx, p.PrimaryBaseURL, f, t)
	if primaryErr == nil {
		return rate, nil
	}

	rate, fallbackErr := p.quoteFromHost(ctx, p.FallbackBaseURL, f, t)
	if fallbackErr == nil {
		return rate, nil
	}
	return decimal.Zero, fmt.Errorf("primary: %v; fallback: %w", primaryErr, fallbackErr)
}

func (p *Fawaz) quoteFromHost(ctx context.Context, baseURL, from, to string) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/v1/currencies/%s.json", baseURL, from)

	// Payload shape: {"date": "...", "<from>": {"<to>": rate, ...}}
	var body map[string]map[string]decimal.Decimal
	if err := getJSON(ctx, p.Client, endpoint, &body); err != nil {
		return decimal.Zero, err
	}

	rate, ok := body[from][to]
	if !ok {
		return decimal.Zero, fmt.Errorf("no rate for %s in response", to)
	}
	if err := validRate(rate); err != nil {
		return decimal.Zero, err
	}
	return rate, nil
}
