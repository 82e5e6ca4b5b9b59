package rates

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
)

const frankfurterBaseURL = "https://api.frankfurter.app"

// Frankfurter queries the free, keyless Frankfurter API
// (https://www.frankfurter.app/docs/). First in the default chain.
type Frankfurter struct {
	BaseURL string
	Client  *http.Client
}

func NewFrankfurter(client *http.Client) *Frankfurter {
	return &Frankfurter{BaseURL: frankfurterBaseURL, Client: client}
}

func (p *Frankfurter) Name() string { return "frankfurter" }

func (p *Frankfurter) Quote(ctx context.Context, from, to string) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/latest?from=%s&to=%s", p.BaseURL, url.QueryEscape(from), url.QueryEscape(to))

	var body struct {
		Rates map[string]decimal.Decimal `json:"rates"`
	}
	if err := getJSON(ctx, p.Client, endpoint, &body); err != nil {
		return decimal.Zero, err
	}

	rate, ok := body.Rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("no rate for %s in response", to)
	}
	if err := validRate(rate); err != nil {
		return decimal.Zero, err
	}
	return rate, nil
}
