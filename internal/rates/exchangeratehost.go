package rates

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
)

const exchangeRateHostBaseURL = "https://api.exchangerate.host"

// ExchangeRateHost queries exchangerate.host. It needs an API key, so it is
// only appended to the chain when one is configured.
type ExchangeRateHost struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewExchangeRateHost(client *http.Client, apiKey string) *ExchangeRateHost {
	return &ExchangeRateHost{BaseURL: exchangeRateHostBaseURL, APIKey: apiKey, Client: client}
}

func (p *ExchangeRateHost) Name() string { return "exchangerate.host" }

func (p *ExchangeRateHost) Quote(ctx context.Context, from, to string) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)
	q.Set("amount", "1")
	q.Set("access_key", p.APIKey)
	endpoint := fmt.Sprintf("%s/convert?%s", p.BaseURL, q.Encode())

	var body struct {
		Success *bool `json:"success"`
		Error   struct {
			Info string `json:"info"`
		} `json:"error"`
		Info struct {
			Rate  decimal.Decimal `json:"rate"`
			Quote decimal.Decimal `json:"quote"`
		} `json:"info"`
		Result decimal.Decimal `json:"result"`
	}
	if err := getJSON(ctx, p.Client, endpoint, &body); err != nil {
		return decimal.Zero, err
	}

	if body.Success != nil && !*body.Success {
		if body.Error.Info != "" {
			return decimal.Zero, fmt.Errorf("API error: %s", body.Error.Info)
		}
		return decimal.Zero, fmt.Errorf("API error")
	}

	rate := body.Info.Rate
	if rate.IsZero() {
		rate = body.Info.Quote
	}
	if rate.IsZero() {
		rate = body.Result
	}
	if err := validRate(rate); err != nil {
		return decimal.Zero, err
	}
	return rate, nil
}
