package rates

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
)

const openERAPIBaseURL = "https://open.er-api.com"

// OpenERAPI queries the free tier of ExchangeRate-API
// (https://www.exchangerate-api.com/docs/free). Second in the default chain.
type OpenERAPI struct {
	BaseURL string
	Client  *http.Client
}

func NewOpenERAPI(client *http.Client) *OpenERAPI {
	return &OpenERAPI{BaseURL: openERAPIBaseURL, Client: client}
}

func (p *OpenERAPI) Name() string { return "exchangerate-api" }

func (p *OpenERAPI) Quote(ctx context.Context, from, to string) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/v6/latest/%s", p.BaseURL, url.PathEscape(from))

	var body struct {
		Result    string                     `json:"result"`
		ErrorType string                     `json:"error-type"`
		Rates     map[string]decimal.Decimal `json:"rates"`
	}
	if err := getJSON(ctx, p.Client, endpoint, &body); err != nil {
		return decimal.Zero, err
	}

	if body.Result == "error" {
		if body.ErrorType != "" {
			return decimal.Zero, fmt.Errorf("API error: %s", body.ErrorType)
		}
		return decimal.Zero, fmt.Errorf("API error")
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
