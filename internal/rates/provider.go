// Package rates resolves live exchange rates from an ordered chain of
// external providers. Every call hits the network; rates are deliberately
// never cached, since a stale rate could silently corrupt monetary data.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/shopspring/decimal"
)

// Provider quotes a single from->to exchange rate. Implementations must
// return a strictly positive rate or an error; they must not retry.
type Provider interface {
	Name() string
	Quote(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// getJSON issues a GET with JSON accept headers and decodes a 2xx response
// body into v. Non-2xx responses become errors carrying the status and a
// truncated body excerpt.
func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(excerpt))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// validRate rejects zero and negative quotes.
func validRate(rate decimal.Decimal) error {
	if rate.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("invalid rate in response: %s", rate)
	}
	return nil
}
