package rates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/core"
)

type fakeProvider struct {
	name  string
	rate  decimal.Decimal
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Quote(ctx context.Context, from, to string) (decimal.Decimal, error) {
	f.calls++
	if f.err != nil {
		return decimal.Zero, f.err
	}
	return f.rate, nil
}

func TestResolver_SameCurrencySkipsProviders(t *testing.T) {
	p := &fakeProvider{name: "a", rate: decimal.NewFromFloat(1.5)}
	r := NewResolver(time.Second, p)

	rate, err := r.Resolve(context.Background(), "usd", " USD ")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)), "rate = %s", rate)
	assert.Zero(t, p.calls, "no provider should be called for identical currencies")
}

func TestResolver_FallbackToThirdProvider(t *testing.T) {
	first := &fakeProvider{name: "first", err: errors.New("timeout")}
	second := &fakeProvider{name: "second", err: errors.New("HTTP 503")}
	third := &fakeProvider{name: "third", rate: decimal.NewFromFloat(1.08)}

	r := NewResolver(time.Second, first, second, third)

	rate, err := r.Resolve(context.Background(), "USD", "EUR")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromFloat(1.08)), "rate = %s", rate)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, 1, third.calls)
}

func TestResolver_FirstSuccessShortCircuits(t *testing.T) {
	first := &fakeProvider{name: "first", rate: decimal.NewFromFloat(0.92)}
	second := &fakeProvider{name: "second", rate: decimal.NewFromFloat(99)}

	r := NewResolver(time.Second, first, second)

	rate, err := r.Resolve(context.Background(), "USD", "EUR")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromFloat(0.92)))
	assert.Zero(t, second.calls, "later providers must not be queried after a success")
}

func TestResolver_NonPositiveRateTreatedAsFailure(t *testing.T) {
	bad := &fakeProvider{name: "bad", rate: decimal.Zero}
	good := &fakeProvider{name: "good", rate: decimal.NewFromFloat(2.5)}

	r := NewResolver(time.Second, bad, good)

	rate, err := r.Resolve(context.Background(), "USD", "NGN")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromFloat(2.5)))
	assert.Equal(t, 1, bad.calls)
}

func TestResolver_AllProvidersExhausted(t *testing.T) {
	first := &fakeProvider{name: "first", err: errors.New("connection refused")}
	second := &fakeProvider{name: "second", err: errors.New("invalid rate in response")}

	r := NewResolver(time.Second, first, second)

	_, err := r.Resolve(context.Background(), "USD", "EUR")
	require.Error(t, err)

	var rateErr *core.RateUnavailableError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, "USD", rateErr.From)
	assert.Equal(t, "EUR", rateErr.To)
	require.Len(t, rateErr.Attempts, 2)
	assert.Equal(t, "first", rateErr.Attempts[0].Provider)
	assert.Equal(t, "connection refused", rateErr.Attempts[0].Message)
	assert.Equal(t, "second", rateErr.Attempts[1].Provider)
}

func TestResolver_NoProvidersConfigured(t *testing.T) {
	r := NewResolver(time.Second)

	_, err := r.Resolve(context.Background(), "USD", "EUR")
	var rateErr *core.RateUnavailableError
	require.ErrorAs(t, err, &rateErr)
	assert.Empty(t, rateErr.Attempts)
}

func TestDefaultProviders(t *testing.T) {
	t.Run("without api key", func(t *testing.T) {
		providers := DefaultProviders(0, "")
		require.Len(t, providers, 3)
		assert.Equal(t, "frankfurter", providers[0].Name())
		assert.Equal(t, "exchangerate-api", providers[1].Name())
		assert.Equal(t, "fawaz", providers[2].Name())
	})

	t.Run("with api key", func(t *testing.T) {
		providers := DefaultProviders(0, "secret")
		require.Len(t, providers, 4)
		assert.Equal(t, "exchangerate.host", providers[3].Name())
	})
}
