// Package exchange fetches currency and trading-pair listings from exchange
// APIs and the CoinAPI reference service, and turns each payload into typed
// raw records. No reconciliation happens here.
package exchange

import (
	"context"
	"fmt"
)

// RawCurrency is one asset as an exchange lists it.
type RawCurrency struct {
	Key      ExchangeKey
	Ticker   string `validate:"required,ticker"`
	Name     string `validate:"omitempty,max=255"`
	IsCrypto *bool
}

// RawPair is one market as an exchange lists it. BaseKey and QuoteKey are the
// exchange's currency keys, the same ones RawCurrency.Key carries.
type RawPair struct {
	Key      ExchangeKey
	BaseKey  ExchangeKey
	QuoteKey ExchangeKey
}

// Fetcher retrieves the listings of one exchange.
type Fetcher interface {
	// Name returns the exchange name as stored in the exchanges table.
	Name() string

	// FetchCurrencies returns every asset the exchange lists, deduplicated by key.
	FetchCurrencies(ctx context.Context) ([]RawCurrency, error)

	// FetchPairs returns every market the exchange lists.
	FetchPairs(ctx context.Context) ([]RawPair, error)
}

// ReferenceSource retrieves canonical asset metadata that is not tied to an
// exchange.
type ReferenceSource interface {
	Name() string
	FetchAssets(ctx context.Context) ([]RawCurrency, error)
}

// NameHinter supplies a currency name for an exchange key when the exchange
// payload itself carries none.
type NameHinter interface {
	HintName(key string) (string, bool)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Source     string
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: http %d: %s", e.Source, e.StatusCode, e.Body)
}

// APIError is returned when the exchange answers 200 but reports a failure
// in its response envelope.
type APIError struct {
	Source  string
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: api error: %s", e.Source, e.Message)
}

// dedupCurrencies keeps the first record for every key, preserving order.
func dedupCurrencies(in []RawCurrency) []RawCurrency {
	seen := make(map[string]bool, len(in))
	out := make([]RawCurrency, 0, len(in))
	for _, rc := range in {
		if seen[rc.Key.Value] {
			continue
		}
		seen[rc.Key.Value] = true
		out = append(out, rc)
	}
	return out
}
