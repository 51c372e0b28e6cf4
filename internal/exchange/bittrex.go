package exchange

import (
	"context"
	"net/http"
)

// BittrexFetcher reads the Bittrex v1.1 public API.
type BittrexFetcher struct {
	httpClient *http.Client
	baseURL    string
}

// NewBittrexFetcher creates a Bittrex fetcher. An empty baseURL uses the
// public API.
func NewBittrexFetcher(httpClient *http.Client, baseURL string) *BittrexFetcher {
	if baseURL == "" {
		baseURL = "https://api.bittrex.com"
	}
	return &BittrexFetcher{httpClient: httpClient, baseURL: baseURL}
}

// Name returns the exchange name.
func (f *BittrexFetcher) Name() string { return "Bittrex" }

type bittrexEnvelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Result  []T    `json:"result"`
}

type bittrexCurrency struct {
	Currency     ExchangeKey `json:"Currency"`
	CurrencyLong string      `json:"CurrencyLong"`
	IsActive     bool        `json:"IsActive"`
}

type bittrexMarket struct {
	MarketName     ExchangeKey `json:"MarketName"`
	MarketCurrency ExchangeKey `json:"MarketCurrency"`
	BaseCurrency   ExchangeKey `json:"BaseCurrency"`
	IsActive       bool        `json:"IsActive"`
}

func fetchBittrex[T any](ctx context.Context, f *BittrexFetcher, path string) ([]T, error) {
	var env bittrexEnvelope[T]
	if err := getJSON(ctx, f.httpClient, f.Name(), joinURL(f.baseURL, path), nil, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, &APIError{Source: f.Name(), Message: env.Message}
	}
	return env.Result, nil
}

// FetchCurrencies returns every Bittrex currency; Bittrex supplies the full
// name, so no lookup is needed downstream.
func (f *BittrexFetcher) FetchCurrencies(ctx context.Context) ([]RawCurrency, error) {
	result, err := fetchBittrex[bittrexCurrency](ctx, f, "/api/v1.1/public/getcurrencies")
	if err != nil {
		return nil, err
	}

	out := make([]RawCurrency, 0, len(result))
	for _, c := range result {
		out = append(out, RawCurrency{
			Key:    c.Currency,
			Ticker: c.Currency.Value,
			Name:   c.CurrencyLong,
		})
	}
	return dedupCurrencies(out), nil
}

// FetchPairs returns every Bittrex market. Bittrex names markets QUOTE-BASE
// ("BTC-LTC"); MarketCurrency is the traded (base) asset.
func (f *BittrexFetcher) FetchPairs(ctx context.Context) ([]RawPair, error) {
	result, err := fetchBittrex[bittrexMarket](ctx, f, "/api/v1.1/public/getmarkets")
	if err != nil {
		return nil, err
	}

	out := make([]RawPair, 0, len(result))
	for _, m := range result {
		out = append(out, RawPair{
			Key:      m.MarketName,
			BaseKey:  m.MarketCurrency,
			QuoteKey: m.BaseCurrency,
		})
	}
	return out, nil
}
