package exchange

import (
	"context"
	"net/http"
)

// BinanceFetcher reads Binance's exchangeInfo. Binance has no public
// per-asset endpoint, so assets are derived from the base and quote of every
// listed symbol.
type BinanceFetcher struct {
	httpClient *http.Client
	baseURL    string
}

// NewBinanceFetcher creates a Binance fetcher. An empty baseURL uses the
// public API.
func NewBinanceFetcher(httpClient *http.Client, baseURL string) *BinanceFetcher {
	if baseURL == "" {
		baseURL = "https://api.binance.com"
	}
	return &BinanceFetcher{httpClient: httpClient, baseURL: baseURL}
}

// Name returns the exchange name.
func (f *BinanceFetcher) Name() string { return "Binance" }

type binanceExchangeInfo struct {
	Symbols []struct {
		Symbol     ExchangeKey `json:"symbol"`
		Status     string      `json:"status"`
		BaseAsset  string      `json:"baseAsset"`
		QuoteAsset string      `json:"quoteAsset"`
	} `json:"symbols"`
}

func (f *BinanceFetcher) exchangeInfo(ctx context.Context) (*binanceExchangeInfo, error) {
	var info binanceExchangeInfo
	if err := getJSON(ctx, f.httpClient, f.Name(), joinURL(f.baseURL, "/api/v1/exchangeInfo"), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// FetchCurrencies splits every symbol into its base and quote asset. The
// asset code is both the exchange key and the ticker.
func (f *BinanceFetcher) FetchCurrencies(ctx context.Context) ([]RawCurrency, error) {
	info, err := f.exchangeInfo(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]RawCurrency, 0, len(info.Symbols)*2)
	for _, s := range info.Symbols {
		out = append(out,
			RawCurrency{Key: StrKey(s.BaseAsset), Ticker: s.BaseAsset},
			RawCurrency{Key: StrKey(s.QuoteAsset), Ticker: s.QuoteAsset},
		)
	}
	return dedupCurrencies(out), nil
}

// FetchPairs returns one pair per symbol, keyed by the symbol.
func (f *BinanceFetcher) FetchPairs(ctx context.Context) ([]RawPair, error) {
	info, err := f.exchangeInfo(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]RawPair, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		out = append(out, RawPair{
			Key:      s.Symbol,
			BaseKey:  StrKey(s.BaseAsset),
			QuoteKey: StrKey(s.QuoteAsset),
		})
	}
	return out, nil
}
