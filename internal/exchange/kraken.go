package exchange

import (
	"context"
	"net/http"
	"sort"
	"strings"
)

// KrakenFetcher reads the Kraken public REST API. Kraken keys assets by its
// own codes (XXBT, ZUSD) and publishes the common ticker as "altname".
type KrakenFetcher struct {
	httpClient *http.Client
	baseURL    string
}

// NewKrakenFetcher creates a Kraken fetcher. An empty baseURL uses the
// public API.
func NewKrakenFetcher(httpClient *http.Client, baseURL string) *KrakenFetcher {
	if baseURL == "" {
		baseURL = "https://api.kraken.com"
	}
	return &KrakenFetcher{httpClient: httpClient, baseURL: baseURL}
}

// Name returns the exchange name.
func (f *KrakenFetcher) Name() string { return "Kraken" }

type krakenEnvelope[T any] struct {
	Error  []string     `json:"error"`
	Result map[string]T `json:"result"`
}

type krakenAsset struct {
	Altname string `json:"altname"`
	Aclass  string `json:"aclass"`
}

type krakenAssetPair struct {
	Altname string `json:"altname"`
	Base    string `json:"base"`
	Quote   string `json:"quote"`
}

func fetchKraken[T any](ctx context.Context, f *KrakenFetcher, path string) (map[string]T, []string, error) {
	var env krakenEnvelope[T]
	if err := getJSON(ctx, f.httpClient, f.Name(), joinURL(f.baseURL, path), nil, &env); err != nil {
		return nil, nil, err
	}
	if len(env.Error) > 0 {
		return nil, nil, &APIError{Source: f.Name(), Message: strings.Join(env.Error, "; ")}
	}

	keys := make([]string, 0, len(env.Result))
	for k := range env.Result {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return env.Result, keys, nil
}

// FetchCurrencies returns every Kraken asset keyed by Kraken's asset code.
// Names are left empty; KrakenAssetNames supplies them downstream.
func (f *KrakenFetcher) FetchCurrencies(ctx context.Context) ([]RawCurrency, error) {
	assets, keys, err := fetchKraken[krakenAsset](ctx, f, "/0/public/Assets")
	if err != nil {
		return nil, err
	}

	out := make([]RawCurrency, 0, len(keys))
	for _, k := range keys {
		ticker := assets[k].Altname
		if ticker == "" {
			ticker = k
		}
		out = append(out, RawCurrency{Key: StrKey(k), Ticker: ticker})
	}
	return out, nil
}

// FetchPairs returns every Kraken asset pair keyed by the pair code; base and
// quote are asset codes.
func (f *KrakenFetcher) FetchPairs(ctx context.Context) ([]RawPair, error) {
	pairs, keys, err := fetchKraken[krakenAssetPair](ctx, f, "/0/public/AssetPairs")
	if err != nil {
		return nil, err
	}

	out := make([]RawPair, 0, len(keys))
	for _, k := range keys {
		p := pairs[k]
		out = append(out, RawPair{
			Key:      StrKey(k),
			BaseKey:  StrKey(p.Base),
			QuoteKey: StrKey(p.Quote),
		})
	}
	return out, nil
}
