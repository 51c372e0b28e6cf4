package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const binanceExchangeInfoJSON = `{
  "timezone": "UTC",
  "symbols": [
    {"symbol": "ETHBTC", "status": "TRADING", "baseAsset": "ETH", "quoteAsset": "BTC"},
    {"symbol": "LTCBTC", "status": "TRADING", "baseAsset": "LTC", "quoteAsset": "BTC"},
    {"symbol": "BQXETH", "status": "BREAK", "baseAsset": "BQX", "quoteAsset": "ETH"}
  ]
}`

func newBinanceTestServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/exchangeInfo", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestBinanceFetcher_FetchCurrencies(t *testing.T) {
	server := newBinanceTestServer(t, binanceExchangeInfoJSON, http.StatusOK)
	f := &BinanceFetcher{httpClient: server.Client(), baseURL: server.URL}

	got, err := f.FetchCurrencies(context.Background())
	require.NoError(t, err)

	tickers := make([]string, len(got))
	for i, rc := range got {
		tickers[i] = rc.Ticker
		assert.Equal(t, rc.Ticker, rc.Key.Value, "binance keys are asset codes")
		assert.Empty(t, rc.Name)
	}
	assert.Equal(t, []string{"ETH", "BTC", "LTC", "BQX"}, tickers)
}

func TestBinanceFetcher_FetchPairs(t *testing.T) {
	server := newBinanceTestServer(t, binanceExchangeInfoJSON, http.StatusOK)
	f := &BinanceFetcher{httpClient: server.Client(), baseURL: server.URL}

	got, err := f.FetchPairs(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, RawPair{Key: StrKey("ETHBTC"), BaseKey: StrKey("ETH"), QuoteKey: StrKey("BTC")}, got[0])
	assert.Equal(t, StrKey("BQXETH"), got[2].Key)
}

func TestBinanceFetcher_HTTPError(t *testing.T) {
	server := newBinanceTestServer(t, `{"code":-1003,"msg":"Too many requests"}`, http.StatusTeapot)
	f := &BinanceFetcher{httpClient: server.Client(), baseURL: server.URL}

	_, err := f.FetchCurrencies(context.Background())
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTeapot, statusErr.StatusCode)
	assert.Equal(t, "Binance", statusErr.Source)
	assert.Contains(t, statusErr.Body, "Too many requests")
}

func TestBinanceFetcher_MalformedBody(t *testing.T) {
	server := newBinanceTestServer(t, `{"symbols": [`, http.StatusOK)
	f := &BinanceFetcher{httpClient: server.Client(), baseURL: server.URL}

	_, err := f.FetchPairs(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestNewBinanceFetcher_DefaultURL(t *testing.T) {
	f := NewBinanceFetcher(http.DefaultClient, "")
	assert.Equal(t, "https://api.binance.com", f.baseURL)
	assert.Equal(t, "Binance", f.Name())
}
