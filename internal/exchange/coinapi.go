package exchange

import (
	"context"
	"net/http"
	"strings"
)

// CoinAPISource reads the CoinAPI asset list, used as the reference for
// canonical currency names and types.
type CoinAPISource struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewCoinAPISource creates a CoinAPI client. An empty baseURL uses the
// public REST endpoint.
func NewCoinAPISource(httpClient *http.Client, baseURL, apiKey string) *CoinAPISource {
	if baseURL == "" {
		baseURL = "https://rest.coinapi.io"
	}
	return &CoinAPISource{httpClient: httpClient, baseURL: baseURL, apiKey: apiKey}
}

// Name returns the source name.
func (s *CoinAPISource) Name() string { return "CoinAPI" }

type coinAPIAsset struct {
	AssetID      string `json:"asset_id"`
	Name         string `json:"name"`
	TypeIsCrypto *int   `json:"type_is_crypto"`
}

// FetchAssets returns every named CoinAPI asset. The asset id is used as both
// key and ticker.
func (s *CoinAPISource) FetchAssets(ctx context.Context) ([]RawCurrency, error) {
	var assets []coinAPIAsset
	headers := map[string]string{"X-CoinAPI-Key": s.apiKey}
	if err := getJSON(ctx, s.httpClient, s.Name(), joinURL(s.baseURL, "/v1/assets"), headers, &assets); err != nil {
		return nil, err
	}

	out := make([]RawCurrency, 0, len(assets))
	for _, a := range assets {
		name := strings.TrimSpace(a.Name)
		if name == "" || a.AssetID == "" {
			continue
		}
		rc := RawCurrency{Key: StrKey(a.AssetID), Ticker: a.AssetID, Name: name}
		if a.TypeIsCrypto != nil {
			isCrypto := *a.TypeIsCrypto == 1
			rc.IsCrypto = &isCrypto
		}
		out = append(out, rc)
	}
	return dedupCurrencies(out), nil
}
