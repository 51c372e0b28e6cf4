package exchange

import (
	"net/http"
	"strings"

	"cryptodata/internal/config"
	apperrors "cryptodata/internal/errors"
)

// CanonicalName returns the stored spelling of a supported exchange name,
// matched case-insensitively.
func CanonicalName(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "binance":
		return "Binance", nil
	case "bittrex":
		return "Bittrex", nil
	case "kraken":
		return "Kraken", nil
	}
	return "", apperrors.WithMessage(apperrors.ErrUnknownExchange, "no fetcher for exchange "+name)
}

// New builds the fetcher for a configured exchange.
func New(cfg config.Exchange, httpClient *http.Client) (Fetcher, error) {
	name, err := CanonicalName(cfg.Name)
	if err != nil {
		return nil, err
	}
	switch name {
	case "Binance":
		return NewBinanceFetcher(httpClient, cfg.BaseURL), nil
	case "Bittrex":
		return NewBittrexFetcher(httpClient, cfg.BaseURL), nil
	default:
		return NewKrakenFetcher(httpClient, cfg.BaseURL), nil
	}
}

// Hinters returns the name hinters for exchanges whose payloads carry no
// names, keyed by exchange name.
func Hinters() (map[string]NameHinter, error) {
	kraken, err := LoadKrakenAssetNames()
	if err != nil {
		return nil, err
	}
	return map[string]NameHinter{"Kraken": kraken}, nil
}
