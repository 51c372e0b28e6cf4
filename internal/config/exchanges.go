package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Exchange configures one exchange whose listings are ingested. Exchanges
// are processed in file order.
type Exchange struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`
	Enabled *bool  `yaml:"enabled"`
}

// IsEnabled reports whether the exchange should be ingested. Entries without
// an explicit flag are enabled.
func (e Exchange) IsEnabled() bool {
	return e.Enabled == nil || *e.Enabled
}

// ExchangesFile is the document read from EXCHANGES_FILE.
type ExchangesFile struct {
	Exchanges []Exchange `yaml:"exchanges"`
}

// DefaultExchanges is used when no exchanges file is configured.
var DefaultExchanges = []Exchange{
	{Name: "Binance"},
	{Name: "Bittrex"},
	{Name: "Kraken"},
}

// LoadExchanges reads the exchange list from a YAML file, expanding ${VAR}
// references. An empty path returns DefaultExchanges.
func LoadExchanges(path string) ([]Exchange, error) {
	if path == "" {
		out := make([]Exchange, len(DefaultExchanges))
		copy(out, DefaultExchanges)
		return out, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read exchanges file: %w", err)
	}
	return ParseExchanges([]byte(os.ExpandEnv(string(data))))
}

// ParseExchanges decodes and validates an exchanges YAML document and drops
// disabled entries.
func ParseExchanges(data []byte) ([]Exchange, error) {
	var doc ExchangesFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse exchanges yaml: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("validate exchanges: %w", err)
	}

	out := make([]Exchange, 0, len(doc.Exchanges))
	for _, ex := range doc.Exchanges {
		if ex.IsEnabled() {
			ex.Name = strings.TrimSpace(ex.Name)
			out = append(out, ex)
		}
	}
	return out, nil
}

// Validate checks that every exchange has a unique, non-empty name.
func (f *ExchangesFile) Validate() error {
	if len(f.Exchanges) == 0 {
		return fmt.Errorf("at least one exchange is required")
	}
	seen := make(map[string]bool, len(f.Exchanges))
	for i, ex := range f.Exchanges {
		name := strings.TrimSpace(ex.Name)
		if name == "" {
			return fmt.Errorf("exchanges[%d]: name is required", i)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return fmt.Errorf("exchanges[%d]: duplicate exchange %q", i, name)
		}
		seen[key] = true
	}
	return nil
}

// ExchangeNames returns the names of the given exchanges in order.
func ExchangeNames(exchanges []Exchange) []string {
	names := make([]string, len(exchanges))
	for i, ex := range exchanges {
		names[i] = ex.Name
	}
	return names
}
