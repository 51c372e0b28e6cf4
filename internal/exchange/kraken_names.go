package exchange

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

//go:embed kraken_asset_names.csv
var krakenAssetNamesCSV []byte

// KrakenAssetNames maps Kraken asset codes to currency names. Kraken's Assets
// endpoint publishes no names, so this table is the only name source for
// codes such as XXBT or ZUSD.
type KrakenAssetNames struct {
	names map[string]string
}

// LoadKrakenAssetNames parses the bundled asset-code table.
func LoadKrakenAssetNames() (*KrakenAssetNames, error) {
	return ParseKrakenAssetNames(bytes.NewReader(krakenAssetNamesCSV))
}

// ParseKrakenAssetNames reads an "asset_code,name" CSV with a header row.
func ParseKrakenAssetNames(r io.Reader) (*KrakenAssetNames, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read kraken asset names: %w", err)
	}

	names := make(map[string]string, len(records))
	for i, rec := range records {
		if i == 0 && strings.EqualFold(rec[0], "asset_code") {
			continue
		}
		code, name := strings.TrimSpace(rec[0]), strings.TrimSpace(rec[1])
		if code == "" || name == "" {
			continue
		}
		names[code] = name
	}
	return &KrakenAssetNames{names: names}, nil
}

// HintName returns the name for a Kraken asset code.
func (k *KrakenAssetNames) HintName(key string) (string, bool) {
	name, ok := k.names[key]
	return name, ok
}

// Len returns the number of known codes.
func (k *KrakenAssetNames) Len() int { return len(k.names) }
