package exchange

import (
	"encoding/json"
	"testing"

	"cryptodata/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFromAny(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    ExchangeKey
		wantErr bool
	}{
		{name: "string", in: "XXBT", want: ExchangeKey{Value: "XXBT", Type: models.KeyTypeStr}},
		{name: "int", in: 42, want: ExchangeKey{Value: "42", Type: models.KeyTypeInt}},
		{name: "int64", in: int64(7), want: ExchangeKey{Value: "7", Type: models.KeyTypeInt}},
		{name: "json number", in: json.Number("1001"), want: ExchangeKey{Value: "1001", Type: models.KeyTypeInt}},
		{name: "integral float", in: float64(3), want: ExchangeKey{Value: "3", Type: models.KeyTypeInt}},
		{name: "fractional float", in: 3.5, wantErr: true},
		{name: "float above int64", in: float64(1e20), wantErr: true},
		{name: "float at int64 limit", in: float64(1 << 63), wantErr: true},
		{name: "float below int64", in: -1e19, wantErr: true},
		{name: "min int64 float", in: float64(-1 << 63), want: ExchangeKey{Value: "-9223372036854775808", Type: models.KeyTypeInt}},
		{name: "json number overflow", in: json.Number("100000000000000000000"), wantErr: true},
		{name: "fractional json number", in: json.Number("1.5"), wantErr: true},
		{name: "bool", in: true, wantErr: true},
		{name: "nil", in: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := KeyFromAny(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExchangeKey_UnmarshalJSON(t *testing.T) {
	var payload struct {
		A ExchangeKey `json:"a"`
		B ExchangeKey `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"BTC-LTC","b":12}`), &payload))

	assert.Equal(t, StrKey("BTC-LTC"), payload.A)
	assert.Equal(t, IntKey(12), payload.B)

	var bad struct {
		K ExchangeKey `json:"k"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"k":{"x":1}}`), &bad))
}
