package exchange

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"cryptodata/internal/models"
)

// ExchangeKey is an exchange's own identifier for an asset or market,
// together with the JSON type it had in the payload.
type ExchangeKey struct {
	Value string         `validate:"required,max=64"`
	Type  models.KeyType `validate:"key_type"`
}

// StrKey returns a string-typed key.
func StrKey(v string) ExchangeKey {
	return ExchangeKey{Value: v, Type: models.KeyTypeStr}
}

// IntKey returns an integer-typed key.
func IntKey(v int64) ExchangeKey {
	return ExchangeKey{Value: strconv.FormatInt(v, 10), Type: models.KeyTypeInt}
}

// String returns the key value.
func (k ExchangeKey) String() string { return k.Value }

// KeyFromAny classifies a decoded JSON value as a string or integer key.
// Anything else (floats, bools, null, objects) is rejected.
func KeyFromAny(v any) (ExchangeKey, error) {
	switch t := v.(type) {
	case string:
		return StrKey(t), nil
	case int:
		return IntKey(int64(t)), nil
	case int64:
		return IntKey(t), nil
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return ExchangeKey{}, fmt.Errorf("exchange key %q is not an integer", t.String())
		}
		return IntKey(n), nil
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) {
			return ExchangeKey{}, fmt.Errorf("exchange key %v is not an integer", t)
		}
		if t < -1<<63 || t >= 1<<63 {
			return ExchangeKey{}, fmt.Errorf("exchange key %v overflows int64", t)
		}
		return IntKey(int64(t)), nil
	default:
		return ExchangeKey{}, fmt.Errorf("exchange key has unsupported type %T", v)
	}
}

// UnmarshalJSON accepts a JSON string or integer.
func (k *ExchangeKey) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	key, err := KeyFromAny(v)
	if err != nil {
		return err
	}
	*k = key
	return nil
}
