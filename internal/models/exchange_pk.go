package models

// KeyType records whether an exchange key was a string or an integer in the
// exchange's own payload.
type KeyType string

const (
	KeyTypeStr KeyType = "STR"
	KeyTypeInt KeyType = "INT"
)

// Valid reports whether k is a known key type.
func (k KeyType) Valid() bool {
	return k == KeyTypeStr || k == KeyTypeInt
}

// CurrencyExchangePK maps the identifier an exchange uses for an asset back
// to the canonical currency. Keys are unique per exchange.
type CurrencyExchangePK struct {
	Base
	ExchangeID string  `gorm:"type:uuid;not null;uniqueIndex:uq_currency_exchange_pks_exchange_key" json:"exchange_id"`
	Key        string  `gorm:"not null;uniqueIndex:uq_currency_exchange_pks_exchange_key" json:"key"`
	KeyType    KeyType `gorm:"not null" json:"key_type"`
	CurrencyID string  `gorm:"type:uuid;not null;index" json:"currency_id"`

	Exchange *Exchange `gorm:"foreignKey:ExchangeID" json:"exchange,omitempty"`
}

// TableName returns the database table name.
func (CurrencyExchangePK) TableName() string { return "currency_exchange_pks" }

// TradingPairExchangePK maps the identifier an exchange uses for a market
// back to the canonical trading pair. Keys are unique per exchange.
type TradingPairExchangePK struct {
	Base
	ExchangeID    string  `gorm:"type:uuid;not null;uniqueIndex:uq_trading_pair_exchange_pks_exchange_key" json:"exchange_id"`
	Key           string  `gorm:"not null;uniqueIndex:uq_trading_pair_exchange_pks_exchange_key" json:"key"`
	KeyType       KeyType `gorm:"not null" json:"key_type"`
	TradingPairID string  `gorm:"type:uuid;not null;index" json:"trading_pair_id"`

	Exchange *Exchange `gorm:"foreignKey:ExchangeID" json:"exchange,omitempty"`
}

// TableName returns the database table name.
func (TradingPairExchangePK) TableName() string { return "trading_pair_exchange_pks" }
