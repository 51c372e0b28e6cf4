package models

import "time"

// Currency is the canonical asset that exchange listings are reconciled to.
// TypeIsCrypto is nil while the type is unknown.
type Currency struct {
	Base
	Name         string `gorm:"not null;uniqueIndex:uq_currencies_name" json:"name"`
	TypeIsCrypto *bool  `json:"type_is_crypto"`

	// Relationships
	Exchanges     []Exchange           `gorm:"many2many:currency_exchanges;" json:"exchanges,omitempty"`
	TickerSymbols []TickerSymbol       `gorm:"foreignKey:CurrencyID" json:"ticker_symbols,omitempty"`
	ExchangePKs   []CurrencyExchangePK `gorm:"foreignKey:CurrencyID" json:"exchange_pks,omitempty"`
}

// CurrencyExchange is the join row of the Currency <-> Exchange relation.
type CurrencyExchange struct {
	CurrencyID string    `gorm:"type:uuid;primaryKey"`
	ExchangeID string    `gorm:"type:uuid;primaryKey"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName pins the join table name shared with the many2many tag.
func (CurrencyExchange) TableName() string { return "currency_exchanges" }

// TickerSymbol maps a short code such as "BTC" to exactly one currency.
type TickerSymbol struct {
	Base
	Symbol     string `gorm:"not null;uniqueIndex:uq_ticker_symbols_symbol" json:"symbol"`
	CurrencyID string `gorm:"type:uuid;not null;index" json:"currency_id"`
}
