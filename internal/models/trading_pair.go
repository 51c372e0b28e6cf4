package models

import "time"

// TradingPair is an ordered (base, quote) pair of currencies that may trade
// on several exchanges.
type TradingPair struct {
	Base
	Currency1ID string `gorm:"column:currency1_id;type:uuid;not null;uniqueIndex:uq_trading_pairs_currencies" json:"currency1_id"`
	Currency2ID string `gorm:"column:currency2_id;type:uuid;not null;uniqueIndex:uq_trading_pairs_currencies" json:"currency2_id"`

	// Relationships
	Currency1   *Currency               `gorm:"foreignKey:Currency1ID" json:"currency1,omitempty"`
	Currency2   *Currency               `gorm:"foreignKey:Currency2ID" json:"currency2,omitempty"`
	Exchanges   []Exchange              `gorm:"many2many:trading_pair_exchanges;" json:"exchanges,omitempty"`
	ExchangePKs []TradingPairExchangePK `gorm:"foreignKey:TradingPairID" json:"exchange_pks,omitempty"`
}

// TradingPairExchange is the join row of the TradingPair <-> Exchange relation.
type TradingPairExchange struct {
	TradingPairID string    `gorm:"type:uuid;primaryKey"`
	ExchangeID    string    `gorm:"type:uuid;primaryKey"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName pins the join table name shared with the many2many tag.
func (TradingPairExchange) TableName() string { return "trading_pair_exchanges" }
