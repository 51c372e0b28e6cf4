package models

// All lists every model in dependency order, for AutoMigrate in tests and
// for table-by-table resets (reversed).
func All() []interface{} {
	return []interface{}{
		&Exchange{},
		&Currency{},
		&CurrencyExchange{},
		&TickerSymbol{},
		&CurrencyExchangePK{},
		&TradingPair{},
		&TradingPairExchange{},
		&TradingPairExchangePK{},
		&IngestRun{},
	}
}
