package services

import (
	"gorm.io/gorm"

	"cryptodata/internal/models"
	"cryptodata/internal/pagination"
)

// Methods that take a tx *gorm.DB run on that transaction; a nil tx uses the
// service's own connection.

// ExchangeServicer defines the contract for exchange rows.
type ExchangeServicer interface {
	EnsureExchange(name string) (*models.Exchange, error)
	GetExchangeByName(name string) (*models.Exchange, error)
	ListAllExchanges() ([]models.Exchange, error)
	ListExchanges(page pagination.PageRequest) (*pagination.PageResponse[ExchangeSummary], error)
}

// ExchangeSummary is an exchange with the number of entities linked to it.
type ExchangeSummary struct {
	models.Exchange
	CurrencyCount    int64 `json:"currency_count"`
	TradingPairCount int64 `json:"trading_pair_count"`
}

// CurrencyFilter holds optional filters for listing currencies.
type CurrencyFilter struct {
	Exchange string
	Search   string
}

// CurrencyServicer defines the contract for currencies, their ticker symbols
// and their exchange keys.
type CurrencyServicer interface {
	FindByExchangeKey(tx *gorm.DB, exchangeID, key string) (*models.Currency, error)
	FindByTicker(tx *gorm.DB, symbol string) (*models.Currency, error)
	FindByName(tx *gorm.DB, name string) (*models.Currency, error)
	FindOrCreateByName(tx *gorm.DB, name string, typeIsCrypto *bool) (*models.Currency, bool, error)
	LinkExchange(tx *gorm.DB, currencyID, exchangeID string) (bool, error)
	EnsureExchangePK(tx *gorm.DB, currencyID, exchangeID, key string, keyType models.KeyType) (bool, error)
	EnsureTickerSymbol(tx *gorm.DB, currencyID, symbol string) (bool, error)
	GetCurrencyByID(id string) (*models.Currency, error)
	ListCurrencies(page pagination.PageRequest, filter CurrencyFilter) (*pagination.PageResponse[models.Currency], error)
}

// TradingPairFilter holds optional filters for listing trading pairs.
type TradingPairFilter struct {
	Exchange string
}

// TradingPairServicer defines the contract for trading pairs and their
// exchange keys.
type TradingPairServicer interface {
	FindExchangePK(tx *gorm.DB, exchangeID, key string) (*models.TradingPairExchangePK, error)
	FindOrCreatePair(tx *gorm.DB, currency1ID, currency2ID string) (*models.TradingPair, bool, error)
	LinkExchange(tx *gorm.DB, pairID, exchangeID string) (bool, error)
	CreateExchangePK(tx *gorm.DB, pairID, exchangeID, key string, keyType models.KeyType) error
	GetTradingPairByID(id string) (*models.TradingPair, error)
	ListTradingPairs(page pagination.PageRequest, filter TradingPairFilter) (*pagination.PageResponse[models.TradingPair], error)
}

// RunCounts are the counters stored on an IngestRun.
type RunCounts struct {
	Seen           int
	Created        int
	PKsCreated     int
	TickersCreated int
	Linked         int
	Skipped        int
	Invalid        int
	Unresolved     int
	Conflicts      int
	Existing       int
}

// IngestRunServicer defines the contract for the ingest audit trail.
type IngestRunServicer interface {
	StartRun(kind, source string) *models.IngestRun
	FinishRun(run *models.IngestRun, counts RunCounts, runErr error)
	ListRuns(page pagination.PageRequest, kind string) (*pagination.PageResponse[models.IngestRun], error)
}

// DatasetCounts are the row counts of the reconciled tables.
type DatasetCounts struct {
	Exchanges              int64 `json:"exchanges"`
	Currencies             int64 `json:"currencies"`
	TickerSymbols          int64 `json:"ticker_symbols"`
	CurrencyExchangePKs    int64 `json:"currency_exchange_pks"`
	TradingPairs           int64 `json:"trading_pairs"`
	TradingPairExchangePKs int64 `json:"trading_pair_exchange_pks"`
}

// Membership lists, by exchange ID, how an entity is tied to exchanges: via
// the many-to-many join rows and via exchange key rows.
type Membership struct {
	Linked []string
	Keyed  []string
}

// DatasetServicer defines the contract for whole-dataset operations used by
// the verifier and the reset flag.
type DatasetServicer interface {
	Reset() error
	Counts() (*DatasetCounts, error)
	CurrencyMemberships() (map[string]*Membership, error)
	TradingPairMemberships() (map[string]*Membership, error)
}
