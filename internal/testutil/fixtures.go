package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"cryptodata/internal/models"

	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }

// CreateTestExchange creates an exchange with the given name.
func CreateTestExchange(t *testing.T, db *gorm.DB, name string) *models.Exchange {
	t.Helper()

	exchange := &models.Exchange{Name: name}
	if err := db.Create(exchange).Error; err != nil {
		t.Fatalf("failed to create test exchange: %v", err)
	}
	return exchange
}

// CreateTestCurrency creates a crypto currency with a unique name.
func CreateTestCurrency(t *testing.T, db *gorm.DB) *models.Currency {
	t.Helper()
	return CreateTestCurrencyWithName(t, db, fmt.Sprintf("Test Coin %d", nextID()))
}

// CreateTestCurrencyWithName creates a crypto currency with the given name.
func CreateTestCurrencyWithName(t *testing.T, db *gorm.DB, name string) *models.Currency {
	t.Helper()

	currency := &models.Currency{Name: name, TypeIsCrypto: BoolPtr(true)}
	if err := db.Create(currency).Error; err != nil {
		t.Fatalf("failed to create test currency: %v", err)
	}
	return currency
}

// CreateTestTicker assigns a ticker symbol to a currency.
func CreateTestTicker(t *testing.T, db *gorm.DB, currencyID, symbol string) *models.TickerSymbol {
	t.Helper()

	ticker := &models.TickerSymbol{Symbol: symbol, CurrencyID: currencyID}
	if err := db.Create(ticker).Error; err != nil {
		t.Fatalf("failed to create test ticker: %v", err)
	}
	return ticker
}

// ListTestCurrency lists a currency on an exchange under key, writing both
// the join row and the exchange key row.
func ListTestCurrency(t *testing.T, db *gorm.DB, currencyID, exchangeID, key string) *models.CurrencyExchangePK {
	t.Helper()

	link := &models.CurrencyExchange{CurrencyID: currencyID, ExchangeID: exchangeID}
	if err := db.Create(link).Error; err != nil {
		t.Fatalf("failed to link test currency: %v", err)
	}
	return CreateTestCurrencyPK(t, db, currencyID, exchangeID, key)
}

// CreateTestCurrencyPK creates only the exchange key row, without the join
// row.
func CreateTestCurrencyPK(t *testing.T, db *gorm.DB, currencyID, exchangeID, key string) *models.CurrencyExchangePK {
	t.Helper()

	pk := &models.CurrencyExchangePK{
		ExchangeID: exchangeID,
		Key:        key,
		KeyType:    models.KeyTypeStr,
		CurrencyID: currencyID,
	}
	if err := db.Create(pk).Error; err != nil {
		t.Fatalf("failed to create test currency key: %v", err)
	}
	return pk
}

// CreateTestTradingPair creates a (currency1, currency2) pair.
func CreateTestTradingPair(t *testing.T, db *gorm.DB, currency1ID, currency2ID string) *models.TradingPair {
	t.Helper()

	pair := &models.TradingPair{Currency1ID: currency1ID, Currency2ID: currency2ID}
	if err := db.Create(pair).Error; err != nil {
		t.Fatalf("failed to create test trading pair: %v", err)
	}
	return pair
}

// ListTestTradingPair lists a pair on an exchange under key.
func ListTestTradingPair(t *testing.T, db *gorm.DB, pairID, exchangeID, key string) *models.TradingPairExchangePK {
	t.Helper()

	link := &models.TradingPairExchange{TradingPairID: pairID, ExchangeID: exchangeID}
	if err := db.Create(link).Error; err != nil {
		t.Fatalf("failed to link test trading pair: %v", err)
	}

	pk := &models.TradingPairExchangePK{
		ExchangeID:    exchangeID,
		Key:           key,
		KeyType:       models.KeyTypeStr,
		TradingPairID: pairID,
	}
	if err := db.Create(pk).Error; err != nil {
		t.Fatalf("failed to create test trading pair key: %v", err)
	}
	return pk
}

// CreateTestIngestRun creates a finished ingest run.
func CreateTestIngestRun(t *testing.T, db *gorm.DB, kind, source string, status models.IngestStatus) *models.IngestRun {
	t.Helper()

	finished := time.Now().UTC()
	run := &models.IngestRun{
		Kind:       kind,
		Source:     source,
		Status:     status,
		Seen:       10,
		Created:    4,
		StartedAt:  finished.Add(-time.Minute),
		FinishedAt: &finished,
	}
	if err := db.Create(run).Error; err != nil {
		t.Fatalf("failed to create test ingest run: %v", err)
	}
	return run
}
