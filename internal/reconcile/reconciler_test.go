package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "cryptodata/internal/errors"
	"cryptodata/internal/exchange"
	"cryptodata/internal/models"
	"cryptodata/internal/resolve"
	"cryptodata/internal/services"
	"cryptodata/internal/testutil"
)

type mapHinter map[string]string

func (m mapHinter) HintName(key string) (string, bool) {
	name, ok := m[key]
	return name, ok
}

type scriptedPrompter struct {
	names map[string]string
	types map[string]bool
}

func (p *scriptedPrompter) AskCurrencyName(_ context.Context, _ string, rc exchange.RawCurrency) (string, error) {
	if name, ok := p.names[rc.Ticker]; ok {
		return name, nil
	}
	return "", apperrors.ErrUnresolvedName
}

func (p *scriptedPrompter) AskCurrencyType(_ context.Context, name string) (*bool, error) {
	if t, ok := p.types[name]; ok {
		return &t, nil
	}
	return nil, apperrors.ErrUnknownType
}

type fixture struct {
	db         *gorm.DB
	rec        *Reconciler
	currencies services.CurrencyServicer
	exchanges  services.ExchangeServicer
}

func newFixture(t *testing.T, prompter resolve.Prompter) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	exchanges := services.NewExchangeService(db)
	currencies := services.NewCurrencyService(db)
	pairs := services.NewTradingPairService(db)
	hints := map[string]exchange.NameHinter{
		"Kraken": mapHinter{"XXBT": "Bitcoin", "XXDG": "Dogecoin", "ZUSD": "US Dollar"},
	}
	resolver, err := resolve.New(currencies, hints, prompter, 64)
	require.NoError(t, err)

	return &fixture{
		db:         db,
		rec:        New(db, exchanges, currencies, pairs, resolver),
		currencies: currencies,
		exchanges:  exchanges,
	}
}

func str(key, ticker, name string) exchange.RawCurrency {
	return exchange.RawCurrency{Key: exchange.StrKey(key), Ticker: ticker, Name: name}
}

func pair(key, base, quote string) exchange.RawPair {
	return exchange.RawPair{Key: exchange.StrKey(key), BaseKey: exchange.StrKey(base), QuoteKey: exchange.StrKey(quote)}
}

func (f *fixture) syncAllCurrencies(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	_, err := f.rec.SyncCurrencies(ctx, "Bittrex", []exchange.RawCurrency{
		str("BTC", "BTC", "Bitcoin"),
		str("DOGE", "DOGE", "Dogecoin"),
		str("USD", "USD", "US Dollar"),
	})
	require.NoError(t, err)

	_, err = f.rec.SyncCurrencies(ctx, "Kraken", []exchange.RawCurrency{
		str("XXBT", "XBT", ""),
		str("XXDG", "XDG", ""),
		str("ZUSD", "USD", ""),
	})
	require.NoError(t, err)
}

func TestSyncCurrencies_CrossExchangeIdentity(t *testing.T) {
	f := newFixture(t, nil)
	f.syncAllCurrencies(t)

	stats, err := f.rec.SyncCurrencies(context.Background(), "Binance", []exchange.RawCurrency{
		str("BTC", "BTC", ""),
		str("DOGE", "DOGE", ""),
		str("BQX", "BQX", ""),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Seen)
	assert.Equal(t, 0, stats.Created, "binance only lists known currencies")
	assert.Equal(t, 2, stats.PKsCreated)
	assert.Equal(t, 2, stats.Linked)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Unresolved)

	testutil.AssertCount(t, f.db, &models.Currency{}, 3)
	testutil.AssertCount(t, f.db, &models.CurrencyExchangePK{}, 8)

	btc, err := f.currencies.FindByName(nil, "Bitcoin")
	require.NoError(t, err)
	detail, err := f.currencies.GetCurrencyByID(btc.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Exchanges, 3)
	assert.Len(t, detail.ExchangePKs, 3)

	symbols := make([]string, 0, len(detail.TickerSymbols))
	for _, ts := range detail.TickerSymbols {
		symbols = append(symbols, ts.Symbol)
	}
	assert.ElementsMatch(t, []string{"BTC", "XBT"}, symbols)

	var all []models.Currency
	require.NoError(t, f.db.Find(&all).Error)
	for _, c := range all {
		testutil.AssertCurrencyMirrored(t, f.db, c.ID)
	}
}

func TestSyncCurrencies_Idempotent(t *testing.T) {
	f := newFixture(t, nil)
	f.syncAllCurrencies(t)

	stats, err := f.rec.SyncCurrencies(context.Background(), "Kraken", []exchange.RawCurrency{
		str("XXBT", "XBT", ""),
		str("XXDG", "XDG", ""),
		str("ZUSD", "USD", ""),
	})
	require.NoError(t, err)

	assert.Equal(t, Stats{Seen: 3}, stats)
	testutil.AssertCount(t, f.db, &models.CurrencyExchange{}, 6)
}

func TestSyncCurrencies_ExchangeKeyWins(t *testing.T) {
	f := newFixture(t, nil)
	f.syncAllCurrencies(t)

	// Kraken now claims XXBT is named differently; the stored key decides.
	stats, err := f.rec.SyncCurrencies(context.Background(), "Kraken", []exchange.RawCurrency{
		str("XXBT", "XBT", "Bitcoin Renamed"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Created)

	_, err = f.currencies.FindByName(nil, "Bitcoin Renamed")
	assert.ErrorIs(t, err, apperrors.ErrCurrencyNotFound)
}

func TestSyncCurrencies_KnownTickerBeatsPayloadName(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.rec.SyncCurrencies(ctx, "Bittrex", []exchange.RawCurrency{str("BTC", "BTC", "Bitcoin")})
	require.NoError(t, err)

	stats, err := f.rec.SyncCurrencies(ctx, "Kraken", []exchange.RawCurrency{str("XBTC", "BTC", "Bitcoin (Kraken)")})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Created)
	assert.Equal(t, 1, stats.PKsCreated)
	assert.Equal(t, 0, stats.TickersCreated)

	btc, err := f.currencies.FindByExchangeKey(nil, mustExchange(t, f, "Kraken").ID, "XBTC")
	require.NoError(t, err)
	assert.Equal(t, "Bitcoin", btc.Name)
	testutil.AssertCount(t, f.db, &models.Currency{}, 1)
}

func mustExchange(t *testing.T, f *fixture, name string) *models.Exchange {
	t.Helper()
	ex, err := f.exchanges.GetExchangeByName(name)
	require.NoError(t, err)
	return ex
}

func TestSyncCurrencies_InvalidRecords(t *testing.T) {
	f := newFixture(t, nil)

	stats, err := f.rec.SyncCurrencies(context.Background(), "Bittrex", []exchange.RawCurrency{
		str("BTC", "", "Bitcoin"),
		str("", "ETH", "Ethereum"),
		{Key: exchange.ExchangeKey{Value: "LTC", Type: "HEX"}, Ticker: "LTC", Name: "Litecoin"},
		str("BAD", "BAD TICKER", "Bad"),
		str("XMR", "XMR", "Monero"),
	})
	require.NoError(t, err)

	assert.Equal(t, 5, stats.Seen)
	assert.Equal(t, 4, stats.Invalid)
	assert.Equal(t, 4, stats.Skipped)
	assert.Equal(t, 1, stats.Created)
}

func TestSyncCurrencies_SoftDeletedNameIsSkipped(t *testing.T) {
	f := newFixture(t, nil)
	tezos := testutil.CreateTestCurrencyWithName(t, f.db, "Tezos")
	require.NoError(t, f.db.Delete(&models.Currency{}, "id = ?", tezos.ID).Error)

	stats, err := f.rec.SyncCurrencies(context.Background(), "Bittrex", []exchange.RawCurrency{
		str("XTZ", "XTZ", "Tezos"),
		str("BTC", "BTC", "Bitcoin"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Seen)
	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Conflicts)
	testutil.AssertCount(t, f.db, &models.CurrencyExchangePK{}, 1)
}

func TestSyncCurrencies_IntegerKeys(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.rec.SyncCurrencies(context.Background(), "Bittrex", []exchange.RawCurrency{
		{Key: exchange.IntKey(1001), Ticker: "BTC", Name: "Bitcoin"},
	})
	require.NoError(t, err)

	var pk models.CurrencyExchangePK
	require.NoError(t, f.db.First(&pk).Error)
	assert.Equal(t, "1001", pk.Key)
	assert.Equal(t, models.KeyTypeInt, pk.KeyType)
}

func TestSyncCurrencies_Interactive(t *testing.T) {
	prompter := &scriptedPrompter{
		names: map[string]string{"ETH": "Ethereum"},
		types: map[string]bool{"Ethereum": true},
	}
	f := newFixture(t, prompter)

	stats, err := f.rec.SyncCurrencies(context.Background(), "Binance", []exchange.RawCurrency{
		str("ETH", "ETH", ""),
		str("QQQ", "QQQ", ""),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 1, stats.Unresolved)

	eth, err := f.currencies.FindByTicker(nil, "ETH")
	require.NoError(t, err)
	assert.Equal(t, "Ethereum", eth.Name)
	require.NotNil(t, eth.TypeIsCrypto)
	assert.True(t, *eth.TypeIsCrypto)
}

func TestSyncCurrencies_NonInteractiveLeavesTypeUnknown(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.rec.SyncCurrencies(context.Background(), "Bittrex", []exchange.RawCurrency{str("BTC", "BTC", "Bitcoin")})
	require.NoError(t, err)

	btc, err := f.currencies.FindByName(nil, "Bitcoin")
	require.NoError(t, err)
	assert.Nil(t, btc.TypeIsCrypto)
}

func TestSyncCurrencies_Cancelled(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := f.rec.SyncCurrencies(ctx, "Bittrex", []exchange.RawCurrency{str("BTC", "BTC", "Bitcoin")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, stats.Seen)
}

func TestSyncPairs(t *testing.T) {
	f := newFixture(t, nil)
	f.syncAllCurrencies(t)
	ctx := context.Background()

	stats, err := f.rec.SyncPairs(ctx, "Kraken", []exchange.RawPair{
		pair("XXBTZUSD", "XXBT", "ZUSD"),
		pair("XXDGXXBT", "XXDG", "XXBT"),
		pair("XETHZUSD", "XETH", "ZUSD"),
		pair("XXBTXXBT", "XXBT", "XXBT"),
	})
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Seen)
	assert.Equal(t, 2, stats.Created)
	assert.Equal(t, 2, stats.PKsCreated)
	assert.Equal(t, 2, stats.Linked)
	assert.Equal(t, 1, stats.Unresolved)
	assert.Equal(t, 1, stats.Invalid)
	assert.Equal(t, 2, stats.Skipped)

	// the same market on Bittrex reuses the pair
	stats, err = f.rec.SyncPairs(ctx, "Bittrex", []exchange.RawPair{pair("USD-BTC", "BTC", "USD")})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Created)
	assert.Equal(t, 1, stats.PKsCreated)

	testutil.AssertCount(t, f.db, &models.TradingPair{}, 2)

	var pairs []models.TradingPair
	require.NoError(t, f.db.Find(&pairs).Error)
	for _, p := range pairs {
		testutil.AssertTradingPairMirrored(t, f.db, p.ID)
	}

	// rerun is a no-op
	stats, err = f.rec.SyncPairs(ctx, "Bittrex", []exchange.RawPair{pair("USD-BTC", "BTC", "USD")})
	require.NoError(t, err)
	assert.Equal(t, Stats{Seen: 1}, stats)
}

func TestSyncPairs_KeyConflictIsNotRewritten(t *testing.T) {
	f := newFixture(t, nil)
	f.syncAllCurrencies(t)
	ctx := context.Background()

	_, err := f.rec.SyncPairs(ctx, "Kraken", []exchange.RawPair{pair("XXBTZUSD", "XXBT", "ZUSD")})
	require.NoError(t, err)

	stats, err := f.rec.SyncPairs(ctx, "Kraken", []exchange.RawPair{pair("XXBTZUSD", "XXDG", "ZUSD")})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Conflicts)
	assert.Equal(t, 1, stats.Skipped)

	// the conflicting transaction rolled back, so no DOGE/USD pair exists
	testutil.AssertCount(t, f.db, &models.TradingPair{}, 1)

	ex, err := f.exchanges.GetExchangeByName("Kraken")
	require.NoError(t, err)
	var pk models.TradingPairExchangePK
	require.NoError(t, f.db.Where("exchange_id = ?", ex.ID).First(&pk).Error)
	var p models.TradingPair
	require.NoError(t, f.db.First(&p, "id = ?", pk.TradingPairID).Error)

	btc, err := f.currencies.FindByName(nil, "Bitcoin")
	require.NoError(t, err)
	assert.Equal(t, btc.ID, p.Currency1ID)
}

func TestSyncPairs_UnknownExchange(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.rec.SyncPairs(context.Background(), "Kraken", []exchange.RawPair{pair("XXBTZUSD", "XXBT", "ZUSD")})
	testutil.AssertAppError(t, err, "EXCHANGE_NOT_FOUND")
}

func TestSyncReferenceAssets(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.rec.SyncCurrencies(ctx, "Bittrex", []exchange.RawCurrency{str("BTC", "BTC", "Bitcoin")})
	require.NoError(t, err)

	isCrypto, isFiat := true, false
	stats, err := f.rec.SyncReferenceAssets(ctx, []exchange.RawCurrency{
		{Key: exchange.StrKey("BTC"), Ticker: "BTC", Name: "Bitcoin", IsCrypto: &isCrypto},
		{Key: exchange.StrKey("EUR"), Ticker: "EUR", Name: "Euro", IsCrypto: &isFiat},
		{Key: exchange.StrKey("YOYO"), Ticker: "YOYO", Name: "YOYOW", IsCrypto: &isCrypto},
		{Key: exchange.StrKey("BTC"), Ticker: "BTC", Name: "Bitcoin Fork", IsCrypto: &isCrypto},
		{Key: exchange.StrKey("NONAME"), Ticker: "NONAME"},
	})
	require.NoError(t, err)

	assert.Equal(t, 5, stats.Seen)
	assert.Equal(t, 3, stats.Created)
	assert.Equal(t, 2, stats.TickersCreated, "BTC was already taken")
	assert.Equal(t, 1, stats.Existing)
	assert.Equal(t, 1, stats.Unresolved)
	assert.Equal(t, 0, stats.Linked)
	testutil.AssertCount(t, f.db, &models.CurrencyExchange{}, 1)

	eur, err := f.currencies.FindByTicker(nil, "EUR")
	require.NoError(t, err)
	require.NotNil(t, eur.TypeIsCrypto)
	assert.False(t, *eur.TypeIsCrypto)

	// an exchange listing the reference ticker later resolves to it
	stats, err = f.rec.SyncCurrencies(ctx, "Binance", []exchange.RawCurrency{str("YOYO", "YOYO", "")})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Created)
	assert.Equal(t, 1, stats.PKsCreated)
}

func TestStats_RunCounts(t *testing.T) {
	var total Stats
	total.Add(Stats{Seen: 3, Created: 1, PKsCreated: 2, TickersCreated: 1, Linked: 2, Skipped: 1, Unresolved: 1})
	total.Add(Stats{Seen: 4, Created: 2, Skipped: 3, Invalid: 1, Conflicts: 1, Existing: 1})

	assert.Equal(t, services.RunCounts{
		Seen:           7,
		Created:        3,
		PKsCreated:     2,
		TickersCreated: 1,
		Linked:         2,
		Skipped:        4,
		Invalid:        1,
		Unresolved:     1,
		Conflicts:      1,
		Existing:       1,
	}, total.RunCounts())
}
