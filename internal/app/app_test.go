package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptodata/internal/config"
	"cryptodata/internal/ingest"
	"cryptodata/internal/logger"
	"cryptodata/internal/testutil"
)

func TestMain(m *testing.M) {
	logger.Init("test")
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		FetchWorkers:    2,
		NameCacheSize:   16,
		VerifyMinAmount: 5,
		VerifySymbols:   []string{"BTC"},
	}
}

func TestNew_DefaultExchanges(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	a, err := New(testConfig(), db, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Binance", "Bittrex", "Kraken"}, config.ExchangeNames(a.Exchanges))
	assert.NotNil(t, a.Metrics)

	_, err = a.NewRunner(nil)
	require.NoError(t, err)
	assert.NotNil(t, a.NewVerifier())
}

func TestNew_ExchangesFile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	path := filepath.Join(t.TempDir(), "exchanges.yaml")
	require.NoError(t, os.WriteFile(path, []byte("exchanges:\n  - name: kraken\n  - name: BINANCE\n"), 0o600))

	cfg := testConfig()
	cfg.ExchangesFile = path
	a, err := New(cfg, db, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kraken", "Binance"}, config.ExchangeNames(a.Exchanges))

	require.NoError(t, os.WriteFile(path, []byte("exchanges:\n  - name: Kraken\n  - name: Poloniex\n"), 0o600))
	_, err = New(cfg, db, nil)
	testutil.AssertAppError(t, err, "UNKNOWN_EXCHANGE")
}

func TestNewRunner_ReferenceNeedsKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	a, err := New(testConfig(), db, nil)
	require.NoError(t, err)
	runner, err := a.NewRunner(nil)
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), ingest.KindReference)
	testutil.AssertAppError(t, err, "INVALID_INPUT")
}

func TestNewRouter_Health(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	a, err := New(testConfig(), db, nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	a.NewRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
