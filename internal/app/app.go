// Package app wires configuration, the database and the services into the
// ingest runner, the verifier and the admin router.
package app

import (
	"context"
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"cryptodata/internal/config"
	"cryptodata/internal/database"
	"cryptodata/internal/exchange"
	"cryptodata/internal/handlers"
	"cryptodata/internal/ingest"
	"cryptodata/internal/metrics"
	"cryptodata/internal/reconcile"
	"cryptodata/internal/resolve"
	"cryptodata/internal/services"
	"cryptodata/internal/verify"
)

// App holds the shared dependencies of the binaries.
type App struct {
	Config    *config.Config
	Exchanges []config.Exchange
	Metrics   *metrics.Metrics

	db           *gorm.DB
	exchanges    services.ExchangeServicer
	currencies   services.CurrencyServicer
	tradingPairs services.TradingPairServicer
	ingestRuns   services.IngestRunServicer
	dataset      services.DatasetServicer
}

// Open connects to PostgreSQL, applies pending migrations and builds the
// App. The returned close function releases the connection pool.
func Open(cfg *config.Config, m *metrics.Metrics) (*App, func(), error) {
	manager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return nil, nil, err
	}
	if err := manager.RunMigrations(); err != nil {
		_ = manager.Close()
		return nil, nil, err
	}

	a, err := New(cfg, manager.DB(), m)
	if err != nil {
		_ = manager.Close()
		return nil, nil, err
	}
	return a, func() { _ = manager.Close() }, nil
}

// New builds an App on an open connection. A nil m gets fresh collectors.
func New(cfg *config.Config, db *gorm.DB, m *metrics.Metrics) (*App, error) {
	exchanges, err := config.LoadExchanges(cfg.ExchangesFile)
	if err != nil {
		return nil, err
	}
	for i := range exchanges {
		if exchanges[i].Name, err = exchange.CanonicalName(exchanges[i].Name); err != nil {
			return nil, err
		}
	}
	if m == nil {
		m = metrics.New()
	}
	return &App{
		Config:       cfg,
		Exchanges:    exchanges,
		Metrics:      m,
		db:           db,
		exchanges:    services.NewExchangeService(db),
		currencies:   services.NewCurrencyService(db),
		tradingPairs: services.NewTradingPairService(db),
		ingestRuns:   services.NewIngestRunService(db),
		dataset:      services.NewDatasetService(db),
	}, nil
}

// NewRunner builds the ingest runner for the configured exchanges. The
// CoinAPI reference step is only enabled with an API key; a nil prompter
// makes the run non-interactive.
func (a *App) NewRunner(prompter resolve.Prompter) (*ingest.Runner, error) {
	httpClient := &http.Client{Timeout: a.Config.RequestTimeout}

	fetchers := make([]exchange.Fetcher, 0, len(a.Exchanges))
	for _, ex := range a.Exchanges {
		f, err := exchange.New(ex, httpClient)
		if err != nil {
			return nil, err
		}
		fetchers = append(fetchers, f)
	}

	var reference exchange.ReferenceSource
	if a.Config.CoinAPIKey != "" {
		reference = exchange.NewCoinAPISource(httpClient, a.Config.CoinAPIURL, a.Config.CoinAPIKey)
	}

	hints, err := exchange.Hinters()
	if err != nil {
		return nil, fmt.Errorf("load name hints: %w", err)
	}
	resolver, err := resolve.New(a.currencies, hints, prompter, a.Config.NameCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create resolver: %w", err)
	}

	reconciler := reconcile.New(a.db, a.exchanges, a.currencies, a.tradingPairs, resolver)
	return ingest.NewRunner(fetchers, reference, reconciler, a.ingestRuns, a.dataset, resolver, ingest.Options{
		Workers: a.Config.FetchWorkers,
		Metrics: a.Metrics,
	}), nil
}

// NewVerifier builds the dataset verifier for the configured exchanges.
func (a *App) NewVerifier() *verify.Verifier {
	return verify.New(a.exchanges, a.currencies, a.dataset, verify.Options{
		Exchanges: config.ExchangeNames(a.Exchanges),
		MinAmount: a.Config.VerifyMinAmount,
		Symbols:   a.Config.VerifySymbols,
	})
}

// NewRouter builds the admin API.
func (a *App) NewRouter() http.Handler {
	return handlers.NewRouter(handlers.Handlers{
		Health:       handlers.NewHealthHandler(a.ping),
		Exchanges:    handlers.NewExchangeHandler(a.exchanges),
		Currencies:   handlers.NewCurrencyHandler(a.currencies),
		TradingPairs: handlers.NewTradingPairHandler(a.tradingPairs),
		IngestRuns:   handlers.NewIngestRunHandler(a.ingestRuns, a.dataset),
		Metrics:      a.Metrics.Handler(),
	})
}

func (a *App) ping(ctx context.Context) error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
