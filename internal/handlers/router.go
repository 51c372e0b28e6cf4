package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cryptodata/internal/middleware"
)

// Handlers groups the handlers mounted by NewRouter.
type Handlers struct {
	Health       *HealthHandler
	Exchanges    *ExchangeHandler
	Currencies   *CurrencyHandler
	TradingPairs *TradingPairHandler
	IngestRuns   *IngestRunHandler
	// Metrics is served at /metrics when set.
	Metrics http.Handler
}

// NewRouter builds the read-only admin API.
func NewRouter(h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	router.GET("/api/health", h.Health.Health)
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics))
	}

	v1 := router.Group("/api/v1")
	v1.GET("/exchanges", h.Exchanges.ListExchanges)

	currencies := v1.Group("/currencies")
	currencies.GET("", h.Currencies.ListCurrencies)
	currencies.GET("/:id", h.Currencies.GetCurrency)

	pairs := v1.Group("/trading-pairs")
	pairs.GET("", h.TradingPairs.ListTradingPairs)
	pairs.GET("/:id", h.TradingPairs.GetTradingPair)

	v1.GET("/ingest-runs", h.IngestRuns.ListIngestRuns)
	v1.GET("/stats", h.IngestRuns.GetStats)

	return router
}
