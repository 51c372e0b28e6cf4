package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cryptodata/internal/pagination"
	"cryptodata/internal/services"
)

// TradingPairHandler serves trading pairs.
type TradingPairHandler struct {
	tradingPairService services.TradingPairServicer
}

// NewTradingPairHandler creates a new TradingPairHandler.
func NewTradingPairHandler(tradingPairService services.TradingPairServicer) *TradingPairHandler {
	return &TradingPairHandler{tradingPairService: tradingPairService}
}

// ListTradingPairsQuery holds the filters of the trading pair listing.
type ListTradingPairsQuery struct {
	pagination.PageRequest
	Exchange string `form:"exchange" binding:"omitempty,exchange_name"`
}

// ListTradingPairs returns a page of trading pairs.
// @Summary     List trading pairs
// @Description Get a paginated list of trading pairs, optionally only those listed on one exchange
// @Tags        trading-pairs
// @Produce     json
// @Param       exchange  query string false "Only pairs listed on this exchange"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 50, max 500)"
// @Success     200 {object} pagination.PageResponse[models.TradingPair] "Paginated trading pairs"
// @Failure     400 {object} ErrorResponse "Invalid query"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /v1/trading-pairs [get]
func (h *TradingPairHandler) ListTradingPairs(c *gin.Context) {
	var q ListTradingPairsQuery
	if err := bindQuery(c, &q); err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.tradingPairService.ListTradingPairs(q.PageRequest, services.TradingPairFilter{Exchange: q.Exchange})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetTradingPair returns one pair with both currencies, its exchanges and
// exchange keys.
// @Summary     Get trading pair by ID
// @Description Get a trading pair with both currencies, its exchanges and exchange keys
// @Tags        trading-pairs
// @Produce     json
// @Param       id  path     string true "Trading pair ID"
// @Success     200 {object} map[string]models.TradingPair "Trading pair details"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Trading pair not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /v1/trading-pairs/{id} [get]
func (h *TradingPairHandler) GetTradingPair(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	pair, err := h.tradingPairService.GetTradingPairByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trading_pair": pair})
}
