package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cryptodata/internal/pagination"
	"cryptodata/internal/services"
)

// ExchangeHandler serves the exchange listing.
type ExchangeHandler struct {
	exchangeService services.ExchangeServicer
}

// NewExchangeHandler creates a new ExchangeHandler.
func NewExchangeHandler(exchangeService services.ExchangeServicer) *ExchangeHandler {
	return &ExchangeHandler{exchangeService: exchangeService}
}

// ListExchanges returns a page of exchanges with their currency and pair
// counts.
// @Summary     List exchanges
// @Description Get a paginated list of exchanges with currency and trading pair counts
// @Tags        exchanges
// @Produce     json
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 50, max 500)"
// @Success     200 {object} pagination.PageResponse[services.ExchangeSummary] "Paginated exchanges"
// @Failure     400 {object} ErrorResponse "Invalid query"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /v1/exchanges [get]
func (h *ExchangeHandler) ListExchanges(c *gin.Context) {
	var page pagination.PageRequest
	if err := bindQuery(c, &page); err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.exchangeService.ListExchanges(page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
