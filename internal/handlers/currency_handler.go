package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cryptodata/internal/pagination"
	"cryptodata/internal/services"
)

// CurrencyHandler serves currencies.
type CurrencyHandler struct {
	currencyService services.CurrencyServicer
}

// NewCurrencyHandler creates a new CurrencyHandler.
func NewCurrencyHandler(currencyService services.CurrencyServicer) *CurrencyHandler {
	return &CurrencyHandler{currencyService: currencyService}
}

// ListCurrenciesQuery holds the filters of the currency listing.
type ListCurrenciesQuery struct {
	pagination.PageRequest
	Exchange string `form:"exchange" binding:"omitempty,exchange_name"`
	Search   string `form:"search" binding:"omitempty,max=100"`
}

// ListCurrencies returns a page of currencies, optionally only those listed
// on one exchange or matching a name or ticker search.
// @Summary     List currencies
// @Description Get a paginated list of currencies, optionally filtered by exchange or search term
// @Tags        currencies
// @Produce     json
// @Param       exchange  query string false "Only currencies listed on this exchange"
// @Param       search    query string false "Search by name or ticker symbol (case-insensitive)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 50, max 500)"
// @Success     200 {object} pagination.PageResponse[models.Currency] "Paginated currencies"
// @Failure     400 {object} ErrorResponse "Invalid query"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /v1/currencies [get]
func (h *CurrencyHandler) ListCurrencies(c *gin.Context) {
	var q ListCurrenciesQuery
	if err := bindQuery(c, &q); err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.currencyService.ListCurrencies(q.PageRequest, services.CurrencyFilter{
		Exchange: q.Exchange,
		Search:   q.Search,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetCurrency returns one currency with its exchanges, ticker symbols and
// exchange keys.
// @Summary     Get currency by ID
// @Description Get a currency with its exchanges, ticker symbols and exchange keys
// @Tags        currencies
// @Produce     json
// @Param       id  path     string true "Currency ID"
// @Success     200 {object} map[string]models.Currency "Currency details"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Currency not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /v1/currencies/{id} [get]
func (h *CurrencyHandler) GetCurrency(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	currency, err := h.currencyService.GetCurrencyByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"currency": currency})
}
