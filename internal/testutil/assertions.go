package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "cryptodata/internal/errors"
	"cryptodata/internal/models"
)

// AssertAppError checks that err is an *AppError with the expected error code.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	require.Error(t, err, "expected AppError with code %q", expectedCode)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, expectedCode, appErr.Code, "message: %s", appErr.Message)
}

// AssertCount fails the test unless the model's table holds want rows.
func AssertCount(t *testing.T, db *gorm.DB, model interface{}, want int64) {
	t.Helper()

	var got int64
	require.NoError(t, db.Model(model).Count(&got).Error, "count %T", model)
	assert.Equal(t, want, got, "rows of %T", model)
}

// AssertCurrencyMirrored checks that the exchanges a currency is linked to
// are exactly the exchanges that hold a key for it.
func AssertCurrencyMirrored(t *testing.T, db *gorm.DB, currencyID string) {
	t.Helper()

	var linked, keyed []string
	require.NoError(t, db.Model(&models.CurrencyExchange{}).Where("currency_id = ?", currencyID).
		Order("exchange_id").Pluck("exchange_id", &linked).Error, "load currency links")
	require.NoError(t, db.Model(&models.CurrencyExchangePK{}).Where("currency_id = ?", currencyID).
		Distinct("exchange_id").Order("exchange_id").Pluck("exchange_id", &keyed).Error, "load currency keys")
	assertSameIDs(t, "currency "+currencyID, linked, keyed)
}

// AssertTradingPairMirrored is AssertCurrencyMirrored for trading pairs.
func AssertTradingPairMirrored(t *testing.T, db *gorm.DB, pairID string) {
	t.Helper()

	var linked, keyed []string
	require.NoError(t, db.Model(&models.TradingPairExchange{}).Where("trading_pair_id = ?", pairID).
		Order("exchange_id").Pluck("exchange_id", &linked).Error, "load pair links")
	require.NoError(t, db.Model(&models.TradingPairExchangePK{}).Where("trading_pair_id = ?", pairID).
		Distinct("exchange_id").Order("exchange_id").Pluck("exchange_id", &keyed).Error, "load pair keys")
	assertSameIDs(t, "trading pair "+pairID, linked, keyed)
}

func assertSameIDs(t *testing.T, what string, linked, keyed []string) {
	t.Helper()

	assert.ElementsMatch(t, keyed, linked, "%s: linked exchanges differ from keyed exchanges", what)
}
