package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "cryptodata/internal/errors"
	"cryptodata/internal/models"
	"cryptodata/internal/pagination"
)

// currencyService handles currencies, ticker symbols and currency exchange
// keys.
type currencyService struct {
	db *gorm.DB
}

// NewCurrencyService creates a new CurrencyServicer.
func NewCurrencyService(db *gorm.DB) CurrencyServicer {
	return &currencyService{db: db}
}

// FindByExchangeKey returns the currency an exchange addresses by key.
func (s *currencyService) FindByExchangeKey(tx *gorm.DB, exchangeID, key string) (*models.Currency, error) {
	db := conn(s.db, tx)

	var pk models.CurrencyExchangePK
	err := db.Where(&models.CurrencyExchangePK{ExchangeID: exchangeID, Key: key}).First(&pk).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCurrencyNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.byID(db, pk.CurrencyID)
}

// FindByTicker returns the currency a ticker symbol belongs to.
func (s *currencyService) FindByTicker(tx *gorm.DB, symbol string) (*models.Currency, error) {
	db := conn(s.db, tx)

	var ticker models.TickerSymbol
	if err := db.Where("symbol = ?", symbol).First(&ticker).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCurrencyNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.byID(db, ticker.CurrencyID)
}

// FindByName returns the currency with the exact name.
func (s *currencyService) FindByName(tx *gorm.DB, name string) (*models.Currency, error) {
	var currency models.Currency
	if err := conn(s.db, tx).Where("name = ?", name).First(&currency).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCurrencyNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &currency, nil
}

// FindOrCreateByName returns the currency with the given name, creating it
// with typeIsCrypto when missing. The bool reports whether it was created.
// An existing currency keeps its type.
func (s *currencyService) FindOrCreateByName(tx *gorm.DB, name string, typeIsCrypto *bool) (*models.Currency, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, apperrors.WithMessage(apperrors.ErrInvalidInput, "Currency name is required")
	}
	db := conn(s.db, tx)

	existing, err := s.FindByName(db, name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, apperrors.ErrCurrencyNotFound) {
		return nil, false, err
	}

	currency := &models.Currency{Name: name, TypeIsCrypto: typeIsCrypto}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(currency)
	if result.Error != nil {
		return nil, false, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		// lost a race with a concurrent insert, or the name belongs to a
		// soft-deleted row the unique index still holds
		existing, err := s.FindByName(db, name)
		if errors.Is(err, apperrors.ErrCurrencyNotFound) {
			return nil, false, apperrors.WithMessage(apperrors.ErrDuplicateCurrency,
				fmt.Sprintf("Currency name %q is held by a row that cannot be read", name))
		}
		return existing, false, err
	}
	return currency, true, nil
}

// LinkExchange adds the currency <-> exchange join row. The bool reports
// whether a new row was written.
func (s *currencyService) LinkExchange(tx *gorm.DB, currencyID, exchangeID string) (bool, error) {
	link := &models.CurrencyExchange{CurrencyID: currencyID, ExchangeID: exchangeID}
	result := conn(s.db, tx).Clauses(clause.OnConflict{DoNothing: true}).Create(link)
	if result.Error != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// EnsureExchangePK records that exchangeID addresses currencyID by key. A key
// already mapped to another currency is an ErrCurrencyKeyConflict.
func (s *currencyService) EnsureExchangePK(tx *gorm.DB, currencyID, exchangeID, key string, keyType models.KeyType) (bool, error) {
	if !keyType.Valid() {
		return false, apperrors.WithMessage(apperrors.ErrInvalidInput, "Key type must be STR or INT")
	}
	db := conn(s.db, tx)

	var existing models.CurrencyExchangePK
	err := db.Where(&models.CurrencyExchangePK{ExchangeID: exchangeID, Key: key}).First(&existing).Error
	switch {
	case err == nil:
		if existing.CurrencyID != currencyID {
			return false, apperrors.ErrCurrencyKeyConflict
		}
		return false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	pk := &models.CurrencyExchangePK{
		ExchangeID: exchangeID,
		Key:        key,
		KeyType:    keyType,
		CurrencyID: currencyID,
	}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(pk)
	if result.Error != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// EnsureTickerSymbol assigns symbol to the currency unless the symbol is
// already taken by any currency. The bool reports whether it was created.
func (s *currencyService) EnsureTickerSymbol(tx *gorm.DB, currencyID, symbol string) (bool, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return false, apperrors.WithMessage(apperrors.ErrInvalidInput, "Ticker symbol is required")
	}
	db := conn(s.db, tx)

	var count int64
	if err := db.Model(&models.TickerSymbol{}).Where("symbol = ?", symbol).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return false, nil
	}

	ticker := &models.TickerSymbol{Symbol: symbol, CurrencyID: currencyID}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(ticker)
	if result.Error != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// GetCurrencyByID returns a currency with its exchanges, tickers and
// exchange keys.
func (s *currencyService) GetCurrencyByID(id string) (*models.Currency, error) {
	var currency models.Currency
	err := s.db.
		Preload("Exchanges", func(db *gorm.DB) *gorm.DB { return db.Order("exchanges.name ASC") }).
		Preload("TickerSymbols", func(db *gorm.DB) *gorm.DB { return db.Order("symbol ASC") }).
		Preload("ExchangePKs.Exchange").
		First(&currency, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCurrencyNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &currency, nil
}

// ListCurrencies returns a page of currencies ordered by name.
func (s *currencyService) ListCurrencies(page pagination.PageRequest, filter CurrencyFilter) (*pagination.PageResponse[models.Currency], error) {
	page.Defaults()

	query := func() *gorm.DB {
		q := s.db.Model(&models.Currency{})
		if filter.Exchange != "" {
			q = q.Where("currencies.id IN (?)",
				s.db.Table("currency_exchanges").
					Select("currency_exchanges.currency_id").
					Joins("JOIN exchanges ON exchanges.id = currency_exchanges.exchange_id").
					Where("exchanges.name = ?", filter.Exchange))
		}
		if search := strings.TrimSpace(filter.Search); search != "" {
			like := "%" + escapeLike(strings.ToLower(search)) + "%"
			q = q.Where(`LOWER(currencies.name) LIKE ? ESCAPE '\' OR currencies.id IN (?)`, like,
				s.db.Model(&models.TickerSymbol{}).Select("currency_id").Where(`LOWER(symbol) LIKE ? ESCAPE '\'`, like))
		}
		return q
	}

	var totalItems int64
	if err := query().Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var currencies []models.Currency
	err := query().
		Preload("TickerSymbols", func(db *gorm.DB) *gorm.DB { return db.Order("symbol ASC") }).
		Order("currencies.name ASC").
		Scopes(pagination.Paginate(page)).
		Find(&currencies).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(currencies, page, totalItems)
	return &result, nil
}

func (s *currencyService) byID(db *gorm.DB, id string) (*models.Currency, error) {
	var currency models.Currency
	if err := db.First(&currency, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCurrencyNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &currency, nil
}
