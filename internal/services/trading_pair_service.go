package services

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "cryptodata/internal/errors"
	"cryptodata/internal/models"
	"cryptodata/internal/pagination"
)

// tradingPairService handles trading pairs and trading pair exchange keys.
type tradingPairService struct {
	db *gorm.DB
}

// NewTradingPairService creates a new TradingPairServicer.
func NewTradingPairService(db *gorm.DB) TradingPairServicer {
	return &tradingPairService{db: db}
}

// FindExchangePK returns the trading pair key row an exchange uses for key.
func (s *tradingPairService) FindExchangePK(tx *gorm.DB, exchangeID, key string) (*models.TradingPairExchangePK, error) {
	var pk models.TradingPairExchangePK
	err := conn(s.db, tx).Where(&models.TradingPairExchangePK{ExchangeID: exchangeID, Key: key}).First(&pk).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTradingPairNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &pk, nil
}

// FindOrCreatePair returns the (currency1, currency2) pair, creating it when
// missing. Order matters: (BTC, USD) and (USD, BTC) are different pairs.
func (s *tradingPairService) FindOrCreatePair(tx *gorm.DB, currency1ID, currency2ID string) (*models.TradingPair, bool, error) {
	if currency1ID == "" || currency2ID == "" {
		return nil, false, apperrors.WithMessage(apperrors.ErrInvalidInput, "Both currencies are required")
	}
	if currency1ID == currency2ID {
		return nil, false, apperrors.WithMessage(apperrors.ErrInvalidInput, "A trading pair needs two different currencies")
	}
	db := conn(s.db, tx)

	find := func() (*models.TradingPair, error) {
		var pair models.TradingPair
		err := db.Where("currency1_id = ? AND currency2_id = ?", currency1ID, currency2ID).First(&pair).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrTradingPairNotFound
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return &pair, nil
	}

	existing, err := find()
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, apperrors.ErrTradingPairNotFound) {
		return nil, false, err
	}

	pair := &models.TradingPair{Currency1ID: currency1ID, Currency2ID: currency2ID}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(pair)
	if result.Error != nil {
		return nil, false, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		existing, err := find()
		return existing, false, err
	}
	return pair, true, nil
}

// LinkExchange adds the trading pair <-> exchange join row.
func (s *tradingPairService) LinkExchange(tx *gorm.DB, pairID, exchangeID string) (bool, error) {
	link := &models.TradingPairExchange{TradingPairID: pairID, ExchangeID: exchangeID}
	result := conn(s.db, tx).Clauses(clause.OnConflict{DoNothing: true}).Create(link)
	if result.Error != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// CreateExchangePK records that exchangeID addresses pairID by key. The key
// must not be in use on that exchange.
func (s *tradingPairService) CreateExchangePK(tx *gorm.DB, pairID, exchangeID, key string, keyType models.KeyType) error {
	if !keyType.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Key type must be STR or INT")
	}

	pk := &models.TradingPairExchangePK{
		ExchangeID:    exchangeID,
		Key:           key,
		KeyType:       keyType,
		TradingPairID: pairID,
	}
	result := conn(s.db, tx).Clauses(clause.OnConflict{DoNothing: true}).Create(pk)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrPairKeyConflict
	}
	return nil
}

// GetTradingPairByID returns a trading pair with both currencies, its
// exchanges and exchange keys.
func (s *tradingPairService) GetTradingPairByID(id string) (*models.TradingPair, error) {
	var pair models.TradingPair
	err := s.db.
		Preload("Currency1").
		Preload("Currency2").
		Preload("Exchanges").
		Preload("ExchangePKs.Exchange").
		First(&pair, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTradingPairNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &pair, nil
}

// ListTradingPairs returns a page of trading pairs with both currencies
// preloaded, newest first.
func (s *tradingPairService) ListTradingPairs(page pagination.PageRequest, filter TradingPairFilter) (*pagination.PageResponse[models.TradingPair], error) {
	page.Defaults()

	query := func() *gorm.DB {
		q := s.db.Model(&models.TradingPair{})
		if filter.Exchange != "" {
			q = q.Where("trading_pairs.id IN (?)",
				s.db.Table("trading_pair_exchanges").
					Select("trading_pair_exchanges.trading_pair_id").
					Joins("JOIN exchanges ON exchanges.id = trading_pair_exchanges.exchange_id").
					Where("exchanges.name = ?", filter.Exchange))
		}
		return q
	}

	var totalItems int64
	if err := query().Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var pairs []models.TradingPair
	err := query().
		Preload("Currency1").
		Preload("Currency2").
		Order("trading_pairs.id DESC").
		Scopes(pagination.Paginate(page)).
		Find(&pairs).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(pairs, page, totalItems)
	return &result, nil
}
