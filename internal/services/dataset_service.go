package services

import (
	"gorm.io/gorm"

	apperrors "cryptodata/internal/errors"
	"cryptodata/internal/models"
)

// datasetService runs whole-dataset operations.
type datasetService struct {
	db *gorm.DB
}

// NewDatasetService creates a new DatasetServicer.
func NewDatasetService(db *gorm.DB) DatasetServicer {
	return &datasetService{db: db}
}

// resetOrder lists the reconciled tables children first. Ingest runs are
// kept.
var resetOrder = []interface{}{
	&models.TradingPairExchangePK{},
	&models.TradingPairExchange{},
	&models.TradingPair{},
	&models.CurrencyExchangePK{},
	&models.TickerSymbol{},
	&models.CurrencyExchange{},
	&models.Currency{},
	&models.Exchange{},
}

// Reset hard-deletes every reconciled row so the next ingest rebuilds the
// dataset from scratch.
func (s *datasetService) Reset() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range resetOrder {
			if err := tx.Unscoped().Where("1 = 1").Delete(model).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
}

// Counts returns the row count of every reconciled table.
func (s *datasetService) Counts() (*DatasetCounts, error) {
	var c DatasetCounts
	targets := []struct {
		model interface{}
		dest  *int64
	}{
		{&models.Exchange{}, &c.Exchanges},
		{&models.Currency{}, &c.Currencies},
		{&models.TickerSymbol{}, &c.TickerSymbols},
		{&models.CurrencyExchangePK{}, &c.CurrencyExchangePKs},
		{&models.TradingPair{}, &c.TradingPairs},
		{&models.TradingPairExchangePK{}, &c.TradingPairExchangePKs},
	}
	for _, t := range targets {
		if err := s.db.Model(t.model).Count(t.dest).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return &c, nil
}

type membershipRow struct {
	EntityID   string
	ExchangeID string
}

// CurrencyMemberships returns, for every currency tied to at least one
// exchange, its linked and keyed exchange IDs.
func (s *datasetService) CurrencyMemberships() (map[string]*Membership, error) {
	return s.memberships(
		s.db.Model(&models.CurrencyExchange{}).Select("currency_id AS entity_id, exchange_id"),
		s.db.Model(&models.CurrencyExchangePK{}).Select("currency_id AS entity_id, exchange_id"),
	)
}

// TradingPairMemberships is CurrencyMemberships for trading pairs.
func (s *datasetService) TradingPairMemberships() (map[string]*Membership, error) {
	return s.memberships(
		s.db.Model(&models.TradingPairExchange{}).Select("trading_pair_id AS entity_id, exchange_id"),
		s.db.Model(&models.TradingPairExchangePK{}).Select("trading_pair_id AS entity_id, exchange_id"),
	)
}

func (s *datasetService) memberships(linked, keyed *gorm.DB) (map[string]*Membership, error) {
	var linkRows, keyRows []membershipRow
	if err := linked.Scan(&linkRows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := keyed.Scan(&keyRows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	out := make(map[string]*Membership)
	get := func(id string) *Membership {
		m, ok := out[id]
		if !ok {
			m = &Membership{}
			out[id] = m
		}
		return m
	}
	for _, r := range linkRows {
		m := get(r.EntityID)
		m.Linked = append(m.Linked, r.ExchangeID)
	}
	for _, r := range keyRows {
		m := get(r.EntityID)
		m.Keyed = append(m.Keyed, r.ExchangeID)
	}
	return out, nil
}
