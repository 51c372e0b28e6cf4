package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "cryptodata/internal/errors"
	"cryptodata/internal/models"
	"cryptodata/internal/pagination"
)

// exchangeService handles exchange rows.
type exchangeService struct {
	db *gorm.DB
}

// NewExchangeService creates a new ExchangeServicer.
func NewExchangeService(db *gorm.DB) ExchangeServicer {
	return &exchangeService{db: db}
}

// EnsureExchange returns the exchange with the given name, creating it if
// needed.
func (s *exchangeService) EnsureExchange(name string) (*models.Exchange, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Exchange name is required")
	}

	if existing, err := s.GetExchangeByName(name); err == nil {
		return existing, nil
	} else if !errors.Is(err, apperrors.ErrExchangeNotFound) {
		return nil, err
	}

	exchange := &models.Exchange{Name: name}
	if err := s.db.Create(exchange).Error; err != nil {
		if !isUniqueConstraintError(err) {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		// created concurrently
		return s.GetExchangeByName(name)
	}
	return exchange, nil
}

// GetExchangeByName returns an exchange by its exact name.
func (s *exchangeService) GetExchangeByName(name string) (*models.Exchange, error) {
	var exchange models.Exchange
	if err := s.db.Where("name = ?", name).First(&exchange).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExchangeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &exchange, nil
}

// ListAllExchanges returns every exchange ordered by name.
func (s *exchangeService) ListAllExchanges() ([]models.Exchange, error) {
	var exchanges []models.Exchange
	if err := s.db.Order("name ASC").Find(&exchanges).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return exchanges, nil
}

// ListExchanges returns a page of exchanges with their currency and trading
// pair counts.
func (s *exchangeService) ListExchanges(page pagination.PageRequest) (*pagination.PageResponse[ExchangeSummary], error) {
	page.Defaults()

	var totalItems int64
	if err := s.db.Model(&models.Exchange{}).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var exchanges []models.Exchange
	if err := s.db.Order("name ASC").Scopes(pagination.Paginate(page)).Find(&exchanges).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	ids := make([]string, len(exchanges))
	for i, ex := range exchanges {
		ids[i] = ex.ID
	}
	currencyCounts, err := s.countByExchange(&models.CurrencyExchange{}, ids)
	if err != nil {
		return nil, err
	}
	pairCounts, err := s.countByExchange(&models.TradingPairExchange{}, ids)
	if err != nil {
		return nil, err
	}

	summaries := make([]ExchangeSummary, len(exchanges))
	for i, ex := range exchanges {
		summaries[i] = ExchangeSummary{
			Exchange:         ex,
			CurrencyCount:    currencyCounts[ex.ID],
			TradingPairCount: pairCounts[ex.ID],
		}
	}

	result := pagination.NewPageResponse(summaries, page, totalItems)
	return &result, nil
}

// countByExchange counts join rows of the given model per exchange ID.
func (s *exchangeService) countByExchange(model interface{}, exchangeIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(exchangeIDs))
	if len(exchangeIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		ExchangeID string
		Total      int64
	}
	err := s.db.Model(model).
		Select("exchange_id, COUNT(*) AS total").
		Where("exchange_id IN ?", exchangeIDs).
		Group("exchange_id").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for _, r := range rows {
		counts[r.ExchangeID] = r.Total
	}
	return counts, nil
}
