// Package reconcile maps exchange listings onto the canonical currency and
// trading pair tables. Every record is written in its own transaction, and a
// join row is only ever written together with the exchange key row that
// justifies it, so the exchanges of an entity always equal the exchanges
// holding a key for it.
package reconcile

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "cryptodata/internal/errors"
	"cryptodata/internal/exchange"
	"cryptodata/internal/logger"
	"cryptodata/internal/models"
	"cryptodata/internal/resolve"
	"cryptodata/internal/services"
	appvalidator "cryptodata/internal/validator"
)

// Reconciler syncs raw exchange records into the database.
type Reconciler struct {
	db         *gorm.DB
	exchanges  services.ExchangeServicer
	currencies services.CurrencyServicer
	pairs      services.TradingPairServicer
	resolver   *resolve.Resolver
	validate   *validator.Validate
	log        *zap.SugaredLogger
}

// New creates a Reconciler.
func New(
	db *gorm.DB,
	exchanges services.ExchangeServicer,
	currencies services.CurrencyServicer,
	pairs services.TradingPairServicer,
	resolver *resolve.Resolver,
) *Reconciler {
	return &Reconciler{
		db:         db,
		exchanges:  exchanges,
		currencies: currencies,
		pairs:      pairs,
		resolver:   resolver,
		validate:   appvalidator.New(),
		log:        logger.Named("reconcile"),
	}
}

// SyncCurrencies reconciles the currencies an exchange lists. Records that
// are invalid, unnamed or conflicting are skipped and counted; a database
// failure stops the step.
func (r *Reconciler) SyncCurrencies(ctx context.Context, exchangeName string, records []exchange.RawCurrency) (Stats, error) {
	var stats Stats

	ex, err := r.exchanges.EnsureExchange(exchangeName)
	if err != nil {
		return stats, err
	}

	for _, rc := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Seen++

		if err := r.validate.Struct(rc); err != nil {
			stats.Skipped++
			stats.Invalid++
			r.log.Warnw("skipping invalid currency record",
				"exchange", exchangeName, "key", rc.Key.Value, "ticker", rc.Ticker, "error", err)
			continue
		}

		out, err := r.syncCurrency(ctx, ex, rc)
		switch {
		case err == nil:
			stats.Add(out)
		case errors.Is(err, apperrors.ErrUnresolvedName):
			stats.Skipped++
			stats.Unresolved++
			r.log.Warnw("skipping currency without a name",
				"exchange", exchangeName, "key", rc.Key.Value, "ticker", rc.Ticker)
		case errors.Is(err, apperrors.ErrCurrencyKeyConflict), errors.Is(err, apperrors.ErrDuplicateCurrency):
			stats.Skipped++
			stats.Conflicts++
			r.log.Warnw("skipping conflicting currency",
				"exchange", exchangeName, "key", rc.Key.Value, "ticker", rc.Ticker, "error", err)
		default:
			return stats, err
		}
	}

	if stats.Unresolved > 0 && !r.resolver.Interactive() {
		r.log.Infow("some currencies had no name; rerun interactively to name them",
			"exchange", exchangeName, "unresolved", stats.Unresolved)
	}

	r.log.Infow("currencies synced",
		"exchange", exchangeName,
		"seen", stats.Seen,
		"created", stats.Created,
		"pks_created", stats.PKsCreated,
		"tickers_created", stats.TickersCreated,
		"linked", stats.Linked,
		"skipped", stats.Skipped,
	)
	return stats, nil
}

// syncCurrency reconciles one record. Name and type are settled before the
// transaction opens, so an operator prompt never holds database locks.
func (r *Reconciler) syncCurrency(ctx context.Context, ex *models.Exchange, rc exchange.RawCurrency) (Stats, error) {
	var stats Stats

	var (
		name       string
		fromTicker bool
		typ        *bool
	)
	known, err := r.currencies.FindByExchangeKey(nil, ex.ID, rc.Key.Value)
	switch {
	case err == nil:
		name = known.Name
	case errors.Is(err, apperrors.ErrCurrencyNotFound):
		res, err := r.resolver.ResolveName(ctx, ex.Name, rc)
		if err != nil {
			return stats, err
		}
		name = res.Name
		fromTicker = res.Source == resolve.SourceTicker || res.Source == resolve.SourceCache

		if _, err := r.currencies.FindByName(nil, name); errors.Is(err, apperrors.ErrCurrencyNotFound) {
			if typ, err = r.resolver.ResolveType(ctx, name, rc.IsCrypto); err != nil {
				return stats, err
			}
		} else if err != nil {
			return stats, err
		}
	default:
		return stats, err
	}

	var tickerCreated bool
	err = r.db.Transaction(func(tx *gorm.DB) error {
		currency, created, err := r.currencies.FindOrCreateByName(tx, name, typ)
		if err != nil {
			return err
		}
		if created {
			stats.Created++
		}

		linked, err := r.currencies.LinkExchange(tx, currency.ID, ex.ID)
		if err != nil {
			return err
		}
		if linked {
			stats.Linked++
		}

		pkCreated, err := r.currencies.EnsureExchangePK(tx, currency.ID, ex.ID, rc.Key.Value, rc.Key.Type)
		if err != nil {
			return err
		}
		if pkCreated {
			stats.PKsCreated++
		}

		tickerCreated, err = r.currencies.EnsureTickerSymbol(tx, currency.ID, rc.Ticker)
		if err != nil {
			return err
		}
		if tickerCreated {
			stats.TickersCreated++
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}

	if tickerCreated || fromTicker {
		r.resolver.Remember(rc.Ticker, name)
	}
	return stats, nil
}

// SyncPairs reconciles the trading pairs an exchange lists. Both sides must
// already be known through the exchange's currency keys, so currencies have
// to be synced first; ErrExchangeNotFound means they never were.
func (r *Reconciler) SyncPairs(ctx context.Context, exchangeName string, records []exchange.RawPair) (Stats, error) {
	var stats Stats

	ex, err := r.exchanges.GetExchangeByName(exchangeName)
	if err != nil {
		return stats, err
	}

	for _, rp := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Seen++

		if err := r.validate.Struct(rp); err != nil {
			stats.Skipped++
			stats.Invalid++
			r.log.Warnw("skipping invalid pair record", "exchange", exchangeName, "key", rp.Key.Value, "error", err)
			continue
		}

		out, err := r.syncPair(ex, rp)
		switch {
		case err == nil:
			stats.Add(out)
		case errors.Is(err, apperrors.ErrCurrencyNotFound):
			stats.Skipped++
			stats.Unresolved++
			r.log.Warnw("skipping pair with unknown currency",
				"exchange", exchangeName, "key", rp.Key.Value, "base", rp.BaseKey.Value, "quote", rp.QuoteKey.Value)
		case errors.Is(err, apperrors.ErrPairKeyConflict):
			stats.Skipped++
			stats.Conflicts++
			r.log.Warnw("skipping pair key that maps to a different pair",
				"exchange", exchangeName, "key", rp.Key.Value, "base", rp.BaseKey.Value, "quote", rp.QuoteKey.Value)
		case errors.Is(err, apperrors.ErrInvalidInput):
			stats.Skipped++
			stats.Invalid++
			r.log.Warnw("skipping pair", "exchange", exchangeName, "key", rp.Key.Value, "error", err)
		default:
			return stats, err
		}
	}

	r.log.Infow("trading pairs synced",
		"exchange", exchangeName,
		"seen", stats.Seen,
		"created", stats.Created,
		"pks_created", stats.PKsCreated,
		"linked", stats.Linked,
		"skipped", stats.Skipped,
	)
	return stats, nil
}

func (r *Reconciler) syncPair(ex *models.Exchange, rp exchange.RawPair) (Stats, error) {
	var stats Stats

	base, err := r.currencies.FindByExchangeKey(nil, ex.ID, rp.BaseKey.Value)
	if err != nil {
		return stats, err
	}
	quote, err := r.currencies.FindByExchangeKey(nil, ex.ID, rp.QuoteKey.Value)
	if err != nil {
		return stats, err
	}
	if base.ID == quote.ID {
		return stats, apperrors.WithMessage(apperrors.ErrInvalidInput, "base and quote resolve to the same currency")
	}

	existingPK, err := r.pairs.FindExchangePK(nil, ex.ID, rp.Key.Value)
	if err != nil && !errors.Is(err, apperrors.ErrTradingPairNotFound) {
		return stats, err
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		pair, created, err := r.pairs.FindOrCreatePair(tx, base.ID, quote.ID)
		if err != nil {
			return err
		}
		if existingPK != nil && existingPK.TradingPairID != pair.ID {
			return apperrors.ErrPairKeyConflict
		}
		if created {
			stats.Created++
		}

		linked, err := r.pairs.LinkExchange(tx, pair.ID, ex.ID)
		if err != nil {
			return err
		}
		if linked {
			stats.Linked++
		}

		if existingPK == nil {
			if err := r.pairs.CreateExchangePK(tx, pair.ID, ex.ID, rp.Key.Value, rp.Key.Type); err != nil {
				return err
			}
			stats.PKsCreated++
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// SyncReferenceAssets creates currencies from reference data. Names already
// present are left untouched and nothing is linked to an exchange.
func (r *Reconciler) SyncReferenceAssets(ctx context.Context, records []exchange.RawCurrency) (Stats, error) {
	var stats Stats

	for _, rc := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Seen++

		if rc.Name == "" {
			stats.Skipped++
			stats.Unresolved++
			continue
		}
		if err := r.validate.Struct(rc); err != nil {
			stats.Skipped++
			stats.Invalid++
			r.log.Debugw("skipping invalid reference asset", "asset", rc.Ticker, "error", err)
			continue
		}

		_, err := r.currencies.FindByName(nil, rc.Name)
		if err == nil {
			stats.Skipped++
			stats.Existing++
			continue
		}
		if !errors.Is(err, apperrors.ErrCurrencyNotFound) {
			return stats, err
		}

		var out Stats
		var tickerCreated bool
		err = r.db.Transaction(func(tx *gorm.DB) error {
			currency, created, err := r.currencies.FindOrCreateByName(tx, rc.Name, rc.IsCrypto)
			if err != nil {
				return err
			}
			if created {
				out.Created++
			}
			tickerCreated, err = r.currencies.EnsureTickerSymbol(tx, currency.ID, rc.Ticker)
			if err != nil {
				return err
			}
			if tickerCreated {
				out.TickersCreated++
			}
			return nil
		})
		if errors.Is(err, apperrors.ErrDuplicateCurrency) {
			stats.Skipped++
			stats.Conflicts++
			r.log.Warnw("skipping reference asset", "asset", rc.Ticker, "error", err)
			continue
		}
		if err != nil {
			return stats, err
		}
		stats.Add(out)
		if tickerCreated {
			r.resolver.Remember(rc.Ticker, rc.Name)
		}
	}

	r.log.Infow("reference assets synced",
		"seen", stats.Seen,
		"created", stats.Created,
		"tickers_created", stats.TickersCreated,
		"skipped", stats.Skipped,
	)
	return stats, nil
}
