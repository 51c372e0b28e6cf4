// Package resolve decides the canonical name (and, for new currencies, the
// type) of a currency an exchange lists only by key and ticker.
package resolve

import (
	"context"
	"errors"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	apperrors "cryptodata/internal/errors"
	"cryptodata/internal/exchange"
	"cryptodata/internal/logger"
	"cryptodata/internal/services"
)

// Source says which piece of evidence produced a name.
type Source string

const (
	SourceCache   Source = "cache"
	SourceTicker  Source = "ticker"
	SourcePayload Source = "payload"
	SourceHint    Source = "hint"
	SourcePrompt  Source = "prompt"
)

// Resolution is a resolved currency name.
type Resolution struct {
	Name   string
	Source Source
}

// Prompter asks an operator for what the exchange did not say.
type Prompter interface {
	AskCurrencyName(ctx context.Context, exchangeName string, rc exchange.RawCurrency) (string, error)
	AskCurrencyType(ctx context.Context, name string) (*bool, error)
}

// Resolver resolves currency names from, in order: the ticker symbols
// already stored, the exchange payload, the exchange's name hints and
// finally the operator. A nil Prompter makes it non-interactive.
type Resolver struct {
	currencies services.CurrencyServicer
	hints      map[string]exchange.NameHinter
	prompter   Prompter
	cache      *lru.Cache[string, string]
	log        *zap.SugaredLogger
}

// New creates a Resolver with a ticker -> name cache of cacheSize entries.
func New(currencies services.CurrencyServicer, hints map[string]exchange.NameHinter, prompter Prompter, cacheSize int) (*Resolver, error) {
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, err
	}
	if hints == nil {
		hints = map[string]exchange.NameHinter{}
	}
	return &Resolver{
		currencies: currencies,
		hints:      hints,
		prompter:   prompter,
		cache:      cache,
		log:        logger.Named("resolve"),
	}, nil
}

// Interactive reports whether the resolver can prompt.
func (r *Resolver) Interactive() bool { return r.prompter != nil }

// ResolveName returns the canonical name for rc as listed on exchangeName.
// It returns ErrUnresolvedName when no evidence names the currency.
func (r *Resolver) ResolveName(ctx context.Context, exchangeName string, rc exchange.RawCurrency) (Resolution, error) {
	if name, ok := r.cache.Get(rc.Ticker); ok {
		return Resolution{Name: name, Source: SourceCache}, nil
	}

	existing, err := r.currencies.FindByTicker(nil, rc.Ticker)
	switch {
	case err == nil:
		r.cache.Add(rc.Ticker, existing.Name)
		return Resolution{Name: existing.Name, Source: SourceTicker}, nil
	case !errors.Is(err, apperrors.ErrCurrencyNotFound):
		return Resolution{}, err
	}

	if name := strings.TrimSpace(rc.Name); name != "" {
		return Resolution{Name: name, Source: SourcePayload}, nil
	}

	if hinter, ok := r.hints[exchangeName]; ok {
		if name, ok := hinter.HintName(rc.Key.Value); ok {
			return Resolution{Name: name, Source: SourceHint}, nil
		}
	}

	if r.prompter == nil {
		return Resolution{}, apperrors.WithMessage(apperrors.ErrUnresolvedName,
			"no name for "+exchangeName+" currency "+rc.Key.Value+" ("+rc.Ticker+")")
	}

	name, err := r.prompter.AskCurrencyName(ctx, exchangeName, rc)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{Name: name, Source: SourcePrompt}, nil
}

// ResolveType returns the type to store on a new currency: the payload's
// when given, otherwise the operator's answer. Non-interactive resolvers
// leave the type unknown.
func (r *Resolver) ResolveType(ctx context.Context, name string, payload *bool) (*bool, error) {
	if payload != nil {
		return payload, nil
	}
	if r.prompter == nil {
		return nil, nil
	}

	isCrypto, err := r.prompter.AskCurrencyType(ctx, name)
	if errors.Is(err, apperrors.ErrUnknownType) {
		r.log.Warnw("currency type left unknown", "currency", name)
		return nil, nil
	}
	return isCrypto, err
}

// Remember caches that ticker names the currency called name. Call it only
// once the ticker row is committed.
func (r *Resolver) Remember(ticker, name string) {
	r.cache.Add(ticker, name)
}

// Forget drops every cached name, e.g. after the dataset is reset.
func (r *Resolver) Forget() {
	r.cache.Purge()
}
