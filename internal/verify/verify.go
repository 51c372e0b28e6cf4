// Package verify checks a reconciled dataset: every configured exchange is
// present and covered, every sampled entity's exchange links match its
// exchange keys, and well-known ticker symbols exist.
package verify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "cryptodata/internal/errors"
	"cryptodata/internal/logger"
	"cryptodata/internal/services"
)

const (
	CheckExchanges        = "exchanges"
	CheckCurrencyCoverage = "currency_coverage"
	CheckPairCoverage     = "pair_coverage"
	CheckCurrencyMirror   = "currency_mirror"
	CheckPairMirror       = "pair_mirror"
	CheckSymbols          = "symbols"
)

// DefaultMinAmount is the per-exchange coverage threshold.
const DefaultMinAmount = 5

// Check is the outcome of one verification.
type Check struct {
	Name     string
	Passed   bool
	Detail   string
	Failures []string
}

// Report collects every check of a run.
type Report struct {
	Checks []Check
	Counts *services.DatasetCounts
}

// Passed reports whether every check passed.
func (r *Report) Passed() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

// Check returns the named check, or nil.
func (r *Report) Check(name string) *Check {
	for i := range r.Checks {
		if r.Checks[i].Name == name {
			return &r.Checks[i]
		}
	}
	return nil
}

// Write prints the report for an operator.
func (r *Report) Write(w io.Writer) error {
	if r.Counts != nil {
		c := r.Counts
		if _, err := fmt.Fprintf(w, "exchanges=%d currencies=%d tickers=%d currency_pks=%d pairs=%d pair_pks=%d\n",
			c.Exchanges, c.Currencies, c.TickerSymbols, c.CurrencyExchangePKs, c.TradingPairs, c.TradingPairExchangePKs); err != nil {
			return err
		}
	}
	for _, c := range r.Checks {
		status := "PASS"
		if !c.Passed {
			status = "FAIL"
		}
		if _, err := fmt.Fprintf(w, "%s %-18s %s\n", status, c.Name, c.Detail); err != nil {
			return err
		}
		for _, f := range c.Failures {
			if _, err := fmt.Fprintf(w, "     - %s\n", f); err != nil {
				return err
			}
		}
	}
	return nil
}

// Options configures a Verifier.
type Options struct {
	// Exchanges are the configured exchange names.
	Exchanges []string
	// MinAmount is the coverage threshold per exchange; zero means DefaultMinAmount.
	MinAmount int
	// Symbols must each be a stored ticker symbol.
	Symbols []string
	// Rand drives sampling; nil seeds one from the clock.
	Rand *rand.Rand
}

// Verifier runs the dataset checks.
type Verifier struct {
	exchanges  services.ExchangeServicer
	currencies services.CurrencyServicer
	dataset    services.DatasetServicer
	opts       Options
	rng        *rand.Rand
	log        *zap.SugaredLogger
}

// New creates a Verifier.
func New(
	exchanges services.ExchangeServicer,
	currencies services.CurrencyServicer,
	dataset services.DatasetServicer,
	opts Options,
) *Verifier {
	if opts.MinAmount <= 0 {
		opts.MinAmount = DefaultMinAmount
	}
	rng := opts.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &Verifier{
		exchanges:  exchanges,
		currencies: currencies,
		dataset:    dataset,
		opts:       opts,
		rng:        rng,
		log:        logger.Named("verify"),
	}
}

// Run executes every check. The returned error is set only when the
// database could not be read; failed checks are reported in the Report.
func (v *Verifier) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	counts, err := v.dataset.Counts()
	if err != nil {
		return nil, err
	}
	report.Counts = counts

	stored, err := v.exchanges.ListAllExchanges()
	if err != nil {
		return nil, err
	}
	ids := make(map[string]string, len(stored))
	for _, ex := range stored {
		ids[ex.Name] = ex.ID
	}
	report.Checks = append(report.Checks, v.checkExchanges(ids))

	currencies, err := v.dataset.CurrencyMemberships()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pairs, err := v.dataset.TradingPairMemberships()
	if err != nil {
		return nil, err
	}

	n := len(v.opts.Exchanges)
	report.Checks = append(report.Checks,
		v.checkCoverage(CheckCurrencyCoverage, currencies, ids),
		v.checkCoverage(CheckPairCoverage, pairs, ids),
		v.checkMirror(CheckCurrencyMirror, currencies, 15+3*n),
		v.checkMirror(CheckPairMirror, pairs, 55+15*n),
	)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	symbols, err := v.checkSymbols()
	if err != nil {
		return nil, err
	}
	report.Checks = append(report.Checks, symbols)

	for _, c := range report.Checks {
		if !c.Passed {
			v.log.Warnw("verification failed", "check", c.Name, "detail", c.Detail, "failures", len(c.Failures))
		}
	}
	v.log.Infow("verification completed", "passed", report.Passed(), "checks", len(report.Checks))
	return report, nil
}

func (v *Verifier) checkExchanges(ids map[string]string) Check {
	c := Check{Name: CheckExchanges}
	for _, name := range v.opts.Exchanges {
		if _, ok := ids[name]; !ok {
			c.Failures = append(c.Failures, fmt.Sprintf("exchange %q is not stored", name))
		}
	}
	c.Passed = len(c.Failures) == 0
	c.Detail = fmt.Sprintf("%d configured, %d stored", len(v.opts.Exchanges), len(ids))
	return c
}

// checkCoverage visits entities in random order until every configured
// exchange has MinAmount linked entities, and fails the exchanges that never
// get there.
func (v *Verifier) checkCoverage(name string, members map[string]*services.Membership, ids map[string]string) Check {
	c := Check{Name: name}

	need := make(map[string]int, len(v.opts.Exchanges))
	for _, ex := range v.opts.Exchanges {
		if id, ok := ids[ex]; ok {
			need[id] = v.opts.MinAmount
		}
	}
	remaining := len(need)

	visited := 0
	for _, id := range v.shuffled(members) {
		if remaining == 0 {
			break
		}
		visited++
		for _, exID := range members[id].Linked {
			left, ok := need[exID]
			if !ok || left == 0 {
				continue
			}
			need[exID] = left - 1
			if left == 1 {
				remaining--
			}
		}
	}

	for _, ex := range v.opts.Exchanges {
		id, ok := ids[ex]
		if !ok {
			continue
		}
		if left := need[id]; left > 0 {
			c.Failures = append(c.Failures, fmt.Sprintf("%s has %d of %d", ex, v.opts.MinAmount-left, v.opts.MinAmount))
		}
	}
	c.Passed = len(c.Failures) == 0
	c.Detail = fmt.Sprintf("min %d per exchange, %d visited", v.opts.MinAmount, visited)
	return c
}

// checkMirror compares the linked and keyed exchanges of a random sample.
func (v *Verifier) checkMirror(name string, members map[string]*services.Membership, size int) Check {
	c := Check{Name: name}

	sample := v.shuffled(members)
	if len(sample) > size {
		sample = sample[:size]
	}
	for _, id := range sample {
		m := members[id]
		linked, keyed := distinct(m.Linked), distinct(m.Keyed)
		if !slices.Equal(linked, keyed) {
			c.Failures = append(c.Failures, fmt.Sprintf("%s: linked [%s] keyed [%s]",
				id, strings.Join(linked, " "), strings.Join(keyed, " ")))
		}
	}
	c.Passed = len(c.Failures) == 0
	c.Detail = fmt.Sprintf("%d of %d sampled", len(sample), len(members))
	return c
}

func (v *Verifier) checkSymbols() (Check, error) {
	c := Check{Name: CheckSymbols}
	for _, sym := range v.opts.Symbols {
		_, err := v.currencies.FindByTicker(nil, sym)
		if errors.Is(err, apperrors.ErrCurrencyNotFound) {
			c.Failures = append(c.Failures, fmt.Sprintf("ticker %s is missing", sym))
			continue
		}
		if err != nil {
			return c, err
		}
	}
	c.Passed = len(c.Failures) == 0
	c.Detail = fmt.Sprintf("%d of %d present", len(v.opts.Symbols)-len(c.Failures), len(v.opts.Symbols))
	return c, nil
}

// shuffled returns the entity IDs in random order. The IDs are sorted first
// so a seeded Rand gives the same order on every run.
func (v *Verifier) shuffled(members map[string]*services.Membership) []string {
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	v.rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	return ids
}

func distinct(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
