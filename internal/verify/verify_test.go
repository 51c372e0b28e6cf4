package verify

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"cryptodata/internal/models"
	"cryptodata/internal/services"
	"cryptodata/internal/testutil"
)

type dataset struct {
	db        *gorm.DB
	exchanges map[string]*models.Exchange
	coins     []*models.Currency
}

// seed lists four currencies and three pairs on both exchanges, and gives
// the first currency the BTC ticker.
func seed(t *testing.T) *dataset {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	d := &dataset{db: db, exchanges: map[string]*models.Exchange{}}
	for _, name := range []string{"Bittrex", "Kraken"} {
		d.exchanges[name] = testutil.CreateTestExchange(t, db, name)
	}
	for i := range 4 {
		c := testutil.CreateTestCurrency(t, db)
		d.coins = append(d.coins, c)
		for name, ex := range d.exchanges {
			testutil.ListTestCurrency(t, db, c.ID, ex.ID, fmt.Sprintf("%s-%d", name, i))
		}
	}
	testutil.CreateTestTicker(t, db, d.coins[0].ID, "BTC")

	for i := range 3 {
		p := testutil.CreateTestTradingPair(t, db, d.coins[i].ID, d.coins[i+1].ID)
		for name, ex := range d.exchanges {
			testutil.ListTestTradingPair(t, db, p.ID, ex.ID, fmt.Sprintf("%s-pair-%d", name, i))
		}
	}
	return d
}

func (d *dataset) verifier(opts Options) *Verifier {
	if opts.Exchanges == nil {
		opts.Exchanges = []string{"Bittrex", "Kraken"}
	}
	if opts.MinAmount == 0 {
		opts.MinAmount = 2
	}
	if opts.Symbols == nil {
		opts.Symbols = []string{"BTC"}
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(1, 2))
	}
	return New(
		services.NewExchangeService(d.db),
		services.NewCurrencyService(d.db),
		services.NewDatasetService(d.db),
		opts,
	)
}

func TestRun_Healthy(t *testing.T) {
	d := seed(t)

	report, err := d.verifier(Options{}).Run(context.Background())
	require.NoError(t, err)
	for _, c := range report.Checks {
		assert.True(t, c.Passed, "%s: %v", c.Name, c.Failures)
	}
	assert.True(t, report.Passed())
	assert.Len(t, report.Checks, 6)
	assert.Equal(t, int64(4), report.Counts.Currencies)
	assert.Equal(t, int64(3), report.Counts.TradingPairs)

	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf))
	assert.Contains(t, buf.String(), "PASS currency_mirror")
}

func TestRun_MissingExchange(t *testing.T) {
	d := seed(t)

	report, err := d.verifier(Options{Exchanges: []string{"Bittrex", "Kraken", "Binance"}}).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Passed())

	c := report.Check(CheckExchanges)
	require.NotNil(t, c)
	assert.False(t, c.Passed)
	assert.Equal(t, []string{`exchange "Binance" is not stored`}, c.Failures)

	// coverage only judges exchanges that exist
	assert.True(t, report.Check(CheckCurrencyCoverage).Passed)
}

func TestRun_Coverage(t *testing.T) {
	d := seed(t)

	report, err := d.verifier(Options{MinAmount: 4}).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Check(CheckCurrencyCoverage).Passed)
	pairs := report.Check(CheckPairCoverage)
	assert.False(t, pairs.Passed)
	assert.ElementsMatch(t, []string{"Bittrex has 3 of 4", "Kraken has 3 of 4"}, pairs.Failures)
}

func TestRun_MirrorViolation(t *testing.T) {
	d := seed(t)
	orphan := testutil.CreateTestCurrency(t, d.db)
	testutil.CreateTestCurrencyPK(t, d.db, orphan.ID, d.exchanges["Kraken"].ID, "ORPHAN")

	report, err := d.verifier(Options{}).Run(context.Background())
	require.NoError(t, err)

	mirror := report.Check(CheckCurrencyMirror)
	assert.False(t, mirror.Passed)
	require.Len(t, mirror.Failures, 1)
	assert.Contains(t, mirror.Failures[0], orphan.ID)
	assert.True(t, report.Check(CheckPairMirror).Passed)
}

func TestRun_DuplicateKeysStillMirror(t *testing.T) {
	d := seed(t)
	testutil.CreateTestCurrencyPK(t, d.db, d.coins[0].ID, d.exchanges["Kraken"].ID, "XBT.M")

	report, err := d.verifier(Options{}).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Check(CheckCurrencyMirror).Passed)
}

func TestRun_MissingSymbol(t *testing.T) {
	d := seed(t)

	report, err := d.verifier(Options{Symbols: []string{"BTC", "XDG"}}).Run(context.Background())
	require.NoError(t, err)

	symbols := report.Check(CheckSymbols)
	assert.False(t, symbols.Passed)
	assert.Equal(t, []string{"ticker XDG is missing"}, symbols.Failures)
	assert.Equal(t, "1 of 2 present", symbols.Detail)
}

func TestRun_EmptyDataset(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	d := &dataset{db: db}

	report, err := d.verifier(Options{}).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Passed())
	assert.False(t, report.Check(CheckExchanges).Passed)
	assert.True(t, report.Check(CheckCurrencyMirror).Passed)
}

func TestRun_Cancelled(t *testing.T) {
	d := seed(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.verifier(Options{}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestShuffled_SeededIsDeterministic(t *testing.T) {
	members := map[string]*services.Membership{}
	for i := range 20 {
		members[fmt.Sprintf("id-%02d", i)] = &services.Membership{}
	}

	a := New(nil, nil, nil, Options{Rand: rand.New(rand.NewPCG(7, 7))})
	b := New(nil, nil, nil, Options{Rand: rand.New(rand.NewPCG(7, 7))})
	first := a.shuffled(members)
	assert.Equal(t, first, b.shuffled(members))
	assert.Len(t, first, 20)
	assert.Equal(t, DefaultMinAmount, a.opts.MinAmount)
}

func TestCheckMirror_SampleSize(t *testing.T) {
	members := map[string]*services.Membership{}
	for i := range 10 {
		members[fmt.Sprintf("id-%02d", i)] = &services.Membership{Linked: []string{"x"}}
	}

	v := New(nil, nil, nil, Options{Rand: rand.New(rand.NewPCG(1, 1))})
	c := v.checkMirror(CheckCurrencyMirror, members, 4)
	assert.False(t, c.Passed)
	assert.Len(t, c.Failures, 4)
	assert.Equal(t, "4 of 10 sampled", c.Detail)
}
