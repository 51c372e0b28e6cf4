package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptodata/internal/reconcile"
)

func TestObserveStep(t *testing.T) {
	m := New()

	m.ObserveStep("currencies", "Kraken", reconcile.Stats{Seen: 10, Created: 2, PKsCreated: 10, Linked: 10}, nil)
	m.ObserveStep("pairs", "Bittrex", reconcile.Stats{Seen: 3, Unresolved: 3, Skipped: 3}, errors.New("boom"))

	assert.Equal(t, 10.0, testutil.ToFloat64(m.RecordsTotal.WithLabelValues("currencies", "Kraken", "seen")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RecordsTotal.WithLabelValues("pairs", "Bittrex", "unresolved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StepsTotal.WithLabelValues("pairs", "Bittrex", "failed")))
	assert.Positive(t, testutil.ToFloat64(m.LastSuccessful.WithLabelValues("currencies", "Kraken")))
}

func TestObserveFetch(t *testing.T) {
	m := New()

	m.ObserveFetch("currencies", "Binance", 150*time.Millisecond, nil)
	m.ObserveFetch("currencies", "Binance", time.Second, errors.New("timeout"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchErrors.WithLabelValues("currencies", "Binance")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.FetchDuration), "one histogram series")
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveStep("reference", "CoinAPI", reconcile.Stats{Seen: 1, Created: 1}, nil)

	path := filepath.Join(t.TempDir(), "cryptodata.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `cryptodata_ingest_records_total{kind="reference",outcome="created",source="CoinAPI"} 1`)
}

func TestHandler(t *testing.T) {
	m := NewWithRuntime()
	m.ObserveStep("pairs", "Kraken", reconcile.Stats{Seen: 1}, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cryptodata_ingest_steps_total")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
