package reconcile

import "cryptodata/internal/services"

// Stats counts what one sync step did. Created counts currencies for
// currency and reference syncs and trading pairs for pair syncs.
type Stats struct {
	Seen           int `json:"seen"`
	Created        int `json:"created"`
	PKsCreated     int `json:"pks_created"`
	TickersCreated int `json:"tickers_created"`
	Linked         int `json:"linked"`
	Skipped        int `json:"skipped"`

	// Skipped breakdown.
	Invalid    int `json:"invalid"`
	Unresolved int `json:"unresolved"`
	Conflicts  int `json:"conflicts"`
	Existing   int `json:"existing"`
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Seen += o.Seen
	s.Created += o.Created
	s.PKsCreated += o.PKsCreated
	s.TickersCreated += o.TickersCreated
	s.Linked += o.Linked
	s.Skipped += o.Skipped
	s.Invalid += o.Invalid
	s.Unresolved += o.Unresolved
	s.Conflicts += o.Conflicts
	s.Existing += o.Existing
}

// RunCounts converts the stats into IngestRun counters.
func (s Stats) RunCounts() services.RunCounts {
	return services.RunCounts{
		Seen:           s.Seen,
		Created:        s.Created,
		PKsCreated:     s.PKsCreated,
		TickersCreated: s.TickersCreated,
		Linked:         s.Linked,
		Skipped:        s.Skipped,
		Invalid:        s.Invalid,
		Unresolved:     s.Unresolved,
		Conflicts:      s.Conflicts,
		Existing:       s.Existing,
	}
}
