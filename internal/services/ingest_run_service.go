package services

import (
	"time"

	"gorm.io/gorm"

	apperrors "cryptodata/internal/errors"
	"cryptodata/internal/logger"
	"cryptodata/internal/models"
	"cryptodata/internal/pagination"
)

// ingestRunService records the ingest audit trail. Write failures are
// logged and never fail the ingest itself.
type ingestRunService struct {
	db *gorm.DB
}

// NewIngestRunService creates a new IngestRunServicer.
func NewIngestRunService(db *gorm.DB) IngestRunServicer {
	return &ingestRunService{db: db}
}

// StartRun inserts a running IngestRun row.
func (s *ingestRunService) StartRun(kind, source string) *models.IngestRun {
	run := &models.IngestRun{
		Kind:      kind,
		Source:    source,
		Status:    models.IngestStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := s.db.Create(run).Error; err != nil {
		logger.Get().Errorw("failed to create ingest run",
			"error", err,
			"kind", kind,
			"source", source,
		)
	}
	return run
}

// FinishRun stores the counters and final status of a run.
func (s *ingestRunService) FinishRun(run *models.IngestRun, counts RunCounts, runErr error) {
	finished := time.Now().UTC()
	run.Seen = counts.Seen
	run.Created = counts.Created
	run.PKsCreated = counts.PKsCreated
	run.TickersCreated = counts.TickersCreated
	run.Linked = counts.Linked
	run.Skipped = counts.Skipped
	run.Invalid = counts.Invalid
	run.Unresolved = counts.Unresolved
	run.Conflicts = counts.Conflicts
	run.Existing = counts.Existing
	run.FinishedAt = &finished
	run.Status = models.IngestStatusSucceeded
	run.Error = ""
	if runErr != nil {
		run.Status = models.IngestStatusFailed
		run.Error = runErr.Error()
	}

	err := s.db.Model(run).Select(
		"status", "seen", "created", "pks_created", "tickers_created", "linked", "skipped",
		"invalid", "unresolved", "conflicts", "existing", "error", "finished_at",
	).Updates(run).Error
	if err != nil {
		logger.Get().Errorw("failed to finish ingest run",
			"error", err,
			"run_id", run.ID,
			"kind", run.Kind,
			"source", run.Source,
		)
	}
}

// ListRuns returns a page of runs, newest first, optionally for one kind.
func (s *ingestRunService) ListRuns(page pagination.PageRequest, kind string) (*pagination.PageResponse[models.IngestRun], error) {
	page.Defaults()

	query := func() *gorm.DB {
		q := s.db.Model(&models.IngestRun{})
		if kind != "" {
			q = q.Where("kind = ?", kind)
		}
		return q
	}

	var totalItems int64
	if err := query().Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var runs []models.IngestRun
	if err := query().Order("started_at DESC").Scopes(pagination.Paginate(page)).Find(&runs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(runs, page, totalItems)
	return &result, nil
}
