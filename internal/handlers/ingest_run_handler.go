package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cryptodata/internal/pagination"
	"cryptodata/internal/services"
)

// IngestRunHandler serves the ingest audit trail and dataset totals.
type IngestRunHandler struct {
	ingestRunService services.IngestRunServicer
	datasetService   services.DatasetServicer
}

// NewIngestRunHandler creates a new IngestRunHandler.
func NewIngestRunHandler(ingestRunService services.IngestRunServicer, datasetService services.DatasetServicer) *IngestRunHandler {
	return &IngestRunHandler{ingestRunService: ingestRunService, datasetService: datasetService}
}

// ListIngestRunsQuery holds the filters of the ingest run listing.
type ListIngestRunsQuery struct {
	pagination.PageRequest
	Kind string `form:"kind" binding:"omitempty,oneof=reference currencies pairs"`
}

// ListIngestRuns returns a page of ingest runs, newest first.
// @Summary     List ingest runs
// @Description Get the ingest audit trail with per-step counters and skip breakdown, newest first
// @Tags        ingest
// @Produce     json
// @Param       kind      query string false "Step kind" Enums(reference, currencies, pairs)
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 50, max 500)"
// @Success     200 {object} pagination.PageResponse[models.IngestRun] "Paginated ingest runs"
// @Failure     400 {object} ErrorResponse "Invalid query"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /v1/ingest-runs [get]
func (h *IngestRunHandler) ListIngestRuns(c *gin.Context) {
	var q ListIngestRunsQuery
	if err := bindQuery(c, &q); err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.ingestRunService.ListRuns(q.PageRequest, q.Kind)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetStats returns the row count of every reconciled table.
// @Summary     Dataset stats
// @Description Get the row count of every reconciled table
// @Tags        ingest
// @Produce     json
// @Success     200 {object} map[string]services.DatasetCounts "Row counts"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /v1/stats [get]
func (h *IngestRunHandler) GetStats(c *gin.Context) {
	counts, err := h.datasetService.Counts()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"counts": counts})
}
