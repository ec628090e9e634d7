package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/aristath/navcast/internal/services"
)

// DataRefreshJob re-ingests the newest extracts from the data directory so
// the served snapshots track nightly file drops without a restart.
type DataRefreshJob struct {
	refresh *services.RefreshService
	log     zerolog.Logger
}

// NewDataRefreshJob creates the job.
func NewDataRefreshJob(refresh *services.RefreshService, log zerolog.Logger) *DataRefreshJob {
	return &DataRefreshJob{
		refresh: refresh,
		log:     log.With().Str("job", "data_refresh").Logger(),
	}
}

// Name implements Job.
func (j *DataRefreshJob) Name() string {
	return "data_refresh"
}

// Run implements Job.
func (j *DataRefreshJob) Run() error {
	return j.refresh.ReloadAll()
}
