package di

import (
	"fmt"
	"time"

	"github.com/aristath/tradejournal/internal/config"
	"github.com/aristath/tradejournal/internal/modules/reconciliation"
	"github.com/aristath/tradejournal/internal/scheduler"
	"github.com/rs/zerolog"
)

const (
	// walCheckpointSchedule runs every six hours
	walCheckpointSchedule = "0 0 */6 * * *"
	// orphanRepairTimeout bounds a single scheduled repair pass
	orphanRepairTimeout = 5 * time.Minute
)

// RegisterJobs creates background jobs and registers them with the scheduler
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	container.Scheduler = scheduler.New(log)

	jobs := &JobInstances{
		OrphanRepair:  reconciliation.NewOrphanRepairJob(container.ReconciliationService, orphanRepairTimeout, log),
		WALCheckpoint: scheduler.NewWALCheckpointJob(log, container.LedgerDB),
	}

	if err := container.Scheduler.AddJob(cfg.RepairSchedule, jobs.OrphanRepair); err != nil {
		return nil, fmt.Errorf("failed to register orphan repair job: %w", err)
	}
	if err := container.Scheduler.AddJob(walCheckpointSchedule, jobs.WALCheckpoint); err != nil {
		return nil, fmt.Errorf("failed to register WAL checkpoint job: %w", err)
	}

	container.Jobs = jobs
	return jobs, nil
}
