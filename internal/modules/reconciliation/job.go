package reconciliation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// OrphanRepairJob runs a repair pass over all users on a schedule
type OrphanRepairJob struct {
	service *Service
	timeout time.Duration
	log     zerolog.Logger
}

// NewOrphanRepairJob creates a job bounded by timeout per run
func NewOrphanRepairJob(service *Service, timeout time.Duration, log zerolog.Logger) *OrphanRepairJob {
	return &OrphanRepairJob{
		service: service,
		timeout: timeout,
		log:     log.With().Str("job", "orphan_repair").Logger(),
	}
}

// Name returns the job name
func (j *OrphanRepairJob) Name() string {
	return "orphan_repair"
}

// Run executes one repair pass
func (j *OrphanRepairJob) Run() error {
	ctx := context.Background()
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	result, err := j.service.RepairAll(ctx)
	if err != nil {
		return fmt.Errorf("orphan repair pass failed: %w", err)
	}
	if result.Failed > 0 {
		return fmt.Errorf("orphan repair failed for %d of %d users", result.Failed, result.Users)
	}

	j.log.Debug().Int("fixed_count", result.FixedCount).Msg("Orphan repair job completed")
	return nil
}
