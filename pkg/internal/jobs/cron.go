// Package jobs implements the maintenance jobs run by the scheduler.
package jobs

import (
	"context"
	"fmt"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/scheduler"
)

// RegisterCronJobs schedules the jobs enabled in cfg.
func RegisterCronJobs(ctx context.Context, sched *scheduler.Scheduler, cfg configs.JobsConfig, cleaner *OrphanCleaner) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if !cfg.Enabled || cleaner == nil {
		return nil
	}

	cleaner.Grace = cfg.Orphan.Grace
	if cfg.Orphan.BatchSize > 0 {
		cleaner.Records.WithBatchSize(cfg.Orphan.BatchSize)
	}

	return sched.AddCron(ctx, JobOrphanCleanup, cfg.Orphan.Cron, func(ctx context.Context) error {
		report, err := cleaner.Run(ctx)
		if err != nil {
			return err
		}

		cleaner.logger().Info().
			Int("blobs", report.Blobs).
			Int("records", report.Records).
			Int("removed_blobs", report.RemovedBlobs).
			Int("removed_records", report.RemovedRecords).
			Msg("orphan cleanup done")

		return nil
	})
}
