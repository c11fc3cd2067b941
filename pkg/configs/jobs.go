package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultJobsEnabled     = true
	DefaultOrphanCron      = "0 3 * * *" // daily at 03:00
	DefaultOrphanGrace     = time.Hour   // blobs younger than this are never collected
	DefaultOrphanBatchSize = 200
)

// JobsConfig background maintenance.
type JobsConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	Orphan  OrphanCleanConfig `mapstructure:"orphan"`
}

// OrphanCleanConfig reconciliation of records and blobs.
type OrphanCleanConfig struct {
	Cron      string        `mapstructure:"cron"       rule:"required"`
	Grace     time.Duration `mapstructure:"grace"      rule:"min=0"`
	BatchSize int           `mapstructure:"batch_size" rule:"min=1"`
}

func (c *JobsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("jobs.enabled", DefaultJobsEnabled)
	v.SetDefault("jobs.orphan.cron", DefaultOrphanCron)
	v.SetDefault("jobs.orphan.grace", DefaultOrphanGrace)
	v.SetDefault("jobs.orphan.batch_size", DefaultOrphanBatchSize)
}
