package configs

import (
	"github.com/spf13/viper"
)

// MetricsConfig Prometheus exposition.
//
// Example:
//
//	cfg := configs.GetConfig()
//	if cfg.Metrics.Enabled {
//		m := metrics.New(cfg.Metrics)
//		m.Mount(engine)
//	}
type MetricsConfig struct {
	Enabled        bool              `mapstructure:"enabled"`
	ServiceName    string            `mapstructure:"service_name"`
	ServiceVersion string            `mapstructure:"service_version"`
	Path           string            `mapstructure:"path"     rule:"startswith=/"`
	Endpoint       string            `mapstructure:"endpoint"` // separate listener; empty serves on the main engine
	RuntimeMetrics bool              `mapstructure:"runtime_metrics"`
	Pprof          bool              `mapstructure:"pprof"`
	Labels         map[string]string `mapstructure:"labels"`
}

func (c *MetricsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.service_name", "filevault")
	v.SetDefault("metrics.service_version", AppVersion)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.endpoint", "")
	v.SetDefault("metrics.runtime_metrics", true)
	v.SetDefault("metrics.pprof", false)
	v.SetDefault("metrics.labels", map[string]string{})
}
