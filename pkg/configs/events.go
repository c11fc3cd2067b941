package configs

import "github.com/spf13/viper"

// EventsConfig toggles domain event publishing and the in-process consumer.
type EventsConfig struct {
	Enabled  bool             `mapstructure:"enabled"`
	Consumer bool             `mapstructure:"consumer"` // run the usage consumer alongside the server
	File     FileEventsConfig `mapstructure:"file"`
}

// FileEventsConfig per-topic switches.
type FileEventsConfig struct {
	Stored        bool `mapstructure:"stored"`
	Deleted       bool `mapstructure:"deleted"`
	OrphanRemoved bool `mapstructure:"orphan_removed"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("events.enabled", true)
	v.SetDefault("events.consumer", true)

	v.SetDefault("events.file.stored", true)
	v.SetDefault("events.file.deleted", true)
	v.SetDefault("events.file.orphan_removed", true)
}
