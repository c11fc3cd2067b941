package configs

import (
	"github.com/spf13/viper"
)

const (
	DefaultLogEnableFile = false                // file output
	DefaultLogFilePath   = "logs/filevault.log" // file path
	DefaultLogMaxSize    = 100                  // MB per file
	DefaultLogMaxBackups = 7                    // rotated files kept
	DefaultLogMaxAge     = 28                   // days
	DefaultLogCompress   = true                 // gzip rotated files
	DefaultLogLevel      = "info"
)

type (
	// LogConfig logging settings.
	LogConfig struct {
		EnableFile bool   `mapstructure:"enable_file"`
		FilePath   string `mapstructure:"file_path"`
		MaxSize    int    `mapstructure:"max_size_mb"  rule:"min=0"`
		MaxBackups int    `mapstructure:"max_backups"  rule:"min=0"`
		MaxAge     int    `mapstructure:"max_age_days" rule:"min=0"`
		Compress   bool   `mapstructure:"compress"`
		Level      string `mapstructure:"level"        rule:"oneof=trace debug info warn error fatal panic disabled"`
	}
)

func (l *LogConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("log.enable_file", DefaultLogEnableFile)
	v.SetDefault("log.file_path", DefaultLogFilePath)
	v.SetDefault("log.max_size_mb", DefaultLogMaxSize)
	v.SetDefault("log.max_backups", DefaultLogMaxBackups)
	v.SetDefault("log.max_age_days", DefaultLogMaxAge)
	v.SetDefault("log.compress", DefaultLogCompress)
	v.SetDefault("log.level", DefaultLogLevel)
}
