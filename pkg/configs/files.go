package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultMaxUploadBytes = 50 << 20        // 50MB
	DefaultListCacheTTL   = 5 * time.Minute // owner listing cache
	DefaultSniffContent   = false           // verify magic bytes against the allow-list
)

// FilesConfig upload policy.
type FilesConfig struct {
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes" rule:"min=0"`
	ListCacheTTL   time.Duration `mapstructure:"list_cache_ttl"   rule:"min=0"`
	SniffContent   bool          `mapstructure:"sniff_content"`
}

func (c *FilesConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("files.max_upload_bytes", DefaultMaxUploadBytes)
	v.SetDefault("files.list_cache_ttl", DefaultListCacheTTL)
	v.SetDefault("files.sniff_content", DefaultSniffContent)
}
