package configs

import "github.com/spf13/viper"

// CORSConfig cross-origin settings for the browser client.
type CORSConfig struct {
	AllowOrigins     []string `mapstructure:"allow_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAgeSeconds    int      `mapstructure:"max_age_seconds" rule:"min=0"`
}

func (c *CORSConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("cors.allow_origins", []string{"http://localhost:5173"})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age_seconds", 43200)
}
