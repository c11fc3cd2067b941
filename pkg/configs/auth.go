package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultAuthCookieName = "fv_session"
	DefaultAuthSecret     = "change-me-in-production"
	DefaultSessionTTL     = 24 * time.Hour
	DefaultBcryptCost     = 10
)

// AuthConfig session authentication.
type AuthConfig struct {
	CookieName   string        `mapstructure:"cookie_name"   rule:"required"`
	Secret       string        `mapstructure:"secret"        rule:"required,min=8"`
	SessionTTL   time.Duration `mapstructure:"session_ttl"   rule:"min=1m"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
	CookieDomain string        `mapstructure:"cookie_domain"`
	BcryptCost   int           `mapstructure:"bcrypt_cost"   rule:"min=4,max=31"`
	SkipPaths    []string      `mapstructure:"skip_paths"` // path prefixes served without a session
}

func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.cookie_name", DefaultAuthCookieName)
	v.SetDefault("auth.secret", DefaultAuthSecret)
	v.SetDefault("auth.session_ttl", DefaultSessionTTL)
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.cookie_domain", "")
	v.SetDefault("auth.bcrypt_cost", DefaultBcryptCost)
	v.SetDefault("auth.skip_paths", []string{
		"/health",
		"/metrics",
		"/swagger",
		"/api/auth/signup",
		"/api/auth/login",
		"/api/auth/logout",
	})
}
