package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/configs"
)

// CORSMiddleware allows the configured origins. With credentials enabled a
// wildcard origin is reflected per request, since browsers reject "*"
// together with cookies.
func CORSMiddleware(cfg configs.CORSConfig, debug bool) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	config.ExposeHeaders = []string{"Content-Disposition", "Retry-After"}
	config.AllowCredentials = cfg.AllowCredentials
	config.MaxAge = time.Duration(cfg.MaxAgeSeconds) * time.Second

	wildcard := debug || len(cfg.AllowOrigins) == 0

	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			wildcard = true
		}
	}

	switch {
	case wildcard && cfg.AllowCredentials:
		config.AllowOriginFunc = func(string) bool { return true }
	case wildcard:
		config.AllowAllOrigins = true
	default:
		config.AllowOrigins = cfg.AllowOrigins
	}

	return cors.New(config)
}
