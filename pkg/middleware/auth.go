package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/apperr"
	"github.com/yeisme/filevault/pkg/internal/service"
	"github.com/yeisme/filevault/pkg/internal/types"
)

const sessionKey = "filevault.session"

// Authenticator resolves a session token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*service.Session, error)
}

// AuthMiddleware requires a live session on every path not covered by
// conf.SkipPaths. The token is read from the session cookie first, then
// from an "Authorization: Bearer" header.
func AuthMiddleware(auth Authenticator, conf configs.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSkippedPath(c.Request.URL.Path, conf.SkipPaths) || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		token := TokenFromRequest(c, conf.CookieName)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.Fail(types.CodeUnauthorized, "authentication required"))
			return
		}

		sess, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			msg := "authentication required"
			if apperr.KindOf(err) == apperr.KindUnauthorized {
				msg = apperr.Message(err)
			} else {
				_ = c.Error(err)
			}

			c.AbortWithStatusJSON(http.StatusUnauthorized, types.Fail(types.CodeUnauthorized, msg))

			return
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

// TokenFromRequest returns the session token of the request, or "".
func TokenFromRequest(c *gin.Context, cookieName string) string {
	if cookieName != "" {
		if v, err := c.Cookie(cookieName); err == nil && v != "" {
			return v
		}
	}

	if h := c.GetHeader("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}

	return ""
}

// SessionFrom returns the session stored by AuthMiddleware.
func SessionFrom(c *gin.Context) (*service.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}

	sess, ok := v.(*service.Session)

	return sess, ok && sess != nil
}

// SetSession stores sess on c.
func SetSession(c *gin.Context, sess *service.Session) {
	c.Set(sessionKey, sess)
}

func isSkippedPath(path string, skips []string) bool {
	if path == "" || len(skips) == 0 {
		return false
	}

	for _, p := range skips {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}

	return false
}
