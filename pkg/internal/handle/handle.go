// Package handle implements the HTTP handlers. Handlers translate between
// the wire format and the services; every failure goes through fail so the
// status mapping lives in one place.
package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/filevault/pkg/context"
	"github.com/yeisme/filevault/pkg/internal/apperr"
	"github.com/yeisme/filevault/pkg/internal/service"
	"github.com/yeisme/filevault/pkg/internal/types"
	"github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/middleware"
)

const msgInternal = "internal server error"

// DefaultHandler answers 501.
func DefaultHandler(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, types.Fail(types.CodeInternal, "not implemented"))
}

// DefaultHandlers serves 501 on every file route.
type DefaultHandlers struct{}

func (DefaultHandlers) Upload() gin.HandlerFunc   { return DefaultHandler }
func (DefaultHandlers) Download() gin.HandlerFunc { return DefaultHandler }
func (DefaultHandlers) Delete() gin.HandlerFunc   { return DefaultHandler }
func (DefaultHandlers) List() gin.HandlerFunc     { return DefaultHandler }

// fail writes the error envelope of err. Causes of internal kinds are
// logged and never rendered.
func fail(c *gin.Context, err error) {
	status, code, msg := classify(err)

	logger := ctxPkg.WithTraceContext(c.Request.Context(), *log.Logger())

	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("kind", apperr.KindOf(err).String()).
			Msg("request failed")
	} else {
		logger.Debug().Err(err).Int("status", status).Msg("request rejected")
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, types.Fail(code, msg))
}

func classify(err error) (int, string, string) {
	msg := apperr.Message(err)

	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest, types.CodeValidation, msg
	case apperr.KindNotFound:
		return http.StatusNotFound, types.CodeNotFound, msg
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized, types.CodeUnauthorized, msg
	case apperr.KindConflict:
		return http.StatusConflict, types.CodeConflict, msg
	default:
		return http.StatusInternalServerError, types.CodeInternal, msgInternal
	}
}

// session returns the caller's session, aborting with 401 when the route
// was reached without one.
func session(c *gin.Context) (*service.Session, bool) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		fail(c, apperr.Unauthorized("authentication required"))
		return nil, false
	}

	return sess, true
}
