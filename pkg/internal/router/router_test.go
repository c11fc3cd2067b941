package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/yeisme/filevault/pkg/internal/handle"
)

func TestRegisterFallsBackToDefaultHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	got := RegisterFilesRoutes(r.Group("/api"), nil)
	assert.IsType(t, handle.DefaultHandlers{}, got)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/files/upload"},
		{http.MethodGet, "/api/files"},
		{http.MethodGet, "/api/files/abc"},
		{http.MethodDelete, "/api/files/abc"},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusNotImplemented, w.Code, "%s %s", tc.method, tc.path)
	}
}
