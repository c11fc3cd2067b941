// Package router binds the handlers of pkg/internal/handle to gin routes.
package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/internal/handle"
)

// ObjHandlers are the file handlers injected by the application layer.
type ObjHandlers interface {
	Upload() gin.HandlerFunc
	Download() gin.HandlerFunc
	Delete() gin.HandlerFunc
	List() gin.HandlerFunc
}

// Register binds handlers under group and returns the handlers in use. A
// nil handlers serves 501 on every route. Assuming group is /api/files:
//
//	POST   /upload -> Upload
//	GET    /       -> List (gzip)
//	GET    /:id    -> Download
//	DELETE /:id    -> Delete
func Register(group *gin.RouterGroup, handlers ObjHandlers) ObjHandlers {
	if handlers == nil {
		handlers = handle.DefaultHandlers{}
	}

	group.POST("/upload", handlers.Upload())
	group.GET("", gzip.Gzip(gzip.DefaultCompression), handlers.List())
	group.GET("/:id", handlers.Download())
	group.DELETE("/:id", handlers.Delete())

	return handlers
}
