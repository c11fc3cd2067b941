package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterFilesRoutes mounts the file routes under g/files.
func RegisterFilesRoutes(g *gin.RouterGroup, handlers ObjHandlers) ObjHandlers {
	return Register(g.Group("/files"), handlers)
}
