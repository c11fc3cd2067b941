package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/internal/handle"
)

// RegisterAuthRoutes mounts the account routes under g/auth.
func RegisterAuthRoutes(g *gin.RouterGroup, h *handle.AuthHandlers) {
	authRoutes := g.Group("/auth")
	{
		authRoutes.POST("/signup", h.Signup)
		authRoutes.POST("/login", h.Login)
		authRoutes.POST("/logout", h.Logout)
		authRoutes.GET("/me", h.Me)
	}
}
