package health

import (
	"github.com/ethanbaker/civicchat/internal/config"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the routes for the health module
func RegisterRoutes(g *gin.RouterGroup, credentials config.CredentialPresence) {
	g.GET("/health", getStatus(credentials))
}
