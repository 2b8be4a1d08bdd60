package sessions

import (
	"github.com/ethanbaker/civicchat/internal/stores/session"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the routes for the sessions module
func RegisterRoutes(g *gin.RouterGroup, store *session.Store) {
	ctl := &controller{store: store}

	group := g.Group("/sessions")

	group.GET("", ctl.listSessions)              // List sessions and the active id
	group.POST("", ctl.createSession)            // Create a new session, which becomes active
	group.DELETE("", ctl.clearSessions)          // Remove every session
	group.GET("/search", ctl.searchSessions)     // Search every transcript with ?q=
	group.GET("/:id", ctl.getSession)            // Get a session by id
	group.PUT("/:id", ctl.renameSession)         // Rename a session
	group.POST("/:id/select", ctl.selectSession) // Make a session active
	group.DELETE("/:id", ctl.deleteSession)      // Delete a session
}
