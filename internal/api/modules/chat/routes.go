package chat

import (
	"context"

	"github.com/ethanbaker/civicchat/internal/stores/session"
	"github.com/ethanbaker/civicchat/pkg/civic"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TurnHandler answers a single user message
type TurnHandler interface {
	HandleTurn(ctx context.Context, message, lang string) (civic.Reply, error)
}

// RegisterRoutes registers the routes for the chat module. sessions may be nil, in which case
// requests naming a chatId are answered with 404
func RegisterRoutes(g *gin.RouterGroup, turns TurnHandler, sessions *session.Store, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ctl := &controller{
		turns:    turns,
		sessions: sessions,
		logger:   logger,
	}

	g.POST("/chat", ctl.postChat)
}
