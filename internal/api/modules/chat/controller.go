package chat

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ethanbaker/civicchat/internal/stores/session"
	"github.com/ethanbaker/civicchat/pkg/civic"
	"github.com/ethanbaker/civicchat/pkg/sdk"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ReplyNoMessage = "No message provided."
	ReplyNotFound  = "That chat could not be found."
	ReplyFailure   = "Sorry, something went wrong while contacting CivicChat's civic knowledge base."
)

type controller struct {
	turns    TurnHandler
	sessions *session.Store
	logger   *zap.Logger
}

// postChat handles POST /api/chat
func (ctl *controller) postChat(c *gin.Context) {
	var req sdk.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, sdk.ChatResponse{Reply: ReplyNoMessage})
		return
	}

	ctx := c.Request.Context()
	chatID := strings.TrimSpace(req.ChatID)

	// Record the user's turn first so the transcript reflects it even if generation fails
	if chatID != "" {
		if ctl.sessions == nil {
			c.JSON(http.StatusNotFound, sdk.ChatResponse{Reply: ReplyNotFound})
			return
		}
		if err := ctl.sessions.BeginTurn(ctx, chatID, req.Message); err != nil {
			ctl.fail(c, err)
			return
		}
	}

	reply, err := ctl.turns.HandleTurn(ctx, req.Message, req.LanguageCode())
	if err != nil {
		if chatID != "" {
			ctl.sessions.AbandonTurn(chatID)
		}
		ctl.fail(c, err)
		return
	}

	if chatID != "" {
		if err := ctl.sessions.ResolveTurn(ctx, chatID, reply); err != nil {
			ctl.fail(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, sdk.ChatResponse{
		Reply:   reply.Text,
		Sources: reply.Sources,
		ChatID:  chatID,
	})
}

// fail maps an error to the chat failure replies. Details are logged, never returned
func (ctl *controller) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, civic.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, sdk.ChatResponse{Reply: ReplyNoMessage})
	case errors.Is(err, civic.ErrNotFound):
		c.JSON(http.StatusNotFound, sdk.ChatResponse{Reply: ReplyNotFound})
	default:
		ctl.logger.Error("chat turn failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, sdk.ChatResponse{Reply: ReplyFailure})
	}
}
