package main

import (
	"context"
	"fmt"
	"strings"

	chat_module "github.com/ethanbaker/civicchat/internal/api/modules/chat"
	"github.com/ethanbaker/civicchat/pkg/civic"
	"github.com/ethanbaker/civicchat/pkg/sdk"
	"go.uber.org/zap"
)

// ask runs one turn on the active session: record the question, ask the gateway, record the reply.
// A gateway failure drops the placeholder and keeps the question in the transcript
func (a *app) ask(ctx context.Context, message string) (civic.Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return civic.Reply{}, fmt.Errorf("failed to ask: %w", civic.ErrInvalidInput)
	}

	id := a.store.ActiveID()
	if err := a.store.BeginTurn(ctx, id, message); err != nil {
		return civic.Reply{}, fmt.Errorf("failed to record question: %w", err)
	}
	fmt.Fprintln(a.out, renderPending())

	res, err := a.client.Chat(ctx, &sdk.ChatRequest{Message: message, Lang: a.lang})
	if err != nil {
		a.store.AbandonTurn(id)
		a.logger.Error("chat request failed", zap.String("session", id), zap.Error(err))
		return civic.Reply{}, err
	}

	reply := civic.Reply{Text: res.Reply, Sources: res.Sources}
	if err := a.store.ResolveTurn(ctx, id, reply); err != nil {
		return reply, fmt.Errorf("failed to record reply: %w", err)
	}
	return reply, nil
}

// askAndRender runs a turn and prints the reply, or an apologetic bubble when it fails
func (a *app) askAndRender(ctx context.Context, message string) {
	reply, err := a.ask(ctx, message)
	switch {
	case err == nil:
		fmt.Fprintln(a.out, renderTurn(reply.Turn()))
	case reply.Text != "":
		// Answered but not saved
		fmt.Fprintln(a.out, renderTurn(reply.Turn()))
		fmt.Fprintln(a.out, errorStyle.Render(err.Error()))
	default:
		fmt.Fprintln(a.out, renderError(chat_module.ReplyFailure))
	}
}
