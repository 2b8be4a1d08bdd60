package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chat_module "github.com/ethanbaker/civicchat/internal/api/modules/chat"
	"github.com/ethanbaker/civicchat/internal/stores/session"
	"github.com/ethanbaker/civicchat/pkg/civic"
	"github.com/ethanbaker/civicchat/pkg/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T, handler http.HandlerFunc) (*app, *bytes.Buffer) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store, err := session.Open(context.Background(), session.NewMemoryBackend(), nil)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	return &app{
		store:  store,
		client: sdk.NewClient(srv.URL),
		logger: zap.NewNop(),
		lang:   "en",
		out:    out,
	}, out
}

func replyWith(t *testing.T, res sdk.ChatResponse, gotLang *string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sdk.ChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if gotLang != nil {
			*gotLang = req.LanguageCode()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(res)
	}
}

func TestAskRecordsTurns(t *testing.T) {
	var lang string
	a, out := newTestApp(t, replyWith(t, sdk.ChatResponse{
		Reply:   "Call the DC Board of Elections.",
		Sources: []civic.Source{{Title: "DCBOE", URL: "https://dcboe.org"}},
	}, &lang))
	ctx := context.Background()

	reply, err := a.ask(ctx, "  where do I vote  ")
	require.NoError(t, err)
	assert.Equal(t, "Call the DC Board of Elections.", reply.Text)
	assert.Equal(t, "en", lang)

	active := a.store.Active()
	assert.False(t, active.Pending)
	assert.Equal(t, []civic.Turn{
		civic.UserTurn("where do I vote"),
		civic.AssistantTurn("Call the DC Board of Elections.", []civic.Source{{Title: "DCBOE", URL: "https://dcboe.org"}}),
	}, active.Transcript)

	assert.Contains(t, out.String(), pendingText)
}

func TestAskRejectsBlank(t *testing.T) {
	a, _ := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("gateway should not be called")
	})

	_, err := a.ask(context.Background(), "   ")
	assert.ErrorIs(t, err, civic.ErrInvalidInput)
	assert.Empty(t, a.store.Active().Transcript)
}

func TestAskFailureKeepsQuestion(t *testing.T) {
	a, out := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(sdk.ChatResponse{Reply: chat_module.ReplyFailure})
	})

	a.askAndRender(context.Background(), "question")

	active := a.store.Active()
	assert.False(t, active.Pending)
	assert.Equal(t, []civic.Turn{civic.UserTurn("question")}, active.Transcript)
	assert.Contains(t, out.String(), "Sorry, something went wrong")
}

func TestSlashCommands(t *testing.T) {
	var lang string
	a, out := newTestApp(t, replyWith(t, sdk.ChatResponse{Reply: "ok"}, &lang))
	ctx := context.Background()
	first := a.store.ActiveID()

	t.Run("new", func(t *testing.T) {
		require.NoError(t, a.command(ctx, "/new"))
		assert.Len(t, a.store.Sessions(), 2)
		assert.NotEqual(t, first, a.store.ActiveID())
	})

	t.Run("rename", func(t *testing.T) {
		require.NoError(t, a.command(ctx, "/rename Ballot measures"))
		assert.Equal(t, "Ballot measures", a.store.Active().Title)
	})

	t.Run("switch", func(t *testing.T) {
		require.NoError(t, a.command(ctx, "/switch "+first))
		assert.Equal(t, first, a.store.ActiveID())

		err := a.command(ctx, "/switch missing")
		assert.EqualError(t, err, "no session with that id")

		assert.Error(t, a.command(ctx, "/switch"))
	})

	t.Run("lang", func(t *testing.T) {
		require.NoError(t, a.command(ctx, "/lang es"))
		_, err := a.ask(ctx, "hola")
		require.NoError(t, err)
		assert.Equal(t, "es", lang)
	})

	t.Run("list", func(t *testing.T) {
		out.Reset()
		require.NoError(t, a.command(ctx, "/list"))
		assert.Contains(t, out.String(), "Ballot measures")
		assert.Contains(t, out.String(), first)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, a.command(ctx, "/delete"))
		assert.Len(t, a.store.Sessions(), 1)
		assert.NotEqual(t, first, a.store.ActiveID())
	})

	t.Run("clear", func(t *testing.T) {
		before := a.store.ActiveID()
		require.NoError(t, a.command(ctx, "/clear"))
		assert.Len(t, a.store.Sessions(), 1)
		assert.NotEqual(t, before, a.store.ActiveID())
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Error(t, a.command(ctx, "/dance"))
	})

	t.Run("exit", func(t *testing.T) {
		assert.ErrorIs(t, a.command(ctx, "/exit"), errExit)
	})
}

func TestChatLoop(t *testing.T) {
	a, out := newTestApp(t, replyWith(t, sdk.ChatResponse{Reply: "Here is what I found."}, nil))

	input := strings.NewReader("\nwhen is the primary?\n/rename Primary\n/exit\nnever sent\n")
	require.NoError(t, a.chatLoop(context.Background(), input))

	active := a.store.Active()
	assert.Equal(t, "Primary", active.Title)
	require.Len(t, active.Transcript, 2)
	assert.Equal(t, "Here is what I found.", active.Transcript[1].Text)
	assert.NotContains(t, out.String(), "never sent")
}

func TestRenderTranscript(t *testing.T) {
	s := session.Session{
		ID:    "abc",
		Title: "Voting",
		Transcript: []civic.Turn{
			civic.UserTurn("question"),
			civic.AssistantTurn("answer", []civic.Source{{Title: "ANC map", URL: "https://anc.dc.gov"}}),
		},
		Pending: true,
	}

	rendered := renderTranscript(s)
	for _, want := range []string{"Voting", "abc", "question", "answer", "https://anc.dc.gov", pendingText} {
		assert.Contains(t, rendered, want)
	}

	assert.Contains(t, renderTranscript(session.Session{ID: "x", Title: "Empty"}), "No messages yet.")
}
