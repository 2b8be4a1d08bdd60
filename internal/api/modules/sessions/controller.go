package sessions

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ethanbaker/civicchat/internal/stores/session"
	"github.com/ethanbaker/civicchat/pkg/civic"
	"github.com/ethanbaker/civicchat/pkg/sdk"
	"github.com/gin-gonic/gin"
)

type controller struct {
	store *session.Store
}

// listSessions handles GET requests for every session
func (ctl *controller) listSessions(c *gin.Context) {
	list := sdk.SessionList{ActiveID: ctl.store.ActiveID()}
	for _, s := range ctl.store.Sessions() {
		list.Sessions = append(list.Sessions, toSDKSession(s))
	}

	c.JSON(sdk.NewSuccessResponse("Sessions retrieved successfully", list).AsGinResponse())
}

// createSession handles POST requests to create a new session
func (ctl *controller) createSession(c *gin.Context) {
	s, err := ctl.store.Create(c.Request.Context())
	if err != nil {
		fail(c, "Failed to create session", err)
		return
	}

	c.JSON(sdk.NewSuccessResponse("Session created successfully", toSDKSession(s)).AsGinResponse())
}

// getSession handles GET requests to retrieve a session by id
func (ctl *controller) getSession(c *gin.Context) {
	s, err := ctl.store.Get(c.Param("id"))
	if err != nil {
		fail(c, "Failed to get session", err)
		return
	}

	c.JSON(sdk.NewSuccessResponse("Session retrieved successfully", toSDKSession(s)).AsGinResponse())
}

// renameSession handles PUT requests to change a session's title
func (ctl *controller) renameSession(c *gin.Context) {
	var req sdk.RenameSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewFailResponse(http.StatusBadRequest, "Could not parse request body").AsGinResponse())
		return
	}

	s, err := ctl.store.Rename(c.Request.Context(), c.Param("id"), req.Title)
	if err != nil {
		fail(c, "Failed to rename session", err)
		return
	}

	c.JSON(sdk.NewSuccessResponse("Session renamed successfully", toSDKSession(s)).AsGinResponse())
}

// selectSession handles POST requests to make a session active
func (ctl *controller) selectSession(c *gin.Context) {
	id := c.Param("id")
	if err := ctl.store.Select(c.Request.Context(), id); err != nil {
		fail(c, "Failed to select session", err)
		return
	}

	c.JSON(sdk.NewSuccessResponse("Session selected successfully", map[string]string{"activeId": id}).AsGinResponse())
}

// deleteSession handles DELETE requests to remove a session
func (ctl *controller) deleteSession(c *gin.Context) {
	if err := ctl.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, "Failed to delete session", err)
		return
	}

	c.JSON(sdk.NewSuccessResponse("Session deleted successfully", map[string]string{"activeId": ctl.store.ActiveID()}).AsGinResponse())
}

// clearSessions handles DELETE requests that remove every session
func (ctl *controller) clearSessions(c *gin.Context) {
	s, err := ctl.store.ClearAll(c.Request.Context())
	if err != nil {
		fail(c, "Failed to clear sessions", err)
		return
	}

	c.JSON(sdk.NewSuccessResponse("Sessions cleared successfully", toSDKSession(s)).AsGinResponse())
}

// searchSessions handles GET requests that search every transcript
func (ctl *controller) searchSessions(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(sdk.NewFailResponse(http.StatusBadRequest, "Query parameter 'q' is required").AsGinResponse())
		return
	}

	matches := []sdk.SessionMatch{}
	for _, m := range ctl.store.Search(query) {
		matches = append(matches, sdk.SessionMatch{
			SessionID: m.SessionID,
			Title:     m.Title,
			Index:     m.Index,
			Speaker:   m.Speaker,
			Text:      m.Text,
		})
	}

	c.JSON(sdk.NewSuccessResponse("Search completed successfully", matches).AsGinResponse())
}

func fail(c *gin.Context, message string, err error) {
	if errors.Is(err, civic.ErrNotFound) {
		c.JSON(sdk.NewFailResponse(http.StatusNotFound, "Session not found").AsGinResponse())
		return
	}
	c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, message, nil).AsGinResponse())
}

func toSDKSession(s session.Session) sdk.Session {
	transcript := s.Transcript
	if transcript == nil {
		transcript = []civic.Turn{}
	}
	return sdk.Session{
		ID:         s.ID,
		Title:      s.Title,
		Transcript: transcript,
		Pending:    s.Pending,
	}
}
