package sdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ethanbaker/api/pkg/api_types"
)

// ListSessions returns every server-side session and the active id
func (c *Client) ListSessions(ctx context.Context) (*SessionList, error) {
	var out ApiResponse[SessionList]
	if err := c.doJSON(ctx, http.MethodGet, "/api/sessions", nil, &out); err != nil {
		return nil, err
	}
	if err := check(out, "list sessions"); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// CreateSession starts a new session, which becomes active
func (c *Client) CreateSession(ctx context.Context) (*Session, error) {
	var out ApiResponse[Session]
	if err := c.doJSON(ctx, http.MethodPost, "/api/sessions", nil, &out); err != nil {
		return nil, err
	}
	if err := check(out, "create session"); err != nil {
		return nil, err
	}
	if out.Data.ID == "" {
		return nil, fmt.Errorf("no id returned")
	}
	return &out.Data, nil
}

// GetSession fetches one session by id
func (c *Client) GetSession(ctx context.Context, id string) (*Session, error) {
	var out ApiResponse[Session]
	if err := c.doJSON(ctx, http.MethodGet, sessionPath(id, ""), nil, &out); err != nil {
		return nil, err
	}
	if err := check(out, "get session"); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// RenameSession sets a session's title
func (c *Client) RenameSession(ctx context.Context, id, title string) (*Session, error) {
	var out ApiResponse[Session]
	if err := c.doJSON(ctx, http.MethodPut, sessionPath(id, ""), &RenameSessionRequest{Title: title}, &out); err != nil {
		return nil, err
	}
	if err := check(out, "rename session"); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// SelectSession makes a session active
func (c *Client) SelectSession(ctx context.Context, id string) error {
	var out ApiResponse[any]
	if err := c.doJSON(ctx, http.MethodPost, sessionPath(id, "/select"), nil, &out); err != nil {
		return err
	}
	return check(out, "select session")
}

// DeleteSession removes a session
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	var out ApiResponse[any]
	if err := c.doJSON(ctx, http.MethodDelete, sessionPath(id, ""), nil, &out); err != nil {
		return err
	}
	return check(out, "delete session")
}

// ClearSessions removes every session and returns the fresh one that replaces them
func (c *Client) ClearSessions(ctx context.Context) (*Session, error) {
	var out ApiResponse[Session]
	if err := c.doJSON(ctx, http.MethodDelete, "/api/sessions", nil, &out); err != nil {
		return nil, err
	}
	if err := check(out, "clear sessions"); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// SearchSessions finds transcript turns containing query across every session
func (c *Client) SearchSessions(ctx context.Context, query string) ([]SessionMatch, error) {
	var out ApiResponse[[]SessionMatch]
	if err := c.doJSON(ctx, http.MethodGet, "/api/sessions/search?q="+url.QueryEscape(query), nil, &out); err != nil {
		return nil, err
	}
	if err := check(out, "search sessions"); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func sessionPath(id, suffix string) string {
	return "/api/sessions/" + url.PathEscape(id) + suffix
}

func check[T any](out ApiResponse[T], action string) error {
	switch out.Status {
	case api_types.StatusFail:
		return fmt.Errorf("failed to %s: %s", action, out.Message)
	case api_types.StatusError:
		return fmt.Errorf("error trying to %s (%s): %v", action, out.Message, out.Error)
	}
	return nil
}
