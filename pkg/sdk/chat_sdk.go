package sdk

import (
	"context"
	"fmt"
	"net/http"
)

// Chat sends one message to the gateway and returns its reply
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	path := "/api/chat"

	var out ChatResponse
	if err := c.doJSON(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}

	if out.Reply == "" {
		return nil, fmt.Errorf("no reply returned")
	}

	return &out, nil
}

// Health fetches the gateway's health document
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	path := "/api/health"

	var out HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}
