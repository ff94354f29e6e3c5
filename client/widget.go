// Package client implements HTTP clients for the hosted backend: the public
// widget surface (config fetch and chat) and the API-key dashboard surface.
// The backend itself is an external collaborator; these clients only speak
// its wire contract.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/snipdev/snip-widget/api"
)

// WidgetClient talks to the unauthenticated widget endpoints. It implements
// the widget core's ConfigSource and ChatTransport.
type WidgetClient struct {
	base   string
	origin string
	httpc  *http.Client
}

// NewWidgetClient builds a client for the given API base URL. origin, when
// non-empty, is sent as the Origin header on config fetches so the backend
// can enforce its domain allow-list.
func NewWidgetClient(apiBase, origin string) *WidgetClient {
	return &WidgetClient{
		base:   strings.TrimRight(apiBase, "/"),
		origin: origin,
		httpc:  &http.Client{Timeout: 60 * time.Second},
	}
}

// WidgetConfig fetches the embed's configuration
func (c *WidgetClient) WidgetConfig(ctx context.Context, clientID string) (*api.WidgetConfig, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/widget/config/"+clientID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.origin != "" {
		req.Header.Set("Origin", c.origin)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch widget config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, statusError("fetch widget config", resp.StatusCode, body)
	}

	cfg := &api.WidgetConfig{}
	if err := json.NewDecoder(resp.Body).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode widget config: %w", err)
	}
	return cfg, nil
}

// Chat sends one chat turn and returns the assistant's reply
func (c *WidgetClient) Chat(ctx context.Context, clientID, message string) (*api.ChatResponse, error) {
	body, err := json.Marshal(&api.ChatRequest{ClientID: clientID, Message: message})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, statusError("chat", resp.StatusCode, respBody)
	}

	chatResp := &api.ChatResponse{}
	if err := json.NewDecoder(resp.Body).Decode(chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return chatResp, nil
}
