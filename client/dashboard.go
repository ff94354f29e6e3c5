package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/snipdev/snip-widget/api"
)

// DashboardClient talks to the API-key-authenticated dashboard endpoints:
// account, branding config, embed snippet, documents, and usage.
type DashboardClient struct {
	base   string
	apiKey string
	httpc  *http.Client
}

// NewDashboardClient builds a client for the given API base URL and key
func NewDashboardClient(apiBase, apiKey string) *DashboardClient {
	return &DashboardClient{
		base:   strings.TrimRight(apiBase, "/"),
		apiKey: apiKey,
		httpc:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Me fetches the authenticated client account
func (c *DashboardClient) Me(ctx context.Context) (*api.Client, error) {
	out := &api.Client{}
	if err := c.do(ctx, http.MethodGet, "/api/clients/me", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Config fetches the full widget configuration
func (c *DashboardClient) Config(ctx context.Context) (*api.Config, error) {
	out := &api.Config{}
	if err := c.do(ctx, http.MethodGet, "/api/config", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateConfig patches the configuration; nil fields are left unchanged
func (c *DashboardClient) UpdateConfig(ctx context.Context, update *api.ConfigUpdate) (*api.Config, error) {
	out := &api.Config{}
	if err := c.do(ctx, http.MethodPatch, "/api/config", update, out); err != nil {
		return nil, err
	}
	return out, nil
}

// EmbedSnippet fetches the copy-paste embed code
func (c *DashboardClient) EmbedSnippet(ctx context.Context) (*api.EmbedSnippet, error) {
	out := &api.EmbedSnippet{}
	if err := c.do(ctx, http.MethodGet, "/api/embed-snippet", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Documents lists uploaded knowledge-base documents
func (c *DashboardClient) Documents(ctx context.Context) (*api.DocumentList, error) {
	out := &api.DocumentList{}
	if err := c.do(ctx, http.MethodGet, "/api/documents", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadDocument uploads one document for ingestion
func (c *DashboardClient) UploadDocument(ctx context.Context, filename string, r io.Reader) (*api.Document, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart form: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/documents", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, statusError("upload document", resp.StatusCode, respBody)
	}

	doc := &api.Document{}
	if err := json.NewDecoder(resp.Body).Decode(doc); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return doc, nil
}

// DeleteDocument removes an uploaded document
func (c *DashboardClient) DeleteDocument(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/documents/"+id, nil, nil)
}

// Usage fetches usage counters for the last days days
func (c *DashboardClient) Usage(ctx context.Context, days int) (*api.UsageSummary, error) {
	path := "/api/usage"
	if days > 0 {
		path += "?days=" + strconv.Itoa(days)
	}
	out := &api.UsageSummary{}
	if err := c.do(ctx, http.MethodGet, path, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// do runs one JSON round trip with the API key attached
func (c *DashboardClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return statusError(method+" "+path, resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
