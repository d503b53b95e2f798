package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/terra-clan/practice-tracker/internal/models"
)

// ErrNotFound is matched by APIError values for unknown maps
var ErrNotFound = errors.New("not found")

// APIError is an error envelope returned by the tracker
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %s - %s", e.Code, e.Message)
}

// Is reports a 404 as ErrNotFound
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client is a Go SDK for the practice tracker API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new tracker client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// MapList is the response of ListMaps
type MapList struct {
	Maps  []models.MapView `json:"maps"`
	Total int              `json:"total"`
}

// State returns the current tracker state
func (c *Client) State(ctx context.Context) (*models.StateView, error) {
	var state models.StateView
	if err := c.do(ctx, http.MethodGet, "/api/v1/state", nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Stats returns totals and category timers
func (c *Client) Stats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	if err := c.do(ctx, http.MethodGet, "/api/v1/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListMaps returns the maps of a category; empty means the active one
func (c *Client) ListMaps(ctx context.Context, category models.Category) (*MapList, error) {
	path := "/api/v1/maps"
	if category != "" {
		path += "?category=" + url.QueryEscape(string(category))
	}

	var list MapList
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// CreateMap adds a custom map
func (c *Client) CreateMap(ctx context.Context, req models.CreateMapRequest) (*models.MapRecord, error) {
	var rec models.MapRecord
	if err := c.do(ctx, http.MethodPost, "/api/v1/maps", req, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Increment counts one completion of a map
func (c *Client) Increment(ctx context.Context, id string) (*models.MapRecord, error) {
	var rec models.MapRecord
	if err := c.do(ctx, http.MethodPost, mapPath(id, "/increment"), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Reset sets a map count back to zero
func (c *Client) Reset(ctx context.Context, id string) (*models.MapRecord, error) {
	var rec models.MapRecord
	if err := c.do(ctx, http.MethodPost, mapPath(id, "/reset"), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteMap removes a map
func (c *Client) DeleteMap(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, mapPath(id, ""), nil, nil)
}

// Focus selects a map
func (c *Client) Focus(ctx context.Context, id string) (*models.StateView, error) {
	var state models.StateView
	if err := c.do(ctx, http.MethodPost, mapPath(id, "/focus"), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SwitchCategory changes the active category
func (c *Client) SwitchCategory(ctx context.Context, category models.Category) (*models.StateView, error) {
	var state models.StateView
	req := models.SwitchCategoryRequest{Category: category}
	if err := c.do(ctx, http.MethodPut, "/api/v1/category", req, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// ToggleAutoDetect flips goal auto-detection and returns the new value
func (c *Client) ToggleAutoDetect(ctx context.Context) (bool, error) {
	var resp models.AutoDetectResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auto-detect/toggle", nil, &resp); err != nil {
		return false, err
	}
	return resp.AutoDetectEnabled, nil
}

// Goal sends a manual goal signal
func (c *Client) Goal(ctx context.Context) (*models.GoalResponse, error) {
	var resp models.GoalResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/goal", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health checks if the service is healthy
// Advance moves focus to the next incomplete map without counting a goal
func (c *Client) Advance(ctx context.Context) (*models.AdvanceResponse, error) {
	var resp models.AdvanceResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/advance", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Snapshot fetches the persisted form of the tracker state
func (c *Client) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	var snap models.Snapshot
	if err := c.do(ctx, http.MethodGet, "/api/v1/snapshot", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func mapPath(id, suffix string) string {
	return "/api/v1/maps/" + url.PathEscape(id) + suffix
}

// do performs a request and decodes the data field of the envelope into out
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var result struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *APIError       `json:"error"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if !result.Success {
		if result.Error == nil {
			result.Error = &APIError{Code: "unknown", Message: http.StatusText(resp.StatusCode)}
		}
		result.Error.StatusCode = resp.StatusCode
		return result.Error
	}

	if out == nil || len(result.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(result.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
