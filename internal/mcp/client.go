package mcp

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/DevRickLin/wingman/internal/api"
	"github.com/DevRickLin/wingman/internal/biz/domain"
	"github.com/DevRickLin/wingman/internal/service"
)

// APIError is a non-2xx dashboard response
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dashboard returned %d: %s", e.StatusCode, e.Message)
}

type errorBody struct {
	Error string `json:"error"`
}

// Client talks to the wingman dashboard API
type Client struct {
	http *resty.Client
}

// NewClient creates a dashboard client for baseURL
func NewClient(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30*time.Second).
			SetHeader("Content-Type", "application/json"),
	}
}

// Status returns the dashboard overview
func (c *Client) Status(ctx context.Context) (*api.StatusResponse, error) {
	var out api.StatusResponse
	if err := c.do(ctx, "GET", "/api/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Settings returns the runtime settings
func (c *Client) Settings(ctx context.Context) (*domain.Settings, error) {
	var out domain.Settings
	if err := c.do(ctx, "GET", "/api/settings", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSettings applies a partial settings change
func (c *Client) UpdateSettings(ctx context.Context, patch api.SettingsPatch) (*domain.Settings, error) {
	var out domain.Settings
	if err := c.do(ctx, "PUT", "/api/settings", patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Personalities lists selectable personalities and the current one
func (c *Client) Personalities(ctx context.Context) ([]string, string, error) {
	var out struct {
		Personalities []string `json:"personalities"`
		Current       string   `json:"current"`
	}
	if err := c.do(ctx, "GET", "/api/personalities", nil, &out); err != nil {
		return nil, "", err
	}
	return out.Personalities, out.Current, nil
}

// Stats returns the persisted counters
func (c *Client) Stats(ctx context.Context) (map[string]int64, error) {
	out := map[string]int64{}
	if err := c.do(ctx, "GET", "/api/stats", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Usage returns token usage totals
func (c *Client) Usage(ctx context.Context) (*domain.UsageRecord, error) {
	var out domain.UsageRecord
	if err := c.do(ctx, "GET", "/api/usage", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Decisions returns the most recent decision log records
func (c *Client) Decisions(ctx context.Context, limit int) ([]domain.Decision, error) {
	var out []domain.Decision
	path := "/api/decisions"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	if err := c.do(ctx, "GET", path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Pending lists drafts awaiting approval
func (c *Client) Pending(ctx context.Context) ([]*domain.PendingReply, error) {
	var out []*domain.PendingReply
	if err := c.do(ctx, "GET", "/api/pending", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Approve sends a draft, replacing its text when text is non-empty
func (c *Client) Approve(ctx context.Context, id, text string) error {
	return c.do(ctx, "POST", "/api/pending/"+url.PathEscape(id)+"/approve", api.ApproveRequest{Text: text}, nil)
}

// Discard drops a draft without sending
func (c *Client) Discard(ctx context.Context, id string) error {
	return c.do(ctx, "POST", "/api/pending/"+url.PathEscape(id)+"/discard", nil, nil)
}

// Rejected lists rejected conversation IDs
func (c *Client) Rejected(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.do(ctx, "GET", "/api/rejected", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Reject excludes a conversation from automatic replies
func (c *Client) Reject(ctx context.Context, conversationID string) error {
	return c.do(ctx, "POST", "/api/rejected", api.RejectRequest{ConversationID: conversationID}, nil)
}

// Unreject re-enables automatic replies for a conversation
func (c *Client) Unreject(ctx context.Context, conversationID string) error {
	return c.do(ctx, "DELETE", "/api/rejected/"+url.PathEscape(conversationID), nil, nil)
}

// RunPass runs a pipeline pass and waits for its result
func (c *Client) RunPass(ctx context.Context) (*service.PassResult, error) {
	var out service.PassResult
	if err := c.do(ctx, "POST", "/api/pass?wait=true", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RunOutreach sends up to count openers and waits for the result
func (c *Client) RunOutreach(ctx context.Context, count int) (*service.OutreachResult, error) {
	var out service.OutreachResult
	if err := c.do(ctx, "POST", "/api/outreach?wait=true", api.RunRequest{Count: count}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Swipe runs a swipe session of up to count profiles
func (c *Client) Swipe(ctx context.Context, count int) (*domain.SwipeResult, error) {
	var out domain.SwipeResult
	if err := c.do(ctx, "POST", "/api/swipe?wait=true", api.RunRequest{Count: count}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	req := c.http.R().SetContext(ctx).SetError(&errorBody{})
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		msg := resp.Status()
		if e, ok := resp.Error().(*errorBody); ok && e.Error != "" {
			msg = e.Error
		}
		return &APIError{StatusCode: resp.StatusCode(), Message: msg}
	}
	return nil
}
