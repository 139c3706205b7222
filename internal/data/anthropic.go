package data

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/DevRickLin/wingman/internal/biz/domain"
	"github.com/DevRickLin/wingman/internal/biz/repo"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	defaultAnthropicModel   = "claude-3-5-sonnet-20241022"
	anthropicVersion        = "2023-06-01"
)

// anthropicRepo implements repo.CompletionRepo against the Anthropic Messages API
type anthropicRepo struct {
	httpClient *resty.Client
	model      string
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float32            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewAnthropicRepo creates an Anthropic Messages completion backend
func NewAnthropicRepo(apiKey, baseURL, model string, timeout time.Duration) repo.CompletionRepo {
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}
	if model == "" {
		model = defaultAnthropicModel
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", anthropicVersion).
		SetHeader("Content-Type", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &anthropicRepo{httpClient: client, model: model}
}

// Model returns the configured model
func (r *anthropicRepo) Model() string {
	return r.model
}

// Complete runs one Messages API call
func (r *anthropicRepo) Complete(ctx context.Context, req domain.CompletionRequest) (*domain.Completion, error) {
	body := anthropicRequest{
		Model:       r.model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		System:      req.System,
		Messages:    anthropicMessages(req.Turns),
	}

	var result anthropicResponse
	var apiErr anthropicError
	resp, err := r.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&apiErr).
		Post("/v1/messages")
	if err != nil {
		return nil, &domain.BackendError{Err: fmt.Errorf("messages request: %w", err)}
	}
	if resp.IsError() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = resp.Status()
		}
		return nil, &domain.BackendError{StatusCode: resp.StatusCode(), Err: errors.New(msg)}
	}

	var text strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, &domain.BackendError{Err: fmt.Errorf("empty response content")}
	}

	model := result.Model
	if model == "" {
		model = r.model
	}
	return &domain.Completion{
		Text:   strings.TrimSpace(text.String()),
		Model:  model,
		Tokens: result.Usage.InputTokens + result.Usage.OutputTokens,
	}, nil
}

// anthropicMessages merges consecutive same-role turns and makes sure the
// conversation starts with a user turn, as the Messages API requires.
func anthropicMessages(turns []domain.ChatTurn) []anthropicMessage {
	out := make([]anthropicMessage, 0, len(turns)+1)
	for _, t := range turns {
		role := "user"
		if t.Role == domain.TurnAssistant {
			role = "assistant"
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content += "\n\n" + t.Content
			continue
		}
		out = append(out, anthropicMessage{Role: role, Content: t.Content})
	}
	if len(out) == 0 || out[0].Role != "user" {
		out = append([]anthropicMessage{{Role: "user", Content: "(conversation started)"}}, out...)
	}
	return out
}
