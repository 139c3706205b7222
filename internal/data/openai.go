package data

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/DevRickLin/wingman/internal/biz/domain"
	"github.com/DevRickLin/wingman/internal/biz/repo"
)

const defaultOpenAIModel = "gpt-4o-mini"

// openaiRepo implements repo.CompletionRepo against any OpenAI-compatible endpoint
type openaiRepo struct {
	client *openai.Client
	model  string
}

// NewOpenAIRepo creates an OpenAI-compatible completion backend.
// An empty baseURL keeps the library default.
func NewOpenAIRepo(apiKey, baseURL, model string) repo.CompletionRepo {
	if model == "" {
		model = defaultOpenAIModel
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &openaiRepo{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Model returns the configured model
func (r *openaiRepo) Model() string {
	return r.model
}

// Complete runs one chat completion
func (r *openaiRepo) Complete(ctx context.Context, req domain.CompletionRequest) (*domain.Completion, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Turns)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, t := range req.Turns {
		role := openai.ChatMessageRoleUser
		if t.Role == domain.TurnAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: t.Content})
	}

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, &domain.BackendError{Err: fmt.Errorf("no response choices")}
	}

	model := resp.Model
	if model == "" {
		model = r.model
	}
	return &domain.Completion{
		Text:   resp.Choices[0].Message.Content,
		Model:  model,
		Tokens: resp.Usage.TotalTokens,
	}, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &domain.BackendError{StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &domain.BackendError{StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	return &domain.BackendError{Err: fmt.Errorf("chat completion: %w", err)}
}
