package repo

import (
	"context"

	"github.com/DevRickLin/wingman/internal/biz/domain"
)

// CompletionRepo is a large-language-model completion backend.
// Failures should be returned as *domain.BackendError so callers can tell transient from fatal.
type CompletionRepo interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (*domain.Completion, error)

	// Model returns the configured model name
	Model() string
}
