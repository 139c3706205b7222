package repo

import (
	"context"

	"github.com/DevRickLin/wingman/internal/biz/domain"
)

// UsageRepo persists cumulative token usage
type UsageRepo interface {
	Load(ctx context.Context) (domain.UsageRecord, error)
	Save(ctx context.Context, record domain.UsageRecord) error
}
