package repo

import "context"

// StatsRepo persists dashboard counters
type StatsRepo interface {
	Increment(ctx context.Context, name string, delta int64) error
	All(ctx context.Context) (map[string]int64, error)
}
