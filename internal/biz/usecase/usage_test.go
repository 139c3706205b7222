package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevRickLin/wingman/internal/biz/domain"
)

type mockUsageRepo struct {
	mu      sync.Mutex
	stored  domain.UsageRecord
	loadErr error
	saveErr error
	saves   int
}

func (m *mockUsageRepo) Load(ctx context.Context) (domain.UsageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return domain.UsageRecord{}, err
	}
	if m.loadErr != nil {
		return domain.UsageRecord{}, m.loadErr
	}
	return m.stored.Clone(), nil
}

func (m *mockUsageRepo) Save(ctx context.Context, rec domain.UsageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.stored = rec.Clone()
	return nil
}

func TestUsageTracker_Accumulates(t *testing.T) {
	ctx := context.Background()
	store := &mockUsageRepo{stored: domain.UsageRecord{TotalTokens: 100, ByModel: map[string]int64{"m": 100}}}
	tracker := NewUsageTracker(store, zerolog.Nop())

	tracker.Record(ctx, "m", 10)
	tracker.Record(ctx, "m", 5)

	totals := tracker.Totals(ctx)
	assert.Equal(t, int64(115), totals.TotalTokens)
	assert.Equal(t, int64(115), totals.ByModel["m"])
	assert.Equal(t, int64(115), store.stored.TotalTokens)
	assert.Equal(t, 2, store.saves)
}

func TestUsageTracker_CorruptStateCountsAsZero(t *testing.T) {
	ctx := context.Background()
	store := &mockUsageRepo{loadErr: errors.New("corrupt")}
	tracker := NewUsageTracker(store, zerolog.Nop())

	tracker.Record(ctx, "a", 7)
	tracker.Record(ctx, "b", 3)

	totals := tracker.Totals(ctx)
	assert.Equal(t, int64(10), totals.TotalTokens)
	assert.Equal(t, map[string]int64{"a": 7, "b": 3}, totals.ByModel)
}

func TestUsageTracker_UnreadableStoreIsNotOverwritten(t *testing.T) {
	ctx := context.Background()
	store := &mockUsageRepo{
		stored:  domain.UsageRecord{TotalTokens: 100, ByModel: map[string]int64{"m": 100}},
		loadErr: errors.New("database is locked"),
	}
	tracker := NewUsageTracker(store, zerolog.Nop())

	tracker.Record(ctx, "m", 5)
	assert.Equal(t, 0, store.saves)
	assert.Equal(t, int64(100), store.stored.TotalTokens)

	store.mu.Lock()
	store.loadErr = nil
	store.mu.Unlock()

	tracker.Record(ctx, "m", 10)
	totals := tracker.Totals(ctx)
	assert.Equal(t, int64(115), totals.TotalTokens)
	assert.Equal(t, int64(115), totals.ByModel["m"])
	assert.Equal(t, int64(115), store.stored.TotalTokens)
}

func TestUsageTracker_CancelledFirstCallerStillLoads(t *testing.T) {
	store := &mockUsageRepo{stored: domain.UsageRecord{TotalTokens: 40, ByModel: map[string]int64{"m": 40}}}
	tracker := NewUsageTracker(store, zerolog.Nop())

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	tracker.Record(cancelled, "m", 2)

	assert.Equal(t, int64(42), store.stored.TotalTokens)
}

func TestUsageTracker_SaveFailureKeepsCounting(t *testing.T) {
	ctx := context.Background()
	store := &mockUsageRepo{saveErr: errors.New("read-only")}
	tracker := NewUsageTracker(store, zerolog.Nop())

	tracker.Record(ctx, "m", 4)
	tracker.Record(ctx, "m", 4)

	assert.Equal(t, int64(8), tracker.Totals(ctx).TotalTokens)
}

func TestUsageTracker_ConcurrentRecords(t *testing.T) {
	ctx := context.Background()
	tracker := NewUsageTracker(&mockUsageRepo{}, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Record(ctx, "m", 2)
		}()
	}
	wg.Wait()

	require.Equal(t, int64(100), tracker.Totals(ctx).TotalTokens)
}

func TestUsageTracker_TotalsIsSnapshot(t *testing.T) {
	ctx := context.Background()
	tracker := NewUsageTracker(&mockUsageRepo{}, zerolog.Nop())
	tracker.Record(ctx, "m", 1)

	snap := tracker.Totals(ctx)
	snap.ByModel["m"] = 999

	assert.Equal(t, int64(1), tracker.Totals(ctx).ByModel["m"])
}
