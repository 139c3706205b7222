package data

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/DevRickLin/wingman/internal/biz/repo"
)

const (
	dbFileName       = "wingman.db"
	decisionFileName = "decisions.jsonl"
)

// Repositories contains all persistent repositories
type Repositories struct {
	Ledger    repo.LedgerRepo
	Outreach  repo.OutreachRepo
	Usage     repo.UsageRepo
	Pending   repo.PendingRepo
	Stats     repo.StatsRepo
	Decisions repo.DecisionLog

	db      *sql.DB
	closers []io.Closer
}

// NewRepositories opens the database and decision log under dataDir
func NewRepositories(dataDir string) (*Repositories, error) {
	db, err := OpenDB(filepath.Join(dataDir, dbFileName))
	if err != nil {
		return nil, err
	}

	decisions, closer, err := NewDecisionLog(filepath.Join(dataDir, decisionFileName))
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Repositories{
		Ledger:    NewLedgerRepo(db),
		Outreach:  NewOutreachRepo(db),
		Usage:     NewUsageRepo(db),
		Pending:   NewPendingRepo(db),
		Stats:     NewStatsRepo(db),
		Decisions: decisions,
		db:        db,
		closers:   []io.Closer{closer},
	}, nil
}

// Close releases the database and log file
func (r *Repositories) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c.Close())
	}
	errs = append(errs, r.db.Close())
	return errors.Join(errs...)
}

// NewCompletionRepo creates the completion backend named by provider
func NewCompletionRepo(provider, apiKey, baseURL, model string, timeout time.Duration) (repo.CompletionRepo, error) {
	switch strings.ToLower(provider) {
	case "", "anthropic":
		return NewAnthropicRepo(apiKey, baseURL, model, timeout), nil
	case "openai":
		return NewOpenAIRepo(apiKey, baseURL, model), nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", provider)
	}
}

// NewClient creates the app client named by kind
func NewClient(kind, inboxPath, outboxPath string, matchRate float64, typingDelay func() time.Duration) (repo.Client, error) {
	switch strings.ToLower(kind) {
	case "", "file":
		return NewFileClient(inboxPath, outboxPath, typingDelay), nil
	case "stub":
		return NewStubClient(matchRate, time.Now().UnixNano()), nil
	default:
		return nil, fmt.Errorf("unknown client kind %q", kind)
	}
}
