package data

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/DevRickLin/wingman/internal/biz/domain"
	"github.com/DevRickLin/wingman/internal/biz/repo"
)

// decisionLog implements repo.DecisionLog as an append-only JSONL file
type decisionLog struct {
	path string
	file *os.File
	log  zerolog.Logger
	now  func() time.Time
}

// NewDecisionLog opens (creating if needed) the decision log at path
func NewDecisionLog(path string) (repo.DecisionLog, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open decision log: %w", err)
	}
	d := &decisionLog{
		path: path,
		file: f,
		log:  zerolog.New(zerolog.SyncWriter(f)),
		now:  time.Now,
	}
	return d, f, nil
}

// Append writes one decision record
func (d *decisionLog) Append(rec domain.Decision) error {
	if rec.LoggedAt == "" {
		rec.LoggedAt = d.now().UTC().Format(time.RFC3339)
	}
	ev := d.log.Log().
		Str("conversation_id", rec.ConversationID).
		Str("name", rec.Name).
		Str("inbound_text", rec.InboundText).
		Str("reply_text", rec.ReplyText).
		Str("timestamp", rec.Timestamp).
		Str("personality", rec.Personality).
		Bool("auto_sent", rec.AutoSent).
		Str("outcome", rec.Outcome)
	if rec.Fallback {
		ev = ev.Bool("fallback", true)
	}
	if rec.Error != "" {
		ev = ev.Str("error", rec.Error)
	}
	ev.Str("logged_at", rec.LoggedAt).Send()
	return nil
}

// Recent returns up to n of the newest records, oldest first.
// Lines that fail to parse are skipped.
func (d *decisionLog) Recent(n int) ([]domain.Decision, error) {
	if n <= 0 {
		return nil, nil
	}
	f, err := os.Open(d.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open decision log: %w", err)
	}
	defer f.Close()

	ring := make([]domain.Decision, 0, n)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var rec domain.Decision
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		if len(ring) == n {
			copy(ring, ring[1:])
			ring = ring[:n-1]
		}
		ring = append(ring, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read decision log: %w", err)
	}
	return ring, nil
}
