// Package history stores conversation threads and serves them back to the
// chat core as a HistoryProvider.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/longkey1/turnchat/internal/chat"
)

// ErrThreadNotFound is returned when a thread does not exist.
var ErrThreadNotFound = errors.New("thread not found")

// Store persists threads.
type Store interface {
	chat.HistoryProvider

	// Record appends messages to a thread, creating it when missing.
	Record(ctx context.Context, threadID, model string, messages ...chat.Message) error
	Load(ctx context.Context, threadID string) (*Thread, error)
	Threads(ctx context.Context) ([]Thread, error) // newest first
	Rename(ctx context.Context, threadID, name string) error
	Delete(ctx context.Context, threadID string) error
	Close() error
}

// AmbiguousIDError is returned when multiple threads match a prefix
type AmbiguousIDError struct {
	Prefix  string
	Matches []Thread
}

func (e *AmbiguousIDError) Error() string {
	var lines []string
	lines = append(lines, fmt.Sprintf("Ambiguous thread ID %q. Multiple matches found:", e.Prefix))
	for _, match := range e.Matches {
		lines = append(lines, fmt.Sprintf("- %s (%s, %s, %d messages)",
			match.GetShortID(),
			match.Model,
			match.CreatedAt.Format("2006-01-02"),
			match.MessageCount()))
	}
	lines = append(lines, "")
	lines = append(lines, "Please use a longer prefix or run 'turnchat threads list'.")
	return strings.Join(lines, "\n")
}

// FindByPrefix finds a thread by ID prefix (minimum 4 characters).
// The "thread-" prefix may be omitted. "latest" returns the most recently updated thread.
func FindByPrefix(ctx context.Context, s Store, prefix string) (*Thread, error) {
	if prefix == "latest" {
		return Latest(ctx, s)
	}

	short := strings.TrimPrefix(prefix, "thread-")
	if len(short) < 4 {
		return nil, fmt.Errorf("thread ID prefix must be at least 4 characters (got %d)", len(short))
	}

	// Full ID: thread-<uuid>
	if len(short) == 36 && strings.Count(short, "-") == 4 {
		return s.Load(ctx, "thread-"+short)
	}

	threads, err := s.Threads(ctx)
	if err != nil {
		return nil, err
	}

	var matches []Thread
	for _, t := range threads {
		if strings.HasPrefix(strings.TrimPrefix(t.ID, "thread-"), short) {
			matches = append(matches, t)
		}
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s\n\nRun 'turnchat threads list' to see available threads.", ErrThreadNotFound, prefix)
	}
	if len(matches) > 1 {
		return nil, &AmbiguousIDError{Prefix: prefix, Matches: matches}
	}
	return &matches[0], nil
}

// Latest returns the most recently updated thread
func Latest(ctx context.Context, s Store) (*Thread, error) {
	threads, err := s.Threads(ctx)
	if err != nil {
		return nil, err
	}
	if len(threads) == 0 {
		return nil, fmt.Errorf("%w: no threads yet\n\nStart one with: turnchat chat \"your message\"", ErrThreadNotFound)
	}
	return &threads[0], nil
}
