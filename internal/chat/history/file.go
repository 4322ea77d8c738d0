package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/longkey1/turnchat/internal/chat"
)

// FileStore keeps one JSON file per thread in a directory.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore creates a FileStore rooted at dir. The directory is created on first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the directory threads are stored in
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(threadID string) (string, error) {
	if threadID == "" || strings.ContainsAny(threadID, `/\`) || threadID != filepath.Base(threadID) {
		return "", fmt.Errorf("invalid thread ID: %q", threadID)
	}
	return filepath.Join(s.dir, threadID+".json"), nil
}

// List returns the messages of a thread in the order they were recorded.
func (s *FileStore) List(ctx context.Context, threadID string) ([]chat.Message, error) {
	t, err := s.Load(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return t.Messages(), nil
}

// Load reads a thread from disk by full ID
func (s *FileStore) Load(_ context.Context, threadID string) (*Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load(threadID)
}

func (s *FileStore) load(threadID string) (*Thread, error) {
	threadFile, err := s.path(threadID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(threadFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
		}
		return nil, fmt.Errorf("failed to read thread file: %w", err)
	}

	var thread Thread
	if err := json.Unmarshal(data, &thread); err != nil {
		return nil, fmt.Errorf("failed to parse thread file %s: %w", threadFile, err)
	}
	return &thread, nil
}

func (s *FileStore) save(thread *Thread) error {
	threadFile, err := s.path(thread.ID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create thread directory: %w", err)
	}

	data, err := json.MarshalIndent(thread, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize thread: %w", err)
	}

	// Write through a temp file so readers never see a partial thread
	tmp := threadFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write thread file: %w", err)
	}
	if err := os.Rename(tmp, threadFile); err != nil {
		return fmt.Errorf("failed to write thread file: %w", err)
	}
	return nil
}

// Record appends messages to a thread, creating it when missing.
func (s *FileStore) Record(_ context.Context, threadID, model string, messages ...chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	thread, err := s.load(threadID)
	if err != nil {
		if !errors.Is(err, ErrThreadNotFound) {
			return err
		}
		thread = NewThread(threadID)
	}
	if model != "" {
		thread.Model = model
	}
	thread.Append(messages...)
	return s.save(thread)
}

// Rename sets the display name of a thread
func (s *FileStore) Rename(_ context.Context, threadID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	thread, err := s.load(threadID)
	if err != nil {
		return err
	}
	thread.Name = name
	return s.save(thread)
}

// Delete deletes a thread from disk by full ID
func (s *FileStore) Delete(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	threadFile, err := s.path(threadID)
	if err != nil {
		return err
	}
	if err := os.Remove(threadFile); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
		}
		return fmt.Errorf("failed to delete thread file: %w", err)
	}
	return nil
}

// Threads returns all threads sorted by UpdatedAt (newest first)
func (s *FileStore) Threads(_ context.Context) ([]Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read thread directory: %w", err)
	}

	var threads []Thread
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		thread, err := s.load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			// Skip corrupted thread files
			continue
		}
		threads = append(threads, *thread)
	}

	sort.Slice(threads, func(i, j int) bool {
		return threads[i].UpdatedAt.After(threads[j].UpdatedAt)
	})
	return threads, nil
}

// Close is a no-op for the file store
func (s *FileStore) Close() error {
	return nil
}

var _ Store = (*FileStore)(nil)
