package answercache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/quizsentry/quizsentry/src/types"
)

// FileStore keeps the whole cache in memory and rewrites a flat JSON file
// after every Put. This matches the cache's scale: a few hundred questions.
type FileStore struct {
	path string

	mu      sync.Mutex
	entries map[string]*Entry
}

// OpenFileStore loads the cache file, creating an empty store when the file
// does not exist yet.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, entries: make(map[string]*Entry)}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read answer cache: %w", err)
	}
	if err := json.Unmarshal(raw, &s.entries); err != nil {
		return nil, fmt.Errorf("parse answer cache %s: %w", path, err)
	}
	return s, nil
}

func (s *FileStore) Get(ctx context.Context, question string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[Normalize(question)]
	if !ok || !entry.Letter.Valid() {
		return Entry{}, false, nil
	}
	entry.UsageCount++
	return *entry, true, nil
}

func (s *FileStore) Put(ctx context.Context, question string, letter types.Letter, optionText string) error {
	if !letter.Valid() {
		return fmt.Errorf("refusing to cache invalid letter %q", letter)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := Normalize(question)
	if existing, ok := s.entries[key]; ok {
		existing.Letter = letter
		existing.OptionText = optionText
		existing.SavedAt = time.Now()
	} else {
		s.entries[key] = &Entry{
			Letter:     letter,
			OptionText: optionText,
			SavedAt:    time.Now(),
			UsageCount: 1,
		}
	}
	return s.persistLocked()
}

// Close flushes pending usage counters to disk.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

func (s *FileStore) persistLocked() error {
	raw, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode answer cache: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write answer cache: %w", err)
	}
	return os.Rename(tmp, s.path)
}
