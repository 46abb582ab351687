// Package memory provides an in-memory journal used by tests and as
// the default export backend when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/404Simon/splitify/internal/export"
)

type Store struct {
	mu      sync.Mutex
	entries []export.JournalEntry
}

var _ export.JournalWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Append stores the entry and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, entry export.JournalEntry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return fmt.Sprintf("mem:%d", len(s.entries)), nil
}

// Entries returns a copy of everything appended so far.
func (s *Store) Entries() []export.JournalEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]export.JournalEntry(nil), s.entries...)
}
