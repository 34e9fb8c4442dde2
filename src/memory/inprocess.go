package memory

import (
	"context"
	"sync"
)

// MemoryStore keeps entries in process. Used when no database is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]Entry)}
}

func (s *MemoryStore) Create(_ context.Context, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.RoomID] = append(s.entries[e.RoomID], *e)
	return nil
}

func (s *MemoryStore) Recent(_ context.Context, roomID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	room := s.entries[roomID]
	out := make([]Entry, 0, min(limit, len(room)))
	for i := len(room) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, room[i])
	}
	return out, nil
}

// Count returns the number of entries of kind in a room.
func (s *MemoryStore) Count(roomID string, kind Kind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.entries[roomID] {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
