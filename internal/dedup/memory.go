package dedup

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory ReservationStore, keyed per user. Safe for
// concurrent use; data is lost on restart.
type MemoryStore struct {
	users map[string]map[string]string // userID -> fingerprint -> recordID
	mu    sync.Mutex
}

// NewMemoryStore creates an empty in-memory reservation store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]map[string]string)}
}

// Reserve implements ReservationStore. The mutex makes the read-then-insert
// a single critical section.
func (s *MemoryStore) Reserve(_ context.Context, userID, fingerprint string) (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.users[userID]
	if !ok {
		set = make(map[string]string)
		s.users[userID] = set
	}

	if recordID, exists := set[fingerprint]; exists {
		return false, recordID, nil
	}

	set[fingerprint] = ""
	return true, "", nil
}

// Release implements ReservationStore.
func (s *MemoryStore) Release(_ context.Context, userID, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if set, ok := s.users[userID]; ok {
		delete(set, fingerprint)
	}
	return nil
}

// Bind associates a reservation with the record that was ultimately saved.
func (s *MemoryStore) Bind(_ context.Context, userID, fingerprint, recordID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if set, ok := s.users[userID]; ok {
		set[fingerprint] = recordID
	}
}
