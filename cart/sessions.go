package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"boulangerie/storage"
)

// SnapshotKey is the storage key of a session's cart
func SnapshotKey(sessionID string) string {
	return "cart:" + sessionID
}

// Sessions hands out one Store per session id
type Sessions struct {
	mu        sync.Mutex
	snapshots storage.SnapshotStore
	stores    map[string]*Store
	lastUsed  map[string]time.Time
	now       func() time.Time
}

// NewSessions creates a registry backed by a snapshot store
func NewSessions(snapshots storage.SnapshotStore) *Sessions {
	return &Sessions{
		snapshots: snapshots,
		stores:    make(map[string]*Store),
		lastUsed:  make(map[string]time.Time),
		now:       time.Now,
	}
}

// Get returns the session's store, restoring it from its snapshot on first use.
// The snapshot is read under the store's own lock, so a slow read only holds
// up callers of the same session.
func (s *Sessions) Get(ctx context.Context, sessionID string) (*Store, error) {
	sessionID = strings.TrimSpace(sessionID)

	s.mu.Lock()
	st, ok := s.stores[sessionID]
	if !ok {
		st = NewStore(SnapshotKey(sessionID), s.snapshots)
		s.stores[sessionID] = st
	}
	s.lastUsed[sessionID] = s.now()
	s.mu.Unlock()

	if err := st.Load(ctx); err != nil {
		s.mu.Lock()
		if s.stores[sessionID] == st {
			delete(s.stores, sessionID)
			delete(s.lastUsed, sessionID)
		}
		s.mu.Unlock()
		return nil, err
	}
	return st, nil
}

// View returns the session's cart without registering a store. A session
// with no live store is read straight from its snapshot.
func (s *Sessions) View(ctx context.Context, sessionID string) (State, error) {
	sessionID = strings.TrimSpace(sessionID)

	s.mu.Lock()
	st, ok := s.stores[sessionID]
	s.mu.Unlock()
	if ok {
		if err := st.Load(ctx); err != nil {
			return Empty(), err
		}
		return st.State(), nil
	}

	key := SnapshotKey(sessionID)
	data, found, err := s.snapshots.Get(ctx, key)
	if err != nil {
		return Empty(), fmt.Errorf("failed to read cart snapshot: %w", err)
	}
	if !found {
		return Empty(), nil
	}
	return restore(key, data), nil
}

// End discards the in-memory store of a session. Its snapshot survives, so
// the next Get restores the cart.
func (s *Sessions) End(sessionID string) {
	s.mu.Lock()
	st, ok := s.stores[sessionID]
	delete(s.stores, sessionID)
	delete(s.lastUsed, sessionID)
	s.mu.Unlock()
	if ok {
		st.Close()
	}
}

// EvictIdle ends every session unused for at least maxIdle and returns how
// many were ended. Snapshots are kept.
func (s *Sessions) EvictIdle(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	var idle []*Store
	for id, last := range s.lastUsed {
		if last.After(cutoff) {
			continue
		}
		if st, ok := s.stores[id]; ok {
			idle = append(idle, st)
		}
		delete(s.stores, id)
		delete(s.lastUsed, id)
	}
	s.mu.Unlock()

	for _, st := range idle {
		st.Close()
	}
	return len(idle)
}

// Clear discards a session and deletes its snapshot
func (s *Sessions) Clear(ctx context.Context, sessionID string) error {
	s.End(sessionID)
	return s.snapshots.Delete(ctx, SnapshotKey(sessionID))
}

// Len returns the number of live sessions
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stores)
}

// CloseAll ends every session
func (s *Sessions) CloseAll() {
	s.mu.Lock()
	stores := s.stores
	s.stores = make(map[string]*Store)
	s.lastUsed = make(map[string]time.Time)
	s.mu.Unlock()
	for _, st := range stores {
		st.Close()
	}
}
