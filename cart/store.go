package cart

import (
	"context"
	"fmt"
	"sync"

	"boulangerie/logging"
	"boulangerie/storage"
)

// Store owns one session's cart. It is the single writer of its snapshot key:
// every dispatch persists the lines, or deletes the key once the cart is empty.
type Store struct {
	mu        sync.Mutex
	key       string
	snapshots storage.SnapshotStore
	state     State
	loaded    bool
	closed    bool
}

// NewStore creates a store bound to a snapshot key. Call Load before use.
func NewStore(key string, snapshots storage.SnapshotStore) *Store {
	return &Store{
		key:       key,
		snapshots: snapshots,
		state:     Empty(),
	}
}

// Key returns the snapshot key
func (s *Store) Key() string {
	return s.key
}

// Load restores the cart from its snapshot. It reads storage only once;
// later calls are no-ops. A malformed snapshot restores the empty cart.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return nil
	}
	data, ok, err := s.snapshots.Get(ctx, s.key)
	if err != nil {
		return fmt.Errorf("failed to read cart snapshot: %w", err)
	}
	s.loaded = true
	if !ok {
		return nil
	}
	s.state = restore(s.key, data)
	return nil
}

func restore(key string, data []byte) State {
	lines := DecodeSnapshot(data)
	if lines == nil {
		logging.L().Warnf("⚠️  Cart %s: ignoring malformed snapshot (%d bytes)", key, len(data))
	}
	return Reduce(Empty(), InitializeFromSnapshot{Lines: lines})
}

// State returns a copy of the current cart
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Dispatch applies an action and persists the result. The new state is
// returned even when persisting fails; the error reports the storage failure.
func (s *Store) Dispatch(ctx context.Context, a Action) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.state.clone(), fmt.Errorf("cart %s is closed", s.key)
	}
	s.state = Reduce(s.state, a)
	return s.state.clone(), s.persist(ctx)
}

// Settle takes ordered lines out of the cart. Quantities added after the
// order was taken stay in the cart; a cart left without lines is cleared.
func (s *Store) Settle(ctx context.Context, ordered []Line) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.state.clone(), fmt.Errorf("cart %s is closed", s.key)
	}
	for _, l := range ordered {
		current, ok := s.state.Find(l.ID)
		if !ok {
			continue
		}
		s.state = Reduce(s.state, SetQuantity{ProductID: l.ID, Quantity: current.Quantity - l.Quantity})
	}
	if len(s.state.Lines) == 0 {
		s.state = Reduce(s.state, ClearCart{})
	}
	return s.state.clone(), s.persist(ctx)
}

func (s *Store) persist(ctx context.Context) error {
	if s.state.IsEmpty() {
		if err := s.snapshots.Delete(ctx, s.key); err != nil {
			return fmt.Errorf("failed to delete cart snapshot: %w", err)
		}
		return nil
	}
	data, err := EncodeSnapshot(s.state.Lines)
	if err != nil {
		return fmt.Errorf("failed to encode cart snapshot: %w", err)
	}
	if err := s.snapshots.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to write cart snapshot: %w", err)
	}
	return nil
}

// Close tears the store down. The persisted snapshot is kept.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
