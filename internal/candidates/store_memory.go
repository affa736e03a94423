package candidates

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// MemoryStore keeps candidates in memory and is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	byID     map[string]Candidate
	allIDs   []string
	now      func() time.Time
	onChange func()
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID: make(map[string]Candidate),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the clock used for updatedAt stamps.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	if now != nil {
		s.now = now
	}
	return s
}

// OnChange registers a hook invoked after every committed write.
func (s *MemoryStore) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Create stores a new candidate at the front of the listing order.
func (s *MemoryStore) Create(ctx context.Context, c Candidate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.ID == "" {
		return errors.New("candidate id is required")
	}
	s.mu.Lock()
	if _, exists := s.byID[c.ID]; exists {
		s.mu.Unlock()
		return fmt.Errorf("create %s: %w", c.ID, ErrDuplicate)
	}
	s.byID[c.ID] = c.Clone()
	s.allIDs = append([]string{c.ID}, s.allIDs...)
	hook := s.onChange
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

// Get returns a copy of the candidate.
func (s *MemoryStore) Get(ctx context.Context, id string) (Candidate, error) {
	if err := ctx.Err(); err != nil {
		return Candidate{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	if !ok {
		return Candidate{}, ErrNotFound
	}
	return c.Clone(), nil
}

// List returns copies of all candidates, newest first.
func (s *MemoryStore) List(ctx context.Context) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Candidate, 0, len(s.allIDs))
	for _, id := range s.allIDs {
		if c, ok := s.byID[id]; ok {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

// Update applies fn atomically and refreshes updatedAt on commit.
func (s *MemoryStore) Update(ctx context.Context, id string, fn func(c *Candidate) error) (Candidate, error) {
	if err := ctx.Err(); err != nil {
		return Candidate{}, err
	}
	s.mu.Lock()
	current, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return Candidate{}, ErrNotFound
	}

	working := current.Clone()
	if err := fn(&working); err != nil {
		s.mu.Unlock()
		return current.Clone(), err
	}

	now := s.now()
	if now.Before(current.UpdatedAt) {
		now = current.UpdatedAt
	}
	if now.Before(working.CreatedAt) {
		now = working.CreatedAt
	}
	working.ID = current.ID
	working.CreatedAt = current.CreatedAt
	working.UpdatedAt = now
	s.byID[id] = working
	hook := s.onChange
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return working.Clone(), nil
}

// Snapshot returns a deep copy of the whole store.
func (s *MemoryStore) Snapshot(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		ByID:   make(map[string]Candidate, len(s.byID)),
		AllIDs: append([]string{}, s.allIDs...),
	}
	for id, c := range s.byID {
		snap.ByID[id] = c.Clone()
	}
	return snap, nil
}

// Restore replaces the store content with snap.
func (s *MemoryStore) Restore(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	byID := make(map[string]Candidate, len(snap.ByID))
	for id, c := range snap.ByID {
		byID[id] = c.Clone()
	}
	allIDs := make([]string, 0, len(snap.AllIDs))
	for _, id := range snap.AllIDs {
		if _, ok := byID[id]; !ok {
			return fmt.Errorf("restore: listed id %s missing from byId", id)
		}
		allIDs = append(allIDs, id)
	}
	if len(allIDs) != len(byID) {
		return fmt.Errorf("restore: %d candidates but %d listed ids", len(byID), len(allIDs))
	}

	s.mu.Lock()
	s.byID = byID
	s.allIDs = allIDs
	s.mu.Unlock()
	return nil
}

var _ Store = (*MemoryStore)(nil)
