package candidates

import "context"

// Store is the authoritative collection of candidate sessions.
// Mutation logic lives in the caller; Update only applies it atomically.
type Store interface {
	Create(ctx context.Context, c Candidate) error
	Get(ctx context.Context, id string) (Candidate, error)
	// List returns candidates most-recent-first.
	List(ctx context.Context) ([]Candidate, error)
	// Update applies fn to a copy of the candidate under the store lock and
	// commits it unless fn returns an error. ErrNoChange skips the write and is
	// returned together with the current candidate.
	Update(ctx context.Context, id string, fn func(c *Candidate) error) (Candidate, error)
	Snapshot(ctx context.Context) (Snapshot, error)
	Restore(ctx context.Context, snap Snapshot) error
}

// Snapshot is the persisted shape of the whole store.
type Snapshot struct {
	ByID   map[string]Candidate `json:"byId"`
	AllIDs []string             `json:"allIds"`
}

// EmptySnapshot returns a snapshot with no candidates.
func EmptySnapshot() Snapshot {
	return Snapshot{ByID: map[string]Candidate{}, AllIDs: []string{}}
}
