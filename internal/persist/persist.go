// Package persist saves and restores the whole candidate store under a single
// root key.
package persist

import (
	"context"
	"encoding/json"
	"fmt"

	"interview-backend/internal/candidates"
)

// RootKey is the fixed key the store snapshot lives under.
const RootKey = "root"

// Persister loads and saves whole-store snapshots.
type Persister interface {
	// Load returns the saved snapshot. ok is false when nothing was saved yet.
	Load(ctx context.Context) (snap candidates.Snapshot, ok bool, err error)
	Save(ctx context.Context, snap candidates.Snapshot) error
	// Name identifies the backend in logs and metrics.
	Name() string
}

func encode(snap candidates.Snapshot) ([]byte, error) {
	if snap.ByID == nil {
		snap.ByID = map[string]candidates.Candidate{}
	}
	if snap.AllIDs == nil {
		snap.AllIDs = []string{}
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return body, nil
}

func decode(body []byte) (candidates.Snapshot, error) {
	snap := candidates.EmptySnapshot()
	if err := json.Unmarshal(body, &snap); err != nil {
		return candidates.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.ByID == nil {
		snap.ByID = map[string]candidates.Candidate{}
	}
	if snap.AllIDs == nil {
		snap.AllIDs = []string{}
	}
	return snap, nil
}

// Restore loads the saved snapshot into store. It reports whether anything was restored.
func Restore(ctx context.Context, store candidates.Store, p Persister) (bool, error) {
	snap, ok, err := p.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load %s snapshot: %w", p.Name(), err)
	}
	if !ok {
		return false, nil
	}
	if err := store.Restore(ctx, snap); err != nil {
		return false, fmt.Errorf("restore %s snapshot: %w", p.Name(), err)
	}
	return true, nil
}
