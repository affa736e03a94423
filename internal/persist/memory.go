package persist

import (
	"context"
	"sync"

	"interview-backend/internal/candidates"
)

// Memory keeps the encoded snapshot in process. Used when no durable backend is configured.
type Memory struct {
	mu   sync.Mutex
	body []byte
}

// NewMemory returns an empty in-process persister.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Load(ctx context.Context) (candidates.Snapshot, bool, error) {
	m.mu.Lock()
	body := m.body
	m.mu.Unlock()
	if body == nil {
		return candidates.EmptySnapshot(), false, nil
	}
	snap, err := decode(body)
	if err != nil {
		return candidates.Snapshot{}, false, err
	}
	return snap, true, nil
}

func (m *Memory) Save(ctx context.Context, snap candidates.Snapshot) error {
	body, err := encode(snap)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.body = body
	m.mu.Unlock()
	return nil
}

var _ Persister = (*Memory)(nil)
