package persist

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"interview-backend/internal/candidates"
	"interview-backend/internal/shared/metrics"
	"interview-backend/internal/shared/telemetry"
)

// DefaultAutosaveSpec flushes dirty state every five seconds.
const DefaultAutosaveSpec = "@every 5s"

// Autosaver writes the store to a persister after it changes.
type Autosaver struct {
	Store     candidates.Store
	Persister Persister
	Spec      string

	dirty   atomic.Bool
	flushMu sync.Mutex

	mu   sync.Mutex
	cron *cron.Cron
}

// MarkDirty records that the store changed since the last flush.
func (a *Autosaver) MarkDirty() {
	a.dirty.Store(true)
}

// Dirty reports whether unsaved changes exist.
func (a *Autosaver) Dirty() bool {
	return a.dirty.Load()
}

// Flush saves the store if it changed. Failed saves leave it dirty for the next run.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.flushMu.Lock()
	defer a.flushMu.Unlock()

	if !a.dirty.Swap(false) {
		return nil
	}
	snap, err := a.Store.Snapshot(ctx)
	if err != nil {
		a.dirty.Store(true)
		return fmt.Errorf("snapshot store: %w", err)
	}
	err = a.Persister.Save(ctx, snap)
	metrics.ObserveSnapshotSave(a.Persister.Name(), err)
	if err != nil {
		a.dirty.Store(true)
		return fmt.Errorf("save %s snapshot: %w", a.Persister.Name(), err)
	}
	return nil
}

// Start schedules periodic flushes.
func (a *Autosaver) Start(ctx context.Context) error {
	spec := a.Spec
	if spec == "" {
		spec = DefaultAutosaveSpec
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, func() {
		if err := a.Flush(ctx); err != nil {
			telemetry.Error("autosave.failed", map[string]any{"backend": a.Persister.Name(), "error": err.Error()})
		}
	}); err != nil {
		return fmt.Errorf("schedule autosave %q: %w", spec, err)
	}
	a.mu.Lock()
	a.cron = c
	a.mu.Unlock()
	c.Start()
	telemetry.Info("autosave.started", map[string]any{"backend": a.Persister.Name(), "spec": spec})
	return nil
}

// Stop halts the schedule and performs a final flush.
func (a *Autosaver) Stop(ctx context.Context) error {
	a.mu.Lock()
	c := a.cron
	a.cron = nil
	a.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
	return a.Flush(ctx)
}
