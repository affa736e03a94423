package timing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"interview-backend/internal/candidates"
	"interview-backend/internal/shared/telemetry"
)

// DefaultSweepSpec runs the sweep once per second.
const DefaultSweepSpec = "@every 1s"

// Sweeper auto-submits expired questions for sessions nobody is watching.
type Sweeper struct {
	Now    func() time.Time
	List   func(ctx context.Context) ([]candidates.Candidate, error)
	Expire func(ctx context.Context, candidateID string, index int) error
	Spec   string

	mu   sync.Mutex
	cron *cron.Cron
}

// Sweep submits every started, unanswered question whose time is up and
// returns how many were submitted.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	list, err := s.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("sweep list: %w", err)
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	at := now()
	expired := 0
	for _, c := range list {
		if c.Status == candidates.StatusCompleted {
			continue
		}
		for i, q := range c.Questions {
			if !Expired(q, at) {
				continue
			}
			if err := s.Expire(ctx, c.ID, i); err != nil {
				telemetry.Error("sweep.expire.failed", map[string]any{
					"candidate_id":   c.ID,
					"question_index": i,
					"error":          err.Error(),
				})
				continue
			}
			expired++
		}
	}
	return expired, nil
}

// Start schedules Sweep on the cron spec. Overlapping runs are skipped.
func (s *Sweeper) Start(ctx context.Context) error {
	spec := s.Spec
	if spec == "" {
		spec = DefaultSweepSpec
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, func() {
		if _, err := s.Sweep(ctx); err != nil {
			telemetry.Error("sweep.failed", map[string]any{"error": err.Error()})
		}
	}); err != nil {
		return fmt.Errorf("schedule sweeper %q: %w", spec, err)
	}
	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()
	c.Start()
	telemetry.Info("sweeper.started", map[string]any{"spec": spec})
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
}
