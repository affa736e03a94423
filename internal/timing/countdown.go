package timing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"interview-backend/internal/candidates"
)

// DefaultInterval is the countdown evaluation period.
const DefaultInterval = time.Second

// Frame is the part of a session the countdown looks at on each tick.
type Frame struct {
	Index    int
	Question candidates.Question
	// Active is false while there is no current question (before generation).
	Active bool
	// Done ends the countdown: the last question is answered or the session completed.
	Done bool
}

// Tick is one countdown observation pushed to the client.
type Tick struct {
	Index     int  `json:"index"`
	Remaining int  `json:"remaining"`
	TimeLimit int  `json:"timeLimit"`
	Waiting   bool `json:"waiting"`
	Expired   bool `json:"expired"`
	Done      bool `json:"done"`
}

// Countdown re-derives the current question's remaining time on every tick.
type Countdown struct {
	Now      func() time.Time
	Interval time.Duration
	// Source reads the latest session frame.
	Source func(ctx context.Context) (Frame, error)
	// Expire auto-submits question index. It is called at most once per index.
	Expire func(ctx context.Context, index int) error
	// Capture is the live input resource released when Run exits.
	Capture io.Closer
}

// Run drives the countdown until ctx ends, the session is done, or emit,
// Source or Expire fail. Capture is closed exactly once on every exit path.
func (c *Countdown) Run(ctx context.Context, emit func(Tick) error) (err error) {
	if c.Source == nil {
		return errors.New("countdown source is required")
	}
	defer func() {
		if c.Capture == nil {
			return
		}
		if cerr := c.Capture.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("release capture: %w", cerr)
		}
	}()

	now := c.Now
	if now == nil {
		now = time.Now
	}
	interval := c.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fired := make(map[int]bool)
	for {
		frame, err := c.Source(ctx)
		if err != nil {
			return fmt.Errorf("countdown source: %w", err)
		}
		tick := Evaluate(frame, now())
		if tick.Expired && !fired[frame.Index] {
			fired[frame.Index] = true
			if c.Expire != nil {
				if err := c.Expire(ctx, frame.Index); err != nil {
					return fmt.Errorf("expire question %d: %w", frame.Index, err)
				}
			}
		}
		if err := emit(tick); err != nil {
			return err
		}
		if tick.Done {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Evaluate turns a frame into a tick at now.
func Evaluate(frame Frame, now time.Time) Tick {
	if frame.Done {
		return Tick{Index: frame.Index, Done: true}
	}
	if !frame.Active {
		return Tick{Index: frame.Index, Waiting: true}
	}
	q := frame.Question
	left, waiting := Remaining(q, now)
	return Tick{
		Index:     frame.Index,
		Remaining: left,
		TimeLimit: q.TimeLimit,
		Waiting:   waiting,
		Expired:   Expired(q, now),
	}
}
