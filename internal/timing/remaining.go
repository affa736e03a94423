// Package timing derives per-question countdowns from wall-clock start times
// and triggers auto-submission when they run out.
package timing

import (
	"time"

	"interview-backend/internal/candidates"
)

// Remaining returns the whole seconds left on q at now. waiting is true until
// the question has been started. The result is never negative.
func Remaining(q candidates.Question, now time.Time) (seconds int, waiting bool) {
	if q.StartedAt == nil {
		return q.TimeLimit, true
	}
	elapsed := int(now.Sub(*q.StartedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	left := q.TimeLimit - elapsed
	if left < 0 {
		left = 0
	}
	return left, false
}

// Expired reports whether a started, unanswered question has no time left.
func Expired(q candidates.Question, now time.Time) bool {
	if q.Answered() {
		return false
	}
	left, waiting := Remaining(q, now)
	return !waiting && left == 0
}
