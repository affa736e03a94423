package session

import "interview-backend/internal/candidates"

// State is the derived position of a candidate in the interview flow.
type State string

const (
	StateNoQuestions   State = "no_questions"
	StateGenerating    State = "generating"
	StateAwaitingStart State = "awaiting_start"
	StateTiming        State = "timing"
	StateSummarizing   State = "summarizing"
	StateCompleted     State = "completed"
)

// Derive computes the state of c. generating reports whether a question
// generation call is in flight for it. The returned index is the question the
// state refers to, or -1 when none applies.
func Derive(c candidates.Candidate, generating bool) (State, int) {
	if c.Status == candidates.StatusCompleted {
		return StateCompleted, -1
	}
	if len(c.Questions) == 0 {
		if generating {
			return StateGenerating, -1
		}
		return StateNoQuestions, -1
	}
	if summarizing(c) {
		return StateSummarizing, -1
	}
	q, ok := c.Question(c.CurrentQuestionIndex)
	if !ok {
		return StateAwaitingStart, 0
	}
	if q.Started() && !q.Answered() {
		return StateTiming, c.CurrentQuestionIndex
	}
	return StateAwaitingStart, c.CurrentQuestionIndex
}

// summarizing holds once the last question is answered and the session has
// not been completed yet.
func summarizing(c candidates.Candidate) bool {
	if c.Status == candidates.StatusCompleted || len(c.Questions) == 0 {
		return false
	}
	return c.Questions[c.LastIndex()].Answered()
}
