package candidates

import (
	"strings"
	"time"
)

// Difficulty is the tier of a generated question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Status is the lifecycle status of a candidate session.
type Status string

const (
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// QuestionCount is the fixed size of a generated question set.
const QuestionCount = 6

// PerDifficulty is how many questions of each tier a set contains.
const PerDifficulty = 2

var timeLimits = map[Difficulty]int{
	DifficultyEasy:   20,
	DifficultyMedium: 60,
	DifficultyHard:   120,
}

// Difficulties lists the tiers in the order a question set is grouped.
func Difficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}
}

// ParseDifficulty normalizes raw oracle output into a known difficulty.
func ParseDifficulty(raw string) (Difficulty, bool) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := timeLimits[d]
	return d, ok
}

// TimeLimitFor returns the answer budget in seconds for a difficulty.
func TimeLimitFor(d Difficulty) (int, bool) {
	limit, ok := timeLimits[d]
	return limit, ok
}

// Question is one timed prompt within a candidate session.
type Question struct {
	ID            string     `json:"id"`
	Text          string     `json:"text"`
	Difficulty    Difficulty `json:"difficulty"`
	TimeLimit     int        `json:"timeLimit"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
	AnsweredAt    *time.Time `json:"answeredAt,omitempty"`
	AnswerText    *string    `json:"answerText,omitempty"`
	Score         *float64   `json:"score,omitempty"`
	Feedback      *string    `json:"feedback,omitempty"`
	AutoSubmitted *bool      `json:"autoSubmitted,omitempty"`
}

// Started reports whether the candidate has interacted with the question.
func (q Question) Started() bool {
	return q.StartedAt != nil
}

// Answered reports whether the question has been submitted.
func (q Question) Answered() bool {
	return q.AnsweredAt != nil
}

// Candidate is one interview session.
type Candidate struct {
	ID                   string     `json:"id"`
	Name                 *string    `json:"name"`
	Email                *string    `json:"email"`
	Phone                *string    `json:"phone"`
	ResumeText           string     `json:"resumeText"`
	ResumeFileKey        string     `json:"resumeFileKey,omitempty"`
	Questions            []Question `json:"questions"`
	CurrentQuestionIndex int        `json:"currentQuestionIndex"`
	Status               Status     `json:"status"`
	FinalScore           *float64   `json:"finalScore,omitempty"`
	FinalSummary         *string    `json:"finalSummary,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// ContactComplete reports whether name, email and phone are all present.
func (c Candidate) ContactComplete() bool {
	return nonEmpty(c.Name) && nonEmpty(c.Email) && nonEmpty(c.Phone)
}

// MissingContactFields lists the absent contact fields in display order.
func (c Candidate) MissingContactFields() []string {
	var missing []string
	if !nonEmpty(c.Name) {
		missing = append(missing, "name")
	}
	if !nonEmpty(c.Email) {
		missing = append(missing, "email")
	}
	if !nonEmpty(c.Phone) {
		missing = append(missing, "phone")
	}
	return missing
}

// Question returns the question at index i, if any.
func (c Candidate) Question(i int) (Question, bool) {
	if i < 0 || i >= len(c.Questions) {
		return Question{}, false
	}
	return c.Questions[i], true
}

// LastIndex is the index of the final question, or -1 before generation.
func (c Candidate) LastIndex() int {
	return len(c.Questions) - 1
}

// AllAnswered reports whether every generated question has an answer.
func (c Candidate) AllAnswered() bool {
	if len(c.Questions) == 0 {
		return false
	}
	for _, q := range c.Questions {
		if !q.Answered() {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so callers never share mutable state with the store.
func (c Candidate) Clone() Candidate {
	out := c
	out.Name = cloneString(c.Name)
	out.Email = cloneString(c.Email)
	out.Phone = cloneString(c.Phone)
	out.FinalScore = cloneFloat(c.FinalScore)
	out.FinalSummary = cloneString(c.FinalSummary)
	if c.Questions != nil {
		out.Questions = make([]Question, len(c.Questions))
		for i, q := range c.Questions {
			out.Questions[i] = q.clone()
		}
	}
	return out
}

func (q Question) clone() Question {
	out := q
	out.StartedAt = cloneTime(q.StartedAt)
	out.AnsweredAt = cloneTime(q.AnsweredAt)
	out.AnswerText = cloneString(q.AnswerText)
	out.Score = cloneFloat(q.Score)
	out.Feedback = cloneString(q.Feedback)
	if q.AutoSubmitted != nil {
		v := *q.AutoSubmitted
		out.AutoSubmitted = &v
	}
	return out
}

func nonEmpty(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// StringPtr returns a pointer to s, or nil when s is blank.
func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
