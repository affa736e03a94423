// Package session drives a candidate through question generation, timed
// answers, scoring and the final summary.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"interview-backend/internal/candidates"
	"interview-backend/internal/contact"
	"interview-backend/internal/oracle"
	"interview-backend/internal/shared/metrics"
	"interview-backend/internal/shared/telemetry"
	"interview-backend/internal/timing"
)

// ScoringMode selects when answers are graded.
type ScoringMode string

const (
	// ScoringPerAnswer grades each answer before it is stored.
	ScoringPerAnswer ScoringMode = "per_answer"
	// ScoringDeferred stores a zero score and leaves grading to the summary.
	ScoringDeferred ScoringMode = "deferred"
)

// ParseScoringMode maps a config value to a mode, defaulting to per-answer.
func ParseScoringMode(raw string) ScoringMode {
	if ScoringMode(strings.ToLower(strings.TrimSpace(raw))) == ScoringDeferred {
		return ScoringDeferred
	}
	return ScoringPerAnswer
}

// Controller is the only writer of session state.
type Controller struct {
	store   candidates.Store
	oracle  oracle.Oracle
	now     func() time.Time
	scoring ScoringMode
	newID   func() string

	flights *flights
	drafts  *Drafts
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithScoringMode selects the scoring policy.
func WithScoringMode(mode ScoringMode) Option {
	return func(c *Controller) {
		if mode != "" {
			c.scoring = mode
		}
	}
}

// WithIDGenerator overrides id generation for candidates and questions.
func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// NewController wires a controller over store and oracle.
func NewController(store candidates.Store, o oracle.Oracle, opts ...Option) *Controller {
	c := &Controller{
		store:   store,
		oracle:  o,
		now:     func() time.Time { return time.Now().UTC() },
		scoring: ScoringPerAnswer,
		newID:   uuid.NewString,
		flights: newFlights(),
		drafts:  NewDrafts(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Drafts exposes the draft buffer.
func (c *Controller) Drafts() *Drafts {
	return c.drafts
}

// Now returns the controller's clock reading.
func (c *Controller) Now() time.Time {
	return c.now()
}

// Created is the outcome of CreateCandidate.
type Created struct {
	Candidate    candidates.Candidate `json:"candidate"`
	NeedsContact bool                 `json:"needsContact"`
	Missing      []string             `json:"missing,omitempty"`
}

// CreateCandidate registers a new session from parsed resume data.
func (c *Controller) CreateCandidate(ctx context.Context, info contact.Info, resumeText, resumeFileKey string) (Created, error) {
	now := c.now()
	cand := candidates.Candidate{
		ID:            c.newID(),
		Name:          trimmed(info.Name),
		Email:         trimmed(info.Email),
		Phone:         trimmed(info.Phone),
		ResumeText:    resumeText,
		ResumeFileKey: resumeFileKey,
		Questions:     []candidates.Question{},
		Status:        candidates.StatusInProgress,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := c.store.Create(ctx, cand); err != nil {
		return Created{}, fmt.Errorf("create candidate: %w", err)
	}
	metrics.IncCandidateCreated()
	telemetry.Info("candidate.created", map[string]any{
		"candidate_id":  cand.ID,
		"needs_contact": !cand.ContactComplete(),
	})
	return Created{
		Candidate:    cand,
		NeedsContact: !cand.ContactComplete(),
		Missing:      cand.MissingContactFields(),
	}, nil
}

// UpdateContact overwrites contact fields with the non-blank values given.
func (c *Controller) UpdateContact(ctx context.Context, id, name, email, phone string) (candidates.Candidate, error) {
	updated, err := c.store.Update(ctx, id, func(cand *candidates.Candidate) error {
		changed := false
		for _, f := range []struct {
			dst **string
			val string
		}{{&cand.Name, name}, {&cand.Email, email}, {&cand.Phone, phone}} {
			v := candidates.StringPtr(f.val)
			if v == nil {
				continue
			}
			if *f.dst == nil || **f.dst != *v {
				*f.dst = v
				changed = true
			}
		}
		if !changed {
			return candidates.ErrNoChange
		}
		return nil
	})
	if err != nil && !errors.Is(err, candidates.ErrNoChange) {
		return candidates.Candidate{}, fmt.Errorf("update contact %s: %w", id, err)
	}
	return updated, nil
}

// GenerateQuestions fills an empty session with six questions. Existing
// questions are returned as-is. Concurrent calls share one oracle request.
func (c *Controller) GenerateQuestions(ctx context.Context, id string) ([]candidates.Question, error) {
	cand, err := c.store.Get(ctx, id)
	if err != nil {
		return []candidates.Question{}, fmt.Errorf("generate questions %s: %w", id, err)
	}
	if len(cand.Questions) > 0 {
		return cand.Questions, nil
	}
	if !cand.ContactComplete() {
		return []candidates.Question{}, fmt.Errorf("generate questions %s: %w", id, ErrContactIncomplete)
	}

	val, err := c.flights.do(ctx, generateKey(id), func(ctx context.Context) (any, error) {
		return c.generate(ctx, id)
	})
	if err != nil {
		return []candidates.Question{}, fmt.Errorf("generate questions %s: %w", id, err)
	}
	qs, _ := val.([]candidates.Question)
	return qs, nil
}

func (c *Controller) generate(ctx context.Context, id string) ([]candidates.Question, error) {
	cand, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(cand.Questions) > 0 {
		return cand.Questions, nil
	}

	generated, err := c.oracle.GenerateQuestions(ctx)
	if err != nil {
		telemetry.Error("questions.generate.failed", map[string]any{"candidate_id": id, "error": err.Error()})
		return nil, err
	}
	questions := make([]candidates.Question, 0, len(generated))
	for _, g := range generated {
		d, ok := candidates.ParseDifficulty(g.Difficulty)
		if !ok {
			return nil, &oracle.Error{Op: "generate", Code: oracle.CodeMalformed, Err: fmt.Errorf("unknown difficulty %q", g.Difficulty)}
		}
		limit, _ := candidates.TimeLimitFor(d)
		questions = append(questions, candidates.Question{
			ID:         c.newID(),
			Text:       g.Text,
			Difficulty: d,
			TimeLimit:  limit,
		})
	}
	if err := checkTiers(questions); err != nil {
		return nil, &oracle.Error{Op: "generate", Code: oracle.CodeMalformed, Err: err}
	}

	updated, err := c.store.Update(ctx, id, func(cand *candidates.Candidate) error {
		if len(cand.Questions) > 0 {
			return candidates.ErrNoChange
		}
		cand.Questions = questions
		cand.CurrentQuestionIndex = 0
		return nil
	})
	if err != nil && !errors.Is(err, candidates.ErrNoChange) {
		return nil, err
	}
	telemetry.Info("questions.generated", map[string]any{"candidate_id": id, "count": len(updated.Questions)})
	return updated.Questions, nil
}

// checkTiers requires PerDifficulty questions of each difficulty, easiest
// first.
func checkTiers(questions []candidates.Question) error {
	if len(questions) != candidates.QuestionCount {
		return fmt.Errorf("got %d questions", len(questions))
	}
	tiers := candidates.Difficulties()
	for i, q := range questions {
		if want := tiers[i/candidates.PerDifficulty]; q.Difficulty != want {
			return fmt.Errorf("question %d is %s, want %s", i, q.Difficulty, want)
		}
	}
	return nil
}

// BeginAnswering marks the first interaction with question qIndex. Repeated
// calls, answered questions and indexes behind the current one are no-ops.
func (c *Controller) BeginAnswering(ctx context.Context, id string, qIndex int) (candidates.Candidate, error) {
	now := c.now()
	updated, err := c.store.Update(ctx, id, func(cand *candidates.Candidate) error {
		q, ok := cand.Question(qIndex)
		if !ok {
			return ErrQuestionNotFound
		}
		if cand.Status == candidates.StatusCompleted || q.Started() || q.Answered() || qIndex < cand.CurrentQuestionIndex {
			return candidates.ErrNoChange
		}
		cand.Questions[qIndex].StartedAt = &now
		cand.CurrentQuestionIndex = qIndex
		return nil
	})
	if err != nil && !errors.Is(err, candidates.ErrNoChange) {
		return candidates.Candidate{}, fmt.Errorf("begin answering %s/%d: %w", id, qIndex, err)
	}
	return updated, nil
}

// UpdateDraft buffers in-progress answer text. The first non-blank draft on
// an unstarted question starts its timer.
func (c *Controller) UpdateDraft(ctx context.Context, id string, qIndex int, text string) (candidates.Candidate, error) {
	cand, err := c.store.Get(ctx, id)
	if err != nil {
		return candidates.Candidate{}, fmt.Errorf("update draft %s/%d: %w", id, qIndex, err)
	}
	q, ok := cand.Question(qIndex)
	if !ok {
		return candidates.Candidate{}, fmt.Errorf("update draft %s/%d: %w", id, qIndex, ErrQuestionNotFound)
	}
	if q.Answered() {
		return cand, nil
	}
	c.drafts.Set(id, qIndex, text)
	if strings.TrimSpace(text) != "" && !q.Started() {
		return c.BeginAnswering(ctx, id, qIndex)
	}
	return cand, nil
}

// SubmitResult describes the outcome of SubmitAnswer.
type SubmitResult struct {
	Candidate candidates.Candidate `json:"candidate"`
	// Applied is false when the question had already been answered.
	Applied bool `json:"applied"`
	// Finalized is true when the session completed as part of this submission.
	Finalized bool `json:"finalized"`
	// FinalizeErr carries a failed summary after the last answer was stored.
	FinalizeErr error `json:"-"`
}

type submitOutcome struct {
	candidate   candidates.Candidate
	applied     bool
	finalized   bool
	finalizeErr error
}

// SubmitAnswer records the answer to qIndex once. The stored answer is
// whichever submission reaches the store first; later ones are dropped.
// Answering the last question triggers Finalize. Both run on a context
// detached from the callers, so a caller giving up does not strand the
// session in summarizing. A repeat submit on an answered last question
// joins or retries the pending summary.
func (c *Controller) SubmitAnswer(ctx context.Context, id string, qIndex int, text string, auto bool) (SubmitResult, error) {
	cand, err := c.store.Get(ctx, id)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("submit answer %s/%d: %w", id, qIndex, err)
	}
	q, ok := cand.Question(qIndex)
	if !ok {
		return SubmitResult{}, fmt.Errorf("submit answer %s/%d: %w", id, qIndex, ErrQuestionNotFound)
	}
	if q.Answered() {
		res := SubmitResult{Candidate: cand}
		if summarizing(cand) {
			final, ferr := c.Finalize(ctx, id)
			if ferr != nil {
				res.FinalizeErr = ferr
			} else {
				res.Candidate = final
			}
		}
		return res, nil
	}

	ran := false
	val, err := c.flights.do(ctx, submitKey(id, qIndex), func(ctx context.Context) (any, error) {
		ran = true
		return c.submitAndFinalize(ctx, id, qIndex, text, auto)
	})
	if err != nil {
		return SubmitResult{}, fmt.Errorf("submit answer %s/%d: %w", id, qIndex, err)
	}
	out := val.(submitOutcome)
	return SubmitResult{
		Candidate:   out.candidate,
		Applied:     out.applied && ran,
		Finalized:   out.finalized,
		FinalizeErr: out.finalizeErr,
	}, nil
}

func (c *Controller) submitAndFinalize(ctx context.Context, id string, qIndex int, text string, auto bool) (submitOutcome, error) {
	out, err := c.submit(ctx, id, qIndex, text, auto)
	if err != nil {
		return submitOutcome{}, err
	}
	if out.applied {
		c.drafts.Clear(id, qIndex)
		metrics.IncAnswerSubmitted(auto)
		telemetry.Info("answer.submitted", map[string]any{
			"candidate_id":   id,
			"question_index": qIndex,
			"auto":           auto,
		})
	}
	if !summarizing(out.candidate) {
		return out, nil
	}
	final, err := c.Finalize(ctx, id)
	if err != nil {
		out.finalizeErr = err
		return out, nil
	}
	out.candidate = final
	out.finalized = final.Status == candidates.StatusCompleted
	return out, nil
}

// AutoSubmit submits the buffered draft for an expired question.
func (c *Controller) AutoSubmit(ctx context.Context, id string, qIndex int) (SubmitResult, error) {
	return c.SubmitAnswer(ctx, id, qIndex, c.drafts.Get(id, qIndex), true)
}

func (c *Controller) submit(ctx context.Context, id string, qIndex int, text string, auto bool) (submitOutcome, error) {
	cand, err := c.store.Get(ctx, id)
	if err != nil {
		return submitOutcome{}, err
	}
	q, ok := cand.Question(qIndex)
	if !ok {
		return submitOutcome{}, ErrQuestionNotFound
	}
	if q.Answered() {
		return submitOutcome{candidate: cand}, nil
	}

	now := c.now()
	score, feedback := c.score(ctx, id, q, text)
	updated, err := c.store.Update(ctx, id, func(cand *candidates.Candidate) error {
		if cand.Status == candidates.StatusCompleted || cand.Questions[qIndex].Answered() {
			return candidates.ErrNoChange
		}
		answer := text
		autoFlag := auto
		target := &cand.Questions[qIndex]
		target.AnsweredAt = &now
		target.AnswerText = &answer
		target.Score = &score
		target.Feedback = feedback
		target.AutoSubmitted = &autoFlag

		next := qIndex
		if qIndex < cand.LastIndex() {
			next = qIndex + 1
		}
		if next > cand.CurrentQuestionIndex {
			cand.CurrentQuestionIndex = next
		}
		return nil
	})
	if errors.Is(err, candidates.ErrNoChange) {
		return submitOutcome{candidate: updated}, nil
	}
	if err != nil {
		return submitOutcome{}, err
	}
	return submitOutcome{candidate: updated, applied: true}, nil
}

func (c *Controller) score(ctx context.Context, id string, q candidates.Question, text string) (float64, *string) {
	if c.scoring == ScoringDeferred {
		return 0, nil
	}
	s, err := c.oracle.ScoreAnswer(ctx, q.Text, text, q.Difficulty)
	if err != nil {
		telemetry.Error("answer.score.failed", map[string]any{
			"candidate_id": id,
			"question_id":  q.ID,
			"error":        err.Error(),
		})
		s = oracle.FallbackScore
	}
	feedback := s.Feedback
	return s.Score, &feedback
}

// Finalize summarizes a session whose last question is answered. It is a
// no-op on completed sessions and concurrent calls share one oracle request.
// A failed summary leaves the session summarizing so it can be retried.
func (c *Controller) Finalize(ctx context.Context, id string) (candidates.Candidate, error) {
	cand, err := c.store.Get(ctx, id)
	if err != nil {
		return candidates.Candidate{}, fmt.Errorf("finalize %s: %w", id, err)
	}
	if cand.Status == candidates.StatusCompleted {
		return cand, nil
	}
	if !summarizing(cand) {
		return cand, fmt.Errorf("finalize %s: %w", id, ErrNotReady)
	}

	val, err := c.flights.do(ctx, finalizeKey(id), func(ctx context.Context) (any, error) {
		return c.finalize(ctx, id)
	})
	if err != nil {
		current, _ := c.store.Get(ctx, id)
		return current, fmt.Errorf("finalize %s: %w", id, err)
	}
	return val.(candidates.Candidate), nil
}

func (c *Controller) finalize(ctx context.Context, id string) (candidates.Candidate, error) {
	cand, err := c.store.Get(ctx, id)
	if err != nil {
		return candidates.Candidate{}, err
	}
	if cand.Status == candidates.StatusCompleted {
		return cand, nil
	}

	summary, err := c.oracle.SummarizeInterview(ctx, Transcript(cand))
	if err != nil {
		telemetry.Error("session.finalize.failed", map[string]any{"candidate_id": id, "error": err.Error()})
		return candidates.Candidate{}, err
	}

	completed := false
	updated, err := c.store.Update(ctx, id, func(cand *candidates.Candidate) error {
		if cand.Status == candidates.StatusCompleted {
			return candidates.ErrNoChange
		}
		score := summary.FinalScore
		text := summary.Summary
		cand.FinalScore = &score
		cand.FinalSummary = &text
		cand.Status = candidates.StatusCompleted
		completed = true
		return nil
	})
	if err != nil && !errors.Is(err, candidates.ErrNoChange) {
		return candidates.Candidate{}, err
	}
	if completed {
		c.drafts.Forget(id)
		metrics.IncSessionCompleted()
		telemetry.Info("session.completed", map[string]any{"candidate_id": id, "final_score": summary.FinalScore})
	}
	return updated, nil
}

// Transcript lists every question with its answer and score, in order.
// Unanswered questions contribute an empty answer and a zero score.
func Transcript(cand candidates.Candidate) []oracle.TranscriptEntry {
	out := make([]oracle.TranscriptEntry, 0, len(cand.Questions))
	for _, q := range cand.Questions {
		entry := oracle.TranscriptEntry{Question: q.Text}
		if q.AnswerText != nil {
			entry.Answer = *q.AnswerText
		}
		if q.Score != nil {
			entry.Score = *q.Score
		}
		out = append(out, entry)
	}
	return out
}

// View is a read-only session snapshot for presentation.
type View struct {
	Candidate    candidates.Candidate `json:"candidate"`
	State        State                `json:"state"`
	CurrentIndex int                  `json:"currentIndex"`
	Remaining    int                  `json:"remaining"`
	Waiting      bool                 `json:"waiting"`
	NeedsContact bool                 `json:"needsContact"`
}

// Snapshot returns the current view of a session.
func (c *Controller) Snapshot(ctx context.Context, id string) (View, error) {
	cand, err := c.store.Get(ctx, id)
	if err != nil {
		return View{}, fmt.Errorf("snapshot %s: %w", id, err)
	}
	return c.view(cand), nil
}

func (c *Controller) view(cand candidates.Candidate) View {
	state, idx := Derive(cand, c.flights.Running(generateKey(cand.ID)))
	v := View{
		Candidate:    cand,
		State:        state,
		CurrentIndex: cand.CurrentQuestionIndex,
		Waiting:      true,
		NeedsContact: !cand.ContactComplete(),
	}
	if q, ok := cand.Question(idx); ok {
		v.Remaining, v.Waiting = timing.Remaining(q, c.now())
	}
	return v
}

// List returns all candidates, most recent first.
func (c *Controller) List(ctx context.Context) ([]candidates.Candidate, error) {
	list, err := c.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return list, nil
}

// Frame adapts a session to the countdown's view of it.
func (c *Controller) Frame(ctx context.Context, id string) (timing.Frame, error) {
	cand, err := c.store.Get(ctx, id)
	if err != nil {
		return timing.Frame{}, err
	}
	state, idx := Derive(cand, false)
	switch state {
	case StateCompleted, StateSummarizing:
		return timing.Frame{Index: cand.CurrentQuestionIndex, Done: true}, nil
	case StateNoQuestions, StateGenerating:
		return timing.Frame{Index: 0}, nil
	}
	q, _ := cand.Question(idx)
	return timing.Frame{Index: idx, Question: q, Active: true}, nil
}

// Countdown builds a countdown for a session. capture is released when it stops.
func (c *Controller) Countdown(id string, capture io.Closer) *timing.Countdown {
	return &timing.Countdown{
		Now: c.now,
		Source: func(ctx context.Context) (timing.Frame, error) {
			return c.Frame(ctx, id)
		},
		Expire: func(ctx context.Context, index int) error {
			_, err := c.AutoSubmit(ctx, id, index)
			return err
		},
		Capture: capture,
	}
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	return candidates.StringPtr(*p)
}
