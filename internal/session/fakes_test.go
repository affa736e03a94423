package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"interview-backend/internal/candidates"
	"interview-backend/internal/contact"
	"interview-backend/internal/oracle"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var errOracleDown = &oracle.Error{Op: "test", Code: oracle.CodeTransport, Err: errors.New("down")}

type fakeOracle struct {
	mu             sync.Mutex
	generateCalls  int
	scoreCalls     int
	summarizeCalls int
	generateErr    error
	scoreErr       error
	summarizeErr   error

	generateGate     chan struct{}
	summarizeGate    chan struct{}
	summarizeEntered chan struct{}

	// generated replaces the default question set when non-nil.
	generated    []oracle.GeneratedQuestion
	scoreGate    chan struct{}
	scoreEntered chan struct{}
	onScore      func()
}

func (f *fakeOracle) set(fn func(f *fakeOracle)) {
	f.mu.Lock()
	fn(f)
	f.mu.Unlock()
}

func (f *fakeOracle) counts() (gen, score, sum int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generateCalls, f.scoreCalls, f.summarizeCalls
}

func (f *fakeOracle) GenerateQuestions(ctx context.Context) ([]oracle.GeneratedQuestion, error) {
	f.mu.Lock()
	f.generateCalls++
	gate, err, custom := f.generateGate, f.generateErr, f.generated
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return []oracle.GeneratedQuestion{}, err
	}
	if custom != nil {
		return custom, nil
	}
	return []oracle.GeneratedQuestion{
		{Difficulty: "easy", Text: "What is a goroutine?"},
		{Difficulty: "easy", Text: "What does defer do?"},
		{Difficulty: "medium", Text: "Explain channels vs mutexes."},
		{Difficulty: "medium", Text: "How does context cancellation propagate?"},
		{Difficulty: "hard", Text: "Design a distributed rate limiter."},
		{Difficulty: "hard", Text: "Explain the Go scheduler."},
	}, nil
}

func (f *fakeOracle) ScoreAnswer(ctx context.Context, question, answer string, difficulty candidates.Difficulty) (oracle.Score, error) {
	f.mu.Lock()
	f.scoreCalls++
	err, gate, entered, hook := f.scoreErr, f.scoreGate, f.scoreEntered, f.onScore
	f.mu.Unlock()
	if entered != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		<-gate
	}
	if hook != nil {
		hook()
	}
	if err != nil {
		return oracle.FallbackScore, err
	}
	if answer == "" {
		return oracle.Score{Score: 0, Feedback: "No answer."}, nil
	}
	return oracle.Score{Score: 7, Feedback: "Reasonable."}, nil
}

func (f *fakeOracle) SummarizeInterview(ctx context.Context, transcript []oracle.TranscriptEntry) (oracle.Summary, error) {
	f.mu.Lock()
	f.summarizeCalls++
	gate, entered, err := f.summarizeGate, f.summarizeEntered, f.summarizeErr
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return oracle.FallbackSummary, err
	}
	return oracle.Summary{FinalScore: 72, Summary: "Solid fundamentals."}, nil
}

type harness struct {
	t      *testing.T
	clock  *fakeClock
	store  *candidates.MemoryStore
	oracle *fakeOracle
	ctrl   *Controller
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	clock := newFakeClock()
	store := candidates.NewMemoryStore().WithClock(clock.Now)
	o := &fakeOracle{}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return &harness{t: t, clock: clock, store: store, oracle: o, ctrl: NewController(store, o, opts...)}
}

func ptr(s string) *string { return &s }

func (h *harness) create(info contact.Info) candidates.Candidate {
	h.t.Helper()
	created, err := h.ctrl.CreateCandidate(context.Background(), info, "Experience: Go", "")
	if err != nil {
		h.t.Fatalf("CreateCandidate: %v", err)
	}
	return created.Candidate
}

func (h *harness) ready() candidates.Candidate {
	h.t.Helper()
	c := h.create(contact.Info{Name: ptr("Ada Lovelace"), Email: ptr("ada@example.com"), Phone: ptr("5551234567")})
	if _, err := h.ctrl.GenerateQuestions(context.Background(), c.ID); err != nil {
		h.t.Fatalf("GenerateQuestions: %v", err)
	}
	return h.get(c.ID)
}

func (h *harness) get(id string) candidates.Candidate {
	h.t.Helper()
	c, err := h.store.Get(context.Background(), id)
	if err != nil {
		h.t.Fatalf("Get: %v", err)
	}
	return c
}
