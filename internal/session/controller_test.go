package session

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"interview-backend/internal/candidates"
	"interview-backend/internal/contact"
	"interview-backend/internal/oracle"
	"interview-backend/internal/timing"
)

func TestGenerateQuestionsAssignsTimeLimits(t *testing.T) {
	h := newHarness(t)
	c := h.ready()

	if len(c.Questions) != candidates.QuestionCount {
		t.Fatalf("expected %d questions, got %d", candidates.QuestionCount, len(c.Questions))
	}
	wantLimits := []int{20, 20, 60, 60, 120, 120}
	seen := map[string]bool{}
	for i, q := range c.Questions {
		if q.TimeLimit != wantLimits[i] {
			t.Fatalf("question %d: time limit %d want %d", i, q.TimeLimit, wantLimits[i])
		}
		if q.ID == "" || seen[q.ID] {
			t.Fatalf("question %d: id %q is empty or duplicated", i, q.ID)
		}
		seen[q.ID] = true
	}
	if c.CurrentQuestionIndex != 0 {
		t.Fatalf("expected index 0, got %d", c.CurrentQuestionIndex)
	}

	// Limits survive the whole session.
	ctx := context.Background()
	for i := range c.Questions {
		if _, err := h.ctrl.SubmitAnswer(ctx, c.ID, i, "answer", false); err != nil {
			t.Fatalf("SubmitAnswer %d: %v", i, err)
		}
	}
	for i, q := range h.get(c.ID).Questions {
		if q.TimeLimit != wantLimits[i] {
			t.Fatalf("question %d limit changed to %d", i, q.TimeLimit)
		}
	}
}

func TestGenerateQuestionsIsNotRepeated(t *testing.T) {
	h := newHarness(t)
	c := h.ready()

	again, err := h.ctrl.GenerateQuestions(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("GenerateQuestions: %v", err)
	}
	if again[0].ID != c.Questions[0].ID {
		t.Fatalf("questions were regenerated")
	}
	if gen, _, _ := h.oracle.counts(); gen != 1 {
		t.Fatalf("expected 1 oracle call, got %d", gen)
	}
}

func TestGenerateQuestionsRequiresContact(t *testing.T) {
	h := newHarness(t)
	c := h.create(contact.Info{Name: ptr("Ada Lovelace"), Phone: ptr("5551234567")})

	_, err := h.ctrl.GenerateQuestions(context.Background(), c.ID)
	if !errors.Is(err, ErrContactIncomplete) {
		t.Fatalf("expected ErrContactIncomplete, got %v", err)
	}
	if gen, _, _ := h.oracle.counts(); gen != 0 {
		t.Fatalf("oracle must not be called without contact details")
	}
}

func TestGenerateFailureAllowsRetry(t *testing.T) {
	h := newHarness(t)
	c := h.create(contact.Info{Name: ptr("Ada Lovelace"), Email: ptr("ada@example.com"), Phone: ptr("5551234567")})
	h.oracle.set(func(f *fakeOracle) { f.generateErr = errOracleDown })

	qs, err := h.ctrl.GenerateQuestions(context.Background(), c.ID)
	if !errors.Is(err, oracle.ErrOracle) {
		t.Fatalf("expected oracle error, got %v", err)
	}
	if qs == nil || len(qs) != 0 {
		t.Fatalf("expected an empty, non-nil question set, got %v", qs)
	}
	after := h.get(c.ID)
	if len(after.Questions) != 0 || after.Status != candidates.StatusInProgress {
		t.Fatalf("failed generation must not change the session: %+v", after)
	}
	view, _ := h.ctrl.Snapshot(context.Background(), c.ID)
	if view.State != StateNoQuestions {
		t.Fatalf("expected no_questions, got %s", view.State)
	}

	h.oracle.set(func(f *fakeOracle) { f.generateErr = nil })
	qs, err = h.ctrl.GenerateQuestions(context.Background(), c.ID)
	if err != nil || len(qs) != candidates.QuestionCount {
		t.Fatalf("retry should succeed, got %d questions, err %v", len(qs), err)
	}
}

func TestGenerateQuestionsSingleFlight(t *testing.T) {
	h := newHarness(t)
	c := h.create(contact.Info{Name: ptr("Ada Lovelace"), Email: ptr("ada@example.com"), Phone: ptr("5551234567")})
	gate := make(chan struct{})
	h.oracle.set(func(f *fakeOracle) { f.generateGate = gate })

	var wg sync.WaitGroup
	results := make([][]candidates.Question, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			qs, err := h.ctrl.GenerateQuestions(context.Background(), c.ID)
			if err != nil {
				t.Errorf("GenerateQuestions: %v", err)
			}
			results[i] = qs
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	if gen, _, _ := h.oracle.counts(); gen != 1 {
		t.Fatalf("expected exactly one oracle call, got %d", gen)
	}
	for i, qs := range results {
		if len(qs) != candidates.QuestionCount || qs[0].ID != results[0][0].ID {
			t.Fatalf("caller %d saw a different question set", i)
		}
	}
}

func TestBeginAnsweringIsIdempotent(t *testing.T) {
	h := newHarness(t)
	c := h.ready()
	ctx := context.Background()

	first, err := h.ctrl.BeginAnswering(ctx, c.ID, 0)
	if err != nil {
		t.Fatalf("BeginAnswering: %v", err)
	}
	h.clock.Advance(3 * time.Second)
	second, err := h.ctrl.BeginAnswering(ctx, c.ID, 0)
	if err != nil {
		t.Fatalf("BeginAnswering again: %v", err)
	}
	if !first.Questions[0].StartedAt.Equal(*second.Questions[0].StartedAt) {
		t.Fatalf("startedAt moved from %v to %v", first.Questions[0].StartedAt, second.Questions[0].StartedAt)
	}
	if !second.UpdatedAt.Equal(first.UpdatedAt) {
		t.Fatalf("no-op begin must not touch updatedAt")
	}
}

func TestBeginAnsweringUnknownQuestion(t *testing.T) {
	h := newHarness(t)
	c := h.ready()

	if _, err := h.ctrl.BeginAnswering(context.Background(), c.ID, 6); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
	if _, err := h.ctrl.BeginAnswering(context.Background(), "missing", 0); !errors.Is(err, candidates.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDraftStartsTimerOnFirstKeystroke(t *testing.T) {
	h := newHarness(t)
	c := h.ready()
	ctx := context.Background()

	got, err := h.ctrl.UpdateDraft(ctx, c.ID, 0, "")
	if err != nil {
		t.Fatalf("UpdateDraft: %v", err)
	}
	if got.Questions[0].Started() {
		t.Fatalf("blank draft must not start the timer")
	}
	got, err = h.ctrl.UpdateDraft(ctx, c.ID, 0, "g")
	if err != nil {
		t.Fatalf("UpdateDraft: %v", err)
	}
	if !got.Questions[0].Started() {
		t.Fatalf("first keystroke should start the timer")
	}
	if h.ctrl.Drafts().Get(c.ID, 0) != "g" {
		t.Fatalf("draft not buffered")
	}
}

func TestSubmitTwiceKeepsFirstAnswer(t *testing.T) {
	h := newHarness(t)
	c := h.ready()
	ctx := context.Background()

	first, err := h.ctrl.SubmitAnswer(ctx, c.ID, 0, "first", false)
	if err != nil || !first.Applied {
		t.Fatalf("first submit: applied=%v err=%v", first.Applied, err)
	}
	h.clock.Advance(time.Second)
	second, err := h.ctrl.SubmitAnswer(ctx, c.ID, 0, "second", true)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if second.Applied {
		t.Fatalf("second submit must be a no-op")
	}

	q := h.get(c.ID).Questions[0]
	if *q.AnswerText != "first" || *q.AutoSubmitted || !q.AnsweredAt.Equal(*first.Candidate.Questions[0].AnsweredAt) {
		t.Fatalf("answer changed by second submit: %+v", q)
	}
	if _, score, _ := h.oracle.counts(); score != 1 {
		t.Fatalf("expected one scoring call, got %d", score)
	}
}

func TestManualAndAutoSubmitRace(t *testing.T) {
	h := newHarness(t)
	c := h.ready()
	ctx := context.Background()
	h.ctrl.Drafts().Set(c.ID, 1, "auto text")

	var wg sync.WaitGroup
	applied := make(chan bool, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		res, err := h.ctrl.SubmitAnswer(ctx, c.ID, 1, "manual text", false)
		if err != nil {
			t.Errorf("manual: %v", err)
		}
		applied <- res.Applied
	}()
	go func() {
		defer wg.Done()
		res, err := h.ctrl.AutoSubmit(ctx, c.ID, 1)
		if err != nil {
			t.Errorf("auto: %v", err)
		}
		applied <- res.Applied
	}()
	wg.Wait()
	close(applied)

	wins := 0
	for a := range applied {
		if a {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one applied submission, got %d", wins)
	}
	q := h.get(c.ID).Questions[1]
	switch *q.AnswerText {
	case "manual text":
		if *q.AutoSubmitted {
			t.Fatalf("manual answer flagged as auto")
		}
	case "auto text":
		if !*q.AutoSubmitted {
			t.Fatalf("auto answer not flagged")
		}
	default:
		t.Fatalf("unexpected answer %q", *q.AnswerText)
	}
}

func TestSubmitScoresPerAnswer(t *testing.T) {
	h := newHarness(t)
	c := h.ready()

	res, err := h.ctrl.SubmitAnswer(context.Background(), c.ID, 0, "lightweight thread", false)
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	q := res.Candidate.Questions[0]
	if *q.Score != 7 || *q.Feedback != "Reasonable." {
		t.Fatalf("unexpected score %v %q", *q.Score, *q.Feedback)
	}
	if res.Candidate.CurrentQuestionIndex != 1 {
		t.Fatalf("expected index to advance to 1, got %d", res.Candidate.CurrentQuestionIndex)
	}
	if res.Candidate.Questions[1].Started() {
		t.Fatalf("next question must wait for first interaction")
	}
}

func TestSubmitScoringFailureUsesFallback(t *testing.T) {
	h := newHarness(t)
	c := h.ready()
	h.oracle.set(func(f *fakeOracle) { f.scoreErr = errOracleDown })

	res, err := h.ctrl.SubmitAnswer(context.Background(), c.ID, 0, "answer", false)
	if err != nil || !res.Applied {
		t.Fatalf("submit should still apply: applied=%v err=%v", res.Applied, err)
	}
	q := res.Candidate.Questions[0]
	if *q.Score != 0 || *q.Feedback != oracle.FallbackScore.Feedback {
		t.Fatalf("expected fallback score, got %v %q", *q.Score, *q.Feedback)
	}
}

func TestDeferredScoringSkipsOracle(t *testing.T) {
	h := newHarness(t, WithScoringMode(ScoringDeferred))
	c := h.ready()

	res, err := h.ctrl.SubmitAnswer(context.Background(), c.ID, 0, "answer", false)
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if *res.Candidate.Questions[0].Score != 0 || res.Candidate.Questions[0].Feedback != nil {
		t.Fatalf("deferred mode stores a bare zero score")
	}
	if _, score, _ := h.oracle.counts(); score != 0 {
		t.Fatalf("deferred mode must not call the oracle, got %d calls", score)
	}
}

func TestCurrentIndexNeverDecreases(t *testing.T) {
	h := newHarness(t, WithScoringMode(ScoringDeferred))
	c := h.ready()
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	last := 0
	for step := 0; step < 200; step++ {
		idx := rng.Intn(candidates.QuestionCount)
		switch rng.Intn(3) {
		case 0:
			_, _ = h.ctrl.BeginAnswering(ctx, c.ID, idx)
		case 1:
			_, _ = h.ctrl.UpdateDraft(ctx, c.ID, idx, "x")
		case 2:
			if idx == candidates.QuestionCount-1 && rng.Intn(4) != 0 {
				continue
			}
			_, _ = h.ctrl.SubmitAnswer(ctx, c.ID, idx, "x", rng.Intn(2) == 0)
		}
		h.clock.Advance(time.Second)
		cur := h.get(c.ID)
		if cur.CurrentQuestionIndex < last {
			t.Fatalf("step %d: index went from %d to %d", step, last, cur.CurrentQuestionIndex)
		}
		if cur.CurrentQuestionIndex < 0 || cur.CurrentQuestionIndex > cur.LastIndex() {
			t.Fatalf("step %d: index %d out of range", step, cur.CurrentQuestionIndex)
		}
		last = cur.CurrentQuestionIndex
	}
}

func TestFinalizeNotReady(t *testing.T) {
	h := newHarness(t)
	c := h.ready()

	if _, err := h.ctrl.Finalize(context.Background(), c.ID); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if _, _, sum := h.oracle.counts(); sum != 0 {
		t.Fatalf("oracle must not be called before the last answer")
	}
}

func TestFinalizeSingleFlight(t *testing.T) {
	h := newHarness(t, WithScoringMode(ScoringDeferred))
	c := h.ready()
	ctx := context.Background()
	for i := 0; i < candidates.QuestionCount-1; i++ {
		if _, err := h.ctrl.SubmitAnswer(ctx, c.ID, i, "a", false); err != nil {
			t.Fatalf("SubmitAnswer %d: %v", i, err)
		}
	}

	gate := make(chan struct{})
	entered := make(chan struct{}, 16)
	h.oracle.set(func(f *fakeOracle) {
		f.summarizeGate = gate
		f.summarizeEntered = entered
	})

	done := make(chan SubmitResult, 1)
	go func() {
		res, err := h.ctrl.SubmitAnswer(ctx, c.ID, candidates.QuestionCount-1, "last", true)
		if err != nil {
			t.Errorf("last submit: %v", err)
		}
		done <- res
	}()
	<-entered

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := h.ctrl.Finalize(ctx, c.ID)
			if err != nil {
				t.Errorf("Finalize: %v", err)
				return
			}
			if got.Status != candidates.StatusCompleted {
				t.Errorf("expected completed, got %s", got.Status)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()
	res := <-done

	if _, _, sum := h.oracle.counts(); sum != 1 {
		t.Fatalf("expected one summarize call, got %d", sum)
	}
	if !res.Finalized || res.FinalizeErr != nil {
		t.Fatalf("last submit should report finalization: %+v", res)
	}
	final := h.get(c.ID)
	if *final.FinalScore != 72 || *final.FinalSummary != "Solid fundamentals." {
		t.Fatalf("unexpected final result %v %q", *final.FinalScore, *final.FinalSummary)
	}

	again, err := h.ctrl.Finalize(ctx, c.ID)
	if err != nil || !again.UpdatedAt.Equal(final.UpdatedAt) {
		t.Fatalf("finalize on completed session must be a no-op: %v", err)
	}
	if _, _, sum := h.oracle.counts(); sum != 1 {
		t.Fatalf("completed finalize must not call the oracle")
	}
}

func TestFinalizeFailureIsRetryable(t *testing.T) {
	h := newHarness(t, WithScoringMode(ScoringDeferred))
	c := h.ready()
	ctx := context.Background()
	h.oracle.set(func(f *fakeOracle) { f.summarizeErr = errOracleDown })

	var last SubmitResult
	for i := 0; i < candidates.QuestionCount; i++ {
		res, err := h.ctrl.SubmitAnswer(ctx, c.ID, i, "a", false)
		if err != nil {
			t.Fatalf("SubmitAnswer %d: %v", i, err)
		}
		last = res
	}
	if !errors.Is(last.FinalizeErr, oracle.ErrOracle) || last.Finalized {
		t.Fatalf("expected finalize failure to be reported, got %+v", last)
	}
	stuck := h.get(c.ID)
	if stuck.Status != candidates.StatusInProgress || stuck.FinalScore != nil || stuck.FinalSummary != nil {
		t.Fatalf("failed finalize must not complete the session: %+v", stuck)
	}
	if !stuck.Questions[candidates.QuestionCount-1].Answered() {
		t.Fatalf("last answer must survive a failed finalize")
	}
	view, _ := h.ctrl.Snapshot(ctx, c.ID)
	if view.State != StateSummarizing {
		t.Fatalf("expected summarizing, got %s", view.State)
	}

	h.oracle.set(func(f *fakeOracle) { f.summarizeErr = nil })
	final, err := h.ctrl.Finalize(ctx, c.ID)
	if err != nil || final.Status != candidates.StatusCompleted {
		t.Fatalf("retry should complete: %v", err)
	}
}

func TestHappyPathWithTimedOutLastQuestion(t *testing.T) {
	h := newHarness(t)
	c := h.ready()
	ctx := context.Background()

	for i := 0; i < candidates.QuestionCount-1; i++ {
		if _, err := h.ctrl.UpdateDraft(ctx, c.ID, i, "answer"); err != nil {
			t.Fatalf("UpdateDraft %d: %v", i, err)
		}
		h.clock.Advance(5 * time.Second)
		if _, err := h.ctrl.SubmitAnswer(ctx, c.ID, i, "answer", false); err != nil {
			t.Fatalf("SubmitAnswer %d: %v", i, err)
		}
	}

	last := candidates.QuestionCount - 1
	if _, err := h.ctrl.UpdateDraft(ctx, c.ID, last, "partial"); err != nil {
		t.Fatalf("UpdateDraft last: %v", err)
	}
	h.clock.Advance(time.Duration(h.get(c.ID).Questions[last].TimeLimit) * time.Second)

	cd := h.ctrl.Countdown(c.ID, nil)
	cd.Interval = time.Millisecond
	runCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	var ticks int
	if err := cd.Run(runCtx, func(tick timing.Tick) error { ticks++; return nil }); err != nil {
		t.Fatalf("countdown: %v", err)
	}
	if ticks < 2 {
		t.Fatalf("expected an expiry tick and a done tick, got %d", ticks)
	}

	final := h.get(c.ID)
	if final.Status != candidates.StatusCompleted || final.FinalScore == nil || final.FinalSummary == nil {
		t.Fatalf("session not completed: %+v", final)
	}
	autoCount := 0
	for i, q := range final.Questions {
		if !q.Answered() {
			t.Fatalf("question %d unanswered", i)
		}
		if *q.AutoSubmitted {
			autoCount++
		}
	}
	if autoCount != 1 || !*final.Questions[last].AutoSubmitted || *final.Questions[last].AnswerText != "partial" {
		t.Fatalf("expected only the last question auto-submitted with its draft")
	}
	if _, _, sum := h.oracle.counts(); sum != 1 {
		t.Fatalf("expected one summarize call, got %d", sum)
	}
}

func TestMissingContactRoutesToCollection(t *testing.T) {
	h := newHarness(t)
	created, err := h.ctrl.CreateCandidate(context.Background(), contact.Info{Name: ptr("Ada Lovelace"), Phone: ptr("5551234567")}, "Skills", "")
	if err != nil {
		t.Fatalf("CreateCandidate: %v", err)
	}
	if !created.NeedsContact || len(created.Missing) != 1 || created.Missing[0] != "email" {
		t.Fatalf("expected email to be missing, got %+v", created)
	}

	updated, err := h.ctrl.UpdateContact(context.Background(), created.Candidate.ID, "Ada King", "ada@example.com", "+44 20 7946 0958")
	if err != nil {
		t.Fatalf("UpdateContact: %v", err)
	}
	if *updated.Name != "Ada King" || *updated.Email != "ada@example.com" || *updated.Phone != "+44 20 7946 0958" {
		t.Fatalf("contact not applied exactly: %v %v %v", *updated.Name, *updated.Email, *updated.Phone)
	}
	view, _ := h.ctrl.Snapshot(context.Background(), created.Candidate.ID)
	if view.NeedsContact {
		t.Fatalf("contact should now be complete")
	}
}

func TestUpdateContactIgnoresBlankValues(t *testing.T) {
	h := newHarness(t)
	c := h.create(contact.Info{Name: ptr("Ada Lovelace"), Email: ptr("ada@example.com")})

	got, err := h.ctrl.UpdateContact(context.Background(), c.ID, " ", "", "5551234567")
	if err != nil {
		t.Fatalf("UpdateContact: %v", err)
	}
	if *got.Name != "Ada Lovelace" || *got.Email != "ada@example.com" || *got.Phone != "5551234567" {
		t.Fatalf("blank values must not overwrite")
	}
}

func TestUnknownCandidate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.ctrl.Snapshot(ctx, "nope"); !errors.Is(err, candidates.ErrNotFound) {
		t.Fatalf("Snapshot: %v", err)
	}
	if _, err := h.ctrl.SubmitAnswer(ctx, "nope", 0, "x", false); !errors.Is(err, candidates.ErrNotFound) {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if _, err := h.ctrl.Finalize(ctx, "nope"); !errors.Is(err, candidates.ErrNotFound) {
		t.Fatalf("Finalize: %v", err)
	}
	if _, err := h.ctrl.GenerateQuestions(ctx, "nope"); !errors.Is(err, candidates.ErrNotFound) {
		t.Fatalf("GenerateQuestions: %v", err)
	}
}

func TestGenerateRejectsSkewedTiers(t *testing.T) {
	h := newHarness(t)
	c := h.create(contact.Info{Name: ptr("Ada Lovelace"), Email: ptr("ada@example.com"), Phone: ptr("5551234567")})
	ctx := context.Background()

	allHard := make([]oracle.GeneratedQuestion, candidates.QuestionCount)
	for i := range allHard {
		allHard[i] = oracle.GeneratedQuestion{Difficulty: "hard", Text: "Design a scheduler."}
	}
	reordered := []oracle.GeneratedQuestion{
		{Difficulty: "hard", Text: "h1"}, {Difficulty: "hard", Text: "h2"},
		{Difficulty: "medium", Text: "m1"}, {Difficulty: "medium", Text: "m2"},
		{Difficulty: "easy", Text: "e1"}, {Difficulty: "easy", Text: "e2"},
	}
	for _, set := range [][]oracle.GeneratedQuestion{allHard, reordered} {
		h.oracle.set(func(f *fakeOracle) { f.generated = set })
		qs, err := h.ctrl.GenerateQuestions(ctx, c.ID)
		if !errors.Is(err, oracle.ErrMalformed) {
			t.Fatalf("expected ErrMalformed, got %v", err)
		}
		if len(qs) != 0 {
			t.Fatalf("expected no questions, got %d", len(qs))
		}
		if got := h.get(c.ID); len(got.Questions) != 0 {
			t.Fatalf("skewed set was stored: %+v", got.Questions)
		}
	}
}

func TestLastAnswerFinalizesWhenSubmitterGivesUp(t *testing.T) {
	h := newHarness(t)
	c := h.ready()
	ctx := context.Background()
	last := candidates.QuestionCount - 1
	for i := 0; i < last; i++ {
		if _, err := h.ctrl.SubmitAnswer(ctx, c.ID, i, "answer", false); err != nil {
			t.Fatalf("SubmitAnswer %d: %v", i, err)
		}
	}

	gate := make(chan struct{})
	entered := make(chan struct{}, 1)
	h.oracle.set(func(f *fakeOracle) {
		f.scoreGate = gate
		f.scoreEntered = entered
	})

	manualCtx, cancel := context.WithCancel(ctx)
	manualErr := make(chan error, 1)
	go func() {
		_, err := h.ctrl.SubmitAnswer(manualCtx, c.ID, last, "manual", false)
		manualErr <- err
	}()
	<-entered
	cancel()
	if err := <-manualErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected the manual caller to stop waiting, got %v", err)
	}

	autoDone := make(chan SubmitResult, 1)
	go func() {
		res, err := h.ctrl.AutoSubmit(ctx, c.ID, last)
		if err != nil {
			t.Errorf("auto: %v", err)
		}
		autoDone <- res
	}()
	close(gate)
	res := <-autoDone
	if res.FinalizeErr != nil {
		t.Fatalf("finalize: %v", res.FinalizeErr)
	}

	final := h.get(c.ID)
	if final.Status != candidates.StatusCompleted || final.FinalScore == nil {
		t.Fatalf("session stuck: status=%s", final.Status)
	}
	if *final.Questions[last].AnswerText != "manual" || *final.Questions[last].AutoSubmitted {
		t.Fatalf("expected the manual answer to win, got %+v", final.Questions[last])
	}
	if _, _, sum := h.oracle.counts(); sum != 1 {
		t.Fatalf("expected one summarize call, got %d", sum)
	}
}

func TestAnsweredAtIsSubmissionTime(t *testing.T) {
	h := newHarness(t)
	c := h.ready()
	ctx := context.Background()
	if _, err := h.ctrl.BeginAnswering(ctx, c.ID, 0); err != nil {
		t.Fatalf("BeginAnswering: %v", err)
	}
	h.clock.Advance(5 * time.Second)
	submittedAt := h.clock.Now()
	h.oracle.set(func(f *fakeOracle) {
		f.onScore = func() { h.clock.Advance(40 * time.Second) }
	})

	res, err := h.ctrl.SubmitAnswer(ctx, c.ID, 0, "lightweight thread", false)
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	q := res.Candidate.Questions[0]
	if !q.AnsweredAt.Equal(submittedAt) {
		t.Fatalf("answeredAt %s, want submission time %s", q.AnsweredAt, submittedAt)
	}
	if took := q.AnsweredAt.Sub(*q.StartedAt); took > time.Duration(q.TimeLimit)*time.Second {
		t.Fatalf("answer recorded after its time limit: %s", took)
	}
}
