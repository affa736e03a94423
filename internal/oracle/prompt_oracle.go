package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"interview-backend/internal/candidates"
	"interview-backend/internal/shared/metrics"
	"interview-backend/internal/shared/telemetry"
)

// DefaultTimeout bounds a single oracle operation when none is configured.
const DefaultTimeout = 45 * time.Second

const (
	opGenerate  = "generate"
	opScore     = "score"
	opSummarize = "summarize"
)

// PromptOracle implements Oracle on top of a prompt-completion model.
type PromptOracle struct {
	LLM     Completer
	Timeout time.Duration
}

// NewPromptOracle wraps llm with the transport retry policy.
func NewPromptOracle(llm Completer, timeout time.Duration) *PromptOracle {
	return &PromptOracle{LLM: NewRetryingCompleter(llm), Timeout: timeout}
}

// GenerateQuestions asks the model for a fresh six-question set.
func (o *PromptOracle) GenerateQuestions(ctx context.Context) ([]GeneratedQuestion, error) {
	raw, err := o.complete(ctx, opGenerate, GenerateQuestionsPrompt())
	if err != nil {
		return []GeneratedQuestion{}, err
	}
	qs, err := ParseQuestions(raw)
	if err != nil {
		o.record(opGenerate, CodeMalformed, 0)
		telemetry.Error("oracle.malformed", map[string]any{"op": opGenerate, "error": err.Error(), "raw_len": len(raw)})
		return []GeneratedQuestion{}, &Error{Op: opGenerate, Code: CodeMalformed, Err: err}
	}
	return qs, nil
}

// ScoreAnswer grades one answer. On failure it returns FallbackScore with the error.
func (o *PromptOracle) ScoreAnswer(ctx context.Context, question, answer string, difficulty candidates.Difficulty) (Score, error) {
	prompt, err := ScoreAnswerPrompt(question, answer, difficulty)
	if err != nil {
		return FallbackScore, &Error{Op: opScore, Code: CodeMalformed, Err: err}
	}
	raw, err := o.complete(ctx, opScore, prompt)
	if err != nil {
		return FallbackScore, err
	}
	s, err := ParseScore(raw)
	if err != nil {
		o.record(opScore, CodeMalformed, 0)
		telemetry.Error("oracle.malformed", map[string]any{"op": opScore, "error": err.Error(), "raw_len": len(raw)})
		return FallbackScore, &Error{Op: opScore, Code: CodeMalformed, Err: err}
	}
	if s.Feedback == "" {
		s.Feedback = FallbackScore.Feedback
	}
	return s, nil
}

// SummarizeInterview produces the final score and summary. On failure it
// returns FallbackSummary with the error; callers decide whether to use it.
func (o *PromptOracle) SummarizeInterview(ctx context.Context, transcript []TranscriptEntry) (Summary, error) {
	prompt, err := SummarizeInterviewPrompt(transcript)
	if err != nil {
		return FallbackSummary, &Error{Op: opSummarize, Code: CodeMalformed, Err: err}
	}
	raw, err := o.complete(ctx, opSummarize, prompt)
	if err != nil {
		return FallbackSummary, err
	}
	s, err := ParseSummary(raw)
	if err != nil {
		o.record(opSummarize, CodeMalformed, 0)
		telemetry.Error("oracle.malformed", map[string]any{"op": opSummarize, "error": err.Error(), "raw_len": len(raw)})
		return FallbackSummary, &Error{Op: opSummarize, Code: CodeMalformed, Err: err}
	}
	return s, nil
}

func (o *PromptOracle) complete(ctx context.Context, op, prompt string) (string, error) {
	if o.LLM == nil {
		return "", &Error{Op: op, Code: CodeNotConfigured, Err: ErrNotConfigured}
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	raw, err := o.LLM.Complete(callCtx, prompt)
	elapsed := time.Since(start)
	if err != nil {
		code := classify(err)
		o.record(op, code, elapsed)
		telemetry.Error("oracle.call.failed", map[string]any{
			"op":          op,
			"code":        code,
			"error":       err.Error(),
			"duration_ms": float64(elapsed.Microseconds()) / 1000.0,
		})
		var oe *Error
		if errors.As(err, &oe) {
			return "", err
		}
		return "", &Error{Op: op, Code: code, Err: err}
	}
	o.record(op, "ok", elapsed)
	return raw, nil
}

func (o *PromptOracle) record(op, outcome string, elapsed time.Duration) {
	metrics.ObserveOracleCall(op, outcome, elapsed)
}

func classify(err error) string {
	if errors.Is(err, ErrNotConfigured) {
		return CodeNotConfigured
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	if code := CodeOf(err); code != "" {
		return code
	}
	return CodeTransport
}

// PlaceholderCompleter is used when no provider is configured.
type PlaceholderCompleter struct{}

// Complete always fails with ErrNotConfigured.
func (PlaceholderCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	_ = prompt
	return "", fmt.Errorf("complete: %w", ErrNotConfigured)
}

var _ Oracle = (*PromptOracle)(nil)
