package oracle

import (
	"context"

	"interview-backend/internal/candidates"
)

// Oracle is the external question-generation, scoring and summarization service.
// Implementations must treat the backing model as unreliable.
type Oracle interface {
	GenerateQuestions(ctx context.Context) ([]GeneratedQuestion, error)
	ScoreAnswer(ctx context.Context, question, answer string, difficulty candidates.Difficulty) (Score, error)
	SummarizeInterview(ctx context.Context, transcript []TranscriptEntry) (Summary, error)
}

// Completer sends one prompt to a model and returns its raw text reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// GeneratedQuestion is one item of the oracle's question set.
type GeneratedQuestion struct {
	Difficulty string `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Text       string `json:"text" validate:"required"`
}

// Score is the oracle's judgement of one answer.
type Score struct {
	Score    float64 `json:"score" validate:"gte=0,lte=10"`
	Feedback string  `json:"feedback"`
}

// TranscriptEntry is one question/answer pair sent for summarization.
type TranscriptEntry struct {
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Score    float64 `json:"score"`
}

// Summary is the oracle's overall verdict for a session.
type Summary struct {
	FinalScore float64 `json:"finalScore" validate:"gte=0,lte=100"`
	Summary    string  `json:"summary" validate:"required"`
}

// FallbackScore is the degraded value used when scoring fails.
var FallbackScore = Score{Score: 0, Feedback: "Could not evaluate."}

// FallbackSummary is the degraded value returned alongside summarize errors.
var FallbackSummary = Summary{FinalScore: 0, Summary: "Summary not available."}
