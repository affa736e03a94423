package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"interview-backend/internal/candidates"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// StripCodeFence removes markdown fences models add around JSON despite instructions.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		lang := strings.TrimSpace(text[:nl])
		if lang == "" || (!strings.ContainsAny(lang, " {[") && len(lang) < 20) {
			text = text[nl+1:]
		}
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	if end := strings.LastIndex(text, "```"); end >= 0 {
		text = text[:end]
	}
	return strings.TrimSpace(text)
}

// ParseQuestions decodes and validates a generated question set. The result is
// grouped easy, medium, hard, keeping the model's order within each tier.
func ParseQuestions(raw string) ([]GeneratedQuestion, error) {
	body := StripCodeFence(raw)
	var items []GeneratedQuestion
	if err := json.Unmarshal([]byte(body), &items); err != nil {
		var wrapped struct {
			Questions []GeneratedQuestion `json:"questions"`
		}
		if wrapErr := json.Unmarshal([]byte(body), &wrapped); wrapErr != nil || wrapped.Questions == nil {
			return nil, fmt.Errorf("decode questions: %w", err)
		}
		items = wrapped.Questions
	}

	byTier := make(map[candidates.Difficulty][]GeneratedQuestion, 3)
	for i := range items {
		items[i].Text = strings.TrimSpace(items[i].Text)
		items[i].Difficulty = strings.ToLower(strings.TrimSpace(items[i].Difficulty))
		if err := validate.Struct(items[i]); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		d, _ := candidates.ParseDifficulty(items[i].Difficulty)
		byTier[d] = append(byTier[d], items[i])
	}

	out := make([]GeneratedQuestion, 0, candidates.QuestionCount)
	for _, d := range candidates.Difficulties() {
		if n := len(byTier[d]); n != candidates.PerDifficulty {
			return nil, fmt.Errorf("expected %d %s questions, got %d", candidates.PerDifficulty, d, n)
		}
		out = append(out, byTier[d]...)
	}
	return out, nil
}

// ParseScore decodes and validates a per-answer score.
func ParseScore(raw string) (Score, error) {
	var s Score
	if err := decodeStrict(raw, &s); err != nil {
		return Score{}, fmt.Errorf("decode score: %w", err)
	}
	s.Feedback = strings.TrimSpace(s.Feedback)
	if err := validate.Struct(s); err != nil {
		return Score{}, fmt.Errorf("score: %w", err)
	}
	return s, nil
}

// ParseSummary decodes and validates the interview summary.
func ParseSummary(raw string) (Summary, error) {
	var s Summary
	if err := decodeStrict(raw, &s); err != nil {
		return Summary{}, fmt.Errorf("decode summary: %w", err)
	}
	s.Summary = strings.TrimSpace(s.Summary)
	if err := validate.Struct(s); err != nil {
		return Summary{}, fmt.Errorf("summary: %w", err)
	}
	return s, nil
}

func decodeStrict(raw string, dst any) error {
	body := StripCodeFence(raw)
	if body == "" {
		return errors.New("empty response")
	}
	return json.Unmarshal([]byte(body), dst)
}
