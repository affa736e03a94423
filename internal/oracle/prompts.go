package oracle

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"text/template"

	"interview-backend/internal/candidates"
)

var (
	//go:embed prompts/generate_questions.txt
	generateQuestionsPrompt string
	//go:embed prompts/score_answer.txt
	scoreAnswerPrompt string
	//go:embed prompts/summarize_interview.txt
	summarizeInterviewPrompt string

	scoreAnswerTmpl        = template.Must(template.New("score").Parse(scoreAnswerPrompt))
	summarizeInterviewTmpl = template.Must(template.New("summarize").Parse(summarizeInterviewPrompt))
)

// GenerateQuestionsPrompt returns the context-free question generation prompt.
func GenerateQuestionsPrompt() string {
	return generateQuestionsPrompt
}

// ScoreAnswerPrompt renders the per-answer grading prompt.
func ScoreAnswerPrompt(question, answer string, difficulty candidates.Difficulty) (string, error) {
	var buf bytes.Buffer
	err := scoreAnswerTmpl.Execute(&buf, map[string]string{
		"Question":   question,
		"Answer":     answer,
		"Difficulty": string(difficulty),
	})
	if err != nil {
		return "", fmt.Errorf("render score prompt: %w", err)
	}
	return buf.String(), nil
}

// SummarizeInterviewPrompt renders the final summary prompt for a transcript.
func SummarizeInterviewPrompt(transcript []TranscriptEntry) (string, error) {
	if transcript == nil {
		transcript = []TranscriptEntry{}
	}
	payload, err := json.Marshal(transcript)
	if err != nil {
		return "", fmt.Errorf("encode transcript: %w", err)
	}
	var buf bytes.Buffer
	if err := summarizeInterviewTmpl.Execute(&buf, map[string]string{"Transcript": string(payload)}); err != nil {
		return "", fmt.Errorf("render summarize prompt: %w", err)
	}
	return buf.String(), nil
}
