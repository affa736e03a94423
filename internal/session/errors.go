package session

import "errors"

var (
	// ErrContactIncomplete is returned when questions are requested before
	// name, email and phone are all known.
	ErrContactIncomplete = errors.New("contact details incomplete")

	// ErrNotReady is returned by Finalize before the last question is answered.
	ErrNotReady = errors.New("session not ready to finalize")

	// ErrQuestionNotFound is returned for an index outside the question set.
	ErrQuestionNotFound = errors.New("question not found")
)
