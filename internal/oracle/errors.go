package oracle

import (
	"errors"
	"fmt"
)

var (
	// ErrOracle matches every failure coming out of this package.
	ErrOracle = errors.New("oracle unavailable")

	// ErrMalformed matches responses that could not be parsed or validated.
	ErrMalformed = errors.New("malformed oracle response")

	// ErrNotConfigured matches calls made without a configured provider.
	ErrNotConfigured = errors.New("oracle not configured")
)

// Error codes attached to *Error.
const (
	CodeTransport     = "transport"
	CodeTimeout       = "timeout"
	CodeMalformed     = "malformed"
	CodeNotConfigured = "not_configured"
)

// Error describes a failed oracle operation.
type Error struct {
	Op   string
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("oracle %s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("oracle %s: %s: %v", e.Op, e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match the package sentinels by code.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrOracle:
		return true
	case ErrMalformed:
		return e.Code == CodeMalformed
	case ErrNotConfigured:
		return e.Code == CodeNotConfigured
	}
	return false
}

// CodeOf returns the code of an oracle error, or "" for foreign errors.
func CodeOf(err error) string {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Code
	}
	return ""
}
