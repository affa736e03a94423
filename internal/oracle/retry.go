package oracle

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"interview-backend/internal/shared/telemetry"
)

const retryBaseDelay = 300 * time.Millisecond

type retryingCompleter struct {
	base  Completer
	delay time.Duration
}

// NewRetryingCompleter retries a failed completion once when the failure
// looks transient. A nil base yields nil.
func NewRetryingCompleter(base Completer) Completer {
	if base == nil {
		return nil
	}
	if _, ok := base.(retryingCompleter); ok {
		return base
	}
	return retryingCompleter{base: base, delay: retryBaseDelay}
}

func (r retryingCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := r.base.Complete(ctx, prompt)
	if err == nil || !shouldRetry(err) || ctx.Err() != nil {
		return resp, err
	}

	telemetry.Info("oracle.retry", map[string]any{"attempt": 1, "error": err.Error()})
	select {
	case <-time.After(r.delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return r.base.Complete(ctx, prompt)
}

func shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotConfigured) || errors.Is(err, ErrMalformed) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "server_error") || strings.Contains(msg, "unavailable") {
		return true
	}
	if strings.Contains(msg, "http status 429") || strings.Contains(msg, "resource_exhausted") {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "eof") {
		return true
	}
	return false
}
