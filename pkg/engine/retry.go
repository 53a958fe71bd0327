package engine

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/lingopad/lingopad/pkg/debug"
	"github.com/lingopad/lingopad/pkg/observability"
)

// doWithRetry executes one logical HTTP call with bounded retry on
// transient connectivity failure. Each attempt uses a freshly built
// request. Backoff is linear (1, 2, ... units) and cancellable; a context
// cancellation during backoff or mid-attempt aborts immediately with the
// context's error rather than a ConnectionError.
func (e *Engine) doWithRetry(ctx context.Context, client *http.Client, build func() (*http.Request, error)) (*http.Response, error) {
	maxAttempts := e.cfg.MaxAttempts

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, time.Duration(attempt-1)*e.cfg.BackoffUnit); err != nil {
				return nil, err
			}
			observability.RetriesTotal.Inc()
		}

		req, err := build()
		if err != nil {
			// A request that cannot even be constructed is a programming
			// error, never transient.
			return nil, &ConnectionError{Attempts: attempt, Err: err}
		}

		resp, err := client.Do(req)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !retryableError(err) {
			return nil, &ConnectionError{Attempts: attempt, Err: err}
		}

		lastErr = err
		debug.Log("retry", "transient connection failure",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"error", err.Error(),
		)
	}

	return nil, &ConnectionError{Attempts: maxAttempts, Err: lastErr}
}

// retryableError classifies a transport error as presumed-transient.
// Retryable: timeouts, TLS handshake failures, abrupt connection
// termination, connection reset and other socket-level errors. DNS
// resolution failures are deliberately not matched.
func retryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// DNS failures sit inside *net.OpError, so rule them out first.
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return true
	}

	// Remaining socket-level failures (dial, read, write).
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// sleep waits for d or until the context is cancelled, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
