package engine

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"testing"
	"time"
)

// roundTripperFunc adapts a function to http.RoundTripper.
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func okResponse() *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader("")),
		Header:     make(http.Header),
	}
}

// timeoutError mimics a net.Error timeout.
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"eof", io.EOF, true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"wrapped eof", &url.Error{Op: "Post", URL: "http://x", Err: io.EOF}, true},
		{"connection reset", &net.OpError{Op: "read", Err: syscall.ECONNRESET}, true},
		{"connection refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, true},
		{"broken pipe", &net.OpError{Op: "write", Err: syscall.EPIPE}, true},
		{"timeout", timeoutError{}, true},
		{"generic socket error", &net.OpError{Op: "read", Err: errors.New("weird")}, true},
		{"dns failure", &net.OpError{Op: "dial", Err: &net.DNSError{Name: "nope.invalid", Err: "no such host"}}, false},
		{"context canceled", context.Canceled, false},
		{"wrapped cancel", &url.Error{Op: "Post", URL: "http://x", Err: context.Canceled}, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryableError(tt.err); got != tt.want {
				t.Errorf("retryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func newRetryTestEngine(rt http.RoundTripper) *Engine {
	return New(Config{
		Transport:   rt,
		BackoffUnit: time.Millisecond,
	})
}

func buildTestRequest(ctx context.Context) func() (*http.Request, error) {
	return func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, "http://backend.test/", nil)
	}
}

func TestDoWithRetry_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	e := newRetryTestEngine(roundTripperFunc(func(*http.Request) (*http.Response, error) {
		attempts++
		return nil, &net.OpError{Op: "read", Err: syscall.ECONNRESET}
	}))
	defer e.Close()

	ctx := context.Background()
	_, err := e.doWithRetry(ctx, e.chat, buildTestRequest(ctx))

	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	ce, ok := AsConnectionError(err)
	if !ok {
		t.Fatalf("error = %v, want ConnectionError", err)
	}
	if ce.Attempts != 3 {
		t.Errorf("ConnectionError.Attempts = %d, want 3", ce.Attempts)
	}
	if !errors.Is(err, syscall.ECONNRESET) {
		t.Errorf("ConnectionError does not wrap the last cause: %v", err)
	}
}

func TestDoWithRetry_SucceedsAfterTwoFailures(t *testing.T) {
	attempts := 0
	e := newRetryTestEngine(roundTripperFunc(func(*http.Request) (*http.Response, error) {
		attempts++
		if attempts < 3 {
			return nil, io.EOF
		}
		return okResponse(), nil
	}))
	defer e.Close()

	ctx := context.Background()
	resp, err := e.doWithRetry(ctx, e.chat, buildTestRequest(ctx))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDoWithRetry_NonRetryableFailsImmediately(t *testing.T) {
	attempts := 0
	e := newRetryTestEngine(roundTripperFunc(func(*http.Request) (*http.Response, error) {
		attempts++
		return nil, &net.OpError{Op: "dial", Err: &net.DNSError{Name: "nope.invalid", Err: "no such host"}}
	}))
	defer e.Close()

	ctx := context.Background()
	_, err := e.doWithRetry(ctx, e.chat, buildTestRequest(ctx))

	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retry for DNS failure)", attempts)
	}
	ce, ok := AsConnectionError(err)
	if !ok {
		t.Fatalf("error = %v, want ConnectionError", err)
	}
	if ce.Attempts != 1 {
		t.Errorf("ConnectionError.Attempts = %d, want 1", ce.Attempts)
	}
}

func TestDoWithRetry_FreshRequestPerAttempt(t *testing.T) {
	var seen []*http.Request
	e := newRetryTestEngine(roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		seen = append(seen, req)
		return nil, io.EOF
	}))
	defer e.Close()

	builds := 0
	ctx := context.Background()
	_, _ = e.doWithRetry(ctx, e.chat, func() (*http.Request, error) {
		builds++
		return http.NewRequestWithContext(ctx, http.MethodGet, "http://backend.test/", nil)
	})

	if builds != 3 {
		t.Errorf("request built %d times, want 3", builds)
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] == seen[i-1] {
			t.Error("request object reused across attempts")
		}
	}
}

func TestDoWithRetry_CancellationDuringBackoff(t *testing.T) {
	e := New(Config{
		Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
			return nil, io.EOF
		}),
		// Long enough that the test would time out if the sleep were
		// not cancellable.
		BackoffUnit: time.Hour,
	})
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	done := make(chan error, 1)
	go func() {
		_, err := e.doWithRetry(ctx, e.chat, buildTestRequest(ctx))
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("cancellation did not abort the backoff sleep")
	}
}

func TestSleep_ZeroReturnsImmediately(t *testing.T) {
	if err := sleep(context.Background(), 0); err != nil {
		t.Errorf("sleep(0) = %v, want nil", err)
	}
}
