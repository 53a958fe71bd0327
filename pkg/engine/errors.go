package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/lingopad/lingopad/pkg/provider"
)

// ErrEngineClosed is the cause carried by a ConnectionError when a call
// fails because Close was invoked while it was in flight.
var ErrEngineClosed = errors.New("engine closed")

// ConnectionError is a transport-level failure. It is terminal for the
// call and carries the last underlying cause together with the number of
// attempts that were made.
type ConnectionError struct {
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("connection failed after %d attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// APIError is a non-2xx HTTP response that did not qualify for (or
// survived) the temperature fallback. It carries the status code and the
// raw response body so the caller can surface the backend's own message.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("api error: http %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("api error: http %d: %s", e.StatusCode, body)
}

// AsConnectionError reports whether err is (or wraps) a ConnectionError.
func AsConnectionError(err error) (*ConnectionError, bool) {
	var ce *ConnectionError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// AsAPIError reports whether err is (or wraps) an APIError.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// temperatureRejected reports whether an error response identifies the
// temperature parameter as unsupported. True only for status 400 with a
// JSON body whose error.param is "temperature" and whose code is
// "unsupported_value" or whose message mentions both "temperature" and
// "default". The caller additionally checks that the original request
// carried a temperature before acting on this.
func temperatureRejected(statusCode int, body []byte) bool {
	if statusCode != http.StatusBadRequest {
		return false
	}

	var errResp provider.ChatErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return false
	}
	if errResp.Error.Param != "temperature" {
		return false
	}
	if errResp.Error.CodeString() == "unsupported_value" {
		return true
	}

	msg := strings.ToLower(errResp.Error.Message)
	return strings.Contains(msg, "temperature") && strings.Contains(msg, "default")
}
