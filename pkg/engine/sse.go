package engine

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"github.com/lingopad/lingopad/pkg/debug"
	"github.com/lingopad/lingopad/pkg/observability"
	"github.com/lingopad/lingopad/pkg/provider"
)

// EventType classifies a streaming event delivered to the caller.
type EventType int

const (
	// EventDelta carries one incremental text fragment.
	EventDelta EventType = iota
	// EventDone terminates the sequence successfully.
	EventDone
	// EventError terminates the sequence with a stream read failure.
	EventError
)

// Event is a single entry of a call's delta sequence. The sequence is
// finite, ordered and non-restartable; it ends with exactly one EventDone
// or EventError (unless the call is cancelled, which ends it silently).
type Event struct {
	Type  EventType
	Delta string
	Err   error
}

// parseSSEStream reads SSE lines from body and emits the delta sequence
// on ch. It is a pure reader-to-event transformation with no knowledge of
// the HTTP layer, so it can be driven by synthetic chunk sequences in
// tests, including chunks that split a line or a JSON object across reads.
//
// Rules:
//   - lines without the "data: " prefix (blanks, comments, keep-alives)
//     are ignored
//   - the literal payload "[DONE]" ends the sequence successfully
//   - a payload that fails to parse, or parses without a usable
//     choices[0].delta.content, is skipped; one malformed frame never
//     aborts the stream
//   - transport close without the sentinel counts as a clean end; some
//     backends omit [DONE], so leniency is deliberate even though it
//     cannot distinguish a forgotten sentinel from truncation
//
// The channel is not closed here; the caller owns it.
func parseSSEStream(ctx context.Context, body io.Reader, ch chan<- Event) {
	scanner := bufio.NewScanner(body)
	// Single deltas are small, but some backends batch large frames.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data: "))

		if payload == "[DONE]" {
			emit(ctx, ch, Event{Type: EventDone})
			return
		}

		var chunk provider.ChatChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			slog.Warn("skipping malformed SSE frame",
				"error", err.Error(),
				"data", debug.Truncate(payload, 200),
			)
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if content := chunk.Choices[0].Delta.Content; content != "" {
			observability.StreamDeltasTotal.Inc()
			if !emit(ctx, ch, Event{Type: EventDelta, Delta: content}) {
				return
			}
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return
		}
		if err == io.ErrUnexpectedEOF {
			// Abrupt close is treated like a missing sentinel.
			emit(ctx, ch, Event{Type: EventDone})
			return
		}
		emit(ctx, ch, Event{Type: EventError, Err: &ConnectionError{Attempts: 1, Err: err}})
		return
	}

	// EOF without [DONE]: lenient clean end.
	emit(ctx, ch, Event{Type: EventDone})
}

// emit sends an event unless the call has been cancelled. No event is
// delivered after cancellation.
func emit(ctx context.Context, ch chan<- Event, ev Event) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
