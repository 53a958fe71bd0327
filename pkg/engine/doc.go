// Package engine implements the completion engine: streaming chat
// completions and model listing against OpenAI-compatible backends.
//
// A single call runs as one sequential state machine: build the request,
// send it through the bounded connection-level retry controller, then
// either parse the SSE response into an ordered delta stream or apply the
// one-shot temperature fallback and send again. Calls share nothing but
// the engine's HTTP clients, so concurrent calls need no locking.
package engine
