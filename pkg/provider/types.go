package provider

// Chat Completions wire types. These mirror the OpenAI Chat Completions
// API format; every OpenAI-compatible backend the engine talks to accepts
// and produces this shape.

// Message roles used by the engine.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// ChatRequest is the request body for the Chat Completions endpoint.
// The engine always streams, so Stream is serialized unconditionally.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature *float64      `json:"temperature,omitempty"`
}

// ChatMessage is a single role-tagged message.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatChunk is a single SSE chunk in a streaming response.
type ChatChunk struct {
	ID      string            `json:"id"`
	Object  string            `json:"object"`
	Model   string            `json:"model"`
	Choices []ChatChunkChoice `json:"choices"`
}

// ChatChunkChoice is one streaming choice delta.
type ChatChunkChoice struct {
	Index        int            `json:"index"`
	Delta        ChatChunkDelta `json:"delta"`
	FinishReason *string        `json:"finish_reason"`
}

// ChatChunkDelta holds the incremental content of a streaming chunk.
type ChatChunkDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// ChatErrorResponse is the error body returned by Chat Completions
// backends on non-2xx status codes.
type ChatErrorResponse struct {
	Error ChatError `json:"error"`
}

// ChatError carries the structured error detail. Code is `any` because
// backends return both string codes and numeric codes.
type ChatError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param"`
	Code    any    `json:"code"`
}

// CodeString returns the error code as a string, or "" when the code is
// absent or not a string.
func (e ChatError) CodeString() string {
	s, _ := e.Code.(string)
	return s
}

// ModelsResponse is the body of the model listing endpoint.
type ModelsResponse struct {
	Object string      `json:"object"`
	Data   []ModelData `json:"data"`
}

// ModelData is one entry of the model listing response. Backends attach
// extra fields; only the id matters here.
type ModelData struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	OwnedBy string `json:"owned_by"`
}

// ModelInfo is one selectable model as exposed to callers.
type ModelInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
