// Command mock-backend runs a deterministic OpenAI-compatible server for
// exercising the completion engine by hand: SSE chat completions, a model
// listing, simulated temperature rejection, and a flaky mode that drops
// early connections so the retry path can be watched end to end.
//
// Configuration:
//
//	MOCK_PORT         - Listen port (default: 9090)
//	MOCK_STRICT_MODEL - Model that rejects explicit temperature (default: "strict-model")
//	MOCK_FLAKY        - Drop the first N chat connections (default: 0)
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/lingopad/lingopad/pkg/provider"
)

func main() {
	port := envOrDefault("MOCK_PORT", "9090")
	strictModel := envOrDefault("MOCK_STRICT_MODEL", "strict-model")
	flaky, err := strconv.Atoi(envOrDefault("MOCK_FLAKY", "0"))
	if err != nil {
		slog.Error("invalid MOCK_FLAKY", "error", err)
		os.Exit(1)
	}

	backend := &mockBackend{strictModel: strictModel, flakyBudget: int32(flaky)}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", backend.handleChat)
	mux.HandleFunc("GET /v1/models", backend.handleModels)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	srv := &http.Server{Addr: ":" + port, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock backend starting", "port", port, "strict_model", strictModel, "flaky", flaky)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock backend failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock backend shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

type mockBackend struct {
	strictModel string
	flakyBudget int32
}

func (b *mockBackend) handleChat(w http.ResponseWriter, r *http.Request) {
	if n := atomic.AddInt32(&b.flakyBudget, -1); n >= 0 {
		slog.Info("dropping connection", "remaining", n)
		conn, _, err := w.(http.Hijacker).Hijack()
		if err != nil {
			http.Error(w, "hijack unsupported", http.StatusInternalServerError)
			return
		}
		conn.Close()
		return
	}

	var req provider.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, provider.ChatError{
			Message: "invalid request body",
			Type:    "invalid_request_error",
		})
		return
	}

	model := req.Model
	if model == "" {
		model = "mock-model"
	}

	if req.Temperature != nil && model == b.strictModel {
		writeError(w, http.StatusBadRequest, provider.ChatError{
			Message: fmt.Sprintf("temperature does not support %v with this model. Only the default (1) value is supported.", *req.Temperature),
			Type:    "invalid_request_error",
			Param:   "temperature",
			Code:    "unsupported_value",
		})
		return
	}

	if !req.Stream {
		writeError(w, http.StatusBadRequest, provider.ChatError{
			Message: "this mock only serves streaming requests",
			Type:    "invalid_request_error",
			Param:   "stream",
		})
		return
	}

	b.streamReply(w, model, replyTokens(req))
}

// replyTokens echoes the user prompt back token by token, so the output
// makes the request visibly round-trip.
func replyTokens(req provider.ChatRequest) []string {
	var user string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == provider.RoleUser {
			user = req.Messages[i].Content
			break
		}
	}
	if user == "" {
		return []string{"Hello", ", ", "nice", " ", "day", "!"}
	}
	words := strings.Fields(user)
	tokens := make([]string, 0, 2*len(words))
	for i, word := range words {
		if i > 0 {
			tokens = append(tokens, " ")
		}
		tokens = append(tokens, word)
	}
	return tokens
}

func (b *mockBackend) streamReply(w http.ResponseWriter, model string, tokens []string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	writeChunk(w, model, "", true)
	flusher.Flush()

	for _, token := range tokens {
		writeChunk(w, model, token, false)
		flusher.Flush()
	}

	writeFinishChunk(w, model)
	fmt.Fprintf(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func writeChunk(w http.ResponseWriter, model, content string, isRole bool) {
	delta := map[string]any{}
	if isRole {
		delta["role"] = "assistant"
	}
	if content != "" {
		delta["content"] = content
	}

	chunk := map[string]any{
		"id":     "chatcmpl-mock-stream",
		"object": "chat.completion.chunk",
		"model":  model,
		"choices": []any{
			map[string]any{"index": 0, "delta": delta, "finish_reason": nil},
		},
	}

	data, _ := json.Marshal(chunk)
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func writeFinishChunk(w http.ResponseWriter, model string) {
	chunk := map[string]any{
		"id":     "chatcmpl-mock-stream",
		"object": "chat.completion.chunk",
		"model":  model,
		"choices": []any{
			map[string]any{"index": 0, "delta": map[string]any{}, "finish_reason": "stop"},
		},
	}

	data, _ := json.Marshal(chunk)
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func writeError(w http.ResponseWriter, status int, chatErr provider.ChatError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(provider.ChatErrorResponse{Error: chatErr})
}

func (b *mockBackend) handleModels(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"object": "list",
		"data": []map[string]any{
			{"id": "mock-model", "object": "model", "owned_by": "lingopad-mock"},
			{"id": b.strictModel, "object": "model", "owned_by": "lingopad-mock"},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
