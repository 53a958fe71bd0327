package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/lingopad/lingopad/pkg/debug"
	"github.com/lingopad/lingopad/pkg/observability"
	"github.com/lingopad/lingopad/pkg/provider"
)

// Error bodies are read fully but never unboundedly.
const maxErrorBodySize = 64 * 1024

// Config holds engine tuning. The zero value is usable; defaults match
// the reference behavior (3 attempts, 60s chat / 15s models timeouts,
// 1s linear backoff unit).
type Config struct {
	// MaxAttempts bounds connection-level attempts per logical send.
	MaxAttempts int

	// ChatTimeout bounds each chat attempt up to response headers via
	// the default transport's ResponseHeaderTimeout. The stream body
	// itself is governed by the caller's context, since a legitimate
	// stream can outlive any fixed limit.
	ChatTimeout time.Duration

	// ModelsTimeout bounds each model-list attempt end to end.
	ModelsTimeout time.Duration

	// BackoffUnit is the linear backoff unit between attempts.
	BackoffUnit time.Duration

	// TemperaturePolicy decides whether an explicit temperature is sent
	// for a model/host combination. Nil selects the default policy.
	TemperaturePolicy provider.TemperaturePolicy

	// Transport overrides the HTTP transport for both clients. Nil uses
	// a clone of http.DefaultTransport. A supplied transport is used as
	// is: ChatTimeout is not applied to it, so the caller owns any
	// per-attempt header timeout.
	Transport http.RoundTripper
}

// CompletionParams is one streaming chat completion call. The prompts
// arrive pre-rendered; the engine does not know about modes or templates.
type CompletionParams struct {
	SystemPrompt string
	UserPrompt   string

	// Model overrides the provider's default model when non-empty.
	Model string

	// Temperature is the requested sampling temperature. Nil omits the
	// field; a non-nil value is still subject to the temperature policy.
	Temperature *float64
}

// Engine performs streaming chat completions and model listing against
// OpenAI-compatible backends. An Engine owns its HTTP clients and is safe
// for concurrent use; each call keeps its own request, retry counter and
// stream. Close releases the clients and fails in-flight calls cleanly.
type Engine struct {
	cfg    Config
	chat   *http.Client
	models *http.Client

	// ctx is cancelled by Close so in-flight calls abort.
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates an Engine with defaults applied.
func New(cfg Config) *Engine {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.ChatTimeout <= 0 {
		cfg.ChatTimeout = 60 * time.Second
	}
	if cfg.ModelsTimeout <= 0 {
		cfg.ModelsTimeout = 15 * time.Second
	}
	if cfg.BackoffUnit <= 0 {
		cfg.BackoffUnit = time.Second
	}
	if cfg.TemperaturePolicy == nil {
		cfg.TemperaturePolicy = provider.DefaultTemperaturePolicy
	}

	chatTransport := cfg.Transport
	modelsTransport := cfg.Transport
	if chatTransport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.ResponseHeaderTimeout = cfg.ChatTimeout
		chatTransport = t
		modelsTransport = http.DefaultTransport
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		cfg: cfg,
		// No overall timeout on the chat client: streams may run long.
		// The transport's response-header timeout bounds each attempt.
		chat:   &http.Client{Transport: chatTransport},
		models: &http.Client{Transport: modelsTransport, Timeout: cfg.ModelsTimeout},
		ctx:    ctx,
		cancel: cancel,
	}
}

// Close releases engine resources. Idempotent; in-flight calls fail with
// a ConnectionError wrapping ErrEngineClosed.
func (e *Engine) Close() error {
	e.cancel()
	e.chat.CloseIdleConnections()
	e.models.CloseIdleConnections()
	return nil
}

// StreamCompletion runs one streaming chat completion call. On success it
// returns a channel carrying the ordered delta sequence; the channel is
// closed after the terminal event. Errors that occur before any delta can
// be produced (exhausted retries, non-2xx responses) are returned
// synchronously. Cancelling ctx aborts the call at any point, including
// backoff sleeps and mid-stream, and surfaces as the context's error.
func (e *Engine) StreamCompletion(ctx context.Context, cfg provider.Config, p CompletionParams) (<-chan Event, error) {
	model := p.Model
	if model == "" {
		model = cfg.DefaultModel
	}
	if model == "" {
		return nil, &APIError{StatusCode: 0, Body: "no model selected and provider has no default"}
	}

	// Building: apply the temperature policy up front.
	temperature := p.Temperature
	if temperature != nil && !e.cfg.TemperaturePolicy(cfg.BaseURL, model) {
		debug.Log("engine", "temperature dropped by policy", "model", model)
		temperature = nil
	}
	req := buildChatRequest(model, p.SystemPrompt, p.UserPrompt, temperature)

	// The call context ends when the caller cancels or the engine closes.
	callCtx, cancelCall := context.WithCancel(ctx)
	stop := context.AfterFunc(e.ctx, cancelCall)

	cleanup := func() {
		stop()
		cancelCall()
	}

	start := time.Now()
	resp, err := e.sendChat(callCtx, cfg, req)

	// A non-200 response triggers at most one second shape attempt, and
	// only for a temperature rejection on a request that carried one.
	if err == nil && resp.StatusCode != http.StatusOK {
		body := readErrorBody(resp)
		status := resp.StatusCode
		if req.Temperature != nil && temperatureRejected(status, body) {
			debug.Log("engine", "temperature rejected by backend, retrying without it",
				"provider", cfg.Name, "model", model)
			observability.TemperatureFallbacksTotal.Inc()
			req.Temperature = nil
			resp, err = e.sendChat(callCtx, cfg, req)
			if err == nil && resp.StatusCode != http.StatusOK {
				body = readErrorBody(resp)
				status = resp.StatusCode
				cleanup()
				e.observeRequest(cfg, model, status, start)
				return nil, &APIError{StatusCode: status, Body: string(body)}
			}
		} else {
			cleanup()
			e.observeRequest(cfg, model, status, start)
			return nil, &APIError{StatusCode: status, Body: string(body)}
		}
	}
	if err != nil {
		cleanup()
		e.observeRequest(cfg, model, 0, start)
		return nil, e.normalizeSendError(ctx, err)
	}

	// Streaming: hand the body to the SSE parser and re-emit its
	// sequence as this call's output.
	e.observeRequest(cfg, model, resp.StatusCode, start)
	observability.ActiveStreams.Inc()

	ch := make(chan Event, 16)
	go func() {
		defer cleanup()
		defer close(ch)
		defer observability.ActiveStreams.Dec()
		defer resp.Body.Close()
		parseSSEStream(callCtx, resp.Body, ch)
		// Caller cancellation ends the sequence silently, but engine
		// shutdown must fail the call like any other lost connection.
		if e.ctx.Err() != nil && ctx.Err() == nil {
			ch <- Event{Type: EventError, Err: &ConnectionError{Attempts: 1, Err: ErrEngineClosed}}
		}
	}()
	return ch, nil
}

// sendChat marshals the request and sends it with its own fresh
// connection-retry budget.
func (e *Engine) sendChat(ctx context.Context, cfg provider.Config, req provider.ChatRequest) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}
	return e.doWithRetry(ctx, e.chat, func() (*http.Request, error) {
		return newChatHTTPRequest(ctx, cfg, body)
	})
}

// normalizeSendError distinguishes caller cancellation (not an error
// taxonomy member) from engine shutdown (a ConnectionError).
func (e *Engine) normalizeSendError(callerCtx context.Context, err error) error {
	if callerCtx.Err() != nil {
		return callerCtx.Err()
	}
	if e.ctx.Err() != nil {
		return &ConnectionError{Attempts: 1, Err: ErrEngineClosed}
	}
	return err
}

// observeRequest records one backend request outcome.
func (e *Engine) observeRequest(cfg provider.Config, model string, status int, start time.Time) {
	label := "network_error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	observability.ProviderRequestsTotal.WithLabelValues(cfg.Name, model, label).Inc()
	observability.ProviderLatency.WithLabelValues(cfg.Name, model).Observe(time.Since(start).Seconds())
}

// readErrorBody drains a bounded amount of an error response body and
// closes it.
func readErrorBody(resp *http.Response) []byte {
	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	return data
}
