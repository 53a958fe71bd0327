package integration

import (
	"context"
	"strings"
	"testing"

	"github.com/lingopad/lingopad/pkg/engine"
	"github.com/lingopad/lingopad/pkg/prompt"
)

func TestTranslatePipeline(t *testing.T) {
	system, user, err := prompt.NewRenderer().Render(prompt.ModeTranslate, prompt.Data{
		Text:       "Guten Morgen",
		TargetLang: "English",
	})
	if err != nil {
		t.Fatalf("rendering prompt: %v", err)
	}

	e := newEngine(t)
	ch, err := e.StreamCompletion(context.Background(), testEnv.Provider(), engine.CompletionParams{
		SystemPrompt: system,
		UserPrompt:   user,
	})
	if err != nil {
		t.Fatalf("StreamCompletion: %v", err)
	}

	// The mock echoes the user prompt, which embeds the source text.
	text := collectText(t, ch)
	if !strings.Contains(text, "Guten Morgen") {
		t.Errorf("streamed text = %q, want it to carry the source text", text)
	}
}

func TestTemperatureFallbackPipeline(t *testing.T) {
	temp := 0.2
	e := newEngine(t)
	ch, err := e.StreamCompletion(context.Background(), testEnv.Provider(), engine.CompletionParams{
		SystemPrompt: "echo",
		UserPrompt:   "fallback works",
		Model:        "strict-model",
		Temperature:  &temp,
	})
	if err != nil {
		t.Fatalf("StreamCompletion: %v", err)
	}

	if text := collectText(t, ch); text != "fallback works" {
		t.Errorf("streamed text = %q, want %q", text, "fallback works")
	}
}

func TestRetryPipeline(t *testing.T) {
	testEnv.DropNextConnections(2)
	t.Cleanup(func() { testEnv.DropNextConnections(0) })

	e := newEngine(t)
	ch, err := e.StreamCompletion(context.Background(), testEnv.Provider(), engine.CompletionParams{
		SystemPrompt: "echo",
		UserPrompt:   "made it",
	})
	if err != nil {
		t.Fatalf("StreamCompletion after flaky start: %v", err)
	}

	if text := collectText(t, ch); text != "made it" {
		t.Errorf("streamed text = %q, want %q", text, "made it")
	}
}

func TestModelListingPipeline(t *testing.T) {
	e := newEngine(t)
	models := e.ListModels(context.Background(), testEnv.Provider())

	ids := make([]string, len(models))
	for i, m := range models {
		ids[i] = m.ID
	}
	if len(ids) != 2 || ids[0] != "mock-model" || ids[1] != "strict-model" {
		t.Errorf("models = %v, want [mock-model strict-model]", ids)
	}

	if !e.TestConnection(context.Background(), testEnv.Provider()) {
		t.Error("TestConnection = false against a healthy backend")
	}
}
