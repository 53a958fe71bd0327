// Command lingopad streams chat completions for translation-style tasks
// against an OpenAI-compatible backend.
//
// Text is taken from the remaining arguments, or from stdin when no
// arguments are given:
//
//	lingopad --to German "good morning"
//	cat notes.txt | lingopad --mode polish
//
// Providers come from the lingopad config file (see pkg/config); a .env
// file in the working directory is loaded first, so OPENAI-style keys can
// live there during development.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/lingopad/lingopad/pkg/config"
	"github.com/lingopad/lingopad/pkg/debug"
	"github.com/lingopad/lingopad/pkg/engine"
	"github.com/lingopad/lingopad/pkg/prompt"
	"github.com/lingopad/lingopad/pkg/provider"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		slog.Error("lingopad failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	flags := flag.NewFlagSet("lingopad", flag.ContinueOnError)
	configPath := flags.String("config", "", "config file path (default: discovered)")
	providerName := flags.String("provider", "", "provider name from config (default: active provider)")
	modeName := flags.String("mode", "translate", "task mode: translate, explain, polish, explain-in-context")
	fromLang := flags.String("from", "", "source language (default: auto-detect)")
	toLang := flags.String("to", "", "target language (default: from config)")
	modelID := flags.String("model", "", "model id (default: provider default)")
	temperature := flags.Float64("temperature", 0, "sampling temperature")
	surrounding := flags.String("context", "", "surrounding text for explain-in-context")
	listModels := flags.Bool("list-models", false, "list the provider's models and exit")
	testConn := flags.Bool("test", false, "test provider connectivity and exit")
	render := flags.Bool("render", false, "render the result as markdown after streaming")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	// Local development secrets, lowest precedence.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	debug.Init(cfg.Debug.Categories, cfg.Debug.Level)

	prov, err := selectProvider(cfg, *providerName)
	if err != nil {
		return err
	}

	eng := engine.New(engine.Config{
		MaxAttempts:   cfg.Engine.MaxAttempts,
		ChatTimeout:   cfg.Engine.ChatTimeout,
		ModelsTimeout: cfg.Engine.ModelsTimeout,
	})
	defer eng.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *testConn:
		return runTest(ctx, eng, prov)
	case *listModels:
		return runListModels(ctx, eng, prov)
	}

	mode, err := prompt.ParseMode(*modeName)
	if err != nil {
		return err
	}

	text, err := inputText(flags.Args())
	if err != nil {
		return err
	}

	data := prompt.Data{
		Text:       text,
		SourceLang: firstNonEmpty(*fromLang, cfg.Translation.SourceLang),
		TargetLang: firstNonEmpty(*toLang, cfg.Translation.TargetLang),
		Context:    *surrounding,
	}
	system, user, err := prompt.NewRenderer().Render(mode, data)
	if err != nil {
		return fmt.Errorf("rendering prompt: %w", err)
	}

	params := engine.CompletionParams{
		SystemPrompt: system,
		UserPrompt:   user,
		Model:        *modelID,
	}
	if flags.Changed("temperature") {
		t := *temperature
		params.Temperature = &t
	}

	return runCompletion(ctx, eng, prov, params, *render)
}

func runCompletion(ctx context.Context, eng *engine.Engine, prov provider.Config, params engine.CompletionParams, render bool) error {
	events, err := eng.StreamCompletion(ctx, prov, params)
	if err != nil {
		return describeEngineError(err)
	}

	var full strings.Builder
	for ev := range events {
		switch ev.Type {
		case engine.EventDelta:
			full.WriteString(ev.Delta)
			if !render {
				fmt.Print(ev.Delta)
			}
		case engine.EventError:
			return describeEngineError(ev.Err)
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if render {
		return renderMarkdown(full.String())
	}
	if !strings.HasSuffix(full.String(), "\n") {
		fmt.Println()
	}
	return nil
}

func renderMarkdown(text string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	out, err := r.Render(text)
	if err != nil {
		return fmt.Errorf("rendering markdown: %w", err)
	}
	fmt.Print(out)
	return nil
}

func runListModels(ctx context.Context, eng *engine.Engine, prov provider.Config) error {
	models := eng.ListModels(ctx, prov)
	if len(models) == 0 {
		fmt.Printf("no models available from %s\n", prov.Name)
		return nil
	}
	for _, m := range models {
		fmt.Println(m.ID)
	}
	return nil
}

func runTest(ctx context.Context, eng *engine.Engine, prov provider.Config) error {
	if eng.TestConnection(ctx, prov) {
		fmt.Printf("%s: ok\n", prov.Name)
		return nil
	}
	return fmt.Errorf("%s: no models reachable at %s", prov.Name, prov.BaseURL)
}

func selectProvider(cfg *config.Config, name string) (provider.Config, error) {
	if name != "" {
		for _, p := range cfg.Providers {
			if p.Name == name {
				return p.Config, nil
			}
		}
		return provider.Config{}, fmt.Errorf("provider %q not found in config", name)
	}
	p, ok := cfg.Active()
	if !ok {
		return provider.Config{}, fmt.Errorf("no provider configured")
	}
	return p.Config, nil
}

// inputText joins the remaining arguments, falling back to stdin.
func inputText(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("no input text (pass it as arguments or on stdin)")
	}
	return text, nil
}

// describeEngineError turns typed engine errors into user-facing messages.
func describeEngineError(err error) error {
	if ce, ok := engine.AsConnectionError(err); ok {
		return fmt.Errorf("could not reach the provider after %d attempts: %w", ce.Attempts, ce.Err)
	}
	if ae, ok := engine.AsAPIError(err); ok {
		return fmt.Errorf("provider rejected the request (HTTP %d): %s", ae.StatusCode, strings.TrimSpace(ae.Body))
	}
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
