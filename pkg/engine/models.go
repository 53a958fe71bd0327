package engine

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/lingopad/lingopad/pkg/debug"
	"github.com/lingopad/lingopad/pkg/provider"
)

// ListModels queries the provider's model listing endpoint. Failure is
// never surfaced: network errors, non-2xx responses, exhausted retries
// and malformed bodies all yield an empty list, because callers use this
// for soft operations (connectivity probes, model pickers).
func (e *Engine) ListModels(ctx context.Context, cfg provider.Config) []provider.ModelInfo {
	callCtx, cancelCall := context.WithCancel(ctx)
	defer cancelCall()
	stop := context.AfterFunc(e.ctx, cancelCall)
	defer stop()

	resp, err := e.doWithRetry(callCtx, e.models, func() (*http.Request, error) {
		return newModelsHTTPRequest(callCtx, cfg)
	})
	if err != nil {
		debug.Log("engine", "model listing failed", "provider", cfg.Name, "error", err.Error())
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		debug.Log("engine", "model listing rejected", "provider", cfg.Name, "status", resp.StatusCode)
		return nil
	}

	var listing provider.ModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		debug.Log("engine", "model listing unparseable", "provider", cfg.Name, "error", err.Error())
		return nil
	}

	models := make([]provider.ModelInfo, 0, len(listing.Data))
	for _, m := range listing.Data {
		if m.ID == "" {
			continue
		}
		models = append(models, provider.ModelInfo{ID: m.ID, DisplayName: m.ID})
	}
	return models
}

// TestConnection reports whether the provider answers its model listing
// endpoint with at least one model.
func (e *Engine) TestConnection(ctx context.Context, cfg provider.Config) bool {
	return len(e.ListModels(ctx, cfg)) > 0
}
