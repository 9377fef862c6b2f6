package lexmachina

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/lexmachina/suggested-searches-agent/internal/metrics"
)

// Agent processes natural-language queries against the Lex Machina API:
// one suggested-searches request, then one concurrent description fetch per
// returned suggestion.
type Agent struct {
	client  *Client
	log     *slog.Logger
	metrics *metrics.Recorder
}

// NewAgent wraps an authenticated client. rec may be nil.
func NewAgent(client *Client, log *slog.Logger, rec *metrics.Recorder) *Agent {
	if log == nil {
		log = slog.Default()
	}
	return &Agent{client: client, log: log, metrics: rec}
}

// Close releases the underlying client.
func (a *Agent) Close() {
	a.client.Close()
}

// ProcessQuery fetches suggested searches for query and enriches each
// suggestion with its description, fetched concurrently.
//
// Expected upstream failure modes never surface as errors here: a stage-1
// HTTP status error or an empty suggestion list yields
// {"error": "Failed to get initial suggestions.", "details": ...}, and a
// per-suggestion status error becomes that suggestion's enriched_description.
// Only unexpected transport failures return a non-nil error, which is fatal
// for the request.
//
// The returned map is the stage-1 response envelope with its suggestions
// mutated in place; any extra upstream metadata fields are preserved.
func (a *Agent) ProcessQuery(ctx context.Context, query string) (map[string]any, error) {
	start := time.Now()

	envelope, err := a.client.GetSuggestedSearches(ctx, query)
	if err != nil {
		a.metrics.ObserveQuery(metrics.StatusTransportError, time.Since(start))
		return nil, err
	}

	suggestions := resultList(envelope)
	if _, hasErr := envelope["error"]; hasErr || len(suggestions) == 0 {
		// An empty result list gates the same as an explicit upstream error:
		// there is nothing to enrich, and an empty success would hide that no
		// suggestions were found.
		a.log.Error("failed to get initial suggestions", "query", query)
		a.metrics.ObserveQuery(metrics.StatusNoSuggestions, time.Since(start))
		return map[string]any{
			"error":   "Failed to get initial suggestions.",
			"details": envelope,
		}, nil
	}

	descriptions, err := a.enrichAll(ctx, suggestions)
	if err != nil {
		a.metrics.ObserveQuery(metrics.StatusTransportError, time.Since(start))
		return nil, err
	}

	for i, suggestion := range suggestions {
		suggestion["enriched_description"] = descriptions[i]
	}

	a.log.Debug("query processing complete", "query", query, "suggestions", len(suggestions))
	a.metrics.ObserveQuery(metrics.StatusOK, time.Since(start))
	return envelope, nil
}

// enrichAll fetches all suggestion descriptions concurrently and returns them
// in suggestion order: descriptions[i] belongs to suggestions[i] regardless of
// completion order. The first unexpected transport failure cancels the
// remaining fetches as a set and is returned.
func (a *Agent) enrichAll(ctx context.Context, suggestions []map[string]any) ([]map[string]any, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	descriptions := make([]map[string]any, len(suggestions))

	var wg sync.WaitGroup

	var mu sync.Mutex
	var firstErr error
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	a.log.Debug("fetching descriptions in parallel", "count", len(suggestions))

	for i, suggestion := range suggestions {
		descURL, ok := suggestion["description_url"].(string)
		if !ok || strings.TrimSpace(descURL) == "" {
			// Caller-contract violation: fail this one fetch, not the batch.
			descriptions[i] = map[string]any{"error": "suggestion is missing description_url"}
			a.metrics.ObserveDescriptionFetch(metrics.StatusMissingURL)
			continue
		}

		wg.Add(1)
		i, descURL := i, descURL
		go func() {
			defer wg.Done()
			desc, err := a.client.GetSearchDescription(runCtx, descURL)
			if err != nil {
				fail(err)
				return
			}
			if _, bad := desc["error"]; bad {
				a.metrics.ObserveDescriptionFetch(metrics.StatusUpstreamError)
			} else {
				a.metrics.ObserveDescriptionFetch(metrics.StatusOK)
			}
			descriptions[i] = desc
		}()
	}
	wg.Wait()

	mu.Lock()
	err := firstErr
	mu.Unlock()
	if err != nil {
		return nil, err
	}
	return descriptions, nil
}

// resultList extracts the suggestion objects from a stage-1 response
// envelope. Non-object items are ignored.
func resultList(envelope map[string]any) []map[string]any {
	raw, _ := envelope["result"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
