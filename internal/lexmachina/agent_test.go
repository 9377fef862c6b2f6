package lexmachina_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexmachina/suggested-searches-agent/internal/lexmachina"
	"github.com/lexmachina/suggested-searches-agent/internal/mocklexmachina"
)

func newTestAgent(t *testing.T) (*lexmachina.Agent, *mocklexmachina.Server) {
	t.Helper()

	mock := mocklexmachina.New()
	ts := httptest.NewServer(mock.Handler())
	t.Cleanup(ts.Close)

	client, err := lexmachina.NewClient(ts.URL, "test-token", discardLogger())
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return lexmachina.NewAgent(client, discardLogger(), nil), mock
}

func suggestionsOf(t *testing.T, envelope map[string]any) []map[string]any {
	t.Helper()

	raw, ok := envelope["result"].([]any)
	require.True(t, ok, "envelope must carry a result list: %#v", envelope)
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		require.True(t, ok, "suggestion must be an object: %#v", item)
		out = append(out, m)
	}
	return out
}

func enrichmentOf(t *testing.T, suggestion map[string]any) map[string]any {
	t.Helper()

	desc, ok := suggestion["enriched_description"].(map[string]any)
	require.True(t, ok, "suggestion must carry enriched_description: %#v", suggestion)
	return desc
}

func TestProcessQuery_EnrichesAllSuggestions(t *testing.T) {
	t.Parallel()

	agent, mock := newTestAgent(t)
	mock.SetSuggestionURLs("patent cases", "/desc/1", "/desc/2")

	out, err := agent.ProcessQuery(context.Background(), "patent cases")
	require.NoError(t, err)

	suggestions := suggestionsOf(t, out)
	require.Len(t, suggestions, 2)
	assert.Equal(t, "Description for /desc/1", enrichmentOf(t, suggestions[0])["text"])
	assert.Equal(t, "Description for /desc/2", enrichmentOf(t, suggestions[1])["text"])
}

func TestProcessQuery_PositionalMergeUnderReordering(t *testing.T) {
	t.Parallel()

	agent, mock := newTestAgent(t)
	mock.SetSuggestionURLs("reorder", "/desc/a", "/desc/b")
	// Make the first fetch finish last.
	mock.DelayPath("/desc/a", 100*time.Millisecond)

	out, err := agent.ProcessQuery(context.Background(), "reorder")
	require.NoError(t, err)

	suggestions := suggestionsOf(t, out)
	require.Len(t, suggestions, 2)
	assert.Equal(t, "/desc/a", enrichmentOf(t, suggestions[0])["url"])
	assert.Equal(t, "/desc/b", enrichmentOf(t, suggestions[1])["url"])
}

func TestProcessQuery_SingleDescriptionFailureIsScoped(t *testing.T) {
	t.Parallel()

	agent, mock := newTestAgent(t)
	mock.SetSuggestionURLs("partial", "/desc/1", "/desc/2", "/desc/3")
	mock.FailPath("/desc/2", http.StatusNotFound)

	out, err := agent.ProcessQuery(context.Background(), "partial")
	require.NoError(t, err)

	suggestions := suggestionsOf(t, out)
	require.Len(t, suggestions, 3)

	assert.Equal(t, "Description for /desc/1", enrichmentOf(t, suggestions[0])["text"])
	assert.Contains(t, enrichmentOf(t, suggestions[1]), "error")
	assert.Equal(t, "Description for /desc/3", enrichmentOf(t, suggestions[2])["text"])
}

func TestProcessQuery_EmptyResultGates(t *testing.T) {
	t.Parallel()

	agent, mock := newTestAgent(t)
	mock.SetEnvelope("nothing", map[string]any{"result": []any{}})

	out, err := agent.ProcessQuery(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Equal(t, "Failed to get initial suggestions.", out["error"])
	assert.Contains(t, out, "details")
}

func TestProcessQuery_UpstreamStatusErrorGates(t *testing.T) {
	t.Parallel()

	agent, mock := newTestAgent(t)
	mock.FailPath("/search/ai_suggested", http.StatusInternalServerError)

	out, err := agent.ProcessQuery(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "Failed to get initial suggestions.", out["error"])

	details, ok := out["details"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, details, "error")
}

func TestProcessQuery_TransportErrorPropagates(t *testing.T) {
	t.Parallel()

	mock := mocklexmachina.New()
	ts := httptest.NewServer(mock.Handler())

	client, err := lexmachina.NewClient(ts.URL, "test-token", discardLogger())
	require.NoError(t, err)
	t.Cleanup(client.Close)
	agent := lexmachina.NewAgent(client, discardLogger(), nil)

	// Connection refused is an unexpected transport failure, not a status error.
	ts.Close()

	_, err = agent.ProcessQuery(context.Background(), "patent cases")
	require.Error(t, err)
}

func TestProcessQuery_EnrichmentTransportErrorPropagatesAndCancelsSet(t *testing.T) {
	t.Parallel()

	agent, mock := newTestAgent(t)
	// Port 1 is never listening: the fetch fails at the transport layer, not
	// with an HTTP status, so it must not be embedded per-suggestion.
	mock.SetSuggestionURLs("doomed", "http://127.0.0.1:1/unreachable", "/desc/slow")
	mock.DelayPath("/desc/slow", 2*time.Second)

	start := time.Now()
	_, err := agent.ProcessQuery(context.Background(), "doomed")
	elapsed := time.Since(start)

	require.Error(t, err)
	var httpErr *lexmachina.HTTPError
	assert.False(t, errors.As(err, &httpErr), "transport failure must not be an HTTP status error: %v", err)

	// The failure cancels the in-flight sibling fetch instead of waiting out
	// its full latency.
	assert.Less(t, elapsed, 1500*time.Millisecond, "sibling fetch was not canceled with the set")
}

func TestProcessQuery_PreservesEnvelopeMetadata(t *testing.T) {
	t.Parallel()

	agent, mock := newTestAgent(t)
	mock.SetEnvelope("meta", map[string]any{
		"result":   []any{map[string]any{"description_url": "/desc/1", "label": "first"}},
		"query_id": "abc-123",
	})

	out, err := agent.ProcessQuery(context.Background(), "meta")
	require.NoError(t, err)

	// The stage-1 envelope comes back mutated in place, extra fields intact.
	assert.Equal(t, "abc-123", out["query_id"])
	suggestions := suggestionsOf(t, out)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "first", suggestions[0]["label"])
	assert.Equal(t, "Description for /desc/1", enrichmentOf(t, suggestions[0])["text"])
}

func TestProcessQuery_MissingDescriptionURLFailsOnlyThatSuggestion(t *testing.T) {
	t.Parallel()

	agent, mock := newTestAgent(t)
	mock.SetEnvelope("mixed", map[string]any{
		"result": []any{
			map[string]any{"title": "no url here"},
			map[string]any{"description_url": "/desc/ok"},
		},
	})

	out, err := agent.ProcessQuery(context.Background(), "mixed")
	require.NoError(t, err)

	suggestions := suggestionsOf(t, out)
	require.Len(t, suggestions, 2)
	assert.Contains(t, enrichmentOf(t, suggestions[0]), "error")
	assert.Equal(t, "Description for /desc/ok", enrichmentOf(t, suggestions[1])["text"])
}

func TestProcessQuery_NoSuggestionDroppedOrDuplicated(t *testing.T) {
	t.Parallel()

	agent, mock := newTestAgent(t)
	urls := []string{"/desc/1", "/desc/2", "/desc/3", "/desc/4", "/desc/5"}
	mock.SetSuggestionURLs("many", urls...)

	out, err := agent.ProcessQuery(context.Background(), "many")
	require.NoError(t, err)

	suggestions := suggestionsOf(t, out)
	require.Len(t, suggestions, len(urls))
	for i, s := range suggestions {
		assert.Equal(t, urls[i], enrichmentOf(t, s)["url"])
	}
}
