// Package agent adapts the Lex Machina query orchestrator to the
// agent-protocol server: it validates request contexts, runs queries, and
// renders results into protocol task events.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lexmachina/suggested-searches-agent/internal/a2a"
)

// QueryProcessor runs one natural-language query against the upstream API.
// *lexmachina.Agent satisfies this.
type QueryProcessor interface {
	ProcessQuery(ctx context.Context, query string) (map[string]any, error)
}

// Executor implements a2a.Executor on top of a QueryProcessor.
type Executor struct {
	agent QueryProcessor
	log   *slog.Logger
}

// NewExecutor wraps a query processor.
func NewExecutor(agent QueryProcessor, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{agent: agent, log: log}
}

// Execute processes the request message as a query and enqueues a single
// completed task carrying one text artifact with the JSON-rendered result.
//
// A missing task ID, context ID, or message is an invalid-parameters
// condition signaled before any processing. Unexpected orchestrator errors
// are returned and surface as a failed task at the protocol layer.
func (e *Executor) Execute(ctx context.Context, rc a2a.RequestContext, queue *a2a.EventQueue) error {
	if rc.TaskID == "" || rc.ContextID == "" || rc.Message == nil {
		return a2a.InvalidParams("missing task id, context id, or message")
	}
	query := rc.Message.Text()

	results, err := e.agent.ProcessQuery(ctx, query)
	if err != nil {
		return err
	}

	rendered, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("render query result: %w", err)
	}

	artifact := a2a.NewTextArtifact("suggestion_"+rc.TaskID, string(rendered))
	queue.Enqueue(a2a.CompletedTask(rc.TaskID, rc.ContextID, []a2a.Artifact{artifact}, []a2a.Message{*rc.Message}))
	return nil
}

// Cancel reports that cancellation is unsupported rather than silently
// acknowledging it.
func (e *Executor) Cancel(_ context.Context, _ a2a.RequestContext, _ *a2a.EventQueue) error {
	return a2a.ErrUnsupportedOperation
}
