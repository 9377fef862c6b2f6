package a2a_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexmachina/suggested-searches-agent/internal/a2a"
)

type fakeExecutor struct {
	execute func(ctx context.Context, rc a2a.RequestContext, queue *a2a.EventQueue) error
	cancel  func(ctx context.Context, rc a2a.RequestContext, queue *a2a.EventQueue) error
}

func (f *fakeExecutor) Execute(ctx context.Context, rc a2a.RequestContext, queue *a2a.EventQueue) error {
	return f.execute(ctx, rc, queue)
}

func (f *fakeExecutor) Cancel(ctx context.Context, rc a2a.RequestContext, queue *a2a.EventQueue) error {
	if f.cancel == nil {
		return a2a.ErrUnsupportedOperation
	}
	return f.cancel(ctx, rc, queue)
}

func completingExecutor() *fakeExecutor {
	return &fakeExecutor{
		execute: func(_ context.Context, rc a2a.RequestContext, queue *a2a.EventQueue) error {
			artifact := a2a.NewTextArtifact("out", "done")
			queue.Enqueue(a2a.CompletedTask(rc.TaskID, rc.ContextID, []a2a.Artifact{artifact}, []a2a.Message{*rc.Message}))
			return nil
		},
	}
}

func testCard() a2a.AgentCard {
	return a2a.AgentCard{
		ProtocolVersion: a2a.ProtocolVersion,
		Name:            "Test Agent",
		URL:             "http://localhost:0/",
		Version:         "0.0.1",
	}
}

func newTestServer(t *testing.T, exec a2a.Executor) *httptest.Server {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := a2a.NewServer(testCard(), exec, log)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

type rpcReply struct {
	JSONRPC string     `json:"jsonrpc"`
	ID      any        `json:"id"`
	Result  *a2a.Task  `json:"result"`
	Error   *a2a.Error `json:"error"`
}

func rpcCall(t *testing.T, ts *httptest.Server, method string, params any) rpcReply {
	t.Helper()

	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out rpcReply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "2.0", out.JSONRPC)
	return out
}

func userMessage(text string) map[string]any {
	return map[string]any{
		"message": map[string]any{
			"kind":  "message",
			"role":  "user",
			"parts": []map[string]any{{"kind": "text", "text": text}},
		},
	}
}

func TestAgentCardEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, completingExecutor())

	resp, err := http.Get(ts.URL + a2a.AgentCardPath)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var card a2a.AgentCard
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&card))
	assert.Equal(t, "Test Agent", card.Name)
	assert.False(t, card.Capabilities.Streaming)
}

func TestMessageSend_ReturnsCompletedTask(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, completingExecutor())

	reply := rpcCall(t, ts, "message/send", userMessage("patent cases"))
	require.Nil(t, reply.Error)
	require.NotNil(t, reply.Result)

	task := reply.Result
	assert.Equal(t, a2a.TaskStateCompleted, task.Status.State)
	assert.NotEmpty(t, task.ID)
	assert.NotEmpty(t, task.ContextID)
	require.Len(t, task.Artifacts, 1)
	require.Len(t, task.History, 1)
	assert.Equal(t, "patent cases", task.History[0].Text())

	// The returned task is retrievable afterwards.
	got := rpcCall(t, ts, "tasks/get", map[string]any{"id": task.ID})
	require.Nil(t, got.Error)
	assert.Equal(t, task.ID, got.Result.ID)
}

func TestMessageSend_MissingMessageIsInvalidParams(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, completingExecutor())

	reply := rpcCall(t, ts, "message/send", map[string]any{})
	require.NotNil(t, reply.Error)
	assert.Equal(t, a2a.CodeInvalidParams, reply.Error.Code)
}

func TestMessageSend_ExecutorErrorSurfacesVerbatim(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{
		execute: func(context.Context, a2a.RequestContext, *a2a.EventQueue) error {
			return a2a.InvalidParams("missing task id, context id, or message")
		},
	}
	ts := newTestServer(t, exec)

	reply := rpcCall(t, ts, "message/send", userMessage("q"))
	require.NotNil(t, reply.Error)
	assert.Equal(t, a2a.CodeInvalidParams, reply.Error.Code)
}

func TestMessageSend_UnexpectedErrorBecomesFailedTask(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{
		execute: func(context.Context, a2a.RequestContext, *a2a.EventQueue) error {
			return errors.New("connection refused talking to Bearer sekrit-token")
		},
	}
	ts := newTestServer(t, exec)

	reply := rpcCall(t, ts, "message/send", userMessage("q"))
	require.Nil(t, reply.Error)
	require.NotNil(t, reply.Result)

	task := reply.Result
	assert.Equal(t, a2a.TaskStateFailed, task.Status.State)
	require.NotNil(t, task.Status.Message)
	reason := task.Status.Message.Text()
	assert.Contains(t, reason, "connection refused")
	// Tokens never leak through failure reasons.
	assert.NotContains(t, reason, "sekrit-token")
}

func TestTasksGet_UnknownTask(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, completingExecutor())

	reply := rpcCall(t, ts, "tasks/get", map[string]any{"id": "nope"})
	require.NotNil(t, reply.Error)
	assert.Equal(t, a2a.CodeTaskNotFound, reply.Error.Code)
}

func TestTasksCancel_Unsupported(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, completingExecutor())

	sent := rpcCall(t, ts, "message/send", userMessage("q"))
	require.Nil(t, sent.Error)

	reply := rpcCall(t, ts, "tasks/cancel", map[string]any{"id": sent.Result.ID})
	require.NotNil(t, reply.Error)
	assert.Equal(t, a2a.CodeUnsupportedOperation, reply.Error.Code)
}

func TestUnknownMethod(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, completingExecutor())

	reply := rpcCall(t, ts, "message/stream", userMessage("q"))
	require.NotNil(t, reply.Error)
	assert.Equal(t, a2a.CodeMethodNotFound, reply.Error.Code)
}
