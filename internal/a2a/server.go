package a2a

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/lexmachina/suggested-searches-agent/internal/util"
)

// AgentCardPath is the well-known path the agent card is served at.
const AgentCardPath = "/.well-known/agent-card.json"

// RequestContext carries the identifiers and message of one protocol request
// into the executor.
type RequestContext struct {
	TaskID    string
	ContextID string
	Message   *Message
}

// Executor handles task execution for the agent behind this server.
//
// Returning an *Error surfaces it verbatim as a JSON-RPC error. Any other
// error is reported to the caller as a failed task, never swallowed.
type Executor interface {
	Execute(ctx context.Context, rc RequestContext, queue *EventQueue) error
	Cancel(ctx context.Context, rc RequestContext, queue *EventQueue) error
}

// Server exposes an executor over the A2A protocol: the agent card at the
// well-known path and JSON-RPC 2.0 methods at the root.
type Server struct {
	card  AgentCard
	exec  Executor
	store *TaskStore
	log   *slog.Logger
}

// NewServer constructs a protocol server around an executor.
func NewServer(card AgentCard, exec Executor, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		card:  card,
		exec:  exec,
		store: NewTaskStore(),
		log:   log,
	}
}

// Handler returns an http.Handler serving the protocol surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(AgentCardPath, s.handleAgentCard)
	mux.HandleFunc("/", s.handleJSONRPC)
	return mux
}

func (s *Server) handleAgentCard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.card)
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRPC(w, rpcResponse{Error: &Error{Code: CodeParseError, Message: "invalid JSON payload"}})
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		writeRPC(w, rpcResponse{ID: req.ID, Error: &Error{Code: CodeInvalidRequest, Message: "invalid JSON-RPC request"}})
		return
	}

	var result any
	var rpcErr *Error
	switch req.Method {
	case "message/send":
		result, rpcErr = s.messageSend(r.Context(), req.Params)
	case "tasks/get":
		result, rpcErr = s.tasksGet(req.Params)
	case "tasks/cancel":
		result, rpcErr = s.tasksCancel(r.Context(), req.Params)
	default:
		rpcErr = &Error{Code: CodeMethodNotFound, Message: "method not found: " + req.Method}
	}

	writeRPC(w, rpcResponse{ID: req.ID, Result: result, Error: rpcErr})
}

type messageSendParams struct {
	Message *Message `json:"message"`
}

func (s *Server) messageSend(ctx context.Context, params json.RawMessage) (any, *Error) {
	var p messageSendParams
	if len(params) == 0 || json.Unmarshal(params, &p) != nil || p.Message == nil {
		return nil, InvalidParams("message/send requires a message param")
	}

	msg := p.Message
	if msg.Kind == "" {
		msg.Kind = "message"
	}
	if msg.MessageID == "" {
		msg.MessageID = uuid.NewString()
	}

	// The handler owns ID generation: a first message typically carries
	// neither a task ID nor a context ID.
	rc := RequestContext{
		TaskID:    msg.TaskID,
		ContextID: msg.ContextID,
		Message:   msg,
	}
	if rc.TaskID == "" {
		rc.TaskID = uuid.NewString()
	}
	if rc.ContextID == "" {
		rc.ContextID = uuid.NewString()
	}
	msg.TaskID = rc.TaskID
	msg.ContextID = rc.ContextID

	queue := &EventQueue{}
	if err := s.exec.Execute(ctx, rc, queue); err != nil {
		var known *Error
		if errors.As(err, &known) {
			return nil, known
		}
		// Unexpected executor failure: surface it as a failed task rather
		// than swallowing it.
		s.log.Error("task execution failed", "task_id", rc.TaskID, "err", util.RedactSecrets(err.Error()))
		failed := FailedTask(rc.TaskID, rc.ContextID, util.RedactSecrets(err.Error()), []Message{*msg})
		s.store.Save(failed)
		return failed, nil
	}

	events := queue.Events()
	if len(events) == 0 {
		return nil, &Error{Code: CodeInternalError, Message: "executor produced no task"}
	}
	task := events[len(events)-1]
	s.store.Save(task)
	return task, nil
}

type taskIDParams struct {
	ID string `json:"id"`
}

func (s *Server) tasksGet(params json.RawMessage) (any, *Error) {
	var p taskIDParams
	if len(params) == 0 || json.Unmarshal(params, &p) != nil || p.ID == "" {
		return nil, InvalidParams("tasks/get requires a task id")
	}
	task, ok := s.store.Get(p.ID)
	if !ok {
		return nil, TaskNotFound(p.ID)
	}
	return task, nil
}

func (s *Server) tasksCancel(ctx context.Context, params json.RawMessage) (any, *Error) {
	var p taskIDParams
	if len(params) == 0 || json.Unmarshal(params, &p) != nil || p.ID == "" {
		return nil, InvalidParams("tasks/cancel requires a task id")
	}
	task, ok := s.store.Get(p.ID)
	if !ok {
		return nil, TaskNotFound(p.ID)
	}

	queue := &EventQueue{}
	rc := RequestContext{TaskID: task.ID, ContextID: task.ContextID}
	if err := s.exec.Cancel(ctx, rc, queue); err != nil {
		var known *Error
		if errors.As(err, &known) {
			return nil, known
		}
		s.log.Error("task cancel failed", "task_id", task.ID, "err", util.RedactSecrets(err.Error()))
		return nil, &Error{Code: CodeInternalError, Message: "cancel failed"}
	}

	events := queue.Events()
	if len(events) == 0 {
		return task, nil
	}
	canceled := events[len(events)-1]
	s.store.Save(canceled)
	return canceled, nil
}

func writeRPC(w http.ResponseWriter, resp rpcResponse) {
	resp.JSONRPC = "2.0"
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
