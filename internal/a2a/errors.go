package a2a

import "fmt"

// JSON-RPC error codes used by the protocol, including the A2A-specific range.
const (
	CodeParseError           = -32700
	CodeInvalidRequest       = -32600
	CodeMethodNotFound       = -32601
	CodeInvalidParams        = -32602
	CodeInternalError        = -32603
	CodeTaskNotFound         = -32001
	CodeUnsupportedOperation = -32004
)

// Error is a JSON-RPC error envelope. Executors may return an *Error to have
// it surfaced verbatim to the protocol caller; any other error becomes a
// failed task.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return "a2a error"
	}
	return fmt.Sprintf("a2a error %d: %s", e.Code, e.Message)
}

// ErrUnsupportedOperation reports a protocol operation this agent does not
// implement, e.g. task cancellation.
var ErrUnsupportedOperation = &Error{
	Code:    CodeUnsupportedOperation,
	Message: "This operation is not supported",
}

// InvalidParams builds an invalid-parameters error.
func InvalidParams(msg string) *Error {
	return &Error{Code: CodeInvalidParams, Message: msg}
}

// TaskNotFound builds a task-not-found error for the given task ID.
func TaskNotFound(id string) *Error {
	return &Error{Code: CodeTaskNotFound, Message: "Task not found", Data: map[string]string{"id": id}}
}
