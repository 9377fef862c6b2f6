// Package a2a implements the agent-protocol surface this agent is served
// behind: agent card metadata, messages, tasks, artifacts, and a JSON-RPC
// server binding an executor to the protocol methods.
package a2a

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProtocolVersion is the A2A protocol version advertised in the agent card.
const ProtocolVersion = "0.2.6"

// AgentCard describes an agent's identity, capabilities, and skills. It is
// served at the well-known card path so callers can discover the agent.
type AgentCard struct {
	ProtocolVersion    string            `json:"protocolVersion"`
	Name               string            `json:"name"`
	Description        string            `json:"description"`
	URL                string            `json:"url"`
	Version            string            `json:"version"`
	Capabilities       AgentCapabilities `json:"capabilities"`
	DefaultInputModes  []string          `json:"defaultInputModes"`
	DefaultOutputModes []string          `json:"defaultOutputModes"`
	Skills             []AgentSkill      `json:"skills"`
}

// AgentCapabilities lists optional protocol features the agent supports.
type AgentCapabilities struct {
	Streaming bool `json:"streaming"`
}

// AgentSkill describes one capability advertised by the agent.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Examples    []string `json:"examples,omitempty"`
}

// Role identifies the author of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Part is one content part of a message or artifact. Only text parts are
// produced by this agent.
type Part struct {
	Kind string `json:"kind"`
	Text string `json:"text,omitempty"`
}

// TextPart builds a text content part.
func TextPart(text string) Part {
	return Part{Kind: "text", Text: text}
}

// Message is one protocol message exchanged with the agent.
type Message struct {
	Kind      string `json:"kind"`
	MessageID string `json:"messageId"`
	Role      Role   `json:"role"`
	Parts     []Part `json:"parts"`
	TaskID    string `json:"taskId,omitempty"`
	ContextID string `json:"contextId,omitempty"`
}

// Text returns the concatenated text content of the message.
func (m *Message) Text() string {
	if m == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range m.Parts {
		if p.Kind == "text" {
			sb.WriteString(p.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}

// TaskState is the lifecycle state of a task.
type TaskState string

const (
	TaskStateSubmitted TaskState = "submitted"
	TaskStateWorking   TaskState = "working"
	TaskStateCompleted TaskState = "completed"
	TaskStateFailed    TaskState = "failed"
	TaskStateCanceled  TaskState = "canceled"
)

// TaskStatus is the current state of a task, optionally with an agent message
// explaining it.
type TaskStatus struct {
	State     TaskState `json:"state"`
	Message   *Message  `json:"message,omitempty"`
	Timestamp string    `json:"timestamp,omitempty"`
}

// Artifact is one output produced by a task.
type Artifact struct {
	ArtifactID string `json:"artifactId"`
	Name       string `json:"name,omitempty"`
	Parts      []Part `json:"parts"`
}

// Task is the unit of work tracked by the protocol layer.
type Task struct {
	Kind      string     `json:"kind"`
	ID        string     `json:"id"`
	ContextID string     `json:"contextId"`
	Status    TaskStatus `json:"status"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
	History   []Message  `json:"history,omitempty"`
}

// NewTextArtifact builds a single-part text artifact with a generated ID.
func NewTextArtifact(name, text string) Artifact {
	return Artifact{
		ArtifactID: uuid.NewString(),
		Name:       name,
		Parts:      []Part{TextPart(text)},
	}
}

// CompletedTask builds a terminal completed task carrying the given artifacts
// and message history.
func CompletedTask(taskID, contextID string, artifacts []Artifact, history []Message) *Task {
	return &Task{
		Kind:      "task",
		ID:        taskID,
		ContextID: contextID,
		Status: TaskStatus{
			State:     TaskStateCompleted,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
		Artifacts: artifacts,
		History:   history,
	}
}

// FailedTask builds a terminal failed task whose status message carries the
// failure reason.
func FailedTask(taskID, contextID, reason string, history []Message) *Task {
	return &Task{
		Kind:      "task",
		ID:        taskID,
		ContextID: contextID,
		Status: TaskStatus{
			State: TaskStateFailed,
			Message: &Message{
				Kind:      "message",
				MessageID: uuid.NewString(),
				Role:      RoleAgent,
				Parts:     []Part{TextPart(reason)},
				TaskID:    taskID,
				ContextID: contextID,
			},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
		History: history,
	}
}
