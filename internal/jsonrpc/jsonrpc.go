// Package jsonrpc defines the JSON-RPC 2.0 envelope for the tasks/send
// transport and the outbound tool-RPC calls (discover_tools/call_tool).
package jsonrpc

import "encoding/json"

const (
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// MessagePart is one part of an A2A message.
type MessagePart struct {
	Text string `json:"text"`
}

// Message is the A2A message envelope carrying the task text.
type Message struct {
	Role  string        `json:"role"`
	Parts []MessagePart `json:"parts"`
}

// TaskMetadata carries the optional per-task overrides.
type TaskMetadata struct {
	SessionID     string `json:"session_id,omitempty"`
	PolicyDoc     string `json:"policy_doc,omitempty"`
	ToolsEndpoint string `json:"tools_endpoint,omitempty"`
}

// TaskParams is the params payload of a tasks/send request.
type TaskParams struct {
	ID       string       `json:"id"`
	Message  Message      `json:"message"`
	Metadata TaskMetadata `json:"metadata"`
}

// Request is a JSON-RPC 2.0 request envelope.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// TaskStatus is the state of a completed or failed task.
type TaskStatus struct {
	State string `json:"state"`
}

// Artifact wraps the answer parts returned in a task result.
type Artifact struct {
	Parts []MessagePart `json:"parts"`
}

// TaskResult is the result payload of a successful tasks/send response.
type TaskResult struct {
	ID        string     `json:"id"`
	Status    TaskStatus `json:"status"`
	Artifacts []Artifact `json:"artifacts"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Response is a JSON-RPC 2.0 response envelope. Exactly one of Result/Error
// is populated.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      string      `json:"id"`
	Result  *TaskResult `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// NewResult builds a successful response envelope for the given answer text.
func NewResult(id, taskID, answerText string, failed bool) Response {
	state := "completed"
	if failed {
		state = "failed"
	}
	return Response{
		JSONRPC: "2.0",
		ID:      id,
		Result: &TaskResult{
			ID:     taskID,
			Status: TaskStatus{State: state},
			Artifacts: []Artifact{{
				Parts: []MessagePart{{Text: answerText}},
			}},
		},
	}
}

// NewError builds an error response envelope.
func NewError(id string, code int, message string) Response {
	return Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &Error{Code: code, Message: message},
	}
}
