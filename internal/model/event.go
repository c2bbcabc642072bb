package model

import (
	"encoding/json"
)

// StreamEventType discriminates records on the chat response stream.
type StreamEventType string

const (
	StreamText               StreamEventType = "text"
	StreamToolUse            StreamEventType = "tool_use"
	StreamToolResult         StreamEventType = "tool_result"
	StreamPermissionRequired StreamEventType = "permission_required"
	StreamWaitingUserInput   StreamEventType = "waiting_user_input"
	StreamError              StreamEventType = "error"
	StreamDone               StreamEventType = "done"
)

// StreamRecord is one `data: <json>` record on a chat response stream.
// Which fields are set depends on Type.
type StreamRecord struct {
	Type StreamEventType `json:"type"`

	// text
	Content string `json:"content,omitempty"`

	// tool_use / tool_result
	Name   string          `json:"name,omitempty"`
	Input  json.RawMessage `json:"input,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`

	// permission_required
	LogID   int64  `json:"log_id,omitempty"`
	Preview string `json:"preview,omitempty"`

	// error
	Error string `json:"error,omitempty"`
}

// ToolResult is the outcome of one tool execution, serialized into the
// Result field of a tool_result record.
type ToolResult struct {
	Success bool   `json:"success"`
	Output  string `json:"output,omitempty"`
	Content string `json:"content,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`

	// Set when the tool pauses the turn until the user answers.
	RequiresUserInput bool       `json:"requires_user_input,omitempty"`
	Questions         []Question `json:"questions,omitempty"`
}

// Question is one structured prompt posed to the user mid-turn.
type Question struct {
	Header      string           `json:"header"`
	Question    string           `json:"question"`
	MultiSelect bool             `json:"multiSelect"`
	Options     []QuestionOption `json:"options"`
}

// QuestionOption is one selectable answer for a Question.
type QuestionOption struct {
	Label       string `json:"label"`
	Description string `json:"description"`
}
