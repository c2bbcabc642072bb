package model

import (
	"encoding/json"
	"time"
)

// OperationStatus is the lifecycle state of a logged tool operation.
type OperationStatus string

const (
	OperationPending   OperationStatus = "pending"
	OperationApproved  OperationStatus = "approved"
	OperationRejected  OperationStatus = "rejected"
	OperationCompleted OperationStatus = "completed"
	OperationFailed    OperationStatus = "failed"
)

// OperationType classifies a logged operation by what it touches.
type OperationType string

const (
	OperationTypeToolCall  OperationType = "tool_call"
	OperationTypeFileWrite OperationType = "file_write"
	OperationTypeCommand   OperationType = "command"
	OperationTypeAPICall   OperationType = "api_call"
)

// OperationLog is one audited tool invocation. Pending entries hold the tool
// input until a human approves or rejects execution.
type OperationLog struct {
	ID                 int64           `json:"id"`
	UserID             string          `json:"user_id"`
	SessionID          string          `json:"session_id,omitempty"`
	OperationType      OperationType   `json:"operation_type"`
	ToolName           string          `json:"tool_name"`
	ToolSource         string          `json:"tool_source"`
	Input              json.RawMessage `json:"input_data,omitempty"`
	Output             json.RawMessage `json:"output_data,omitempty"`
	Status             OperationStatus `json:"status"`
	RequiresPermission bool            `json:"requires_permission"`
	PermissionGranted  *bool           `json:"permission_granted,omitempty"`
	ErrorMessage       string          `json:"error_message,omitempty"`
	Preview            string          `json:"preview,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
}

// OperationStats aggregates operation counts by status.
type OperationStats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

// ApproveResponse is returned when a pending operation is approved.
type ApproveResponse struct {
	Success bool        `json:"success"`
	Result  *ToolResult `json:"result,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// RejectRequest is the body of an operation rejection.
type RejectRequest struct {
	Reason string `json:"reason,omitempty"`
}
