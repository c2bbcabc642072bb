// Package model defines data structures for the agent console.
package model

import (
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message represents one persisted conversation message.
type Message struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	SessionID string         `json:"session_id"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Model     string         `json:"model,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`

	// JetStream metadata, populated on read.
	Sequence uint64 `json:"sequence,omitempty"`
}

// ChatRequest is the body of a chat turn request. History carries the prior
// turns verbatim so the server stays stateless about in-flight conversations.
type ChatRequest struct {
	Message     string        `json:"message"`
	History     []ChatMessage `json:"history"`
	AutoApprove bool          `json:"auto_approve"`
	Model       string        `json:"model,omitempty"`
}

// ChatMessage is one history entry in a chat request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SaveMessageRequest is the body of the save-message endpoint.
type SaveMessageRequest struct {
	Role     Role           `json:"role"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// HistoryResponse is the response for listing conversation history.
type HistoryResponse struct {
	Success bool      `json:"success"`
	History []Message `json:"history"`
}

// SearchResponse is the response for searching conversation history.
type SearchResponse struct {
	Success bool      `json:"success"`
	Results []Message `json:"results"`
	Count   int       `json:"count"`
}

// SessionStats summarizes a user's conversation history.
type SessionStats struct {
	TotalMessages int        `json:"total_messages"`
	TotalSessions int        `json:"total_sessions"`
	FirstMessage  *time.Time `json:"first_message,omitempty"`
	LastMessage   *time.Time `json:"last_message,omitempty"`
}

// CommandResponse is returned for slash commands, which do not stream.
type CommandResponse struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	Clear   bool   `json:"clear,omitempty"`
}
