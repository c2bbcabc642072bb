package model

import (
	"time"
)

// MemoryEntry is one long-lived note the assistant can save and recall.
type MemoryEntry struct {
	ID         int64          `json:"id"`
	UserID     string         `json:"user_id"`
	SessionID  string         `json:"session_id,omitempty"`
	MemoryType string         `json:"memory_type"`
	Title      string         `json:"title,omitempty"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Tags       []string       `json:"tags,omitempty"`
	Importance int            `json:"importance"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// MemoryRequest is the create/update body for a memory entry.
type MemoryRequest struct {
	MemoryType string         `json:"memory_type"`
	Title      string         `json:"title,omitempty"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Tags       []string       `json:"tags,omitempty"`
	Importance int            `json:"importance,omitempty"`
}
