package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/halcyon-ai/agent-console/internal/model"
)

// MemoryStore is the slice of the memory service the memory tools need.
type MemoryStore interface {
	Save(ctx context.Context, userID string, req *model.MemoryRequest) (*model.MemoryEntry, error)
	Search(ctx context.Context, userID, query string, limit int) ([]*model.MemoryEntry, error)
}

type toolContextKey string

const userIDKey toolContextKey = "tool_user_id"

// WithUser attaches the acting user to the context so memory tools can scope
// their reads and writes.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func userFrom(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// save_memory

type saveMemoryInput struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	MemoryType string   `json:"memory_type,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Importance int      `json:"importance,omitempty"`
}

type saveMemoryTool struct {
	store MemoryStore
}

func (t *saveMemoryTool) Name() string { return "save_memory" }

func (t *saveMemoryTool) Description() string {
	return "Save a note to persistent memory so it can be recalled in later sessions."
}

func (t *saveMemoryTool) InputSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"title": {"type": "string", "description": "Short title for the note"},
			"content": {"type": "string", "description": "The fact or note to remember"},
			"memory_type": {"type": "string", "description": "Category, e.g. fact, preference, context"},
			"tags": {"type": "array", "items": {"type": "string"}},
			"importance": {"type": "integer", "description": "1-10, higher ranks first on recall"}
		},
		"required": ["title", "content"]
	}`)
}

func (t *saveMemoryTool) Execute(ctx context.Context, input json.RawMessage) *model.ToolResult {
	var in saveMemoryInput
	if err := json.Unmarshal(input, &in); err != nil {
		return failure("invalid input: %v", err)
	}
	if in.Title == "" || in.Content == "" {
		return failure("title and content are required")
	}

	userID := userFrom(ctx)
	if userID == "" {
		return failure("no user in context")
	}

	entry, err := t.store.Save(ctx, userID, &model.MemoryRequest{
		Title:      in.Title,
		Content:    in.Content,
		MemoryType: in.MemoryType,
		Tags:       in.Tags,
		Importance: in.Importance,
	})
	if err != nil {
		return failure("failed to save memory: %v", err)
	}

	return &model.ToolResult{
		Success: true,
		Message: fmt.Sprintf("Memory saved: %s (id %d)", entry.Title, entry.ID),
	}
}

func (t *saveMemoryTool) Preview(input json.RawMessage) string {
	var in saveMemoryInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "Save memory"
	}
	return "Save memory: " + in.Title
}

// recall_memory

type recallMemoryInput struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

type recallMemoryTool struct {
	store MemoryStore
}

func (t *recallMemoryTool) Name() string { return "recall_memory" }

func (t *recallMemoryTool) Description() string {
	return "Search persistent memory for previously saved notes matching a query."
}

func (t *recallMemoryTool) InputSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "Text to search titles, content, and tags for"},
			"limit": {"type": "integer", "description": "Maximum entries to return"}
		},
		"required": ["query"]
	}`)
}

func (t *recallMemoryTool) Execute(ctx context.Context, input json.RawMessage) *model.ToolResult {
	var in recallMemoryInput
	if err := json.Unmarshal(input, &in); err != nil {
		return failure("invalid input: %v", err)
	}
	if in.Query == "" {
		return failure("query is required")
	}

	userID := userFrom(ctx)
	if userID == "" {
		return failure("no user in context")
	}

	limit := in.Limit
	if limit <= 0 || limit > 20 {
		limit = 5
	}

	entries, err := t.store.Search(ctx, userID, in.Query, limit)
	if err != nil {
		return failure("failed to search memory: %v", err)
	}
	if len(entries) == 0 {
		return &model.ToolResult{Success: true, Message: "No matching memories found"}
	}

	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "[%s] %s\n%s\n", e.MemoryType, e.Title, e.Content)
		if len(e.Tags) > 0 {
			fmt.Fprintf(&b, "Tags: %s\n", strings.Join(e.Tags, ", "))
		}
		b.WriteString("\n")
	}
	return &model.ToolResult{Success: true, Output: strings.TrimSpace(b.String())}
}

func (t *recallMemoryTool) Preview(input json.RawMessage) string {
	var in recallMemoryInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "Recall memory"
	}
	return "Recall memory: " + in.Query
}
