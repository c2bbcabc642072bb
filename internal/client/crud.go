package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/halcyon-ai/agent-console/internal/model"
)

// History returns the session's persisted messages.
func (c *Client) History(ctx context.Context, limit int) ([]model.Message, error) {
	var resp model.HistoryResponse
	path := "/api/history?session_id=" + c.sessionID
	if limit > 0 {
		path += "&limit=" + strconv.Itoa(limit)
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.History, nil
}

// SearchHistory searches the user's messages across sessions.
func (c *Client) SearchHistory(ctx context.Context, query string, limit int) ([]model.Message, error) {
	var resp model.SearchResponse
	path := "/api/history/search?q=" + url.QueryEscape(query)
	if limit > 0 {
		path += "&limit=" + strconv.Itoa(limit)
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// HistoryStats returns aggregate counts over the user's history.
func (c *Client) HistoryStats(ctx context.Context) (*model.SessionStats, error) {
	var stats model.SessionStats
	if err := c.doJSON(ctx, http.MethodGet, "/api/history/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ClearHistory removes the session's persisted messages.
func (c *Client) ClearHistory(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/history?session_id="+c.sessionID, nil, nil)
}

// Operations returns the user's operation log, newest first.
func (c *Client) Operations(ctx context.Context, limit int) ([]model.OperationLog, error) {
	var resp struct {
		Operations []model.OperationLog `json:"operations"`
	}
	path := "/api/operations"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Operations, nil
}

// PendingOperations returns operations still awaiting a decision.
func (c *Client) PendingOperations(ctx context.Context) ([]model.OperationLog, error) {
	var resp struct {
		Operations []model.OperationLog `json:"operations"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/operations/pending", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Operations, nil
}

// Model returns the server's selected model.
func (c *Client) Model(ctx context.Context) (string, error) {
	var resp struct {
		Model string `json:"model"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/model", nil, &resp); err != nil {
		return "", err
	}
	return resp.Model, nil
}

// SetModel switches the server's selected model.
func (c *Client) SetModel(ctx context.Context, name string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/model", map[string]string{"model": name}, nil)
}

// MCPServers lists configured MCP servers.
func (c *Client) MCPServers(ctx context.Context) ([]model.MCPServer, error) {
	var resp struct {
		Servers []model.MCPServer `json:"servers"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/mcp/servers", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Servers, nil
}

// CreateMCPServer registers an MCP server config.
func (c *Client) CreateMCPServer(ctx context.Context, req *model.MCPServerRequest) (*model.MCPServer, error) {
	var srv model.MCPServer
	if err := c.doJSON(ctx, http.MethodPost, "/api/mcp/servers", req, &srv); err != nil {
		return nil, err
	}
	return &srv, nil
}

// UpdateMCPServer modifies an MCP server config.
func (c *Client) UpdateMCPServer(ctx context.Context, id int64, req *model.MCPServerRequest) (*model.MCPServer, error) {
	var srv model.MCPServer
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/mcp/servers/%d", id), req, &srv); err != nil {
		return nil, err
	}
	return &srv, nil
}

// DeleteMCPServer removes an MCP server config.
func (c *Client) DeleteMCPServer(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/mcp/servers/%d", id), nil, nil)
}

// MemoryEntries lists memory notes, optionally filtered by type.
func (c *Client) MemoryEntries(ctx context.Context, memoryType string, limit int) ([]model.MemoryEntry, error) {
	var resp struct {
		Entries []model.MemoryEntry `json:"entries"`
	}
	path := "/api/memory"
	q := url.Values{}
	if memoryType != "" {
		q.Set("type", memoryType)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

// CreateMemory saves a memory note.
func (c *Client) CreateMemory(ctx context.Context, req *model.MemoryRequest) (*model.MemoryEntry, error) {
	var entry model.MemoryEntry
	if err := c.doJSON(ctx, http.MethodPost, "/api/memory", req, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateMemory modifies a memory note.
func (c *Client) UpdateMemory(ctx context.Context, id int64, req *model.MemoryRequest) (*model.MemoryEntry, error) {
	var entry model.MemoryEntry
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/memory/%d", id), req, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteMemory removes a memory note.
func (c *Client) DeleteMemory(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/memory/%d", id), nil, nil)
}

// Skills lists registered skills.
func (c *Client) Skills(ctx context.Context) ([]model.Skill, error) {
	var resp struct {
		Skills []model.Skill `json:"skills"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/skills", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Skills, nil
}

// CreateSkill registers a skill.
func (c *Client) CreateSkill(ctx context.Context, req *model.SkillRequest) (*model.Skill, error) {
	var skill model.Skill
	if err := c.doJSON(ctx, http.MethodPost, "/api/skills", req, &skill); err != nil {
		return nil, err
	}
	return &skill, nil
}

// UpdateSkill modifies a skill.
func (c *Client) UpdateSkill(ctx context.Context, id int64, req *model.SkillRequest) (*model.Skill, error) {
	var skill model.Skill
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/skills/%d", id), req, &skill); err != nil {
		return nil, err
	}
	return &skill, nil
}

// DeleteSkill removes a skill.
func (c *Client) DeleteSkill(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/skills/%d", id), nil, nil)
}
