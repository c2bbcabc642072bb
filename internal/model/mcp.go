package model

import (
	"time"
)

// MCPServerType is the transport used to reach an MCP server.
type MCPServerType string

const (
	MCPServerStdio MCPServerType = "stdio"
	MCPServerHTTP  MCPServerType = "http"
)

// MCPServer is a configured MCP server connection.
type MCPServer struct {
	ID         int64             `json:"id"`
	Name       string            `json:"name"`
	ServerType MCPServerType     `json:"server_type"`
	Command    string            `json:"command,omitempty"`
	Args       []string          `json:"args,omitempty"`
	Env        map[string]string `json:"env,omitempty"`
	URL        string            `json:"url,omitempty"`
	Enabled    bool              `json:"enabled"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// MCPServerRequest is the create/update body for an MCP server config.
type MCPServerRequest struct {
	Name       string            `json:"name"`
	ServerType MCPServerType     `json:"server_type"`
	Command    string            `json:"command,omitempty"`
	Args       []string          `json:"args,omitempty"`
	Env        map[string]string `json:"env,omitempty"`
	URL        string            `json:"url,omitempty"`
	Enabled    *bool             `json:"enabled,omitempty"`
}
