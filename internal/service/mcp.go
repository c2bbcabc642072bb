package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/halcyon-ai/agent-console/internal/model"
	"github.com/halcyon-ai/agent-console/pkg/logger"
)

// MCPService manages MCP server configurations.
type MCPService struct {
	logger *logger.Logger

	// In-memory storage for server configs (would be replaced with a database in production)
	mu      sync.RWMutex
	servers map[int64]*model.MCPServer
	nextID  int64
}

// NewMCPService creates a new MCP service.
func NewMCPService(log *logger.Logger) *MCPService {
	return &MCPService{
		logger:  log,
		servers: make(map[int64]*model.MCPServer),
	}
}

func validateMCPRequest(req *model.MCPServerRequest) error {
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	switch req.ServerType {
	case model.MCPServerStdio:
		if req.Command == "" {
			return fmt.Errorf("command is required for stdio servers")
		}
	case model.MCPServerHTTP:
		if req.URL == "" {
			return fmt.Errorf("url is required for http servers")
		}
	default:
		return fmt.Errorf("invalid server_type: %s", req.ServerType)
	}
	return nil
}

// Create registers a new MCP server configuration.
func (s *MCPService) Create(ctx context.Context, req *model.MCPServerRequest) (*model.MCPServer, error) {
	if err := validateMCPRequest(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, srv := range s.servers {
		if srv.Name == req.Name {
			return nil, fmt.Errorf("server %q already exists", req.Name)
		}
	}

	now := time.Now()
	s.nextID++
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	srv := &model.MCPServer{
		ID:         s.nextID,
		Name:       req.Name,
		ServerType: req.ServerType,
		Command:    req.Command,
		Args:       req.Args,
		Env:        req.Env,
		URL:        req.URL,
		Enabled:    enabled,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.servers[srv.ID] = srv

	s.logger.Info("MCP server created", "server_id", srv.ID, "name", srv.Name, "type", srv.ServerType)

	return srv, nil
}

// Get retrieves one MCP server configuration.
func (s *MCPService) Get(ctx context.Context, id int64) (*model.MCPServer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	srv, exists := s.servers[id]
	if !exists {
		return nil, fmt.Errorf("MCP server not found")
	}
	return srv, nil
}

// List returns all MCP server configurations ordered by ID.
func (s *MCPService) List(ctx context.Context) []*model.MCPServer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.MCPServer, 0, len(s.servers))
	for _, srv := range s.servers {
		out = append(out, srv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Enabled returns the enabled server configurations.
func (s *MCPService) Enabled(ctx context.Context) []*model.MCPServer {
	var out []*model.MCPServer
	for _, srv := range s.List(ctx) {
		if srv.Enabled {
			out = append(out, srv)
		}
	}
	return out
}

// Update modifies an MCP server configuration. Zero-value fields are left
// unchanged except Enabled, which uses a pointer to distinguish absent.
func (s *MCPService) Update(ctx context.Context, id int64, req *model.MCPServerRequest) (*model.MCPServer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	srv, exists := s.servers[id]
	if !exists {
		return nil, fmt.Errorf("MCP server not found")
	}

	if req.Name != "" {
		srv.Name = req.Name
	}
	if req.ServerType != "" {
		srv.ServerType = req.ServerType
	}
	if req.Command != "" {
		srv.Command = req.Command
	}
	if req.Args != nil {
		srv.Args = req.Args
	}
	if req.Env != nil {
		srv.Env = req.Env
	}
	if req.URL != "" {
		srv.URL = req.URL
	}
	if req.Enabled != nil {
		srv.Enabled = *req.Enabled
	}
	srv.UpdatedAt = time.Now()

	return srv, nil
}

// Delete removes an MCP server configuration.
func (s *MCPService) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.servers[id]; !exists {
		return fmt.Errorf("MCP server not found")
	}
	delete(s.servers, id)

	s.logger.Info("MCP server deleted", "server_id", id)
	return nil
}
