package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/halcyon-ai/agent-console/internal/model"
	"github.com/halcyon-ai/agent-console/internal/service"
	"github.com/halcyon-ai/agent-console/pkg/logger"
)

// MCPHandler handles MCP server configuration endpoints.
type MCPHandler struct {
	mcpService *service.MCPService
	logger     *logger.Logger
}

// NewMCPHandler creates a new MCP handler.
func NewMCPHandler(mcpSvc *service.MCPService, log *logger.Logger) *MCPHandler {
	return &MCPHandler{mcpService: mcpSvc, logger: log}
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// redactServer masks env values so credentials never ride back to clients.
func redactServer(srv *model.MCPServer) *model.MCPServer {
	if len(srv.Env) == 0 {
		return srv
	}
	out := *srv
	out.Env = make(map[string]string, len(srv.Env))
	for k := range srv.Env {
		out.Env[k] = "***"
	}
	return &out
}

// List handles GET /api/mcp/servers.
func (h *MCPHandler) List(w http.ResponseWriter, r *http.Request) {
	servers := h.mcpService.List(r.Context())
	out := make([]*model.MCPServer, len(servers))
	for i, srv := range servers {
		out[i] = redactServer(srv)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "servers": out})
}

// Get handles GET /api/mcp/servers/{id}.
func (h *MCPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid server ID")
		return
	}

	srv, err := h.mcpService.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, redactServer(srv))
}

// Create handles POST /api/mcp/servers.
func (h *MCPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.MCPServerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	srv, err := h.mcpService.Create(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, redactServer(srv))
}

// Update handles PUT /api/mcp/servers/{id}.
func (h *MCPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid server ID")
		return
	}

	var req model.MCPServerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	srv, err := h.mcpService.Update(r.Context(), id, &req)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, redactServer(srv))
}

// Delete handles DELETE /api/mcp/servers/{id}.
func (h *MCPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid server ID")
		return
	}

	if err := h.mcpService.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
