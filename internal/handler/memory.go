package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/halcyon-ai/agent-console/internal/middleware"
	"github.com/halcyon-ai/agent-console/internal/model"
	"github.com/halcyon-ai/agent-console/internal/service"
	"github.com/halcyon-ai/agent-console/pkg/logger"
)

// MemoryHandler handles memory note endpoints.
type MemoryHandler struct {
	memoryService *service.MemoryService
	logger        *logger.Logger
}

// NewMemoryHandler creates a new memory handler.
func NewMemoryHandler(memSvc *service.MemoryService, log *logger.Logger) *MemoryHandler {
	return &MemoryHandler{memoryService: memSvc, logger: log}
}

// List handles GET /api/memory.
func (h *MemoryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}

	entries := h.memoryService.List(ctx, userID, r.URL.Query().Get("type"), limit)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "entries": entries})
}

// Search handles GET /api/memory/search?q=...
func (h *MemoryHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	limit := 5
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}

	entries, err := h.memoryService.Search(ctx, userID, query, limit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "entries": entries, "count": len(entries)})
}

// Get handles GET /api/memory/{id}.
func (h *MemoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid memory ID")
		return
	}

	entry, err := h.memoryService.Get(ctx, middleware.GetUserID(ctx), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Create handles POST /api/memory.
func (h *MemoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.MemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.memoryService.Save(ctx, middleware.GetUserID(ctx), &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// Update handles PUT /api/memory/{id}.
func (h *MemoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid memory ID")
		return
	}

	var req model.MemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.memoryService.Update(ctx, middleware.GetUserID(ctx), id, &req)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Delete handles DELETE /api/memory/{id}.
func (h *MemoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid memory ID")
		return
	}

	if err := h.memoryService.Delete(ctx, middleware.GetUserID(ctx), id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
