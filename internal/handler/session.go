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

// SessionHandler handles history, search, stats, export, and clearing.
type SessionHandler struct {
	sessionService *service.SessionService
	logger         *logger.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sessionSvc *service.SessionService, log *logger.Logger) *SessionHandler {
	return &SessionHandler{sessionService: sessionSvc, logger: log}
}

// SaveMessage handles POST /api/save-message.
func (h *SessionHandler) SaveMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	sessionID := sessionFromRequest(r)

	var req model.SaveMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.sessionService.SaveMessage(ctx, userID, sessionID, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": msg.ID})
}

// History handles GET /api/history.
func (h *SessionHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	sessionID := sessionFromRequest(r)

	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}

	messages, err := h.sessionService.History(ctx, userID, sessionID, limit)
	if err != nil {
		h.logger.Error("failed to load history", "error", err, "session_id", sessionID)
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	writeJSON(w, http.StatusOK, model.HistoryResponse{Success: true, History: messages})
}

// Search handles GET /api/history/search?q=...
func (h *SessionHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}

	results, err := h.sessionService.Search(ctx, userID, query, limit)
	if err != nil {
		h.logger.Error("history search failed", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, model.SearchResponse{Success: true, Results: results, Count: len(results)})
}

// Stats handles GET /api/history/stats.
func (h *SessionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	stats, err := h.sessionService.Stats(ctx, userID)
	if err != nil {
		h.logger.Error("failed to aggregate stats", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to aggregate stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Export handles GET /api/history/export.
func (h *SessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	sessionID := sessionFromRequest(r)

	messages, err := h.sessionService.Export(ctx, userID, sessionID)
	if err != nil {
		h.logger.Error("failed to export session", "error", err, "session_id", sessionID)
		writeError(w, http.StatusInternalServerError, "failed to export session")
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="session-`+sessionID+`.json"`)
	writeJSON(w, http.StatusOK, map[string]any{"session_id": sessionID, "messages": messages})
}

// Clear handles DELETE /api/history.
func (h *SessionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	sessionID := sessionFromRequest(r)

	if err := h.sessionService.Clear(ctx, userID, sessionID); err != nil {
		h.logger.Error("failed to clear session", "error", err, "session_id", sessionID)
		writeError(w, http.StatusInternalServerError, "failed to clear session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
