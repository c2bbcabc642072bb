package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/halcyon-ai/agent-console/internal/middleware"
	"github.com/halcyon-ai/agent-console/internal/model"
	"github.com/halcyon-ai/agent-console/internal/service"
	"github.com/halcyon-ai/agent-console/pkg/logger"
)

// OperationHandler handles the operation log and the approval flow.
type OperationHandler struct {
	operationService *service.OperationService
	logger           *logger.Logger
}

// NewOperationHandler creates a new operation handler.
func NewOperationHandler(opSvc *service.OperationService, log *logger.Logger) *OperationHandler {
	return &OperationHandler{operationService: opSvc, logger: log}
}

func operationID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// List handles GET /api/operations.
func (h *OperationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}

	ops := h.operationService.List(ctx, userID, limit)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "operations": ops})
}

// Pending handles GET /api/operations/pending.
func (h *OperationHandler) Pending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ops := h.operationService.Pending(ctx, middleware.GetUserID(ctx))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "operations": ops})
}

// Stats handles GET /api/operations/stats.
func (h *OperationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	writeJSON(w, http.StatusOK, h.operationService.Stats(ctx, middleware.GetUserID(ctx)))
}

// Get handles GET /api/operations/{id}.
func (h *OperationHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := operationID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid operation ID")
		return
	}

	op, err := h.operationService.Get(ctx, middleware.GetUserID(ctx), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, op)
}

// Approve handles POST /api/operations/{id}/approve. The approved operation
// executes before the response is written; the result rides back in it.
func (h *OperationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	id, err := operationID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid operation ID")
		return
	}

	resp, err := h.operationService.Approve(ctx, userID, id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Reject handles POST /api/operations/{id}/reject.
func (h *OperationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	id, err := operationID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid operation ID")
		return
	}

	var req model.RejectRequest
	if r.Body != nil {
		// Reason is optional; an empty body is fine.
		json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.operationService.Reject(ctx, userID, id, req.Reason); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
