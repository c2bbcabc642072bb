package handler

import (
	"encoding/json"
	"net/http"

	"github.com/halcyon-ai/agent-console/internal/model"
	"github.com/halcyon-ai/agent-console/internal/service"
	"github.com/halcyon-ai/agent-console/pkg/logger"
)

// SkillHandler handles skill endpoints.
type SkillHandler struct {
	skillService *service.SkillService
	logger       *logger.Logger
}

// NewSkillHandler creates a new skill handler.
func NewSkillHandler(skillSvc *service.SkillService, log *logger.Logger) *SkillHandler {
	return &SkillHandler{skillService: skillSvc, logger: log}
}

// List handles GET /api/skills.
func (h *SkillHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "skills": h.skillService.List(r.Context())})
}

// Get handles GET /api/skills/{id}.
func (h *SkillHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid skill ID")
		return
	}

	skill, err := h.skillService.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, skill)
}

// Create handles POST /api/skills.
func (h *SkillHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.SkillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	skill, err := h.skillService.Create(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, skill)
}

// Update handles PUT /api/skills/{id}.
func (h *SkillHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid skill ID")
		return
	}

	var req model.SkillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	skill, err := h.skillService.Update(r.Context(), id, &req)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, skill)
}

// Delete handles DELETE /api/skills/{id}.
func (h *SkillHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid skill ID")
		return
	}

	if err := h.skillService.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
