package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/halcyon-ai/agent-console/internal/middleware"
	"github.com/halcyon-ai/agent-console/internal/model"
	"github.com/halcyon-ai/agent-console/internal/service"
	"github.com/halcyon-ai/agent-console/pkg/logger"
)

// ChatHandler handles the streaming chat endpoint and model selection.
type ChatHandler struct {
	chatService    *service.ChatService
	sessionService *service.SessionService
	logger         *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chatSvc *service.ChatService, sessionSvc *service.SessionService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		chatService:    chatSvc,
		sessionService: sessionSvc,
		logger:         log,
	}
}

func sessionFromRequest(r *http.Request) string {
	if id := r.URL.Query().Get("session_id"); id != "" {
		return id
	}
	if id := middleware.GetSessionID(r.Context()); id != "" {
		return id
	}
	return "default"
}

// Chat handles POST /api/chat. Slash commands return a single JSON response;
// everything else streams `data: <json>` records.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	sessionID := sessionFromRequest(r)

	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateMessageContent(req.Message); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Slash commands short-circuit the streaming path.
	if resp, ok := h.chatService.Command(ctx, req.Message); ok {
		if resp.Clear {
			if err := h.sessionService.Clear(ctx, userID, sessionID); err != nil {
				h.logger.Error("failed to clear session", "error", err, "session_id", sessionID)
				writeError(w, http.StatusInternalServerError, "failed to clear session")
				return
			}
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// A turn with several tool rounds can outlive the server write timeout;
	// clear the deadline for this response only.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("failed to clear write deadline", "error", err)
	}

	err := h.chatService.Stream(ctx, userID, sessionID, &req, func(rec model.StreamRecord) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		return sendRecord(w, flusher, rec)
	})
	if err != nil {
		// The connection is already streaming; all we can do is log.
		h.logger.Warn("chat stream ended early", "error", err, "user_id", userID, "session_id", sessionID)
	}
}

// GetModel handles GET /api/model.
func (h *ChatHandler) GetModel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"model": h.chatService.Model()})
}

// SetModel handles POST /api/model.
func (h *ChatHandler) SetModel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model string `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.chatService.SetModel(req.Model); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"model": h.chatService.Model()})
}

func sendRecord(w http.ResponseWriter, flusher http.Flusher, rec model.StreamRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
