// Package service provides business logic for the agent console.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/halcyon-ai/agent-console/internal/model"
	natsclient "github.com/halcyon-ai/agent-console/internal/nats"
	"github.com/halcyon-ai/agent-console/pkg/logger"
	"github.com/halcyon-ai/agent-console/pkg/metrics"
)

// MessageStore is the slice of the JetStream layer the session service needs.
type MessageStore interface {
	PublishMessage(ctx context.Context, msg *model.Message) (uint64, error)
	GetMessages(ctx context.Context, filterSubject string, afterSequence uint64, limit int) ([]model.Message, uint64, bool, error)
	PurgeSession(ctx context.Context, userID, sessionID string) error
}

// SessionService handles persisted conversation history.
type SessionService struct {
	store  MessageStore
	logger *logger.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(store MessageStore, log *logger.Logger) *SessionService {
	return &SessionService{store: store, logger: log}
}

// SaveMessage persists one message to the session's history.
func (s *SessionService) SaveMessage(ctx context.Context, userID, sessionID string, req *model.SaveMessageRequest) (*model.Message, error) {
	if req.Role != model.RoleUser && req.Role != model.RoleAssistant && req.Role != model.RoleSystem {
		return nil, fmt.Errorf("invalid role: %s", req.Role)
	}
	if req.Content == "" {
		return nil, fmt.Errorf("content is required")
	}

	msg := &model.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    userID,
		SessionID: sessionID,
		Role:      req.Role,
		Content:   req.Content,
		Metadata:  req.Metadata,
		CreatedAt: time.Now(),
	}

	seq, err := s.store.PublishMessage(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}
	msg.Sequence = seq

	metrics.MessagesTotal.WithLabelValues(string(req.Role)).Inc()

	return msg, nil
}

// History retrieves messages for one session in order.
func (s *SessionService) History(ctx context.Context, userID, sessionID string, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	messages, _, _, err := s.store.GetMessages(ctx, natsclient.SessionFilter(userID, sessionID), 0, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	return messages, nil
}

// Search replays a user's history and filters by substring match on content.
func (s *SessionService) Search(ctx context.Context, userID, query string, limit int) ([]model.Message, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if limit <= 0 {
		limit = 50
	}

	needle := strings.ToLower(query)
	var results []model.Message
	var after uint64

	// Page through the user's full history; stop once we have enough hits
	// or the replay runs dry.
	for {
		messages, lastSeq, hasMore, err := s.store.GetMessages(ctx, natsclient.UserFilter(userID), after, 200)
		if err != nil {
			return nil, fmt.Errorf("failed to search history: %w", err)
		}
		for _, msg := range messages {
			if strings.Contains(strings.ToLower(msg.Content), needle) {
				results = append(results, msg)
				if len(results) >= limit {
					return results, nil
				}
			}
		}
		if !hasMore || lastSeq <= after {
			return results, nil
		}
		after = lastSeq
	}
}

// Stats aggregates a user's history into message and session counts.
func (s *SessionService) Stats(ctx context.Context, userID string) (*model.SessionStats, error) {
	stats := &model.SessionStats{}
	sessions := make(map[string]struct{})
	var after uint64

	for {
		messages, lastSeq, hasMore, err := s.store.GetMessages(ctx, natsclient.UserFilter(userID), after, 200)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate history: %w", err)
		}
		for _, msg := range messages {
			stats.TotalMessages++
			sessions[msg.SessionID] = struct{}{}
			created := msg.CreatedAt
			if stats.FirstMessage == nil || created.Before(*stats.FirstMessage) {
				stats.FirstMessage = &created
			}
			if stats.LastMessage == nil || created.After(*stats.LastMessage) {
				stats.LastMessage = &created
			}
		}
		if !hasMore || lastSeq <= after {
			break
		}
		after = lastSeq
	}

	stats.TotalSessions = len(sessions)
	return stats, nil
}

// Export returns a session's full history for download.
func (s *SessionService) Export(ctx context.Context, userID, sessionID string) ([]model.Message, error) {
	var all []model.Message
	var after uint64

	for {
		messages, lastSeq, hasMore, err := s.store.GetMessages(ctx, natsclient.SessionFilter(userID, sessionID), after, 200)
		if err != nil {
			return nil, fmt.Errorf("failed to export session: %w", err)
		}
		all = append(all, messages...)
		if !hasMore || lastSeq <= after {
			return all, nil
		}
		after = lastSeq
	}
}

// Clear removes all persisted messages for one session.
func (s *SessionService) Clear(ctx context.Context, userID, sessionID string) error {
	if err := s.store.PurgeSession(ctx, userID, sessionID); err != nil {
		return err
	}
	s.logger.Info("session cleared", "user_id", userID, "session_id", sessionID)
	return nil
}
