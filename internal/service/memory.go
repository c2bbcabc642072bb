package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/halcyon-ai/agent-console/internal/model"
	"github.com/halcyon-ai/agent-console/pkg/logger"
)

// MemoryService manages persistent memory notes, scoped per user.
type MemoryService struct {
	logger *logger.Logger

	// In-memory storage for entries (would be replaced with a database in production)
	mu      sync.RWMutex
	entries map[int64]*model.MemoryEntry
	nextID  int64
}

// NewMemoryService creates a new memory service.
func NewMemoryService(log *logger.Logger) *MemoryService {
	return &MemoryService{
		logger:  log,
		entries: make(map[int64]*model.MemoryEntry),
	}
}

// Save creates a memory entry. It also backs the save_memory tool.
func (s *MemoryService) Save(ctx context.Context, userID string, req *model.MemoryRequest) (*model.MemoryEntry, error) {
	if req.Content == "" {
		return nil, fmt.Errorf("content is required")
	}

	memoryType := req.MemoryType
	if memoryType == "" {
		memoryType = "fact"
	}
	importance := req.Importance
	if importance <= 0 {
		importance = 5
	}
	if importance > 10 {
		importance = 10
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.nextID++
	entry := &model.MemoryEntry{
		ID:         s.nextID,
		UserID:     userID,
		MemoryType: memoryType,
		Title:      req.Title,
		Content:    req.Content,
		Metadata:   req.Metadata,
		Tags:       req.Tags,
		Importance: importance,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.entries[entry.ID] = entry

	s.logger.Debug("memory saved", "memory_id", entry.ID, "user_id", userID, "type", memoryType)

	return entry, nil
}

// Get retrieves one memory entry scoped to a user.
func (s *MemoryService) Get(ctx context.Context, userID string, id int64) (*model.MemoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.entries[id]
	if !exists || entry.UserID != userID {
		return nil, fmt.Errorf("memory entry not found")
	}
	return entry, nil
}

// List returns a user's memory entries, optionally filtered by type, highest
// importance first.
func (s *MemoryService) List(ctx context.Context, userID, memoryType string, limit int) []*model.MemoryEntry {
	if limit <= 0 {
		limit = 50
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.MemoryEntry
	for _, entry := range s.entries {
		if entry.UserID != userID {
			continue
		}
		if memoryType != "" && entry.MemoryType != memoryType {
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Importance != out[j].Importance {
			return out[i].Importance > out[j].Importance
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Search matches a query against titles, content, and tags. It also backs
// the recall_memory tool.
func (s *MemoryService) Search(ctx context.Context, userID, query string, limit int) ([]*model.MemoryEntry, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if limit <= 0 {
		limit = 5
	}

	needle := strings.ToLower(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.MemoryEntry
	for _, entry := range s.entries {
		if entry.UserID != userID {
			continue
		}
		if matchesMemory(entry, needle) {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Importance != out[j].Importance {
			return out[i].Importance > out[j].Importance
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func matchesMemory(entry *model.MemoryEntry, needle string) bool {
	if strings.Contains(strings.ToLower(entry.Title), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(entry.Content), needle) {
		return true
	}
	for _, tag := range entry.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// Update modifies a memory entry.
func (s *MemoryService) Update(ctx context.Context, userID string, id int64, req *model.MemoryRequest) (*model.MemoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.entries[id]
	if !exists || entry.UserID != userID {
		return nil, fmt.Errorf("memory entry not found")
	}

	if req.Title != "" {
		entry.Title = req.Title
	}
	if req.Content != "" {
		entry.Content = req.Content
	}
	if req.MemoryType != "" {
		entry.MemoryType = req.MemoryType
	}
	if req.Metadata != nil {
		entry.Metadata = req.Metadata
	}
	if req.Tags != nil {
		entry.Tags = req.Tags
	}
	if req.Importance > 0 {
		entry.Importance = req.Importance
	}
	entry.UpdatedAt = time.Now()

	return entry, nil
}

// Delete removes a memory entry.
func (s *MemoryService) Delete(ctx context.Context, userID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.entries[id]
	if !exists || entry.UserID != userID {
		return fmt.Errorf("memory entry not found")
	}
	delete(s.entries, id)
	return nil
}
