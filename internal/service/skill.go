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

// SkillService manages user-authored skills.
type SkillService struct {
	logger *logger.Logger

	// In-memory storage for skills (would be replaced with a database in production)
	mu     sync.RWMutex
	skills map[int64]*model.Skill
	nextID int64
}

// NewSkillService creates a new skill service.
func NewSkillService(log *logger.Logger) *SkillService {
	return &SkillService{
		logger: log,
		skills: make(map[int64]*model.Skill),
	}
}

// Create registers a new skill.
func (s *SkillService) Create(ctx context.Context, req *model.SkillRequest) (*model.Skill, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if req.Code == "" {
		return nil, fmt.Errorf("code is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, skill := range s.skills {
		if skill.Name == req.Name {
			return nil, fmt.Errorf("skill %q already exists", req.Name)
		}
	}

	now := time.Now()
	s.nextID++
	skillType := req.SkillType
	if skillType == "" {
		skillType = "script"
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	skill := &model.Skill{
		ID:          s.nextID,
		Name:        req.Name,
		Description: req.Description,
		SkillType:   skillType,
		Code:        req.Code,
		Config:      req.Config,
		Enabled:     enabled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.skills[skill.ID] = skill

	s.logger.Info("skill created", "skill_id", skill.ID, "name", skill.Name)

	return skill, nil
}

// Get retrieves one skill.
func (s *SkillService) Get(ctx context.Context, id int64) (*model.Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	skill, exists := s.skills[id]
	if !exists {
		return nil, fmt.Errorf("skill not found")
	}
	return skill, nil
}

// List returns all skills ordered by ID.
func (s *SkillService) List(ctx context.Context) []*model.Skill {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Skill, 0, len(s.skills))
	for _, skill := range s.skills {
		out = append(out, skill)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Update modifies a skill.
func (s *SkillService) Update(ctx context.Context, id int64, req *model.SkillRequest) (*model.Skill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	skill, exists := s.skills[id]
	if !exists {
		return nil, fmt.Errorf("skill not found")
	}

	if req.Name != "" {
		skill.Name = req.Name
	}
	if req.Description != "" {
		skill.Description = req.Description
	}
	if req.SkillType != "" {
		skill.SkillType = req.SkillType
	}
	if req.Code != "" {
		skill.Code = req.Code
	}
	if req.Config != nil {
		skill.Config = req.Config
	}
	if req.Enabled != nil {
		skill.Enabled = *req.Enabled
	}
	skill.UpdatedAt = time.Now()

	return skill, nil
}

// Delete removes a skill.
func (s *SkillService) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.skills[id]; !exists {
		return fmt.Errorf("skill not found")
	}
	delete(s.skills, id)

	s.logger.Info("skill deleted", "skill_id", id)
	return nil
}
