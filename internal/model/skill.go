package model

import (
	"time"
)

// Skill is a user-authored script the assistant can be pointed at.
type Skill struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	SkillType   string         `json:"skill_type"`
	Code        string         `json:"code"`
	Config      map[string]any `json:"config,omitempty"`
	Enabled     bool           `json:"enabled"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// SkillRequest is the create/update body for a skill.
type SkillRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	SkillType   string         `json:"skill_type"`
	Code        string         `json:"code"`
	Config      map[string]any `json:"config,omitempty"`
	Enabled     *bool          `json:"enabled,omitempty"`
}
