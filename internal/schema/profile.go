package schema

import (
	"strings"
	"time"
)

// UnknownDepartment groups profiles without a role.
const UnknownDepartment = "Unknown Department"

// Profile is a user's networking profile.
// Volume: thousands of rows per organisation.
type Profile struct {
	ID              string    `gorm:"primaryKey;size:64" json:"id"`
	UserID          string    `gorm:"size:64;uniqueIndex;not null" json:"user_id"`
	Name            string    `gorm:"size:255;not null" json:"name"`
	Role            string    `gorm:"size:255;index" json:"role"` // department
	Bio             string    `gorm:"type:text" json:"bio"`
	Skills          JSONArray `gorm:"type:text" json:"skills"`         // ordered skill ids
	WorkingStyles   JSONArray `gorm:"type:text" json:"working_styles"` // e.g. "async", "pairing"
	LearningNow     string    `gorm:"size:512" json:"learning_now"`
	CanTeach        string    `gorm:"size:512" json:"can_teach"`
	TotalPoints     int       `gorm:"not null;default:0" json:"total_points"`
	ConnectionCount int       `gorm:"not null;default:0" json:"connection_count"`
	Visible         bool      `gorm:"not null;index" json:"visible"`
	CanTeachAtSetup bool      `gorm:"not null;default:false" json:"can_teach_at_setup"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName overrides the gorm table name.
func (Profile) TableName() string {
	return "profiles"
}

// Department returns the leaderboard grouping key.
func (p Profile) Department() string {
	if r := strings.TrimSpace(p.Role); r != "" {
		return r
	}
	return UnknownDepartment
}

// HasSkill reports whether skillID is on the profile.
func (p Profile) HasSkill(skillID string) bool {
	for _, s := range p.Skills {
		if s == skillID {
			return true
		}
	}
	return false
}
