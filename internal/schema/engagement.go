package schema

import "time"

// SkillSwap is a logged knowledge exchange; the teacher earns the points.
type SkillSwap struct {
	ID           string    `gorm:"primaryKey;size:64" json:"id"`
	TeacherID    string    `gorm:"size:64;not null;index" json:"teacher_id"`
	LearnerID    string    `gorm:"size:64;not null;index" json:"learner_id"`
	SkillTaught  string    `gorm:"size:255;not null" json:"skill_taught"`
	SkillLearned string    `gorm:"size:255;not null" json:"skill_learned"`
	Notes        string    `gorm:"type:text" json:"notes,omitempty"`
	Rating       int       `gorm:"not null;default:0" json:"rating,omitempty"` // 1-5, 0 = unrated
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName overrides the gorm table name.
func (SkillSwap) TableName() string {
	return "skill_swaps"
}

// Endorsement is one user vouching for a skill of another.
type Endorsement struct {
	ID             string    `gorm:"primaryKey;size:64" json:"id"`
	EndorserID     string    `gorm:"size:64;not null;index" json:"endorser_id"`
	EndorsedUserID string    `gorm:"size:64;not null;index" json:"endorsed_user_id"`
	SkillID        string    `gorm:"size:100;not null" json:"skill_id"`
	Message        string    `gorm:"type:text" json:"message"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName overrides the gorm table name.
func (Endorsement) TableName() string {
	return "endorsements"
}

// SessionStatus is the state of a learning session.
type SessionStatus string

const (
	SessionRequested SessionStatus = "requested"
	SessionAccepted  SessionStatus = "accepted"
	SessionDeclined  SessionStatus = "declined"
	SessionCompleted SessionStatus = "completed"
)

// LearningSession is a short teaching slot a learner requests from a teacher.
type LearningSession struct {
	ID              string        `gorm:"primaryKey;size:64" json:"id"`
	TeacherID       string        `gorm:"size:64;not null;index" json:"teacher_id"`
	LearnerID       string        `gorm:"size:64;not null;index" json:"learner_id"`
	SkillTopic      string        `gorm:"size:255;not null" json:"skill_topic"`
	SessionType     string        `gorm:"size:32;not null;default:'virtual'" json:"session_type"` // virtual, in_person
	ScheduledAt     *time.Time    `json:"scheduled_at,omitempty"`
	DurationMinutes int           `gorm:"not null;default:15" json:"duration_minutes"`
	Status          SessionStatus `gorm:"size:16;not null;index" json:"status"`
	Notes           string        `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// TableName overrides the gorm table name.
func (LearningSession) TableName() string {
	return "learning_sessions"
}
