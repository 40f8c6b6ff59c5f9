package schema

import "time"

// StreakState is the derived connection streak of a user.
// It is rebuilt from connect events and cached per user.
type StreakState struct {
	UserID         string    `gorm:"primaryKey;size:64" json:"user_id"`
	CurrentStreak  int       `gorm:"not null;default:0" json:"current_streak"`
	BestStreak     int       `gorm:"not null;default:0" json:"best_streak"`
	LastConnection int64     `gorm:"not null;default:0" json:"last_connection"` // Unix ms, 0 = never
	DaysUntilBreak int       `gorm:"-" json:"days_until_break"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName overrides the gorm table name.
func (StreakState) TableName() string {
	return "streak_states"
}
