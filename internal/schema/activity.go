package schema

import "time"

// ActionKind enumerates point-earning actions.
type ActionKind string

const (
	ActionConnect            ActionKind = "connect"
	ActionMeet               ActionKind = "meet"
	ActionSwap               ActionKind = "swap"
	ActionIcebreaker         ActionKind = "icebreaker"
	ActionTeachSession       ActionKind = "teach_session"
	ActionCompleteLearning   ActionKind = "complete_learning"
	ActionEndorseSkill       ActionKind = "endorse_skill"
	ActionReceiveEndorsement ActionKind = "receive_endorsement"
	ActionStreakBonus        ActionKind = "streak_bonus"
)

// DefaultPoints is the point value credited per action.
var DefaultPoints = map[ActionKind]int{
	ActionConnect:            10,
	ActionMeet:               10,
	ActionSwap:               15,
	ActionIcebreaker:         5,
	ActionTeachSession:       20,
	ActionCompleteLearning:   15,
	ActionEndorseSkill:       5,
	ActionReceiveEndorsement: 10,
	ActionStreakBonus:        50,
}

// Valid reports whether k is a known action.
func (k ActionKind) Valid() bool {
	_, ok := DefaultPoints[k]
	return ok
}

// ActivityEvent is one immutable ledger entry.
// DedupeKey is optional; when set, a second append with the same key is a no-op.
type ActivityEvent struct {
	ID        string     `gorm:"primaryKey;size:64" json:"id"`
	UserID    string     `gorm:"size:64;not null;index:idx_activity_user_kind,priority:1" json:"user_id"`
	Kind      ActionKind `gorm:"size:32;not null;index:idx_activity_user_kind,priority:2" json:"kind"`
	Points    int        `gorm:"not null" json:"points"`
	Metadata  JSONMap    `gorm:"type:text" json:"metadata,omitempty"`
	Timestamp int64      `gorm:"index;not null" json:"timestamp"` // Unix ms
	DedupeKey *string    `gorm:"size:255;uniqueIndex" json:"-"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName overrides the gorm table name.
func (ActivityEvent) TableName() string {
	return "activity_events"
}

// Time returns the event timestamp.
func (e ActivityEvent) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}
