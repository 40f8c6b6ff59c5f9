package schema

import "time"

// Badge is an achievement definition.
type Badge struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Icon        string    `gorm:"size:50" json:"icon"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName overrides the gorm table name.
func (Badge) TableName() string {
	return "badges"
}

// BadgeGrant records that a user earned a badge. (UserID, BadgeID) is unique.
type BadgeGrant struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:uniq_badge_grant,priority:1" json:"user_id"`
	BadgeID   string    `gorm:"size:64;not null;uniqueIndex:uniq_badge_grant,priority:2" json:"badge_id"`
	GrantedAt time.Time `gorm:"not null" json:"granted_at"`
}

// TableName overrides the gorm table name.
func (BadgeGrant) TableName() string {
	return "badge_grants"
}
