package schema

import "time"

// SchemaMeta records the migrated schema version so upgrades are gated
// explicitly instead of relying on AutoMigrate alone. Single row, ID=1.
type SchemaMeta struct {
	ID            int       `gorm:"primaryKey"`
	SchemaVersion int       `gorm:"not null"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (SchemaMeta) TableName() string {
	return "schema_meta"
}

// Models lists every table the engine owns, in migration order.
func Models() []any {
	return []any{
		&SchemaMeta{},
		&Profile{},
		&ConnectionRequest{},
		&ActivityEvent{},
		&StreakState{},
		&Badge{},
		&BadgeGrant{},
		&MatchSuggestion{},
		&Notification{},
		&SkillSwap{},
		&Endorsement{},
		&LearningSession{},
	}
}
