package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories over one gorm handle, which is either the
// root connection or an open transaction.
type Store struct {
	db *gorm.DB

	Profiles      *ProfileRepository
	Connections   *ConnectionRepository
	Ledger        *LedgerRepository
	Streaks       *StreakRepository
	Badges        *BadgeRepository
	Suggestions   *SuggestionRepository
	Notifications *NotificationRepository
	Swaps         *SkillSwapRepository
	Endorsements  *EndorsementRepository
	Sessions      *LearningSessionRepository
}

// NewStore builds every repository over db.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Profiles:      NewProfileRepository(db),
		Connections:   NewConnectionRepository(db),
		Ledger:        NewLedgerRepository(db),
		Streaks:       NewStreakRepository(db),
		Badges:        NewBadgeRepository(db),
		Suggestions:   NewSuggestionRepository(db),
		Notifications: NewNotificationRepository(db),
		Swaps:         NewSkillSwapRepository(db),
		Endorsements:  NewEndorsementRepository(db),
		Sessions:      NewLearningSessionRepository(db),
	}
}

// Transaction runs fn against a Store bound to one transaction.
// Nested calls become savepoints.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
