package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuqie6/SkillBridge/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StreakRepository caches derived streak state per user.
type StreakRepository struct {
	db *gorm.DB
}

// NewStreakRepository creates the repository.
func NewStreakRepository(db *gorm.DB) *StreakRepository {
	return &StreakRepository{db: db}
}

// Get returns the cached state, or nil when none was derived yet.
func (r *StreakRepository) Get(ctx context.Context, userID string) (*schema.StreakState, error) {
	var st schema.StreakState
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&st).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query streak failed: %w", err)
	}
	return &st, nil
}

// Upsert stores the derived state.
func (r *StreakRepository) Upsert(ctx context.Context, st *schema.StreakState) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"current_streak", "best_streak", "last_connection", "updated_at"}),
	}).Create(st).Error
	if err != nil {
		return fmt.Errorf("upsert streak failed: %w", err)
	}
	return nil
}
