package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/yuqie6/SkillBridge/internal/schema"
	"gorm.io/gorm"
)

// SkillSwapRepository persists skill swaps.
type SkillSwapRepository struct {
	db *gorm.DB
}

// NewSkillSwapRepository creates the repository.
func NewSkillSwapRepository(db *gorm.DB) *SkillSwapRepository {
	return &SkillSwapRepository{db: db}
}

// Create stores a swap.
func (r *SkillSwapRepository) Create(ctx context.Context, s *schema.SkillSwap) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("create skill swap failed: %w", err)
	}
	return nil
}

// ListByUser returns swaps where userID taught or learned, newest first.
func (r *SkillSwapRepository) ListByUser(ctx context.Context, userID string) ([]schema.SkillSwap, error) {
	var out []schema.SkillSwap
	err := r.db.WithContext(ctx).
		Where("teacher_id = ? OR learner_id = ?", userID, userID).
		Order("created_at DESC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("query skill swaps failed: %w", err)
	}
	return out, nil
}

// EndorsementRepository persists skill endorsements.
type EndorsementRepository struct {
	db *gorm.DB
}

// NewEndorsementRepository creates the repository.
func NewEndorsementRepository(db *gorm.DB) *EndorsementRepository {
	return &EndorsementRepository{db: db}
}

// Create stores an endorsement.
func (r *EndorsementRepository) Create(ctx context.Context, e *schema.Endorsement) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("create endorsement failed: %w", err)
	}
	return nil
}

// ListForUser returns endorsements received by userID, newest first.
func (r *EndorsementRepository) ListForUser(ctx context.Context, userID string) ([]schema.Endorsement, error) {
	var out []schema.Endorsement
	err := r.db.WithContext(ctx).
		Where("endorsed_user_id = ?", userID).
		Order("created_at DESC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("query endorsements failed: %w", err)
	}
	return out, nil
}

// LearningSessionRepository persists learning sessions.
type LearningSessionRepository struct {
	db *gorm.DB
}

// NewLearningSessionRepository creates the repository.
func NewLearningSessionRepository(db *gorm.DB) *LearningSessionRepository {
	return &LearningSessionRepository{db: db}
}

// Create stores a session request.
func (r *LearningSessionRepository) Create(ctx context.Context, s *schema.LearningSession) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("create learning session failed: %w", err)
	}
	return nil
}

// GetByID loads one session.
func (r *LearningSessionRepository) GetByID(ctx context.Context, id string) (*schema.LearningSession, error) {
	var s schema.LearningSession
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, notFound(err, "learning session", id)
	}
	return &s, nil
}

// Transition moves a session out of from; false when it already moved.
func (r *LearningSessionRepository) Transition(ctx context.Context, id string, from, to schema.SessionStatus, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&schema.LearningSession{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": at})
	if res.Error != nil {
		return false, fmt.Errorf("transition learning session failed: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ListForUser returns sessions where userID teaches or learns, newest first.
func (r *LearningSessionRepository) ListForUser(ctx context.Context, userID string) ([]schema.LearningSession, error) {
	var out []schema.LearningSession
	err := r.db.WithContext(ctx).
		Where("teacher_id = ? OR learner_id = ?", userID, userID).
		Order("created_at DESC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("query learning sessions failed: %w", err)
	}
	return out, nil
}
