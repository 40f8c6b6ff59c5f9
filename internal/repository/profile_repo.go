package repository

import (
	"context"
	"fmt"

	"github.com/yuqie6/SkillBridge/internal/pkg/apperrors"
	"github.com/yuqie6/SkillBridge/internal/schema"
	"gorm.io/gorm"
)

// ProfileRepository persists profiles.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates the repository.
func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create inserts a profile; a second profile for the same user fails with ErrDuplicate.
func (r *ProfileRepository) Create(ctx context.Context, p *schema.Profile) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("profile for user %q: %w", p.UserID, apperrors.ErrDuplicate)
		}
		return fmt.Errorf("create profile failed: %w", err)
	}
	return nil
}

// GetByUserID loads the profile owned by userID.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*schema.Profile, error) {
	var p schema.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, notFound(err, "profile", userID)
	}
	return &p, nil
}

// GetByUserIDs loads the profiles of userIDs; missing ids are simply absent.
func (r *ProfileRepository) GetByUserIDs(ctx context.Context, userIDs []string) ([]schema.Profile, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var out []schema.Profile
	if err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Order("created_at ASC, id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("query profiles failed: %w", err)
	}
	return out, nil
}

// UpdateOwnerFields writes the fields a user may edit on their own profile.
func (r *ProfileRepository) UpdateOwnerFields(ctx context.Context, p *schema.Profile) error {
	res := r.db.WithContext(ctx).Model(&schema.Profile{}).
		Where("user_id = ?", p.UserID).
		Select("name", "role", "bio", "skills", "working_styles", "learning_now", "can_teach", "visible").
		Updates(p)
	if res.Error != nil {
		return fmt.Errorf("update profile failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("profile", p.UserID)
	}
	return nil
}

// ListVisible returns visible profiles except excludeUserID, in creation order.
// Creation order is the stable input order used for scoring and ranking ties.
func (r *ProfileRepository) ListVisible(ctx context.Context, excludeUserID string) ([]schema.Profile, error) {
	q := r.db.WithContext(ctx).Where("visible = ?", true)
	if excludeUserID != "" {
		q = q.Where("user_id <> ?", excludeUserID)
	}
	var out []schema.Profile
	if err := q.Order("created_at ASC, id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("query visible profiles failed: %w", err)
	}
	return out, nil
}

// AddPoints increments the denormalized point total.
func (r *ProfileRepository) AddPoints(ctx context.Context, userID string, delta int) error {
	res := r.db.WithContext(ctx).Model(&schema.Profile{}).
		Where("user_id = ?", userID).
		UpdateColumn("total_points", gorm.Expr("total_points + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("add points failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("profile", userID)
	}
	return nil
}

// SetPoints overwrites the denormalized point total.
func (r *ProfileRepository) SetPoints(ctx context.Context, userID string, total int) error {
	res := r.db.WithContext(ctx).Model(&schema.Profile{}).
		Where("user_id = ?", userID).
		UpdateColumn("total_points", total)
	if res.Error != nil {
		return fmt.Errorf("set points failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("profile", userID)
	}
	return nil
}

// IncrementConnections bumps connection_count for each user.
func (r *ProfileRepository) IncrementConnections(ctx context.Context, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&schema.Profile{}).
		Where("user_id IN ?", userIDs).
		UpdateColumn("connection_count", gorm.Expr("connection_count + 1"))
	if res.Error != nil {
		return fmt.Errorf("increment connections failed: %w", res.Error)
	}
	return nil
}

// SetConnectionCount overwrites connection_count, used when reconciling.
func (r *ProfileRepository) SetConnectionCount(ctx context.Context, userID string, count int) error {
	res := r.db.WithContext(ctx).Model(&schema.Profile{}).
		Where("user_id = ?", userID).
		UpdateColumn("connection_count", count)
	if res.Error != nil {
		return fmt.Errorf("set connection count failed: %w", res.Error)
	}
	return nil
}

// ListUserIDs returns every profile owner, in creation order.
func (r *ProfileRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&schema.Profile{}).Order("created_at ASC, id ASC").Pluck("user_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("query profile ids failed: %w", err)
	}
	return ids, nil
}
