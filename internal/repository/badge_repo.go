package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/yuqie6/SkillBridge/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BadgeRepository persists the badge catalog and grants.
type BadgeRepository struct {
	db *gorm.DB
}

// NewBadgeRepository creates the repository.
func NewBadgeRepository(db *gorm.DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// EnsureCatalog inserts badge definitions that do not exist yet.
func (r *BadgeRepository) EnsureCatalog(ctx context.Context, badges []schema.Badge) error {
	if len(badges) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&badges).Error; err != nil {
		return fmt.Errorf("seed badges failed: %w", err)
	}
	return nil
}

// Catalog lists badge definitions.
func (r *BadgeRepository) Catalog(ctx context.Context) ([]schema.Badge, error) {
	var out []schema.Badge
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("query badges failed: %w", err)
	}
	return out, nil
}

// Grant records (userID, badgeID) unless it already exists. It reports
// whether this call created the grant, so racing evaluators grant once.
func (r *BadgeRepository) Grant(ctx context.Context, userID, badgeID string, at time.Time) (*schema.BadgeGrant, bool, error) {
	g := schema.BadgeGrant{UserID: userID, BadgeID: badgeID, GrantedAt: at}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&g)
	if res.Error != nil {
		return nil, false, fmt.Errorf("grant badge failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, false, nil
	}
	return &g, true, nil
}

// ListGrants returns userID's grants, oldest first.
func (r *BadgeRepository) ListGrants(ctx context.Context, userID string) ([]schema.BadgeGrant, error) {
	var out []schema.BadgeGrant
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("granted_at ASC, id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("query badge grants failed: %w", err)
	}
	return out, nil
}

// GrantedIDs returns the set of badge ids userID holds.
func (r *BadgeRepository) GrantedIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	grants, err := r.ListGrants(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(grants))
	for _, g := range grants {
		out[g.BadgeID] = struct{}{}
	}
	return out, nil
}
