package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/yuqie6/SkillBridge/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository is the append-only activity ledger.
type LedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates the repository.
func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Append writes events and credits each owner's profile total in the same
// transaction. Events whose DedupeKey already exists are skipped; only the
// events actually written are returned.
func (r *LedgerRepository) Append(ctx context.Context, events ...schema.ActivityEvent) ([]schema.ActivityEvent, error) {
	if len(events) == 0 {
		return nil, nil
	}

	appended := make([]schema.ActivityEvent, 0, len(events))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profiles := NewProfileRepository(tx)
		for i := range events {
			e := events[i]
			if e.ID == "" {
				e.ID = uuid.NewString()
			}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&e)
			if res.Error != nil {
				return fmt.Errorf("append activity failed: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				continue
			}
			if err := profiles.AddPoints(ctx, e.UserID, e.Points); err != nil {
				return err
			}
			appended = append(appended, e)
		}
		return nil
	})
	if err != nil {
		slog.Error("ledger append failed", "count", len(events), "error", err)
		return nil, err
	}

	slog.Debug("ledger append", "requested", len(events), "written", len(appended))
	return appended, nil
}

// ListByUser returns userID's events in timestamp order, optionally restricted to kinds.
func (r *LedgerRepository) ListByUser(ctx context.Context, userID string, kinds ...schema.ActionKind) ([]schema.ActivityEvent, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if len(kinds) > 0 {
		q = q.Where("kind IN ?", kinds)
	}
	var out []schema.ActivityEvent
	if err := q.Order("timestamp ASC, created_at ASC, id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("query activity failed: %w", err)
	}
	return out, nil
}

// Recent returns userID's latest events, newest first.
func (r *LedgerRepository) Recent(ctx context.Context, userID string, limit int) ([]schema.ActivityEvent, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("timestamp DESC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []schema.ActivityEvent
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("query activity failed: %w", err)
	}
	return out, nil
}

// CountByKind counts userID's events of kind.
func (r *LedgerRepository) CountByKind(ctx context.Context, userID string, kind schema.ActionKind) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&schema.ActivityEvent{}).
		Where("user_id = ? AND kind = ?", userID, kind).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count activity failed: %w", err)
	}
	return n, nil
}

// SumByUser totals userID's points from the ledger.
func (r *LedgerRepository) SumByUser(ctx context.Context, userID string) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&schema.ActivityEvent{}).
		Select("COALESCE(SUM(points), 0)").
		Where("user_id = ?", userID).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum activity failed: %w", err)
	}
	return int(total), nil
}
