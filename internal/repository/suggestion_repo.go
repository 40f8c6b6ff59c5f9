package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/yuqie6/SkillBridge/internal/schema"
	"gorm.io/gorm"
)

// SuggestionRepository persists generated match suggestions.
type SuggestionRepository struct {
	db *gorm.DB
}

// NewSuggestionRepository creates the repository.
func NewSuggestionRepository(db *gorm.DB) *SuggestionRepository {
	return &SuggestionRepository{db: db}
}

// ReplacePending drops subjectID's pending suggestions and writes fresh ones.
// Connected and dismissed rows are kept; they gate the rest of their cycle.
func (r *SuggestionRepository) ReplacePending(ctx context.Context, subjectID string, fresh []schema.MatchSuggestion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("subject_id = ? AND status = ?", subjectID, schema.SuggestionPending).
			Delete(&schema.MatchSuggestion{}).Error; err != nil {
			return fmt.Errorf("clear pending suggestions failed: %w", err)
		}
		if len(fresh) == 0 {
			return nil
		}
		if err := tx.Create(&fresh).Error; err != nil {
			return fmt.Errorf("create suggestions failed: %w", err)
		}
		return nil
	})
}

// GetByID loads one suggestion.
func (r *SuggestionRepository) GetByID(ctx context.Context, id string) (*schema.MatchSuggestion, error) {
	var s schema.MatchSuggestion
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, notFound(err, "suggestion", id)
	}
	return &s, nil
}

// ListByStatus returns subjectID's suggestions with status, best score first.
// Equal scores keep generation order.
func (r *SuggestionRepository) ListByStatus(ctx context.Context, subjectID string, status schema.SuggestionStatus, limit int) ([]schema.MatchSuggestion, error) {
	q := r.db.WithContext(ctx).
		Where("subject_id = ? AND status = ?", subjectID, status).
		Order("score DESC, gen_order ASC, created_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []schema.MatchSuggestion
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("query suggestions failed: %w", err)
	}
	return out, nil
}

// TerminalCandidates returns candidates subjectID connected with or dismissed during cycle.
func (r *SuggestionRepository) TerminalCandidates(ctx context.Context, subjectID, cycle string) (map[string]struct{}, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&schema.MatchSuggestion{}).
		Where("subject_id = ? AND cycle = ? AND status IN ?", subjectID, cycle,
			[]schema.SuggestionStatus{schema.SuggestionConnected, schema.SuggestionDismissed}).
		Pluck("candidate_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("query terminal suggestions failed: %w", err)
	}
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

// Transition moves a suggestion out of from; false when it already moved.
func (r *SuggestionRepository) Transition(ctx context.Context, id string, from, to schema.SuggestionStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&schema.MatchSuggestion{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return false, fmt.Errorf("transition suggestion failed: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
