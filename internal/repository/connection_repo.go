package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yuqie6/SkillBridge/internal/pkg/apperrors"
	"github.com/yuqie6/SkillBridge/internal/schema"
	"gorm.io/gorm"
)

// ConnectionFilter narrows List; empty fields are ignored.
type ConnectionFilter struct {
	RequesterID string
	TargetID    string
	Status      schema.ConnectionStatus
}

// ConnectionRepository persists connection requests.
type ConnectionRepository struct {
	db *gorm.DB
}

// NewConnectionRepository creates the repository.
func NewConnectionRepository(db *gorm.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

// Create inserts a pending request. The active-slot unique index turns a
// concurrent second request for the same pair into ErrDuplicateRequest.
func (r *ConnectionRepository) Create(ctx context.Context, req *schema.ConnectionRequest) error {
	req.PairKey = schema.PairKey(req.RequesterID, req.TargetID)
	if req.Status.IsActive() {
		slot := req.PairKey
		req.ActiveSlot = &slot
	}
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("pair %s: %w", req.PairKey, apperrors.ErrDuplicateRequest)
		}
		return fmt.Errorf("create connection request failed: %w", err)
	}
	return nil
}

// GetByID loads one request.
func (r *ConnectionRepository) GetByID(ctx context.Context, id string) (*schema.ConnectionRequest, error) {
	var req schema.ConnectionRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, notFound(err, "connection request", id)
	}
	return &req, nil
}

// FindActiveBetween returns the pending or accepted request between a and b
// in either direction, or nil.
func (r *ConnectionRepository) FindActiveBetween(ctx context.Context, a, b string) (*schema.ConnectionRequest, error) {
	var req schema.ConnectionRequest
	err := r.db.WithContext(ctx).
		Where("pair_key = ? AND status IN ?", schema.PairKey(a, b),
			[]schema.ConnectionStatus{schema.ConnectionPending, schema.ConnectionAccepted}).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query active request failed: %w", err)
	}
	return &req, nil
}

// Transition moves a request from one status to another only if it is still
// in from. It reports false when another writer got there first.
func (r *ConnectionRepository) Transition(ctx context.Context, id string, from, to schema.ConnectionStatus, at time.Time) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": at,
	}
	if !to.IsActive() {
		updates["active_slot"] = nil
	}
	res := r.db.WithContext(ctx).Model(&schema.ConnectionRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("transition connection request failed: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// List returns requests matching filter, newest first.
func (r *ConnectionRepository) List(ctx context.Context, filter ConnectionFilter) ([]schema.ConnectionRequest, error) {
	q := r.db.WithContext(ctx).Model(&schema.ConnectionRequest{})
	if filter.RequesterID != "" {
		q = q.Where("requester_id = ?", filter.RequesterID)
	}
	if filter.TargetID != "" {
		q = q.Where("target_id = ?", filter.TargetID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	var out []schema.ConnectionRequest
	if err := q.Order("created_at DESC, id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("query connection requests failed: %w", err)
	}
	return out, nil
}

// ListAccepted returns accepted requests where userID is on either side.
func (r *ConnectionRepository) ListAccepted(ctx context.Context, userID string) ([]schema.ConnectionRequest, error) {
	var out []schema.ConnectionRequest
	err := r.db.WithContext(ctx).
		Where("status = ? AND (requester_id = ? OR target_id = ?)", schema.ConnectionAccepted, userID, userID).
		Order("updated_at DESC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("query accepted connections failed: %w", err)
	}
	return out, nil
}

// CountAccepted counts accepted requests on either side for userID.
func (r *ConnectionRepository) CountAccepted(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&schema.ConnectionRequest{}).
		Where("status = ? AND (requester_id = ? OR target_id = ?)", schema.ConnectionAccepted, userID, userID).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count accepted connections failed: %w", err)
	}
	return n, nil
}

// ActivePartners returns the ids of users userID has a pending or accepted request with.
func (r *ConnectionRepository) ActivePartners(ctx context.Context, userID string) (map[string]struct{}, error) {
	var rows []schema.ConnectionRequest
	err := r.db.WithContext(ctx).
		Select("requester_id", "target_id").
		Where("active_slot IS NOT NULL AND (requester_id = ? OR target_id = ?)", userID, userID).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query active partners failed: %w", err)
	}
	out := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		out[row.Counterpart(userID)] = struct{}{}
	}
	return out, nil
}
