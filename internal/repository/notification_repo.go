package repository

import (
	"context"
	"fmt"

	"github.com/yuqie6/SkillBridge/internal/schema"
	"gorm.io/gorm"
)

// NotificationRepository persists notification requests for the delivery UI.
type NotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates the repository.
func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create stores a notification.
func (r *NotificationRepository) Create(ctx context.Context, n *schema.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("create notification failed: %w", err)
	}
	return nil
}

// ListByRecipient returns recipientID's notifications, newest first.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]schema.Notification, error) {
	q := r.db.WithContext(ctx).Where("recipient_id = ?", recipientID)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}
	q = q.Order("created_at DESC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []schema.Notification
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("query notifications failed: %w", err)
	}
	return out, nil
}

// MarkRead flags a notification as read; false when it is not recipientID's.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&schema.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("read", true)
	if res.Error != nil {
		return false, fmt.Errorf("mark notification read failed: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
