package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuqie6/SkillBridge/internal/eventbus"
	"github.com/yuqie6/SkillBridge/internal/pkg/apperrors"
	"github.com/yuqie6/SkillBridge/internal/repository"
	"github.com/yuqie6/SkillBridge/internal/schema"
)

const defaultNotificationLimit = 50

// NotificationService persists notifications and pushes them to live subscribers.
type NotificationService struct {
	store *repository.Store
	hub   *eventbus.Hub
	now   func() time.Time
}

// NewNotificationService creates the service. hub may be nil.
func NewNotificationService(store *repository.Store, hub *eventbus.Hub) *NotificationService {
	return &NotificationService{store: store, hub: hub, now: time.Now}
}

// Record stores req through tx (or the root store when tx is nil).
func (s *NotificationService) Record(ctx context.Context, tx *repository.Store, req NotificationRequest) (*schema.Notification, error) {
	if strings.TrimSpace(req.RecipientID) == "" {
		return nil, apperrors.Validation("notification recipient is required")
	}
	if strings.TrimSpace(req.Type) == "" {
		return nil, apperrors.Validation("notification type is required")
	}
	if tx == nil {
		tx = s.store
	}
	n := &schema.Notification{
		ID:          uuid.NewString(),
		RecipientID: req.RecipientID,
		Type:        req.Type,
		Title:       req.Title,
		Message:     req.Message,
		Payload:     schema.JSONMap(req.Payload),
		CreatedAt:   s.now(),
	}
	if err := tx.Notifications.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Publish pushes a committed notification to the recipient's live stream.
func (s *NotificationService) Publish(n *schema.Notification) {
	if n == nil {
		return
	}
	s.hub.Publish(eventbus.Event{
		Type:        eventbus.TypeNotification,
		RecipientID: n.RecipientID,
		Data: map[string]any{
			"id":      n.ID,
			"type":    n.Type,
			"title":   n.Title,
			"message": n.Message,
			"payload": map[string]any(n.Payload),
		},
	})
}

// List returns userID's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]schema.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	return s.store.Notifications.ListByRecipient(ctx, userID, unreadOnly, limit)
}

// MarkRead flags id as read for userID.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	ok, err := s.store.Notifications.MarkRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("notification", id)
	}
	return nil
}

// Stream subscribes to userID's live events until ctx ends.
func (s *NotificationService) Stream(ctx context.Context, userID string) <-chan eventbus.Event {
	if s.hub == nil {
		ch := make(chan eventbus.Event)
		close(ch)
		return ch
	}
	return s.hub.Subscribe(ctx, userID, 16)
}
