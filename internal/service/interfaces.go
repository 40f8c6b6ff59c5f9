package service

import (
	"context"

	"github.com/yuqie6/SkillBridge/internal/repository"
	"github.com/yuqie6/SkillBridge/internal/schema"
)

// Minimal collaborator interfaces the services depend on.

// ProfileReader resolves profiles by owner id; missing ids are left out.
type ProfileReader interface {
	GetByUserIDs(ctx context.Context, userIDs []string) ([]schema.Profile, error)
}

// NotificationRequest is what the engine asks the delivery side to show.
type NotificationRequest struct {
	RecipientID string
	Type        string
	Title       string
	Message     string
	Payload     map[string]any
}

// NotificationSink records notification requests inside the caller's
// transaction and publishes them once the transaction committed.
type NotificationSink interface {
	Record(ctx context.Context, tx *repository.Store, req NotificationRequest) (*schema.Notification, error)
	Publish(n *schema.Notification)
}
