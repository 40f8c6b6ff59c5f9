package schema

import "time"

const (
	NotifyConnectionRequest = "connection_request"
	NotifySkillEndorsement  = "skill_endorsement"
	NotifyLearningRequest   = "learning_request"
)

// Notification is a delivery request for the external notification UI.
type Notification struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	RecipientID string    `gorm:"size:64;not null;index" json:"recipient_id"`
	Type        string    `gorm:"size:32;not null" json:"type"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Message     string    `gorm:"type:text" json:"message"`
	Payload     JSONMap   `gorm:"type:text" json:"payload,omitempty"`
	Read        bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName overrides the gorm table name.
func (Notification) TableName() string {
	return "notifications"
}
