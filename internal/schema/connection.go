package schema

import "time"

// ConnectionStatus is the state of a connection request.
type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
	ConnectionDeclined ConnectionStatus = "declined"
)

// IsActive reports whether the status blocks a new request for the same pair.
func (s ConnectionStatus) IsActive() bool {
	return s == ConnectionPending || s == ConnectionAccepted
}

// Valid reports whether s is a known status.
func (s ConnectionStatus) Valid() bool {
	switch s {
	case ConnectionPending, ConnectionAccepted, ConnectionDeclined:
		return true
	}
	return false
}

// ConnectionType records how a request was initiated.
type ConnectionType string

const (
	ConnectionTypeDirect     ConnectionType = "direct"
	ConnectionTypeSkillMatch ConnectionType = "skill_match"
)

// ConnectionRequest is a directed proposal from requester to target.
// Rows are never deleted; accepted and declined are terminal.
//
// ActiveSlot holds the unordered pair key while the request is pending or
// accepted and is NULL otherwise; its unique index enforces one active
// request per pair in either direction.
type ConnectionRequest struct {
	ID             string           `gorm:"primaryKey;size:64" json:"id"`
	RequesterID    string           `gorm:"size:64;index;not null" json:"requester_id"`
	TargetID       string           `gorm:"size:64;index;not null" json:"target_id"`
	Status         ConnectionStatus `gorm:"size:16;index;not null" json:"status"`
	Message        string           `gorm:"type:text" json:"message,omitempty"`
	ConnectionType ConnectionType   `gorm:"size:32;not null;default:'direct'" json:"connection_type"`
	MatchScore     int              `gorm:"not null;default:0" json:"match_score"` // advisory only
	PairKey        string           `gorm:"size:130;index;not null" json:"-"`
	ActiveSlot     *string          `gorm:"size:130;uniqueIndex" json:"-"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// TableName overrides the gorm table name.
func (ConnectionRequest) TableName() string {
	return "connection_requests"
}

// PairKey builds the direction-independent key of two user ids.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

// Counterpart returns the other side of the request from userID's point of view.
func (c ConnectionRequest) Counterpart(userID string) string {
	if c.RequesterID == userID {
		return c.TargetID
	}
	return c.RequesterID
}
