package schema

import "time"

// SuggestionStatus is the state of a match suggestion.
type SuggestionStatus string

const (
	SuggestionPending   SuggestionStatus = "pending"
	SuggestionConnected SuggestionStatus = "connected"
	SuggestionDismissed SuggestionStatus = "dismissed"
)

// Valid reports whether s is a known status.
func (s SuggestionStatus) Valid() bool {
	switch s {
	case SuggestionPending, SuggestionConnected, SuggestionDismissed:
		return true
	}
	return false
}

// MatchSuggestion is a derived, regenerable candidate for a subject user.
type MatchSuggestion struct {
	ID          string           `gorm:"primaryKey;size:64" json:"id"`
	SubjectID   string           `gorm:"size:64;not null;index:idx_suggestion_subject,priority:1" json:"subject_id"`
	CandidateID string           `gorm:"size:64;not null;index" json:"candidate_id"`
	Score       int              `gorm:"not null;index" json:"score"`
	Rank        int              `gorm:"column:gen_order;not null;default:0" json:"rank"` // position in its generation run
	Reasons     JSONArray        `gorm:"type:text" json:"reasons"`
	Status      SuggestionStatus `gorm:"size:16;not null;index:idx_suggestion_subject,priority:2" json:"status"`
	Cycle       string           `gorm:"size:16;not null;index" json:"cycle"` // generation cycle, YYYY-MM
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName overrides the gorm table name.
func (MatchSuggestion) TableName() string {
	return "match_suggestions"
}
