package dto

// Request and response shapes of the HTTP API that are not persisted models.
// Persisted rows live in internal/schema; service inputs live next to their services.

type ConnectionRequestDTO struct {
	TargetID string `json:"target_id"`
	Message  string `json:"message"`
}

type MeetupCodeDTO struct {
	Code     string `json:"code"`
	IssuedAt int64  `json:"issued_at"` // Unix ms
}

type HealthDTO struct {
	OK            bool   `json:"ok"`
	Name          string `json:"name"`
	Version       string `json:"version"`
	StartedAt     string `json:"started_at"`
	SafeMode      bool   `json:"safe_mode"`
	SchemaVersion int    `json:"schema_version"`
	Subscribers   int    `json:"subscribers"`
}

type ErrorDTO struct {
	Error string `json:"error"`
}

type OKDTO struct {
	OK bool `json:"ok"`
}
