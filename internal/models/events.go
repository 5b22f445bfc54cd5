package models

import "github.com/google/uuid"

// WebSocket message types pushed over the per-user status channel. Polling
// GET endpoints remain the authoritative interface; these are advisory.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type JobProgressEvent struct {
	JobID    uuid.UUID `json:"job_id"`
	JobKind  string    `json:"job_kind"` // "analysis" | "transcription"
	Status   string    `json:"status"`
	Progress int       `json:"progress"`
}

type JobCompletedEvent struct {
	JobID   uuid.UUID `json:"job_id"`
	JobKind string    `json:"job_kind"`
}

type JobFailedEvent struct {
	JobID        uuid.UUID `json:"job_id"`
	JobKind      string    `json:"job_kind"`
	ErrorMessage string    `json:"error_message"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
