package models

import (
	"time"

	"github.com/google/uuid"
)

type Transcription struct {
	ID                    uuid.UUID  `json:"id"`
	UserID                uuid.UUID  `json:"user_id"`
	VideoID               string     `json:"video_id"` // external content ID on the platform
	Platform              string     `json:"platform"`
	Status                string     `json:"status"` // "processing" | "completed" | "failed"
	Progress              int        `json:"progress"`
	RawTranscript         *string    `json:"raw_transcript"`
	FormattedTranscript   *string    `json:"formatted_transcript"`
	LanguageDetected      *string    `json:"language_detected"`
	ConfidenceScore       *float64   `json:"confidence_score"`
	ProcessingTimeSeconds *float64   `json:"processing_time_seconds"`
	ErrorMessage          *string    `json:"error_message"`
	StartTime             time.Time  `json:"start_time"`
	EndTime               *time.Time `json:"end_time"`
}

type StartTranscriptionRequest struct {
	VideoID  string `json:"video_id"`
	Platform string `json:"platform"`
}
