package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

const (
	PlatformYouTube   = "youtube"
	PlatformInstagram = "instagram"
)

type Analysis struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	Platform      string          `json:"platform"` // "youtube" | "instagram"
	TargetRef     string          `json:"target_ref"`
	Status        string          `json:"status"` // "pending" | "processing" | "completed" | "failed"
	Progress      int             `json:"progress"`
	ErrorMessage  *string         `json:"error_message"`
	ResultSummary json.RawMessage `json:"result_summary"`
	StartTime     time.Time       `json:"start_time"`
	EndTime       *time.Time      `json:"end_time"`
}

// ResultSummary is the denormalized payload stored on a completed analysis
// row: creator metadata plus the number of persisted items, never the items
// themselves.
type ResultSummary struct {
	Creator     CreatorMetadata `json:"creator"`
	ItemsStored int             `json:"items_stored"`
}

type CreatorMetadata struct {
	Platform      string `json:"platform"`
	CanonicalID   string `json:"canonical_id"`
	Name          string `json:"name"`
	Username      string `json:"username,omitempty"`
	Biography     string `json:"biography,omitempty"`
	ThumbnailURL  string `json:"thumbnail_url,omitempty"`
	ExternalURL   string `json:"external_url,omitempty"`
	FollowerCount int64  `json:"follower_count"`
	ItemCount     int64  `json:"item_count"`
	IsVerified    bool   `json:"is_verified"`
	IsPrivate     bool   `json:"is_private,omitempty"`
}

type StartAnalysisRequest struct {
	Target string `json:"target"`
}
