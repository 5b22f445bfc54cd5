package models

import (
	"time"

	"github.com/google/uuid"
)

// ContentItem is one analyzed video or reel. Rows are written exactly once,
// when their parent analysis completes; user interactions live in separate
// tables layered on top.
type ContentItem struct {
	ID              uuid.UUID  `json:"id"`
	AnalysisID      uuid.UUID  `json:"analysis_id"`
	Platform        string     `json:"platform"`
	ExternalID      string     `json:"external_id"` // YouTube video ID / Instagram media ID
	Title           string     `json:"title"`       // video title or reel caption
	URL             string     `json:"url"`
	MediaURL        string     `json:"media_url,omitempty"` // direct video/audio stream, when known
	ThumbnailURL    string     `json:"thumbnail_url"`
	PublishedAt     *time.Time `json:"published_at"`
	DurationSeconds int        `json:"duration_seconds"`
	ViewCount       int64      `json:"view_count"`
	LikeCount       int64      `json:"like_count"`
	CommentCount    int64      `json:"comment_count"`
	IsVideo         bool       `json:"is_video"`
	PerformanceTier string     `json:"performance_tier"`
	Position        int        `json:"position"` // original fetch order, stable sort key
	CreatedAt       time.Time  `json:"created_at"`
}

// EngagementCount is the combined interaction metric used for tiering
// Instagram posts that expose no view count.
func (c *ContentItem) EngagementCount() int64 {
	return c.LikeCount + c.CommentCount
}

type Rating struct {
	ItemID    uuid.UUID `json:"item_id"`
	UserID    uuid.UUID `json:"user_id"`
	Stars     int       `json:"stars"` // 1-5
	UpdatedAt time.Time `json:"updated_at"`
}

type Comment struct {
	ID        uuid.UUID `json:"id"`
	ItemID    uuid.UUID `json:"item_id"`
	UserID    uuid.UUID `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type Favorite struct {
	ItemID    uuid.UUID `json:"item_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
