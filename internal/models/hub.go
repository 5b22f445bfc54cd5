package models

import (
	"time"

	"github.com/google/uuid"
)

// Hub is a user-curated collection of analyzed creators.
type Hub struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	CreatorCount int       `json:"creator_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type HubCreator struct {
	HubID      uuid.UUID `json:"hub_id"`
	AnalysisID uuid.UUID `json:"analysis_id"`
	AddedAt    time.Time `json:"added_at"`
}
