package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"creatorlens-backend/internal/models"
)

type HubRepo struct {
	pool *pgxpool.Pool
}

func NewHubRepo(pool *pgxpool.Pool) *HubRepo {
	return &HubRepo{pool: pool}
}

func (r *HubRepo) Create(ctx context.Context, h *models.Hub) error {
	h.ID = uuid.New()

	query := `INSERT INTO hubs (id, user_id, name, description)
		VALUES ($1, $2, $3, $4) RETURNING created_at`

	return r.pool.QueryRow(ctx, query, h.ID, h.UserID, h.Name, h.Description).Scan(&h.CreatedAt)
}

const hubSelect = `SELECT h.id, h.user_id, h.name, h.description, h.created_at,
	(SELECT COUNT(*) FROM hub_creators hc WHERE hc.hub_id = h.id) AS creator_count
	FROM hubs h`

func (r *HubRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Hub, error) {
	h := &models.Hub{}
	err := r.pool.QueryRow(ctx, hubSelect+` WHERE h.id = $1`, id).Scan(
		&h.ID, &h.UserID, &h.Name, &h.Description, &h.CreatedAt, &h.CreatorCount,
	)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (r *HubRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Hub, error) {
	rows, err := r.pool.Query(ctx, hubSelect+` WHERE h.user_id = $1 ORDER BY h.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hubs []*models.Hub
	for rows.Next() {
		h := &models.Hub{}
		if err := rows.Scan(&h.ID, &h.UserID, &h.Name, &h.Description, &h.CreatedAt, &h.CreatorCount); err != nil {
			return nil, err
		}
		hubs = append(hubs, h)
	}
	return hubs, rows.Err()
}

func (r *HubRepo) Update(ctx context.Context, h *models.Hub) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE hubs SET name = $1, description = $2 WHERE id = $3",
		h.Name, h.Description, h.ID,
	)
	return err
}

func (r *HubRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM hubs WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *HubRepo) AddCreator(ctx context.Context, hubID, analysisID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO hub_creators (hub_id, analysis_id) VALUES ($1, $2)
		 ON CONFLICT (hub_id, analysis_id) DO NOTHING`,
		hubID, analysisID,
	)
	return err
}

func (r *HubRepo) RemoveCreator(ctx context.Context, hubID, analysisID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		"DELETE FROM hub_creators WHERE hub_id = $1 AND analysis_id = $2",
		hubID, analysisID,
	)
	return err
}

func (r *HubRepo) ListCreators(ctx context.Context, hubID uuid.UUID) ([]*models.Analysis, error) {
	query := `SELECT a.id, a.user_id, a.platform, a.target_ref, a.status, a.progress,
		a.error_message, a.result_summary, a.start_time, a.end_time
		FROM analyses a
		JOIN hub_creators hc ON hc.analysis_id = a.id
		WHERE hc.hub_id = $1
		ORDER BY hc.added_at DESC`

	rows, err := r.pool.Query(ctx, query, hubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var analyses []*models.Analysis
	for rows.Next() {
		a := &models.Analysis{}
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.Platform, &a.TargetRef, &a.Status, &a.Progress,
			&a.ErrorMessage, &a.ResultSummary, &a.StartTime, &a.EndTime,
		); err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}
