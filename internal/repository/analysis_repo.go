package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"creatorlens-backend/internal/models"
)

type AnalysisRepo struct {
	pool *pgxpool.Pool
}

func NewAnalysisRepo(pool *pgxpool.Pool) *AnalysisRepo {
	return &AnalysisRepo{pool: pool}
}

func (r *AnalysisRepo) Create(ctx context.Context, a *models.Analysis) error {
	a.ID = uuid.New()
	if a.Status == "" {
		a.Status = models.StatusProcessing
	}
	a.StartTime = time.Now()

	query := `INSERT INTO analyses (id, user_id, platform, target_ref, status, progress, start_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.UserID, a.Platform, a.TargetRef, a.Status, a.Progress, a.StartTime,
	)
	return err
}

func (r *AnalysisRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Analysis, error) {
	a := &models.Analysis{}
	query := `SELECT id, user_id, platform, target_ref, status, progress, error_message, result_summary, start_time, end_time
		FROM analyses WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.UserID, &a.Platform, &a.TargetRef, &a.Status, &a.Progress,
		&a.ErrorMessage, &a.ResultSummary, &a.StartTime, &a.EndTime,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetByTarget returns the most recent non-failed analysis for a canonical
// target, or nil when there is none. Failed runs are excluded so they never
// block a retry.
func (r *AnalysisRepo) GetByTarget(ctx context.Context, platform, targetRef string) (*models.Analysis, error) {
	a := &models.Analysis{}
	query := `SELECT id, user_id, platform, target_ref, status, progress, error_message, result_summary, start_time, end_time
		FROM analyses
		WHERE platform = $1 AND target_ref = $2 AND status != 'failed'
		ORDER BY start_time DESC
		LIMIT 1`

	err := r.pool.QueryRow(ctx, query, platform, targetRef).Scan(
		&a.ID, &a.UserID, &a.Platform, &a.TargetRef, &a.Status, &a.Progress,
		&a.ErrorMessage, &a.ResultSummary, &a.StartTime, &a.EndTime,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *AnalysisRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Analysis, error) {
	query := `SELECT id, user_id, platform, target_ref, status, progress, error_message, result_summary, start_time, end_time
		FROM analyses WHERE user_id = $1 ORDER BY start_time DESC`

	rows, err := r.pool.Query(ctx, query, userID)
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

// UpdateProgress is monotonic at the store: GREATEST guards against late or
// repeated reports ever lowering the persisted value.
func (r *AnalysisRepo) UpdateProgress(ctx context.Context, id uuid.UUID, progress int) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE analyses SET progress = GREATEST(progress, $1) WHERE id = $2 AND status = 'processing'",
		progress, id,
	)
	return err
}

func (r *AnalysisRepo) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE analyses SET status = 'failed', error_message = $1, end_time = $2 WHERE id = $3",
		errMsg, time.Now(), id,
	)
	return err
}

// PersistResults writes the fetched items and flips the analysis to
// completed in one transaction, so the row is never observable as completed
// without its items. Returns pgx.ErrNoRows when the analysis row has been
// deleted mid-flight; the caller must treat that as an abort, not an error.
func (r *AnalysisRepo) PersistResults(ctx context.Context, id uuid.UUID, summary models.ResultSummary, items []models.ContentItem) error {
	summaryBytes, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal result summary: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := range items {
		items[i].ID = uuid.New()
		items[i].AnalysisID = id
		items[i].Position = i

		_, err := tx.Exec(ctx, `INSERT INTO content_items
			(id, analysis_id, platform, external_id, title, url, media_url, thumbnail_url, published_at,
			 duration_seconds, view_count, like_count, comment_count, is_video, performance_tier, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
			items[i].ID, items[i].AnalysisID, items[i].Platform, items[i].ExternalID,
			items[i].Title, items[i].URL, items[i].MediaURL, items[i].ThumbnailURL, items[i].PublishedAt,
			items[i].DurationSeconds, items[i].ViewCount, items[i].LikeCount,
			items[i].CommentCount, items[i].IsVideo, items[i].PerformanceTier, items[i].Position,
		)
		if err != nil {
			return fmt.Errorf("failed to insert content item %d: %w", i, err)
		}
	}

	tag, err := tx.Exec(ctx,
		`UPDATE analyses SET status = 'completed', progress = 100, result_summary = $1, end_time = $2
		 WHERE id = $3 AND status = 'processing'`,
		summaryBytes, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Row deleted (or already terminal) while the pipeline ran; rolling
		// back keeps the orphaned items out of the database.
		return pgx.ErrNoRows
	}

	return tx.Commit(ctx)
}

// Delete removes the analysis row; content_items cascade at the schema
// level. Reports whether a row existed.
func (r *AnalysisRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM analyses WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *AnalysisRepo) CountItems(ctx context.Context, analysisID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM content_items WHERE analysis_id = $1", analysisID,
	).Scan(&count)
	return count, err
}

func (r *AnalysisRepo) ListItems(ctx context.Context, analysisID uuid.UUID, offset, limit int) ([]models.ContentItem, int, error) {
	total, err := r.CountItems(ctx, analysisID)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, itemSelect+`
		WHERE analysis_id = $1 ORDER BY position, id OFFSET $2 LIMIT $3`,
		analysisID, offset, limit,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *AnalysisRepo) AllItems(ctx context.Context, analysisID uuid.UUID) ([]models.ContentItem, error) {
	rows, err := r.pool.Query(ctx, itemSelect+` WHERE analysis_id = $1 ORDER BY position, id`, analysisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanItems(rows)
}

func (r *AnalysisRepo) GetItemByID(ctx context.Context, id uuid.UUID) (*models.ContentItem, error) {
	rows, err := r.pool.Query(ctx, itemSelect+` WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &items[0], nil
}

// GetItemByExternalID finds the most recently stored copy of a platform
// item, used to resolve media URLs for transcription.
func (r *AnalysisRepo) GetItemByExternalID(ctx context.Context, platform, externalID string) (*models.ContentItem, error) {
	rows, err := r.pool.Query(ctx, itemSelect+`
		WHERE platform = $1 AND external_id = $2 ORDER BY created_at DESC LIMIT 1`,
		platform, externalID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &items[0], nil
}

const itemSelect = `SELECT id, analysis_id, platform, external_id, title, url, media_url, thumbnail_url, published_at,
	duration_seconds, view_count, like_count, comment_count, is_video, performance_tier, position, created_at
	FROM content_items`

func scanItems(rows pgx.Rows) ([]models.ContentItem, error) {
	var items []models.ContentItem
	for rows.Next() {
		var it models.ContentItem
		if err := rows.Scan(
			&it.ID, &it.AnalysisID, &it.Platform, &it.ExternalID, &it.Title, &it.URL,
			&it.MediaURL, &it.ThumbnailURL, &it.PublishedAt, &it.DurationSeconds, &it.ViewCount,
			&it.LikeCount, &it.CommentCount, &it.IsVideo, &it.PerformanceTier,
			&it.Position, &it.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
