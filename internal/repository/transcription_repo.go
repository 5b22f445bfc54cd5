package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"creatorlens-backend/internal/models"
)

type TranscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewTranscriptionRepo(pool *pgxpool.Pool) *TranscriptionRepo {
	return &TranscriptionRepo{pool: pool}
}

const transcriptionSelect = `SELECT id, user_id, video_id, platform, status, progress,
	raw_transcript, formatted_transcript, language_detected, confidence_score,
	processing_time_seconds, error_message, start_time, end_time
	FROM transcriptions`

func (r *TranscriptionRepo) Create(ctx context.Context, t *models.Transcription) error {
	t.ID = uuid.New()
	t.Status = models.StatusProcessing
	t.StartTime = time.Now()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO transcriptions (id, user_id, video_id, platform, status, progress, start_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.UserID, t.VideoID, t.Platform, t.Status, t.Progress, t.StartTime,
	)
	return err
}

func (r *TranscriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Transcription, error) {
	row := r.pool.QueryRow(ctx, transcriptionSelect+` WHERE id = $1`, id)
	return scanTranscription(row)
}

// GetByVideo returns the latest non-failed transcription for a
// (videoID, platform) pair, or nil when there is none. This backs the
// at-most-one-non-failed-job-per-pair invariant.
func (r *TranscriptionRepo) GetByVideo(ctx context.Context, videoID, platform string) (*models.Transcription, error) {
	row := r.pool.QueryRow(ctx, transcriptionSelect+`
		WHERE video_id = $1 AND platform = $2 AND status != 'failed'
		ORDER BY start_time DESC LIMIT 1`,
		videoID, platform,
	)
	t, err := scanTranscription(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// UpdateProgress is idempotent and monotonic: repeated or out-of-order
// reports never lower the stored value.
func (r *TranscriptionRepo) UpdateProgress(ctx context.Context, id uuid.UUID, progress int) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE transcriptions SET progress = GREATEST(progress, $1) WHERE id = $2 AND status = 'processing'",
		progress, id,
	)
	return err
}

func (r *TranscriptionRepo) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE transcriptions SET status = 'failed', error_message = $1, end_time = $2 WHERE id = $3",
		errMsg, time.Now(), id,
	)
	return err
}

// Complete stores the transcript payload and flips the row to completed.
// Returns pgx.ErrNoRows when the row was deleted while the provider ran.
func (r *TranscriptionRepo) Complete(ctx context.Context, t *models.Transcription) error {
	now := time.Now()
	tag, err := r.pool.Exec(ctx,
		`UPDATE transcriptions SET status = 'completed', progress = 100,
			raw_transcript = $1, formatted_transcript = $2, language_detected = $3,
			confidence_score = $4, processing_time_seconds = $5, end_time = $6
		 WHERE id = $7 AND status = 'processing'`,
		t.RawTranscript, t.FormattedTranscript, t.LanguageDetected,
		t.ConfidenceScore, t.ProcessingTimeSeconds, now, t.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *TranscriptionRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM transcriptions WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanTranscription(row pgx.Row) (*models.Transcription, error) {
	t := &models.Transcription{}
	err := row.Scan(
		&t.ID, &t.UserID, &t.VideoID, &t.Platform, &t.Status, &t.Progress,
		&t.RawTranscript, &t.FormattedTranscript, &t.LanguageDetected,
		&t.ConfidenceScore, &t.ProcessingTimeSeconds, &t.ErrorMessage,
		&t.StartTime, &t.EndTime,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}
