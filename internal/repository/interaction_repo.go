package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"creatorlens-backend/internal/models"
)

// InteractionRepo stores the user-interaction records (ratings, comments,
// favorites) layered on top of content items. Item rows themselves are never
// mutated.
type InteractionRepo struct {
	pool *pgxpool.Pool
}

func NewInteractionRepo(pool *pgxpool.Pool) *InteractionRepo {
	return &InteractionRepo{pool: pool}
}

func (r *InteractionRepo) SetRating(ctx context.Context, itemID, userID uuid.UUID, stars int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO item_ratings (item_id, user_id, stars, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (item_id, user_id) DO UPDATE SET stars = $3, updated_at = NOW()`,
		itemID, userID, stars,
	)
	return err
}

func (r *InteractionRepo) AddComment(ctx context.Context, c *models.Comment) error {
	c.ID = uuid.New()

	return r.pool.QueryRow(ctx,
		`INSERT INTO item_comments (id, item_id, user_id, body)
		 VALUES ($1, $2, $3, $4) RETURNING created_at`,
		c.ID, c.ItemID, c.UserID, c.Body,
	).Scan(&c.CreatedAt)
}

func (r *InteractionRepo) ListComments(ctx context.Context, itemID uuid.UUID) ([]*models.Comment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, item_id, user_id, body, created_at
		 FROM item_comments WHERE item_id = $1 ORDER BY created_at`,
		itemID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		c := &models.Comment{}
		if err := rows.Scan(&c.ID, &c.ItemID, &c.UserID, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// ToggleFavorite flips the favorite mark and reports the new state.
func (r *InteractionRepo) ToggleFavorite(ctx context.Context, itemID, userID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		"DELETE FROM item_favorites WHERE item_id = $1 AND user_id = $2",
		itemID, userID,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = r.pool.Exec(ctx,
		"INSERT INTO item_favorites (item_id, user_id) VALUES ($1, $2)",
		itemID, userID,
	)
	if err != nil {
		return false, err
	}
	return true, nil
}
