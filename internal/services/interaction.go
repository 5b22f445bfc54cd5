package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"creatorlens-backend/internal/models"
	"creatorlens-backend/internal/repository"
)

// InteractionService handles ratings, comments and favorites on analyzed
// content items.
type InteractionService struct {
	interactionRepo *repository.InteractionRepo
	analysisRepo    *repository.AnalysisRepo
}

func NewInteractionService(interactionRepo *repository.InteractionRepo, analysisRepo *repository.AnalysisRepo) *InteractionService {
	return &InteractionService{interactionRepo: interactionRepo, analysisRepo: analysisRepo}
}

func (s *InteractionService) RateItem(ctx context.Context, itemID, userID uuid.UUID, stars int) error {
	if stars < 1 || stars > 5 {
		return &ValidationError{Fields: map[string]string{"stars": "Rating must be between 1 and 5"}}
	}
	if err := s.requireItem(ctx, itemID); err != nil {
		return err
	}
	if err := s.interactionRepo.SetRating(ctx, itemID, userID, stars); err != nil {
		return fmt.Errorf("failed to save rating: %w", err)
	}
	return nil
}

func (s *InteractionService) CommentOnItem(ctx context.Context, itemID, userID uuid.UUID, body string) (*models.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, &ValidationError{Fields: map[string]string{"body": "Comment body is required"}}
	}
	if len(body) > 2000 {
		return nil, &ValidationError{Fields: map[string]string{"body": "Comment must be at most 2000 characters"}}
	}
	if err := s.requireItem(ctx, itemID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ItemID: itemID,
		UserID: userID,
		Body:   body,
	}
	if err := s.interactionRepo.AddComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to save comment: %w", err)
	}
	return comment, nil
}

func (s *InteractionService) ListComments(ctx context.Context, itemID uuid.UUID) ([]*models.Comment, error) {
	if err := s.requireItem(ctx, itemID); err != nil {
		return nil, err
	}
	return s.interactionRepo.ListComments(ctx, itemID)
}

// ToggleFavorite flips the favorite mark and returns the new state.
func (s *InteractionService) ToggleFavorite(ctx context.Context, itemID, userID uuid.UUID) (bool, error) {
	if err := s.requireItem(ctx, itemID); err != nil {
		return false, err
	}
	favorited, err := s.interactionRepo.ToggleFavorite(ctx, itemID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to toggle favorite: %w", err)
	}
	return favorited, nil
}

func (s *InteractionService) requireItem(ctx context.Context, itemID uuid.UUID) error {
	_, err := s.analysisRepo.GetItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &NotFoundError{Message: fmt.Sprintf("content item %s not found", itemID)}
		}
		return err
	}
	return nil
}
