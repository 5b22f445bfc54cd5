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

// HubService manages named collections of analyzed creators. Hubs are
// private to their owner; every accessor checks ownership.
type HubService struct {
	hubRepo      *repository.HubRepo
	analysisRepo *repository.AnalysisRepo
}

func NewHubService(hubRepo *repository.HubRepo, analysisRepo *repository.AnalysisRepo) *HubService {
	return &HubService{hubRepo: hubRepo, analysisRepo: analysisRepo}
}

func (s *HubService) CreateHub(ctx context.Context, userID uuid.UUID, name, description string) (*models.Hub, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Fields: map[string]string{"name": "Hub name is required"}}
	}
	if len(name) > 100 {
		return nil, &ValidationError{Fields: map[string]string{"name": "Hub name must be at most 100 characters"}}
	}

	hub := &models.Hub{
		UserID:      userID,
		Name:        name,
		Description: description,
	}
	if err := s.hubRepo.Create(ctx, hub); err != nil {
		return nil, fmt.Errorf("failed to create hub: %w", err)
	}
	return hub, nil
}

func (s *HubService) GetHub(ctx context.Context, id, userID uuid.UUID) (*models.Hub, error) {
	return s.ownedHub(ctx, id, userID)
}

func (s *HubService) ListHubs(ctx context.Context, userID uuid.UUID) ([]*models.Hub, error) {
	return s.hubRepo.ListByUser(ctx, userID)
}

func (s *HubService) UpdateHub(ctx context.Context, id, userID uuid.UUID, name, description string) (*models.Hub, error) {
	hub, err := s.ownedHub(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Fields: map[string]string{"name": "Hub name is required"}}
	}

	hub.Name = name
	hub.Description = description
	if err := s.hubRepo.Update(ctx, hub); err != nil {
		return nil, fmt.Errorf("failed to update hub: %w", err)
	}
	return hub, nil
}

func (s *HubService) DeleteHub(ctx context.Context, id, userID uuid.UUID) error {
	if _, err := s.ownedHub(ctx, id, userID); err != nil {
		return err
	}
	if _, err := s.hubRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete hub: %w", err)
	}
	return nil
}

// AddCreator links an analyzed creator to a hub. Adding the same analysis
// twice is a no-op.
func (s *HubService) AddCreator(ctx context.Context, hubID, userID, analysisID uuid.UUID) error {
	if _, err := s.ownedHub(ctx, hubID, userID); err != nil {
		return err
	}

	analysis, err := s.analysisRepo.GetByID(ctx, analysisID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &NotFoundError{Message: fmt.Sprintf("analysis %s not found", analysisID)}
		}
		return err
	}
	if analysis.Status != models.StatusCompleted {
		return &InvalidArgumentError{Message: "only completed analyses can be added to a hub"}
	}

	if err := s.hubRepo.AddCreator(ctx, hubID, analysisID); err != nil {
		return fmt.Errorf("failed to add creator to hub: %w", err)
	}
	return nil
}

func (s *HubService) RemoveCreator(ctx context.Context, hubID, userID, analysisID uuid.UUID) error {
	if _, err := s.ownedHub(ctx, hubID, userID); err != nil {
		return err
	}
	if err := s.hubRepo.RemoveCreator(ctx, hubID, analysisID); err != nil {
		return fmt.Errorf("failed to remove creator from hub: %w", err)
	}
	return nil
}

func (s *HubService) ListCreators(ctx context.Context, hubID, userID uuid.UUID) ([]*models.Analysis, error) {
	if _, err := s.ownedHub(ctx, hubID, userID); err != nil {
		return nil, err
	}
	return s.hubRepo.ListCreators(ctx, hubID)
}

func (s *HubService) ownedHub(ctx context.Context, id, userID uuid.UUID) (*models.Hub, error) {
	hub, err := s.hubRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: fmt.Sprintf("hub %s not found", id)}
		}
		return nil, err
	}
	if hub.UserID != userID {
		return nil, &ForbiddenError{Message: "hub belongs to another user"}
	}
	return hub, nil
}
