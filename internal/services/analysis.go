package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"creatorlens-backend/internal/models"
)

// PlatformClient is the per-platform data adapter consumed by the analysis
// manager.
type PlatformClient interface {
	// ResolveTarget turns raw user input into a canonical target ID.
	ResolveTarget(ctx context.Context, raw string) (string, error)

	// FetchMetadata loads top-level channel/profile information.
	FetchMetadata(ctx context.Context, canonicalID string) (*models.CreatorMetadata, error)

	// FetchItems loads the content list. Internally paginated; onProgress is
	// invoked with (fetched, expectedTotal) as pages land. Partial failure
	// surfaces as an error, never a silently truncated list.
	FetchItems(ctx context.Context, canonicalID string, onProgress func(fetched, total int)) ([]models.ContentItem, error)
}

// AnalysisStore is the durable job store behind the manager. Postgres is
// the single source of truth; AnalysisRepo implements this.
type AnalysisStore interface {
	Create(ctx context.Context, a *models.Analysis) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Analysis, error)
	GetByTarget(ctx context.Context, platform, targetRef string) (*models.Analysis, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Analysis, error)
	UpdateProgress(ctx context.Context, id uuid.UUID, progress int) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	PersistResults(ctx context.Context, id uuid.UUID, summary models.ResultSummary, items []models.ContentItem) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	CountItems(ctx context.Context, analysisID uuid.UUID) (int, error)
	ListItems(ctx context.Context, analysisID uuid.UUID, offset, limit int) ([]models.ContentItem, int, error)
	AllItems(ctx context.Context, analysisID uuid.UUID) ([]models.ContentItem, error)
}

type userLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AnalysisService orchestrates the analysis job lifecycle: dedup, creation,
// the detached fetch-segment-persist pipeline, progress, and finalization.
// A job row is only ever written by its own pipeline goroutine.
type AnalysisService struct {
	store   AnalysisStore
	clients map[string]PlatformClient
	broker  *StatusBroker
	email   *EmailService
	users   userLookup
}

func NewAnalysisService(store AnalysisStore, clients map[string]PlatformClient, broker *StatusBroker, email *EmailService, users userLookup) *AnalysisService {
	return &AnalysisService{
		store:   store,
		clients: clients,
		broker:  broker,
		email:   email,
		users:   users,
	}
}

// StartAnalysis resolves the target, dedup-checks it, and either returns an
// existing job (isExisting=true) or creates a new one and launches its
// pipeline in the background. The new job's ID is returned immediately; the
// caller observes the run by polling GetAnalysisStatus.
func (s *AnalysisService) StartAnalysis(ctx context.Context, userID uuid.UUID, platform, rawTarget string) (uuid.UUID, bool, error) {
	client, ok := s.clients[platform]
	if !ok {
		return uuid.Nil, false, &InvalidArgumentError{Message: fmt.Sprintf("unsupported platform: %s", platform)}
	}

	canonical, err := client.ResolveTarget(ctx, rawTarget)
	if err != nil {
		return uuid.Nil, false, err
	}

	existing, err := s.store.GetByTarget(ctx, platform, canonical)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("dedup lookup failed: %w", err)
	}

	if existing != nil {
		switch existing.Status {
		case models.StatusCompleted:
			count, err := s.store.CountItems(ctx, existing.ID)
			if err != nil {
				return uuid.Nil, false, fmt.Errorf("dedup item count failed: %w", err)
			}
			if count > 0 {
				return existing.ID, true, nil
			}
			// Completed with nothing stored (crash between status flip and
			// data write, or a private profile): not a valid cache hit. The
			// stale row is dropped so only the fresh run remains.
			if _, err := s.store.Delete(ctx, existing.ID); err != nil {
				log.Printf("failed to drop stale empty analysis %s: %v", existing.ID, err)
			}
		case models.StatusPending, models.StatusProcessing:
			// At most one concurrent run per target.
			return existing.ID, true, nil
		}
	}

	analysis := &models.Analysis{
		UserID:    userID,
		Platform:  platform,
		TargetRef: canonical,
		Status:    models.StatusProcessing,
		Progress:  0,
	}
	if err := s.store.Create(ctx, analysis); err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to create analysis: %w", err)
	}

	go s.runPipeline(analysis.ID, userID, platform, canonical, client)

	return analysis.ID, false, nil
}

// runPipeline is the detached background task for one job. Every error path
// ends in a terminal row update; nothing escapes to crash the process.
func (s *AnalysisService) runPipeline(id, userID uuid.UUID, platform, canonical string, client PlatformClient) {
	// Detached from the originating request on purpose: the job outlives it.
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			s.fail(ctx, id, userID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	meta, err := client.FetchMetadata(ctx, canonical)
	if err != nil {
		s.fail(ctx, id, userID, fmt.Sprintf("failed to fetch %s metadata for %s: %v", platform, canonical, err))
		return
	}
	s.progress(ctx, id, userID, 30)

	items, err := client.FetchItems(ctx, canonical, func(fetched, total int) {
		p := 40
		if total > 0 {
			p += fetched * 50 / total
		}
		if p > 90 {
			p = 90
		}
		s.progress(ctx, id, userID, p)
	})
	if err != nil {
		s.fail(ctx, id, userID, fmt.Sprintf("failed to fetch %s items for %s: %v", platform, canonical, err))
		return
	}

	table, metric := TierTableFor(platform)
	AssignTiers(items, metric, table)
	s.progress(ctx, id, userID, 95)

	summary := models.ResultSummary{Creator: *meta, ItemsStored: len(items)}
	if err := s.store.PersistResults(ctx, id, summary, items); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Job was deleted while we were fetching; drop the results
			// instead of resurrecting the row.
			log.Printf("analysis %s deleted mid-flight, discarding %d items", id, len(items))
			s.broker.Forget(ctx, JobKindAnalysis, id)
			return
		}
		s.fail(ctx, id, userID, fmt.Sprintf("failed to persist results: %v", err))
		return
	}

	s.broker.CacheProgress(ctx, JobKindAnalysis, id, models.StatusCompleted, 100)
	s.broker.Publish(ctx, userID, models.WSMessage{
		Type:    "completed",
		Payload: models.JobCompletedEvent{JobID: id, JobKind: JobKindAnalysis},
	})
	log.Printf("analysis %s completed: %s %s, %d items", id, platform, canonical, len(items))

	go s.sendCompletionEmail(context.Background(), userID, meta.Name, id)
}

func (s *AnalysisService) progress(ctx context.Context, id, userID uuid.UUID, value int) {
	if err := s.store.UpdateProgress(ctx, id, value); err != nil {
		log.Printf("failed to update progress for analysis %s: %v", id, err)
	}
	s.broker.CacheProgress(ctx, JobKindAnalysis, id, models.StatusProcessing, value)
	s.broker.Publish(ctx, userID, models.WSMessage{
		Type:    "status_update",
		Payload: models.JobProgressEvent{JobID: id, JobKind: JobKindAnalysis, Status: models.StatusProcessing, Progress: value},
	})
}

func (s *AnalysisService) fail(ctx context.Context, id, userID uuid.UUID, errMsg string) {
	if err := s.store.MarkFailed(ctx, id, errMsg); err != nil {
		log.Printf("failed to mark analysis %s failed: %v", id, err)
	}
	s.broker.CacheProgress(ctx, JobKindAnalysis, id, models.StatusFailed, 0)
	s.broker.Publish(ctx, userID, models.WSMessage{
		Type:    "error",
		Payload: models.JobFailedEvent{JobID: id, JobKind: JobKindAnalysis, ErrorMessage: errMsg},
	})
	log.Printf("analysis %s failed: %s", id, errMsg)
}

func (s *AnalysisService) sendCompletionEmail(ctx context.Context, userID uuid.UUID, creatorName string, analysisID uuid.UUID) {
	if s.email == nil || s.users == nil {
		return
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		log.Printf("failed to load user %s for completion email: %v", userID, err)
		return
	}

	if err := s.email.SendAnalysisCompleteEmail(user.Email, creatorName, analysisID.String()); err != nil {
		log.Printf("failed to send completion email to %s: %v", user.Email, err)
	}
}

// AnalysisStatus is the polling snapshot. Items, TierCounts and Summary are
// populated only once the job is completed.
type AnalysisStatus struct {
	Analysis   *models.Analysis     `json:"analysis"`
	Items      []models.ContentItem `json:"items,omitempty"`
	TotalItems int                  `json:"total_items"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
	TierCounts map[string]int       `json:"tier_counts,omitempty"`
	Summary    *MetricSummary       `json:"summary,omitempty"`
}

// GetAnalysisStatus returns the current snapshot of a job, with an
// offset/limit page of items once completed.
func (s *AnalysisService) GetAnalysisStatus(ctx context.Context, id uuid.UUID, page, limit int) (*AnalysisStatus, error) {
	if page < 1 {
		return nil, &InvalidArgumentError{Message: "page must be >= 1"}
	}
	if limit < 1 || limit > 100 {
		return nil, &InvalidArgumentError{Message: "limit must be between 1 and 100"}
	}

	analysis, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: fmt.Sprintf("analysis %s not found", id)}
		}
		return nil, err
	}

	status := &AnalysisStatus{Analysis: analysis, Page: page, Limit: limit}

	if analysis.Status == models.StatusProcessing {
		// The cache may be slightly ahead of the last committed row; it is
		// only ever allowed to raise the hint, never to contradict a
		// terminal status.
		if cached, ok := s.broker.CachedProgress(ctx, JobKindAnalysis, id); ok && cached > analysis.Progress {
			status.Analysis.Progress = cached
		}
		return status, nil
	}

	if analysis.Status != models.StatusCompleted {
		return status, nil
	}

	items, total, err := s.store.ListItems(ctx, id, (page-1)*limit, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	status.Items = items
	status.TotalItems = total

	all, err := s.store.AllItems(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load items for summary: %w", err)
	}
	_, metric := TierTableFor(analysis.Platform)
	summary := ComputeSummary(all, metric)
	status.Summary = &summary
	status.TierCounts = TierCounts(all)

	return status, nil
}

func (s *AnalysisService) ListAnalyses(ctx context.Context, userID uuid.UUID) ([]*models.Analysis, error) {
	return s.store.ListByUser(ctx, userID)
}

// DeleteAnalysis removes the job and its items. Deleting an unknown ID is a
// NotFoundError, applied consistently with transcription deletes. An
// in-flight pipeline for the job is not interrupted; its final write aborts
// when it finds the row gone.
func (s *AnalysisService) DeleteAnalysis(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	if !deleted {
		return &NotFoundError{Message: fmt.Sprintf("analysis %s not found", id)}
	}
	s.broker.Forget(ctx, JobKindAnalysis, id)
	return nil
}

// Snapshot fetches a completed analysis with all of its items, for export.
func (s *AnalysisService) Snapshot(ctx context.Context, id uuid.UUID) (*models.Analysis, []models.ContentItem, error) {
	analysis, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, &NotFoundError{Message: fmt.Sprintf("analysis %s not found", id)}
		}
		return nil, nil, err
	}
	if analysis.Status != models.StatusCompleted {
		return nil, nil, &InvalidArgumentError{Message: "analysis is not completed yet"}
	}

	items, err := s.store.AllItems(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return analysis, items, nil
}
