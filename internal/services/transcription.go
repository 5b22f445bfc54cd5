package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"creatorlens-backend/internal/models"
)

// TranscriptionStore is the durable store behind the transcription manager;
// TranscriptionRepo implements this.
type TranscriptionStore interface {
	Create(ctx context.Context, t *models.Transcription) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transcription, error)
	GetByVideo(ctx context.Context, videoID, platform string) (*models.Transcription, error)
	UpdateProgress(ctx context.Context, id uuid.UUID, progress int) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	Complete(ctx context.Context, t *models.Transcription) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// TranscriptionProvider is the asynchronous speech-to-text collaborator;
// AssemblyAIService implements this.
type TranscriptionProvider interface {
	Submit(ctx context.Context, mediaURL string) (string, error)
	PollStatus(ctx context.Context, providerJobID string) (*ProviderStatus, error)
}

// captionSource is the caption fast path plus audio-URL resolution for
// YouTube videos; YouTubeService implements this.
type captionSource interface {
	CaptionTranscript(videoID string) (string, string, error)
	MediaURL(ctx context.Context, videoID string) (string, error)
}

// storedItemLookup resolves previously analyzed items, used to find the
// direct media URL of Instagram reels.
type storedItemLookup interface {
	GetItemByExternalID(ctx context.Context, platform, externalID string) (*models.ContentItem, error)
}

// TranscriptionService drives the transcription job lifecycle: dedup on
// (videoID, platform), media resolution, provider submission, the bounded
// poll loop, and finalization. Failed jobs stay failed; callers retry by
// starting a new one.
type TranscriptionService struct {
	store     TranscriptionStore
	provider  TranscriptionProvider
	youtube   captionSource
	items     storedItemLookup
	broker    *StatusBroker
	pollEvery time.Duration
	maxWait   time.Duration
}

func NewTranscriptionService(
	store TranscriptionStore,
	provider TranscriptionProvider,
	youtube captionSource,
	items storedItemLookup,
	broker *StatusBroker,
	pollEvery, maxWait time.Duration,
) *TranscriptionService {
	return &TranscriptionService{
		store:     store,
		provider:  provider,
		youtube:   youtube,
		items:     items,
		broker:    broker,
		pollEvery: pollEvery,
		maxWait:   maxWait,
	}
}

// StartTranscription dedup-checks the (videoID, platform) pair, resolves
// the media source, submits it to the provider and persists a new
// processing job. At most one non-failed job exists per pair.
func (s *TranscriptionService) StartTranscription(ctx context.Context, userID uuid.UUID, videoID, platform string) (uuid.UUID, bool, error) {
	if videoID == "" {
		return uuid.Nil, false, &InvalidArgumentError{Message: "video_id is required"}
	}
	if platform != models.PlatformYouTube && platform != models.PlatformInstagram {
		return uuid.Nil, false, &InvalidArgumentError{Message: fmt.Sprintf("unsupported platform: %s", platform)}
	}

	existing, err := s.store.GetByVideo(ctx, videoID, platform)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("dedup lookup failed: %w", err)
	}
	if existing != nil {
		// Completed or still processing: reuse either way, never start a
		// second concurrent job for the pair.
		return existing.ID, true, nil
	}

	start := time.Now()

	// Caption fast path: videos that already carry captions complete
	// without engaging the provider.
	if platform == models.PlatformYouTube && s.youtube != nil {
		if text, lang, err := s.youtube.CaptionTranscript(videoID); err == nil {
			return s.completeFromCaptions(ctx, userID, videoID, platform, text, lang, start)
		}
	}

	mediaURL, err := s.resolveMediaURL(ctx, videoID, platform)
	if err != nil {
		return uuid.Nil, false, err
	}

	providerJobID, err := s.provider.Submit(ctx, mediaURL)
	if err != nil {
		return uuid.Nil, false, err
	}

	t := &models.Transcription{
		UserID:   userID,
		VideoID:  videoID,
		Platform: platform,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to create transcription: %w", err)
	}

	go s.pollLoop(t.ID, userID, providerJobID, start)

	return t.ID, false, nil
}

func (s *TranscriptionService) resolveMediaURL(ctx context.Context, videoID, platform string) (string, error) {
	if platform == models.PlatformYouTube {
		if s.youtube == nil {
			return "", &UpstreamError{Message: "YouTube media resolution is not configured"}
		}
		return s.youtube.MediaURL(ctx, videoID)
	}

	if s.items == nil {
		return "", &UpstreamError{Message: "Instagram media resolution is not configured"}
	}
	item, err := s.items.GetItemByExternalID(ctx, platform, videoID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", &NotFoundError{Message: fmt.Sprintf("no analyzed item %s on %s; run a profile analysis first", videoID, platform)}
		}
		return "", err
	}
	if item.MediaURL == "" {
		return "", &NotFoundError{Message: fmt.Sprintf("item %s has no stored media URL", videoID)}
	}
	return item.MediaURL, nil
}

func (s *TranscriptionService) completeFromCaptions(ctx context.Context, userID uuid.UUID, videoID, platform, text, lang string, start time.Time) (uuid.UUID, bool, error) {
	t := &models.Transcription{
		UserID:   userID,
		VideoID:  videoID,
		Platform: platform,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to create transcription: %w", err)
	}

	formatted := FormatTranscript(text)
	elapsed := time.Since(start).Seconds()
	t.RawTranscript = &text
	t.FormattedTranscript = &formatted
	if lang != "" {
		t.LanguageDetected = &lang
	}
	t.ProcessingTimeSeconds = &elapsed

	if err := s.store.Complete(ctx, t); err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to finalize caption transcription: %w", err)
	}

	s.broker.CacheProgress(ctx, JobKindTranscription, t.ID, models.StatusCompleted, 100)
	s.broker.Publish(ctx, userID, models.WSMessage{
		Type:    "completed",
		Payload: models.JobCompletedEvent{JobID: t.ID, JobKind: JobKindTranscription},
	})
	log.Printf("transcription %s completed from captions: %s %s", t.ID, platform, videoID)

	return t.ID, false, nil
}

// pollLoop awaits the provider until completion, failure, or the wait
// ceiling. All outcomes end in a terminal row update.
func (s *TranscriptionService) pollLoop(id, userID uuid.UUID, providerJobID string, start time.Time) {
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			s.fail(ctx, id, userID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	deadline := start.Add(s.maxWait)
	polls := 0

	for {
		if time.Now().After(deadline) {
			s.fail(ctx, id, userID, fmt.Sprintf("transcription timed out after %s waiting for the provider", s.maxWait))
			return
		}

		status, err := s.provider.PollStatus(ctx, providerJobID)
		if err != nil {
			s.fail(ctx, id, userID, fmt.Sprintf("provider poll failed: %v", err))
			return
		}

		switch status.Status {
		case ProviderStatusQueued:
			s.progress(ctx, id, userID, 10)
		case ProviderStatusProcessing:
			// The provider reports no percentage; ramp with poll count and
			// hold below the persistence phase. UpdateProgress clamps with
			// GREATEST, so repeats and reordering are harmless.
			polls++
			p := 20 + polls*5
			if p > 90 {
				p = 90
			}
			s.progress(ctx, id, userID, p)
		case ProviderStatusCompleted:
			s.complete(ctx, id, userID, status, start)
			return
		case ProviderStatusError:
			msg := status.ErrorMessage
			if msg == "" {
				msg = "provider reported an unspecified failure"
			}
			s.fail(ctx, id, userID, msg)
			return
		default:
			s.fail(ctx, id, userID, fmt.Sprintf("provider returned unknown status %q", status.Status))
			return
		}

		time.Sleep(s.pollEvery)
	}
}

func (s *TranscriptionService) complete(ctx context.Context, id, userID uuid.UUID, status *ProviderStatus, start time.Time) {
	formatted := FormatTranscript(status.Text)
	elapsed := time.Since(start).Seconds()

	t := &models.Transcription{ID: id}
	t.RawTranscript = &status.Text
	t.FormattedTranscript = &formatted
	t.ProcessingTimeSeconds = &elapsed
	if status.LanguageCode != "" {
		t.LanguageDetected = &status.LanguageCode
	}
	if status.Confidence > 0 {
		t.ConfidenceScore = &status.Confidence
	}

	if err := s.store.Complete(ctx, t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Printf("transcription %s deleted mid-flight, discarding transcript", id)
			s.broker.Forget(ctx, JobKindTranscription, id)
			return
		}
		s.fail(ctx, id, userID, fmt.Sprintf("failed to persist transcript: %v", err))
		return
	}

	s.broker.CacheProgress(ctx, JobKindTranscription, id, models.StatusCompleted, 100)
	s.broker.Publish(ctx, userID, models.WSMessage{
		Type:    "completed",
		Payload: models.JobCompletedEvent{JobID: id, JobKind: JobKindTranscription},
	})
	log.Printf("transcription %s completed (%.1fs)", id, elapsed)
}

func (s *TranscriptionService) progress(ctx context.Context, id, userID uuid.UUID, value int) {
	if err := s.store.UpdateProgress(ctx, id, value); err != nil {
		log.Printf("failed to update progress for transcription %s: %v", id, err)
	}
	s.broker.CacheProgress(ctx, JobKindTranscription, id, models.StatusProcessing, value)
	s.broker.Publish(ctx, userID, models.WSMessage{
		Type:    "status_update",
		Payload: models.JobProgressEvent{JobID: id, JobKind: JobKindTranscription, Status: models.StatusProcessing, Progress: value},
	})
}

func (s *TranscriptionService) fail(ctx context.Context, id, userID uuid.UUID, errMsg string) {
	if err := s.store.MarkFailed(ctx, id, errMsg); err != nil {
		log.Printf("failed to mark transcription %s failed: %v", id, err)
	}
	s.broker.CacheProgress(ctx, JobKindTranscription, id, models.StatusFailed, 0)
	s.broker.Publish(ctx, userID, models.WSMessage{
		Type:    "error",
		Payload: models.JobFailedEvent{JobID: id, JobKind: JobKindTranscription, ErrorMessage: errMsg},
	})
	log.Printf("transcription %s failed: %s", id, errMsg)
}

func (s *TranscriptionService) GetTranscription(ctx context.Context, id uuid.UUID) (*models.Transcription, error) {
	t, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: fmt.Sprintf("transcription %s not found", id)}
		}
		return nil, err
	}

	if t.Status == models.StatusProcessing {
		if cached, ok := s.broker.CachedProgress(ctx, JobKindTranscription, id); ok && cached > t.Progress {
			t.Progress = cached
		}
	}
	return t, nil
}

func (s *TranscriptionService) GetVideoTranscription(ctx context.Context, videoID, platform string) (*models.Transcription, error) {
	t, err := s.store.GetByVideo(ctx, videoID, platform)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, &NotFoundError{Message: fmt.Sprintf("no transcription for %s on %s", videoID, platform)}
	}
	return t, nil
}

// DeleteTranscription removes a job; only its original requester may do so.
func (s *TranscriptionService) DeleteTranscription(ctx context.Context, id, requesterUserID uuid.UUID) error {
	t, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &NotFoundError{Message: fmt.Sprintf("transcription %s not found", id)}
		}
		return err
	}
	if t.UserID != requesterUserID {
		return &ForbiddenError{Message: "only the requester may delete this transcription"}
	}

	if _, err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete transcription: %w", err)
	}
	s.broker.Forget(ctx, JobKindTranscription, id)
	return nil
}

// FormatTranscript turns flat provider text into readable paragraphs, four
// sentences apiece.
func FormatTranscript(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}

	var sentences []string
	var current strings.Builder
	for _, r := range trimmed {
		current.WriteRune(r)
		if r == '.' || r == '?' || r == '!' {
			sentence := strings.TrimSpace(current.String())
			if sentence != "" {
				sentences = append(sentences, sentence)
			}
			current.Reset()
		}
	}
	if rest := strings.TrimSpace(current.String()); rest != "" {
		sentences = append(sentences, rest)
	}

	const perParagraph = 4
	var paragraphs []string
	for start := 0; start < len(sentences); start += perParagraph {
		end := start + perParagraph
		if end > len(sentences) {
			end = len(sentences)
		}
		paragraphs = append(paragraphs, strings.Join(sentences[start:end], " "))
	}

	return strings.Join(paragraphs, "\n\n")
}
