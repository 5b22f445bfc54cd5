package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"creatorlens-backend/internal/models"
)

type fakeTranscriptionStore struct {
	mu        sync.Mutex
	jobs      map[uuid.UUID]*models.Transcription
	progress  map[uuid.UUID][]int
	completed chan uuid.UUID
	failed    chan uuid.UUID
	discarded chan uuid.UUID
}

func newFakeTranscriptionStore() *fakeTranscriptionStore {
	return &fakeTranscriptionStore{
		jobs:      make(map[uuid.UUID]*models.Transcription),
		progress:  make(map[uuid.UUID][]int),
		completed: make(chan uuid.UUID, 4),
		failed:    make(chan uuid.UUID, 4),
		discarded: make(chan uuid.UUID, 4),
	}
}

func (f *fakeTranscriptionStore) Create(ctx context.Context, t *models.Transcription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = uuid.New()
	t.Status = models.StatusProcessing
	t.StartTime = time.Now()
	copied := *t
	f.jobs[t.ID] = &copied
	return nil
}

func (f *fakeTranscriptionStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Transcription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.jobs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTranscriptionStore) GetByVideo(ctx context.Context, videoID, platform string) (*models.Transcription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.jobs {
		if t.VideoID == videoID && t.Platform == platform && t.Status != models.StatusFailed {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeTranscriptionStore) UpdateProgress(ctx context.Context, id uuid.UUID, progress int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.jobs[id]
	if !ok || t.Status != models.StatusProcessing {
		return nil
	}
	if progress > t.Progress {
		t.Progress = progress
	}
	f.progress[id] = append(f.progress[id], t.Progress)
	return nil
}

func (f *fakeTranscriptionStore) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	f.mu.Lock()
	t, ok := f.jobs[id]
	if ok {
		t.Status = models.StatusFailed
		t.ErrorMessage = &errMsg
		now := time.Now()
		t.EndTime = &now
	}
	f.mu.Unlock()
	f.failed <- id
	return nil
}

func (f *fakeTranscriptionStore) Complete(ctx context.Context, t *models.Transcription) error {
	f.mu.Lock()
	stored, ok := f.jobs[t.ID]
	if !ok || stored.Status != models.StatusProcessing {
		f.mu.Unlock()
		f.discarded <- t.ID
		return pgx.ErrNoRows
	}
	stored.Status = models.StatusCompleted
	stored.Progress = 100
	stored.RawTranscript = t.RawTranscript
	stored.FormattedTranscript = t.FormattedTranscript
	stored.LanguageDetected = t.LanguageDetected
	stored.ConfidenceScore = t.ConfidenceScore
	stored.ProcessingTimeSeconds = t.ProcessingTimeSeconds
	now := time.Now()
	stored.EndTime = &now
	f.mu.Unlock()
	f.completed <- t.ID
	return nil
}

func (f *fakeTranscriptionStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.jobs[id]; !ok {
		return false, nil
	}
	delete(f.jobs, id)
	return true, nil
}

// fakeProvider replays a scripted status sequence, holding the last entry.
type fakeProvider struct {
	mu          sync.Mutex
	submitCalls int
	lastMedia   string
	submitErr   error
	script      []ProviderStatus
	polls       int
}

func (f *fakeProvider) Submit(ctx context.Context, mediaURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls++
	f.lastMedia = mediaURL
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return "provider-job-1", nil
}

func (f *fakeProvider) PollStatus(ctx context.Context, providerJobID string) (*ProviderStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.polls
	if idx >= len(f.script) {
		idx = len(f.script) - 1
	}
	f.polls++
	status := f.script[idx]
	return &status, nil
}

func (f *fakeProvider) submitted() (int, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitCalls, f.lastMedia
}

type fakeCaptionSource struct {
	captions    string
	captionLang string
	captionErr  error
	mediaURL    string
	mediaErr    error
}

func (f *fakeCaptionSource) CaptionTranscript(videoID string) (string, string, error) {
	if f.captionErr != nil {
		return "", "", f.captionErr
	}
	return f.captions, f.captionLang, nil
}

func (f *fakeCaptionSource) MediaURL(ctx context.Context, videoID string) (string, error) {
	if f.mediaErr != nil {
		return "", f.mediaErr
	}
	return f.mediaURL, nil
}

type fakeItemLookup struct {
	item *models.ContentItem
}

func (f *fakeItemLookup) GetItemByExternalID(ctx context.Context, platform, externalID string) (*models.ContentItem, error) {
	if f.item == nil {
		return nil, pgx.ErrNoRows
	}
	return f.item, nil
}

func newTestTranscriptionService(store *fakeTranscriptionStore, provider *fakeProvider, yt *fakeCaptionSource, items *fakeItemLookup) *TranscriptionService {
	return NewTranscriptionService(store, provider, yt, items, nil, time.Millisecond, time.Second)
}

func TestStartTranscription_DedupReusesExistingJob(t *testing.T) {
	store := newFakeTranscriptionStore()
	provider := &fakeProvider{}
	svc := newTestTranscriptionService(store, provider, &fakeCaptionSource{captionErr: errors.New("none")}, nil)

	existing := &models.Transcription{UserID: uuid.New(), VideoID: "abc123", Platform: models.PlatformYouTube}
	store.Create(context.Background(), existing)

	id, reused, err := svc.StartTranscription(context.Background(), uuid.New(), "abc123", models.PlatformYouTube)
	if err != nil {
		t.Fatalf("StartTranscription failed: %v", err)
	}
	if !reused || id != existing.ID {
		t.Fatalf("expected job %s to be reused, got %s (reused=%v)", existing.ID, id, reused)
	}
	if calls, _ := provider.submitted(); calls != 0 {
		t.Fatalf("dedup hit must not submit to the provider (%d calls)", calls)
	}
}

func TestStartTranscription_CaptionFastPath(t *testing.T) {
	store := newFakeTranscriptionStore()
	provider := &fakeProvider{}
	yt := &fakeCaptionSource{captions: "Hello world. This came from captions.", captionLang: "en"}
	svc := newTestTranscriptionService(store, provider, yt, nil)

	id, reused, err := svc.StartTranscription(context.Background(), uuid.New(), "vid1", models.PlatformYouTube)
	if err != nil {
		t.Fatalf("StartTranscription failed: %v", err)
	}
	if reused {
		t.Fatalf("fast path is a fresh job, not a reuse")
	}
	if calls, _ := provider.submitted(); calls != 0 {
		t.Fatalf("caption fast path must not engage the provider (%d calls)", calls)
	}

	job, err := svc.GetTranscription(context.Background(), id)
	if err != nil {
		t.Fatalf("GetTranscription failed: %v", err)
	}
	if job.Status != models.StatusCompleted || job.Progress != 100 {
		t.Fatalf("fast path job = %s/%d, want completed/100", job.Status, job.Progress)
	}
	if job.RawTranscript == nil || *job.RawTranscript == "" {
		t.Fatalf("fast path must store the caption text")
	}
	if job.LanguageDetected == nil || *job.LanguageDetected != "en" {
		t.Fatalf("fast path must keep the caption language")
	}
}

func TestStartTranscription_ProviderFlowCompletes(t *testing.T) {
	store := newFakeTranscriptionStore()
	provider := &fakeProvider{script: []ProviderStatus{
		{Status: ProviderStatusQueued},
		{Status: ProviderStatusProcessing},
		{Status: ProviderStatusProcessing},
		{Status: ProviderStatusCompleted, Text: "Spoken words here.", Confidence: 0.93, LanguageCode: "en"},
	}}
	yt := &fakeCaptionSource{captionErr: errors.New("no captions"), mediaURL: "https://cdn.example/audio.mp4"}
	svc := newTestTranscriptionService(store, provider, yt, nil)

	id, _, err := svc.StartTranscription(context.Background(), uuid.New(), "vid2", models.PlatformYouTube)
	if err != nil {
		t.Fatalf("StartTranscription failed: %v", err)
	}

	waitFor(t, store.completed, "provider completion")

	if _, media := provider.submitted(); media != "https://cdn.example/audio.mp4" {
		t.Fatalf("submitted media URL = %q", media)
	}

	job, err := svc.GetTranscription(context.Background(), id)
	if err != nil {
		t.Fatalf("GetTranscription failed: %v", err)
	}
	if job.Status != models.StatusCompleted {
		t.Fatalf("status = %s, want completed", job.Status)
	}
	if job.ConfidenceScore == nil || *job.ConfidenceScore != 0.93 {
		t.Fatalf("confidence not carried over: %+v", job.ConfidenceScore)
	}
	if job.FormattedTranscript == nil || !strings.Contains(*job.FormattedTranscript, "Spoken words here.") {
		t.Fatalf("formatted transcript missing")
	}

	values := store.progress[id]
	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			t.Fatalf("progress regressed: %v", values)
		}
	}
}

func TestStartTranscription_PollTimeoutFailsJob(t *testing.T) {
	store := newFakeTranscriptionStore()
	provider := &fakeProvider{script: []ProviderStatus{{Status: ProviderStatusProcessing}}}
	yt := &fakeCaptionSource{captionErr: errors.New("no captions"), mediaURL: "https://cdn.example/audio.mp4"}

	svc := NewTranscriptionService(store, provider, yt, nil, nil, time.Millisecond, 25*time.Millisecond)

	id, _, err := svc.StartTranscription(context.Background(), uuid.New(), "vid3", models.PlatformYouTube)
	if err != nil {
		t.Fatalf("StartTranscription failed: %v", err)
	}

	waitFor(t, store.failed, "timeout failure")

	job, _ := svc.GetTranscription(context.Background(), id)
	if job.Status != models.StatusFailed {
		t.Fatalf("status = %s, want failed", job.Status)
	}
	if job.ErrorMessage == nil || !strings.Contains(*job.ErrorMessage, "timed out") {
		t.Fatalf("timeout failure must say so, got %v", job.ErrorMessage)
	}
}

func TestStartTranscription_ProviderErrorFailsJob(t *testing.T) {
	store := newFakeTranscriptionStore()
	provider := &fakeProvider{script: []ProviderStatus{
		{Status: ProviderStatusError, ErrorMessage: "audio unreadable"},
	}}
	yt := &fakeCaptionSource{captionErr: errors.New("no captions"), mediaURL: "https://cdn.example/audio.mp4"}
	svc := newTestTranscriptionService(store, provider, yt, nil)

	id, _, err := svc.StartTranscription(context.Background(), uuid.New(), "vid4", models.PlatformYouTube)
	if err != nil {
		t.Fatalf("StartTranscription failed: %v", err)
	}

	waitFor(t, store.failed, "provider failure")

	job, _ := svc.GetTranscription(context.Background(), id)
	if job.ErrorMessage == nil || *job.ErrorMessage != "audio unreadable" {
		t.Fatalf("provider error not carried over: %v", job.ErrorMessage)
	}
}

func TestStartTranscription_InstagramUsesStoredMediaURL(t *testing.T) {
	store := newFakeTranscriptionStore()
	provider := &fakeProvider{script: []ProviderStatus{
		{Status: ProviderStatusCompleted, Text: "Reel audio."},
	}}
	items := &fakeItemLookup{item: &models.ContentItem{ExternalID: "reel9", MediaURL: "https://ig.example/reel9.mp4"}}
	svc := newTestTranscriptionService(store, provider, nil, items)

	_, _, err := svc.StartTranscription(context.Background(), uuid.New(), "reel9", models.PlatformInstagram)
	if err != nil {
		t.Fatalf("StartTranscription failed: %v", err)
	}

	waitFor(t, store.completed, "reel completion")

	if _, media := provider.submitted(); media != "https://ig.example/reel9.mp4" {
		t.Fatalf("submitted media URL = %q, want the stored reel URL", media)
	}
}

func TestStartTranscription_InstagramWithoutAnalyzedItem(t *testing.T) {
	svc := newTestTranscriptionService(newFakeTranscriptionStore(), &fakeProvider{}, nil, &fakeItemLookup{})

	_, _, err := svc.StartTranscription(context.Background(), uuid.New(), "unknown", models.PlatformInstagram)
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestDeleteTranscription_OwnershipEnforced(t *testing.T) {
	store := newFakeTranscriptionStore()
	svc := newTestTranscriptionService(store, &fakeProvider{}, nil, nil)

	owner := uuid.New()
	job := &models.Transcription{UserID: owner, VideoID: "vid5", Platform: models.PlatformYouTube}
	store.Create(context.Background(), job)

	err := svc.DeleteTranscription(context.Background(), job.ID, uuid.New())
	var forbidden *ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected ForbiddenError for non-owner, got %v", err)
	}

	if err := svc.DeleteTranscription(context.Background(), job.ID, owner); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if _, err := store.GetByID(context.Background(), job.ID); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("job should be gone, got %v", err)
	}
}

func TestFormatTranscript(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		if got := FormatTranscript("   "); got != "" {
			t.Fatalf("FormatTranscript(blank) = %q, want empty", got)
		}
	})

	t.Run("groups four sentences per paragraph", func(t *testing.T) {
		text := "One. Two. Three. Four. Five. Six."
		got := FormatTranscript(text)

		paragraphs := strings.Split(got, "\n\n")
		if len(paragraphs) != 2 {
			t.Fatalf("got %d paragraphs, want 2: %q", len(paragraphs), got)
		}
		if paragraphs[0] != "One. Two. Three. Four." {
			t.Fatalf("first paragraph = %q", paragraphs[0])
		}
		if paragraphs[1] != "Five. Six." {
			t.Fatalf("second paragraph = %q", paragraphs[1])
		}
	})

	t.Run("keeps trailing text without terminal punctuation", func(t *testing.T) {
		got := FormatTranscript("Complete sentence. trailing fragment")
		if !strings.Contains(got, "trailing fragment") {
			t.Fatalf("fragment dropped: %q", got)
		}
	})
}
