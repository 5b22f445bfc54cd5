package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const assemblyAIBaseURL = "https://api.assemblyai.com/v2"

// Provider-side transcript statuses.
const (
	ProviderStatusQueued     = "queued"
	ProviderStatusProcessing = "processing"
	ProviderStatusCompleted  = "completed"
	ProviderStatusError      = "error"
)

// ProviderStatus is one poll result from the transcription provider.
type ProviderStatus struct {
	Status       string
	Text         string
	Confidence   float64
	LanguageCode string
	AudioSeconds float64
	ErrorMessage string
}

// AssemblyAIService submits audio URLs to AssemblyAI and polls transcript
// status over its REST API.
type AssemblyAIService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewAssemblyAIService(apiKey string) *AssemblyAIService {
	return &AssemblyAIService{
		apiKey:     apiKey,
		baseURL:    assemblyAIBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Submit starts a transcription job for the media URL and returns the
// provider's job ID.
func (s *AssemblyAIService) Submit(ctx context.Context, mediaURL string) (string, error) {
	payload, _ := json.Marshal(map[string]interface{}{
		"audio_url":          mediaURL,
		"language_detection": true,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/transcript", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &UpstreamError{Message: fmt.Sprintf("transcription submit failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &RateLimitError{Message: "transcription provider rate limit exceeded"}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &UpstreamError{Message: fmt.Sprintf("transcription submit returned status %d: %s", resp.StatusCode, string(body))}
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &UpstreamError{Message: fmt.Sprintf("malformed submit response: %v", err)}
	}
	if result.ID == "" {
		return "", &UpstreamError{Message: "transcription provider returned no job ID"}
	}
	return result.ID, nil
}

// PollStatus fetches the current state of a provider job.
func (s *AssemblyAIService) PollStatus(ctx context.Context, providerJobID string) (*ProviderStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/transcript/"+providerJobID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Message: fmt.Sprintf("transcription poll failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &NotFoundError{Message: fmt.Sprintf("transcription provider job %s not found", providerJobID)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Message: fmt.Sprintf("transcription poll returned status %d", resp.StatusCode)}
	}

	var result struct {
		Status       string   `json:"status"`
		Text         *string  `json:"text"`
		Confidence   *float64 `json:"confidence"`
		LanguageCode *string  `json:"language_code"`
		AudioSecs    *float64 `json:"audio_duration"`
		Error        *string  `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &UpstreamError{Message: fmt.Sprintf("malformed poll response: %v", err)}
	}

	status := &ProviderStatus{Status: result.Status}
	if result.Text != nil {
		status.Text = *result.Text
	}
	if result.Confidence != nil {
		status.Confidence = *result.Confidence
	}
	if result.LanguageCode != nil {
		status.LanguageCode = *result.LanguageCode
	}
	if result.AudioSecs != nil {
		status.AudioSeconds = *result.AudioSecs
	}
	if result.Error != nil {
		status.ErrorMessage = *result.Error
	}
	return status, nil
}
