package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	ytapi "github.com/hightemp/youtube-transcript-api-go/api"
	yt "github.com/kkdai/youtube/v2"

	"creatorlens-backend/internal/models"
)

const youtubeAPIBase = "https://www.googleapis.com/youtube/v3"

// YouTubeService talks to the YouTube Data API v3 for channel analysis and
// resolves caption/audio sources for transcription.
type YouTubeService struct {
	apiKey        string
	apiBase       string
	httpClient    *http.Client
	transcriptAPI *ytapi.YouTubeTranscriptApi
	ytClient      *yt.Client
	maxItems      int
}

func NewYouTubeService(apiKey string, maxItems int) *YouTubeService {
	return &YouTubeService{
		apiKey:        apiKey,
		apiBase:       youtubeAPIBase,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		transcriptAPI: ytapi.NewYouTubeTranscriptApi(),
		ytClient:      &yt.Client{},
		maxItems:      maxItems,
	}
}

var (
	channelIDRegex = regexp.MustCompile(`^UC[\w-]{22}$`)
	handleRegex    = regexp.MustCompile(`^@?[A-Za-z0-9._-]{3,30}$`)
)

// ResolveTarget turns a channel URL, @handle, legacy username or bare
// channel ID into the canonical UC… channel ID.
func (s *YouTubeService) ResolveTarget(ctx context.Context, raw string) (string, error) {
	input := strings.TrimSpace(raw)
	if input == "" {
		return "", &InvalidTargetError{Message: "YouTube target is empty"}
	}

	if channelIDRegex.MatchString(input) {
		return input, nil
	}

	if strings.Contains(input, "youtube.com") {
		parsed, err := url.Parse(input)
		if err != nil {
			return "", &InvalidTargetError{Message: fmt.Sprintf("unparseable YouTube URL: %s", raw)}
		}
		path := strings.Trim(parsed.Path, "/")
		parts := strings.Split(path, "/")

		switch {
		case len(parts) >= 2 && parts[0] == "channel":
			if channelIDRegex.MatchString(parts[1]) {
				return parts[1], nil
			}
			return "", &InvalidTargetError{Message: fmt.Sprintf("malformed channel ID in URL: %s", raw)}
		case len(parts) >= 1 && strings.HasPrefix(parts[0], "@"):
			return s.lookupChannelID(ctx, "forHandle", parts[0])
		case len(parts) >= 2 && parts[0] == "user":
			return s.lookupChannelID(ctx, "forUsername", parts[1])
		case len(parts) >= 2 && parts[0] == "c":
			// Legacy custom URLs have no direct lookup; handle resolution
			// works for most of them.
			return s.lookupChannelID(ctx, "forHandle", "@"+parts[1])
		}
		return "", &InvalidTargetError{Message: fmt.Sprintf("unrecognized YouTube URL shape: %s", raw)}
	}

	if handleRegex.MatchString(input) {
		if !strings.HasPrefix(input, "@") {
			input = "@" + input
		}
		return s.lookupChannelID(ctx, "forHandle", input)
	}

	return "", &InvalidTargetError{Message: fmt.Sprintf("unrecognized YouTube target: %s", raw)}
}

func (s *YouTubeService) lookupChannelID(ctx context.Context, param, value string) (string, error) {
	var resp channelListResponse
	err := s.apiGet(ctx, "/channels", url.Values{"part": {"id"}, param: {value}}, &resp)
	if err != nil {
		return "", err
	}
	if len(resp.Items) == 0 {
		return "", &InvalidTargetError{Message: fmt.Sprintf("no YouTube channel matches %q", value)}
	}
	return resp.Items[0].ID, nil
}

func (s *YouTubeService) FetchMetadata(ctx context.Context, channelID string) (*models.CreatorMetadata, error) {
	var resp channelListResponse
	err := s.apiGet(ctx, "/channels",
		url.Values{"part": {"snippet,statistics"}, "id": {channelID}}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, &NotFoundError{Message: fmt.Sprintf("YouTube channel %s not found", channelID)}
	}

	ch := resp.Items[0]
	subs, _ := strconv.ParseInt(ch.Statistics.SubscriberCount, 10, 64)
	videos, _ := strconv.ParseInt(ch.Statistics.VideoCount, 10, 64)

	return &models.CreatorMetadata{
		Platform:      models.PlatformYouTube,
		CanonicalID:   channelID,
		Name:          ch.Snippet.Title,
		Username:      ch.Snippet.CustomURL,
		Biography:     ch.Snippet.Description,
		ThumbnailURL:  ch.Snippet.Thumbnails.High.URL,
		ExternalURL:   "https://www.youtube.com/channel/" + channelID,
		FollowerCount: subs,
		ItemCount:     videos,
	}, nil
}

// FetchItems walks the channel's uploads playlist and hydrates statistics in
// batches of 50. onProgress receives (fetched, expectedTotal) after each
// page; a partial page failure aborts the whole fetch rather than silently
// truncating.
func (s *YouTubeService) FetchItems(ctx context.Context, channelID string, onProgress func(fetched, total int)) ([]models.ContentItem, error) {
	// The uploads playlist ID is the channel ID with the UC prefix swapped
	// for UU.
	uploadsID := "UU" + strings.TrimPrefix(channelID, "UC")

	var videoIDs []string
	pageToken := ""
	for {
		params := url.Values{
			"part":       {"contentDetails"},
			"playlistId": {uploadsID},
			"maxResults": {"50"},
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var page playlistItemsResponse
		if err := s.apiGet(ctx, "/playlistItems", params, &page); err != nil {
			return nil, err
		}

		for _, it := range page.Items {
			videoIDs = append(videoIDs, it.ContentDetails.VideoID)
			if len(videoIDs) >= s.maxItems {
				break
			}
		}

		expected := page.PageInfo.TotalResults
		if expected > s.maxItems {
			expected = s.maxItems
		}
		if onProgress != nil {
			onProgress(len(videoIDs), expected)
		}

		if len(videoIDs) >= s.maxItems || page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	var items []models.ContentItem
	for start := 0; start < len(videoIDs); start += 50 {
		end := start + 50
		if end > len(videoIDs) {
			end = len(videoIDs)
		}

		var resp videoListResponse
		err := s.apiGet(ctx, "/videos", url.Values{
			"part": {"snippet,statistics,contentDetails"},
			"id":   {strings.Join(videoIDs[start:end], ",")},
		}, &resp)
		if err != nil {
			return nil, err
		}

		for _, v := range resp.Items {
			views, _ := strconv.ParseInt(v.Statistics.ViewCount, 10, 64)
			likes, _ := strconv.ParseInt(v.Statistics.LikeCount, 10, 64)
			comments, _ := strconv.ParseInt(v.Statistics.CommentCount, 10, 64)

			item := models.ContentItem{
				Platform:        models.PlatformYouTube,
				ExternalID:      v.ID,
				Title:           v.Snippet.Title,
				URL:             "https://www.youtube.com/watch?v=" + v.ID,
				ThumbnailURL:    v.Snippet.Thumbnails.High.URL,
				DurationSeconds: parseISO8601Duration(v.ContentDetails.Duration),
				ViewCount:       views,
				LikeCount:       likes,
				CommentCount:    comments,
				IsVideo:         true,
			}
			if ts, err := time.Parse(time.RFC3339, v.Snippet.PublishedAt); err == nil {
				item.PublishedAt = &ts
			}
			items = append(items, item)
		}
	}

	return items, nil
}

// CaptionTranscript fetches existing captions for a video, preferring
// English tracks. Returns the joined text and the track language.
func (s *YouTubeService) CaptionTranscript(videoID string) (string, string, error) {
	lang := "en"
	transcript, err := s.transcriptAPI.GetTranscript(videoID, []string{"en", "en-US", "en-GB"})
	if err != nil {
		// Fallback: any available language.
		transcript, err = s.transcriptAPI.GetTranscript(videoID, nil)
		if err != nil {
			return "", "", fmt.Errorf("no captions available: %w", err)
		}
		lang = ""
	}

	if len(transcript.Entries) == 0 {
		return "", "", fmt.Errorf("caption track is empty")
	}

	var fullText strings.Builder
	for _, entry := range transcript.Entries {
		text := strings.TrimSpace(entry.Text)
		if text == "" {
			continue
		}
		fullText.WriteString(text)
		fullText.WriteString(" ")
	}

	cleaned := strings.TrimSpace(fullText.String())
	if cleaned == "" {
		return "", "", fmt.Errorf("caption text resolved to empty content")
	}

	return cleaned, lang, nil
}

// MediaURL returns a direct audio-stream URL suitable for submission to the
// transcription provider.
func (s *YouTubeService) MediaURL(ctx context.Context, videoID string) (string, error) {
	video, err := s.ytClient.GetVideoContext(ctx, videoID)
	if err != nil {
		return "", &UpstreamError{Message: fmt.Sprintf("failed to fetch YouTube video %s: %v", videoID, err)}
	}

	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return "", &UpstreamError{Message: fmt.Sprintf("no audio formats available for video %s", videoID)}
	}

	best := formats[0]
	for _, f := range formats {
		if f.Bitrate > best.Bitrate {
			best = f
		}
	}

	streamURL, err := s.ytClient.GetStreamURLContext(ctx, video, &best)
	if err != nil {
		return "", &UpstreamError{Message: fmt.Sprintf("failed to resolve audio stream for video %s: %v", videoID, err)}
	}
	return streamURL, nil
}

func (s *YouTubeService) apiGet(ctx context.Context, path string, params url.Values, out interface{}) error {
	params.Set("key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiBase+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &UpstreamError{Message: fmt.Sprintf("YouTube API request failed: %v", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return json.NewDecoder(resp.Body).Decode(out)
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		// Quota exhaustion surfaces as 403 on the Data API.
		return &RateLimitError{Message: "YouTube API quota exhausted"}
	case resp.StatusCode == http.StatusNotFound:
		return &NotFoundError{Message: "YouTube resource not found"}
	default:
		return &UpstreamError{Message: fmt.Sprintf("YouTube API returned status %d", resp.StatusCode)}
	}
}

var iso8601DurationRegex = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

func parseISO8601Duration(d string) int {
	m := iso8601DurationRegex.FindStringSubmatch(d)
	if m == nil {
		return 0
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	return hours*3600 + minutes*60 + seconds
}

// YouTube Data API response shapes (only the fields we read).

type thumbnails struct {
	High struct {
		URL string `json:"url"`
	} `json:"high"`
}

type channelListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string     `json:"title"`
			Description string     `json:"description"`
			CustomURL   string     `json:"customUrl"`
			Thumbnails  thumbnails `json:"thumbnails"`
		} `json:"snippet"`
		Statistics struct {
			SubscriberCount string `json:"subscriberCount"`
			VideoCount      string `json:"videoCount"`
		} `json:"statistics"`
	} `json:"items"`
}

type playlistItemsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	PageInfo      struct {
		TotalResults int `json:"totalResults"`
	} `json:"pageInfo"`
	Items []struct {
		ContentDetails struct {
			VideoID string `json:"videoId"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type videoListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string     `json:"title"`
			PublishedAt string     `json:"publishedAt"`
			Thumbnails  thumbnails `json:"thumbnails"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			LikeCount    string `json:"likeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}
