package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"creatorlens-backend/internal/models"
)

const (
	instagramWebProfileURL = "https://i.instagram.com/api/v1/users/web_profile_info/"
	instagramGraphqlURL    = "https://www.instagram.com/graphql/query/"
	// Stable query hash for the profile timeline media connection.
	instagramTimelineQueryHash = "e769aa130647d2354c40ea6a439bfc08"

	instagramAppID     = "936619743392459"
	instagramUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// InstagramService scrapes public profile data from Instagram's web API.
// An optional relayed session cookie unlocks private-adjacent data the same
// way the browser extension path does; without it public profiles still
// work, private ones return metadata only.
type InstagramService struct {
	httpClient    *http.Client
	sessionCookie string
	maxItems      int
}

func NewInstagramService(sessionCookie string, maxItems int) *InstagramService {
	return &InstagramService{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		sessionCookie: sessionCookie,
		maxItems:      maxItems,
	}
}

var instagramUsernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._]{1,30}$`)

// ResolveTarget accepts a profile URL or a bare @username and returns the
// canonical lowercase username.
func (s *InstagramService) ResolveTarget(ctx context.Context, raw string) (string, error) {
	input := strings.TrimSpace(raw)
	if input == "" {
		return "", &InvalidTargetError{Message: "Instagram target is empty"}
	}

	if strings.Contains(input, "instagram.com") {
		parsed, err := url.Parse(input)
		if err != nil {
			return "", &InvalidTargetError{Message: fmt.Sprintf("unparseable Instagram URL: %s", raw)}
		}
		parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
		if len(parts) == 0 || parts[0] == "" || parts[0] == "p" || parts[0] == "reel" || parts[0] == "explore" {
			return "", &InvalidTargetError{Message: fmt.Sprintf("URL does not point at a profile: %s", raw)}
		}
		input = parts[0]
	}

	input = strings.TrimPrefix(input, "@")
	username := strings.ToLower(input)
	if !instagramUsernameRegex.MatchString(username) {
		return "", &InvalidTargetError{Message: fmt.Sprintf("invalid Instagram username: %s", raw)}
	}
	return username, nil
}

func (s *InstagramService) FetchMetadata(ctx context.Context, username string) (*models.CreatorMetadata, error) {
	user, err := s.fetchWebProfile(ctx, username)
	if err != nil {
		return nil, err
	}

	return &models.CreatorMetadata{
		Platform:      models.PlatformInstagram,
		CanonicalID:   username,
		Name:          user.FullName,
		Username:      user.Username,
		Biography:     user.Biography,
		ThumbnailURL:  user.ProfilePicURLHD,
		ExternalURL:   user.ExternalURL,
		FollowerCount: user.EdgeFollowedBy.Count,
		ItemCount:     user.EdgeOwnerToTimelineMedia.Count,
		IsVerified:    user.IsVerified,
		IsPrivate:     user.IsPrivate,
	}, nil
}

// FetchItems pages through the profile's timeline media. Private profiles
// (without a relayed session) yield no items rather than an error, matching
// the metadata-only behavior of the scraper this replaces.
func (s *InstagramService) FetchItems(ctx context.Context, username string, onProgress func(fetched, total int)) ([]models.ContentItem, error) {
	user, err := s.fetchWebProfile(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.IsPrivate && s.sessionCookie == "" {
		return nil, nil
	}

	expected := int(user.EdgeOwnerToTimelineMedia.Count)
	if expected > s.maxItems {
		expected = s.maxItems
	}

	var items []models.ContentItem
	for _, edge := range user.EdgeOwnerToTimelineMedia.Edges {
		items = append(items, edge.Node.toContentItem())
		if len(items) >= s.maxItems {
			break
		}
	}
	if onProgress != nil {
		onProgress(len(items), expected)
	}

	cursor := user.EdgeOwnerToTimelineMedia.PageInfo.EndCursor
	hasNext := user.EdgeOwnerToTimelineMedia.PageInfo.HasNextPage
	for hasNext && len(items) < s.maxItems {
		page, err := s.fetchTimelinePage(ctx, user.ID, cursor)
		if err != nil {
			return nil, err
		}

		for _, edge := range page.Edges {
			items = append(items, edge.Node.toContentItem())
			if len(items) >= s.maxItems {
				break
			}
		}
		if onProgress != nil {
			onProgress(len(items), expected)
		}

		cursor = page.PageInfo.EndCursor
		hasNext = page.PageInfo.HasNextPage
	}

	return items, nil
}

func (s *InstagramService) fetchWebProfile(ctx context.Context, username string) (*igUser, error) {
	reqURL := instagramWebProfileURL + "?username=" + url.QueryEscape(username)
	body, err := s.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data struct {
			User *igUser `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &UpstreamError{Message: fmt.Sprintf("malformed Instagram profile response: %v", err)}
	}
	if resp.Data.User == nil {
		return nil, &NotFoundError{Message: fmt.Sprintf("Instagram profile @%s does not exist", username)}
	}
	return resp.Data.User, nil
}

func (s *InstagramService) fetchTimelinePage(ctx context.Context, userID, cursor string) (*igTimelineMedia, error) {
	variables, _ := json.Marshal(map[string]interface{}{
		"id":    userID,
		"first": 50,
		"after": cursor,
	})
	reqURL := instagramGraphqlURL + "?query_hash=" + instagramTimelineQueryHash +
		"&variables=" + url.QueryEscape(string(variables))

	body, err := s.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data struct {
			User struct {
				EdgeOwnerToTimelineMedia igTimelineMedia `json:"edge_owner_to_timeline_media"`
			} `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &UpstreamError{Message: fmt.Sprintf("malformed Instagram timeline response: %v", err)}
	}
	return &resp.Data.User.EdgeOwnerToTimelineMedia, nil
}

func (s *InstagramService) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", instagramUserAgent)
	req.Header.Set("X-IG-App-ID", instagramAppID)
	req.Header.Set("Accept", "application/json")
	if s.sessionCookie != "" {
		req.Header.Set("Cookie", s.sessionCookie)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Message: fmt.Sprintf("Instagram request failed: %v", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &UpstreamError{Message: fmt.Sprintf("failed to read Instagram response: %v", err)}
		}
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, &NotFoundError{Message: "Instagram profile does not exist"}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		// Instagram throttles anonymous scraping with 401/403 as well as 429.
		return nil, &RateLimitError{Message: fmt.Sprintf("Instagram rate limited the request (status %d)", resp.StatusCode)}
	default:
		return nil, &UpstreamError{Message: fmt.Sprintf("Instagram returned status %d", resp.StatusCode)}
	}
}

// Instagram web API response shapes (only the fields we read).

type igUser struct {
	ID                       string          `json:"id"`
	Username                 string          `json:"username"`
	FullName                 string          `json:"full_name"`
	Biography                string          `json:"biography"`
	ExternalURL              string          `json:"external_url"`
	ProfilePicURLHD          string          `json:"profile_pic_url_hd"`
	IsPrivate                bool            `json:"is_private"`
	IsVerified               bool            `json:"is_verified"`
	EdgeFollowedBy           igCount         `json:"edge_followed_by"`
	EdgeOwnerToTimelineMedia igTimelineMedia `json:"edge_owner_to_timeline_media"`
}

type igCount struct {
	Count int64 `json:"count"`
}

type igTimelineMedia struct {
	Count    int64 `json:"count"`
	PageInfo struct {
		HasNextPage bool   `json:"has_next_page"`
		EndCursor   string `json:"end_cursor"`
	} `json:"page_info"`
	Edges []struct {
		Node igMediaNode `json:"node"`
	} `json:"edges"`
}

type igMediaNode struct {
	ID                 string  `json:"id"`
	Shortcode          string  `json:"shortcode"`
	DisplayURL         string  `json:"display_url"`
	IsVideo            bool    `json:"is_video"`
	VideoURL           string  `json:"video_url"`
	VideoViewCount     int64   `json:"video_view_count"`
	VideoDuration      float64 `json:"video_duration"`
	TakenAtTimestamp   int64   `json:"taken_at_timestamp"`
	EdgeLikedBy        igCount `json:"edge_liked_by"`
	EdgeMediaPreview   igCount `json:"edge_media_preview_like"`
	EdgeMediaToComment igCount `json:"edge_media_to_comment"`
	EdgeMediaToCaption struct {
		Edges []struct {
			Node struct {
				Text string `json:"text"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"edge_media_to_caption"`
}

func (n *igMediaNode) toContentItem() models.ContentItem {
	caption := ""
	if len(n.EdgeMediaToCaption.Edges) > 0 {
		caption = n.EdgeMediaToCaption.Edges[0].Node.Text
	}

	likes := n.EdgeLikedBy.Count
	if likes == 0 {
		likes = n.EdgeMediaPreview.Count
	}

	kind := "p"
	if n.IsVideo {
		kind = "reel"
	}

	item := models.ContentItem{
		Platform:        models.PlatformInstagram,
		ExternalID:      n.ID,
		Title:           caption,
		URL:             fmt.Sprintf("https://instagram.com/%s/%s/", kind, n.Shortcode),
		MediaURL:        n.VideoURL,
		ThumbnailURL:    n.DisplayURL,
		DurationSeconds: int(n.VideoDuration),
		ViewCount:       n.VideoViewCount,
		LikeCount:       likes,
		CommentCount:    n.EdgeMediaToComment.Count,
		IsVideo:         n.IsVideo,
	}
	if n.TakenAtTimestamp > 0 {
		ts := time.Unix(n.TakenAtTimestamp, 0).UTC()
		item.PublishedAt = &ts
	}
	return item
}
