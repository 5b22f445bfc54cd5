package services

import (
	"context"
	"errors"
	"testing"
)

func TestInstagramResolveTarget(t *testing.T) {
	svc := NewInstagramService("", 100)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare username", "somecreator", "somecreator"},
		{"with at prefix", "@SomeCreator", "somecreator"},
		{"uppercase normalized", "Some.Creator_99", "some.creator_99"},
		{"profile URL", "https://www.instagram.com/somecreator/", "somecreator"},
		{"profile URL with tab", "https://instagram.com/somecreator/reels/", "somecreator"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ResolveTarget(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("ResolveTarget(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("ResolveTarget(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestInstagramResolveTarget_Invalid(t *testing.T) {
	svc := NewInstagramService("", 100)

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"post URL", "https://www.instagram.com/p/Cxyz123/"},
		{"reel URL", "https://www.instagram.com/reel/Cxyz123/"},
		{"explore URL", "https://www.instagram.com/explore/tags/cats/"},
		{"illegal characters", "has spaces"},
		{"too long", "abcdefghijklmnopqrstuvwxyz0123456789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ResolveTarget(context.Background(), tt.input)
			var invalidTarget *InvalidTargetError
			if !errors.As(err, &invalidTarget) {
				t.Fatalf("ResolveTarget(%q) error = %v, want InvalidTargetError", tt.input, err)
			}
		})
	}
}

func TestIGMediaNodeToContentItem(t *testing.T) {
	node := igMediaNode{
		ID:               "321",
		Shortcode:        "Cxyz",
		DisplayURL:       "https://cdn.ig/display.jpg",
		IsVideo:          true,
		VideoURL:         "https://cdn.ig/video.mp4",
		VideoViewCount:   12_345,
		VideoDuration:    33.8,
		TakenAtTimestamp: 1_700_000_000,
	}
	node.EdgeMediaPreview.Count = 42
	node.EdgeMediaToComment.Count = 7
	node.EdgeMediaToCaption.Edges = []struct {
		Node struct {
			Text string `json:"text"`
		} `json:"node"`
	}{{Node: struct {
		Text string `json:"text"`
	}{Text: "a caption"}}}

	item := node.toContentItem()

	if item.URL != "https://instagram.com/reel/Cxyz/" {
		t.Fatalf("video URL shape = %q", item.URL)
	}
	if item.Title != "a caption" {
		t.Fatalf("caption = %q", item.Title)
	}
	if item.LikeCount != 42 {
		t.Fatalf("likes should fall back to preview count, got %d", item.LikeCount)
	}
	if item.MediaURL != "https://cdn.ig/video.mp4" || item.DurationSeconds != 33 {
		t.Fatalf("media fields off: %+v", item)
	}
	if item.PublishedAt == nil || item.PublishedAt.Unix() != 1_700_000_000 {
		t.Fatalf("published timestamp off: %+v", item.PublishedAt)
	}

	node.IsVideo = false
	if got := node.toContentItem().URL; got != "https://instagram.com/p/Cxyz/" {
		t.Fatalf("photo URL shape = %q", got)
	}
}
