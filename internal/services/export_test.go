package services

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"creatorlens-backend/internal/models"
)

func exportFixture() (*models.Analysis, []models.ContentItem) {
	published := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	analysis := &models.Analysis{
		Platform:  models.PlatformYouTube,
		TargetRef: "UCabcdefghijklmnopqrstuv",
		Status:    models.StatusCompleted,
	}
	items := []models.ContentItem{
		{
			ExternalID:      "vid1",
			Title:           `Quoted "title", with commas`,
			URL:             "https://youtube.com/watch?v=vid1",
			PublishedAt:     &published,
			DurationSeconds: 253,
			ViewCount:       20_000,
			LikeCount:       1_500,
			CommentCount:    42,
			IsVideo:         true,
			PerformanceTier: "Medium",
			Position:        0,
		},
		{
			ExternalID:      "vid2",
			Title:           "Plain title",
			ViewCount:       50,
			IsVideo:         true,
			PerformanceTier: "Low",
			Position:        1,
		},
	}
	return analysis, items
}

func TestExportCSV(t *testing.T) {
	svc := NewExportService()
	analysis, items := exportFixture()

	export, err := svc.Render(analysis, items, ExportFormatCSV)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if export.ContentType != "text/csv; charset=utf-8" {
		t.Fatalf("content type = %q", export.ContentType)
	}
	if !strings.HasSuffix(export.Filename, ".csv") {
		t.Fatalf("filename = %q", export.Filename)
	}

	records, err := csv.NewReader(strings.NewReader(string(export.Content))).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want header + 2 rows", len(records))
	}

	header := records[0]
	if header[0] != "position" || header[len(header)-1] != "performance_tier" {
		t.Fatalf("unexpected header: %v", header)
	}

	// The quoted/comma title must round-trip intact through encoding/csv.
	if records[1][2] != `Quoted "title", with commas` {
		t.Fatalf("title mangled: %q", records[1][2])
	}
	if records[1][4] != "2026-03-14T09:30:00Z" {
		t.Fatalf("published_at = %q", records[1][4])
	}
	if records[2][4] != "" {
		t.Fatalf("missing published_at should be blank, got %q", records[2][4])
	}
	if records[1][6] != "20000" || records[2][6] != "50" {
		t.Fatalf("view counts off: %v / %v", records[1][6], records[2][6])
	}
}

func TestExportJSON(t *testing.T) {
	svc := NewExportService()
	analysis, items := exportFixture()

	export, err := svc.Render(analysis, items, ExportFormatJSON)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if export.ContentType != "application/json" {
		t.Fatalf("content type = %q", export.ContentType)
	}

	var doc struct {
		Analysis struct {
			TargetRef string `json:"target_ref"`
		} `json:"analysis"`
		Summary struct {
			Total   int64   `json:"total"`
			Average float64 `json:"average"`
		} `json:"summary"`
		Tiers map[string]int    `json:"tier_counts"`
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(export.Content, &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if doc.Analysis.TargetRef != "UCabcdefghijklmnopqrstuv" {
		t.Fatalf("analysis block missing: %+v", doc.Analysis)
	}
	if doc.Summary.Total != 20_050 || doc.Summary.Average != 10_025 {
		t.Fatalf("summary off: %+v", doc.Summary)
	}
	if doc.Tiers["Medium"] != 1 || doc.Tiers["Low"] != 1 {
		t.Fatalf("tier counts off: %v", doc.Tiers)
	}
	if len(doc.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(doc.Items))
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	svc := NewExportService()
	analysis, items := exportFixture()

	_, err := svc.Render(analysis, items, "xml")
	var invalidArg *InvalidArgumentError
	if !errors.As(err, &invalidArg) {
		t.Fatalf("expected InvalidArgumentError, got %v", err)
	}
}
