package services

import (
	"testing"

	"creatorlens-backend/internal/models"
)

func TestTierLabel_DefaultYouTubeTable(t *testing.T) {
	tests := []struct {
		name   string
		metric int64
		want   string
	}{
		{"zero views", 0, "Low"},
		{"just below medium", 9_999, "Low"},
		{"exactly at medium boundary", 10_000, "Medium"},
		{"mid medium", 55_000, "Medium"},
		{"exactly at high boundary", 100_000, "High"},
		{"very high", 2_000_000, "VeryHigh"},
		{"exactly at viral boundary", 10_000_000, "Viral"},
		{"far beyond the top tier", 900_000_000, "Viral"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TierLabel(tt.metric, YouTubeViewTiers)
			if got != tt.want {
				t.Fatalf("TierLabel(%d) = %q, want %q", tt.metric, got, tt.want)
			}
		})
	}
}

func TestTierLabel_BoundaryBelongsToHigherTier(t *testing.T) {
	table := TierTable{
		{Label: "Low", MinMetric: 0},
		{Label: "Medium", MinMetric: 1_000},
		{Label: "High", MinMetric: 10_000},
	}

	if got := TierLabel(999, table); got != "Low" {
		t.Fatalf("TierLabel(999) = %q, want Low", got)
	}
	if got := TierLabel(1_000, table); got != "Medium" {
		t.Fatalf("TierLabel(1000) = %q, want Medium", got)
	}
	if got := TierLabel(10_000, table); got != "High" {
		t.Fatalf("TierLabel(10000) = %q, want High", got)
	}
}

func TestValidateTierTable(t *testing.T) {
	tests := []struct {
		name    string
		table   TierTable
		wantErr bool
	}{
		{"default table is valid", YouTubeViewTiers, false},
		{"empty table", TierTable{}, true},
		{"first bound not zero", TierTable{{Label: "Low", MinMetric: 5}}, true},
		{"non-ascending bounds", TierTable{
			{Label: "Low", MinMetric: 0},
			{Label: "Medium", MinMetric: 100},
			{Label: "High", MinMetric: 100},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTierTable(tt.table)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateTierTable() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func viewItems(views ...int64) []models.ContentItem {
	items := make([]models.ContentItem, len(views))
	for i, v := range views {
		items[i] = models.ContentItem{ExternalID: string(rune('a' + i)), ViewCount: v, Position: i}
	}
	return items
}

func TestSegmentByTier_ExhaustiveAndStable(t *testing.T) {
	items := viewItems(50, 2_000_000, 500, 15_000, 120_000, 30_000)

	tiers := SegmentByTier(items, ViewCount, YouTubeViewTiers)

	total := 0
	for _, bucket := range tiers {
		total += len(bucket)
	}
	if total != len(items) {
		t.Fatalf("segmentation dropped items: got %d, want %d", total, len(items))
	}

	low := tiers["Low"]
	if len(low) != 2 || low[0].ViewCount != 50 || low[1].ViewCount != 500 {
		t.Fatalf("Low tier lost input order: %+v", low)
	}

	medium := tiers["Medium"]
	if len(medium) != 2 || medium[0].ViewCount != 15_000 || medium[1].ViewCount != 30_000 {
		t.Fatalf("Medium tier lost input order: %+v", medium)
	}

	if len(tiers["High"]) != 1 || len(tiers["VeryHigh"]) != 1 {
		t.Fatalf("unexpected partition: High=%d VeryHigh=%d", len(tiers["High"]), len(tiers["VeryHigh"]))
	}
}

func TestAssignTiers(t *testing.T) {
	items := viewItems(50, 15_000, 250_000)

	AssignTiers(items, ViewCount, YouTubeViewTiers)

	want := []string{"Low", "Medium", "High"}
	for i := range items {
		if items[i].PerformanceTier != want[i] {
			t.Fatalf("item %d tier = %q, want %q", i, items[i].PerformanceTier, want[i])
		}
	}
}

func TestComputeSummary(t *testing.T) {
	t.Run("empty input is zero-safe", func(t *testing.T) {
		summary := ComputeSummary(nil, ViewCount)
		if summary.Total != 0 || summary.Average != 0 || summary.TopItem != nil {
			t.Fatalf("expected zero summary, got %+v", summary)
		}
	})

	t.Run("totals and average", func(t *testing.T) {
		items := viewItems(50, 2_000, 20_000)

		summary := ComputeSummary(items, ViewCount)
		if summary.Total != 22_050 {
			t.Fatalf("Total = %d, want 22050", summary.Total)
		}
		if summary.Average != 7_350 {
			t.Fatalf("Average = %f, want 7350", summary.Average)
		}
		if summary.TopItem == nil || summary.TopItem.ViewCount != 20_000 {
			t.Fatalf("TopItem = %+v, want the 20000-view item", summary.TopItem)
		}
	})

	t.Run("metric tie keeps the first-seen item", func(t *testing.T) {
		items := viewItems(500, 500, 100)

		summary := ComputeSummary(items, ViewCount)
		if summary.TopItem.Position != 0 {
			t.Fatalf("TopItem position = %d, want 0 (first seen)", summary.TopItem.Position)
		}
	})
}

func TestTierCounts(t *testing.T) {
	items := viewItems(50, 15_000, 250_000, 300_000)
	AssignTiers(items, ViewCount, YouTubeViewTiers)
	items = append(items, models.ContentItem{ViewCount: 1}) // never segmented

	counts := TierCounts(items)
	if counts["Low"] != 1 || counts["Medium"] != 1 || counts["High"] != 2 {
		t.Fatalf("unexpected counts: %v", counts)
	}
	if _, ok := counts[""]; ok {
		t.Fatalf("unsegmented items must not produce a blank tier bucket")
	}
}
