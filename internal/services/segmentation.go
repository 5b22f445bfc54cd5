package services

import (
	"fmt"
	"sort"

	"creatorlens-backend/internal/models"
)

// Tier is one performance bucket: items whose metric is >= MinMetric (and
// below the next tier's bound) belong to it.
type Tier struct {
	Label     string `json:"label"`
	MinMetric int64  `json:"min_metric"`
}

// TierTable is an ordered list of tiers, ascending by MinMetric, with the
// first bound at 0 so every non-negative metric lands somewhere.
type TierTable []Tier

type MetricFunc func(item *models.ContentItem) int64

// Default tables, tuned per platform. Bounds are inclusive: an item exactly
// at a boundary belongs to the higher tier.
var (
	YouTubeViewTiers = TierTable{
		{Label: "Low", MinMetric: 0},
		{Label: "Medium", MinMetric: 10_000},
		{Label: "High", MinMetric: 100_000},
		{Label: "VeryHigh", MinMetric: 1_000_000},
		{Label: "Viral", MinMetric: 10_000_000},
	}

	ReelViewTiers = TierTable{
		{Label: "Low", MinMetric: 0},
		{Label: "Medium", MinMetric: 5_000},
		{Label: "High", MinMetric: 50_000},
		{Label: "VeryHigh", MinMetric: 500_000},
		{Label: "Viral", MinMetric: 5_000_000},
	}

	PostEngagementTiers = TierTable{
		{Label: "Low", MinMetric: 0},
		{Label: "Medium", MinMetric: 500},
		{Label: "High", MinMetric: 5_000},
		{Label: "VeryHigh", MinMetric: 50_000},
		{Label: "Viral", MinMetric: 500_000},
	}
)

func ViewCount(item *models.ContentItem) int64 { return item.ViewCount }

func Engagement(item *models.ContentItem) int64 { return item.EngagementCount() }

// TierTableFor picks the default table and metric for a platform.
func TierTableFor(platform string) (TierTable, MetricFunc) {
	switch platform {
	case models.PlatformInstagram:
		return ReelViewTiers, ViewCount
	default:
		return YouTubeViewTiers, ViewCount
	}
}

// ValidateTierTable checks the structural invariants a table must satisfy
// before it is used for segmentation. Called at load time; SegmentByTier
// assumes its table is valid.
func ValidateTierTable(table TierTable) error {
	if len(table) == 0 {
		return fmt.Errorf("tier table is empty")
	}
	if table[0].MinMetric != 0 {
		return fmt.Errorf("first tier %q must have bound 0, got %d", table[0].Label, table[0].MinMetric)
	}
	for i := 1; i < len(table); i++ {
		if table[i].MinMetric <= table[i-1].MinMetric {
			return fmt.Errorf("tier bounds must be strictly ascending: %q (%d) after %q (%d)",
				table[i].Label, table[i].MinMetric, table[i-1].Label, table[i-1].MinMetric)
		}
	}
	return nil
}

// TierLabel returns the label of the highest tier whose bound is <= metric.
func TierLabel(metric int64, table TierTable) string {
	// First bucket whose bound exceeds the metric; the item belongs to the
	// one before it.
	idx := sort.Search(len(table), func(i int) bool { return table[i].MinMetric > metric })
	if idx == 0 {
		return table[0].Label
	}
	return table[idx-1].Label
}

// SegmentByTier partitions items into tiers. The partition is stable: each
// tier's slice preserves the items' original relative order.
func SegmentByTier(items []models.ContentItem, metric MetricFunc, table TierTable) map[string][]models.ContentItem {
	tiers := make(map[string][]models.ContentItem, len(table))
	for i := range items {
		label := TierLabel(metric(&items[i]), table)
		tiers[label] = append(tiers[label], items[i])
	}
	return tiers
}

// AssignTiers stamps PerformanceTier onto each item in place.
func AssignTiers(items []models.ContentItem, metric MetricFunc, table TierTable) {
	for i := range items {
		items[i].PerformanceTier = TierLabel(metric(&items[i]), table)
	}
}

type MetricSummary struct {
	Total   int64               `json:"total"`
	Average float64             `json:"average"`
	TopItem *models.ContentItem `json:"top_item"`
}

// ComputeSummary totals the metric over items. Average is 0 for empty input
// and TopItem is nil; on exact metric ties the first-seen item wins.
func ComputeSummary(items []models.ContentItem, metric MetricFunc) MetricSummary {
	summary := MetricSummary{}
	if len(items) == 0 {
		return summary
	}

	best := 0
	var bestMetric int64 = -1
	for i := range items {
		m := metric(&items[i])
		summary.Total += m
		if m > bestMetric {
			bestMetric = m
			best = i
		}
	}

	summary.Average = float64(summary.Total) / float64(len(items))
	summary.TopItem = &items[best]
	return summary
}

// TierCounts is the compact per-tier histogram included in status responses.
func TierCounts(items []models.ContentItem) map[string]int {
	counts := make(map[string]int)
	for i := range items {
		if items[i].PerformanceTier == "" {
			continue
		}
		counts[items[i].PerformanceTier]++
	}
	return counts
}
