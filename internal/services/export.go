package services

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"creatorlens-backend/internal/models"
)

const (
	ExportFormatCSV  = "csv"
	ExportFormatJSON = "json"
)

// Export is a rendered download: the file body plus the metadata the
// handler needs to set response headers.
type Export struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders completed analyses as CSV or JSON downloads.
type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

// Render builds the export for an analysis snapshot. Items keep their
// stored order, so the file mirrors the paginated API.
func (s *ExportService) Render(analysis *models.Analysis, items []models.ContentItem, format string) (*Export, error) {
	switch format {
	case ExportFormatCSV:
		return s.renderCSV(analysis, items)
	case ExportFormatJSON:
		return s.renderJSON(analysis, items)
	default:
		return nil, &InvalidArgumentError{Message: fmt.Sprintf("unsupported export format: %s (use csv or json)", format)}
	}
}

func exportFilename(analysis *models.Analysis, ext string) string {
	stamp := time.Now().UTC().Format("20060102")
	return fmt.Sprintf("%s_%s_%s.%s", analysis.Platform, analysis.TargetRef, stamp, ext)
}

func (s *ExportService) renderCSV(analysis *models.Analysis, items []models.ContentItem) (*Export, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"position", "external_id", "title", "url",
		"published_at", "duration_seconds", "view_count",
		"like_count", "comment_count", "is_video", "performance_tier",
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, item := range items {
		publishedAt := ""
		if item.PublishedAt != nil {
			publishedAt = item.PublishedAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			strconv.Itoa(item.Position),
			item.ExternalID,
			item.Title,
			item.URL,
			publishedAt,
			strconv.Itoa(item.DurationSeconds),
			strconv.FormatInt(item.ViewCount, 10),
			strconv.FormatInt(item.LikeCount, 10),
			strconv.FormatInt(item.CommentCount, 10),
			strconv.FormatBool(item.IsVideo),
			item.PerformanceTier,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}

	return &Export{
		Content:     buf.Bytes(),
		ContentType: "text/csv; charset=utf-8",
		Filename:    exportFilename(analysis, "csv"),
	}, nil
}

type jsonExport struct {
	Analysis *models.Analysis     `json:"analysis"`
	Summary  MetricSummary        `json:"summary"`
	Tiers    map[string]int       `json:"tier_counts"`
	Items    []models.ContentItem `json:"items"`
}

func (s *ExportService) renderJSON(analysis *models.Analysis, items []models.ContentItem) (*Export, error) {
	_, metric := TierTableFor(analysis.Platform)

	doc := jsonExport{
		Analysis: analysis,
		Summary:  ComputeSummary(items, metric),
		Tiers:    TierCounts(items),
		Items:    items,
	}

	content, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export: %w", err)
	}

	return &Export{
		Content:     content,
		ContentType: "application/json",
		Filename:    exportFilename(analysis, "json"),
	}, nil
}
