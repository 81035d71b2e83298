package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"enforcement-analytics/internal/analytics"
	"enforcement-analytics/internal/export"
	"enforcement-analytics/internal/storage"
)

// ExportResult is a rendered download. ArchiveURL is set when the archive
// bucket is configured and the upload succeeded.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
	ArchiveURL  string
}

// ExportRecommendationsCSV renders the current recommendation ranking as a
// CSV download and archives a copy when a bucket is configured.
func (s *AnalyticsService) ExportRecommendationsCSV(ctx context.Context, q RankQuery) (*ExportResult, error) {
	resp, err := s.TopRecommendations(ctx, q)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := export.WriteRecommendationsCSV(&buf, resp.Sites); err != nil {
		return nil, fmt.Errorf("rendering csv: %w", err)
	}

	result := &ExportResult{
		Filename:    exportFilename("recommendations", resp.Window, "csv"),
		ContentType: "text/csv; charset=utf-8",
		Data:        buf.Bytes(),
	}
	s.archiveExport(ctx, result)
	return result, nil
}

// ExportAccidentHotspotsKML renders the accident hotspot ranking as a map
// overlay.
func (s *AnalyticsService) ExportAccidentHotspotsKML(ctx context.Context, q RankQuery) (*ExportResult, error) {
	resp, err := s.AccidentHotspots(ctx, q)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	name := fmt.Sprintf("事故熱點 %s", resp.Window.Label())
	if err := export.WriteHotspotsKML(&buf, name, resp.Sites); err != nil {
		return nil, fmt.Errorf("rendering kml: %w", err)
	}

	result := &ExportResult{
		Filename:    exportFilename("accident_hotspots", resp.Window, "kml"),
		ContentType: "application/vnd.google-earth.kml+xml",
		Data:        buf.Bytes(),
	}
	s.archiveExport(ctx, result)
	return result, nil
}

// archiveExport uploads best-effort: an unconfigured archive is normal and
// an upload failure must not break the download itself.
func (s *AnalyticsService) archiveExport(ctx context.Context, result *ExportResult) {
	url, err := s.archive.Upload(ctx, "exports/"+result.Filename, bytes.NewReader(result.Data), int64(len(result.Data)), result.ContentType)
	switch {
	case errors.Is(err, storage.ErrNotConfigured):
	case err != nil:
		s.log.Warn().Err(err).Str("filename", result.Filename).Msg("export archive upload failed")
	default:
		result.ArchiveURL = url
		s.log.Info().Str("filename", result.Filename).Str("url", url).Msg("export archived")
	}
}

func exportFilename(prefix string, window analytics.PeriodWindow, ext string) string {
	return fmt.Sprintf("%s_%s_%s.%s", prefix,
		window.Start.Format("20060102"), window.End.Format("20060102"), ext)
}
