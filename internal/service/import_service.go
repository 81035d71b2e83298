package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"enforcement-analytics/internal/domain/event"
	"enforcement-analytics/internal/importer"
	"enforcement-analytics/internal/repository"
)

// ImportWorkbook parses an uploaded xlsx and stores the valid rows under a
// new batch. A workbook that fails to parse at all is the caller's fault;
// individual bad rows are only counted, never fatal.
func (s *AnalyticsService) ImportWorkbook(ctx context.Context, kindRaw, filename string, r io.Reader) (*ImportResult, error) {
	kind, ok := importer.ParseKind(kindRaw)
	if !ok {
		return nil, fmt.Errorf("%w: kind must be crash or ticket", ErrInvalidInput)
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".xlsx") {
		return nil, fmt.Errorf("%w: only .xlsx workbooks are supported", ErrInvalidInput)
	}

	records, summary, err := importer.ReadWorkbook(r, kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	batch := &repository.ImportBatch{
		ID:           uuid.New(),
		Kind:         string(kind),
		Filename:     filename,
		ImportedRows: summary.Imported,
		SkippedRows:  skippedTotal(summary.Skipped),
		RangeStart:   summary.RangeStart,
		RangeEnd:     summary.RangeEnd,
	}
	if stats, merr := json.Marshal(summary); merr == nil {
		batch.Stats = datatypes.JSON(stats)
	}

	switch kind {
	case importer.KindCrash:
		if err := s.store.InsertCrashes(ctx, crashModels(records, batch.ID)); err != nil {
			return nil, fmt.Errorf("storing crashes: %w", err)
		}
	case importer.KindTicket:
		if err := s.store.InsertTickets(ctx, ticketModels(records, batch.ID)); err != nil {
			return nil, fmt.Errorf("storing tickets: %w", err)
		}
	}
	if err := s.store.CreateImportBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("recording import batch: %w", err)
	}

	s.log.Info().
		Str("batch_id", batch.ID.String()).
		Str("kind", string(kind)).
		Str("filename", filename).
		Int("imported", summary.Imported).
		Int("skipped", batch.SkippedRows).
		Msg("workbook imported")

	return &ImportResult{
		BatchID: batch.ID.String(),
		Kind:    string(kind),
		Summary: *summary,
		Note:    privacyNote,
	}, nil
}

// ListImportBatches returns recent batches, newest first.
func (s *AnalyticsService) ListImportBatches(ctx context.Context, limit int) ([]BatchInfo, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	batches, err := s.store.ListImportBatches(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing import batches: %w", err)
	}

	out := make([]BatchInfo, 0, len(batches))
	for _, b := range batches {
		out = append(out, BatchInfo{
			ID:           b.ID.String(),
			Kind:         b.Kind,
			Filename:     b.Filename,
			ImportedRows: b.ImportedRows,
			SkippedRows:  b.SkippedRows,
			Stats:        json.RawMessage(b.Stats),
			RangeStart:   b.RangeStart,
			RangeEnd:     b.RangeEnd,
			CreatedAt:    b.CreatedAt,
		})
	}
	return out, nil
}

func crashModels(records []event.Record, batchID uuid.UUID) []repository.Crash {
	out := make([]repository.Crash, 0, len(records))
	for _, r := range records {
		out = append(out, repository.Crash{
			OccurredAt:   r.OccurredAt,
			ShiftID:      r.ShiftID,
			District:     r.District,
			LocationDesc: optional(r.LocationDesc),
			Latitude:     r.Latitude,
			Longitude:    r.Longitude,
			Severity:     string(r.Severity),
			Cause:        optional(r.Cause),
			AgeGroup:     optional(r.AgeGroup),
			Gender:       optional(r.Gender),
			IsElderly:    r.Elderly,
			BatchID:      &batchID,
		})
	}
	return out
}

func ticketModels(records []event.Record, batchID uuid.UUID) []repository.Ticket {
	out := make([]repository.Ticket, 0, len(records))
	for _, r := range records {
		out = append(out, repository.Ticket{
			OccurredAt:     r.OccurredAt,
			ShiftID:        r.ShiftID,
			District:       r.District,
			LocationDesc:   optional(r.LocationDesc),
			Latitude:       r.Latitude,
			Longitude:      r.Longitude,
			TopicDUI:       r.TopicDUI,
			TopicRedLight:  r.TopicRedLight,
			TopicDangerous: r.TopicDangerous,
			AgeGroup:       optional(r.AgeGroup),
			Gender:         optional(r.Gender),
			IsElderly:      r.Elderly,
			BatchID:        &batchID,
		})
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func skippedTotal(skipped map[string]int) int {
	total := 0
	for _, n := range skipped {
		total += n
	}
	return total
}

type ImportResult struct {
	BatchID string           `json:"batch_id"`
	Kind    string           `json:"kind"`
	Summary importer.Summary `json:"summary"`
	Note    string           `json:"note,omitempty"`
}

type BatchInfo struct {
	ID           string          `json:"id"`
	Kind         string          `json:"kind"`
	Filename     string          `json:"filename"`
	ImportedRows int             `json:"imported_rows"`
	SkippedRows  int             `json:"skipped_rows"`
	Stats        json.RawMessage `json:"stats,omitempty"`
	RangeStart   *time.Time      `json:"range_start,omitempty"`
	RangeEnd     *time.Time      `json:"range_end,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
