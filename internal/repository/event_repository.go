package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"enforcement-analytics/internal/domain/event"
)

const insertBatchSize = 500

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (Crash) TableName() string {
	return "enf_crashes"
}

func (Ticket) TableName() string {
	return "enf_tickets"
}

func (ImportBatch) TableName() string {
	return "enf_import_batches"
}

type Crash struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	OccurredAt   time.Time `gorm:"not null"`
	ShiftID      string    `gorm:"not null"`
	District     string    `gorm:"not null"`
	LocationDesc *string
	Latitude     *float64
	Longitude    *float64
	Severity     string `gorm:"not null"`
	Cause        *string
	AgeGroup     *string
	Gender       *string
	IsElderly    bool
	BatchID      *uuid.UUID `gorm:"type:uuid"`
	CreatedAt    time.Time
}

type Ticket struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	OccurredAt     time.Time `gorm:"not null"`
	ShiftID        string    `gorm:"not null"`
	District       string    `gorm:"not null"`
	LocationDesc   *string
	Latitude       *float64
	Longitude      *float64
	TopicDUI       bool `gorm:"column:topic_dui"`
	TopicRedLight  bool `gorm:"column:topic_red_light"`
	TopicDangerous bool `gorm:"column:topic_dangerous"`
	AgeGroup       *string
	Gender         *string
	IsElderly      bool
	BatchID        *uuid.UUID `gorm:"type:uuid"`
	CreatedAt      time.Time
}

type ImportBatch struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Kind         string    `gorm:"not null"`
	Filename     string    `gorm:"not null"`
	ImportedRows int
	SkippedRows  int
	Stats        datatypes.JSON `gorm:"type:jsonb"`
	RangeStart   *time.Time
	RangeEnd     *time.Time
	CreatedAt    time.Time
}

// EventFilter narrows LoadEvents. Empty fields mean no restriction.
type EventFilter struct {
	District string
	ShiftID  string
}

// LoadEvents returns every crash and ticket whose timestamp falls on a date
// in [from, to], both bounds inclusive, in ascending timestamp order.
func (r *EventRepository) LoadEvents(ctx context.Context, from, to time.Time, f EventFilter) ([]event.Record, error) {
	upper := to.AddDate(0, 0, 1)

	crashQuery := r.db.WithContext(ctx).Model(&Crash{}).
		Where("occurred_at >= ? AND occurred_at < ?", from, upper)
	ticketQuery := r.db.WithContext(ctx).Model(&Ticket{}).
		Where("occurred_at >= ? AND occurred_at < ?", from, upper)

	if f.District != "" {
		crashQuery = crashQuery.Where("district = ?", f.District)
		ticketQuery = ticketQuery.Where("district = ?", f.District)
	}
	if f.ShiftID != "" {
		crashQuery = crashQuery.Where("shift_id = ?", f.ShiftID)
		ticketQuery = ticketQuery.Where("shift_id = ?", f.ShiftID)
	}

	var crashes []Crash
	if err := crashQuery.Find(&crashes).Error; err != nil {
		return nil, fmt.Errorf("loading crashes: %w", err)
	}
	var tickets []Ticket
	if err := ticketQuery.Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("loading tickets: %w", err)
	}

	records := make([]event.Record, 0, len(crashes)+len(tickets))
	for _, c := range crashes {
		records = append(records, crashRecord(c))
	}
	for _, t := range tickets {
		records = append(records, ticketRecord(t))
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].OccurredAt.Before(records[j].OccurredAt)
	})
	return records, nil
}

// MaxEventDate returns the latest event timestamp across both tables, nil
// when the store is empty. Rolling windows anchor on it so a stale dataset
// still analyses its own last days rather than an empty recent window.
func (r *EventRepository) MaxEventDate(ctx context.Context) (*time.Time, error) {
	var crashMax, ticketMax sql.NullTime

	if err := r.db.WithContext(ctx).Model(&Crash{}).
		Select("max(occurred_at)").Scan(&crashMax).Error; err != nil {
		return nil, fmt.Errorf("max crash date: %w", err)
	}
	if err := r.db.WithContext(ctx).Model(&Ticket{}).
		Select("max(occurred_at)").Scan(&ticketMax).Error; err != nil {
		return nil, fmt.Errorf("max ticket date: %w", err)
	}

	switch {
	case !crashMax.Valid && !ticketMax.Valid:
		return nil, nil
	case !crashMax.Valid:
		return &ticketMax.Time, nil
	case !ticketMax.Valid:
		return &crashMax.Time, nil
	case ticketMax.Time.After(crashMax.Time):
		return &ticketMax.Time, nil
	default:
		return &crashMax.Time, nil
	}
}

func (r *EventRepository) InsertCrashes(ctx context.Context, crashes []Crash) error {
	if len(crashes) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(crashes, insertBatchSize).Error; err != nil {
		return fmt.Errorf("inserting crashes: %w", err)
	}
	return nil
}

func (r *EventRepository) InsertTickets(ctx context.Context, tickets []Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(tickets, insertBatchSize).Error; err != nil {
		return fmt.Errorf("inserting tickets: %w", err)
	}
	return nil
}

func (r *EventRepository) CreateImportBatch(ctx context.Context, batch *ImportBatch) error {
	if err := r.db.WithContext(ctx).Create(batch).Error; err != nil {
		return fmt.Errorf("creating import batch: %w", err)
	}
	return nil
}

func (r *EventRepository) ListImportBatches(ctx context.Context, limit int) ([]ImportBatch, error) {
	query := r.db.WithContext(ctx).Model(&ImportBatch{}).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var batches []ImportBatch
	if err := query.Find(&batches).Error; err != nil {
		return nil, fmt.Errorf("listing import batches: %w", err)
	}
	return batches, nil
}

func crashRecord(c Crash) event.Record {
	return event.Record{
		Kind:         event.KindCrash,
		OccurredAt:   c.OccurredAt,
		ShiftID:      c.ShiftID,
		District:     c.District,
		LocationDesc: deref(c.LocationDesc),
		Latitude:     c.Latitude,
		Longitude:    c.Longitude,
		Severity:     event.Severity(c.Severity),
		Cause:        deref(c.Cause),
		AgeGroup:     deref(c.AgeGroup),
		Gender:       deref(c.Gender),
		Elderly:      c.IsElderly,
	}
}

func ticketRecord(t Ticket) event.Record {
	return event.Record{
		Kind:           event.KindTicket,
		OccurredAt:     t.OccurredAt,
		ShiftID:        t.ShiftID,
		District:       t.District,
		LocationDesc:   deref(t.LocationDesc),
		Latitude:       t.Latitude,
		Longitude:      t.Longitude,
		TopicDUI:       t.TopicDUI,
		TopicRedLight:  t.TopicRedLight,
		TopicDangerous: t.TopicDangerous,
		AgeGroup:       deref(t.AgeGroup),
		Gender:         deref(t.Gender),
		Elderly:        t.IsElderly,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
