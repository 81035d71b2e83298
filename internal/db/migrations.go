package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,

	// De-identified crash records. No victim identifiers, no exact
	// addresses; location_desc stops at street/intersection level.
	`CREATE TABLE IF NOT EXISTS enf_crashes (
		id              UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		occurred_at     TIMESTAMPTZ NOT NULL,
		shift_id        TEXT NOT NULL,
		district        TEXT NOT NULL,
		location_desc   TEXT,
		latitude        NUMERIC(9,6),
		longitude       NUMERIC(9,6),
		severity        TEXT NOT NULL,
		cause           TEXT,
		age_group       TEXT,
		gender          TEXT,
		is_elderly      BOOLEAN NOT NULL DEFAULT false,
		batch_id        UUID,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_enf_crashes_occurred_at ON enf_crashes(occurred_at);`,
	`CREATE INDEX IF NOT EXISTS idx_enf_crashes_district ON enf_crashes(district);`,
	`CREATE INDEX IF NOT EXISTS idx_enf_crashes_shift_id ON enf_crashes(shift_id);`,
	`CREATE INDEX IF NOT EXISTS idx_enf_crashes_severity ON enf_crashes(severity);`,
	`CREATE INDEX IF NOT EXISTS idx_enf_crashes_district_time ON enf_crashes(district, occurred_at DESC);`,

	// De-identified citation records. Topic flags are not exclusive: one
	// citation can count under several enforcement topics.
	`CREATE TABLE IF NOT EXISTS enf_tickets (
		id              UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		occurred_at     TIMESTAMPTZ NOT NULL,
		shift_id        TEXT NOT NULL,
		district        TEXT NOT NULL,
		location_desc   TEXT,
		latitude        NUMERIC(9,6),
		longitude       NUMERIC(9,6),
		topic_dui       BOOLEAN NOT NULL DEFAULT false,
		topic_red_light BOOLEAN NOT NULL DEFAULT false,
		topic_dangerous BOOLEAN NOT NULL DEFAULT false,
		age_group       TEXT,
		gender          TEXT,
		is_elderly      BOOLEAN NOT NULL DEFAULT false,
		batch_id        UUID,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_enf_tickets_occurred_at ON enf_tickets(occurred_at);`,
	`CREATE INDEX IF NOT EXISTS idx_enf_tickets_district ON enf_tickets(district);`,
	`CREATE INDEX IF NOT EXISTS idx_enf_tickets_shift_id ON enf_tickets(shift_id);`,
	`CREATE INDEX IF NOT EXISTS idx_enf_tickets_district_time ON enf_tickets(district, occurred_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_enf_tickets_topic_dui ON enf_tickets(occurred_at) WHERE topic_dui;`,
	`CREATE INDEX IF NOT EXISTS idx_enf_tickets_topic_red_light ON enf_tickets(occurred_at) WHERE topic_red_light;`,
	`CREATE INDEX IF NOT EXISTS idx_enf_tickets_topic_dangerous ON enf_tickets(occurred_at) WHERE topic_dangerous;`,

	// Import bookkeeping, one row per uploaded workbook.
	`CREATE TABLE IF NOT EXISTS enf_import_batches (
		id              UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		kind            TEXT NOT NULL,
		filename        TEXT NOT NULL,
		imported_rows   INT NOT NULL DEFAULT 0,
		skipped_rows    INT NOT NULL DEFAULT 0,
		stats           JSONB,
		range_start     TIMESTAMPTZ,
		range_end       TIMESTAMPTZ,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_enf_import_batches_created_at ON enf_import_batches(created_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_enf_import_batches_kind ON enf_import_batches(kind);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
