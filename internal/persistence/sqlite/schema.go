package sqlite

import (
	"context"
	"fmt"
)

// Times are stored as RFC3339 strings in UTC, so lexicographic comparison in
// SQL matches chronological order and the end_time > start_time check holds.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS rooms (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		color      TEXT NOT NULL DEFAULT '',
		capacity   INTEGER NOT NULL CHECK (capacity > 0),
		is_active  INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id                    TEXT PRIMARY KEY,
		title                 TEXT NOT NULL,
		notes                 TEXT NOT NULL DEFAULT '',
		color                 TEXT NOT NULL DEFAULT '',
		patient_id            TEXT,
		room_id               TEXT REFERENCES rooms(id),
		start_time            TEXT NOT NULL,
		end_time              TEXT NOT NULL,
		status                TEXT NOT NULL DEFAULT 'scheduled',
		is_recurring          INTEGER NOT NULL DEFAULT 0,
		recurrence_rule       TEXT,
		occurrence_count      INTEGER,
		parent_appointment_id TEXT,
		created_at            TEXT NOT NULL,
		updated_at            TEXT NOT NULL,
		CHECK (end_time > start_time)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_room_start
		ON appointments (room_id, start_time)`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_parent
		ON appointments (parent_appointment_id)`,
}

// Migrate applies the schema. Every statement is idempotent, so running it on
// an already provisioned database is a no-op.
func Migrate(ctx context.Context, pool *ConnectionPool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.DB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
