package store

import (
	"context"
	"database/sql"
	"fmt"
)

// statements are idempotent so Migrate can run on every start.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS members (
		member_id             UUID PRIMARY KEY,
		name                  VARCHAR(100) NOT NULL,
		phone_number          VARCHAR(20) NOT NULL,
		gender                VARCHAR(10),
		membership_type       VARCHAR(50) NOT NULL,
		membership_start_date DATE NOT NULL,
		membership_end_date   DATE NOT NULL,
		locker_number         INT,
		locker_type           VARCHAR(50),
		locker_start_date     DATE,
		locker_end_date       DATE,
		uniform_type          VARCHAR(50),
		uniform_start_date    DATE,
		uniform_end_date      DATE,
		active                BOOLEAN NOT NULL DEFAULT TRUE,
		checkin_time          TIMESTAMPTZ,
		checkout_time         TIMESTAMPTZ,
		created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	// Phone numbers are unique among active members only.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_members_active_phone
		ON members (phone_number) WHERE active`,

	`CREATE TABLE IF NOT EXISTS attendance_sessions (
		session_id    UUID PRIMARY KEY,
		member_id     UUID NOT NULL REFERENCES members (member_id) ON DELETE CASCADE,
		checkin_time  TIMESTAMPTZ NOT NULL,
		checkout_time TIMESTAMPTZ
	)`,

	// At most one open session per member. Concurrent check-ins for the
	// same member race on this index and exactly one insert wins.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_open_session
		ON attendance_sessions (member_id) WHERE checkout_time IS NULL`,

	`CREATE INDEX IF NOT EXISTS idx_sessions_checkin
		ON attendance_sessions (checkin_time)`,

	`CREATE TABLE IF NOT EXISTS deleted_members (
		member_id             UUID PRIMARY KEY,
		name                  VARCHAR(100) NOT NULL,
		phone_number          VARCHAR(20) NOT NULL,
		gender                VARCHAR(10),
		membership_type       VARCHAR(50) NOT NULL,
		membership_start_date DATE NOT NULL,
		membership_end_date   DATE NOT NULL,
		locker_number         INT,
		locker_type           VARCHAR(50),
		locker_start_date     DATE,
		locker_end_date       DATE,
		uniform_type          VARCHAR(50),
		uniform_start_date    DATE,
		uniform_end_date      DATE,
		created_at            TIMESTAMPTZ NOT NULL,
		deleted_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_deleted_members_deleted_at
		ON deleted_members (deleted_at)`,

	`CREATE TABLE IF NOT EXISTS admins (
		id            SERIAL PRIMARY KEY,
		password_hash TEXT NOT NULL,
		salt          TEXT NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
