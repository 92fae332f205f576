package db

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// schema is the full database schema. Column types that differ between
// SQLite and PostgreSQL are written as placeholders.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'student' CHECK (role IN ('admin', 'staff', 'teacher', 'student')),
    created_at    {{timestamp}} NOT NULL,
    deleted_at    {{timestamp}}
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at {{timestamp}} NOT NULL
);

CREATE TABLE IF NOT EXISTS items (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL,
    description    TEXT NOT NULL DEFAULT '',
    category       TEXT NOT NULL DEFAULT '',
    location       TEXT NOT NULL DEFAULT '',
    quantity       INTEGER NOT NULL CHECK (quantity >= 0),
    min_quantity   INTEGER NOT NULL DEFAULT 0 CHECK (min_quantity >= 0),
    total_quantity INTEGER NOT NULL CHECK (total_quantity >= 0),
    status         TEXT NOT NULL DEFAULT 'available'
                   CHECK (status IN ('available', 'in_use', 'maintenance', 'lost', 'expired')),
    created_at     {{timestamp}} NOT NULL,
    updated_at     {{timestamp}} NOT NULL,
    deleted_at     {{timestamp}}
);

CREATE TABLE IF NOT EXISTS transactions (
    id                   TEXT PRIMARY KEY,
    item_id              TEXT NOT NULL REFERENCES items(id),
    user_id              TEXT NOT NULL,
    quantity             INTEGER NOT NULL CHECK (quantity > 0),
    returned_quantity    INTEGER,
    checkout_date        {{timestamp}} NOT NULL,
    expected_return_date {{timestamp}},
    actual_return_date   {{timestamp}},
    status               TEXT NOT NULL CHECK (status IN ('checked_out', 'returned', 'lost')),
    notes                TEXT NOT NULL DEFAULT '',
    created_at           {{timestamp}} NOT NULL,
    updated_at           {{timestamp}} NOT NULL
);

CREATE TABLE IF NOT EXISTS resources (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    type        TEXT NOT NULL DEFAULT '',
    location    TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL DEFAULT 'available'
                CHECK (status IN ('available', 'in_use', 'maintenance', 'unavailable')),
    created_at  {{timestamp}} NOT NULL,
    updated_at  {{timestamp}} NOT NULL,
    deleted_at  {{timestamp}}
);

CREATE TABLE IF NOT EXISTS reservations (
    id          TEXT PRIMARY KEY,
    resource_id TEXT NOT NULL REFERENCES resources(id),
    user_id     TEXT NOT NULL,
    start_time  {{timestamp}} NOT NULL,
    end_time    {{timestamp}} NOT NULL,
    purpose     TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL DEFAULT 'pending'
                CHECK (status IN ('pending', 'approved', 'rejected', 'cancelled', 'completed')),
    created_at  {{timestamp}} NOT NULL,
    updated_at  {{timestamp}} NOT NULL,
    CHECK (end_time > start_time)
);

CREATE TABLE IF NOT EXISTS maintenance_records (
    id                    TEXT PRIMARY KEY,
    item_id               TEXT NOT NULL REFERENCES items(id),
    maintenance_date      {{timestamp}} NOT NULL,
    performed_by          TEXT NOT NULL,
    description           TEXT NOT NULL,
    cost                  {{real}},
    next_maintenance_date {{timestamp}},
    completed_at          {{timestamp}},
    created_at            {{timestamp}} NOT NULL
);
`

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	`CREATE INDEX IF NOT EXISTS idx_transactions_item_status ON transactions(item_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_resource_status ON reservations(resource_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_maintenance_item ON maintenance_records(item_id)`,
}

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sqlx.DB) error {
	if _, err := db.Exec(schemaFor(db.DriverName())); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}

func schemaFor(driver string) string {
	r := strings.NewReplacer("{{timestamp}}", "DATETIME", "{{real}}", "REAL")
	if IsPostgres(driver) {
		r = strings.NewReplacer("{{timestamp}}", "TIMESTAMPTZ", "{{real}}", "DOUBLE PRECISION")
	}
	return r.Replace(schema)
}
