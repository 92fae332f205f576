package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
)

// PostgresTestDSNEnv names the environment variable that enables tests
// against a live PostgreSQL server.
const PostgresTestDSNEnv = "IZPOSOJA_TEST_POSTGRES_DSN"

// NewTestDB creates a fresh SQLite database in a temporary directory with
// the schema applied. A file is used instead of :memory: so that every
// pooled connection sees the same data.
func NewTestDB(t testing.TB) *sqlx.DB {
	t.Helper()

	db, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "test.sqlite3"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := EnsureSchema(db); err != nil {
		db.Close()
		t.Fatalf("creating test database schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}

// NewPostgresTestDB connects to the server named by PostgresTestDSNEnv and
// resets the schema. The test is skipped when the variable is unset.
func NewPostgresTestDB(t testing.TB) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv(PostgresTestDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", PostgresTestDSNEnv)
	}

	db, err := Open(DriverPgx, dsn)
	if err != nil {
		t.Fatalf("opening postgres test database: %v", err)
	}

	_, err = db.Exec(`DROP TABLE IF EXISTS maintenance_records, reservations, resources,
		transactions, items, revoked_tokens, settings, users CASCADE`)
	if err != nil {
		db.Close()
		t.Fatalf("resetting postgres test database: %v", err)
	}

	if err := EnsureSchema(db); err != nil {
		db.Close()
		t.Fatalf("creating postgres test database schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}
