package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	idb "github.com/erazemk/izposoja/internal/db"
)

// ErrConflict marks a unit of work that the database aborted because a
// concurrent unit touched the same rows. The whole unit may be retried.
var ErrConflict = errors.New("store conflict")

// PostgreSQL SQLSTATE codes for serialization failures.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// RunInTx runs fn as one atomic unit of work. SQLite units take the write
// lock at BEGIN; PostgreSQL units run SERIALIZABLE. Errors caused by
// concurrent units are wrapped with ErrConflict.
func RunInTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, txOptions(db.DriverName()))
	if err != nil {
		return classify(fmt.Errorf("beginning transaction: %w", err))
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return classify(err)
	}

	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("committing transaction: %w", err))
	}
	return nil
}

// NewID returns a new time-ordered record identifier.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Timestamp normalizes t for storage: UTC with second precision, so that
// SQLite text timestamps compare in chronological order.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func txOptions(driver string) *sql.TxOptions {
	if idb.IsPostgres(driver) {
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return nil
}

func classify(err error) error {
	if errors.Is(err, ErrConflict) || !isConflict(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrConflict, err)
}

func isConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgSerializationFailure || pqErr.Code == pgDeadlockDetected
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code() & 0xff
		return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
	}

	return false
}

// builder returns the query builder for the handle's SQL dialect.
func builder(db sqlx.ExtContext) goqu.DialectWrapper {
	if idb.IsPostgres(db.DriverName()) {
		return goqu.Dialect("postgres")
	}
	return goqu.Dialect("sqlite3")
}

// getOne runs ds and scans a single row into dest. It reports false when
// no row matched.
func getOne(ctx context.Context, db sqlx.ExtContext, dest any, ds *goqu.SelectDataset) (bool, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return false, fmt.Errorf("building query: %w", err)
	}
	err = sqlx.GetContext(ctx, db, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func getAll(ctx context.Context, db sqlx.ExtContext, dest any, ds *goqu.SelectDataset) error {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}
	return sqlx.SelectContext(ctx, db, dest, query, args...)
}

func insert(ctx context.Context, db sqlx.ExtContext, ds *goqu.InsertDataset) error {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("building insert: %w", err)
	}
	_, err = db.ExecContext(ctx, query, args...)
	return err
}

// update runs ds and returns the number of rows it changed.
func update(ctx context.Context, db sqlx.ExtContext, ds *goqu.UpdateDataset) (int64, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("building update: %w", err)
	}
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// nullTime converts an optional time into a query argument.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return Timestamp(*t)
}
