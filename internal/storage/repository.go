package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"kakeibo/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository implements Store on a single SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

var _ Store = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// migrates it.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if err := RunMigrations(dsn); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// sqlite allows one writer; a single connection keeps transactions serialized
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Version(ctx context.Context) (int64, error) {
	return readVersion(ctx, r.db)
}

func readVersion(ctx context.Context, q queryer) (int64, error) {
	var v int64
	if err := q.QueryRowContext(ctx, `SELECT version FROM ledger_version WHERE id = 1`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read version: %w", err)
	}
	return v, nil
}

// Snapshot reads everything inside one read-only transaction.
func (r *SQLiteRepository) Snapshot(ctx context.Context, f TransactionFilter) (Snapshot, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return Snapshot{}, fmt.Errorf("begin read transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var snap Snapshot
	if snap.Version, err = readVersion(ctx, tx); err != nil {
		return Snapshot{}, err
	}
	if snap.Transactions, err = listTransactions(ctx, tx, f); err != nil {
		return Snapshot{}, err
	}
	if snap.FixedCosts, err = listFixedCosts(ctx, tx, "", nil); err != nil {
		return Snapshot{}, err
	}
	if snap.Categories, err = listCategories(ctx, tx); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// write runs fn in a transaction and bumps the ledger version in it.
func (r *SQLiteRepository) write(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE ledger_version SET version = version + 1 WHERE id = 1`); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("bump version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func mustAffect(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}

func mapConstraint(err error) error {
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

func noRows(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return err
}

// storedDate parses a date column. Rows written by hand with a malformed
// date come back with the zero date, which reports skip.
func storedDate(s string) core.Date {
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}
	}
	return d
}

func replaceInvolved(ctx context.Context, q queryer, table, column, id string, users []string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM `+table+` WHERE `+column+` = ?`, id); err != nil {
		return fmt.Errorf("clear involved users: %w", err)
	}
	return addInvolved(ctx, q, table, column, id, users...)
}

func addInvolved(ctx context.Context, q queryer, table, column, id string, users ...string) error {
	for _, u := range users {
		if u == "" {
			continue
		}
		if _, err := q.ExecContext(ctx, `INSERT OR IGNORE INTO `+table+` (`+column+`, user_id) VALUES (?, ?)`, id, u); err != nil {
			return fmt.Errorf("add involved user: %w", err)
		}
	}
	return nil
}

// loadInvolved returns the involved users of the owners selected by owners,
// a subquery yielding ids, keyed by owner id.
func loadInvolved(ctx context.Context, q queryer, table, column, owners string, args []any) (map[string][]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+column+`, user_id FROM `+table+`
		WHERE `+column+` IN (`+owners+`) ORDER BY rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("list involved users: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var id, user string
		if err := rows.Scan(&id, &user); err != nil {
			return nil, fmt.Errorf("scan involved user: %w", err)
		}
		out[id] = append(out[id], user)
	}
	return out, rows.Err()
}
