// Package storage implements kv.Store on top of SQL databases (SQLite and
// PostgreSQL), with the schema managed by golang-migrate.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"fintrack/internal/kv"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect carries the driver name and the statements that differ per database.
type Dialect struct {
	Name   string
	Driver string
	get    string
	upsert string
}

var (
	SQLite = Dialect{
		Name:   "sqlite",
		Driver: "sqlite",
		get:    `SELECT value FROM kv_entries WHERE key = ?`,
		upsert: `INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
	}
	Postgres = Dialect{
		Name:   "postgres",
		Driver: "postgres",
		get:    `SELECT value FROM kv_entries WHERE key = $1`,
		upsert: `INSERT INTO kv_entries (key, value, updated_at) VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
	}
)

type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
}

var _ kv.Store = (*SQLRepository)(nil)

// NewSQLiteRepository opens (creating if needed) the SQLite file at dbPath
// and migrates it.
func NewSQLiteRepository(dbPath string) (*SQLRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return open(SQLite, dbPath)
}

// NewPostgresRepository connects to the PostgreSQL database at dsn and
// migrates it.
func NewPostgresRepository(dsn string) (*SQLRepository, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is empty")
	}
	return open(Postgres, dsn)
}

func open(d Dialect, dsn string) (*SQLRepository, error) {
	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d.Name, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if d.Name == SQLite.Name {
		// One writer at a time keeps SQLite away from SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	if err := RunMigrations(d, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLRepository{db: db, dialect: d}, nil
}

// Dialect reports which database the repository talks to.
func (r *SQLRepository) Dialect() string {
	return r.dialect.Name
}

// Get implements kv.Store
func (r *SQLRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, r.dialect.get, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// Set implements kv.Store
func (r *SQLRepository) Set(ctx context.Context, key, value string) error {
	if _, err := r.db.ExecContext(ctx, r.dialect.upsert, key, value); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}

	slog.DebugContext(ctx, "Entry saved",
		"dialect", r.dialect.Name,
		"key", key,
		"bytes", len(value))
	return nil
}

// Ping checks the database connection.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
