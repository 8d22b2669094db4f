// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql. Inserts run inside a transaction; SQLite has no dedicated
// bulk-load API like Postgres COPY, but transactions keep performance
// acceptable for the volumes a single aggregation run produces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// SQLite driver; replace with your preferred driver if desired.
	_ "modernc.org/sqlite" // alternative: github.com/mattn/go-sqlite3

	"ventes/internal/model"
	"ventes/internal/storage"
)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, Config{
			DSN:         cfg.DSN,
			DailyTable:  cfg.DailyTable,
			ClientTable: cfg.ClientTable,
		})
	})
}

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:ventes.db?cache=shared&_fk=1"
	//   "ventes.db" (interpreted by the driver)
	DSN string

	// DailyTable and ClientTable are the destination table names. Empty
	// values fall back to "ventes_par_date" and "ventes_par_client".
	DailyTable  string
	ClientTable string
}

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a SQLite connection using the provided DSN, creates the
// destination tables when absent, and returns a Repository.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	if cfg.DailyTable == "" {
		cfg.DailyTable = "ventes_par_date"
	}
	if cfg.ClientTable == "" {
		cfg.ClientTable = "ventes_par_client"
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	// Apply a basic ping with context to fail fast on invalid DSNs.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	r := &Repository{db: db, cfg: cfg}
	if err := r.ensureTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repository) ensureTables(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (date TEXT PRIMARY KEY, ventes TEXT NOT NULL)`,
			ident(r.cfg.DailyTable),
		),
		fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (client_id TEXT PRIMARY KEY, ventes_meuble TEXT NOT NULL, ventes_deco TEXT NOT NULL)`,
			ident(r.cfg.ClientTable),
		),
	}
	for _, s := range stmts {
		if _, err := r.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("sqlite: ensure table: %w", err)
		}
	}
	return nil
}

// WriteDaily replaces the daily sales table content inside one transaction.
// Amounts are stored as strings to keep decimal values exact.
func (r *Repository) WriteDaily(ctx context.Context, rows []model.DailySales) error {
	return r.replace(ctx, r.cfg.DailyTable,
		[]string{"date", "ventes"},
		len(rows),
		func(i int) []any {
			return []any{rows[i].Date.ISO(), rows[i].Ventes.String()}
		},
	)
}

// WriteClients replaces the per-client sales table content inside one
// transaction.
func (r *Repository) WriteClients(ctx context.Context, rows []model.ClientSales) error {
	return r.replace(ctx, r.cfg.ClientTable,
		[]string{"client_id", "ventes_meuble", "ventes_deco"},
		len(rows),
		func(i int) []any {
			return []any{rows[i].ClientID, rows[i].VentesMeuble.String(), rows[i].VentesDeco.String()}
		},
	)
}

// Close implements storage.Repository.
func (r *Repository) Close() error { return r.db.Close() }

// replace deletes prior table content and inserts n rows via a prepared
// statement, all inside a single transaction.
func (r *Repository) replace(
	ctx context.Context,
	table string,
	columns []string,
	n int,
	rowAt func(i int) []any,
) error {
	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		ident(table),
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+ident(table)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("sqlite: clear %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, rowAt(i)...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("sqlite: insert into %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// ident quotes a single identifier for SQLite.
func ident(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
