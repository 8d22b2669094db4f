// Package postgres implements a Postgres-backed storage.Repository using pgx
// v5. Each result table is replaced inside a transaction: DELETE followed by
// a COPY of the new rows.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ventes/internal/model"
	"ventes/internal/storage"
)

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, Config{
			DSN:         cfg.DSN,
			DailyTable:  cfg.DailyTable,
			ClientTable: cfg.ClientTable,
		})
	})
}

// Config holds Postgres repository configuration.
type Config struct {
	DSN string // connection string for pgxpool

	// DailyTable and ClientTable may be schema-qualified, e.g.
	// "public.ventes_par_date". Empty values fall back to
	// "ventes_par_date" and "ventes_par_client".
	DailyTable  string
	ClientTable string
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository opens a connection pool and creates the destination tables
// when absent.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	if cfg.DailyTable == "" {
		cfg.DailyTable = "ventes_par_date"
	}
	if cfg.ClientTable == "" {
		cfg.ClientTable = "ventes_par_client"
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: pgxpool: %w", err)
	}

	r := &Repository{pool: pool, cfg: cfg}
	if err := r.ensureTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repository) ensureTables(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (date date PRIMARY KEY, ventes numeric NOT NULL)`,
			pgFQN(r.cfg.DailyTable),
		),
		fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (client_id text PRIMARY KEY, ventes_meuble numeric NOT NULL, ventes_deco numeric NOT NULL)`,
			pgFQN(r.cfg.ClientTable),
		),
	}
	for _, s := range stmts {
		if _, err := r.pool.Exec(ctx, s); err != nil {
			return fmt.Errorf("postgres: ensure table: %w", err)
		}
	}
	return nil
}

// WriteDaily replaces the daily sales table content. Amounts are passed as
// strings so numeric columns keep exact decimal values.
func (r *Repository) WriteDaily(ctx context.Context, rows []model.DailySales) error {
	copyRows := make([][]any, len(rows))
	for i, row := range rows {
		copyRows[i] = []any{row.Date.ISO(), row.Ventes.String()}
	}
	return r.replace(ctx, r.cfg.DailyTable, []string{"date", "ventes"}, copyRows)
}

// WriteClients replaces the per-client sales table content.
func (r *Repository) WriteClients(ctx context.Context, rows []model.ClientSales) error {
	copyRows := make([][]any, len(rows))
	for i, row := range rows {
		copyRows[i] = []any{row.ClientID, row.VentesMeuble.String(), row.VentesDeco.String()}
	}
	return r.replace(ctx, r.cfg.ClientTable, []string{"client_id", "ventes_meuble", "ventes_deco"}, copyRows)
}

// Close implements storage.Repository.
func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

// replace clears the target table and COPYs the new rows in one transaction,
// so concurrent readers see either the old content or the new, never a mix.
func (r *Repository) replace(ctx context.Context, table string, columns []string, rows [][]any) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM "+pgFQN(table)); err != nil {
		return fmt.Errorf("postgres: clear %s: %w", table, err)
	}
	if _, err := tx.CopyFrom(ctx, splitFQN(table), columns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("postgres: copy into %s: %w", table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "public.ventes_par_date"
// to "public"."ventes_par_date". If no dot is present, returns a single
// quoted ident.
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
// If no dot is present, returns {"table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}
