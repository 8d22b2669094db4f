// Package csvsink implements a CSV file-backed storage.Repository. Each of
// the two result tables is written to its own file, atomically via a rename
// from a temp file in the same directory.
package csvsink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"ventes/internal/model"
	"ventes/internal/storage"
)

func init() {
	storage.Register("csv", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(cfg.DailyPath, cfg.ClientPath)
	})
}

// Repository writes result rows as CSV files.
type Repository struct {
	dailyPath  string
	clientPath string
}

// NewRepository validates the output paths and returns a Repository. Files
// are created lazily on the first write.
func NewRepository(dailyPath, clientPath string) (*Repository, error) {
	if dailyPath == "" || clientPath == "" {
		return nil, fmt.Errorf("csvsink: both output paths are required")
	}
	return &Repository{dailyPath: dailyPath, clientPath: clientPath}, nil
}

// WriteDaily writes the daily sales table as "date,ventes" with dates in
// ISO 8601 form.
func (r *Repository) WriteDaily(ctx context.Context, rows []model.DailySales) error {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, []string{"date", "ventes"})
	for _, row := range rows {
		records = append(records, []string{row.Date.ISO(), row.Ventes.String()})
	}
	return writeFile(ctx, r.dailyPath, records)
}

// WriteClients writes the per-client table as
// "client_id,ventes_meuble,ventes_deco".
func (r *Repository) WriteClients(ctx context.Context, rows []model.ClientSales) error {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, []string{"client_id", "ventes_meuble", "ventes_deco"})
	for _, row := range rows {
		records = append(records, []string{
			row.ClientID,
			row.VentesMeuble.String(),
			row.VentesDeco.String(),
		})
	}
	return writeFile(ctx, r.clientPath, records)
}

// Close implements storage.Repository. The CSV backend holds no open handles
// between writes.
func (r *Repository) Close() error { return nil }

// writeFile writes all records to a temp file next to path and renames it
// into place, so readers never observe a half-written file.
func writeFile(ctx context.Context, path string, records [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("csvsink: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(records); err != nil {
		tmp.Close()
		return fmt.Errorf("csvsink: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("csvsink: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("csvsink: rename into place: %w", err)
	}
	return nil
}
