package csvsink

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"ventes/internal/model"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func day(t *testing.T, s string) model.Day {
	t.Helper()
	d, err := model.ParseDay(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestWriteDaily(t *testing.T) {
	dir := t.TempDir()
	dailyPath := filepath.Join(dir, "daily.csv")
	clientPath := filepath.Join(dir, "clients.csv")

	repo, err := NewRepository(dailyPath, clientPath)
	if err != nil {
		t.Fatal(err)
	}
	defer repo.Close()

	rows := []model.DailySales{
		{Date: day(t, "2019-01-15"), Ventes: dec(t, "20")},
		{Date: day(t, "2019-03-01"), Ventes: dec(t, "10.5")},
	}
	if err := repo.WriteDaily(context.Background(), rows); err != nil {
		t.Fatalf("WriteDaily: %v", err)
	}

	got, err := os.ReadFile(dailyPath)
	if err != nil {
		t.Fatal(err)
	}
	want := "date,ventes\n2019-01-15,20\n2019-03-01,10.5\n"
	if string(got) != want {
		t.Fatalf("daily file:\n%s\nwant:\n%s", got, want)
	}
}

func TestWriteClients(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewRepository(filepath.Join(dir, "d.csv"), filepath.Join(dir, "c.csv"))
	if err != nil {
		t.Fatal(err)
	}

	rows := []model.ClientSales{
		{ClientID: "C1", VentesMeuble: dec(t, "20"), VentesDeco: dec(t, "5")},
		{ClientID: "C2", VentesMeuble: dec(t, "0"), VentesDeco: dec(t, "0")},
	}
	if err := repo.WriteClients(context.Background(), rows); err != nil {
		t.Fatalf("WriteClients: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "c.csv"))
	if err != nil {
		t.Fatal(err)
	}
	want := "client_id,ventes_meuble,ventes_deco\nC1,20,5\nC2,0,0\n"
	if string(got) != want {
		t.Fatalf("clients file:\n%s\nwant:\n%s", got, want)
	}
}

func TestWriteReplacesPriorContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "daily.csv")
	repo, err := NewRepository(path, filepath.Join(dir, "c.csv"))
	if err != nil {
		t.Fatal(err)
	}

	first := []model.DailySales{
		{Date: day(t, "2019-01-15"), Ventes: dec(t, "20")},
		{Date: day(t, "2019-01-16"), Ventes: dec(t, "30")},
	}
	second := []model.DailySales{
		{Date: day(t, "2019-01-15"), Ventes: dec(t, "20")},
	}
	ctx := context.Background()
	if err := repo.WriteDaily(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := repo.WriteDaily(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "date,ventes\n2019-01-15,20\n"
	if string(got) != want {
		t.Fatalf("file after rewrite:\n%s\nwant:\n%s", got, want)
	}
}

func TestNewRepositoryMissingPaths(t *testing.T) {
	if _, err := NewRepository("", "c.csv"); err == nil {
		t.Fatal("expected error for empty daily path")
	}
	if _, err := NewRepository("d.csv", ""); err == nil {
		t.Fatal("expected error for empty client path")
	}
}

func TestWriteCanceledContext(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewRepository(filepath.Join(dir, "d.csv"), filepath.Join(dir, "c.csv"))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := repo.WriteDaily(ctx, nil); err == nil {
		t.Fatal("expected context error")
	}
}
