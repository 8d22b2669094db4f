package aggregate

import (
	"testing"

	"ventes/internal/model"
)

// tx builds an enriched transaction for tests. productType "" means no
// nomenclature match.
func tx(t *testing.T, date, price string, qty int64, client, productType string) model.EnrichedTransaction {
	t.Helper()
	day, err := model.ParseDay(date)
	if err != nil {
		t.Fatal(err)
	}
	p, err := model.ParsePrice(price)
	if err != nil {
		t.Fatal(err)
	}
	return model.EnrichedTransaction{
		Transaction: model.Transaction{Date: day, Price: p, Qty: qty, ClientID: client},
		ProductType: productType,
		HasType:     productType != "",
	}
}

func TestDaily_SumsPerDay(t *testing.T) {
	d := NewDaily(2019)
	d.Add(tx(t, "2019-01-15", "10", 2, "C1", "MEUBLE"))
	d.Add(tx(t, "2019-01-15", "5.50", 1, "C2", "DECO"))
	d.Add(tx(t, "2019-03-01", "100", 1, "C1", "MEUBLE"))

	rows := d.Rows()
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Date.ISO() != "2019-01-15" || rows[0].Ventes.String() != "25.5" {
		t.Errorf("rows[0] = %s %s", rows[0].Date, rows[0].Ventes)
	}
	if rows[1].Date.ISO() != "2019-03-01" || rows[1].Ventes.String() != "100" {
		t.Errorf("rows[1] = %s %s", rows[1].Date, rows[1].Ventes)
	}
}

func TestDaily_YearFilter(t *testing.T) {
	d := NewDaily(2019)
	d.Add(tx(t, "2018-12-31", "10", 1, "C1", "MEUBLE"))
	d.Add(tx(t, "2020-01-01", "10", 1, "C1", "MEUBLE"))
	if d.Len() != 0 {
		t.Fatalf("rows outside target year accumulated: %v", d.Rows())
	}

	// Year boundaries of the target year itself are included.
	d.Add(tx(t, "2019-01-01", "1", 1, "C1", "MEUBLE"))
	d.Add(tx(t, "2019-12-31", "1", 1, "C1", "MEUBLE"))
	if d.Len() != 2 {
		t.Fatalf("Len = %d, want 2", d.Len())
	}
}

func TestDaily_UnmatchedProductStillCounts(t *testing.T) {
	d := NewDaily(2019)
	d.Add(tx(t, "2019-01-15", "10", 2, "C1", "")) // no nomenclature match
	rows := d.Rows()
	if len(rows) != 1 || rows[0].Ventes.String() != "20" {
		t.Fatalf("rows = %v", rows)
	}
}

func TestDaily_ReturnsReduceTotal(t *testing.T) {
	d := NewDaily(2019)
	d.Add(tx(t, "2019-01-15", "10", 3, "C1", "MEUBLE"))
	d.Add(tx(t, "2019-01-15", "10", -1, "C1", "MEUBLE"))
	rows := d.Rows()
	if rows[0].Ventes.String() != "20" {
		t.Fatalf("ventes = %s, want 20", rows[0].Ventes)
	}
}

func TestDaily_MergeMatchesSinglePass(t *testing.T) {
	inputs := []model.EnrichedTransaction{
		tx(t, "2019-01-15", "10", 2, "C1", "MEUBLE"),
		tx(t, "2019-01-15", "3.33", 3, "C2", "DECO"),
		tx(t, "2019-02-01", "7", 1, "C1", ""),
		tx(t, "2019-02-01", "0.10", 10, "C3", "DECO"),
		tx(t, "2018-01-15", "999", 9, "C1", "MEUBLE"), // filtered out
	}

	// Single pass.
	single := NewDaily(2019)
	for _, in := range inputs {
		single.Add(in)
	}

	// Two partitions, merged in reverse arrival order.
	a, b := NewDaily(2019), NewDaily(2019)
	for i, in := range inputs {
		if i%2 == 0 {
			a.Add(in)
		} else {
			b.Add(in)
		}
	}
	merged := NewDaily(2019)
	merged.Merge(b)
	merged.Merge(a)

	got, want := merged.Rows(), single.Rows()
	if len(got) != len(want) {
		t.Fatalf("row counts differ: %d vs %d", len(got), len(want))
	}
	for i := range got {
		if got[i].Date != want[i].Date || !got[i].Ventes.Equal(want[i].Ventes) {
			t.Errorf("row %d: merged %v/%s, single %v/%s",
				i, got[i].Date, got[i].Ventes, want[i].Date, want[i].Ventes)
		}
	}
}

func TestDaily_RowsOrderedByDate(t *testing.T) {
	d := NewDaily(2019)
	for _, date := range []string{"2019-12-01", "2019-01-02", "2019-06-15", "2019-01-01"} {
		d.Add(tx(t, date, "1", 1, "C1", "MEUBLE"))
	}
	rows := d.Rows()
	for i := 1; i < len(rows); i++ {
		if !rows[i-1].Date.Before(rows[i].Date) {
			t.Fatalf("rows not ascending at %d: %v", i, rows)
		}
	}
}

func TestDaily_EmptyRows(t *testing.T) {
	if rows := NewDaily(2019).Rows(); len(rows) != 0 {
		t.Fatalf("rows = %v, want empty", rows)
	}
}
