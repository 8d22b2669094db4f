// Package aggregate implements the two reduction pipelines: total sales per
// calendar day, and per-client sales split by product type.
//
// Each accumulator follows the combiner contract of distributed reduction
// engines: create an empty accumulator, add inputs one at a time, merge
// accumulators pairwise, extract ordered output at the end. Add and Merge
// are associative and commutative over the input, so partitions can be
// accumulated independently, in any order, and merged in any grouping with
// an identical result. Accumulators are not safe for concurrent use; give
// each worker its own and merge after the barrier.
//
// The year filter is applied in Add — before any accumulation — so rows
// outside the target year never influence a sum. Matching is on the parsed
// calendar year, never on a string prefix of some date rendering.
package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"ventes/internal/model"
)

// Daily accumulates total sales (prod_price * prod_qty) per calendar day
// for one target year.
type Daily struct {
	year int
	sums map[model.Day]decimal.Decimal
}

// NewDaily returns an empty accumulator for the given year.
func NewDaily(year int) *Daily {
	return &Daily{year: year, sums: make(map[model.Day]decimal.Decimal)}
}

// Add folds one enriched transaction into the accumulator. Rows outside the
// target year are ignored. Rows without a nomenclature match still count:
// the daily aggregation is type-agnostic.
func (d *Daily) Add(tx model.EnrichedTransaction) {
	if tx.Date.Year != d.year {
		return
	}
	d.sums[tx.Date] = d.sums[tx.Date].Add(tx.Amount())
}

// Merge folds other into d by key-wise addition. Both accumulators must
// target the same year. other is left unusable afterwards.
func (d *Daily) Merge(other *Daily) {
	for day, sum := range other.sums {
		d.sums[day] = d.sums[day].Add(sum)
	}
	other.sums = nil
}

// Len returns the number of distinct days accumulated.
func (d *Daily) Len() int { return len(d.sums) }

// Rows extracts the final output ordered by date ascending.
func (d *Daily) Rows() []model.DailySales {
	rows := make([]model.DailySales, 0, len(d.sums))
	for day, sum := range d.sums {
		rows = append(rows, model.DailySales{Date: day, Ventes: sum})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows
}
