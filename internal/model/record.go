// Package model defines the typed records flowing through the sales
// aggregation pipeline and the error kinds the pipeline distinguishes.
//
// The types mirror the two input datasets (transactions and the product
// nomenclature) plus the enriched and aggregated shapes derived from them.
// All records are immutable once constructed; money values use
// shopspring/decimal so that sums are exact regardless of how the input is
// partitioned.
package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Transaction is one sales transaction row.
//
// Qty may be negative to represent a return; Price is never negative in
// well-formed input (the parser rejects negative prices as malformed).
type Transaction struct {
	Date     Day
	ProdID   string
	Price    decimal.Decimal
	Qty      int64
	ClientID string
}

// Amount returns Price * Qty for this transaction.
func (t Transaction) Amount() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Qty))
}

// ProductNomenclature maps a product to its category label.
type ProductNomenclature struct {
	ProductID   string
	ProductType string
}

// EnrichedTransaction is a Transaction with the product type resolved against
// the nomenclature. ProductType is empty and HasType is false when the
// transaction's product has no nomenclature entry; such rows still count
// toward date-based aggregation.
type EnrichedTransaction struct {
	Transaction
	ProductType string
	HasType     bool
}

// DailySales is one output row of the daily aggregation: total sales for one
// calendar day.
type DailySales struct {
	Date   Day
	Ventes decimal.Decimal
}

// ClientSales is one output row of the per-client aggregation. Both sums are
// present (possibly zero) for every client appearing in the filtered input.
type ClientSales struct {
	ClientID     string
	VentesMeuble decimal.Decimal
	VentesDeco   decimal.Decimal
}

// ParsePrice parses a non-negative decimal price.
func ParsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("price %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("price %q: negative", s)
	}
	return d, nil
}

// ParseQty parses a (possibly negative) integer quantity.
func ParseQty(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("qty %q: %w", s, err)
	}
	return n, nil
}
