package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"ventes/internal/join"
	"ventes/internal/model"
)

// clientSums is one client's pair of accumulators. The decimal zero value
// is a valid zero, so fresh entries need no initialization.
type clientSums struct {
	meuble decimal.Decimal
	deco   decimal.Decimal
}

// Client accumulates per-client sales split into meuble and deco totals for
// one target year.
type Client struct {
	year int
	sums map[string]clientSums
}

// NewClient returns an empty accumulator for the given year.
func NewClient(year int) *Client {
	return &Client{year: year, sums: make(map[string]clientSums)}
}

// Add folds one enriched transaction into the accumulator. Rows outside the
// target year are ignored. A client appearing only with absent or other
// product types still gets an entry — the output owes every filtered-in
// client a row with explicit zeros, never an omission.
func (c *Client) Add(tx model.EnrichedTransaction) {
	if tx.Date.Year != c.year {
		return
	}
	s := c.sums[tx.ClientID]
	switch {
	case tx.HasType && tx.ProductType == join.TypeMeuble:
		s.meuble = s.meuble.Add(tx.Amount())
	case tx.HasType && tx.ProductType == join.TypeDeco:
		s.deco = s.deco.Add(tx.Amount())
	}
	c.sums[tx.ClientID] = s
}

// Merge folds other into c by key-wise addition. Both accumulators must
// target the same year. other is left unusable afterwards.
func (c *Client) Merge(other *Client) {
	for id, os := range other.sums {
		s := c.sums[id]
		s.meuble = s.meuble.Add(os.meuble)
		s.deco = s.deco.Add(os.deco)
		c.sums[id] = s
	}
	other.sums = nil
}

// Len returns the number of distinct clients accumulated.
func (c *Client) Len() int { return len(c.sums) }

// Rows extracts the final output ordered by client_id ascending.
func (c *Client) Rows() []model.ClientSales {
	rows := make([]model.ClientSales, 0, len(c.sums))
	for id, s := range c.sums {
		rows = append(rows, model.ClientSales{
			ClientID:     id,
			VentesMeuble: s.meuble,
			VentesDeco:   s.deco,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ClientID < rows[j].ClientID })
	return rows
}
