// Package join enriches transactions with product-type information by key
// lookup against the product nomenclature.
//
// The nomenclature is built once per run into an immutable broadcast map
// that every parallel worker reads; it is small relative to the transaction
// volume, so replicating it by reference avoids any key-redistribution
// shuffle. After Build returns, the map is never written again.
package join

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"ventes/internal/model"
)

// Product type labels the per-client aggregation distinguishes. The label
// set is open (any normalized string may appear); these two are the ones
// with dedicated output columns.
const (
	TypeMeuble = "MEUBLE"
	TypeDeco   = "DECO"
)

// Nomenclature is the broadcast product_id → product_type mapping.
// It is read-only after Build; sharing it by reference across workers is
// safe.
type Nomenclature map[string]string

// Build constructs the broadcast mapping from nomenclature records. Labels
// are normalized (see NormalizeType) so that source spelling variants of
// the same category collapse to one label.
//
// A duplicate product_id is a data integrity error: the join would be
// ambiguous and could silently corrupt aggregates, so the whole run must
// fail rather than pick an entry.
func Build(records []model.ProductNomenclature) (Nomenclature, error) {
	n := make(Nomenclature, len(records))
	for _, rec := range records {
		if _, dup := n[rec.ProductID]; dup {
			return nil, fmt.Errorf("%w: duplicate product_id %q in nomenclature",
				model.ErrDataIntegrity, rec.ProductID)
		}
		n[rec.ProductID] = NormalizeType(rec.ProductType)
	}
	return n, nil
}

// Enrich resolves the product type for one transaction. A missing
// nomenclature entry is not an error: the row is enriched with an absent
// type so that it still counts toward date-based aggregation.
func (n Nomenclature) Enrich(tx model.Transaction) model.EnrichedTransaction {
	typ, ok := n[tx.ProdID]
	return model.EnrichedTransaction{
		Transaction: tx,
		ProductType: typ,
		HasType:     ok,
	}
}

// typeFold decomposes, strips nonspacing marks (accents), and recomposes,
// so "Déco" folds to "Deco" before upper-casing.
var typeFold = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizeType canonicalizes a product-type label: trimmed, accents
// folded, upper-cased. "meuble", " Meuble " and "MEUBLE" all normalize to
// "MEUBLE"; unknown labels pass through normalized rather than failing.
func NormalizeType(s string) string {
	folded, _, _ := transform.String(typeFold, strings.TrimSpace(s))
	return strings.ToUpper(folded)
}
