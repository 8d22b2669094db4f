// Package csv implements streaming CSV decoding of the two input datasets.
// It avoids whole-file buffering and can handle very large inputs safely.
//
// Per-row failures are soft: a malformed row is reported through the
// onError callback and the stream continues. Only structural problems (an
// unreadable stream, a header missing required columns) abort the stream,
// since nothing after them could be interpreted.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"ventes/internal/model"
)

// Options configures CSV decoding. All fields are optional; sensible
// defaults are applied when a field is zero.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// HeaderMap maps source header names to canonical column names (e.g.
	// localized export headers to the expected snake_case ones).
	HeaderMap map[string]string
}

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// Canonical column names for the transactions dataset.
var transactionColumns = []string{"date", "prod_id", "prod_price", "prod_qty", "client_id"}

// Canonical column names for the nomenclature dataset.
var nomenclatureColumns = []string{"product_id", "product_type"}

// StreamTransactions decodes transaction rows from r and hands each valid
// record to onRow in input order. Malformed rows are reported via
// onError(line, err) — the error wraps model.ErrMalformedRecord — and the
// stream continues. A non-nil error from onRow aborts the stream and is
// returned as-is (used for cancellation and downstream back-pressure).
func StreamTransactions(
	ctx context.Context,
	r io.Reader,
	opt Options,
	onRow func(model.Transaction) error,
	onError func(line int, err error),
) error {
	return streamRows(ctx, r, opt, transactionColumns, onError, func(line int, field func(string) string) error {
		tx, err := decodeTransaction(field)
		if err != nil {
			onError(line, fmt.Errorf("%w: line %d: %v", model.ErrMalformedRecord, line, err))
			return nil
		}
		return onRow(tx)
	})
}

// StreamNomenclature decodes product-nomenclature rows from r. Error
// semantics match StreamTransactions.
func StreamNomenclature(
	ctx context.Context,
	r io.Reader,
	opt Options,
	onRow func(model.ProductNomenclature) error,
	onError func(line int, err error),
) error {
	return streamRows(ctx, r, opt, nomenclatureColumns, onError, func(line int, field func(string) string) error {
		rec, err := decodeNomenclature(field)
		if err != nil {
			onError(line, fmt.Errorf("%w: line %d: %v", model.ErrMalformedRecord, line, err))
			return nil
		}
		return onRow(rec)
	})
}

func decodeTransaction(field func(string) string) (model.Transaction, error) {
	day, err := model.ParseDay(field("date"))
	if err != nil {
		return model.Transaction{}, err
	}
	price, err := model.ParsePrice(field("prod_price"))
	if err != nil {
		return model.Transaction{}, err
	}
	qty, err := model.ParseQty(field("prod_qty"))
	if err != nil {
		return model.Transaction{}, err
	}
	prodID := field("prod_id")
	if prodID == "" {
		return model.Transaction{}, fmt.Errorf("empty prod_id")
	}
	clientID := field("client_id")
	if clientID == "" {
		return model.Transaction{}, fmt.Errorf("empty client_id")
	}
	return model.Transaction{
		Date:     day,
		ProdID:   prodID,
		Price:    price,
		Qty:      qty,
		ClientID: clientID,
	}, nil
}

func decodeNomenclature(field func(string) string) (model.ProductNomenclature, error) {
	id := field("product_id")
	if id == "" {
		return model.ProductNomenclature{}, fmt.Errorf("empty product_id")
	}
	typ := field("product_type")
	if typ == "" {
		return model.ProductNomenclature{}, fmt.Errorf("empty product_type")
	}
	return model.ProductNomenclature{ProductID: id, ProductType: typ}, nil
}

// streamRows is the shared streaming loop: it reads the header, resolves the
// required column indexes, and invokes emit once per data row with a field
// accessor. Rows with the wrong width are soft failures.
func streamRows(
	ctx context.Context,
	r io.Reader,
	opt Options,
	required []string,
	onError func(line int, err error),
	emit func(line int, field func(string) string) error,
) error {
	cr := csv.NewReader(r)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.FieldsPerRecord = -1 // width is enforced after read, as a soft failure
	cr.ReuseRecord = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("read csv header: %w", err)
	}
	idx, err := headerIndex(header, opt.HeaderMap, required)
	if err != nil {
		return err
	}
	width := len(header)

	line := 1 // header consumed
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rec, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		line++
		if err != nil {
			onError(line, fmt.Errorf("%w: line %d: %v", model.ErrMalformedRecord, line, err))
			continue
		}
		if len(rec) != width {
			onError(line, fmt.Errorf("%w: line %d: got %d fields, want %d",
				model.ErrMalformedRecord, line, len(rec), width))
			continue
		}

		field := func(name string) string {
			return strings.TrimSpace(rec[idx[name]])
		}
		if err := emit(line, field); err != nil {
			return err
		}
	}
}

// headerIndex normalizes the header row (BOM, whitespace, optional header
// map) and resolves the index of every required column. A missing required
// column is fatal for the whole stream.
func headerIndex(header []string, headerMap map[string]string, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, raw := range header {
		name := strings.TrimSpace(raw)
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		if headerMap != nil {
			if mapped, ok := headerMap[name]; ok && mapped != "" {
				name = mapped
			}
		}
		idx[name] = i
	}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("csv header missing required column %q (have %v)", col, headerNames(idx))
		}
	}
	return idx, nil
}

func headerNames(idx map[string]int) []string {
	names := make([]string, len(idx))
	for name, i := range idx {
		if i >= 0 && i < len(names) {
			names[i] = name
		}
	}
	return names
}
