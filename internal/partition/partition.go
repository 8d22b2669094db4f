// Package partition turns the transaction byte sources into a lazy, finite,
// restartable sequence of bounded record batches.
//
// No ordering is guaranteed across or within batches, and consumers must not
// rely on any: the aggregation stage is associative-commutative precisely so
// that batch boundaries and processing order are irrelevant to the result.
// The whole dataset never resides in memory; at most the open batches (one,
// or KeyShards many) are buffered at a time.
package partition

import (
	"context"
	"fmt"

	"ventes/internal/datasource"
	"ventes/internal/model"
	csvparser "ventes/internal/parser/csv"
)

// Batch is one bounded, independently processable partition of transactions.
type Batch struct {
	// ID numbers batches within one run, for diagnostics only.
	ID int

	// Source names the input the records came from.
	Source string

	// Records holds at most the reader's partition size.
	Records []model.Transaction
}

// Reader produces transaction batches from a set of sources. A Reader is
// restartable: every call to Each re-opens the sources and replays the full
// sequence, which is what makes retried runs possible.
type Reader struct {
	// Sources are the inputs, one per part-file (or a single file/URL).
	Sources []datasource.Source

	// Options configures CSV decoding.
	Options csvparser.Options

	// Size is the maximum record count per batch. Must be > 0.
	Size int

	// KeyShards, when > 0, routes records into that many concurrently
	// filled batches by hashing client_id (see Splitter) instead of
	// filling one batch sequentially. Each client then lands in a single
	// shard sequence, keeping per-batch accumulator keys disjoint.
	KeyShards int
}

// Each streams every source, groups decoded records into bounded batches,
// and hands each batch to fn. Malformed rows are reported through onError
// and skipped; fn errors (including cancellation) abort the sequence.
//
// Batches are emitted as they fill, so fn runs interleaved with reading.
func (r *Reader) Each(
	ctx context.Context,
	fn func(Batch) error,
	onError func(source string, line int, err error),
) error {
	if r.Size <= 0 {
		return fmt.Errorf("partition: size must be > 0")
	}

	nextID := 0
	emit := func(source string, records []model.Transaction) error {
		if len(records) == 0 {
			return nil
		}
		b := Batch{ID: nextID, Source: source, Records: records}
		nextID++
		return fn(b)
	}

	for _, src := range r.Sources {
		if err := r.readSource(ctx, src, emit, onError); err != nil {
			return err
		}
	}
	return nil
}

// readSource decodes one source into batches. With KeyShards set, records
// are distributed over shard buffers that flush independently as they fill;
// otherwise a single buffer fills sequentially. All non-empty buffers flush
// at end of stream.
func (r *Reader) readSource(
	ctx context.Context,
	src datasource.Source,
	emit func(source string, records []model.Transaction) error,
	onError func(source string, line int, err error),
) error {
	rc, err := src.Open(ctx)
	if err != nil {
		return err
	}
	defer rc.Close()

	shards := 1
	var split *Splitter
	if r.KeyShards > 0 {
		shards = r.KeyShards
		split = NewSplitter(r.KeyShards)
	}
	buffers := make([][]model.Transaction, shards)

	err = csvparser.StreamTransactions(ctx, rc, r.Options,
		func(tx model.Transaction) error {
			shard := 0
			if split != nil {
				shard = split.Shard(tx.ClientID)
			}
			buffers[shard] = append(buffers[shard], tx)
			if len(buffers[shard]) >= r.Size {
				full := buffers[shard]
				buffers[shard] = nil
				return emit(src.Name(), full)
			}
			return nil
		},
		func(line int, err error) { onError(src.Name(), line, err) },
	)
	if err != nil {
		return fmt.Errorf("source %s: %w", src.Name(), err)
	}

	for _, buf := range buffers {
		if err := emit(src.Name(), buf); err != nil {
			return err
		}
	}
	return nil
}
