// Package pipeline wires the sales aggregation end-to-end: open the input
// sources, broadcast the product nomenclature to every worker, stream
// transaction partitions through a worker pool of local accumulators, and
// merge the per-worker results behind a barrier.
//
// Concurrency model:
//
//	Reader (partitions; 1 goroutine)
//	     → bounded batch channel
//	     → N workers (enrich + accumulate, no shared state)
//	     → barrier (errgroup.Wait)
//	     → merge into final accumulators
//
// A run either completes and yields both result tables, or fails and yields
// nothing: partial output is never returned.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ventes/internal/aggregate"
	"ventes/internal/config"
	"ventes/internal/datasource"
	"ventes/internal/datasource/file"
	"ventes/internal/datasource/httpds"
	"ventes/internal/join"
	"ventes/internal/metrics"
	"ventes/internal/model"
	"ventes/internal/partition"
	"ventes/internal/storage"

	csvparser "ventes/internal/parser/csv"
)

// thisMany bounds how many row-level error messages are kept verbatim for the
// end-of-run summary; the rest are only counted.
const thisMany = 3

// counters holds cross-goroutine statistics for a run.
//
// All fields are updated atomically; read them only after the worker barrier.
type counters struct {
	read        atomic.Int64 // transactions that reached a worker
	malformed   atomic.Int64 // rows skipped by the parsers
	outsideYear atomic.Int64 // transactions outside the target year
	unmatched   atomic.Int64 // in-year transactions without a nomenclature match
	partitions  atomic.Int64 // batches processed
}

// Summary reports what a completed run did.
type Summary struct {
	RunID       string
	Year        int
	Products    int // distinct product ids in the nomenclature
	RowsRead    int64
	Malformed   int64
	OutsideYear int64
	Unmatched   int64
	Partitions  int64
	Duration    time.Duration
}

// Result is the full output of a successful run: both result tables plus the
// run summary.
type Result struct {
	Daily   []model.DailySales
	Clients []model.ClientSales
	Summary Summary
}

// Function variable used to introduce a test seam. In production it points to
// the real implementation; tests can override it.
var buildSourcesFn = buildSources

// Run executes the aggregation for spec and returns both result tables.
//
// Error policy: malformed rows are skipped and counted (fail-soft); a
// duplicate product id in the nomenclature or an unavailable source aborts
// the run with no output.
func Run(ctx context.Context, spec config.Pipeline) (*Result, error) {
	rt := config.ResolveRuntime(spec, runtime.NumCPU())
	runID := uuid.NewString()
	start := time.Now()

	log.Printf(
		"run %s: job=%s year=%d workers=%d partition_size=%d key_shards=%d buffer=%d",
		runID, spec.Job, spec.Year, rt.Workers, rt.PartitionSize, rt.KeyShards, rt.ChannelBuffer,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var stats counters
	rowAgg := newErrAgg(thisMany)
	onRowErr := func(source string, line int, err error) {
		stats.malformed.Add(1)
		rowAgg.add(fmt.Sprintf("%s: %v", source, err))
	}

	nomSources, err := buildSourcesFn(spec.Nomenclature, spec.Retry)
	if err != nil {
		return nil, fmt.Errorf("nomenclature sources: %w", err)
	}
	txSources, err := buildSourcesFn(spec.Transactions, spec.Retry)
	if err != nil {
		return nil, fmt.Errorf("transaction sources: %w", err)
	}

	// The nomenclature is small relative to the transactions; load it fully
	// up front and hand every worker the same read-only table.
	nomStart := time.Now()
	nom, err := loadNomenclature(ctx, nomSources, onRowErr)
	metrics.RecordStep(spec.Job, "nomenclature", err, time.Since(nomStart))
	if err != nil {
		return nil, err
	}
	log.Printf("nomenclature: %d products", len(nom))

	aggStart := time.Now()
	daily, client, err := aggregateTransactions(ctx, spec.Year, rt, txSources, nom, &stats, onRowErr)
	metrics.RecordStep(spec.Job, "aggregate", err, time.Since(aggStart))
	if err != nil {
		return nil, err
	}

	logRowErrors(rowAgg)

	sum := Summary{
		RunID:       runID,
		Year:        spec.Year,
		Products:    len(nom),
		RowsRead:    stats.read.Load(),
		Malformed:   stats.malformed.Load(),
		OutsideYear: stats.outsideYear.Load(),
		Unmatched:   stats.unmatched.Load(),
		Partitions:  stats.partitions.Load(),
		Duration:    time.Since(start),
	}
	logSummary(sum, daily.Len(), client.Len())

	metrics.RecordRow(spec.Job, "read", sum.RowsRead)
	metrics.RecordRow(spec.Job, "malformed", sum.Malformed)
	metrics.RecordRow(spec.Job, "outside_year", sum.OutsideYear)
	metrics.RecordRow(spec.Job, "unmatched", sum.Unmatched)
	metrics.RecordPartitions(spec.Job, sum.Partitions)

	return &Result{
		Daily:   daily.Rows(),
		Clients: client.Rows(),
		Summary: sum,
	}, nil
}

// WriteResult persists both result tables through the repository.
func WriteResult(ctx context.Context, repo storage.Repository, job string, res *Result) error {
	writeStart := time.Now()
	err := func() error {
		if err := repo.WriteDaily(ctx, res.Daily); err != nil {
			return fmt.Errorf("write daily sales: %w", err)
		}
		if err := repo.WriteClients(ctx, res.Clients); err != nil {
			return fmt.Errorf("write client sales: %w", err)
		}
		return nil
	}()
	metrics.RecordStep(job, "write", err, time.Since(writeStart))
	return err
}

// workerAcc is the pair of accumulators owned by one worker goroutine. No
// locking: each worker touches only its own pair until the barrier.
type workerAcc struct {
	daily  *aggregate.Daily
	client *aggregate.Client
}

// aggregateTransactions runs the partition reader and the worker pool, then
// merges the per-worker accumulators. On any error the partial accumulators
// are discarded.
func aggregateTransactions(
	ctx context.Context,
	year int,
	rt config.ResolvedRuntime,
	sources []datasource.Source,
	nom join.Nomenclature,
	stats *counters,
	onRowErr func(source string, line int, err error),
) (*aggregate.Daily, *aggregate.Client, error) {
	reader := &partition.Reader{
		Sources:   sources,
		Size:      rt.PartitionSize,
		KeyShards: rt.KeyShards,
	}

	batches := make(chan partition.Batch, rt.ChannelBuffer)
	accs := make([]workerAcc, rt.Workers)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(batches)
		return reader.Each(gctx, func(b partition.Batch) error {
			select {
			case batches <- b:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		}, onRowErr)
	})

	for i := 0; i < rt.Workers; i++ {
		acc := workerAcc{
			daily:  aggregate.NewDaily(year),
			client: aggregate.NewClient(year),
		}
		accs[i] = acc
		g.Go(func() error {
			for b := range batches {
				if err := gctx.Err(); err != nil {
					return err
				}
				stats.partitions.Add(1)
				for _, tx := range b.Records {
					stats.read.Add(1)
					if tx.Date.Year != year {
						stats.outsideYear.Add(1)
						continue
					}
					en := nom.Enrich(tx)
					if !en.HasType {
						stats.unmatched.Add(1)
					}
					acc.daily.Add(en)
					acc.client.Add(en)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	// Barrier passed: every worker is done, merge order is irrelevant.
	daily := aggregate.NewDaily(year)
	client := aggregate.NewClient(year)
	for _, acc := range accs {
		daily.Merge(acc.daily)
		client.Merge(acc.client)
	}
	return daily, client, nil
}

// loadNomenclature streams every nomenclature source into one lookup table.
// Malformed rows are skipped via onRowErr; a duplicate product id aborts with
// a data-integrity error from join.Build.
func loadNomenclature(
	ctx context.Context,
	sources []datasource.Source,
	onRowErr func(source string, line int, err error),
) (join.Nomenclature, error) {
	var records []model.ProductNomenclature
	for _, src := range sources {
		rc, err := src.Open(ctx)
		if err != nil {
			return nil, err
		}
		err = csvparser.StreamNomenclature(ctx, rc, csvparser.Options{},
			func(rec model.ProductNomenclature) error {
				records = append(records, rec)
				return nil
			},
			func(line int, err error) { onRowErr(src.Name(), line, err) },
		)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("nomenclature %s: %w", src.Name(), err)
		}
	}
	return join.Build(records)
}

// buildSources maps a configured input onto concrete datasource values, all
// wrapped with the retry policy.
func buildSources(src config.Source, retry config.Retry) ([]datasource.Source, error) {
	policy := datasource.RetryPolicy{
		MaxRetries:     retry.MaxRetries,
		InitialBackoff: time.Duration(retry.InitialBackoffMS) * time.Millisecond,
		MaxBackoff:     time.Duration(retry.MaxBackoffMS) * time.Millisecond,
	}

	switch src.Kind {
	case "file":
		discovered, err := file.Discover(src.File.Path)
		if err != nil {
			return nil, err
		}
		out := make([]datasource.Source, len(discovered))
		for i, d := range discovered {
			out[i] = datasource.WithRetry(d, policy)
		}
		return out, nil

	case "http":
		remote := httpds.NewRemote(src.HTTP.URL, httpds.Config{})
		return []datasource.Source{datasource.WithRetry(remote, policy)}, nil

	default:
		return nil, fmt.Errorf("unsupported source kind=%q", src.Kind)
	}
}

// errAgg aggregates row-level error messages, keeping the first few verbatim.
type errAgg struct {
	mu    sync.Mutex
	limit int
	count int
	first []string
}

func newErrAgg(limit int) *errAgg {
	return &errAgg{limit: limit}
}

func (a *errAgg) add(msg string) {
	a.mu.Lock()
	if a.count < a.limit {
		a.first = append(a.first, msg)
	}
	a.count++
	a.mu.Unlock()
}

// logRowErrors prints the aggregated row errors. Only the first N messages
// are shown.
func logRowErrors(a *errAgg) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.count == 0 {
		return
	}
	log.Printf("malformed rows: %d (showing first %d)", a.count, len(a.first))
	for i, s := range a.first {
		log.Printf("  #%03d: %s", i+1, s)
	}
}

func logSummary(s Summary, dailyRows, clientRows int) {
	log.Printf(
		"summary: run=%s read=%d malformed=%d outside_year=%d unmatched=%d partitions=%d daily_rows=%d client_rows=%d elapsed=%s",
		s.RunID,
		s.RowsRead,
		s.Malformed,
		s.OutsideYear,
		s.Unmatched,
		s.Partitions,
		dailyRows,
		clientRows,
		s.Duration.Truncate(time.Millisecond),
	)
}
