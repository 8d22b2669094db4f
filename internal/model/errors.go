package model

import "errors"

// Error kinds the pipeline distinguishes. Callers should match them with
// errors.Is; concrete errors wrap these sentinels with row/source context.
var (
	// ErrMalformedRecord marks a row that failed to parse. Policy: the row
	// is skipped and counted, the partition continues.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrDataIntegrity marks a referential inconsistency that would make
	// the join ambiguous (e.g. a duplicate product_id in the nomenclature).
	// Policy: the whole run fails; a silent pick would corrupt aggregates.
	ErrDataIntegrity = errors.New("data integrity error")

	// ErrSourceUnavailable marks a partition source that could not be read.
	// Policy: bounded retry with backoff, then fail the run.
	ErrSourceUnavailable = errors.New("source unavailable")
)
