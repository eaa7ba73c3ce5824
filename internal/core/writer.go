package core

import (
	"context"
	"time"
)

// DefaultBatchSize is the number of rows written per transaction.
const DefaultBatchSize = 100

// WriteOptions configures WriteBatches.
type WriteOptions struct {
	// BatchSize caps rows per batch. Zero selects DefaultBatchSize.
	BatchSize int

	// ConflictKey selects the upsert match column. Empty selects policy_id.
	ConflictKey ConflictKey

	// Now stamps created_at and updated_at. Nil selects time.Now.
	Now func() time.Time

	// Progress, when set, is called after every committed batch.
	Progress func(BatchProgress)
}

// BatchProgress describes the state of a bulk write after a committed batch.
type BatchProgress struct {
	Batch    int // 1-based index of the batch just committed
	Batches  int // total number of batches
	Rows     int // rows in the batch just committed
	Imported int // rows committed so far
	Total    int // rows to write overall
}

// WriteResult summarizes a bulk write. On failure it reflects only the
// batches committed before the failing one.
type WriteResult struct {
	Batches  int
	Imported int
}

// WriteBatches upserts claims in contiguous batches, one transaction per
// batch. The first failing batch stops the write: its rows are rolled back,
// earlier batches stay committed and the error is a *StoreError carrying the
// batch index. Nothing is retried.
func WriteBatches(ctx context.Context, w BatchWriter, claims []Claim, opts WriteOptions) (WriteResult, error) {
	size := opts.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	key := opts.ConflictKey
	if key == "" {
		key = ConflictPolicyID
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	total := len(claims)
	batches := (total + size - 1) / size

	var result WriteResult
	for i := 0; i < batches; i++ {
		if err := ctx.Err(); err != nil {
			return result, &StoreError{Op: "upsert batch", Batch: i + 1, Err: err}
		}

		start := i * size
		end := min(start+size, total)
		batch := claims[start:end]

		if err := w.UpsertClaims(ctx, batch, key, now().UTC()); err != nil {
			return result, &StoreError{Op: "upsert batch", Batch: i + 1, Err: err}
		}

		result.Batches++
		result.Imported += len(batch)

		if opts.Progress != nil {
			opts.Progress(BatchProgress{
				Batch:    i + 1,
				Batches:  batches,
				Rows:     len(batch),
				Imported: result.Imported,
				Total:    total,
			})
		}
	}

	return result, nil
}
