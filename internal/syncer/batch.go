package syncer

import (
	"context"

	"github.com/workfin/practice-api/internal/repository"
)

// batchSize is the number of records buffered before a batch write. Small
// enough to keep transactions short, large enough to amortize round trips.
const batchSize = 50

// batcher buffers records and flushes them in fixed-size batches, keeping a
// running tally of the write outcomes.
type batcher[T any] struct {
	size   int
	buf    []T
	flush  func(ctx context.Context, batch []T) (repository.UpsertResult, error)
	result repository.UpsertResult
}

func newBatcher[T any](size int, flush func(ctx context.Context, batch []T) (repository.UpsertResult, error)) *batcher[T] {
	return &batcher[T]{size: size, buf: make([]T, 0, size), flush: flush}
}

func (b *batcher[T]) add(ctx context.Context, item T) error {
	b.buf = append(b.buf, item)
	if len(b.buf) >= b.size {
		return b.flushNow(ctx)
	}
	return nil
}

// finish flushes the final partial batch and returns the accumulated result.
func (b *batcher[T]) finish(ctx context.Context) (repository.UpsertResult, error) {
	if err := b.flushNow(ctx); err != nil {
		return b.result, err
	}
	return b.result, nil
}

func (b *batcher[T]) flushNow(ctx context.Context) error {
	if len(b.buf) == 0 {
		return nil
	}
	res, err := b.flush(ctx, b.buf)
	if err != nil {
		return err
	}
	b.result.Add(res)
	b.buf = b.buf[:0]
	return nil
}
