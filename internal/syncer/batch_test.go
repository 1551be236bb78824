package syncer

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/workfin/practice-api/internal/repository"
)

func TestBatcherFlushSizes(t *testing.T) {
	var flushes [][]int
	b := newBatcher(50, func(ctx context.Context, batch []int) (repository.UpsertResult, error) {
		cp := make([]int, len(batch))
		copy(cp, batch)
		flushes = append(flushes, cp)
		return repository.UpsertResult{Created: len(batch)}, nil
	})

	ctx := context.Background()
	for i := 0; i < 120; i++ {
		if err := b.add(ctx, i); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	result, err := b.finish(ctx)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}

	if len(flushes) != 3 {
		t.Fatalf("flushes = %d, want 3", len(flushes))
	}
	for i, want := range []int{50, 50, 20} {
		if len(flushes[i]) != want {
			t.Errorf("flush %d size = %d, want %d", i, len(flushes[i]), want)
		}
	}
	if result.Created != 120 {
		t.Errorf("created = %d, want 120", result.Created)
	}
	// Records arrive in order across flush boundaries.
	if flushes[1][0] != 50 || flushes[2][19] != 119 {
		t.Errorf("flush contents out of order: %v ... %v", flushes[1][0], flushes[2][19])
	}
}

func TestBatcherEmptyFinish(t *testing.T) {
	calls := 0
	b := newBatcher(50, func(ctx context.Context, batch []int) (repository.UpsertResult, error) {
		calls++
		return repository.UpsertResult{}, nil
	})
	result, err := b.finish(context.Background())
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if calls != 0 {
		t.Errorf("flush called %d times for empty batcher", calls)
	}
	if result != (repository.UpsertResult{}) {
		t.Errorf("result = %+v, want zero", result)
	}
}

func TestBatcherFlushError(t *testing.T) {
	boom := errors.New("write failed")
	b := newBatcher(2, func(ctx context.Context, batch []int) (repository.UpsertResult, error) {
		return repository.UpsertResult{}, boom
	})
	ctx := context.Background()
	if err := b.add(ctx, 1); err != nil {
		t.Fatalf("add below threshold should not flush: %v", err)
	}
	if err := b.add(ctx, 2); !errors.Is(err, boom) {
		t.Fatalf("add at threshold = %v, want flush error", err)
	}
}
