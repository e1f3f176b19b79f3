package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/sitehash/internal/model"
)

// TestBatchProcessorNew tests the BatchProcessor constructor.
func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	t.Run("creates processor with defaults", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor()
		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected default concurrency %d, got %d", DefaultConcurrency, bp.concurrency)
		}
		if bp.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("applies WithConcurrency option", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(WithConcurrency(3))
		if bp.concurrency != 3 {
			t.Errorf("expected concurrency 3, got %d", bp.concurrency)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(WithConcurrency(0))
		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected concurrency %d, got %d", DefaultConcurrency, bp.concurrency)
		}
	})
}

func TestBatchProcessor_Process(t *testing.T) {
	t.Parallel()

	t.Run("keeps input order", func(t *testing.T) {
		t.Parallel()

		inputs := []string{"c", "a", "b", "d"}
		bp := NewBatchProcessor(WithConcurrency(4))

		results, err := bp.Process(context.Background(), inputs, func(_ context.Context, in string) (model.HashResult, error) {
			// Later inputs finish first.
			time.Sleep(time.Duration(strings.Index("dbac", in)) * time.Millisecond)
			return model.HashResult{URL: in, Hash: model.Fingerprint(strings.ToUpper(in))}, nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, in := range inputs {
			if results[i].URL != in || results[i].Hash != model.Fingerprint(strings.ToUpper(in)) {
				t.Errorf("result %d: unexpected %+v", i, results[i])
			}
		}
	})

	t.Run("respects concurrency limit", func(t *testing.T) {
		t.Parallel()

		var current, peak atomic.Int32
		bp := NewBatchProcessor(WithConcurrency(2))

		_, err := bp.Process(context.Background(), []string{"1", "2", "3", "4", "5", "6"}, func(_ context.Context, in string) (model.HashResult, error) {
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			current.Add(-1)
			return model.HashResult{URL: in}, nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if peak.Load() > 2 {
			t.Errorf("expected at most 2 concurrent, got %d", peak.Load())
		}
	})

	t.Run("first error fails the batch", func(t *testing.T) {
		t.Parallel()

		errBoom := errors.New("boom")
		bp := NewBatchProcessor()

		results, err := bp.Process(context.Background(), []string{"ok", "bad", "ok2"}, func(_ context.Context, in string) (model.HashResult, error) {
			if in == "bad" {
				return model.HashResult{}, errBoom
			}
			return model.HashResult{URL: in}, nil
		})
		if !errors.Is(err, errBoom) {
			t.Fatalf("expected errBoom, got %v", err)
		}
		if results != nil {
			t.Errorf("expected no partial results, got %+v", results)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewBatchProcessor().Process(ctx, []string{"a"}, func(ctx context.Context, in string) (model.HashResult, error) {
			return model.HashResult{URL: in}, ctx.Err()
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()

		results, err := NewBatchProcessor().Process(context.Background(), nil, func(context.Context, string) (model.HashResult, error) {
			t.Error("fn must not be called")
			return model.HashResult{}, nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 0 {
			t.Errorf("expected no results, got %d", len(results))
		}
	})
}
