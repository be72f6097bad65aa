package syncer

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// partitionBatches splits items into contiguous batches of at most
// size. Concatenating the result in order reproduces items exactly.
func partitionBatches[T any](items []T, size int) [][]T {
	if size < 1 {
		size = 1
	}
	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end:end])
	}
	return batches
}

// processPending reconciles the needing-sync records. Batches fan out
// to at most MaxParallel goroutines; within a batch records run
// strictly sequentially with a fixed pause between them to stay under
// rate limits. Each outcome lands in its record's disjoint slot of
// outcomes, so batches share no mutable state.
func (s *Syncer) processPending(ctx context.Context, pending []*workItem, outcomes []*Outcome) {
	if len(pending) == 0 {
		return
	}

	batches := partitionBatches(pending, s.cfg.BatchSize)
	slog.Info("dispatch", "repos", len(pending), "batches", len(batches), "max_parallel", s.cfg.MaxParallel)

	var eg errgroup.Group
	eg.SetLimit(max(s.cfg.MaxParallel, 1))
	for i, items := range batches {
		eg.Go(func() error {
			s.runBatch(ctx, i, items, outcomes)
			return nil
		})
	}
	// workers never return errors; isolation is per record
	_ = eg.Wait()
}

func (s *Syncer) runBatch(ctx context.Context, index int, items []*workItem, outcomes []*Outcome) {
	slog.Debug("batch start", "batch", index, "repos", len(items))
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			outcomes[item.idx] = newOutcome(item.rec, OutcomeFailed, "run cancelled: "+err.Error())
			continue
		}

		out := s.rec.Reconcile(ctx, item.rec, item.check)
		outcomes[item.idx] = out
		slog.Info("sync",
			"batch", index,
			"repo", item.rec.Name,
			"outcome", out.Kind,
			"detail", out.Detail,
			"took", out.Duration.Round(time.Millisecond),
		)

		if i < len(items)-1 {
			s.pause(ctx)
		}
	}
}

// pause is the fixed delay between records in a batch. Returns early
// on cancellation.
func (s *Syncer) pause(ctx context.Context) {
	if s.cfg.BatchPause <= 0 {
		return
	}
	t := time.NewTimer(s.cfg.BatchPause)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
