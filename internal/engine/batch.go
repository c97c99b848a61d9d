// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"triage-scan/internal/record"
)

// BatchStats aggregates one run's outcome counts.
type BatchStats struct {
	Total    int           `json:"total" yaml:"total"`
	Included int           `json:"included" yaml:"included"`
	Reviewed int           `json:"reviewed" yaml:"reviewed"`
	Excluded int           `json:"excluded" yaml:"excluded"`
	Hazards  int           `json:"hazards" yaml:"hazards"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// BatchResult is a completed run: results in original record order, never
// completion order.
type BatchResult struct {
	RunID   string          `json:"run_id" yaml:"run_id"`
	Results []record.Result `json:"results" yaml:"results"`
	Stats   BatchStats      `json:"stats" yaml:"stats"`
}

// Runner classifies a record slice on a fixed-size worker pool. The engine
// is read-only during a run, so workers share it without locking.
type Runner struct {
	engine  *Engine
	workers int
}

// NewRunner builds a runner; workers <= 0 means one per CPU.
func NewRunner(e *Engine, workers int) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Runner{engine: e, workers: workers}
}

type job struct {
	idx int
	rec record.Record
}

// Run processes every record and reassembles results by input position.
// The optional progress callback is invoked from the collector goroutine
// only, so it needs no locking of its own.
func (r *Runner) Run(ctx context.Context, records []record.Record, progress func(done, total int)) (*BatchResult, error) {
	start := time.Now()
	results := make([]record.Result, len(records))

	jobs := make(chan job)
	done := make(chan int, r.workers)

	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.idx] = r.engine.Classify(j.rec)
				select {
				case done <- j.idx:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, rec := range records {
			select {
			case jobs <- job{idx: i, rec: rec}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	completed := 0
	for range done {
		completed++
		if progress != nil {
			progress(completed, len(records))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := &BatchResult{
		RunID:   uuid.NewString(),
		Results: results,
	}
	batch.Stats = summarize(results, time.Since(start))
	return batch, nil
}

func summarize(results []record.Result, d time.Duration) BatchStats {
	stats := BatchStats{Total: len(results), Duration: d}
	for _, res := range results {
		switch res.Decision {
		case record.Include:
			stats.Included++
		case record.Review:
			stats.Reviewed++
		case record.Exclude:
			stats.Excluded++
		}
		stats.Hazards += len(res.Hazards)
	}
	return stats
}
