package worker

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/moatscan/moatscan/internal/checkpoint"
	"github.com/moatscan/moatscan/internal/model"
)

// sleepFunc is replaced in tests to avoid real backoff delays
var sleepFunc = time.Sleep

// Func processes one item and returns its result for checkpointing
type Func func(ctx context.Context, id string) (any, error)

// ItemResult is one item's batch outcome
type ItemResult struct {
	ID       string
	Result   any
	Err      error
	Skipped  bool // Succeeded in a previous run; fn was not called
	Attempts int
}

// GetError returns the item's terminal error, if any
func (r *ItemResult) GetError() error {
	return r.Err
}

// BatchProcessor runs a per-item function across a list of item ids.
// Items that already succeeded in the checkpoint are skipped, transient
// failures are retried with capped exponential backoff, and exhausted items
// are recorded as failed without aborting the batch.
type BatchProcessor struct {
	checkpoints *checkpoint.Manager
	limiter     *Limiter
	workers     int
	maxRetries  int
	baseDelay   time.Duration
	maxDelay    time.Duration
	warn        io.Writer
}

// NewBatchProcessor creates a processor. warn defaults to stderr.
func NewBatchProcessor(cp *checkpoint.Manager, limiter *Limiter, cfg model.BatchConfig, warn io.Writer) *BatchProcessor {
	if warn == nil {
		warn = os.Stderr
	}
	baseDelay := cfg.BaseDelay
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	maxDelay := cfg.MaxDelay
	if maxDelay <= 0 {
		maxDelay = time.Minute
	}

	return &BatchProcessor{
		checkpoints: cp,
		limiter:     limiter,
		workers:     cfg.Workers,
		maxRetries:  cfg.MaxRetries,
		baseDelay:   baseDelay,
		maxDelay:    maxDelay,
		warn:        warn,
	}
}

// batchJob is one item submitted to the pool
type batchJob struct {
	processor *BatchProcessor
	phase     string
	id        string
	fn        Func
}

// Execute runs the item with retry and checkpoints the outcome
func (j *batchJob) Execute(ctx context.Context) Result {
	b := j.processor
	key := j.phase + "/" + j.id
	item := &ItemResult{ID: j.id}

	var lastErr error
	for attempt := 0; attempt <= b.maxRetries; attempt++ {
		if attempt > 0 {
			sleepFunc(b.backoff(attempt - 1))
		}
		if ctx.Err() != nil {
			item.Err = ctx.Err()
			return item
		}
		if b.limiter != nil {
			if err := b.limiter.Wait(ctx, j.phase); err != nil {
				item.Err = err
				return item
			}
		}

		item.Attempts = attempt + 1
		result, err := j.fn(ctx, j.id)
		if err == nil {
			if err := b.checkpoints.Save(key, result); err != nil {
				item.Err = fmt.Errorf("checkpoint %s: %w", key, err)
				return item
			}
			item.Result = result
			return item
		}

		lastErr = err
		if attempt < b.maxRetries {
			fmt.Fprintf(b.warn, "Warning: %s attempt %d failed, retrying: %v\n", key, attempt+1, err)
		}
	}

	// Exhausted retries: record the failure, keep the batch going
	item.Err = lastErr
	fmt.Fprintf(b.warn, "Warning: %s failed after %d attempts: %v\n", key, item.Attempts, lastErr)
	if err := b.checkpoints.Fail(key, lastErr); err != nil {
		fmt.Fprintf(b.warn, "Warning: record failure for %s: %v\n", key, err)
	}
	return item
}

// backoff returns baseDelay * 2^attempt, capped at maxDelay
func (b *BatchProcessor) backoff(attempt int) time.Duration {
	delay := b.baseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= b.maxDelay {
			return b.maxDelay
		}
	}
	if delay > b.maxDelay {
		return b.maxDelay
	}
	return delay
}

// Run processes ids under the given phase. Re-running over the same ids with
// the same checkpoint file only processes previously-unprocessed or failed
// items. Results are returned in input order.
func (b *BatchProcessor) Run(ctx context.Context, phase string, ids []string, fn Func) ([]ItemResult, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	byID := make(map[string]*ItemResult, len(ids))

	var jobs []*batchJob
	for _, id := range ids {
		if b.checkpoints.Processed(phase + "/" + id) {
			byID[id] = &ItemResult{ID: id, Skipped: true}
			continue
		}
		jobs = append(jobs, &batchJob{processor: b, phase: phase, id: id, fn: fn})
	}

	pool := NewPool(ctx, b.workers)
	pool.Start()

	// Submit concurrently with draining so a batch larger than the channel
	// buffers cannot wedge the pool
	go func() {
		for _, j := range jobs {
			pool.Submit(j)
		}
		pool.Close()
	}()

	for result := range pool.Results() {
		item := result.(*ItemResult)
		byID[item.ID] = item
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ordered := make([]ItemResult, 0, len(ids))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			ordered = append(ordered, *item)
		}
	}
	if len(ordered) != len(ids) {
		return ordered, fmt.Errorf("batch %s: %d of %d items unaccounted for", phase, len(ids)-len(ordered), len(ids))
	}
	return ordered, nil
}
