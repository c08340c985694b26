package language

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	ierr "github.com/precheck-dev/precheck/internal/errors"
	"github.com/precheck-dev/precheck/internal/hook"
	"github.com/precheck-dev/precheck/internal/logger"
)

// MaxArgBytes is the per-invocation argument-size budget for filename
// batches. Conservative enough to stay below every platform's command-line
// limit once the entry, args and environment are accounted for.
const MaxArgBytes = 32 << 10

// Partition splits files into ordered batches whose combined argument size
// stays within budget. A batch boundary never splits a filename: a single
// name larger than the budget gets a batch of its own. The result is empty
// only when files is empty.
func Partition(files []string, budget int) [][]string {
	var batches [][]string
	var current []string
	size := 0

	for _, file := range files {
		cost := len(file) + 1 // separator
		if len(current) > 0 && size+cost > budget {
			batches = append(batches, current)
			current = nil
			size = 0
		}
		current = append(current, file)
		size += cost
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

// batchFunc executes one batch invocation.
type batchFunc func(ctx context.Context, batch []string) (int, []byte)

// runByBatch partitions files and executes the hook's entry once per batch,
// aggregating results.
//
// The combined exit code is the bitwise OR of every batch's exit code; it
// carries only zero-versus-nonzero meaning. Combined output is each batch's
// output concatenated in completion order, which may differ from submission
// order when batches run concurrently. With require_serial the batches run
// strictly one at a time in list order; with fail_fast, batches that have not
// started are not launched once any completed batch reports nonzero (running
// batches are never preempted).
func runByBatch(ctx context.Context, hk *hook.Hook, files []string, opts RunOptions, run batchFunc) (int, []byte, error) {
	var batches [][]string
	if hk.PassFilenames {
		batches = Partition(files, MaxArgBytes)
	}
	if len(batches) == 0 {
		// Either pass_filenames is off or there are no files; the entry still
		// runs exactly once with no filenames appended.
		batches = [][]string{nil}
	}

	logger.Debug("Hook %s: %d files in %d batches", hk.ID, len(files), len(batches))

	if hk.RequireSerial || len(batches) == 1 {
		return runSerial(ctx, hk, batches, run)
	}
	return runConcurrent(ctx, hk, batches, opts.Parallelism, run)
}

func runSerial(ctx context.Context, hk *hook.Hook, batches [][]string, run batchFunc) (int, []byte, error) {
	combined := 0
	var output []byte

	for _, batch := range batches {
		if err := ctx.Err(); err != nil {
			return combined, output, err
		}

		code, out := run(ctx, batch)
		combined |= code
		output = append(output, out...)

		if hk.FailFast && combined != 0 {
			break
		}
	}
	return combined, output, nil
}

func runConcurrent(ctx context.Context, hk *hook.Hook, batches [][]string, parallelism int, run batchFunc) (int, []byte, error) {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	var (
		mu       sync.Mutex
		output   []byte
		combined int
		failed   atomic.Bool
	)

	// The group's derived context is cancelled once Wait returns, so the
	// caller's context stays unshadowed for the final error report.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for _, batch := range batches {
		// fail_fast is advisory: stop launching once any completed batch
		// failed, but never preempt what already runs.
		if hk.FailFast && failed.Load() {
			break
		}
		if err := gctx.Err(); err != nil {
			break
		}

		g.Go(func() error {
			return ierr.Recover(func() error {
				code, out := run(gctx, batch)

				mu.Lock()
				combined |= code
				output = append(output, out...)
				mu.Unlock()

				if code != 0 {
					failed.Store(true)
				}
				return nil
			})
		})
	}

	if err := g.Wait(); err != nil {
		return combined, output, err
	}
	return combined, output, ctx.Err()
}
