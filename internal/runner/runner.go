// Package runner executes prepared hooks against a file set, detects files
// the hooks modified, and renders the results.
package runner

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/aymanbagabas/go-udiff"

	ierr "github.com/precheck-dev/precheck/internal/errors"
	"github.com/precheck-dev/precheck/internal/hook"
	"github.com/precheck-dev/precheck/internal/language"
	"github.com/precheck-dev/precheck/internal/logger"
)

// Result is the outcome of one hook run.
type Result struct {
	Hook     *hook.Hook
	Skipped  bool
	Code     int
	Output   []byte
	Duration time.Duration

	// ModifiedFiles lists files whose content changed during the run, sorted.
	// A hook that modifies files fails even when its processes exited zero.
	ModifiedFiles []string
	// Diffs holds a unified diff per modified file, populated only in verbose
	// mode.
	Diffs []string
}

// Failed reports whether the result counts as a failure.
func (r *Result) Failed() bool {
	return !r.Skipped && (r.Code != 0 || len(r.ModifiedFiles) > 0)
}

// Runner executes hooks sequentially, honoring each hook's own batch
// concurrency settings.
type Runner struct {
	parallelism int
	verbose     bool
}

// New creates a Runner. parallelism is passed through to each hook's batch
// execution; verbose forces output and diff capture for every hook.
func New(parallelism int, verbose bool) *Runner {
	return &Runner{parallelism: parallelism, verbose: verbose}
}

// Run executes one hook against the candidate files. The hook's filter
// narrows the candidates; an empty selection skips the hook unless it is
// marked always_run.
func (r *Runner) Run(ctx context.Context, hk *hook.Hook, files []string) (*Result, error) {
	filter, err := newFileFilter(hk.Files, hk.Exclude, hk.Types, hk.TypesOr, hk.ExcludeTypes)
	if err != nil {
		return nil, fmt.Errorf("hook %s: %w", hk.ID, err)
	}
	selected := filter.Apply(files)

	if len(selected) == 0 && !hk.AlwaysRun {
		logger.Debug("Skipping %s: no files to check", hk.ID)
		return &Result{Hook: hk, Skipped: true}, nil
	}

	backend, err := language.Get(hk.Language)
	if err != nil {
		return nil, err
	}

	verbose := r.verbose || hk.Verbose
	before := snapshot(selected, verbose)

	start := time.Now()
	code, output, err := backend.Run(ctx, hk, selected, language.RunOptions{
		ExtraEnv:    map[string]string{"PRECHECK": "1"},
		Parallelism: r.parallelism,
	})
	if err != nil {
		return nil, &ierr.ExecutionError{Hook: hk.ID, Code: 1, Err: err}
	}

	res := &Result{
		Hook:     hk,
		Code:     code,
		Output:   output,
		Duration: time.Since(start),
	}
	res.ModifiedFiles, res.Diffs = detectModified(selected, before, verbose)

	if hk.LogFile != "" {
		if werr := os.WriteFile(hk.LogFile, output, 0o644); werr != nil {
			logger.Warn("Failed to write log file %s: %v", hk.LogFile, werr)
		}
	}
	return res, nil
}

// RunAll executes every hook eligible at the given stage, in order, and
// returns the results with the overall exit code. A failing hook marked
// fail_fast stops the sequence; remaining hooks are not started.
func (r *Runner) RunAll(ctx context.Context, hooks []*hook.Hook, files []string, stage string) ([]*Result, int, error) {
	var (
		results []*Result
		exit    int
	)
	for _, hk := range hooks {
		if stage != "" && !hk.RunsAtStage(stage) {
			logger.Debug("Skipping %s: not eligible at stage %s", hk.ID, stage)
			continue
		}

		res, err := r.Run(ctx, hk, files)
		if err != nil {
			// A broken hook fails like any other; only caller cancellation
			// stops the sequence.
			if ctx.Err() != nil {
				return results, 1, ctx.Err()
			}
			logger.Warn("Hook %s failed to run: %v", hk.ID, err)
			res = &Result{Hook: hk, Code: 1, Output: []byte(err.Error() + "\n")}
		}
		results = append(results, res)

		if res.Failed() {
			exit = 1
			if hk.FailFast {
				logger.Info("Stopping after %s: fail_fast", hk.ID)
				break
			}
		}
	}
	return results, exit, nil
}

// fileState is one file's content snapshot before a hook runs.
type fileState struct {
	sum     [sha256.Size]byte
	content []byte // retained only when diffs are wanted
	exists  bool
}

func snapshot(files []string, keepContent bool) map[string]fileState {
	states := make(map[string]fileState, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			states[path] = fileState{}
			continue
		}
		st := fileState{sum: sha256.Sum256(data), exists: true}
		if keepContent {
			st.content = data
		}
		states[path] = st
	}
	return states
}

// detectModified compares the current content of each file against its
// snapshot. withDiffs additionally produces a unified diff per change.
func detectModified(files []string, before map[string]fileState, withDiffs bool) ([]string, []string) {
	var modified []string
	diffByFile := make(map[string]string)

	for _, path := range files {
		prev := before[path]
		data, err := os.ReadFile(path)
		now := fileState{exists: err == nil}
		if err == nil {
			now.sum = sha256.Sum256(data)
		}

		if prev.exists == now.exists && prev.sum == now.sum {
			continue
		}
		modified = append(modified, path)
		if withDiffs {
			diffByFile[path] = udiff.Unified(path, path, string(prev.content), string(data))
		}
	}

	sort.Strings(modified)
	if !withDiffs {
		return modified, nil
	}
	diffs := make([]string, 0, len(modified))
	for _, path := range modified {
		diffs = append(diffs, diffByFile[path])
	}
	return modified, diffs
}
