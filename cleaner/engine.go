package cleaner

import (
	"context"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/teranos/metaclean/config"
	"github.com/teranos/metaclean/errors"
	"github.com/teranos/metaclean/logger"
)

// Engine orchestrates the four cleaning operations per file according to the
// requested options, producing one outcome record per applicable operation
// and aggregating into a report.
//
// Operations are independent: every applicable operation runs even when an
// earlier one fails, and no single file's failure aborts a batch.
type Engine struct {
	opts  CleanOptions
	cfg   *config.Config
	log   *zap.SugaredLogger
	kinds []OperationKind
	ops   map[OperationKind]Operation

	sanitizer  *StreamSanitizer
	normalizer *TimestampNormalizer
	clearer    *OwnershipClearer
	scrubber   *ContainerPropertyScrubber

	// OnResult, when set, observes each finished file during CleanAll.
	// Called from a single goroutine, in completion order.
	OnResult func(FileResult)
}

// New builds an engine for one invocation. opts is read-only to the engine;
// log may be nil to use the global logger.
func New(opts CleanOptions, cfg *config.Config, log *zap.SugaredLogger) (*Engine, error) {
	if log == nil {
		log = logger.Logger
	}

	epoch, err := cfg.Cleaner.Epoch()
	if err != nil {
		return nil, err
	}

	var custom []OperationKind
	if opts.Mode == ModeCustom {
		for _, name := range cfg.Cleaner.CustomOps {
			kind, err := ParseOperationKind(name)
			if err != nil {
				return nil, errors.Wrap(err, "cleaner.custom_ops")
			}
			custom = append(custom, kind)
		}
	}

	timeout := cfg.Cleaner.OpTimeout()

	e := &Engine{
		opts:       opts,
		cfg:        cfg,
		log:        log.Named("cleaner"),
		kinds:      opts.Mode.ops(custom),
		sanitizer:  NewStreamSanitizer(timeout),
		normalizer: NewTimestampNormalizer(epoch),
		clearer:    NewOwnershipClearer(cfg.Cleaner.NeutralOwnerSID, timeout),
		scrubber:   NewContainerPropertyScrubber(cfg.Office.Extensions),
	}
	e.ops = map[OperationKind]Operation{
		KindStreams:          e.sanitizer,
		KindTimestamps:       e.normalizer,
		KindOwner:            e.clearer,
		KindOfficeProperties: e.scrubber,
	}
	return e, nil
}

// Kinds returns the operation kinds this engine attempts per file, in
// dispatch order.
func (e *Engine) Kinds() []OperationKind {
	return append([]OperationKind(nil), e.kinds...)
}

// Clean processes exactly one file. Never returns an error: every failure is
// recorded in the result's outcomes.
func (e *Engine) Clean(ctx context.Context, path string) FileResult {
	res := FileResult{Path: path}

	if _, err := os.Stat(path); err != nil {
		// File-level catastrophic error: record it against every applicable
		// operation and move on
		sentinel := errors.ErrNotFound
		if !os.IsNotExist(err) {
			sentinel = errors.ErrAccessDenied
		}
		werr := errors.WrapSentinel(sentinel, err)
		for _, kind := range e.kinds {
			res.Outcomes = append(res.Outcomes, failed(kind, werr))
		}
		e.log.Warnw("File inaccessible", "path", path, "error", err)
		return res
	}

	for _, kind := range e.kinds {
		var out OperationOutcome
		switch {
		case kind == KindOwner && !e.opts.ElevateOwnership:
			// Never attempt a mutation the OS will reject; a partial
			// privilege attempt can have side effects
			out = skipped(KindOwner, SkipNotRequested, "ownership elevation not requested")
		default:
			out = e.ops[kind].Apply(ctx, path, e.opts.DryRun)
		}

		switch out.Status {
		case StatusFailed:
			e.log.Warnw("Operation failed",
				"path", path, "op", kind.String(), "error_kind", string(out.Error), "detail", out.Detail)
		default:
			e.log.Debugw("Operation finished",
				"path", path, "op", kind.String(), "status", out.Status.String(), "detail", out.Detail)
		}

		res.Outcomes = append(res.Outcomes, out)
	}

	return res
}

// CleanAll processes a lazy sequence of paths with a bounded worker pool.
// The sequence is consumed exactly once. Completion order is unspecified but
// the report preserves the original sequence order. Cancelling ctx stops
// dispatching new files; files already in flight finish normally so that a
// container rewrite is never interrupted mid-commit.
func (e *Engine) CleanAll(ctx context.Context, paths <-chan string) *CleanReport {
	type job struct {
		idx  int
		path string
	}
	type indexed struct {
		idx int
		res FileResult
	}

	// A config built without Validate may carry zero workers; the pool
	// still needs one so the dispatcher cannot block forever
	workers := e.cfg.Cleaner.Workers
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan job)
	results := make(chan indexed)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- indexed{idx: j.idx, res: e.Clean(ctx, j.path)}
			}
		}()
	}

	// Dispatcher: assign submission indices, stop on cancellation
	go func() {
		defer close(jobs)
		idx := 0
		for path := range paths {
			select {
			case jobs <- job{idx: idx, path: path}:
				idx++
			case <-ctx.Done():
				e.log.Warnw("Run cancelled, no further files dispatched", "dispatched", idx)
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect per-worker completions, then reindex into submission order so
	// output stays deterministic regardless of completion order
	var collected []indexed
	for r := range results {
		if e.OnResult != nil {
			e.OnResult(r.res)
		}
		collected = append(collected, r)
	}
	sort.Slice(collected, func(a, b int) bool { return collected[a].idx < collected[b].idx })

	report := &CleanReport{}
	for _, c := range collected {
		report.Results = append(report.Results, c.res)
	}
	report.Finalize()
	return report
}

// CleanPaths is a convenience wrapper over CleanAll for callers that already
// hold the full path list.
func (e *Engine) CleanPaths(ctx context.Context, paths []string) *CleanReport {
	ch := make(chan string)
	go func() {
		defer close(ch)
		for _, p := range paths {
			select {
			case ch <- p:
			case <-ctx.Done():
				return
			}
		}
	}()
	return e.CleanAll(ctx, ch)
}
