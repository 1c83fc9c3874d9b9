package cleaner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/metaclean/config"
	"github.com/teranos/metaclean/errors"
)

func testConfig() *config.Config {
	return &config.Config{
		Cleaner: config.CleanerConfig{
			Workers:          4,
			OpTimeoutSeconds: 30,
			NeutralOwnerSID:  "S-1-5-32-544",
			TimestampEpoch:   "2000-01-01T00:00:00Z",
			CustomOps:        []string{"streams", "timestamps"},
		},
		Office: config.OfficeConfig{
			Extensions: []string{"docx", "xlsx", "pptx"},
		},
	}
}

// fakeOp substitutes one operation in the engine's dispatch table.
type fakeOp struct {
	kind  OperationKind
	apply func(ctx context.Context, path string, dryRun bool) OperationOutcome
}

func (f *fakeOp) Kind() OperationKind { return f.kind }
func (f *fakeOp) Apply(ctx context.Context, path string, dryRun bool) OperationOutcome {
	return f.apply(ctx, path, dryRun)
}

func newTestEngine(t *testing.T, opts CleanOptions) *Engine {
	t.Helper()
	e, err := New(opts, testConfig(), nil)
	require.NoError(t, err)
	return e
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func TestEngineCleanDispatchOrder(t *testing.T) {
	e := newTestEngine(t, CleanOptions{Mode: ModeFull, ElevateOwnership: true})

	var order []OperationKind
	for _, kind := range operationOrder {
		kind := kind
		e.ops[kind] = &fakeOp{kind: kind, apply: func(ctx context.Context, path string, dryRun bool) OperationOutcome {
			order = append(order, kind)
			return applied(kind, dryRun, "")
		}}
	}

	path := touch(t, t.TempDir(), "a.docx")
	res := e.Clean(context.Background(), path)

	assert.Equal(t, operationOrder, order)
	require.Len(t, res.Outcomes, 4)
	for i, kind := range operationOrder {
		assert.Equal(t, kind, res.Outcomes[i].Kind)
	}
}

func TestEngineOperationsIndependent(t *testing.T) {
	e := newTestEngine(t, CleanOptions{Mode: ModeStandard})

	e.ops[KindStreams] = &fakeOp{kind: KindStreams, apply: func(context.Context, string, bool) OperationOutcome {
		return failed(KindStreams, errors.Wrap(errors.ErrResourceBusy, "stream locked"))
	}}
	var laterRan []OperationKind
	for _, kind := range []OperationKind{KindTimestamps, KindOfficeProperties} {
		kind := kind
		e.ops[kind] = &fakeOp{kind: kind, apply: func(context.Context, string, bool) OperationOutcome {
			laterRan = append(laterRan, kind)
			return applied(kind, false, "")
		}}
	}

	path := touch(t, t.TempDir(), "a.docx")
	res := e.Clean(context.Background(), path)

	// The stream failure does not stop the remaining operations
	assert.Equal(t, []OperationKind{KindTimestamps, KindOfficeProperties}, laterRan)
	assert.True(t, res.Failed())

	out, ok := res.Outcome(KindStreams)
	require.True(t, ok)
	assert.Equal(t, StatusFailed, out.Status)
	out, ok = res.Outcome(KindOfficeProperties)
	require.True(t, ok)
	assert.Equal(t, StatusApplied, out.Status)
}

func TestEngineOwnerSkippedWithoutElevation(t *testing.T) {
	e := newTestEngine(t, CleanOptions{Mode: ModeFull, ElevateOwnership: false})

	for _, kind := range []OperationKind{KindStreams, KindTimestamps, KindOfficeProperties} {
		kind := kind
		e.ops[kind] = &fakeOp{kind: kind, apply: func(context.Context, string, bool) OperationOutcome {
			return applied(kind, false, "")
		}}
	}
	e.ops[KindOwner] = &fakeOp{kind: KindOwner, apply: func(context.Context, string, bool) OperationOutcome {
		t.Fatal("owner operation invoked without elevation")
		return OperationOutcome{}
	}}

	path := touch(t, t.TempDir(), "a.docx")
	res := e.Clean(context.Background(), path)

	out, ok := res.Outcome(KindOwner)
	require.True(t, ok)
	assert.Equal(t, StatusSkipped, out.Status)
	assert.Equal(t, SkipNotRequested, out.Skip)
	assert.False(t, res.Failed())
}

func TestEngineDryRunPropagated(t *testing.T) {
	e := newTestEngine(t, CleanOptions{Mode: ModeQuick, DryRun: true})

	for _, kind := range []OperationKind{KindStreams, KindTimestamps} {
		kind := kind
		e.ops[kind] = &fakeOp{kind: kind, apply: func(_ context.Context, _ string, dryRun bool) OperationOutcome {
			assert.True(t, dryRun)
			return applied(kind, dryRun, "")
		}}
	}

	path := touch(t, t.TempDir(), "a.txt")
	res := e.Clean(context.Background(), path)
	for _, out := range res.Outcomes {
		assert.Equal(t, StatusWouldApply, out.Status)
	}
}

func TestEngineMissingFile(t *testing.T) {
	e := newTestEngine(t, CleanOptions{Mode: ModeStandard})

	res := e.Clean(context.Background(), filepath.Join(t.TempDir(), "absent.docx"))
	require.Len(t, res.Outcomes, 3)
	for _, out := range res.Outcomes {
		assert.Equal(t, StatusFailed, out.Status)
		assert.Equal(t, ErrKindNotFound, out.Error)
	}
}

func TestEngineCleanAllPreservesSubmissionOrder(t *testing.T) {
	e := newTestEngine(t, CleanOptions{Mode: ModeQuick})

	dir := t.TempDir()
	const n = 20
	paths := make([]string, n)
	delay := make(map[string]time.Duration, n)
	for i := 0; i < n; i++ {
		paths[i] = touch(t, dir, fmt.Sprintf("file-%02d.txt", i))
		// Later submissions finish first
		delay[paths[i]] = time.Duration(n-i) * 2 * time.Millisecond
	}

	for _, kind := range []OperationKind{KindStreams, KindTimestamps} {
		kind := kind
		e.ops[kind] = &fakeOp{kind: kind, apply: func(_ context.Context, path string, _ bool) OperationOutcome {
			time.Sleep(delay[path])
			return applied(kind, false, "")
		}}
	}

	report := e.CleanPaths(context.Background(), paths)
	require.Len(t, report.Results, n)
	for i, res := range report.Results {
		assert.Equal(t, paths[i], res.Path, "result %d out of submission order", i)
	}
	assert.Equal(t, n, report.Counts.Files)
	assert.False(t, report.HasFailures())
}

func TestEngineCleanAllOnResult(t *testing.T) {
	e := newTestEngine(t, CleanOptions{Mode: ModeQuick})
	for _, kind := range []OperationKind{KindStreams, KindTimestamps} {
		kind := kind
		e.ops[kind] = &fakeOp{kind: kind, apply: func(context.Context, string, bool) OperationOutcome {
			return applied(kind, false, "")
		}}
	}

	dir := t.TempDir()
	paths := []string{touch(t, dir, "a.txt"), touch(t, dir, "b.txt"), touch(t, dir, "c.txt")}

	var seen atomic.Int64
	e.OnResult = func(FileResult) { seen.Add(1) }

	report := e.CleanPaths(context.Background(), paths)
	assert.Equal(t, int64(3), seen.Load())
	assert.Len(t, report.Results, 3)
}

func TestEngineCleanAllCancellation(t *testing.T) {
	e := newTestEngine(t, CleanOptions{Mode: ModeQuick})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	const n = 100
	paths := make([]string, n)
	for i := range paths {
		paths[i] = fmt.Sprintf("missing-%03d.txt", i)
	}

	report := e.CleanPaths(ctx, paths)
	assert.Less(t, report.Counts.Files, n, "cancellation should stop dispatching")
}

func TestEngineCleanAllZeroWorkers(t *testing.T) {
	cfg := testConfig()
	cfg.Cleaner.Workers = 0
	e, err := New(CleanOptions{Mode: ModeQuick}, cfg, nil)
	require.NoError(t, err)

	for _, kind := range []OperationKind{KindStreams, KindTimestamps} {
		kind := kind
		e.ops[kind] = &fakeOp{kind: kind, apply: func(context.Context, string, bool) OperationOutcome {
			return applied(kind, false, "")
		}}
	}

	dir := t.TempDir()
	paths := []string{touch(t, dir, "a.txt"), touch(t, dir, "b.txt")}

	report := e.CleanPaths(context.Background(), paths)
	require.Len(t, report.Results, 2)
	assert.False(t, report.HasFailures())
}

func TestEngineKinds(t *testing.T) {
	e := newTestEngine(t, CleanOptions{Mode: ModeStandard})
	assert.Equal(t, []OperationKind{KindStreams, KindTimestamps, KindOfficeProperties}, e.Kinds())

	e = newTestEngine(t, CleanOptions{Mode: ModeCustom})
	assert.Equal(t, []OperationKind{KindStreams, KindTimestamps}, e.Kinds())
}

func TestNewEngineRejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Cleaner.CustomOps = []string{"registry"}
	_, err := New(CleanOptions{Mode: ModeCustom}, cfg, nil)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Cleaner.TimestampEpoch = "not-a-time"
	_, err = New(CleanOptions{Mode: ModeQuick}, cfg, nil)
	assert.Error(t, err)
}
