package cleaner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/metaclean/errors"
)

var testEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

func TestTimestampNormalizerAppliesEpoch(t *testing.T) {
	prev := Timestamps{
		Creation: time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC),
		Access:   time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Write:    time.Date(2024, 5, 20, 8, 45, 0, 0, time.UTC),
	}
	var written *Timestamps

	n := NewTimestampNormalizer(testEpoch)
	n.read = func(string) (Timestamps, error) { return prev, nil }
	n.write = func(path string, ts Timestamps) error { written = &ts; return nil }

	out := n.Apply(context.Background(), "file.docx", false)
	assert.Equal(t, StatusApplied, out.Status)
	require.NotNil(t, written)
	assert.True(t, written.Creation.Equal(testEpoch))
	assert.True(t, written.Access.Equal(testEpoch))
	assert.True(t, written.Write.Equal(testEpoch))
	assert.Contains(t, out.Detail, "2024-05-20T08:45:00Z -> 2000-01-01T00:00:00Z")
}

func TestTimestampNormalizerAlreadyClean(t *testing.T) {
	n := NewTimestampNormalizer(testEpoch)
	n.read = func(string) (Timestamps, error) {
		return Timestamps{Creation: testEpoch, Access: testEpoch, Write: testEpoch}, nil
	}
	n.write = func(string, Timestamps) error {
		t.Fatal("write called on an already-clean file")
		return nil
	}

	out := n.Apply(context.Background(), "file.docx", false)
	assert.Equal(t, StatusSkipped, out.Status)
	assert.Equal(t, SkipAlreadyClean, out.Skip)
}

func TestTimestampNormalizerZeroCreationCountsAsClean(t *testing.T) {
	// Platforms without a mutable creation field report it as zero
	n := NewTimestampNormalizer(testEpoch)
	n.read = func(string) (Timestamps, error) {
		return Timestamps{Access: testEpoch, Write: testEpoch}, nil
	}
	n.write = func(string, Timestamps) error {
		t.Fatal("write called on an already-clean file")
		return nil
	}

	out := n.Apply(context.Background(), "file.docx", false)
	assert.Equal(t, StatusSkipped, out.Status)
	assert.Equal(t, SkipAlreadyClean, out.Skip)
}

func TestTimestampNormalizerDryRunDoesNotWrite(t *testing.T) {
	n := NewTimestampNormalizer(testEpoch)
	n.read = func(string) (Timestamps, error) {
		return Timestamps{Write: time.Date(2024, 5, 20, 8, 45, 0, 0, time.UTC)}, nil
	}
	n.write = func(string, Timestamps) error {
		t.Fatal("write called during dry run")
		return nil
	}

	out := n.Apply(context.Background(), "file.docx", true)
	assert.Equal(t, StatusWouldApply, out.Status)
	assert.Contains(t, out.Detail, "2000-01-01T00:00:00Z")
}

func TestTimestampNormalizerRollsBackOnWriteFailure(t *testing.T) {
	prev := Timestamps{
		Access: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Write:  time.Date(2024, 5, 20, 8, 45, 0, 0, time.UTC),
	}

	var writes []Timestamps
	n := NewTimestampNormalizer(testEpoch)
	n.read = func(string) (Timestamps, error) { return prev, nil }
	n.write = func(path string, ts Timestamps) error {
		writes = append(writes, ts)
		if len(writes) == 1 {
			return errors.Wrap(errors.ErrAccessDenied, "write rejected")
		}
		return nil
	}

	out := n.Apply(context.Background(), "file.docx", false)
	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, ErrKindAccessDenied, out.Error)
	// Second write restores the original values
	require.Len(t, writes, 2)
	assert.True(t, writes[1].Write.Equal(prev.Write))
	assert.True(t, writes[1].Access.Equal(prev.Access))
}

func TestTimestampNormalizerReadFailure(t *testing.T) {
	n := NewTimestampNormalizer(testEpoch)
	n.read = func(string) (Timestamps, error) {
		return Timestamps{}, errors.Wrap(errors.ErrNotFound, "gone")
	}

	out := n.Apply(context.Background(), "file.docx", false)
	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, ErrKindNotFound, out.Error)
}

func TestTimestampNormalizerOnRealFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	n := NewTimestampNormalizer(testEpoch)

	out := n.Apply(context.Background(), path, false)
	require.Equal(t, StatusApplied, out.Status, out.Detail)

	got, err := n.readCurrent(path)
	require.NoError(t, err)
	assert.True(t, got.Write.Equal(testEpoch), "write time %s", got.Write)
	assert.True(t, got.Access.Equal(testEpoch), "access time %s", got.Access)

	// Second pass finds nothing to do
	out = n.Apply(context.Background(), path, false)
	assert.Equal(t, StatusSkipped, out.Status)
	assert.Equal(t, SkipAlreadyClean, out.Skip)
}
