package cleaner

import (
	"context"
	"fmt"
	"time"
)

// Timestamps holds the three per-file timestamp fields.
type Timestamps struct {
	Creation time.Time `json:"creation"`
	Access   time.Time `json:"access"`
	Write    time.Time `json:"write"`
}

// TimestampNormalizer resets creation, last-write and last-access time to
// one fixed neutral instant in a single logical operation.
type TimestampNormalizer struct {
	epoch time.Time

	// Platform hooks, replaceable in tests.
	read  func(path string) (Timestamps, error)
	write func(path string, ts Timestamps) error
}

// NewTimestampNormalizer returns a normalizer targeting the given neutral
// instant.
func NewTimestampNormalizer(epoch time.Time) *TimestampNormalizer {
	return &TimestampNormalizer{
		epoch: epoch.UTC(),
		read:  readTimestamps,
		write: writeTimestamps,
	}
}

func (n *TimestampNormalizer) Kind() OperationKind { return KindTimestamps }

// Apply sets all three fields together. If the write fails after a partial
// mutation the previous values are restored so the file is observed either
// fully changed or unchanged. Dry-run reports the previous and target values
// without mutating.
func (n *TimestampNormalizer) Apply(ctx context.Context, path string, dryRun bool) OperationOutcome {
	prev, err := n.read(path)
	if err != nil {
		return failed(KindTimestamps, err)
	}

	target := Timestamps{Creation: n.epoch, Access: n.epoch, Write: n.epoch}
	detail := fmt.Sprintf("%s -> %s", prev.Write.UTC().Format(time.RFC3339), n.epoch.Format(time.RFC3339))

	if prev.Write.Equal(n.epoch) && prev.Access.Equal(n.epoch) && sameOrUnsupported(prev.Creation, n.epoch) {
		return skipped(KindTimestamps, SkipAlreadyClean, "")
	}

	if dryRun {
		return applied(KindTimestamps, true, detail)
	}

	if err := n.write(path, target); err != nil {
		// Roll back to the previous values in case the failed call left a
		// partially-changed state behind.
		if rbErr := n.write(path, prev); rbErr != nil {
			err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return failed(KindTimestamps, err)
	}

	return applied(KindTimestamps, false, detail)
}

// sameOrUnsupported treats a zero creation time as matching: platforms
// without a mutable creation field report it as zero.
func sameOrUnsupported(got, want time.Time) bool {
	return got.IsZero() || got.Equal(want)
}

// readCurrent exposes the current timestamps; used by Inspect.
func (n *TimestampNormalizer) readCurrent(path string) (Timestamps, error) {
	return n.read(path)
}

// Epoch returns the neutral instant this normalizer targets.
func (n *TimestampNormalizer) Epoch() time.Time { return n.epoch }
