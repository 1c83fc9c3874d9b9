package cleaner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/teranos/metaclean/errors"
)

// StreamInfo describes one named data stream attached to a file entry.
type StreamInfo struct {
	// Name is the bare stream name, without the surrounding ":...:$DATA"
	// decoration of the volume listing API. Empty for the primary stream.
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// IsDefault reports whether this is the unnamed primary content stream.
func (s StreamInfo) IsDefault() bool {
	return s.Name == ""
}

// StreamIter is a finite, forward-only, non-restartable iterator over the
// streams of one file entry. The concrete enumeration mechanism (a
// volume-level find handle on Windows) stays behind this abstraction so the
// sanitizer never assumes a fixed set of stream names.
type StreamIter interface {
	// Next returns the next stream descriptor. ok is false once the listing
	// is exhausted or an enumeration error occurred; check Err afterwards.
	Next() (info StreamInfo, ok bool)
	// Err returns the enumeration error that terminated iteration, if any.
	Err() error
	// Close releases the underlying handle. Safe to call more than once.
	Close() error
}

// StreamSanitizer enumerates and removes the named data streams attached to
// a file, leaving its primary content stream untouched.
type StreamSanitizer struct {
	timeout time.Duration

	// Platform hooks, replaceable in tests.
	enumerate func(path string) (StreamIter, error)
	remove    func(path, stream string) error
}

// NewStreamSanitizer returns a sanitizer backed by the host volume's stream
// listing API. timeout bounds the enumerate-and-delete pass per file.
func NewStreamSanitizer(timeout time.Duration) *StreamSanitizer {
	return &StreamSanitizer{
		timeout:   timeout,
		enumerate: enumerateStreams,
		remove:    removeStream,
	}
}

func (s *StreamSanitizer) Kind() OperationKind { return KindStreams }

// Apply removes every named stream of path. A locked stream is recorded but
// does not abort enumeration of the remaining streams. Dry-run enumerates
// only and reports what would be removed.
func (s *StreamSanitizer) Apply(ctx context.Context, path string, dryRun bool) OperationOutcome {
	var removed, wouldRemove []string
	var busy []string

	err := runWithTimeout(ctx, s.timeout, func() error {
		iter, err := s.enumerate(path)
		if err != nil {
			return err
		}
		defer iter.Close()

		for {
			info, ok := iter.Next()
			if !ok {
				break
			}
			if info.IsDefault() {
				continue
			}

			if dryRun {
				wouldRemove = append(wouldRemove, info.Name)
				continue
			}

			if err := s.remove(path, info.Name); err != nil {
				if errors.Is(err, errors.ErrResourceBusy) {
					busy = append(busy, info.Name)
					continue
				}
				return err
			}
			removed = append(removed, info.Name)
		}

		return iter.Err()
	})
	if err != nil {
		return failed(KindStreams, err)
	}

	if dryRun {
		if len(wouldRemove) == 0 {
			return skipped(KindStreams, SkipNoStreamsFound, "")
		}
		return applied(KindStreams, true, streamDetail(wouldRemove))
	}

	if len(busy) > 0 {
		err := errors.Wrapf(errors.ErrResourceBusy,
			"%d of %d streams locked (%s)", len(busy), len(busy)+len(removed), strings.Join(busy, ", "))
		out := failed(KindStreams, err)
		if len(removed) > 0 {
			out.Detail = fmt.Sprintf("removed %s; %s", streamDetail(removed), out.Detail)
		}
		return out
	}

	if len(removed) == 0 {
		return skipped(KindStreams, SkipNoStreamsFound, "")
	}
	return applied(KindStreams, false, streamDetail(removed))
}

func streamDetail(names []string) string {
	return fmt.Sprintf("%d stream(s): %s", len(names), strings.Join(names, ", "))
}

// listStreams enumerates without deleting; used by Inspect.
func (s *StreamSanitizer) listStreams(ctx context.Context, path string) ([]StreamInfo, error) {
	var streams []StreamInfo
	err := runWithTimeout(ctx, s.timeout, func() error {
		iter, err := s.enumerate(path)
		if err != nil {
			return err
		}
		defer iter.Close()

		for {
			info, ok := iter.Next()
			if !ok {
				break
			}
			if !info.IsDefault() {
				streams = append(streams, info)
			}
		}
		return iter.Err()
	})
	return streams, err
}
