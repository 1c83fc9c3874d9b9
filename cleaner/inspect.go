package cleaner

import (
	"context"
	"os"

	"github.com/teranos/metaclean/errors"
)

// Snapshot is a read-only view of the metadata surfaces a file carries.
// Produced by Inspect for the info presentation mode; taking a snapshot
// never mutates the file.
type Snapshot struct {
	Path string `json:"path"`

	// Named streams attached to the entry. Nil when the volume does not
	// support stream enumeration.
	Streams          []StreamInfo `json:"streams"`
	StreamsSupported bool         `json:"streams_supported"`

	Timestamps Timestamps `json:"timestamps"`

	// Owner is the string SID recorded in the security descriptor; empty
	// when ownership metadata is unsupported on this platform.
	Owner string `json:"owner,omitempty"`

	// IsOfficeDocument reports whether the file parsed as a container with
	// both document property parts; Properties holds the current values of
	// the known property elements when it did.
	IsOfficeDocument bool              `json:"is_office_document"`
	Properties       map[string]string `json:"properties,omitempty"`
}

// Inspect reads every metadata surface of path without mutating anything.
func (e *Engine) Inspect(ctx context.Context, path string) (*Snapshot, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapSentinel(errors.ErrNotFound, err)
		}
		return nil, errors.WrapSentinel(errors.ErrAccessDenied, err)
	}

	snap := &Snapshot{Path: path}

	streams, err := e.sanitizer.listStreams(ctx, path)
	switch {
	case err == nil:
		snap.Streams = streams
		snap.StreamsSupported = true
	case errors.Is(err, errors.ErrUnsupported):
		// Not an error condition for a snapshot
	default:
		return nil, err
	}

	times, err := e.normalizer.readCurrent(path)
	if err != nil {
		return nil, err
	}
	snap.Timestamps = times

	owner, err := e.clearer.currentOwner(ctx, path)
	switch {
	case err == nil:
		snap.Owner = owner
	case errors.Is(err, errors.ErrUnsupported), errors.Is(err, errors.ErrPrivilegeRequired):
		// Ownership metadata simply absent from the snapshot
	default:
		return nil, err
	}

	props, isOffice, err := e.scrubber.readProperties(path)
	if err != nil {
		return nil, err
	}
	snap.IsOfficeDocument = isOffice
	if isOffice {
		snap.Properties = props
	}

	return snap, nil
}
