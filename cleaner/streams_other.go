//go:build !windows

package cleaner

import (
	"os"

	"github.com/teranos/metaclean/errors"
)

// Alternate data streams are a feature of NTFS-style volumes; no portable
// enumeration exists elsewhere.

func enumerateStreams(path string) (StreamIter, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapSentinel(errors.ErrNotFound, err)
		}
		return nil, errors.WrapSentinel(errors.ErrAccessDenied, err)
	}
	return nil, errors.Wrap(errors.ErrUnsupported, "volume does not support named data streams")
}

func removeStream(path, stream string) error {
	return errors.Wrap(errors.ErrUnsupported, "volume does not support named data streams")
}
