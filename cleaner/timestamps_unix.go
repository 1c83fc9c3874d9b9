//go:build !windows

package cleaner

import (
	"os"

	"github.com/teranos/metaclean/errors"
)

// Unix-like platforms expose no mutable creation/birth time; the normalizer
// reports it as zero and sets the two fields the OS supports.

func readTimestamps(path string) (Timestamps, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Timestamps{}, errors.WrapSentinel(errors.ErrNotFound, err)
		}
		if os.IsPermission(err) {
			return Timestamps{}, errors.WrapSentinel(errors.ErrAccessDenied, err)
		}
		return Timestamps{}, errors.WithStack(err)
	}

	return Timestamps{
		Access: statAccessTime(fi),
		Write:  fi.ModTime().UTC(),
	}, nil
}

// writeTimestamps applies access and write time in one utimes call.
func writeTimestamps(path string, ts Timestamps) error {
	if err := os.Chtimes(path, ts.Access, ts.Write); err != nil {
		if os.IsNotExist(err) {
			return errors.WrapSentinel(errors.ErrNotFound, err)
		}
		if os.IsPermission(err) {
			return errors.WrapSentinel(errors.ErrAccessDenied, err)
		}
		return errors.WithStack(err)
	}
	return nil
}
