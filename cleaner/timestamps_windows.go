//go:build windows

package cleaner

import (
	"time"

	"golang.org/x/sys/windows"

	"github.com/teranos/metaclean/errors"
)

// openForTimes opens the entry without blocking other readers or writers.
// FILE_FLAG_BACKUP_SEMANTICS allows directories to be opened as well.
func openForTimes(path string, access uint32) (windows.Handle, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, errors.Wrap(err, "invalid path")
	}
	h, err := windows.CreateFile(
		p,
		access,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS,
		0,
	)
	if err != nil {
		if errno, ok := err.(windows.Errno); ok {
			return 0, classifyWindowsError(errno)
		}
		return 0, errors.WithStack(err)
	}
	return h, nil
}

func readTimestamps(path string) (Timestamps, error) {
	h, err := openForTimes(path, windows.GENERIC_READ)
	if err != nil {
		return Timestamps{}, err
	}
	defer windows.CloseHandle(h)

	var ctime, atime, wtime windows.Filetime
	if err := windows.GetFileTime(h, &ctime, &atime, &wtime); err != nil {
		if errno, ok := err.(windows.Errno); ok {
			return Timestamps{}, classifyWindowsError(errno)
		}
		return Timestamps{}, errors.WithStack(err)
	}

	return Timestamps{
		Creation: filetimeToTime(ctime),
		Access:   filetimeToTime(atime),
		Write:    filetimeToTime(wtime),
	}, nil
}

// writeTimestamps sets all three fields in one SetFileTime call, which the
// kernel applies atomically against the open handle.
func writeTimestamps(path string, ts Timestamps) error {
	h, err := openForTimes(path, windows.FILE_WRITE_ATTRIBUTES)
	if err != nil {
		return err
	}
	defer windows.CloseHandle(h)

	ctime := windows.NsecToFiletime(ts.Creation.UnixNano())
	atime := windows.NsecToFiletime(ts.Access.UnixNano())
	wtime := windows.NsecToFiletime(ts.Write.UnixNano())

	if err := windows.SetFileTime(h, &ctime, &atime, &wtime); err != nil {
		if errno, ok := err.(windows.Errno); ok {
			return classifyWindowsError(errno)
		}
		return errors.WithStack(err)
	}
	return nil
}

func filetimeToTime(ft windows.Filetime) time.Time {
	return time.Unix(0, ft.Nanoseconds()).UTC()
}
