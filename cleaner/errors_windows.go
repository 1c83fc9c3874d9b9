//go:build windows

package cleaner

import (
	"golang.org/x/sys/windows"

	"github.com/teranos/metaclean/errors"
)

// classifyWindowsError maps a Win32 errno onto the sentinel the report
// classification is derived from.
func classifyWindowsError(errno windows.Errno) error {
	switch errno {
	case windows.ERROR_FILE_NOT_FOUND, windows.ERROR_PATH_NOT_FOUND:
		return errors.WrapSentinel(errors.ErrNotFound, errno)
	case windows.ERROR_ACCESS_DENIED, windows.ERROR_WRITE_PROTECT:
		return errors.WrapSentinel(errors.ErrAccessDenied, errno)
	case windows.ERROR_SHARING_VIOLATION, windows.ERROR_LOCK_VIOLATION:
		return errors.WrapSentinel(errors.ErrResourceBusy, errno)
	case windows.ERROR_PRIVILEGE_NOT_HELD, windows.ERROR_NOT_ALL_ASSIGNED:
		return errors.WrapSentinel(errors.ErrPrivilegeRequired, errno)
	case windows.ERROR_INVALID_FUNCTION, windows.ERROR_NOT_SUPPORTED:
		// The volume does not implement the requested feature
		return errors.WrapSentinel(errors.ErrUnsupported, errno)
	case windows.WAIT_TIMEOUT, windows.ERROR_TIMEOUT:
		return errors.WrapSentinel(errors.ErrTimeout, errno)
	default:
		return errors.WithStack(errno)
	}
}
