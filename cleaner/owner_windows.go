//go:build windows

package cleaner

import (
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/teranos/metaclean/errors"
)

const seTakeOwnershipName = "SeTakeOwnershipPrivilege"

// checkOwnershipPrivilege enables SeTakeOwnershipPrivilege on the process
// token. Elevation only makes the privilege present; it still has to be
// enabled before a descriptor owner write will succeed.
func checkOwnershipPrivilege() error {
	var token windows.Token
	err := windows.OpenProcessToken(
		windows.CurrentProcess(),
		windows.TOKEN_ADJUST_PRIVILEGES|windows.TOKEN_QUERY,
		&token,
	)
	if err != nil {
		return errors.WrapSentinel(errors.ErrPrivilegeRequired, err)
	}
	defer token.Close()

	name, err := windows.UTF16PtrFromString(seTakeOwnershipName)
	if err != nil {
		return errors.WithStack(err)
	}

	var luid windows.LUID
	if err := windows.LookupPrivilegeValue(nil, name, &luid); err != nil {
		return errors.WrapSentinel(errors.ErrPrivilegeRequired, err)
	}

	tp := windows.Tokenprivileges{
		PrivilegeCount: 1,
		Privileges: [1]windows.LUIDAndAttributes{{
			Luid:       luid,
			Attributes: windows.SE_PRIVILEGE_ENABLED,
		}},
	}

	// The x/sys wrapper surfaces ERROR_NOT_ALL_ASSIGNED as an error even
	// when the underlying call succeeds
	if err := windows.AdjustTokenPrivileges(token, false, &tp, uint32(unsafe.Sizeof(tp)), nil, nil); err != nil {
		return errors.Wrapf(errors.ErrPrivilegeRequired,
			"SeTakeOwnershipPrivilege not held (%v); run from an elevated session", err)
	}

	return nil
}

// readFileOwner returns the string SID currently recorded as the owner.
func readFileOwner(path string) (string, error) {
	sd, err := windows.GetNamedSecurityInfo(
		path,
		windows.SE_FILE_OBJECT,
		windows.OWNER_SECURITY_INFORMATION,
	)
	if err != nil {
		if errno, ok := err.(windows.Errno); ok {
			return "", classifyWindowsError(errno)
		}
		return "", errors.WithStack(err)
	}

	owner, _, err := sd.Owner()
	if err != nil {
		return "", errors.WithStack(err)
	}
	return owner.String(), nil
}

// writeFileOwner sets only the owner field of the security descriptor; the
// DACL and SACL arguments stay nil so access entries are untouched.
func writeFileOwner(path, sid string) error {
	owner, err := windows.StringToSid(sid)
	if err != nil {
		return errors.Wrapf(err, "invalid owner SID %q", sid)
	}

	err = windows.SetNamedSecurityInfo(
		path,
		windows.SE_FILE_OBJECT,
		windows.OWNER_SECURITY_INFORMATION,
		owner,
		nil,
		nil,
		nil,
	)
	if err != nil {
		if errno, ok := err.(windows.Errno); ok {
			return classifyWindowsError(errno)
		}
		return errors.WithStack(err)
	}
	return nil
}
