//go:build !windows

package cleaner

import "github.com/teranos/metaclean/errors"

// Security-descriptor ownership is a Windows volume feature.

func checkOwnershipPrivilege() error {
	return errors.Wrap(errors.ErrUnsupported, "security descriptor ownership not supported on this platform")
}

func readFileOwner(path string) (string, error) {
	return "", errors.Wrap(errors.ErrUnsupported, "security descriptor ownership not supported on this platform")
}

func writeFileOwner(path, sid string) error {
	return errors.Wrap(errors.ErrUnsupported, "security descriptor ownership not supported on this platform")
}
