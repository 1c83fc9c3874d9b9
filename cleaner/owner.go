package cleaner

import (
	"context"
	"fmt"
	"time"
)

// OwnershipClearer replaces the owning identity in a file's security
// descriptor with a neutral well-known principal, leaving discretionary
// access entries untouched.
//
// The privilege check runs before any mutation is attempted; a descriptor
// write is never issued on the attempt-then-catch pattern because a rejected
// partial write can leave the descriptor in an undefined state.
type OwnershipClearer struct {
	neutralSID string
	timeout    time.Duration

	// Platform hooks, replaceable in tests.
	checkPrivilege func() error
	readOwner      func(path string) (string, error)
	writeOwner     func(path, sid string) error
}

// NewOwnershipClearer returns a clearer that records neutralSID as the new
// owner. timeout bounds each descriptor call.
func NewOwnershipClearer(neutralSID string, timeout time.Duration) *OwnershipClearer {
	return &OwnershipClearer{
		neutralSID:     neutralSID,
		timeout:        timeout,
		checkPrivilege: checkOwnershipPrivilege,
		readOwner:      readFileOwner,
		writeOwner:     writeFileOwner,
	}
}

func (o *OwnershipClearer) Kind() OperationKind { return KindOwner }

// Apply verifies the ownership-change capability, reads the current owner
// for reporting parity, then writes only the owner field of the descriptor.
// The engine never invokes Apply unless elevation was requested.
func (o *OwnershipClearer) Apply(ctx context.Context, path string, dryRun bool) OperationOutcome {
	if err := o.checkPrivilege(); err != nil {
		return failed(KindOwner, err)
	}

	var prev string
	err := runWithTimeout(ctx, o.timeout, func() (rerr error) {
		prev, rerr = o.readOwner(path)
		return rerr
	})
	if err != nil {
		return failed(KindOwner, err)
	}

	detail := fmt.Sprintf("owner %s -> %s", prev, o.neutralSID)

	if prev == o.neutralSID {
		return skipped(KindOwner, SkipAlreadyClean, "")
	}

	if dryRun {
		return applied(KindOwner, true, detail)
	}

	if err := runWithTimeout(ctx, o.timeout, func() error {
		return o.writeOwner(path, o.neutralSID)
	}); err != nil {
		return failed(KindOwner, err)
	}

	return applied(KindOwner, false, detail)
}

// currentOwner reads the owner without mutating; used by Inspect.
func (o *OwnershipClearer) currentOwner(ctx context.Context, path string) (string, error) {
	var owner string
	err := runWithTimeout(ctx, o.timeout, func() (rerr error) {
		owner, rerr = o.readOwner(path)
		return rerr
	})
	return owner, err
}
