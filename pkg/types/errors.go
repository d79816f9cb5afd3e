package types

import "errors"

// Error taxonomy surfaced by mount, unmount and lookup operations.
// Orchestrator steps wrap these with context via fmt.Errorf and %w;
// callers classify with errors.Is.
var (
	// ErrInvalidArgument reports a malformed device spec, label or
	// request (including attempts to mount writable).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound reports an absent label, device or object.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyInUse reports a device already composed differently
	// under another mount, or a PFS that already has an attached
	// mount point.
	ErrAlreadyInUse = errors.New("already in use")

	// ErrMediaError reports corruption or I/O failure surfaced by an
	// on-media lookup.
	ErrMediaError = errors.New("media error")

	// ErrResourceExhausted reports an allocation failure.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrBusy reports an unmount attempted while filesystem objects
	// are still in use and force was not specified.
	ErrBusy = errors.New("busy")

	// ErrInconsistent reports lingering state detected during
	// teardown: a reaped PFS whose replica still carries live
	// descendant content, or nonzero live counters after the last
	// unmount. Teardown of unrelated state proceeds; the condition is
	// reported rather than silently ignored.
	ErrInconsistent = errors.New("inconsistent state")

	// ErrAccessDenied reports a failed export-permission check.
	ErrAccessDenied = errors.New("access denied")
)
