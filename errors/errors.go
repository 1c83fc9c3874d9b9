// Package errors provides error handling for metaclean.
//
// This package re-exports github.com/cockroachdb/errors, providing stack
// traces, error wrapping, and user-facing hints, and defines the sentinel
// errors every cleaning operation reports against.
//
// Usage:
//
//	// Wrap an OS error onto a sentinel so callers can classify it
//	return errors.Wrap(errors.ErrAccessDenied, err.Error())
//
//	// Classify
//	if errors.Is(err, errors.ErrResourceBusy) {
//	    // record and continue with the next stream
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is     = crdb.Is
	IsAny  = crdb.IsAny
	As     = crdb.As
	Unwrap = crdb.Unwrap
)

// Sentinel errors for the cleaning operations. Every error a component
// returns wraps exactly one of these so the engine can derive an outcome
// classification with Is().
var (
	// ErrNotFound indicates the target path does not resolve
	ErrNotFound = New("path not found")

	// ErrAccessDenied indicates the file is read-only or locked against writes
	ErrAccessDenied = New("access denied")

	// ErrResourceBusy indicates a stream or file is locked by another process
	ErrResourceBusy = New("resource busy")

	// ErrPrivilegeRequired indicates the caller lacks the ownership-change privilege
	ErrPrivilegeRequired = New("privilege required")

	// ErrUnsupported indicates the volume or platform lacks a required feature
	ErrUnsupported = New("operation unsupported on this volume")

	// ErrCorruptContainer indicates a document container's zip structure is unreadable
	ErrCorruptContainer = New("corrupt document container")

	// ErrPartialWrite indicates the rewritten container could not be fully
	// committed; the original file is guaranteed untouched
	ErrPartialWrite = New("partial write failure")

	// ErrTimeout indicates a filesystem call exceeded its deadline
	ErrTimeout = New("operation timed out")
)

// IsNotFound checks if an error is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsAccessDenied checks if an error is or wraps ErrAccessDenied.
func IsAccessDenied(err error) bool {
	return err != nil && Is(err, ErrAccessDenied)
}

// IsPrivilegeRequired checks if an error is or wraps ErrPrivilegeRequired.
func IsPrivilegeRequired(err error) bool {
	return err != nil && Is(err, ErrPrivilegeRequired)
}

// IsTimeout checks if an error is or wraps ErrTimeout.
func IsTimeout(err error) bool {
	return err != nil && Is(err, ErrTimeout)
}

// WrapSentinel attaches a sentinel classification to an underlying OS error
// while keeping the original message in the chain.
func WrapSentinel(sentinel error, err error) error {
	if err == nil {
		return sentinel
	}
	return Wrap(sentinel, err.Error())
}
