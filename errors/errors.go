// Package errors provides error handling for lineage.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints for the developer wiring types together
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := reg.Decorate(t, nil); err != nil {
//	    return errors.Wrapf(err, "decorate %s", t.Name())
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrNotComposable) {
//	    // fix the mixin list
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
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSecondaryError = crdb.WithSecondaryError
	CombineErrors      = crdb.CombineErrors
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapOnce     = crdb.UnwrapOnce
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Assertions and panics
var (
	AssertionFailedf                 = crdb.AssertionFailedf
	NewAssertionErrorWithWrappedErrf = crdb.NewAssertionErrorWithWrappedErrf
)

// Sentinel errors raised by the composition engine and its tooling.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrNotComposable indicates a mixin that does not derive from the registry's root type
	ErrNotComposable = New("type is not composable")

	// ErrDecorationCycle indicates a type was re-entered while its composition was being built
	ErrDecorationCycle = New("decoration cycle")

	// ErrMemberNotFound indicates a member or mixin handle that is not reachable
	ErrMemberNotFound = New("member not found")

	// ErrInvalidArgument indicates a construction argument the factory cannot merge
	ErrInvalidArgument = New("invalid argument")

	// ErrInvalidType indicates a malformed type definition
	ErrInvalidType = New("invalid type definition")

	// ErrDuplicateType indicates a type name already defined in the registry
	ErrDuplicateType = New("type already defined")

	// ErrInvalidMixinID indicates a mixinId that cannot be used as a handle key
	ErrInvalidMixinID = New("invalid mixin id")

	// ErrInvalidBlueprint indicates a blueprint file that failed validation
	ErrInvalidBlueprint = New("invalid blueprint")
)

// IsNotComposable checks if an error is or wraps ErrNotComposable
func IsNotComposable(err error) bool {
	return err != nil && Is(err, ErrNotComposable)
}

// IsMemberNotFound checks if an error is or wraps ErrMemberNotFound
func IsMemberNotFound(err error) bool {
	return err != nil && Is(err, ErrMemberNotFound)
}

// IsInvalidBlueprint checks if an error is or wraps ErrInvalidBlueprint
func IsInvalidBlueprint(err error) bool {
	return err != nil && Is(err, ErrInvalidBlueprint)
}

// NewMemberNotFound creates a member-not-found error with a formatted message
func NewMemberNotFound(format string, args ...interface{}) error {
	return Wrap(ErrMemberNotFound, Newf(format, args...).Error())
}

// NewInvalidBlueprint creates an invalid-blueprint error with a formatted message
func NewInvalidBlueprint(format string, args ...interface{}) error {
	return Wrap(ErrInvalidBlueprint, Newf(format, args...).Error())
}
