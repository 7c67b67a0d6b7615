// Package engineerr defines the error kinds the engine surfaces to the
// kernel bridge (spec.md §7) and maps each to a bazil.org/fuse errno.
package engineerr

import (
	"errors"
	"fmt"
	"syscall"

	"bazil.org/fuse"
)

// Kind is one of the six error kinds enumerated in spec.md §7.
type Kind int

const (
	NotFound Kind = iota
	NameInvalid
	AlreadyExists
	PermissionDenied
	IntegrityFailure
	ExternalIOError
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "NotFound"
	case NameInvalid:
		return "NameInvalid"
	case AlreadyExists:
		return "AlreadyExists"
	case PermissionDenied:
		return "PermissionDenied"
	case IntegrityFailure:
		return "IntegrityFailure"
	case ExternalIOError:
		return "ExternalIOError"
	default:
		return "Unknown"
	}
}

// Error wraps a Kind with a human-readable message and optional cause.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds an *Error of the given kind around a cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// Errno maps err to the bazil.org/fuse errno the bridge expects. Errors not
// produced by this package are mapped to EIO, never leaked verbatim.
func Errno(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		switch e.Kind {
		case NotFound:
			return fuse.ENOENT
		case NameInvalid:
			return fuse.Errno(syscall.EINVAL)
		case AlreadyExists:
			return fuse.EEXIST
		case PermissionDenied:
			return fuse.EPERM
		case IntegrityFailure:
			return fuse.Errno(syscall.EIO)
		case ExternalIOError:
			return fuse.Errno(syscall.EIO)
		}
	}
	return fuse.Errno(syscall.EIO)
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
