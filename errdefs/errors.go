// Package errdefs defines the classified error kinds surfaced by the
// address-resolution and port-allocation packages. Each kind is backed by a
// concrete unambiguous type, created through its constructor and tested
// through its predicate, so callers never have to match on message strings.
package errdefs

import (
	"errors"
	"fmt"
	"syscall"
)

type errInvalidArgument struct {
	cause string
}

// ErrInvalidArgument creates an error indicating that a caller-supplied value
// cannot be parsed or is out of range; for example, an endpoint whose port
// text is not a decimal integer. The cause should carry the offending input.
func ErrInvalidArgument(cause string, args ...interface{}) error {
	if len(args) != 0 {
		return errInvalidArgument{cause: fmt.Sprintf(cause, args...)}
	}
	return errInvalidArgument{cause: cause}
}

// Error returns the error message
func (e errInvalidArgument) Error() string {
	return fmt.Sprintf("invalid argument: %v", e.cause)
}

// IsErrInvalidArgument returns true if this error is a result of a malformed
// caller-supplied value
func IsErrInvalidArgument(err error) bool {
	var e errInvalidArgument
	return errors.As(err, &e)
}

type errNotFound struct {
	cause string
}

// ErrNotFound creates an error indicating that a requested entry is absent
// from the supplied data; for example, an address to remove that appears
// nowhere in an address list.
func ErrNotFound(cause string, args ...interface{}) error {
	if len(args) != 0 {
		return errNotFound{cause: fmt.Sprintf(cause, args...)}
	}
	return errNotFound{cause: cause}
}

// Error returns the error message
func (e errNotFound) Error() string {
	return fmt.Sprintf("not found: %v", e.cause)
}

// IsErrNotFound returns true if this error is a result of a requested entry
// being absent
func IsErrNotFound(err error) bool {
	var e errNotFound
	return errors.As(err, &e)
}

type errNetwork struct {
	cause string
	err   error
	errno syscall.Errno
}

// ErrNetwork creates an error indicating an OS-level networking failure: name
// resolution, a hostname query, or a socket operation. The underlying error
// is retained for unwrapping, and its errno, when one can be extracted, is
// carried alongside the diagnostic text.
func ErrNetwork(err error, cause string, args ...interface{}) error {
	if len(args) != 0 {
		cause = fmt.Sprintf(cause, args...)
	}
	e := errNetwork{cause: cause, err: err}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		e.errno = errno
	}
	return e
}

// Error returns the error message, including the underlying OS diagnostic and
// errno when present
func (e errNetwork) Error() string {
	msg := fmt.Sprintf("network error: %v", e.cause)
	if e.err != nil {
		msg += ": " + e.err.Error()
	}
	if e.errno != 0 {
		msg += fmt.Sprintf(" (errno %d)", int(e.errno))
	}
	return msg
}

// Unwrap returns the underlying OS error, if any
func (e errNetwork) Unwrap() error {
	return e.err
}

// IsErrNetwork returns true if this error is a result of an OS-level
// networking failure
func IsErrNetwork(err error) bool {
	var e errNetwork
	return errors.As(err, &e)
}

// Errno extracts the errno recorded on a network error. The second return is
// false when err is not a network error or no errno was available.
func Errno(err error) (syscall.Errno, bool) {
	var e errNetwork
	if errors.As(err, &e) && e.errno != 0 {
		return e.errno, true
	}
	return 0, false
}

type errResourceExhausted struct {
	resource string
	cause    string
}

// ErrResourceExhausted creates an error indicating that a requested resource
// expected to be automatically allocated, like a free port, cannot be
// allocated because no candidate satisfied the requirements within the retry
// budget. Callers in bootstrap or test-harness contexts usually treat this as
// unrecoverable, but the decision to terminate belongs to them, not here.
func ErrResourceExhausted(resource, cause string, args ...interface{}) error {
	if len(args) != 0 {
		return errResourceExhausted{
			resource: resource,
			cause:    fmt.Sprintf(cause, args...),
		}
	}
	return errResourceExhausted{resource: resource, cause: cause}
}

// Error returns the error message
func (e errResourceExhausted) Error() string {
	return fmt.Sprintf("resource %v is exhausted: %v", e.resource, e.cause)
}

// IsErrResourceExhausted returns true if this error is a result of some
// resource being exhausted
func IsErrResourceExhausted(err error) bool {
	var e errResourceExhausted
	return errors.As(err, &e)
}
