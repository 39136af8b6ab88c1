// Package errs defines the error kinds the telemetry pipeline uses to
// decide policy (drop, retry, spool) without leaking vendor-specific
// status codes into callers.
package errs

import "fmt"

// Kind classifies an error for the purpose of pipeline policy decisions.
type Kind int

const (
	// InvalidInput means a field failed validation; the caller should
	// drop the offending field, not the whole envelope.
	InvalidInput Kind = iota
	// UnsupportedKind means the mapper could not classify a span.
	UnsupportedKind
	// Transient means the failure is expected to clear with a retry.
	Transient
	// Permanent means a retry will not help; drop the batch.
	Permanent
	// Full means a buffer or spool rejected work because it is at
	// capacity.
	Full
	// ProtocolMismatch means a remote response did not honor the
	// expected control-protocol shape.
	ProtocolMismatch
	// Shutdown means the operation was abandoned because the owning
	// component is shutting down.
	Shutdown
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case UnsupportedKind:
		return "unsupported_kind"
	case Transient:
		return "transient"
	case Permanent:
		return "permanent"
	case Full:
		return "full"
	case ProtocolMismatch:
		return "protocol_mismatch"
	case Shutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Error is a Kind-tagged error.
type Error struct {
	Kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

func (e *Error) Unwrap() error { return e.err }

// New creates an error of the given kind.
func New(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an existing error, preserving the
// original error's kind if it already carries one.
func Wrap(err error, kind Kind, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	if existing, ok := err.(*Error); ok {
		return &Error{Kind: existing.Kind, msg: fmt.Sprintf(format, args...), err: existing}
	}
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...), err: err}
}

// KindOf reports the Kind of err, or false if err does not carry one.
func KindOf(err error) (Kind, bool) {
	if e, ok := err.(*Error); ok {
		return e.Kind, true
	}
	return 0, false
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// InvalidInputError creates an InvalidInput error naming the field and reason.
func InvalidInputError(field, reason string) error {
	return New(InvalidInput, "invalid %s: %s", field, reason)
}

// UnsupportedKindError creates an UnsupportedKind error naming the span kind.
func UnsupportedKindError(kind string) error {
	return New(UnsupportedKind, "unsupported span kind: %s", kind)
}

// TransientError wraps err as a Transient failure.
func TransientError(err error, reason string) error {
	return Wrap(err, Transient, "%s", reason)
}

// PermanentError wraps err as a Permanent failure.
func PermanentError(err error, reason string) error {
	return Wrap(err, Permanent, "%s", reason)
}

// FullError creates a Full error naming the resource that is at capacity.
func FullError(resource string) error {
	return New(Full, "%s is full", resource)
}

// ProtocolMismatchError creates a ProtocolMismatch error.
func ProtocolMismatchError(reason string) error {
	return New(ProtocolMismatch, "%s", reason)
}

// ShutdownError creates a Shutdown error.
func ShutdownError() error {
	return New(Shutdown, "component is shutting down")
}

// IsTransient reports whether err is a Transient error.
func IsTransient(err error) bool { return Is(err, Transient) }

// IsPermanent reports whether err is a Permanent error.
func IsPermanent(err error) bool { return Is(err, Permanent) }

// IsFull reports whether err is a Full error.
func IsFull(err error) bool { return Is(err, Full) }

// IsShutdown reports whether err is a Shutdown error.
func IsShutdown(err error) bool { return Is(err, Shutdown) }
