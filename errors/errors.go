package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad    Phase = "load"    // core library loading
	PhaseRun     Phase = "run"     // frame stepping
	PhaseState   Phase = "state"   // serialize/restore
	PhaseMemory  Phase = "memory"  // domain reads/writes
	PhaseRemote  Phase = "remote"  // network protocol servers
	PhaseChannel Phase = "channel" // cross-thread command channel
)

// Kind categorizes the error
type Kind string

const (
	KindVersionMismatch Kind = "version_mismatch"
	KindSymbolMissing   Kind = "symbol_missing"
	KindContentLoad     Kind = "content_load"
	KindLoadFailed      Kind = "load_failed"
	KindSerialization   Kind = "serialization"
	KindRestore         Kind = "restore"
	KindUnknownDomain   Kind = "unknown_domain"
	KindNotLoaded       Kind = "not_loaded"
	KindChannelClosed   Kind = "channel_closed"
	KindInvalidInput    Kind = "invalid_input"
	KindBind            Kind = "bind"
)

// Error is the structured error type used throughout the runtime
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Convenience constructors for common error patterns

// VersionMismatch creates an ABI version mismatch error
func VersionMismatch(got, want uint32) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindVersionMismatch,
		Detail: fmt.Sprintf("core was compiled against libretro version %d, but expected version %d", got, want),
		Value:  got,
	}
}

// SymbolMissing creates an unresolved entry point error
func SymbolMissing(symbol string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindSymbolMissing,
		Detail: fmt.Sprintf("failed to load symbol %q from core", symbol),
		Cause:  cause,
	}
}

// ContentLoad creates a content rejection error
func ContentLoad(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindContentLoad,
		Detail: detail,
		Cause:  cause,
	}
}

// Serialization creates a state serialization error
func Serialization(detail string) *Error {
	return &Error{
		Phase:  PhaseState,
		Kind:   KindSerialization,
		Detail: detail,
	}
}

// Restore creates a state restore error
func Restore(detail string) *Error {
	return &Error{
		Phase:  PhaseState,
		Kind:   KindRestore,
		Detail: detail,
	}
}

// UnknownDomain creates an unknown memory domain error
func UnknownDomain(domain string) *Error {
	return &Error{
		Phase:  PhaseMemory,
		Kind:   KindUnknownDomain,
		Detail: fmt.Sprintf("unknown memory domain %q", domain),
		Value:  domain,
	}
}

// NotLoaded creates an error for operations against an unloaded core
func NotLoaded(what string) *Error {
	return &Error{
		Phase:  PhaseMemory,
		Kind:   KindNotLoaded,
		Detail: fmt.Sprintf("%s is not loaded", what),
	}
}

// ChannelClosed creates an error for submissions after the owning thread exited
func ChannelClosed() *Error {
	return &Error{
		Phase:  PhaseChannel,
		Kind:   KindChannelClosed,
		Detail: "command channel closed",
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Load wraps a cause as a generic loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindLoadFailed,
		Detail: detail,
		Cause:  cause,
	}
}

// PortBindAttempt records one failed listen attempt.
type PortBindAttempt struct {
	Port int
	Err  error
}

// PortBindError is returned when no port in the candidate range could be
// bound. It aggregates every per-port failure so startup logs name all
// attempts.
type PortBindError struct {
	Attempts []PortBindAttempt
}

func (e *PortBindError) Error() string {
	if len(e.Attempts) == 0 {
		return "[remote] bind: empty range of ports"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "no port found to listen on (%d attempts):", len(e.Attempts))
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "\n  port %d: %v", a.Port, a.Err)
	}
	return b.String()
}

// Is reports whether target matches this error type
func (e *PortBindError) Is(target error) bool {
	_, ok := target.(*PortBindError)
	return ok
}
