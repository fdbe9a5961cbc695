// Package errors provides structured error handling for the runtime.
//
// Errors carry a Phase (where processing failed) and a Kind (what went
// wrong), enabling callers to match with errors.Is on category rather
// than string content:
//
//	if errors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindVersionMismatch}) {
//	    // incompatible core binary
//	}
//
// Convenience constructors cover the common cases; PortBindError is the
// one aggregate error, produced when no listener port could be bound.
package errors
