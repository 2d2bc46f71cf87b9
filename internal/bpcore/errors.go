// Package bpcore is the breakpoint coordination core: it keeps IDE-facing
// (DAP) breakpoints and runtime-facing (CDP) breakpoint installations in
// sync across predicted locations, late-arriving source maps, concurrent
// IDE requests and pause events.
package bpcore

import (
	"errors"
	"fmt"
)

// ErrorKind enumerates the closed set of error kinds the core can produce.
type ErrorKind int

const (
	ErrInvalidHitCondition ErrorKind = iota
	ErrInvalidLogMessage
	ErrCDPRequestFailed
	ErrSourceMapTimeout
	ErrBreakpointNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidHitCondition:
		return "InvalidHitCondition"
	case ErrInvalidLogMessage:
		return "InvalidLogMessage"
	case ErrCDPRequestFailed:
		return "CdpRequestFailed"
	case ErrSourceMapTimeout:
		return "SourceMapTimeout"
	case ErrBreakpointNotFound:
		return "BreakpointNotFound"
	default:
		return "Unknown"
	}
}

// BreakpointError is the core's single error type. Every failure that the
// core itself raises (as opposed to bubbling up from a peer) carries one of
// the five kinds above, so callers can branch on Kind() without string
// matching.
type BreakpointError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *BreakpointError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *BreakpointError) Unwrap() error { return e.Err }

func newErr(kind ErrorKind, msg string) *BreakpointError {
	return &BreakpointError{Kind: kind, Msg: msg}
}

func wrapErr(kind ErrorKind, msg string, cause error) *BreakpointError {
	return &BreakpointError{Kind: kind, Msg: msg, Err: cause}
}

// IsKind reports whether err is a *BreakpointError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var be *BreakpointError
	if errors.As(err, &be) {
		return be.Kind == kind
	}
	return false
}
