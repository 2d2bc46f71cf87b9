// Package dap adapts the wire-level github.com/google/go-dap types to and
// from the breakpoint coordination core's internal representation
// (internal/bpcore), so the core itself never imports a transport-layer
// type. Actually speaking DAP over a socket or stdio pipe is out of scope
// here; this package only does the struct-to-struct conversion a real
// adapter's request handler would call into.
package dap

import (
	"path/filepath"
	"strings"

	"github.com/google/go-dap"

	"github.com/microsoft/js-debug-breakpoints/internal/bpcore"
)

// SourceIdentity converts a go-dap Source into the core's SourceIdentity.
// A case-insensitive drive letter gets upper-cased so "C:\foo" and "c:\foo"
// collide the way the debuggee session does.
func SourceIdentity(src dap.Source) bpcore.SourceIdentity {
	if src.SourceReference != 0 {
		return bpcore.SourceIdentity{SourceReference: src.SourceReference}
	}
	return bpcore.SourceIdentity{Path: normalizePath(src.Path)}
}

func normalizePath(p string) string {
	if len(p) >= 2 && p[1] == ':' {
		return strings.ToUpper(p[:1]) + p[1:]
	}
	return filepath.Clean(p)
}

// ToRequests converts a SetBreakpointsArguments payload into the core's
// request slice, preserving order.
func ToRequests(args dap.SetBreakpointsArguments) []bpcore.SetBreakpointsRequest {
	out := make([]bpcore.SetBreakpointsRequest, 0, len(args.Breakpoints))
	for _, b := range args.Breakpoints {
		out = append(out, bpcore.SetBreakpointsRequest{
			Line:         b.Line,
			Column:       b.Column,
			Condition:    b.Condition,
			HitCondition: b.HitCondition,
			LogMessage:   b.LogMessage,
		})
	}
	return out
}

// ToBreakpoints converts the core's per-request results back into the
// go-dap Breakpoint list a setBreakpoints response body carries.
func ToBreakpoints(src dap.Source, results []bpcore.SetBreakpointsResult) []dap.Breakpoint {
	out := make([]dap.Breakpoint, 0, len(results))
	for _, r := range results {
		out = append(out, dap.Breakpoint{
			Id:       r.DapID,
			Verified: r.Verified,
			Message:  r.Message,
			Source:   &src,
			Line:     r.Line,
			Column:   r.Column,
		})
	}
	return out
}

// StoppedEvent builds a dap.StoppedEvent body from the core's classified
// pause.
func StoppedEvent(threadID int, classified bpcore.ClassifiedPause) dap.StoppedEventBody {
	body := dap.StoppedEventBody{
		Reason:      classified.DapReason,
		Description: classified.Description,
		ThreadId:    threadID,
	}
	for _, id := range classified.HitDapIDs {
		body.HitBreakpointIds = append(body.HitBreakpointIds, id)
	}
	return body
}

// BreakpointEvent builds a dap.BreakpointEvent body announcing a
// breakpoint's resolution changed out of band (e.g. after a late source
// map resolved it), per DAP's "new"/"changed"/"removed" reason values.
func BreakpointEvent(reason string, src dap.Source, bp bpcore.SetBreakpointsResult) dap.BreakpointEventBody {
	return dap.BreakpointEventBody{
		Reason: reason,
		Breakpoint: dap.Breakpoint{
			Id:       bp.DapID,
			Verified: bp.Verified,
			Message:  bp.Message,
			Source:   &src,
			Line:     bp.Line,
			Column:   bp.Column,
		},
	}
}
