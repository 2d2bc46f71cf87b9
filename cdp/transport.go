// Package cdp implements the breakpoint coordination core's Runtime peer
// (internal/bpcore.Runtime) against the real Chrome DevTools Protocol
// Debugger domain, using github.com/chromedp/cdproto for the wire-level
// request/response types. How those requests actually reach a target (a
// WebSocket to a Node.js --inspect endpoint, a pipe to a bundled engine)
// is a transport concern this package does not own; callers inject a
// Transport.
package cdp

import "context"

// Transport sends one CDP command and decodes its result. params and
// result are cdproto request/response structs (e.g.
// *debugger.SetBreakpointByURLParams and *debugger.SetBreakpointByURLReturns);
// both already implement json.Marshaler/Unmarshaler via cdproto's
// generated easyjson bindings, so a Transport only needs to move bytes.
type Transport interface {
	Call(ctx context.Context, method string, params, result interface{}) error
}
