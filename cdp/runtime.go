package cdp

import (
	"context"

	"github.com/chromedp/cdproto/debugger"
	"github.com/chromedp/cdproto/runtime"

	"github.com/microsoft/js-debug-breakpoints/internal/bpcore"
)

// Runtime adapts a Transport into internal/bpcore.Runtime, translating the
// core's 0-based line/column requests into cdproto's Debugger domain
// commands and its responses back into bpcore.RuntimeLocation values.
type Runtime struct {
	t Transport
}

// NewRuntime builds a bpcore.Runtime backed by t.
func NewRuntime(t Transport) *Runtime {
	return &Runtime{t: t}
}

var _ bpcore.Runtime = (*Runtime)(nil)

func (r *Runtime) SetBreakpointByURL(ctx context.Context, url string, line, column int, condition string) (string, []bpcore.RuntimeLocation, error) {
	params := &debugger.SetBreakpointByURLParams{
		LineNumber:   int64(line),
		URL:          url,
		ColumnNumber: int64(column),
		Condition:    condition,
	}
	var ret debugger.SetBreakpointByURLReturns
	if err := r.t.Call(ctx, "Debugger.setBreakpointByUrl", params, &ret); err != nil {
		return "", nil, err
	}
	return string(ret.BreakpointID), locationsFrom(ret.Locations), nil
}

func (r *Runtime) SetBreakpointByURLRegex(ctx context.Context, urlRegex string, line, column int, condition string) (string, []bpcore.RuntimeLocation, error) {
	params := &debugger.SetBreakpointByURLParams{
		LineNumber:   int64(line),
		URLRegex:     urlRegex,
		ColumnNumber: int64(column),
		Condition:    condition,
	}
	var ret debugger.SetBreakpointByURLReturns
	if err := r.t.Call(ctx, "Debugger.setBreakpointByUrl", params, &ret); err != nil {
		return "", nil, err
	}
	return string(ret.BreakpointID), locationsFrom(ret.Locations), nil
}

func (r *Runtime) SetBreakpoint(ctx context.Context, scriptID string, line, column int, condition string) (string, bpcore.RuntimeLocation, error) {
	params := &debugger.SetBreakpointParams{
		Location: &debugger.Location{
			ScriptID:     runtime.ScriptID(scriptID),
			LineNumber:   int64(line),
			ColumnNumber: int64(column),
		},
		Condition: condition,
	}
	var ret debugger.SetBreakpointReturns
	if err := r.t.Call(ctx, "Debugger.setBreakpoint", params, &ret); err != nil {
		return "", bpcore.RuntimeLocation{}, err
	}
	var loc bpcore.RuntimeLocation
	if ret.ActualLocation != nil {
		loc = locationFrom(ret.ActualLocation)
	}
	return string(ret.BreakpointID), loc, nil
}

func (r *Runtime) RemoveBreakpoint(ctx context.Context, cdpID string) error {
	params := &debugger.RemoveBreakpointParams{BreakpointID: debugger.BreakpointID(cdpID)}
	return r.t.Call(ctx, "Debugger.removeBreakpoint", params, nil)
}

func (r *Runtime) SetInstrumentationBreakpoint(ctx context.Context, instrumentation string) (string, error) {
	params := &debugger.SetInstrumentationBreakpointParams{
		Instrumentation: debugger.InstrumentationEnum(instrumentation),
	}
	var ret debugger.SetInstrumentationBreakpointReturns
	if err := r.t.Call(ctx, "Debugger.setInstrumentationBreakpoint", params, &ret); err != nil {
		return "", err
	}
	return string(ret.BreakpointID), nil
}

func locationFrom(l *debugger.Location) bpcore.RuntimeLocation {
	return bpcore.RuntimeLocation{
		ScriptID: string(l.ScriptID),
		Line:     int(l.LineNumber),
		Column:   int(l.ColumnNumber),
	}
}

func locationsFrom(ls []*debugger.Location) []bpcore.RuntimeLocation {
	out := make([]bpcore.RuntimeLocation, 0, len(ls))
	for _, l := range ls {
		out = append(out, locationFrom(l))
	}
	return out
}
