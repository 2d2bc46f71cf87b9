package bpcore

import (
	"fmt"
	"strconv"
)

// capabilityBool and capabilityInt give each negotiated capability a
// read-only/read-write distinction: most capabilities are fixed facts
// about this core's breakpoint support, but a few (timeouts,
// entry-breakpoint mode) are adjustable per session via launch/attach
// arguments.
type capabilityBool struct {
	Value    bool
	ReadOnly bool
}

type capabilityInt struct {
	Value    int
	ReadOnly bool
}

func (c *capabilityBool) set(v bool) error {
	if c.ReadOnly {
		return fmt.Errorf("capability is read-only")
	}
	c.Value = v
	return nil
}

func (c *capabilityInt) set(v int) error {
	if c.ReadOnly {
		return fmt.Errorf("capability is read-only")
	}
	c.Value = v
	return nil
}

// Capabilities is the set of breakpoint-related facts the core reports
// back to a DAP `initialize` response, plus the handful of knobs a launch
// configuration may override before the session starts.
type Capabilities struct {
	supportsConditionalBreakpoints    capabilityBool
	supportsHitConditionalBreakpoints capabilityBool
	supportsLogPoints                capabilityBool
	supportsFunctionBreakpoints       capabilityBool

	entryBreakpointMode          capabilityInt // EntryMode, stored as int
	sourceMapTimeoutMs           capabilityInt
	cumulativeSourceMapTimeoutMs capabilityInt
}

// NewCapabilities returns the default capability set: every breakpoint
// feature this core implements enabled and read-only (they're properties
// of the implementation, not a negotiation), with the timeout knobs
// adjustable.
func NewCapabilities() *Capabilities {
	return &Capabilities{
		supportsConditionalBreakpoints:    capabilityBool{Value: true, ReadOnly: true},
		supportsHitConditionalBreakpoints: capabilityBool{Value: true, ReadOnly: true},
		supportsLogPoints:                 capabilityBool{Value: true, ReadOnly: true},
		supportsFunctionBreakpoints:       capabilityBool{Value: false, ReadOnly: true},
		entryBreakpointMode:               capabilityInt{Value: int(EntryExact), ReadOnly: false},
		sourceMapTimeoutMs:                capabilityInt{Value: int(defaultSourceMapTimeout.Milliseconds()), ReadOnly: false},
		cumulativeSourceMapTimeoutMs:      capabilityInt{Value: int(defaultCumulativeSourceMapTimeout.Milliseconds()), ReadOnly: false},
	}
}

// SupportsConditionalBreakpoints reports the `supportsConditionalBreakpoints`
// DAP initialize capability.
func (c *Capabilities) SupportsConditionalBreakpoints() bool { return c.supportsConditionalBreakpoints.Value }

// SupportsHitConditionalBreakpoints reports the
// `supportsHitConditionalBreakpoints` DAP initialize capability.
func (c *Capabilities) SupportsHitConditionalBreakpoints() bool {
	return c.supportsHitConditionalBreakpoints.Value
}

// SupportsLogPoints reports the `supportsLogPoints` DAP initialize
// capability.
func (c *Capabilities) SupportsLogPoints() bool { return c.supportsLogPoints.Value }

// SupportsFunctionBreakpoints reports the `supportsFunctionBreakpoints` DAP
// initialize capability; this core is out of scope for function
// breakpoints, so it is always false.
func (c *Capabilities) SupportsFunctionBreakpoints() bool { return c.supportsFunctionBreakpoints.Value }

// EntryBreakpointMode returns the configured EntryMode for newly-created
// Entry breakpoints.
func (c *Capabilities) EntryBreakpointMode() EntryMode { return EntryMode(c.entryBreakpointMode.Value) }

// SetEntryBreakpointMode overrides the Entry-breakpoint install strategy
// for the remainder of the session, per a launch configuration's
// "greedyEntryBreakpoints" option.
func (c *Capabilities) SetEntryBreakpointMode(mode EntryMode) error {
	return c.entryBreakpointMode.set(int(mode))
}

// SourceMapTimeout returns the per-script source-map resolution budget in
// milliseconds.
func (c *Capabilities) SourceMapTimeout() int { return c.sourceMapTimeoutMs.Value }

// SetSourceMapTimeout overrides the per-script source-map budget, e.g. from
// a launch configuration's "timeouts.sourceMapMinPause".
func (c *Capabilities) SetSourceMapTimeout(ms int) error { return c.sourceMapTimeoutMs.set(ms) }

// CumulativeSourceMapTimeout returns the session-wide source-map
// resolution budget in milliseconds.
func (c *Capabilities) CumulativeSourceMapTimeout() int { return c.cumulativeSourceMapTimeoutMs.Value }

// SetCumulativeSourceMapTimeout overrides the cumulative source-map budget.
func (c *Capabilities) SetCumulativeSourceMapTimeout(ms int) error {
	return c.cumulativeSourceMapTimeoutMs.set(ms)
}

// ApplyLaunchArgs parses the small set of string-keyed overrides a launch
// configuration may send, as a map the cmd package builds from JSON launch
// arguments.
func (c *Capabilities) ApplyLaunchArgs(args map[string]string) error {
	if v, ok := args["greedyEntryBreakpoints"]; ok {
		if v == "1" || v == "true" {
			if err := c.SetEntryBreakpointMode(EntryGreedy); err != nil {
				return err
			}
		}
	}
	if v, ok := args["sourceMapTimeoutMs"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid sourceMapTimeoutMs %q: %w", v, err)
		}
		if err := c.SetSourceMapTimeout(n); err != nil {
			return err
		}
	}
	if v, ok := args["cumulativeSourceMapTimeoutMs"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid cumulativeSourceMapTimeoutMs %q: %w", v, err)
		}
		if err := c.SetCumulativeSourceMapTimeout(n); err != nil {
			return err
		}
	}
	return nil
}
