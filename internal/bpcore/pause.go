package bpcore

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// setCompletedWait bounds how long the pause classifier waits for an
// in-flight setBreakpoints call to finish installing before it evaluates a
// hitBreakpoints pause, so a pause that raced a concurrent install isn't
// misclassified as "no breakpoint wanted this".
const setCompletedWait = 1 * time.Second

// PauseReason is the CDP Debugger.paused reason this package cares about;
// every other CDP reason string is treated as the zero value's default
// case.
type PauseReason string

const (
	PauseInstrumentation PauseReason = "instrumentation"
	PauseException       PauseReason = "exception"
	PauseHitBreakpoints  PauseReason = "hitBreakpoints"
	PauseStep            PauseReason = "step"
	PauseEntry           PauseReason = "EntryBreakpoints"
	PauseOther           PauseReason = ""
)

// PauseEvent is the subset of a CDP Debugger.paused event the classifier
// consumes.
type PauseEvent struct {
	Reason           PauseReason
	HitBreakpointIDs []string
	ScriptID         string
	Description      string
}

// ClassifiedPause is the classifier's verdict: whether the pause should be
// surfaced to the IDE as a DAP `stopped` event, and if so, with what
// reason and which DAP breakpoint ids actually caused it.
type ClassifiedPause struct {
	ShouldStop  bool
	DapReason   string
	Description string
	HitDapIDs   []int
}

// ClassifyPause implements the pause classifier's decision table.
// Instrumentation pauses are gated through the source-map handler before
// any IDE-visible decision is made (see classifyInstrumentationPause).
// Exception pauses always stop. hitBreakpoints pauses stop only if the
// voting policy in ShouldPauseAt says so; the classifier first gives any
// in-flight setBreakpoints call up to setCompletedWait to finish, so a
// breakpoint that just got installed isn't missed by a millisecond-scale
// race. A step pause defaults to stopping but still consults the voting
// policy, since a step can land inside a script whose breakpoints raced the
// step itself. Entry pauses always stop, and
// everything else stops with the generic "pause" reason.
func (m *Manager) ClassifyPause(ctx context.Context, ev PauseEvent) ClassifiedPause {
	switch ev.Reason {
	case PauseInstrumentation:
		return m.classifyInstrumentationPause(ctx, ev)

	case PauseException:
		return ClassifiedPause{ShouldStop: true, DapReason: "exception", Description: ev.Description}

	case PauseHitBreakpoints:
		m.awaitSetCompleted(ctx)

		shouldStop, votes := m.ShouldPauseAt(ctx, ev.HitBreakpointIDs, false)
		if !shouldStop {
			return ClassifiedPause{ShouldStop: false}
		}
		var hit []int
		for _, v := range votes {
			if v.ShouldStop {
				hit = append(hit, v.DapID)
			}
		}
		return ClassifiedPause{ShouldStop: true, DapReason: "breakpoint", HitDapIDs: hit}

	case PauseStep:
		if shouldStop, _ := m.ShouldPauseAt(ctx, ev.HitBreakpointIDs, false); !shouldStop {
			return ClassifiedPause{ShouldStop: false}
		}
		return ClassifiedPause{ShouldStop: true, DapReason: "step"}

	case PauseEntry:
		return ClassifiedPause{ShouldStop: true, DapReason: "entry"}

	default:
		return ClassifiedPause{ShouldStop: true, DapReason: "pause"}
	}
}

// classifyInstrumentationPause handles the instrumentation row: CDP's
// beforeScriptWithSourceMapExecution breakpoint pauses once per parsed
// script, before any of its code runs, giving the source-map-handler
// coordinator one chance to resolve the script's source map and install
// any breakpoint set against one of its mapped sources before execution
// continues. The pause itself only surfaces to the IDE when something
// concrete wants to stop here: an Entry or PatternEntry breakpoint
// guarding this exact script (the module's first statement), or a
// breakpoint the resolution pass just wired up that sits at that same
// position, since the engine is already stopped exactly where it wants to
// be and doesn't need a second round trip to get there.
func (m *Manager) classifyInstrumentationPause(ctx context.Context, ev PauseEvent) ClassifiedPause {
	if ev.ScriptID == "" {
		return ClassifiedPause{ShouldStop: false}
	}

	pauseOnSourceMapBreakpointIds, err := m.OnScriptParsed(ctx, ev.ScriptID)
	if err != nil {
		m.log.Warn("resolving source map for parsed script failed", zap.String("scriptId", ev.ScriptID), zap.Error(err))
	}

	if m.entryGuardsScript(ev.ScriptID) {
		return ClassifiedPause{ShouldStop: true, DapReason: "entry"}
	}
	if len(pauseOnSourceMapBreakpointIds) > 0 {
		return ClassifiedPause{ShouldStop: true, DapReason: "breakpoint", HitDapIDs: pauseOnSourceMapBreakpointIds}
	}
	return ClassifiedPause{ShouldStop: false}
}

// awaitSetCompleted blocks until every launch blocker currently registered
// (which includes any setBreakpoints-triggered install still in flight)
// settles, the context is cancelled, or setCompletedWait elapses.
func (m *Manager) awaitSetCompleted(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, setCompletedWait)
	defer cancel()
	m.launchBlockers.Wait(cctx)
}

// YieldBeforeEmission gives any goroutine racing to finish a bookkeeping
// update (e.g. a statistics increment just registered) a chance to run
// before the caller emits the corresponding DAP event, mirroring the
// debug-adapter convention of a zero-delay timer tick between an internal
// state change and the event that announces it.
func YieldBeforeEmission() {
	done := make(chan struct{})
	go func() { close(done) }()
	<-done
}
