package cdp

import (
	"github.com/chromedp/cdproto/debugger"

	"github.com/microsoft/js-debug-breakpoints/internal/bpcore"
)

// PauseEventFrom converts a decoded Debugger.paused event payload into the
// core's PauseEvent, the boundary between wire-level CDP enums and the
// classifier's small closed PauseReason set.
func PauseEventFrom(ev *debugger.EventPaused) bpcore.PauseEvent {
	out := bpcore.PauseEvent{
		Reason: reasonFrom(ev.Reason, len(ev.HitBreakpoints) > 0),
	}
	for _, id := range ev.HitBreakpoints {
		out.HitBreakpointIDs = append(out.HitBreakpointIDs, string(id))
	}
	if len(ev.CallFrames) > 0 {
		out.ScriptID = string(ev.CallFrames[0].Location.ScriptID)
	}
	return out
}

// reasonFrom maps a CDP Debugger.paused reason to the classifier's closed
// PauseReason set. CDP reports a breakpoint-triggered pause as reason
// "other" with a populated hitBreakpoints array rather than a distinct
// reason value, so a non-empty hitBreakpoints list takes priority over the
// raw reason string.
func reasonFrom(r debugger.PausedReason, hasHitBreakpoints bool) bpcore.PauseReason {
	if hasHitBreakpoints {
		return bpcore.PauseHitBreakpoints
	}
	switch r {
	case debugger.PausedReasonInstrumentation:
		return bpcore.PauseInstrumentation
	case debugger.PausedReasonException, debugger.PausedReasonPromiseRejection, debugger.PausedReasonAssert:
		return bpcore.PauseException
	default:
		return bpcore.PauseOther
	}
}
