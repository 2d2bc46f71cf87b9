package cdp

import (
	"testing"

	"github.com/chromedp/cdproto/debugger"
	"github.com/chromedp/cdproto/runtime"
	"github.com/stretchr/testify/assert"

	"github.com/microsoft/js-debug-breakpoints/internal/bpcore"
)

func TestPauseEventFrom_HitBreakpointsTakesPriorityOverOther(t *testing.T) {
	ev := &debugger.EventPaused{
		Reason:         debugger.PausedReasonOther,
		HitBreakpoints: []debugger.BreakpointID{"bp-1", "bp-2"},
	}
	out := PauseEventFrom(ev)
	assert.Equal(t, bpcore.PauseHitBreakpoints, out.Reason)
	assert.Equal(t, []string{"bp-1", "bp-2"}, out.HitBreakpointIDs)
}

func TestPauseEventFrom_InstrumentationWithNoHits(t *testing.T) {
	ev := &debugger.EventPaused{Reason: debugger.PausedReasonInstrumentation}
	out := PauseEventFrom(ev)
	assert.Equal(t, bpcore.PauseInstrumentation, out.Reason)
	assert.Empty(t, out.HitBreakpointIDs)
}

func TestPauseEventFrom_ExceptionVariants(t *testing.T) {
	for _, r := range []debugger.PausedReason{
		debugger.PausedReasonException,
		debugger.PausedReasonPromiseRejection,
		debugger.PausedReasonAssert,
	} {
		ev := &debugger.EventPaused{Reason: r}
		assert.Equal(t, bpcore.PauseException, PauseEventFrom(ev).Reason)
	}
}

func TestPauseEventFrom_CapturesScriptIDFromTopFrame(t *testing.T) {
	ev := &debugger.EventPaused{
		Reason: debugger.PausedReasonOther,
		CallFrames: []*debugger.CallFrame{
			{Location: &debugger.Location{ScriptID: runtime.ScriptID("42")}},
		},
	}
	out := PauseEventFrom(ev)
	assert.Equal(t, "42", out.ScriptID)
}
