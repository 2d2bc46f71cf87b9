package dap

import (
	"testing"

	googledap "github.com/google/go-dap"
	"github.com/stretchr/testify/assert"

	"github.com/microsoft/js-debug-breakpoints/internal/bpcore"
)

func TestSourceIdentity_PrefersSourceReference(t *testing.T) {
	id := SourceIdentity(googledap.Source{Path: "/tmp/app.js", SourceReference: 7})
	assert.Equal(t, bpcore.SourceIdentity{SourceReference: 7}, id)
}

func TestSourceIdentity_NormalizesDriveLetterCase(t *testing.T) {
	id := SourceIdentity(googledap.Source{Path: `c:\foo\bar.js`})
	assert.Equal(t, `C:\foo\bar.js`, id.Path)
}

func TestToRequests_PreservesOrderAndFields(t *testing.T) {
	args := googledap.SetBreakpointsArguments{
		Breakpoints: []googledap.SourceBreakpoint{
			{Line: 10, Column: 3, Condition: "x > 1"},
			{Line: 20, Column: 0, HitCondition: ">= 2", LogMessage: "hit {x}"},
		},
	}
	reqs := ToRequests(args)
	if assert.Len(t, reqs, 2) {
		assert.Equal(t, 10, reqs[0].Line)
		assert.Equal(t, "x > 1", reqs[0].Condition)
		assert.Equal(t, 20, reqs[1].Line)
		assert.Equal(t, "hit {x}", reqs[1].LogMessage)
	}
}

func TestToBreakpoints_CarriesResultFields(t *testing.T) {
	src := googledap.Source{Path: "/tmp/app.js"}
	results := []bpcore.SetBreakpointsResult{
		{DapID: 1, Verified: true, Line: 5, Column: 2},
		{DapID: 2, Verified: false, Message: "unresolved"},
	}
	out := ToBreakpoints(src, results)
	if assert.Len(t, out, 2) {
		assert.Equal(t, 1, out[0].Id)
		assert.True(t, out[0].Verified)
		assert.Equal(t, &src, out[0].Source)
		assert.False(t, out[1].Verified)
		assert.Equal(t, "unresolved", out[1].Message)
	}
}

func TestStoppedEvent_CarriesHitBreakpointIds(t *testing.T) {
	classified := bpcore.ClassifiedPause{DapReason: "breakpoint", HitDapIDs: []int{3, 4}}
	body := StoppedEvent(1, classified)
	assert.Equal(t, "breakpoint", body.Reason)
	assert.Equal(t, 1, body.ThreadId)
	assert.Equal(t, []int{3, 4}, body.HitBreakpointIds)
}

func TestBreakpointEvent_WrapsResult(t *testing.T) {
	src := googledap.Source{Path: "/tmp/app.js"}
	body := BreakpointEvent("changed", src, bpcore.SetBreakpointsResult{DapID: 9, Verified: true})
	assert.Equal(t, "changed", body.Reason)
	assert.Equal(t, 9, body.Breakpoint.Id)
	assert.True(t, body.Breakpoint.Verified)
}
