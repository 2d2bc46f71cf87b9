package bpcore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microsoft/js-debug-breakpoints/internal/bpcore"
	"github.com/microsoft/js-debug-breakpoints/internal/bpcore/bpcoretest"
)

func newTestManager() (*bpcore.Manager, *bpcoretest.FakeRuntime, *bpcoretest.FakeSourceContainer) {
	rt := bpcoretest.NewFakeRuntime()
	container := bpcoretest.NewFakeSourceContainer()
	m := bpcore.NewManager(nil, rt, container, nil)
	return m, rt, container
}

func TestSetBreakpoints_VerifiesWhenSourceKnown(t *testing.T) {
	m, rt, container := newTestManager()
	defer m.Close()
	ctx := context.Background()

	source := bpcore.SourceIdentity{Path: "/app/main.js"}
	container.PathToURL["/app/main.js"] = "http://localhost/main.js"
	rt.Scripts["http://localhost/main.js"] = "s1"

	results, err := m.SetBreakpoints(ctx, source, []bpcore.SetBreakpointsRequest{
		{Line: 10, Column: 1},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Verified)
}

func TestSetBreakpoints_UnverifiedWhenSourceUnknown(t *testing.T) {
	m, _, _ := newTestManager()
	defer m.Close()
	ctx := context.Background()

	source := bpcore.SourceIdentity{Path: "/app/unknown.js"}
	results, err := m.SetBreakpoints(ctx, source, []bpcore.SetBreakpointsRequest{
		{Line: 10, Column: 1},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Verified)
}

func TestSetBreakpoints_ReusesEquivalentBreakpointAcrossCalls(t *testing.T) {
	m, _, container := newTestManager()
	defer m.Close()
	ctx := context.Background()

	source := bpcore.SourceIdentity{Path: "/app/main.js"}
	container.PathToURL["/app/main.js"] = "http://localhost/main.js"

	first, err := m.SetBreakpoints(ctx, source, []bpcore.SetBreakpointsRequest{{Line: 10, Column: 1}})
	require.NoError(t, err)

	second, err := m.SetBreakpoints(ctx, source, []bpcore.SetBreakpointsRequest{{Line: 10, Column: 1}})
	require.NoError(t, err)

	assert.Equal(t, first[0].DapID, second[0].DapID)
}

func TestSetBreakpoints_DropsRemovedBreakpoints(t *testing.T) {
	m, rt, container := newTestManager()
	defer m.Close()
	ctx := context.Background()

	source := bpcore.SourceIdentity{Path: "/app/main.js"}
	container.PathToURL["/app/main.js"] = "http://localhost/main.js"

	_, err := m.SetBreakpoints(ctx, source, []bpcore.SetBreakpointsRequest{
		{Line: 10, Column: 1},
		{Line: 20, Column: 1},
	})
	require.NoError(t, err)
	// Two user breakpoints, plus the source-map handler's instrumentation
	// and wasm breakpoints and this source's module-entry breakpoint.
	assert.Equal(t, 5, rt.InstallCount())

	results, err := m.SetBreakpoints(ctx, source, []bpcore.SetBreakpointsRequest{
		{Line: 10, Column: 1},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 4, rt.InstallCount())
}

func TestShouldPauseAt_HonorsHitCondition(t *testing.T) {
	m, rt, container := newTestManager()
	defer m.Close()
	ctx := context.Background()

	source := bpcore.SourceIdentity{Path: "/app/main.js"}
	container.PathToURL["/app/main.js"] = "http://localhost/main.js"

	_, err := m.SetBreakpoints(ctx, source, []bpcore.SetBreakpointsRequest{
		{Line: 10, Column: 1, HitCondition: "2"},
	})
	require.NoError(t, err)
	// The user breakpoint, the instrumentation and wasm breakpoints, and
	// the module-entry breakpoint.
	require.Equal(t, 4, rt.InstallCount())

	// Pick the user breakpoint's install: line 10 is 0-based line 9.
	var cdpID string
	for id, inst := range rt.Installed {
		if inst.Line == 9 {
			cdpID = id
		}
	}

	stop1, votes1 := m.ShouldPauseAt(ctx, []string{cdpID}, false)
	require.Len(t, votes1, 1)
	assert.False(t, votes1[0].ShouldStop)
	assert.False(t, stop1)

	stop2, votes2 := m.ShouldPauseAt(ctx, []string{cdpID}, false)
	require.Len(t, votes2, 1)
	assert.True(t, votes2[0].ShouldStop)
	assert.True(t, stop2)
}

func TestApplyEnabledFilter_DisablesAndReenables(t *testing.T) {
	m, rt, container := newTestManager()
	defer m.Close()
	ctx := context.Background()

	source := bpcore.SourceIdentity{Path: "/app/main.js"}
	container.PathToURL["/app/main.js"] = "http://localhost/main.js"

	_, err := m.SetBreakpoints(ctx, source, []bpcore.SetBreakpointsRequest{{Line: 10, Column: 1}})
	require.NoError(t, err)
	// The user and module-entry breakpoints, plus the source-map handler's
	// instrumentation and wasm breakpoints, which the filter leaves alone.
	assert.Equal(t, 4, rt.InstallCount())

	require.NoError(t, m.ApplyEnabledFilter(ctx, false))
	assert.Equal(t, 2, rt.InstallCount())

	require.NoError(t, m.ApplyEnabledFilter(ctx, true))
	assert.Equal(t, 4, rt.InstallCount())
}

func TestClassifyPause_InstrumentationWithoutScriptIDDoesNotStop(t *testing.T) {
	m, _, _ := newTestManager()
	defer m.Close()

	c := m.ClassifyPause(context.Background(), bpcore.PauseEvent{Reason: bpcore.PauseInstrumentation})
	assert.False(t, c.ShouldStop)
}

func TestClassifyPause_ExceptionAlwaysStops(t *testing.T) {
	m, _, _ := newTestManager()
	defer m.Close()

	c := m.ClassifyPause(context.Background(), bpcore.PauseEvent{Reason: bpcore.PauseException, Description: "boom"})
	assert.True(t, c.ShouldStop)
	assert.Equal(t, "exception", c.DapReason)
}

func TestEnsureEntryBreakpoint_ReusesSameBreakpointForSameSource(t *testing.T) {
	m, rt, container := newTestManager()
	defer m.Close()
	ctx := context.Background()

	source := bpcore.SourceIdentity{Path: "/app/main.js"}
	container.PathToURL["/app/main.js"] = "http://localhost/main.js"

	first, err := m.EnsureEntryBreakpoint(ctx, source, bpcore.EntryExact)
	require.NoError(t, err)
	// The entry breakpoint plus the instrumentation and wasm breakpoints.
	require.Equal(t, 3, rt.InstallCount())

	second, err := m.EnsureEntryBreakpoint(ctx, source, bpcore.EntryExact)
	require.NoError(t, err)
	assert.Equal(t, first.DapID(), second.DapID())
	assert.Equal(t, 3, rt.InstallCount())
}

func TestReleaseEntryBreakpoint_RemovesIt(t *testing.T) {
	m, rt, container := newTestManager()
	defer m.Close()
	ctx := context.Background()

	source := bpcore.SourceIdentity{Path: "/app/main.js"}
	container.PathToURL["/app/main.js"] = "http://localhost/main.js"

	bp, err := m.EnsureEntryBreakpoint(ctx, source, bpcore.EntryExact)
	require.NoError(t, err)
	// The entry breakpoint plus the instrumentation and wasm breakpoints.
	require.Equal(t, 3, rt.InstallCount())

	require.NoError(t, m.ReleaseEntryBreakpoint(ctx, source))
	assert.Equal(t, 0, rt.InstallCount())

	_, ok := m.BreakpointAt(bp.DapID())
	assert.False(t, ok)
}

func TestReleaseEntryBreakpoint_NoOpWhenNoneInstalled(t *testing.T) {
	m, _, _ := newTestManager()
	defer m.Close()

	err := m.ReleaseEntryBreakpoint(context.Background(), bpcore.SourceIdentity{Path: "/app/never.js"})
	assert.NoError(t, err)
}
