package bpcore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRuntime struct {
	installs int
	removes  int
}

func (s *stubRuntime) SetBreakpointByURL(ctx context.Context, url string, line, column int, condition string) (string, []RuntimeLocation, error) {
	s.installs++
	return "cdp-1", []RuntimeLocation{{ScriptID: "s1", Line: line, Column: column}}, nil
}
func (s *stubRuntime) SetBreakpointByURLRegex(ctx context.Context, urlRegex string, line, column int, condition string) (string, []RuntimeLocation, error) {
	s.installs++
	return "cdp-2", nil, nil
}
func (s *stubRuntime) SetBreakpoint(ctx context.Context, scriptID string, line, column int, condition string) (string, RuntimeLocation, error) {
	s.installs++
	return "cdp-3", RuntimeLocation{ScriptID: scriptID, Line: line, Column: column}, nil
}
func (s *stubRuntime) RemoveBreakpoint(ctx context.Context, cdpID string) error {
	s.removes++
	return nil
}
func (s *stubRuntime) SetInstrumentationBreakpoint(ctx context.Context, instrumentation string) (string, error) {
	return "cdp-instr", nil
}

type stubContainer struct {
	urls map[string]string
}

func (c stubContainer) Source(ctx context.Context, ident SourceIdentity) (*Source, bool) {
	url, ok := c.urls[ident.Path]
	if !ok {
		return nil, false
	}
	return &Source{Ident: ident, URL: url}, true
}
func (c stubContainer) CurrentSiblingUILocations(ctx context.Context, loc UILocation, inSource *SourceIdentity) ([]UILocation, error) {
	return nil, nil
}
func (c stubContainer) KnownScriptLocations(ctx context.Context, ident SourceIdentity, line, column int) []RuntimeLocation {
	return nil
}
func (c stubContainer) PreferredUILocation(ctx context.Context, loc UILocation) (UILocation, error) {
	return loc, nil
}
func (c stubContainer) OptimalOriginalPosition(ctx context.Context, sourceMapURL string, pos UILocation) (UILocation, bool, error) {
	return pos, false, nil
}
func (c stubContainer) WaitForSourceMapSources(ctx context.Context, scriptID string) ([]Source, error) {
	return nil, nil
}
func (c stubContainer) ClearDisabledSourceMaps()                    {}
func (c stubContainer) DisableSourceMapForSource(ident SourceIdentity) {}
func (c stubContainer) SourceMapTimeouts() (int64, int64)           { return 0, 0 }

func TestBreakpoint_EnableIsIdempotent(t *testing.T) {
	rt := &stubRuntime{}
	container := stubContainer{urls: map[string]string{"/a.js": "http://x/a.js"}}

	bp, err := newUserDefinedBreakpoint(1, SourceIdentity{Path: "/a.js"}, 5, 1, "", "", "")
	require.NoError(t, err)

	require.NoError(t, bp.enable(context.Background(), rt, container, nil))
	require.NoError(t, bp.enable(context.Background(), rt, container, nil))

	assert.Equal(t, 1, rt.installs)
	assert.True(t, bp.Verified())
}

func TestBreakpoint_DisableRemovesAppliedRefs(t *testing.T) {
	rt := &stubRuntime{}
	container := stubContainer{urls: map[string]string{"/a.js": "http://x/a.js"}}

	bp, err := newUserDefinedBreakpoint(1, SourceIdentity{Path: "/a.js"}, 5, 1, "", "", "")
	require.NoError(t, err)
	require.NoError(t, bp.enable(context.Background(), rt, container, nil))
	require.NoError(t, bp.disable(context.Background(), rt))

	assert.Equal(t, 1, rt.removes)
	assert.False(t, bp.Verified())
}

func TestBreakpoint_NeverResolvedNeverInstalls(t *testing.T) {
	rt := &stubRuntime{}
	bp := newNeverResolvedBreakpoint(1, SourceIdentity{Path: "/a.js"}, "source has no compiled output")

	require.NoError(t, bp.enable(context.Background(), rt, stubContainer{}, nil))
	assert.Equal(t, 0, rt.installs)
	assert.False(t, bp.testHitCondition())
	assert.Equal(t, "source has no compiled output", bp.NeverResolvedMessage())
}

func TestBreakpoint_PatternEntryInstallsByRegex(t *testing.T) {
	rt := &stubRuntime{}
	bp, err := newPatternEntryBreakpoint(1, "**/*.generated.js")
	require.NoError(t, err)

	require.NoError(t, bp.enable(context.Background(), rt, stubContainer{}, nil))
	assert.Equal(t, 1, rt.installs)
}

func TestBreakpoint_PatternEntryRejectsInvalidGlob(t *testing.T) {
	_, err := newPatternEntryBreakpoint(1, "[unterminated")
	require.Error(t, err)
}

func TestBreakpoint_EquivalentTo(t *testing.T) {
	bp, err := newUserDefinedBreakpoint(1, SourceIdentity{Path: "/a.js"}, 5, 1, "", "", "")
	require.NoError(t, err)

	assert.True(t, bp.equivalentTo(SourceIdentity{Path: "/a.js"}, 5, 1))
	assert.False(t, bp.equivalentTo(SourceIdentity{Path: "/a.js"}, 6, 1))
	assert.False(t, bp.equivalentTo(SourceIdentity{Path: "/b.js"}, 5, 1))
}

func TestGlobToURLRegex_DoubleStarAndSingleStar(t *testing.T) {
	assert.Equal(t, ".*foo[^/]*\\.js", globToURLRegex("**foo*.js"))
}

func TestBasenameRegex_MatchesAnyDirectory(t *testing.T) {
	re := basenameRegex("/build/out/bundle.js")
	assert.Equal(t, ".*bundle\\.js$", re)
}
