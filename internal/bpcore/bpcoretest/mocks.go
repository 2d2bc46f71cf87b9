// Package bpcoretest provides in-memory test doubles for the peer
// interfaces internal/bpcore.Manager depends on (Runtime, SourceContainer,
// Predictor), so the core's tests never need a real CDP endpoint.
package bpcoretest

import (
	"context"
	"fmt"
	"sync"

	"github.com/microsoft/js-debug-breakpoints/internal/bpcore"
)

// FakeRuntime is an in-memory bpcore.Runtime: every SetBreakpoint* call
// succeeds immediately. SetBreakpoint always "resolves" to the location it
// was asked to install at; SetBreakpointByURL resolves there only when its
// URL is registered in Scripts; SetBreakpointByURLRegex never resolves.
type FakeRuntime struct {
	mu        sync.Mutex
	nextID    int
	Installed map[string]fakeInstall // cdpID -> install
	Removed   []string

	// Scripts maps a URL to a fixed scriptID, letting tests simulate a
	// runtime that already knows about a loaded script.
	Scripts map[string]string
}

type fakeInstall struct {
	Kind    bpcore.RequestKind
	Key     string
	Line    int
	Column  int
	Condition string
}

// NewFakeRuntime builds an empty FakeRuntime.
func NewFakeRuntime() *FakeRuntime {
	return &FakeRuntime{
		Installed: map[string]fakeInstall{},
		Scripts:   map[string]string{},
	}
}

var _ bpcore.Runtime = (*FakeRuntime)(nil)

func (f *FakeRuntime) allocID() string {
	f.nextID++
	return fmt.Sprintf("bp-%d", f.nextID)
}

func (f *FakeRuntime) SetBreakpointByURL(ctx context.Context, url string, line, column int, condition string) (string, []bpcore.RuntimeLocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.allocID()
	f.Installed[id] = fakeInstall{Kind: bpcore.ByURL, Key: url, Line: line, Column: column, Condition: condition}

	scriptID, ok := f.Scripts[url]
	if !ok {
		return id, nil, nil
	}
	return id, []bpcore.RuntimeLocation{{ScriptID: scriptID, Line: line, Column: column}}, nil
}

func (f *FakeRuntime) SetBreakpointByURLRegex(ctx context.Context, urlRegex string, line, column int, condition string) (string, []bpcore.RuntimeLocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.allocID()
	f.Installed[id] = fakeInstall{Kind: bpcore.ByURLRegex, Key: urlRegex, Line: line, Column: column, Condition: condition}
	return id, nil, nil
}

func (f *FakeRuntime) SetBreakpoint(ctx context.Context, scriptID string, line, column int, condition string) (string, bpcore.RuntimeLocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.allocID()
	f.Installed[id] = fakeInstall{Kind: bpcore.ByScriptID, Key: scriptID, Line: line, Column: column, Condition: condition}
	return id, bpcore.RuntimeLocation{ScriptID: scriptID, Line: line, Column: column}, nil
}

func (f *FakeRuntime) RemoveBreakpoint(ctx context.Context, cdpID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Installed, cdpID)
	f.Removed = append(f.Removed, cdpID)
	return nil
}

func (f *FakeRuntime) SetInstrumentationBreakpoint(ctx context.Context, instrumentation string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.allocID()
	f.Installed[id] = fakeInstall{Kind: bpcore.ByURL, Key: "instrumentation:" + instrumentation}
	return id, nil
}

// InstallCount reports how many breakpoints are currently installed.
func (f *FakeRuntime) InstallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Installed)
}

// FakeSourceContainer is an in-memory bpcore.SourceContainer backed by a
// fixed url<->path table and a fixed source-map source list per scriptID.
type FakeSourceContainer struct {
	mu          sync.Mutex
	PathToURL   map[string]string
	MapSources  map[string][]bpcore.Source
	CumulativeTimeoutMs int64
	PerScriptTimeoutMs  int64

	// KnownLocations seeds KnownScriptLocations, keyed by "path:line:column".
	KnownLocations map[string][]bpcore.RuntimeLocation
}

// NewFakeSourceContainer builds an empty FakeSourceContainer.
func NewFakeSourceContainer() *FakeSourceContainer {
	return &FakeSourceContainer{
		PathToURL:      map[string]string{},
		MapSources:     map[string][]bpcore.Source{},
		KnownLocations: map[string][]bpcore.RuntimeLocation{},
	}
}

// SeedKnownLocation registers a currently-loaded script's compiled location
// for a source position, for tests exercising the by-current-UI-location
// install strategy.
func (f *FakeSourceContainer) SeedKnownLocation(path string, line, column int, locs []bpcore.RuntimeLocation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.KnownLocations[key(path, line, column)] = locs
}

var _ bpcore.SourceContainer = (*FakeSourceContainer)(nil)

func (f *FakeSourceContainer) Source(ctx context.Context, ident bpcore.SourceIdentity) (*bpcore.Source, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	url, ok := f.PathToURL[ident.Path]
	if !ok {
		return nil, false
	}
	return &bpcore.Source{Ident: ident, URL: url}, true
}

func (f *FakeSourceContainer) CurrentSiblingUILocations(ctx context.Context, loc bpcore.UILocation, inSource *bpcore.SourceIdentity) ([]bpcore.UILocation, error) {
	return nil, nil
}

func (f *FakeSourceContainer) KnownScriptLocations(ctx context.Context, ident bpcore.SourceIdentity, line, column int) []bpcore.RuntimeLocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.KnownLocations[key(ident.Path, line, column)]
}

func (f *FakeSourceContainer) PreferredUILocation(ctx context.Context, loc bpcore.UILocation) (bpcore.UILocation, error) {
	return loc, nil
}

func (f *FakeSourceContainer) OptimalOriginalPosition(ctx context.Context, sourceMapURL string, pos bpcore.UILocation) (bpcore.UILocation, bool, error) {
	return pos, false, nil
}

func (f *FakeSourceContainer) WaitForSourceMapSources(ctx context.Context, scriptID string) ([]bpcore.Source, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.MapSources[scriptID], nil
}

func (f *FakeSourceContainer) ClearDisabledSourceMaps() {}

func (f *FakeSourceContainer) DisableSourceMapForSource(ident bpcore.SourceIdentity) {}

func (f *FakeSourceContainer) SourceMapTimeouts() (int64, int64) {
	return f.CumulativeTimeoutMs, f.PerScriptTimeoutMs
}

// FakePredictor is an in-memory bpcore.Predictor keyed by absolute path.
type FakePredictor struct {
	mu    sync.Mutex
	preds map[string][]bpcore.RuntimeLocation
}

// NewFakePredictor builds an empty FakePredictor.
func NewFakePredictor() *FakePredictor {
	return &FakePredictor{preds: map[string][]bpcore.RuntimeLocation{}}
}

var _ bpcore.Predictor = (*FakePredictor)(nil)

// Seed registers a canned prediction for a path/line/column triple.
func (f *FakePredictor) Seed(path string, line, column int, locs []bpcore.RuntimeLocation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.preds[key(path, line, column)] = locs
}

func (f *FakePredictor) PredictBreakpoints(ctx context.Context, absolutePath string) error {
	return nil
}

func (f *FakePredictor) PredictedResolvedLocations(absolutePath string, lineNumber, columnNumber int) []bpcore.RuntimeLocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.preds[key(absolutePath, lineNumber, columnNumber)]
}

func key(path string, line, column int) string {
	return fmt.Sprintf("%s:%d:%d", path, line, column)
}
