package bpcore

import "context"

// Runtime is the CDP peer interface the core consumes. A concrete
// implementation lives in package cdp, wired against
// github.com/chromedp/cdproto/debugger types over an injected transport;
// the transport itself is out of scope for the core.
type Runtime interface {
	// SetBreakpointByURL installs a breakpoint by exact URL, returning the
	// opaque CDP id and any UI locations the runtime could resolve
	// immediately.
	SetBreakpointByURL(ctx context.Context, url string, line, column int, condition string) (cdpID string, locations []RuntimeLocation, err error)
	// SetBreakpointByURLRegex installs a breakpoint against every script
	// whose URL matches the regex.
	SetBreakpointByURLRegex(ctx context.Context, urlRegex string, line, column int, condition string) (cdpID string, locations []RuntimeLocation, err error)
	// SetBreakpoint installs a breakpoint in one already-known script.
	SetBreakpoint(ctx context.Context, scriptID string, line, column int, condition string) (cdpID string, location RuntimeLocation, err error)
	// RemoveBreakpoint tears down a previously-installed CDP breakpoint.
	RemoveBreakpoint(ctx context.Context, cdpID string) error
	// SetInstrumentationBreakpoint installs the engine-level pause used by
	// the source-map-handler coordinator.
	SetInstrumentationBreakpoint(ctx context.Context, instrumentation string) (cdpID string, err error)
}

// RuntimeLocation is a compiled (0-based) location as reported by the
// runtime in a setBreakpoint* response or a breakpointResolved event.
type RuntimeLocation struct {
	ScriptID string
	Line     int
	Column   int
}

// SourceContainer is the peer interface covering path/URL resolution,
// source-map loading and the script registry, treated as a queryable
// service the core never owns.
type SourceContainer interface {
	// Source resolves a DAP source descriptor to the container's notion of
	// a source, if one exists.
	Source(ctx context.Context, ident SourceIdentity) (*Source, bool)
	// CurrentSiblingUILocations resolves every other UI location that maps
	// to the same compiled position as loc, across every currently-loaded
	// script. When inSource is non-nil, results are filtered to that
	// source.
	CurrentSiblingUILocations(ctx context.Context, loc UILocation, inSource *SourceIdentity) ([]UILocation, error)
	// KnownScriptLocations resolves ident's 1-based line/column to the
	// compiled (scriptId-based) locations of every script that has already
	// loaded and whose source map currently covers this position, without
	// waiting on any script still parsing. This backs the by-current-UI-
	// location install strategy, distinct from Predictor's offline
	// prediction: it only ever reports scripts the runtime already knows
	// about.
	KnownScriptLocations(ctx context.Context, ident SourceIdentity, line, column int) []RuntimeLocation
	// PreferredUILocation picks the single best UI location for loc.
	PreferredUILocation(ctx context.Context, loc UILocation) (UILocation, error)
	// OptimalOriginalPosition maps a position through a named source map
	// back to its original (source) position, if the map covers it.
	OptimalOriginalPosition(ctx context.Context, sourceMapURL string, pos UILocation) (UILocation, bool, error)
	// WaitForSourceMapSources returns the ordered sequence of sources a
	// just-parsed script compiles from, per its source map (if any).
	WaitForSourceMapSources(ctx context.Context, scriptID string) ([]Source, error)
	// ClearDisabledSourceMaps clears the set of sources whose source map
	// was disabled after a repeated resolution failure.
	ClearDisabledSourceMaps()
	// DisableSourceMapForSource marks a source's source map as unusable
	// (e.g. after a timeout), so subsequent scripts skip re-resolving it.
	DisableSourceMapForSource(ident SourceIdentity)
	// SourceMapTimeouts reports the cumulative and per-script pause
	// budgets.
	SourceMapTimeouts() (cumulative, perScript int64)
}

// Source is a minimal view of the source-container's notion of a source.
type Source struct {
	Ident        SourceIdentity
	URL          string
	HasSourceMap bool
}

// Predictor is the optional peer interface that precomputes source ->
// compiled location mappings from on-disk source maps before any script
// has loaded.
type Predictor interface {
	// PredictBreakpoints asks the predictor to warm its cache for the given
	// absolute path; the returned error only reflects a failure to even
	// attempt prediction, never "nothing predicted".
	PredictBreakpoints(ctx context.Context, absolutePath string) error
	// PredictedResolvedLocations returns predicted compiled (0-based URL-
	// relative) locations for a DAP position, or nil if nothing is known.
	PredictedResolvedLocations(absolutePath string, lineNumber, columnNumber int) []RuntimeLocation
}
