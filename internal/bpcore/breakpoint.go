package bpcore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"
)

// Breakpoint is one logical breakpoint as the IDE understands it: a single
// DAP identity backed by zero or more CDP references. Its Variant selects
// which installation strategy and hit-testing policy apply. This is the
// bookkeeping that decides what's already installed versus what still
// needs a wire round trip.
type Breakpoint struct {
	mu sync.Mutex

	dapID   int
	variant Variant
	source  SourceIdentity

	// line and column are 1-based DAP source coordinates for UserDefined
	// breakpoints; Entry/PatternEntry/NeverResolved breakpoints synthesize
	// their own request keys and leave these at zero.
	line, column int

	condition    string
	logMessage   string
	hitCondition string
	cdpCondition string
	hit          hitTester

	entryMode    EntryMode
	pattern      string
	patternGlob  glob.Glob
	neverMessage string

	enabled bool
	refs    []*CDPReference
	dedup   map[RequestKey]*CDPReference
}

// DapID is the stable identity the IDE uses to refer to this breakpoint.
func (b *Breakpoint) DapID() int { return b.dapID }

// Variant reports which policy this breakpoint implements.
func (b *Breakpoint) Variant() Variant { return b.variant }

// Source is the breakpoint's owning source identity.
func (b *Breakpoint) Source() SourceIdentity { return b.source }

// Verified reports whether at least one Applied reference carries at least
// one UI location.
func (b *Breakpoint) Verified() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.verifiedLocked()
}

func (b *Breakpoint) verifiedLocked() bool {
	for _, r := range b.refs {
		if r.State() == RefApplied && len(r.locations) > 0 {
			return true
		}
	}
	return false
}

// Locations returns the union of UI locations across every Applied
// reference, for reporting back to the IDE as a dap.Breakpoint.
func (b *Breakpoint) Locations() []UILocation {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []UILocation
	for _, r := range b.refs {
		if r.State() == RefApplied {
			out = append(out, r.locations...)
		}
	}
	return out
}

// newUserDefinedBreakpoint builds the common breakpoint variant: one the
// IDE set explicitly via setBreakpoints, at a known source and 1-based
// line/column, with optional condition/hitCondition/logMessage.
func newUserDefinedBreakpoint(dapID int, source SourceIdentity, line, column int, condition, hitCondition, logMessage string) (*Breakpoint, error) {
	hit, err := parseHitCondition(hitCondition)
	if err != nil {
		return nil, err
	}
	cdpCond, err := buildCDPCondition(condition, logMessage)
	if err != nil {
		return nil, err
	}

	return &Breakpoint{
		dapID:        dapID,
		variant:      VariantUserDefined,
		source:       source,
		line:         line,
		column:       column,
		condition:    condition,
		hitCondition: hitCondition,
		logMessage:   logMessage,
		cdpCondition: cdpCond,
		hit:          hit,
		enabled:      true,
		dedup:        map[RequestKey]*CDPReference{},
	}, nil
}

// newEntryBreakpoint builds an Entry breakpoint: an internal pause at a
// module's first executable statement, installed by exact path (EntryExact)
// or by a basename-derived URL regex that survives module reloads
// (EntryGreedy).
func newEntryBreakpoint(dapID int, source SourceIdentity, mode EntryMode) *Breakpoint {
	return &Breakpoint{
		dapID:     dapID,
		variant:   VariantEntry,
		source:    source,
		entryMode: mode,
		enabled:   true,
		dedup:     map[RequestKey]*CDPReference{},
	}
}

// newPatternEntryBreakpoint builds a PatternEntry breakpoint: like Entry,
// but keyed by a glob pattern (e.g. "**/*.generated.js") rather than a
// single source, matching every script whose URL satisfies the pattern.
// The glob is validated locally with gobwas/glob (fast local rejection of
// a malformed pattern); the CDP-side install still needs an equivalent
// regex string, since Debugger.setBreakpointByURL only accepts exact URL or
// urlRegex, never a glob.
func newPatternEntryBreakpoint(dapID int, pattern string) (*Breakpoint, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, newErr(ErrInvalidHitCondition, fmt.Sprintf("invalid breakpoint pattern %q: %v", pattern, err))
	}

	return &Breakpoint{
		dapID:       dapID,
		variant:     VariantPatternEntry,
		pattern:     pattern,
		patternGlob: g,
		enabled:     true,
		dedup:       map[RequestKey]*CDPReference{},
	}, nil
}

// newNeverResolvedBreakpoint builds a placeholder for a breakpoint request
// the core accepted but cannot install (its hit condition or log message
// failed to parse). It never reaches the runtime and its hit test always
// reports false.
func newNeverResolvedBreakpoint(dapID int, source SourceIdentity, message string) *Breakpoint {
	return &Breakpoint{
		dapID:        dapID,
		variant:      VariantNeverResolved,
		source:       source,
		neverMessage: message,
		hit:          neverHitPredicate{},
		enabled:      false,
		dedup:        map[RequestKey]*CDPReference{},
	}
}

// NeverResolvedMessage returns the reason the IDE should show this
// breakpoint as unverified, valid only for VariantNeverResolved.
func (b *Breakpoint) NeverResolvedMessage() string { return b.neverMessage }

// equivalentTo reports whether a new setBreakpoints request for source
// describes the same logical breakpoint as b, per the reuse-over-recreate
// rule: same source and same 1-based position.
func (b *Breakpoint) equivalentTo(source SourceIdentity, line, column int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.variant == VariantUserDefined && b.source == source && b.line == line && b.column == column
}

// updateConditions refreshes condition/hitCondition/logMessage on an
// existing UserDefined breakpoint the IDE re-sent with a new payload,
// without discarding its current CDP references.
func (b *Breakpoint) updateConditions(condition, hitCondition, logMessage string) error {
	hit, err := parseHitCondition(hitCondition)
	if err != nil {
		return err
	}
	cdpCond, err := buildCDPCondition(condition, logMessage)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if hitCondition != b.hitCondition {
		b.hit = hit
	}
	b.condition = condition
	b.hitCondition = hitCondition
	b.logMessage = logMessage
	b.cdpCondition = cdpCond
	return nil
}

// testHitCondition evaluates the breakpoint's stateful hit predicate,
// advancing its counter. Callers invoke this once per pause that lists this
// breakpoint's cdpID in hitBreakpoints.
func (b *Breakpoint) testHitCondition() bool {
	b.mu.Lock()
	hit := b.hit
	b.mu.Unlock()
	if hit == nil {
		return true
	}
	return hit.Hit()
}

// installTarget is one concrete (url-or-regex-or-scriptID, line, column)
// tuple a strategy wants installed, prior to deduplication.
type installTarget struct {
	key RequestKey
}

// enable installs this breakpoint against the runtime using whichever
// strategies its variant and current knowledge allow. Strategies run
// concurrently; a failure in one does not cancel the others, so one bad
// install doesn't abort a batch.
func (b *Breakpoint) enable(ctx context.Context, runtime Runtime, container SourceContainer, predictor Predictor) error {
	b.mu.Lock()
	b.enabled = true
	already := len(b.refs) > 0
	b.mu.Unlock()

	if already {
		return nil
	}

	targets := b.candidateTargets(ctx, container, predictor)
	if len(targets) == 0 {
		return nil
	}

	var g errgroup.Group
	for _, t := range targets {
		t := t
		if b.reserve(t.key) == nil {
			continue
		}
		g.Go(func() error {
			return b.install(ctx, runtime, t.key)
		})
	}
	return g.Wait()
}

// candidateTargets computes the request keys enable should attempt,
// combining the three installation strategies: by-path,
// by-predicted-location and by-current-UI-location.
func (b *Breakpoint) candidateTargets(ctx context.Context, container SourceContainer, predictor Predictor) []installTarget {
	b.mu.Lock()
	variant := b.variant
	source := b.source
	line, column := b.line, b.column
	entryMode := b.entryMode
	pattern := b.pattern
	b.mu.Unlock()

	switch variant {
	case VariantNeverResolved:
		return nil

	case VariantPatternEntry:
		return []installTarget{{key: RequestKey{Kind: ByURLRegex, URLOrScriptID: globToURLRegex(pattern), Line: 0, Column: 0}}}

	case VariantEntry:
		if entryMode == EntryGreedy && source.hasPath() {
			return []installTarget{{key: RequestKey{Kind: ByURLRegex, URLOrScriptID: basenameRegex(source.Path), Line: 0, Column: 0}}}
		}
		if src, ok := container.Source(ctx, source); ok {
			return []installTarget{{key: RequestKey{Kind: ByURL, URLOrScriptID: src.URL, Line: 0, Column: 0}}}
		}
		return nil

	default: // VariantUserDefined
		var targets []installTarget

		// Strategy 1: by-path, when the source is already known to the
		// container.
		if src, ok := container.Source(ctx, source); ok {
			targets = append(targets, installTarget{key: RequestKey{Kind: ByURL, URLOrScriptID: src.URL, Line: line - 1, Column: column - 1}})
		}

		// Strategy 2: by-predicted-location, from the (optional) predictor
		// peer, useful before any script matching this source has loaded.
		if predictor != nil && source.hasPath() {
			for _, loc := range predictor.PredictedResolvedLocations(source.Path, line, column) {
				targets = append(targets, installTarget{key: RequestKey{Kind: ByScriptID, URLOrScriptID: loc.ScriptID, Line: loc.Line, Column: loc.Column}})
			}
		}

		// Strategy 3: by-current-UI-location, for scripts that already
		// loaded and resolved a source map covering this position before
		// this breakpoint was set, so it doesn't have to wait for a fresh
		// scriptParsed notification.
		if source.hasPath() {
			for _, loc := range container.KnownScriptLocations(ctx, source, line, column) {
				targets = append(targets, installTarget{key: RequestKey{Kind: ByScriptID, URLOrScriptID: loc.ScriptID, Line: loc.Line, Column: loc.Column}})
			}
		}

		return targets
	}
}

// reserve claims key in the dedup set, returning the new reference, or nil
// if key was already reserved.
func (b *Breakpoint) reserve(key RequestKey) *CDPReference {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.dedup[key]; ok {
		return nil
	}
	ref := &CDPReference{state: RefPending, key: key}
	b.dedup[key] = ref
	b.refs = append(b.refs, ref)
	return ref
}

// install performs the actual wire round trip for one reserved request key,
// transitioning its reference from Pending to Applied (or Disposed on
// failure).
func (b *Breakpoint) install(ctx context.Context, runtime Runtime, key RequestKey) error {
	b.mu.Lock()
	condition := b.cdpCondition
	ref := b.dedup[key]
	b.mu.Unlock()

	var (
		cdpID string
		locs  []RuntimeLocation
		err   error
	)

	switch key.Kind {
	case ByURL:
		cdpID, locs, err = runtime.SetBreakpointByURL(ctx, key.URLOrScriptID, key.Line, key.Column, condition)
	case ByURLRegex:
		cdpID, locs, err = runtime.SetBreakpointByURLRegex(ctx, key.URLOrScriptID, key.Line, key.Column, condition)
	case ByScriptID:
		var loc RuntimeLocation
		loc, err = func() (RuntimeLocation, error) {
			id, l, e := runtime.SetBreakpoint(ctx, key.URLOrScriptID, key.Line, key.Column, condition)
			cdpID = id
			return l, e
		}()
		if err == nil {
			locs = []RuntimeLocation{loc}
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		ref.state = RefDisposed
		return wrapErr(ErrCDPRequestFailed, fmt.Sprintf("setBreakpoint for %s failed", key.URLOrScriptID), err)
	}

	ref.state = RefApplied
	ref.cdpID = cdpID
	ref.locations = runtimeLocationsToUI(b.source, locs)
	ref.scriptIDs = scriptIDsOf(locs)
	return nil
}

func scriptIDsOf(locs []RuntimeLocation) []string {
	out := make([]string, 0, len(locs))
	for _, l := range locs {
		out = append(out, l.ScriptID)
	}
	return out
}

// disable tears down every currently-installed reference for this
// breakpoint and clears the dedup set, so a subsequent enable reinstalls
// from scratch.
func (b *Breakpoint) disable(ctx context.Context, runtime Runtime) error {
	b.mu.Lock()
	b.enabled = false
	refs := b.refs
	b.refs = nil
	b.dedup = map[RequestKey]*CDPReference{}
	b.mu.Unlock()

	var g errgroup.Group
	for _, r := range refs {
		r := r
		if r.State() != RefApplied {
			continue
		}
		g.Go(func() error {
			return runtime.RemoveBreakpoint(ctx, r.CDPID())
		})
	}
	return g.Wait()
}

// Enabled reports whether the breakpoint currently participates in
// installation.
func (b *Breakpoint) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

// updateForNewLocations installs an additional ByScriptID CDP reference for
// this breakpoint against scriptID, a script whose source map the
// coordinator just resolved to cover this breakpoint's source. It skips
// the install if an equivalent reference is already present, so a
// breakpoint that survives multiple reloads of the same script doesn't
// accumulate duplicate references. This is how a breakpoint set before its
// module loaded becomes live without the IDE re-sending setBreakpoints.
func (b *Breakpoint) updateForNewLocations(ctx context.Context, runtime Runtime, scriptID string) error {
	b.mu.Lock()
	line, column := b.line, b.column
	b.mu.Unlock()

	key := RequestKey{Kind: ByScriptID, URLOrScriptID: scriptID, Line: line - 1, Column: column - 1}
	if b.reserve(key) == nil {
		return nil
	}
	return b.install(ctx, runtime, key)
}

// cdpIDs returns the cdpID of every currently Applied reference, for the
// manager's index bookkeeping when tearing a breakpoint down entirely.
func (b *Breakpoint) cdpIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]string, 0, len(b.refs))
	for _, r := range b.refs {
		if r.state == RefApplied {
			ids = append(ids, r.cdpID)
		}
	}
	return ids
}

// atModuleEntry reports whether this breakpoint sits at a module's first
// executable statement (1-based line 1, column 1), the position an
// instrumentation pause naturally lands at.
func (b *Breakpoint) atModuleEntry() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.line == 1 && b.column == 1
}

// matchesScriptID reports whether any of this breakpoint's references
// resolved against scriptID.
func (b *Breakpoint) matchesScriptID(scriptID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.refs {
		for _, id := range r.scriptIDs {
			if id == scriptID {
				return true
			}
		}
	}
	return false
}

// updateSourceLocation moves a UserDefined breakpoint to a new source and
// 1-based position, discarding and (if still enabled) reinstalling its CDP
// references.
func (b *Breakpoint) updateSourceLocation(ctx context.Context, runtime Runtime, container SourceContainer, predictor Predictor, newSource SourceIdentity, newLine, newColumn int) error {
	b.mu.Lock()
	wasEnabled := b.enabled
	b.mu.Unlock()

	if err := b.disable(ctx, runtime); err != nil {
		return err
	}

	b.mu.Lock()
	b.source = newSource
	b.line = newLine
	b.column = newColumn
	b.mu.Unlock()

	if !wasEnabled {
		return nil
	}
	return b.enable(ctx, runtime, container, predictor)
}

func runtimeLocationsToUI(source SourceIdentity, locs []RuntimeLocation) []UILocation {
	out := make([]UILocation, 0, len(locs))
	for _, l := range locs {
		out = append(out, UILocation{Path: source.Path, SourceReference: source.SourceReference, Line: l.Line + 1, Column: l.Column + 1})
	}
	return out
}

// globToURLRegex renders a gobwas/glob-validated pattern into a regular
// expression CDP's urlRegex parameter accepts, since the CDP wire protocol
// has no glob syntax of its own. Only `**` (any characters) and `*` (any
// characters except '/') are translated; every other regex metacharacter,
// including the glob's `?`, `[...]` and `{...}`, is escaped and matches
// literally.
func globToURLRegex(pattern string) string {
	var out strings.Builder
	for i := 0; i < len(pattern); i++ {
		switch {
		case strings.HasPrefix(pattern[i:], "**"):
			out.WriteString(".*")
			i++
		case pattern[i] == '*':
			out.WriteString("[^/]*")
		case strings.ContainsRune(`.+?()[]{}^$|\`, rune(pattern[i])):
			out.WriteByte('\\')
			out.WriteByte(pattern[i])
		default:
			out.WriteByte(pattern[i])
		}
	}
	return out.String()
}

// basenameRegex builds a urlRegex that matches any URL ending in path's
// basename, used by EntryGreedy so a module reload (new URL, same file)
// still trips the entry breakpoint.
func basenameRegex(path string) string {
	base := path
	if idx := strings.LastIndexAny(path, `/\`); idx != -1 {
		base = path[idx+1:]
	}
	return ".*" + globToURLRegex(base) + "$"
}
