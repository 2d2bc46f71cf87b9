package bpcore

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Manager is the breakpoint coordination core's top-level object. It owns
// every Breakpoint for one debug session and is the single place that
// knows how a DAP setBreakpoints request, a CDP pause event, and
// a late-arriving source map all affect the same underlying state.
//
// Every exported method is safe to call from any goroutine; internally Manager serializes all mutation onto a single
// command loop goroutine (started by NewManager) so multiple DAP/CDP
// callers can submit work concurrently without a mutex guarding every
// field.
type Manager struct {
	log *zap.Logger

	runtime   Runtime
	container SourceContainer
	predictor Predictor // may be nil

	cmds chan func()
	done chan struct{}

	nextDapID int
	byDapID   map[int]*Breakpoint
	byPath    map[string][]*Breakpoint
	byRef     map[string]*Breakpoint // cdpID -> owning breakpoint

	moduleEntryBreakpoints map[SourceIdentity]*Breakpoint
	launchBlockers         *launchBlockerSet

	entryBreakpointMode EntryMode
	enabledFilter       bool

	// liveBreakpointCount is every currently-installed user-defined or
	// entry breakpoint across every source; the source-map-handler
	// coordinator's instrumentation breakpoint only needs to be armed
	// while this is positive.
	liveBreakpointCount int

	sourceMapHandler *sourceMapHandler
	stats            *statistics
}

// NewManager builds a Manager bound to one runtime/container/predictor
// triple for the lifetime of one debug session.
func NewManager(log *zap.Logger, runtime Runtime, container SourceContainer, predictor Predictor) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		log:                    log,
		runtime:                runtime,
		container:              container,
		predictor:              predictor,
		cmds:                   make(chan func(), 64),
		done:                   make(chan struct{}),
		byDapID:                map[int]*Breakpoint{},
		byPath:                 map[string][]*Breakpoint{},
		byRef:                  map[string]*Breakpoint{},
		moduleEntryBreakpoints: map[SourceIdentity]*Breakpoint{},
		enabledFilter:          true,
		entryBreakpointMode:    EntryExact,
		stats:                  newStatistics(),
	}
	m.launchBlockers = newLaunchBlockerSet()
	m.sourceMapHandler = newSourceMapHandler(log, runtime, container)
	go m.run()
	return m
}

// Close stops the command loop. A closed Manager must not be used again.
func (m *Manager) Close() { close(m.done) }

func (m *Manager) run() {
	for {
		select {
		case fn := <-m.cmds:
			fn()
		case <-m.done:
			return
		}
	}
}

// submit runs fn on the owning goroutine and blocks until it returns,
// giving every exported method exclusive access to Manager's maps without
// a mutex around the whole operation.
func (m *Manager) submit(fn func()) {
	result := make(chan struct{})
	m.cmds <- func() {
		defer close(result)
		fn()
	}
	<-result
}

// SetBreakpointsResult is what setBreakpoints reports back per input
// breakpoint, in request order, ready to become a dap.Breakpoint.
type SetBreakpointsResult struct {
	DapID    int
	Verified bool
	Line     int
	Column   int
	Message  string
}

// SetBreakpointsRequest mirrors one entry of dap.SetBreakpointsArguments.
type SetBreakpointsRequest struct {
	DapID        int // 0 for a not-yet-known breakpoint; the Manager assigns one if zero
	Line, Column int
	Condition    string
	HitCondition string
	LogMessage   string
}

// SetBreakpoints reconciles the full desired set of breakpoints for one
// source against what's currently installed:
//
//  1. breakpoints already present at an equivalent location are reused
//     (their CDP references and hit counters survive);
//  2. breakpoints no longer present are disabled and forgotten;
//  3. brand new breakpoints are created and enabled if the filter allows.
func (m *Manager) SetBreakpoints(ctx context.Context, source SourceIdentity, requests []SetBreakpointsRequest) ([]SetBreakpointsResult, error) {
	var results []SetBreakpointsResult
	var firstErr error

	m.submit(func() {
		existing := append([]*Breakpoint{}, m.byPath[source.Path]...)
		kept := map[*Breakpoint]bool{}
		sawEntryPosition := false

		for _, req := range requests {
			if req.Line == 1 && req.Column == 1 {
				sawEntryPosition = true
			}

			var bp *Breakpoint
			for _, e := range existing {
				if !kept[e] && e.equivalentTo(source, req.Line, req.Column) {
					bp = e
					break
				}
			}

			if bp != nil {
				kept[bp] = true
				if err := bp.updateConditions(req.Condition, req.HitCondition, req.LogMessage); err != nil {
					firstErr = err
				}
			} else {
				dapID := req.DapID
				if dapID == 0 {
					m.nextDapID++
					dapID = m.nextDapID
				}
				var err error
				bp, err = newUserDefinedBreakpoint(dapID, source, req.Line, req.Column, req.Condition, req.HitCondition, req.LogMessage)
				if err != nil {
					firstErr = err
					bp = newNeverResolvedBreakpoint(dapID, source, err.Error())
				}
				m.byDapID[dapID] = bp
				m.stats.registerSet(dapID)
				if err := m.adjustLiveCountLocked(ctx, 1); err != nil && firstErr == nil {
					firstErr = err
				}
			}

			if m.enabledFilter {
				done := m.launchBlockers.Add()
				err := func() error {
					defer done()
					return bp.enable(ctx, m.runtime, m.container, m.predictor)
				}()
				if err != nil {
					m.log.Warn("enable breakpoint failed", zap.Int("dapId", bp.DapID()), zap.Error(err))
				}
			}

			results = append(results, SetBreakpointsResult{
				DapID:    bp.DapID(),
				Verified: bp.Verified(),
				Line:     req.Line,
				Column:   req.Column,
				Message:  bp.NeverResolvedMessage(),
			})
			if bp.Verified() {
				m.stats.registerVerified(bp.DapID())
			}
		}

		// Anything left in `existing` but not `kept` was dropped by this
		// request; disable and forget it.
		for _, e := range existing {
			if kept[e] {
				continue
			}
			m.disableAndForgetLocked(ctx, e)
			if err := m.adjustLiveCountLocked(ctx, -1); err != nil && firstErr == nil {
				firstErr = err
			}
		}

		kept2 := make([]*Breakpoint, 0, len(kept))
		for bp := range kept {
			kept2 = append(kept2, bp)
		}
		m.byPath[source.Path] = m.collectByPath(source, kept2)

		for _, bp := range m.byPath[source.Path] {
			for _, ref := range bp.refs {
				if ref.State() == RefApplied {
					m.byRef[ref.cdpID] = bp
				}
			}
		}

		// Auto-insert (or release) the module-entry breakpoint: if the IDE
		// didn't itself place a breakpoint at the module's first statement,
		// the core needs one of its own so the source-map handler gets a
		// chance to resolve this module's sources before its top-level code
		// runs. If the IDE did, that breakpoint already does the job.
		if sawEntryPosition {
			if err := m.releaseEntryBreakpointLocked(ctx, source); err != nil && firstErr == nil {
				firstErr = err
			}
		} else {
			if _, err := m.ensureEntryBreakpointLocked(ctx, source, m.entryBreakpointMode); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	})

	return results, firstErr
}

// disableAndForgetLocked tears down bp's CDP references and removes it
// from every Manager index. Must run on the command-loop goroutine.
func (m *Manager) disableAndForgetLocked(ctx context.Context, bp *Breakpoint) {
	for _, id := range bp.cdpIDs() {
		delete(m.byRef, id)
	}
	if err := bp.disable(ctx, m.runtime); err != nil {
		m.log.Warn("disable dropped breakpoint failed", zap.Int("dapId", bp.DapID()), zap.Error(err))
	}
	delete(m.byDapID, bp.DapID())
	if bp.Variant() == VariantEntry {
		delete(m.moduleEntryBreakpoints, bp.Source())
	}
}

// adjustLiveCountLocked changes the live-breakpoint counter by delta and
// arms or disarms the source-map handler's instrumentation breakpoint on
// the zero<->positive transition: that coordinator only needs to run while
// at least one breakpoint could benefit from a late-arriving source map.
// Must run on the command-loop goroutine.
func (m *Manager) adjustLiveCountLocked(ctx context.Context, delta int) error {
	before := m.liveBreakpointCount
	m.liveBreakpointCount += delta
	after := m.liveBreakpointCount

	switch {
	case before == 0 && after > 0:
		return m.sourceMapHandler.Install(ctx)
	case before > 0 && after == 0:
		return m.sourceMapHandler.Uninstall(ctx)
	default:
		return nil
	}
}

// collectByPath rebuilds the path index for source from every breakpoint
// that is either newly kept or newly created during this call, appending
// any entry not already present in kept2 via DapID lookup against
// m.byDapID (the authoritative source of truth).
func (m *Manager) collectByPath(source SourceIdentity, kept []*Breakpoint) []*Breakpoint {
	seen := map[int]bool{}
	out := make([]*Breakpoint, 0, len(kept))
	for _, bp := range kept {
		if !seen[bp.DapID()] {
			seen[bp.DapID()] = true
			out = append(out, bp)
		}
	}
	for id, bp := range m.byDapID {
		if bp.source == source && !seen[id] {
			seen[id] = true
			out = append(out, bp)
		}
	}
	return out
}

// PauseVote is one referenced breakpoint's individual verdict within a
// ShouldPauseAt evaluation.
type PauseVote struct {
	DapID      int
	ShouldStop bool
}

// ShouldPauseAt evaluates every breakpoint referenced by cdpIDs against the
// hitBreakpoints voting policy the pause classifier (pause.go) consults: an
// Entry breakpoint always votes to continue, since its only job is to
// guard a module's first statement until the source-map handler has had a
// chance to run, disabling itself on first hit in EntryExact mode now that
// its module has started executing; a PatternEntry delegate always votes
// to pause, handing the decision back up to the classifier; and a
// user-defined breakpoint votes per its hit condition. continueByDefault
// seeds one extra continue vote up front, so that a pause no breakpoint
// votes for resumes instead of stopping. The pause stops overall iff at
// least one pause vote was cast, or no continue vote was cast either.
func (m *Manager) ShouldPauseAt(ctx context.Context, cdpIDs []string, continueByDefault bool) (shouldStop bool, votes []PauseVote) {
	m.submit(func() {
		pauseVotes := 0
		continueVotes := 0
		if continueByDefault {
			continueVotes++
		}

		for _, id := range cdpIDs {
			bp, ok := m.byRef[id]
			if !ok {
				continue
			}
			switch bp.Variant() {
			case VariantEntry:
				continueVotes++
				votes = append(votes, PauseVote{DapID: bp.DapID(), ShouldStop: false})
				if bp.entryMode == EntryExact {
					m.disableAndForgetLocked(ctx, bp)
					_ = m.adjustLiveCountLocked(ctx, -1)
				}
			case VariantPatternEntry:
				pauseVotes++
				votes = append(votes, PauseVote{DapID: bp.DapID(), ShouldStop: true})
			default:
				if bp.testHitCondition() {
					pauseVotes++
					votes = append(votes, PauseVote{DapID: bp.DapID(), ShouldStop: true})
					m.registerHitLocked(bp.DapID())
				} else {
					continueVotes++
					votes = append(votes, PauseVote{DapID: bp.DapID(), ShouldStop: false})
				}
			}
		}

		shouldStop = pauseVotes > 0 || continueVotes == 0
	})
	return shouldStop, votes
}

// entryGuardsScriptLocked reports whether some Entry or PatternEntry
// breakpoint resolved a reference against scriptID, meaning this script's
// first statement is itself guarded and an instrumentation pause landing
// here should be reported as that breakpoint. Must run on the command-loop
// goroutine.
func (m *Manager) entryGuardsScriptLocked(scriptID string) bool {
	for _, bp := range m.moduleEntryBreakpoints {
		if bp.matchesScriptID(scriptID) {
			return true
		}
	}
	for _, bp := range m.byDapID {
		if bp.Variant() == VariantPatternEntry && bp.matchesScriptID(scriptID) {
			return true
		}
	}
	return false
}

// entryGuardsScript is entryGuardsScriptLocked's submit-wrapped entry point
// for callers outside the command loop.
func (m *Manager) entryGuardsScript(scriptID string) bool {
	var guards bool
	m.submit(func() { guards = m.entryGuardsScriptLocked(scriptID) })
	return guards
}

// OnScriptParsed handles a Debugger.scriptParsed notification for a script
// that carries a source map: it resolves the script's mapped sources via
// the source-map-handler coordinator and installs an additional CDP
// reference for every currently-registered, enabled breakpoint belonging
// to one of them, so a breakpoint set before its module loaded becomes
// live without the IDE re-sending setBreakpoints. It returns the DAP ids
// of every breakpoint it installed a reference for that sits at the
// module's first statement (line 1, column 1), since a pause that lands
// there should be reported as that breakpoint rather than a generic
// instrumentation pause.
func (m *Manager) OnScriptParsed(ctx context.Context, scriptID string) ([]int, error) {
	cumulative, _ := m.container.SourceMapTimeouts()
	remaining := time.Duration(cumulative) * time.Millisecond
	if remaining <= 0 {
		remaining = defaultCumulativeSourceMapTimeout
	}

	srcs, err := m.sourceMapHandler.ResolveScript(ctx, scriptID, remaining)
	if err != nil || len(srcs) == 0 {
		return nil, err
	}

	var installedAtEntry []int
	var firstErr error
	m.submit(func() {
		for _, src := range srcs {
			for _, bp := range m.byPath[src.Ident.Path] {
				if !bp.Enabled() {
					continue
				}
				if err := bp.updateForNewLocations(ctx, m.runtime, scriptID); err != nil {
					if firstErr == nil {
						firstErr = err
					}
					continue
				}
				if bp.atModuleEntry() {
					installedAtEntry = append(installedAtEntry, bp.DapID())
				}
			}
		}
	})
	return installedAtEntry, firstErr
}

// MoveBreakpoints relocates every breakpoint currently attached to
// fromSource onto toSource, for a module reloaded at a new path. resolver
// may recompute each breakpoint's line/column for the new source; pass nil
// to keep each breakpoint's current position unchanged.
func (m *Manager) MoveBreakpoints(ctx context.Context, fromSource, toSource SourceIdentity, resolver func(line, column int) (int, int)) error {
	var firstErr error
	m.submit(func() {
		bps := m.byPath[fromSource.Path]
		delete(m.byPath, fromSource.Path)

		for _, bp := range bps {
			line, column := bp.line, bp.column
			if resolver != nil {
				line, column = resolver(line, column)
			}
			if err := bp.updateSourceLocation(ctx, m.runtime, m.container, m.predictor, toSource, line, column); err != nil {
				firstErr = err
				continue
			}
		}
		m.byPath[toSource.Path] = append(m.byPath[toSource.Path], bps...)
	})
	return firstErr
}

// ApplyEnabledFilter enables or disables every currently-known breakpoint
// in one compare-and-set pass. It is idempotent: if enabled already
// matches the current filter, no breakpoint is touched.
func (m *Manager) ApplyEnabledFilter(ctx context.Context, enabled bool) error {
	var firstErr error
	m.submit(func() {
		if m.enabledFilter == enabled {
			return
		}
		m.enabledFilter = enabled

		for _, bp := range m.byDapID {
			var err error
			if enabled {
				err = bp.enable(ctx, m.runtime, m.container, m.predictor)
			} else {
				err = bp.disable(ctx, m.runtime)
			}
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
	})
	return firstErr
}

// Statistics reports the current per-breakpoint counters.
func (m *Manager) Statistics() map[int]BreakpointStats {
	var out map[int]BreakpointStats
	m.submit(func() {
		out = m.stats.snapshot()
	})
	return out
}

func (m *Manager) registerHitLocked(dapID int) {
	m.stats.registerHit(dapID)
}

// RegisterHit records that the breakpoint with dapID paused execution, for
// the statistics calculator, from any goroutine. ShouldPauseAt records the
// hits it votes to stop on itself, through registerHitLocked.
func (m *Manager) RegisterHit(dapID int) {
	m.submit(func() { m.registerHitLocked(dapID) })
}

// BreakpointAt returns the breakpoint registered under dapID, if any,
// mainly for tests and for the console demo command.
func (m *Manager) BreakpointAt(dapID int) (*Breakpoint, bool) {
	var bp *Breakpoint
	var ok bool
	m.submit(func() {
		bp, ok = m.byDapID[dapID]
	})
	return bp, ok
}
