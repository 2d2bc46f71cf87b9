package bpcore

import "context"

// ensureEntryBreakpointLocked is EnsureEntryBreakpoint's core, safe to call
// from any method already running on the command-loop goroutine (e.g.
// SetBreakpoints' own submitted closure) without re-entering submit.
func (m *Manager) ensureEntryBreakpointLocked(ctx context.Context, source SourceIdentity, mode EntryMode) (*Breakpoint, error) {
	if existing, ok := m.moduleEntryBreakpoints[source]; ok {
		return existing, nil
	}

	m.nextDapID++
	bp := newEntryBreakpoint(m.nextDapID, source, mode)
	m.moduleEntryBreakpoints[source] = bp
	m.byDapID[bp.DapID()] = bp
	if err := m.adjustLiveCountLocked(ctx, 1); err != nil {
		return bp, err
	}

	done := m.launchBlockers.Add()
	err := func() error {
		defer done()
		return bp.enable(ctx, m.runtime, m.container, m.predictor)
	}()
	return bp, err
}

// EnsureEntryBreakpoint installs (or reuses) the Entry breakpoint for
// source: a transient internal pause at the module's first executable
// statement, used to let a Predictor or the source-map handler resolve
// user breakpoints before the module's top-level code actually runs. mode
// selects EntryExact (match only this exact module) versus EntryGreedy
// (match any reload of a logically equivalent file).
func (m *Manager) EnsureEntryBreakpoint(ctx context.Context, source SourceIdentity, mode EntryMode) (*Breakpoint, error) {
	var bp *Breakpoint
	var err error
	m.submit(func() {
		bp, err = m.ensureEntryBreakpointLocked(ctx, source, mode)
	})
	return bp, err
}

// releaseEntryBreakpointLocked is ReleaseEntryBreakpoint's core; see
// ensureEntryBreakpointLocked for why a Locked variant exists.
func (m *Manager) releaseEntryBreakpointLocked(ctx context.Context, source SourceIdentity) error {
	bp, ok := m.moduleEntryBreakpoints[source]
	if !ok {
		return nil
	}
	m.disableAndForgetLocked(ctx, bp)
	return m.adjustLiveCountLocked(ctx, -1)
}

// ReleaseEntryBreakpoint tears down the Entry breakpoint for source, once
// the module it guards has started running and no longer needs the pause.
func (m *Manager) ReleaseEntryBreakpoint(ctx context.Context, source SourceIdentity) error {
	var err error
	m.submit(func() {
		err = m.releaseEntryBreakpointLocked(ctx, source)
	})
	return err
}
