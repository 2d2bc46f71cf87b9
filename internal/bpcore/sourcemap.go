package bpcore

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// defaultSourceMapTimeout bounds how long the coordinator waits for any one
// script's source map to resolve before giving up on it for this pause.
// defaultCumulativeSourceMapTimeout is the cumulative budget OnScriptParsed
// hands to ResolveScript when the source container reports none. That
// budget is not reduced by the time earlier waits took, so it caps each
// single wait only; the total time spent across scripts is not bounded.
const (
	defaultSourceMapTimeout           = 1 * time.Second
	defaultCumulativeSourceMapTimeout = 8 * time.Second
)

// instrumentBeforeScriptWithSourceMap is the CDP instrumentation name that
// pauses a script specifically when it carries a source map, as opposed to
// "beforeScriptExecution" which would fire for every script regardless.
//
// wasmURLRegex is a broadly-matching defensive breakpoint on any ".wasm"
// URL: WebAssembly modules don't reliably produce an instrumentation pause
// of their own in every engine, so this regex breakpoint is installed
// alongside it as a backstop, kept even though it is not known to have any
// effect in current engines.
const (
	instrumentBeforeScriptWithSourceMap = "beforeScriptWithSourceMapExecution"
	wasmURLRegex                        = `\.wasm`
)

// sourceMapHandler coordinates the CDP instrumentation-breakpoint pause
// that fires on every new script parse, resolving that script's source map
// (if any) and folding the breakpoints that belong to its sources into the
// Manager before releasing the pause.
type sourceMapHandler struct {
	log       *zap.Logger
	runtime   Runtime
	container SourceContainer

	mu            sync.Mutex
	installed     bool
	instrumentCDP string
	wasmCDP       string

	// inflight memoizes one resolution attempt per scriptID so concurrent
	// pauses for the same script share a single walk of its sources.
	inflight map[string]*sourceMapResolution
}

type sourceMapResolution struct {
	once sync.Once
	done chan struct{}
	srcs []Source
	err  error
}

func newSourceMapHandler(log *zap.Logger, runtime Runtime, container SourceContainer) *sourceMapHandler {
	return &sourceMapHandler{
		log:       log,
		runtime:   runtime,
		container: container,
		inflight:  map[string]*sourceMapResolution{},
	}
}

// Install arms the instrumentation breakpoint that precedes every
// source-mapped script's first line, plus the defensive WebAssembly
// URL-regex breakpoint, if neither is already armed. Safe to call
// repeatedly.
func (h *sourceMapHandler) Install(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.installed {
		return nil
	}

	cdpID, err := h.runtime.SetInstrumentationBreakpoint(ctx, instrumentBeforeScriptWithSourceMap)
	if err != nil {
		return wrapErr(ErrCDPRequestFailed, "installing instrumentation breakpoint", err)
	}
	h.instrumentCDP = cdpID

	wasmID, _, err := h.runtime.SetBreakpointByURLRegex(ctx, wasmURLRegex, 0, 0, "")
	if err != nil {
		return wrapErr(ErrCDPRequestFailed, "installing wasm breakpoint", err)
	}
	h.wasmCDP = wasmID

	h.installed = true
	return nil
}

// Uninstall removes the instrumentation and wasm breakpoints, for sessions
// that never need late source-map resolution (e.g. no source maps were
// configured).
func (h *sourceMapHandler) Uninstall(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.installed {
		return nil
	}
	h.installed = false
	if err := h.runtime.RemoveBreakpoint(ctx, h.instrumentCDP); err != nil {
		return err
	}
	return h.runtime.RemoveBreakpoint(ctx, h.wasmCDP)
}

// ResolveScript handles one instrumentation pause for scriptID: it walks
// the script's source-map sources (breadth-first, per the container's own
// ordering), memoizing the walk so a second pause for the same script
// before the first resolves waits on the same result instead of repeating
// the work. Each wait is bounded by the smaller of defaultSourceMapTimeout
// and cumulativeRemaining; a timeout is returned as ErrSourceMapTimeout, no
// source map is disabled, and a later pause for the same script resolves it
// again.
func (h *sourceMapHandler) ResolveScript(ctx context.Context, scriptID string, cumulativeRemaining time.Duration) ([]Source, error) {
	res := h.resolutionFor(scriptID)

	res.once.Do(func() {
		defer close(res.done)

		budget := defaultSourceMapTimeout
		if cumulativeRemaining < budget {
			budget = cumulativeRemaining
		}
		if budget <= 0 {
			res.err = newErr(ErrSourceMapTimeout, "cumulative source map timeout exhausted")
			return
		}

		cctx, cancel := context.WithTimeout(ctx, budget)
		defer cancel()

		srcs, err := h.container.WaitForSourceMapSources(cctx, scriptID)
		if err != nil {
			if cctx.Err() != nil {
				err = newErr(ErrSourceMapTimeout, "waiting for source map sources for "+scriptID)
			}
			res.err = err
			return
		}
		res.srcs = srcs
	})

	<-res.done

	h.mu.Lock()
	delete(h.inflight, scriptID)
	h.mu.Unlock()

	return res.srcs, res.err
}

func (h *sourceMapHandler) resolutionFor(scriptID string) *sourceMapResolution {
	h.mu.Lock()
	defer h.mu.Unlock()

	if r, ok := h.inflight[scriptID]; ok {
		return r
	}
	r := &sourceMapResolution{done: make(chan struct{})}
	h.inflight[scriptID] = r
	return r
}
