package bpcore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sourceMapStubContainer struct {
	stubContainer
	sources map[string][]Source
}

func (c sourceMapStubContainer) WaitForSourceMapSources(ctx context.Context, scriptID string) ([]Source, error) {
	return c.sources[scriptID], nil
}

func TestSourceMapHandler_ResolveScriptMemoizes(t *testing.T) {
	container := sourceMapStubContainer{sources: map[string][]Source{
		"s1": {{Ident: SourceIdentity{Path: "/src/a.ts"}}},
	}}
	h := newSourceMapHandler(nil, &stubRuntime{}, container)

	srcs1, err := h.ResolveScript(context.Background(), "s1", time.Second)
	require.NoError(t, err)
	require.Len(t, srcs1, 1)

	srcs2, err := h.ResolveScript(context.Background(), "s1", time.Second)
	require.NoError(t, err)
	assert.Equal(t, srcs1, srcs2)
}

func TestSourceMapHandler_InstallIsIdempotent(t *testing.T) {
	rt := &stubRuntime{}
	h := newSourceMapHandler(nil, rt, stubContainer{})

	require.NoError(t, h.Install(context.Background()))
	require.NoError(t, h.Install(context.Background()))
	require.NoError(t, h.Uninstall(context.Background()))
	assert.Equal(t, 2, rt.removes)
}
