package bpcore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogMessage_Plain(t *testing.T) {
	format, args, err := parseLogMessage("hello world")
	require.NoError(t, err)
	assert.Equal(t, "hello world", format)
	assert.Empty(t, args)
}

func TestParseLogMessage_Interpolation(t *testing.T) {
	format, args, err := parseLogMessage("x={x} y={y}")
	require.NoError(t, err)
	assert.Equal(t, "x=%O y=%O", format)
	assert.Equal(t, []string{"x", "y"}, args)
}

func TestParseLogMessage_EmptyBraces(t *testing.T) {
	format, args, err := parseLogMessage("literal {} brace")
	require.NoError(t, err)
	assert.Equal(t, "literal  brace", format)
	assert.Empty(t, args)
}

func TestParseLogMessage_PercentEscape(t *testing.T) {
	format, _, err := parseLogMessage("100% done")
	require.NoError(t, err)
	assert.Equal(t, "100%% done", format)
}

func TestParseLogMessage_Unterminated(t *testing.T) {
	_, _, err := parseLogMessage("oops {x")
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrInvalidLogMessage))
}

func TestParseLogMessage_Unmatched(t *testing.T) {
	_, _, err := parseLogMessage("oops x}")
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrInvalidLogMessage))
}

func TestRewriteLogMessage_EndsWithSourceURLMarker(t *testing.T) {
	expr, err := rewriteLogMessage("x={x}")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(expr, "//# sourceURL="+logpointSourceURL))
	assert.Contains(t, expr, "console.log('x=%O', (x))")
	assert.Contains(t, expr, ", false)")
}

func TestBuildCDPCondition_LogpointWithCondition(t *testing.T) {
	expr, err := buildCDPCondition("x > 1", "x={x}")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(expr, "(x > 1) && "))
}

func TestBuildCDPCondition_ConditionOnly(t *testing.T) {
	expr, err := buildCDPCondition("x > 1", "")
	require.NoError(t, err)
	assert.Equal(t, "x > 1", expr)
}
