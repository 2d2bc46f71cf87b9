package bpcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHitCondition_Empty(t *testing.T) {
	h, err := parseHitCondition("")
	require.NoError(t, err)
	assert.True(t, h.Hit())
	assert.True(t, h.Hit())
}

func TestParseHitCondition_Equals(t *testing.T) {
	h, err := parseHitCondition("3")
	require.NoError(t, err)
	assert.False(t, h.Hit())
	assert.False(t, h.Hit())
	assert.True(t, h.Hit())
	assert.False(t, h.Hit())
}

func TestParseHitCondition_GreaterEqual(t *testing.T) {
	h, err := parseHitCondition(">= 2")
	require.NoError(t, err)
	assert.False(t, h.Hit())
	assert.True(t, h.Hit())
	assert.True(t, h.Hit())
}

func TestParseHitCondition_Modulo(t *testing.T) {
	h, err := parseHitCondition("%2")
	require.NoError(t, err)
	assert.False(t, h.Hit())
	assert.True(t, h.Hit())
	assert.False(t, h.Hit())
	assert.True(t, h.Hit())
}

func TestParseHitCondition_TripleEquals(t *testing.T) {
	h, err := parseHitCondition("=== 1")
	require.NoError(t, err)
	assert.True(t, h.Hit())
}

func TestParseHitCondition_Invalid(t *testing.T) {
	_, err := parseHitCondition("banana")
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrInvalidHitCondition))
}
