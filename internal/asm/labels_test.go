package asm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLabelsDefinitionVsReference(t *testing.T) {
	l := NewLabels()
	l.Set(0, "loop", true)
	l.Set(4, "target", false)

	name, ok := l.Label(0, true)
	require.True(t, ok)
	require.Equal(t, "loop", name)

	_, ok = l.Label(4, true)
	require.False(t, ok, "reference-only PC must not satisfy a definition-required lookup")

	name, ok = l.Label(4, false)
	require.True(t, ok)
	require.Equal(t, "target", name)
}

func TestLabelsProgramCounterRoundTrip(t *testing.T) {
	l := NewLabels()
	l.Set(12, "done", true)
	pc, ok := l.ProgramCounter("done")
	require.True(t, ok)
	require.Equal(t, uint32(12), pc)
	require.True(t, l.IsName("done"))
	require.True(t, l.IsAt(12))
	require.False(t, l.IsAt(16))
}
