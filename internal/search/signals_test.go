package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignalsResetClearsAllFlags(t *testing.T) {
	s := NewSignals()
	s.Stop.Store(true)
	s.Ponderhit.Store(true)
	s.FirstMoveCompleted.Store(true)
	s.LimitReached.Store(true)

	s.Reset()

	require.False(t, s.Stop.Load())
	require.False(t, s.Ponderhit.Load())
	require.False(t, s.FirstMoveCompleted.Load())
	require.False(t, s.LimitReached.Load())
}

func TestMatedInAndMateInAreAntisymmetricAroundMateScore(t *testing.T) {
	require.Equal(t, -MateScore, matedIn(0))
	require.Equal(t, MateScore, mateIn(0))
	require.Equal(t, -MateScore+3, matedIn(3))
	require.Equal(t, MateScore-3, mateIn(3))
}
