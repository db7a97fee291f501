package search

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hagoromo-shogi/engine/internal/shogi"
)

func TestNewSearchStackInitializesNullSentinels(t *testing.T) {
	ss := newSearchStack()
	for i := range ss {
		require.True(t, ss[i].hashMove.IsNull())
		require.True(t, ss[i].currentMove.IsNull())
		require.True(t, ss[i].excludedMove.IsNull())
	}
}

func TestFrameIndexesTwoSentinelsAheadOfPly(t *testing.T) {
	ss := newSearchStack()
	frame(&ss, 0).currentMove = shogi.Move{From: 1, To: 2}
	frame(&ss, 5).currentMove = shogi.Move{From: 3, To: 4}

	require.Equal(t, shogi.Move{From: 1, To: 2}, ss[2].currentMove)
	require.Equal(t, shogi.Move{From: 3, To: 4}, ss[7].currentMove)
}
