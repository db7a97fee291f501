package search

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hagoromo-shogi/engine/internal/shogi"
)

func TestNewRootMovesIncludesEveryLegalMoveWhenUnrestricted(t *testing.T) {
	pos := shogi.NewPosition()
	legal := pos.LegalMoves()

	rm := NewRootMoves(legal, nil)
	require.Len(t, rm, len(legal))
	for _, m := range legal {
		require.NotNil(t, rm.Find(m))
	}
}

func TestNewRootMovesRestrictsToSearchmoves(t *testing.T) {
	pos := shogi.NewPosition()
	legal := pos.LegalMoves()
	require.NotEmpty(t, legal)

	rm := NewRootMoves(legal, []shogi.Move{legal[0]})
	require.Len(t, rm, 1)
	require.Equal(t, legal[0], rm[0].Move)
}

func TestSortFromOrdersSuffixDescendingByScore(t *testing.T) {
	rm := RootMoves{
		{Move: shogi.Move{From: 1, To: 2}, Score: 10},
		{Move: shogi.Move{From: 3, To: 4}, Score: 50},
		{Move: shogi.Move{From: 5, To: 6}, Score: 30},
	}
	rm.SortFrom(1)

	require.Equal(t, 10, rm[0].Score) // untouched, before "from"
	require.Equal(t, 50, rm[1].Score)
	require.Equal(t, 30, rm[2].Score)
}

func TestFindAndIndex(t *testing.T) {
	m1 := shogi.Move{From: 1, To: 2}
	m2 := shogi.Move{From: 3, To: 4}
	rm := RootMoves{{Move: m1}, {Move: m2}}

	require.Equal(t, 0, rm.Index(m1))
	require.Equal(t, 1, rm.Index(m2))
	require.Equal(t, -1, rm.Index(shogi.Move{From: 9, To: 9}))

	require.Same(t, rm[1], rm.Find(m2))
	require.Nil(t, rm.Find(shogi.Move{From: 9, To: 9}))
}
