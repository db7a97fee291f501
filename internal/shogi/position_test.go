package shogi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStartPositionSFENRoundTrip(t *testing.T) {
	p := NewPosition()
	require.Equal(t, StartSFEN, p.SFEN())
}

func TestMakeUnmakeRestoresKey(t *testing.T) {
	p := NewPosition()
	keyBefore := p.Key
	boardBefore := p.Board

	var ml MoveList
	p.GenerateMoves(&ml)
	require.Greater(t, ml.Len(), 0)

	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		if !p.IsLegal(m) {
			continue
		}
		var undo UndoInfo
		p.MakeMove(m, &undo)
		p.UnmakeMove(m, &undo)
		require.Equal(t, keyBefore, p.Key, "move %s should round-trip the key", m)
		require.Equal(t, boardBefore, p.Board, "move %s should round-trip the board", m)
	}
}

func TestMakeUnmakeNullRoundTrip(t *testing.T) {
	p := NewPosition()
	key := p.Key
	p.MakeNull()
	p.UnmakeNull()
	require.Equal(t, key, p.Key)
}

func TestMoveStringRoundTrip(t *testing.T) {
	p := NewPosition()
	var ml MoveList
	p.GenerateMoves(&ml)
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		if !p.IsLegal(m) {
			continue
		}
		s := m.String()
		parsed, err := ParseMove(s, p)
		require.NoError(t, err)
		require.Equal(t, m.From, parsed.From)
		require.Equal(t, m.To, parsed.To)
		require.Equal(t, m.IsDrop, parsed.IsDrop)
		require.Equal(t, m.IsPromotion(), parsed.IsPromotion())
	}
}

func TestOpeningPawnPushesAreLegal(t *testing.T) {
	p := NewPosition()
	legal := p.LegalMoves()
	require.NotEmpty(t, legal)
	// 7g7f must be among the legal opening moves.
	found := false
	for _, m := range legal {
		if m.String() == "7g7f" {
			found = true
		}
	}
	require.True(t, found, "7g7f should be legal from the start position")
}

func TestNoLegalMoveAtStartIsFalseClaim(t *testing.T) {
	p := NewPosition()
	require.True(t, p.hasLegalMove())
}

func TestMateIn1Detection(t *testing.T) {
	// A classic rook-ladder mate: one black rook already holds the entire
	// second rank, cutting off every escape square behind the white king;
	// the other slides up the 1-file (1d to 1a) to check along the back rank, where
	// white has no piece left to block or capture with.
	p, err := ParseSFEN("4k4/R8/9/8R/9/9/9/9/4K4 b - 1")
	require.NoError(t, err)

	m, ok := MateIn1(p)
	require.True(t, ok, "rook ladder mate should be found")
	require.Equal(t, NewSquare(8, 3), m.From)
	require.Equal(t, NewSquare(8, 0), m.To)
}

func TestMateIn1DetectionNoMateFromStartPosition(t *testing.T) {
	p := NewPosition()
	_, ok := MateIn1(p)
	require.False(t, ok, "the opening position has no mate in 1")
}
