package search

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hagoromo-shogi/engine/internal/ordering"
	"github.com/hagoromo-shogi/engine/internal/shogi"
	"github.com/hagoromo-shogi/engine/internal/ttable"
)

func TestAbsMinMaxInt(t *testing.T) {
	require.Equal(t, 5, absInt(-5))
	require.Equal(t, 5, absInt(5))
	require.Equal(t, 2, minInt(2, 9))
	require.Equal(t, 9, maxInt(2, 9))
}

func TestHasNonPawnMaterial(t *testing.T) {
	w := NewWorker(0, ttable.New(1), ordering.New(), NewSignals(), 0)
	w.SetPosition(shogi.NewPosition(), nil, 0)
	require.True(t, w.hasNonPawnMaterial())

	kingsOnly, err := shogi.ParseSFEN("4k4/9/9/9/9/9/9/9/4K4 b - 1")
	require.NoError(t, err)
	w.SetPosition(kingsOnly, nil, 0)
	require.False(t, w.hasNonPawnMaterial())
}

func TestNegamaxReturnsDrawScoreOnPriorKeyRepetition(t *testing.T) {
	pos := shogi.NewPosition()
	w := NewWorker(0, ttable.New(1), ordering.New(), NewSignals(), 0)
	w.SetPosition(pos, nil, 0)
	w.priorKeys = []uint64{pos.Key}

	score := w.Negamax(NonPV, 3, 1, -1000, 1000, false)
	require.Equal(t, 0, score) // drawScoreOption defaults to 0
}

func TestNegamaxMateDistancePruningShortCircuits(t *testing.T) {
	w := NewWorker(0, ttable.New(1), ordering.New(), NewSignals(), 0)
	w.SetPosition(shogi.NewPosition(), nil, 0)

	// alpha already exceeds mateIn(ply+1) once beta is clamped to it, so
	// the node must return alpha without touching the position further.
	score := w.Negamax(NonPV, 5, 5, 29995, MateScore, false)
	require.Equal(t, 29995, score)
}

func TestNegamaxFindsForcedMateFromRoot(t *testing.T) {
	pos, err := shogi.ParseSFEN("4k4/R8/9/8R/9/9/9/9/4K4 b - 1")
	require.NoError(t, err)

	w := NewWorker(0, ttable.New(1), ordering.New(), NewSignals(), 0)
	w.SetPosition(pos, nil, 0)
	var ml shogi.MoveList
	w.pos.GenerateMoves(&ml)
	legal := make([]shogi.Move, 0, ml.Len())
	for i := 0; i < ml.Len(); i++ {
		if w.pos.IsLegal(ml.Get(i)) {
			legal = append(legal, ml.Get(i))
		}
	}
	w.SetRootMoves(NewRootMoves(legal, nil))

	score := w.Negamax(Root, 2, 0, -MateScore, MateScore, false)
	require.Greater(t, score, MateInMaxPly)

	from, to := shogi.NewSquare(8, 3), shogi.NewSquare(8, 0)
	var rm *RootMove
	for _, r := range w.rootMoves {
		if r.Move.From == from && r.Move.To == to {
			rm = r
			break
		}
	}
	require.NotNil(t, rm, "mating rook slide must be a root move")
	require.Greater(t, rm.Score, MateInMaxPly)
}

func TestRazorAndFutilityMarginsGrowWithDepth(t *testing.T) {
	require.Less(t, razorMargin(1), razorMargin(2))
	require.Less(t, futilityMargin(1), futilityMargin(2))
}
