package search

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hagoromo-shogi/engine/internal/ordering"
	"github.com/hagoromo-shogi/engine/internal/shogi"
	"github.com/hagoromo-shogi/engine/internal/ttable"
)

func TestClampScoreBounds(t *testing.T) {
	require.Equal(t, -MateScore, clampScore(-40000))
	require.Equal(t, MateScore, clampScore(40000))
	require.Equal(t, 100, clampScore(100))
}

func newIterativeWorker(t *testing.T, pos *shogi.Position) *Worker {
	t.Helper()
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
	return w
}

func TestIterativeDeepenNoopWithoutRootMoves(t *testing.T) {
	w := NewWorker(0, ttable.New(1), ordering.New(), NewSignals(), 0)
	w.SetPosition(shogi.NewPosition(), nil, 0)
	w.SetRootMoves(nil)

	called := false
	w.IterativeDeepen(4, 1, func(Info) { called = true })
	require.False(t, called)
}

func TestIterativeDeepenReportsEveryDepth(t *testing.T) {
	w := newIterativeWorker(t, shogi.NewPosition())

	var depths []int
	w.IterativeDeepen(3, 1, func(i Info) {
		depths = append(depths, i.Depth)
		require.NotEmpty(t, i.PV)
	})

	require.Equal(t, []int{1, 2, 3}, depths)
}

func TestIterativeDeepenStopsImmediatelyWhenSignalAlreadySet(t *testing.T) {
	w := newIterativeWorker(t, shogi.NewPosition())
	w.signals.Stop.Store(true)

	called := false
	w.IterativeDeepen(3, 1, func(Info) { called = true })
	require.False(t, called)
}

func TestIterativeDeepenClampsMultiPVToRootMoveCount(t *testing.T) {
	w := newIterativeWorker(t, shogi.NewPosition())
	total := len(w.rootMoves)

	seen := make(map[int]bool)
	w.IterativeDeepen(1, total+50, func(i Info) {
		seen[i.MultiPVIndex] = true
	})

	require.Len(t, seen, total)
}
