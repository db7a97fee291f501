package search

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hagoromo-shogi/engine/internal/ordering"
	"github.com/hagoromo-shogi/engine/internal/shogi"
	"github.com/hagoromo-shogi/engine/internal/ttable"
)

func newReductionWorker() *Worker {
	return NewWorker(0, ttable.New(1), ordering.New(), NewSignals(), 0)
}

func TestReductionForBumpsForCutNode(t *testing.T) {
	w := newReductionWorker()
	m := shogi.Move{From: 1, To: 2, Piece: shogi.Silver, Promoted: shogi.Silver}

	pv := w.reductionFor(10, 5, true, false, m)
	cut := w.reductionFor(10, 5, false, true, m)
	require.Equal(t, pv+1, cut)
}

func TestReductionForBumpsForNegativeHistory(t *testing.T) {
	w := newReductionWorker()
	m := shogi.Move{From: 1, To: 2, Piece: shogi.Silver, Promoted: shogi.Silver}

	base := w.reductionFor(10, 5, true, false, m)
	w.tables.UpdateHistory(m, 10, false)
	require.Less(t, w.tables.HistoryScore(m), 0)

	bumped := w.reductionFor(10, 5, true, false, m)
	require.Equal(t, base+1, bumped)
}

func TestReductionForReducesWhenCounterMoveMatches(t *testing.T) {
	w := newReductionWorker()
	m := shogi.Move{From: 1, To: 2, Piece: shogi.Silver, Promoted: shogi.Silver}

	base := w.reductionFor(10, 5, true, false, m)
	w.tables.UpdateCounterMove(m, m)
	c1, c2 := w.tables.CounterMoves(m)
	require.True(t, m == c1 || m == c2)

	reduced := w.reductionFor(10, 5, true, false, m)
	require.Equal(t, base-1, reduced)
}

func TestReductionForNeverNegative(t *testing.T) {
	w := newReductionWorker()
	m := shogi.Move{From: 1, To: 2, Piece: shogi.Silver, Promoted: shogi.Silver}

	// depth=1, moveCount=1 gives a zero base reduction; a counter-move
	// credit must not push it below zero.
	w.tables.UpdateCounterMove(m, m)
	r := w.reductionFor(1, 1, true, false, m)
	require.GreaterOrEqual(t, r, 0)
}
