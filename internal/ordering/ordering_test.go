package ordering

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hagoromo-shogi/engine/internal/shogi"
)

func quietMove(from, to shogi.Square, pt shogi.PieceType) shogi.Move {
	return shogi.Move{From: from, To: to, Piece: pt, Promoted: pt}
}

func TestUpdateKillersKeepsTwoMostRecentDistinct(t *testing.T) {
	tab := New()
	m1 := quietMove(10, 20, shogi.Pawn)
	m2 := quietMove(11, 21, shogi.Silver)
	m3 := quietMove(12, 22, shogi.Gold)

	tab.UpdateKillers(m1, 5)
	k1, k2 := tab.Killers(5)
	require.Equal(t, m1, k1)
	require.True(t, k2.IsNull())

	tab.UpdateKillers(m2, 5)
	k1, k2 = tab.Killers(5)
	require.Equal(t, m2, k1)
	require.Equal(t, m1, k2)

	// Re-recording the current top killer is a no-op.
	tab.UpdateKillers(m2, 5)
	k1, k2 = tab.Killers(5)
	require.Equal(t, m2, k1)
	require.Equal(t, m1, k2)

	tab.UpdateKillers(m3, 5)
	k1, k2 = tab.Killers(5)
	require.Equal(t, m3, k1)
	require.Equal(t, m2, k2)
}

func TestKillersOutOfRangePlyReturnsNull(t *testing.T) {
	tab := New()
	k1, k2 := tab.Killers(-1)
	require.True(t, k1.IsNull())
	require.True(t, k2.IsNull())

	k1, k2 = tab.Killers(MaxPly)
	require.True(t, k1.IsNull())
	require.True(t, k2.IsNull())
}

func TestUpdateHistorySaturatesAtHistoryMax(t *testing.T) {
	tab := New()
	m := quietMove(10, 20, shogi.Pawn)

	for i := 0; i < 50; i++ {
		tab.UpdateHistory(m, 20, true)
	}
	require.Equal(t, HistoryMax, tab.HistoryScore(m))

	for i := 0; i < 50; i++ {
		tab.UpdateHistory(m, 20, false)
	}
	require.Equal(t, -HistoryMax, tab.HistoryScore(m))
}

func TestUpdateHistoryGoodAndBadMoveInOppositeDirections(t *testing.T) {
	tab := New()
	m := quietMove(10, 20, shogi.Pawn)

	tab.UpdateHistory(m, 4, true)
	require.Greater(t, tab.HistoryScore(m), 0)

	tab2 := New()
	tab2.UpdateHistory(m, 4, false)
	require.Less(t, tab2.HistoryScore(m), 0)
}

func TestCounterMovesRecordsUpToTwoMostRecent(t *testing.T) {
	tab := New()
	prev := quietMove(1, 2, shogi.Pawn)
	r1 := quietMove(3, 4, shogi.Silver)
	r2 := quietMove(5, 6, shogi.Gold)

	c1, c2 := tab.CounterMoves(prev)
	require.True(t, c1.IsNull())
	require.True(t, c2.IsNull())

	tab.UpdateCounterMove(prev, r1)
	tab.UpdateCounterMove(prev, r2)
	c1, c2 = tab.CounterMoves(prev)
	require.Equal(t, r2, c1)
	require.Equal(t, r1, c2)
}

func TestCounterMovesNullProvokerIsNoop(t *testing.T) {
	tab := New()
	reply := quietMove(3, 4, shogi.Silver)
	tab.UpdateCounterMove(shogi.NullMove, reply)

	c1, c2 := tab.CounterMoves(shogi.NullMove)
	require.True(t, c1.IsNull())
	require.True(t, c2.IsNull())
}

func TestFollowUpMovesRecordsUpToTwoMostRecent(t *testing.T) {
	tab := New()
	grandparent := quietMove(1, 2, shogi.Pawn)
	r1 := quietMove(3, 4, shogi.Silver)
	r2 := quietMove(5, 6, shogi.Gold)

	tab.UpdateFollowUpMove(grandparent, r1)
	tab.UpdateFollowUpMove(grandparent, r2)
	f1, f2 := tab.FollowUpMoves(grandparent)
	require.Equal(t, r2, f1)
	require.Equal(t, r1, f2)
}

func TestCountermoveHistoryScoreTracksUpdates(t *testing.T) {
	tab := New()
	prev := quietMove(1, 2, shogi.Pawn)
	m := quietMove(3, 4, shogi.Silver)

	require.Equal(t, 0, tab.CountermoveHistoryScore(prev, m))
	tab.UpdateCountermoveHistory(prev, m, 10, true)
	require.Greater(t, tab.CountermoveHistoryScore(prev, m), 0)

	// A null previous move carries no countermove-history context.
	require.Equal(t, 0, tab.CountermoveHistoryScore(shogi.NullMove, m))
}

func TestGainAveragesAndDefaultsToZero(t *testing.T) {
	tab := New()
	m := quietMove(10, 20, shogi.Pawn)
	require.Equal(t, 0, tab.Gain(m))

	tab.UpdateGain(m, 100)
	require.Equal(t, 50, tab.Gain(m)) // sum=100, count=1 -> 100/2

	tab.UpdateGain(m, 100)
	require.Equal(t, 66, tab.Gain(m)) // sum=200, count=2 -> 200/3
}

func TestMVVLVAPrefersHigherValueVictim(t *testing.T) {
	tab := New()
	cheap := shogi.Move{From: 1, To: 2, Piece: shogi.Pawn, Promoted: shogi.Pawn, Captured: shogi.Pawn}
	rich := shogi.Move{From: 1, To: 2, Piece: shogi.Pawn, Promoted: shogi.Pawn, Captured: shogi.Rook}

	require.Greater(t, tab.MVVLVA(rich), tab.MVVLVA(cheap))
}

func TestClearWipesKillersAndCounterMovesButHalvesHistory(t *testing.T) {
	tab := New()
	m := quietMove(10, 20, shogi.Pawn)
	prev := quietMove(1, 2, shogi.Pawn)
	reply := quietMove(3, 4, shogi.Silver)

	tab.UpdateKillers(m, 5)
	tab.UpdateCounterMove(prev, reply)
	tab.UpdateHistory(m, 10, true)
	before := tab.HistoryScore(m)
	tab.UpdateGain(m, 100)

	tab.Clear()

	k1, k2 := tab.Killers(5)
	require.True(t, k1.IsNull())
	require.True(t, k2.IsNull())

	c1, c2 := tab.CounterMoves(prev)
	require.True(t, c1.IsNull())
	require.True(t, c2.IsNull())

	require.Equal(t, before/2, tab.HistoryScore(m))
	require.Equal(t, 0, tab.Gain(m))
}
