package search

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hagoromo-shogi/engine/internal/ordering"
	"github.com/hagoromo-shogi/engine/internal/shogi"
	"github.com/hagoromo-shogi/engine/internal/ttable"
)

func newTestWorker(pos *shogi.Position) *Worker {
	w := NewWorker(0, ttable.New(1), ordering.New(), NewSignals(), 0)
	w.pos = pos
	w.rootColor = pos.SideToMove
	return w
}

func TestDetectRepetitionNoneWithEmptyHistory(t *testing.T) {
	w := newTestWorker(shogi.NewPosition())
	require.Equal(t, repNone, w.detectRepetition())
}

func TestDetectRepetitionDrawViaPriorKeys(t *testing.T) {
	pos := shogi.NewPosition()
	w := newTestWorker(pos)
	w.priorKeys = []uint64{pos.Key}

	require.Equal(t, repDraw, w.detectRepetition())
}

func TestDetectRepetitionDrawViaExactPosHistoryMatch(t *testing.T) {
	pos := shogi.NewPosition()
	w := newTestWorker(pos)
	cur := snapshot(pos)
	w.posHistory = []historyEntry{cur, cur}

	require.Equal(t, repDraw, w.detectRepetition())
}

func TestDetectRepetitionSuperiorWhenHandValueImproved(t *testing.T) {
	pos, err := shogi.ParseSFEN("lnsgkgsnl/1r5b1/p1ppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b P 1")
	require.NoError(t, err)
	w := newTestWorker(pos)

	cur := snapshot(pos)
	prev := cur
	prev.key = cur.key ^ 0xABCDEF // distinct from cur.key so the exact-repeat branch doesn't win the race
	prev.handValue[pos.SideToMove] = 0
	w.posHistory = []historyEntry{prev, cur}

	require.Equal(t, repSuperior, w.detectRepetition())
}

func TestDetectRepetitionInferiorWhenHandValueWorsened(t *testing.T) {
	pos, err := shogi.ParseSFEN("lnsgkgsnl/1r5b1/p1ppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b P 1")
	require.NoError(t, err)
	w := newTestWorker(pos)

	cur := snapshot(pos)
	prev := cur
	prev.key = cur.key ^ 0xABCDEF
	prev.handValue[pos.SideToMove] = cur.handValue[pos.SideToMove] + 100
	w.posHistory = []historyEntry{prev, cur}

	require.Equal(t, repInferior, w.detectRepetition())
}

func TestDetectRepetitionFoulTheirsOnContinuousCheck(t *testing.T) {
	// White rook on 9i checks black's king on 5i along the open bottom
	// rank (rank i); black is to move.
	pos, err := shogi.ParseSFEN("3k5/9/9/9/9/9/9/9/r3K4 b - 1")
	require.NoError(t, err)
	require.True(t, pos.IsInCheck(shogi.Black))

	w := newTestWorker(pos)
	cur := snapshot(pos)
	require.True(t, cur.inCheck)
	w.posHistory = []historyEntry{cur, cur}

	require.Equal(t, repFoulTheirs, w.detectRepetition())
}

func TestPushPopHistorySymmetry(t *testing.T) {
	pos := shogi.NewPosition()
	w := newTestWorker(pos)

	w.pushHistory()
	require.Len(t, w.posHistory, 1)
	require.Equal(t, snapshot(pos), w.posHistory[0])

	w.popHistory()
	require.Len(t, w.posHistory, 0)
}

func TestBoardOnlyKeyIgnoresHandButNotSideToMove(t *testing.T) {
	noHand, err := shogi.ParseSFEN("lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1")
	require.NoError(t, err)
	withHand, err := shogi.ParseSFEN("lnsgkgsnl/1r5b1/p1ppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b P 1")
	require.NoError(t, err)

	require.Equal(t, boardOnlyKey(noHand), boardOnlyKey(withHand))

	whiteToMove, err := shogi.ParseSFEN("lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL w - 1")
	require.NoError(t, err)
	require.NotEqual(t, boardOnlyKey(noHand), boardOnlyKey(whiteToMove))
}
