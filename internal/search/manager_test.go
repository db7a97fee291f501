package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hagoromo-shogi/engine/internal/ordering"
	"github.com/hagoromo-shogi/engine/internal/shogi"
	"github.com/hagoromo-shogi/engine/internal/ttable"
)

func TestNewManagerBuildsOneWorkerPerThreadSharingPoolState(t *testing.T) {
	tt := ttable.New(1)
	tables := ordering.New()
	m := NewManager(4, tt, tables, 0)

	require.Len(t, m.workers, 4)
	for _, w := range m.workers {
		require.Same(t, tt, w.tt)
		require.Same(t, tables, w.tables)
		require.Same(t, m.signals, w.signals)
	}
}

func TestNewManagerClampsThreadCountToAtLeastOne(t *testing.T) {
	m := NewManager(0, ttable.New(1), ordering.New(), 0)
	require.Len(t, m.workers, 1)
}

func TestManagerSetDrawScorePropagatesToEveryWorker(t *testing.T) {
	m := NewManager(3, ttable.New(1), ordering.New(), 0)
	m.SetDrawScore(-25)

	for _, w := range m.workers {
		require.Equal(t, -25, w.drawScoreOption)
	}
}

func TestManagerStopRaisesSharedSignal(t *testing.T) {
	m := NewManager(1, ttable.New(1), ordering.New(), 0)
	require.False(t, m.Signals().Stop.Load())
	m.Stop()
	require.True(t, m.Signals().Stop.Load())
}

func TestManagerTotalNodesSumsAcrossWorkers(t *testing.T) {
	m := NewManager(2, ttable.New(1), ordering.New(), 0)
	m.workers[0].nodes = 10
	m.workers[1].nodes = 7
	require.EqualValues(t, 17, m.TotalNodes())
}

func TestManagerGoReturnsEmptyRootMovesWhenSearchmovesMatchesNothing(t *testing.T) {
	start := shogi.NewPosition()
	mgr := NewManager(1, ttable.New(1), ordering.New(), 0)
	// A searchmoves restriction matching no legal move exercises the same
	// early-return path a real stalemate-free checkmate would.
	rm := mgr.Go(context.Background(), start, nil, 0, 1, 1, []shogi.Move{{From: 0, To: 0}}, nil)
	require.Empty(t, rm)
}

func TestManagerGoFindsForcedMateAtShallowDepth(t *testing.T) {
	pos, err := shogi.ParseSFEN("4k4/R8/9/8R/9/9/9/9/4K4 b - 1")
	require.NoError(t, err)

	m := NewManager(1, ttable.New(1), ordering.New(), 0)
	rm := m.Go(context.Background(), pos, nil, 0, 2, 1, nil, nil)
	require.NotEmpty(t, rm)

	best := rm[0]
	require.Equal(t, shogi.NewSquare(8, 3), best.Move.From)
	require.Equal(t, shogi.NewSquare(8, 0), best.Move.To)
	require.Greater(t, best.Score, MateInMaxPly)
}
