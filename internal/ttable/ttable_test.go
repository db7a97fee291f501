package ttable

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hagoromo-shogi/engine/internal/shogi"
)

func TestSaveAndLookupRoundTrip(t *testing.T) {
	tt := New(1)
	pos := shogi.NewPosition()
	var ml shogi.MoveList
	pos.GenerateMoves(&ml)
	m := ml.Get(0)

	tt.Save(pos.Key, m, 123, 7, BoundExact, 45, false)

	e, ok := tt.Lookup(pos.Key)
	require.True(t, ok)
	require.Equal(t, m, e.Move)
	require.EqualValues(t, 123, e.Score)
	require.EqualValues(t, 7, e.Depth)
	require.Equal(t, BoundExact, e.Bound)
	require.EqualValues(t, 45, e.StaticEval)
}

func TestLookupMissReturnsFalse(t *testing.T) {
	tt := New(1)
	_, ok := tt.Lookup(0xdeadbeef)
	require.False(t, ok)
}

func TestSaveWithNullMovePreservesExistingMove(t *testing.T) {
	tt := New(1)
	pos := shogi.NewPosition()
	var ml shogi.MoveList
	pos.GenerateMoves(&ml)
	m := ml.Get(0)

	tt.Save(pos.Key, m, 10, 3, BoundExact, 0, false)
	// Re-storing a refined score/bound without a rediscovered best move
	// (null move) must not clobber the previously saved one.
	tt.Save(pos.Key, shogi.NullMove, 20, 3, BoundLower, 0, false)

	e, ok := tt.Lookup(pos.Key)
	require.True(t, ok)
	require.Equal(t, m, e.Move)
	require.EqualValues(t, 20, e.Score)
	require.Equal(t, BoundLower, e.Bound)
}

func TestSaveOverwritesMatchingKeyRegardlessOfAge(t *testing.T) {
	tt := New(1)
	pos := shogi.NewPosition()
	var ml shogi.MoveList
	pos.GenerateMoves(&ml)
	m1, m2 := ml.Get(0), ml.Get(1)

	tt.Save(pos.Key, m1, 10, 10, BoundExact, 0, false)
	tt.NextAge()
	tt.Save(pos.Key, m2, 20, 1, BoundExact, 0, false)

	e, ok := tt.Lookup(pos.Key)
	require.True(t, ok)
	require.Equal(t, m2, e.Move)
	require.EqualValues(t, 1, e.Depth)
}

func TestClearRemovesEverything(t *testing.T) {
	tt := New(1)
	pos := shogi.NewPosition()
	var ml shogi.MoveList
	pos.GenerateMoves(&ml)
	tt.Save(pos.Key, ml.Get(0), 10, 10, BoundExact, 0, false)

	tt.Clear()

	_, ok := tt.Lookup(pos.Key)
	require.False(t, ok)
}

func TestScoreToTTAndBackRoundTripsMateScores(t *testing.T) {
	const ply = 4
	for _, score := range []int{MateInMaxPly, MateInMaxPly + 500, -MateInMaxPly, -(MateInMaxPly + 500), 0, 37} {
		stored := ScoreToTT(score, ply)
		require.Equal(t, score, ScoreFromTT(stored, ply))
	}
}

func TestInsertMovesReplantsAlongPV(t *testing.T) {
	tt := New(1)
	pos := shogi.NewPosition()

	var ml shogi.MoveList
	pos.GenerateMoves(&ml)
	var first shogi.Move
	for i := 0; i < ml.Len(); i++ {
		if pos.IsLegal(ml.Get(i)) {
			first = ml.Get(i)
			break
		}
	}
	require.False(t, first.IsNull())

	// Pre-populate the root entry the way a real search would, with a
	// stale move InsertMoves should overwrite.
	var stale shogi.Move
	for i := 0; i < ml.Len(); i++ {
		if pos.IsLegal(ml.Get(i)) && ml.Get(i) != first {
			stale = ml.Get(i)
			break
		}
	}
	tt.Save(pos.Key, stale, 0, 1, BoundExact, 0, false)

	next := pos.Copy()
	var undo shogi.UndoInfo
	next.MakeMove(first, &undo)
	var nextMl shogi.MoveList
	next.GenerateMoves(&nextMl)
	var reply shogi.Move
	for i := 0; i < nextMl.Len(); i++ {
		if next.IsLegal(nextMl.Get(i)) {
			reply = nextMl.Get(i)
			break
		}
	}
	require.False(t, reply.IsNull())
	tt.Save(next.Key, reply, 0, 1, BoundExact, 0, false)

	tt.InsertMoves(pos, []shogi.Move{first, reply})

	e, ok := tt.Lookup(pos.Key)
	require.True(t, ok)
	require.Equal(t, first, e.Move)

	e2, ok := tt.Lookup(next.Key)
	require.True(t, ok)
	require.Equal(t, reply, e2.Move)
}

func TestInsertMovesStopsWhenNoEntryToReplantInto(t *testing.T) {
	tt := New(1)
	pos := shogi.NewPosition()
	var ml shogi.MoveList
	pos.GenerateMoves(&ml)
	var first shogi.Move
	for i := 0; i < ml.Len(); i++ {
		if pos.IsLegal(ml.Get(i)) {
			first = ml.Get(i)
			break
		}
	}
	require.False(t, first.IsNull())

	// Nothing saved anywhere: InsertMoves must not panic or fabricate an
	// entry, just stop at the first unoccupied slot.
	tt.InsertMoves(pos, []shogi.Move{first})

	_, ok := tt.Lookup(pos.Key)
	require.False(t, ok)
}

func TestExtractMovesWalksExistingPVThenExtendsFromTable(t *testing.T) {
	tt := New(1)
	pos := shogi.NewPosition()

	var ml shogi.MoveList
	pos.GenerateMoves(&ml)
	var first shogi.Move
	for i := 0; i < ml.Len(); i++ {
		if pos.IsLegal(ml.Get(i)) {
			first = ml.Get(i)
			break
		}
	}
	require.False(t, first.IsNull())

	next := pos.Copy()
	var undo shogi.UndoInfo
	next.MakeMove(first, &undo)
	var nextMl shogi.MoveList
	next.GenerateMoves(&nextMl)
	var reply shogi.Move
	for i := 0; i < nextMl.Len(); i++ {
		if next.IsLegal(nextMl.Get(i)) {
			reply = nextMl.Get(i)
			break
		}
	}
	require.False(t, reply.IsNull())

	// The table holds a continuation one move beyond the live PV.
	tt.Save(next.Key, reply, 0, 1, BoundExact, 0, false)

	out := tt.ExtractMoves(pos, []shogi.Move{first}, 8)
	require.Equal(t, []shogi.Move{first, reply}, out)
}

func TestExtractMovesRespectsMaxLen(t *testing.T) {
	tt := New(1)
	pos := shogi.NewPosition()
	var ml shogi.MoveList
	pos.GenerateMoves(&ml)
	var first shogi.Move
	for i := 0; i < ml.Len(); i++ {
		if pos.IsLegal(ml.Get(i)) {
			first = ml.Get(i)
			break
		}
	}
	require.False(t, first.IsNull())

	out := tt.ExtractMoves(pos, []shogi.Move{first}, 1)
	require.Len(t, out, 1)
}

func TestHashfullReflectsCurrentGenerationOnly(t *testing.T) {
	tt := New(1)
	require.Equal(t, 0, tt.Hashfull())

	pos := shogi.NewPosition()
	var ml shogi.MoveList
	pos.GenerateMoves(&ml)
	tt.Save(pos.Key, ml.Get(0), 0, 1, BoundExact, 0, false)

	require.Greater(t, tt.Hashfull(), 0)
}
