package cluster

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hagoromo-shogi/engine/internal/usiproto"
)

func TestSplitAssignsIgnoreMovesAndRemainder(t *testing.T) {
	tr := newTree()
	tr.Split([]string{"7g7f", "2g2f"}, []string{"7g7f", "2g2f", "1g1f", "9g9f"})

	leaves := tr.RegisterAllLeafNodes()
	require.Len(t, leaves, 3) // two split moves plus one remainder

	var sawRemainder bool
	for _, h := range leaves {
		n := tr.node(h)
		switch n.move {
		case "7g7f", "2g2f":
			// a normal split child plays its own move and has no
			// ignoreMoves of its own: the original, matching
			// MinimaxNode::Split, restricts siblings by giving only the
			// remainder node a non-empty ignoremoves_.
			require.Empty(t, n.ignoreMoves)
		case "":
			sawRemainder = true
			require.ElementsMatch(t, []string{"7g7f", "2g2f"}, n.ignoreMoves)
		default:
			t.Fatalf("unexpected leaf move %q", n.move)
		}
	}
	require.True(t, sawRemainder)
}

func TestSplitNoRemainderWhenTopMovesCoverAllLegalMoves(t *testing.T) {
	tr := newTree()
	tr.Split([]string{"7g7f", "2g2f"}, []string{"7g7f", "2g2f"})

	leaves := tr.RegisterAllLeafNodes()
	require.Len(t, leaves, 2)
	for _, h := range leaves {
		require.NotEqual(t, "", tr.node(h).move)
	}
}

func TestSplitCapsAtMaxSplitAtRoot(t *testing.T) {
	topMoves := make([]string, 0, maxSplitAtRoot+3)
	for i := 0; i < maxSplitAtRoot+3; i++ {
		topMoves = append(topMoves, string(rune('a'+i))+"1a2")
	}

	tr := newTree()
	tr.Split(topMoves, topMoves)

	leaves := tr.RegisterAllLeafNodes()
	// every move beyond maxSplitAtRoot falls into the remainder leaf.
	require.Len(t, leaves, maxSplitAtRoot+1)
}

func TestGetPositionCommandAppendsMoveOrInheritsBase(t *testing.T) {
	tr := newTree()
	tr.Split([]string{"7g7f"}, []string{"7g7f", "2g2f"})
	leaves := tr.RegisterAllLeafNodes()

	var splitLeaf, remainderLeaf nodeHandle
	for _, h := range leaves {
		if tr.node(h).move == "" {
			remainderLeaf = h
		} else {
			splitLeaf = h
		}
	}

	require.Equal(t, "position startpos moves 7g7f",
		tr.GetPositionCommand(splitLeaf, "position startpos"))
	require.Equal(t, "position startpos moves 2g2f 7g7f",
		tr.GetPositionCommand(splitLeaf, "position startpos moves 2g2f"))
	require.Equal(t, "position startpos",
		tr.GetPositionCommand(remainderLeaf, "position startpos"))
}

func TestGetGoCommandIgnoreMovesFormatting(t *testing.T) {
	tr := newTree()
	tr.Split([]string{"7g7f", "2g2f"}, []string{"7g7f", "2g2f", "1g1f"})
	leaves := tr.RegisterAllLeafNodes()

	for _, h := range leaves {
		n := tr.node(h)
		got := tr.GetGoCommand(h)
		if len(n.ignoreMoves) == 0 {
			require.Equal(t, "go infinite", got)
		} else {
			require.Contains(t, got, "go infinite ignoremoves")
			for _, m := range n.ignoreMoves {
				require.Contains(t, got, m)
			}
		}
	}
}

func TestUpdateMinimaxTreeAggregatesNegamaxUpToRoot(t *testing.T) {
	tr := newTree()
	tr.Split([]string{"7g7f", "2g2f"}, []string{"7g7f", "2g2f"})
	leaves := tr.RegisterAllLeafNodes()
	require.Len(t, leaves, 2)

	var leafA, leafB nodeHandle
	for _, h := range leaves {
		switch tr.node(h).move {
		case "7g7f":
			leafA = h
		case "2g2f":
			leafB = h
		}
	}

	// leafA's worker reports a score of +100 for the opponent's reply,
	// which negamaxes up to -100 from the root's perspective; leafB's
	// worker reports +50 (negamaxes to -50, the better root choice).
	tr.UpdateMinimaxTree(leafA, usiproto.ChildInfo{Depth: 10, Score: 100, Nodes: 1000}, "", false)
	tr.UpdateMinimaxTree(leafB, usiproto.ChildInfo{Depth: 8, Score: 50, Nodes: 500}, "", false)

	root := tr.Root()
	require.Equal(t, -50, root.Score())
	require.Equal(t, "2g2f", root.bestMove)
	require.Equal(t, uint64(1500), root.Nodes())
	require.False(t, root.settled)

	tr.UpdateMinimaxTree(leafA, usiproto.ChildInfo{Depth: 10, Score: 100, Nodes: 1000}, "7g7f", true)
	tr.UpdateMinimaxTree(leafB, usiproto.ChildInfo{Depth: 8, Score: 50, Nodes: 500}, "2g2f", true)

	require.True(t, tr.Root().settled)
}

func TestAggregateDoesNotFlipRemainderChild(t *testing.T) {
	tr := newTree()
	// One split move plus a remainder covering everything else: the
	// remainder searches the exact same position as the root (no move
	// played), so its score arrives already in the root's perspective.
	tr.Split([]string{"7g7f"}, []string{"7g7f", "2g2f", "1g1f"})
	leaves := tr.RegisterAllLeafNodes()
	require.Len(t, leaves, 2)

	var splitLeaf, remainderLeaf nodeHandle
	for _, h := range leaves {
		if tr.node(h).move == "" {
			remainderLeaf = h
		} else {
			splitLeaf = h
		}
	}

	// The split child's score negamaxes to -40 from the root; the
	// remainder's score of +60 is already root-relative and must pass
	// through unflipped, winning over the split child's -40.
	tr.UpdateMinimaxTree(splitLeaf, usiproto.ChildInfo{Depth: 10, Score: 40, Nodes: 100}, "", false)
	tr.UpdateMinimaxTree(remainderLeaf, usiproto.ChildInfo{Depth: 10, Score: 60, Nodes: 200}, "", false)

	require.Equal(t, 60, tr.Root().Score())
}

func TestSortRankedMateFirstThenDescendingScore(t *testing.T) {
	in := map[int]rankedMove{
		1: {score: 100, move: "a"},
		2: {score: 500, mate: true, move: "mate-in-far"},
		3: {score: 300, move: "b"},
		4: {score: 900, mate: true, move: "mate-in-near"},
	}
	got := sortRanked(in)
	require.Equal(t, []string{"mate-in-near", "mate-in-far", "b", "a"}, got)
}
