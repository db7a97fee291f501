package search

import "github.com/hagoromo-shogi/engine/internal/shogi"

// stackFrame is one per-ply search-stack entry (§3). Killer moves live in
// internal/ordering (shared across the whole search, indexed by ply) rather
// than here, matching the teacher's MoveOrderer placement; this frame holds
// the rest: the hash move considered at this node, the move actually being
// tried, the move excluded for a singular-extension probe, the reduction
// applied to reach this node, the static score, and a skip-null-move flag.
// Two sentinel frames precede ply 0 so negamax can read ss[-1]/ss[-2]
// (modeled here as frames at array indices 0 and 1, with "ply p" stored at
// index p+2).
type stackFrame struct {
	currentMove  shogi.Move
	excludedMove shogi.Move
	hashMove     shogi.Move
	staticEval   int
	staticKnown  bool
	reduction    int
	skipNullMove bool
	cutoffCount  int
}

// stackSize covers MaxPly real plies plus two leading sentinels.
const stackSize = MaxPly + 2

func newSearchStack() [stackSize]stackFrame {
	var s [stackSize]stackFrame
	for i := range s {
		s[i].hashMove = shogi.NullMove
		s[i].currentMove = shogi.NullMove
		s[i].excludedMove = shogi.NullMove
	}
	return s
}

// frame returns the stack slot for ply p (0-based from root).
func frame(ss *[stackSize]stackFrame, p int) *stackFrame {
	return &ss[p+2]
}
