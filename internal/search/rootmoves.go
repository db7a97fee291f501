package search

import (
	"sort"

	"github.com/hagoromo-shogi/engine/internal/shogi"
)

// RootMove is one legal move at the root, with the bookkeeping §3 names:
// running best score, previous-iteration score, a PV vector, and the
// cumulative node count searched under this move.
type RootMove struct {
	Move         shogi.Move
	Score        int
	PreviousScore int
	PV           []shogi.Move
	Nodes        uint64
	// Selected marks a move still under consideration for the current
	// MultiPV cursor; moves beyond the cursor are excluded from the
	// window but remain in the slice so a later pv_index can reach them.
	Selected bool
}

// RootMoves is the ordered set of root moves, sorted descending by Score to
// determine the overall best (ties keep the move closer to its previous
// rank, mirroring a stable sort).
type RootMoves []*RootMove

// NewRootMoves builds the initial root-move set from the legal moves at pos,
// optionally restricted to searchmoves (nil/empty means "all").
func NewRootMoves(legal []shogi.Move, searchmoves []shogi.Move) RootMoves {
	allowed := func(m shogi.Move) bool {
		if len(searchmoves) == 0 {
			return true
		}
		for _, s := range searchmoves {
			if s == m {
				return true
			}
		}
		return false
	}
	rm := make(RootMoves, 0, len(legal))
	for _, m := range legal {
		if !allowed(m) {
			continue
		}
		rm = append(rm, &RootMove{Move: m, PV: []shogi.Move{m}})
	}
	return rm
}

// SortFrom stable-sorts the suffix [from:] descending by Score, used
// between aspiration re-searches to keep the root moves partially sorted
// above the current MultiPV cursor per §4.6.
func (rm RootMoves) SortFrom(from int) {
	sort.SliceStable(rm[from:], func(i, j int) bool {
		return rm[from+i].Score > rm[from+j].Score
	})
}

// Find returns the RootMove for m, or nil if m is not a root move.
func (rm RootMoves) Find(m shogi.Move) *RootMove {
	for _, r := range rm {
		if r.Move == m {
			return r
		}
	}
	return nil
}

// Index returns the position of m in rm, or -1.
func (rm RootMoves) Index(m shogi.Move) int {
	for i, r := range rm {
		if r.Move == m {
			return i
		}
	}
	return -1
}
