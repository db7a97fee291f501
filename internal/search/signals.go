// Package search implements the C1 shared signals and root-move set, the
// C5 main alpha-beta search, the C6 quiescence search, the C7
// iterative-deepening driver, and the C8 Lazy-SMP thread manager. Grounded
// on the teacher's internal/engine/worker.go and engine.go (Worker/Engine
// struct shapes, negamax structure, LMR table, pruning cascade) generalized
// from chess to shogi via the internal/shogi, internal/ttable and
// internal/ordering packages, and on golang.org/x/sync/errgroup (used
// elsewhere in the pack's dependency surface) for the worker pool lifecycle
// the teacher instead ran with raw goroutines+sync.WaitGroup.
package search

import "sync/atomic"

// MaxPly bounds recursion depth and the search-stack/PV-table arrays.
const MaxPly = 128

// MateScore is the score assigned to an immediate mate at ply 0; scores in
// [MateScore-MaxPly, MateScore] encode "mate in N" by subtracting N.
const MateScore = 30000

// MateInMaxPly mirrors ttable.MateInMaxPly: scores at or beyond this
// magnitude are considered "in the mate range" for pruning purposes.
const MateInMaxPly = MateScore - 128

func matedIn(ply int) int { return -MateScore + ply }
func mateIn(ply int) int  { return MateScore - ply }

// Signals are the four atomic booleans §3 requires, shared by the master
// and every worker. Acquire/release semantics come for free from
// sync/atomic's sequential-consistency guarantee on these types; the spec
// only requires that a worker observing Stop cease recursing before its
// next node-counter increment, which a plain Load satisfies.
type Signals struct {
	Stop               atomic.Bool
	Ponderhit          atomic.Bool
	FirstMoveCompleted atomic.Bool
	LimitReached       atomic.Bool
}

// NewSignals returns a zeroed signal set (all flags false).
func NewSignals() *Signals {
	return &Signals{}
}

// Reset clears all flags for a new search.
func (s *Signals) Reset() {
	s.Stop.Store(false)
	s.Ponderhit.Store(false)
	s.FirstMoveCompleted.Store(false)
	s.LimitReached.Store(false)
}
