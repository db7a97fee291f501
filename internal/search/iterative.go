package search

import "github.com/hagoromo-shogi/engine/internal/shogi"

const (
	aspirationMinDepth = 5
	aspirationWindow   = 64
)

// Info is one iteration's report, handed to the caller's progress callback
// per §4.6. It carries no wall-clock timestamp: time-keeping is the
// responsibility of the caller (internal/timeman drives w.signals.Stop).
type Info struct {
	Depth        int
	MultiPVIndex int
	Score        int
	Nodes        uint64
	PV           []shogi.Move
}

// IterativeDeepen runs §4.6's driver: depths 1..maxDepth, MultiPV slots
// 0..multiPV-1, aspiration windows from aspirationMinDepth on, reporting
// each completed (depth, pvIndex) through onInfo. It returns once maxDepth
// is reached or w.signals.Stop is set. Grounded on the teacher's
// engine.workerSearch loop, generalized from its queen-value-scaled
// volatility bucketing to a fixed x1.5 widening schedule and extended with the
// MultiPV suffix-restriction the teacher's single-PV workers don't need.
func (w *Worker) IterativeDeepen(maxDepth, multiPV int, onInfo func(Info)) {
	if multiPV < 1 {
		multiPV = 1
	}
	if multiPV > len(w.rootMoves) {
		multiPV = len(w.rootMoves)
	}
	if len(w.rootMoves) == 0 {
		return
	}

	for depth := 1; depth <= maxDepth; depth++ {
		if w.signals.Stop.Load() {
			return
		}
		if depth > 1 && w.skipIteration(depth) {
			continue
		}

		for pvIdx := 0; pvIdx < multiPV; pvIdx++ {
			if w.signals.Stop.Load() {
				return
			}
			w.multiPVCursor = pvIdx
			rm := w.rootMoves[pvIdx]

			score := w.searchRootAspiration(depth, rm.PreviousScore)

			if w.signals.Stop.Load() && depth > 1 {
				return
			}

			rm.PreviousScore = score
			w.rootMoves.SortFrom(pvIdx)
			w.signals.FirstMoveCompleted.Store(true)

			// Replant this iteration's settled PVs into the table (§4.1),
			// keeping it in sync even for positions a plain Save along the
			// search itself wouldn't revisit.
			for i := 0; i <= pvIdx; i++ {
				w.tt.InsertMoves(w.pos, w.rootMoves[i].PV)
			}

			if onInfo != nil {
				onInfo(Info{
					Depth:        depth,
					MultiPVIndex: pvIdx,
					Score:        w.rootMoves[pvIdx].Score,
					Nodes:        w.nodes,
					PV:           append([]shogi.Move(nil), w.rootMoves[pvIdx].PV...),
				})
			}
		}
	}
}

// searchRootAspiration runs one depth's root search, narrowing around
// prevScore once depth and a usable previous score both warrant it,
// widening geometrically on either side of the window that fails.
func (w *Worker) searchRootAspiration(depth, prevScore int) int {
	if depth < aspirationMinDepth || prevScore == 0 {
		return w.Negamax(Root, depth, 0, -MateScore, MateScore, false)
	}

	window := aspirationWindow
	alpha := clampScore(prevScore - window)
	beta := clampScore(prevScore + window)

	for {
		score := w.Negamax(Root, depth, 0, alpha, beta, false)
		if w.signals.Stop.Load() {
			return score
		}
		if alpha <= -MateScore && beta >= MateScore {
			return score
		}
		if score <= alpha {
			window += window / 2
			alpha = clampScore(prevScore - window)
		} else if score >= beta {
			window += window / 2
			beta = clampScore(prevScore + window)
		} else {
			return score
		}
	}
}

func clampScore(v int) int {
	if v < -MateScore {
		return -MateScore
	}
	if v > MateScore {
		return MateScore
	}
	return v
}
