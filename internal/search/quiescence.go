package search

import (
	"github.com/hagoromo-shogi/engine/internal/movepick"
	"github.com/hagoromo-shogi/engine/internal/shogi"
	"github.com/hagoromo-shogi/engine/internal/ttable"
)

const maxQuiescencePly = 32

// Quiescence-depth thresholds selecting the movepick variant per §4.5,
// grounded on the teacher's kDepthQsChecks/kDepthQsNoChecks/
// kDepthQsRecaptures (movepick.h): qDepth starts at 0 on entry from the
// main search and decrements by one ply per recursive quiescence call.
const (
	qsDepthChecks     = 0
	qsDepthRecaptures = -5
)

// quiescence is the C6 leaf-stabilization search, §4.5. node is consulted
// only to skip the per-move legality check at the Root; quiescence keeps
// no PV line of its own. qDepth counts
// quiescence plies from the main search's entry point and drives which of
// the three movepick quiescence variants is in play.
func (w *Worker) quiescence(node NodeType, ply int, alpha, beta, qDepth int) int {
	w.nodes++
	if w.signals.Stop.Load() || ply >= MaxPly {
		return w.drawScore()
	}

	inCheck := w.pos.IsInCheck(w.pos.SideToMove)
	var prevMove shogi.Move
	if ply >= 1 {
		prevMove = frame(&w.ss, ply-1).currentMove
	}

	ttEntry, ttHit := w.tt.Lookup(w.pos.Key)
	var ttMove shogi.Move
	if ttHit {
		ttMove = ttEntry.Move
		if !ttMove.IsNull() && !w.pos.IsPseudoLegal(ttMove) {
			ttMove = shogi.NullMove
		}
		score := ttable.ScoreFromTT(int(ttEntry.Score), ply)
		switch ttEntry.Bound {
		case ttable.BoundExact:
			return score
		case ttable.BoundLower:
			if score >= beta {
				return score
			}
		case ttable.BoundUpper:
			if score <= alpha {
				return score
			}
		}
	}

	var standPat, bestScore int
	if inCheck {
		bestScore = matedIn(ply)
		standPat = bestScore
	} else {
		standPat = shogi.Evaluate(w.pos)
		bestScore = standPat
		if standPat >= beta {
			w.tt.Save(w.pos.Key, shogi.NullMove, ttable.ScoreToTT(standPat, ply), 0, ttable.BoundLower, standPat, false)
			return standPat
		}
		if standPat > alpha {
			alpha = standPat
		}
	}

	var variant movepick.Variant
	switch {
	case inCheck:
		variant = movepick.Evasion
	case qDepth > qsDepthChecks:
		variant = movepick.QuiescenceWithChecks
	case qDepth > qsDepthRecaptures && !prevMove.IsNull():
		variant = movepick.QuiescenceNoChecks
	case !prevMove.IsNull():
		variant = movepick.RecaptureOnly
	default:
		variant = movepick.QuiescenceNoChecks
	}
	picker := movepick.New(w.pos, w.tables, ply, ttMove, shogi.NullMove, shogi.NullMove).WithVariant(variant)
	if variant == movepick.RecaptureOnly {
		picker = picker.WithRecaptureSquare(prevMove.To)
	}

	bestMove := shogi.NullMove
	moveCount := 0
	for {
		m, ok := picker.Next()
		if !ok {
			break
		}

		if !inCheck && m.IsCapture() {
			futilityBase := standPat + 200
			if futilityBase <= alpha && !m.IsPromotion() {
				if futilityBase > bestScore {
					bestScore = futilityBase
				}
				continue
			}
			if !w.pos.SeeSign(m) {
				continue
			}
		}

		if node != Root && !w.pos.IsLegal(m) {
			continue
		}

		var undo shogi.UndoInfo
		w.pos.MakeMove(m, &undo)
		w.pushHistory()
		moveCount++
		score := -w.quiescence(NonPV, ply+1, -beta, -alpha, qDepth-1)
		w.popHistory()
		w.pos.UnmakeMove(m, &undo)

		if w.signals.Stop.Load() {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = m
			if score > alpha {
				alpha = score
				if score >= beta {
					w.tt.Save(w.pos.Key, m, ttable.ScoreToTT(score, ply), 0, ttable.BoundLower, standPat, false)
					return score
				}
			}
		}
	}

	if inCheck && moveCount == 0 {
		if prevMove.IsDrop && prevMove.Piece == shogi.Pawn {
			return mateIn(ply)
		}
		return matedIn(ply)
	}

	if !inCheck {
		if m, ok := shogi.MateIn3(w.pos); ok {
			_ = m
			return mateIn(ply + 1)
		}
	}

	bound := ttable.BoundUpper
	if bestMove != shogi.NullMove {
		bound = ttable.BoundExact
	}
	w.tt.Save(w.pos.Key, bestMove, ttable.ScoreToTT(bestScore, ply), 0, bound, standPat, false)
	return bestScore
}
