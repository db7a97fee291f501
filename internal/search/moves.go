package search

import (
	"github.com/hagoromo-shogi/engine/internal/movepick"
	"github.com/hagoromo-shogi/engine/internal/shogi"
	"github.com/hagoromo-shogi/engine/internal/ttable"
)

// searchMoves runs §4.4's moves loop and post-loop bookkeeping.
func (w *Worker) searchMoves(node NodeType, depth, ply int, alpha, beta int, cutNode, inCheck bool, ttMove shogi.Move, ttHit bool, ttEntry ttable.Entry, staticEval int, excludedMove shogi.Move) int {
	pvNode := node != NonPV
	ss := frame(&w.ss, ply)

	var prevMove, grandMove shogi.Move
	if ply >= 1 {
		prevMove = frame(&w.ss, ply-1).currentMove
	}
	if ply >= 2 {
		grandMove = frame(&w.ss, ply-2).currentMove
	}

	pruneQuietMoves := false
	if node == NonPV && !inCheck && depth < futilityDepthLimit {
		if staticEval+futilityMargin(depth)+80 <= alpha {
			pruneQuietMoves = true
		}
	}

	origAlpha := alpha
	bestScore := matedIn(ply) - 1
	bestMove := shogi.NullMove
	moveCount := 0

	var quietsTried, capturesTried []shogi.Move

	rootIdx := w.multiPVCursor
	useRootList := node == Root

	var picker *movepick.Picker
	if !useRootList {
		picker = movepick.New(w.pos, w.tables, ply, ttMove, prevMove, grandMove)
		if inCheck {
			picker = picker.WithVariant(movepick.Evasion)
		}
	}

	for {
		var m shogi.Move
		var ok bool
		if useRootList {
			if rootIdx >= len(w.rootMoves) {
				break
			}
			m = w.rootMoves[rootIdx].Move
			rootIdx++
			ok = true
		} else {
			m, ok = picker.Next()
		}
		if !ok {
			break
		}
		if m == excludedMove {
			continue
		}

		isCapture := m.IsCapture()
		isPromotion := m.IsPromotion()
		givesCheck := w.pos.GivesCheck(m)

		if node == NonPV && pruneQuietMoves && !isCapture && !isPromotion && bestMove != shogi.NullMove {
			continue
		}

		if node == NonPV && !inCheck && m.IsQuiet() && !givesCheck && bestScore > matedIn(MaxPly) {
			lmpThreshold := 3 + depth*depth/2
			if depth < 16 && moveCount >= lmpThreshold && w.tables.Gain(m) < 0 && w.tables.HistoryScore(m) < 0 {
				continue
			}
			if depth < 4 && !w.pos.SeeSign(m) {
				continue
			}
		}

		if node != Root && !w.pos.IsLegal(m) {
			continue
		}

		extension := 0
		if givesCheck {
			extension = 1
		}
		if node != Root && m == ttMove && depth >= singularMinDepth && excludedMove == shogi.NullMove &&
			ttHit && (ttEntry.Bound == ttable.BoundLower || ttEntry.Bound == ttable.BoundExact) && int(ttEntry.Depth) >= depth-3 {
			ttScore := ttable.ScoreFromTT(int(ttEntry.Score), ply)
			singularBeta := ttScore - 2*depth
			ss.excludedMove = ttMove
			singularScore := w.Negamax(NonPV, (depth-1)/2, ply, singularBeta-1, singularBeta, cutNode)
			ss.excludedMove = shogi.NullMove
			if singularScore < singularBeta {
				extension = 1
			} else if singularBeta >= beta {
				return singularBeta
			} else if cutNode {
				extension = -1
			}
		}

		var undo shogi.UndoInfo
		ss.currentMove = m
		nodesBefore := w.nodes
		w.pos.MakeMove(m, &undo)
		w.pushHistory()
		moveCount++

		k1, k2 := w.tables.Killers(ply)
		isKiller := m == k1 || m == k2

		newDepth := depth - 1 + extension
		var score int
		if node != Root && moveCount >= 2 && depth >= 3 && !(m == ttMove) && !isKiller && (m.IsQuiet() || depth >= 8) {
			r := w.reductionFor(depth, moveCount, pvNode, cutNode, m)
			reducedDepth := newDepth - r
			if reducedDepth < 1 {
				reducedDepth = 1
			}
			score = -w.Negamax(NonPV, reducedDepth, ply+1, -(alpha + 1), -alpha, true)
			if score > alpha && r >= 4 {
				score = -w.Negamax(NonPV, newDepth-2, ply+1, -(alpha + 1), -alpha, !cutNode)
			}
			if score > alpha {
				score = -w.Negamax(NonPV, newDepth, ply+1, -(alpha + 1), -alpha, !cutNode)
			}
		} else if node == NonPV || moveCount > 1 {
			score = -w.Negamax(NonPV, newDepth, ply+1, -(alpha + 1), -alpha, !cutNode)
		}

		if pvNode && (moveCount == 1 || (score > alpha && score < beta)) {
			score = -w.Negamax(PV, newDepth, ply+1, -beta, -alpha, false)
		}

		w.popHistory()
		w.pos.UnmakeMove(m, &undo)

		if w.signals.Stop.Load() {
			return 0
		}

		if node == Root {
			rm := w.rootMoves.Find(m)
			if rm != nil {
				rm.Score = score
				rm.Nodes += w.nodes - nodesBefore
				if score > alpha || moveCount == 1 {
					rm.PV = append([]shogi.Move{m}, w.pv.line(ply+1)...)
				}
			}
		}

		if m.IsQuiet() {
			quietsTried = append(quietsTried, m)
		} else if isCapture {
			capturesTried = append(capturesTried, m)
		}

		if score > bestScore {
			bestScore = score
			bestMove = m
			if pvNode {
				w.pv.update(ply, m)
			}
			if score > alpha {
				alpha = score
				if score >= beta {
					break
				}
			}
		}
	}

	if moveCount == 0 {
		if excludedMove != shogi.NullMove {
			// A singular-extension probe excluding the node's only legal
			// move proves nothing about mate; report the probe's own bound.
			return alpha
		}
		if inCheck {
			if prevMove.IsDrop && prevMove.Piece == shogi.Pawn {
				// Uchifuzume: the pawn drop that delivered this check was
				// itself illegal, so its mover (not the side stuck in
				// "mate") loses.
				return mateIn(ply)
			}
			return matedIn(ply)
		}
		return w.drawScore()
	}

	if bestMove != shogi.NullMove && bestMove.IsQuiet() && !w.pos.GivesCheck(bestMove) {
		w.tables.UpdateKillers(bestMove, ply)
		w.tables.UpdateHistory(bestMove, depth, true)
		w.tables.UpdateCounterMove(prevMove, bestMove)
		w.tables.UpdateFollowUpMove(grandMove, bestMove)
		w.tables.UpdateCountermoveHistory(prevMove, bestMove, depth, true)
		for _, qm := range quietsTried {
			if qm != bestMove {
				w.tables.UpdateHistory(qm, depth, false)
				w.tables.UpdateCountermoveHistory(prevMove, qm, depth, false)
			}
		}
	}
	for _, cm := range capturesTried {
		attacker := cm.Piece
		if cm.IsPromotion() {
			attacker = cm.Promoted
		}
		w.tables.UpdateCaptureHistory(attacker, cm.To, cm.Captured, depth, cm == bestMove)
	}

	bound := ttable.BoundUpper
	if bestScore >= beta {
		bound = ttable.BoundLower
	} else if pvNode && bestScore > origAlpha {
		bound = ttable.BoundExact
	}
	w.tt.Save(w.pos.Key, bestMove, ttable.ScoreToTT(bestScore, ply), depth, bound, staticEval, ttHit && ttEntry.Mate3AlreadyTried)

	return bestScore
}

// reductionFor computes the LMR amount for a non-PV, non-first move per
// §4.4 step 7: a precomputed (depth, moveCount) table, bumped at cut-nodes
// and when history is negative, reduced for counter-moves.
func (w *Worker) reductionFor(depth, moveCount int, pvNode, cutNode bool, m shogi.Move) int {
	d := depth
	if d >= MaxPly {
		d = MaxPly - 1
	}
	mc := moveCount
	if mc >= 64 {
		mc = 63
	}
	r := w.lmrTable[d][mc]
	if !pvNode && cutNode {
		r++
	}
	if w.tables.HistoryScore(m) < 0 {
		r++
	}
	c1, c2 := w.tables.CounterMoves(m)
	if m == c1 || m == c2 {
		r--
	}
	if r < 0 {
		r = 0
	}
	return r
}
