package search

import (
	"github.com/hagoromo-shogi/engine/internal/movepick"
	"github.com/hagoromo-shogi/engine/internal/shogi"
	"github.com/hagoromo-shogi/engine/internal/ttable"
)

// NodeType tags a call per §4.4's template parametrization; Go has no
// compile-time monomorphization over a non-generic tag the way C++
// templates do, so this is carried as a small enum argument instead (per
// SPEC_FULL.md's design-notes guidance).
type NodeType int

const (
	Root NodeType = iota
	PV
	NonPV
)

// Pruning-cascade tuning constants, grounded on the teacher's
// internal/engine/worker.go Stockfish-derived margins, generalized to
// shogi's coarser material scale (a pawn is worth ~90 here, not ~100).
const (
	razorDepthLimit    = 4
	futilityDepthLimit = 7
	nullMoveMinDepth   = 2
	probcutMinDepth    = 5
	iidPVMinDepth      = 5
	iidNonPVMinDepth   = 8
	singularMinDepth   = 8
)

func razorMargin(d int) int    { return 250 + 200*d }
func futilityMargin(d int) int { return 120 * d }

// Negamax is the C5 main alpha-beta search. node identifies Root/PV/NonPV
// per §4.4's precondition table: beta == alpha+1 iff node == NonPV.
func (w *Worker) Negamax(node NodeType, depth, ply int, alpha, beta int, cutNode bool) int {
	w.nodes++

	pvNode := node != NonPV
	if pvNode {
		w.pv.clear(ply)
	}

	// Termination order, §4.4.
	if w.signals.Stop.Load() || ply >= MaxPly {
		if ply >= MaxPly && !w.pos.IsInCheck(w.pos.SideToMove) {
			return shogi.Evaluate(w.pos)
		}
		return w.drawScore()
	}

	if node != Root {
		// repFoulOurs: the side now to move was the one delivering
		// continuous check through the repetition cycle, which is that
		// side's loss under shogi's perpetual-check rule. repFoulTheirs
		// is the mirror case: the opponent was checking, so they lose.
		switch w.detectRepetition() {
		case repDraw, repSuperior, repInferior:
			return w.drawScore()
		case repFoulOurs:
			return matedIn(ply)
		case repFoulTheirs:
			return mateIn(ply)
		}

		// Mate-distance pruning.
		if a := matedIn(ply); alpha < a {
			alpha = a
		}
		if b := mateIn(ply + 1); beta > b {
			beta = b
		}
		if alpha >= beta {
			return alpha
		}
	}

	ss := frame(&w.ss, ply)
	inCheck := w.pos.IsInCheck(w.pos.SideToMove)
	excludedMove := ss.excludedMove

	// Transposition probe.
	key := w.pos.Key
	if excludedMove != shogi.NullMove {
		key = w.pos.ExclusionKey()
	}
	ttEntry, ttHit := w.tt.Lookup(key)
	var ttMove shogi.Move
	var ttScore, ttDepth int
	var ttBound ttable.Bound
	ttPv := pvNode
	if ttHit {
		ttMove = ttEntry.Move
		if !ttMove.IsNull() && !w.pos.IsPseudoLegal(ttMove) {
			ttMove = shogi.NullMove
		}
		ttScore = ttable.ScoreFromTT(int(ttEntry.Score), ply)
		ttDepth = int(ttEntry.Depth)
		ttBound = ttEntry.Bound
	}

	if !pvNode && ttHit && ttDepth >= depth {
		cutoff := false
		switch ttBound {
		case ttable.BoundExact:
			cutoff = true
		case ttable.BoundLower:
			cutoff = ttScore >= beta
		case ttable.BoundUpper:
			cutoff = ttScore <= alpha
		}
		if cutoff {
			// §4.4: a quiet hash move that would cause this fail-high never
			// runs through searchMoves's post-loop bookkeeping, so update
			// move-ordering stats here as if it had been tried and won.
			if ttScore >= beta && !ttMove.IsNull() && ttMove.IsQuiet() {
				var prevMove, grandMove shogi.Move
				if ply >= 1 {
					prevMove = frame(&w.ss, ply-1).currentMove
				}
				if ply >= 2 {
					grandMove = frame(&w.ss, ply-2).currentMove
				}
				w.tables.UpdateKillers(ttMove, ply)
				w.tables.UpdateHistory(ttMove, depth, true)
				w.tables.UpdateCounterMove(prevMove, ttMove)
				w.tables.UpdateFollowUpMove(grandMove, ttMove)
				w.tables.UpdateCountermoveHistory(prevMove, ttMove, depth, true)
			}
			return ttScore
		}
	}

	// Static evaluation.
	var staticEval int
	if inCheck {
		ss.staticKnown = false
	} else if ttHit {
		staticEval = int(ttEntry.StaticEval)
		ss.staticEval = staticEval
		ss.staticKnown = true
	} else {
		staticEval = shogi.Evaluate(w.pos)
		ss.staticEval = staticEval
		ss.staticKnown = true
	}

	// Gain update: previous ply's move was quiet and both statics known.
	if ply >= 1 {
		prevSS := frame(&w.ss, ply-1)
		if prevSS.staticKnown && ss.staticKnown && !prevSS.currentMove.IsNull() && prevSS.currentMove.IsQuiet() {
			w.tables.UpdateGain(prevSS.currentMove, -(prevSS.staticEval + staticEval))
		}
	}

	if depth <= 0 {
		return w.quiescence(node, ply, alpha, beta, 0)
	}

	// Pruning cascade: NonPV only, not in check, not mid singular-exclusion.
	if node == NonPV && !inCheck && excludedMove == shogi.NullMove {
		if depth < razorDepthLimit && ttMove.IsNull() && staticEval+razorMargin(depth) <= alpha {
			v := w.quiescence(NonPV, ply, alpha, alpha+1, 0)
			if v <= alpha {
				return v
			}
		}

		if depth < futilityDepthLimit && absInt(beta) < MateInMaxPly && staticEval-futilityMargin(depth) >= beta {
			return staticEval - futilityMargin(depth)
		}

		if !ttEntry.Mate3AlreadyTried {
			if m, ok := shogi.MateIn3(w.pos); ok {
				w.tt.Save(w.pos.Key, m, mateIn(ply), depth, ttable.BoundExact, staticEval, true)
				return mateIn(ply)
			}
		}

		if depth >= nullMoveMinDepth && staticEval >= beta && absInt(beta) < MateInMaxPly && w.hasNonPawnMaterial() {
			r := 3 + depth/4
			if extra := (staticEval - beta) / 200; extra > 0 {
				r += minInt(extra, 3)
			}
			w.pos.MakeNull()
			ss.currentMove = shogi.NullMove
			score := -w.Negamax(NonPV, depth-1-r, ply+1, -beta, -beta+1, !cutNode)
			w.pos.UnmakeNull()
			if score >= beta {
				if score > MateInMaxPly {
					score = beta
				}
				return score
			}
		}

		if depth >= probcutMinDepth && absInt(beta) < MateInMaxPly {
			probBeta := beta + 200
			pc := movepick.New(w.pos, w.tables, ply, ttMove, ss.currentMove, shogi.NullMove).WithVariant(movepick.ProbCut).WithProbCutThreshold(probBeta - staticEval)
			for {
				m, ok := pc.Next()
				if !ok {
					break
				}
				if !w.pos.IsLegal(m) {
					continue
				}
				var undo shogi.UndoInfo
				w.pos.MakeMove(m, &undo)
				w.pushHistory()
				score := -w.Negamax(NonPV, depth-4, ply+1, -probBeta, -probBeta+1, !cutNode)
				w.popHistory()
				w.pos.UnmakeMove(m, &undo)
				if score >= probBeta {
					return score
				}
			}
		}

		iidThreshold := iidNonPVMinDepth
		if pvNode {
			iidThreshold = iidPVMinDepth
		}
		if depth >= iidThreshold && ttMove.IsNull() {
			r := 2
			if !pvNode {
				r += depth / 4
			}
			w.Negamax(node, depth-r, ply, alpha, beta, cutNode)
			if e, ok := w.tt.Lookup(w.pos.Key); ok && !e.Move.IsNull() && w.pos.IsPseudoLegal(e.Move) {
				ttMove = e.Move
			}
		}
	}

	return w.searchMoves(node, depth, ply, alpha, beta, cutNode, inCheck, ttMove, ttHit, ttEntry, staticEval, excludedMove)
}

func (w *Worker) hasNonPawnMaterial() bool {
	for sq := shogi.Square(0); sq < shogi.BoardSize; sq++ {
		if pc := w.pos.PieceAt(sq); pc != shogi.NoPiece {
			t := pc.Type()
			if t != shogi.Pawn && t != shogi.King {
				return true
			}
		}
	}
	return false
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
