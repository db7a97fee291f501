package search

import "github.com/hagoromo-shogi/engine/internal/shogi"

// repetitionKind classifies a repeated position per §4.4's repetition
// table. Exact board+hand+side equality is a draw; board-only equality
// with a changed hand balance is the Gikou-style SHEK superior/inferior
// case; continuous check by one side is the foul (perpetual check) case.
type repetitionKind int

const (
	repNone repetitionKind = iota
	repDraw
	repSuperior // hand balance improved for the side to move
	repInferior // hand balance worsened for the side to move
	repFoulOurs // the side to move has been giving continuous check: its own loss
	repFoulTheirs
)

// historyEntry snapshots the information needed to classify a later
// repeat without re-deriving it from the (mutated-in-place) position.
type historyEntry struct {
	key        uint64
	boardKey   uint64 // Zobrist over board+side only, excluding hands
	handValue  [shogi.ColorNB]int
	inCheck    bool // true if the side to move at this ply was in check
	checkingSide shogi.Color // who delivered that check, meaningful iff inCheck
}

func boardOnlyKey(p *shogi.Position) uint64 {
	var key uint64
	for sq := shogi.Square(0); sq < shogi.BoardSize; sq++ {
		if pc := p.PieceAt(sq); pc != shogi.NoPiece {
			key ^= uint64(pc)<<uint(sq%61) ^ uint64(sq+1)*0x9E3779B97F4A7C15
		}
	}
	if p.SideToMove == shogi.White {
		key ^= 0xD1B54A32D192ED03
	}
	return key
}

func handValueOf(p *shogi.Position, c shogi.Color) int {
	v := 0
	for _, pt := range shogi.DroppablePieceTypes {
		v += pt.Value() * p.Hands[c].Count(pt)
	}
	return v
}

func snapshot(p *shogi.Position) historyEntry {
	e := historyEntry{
		key:      p.Key,
		boardKey: boardOnlyKey(p),
	}
	e.handValue[shogi.Black] = handValueOf(p, shogi.Black)
	e.handValue[shogi.White] = handValueOf(p, shogi.White)
	stm := p.SideToMove
	if p.IsInCheck(stm) {
		e.inCheck = true
		e.checkingSide = stm.Other()
	}
	return e
}

// detectRepetition walks w.priorKeys (game history before this search) and
// w.posHistory (positions reached on the current search path) backward
// looking for a position with matching board-only key, classifying it per
// §4.4. posHistory is pushed in negamax before recursing and popped on
// return, so it only ever reflects the current search path.
func (w *Worker) detectRepetition() repetitionKind {
	cur := snapshot(w.pos)
	for _, k := range w.priorKeys {
		if k == cur.key {
			return repDraw
		}
	}
	if len(w.posHistory) < 2 {
		return repNone
	}

	// Continuous-check (perpetual) detection runs first and independently
	// of draw-by-repetition detection below: a position repeat reached by
	// one side giving uninterrupted check the whole way back is a foul, not
	// an ordinary draw, and an exact key repeat (checked next) would
	// otherwise always win the race and make this branch unreachable.
	if cur.inCheck {
		side := cur.checkingSide
		for i := len(w.posHistory) - 2; i >= 0; i-- {
			e := w.posHistory[i]
			if e.key == cur.key {
				if e.inCheck && e.checkingSide == side {
					if side == w.pos.SideToMove {
						return repFoulOurs
					}
					return repFoulTheirs
				}
				break
			}
			if !e.inCheck || e.checkingSide != side {
				break
			}
		}
	}

	stm := w.pos.SideToMove
	for i := len(w.posHistory) - 2; i >= 0; i-- {
		prev := w.posHistory[i]
		if prev.key == cur.key {
			return repDraw
		}
		if prev.boardKey != cur.boardKey {
			continue
		}
		// Same board, same side to move (board-only key includes side),
		// different hands: classify by the mover's hand-value delta.
		delta := cur.handValue[stm] - prev.handValue[stm]
		if delta > 0 {
			return repSuperior
		}
		if delta < 0 {
			return repInferior
		}
	}

	return repNone
}

func (w *Worker) pushHistory() {
	w.posHistory = append(w.posHistory, snapshot(w.pos))
}

func (w *Worker) popHistory() {
	w.posHistory = w.posHistory[:len(w.posHistory)-1]
}
