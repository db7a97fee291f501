// Package ordering implements the move-ordering heuristics of §4.2: a
// history table, capture history, counter-move and follow-up-move tables,
// and a gains table, all updated idempotently by the search and consulted
// by internal/movepick. Grounded on the teacher's internal/engine/ordering.go
// (same table shapes, same age-by-halving maintenance, same selection-sort
// PickMove), generalized from 64-square/6-piece chess to shogi's 81 squares
// and 14 piece types and extended with the gains table spec.md §3 names.
package ordering

import "github.com/hagoromo-shogi/engine/internal/shogi"

// MaxPly bounds the killer/search-stack arrays; mirrors the teacher's
// engine.MaxPly sizing.
const MaxPly = 128

// HistoryMax is the saturating bound spec.md §3 requires on history values.
const HistoryMax = 250

const numPieces = int(shogi.PieceTypeNB)
const numSquares = shogi.BoardSize

// mvvLva scores victim-attacker pairs for good-capture ordering, indexed by
// [victimType][attackerType]; higher sorts first. Generalized from the
// teacher's 6x6 table to shogi's 14 piece types using Value()-derived tiers
// rather than a hand-written literal table, since shogi has far more piece
// kinds than chess.
func mvvLvaScore(victim, attacker shogi.PieceType) int {
	return victim.Value()*16 - attacker.Value()/8
}

// Tables holds all move-ordering statistics for one search (shared across
// Lazy-SMP workers per §4.7 — callers must not wrap these in locks).
type Tables struct {
	killers [MaxPly][2]shogi.Move

	// history is indexed by [pieceType][toSquare], matching §3's
	// "(destination square, piece) -> signed integer" shape; using piece
	// type rather than from-square halves the table and matches the
	// teacher's intent (captures/promotions never consult it).
	history [numPieces][numSquares]int32

	// captureHistory indexed by [attackerType][toSquare][victimType].
	captureHistory [numPieces][numSquares][numPieces]int32

	// counterMoves and followUpMoves each hold up to two replies keyed by
	// the provoking move's (destination, piece).
	counterMoves  [numPieces][numSquares][2]shogi.Move
	followUpMoves [numPieces][numSquares][2]shogi.Move

	// countermoveHistory indexed by [prevPieceType][prevTo][pieceType][to].
	countermoveHistory [numPieces][numSquares][numPieces][numSquares]int32

	// gains maps a move's perfect hash to a running (sum, count) pair per
	// §3: value[m] = sum/(count+1), count saturating at 256 by halving.
	gains map[uint32]gainEntry
}

type gainEntry struct {
	sum   int32
	count int32
}

// New allocates a zeroed table set.
func New() *Tables {
	return &Tables{gains: make(map[uint32]gainEntry, 4096)}
}

// Clear resets per-search state: killers are wiped, history-family tables
// are aged by halving (the teacher's pattern), and gains are dropped since
// they are keyed by move hash across positions and would otherwise grow
// unbounded across an entire session.
func (t *Tables) Clear() {
	for i := range t.killers {
		t.killers[i][0] = shogi.NullMove
		t.killers[i][1] = shogi.NullMove
	}
	halve3 := func(a *[numPieces][numSquares]int32) {
		for i := range a {
			for j := range a[i] {
				a[i][j] /= 2
			}
		}
	}
	halve3(&t.history)
	for i := range t.captureHistory {
		for j := range t.captureHistory[i] {
			for k := range t.captureHistory[i][j] {
				t.captureHistory[i][j][k] /= 2
			}
		}
	}
	for i := range t.countermoveHistory {
		for j := range t.countermoveHistory[i] {
			for k := range t.countermoveHistory[i][j] {
				for l := range t.countermoveHistory[i][j][k] {
					t.countermoveHistory[i][j][k][l] /= 2
				}
			}
		}
	}
	for i := range t.counterMoves {
		for j := range t.counterMoves[i] {
			t.counterMoves[i][j][0] = shogi.NullMove
			t.counterMoves[i][j][1] = shogi.NullMove
		}
	}
	for i := range t.followUpMoves {
		for j := range t.followUpMoves[i] {
			t.followUpMoves[i][j][0] = shogi.NullMove
			t.followUpMoves[i][j][1] = shogi.NullMove
		}
	}
	if len(t.gains) > 0 {
		t.gains = make(map[uint32]gainEntry, 4096)
	}
}

func movedPieceType(m shogi.Move) shogi.PieceType {
	if m.IsPromotion() {
		return m.Promoted
	}
	return m.Piece
}

// Killers returns the two killer moves recorded at ply.
func (t *Tables) Killers(ply int) (shogi.Move, shogi.Move) {
	if ply < 0 || ply >= MaxPly {
		return shogi.NullMove, shogi.NullMove
	}
	return t.killers[ply][0], t.killers[ply][1]
}

// UpdateKillers installs m as the newest killer at ply, per §4.2.
func (t *Tables) UpdateKillers(m shogi.Move, ply int) {
	if ply < 0 || ply >= MaxPly || m == t.killers[ply][0] {
		return
	}
	t.killers[ply][1] = t.killers[ply][0]
	t.killers[ply][0] = m
}

// HistoryScore returns the current history value for a quiet move.
func (t *Tables) HistoryScore(m shogi.Move) int {
	return int(t.history[movedPieceType(m)][m.To])
}

// UpdateHistory applies §4.2's update rule: a fail-high quiet gets
// +depth^2, any other quiet tried before the cutoff gets -depth^2, both
// saturating at +-HistoryMax.
func (t *Tables) UpdateHistory(m shogi.Move, depth int, good bool) {
	pt := movedPieceType(m)
	bonus := int32(depth * depth)
	v := &t.history[pt][m.To]
	if good {
		*v += bonus
	} else {
		*v -= bonus
	}
	if *v > HistoryMax {
		*v = HistoryMax
	}
	if *v < -HistoryMax {
		*v = -HistoryMax
	}
}

// UpdateCaptureHistory scores a capture's attacker/victim pair.
func (t *Tables) UpdateCaptureHistory(attacker shogi.PieceType, to shogi.Square, victim shogi.PieceType, depth int, good bool) {
	bonus := int32(depth * depth)
	v := &t.captureHistory[attacker][to][victim]
	if good {
		*v += bonus
		if *v > 400000 {
			for i := range t.captureHistory {
				for j := range t.captureHistory[i] {
					for k := range t.captureHistory[i][j] {
						t.captureHistory[i][j][k] /= 2
					}
				}
			}
		}
	} else {
		*v -= bonus
		if *v < -400000 {
			*v = -400000
		}
	}
}

// CaptureHistoryScore reads the attacker/victim capture-history score.
func (t *Tables) CaptureHistoryScore(attacker shogi.PieceType, to shogi.Square, victim shogi.PieceType) int {
	return int(t.captureHistory[attacker][to][victim])
}

// key for counter/follow-up tables: the provoking move's (piece, to).
func provokerKey(m shogi.Move) (shogi.PieceType, shogi.Square) {
	if m.IsNull() {
		return shogi.NoPieceType, 0
	}
	return movedPieceType(m), m.To
}

// UpdateCounterMove records reply as a counter to prev, keeping up to two.
func (t *Tables) UpdateCounterMove(prev, reply shogi.Move) {
	pt, to := provokerKey(prev)
	if pt == shogi.NoPieceType {
		return
	}
	slot := &t.counterMoves[pt][to]
	if slot[0] == reply {
		return
	}
	slot[1] = slot[0]
	slot[0] = reply
}

// CounterMoves returns the up-to-two counter-moves recorded for prev.
func (t *Tables) CounterMoves(prev shogi.Move) (shogi.Move, shogi.Move) {
	pt, to := provokerKey(prev)
	if pt == shogi.NoPieceType {
		return shogi.NullMove, shogi.NullMove
	}
	slot := t.counterMoves[pt][to]
	return slot[0], slot[1]
}

// UpdateFollowUpMove records reply as a follow-up to the move two plies
// back (grandparent move), keeping up to two.
func (t *Tables) UpdateFollowUpMove(grandparent, reply shogi.Move) {
	pt, to := provokerKey(grandparent)
	if pt == shogi.NoPieceType {
		return
	}
	slot := &t.followUpMoves[pt][to]
	if slot[0] == reply {
		return
	}
	slot[1] = slot[0]
	slot[0] = reply
}

// FollowUpMoves returns the up-to-two follow-up moves for grandparent.
func (t *Tables) FollowUpMoves(grandparent shogi.Move) (shogi.Move, shogi.Move) {
	pt, to := provokerKey(grandparent)
	if pt == shogi.NoPieceType {
		return shogi.NullMove, shogi.NullMove
	}
	slot := t.followUpMoves[pt][to]
	return slot[0], slot[1]
}

// UpdateCountermoveHistory scores (prevPiece, prevTo) -> (piece, to).
func (t *Tables) UpdateCountermoveHistory(prev, m shogi.Move, depth int, good bool) {
	if prev.IsNull() {
		return
	}
	prevPt, prevTo := provokerKey(prev)
	pt := movedPieceType(m)
	bonus := int32(depth * depth)
	v := &t.countermoveHistory[prevPt][prevTo][pt][m.To]
	if good {
		*v += bonus
		if *v > 400000 {
			for i := range t.countermoveHistory {
				for j := range t.countermoveHistory[i] {
					for k := range t.countermoveHistory[i][j] {
						for l := range t.countermoveHistory[i][j][k] {
							t.countermoveHistory[i][j][k][l] /= 2
						}
					}
				}
			}
		}
	} else {
		*v -= bonus
		if *v < -400000 {
			*v = -400000
		}
	}
}

// CountermoveHistoryScore reads the (prev -> m) countermove-history score.
func (t *Tables) CountermoveHistoryScore(prev, m shogi.Move) int {
	if prev.IsNull() {
		return 0
	}
	prevPt, prevTo := provokerKey(prev)
	pt := movedPieceType(m)
	return int(t.countermoveHistory[prevPt][prevTo][pt][m.To])
}

// moveKey produces a cheap perfect hash of a move for the gains table.
func moveKey(m shogi.Move) uint32 {
	k := uint32(m.From)<<16 | uint32(m.To)<<8 | uint32(m.Piece)
	if m.IsDrop {
		k |= 1 << 30
	}
	if m.IsPromotion() {
		k |= 1 << 31
	}
	return k
}

// UpdateGain applies §3's gains update: value[m] = sum/(count+1), count
// saturating at 256 by halving.
func (t *Tables) UpdateGain(m shogi.Move, delta int) {
	k := moveKey(m)
	e := t.gains[k]
	if e.count >= 256 {
		e.sum /= 2
		e.count /= 2
	}
	e.sum += int32(delta)
	e.count++
	t.gains[k] = e
}

// Gain returns the running average gain recorded for m, or 0 if unseen.
func (t *Tables) Gain(m shogi.Move) int {
	e, ok := t.gains[moveKey(m)]
	if !ok {
		return 0
	}
	return int(e.sum / (e.count + 1))
}

// MVVLVA scores a capture for ordering, combining the victim/attacker tier
// with the capture-history adjustment.
func (t *Tables) MVVLVA(m shogi.Move) int {
	attacker := movedPieceType(m)
	if m.IsDrop {
		attacker = m.Piece
	}
	victim := m.Captured
	base := mvvLvaScore(victim, attacker)
	return base + t.CaptureHistoryScore(attacker, m.To, victim)/4
}
