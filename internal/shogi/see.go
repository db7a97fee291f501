package shogi

// SEE computes the static exchange evaluation of capturing on m.To,
// assuming m is played first: the net material gain after both sides
// recapture optimally. Grounded on the classic least-valuable-attacker
// swap algorithm (mirrors Gikou's swap.cc and the teacher's
// SEE/seeSwap/getLeastValuableAttacker in eval.go).
//
// Simplification: sliding-piece attackers that would only be revealed
// once a blocking piece is removed mid-exchange are not discovered; this
// is a deliberate, proportionate shortcut since SEE is a pure out-of-scope
// helper the search merely calls (see DESIGN.md).
func (p *Position) SEE(m Move) int {
	to := m.To
	var gain [32]int
	depth := 0

	attackerPt := m.Piece
	if m.IsPromotion() {
		attackerPt = m.Promoted
	}
	var capturedValue int
	if target := p.PieceAt(to); target != NoPiece {
		capturedValue = target.Type().Value()
	}
	gain[0] = capturedValue

	used := map[Square]bool{}
	if !m.IsDrop {
		used[m.From] = true
	}
	side := p.SideToMove.Other()
	occupied := func(sq Square) bool { return used[sq] }

	onSquareValue := attackerPt.Value()

	for {
		attackers := p.attackersTo(to, occupied)
		var best Square = NoSquare
		bestVal := 1 << 30
		for _, sq := range attackers {
			pc := p.Board[sq]
			if pc.Color() != side {
				continue
			}
			v := pc.Type().Value()
			if v < bestVal {
				bestVal = v
				best = sq
			}
		}
		if best == NoSquare {
			break
		}
		depth++
		gain[depth] = onSquareValue - gain[depth-1]
		onSquareValue = bestVal
		used[best] = true
		side = side.Other()
		if depth >= 31 {
			break
		}
	}

	for depth > 0 {
		if -gain[depth] < gain[depth-1] {
			gain[depth-1] = -gain[depth]
		}
		depth--
	}
	return gain[0]
}

// SeeSign reports whether the capture's SEE is non-negative, the cheap
// test the move picker and quiescence search use to set aside or skip
// losing captures.
func (p *Position) SeeSign(m Move) bool {
	return p.SEE(m) >= 0
}
