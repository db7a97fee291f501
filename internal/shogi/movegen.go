package shogi

// GenerateMoves produces all pseudo-legal moves (board moves plus drops)
// for the side to move, appending them to ml. Pseudo-legal: drop
// restrictions (nifu, last-rank, immediate pawn-drop-mate) are honored;
// king-safety (does the move leave our own king in check) is NOT, per
// §4.4 step 4 which delegates that to the caller's legality check.
func (p *Position) GenerateMoves(ml *MoveList) {
	us := p.SideToMove
	p.generateBoardMoves(us, ml, false)
	p.generateDrops(us, ml)
}

// GenerateCaptures produces only capturing moves (each also in its
// promoting form where promotion is allowed), for quiescence search and
// the move picker's "good captures" stage. A promotion that captures
// nothing is not generated here.
func (p *Position) GenerateCaptures(ml *MoveList) {
	p.generateBoardMoves(p.SideToMove, ml, true)
}

func (p *Position) generateBoardMoves(us Color, ml *MoveList, capturesOnly bool) {
	for sq := Square(0); sq < BoardSize; sq++ {
		pc := p.Board[sq]
		if pc == NoPiece || pc.Color() != us {
			continue
		}
		pt := pc.Type()
		p.attacksFrom(sq, pt, us, func(to Square) {
			target := p.Board[to]
			if target != NoPiece && target.Color() == us {
				return
			}
			captured := NoPieceType
			if target != NoPiece {
				captured = target.Type()
			}
			if capturesOnly && captured == NoPieceType {
				return
			}
			canPromote := pt.Promotes() && !pt.IsPromoted() && (PromotionZone(sq, us) || PromotionZone(to, us))
			mustPromote := canPromote && forcedPromotion(pt, to, us)
			if canPromote && !mustPromote {
				ml.Add(Move{From: sq, To: to, Piece: pt, Promoted: pt.Promote(), Captured: captured})
			}
			if !mustPromote {
				ml.Add(Move{From: sq, To: to, Piece: pt, Promoted: pt, Captured: captured})
			}
			if mustPromote {
				ml.Add(Move{From: sq, To: to, Piece: pt, Promoted: pt.Promote(), Captured: captured})
			}
		})
	}
}

// forcedPromotion reports squares where failing to promote would strand
// the piece with no future legal moves (pawn/lance on the far rank,
// knight on the far two ranks).
func forcedPromotion(pt PieceType, to Square, c Color) bool {
	switch pt {
	case Pawn, Lance:
		return lastRank(to, c)
	case Knight:
		return lastTwoRanks(to, c)
	default:
		return false
	}
}

func (p *Position) generateDrops(us Color, ml *MoveList) {
	for _, pt := range DroppablePieceTypes {
		if p.Hands[us].Count(pt) == 0 {
			continue
		}
		for sq := Square(0); sq < BoardSize; sq++ {
			if p.Board[sq] != NoPiece {
				continue
			}
			if !p.canDrop(pt, sq, us) {
				continue
			}
			ml.Add(Move{From: NoSquare, To: sq, Piece: pt, Promoted: pt, IsDrop: true})
		}
	}
}

func (p *Position) canDrop(pt PieceType, sq Square, us Color) bool {
	switch pt {
	case Pawn:
		if lastRank(sq, us) {
			return false
		}
		if p.hasUnpromotedPawnOnFile(FileOf(sq), us) {
			return false // nifu
		}
		if p.isPawnDropMate(sq, us) {
			return false // uchifuzume
		}
	case Lance:
		if lastRank(sq, us) {
			return false
		}
	case Knight:
		if lastTwoRanks(sq, us) {
			return false
		}
	}
	return true
}

func (p *Position) hasUnpromotedPawnOnFile(file int, us Color) bool {
	for r := 0; r < NumRanks; r++ {
		pc := p.Board[NewSquare(file, r)]
		if pc != NoPiece && pc.Color() == us && pc.Type() == Pawn {
			return true
		}
	}
	return false
}

// isPawnDropMate implements the uchifuzume restriction: a pawn drop that
// gives check is illegal if it immediately checkmates the opponent.
func (p *Position) isPawnDropMate(sq Square, us Color) bool {
	dr := 1
	if us == Black {
		dr = -1
	}
	kingSq := NewSquare(FileOf(sq), RankOf(sq)+dr)
	if kingSq < 0 || int(kingSq) >= BoardSize || p.Board[kingSq].Type() != King {
		return false
	}
	if p.Board[kingSq].Color() == us {
		return false
	}
	m := Move{From: NoSquare, To: sq, Piece: Pawn, Promoted: Pawn, IsDrop: true}
	var undo UndoInfo
	p.MakeMove(m, &undo)
	mate := p.IsInCheck(p.SideToMove) && !p.hasLegalMove()
	p.UnmakeMove(m, &undo)
	return mate
}

// hasLegalMove reports whether the side to move has any legal reply.
func (p *Position) hasLegalMove() bool {
	var ml MoveList
	p.GenerateMoves(&ml)
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		var undo UndoInfo
		p.MakeMove(m, &undo)
		legal := !p.IsInCheck(p.SideToMove.Other())
		p.UnmakeMove(m, &undo)
		if legal {
			return true
		}
	}
	return false
}

// IsLegal reports whether pseudo-legal move m leaves the mover's own king
// safe. This is the "legality check" §4.4 step 4 calls out separately
// from pseudo-legal generation.
func (p *Position) IsLegal(m Move) bool {
	mover := p.SideToMove
	var undo UndoInfo
	p.MakeMove(m, &undo)
	ok := !p.IsInCheck(mover)
	p.UnmakeMove(m, &undo)
	return ok
}

// IsPseudoLegal reports whether m could currently be generated: the moving
// piece exists, belongs to the side to move, and the destination is
// consistent with board occupancy. Used to validate a transposition-table
// hash move before trusting it (§4.1 concurrency note: a torn read must be
// validated before acting on it).
func (p *Position) IsPseudoLegal(m Move) bool {
	if m.IsNull() {
		return false
	}
	us := p.SideToMove
	if m.IsDrop {
		if p.Hands[us].Count(m.Piece) == 0 || p.Board[m.To] != NoPiece {
			return false
		}
		return p.canDrop(m.Piece, m.To, us)
	}
	pc := p.PieceAt(m.From)
	if pc == NoPiece || pc.Color() != us || pc.Type() != m.Piece {
		return false
	}
	if target := p.PieceAt(m.To); target != NoPiece && target.Color() == us {
		return false
	}
	reachable := false
	p.attacksFrom(m.From, pc.Type(), us, func(to Square) {
		if to == m.To {
			reachable = true
		}
	})
	return reachable
}

// LegalMoves returns every fully-legal move (used by mate probes and
// tests, not the hot search loop which filters lazily).
func (p *Position) LegalMoves() []Move {
	var ml MoveList
	p.GenerateMoves(&ml)
	out := make([]Move, 0, ml.Len())
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		if p.IsLegal(m) {
			out = append(out, m)
		}
	}
	return out
}
