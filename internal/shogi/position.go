package shogi

// Hand holds the counts of droppable pieces held by one side, indexed by
// HandIndex(pt).
type Hand [7]int8

func (h *Hand) Count(pt PieceType) int {
	idx := HandIndex(pt)
	if idx < 0 {
		return 0
	}
	return int(h[idx])
}

// Position is the full shogi board+hands+side-to-move state. It is cheap
// to copy (no pointers, no heap-allocated slices) so MakeMove/UnmakeMove
// can operate on a fixed per-ply stack the way the teacher's board package
// does with its UndoInfo array.
type Position struct {
	Board      [BoardSize]Piece
	Hands      [ColorNB]Hand
	SideToMove Color
	Ply        int // game ply since game start (half-moves)
	Key        uint64
	KingSquare [ColorNB]Square
}

// NewPosition returns the standard shogi starting position.
func NewPosition() *Position {
	p, err := ParseSFEN(StartSFEN)
	if err != nil {
		panic("shogi: invalid embedded start sfen: " + err.Error())
	}
	return p
}

func (p *Position) PieceAt(sq Square) Piece {
	if sq == NoSquare {
		return NoPiece
	}
	return p.Board[sq]
}

func (p *Position) IsEmpty(sq Square) bool {
	return p.Board[sq] == NoPiece
}

// Copy returns a value copy (the struct has no pointer fields).
func (p *Position) Copy() *Position {
	cp := *p
	return &cp
}

func (p *Position) recomputeKey() {
	var key uint64
	for sq := Square(0); sq < BoardSize; sq++ {
		if pc := p.Board[sq]; pc != NoPiece {
			key ^= zobristBoard[pc.Color()][pc.Type()][sq]
		}
	}
	for c := Color(0); c < ColorNB; c++ {
		for h := 0; h < 7; h++ {
			key ^= zobristHand[c][h][p.Hands[c][h]]
		}
	}
	if p.SideToMove == White {
		key ^= zobristSide
	}
	p.Key = key
}

func (p *Position) setPiece(sq Square, pc Piece) {
	if old := p.Board[sq]; old != NoPiece {
		p.Key ^= zobristBoard[old.Color()][old.Type()][sq]
	}
	p.Board[sq] = pc
	if pc != NoPiece {
		p.Key ^= zobristBoard[pc.Color()][pc.Type()][sq]
		if pc.Type() == King {
			p.KingSquare[pc.Color()] = sq
		}
	}
}

func (p *Position) addToHand(c Color, pt PieceType) {
	idx := HandIndex(pt)
	old := p.Hands[c][idx]
	p.Key ^= zobristHand[c][idx][old]
	p.Hands[c][idx] = old + 1
	p.Key ^= zobristHand[c][idx][old+1]
}

func (p *Position) removeFromHand(c Color, pt PieceType) {
	idx := HandIndex(pt)
	old := p.Hands[c][idx]
	p.Key ^= zobristHand[c][idx][old]
	p.Hands[c][idx] = old - 1
	p.Key ^= zobristHand[c][idx][old-1]
}

// MakeMove applies m to p, recording what's needed in undo to reverse it.
// m must be pseudo-legal. Caller is responsible for the legality check
// (king safety) per §4.4 step 4 — MakeMove itself never fails.
func (p *Position) MakeMove(m Move, undo *UndoInfo) {
	undo.Key = p.Key
	us := p.SideToMove
	if m.IsDrop {
		p.removeFromHand(us, m.Piece)
		p.setPiece(m.To, NewPiece(m.Piece, us))
	} else {
		moving := p.PieceAt(m.From)
		if captured := p.PieceAt(m.To); captured != NoPiece {
			undo.Captured = captured.Type()
			p.addToHand(us, captured.Type().Unpromote())
		} else {
			undo.Captured = NoPieceType
		}
		p.setPiece(m.From, NoPiece)
		newPt := moving.Type()
		if m.IsPromotion() {
			newPt = newPt.Promote()
		}
		p.setPiece(m.To, NewPiece(newPt, us))
	}
	p.SideToMove = us.Other()
	p.Key ^= zobristSide
	p.Ply++
}

// UnmakeMove reverses a MakeMove. m and undo must match the preceding call.
func (p *Position) UnmakeMove(m Move, undo *UndoInfo) {
	p.Ply--
	p.SideToMove = p.SideToMove.Other()
	us := p.SideToMove
	if m.IsDrop {
		p.setPiece(m.To, NoPiece)
		p.addToHand(us, m.Piece)
	} else {
		p.setPiece(m.From, NewPiece(m.Piece, us))
		if undo.Captured != NoPieceType {
			p.setPiece(m.To, NewPiece(undo.Captured, us.Other()))
			p.removeFromHand(us, undo.Captured.Unpromote())
		} else {
			p.setPiece(m.To, NoPiece)
		}
	}
	p.Key = undo.Key
}

// MakeNull plays a null (pass) move, used by null-move pruning probes.
func (p *Position) MakeNull() {
	p.SideToMove = p.SideToMove.Other()
	p.Key ^= zobristSide
	p.Ply++
}

func (p *Position) UnmakeNull() {
	p.Ply--
	p.SideToMove = p.SideToMove.Other()
	p.Key ^= zobristSide
}

// ExclusionKey returns the key used to probe the transposition table while
// excluding one candidate move from consideration (singular extension).
func (p *Position) ExclusionKey() uint64 {
	return p.Key ^ ExclusionKeyXor
}

// NullMoveKey returns the key used to cache a one-ply-pass probe.
func (p *Position) NullMoveKey() uint64 {
	return p.Key ^ NullMoveKeyXor[p.SideToMove]
}
