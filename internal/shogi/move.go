package shogi

import "fmt"

// Move is a compact encoded action: either a board move (From valid) or a
// drop (IsDrop, From == NoSquare, DroppedPiece gives the piece type placed).
// Piece/Promoted distinguish promotion the way spec.md §3 requires: Piece
// is the piece as it stood before the move, Promoted is the piece as it
// stands after.
type Move struct {
	From     Square
	To       Square
	Piece    PieceType // moving piece type (pre-move); for drops, the dropped type
	Promoted PieceType // post-move piece type; equals Piece unless promoting
	Captured PieceType // captured piece type, NoPieceType if none
	IsDrop   bool
}

// NullMove is the sentinel "no move" / pass value.
var NullMove = Move{From: NoSquare, To: NoSquare}

// NoMove is an alias kept for readability at call sites mirroring the
// teacher's NoMove naming.
var NoMove = NullMove

func (m Move) IsNull() bool {
	return m.To == NoSquare && m.From == NoSquare && !m.IsDrop
}

func (m Move) IsPromotion() bool {
	return m.Promoted != m.Piece
}

func (m Move) IsCapture() bool {
	return m.Captured != NoPieceType
}

func (m Move) IsQuiet() bool {
	return !m.IsCapture() && !m.IsPromotion()
}

// String renders the move in USI move notation: "7g7f", "P*5e", with a
// trailing '+' for promotions.
func (m Move) String() string {
	if m.IsNull() {
		return "0000"
	}
	var s string
	if m.IsDrop {
		s = m.Piece.String() + "*" + m.To.String()
		return s
	}
	s = m.From.String() + m.To.String()
	if m.IsPromotion() {
		s += "+"
	}
	return s
}

// ParseMove parses a USI move string against pos to recover the full Move
// value (piece/captured fields come from board state, not the string).
func ParseMove(s string, pos *Position) (Move, error) {
	if s == "0000" || s == "resign" || s == "win" {
		return NullMove, nil
	}
	if len(s) < 4 {
		return NullMove, fmt.Errorf("shogi: move too short %q", s)
	}
	if s[1] == '*' {
		pt := pieceTypeFromUSIChar(s[0])
		if pt == NoPieceType {
			return NullMove, fmt.Errorf("shogi: bad drop piece %q", s)
		}
		to, err := ParseSquare(s[2:4])
		if err != nil {
			return NullMove, err
		}
		return Move{From: NoSquare, To: to, Piece: pt, Promoted: pt, IsDrop: true}, nil
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NullMove, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NullMove, err
	}
	moving := pos.PieceAt(from)
	if moving == NoPiece {
		return NullMove, fmt.Errorf("shogi: no piece at %s", from)
	}
	pt := moving.Type()
	promoted := pt
	if len(s) >= 5 && s[4] == '+' {
		promoted = pt.Promote()
	}
	captured := NoPieceType
	if target := pos.PieceAt(to); target != NoPiece {
		captured = target.Type()
	}
	return Move{From: from, To: to, Piece: pt, Promoted: promoted, Captured: captured}, nil
}

func pieceTypeFromUSIChar(b byte) PieceType {
	switch b {
	case 'P':
		return Pawn
	case 'L':
		return Lance
	case 'N':
		return Knight
	case 'S':
		return Silver
	case 'G':
		return Gold
	case 'B':
		return Bishop
	case 'R':
		return Rook
	default:
		return NoPieceType
	}
}

// MoveList is a fixed-capacity move buffer, avoiding per-node allocation in
// the hot search path (mirrors the teacher's board.MoveList).
type MoveList struct {
	moves [600]Move
	n     int
}

func (ml *MoveList) Add(m Move) {
	ml.moves[ml.n] = m
	ml.n++
}

func (ml *MoveList) Len() int          { return ml.n }
func (ml *MoveList) Get(i int) Move    { return ml.moves[i] }
func (ml *MoveList) Set(i int, m Move) { ml.moves[i] = m }
func (ml *MoveList) Clear()            { ml.n = 0 }
func (ml *MoveList) Slice() []Move     { return ml.moves[:ml.n] }

func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.n; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// UndoInfo carries everything MakeMove mutates so UnmakeMove can restore it
// exactly, without reallocating.
type UndoInfo struct {
	Captured     PieceType
	Key          uint64
	PliesFromNull int
}
