// Package shogi implements shogi board representation, move generation,
// and the pure evaluation/SEE/mate-detection helpers the search calls.
package shogi

// Color identifies a player. Black moves first (sente), White second (gote).
type Color uint8

const (
	Black Color = iota
	White
	ColorNB
)

// Other returns the opposing color.
func (c Color) Other() Color {
	return c ^ 1
}

func (c Color) String() string {
	if c == Black {
		return "b"
	}
	return "w"
}

// PieceType enumerates the 14 distinct shogi piece kinds (unpromoted and
// promoted forms; King and Gold never promote).
type PieceType uint8

const (
	NoPieceType PieceType = iota
	Pawn
	Lance
	Knight
	Silver
	Gold
	Bishop
	Rook
	King
	ProPawn   // tokin
	ProLance
	ProKnight
	ProSilver
	Horse // promoted bishop
	Dragon // promoted rook
	PieceTypeNB
)

// DroppablePieceTypes lists the seven kinds that can sit in hand and be
// dropped; ordered to match the hand-count array index.
var DroppablePieceTypes = [7]PieceType{Pawn, Lance, Knight, Silver, Gold, Bishop, Rook}

// HandIndex returns the hand-array slot for a droppable piece type, or -1.
func HandIndex(pt PieceType) int {
	switch pt {
	case Pawn:
		return 0
	case Lance:
		return 1
	case Knight:
		return 2
	case Silver:
		return 3
	case Gold:
		return 4
	case Bishop:
		return 5
	case Rook:
		return 6
	default:
		return -1
	}
}

// Promotes reports whether pt has a promoted form.
func (pt PieceType) Promotes() bool {
	switch pt {
	case Pawn, Lance, Knight, Silver, Bishop, Rook:
		return true
	default:
		return false
	}
}

// Promote returns the promoted form of pt (pt itself if it doesn't promote).
func (pt PieceType) Promote() PieceType {
	switch pt {
	case Pawn:
		return ProPawn
	case Lance:
		return ProLance
	case Knight:
		return ProKnight
	case Silver:
		return ProSilver
	case Bishop:
		return Horse
	case Rook:
		return Dragon
	default:
		return pt
	}
}

// Unpromote returns the base (droppable) form of a promoted piece type.
func (pt PieceType) Unpromote() PieceType {
	switch pt {
	case ProPawn:
		return Pawn
	case ProLance:
		return Lance
	case ProKnight:
		return Knight
	case ProSilver:
		return Silver
	case Horse:
		return Bishop
	case Dragon:
		return Rook
	default:
		return pt
	}
}

// IsPromoted reports whether pt is one of the promoted forms.
func (pt PieceType) IsPromoted() bool {
	switch pt {
	case ProPawn, ProLance, ProKnight, ProSilver, Horse, Dragon:
		return true
	default:
		return false
	}
}

// Value gives the classical material value of pt, in centipawns, used by
// both the default evaluator and move ordering (MVV/LVA, gain tracking).
func (pt PieceType) Value() int {
	switch pt {
	case Pawn:
		return 90
	case Lance:
		return 315
	case Knight:
		return 405
	case Silver:
		return 495
	case Gold:
		return 540
	case Bishop:
		return 855
	case Rook:
		return 990
	case ProPawn:
		return 540
	case ProLance:
		return 540
	case ProKnight:
		return 540
	case ProSilver:
		return 540
	case Horse:
		return 945
	case Dragon:
		return 1395
	case King:
		return 15000
	default:
		return 0
	}
}

func (pt PieceType) String() string {
	names := [...]string{"-", "P", "L", "N", "S", "G", "B", "R", "K", "+P", "+L", "+N", "+S", "+B", "+R"}
	if int(pt) < len(names) {
		return names[pt]
	}
	return "?"
}

// Piece packs a PieceType with an owning Color. NoPiece (0) denotes an
// empty square.
type Piece uint8

const NoPiece Piece = 0

// NewPiece builds a Piece value from its type and color.
func NewPiece(pt PieceType, c Color) Piece {
	if pt == NoPieceType {
		return NoPiece
	}
	return Piece(pt) | Piece(c)<<4
}

// Type extracts the PieceType.
func (p Piece) Type() PieceType {
	return PieceType(p & 0x0F)
}

// Color extracts the owning Color. Only meaningful if p != NoPiece.
func (p Piece) Color() Color {
	return Color((p >> 4) & 1)
}

func (p Piece) String() string {
	if p == NoPiece {
		return " * "
	}
	if p.Color() == White {
		return "v" + p.Type().String()
	}
	return "^" + p.Type().String()
}
