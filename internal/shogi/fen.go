package shogi

import (
	"fmt"
	"strconv"
	"strings"
)

// StartSFEN is the standard shogi starting position in SFEN notation.
const StartSFEN = "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"

var sfenPieceChars = map[byte]PieceType{
	'p': Pawn, 'l': Lance, 'n': Knight, 's': Silver, 'g': Gold,
	'b': Bishop, 'r': Rook, 'k': King,
}

// ParseSFEN parses the 4-field SFEN string (board, side, hands, move
// number) into a Position.
func ParseSFEN(s string) (*Position, error) {
	fields := strings.Fields(s)
	if len(fields) < 3 {
		return nil, fmt.Errorf("shogi: sfen needs at least 3 fields: %q", s)
	}
	p := &Position{KingSquare: [ColorNB]Square{NoSquare, NoSquare}}

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != NumRanks {
		return nil, fmt.Errorf("shogi: sfen needs 9 ranks: %q", fields[0])
	}
	for r, rowStr := range ranks {
		file := 0
		promoted := false
		for i := 0; i < len(rowStr); i++ {
			ch := rowStr[i]
			switch {
			case ch == '+':
				promoted = true
			case ch >= '1' && ch <= '9':
				n, _ := strconv.Atoi(string(ch))
				file += n
				promoted = false
			default:
				lower := ch | 0x20
				pt, ok := sfenPieceChars[lower]
				if !ok {
					return nil, fmt.Errorf("shogi: bad board char %q", ch)
				}
				if promoted {
					pt = pt.Promote()
				}
				c := Black
				if ch >= 'a' && ch <= 'z' {
					c = White
				}
				sq := NewSquare(file, r)
				p.Board[sq] = NewPiece(pt, c)
				if pt == King {
					p.KingSquare[c] = sq
				}
				file++
				promoted = false
			}
		}
	}

	switch fields[1] {
	case "b":
		p.SideToMove = Black
	case "w":
		p.SideToMove = White
	default:
		return nil, fmt.Errorf("shogi: bad side field %q", fields[1])
	}

	if fields[2] != "-" {
		count := 0
		for i := 0; i < len(fields[2]); i++ {
			ch := fields[2][i]
			if ch >= '0' && ch <= '9' {
				count = count*10 + int(ch-'0')
				continue
			}
			if count == 0 {
				count = 1
			}
			lower := ch | 0x20
			pt, ok := sfenPieceChars[lower]
			if !ok {
				return nil, fmt.Errorf("shogi: bad hand char %q", ch)
			}
			c := Black
			if ch >= 'a' && ch <= 'z' {
				c = White
			}
			idx := HandIndex(pt)
			if idx >= 0 {
				p.Hands[c][idx] = int8(count)
			}
			count = 0
		}
	}

	if len(fields) >= 4 {
		if n, err := strconv.Atoi(fields[3]); err == nil {
			p.Ply = n - 1
			if p.Ply < 0 {
				p.Ply = 0
			}
		}
	}

	p.recomputeKey()
	return p, nil
}

// SFEN renders the position back to SFEN form.
func (p *Position) SFEN() string {
	var b strings.Builder
	for r := 0; r < NumRanks; r++ {
		empty := 0
		for f := 0; f < NumFiles; f++ {
			pc := p.Board[NewSquare(f, r)]
			if pc == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				fmt.Fprintf(&b, "%d", empty)
				empty = 0
			}
			ch := pc.Type().sfenLetter()
			if pc.Color() == White {
				ch = strings.ToLower(ch)
			}
			b.WriteString(ch)
		}
		if empty > 0 {
			fmt.Fprintf(&b, "%d", empty)
		}
		if r != NumRanks-1 {
			b.WriteByte('/')
		}
	}
	b.WriteByte(' ')
	b.WriteString(p.SideToMove.String())
	b.WriteByte(' ')

	hand := ""
	for c := Color(0); c < ColorNB; c++ {
		for _, pt := range []PieceType{Rook, Bishop, Gold, Silver, Knight, Lance, Pawn} {
			n := p.Hands[c].Count(pt)
			if n == 0 {
				continue
			}
			ch := pt.sfenLetter()
			if c == White {
				ch = strings.ToLower(ch)
			}
			if n > 1 {
				hand += fmt.Sprintf("%d", n)
			}
			hand += ch
		}
	}
	if hand == "" {
		hand = "-"
	}
	b.WriteString(hand)
	fmt.Fprintf(&b, " %d", p.Ply+1)
	return b.String()
}

func (pt PieceType) sfenLetter() string {
	switch pt.Unpromote() {
	case Pawn:
		if pt.IsPromoted() {
			return "+P"
		}
		return "P"
	case Lance:
		if pt.IsPromoted() {
			return "+L"
		}
		return "L"
	case Knight:
		if pt.IsPromoted() {
			return "+N"
		}
		return "N"
	case Silver:
		if pt.IsPromoted() {
			return "+S"
		}
		return "S"
	case Gold:
		return "G"
	case Bishop:
		if pt.IsPromoted() {
			return "+B"
		}
		return "B"
	case Rook:
		if pt.IsPromoted() {
			return "+R"
		}
		return "R"
	case King:
		return "K"
	default:
		return "?"
	}
}
