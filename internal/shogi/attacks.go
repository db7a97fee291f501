package shogi

// Step/slide direction tables, expressed as (dfile, drank) pairs. Black
// moves "up" the board (toward decreasing rank); White moves "down".

type dir struct{ df, dr int }

var (
	goldDirsBlack   = []dir{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {0, 1}}
	silverDirsBlack = []dir{{-1, -1}, {0, -1}, {1, -1}, {-1, 1}, {1, 1}}
	kingDirs        = []dir{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}}
	bishopSlides    = []dir{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}}
	rookSlides      = []dir{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}
)

func flip(ds []dir) []dir {
	out := make([]dir, len(ds))
	for i, d := range ds {
		out[i] = dir{d.df, -d.dr}
	}
	return out
}

var goldDirsWhite = flip(goldDirsBlack)
var silverDirsWhite = flip(silverDirsBlack)

func stepDirs(pt PieceType, c Color) []dir {
	switch pt {
	case Gold, ProPawn, ProLance, ProKnight, ProSilver:
		if c == Black {
			return goldDirsBlack
		}
		return goldDirsWhite
	case Silver:
		if c == Black {
			return silverDirsBlack
		}
		return silverDirsWhite
	case King:
		return kingDirs
	default:
		return nil
	}
}

func inBounds(f, r int) bool { return f >= 0 && f < NumFiles && r >= 0 && r < NumRanks }

// attacksFrom returns, via callback, every square attacked by a piece of
// type pt/color c sitting on sq, given the current occupancy in p.
func (p *Position) attacksFrom(sq Square, pt PieceType, c Color, visit func(Square)) {
	f, r := FileOf(sq), RankOf(sq)
	switch pt {
	case Pawn:
		dr := -1
		if c == White {
			dr = 1
		}
		if inBounds(f, r+dr) {
			visit(NewSquare(f, r+dr))
		}
	case Lance:
		dr := -1
		if c == White {
			dr = 1
		}
		for nr := r + dr; inBounds(f, nr); nr += dr {
			to := NewSquare(f, nr)
			visit(to)
			if p.Board[to] != NoPiece {
				break
			}
		}
	case Knight:
		dr := -2
		if c == White {
			dr = 2
		}
		for _, df := range []int{-1, 1} {
			if inBounds(f+df, r+dr) {
				visit(NewSquare(f+df, r+dr))
			}
		}
	case Bishop, Horse:
		for _, d := range bishopSlides {
			for nf, nr := f+d.df, r+d.dr; inBounds(nf, nr); nf, nr = nf+d.df, nr+d.dr {
				to := NewSquare(nf, nr)
				visit(to)
				if p.Board[to] != NoPiece {
					break
				}
			}
		}
		if pt == Horse {
			for _, d := range rookSlides {
				if inBounds(f+d.df, r+d.dr) {
					visit(NewSquare(f+d.df, r+d.dr))
				}
			}
		}
	case Rook, Dragon:
		for _, d := range rookSlides {
			for nf, nr := f+d.df, r+d.dr; inBounds(nf, nr); nf, nr = nf+d.df, nr+d.dr {
				to := NewSquare(nf, nr)
				visit(to)
				if p.Board[to] != NoPiece {
					break
				}
			}
		}
		if pt == Dragon {
			for _, d := range bishopSlides {
				if inBounds(f+d.df, r+d.dr) {
					visit(NewSquare(f+d.df, r+d.dr))
				}
			}
		}
	default:
		for _, d := range stepDirs(pt, c) {
			if inBounds(f+d.df, r+d.dr) {
				visit(NewSquare(f+d.df, r+d.dr))
			}
		}
	}
}

// IsAttacked reports whether sq is attacked by any piece of color by.
func (p *Position) IsAttacked(sq Square, by Color) bool {
	for s := Square(0); s < BoardSize; s++ {
		pc := p.Board[s]
		if pc == NoPiece || pc.Color() != by {
			continue
		}
		found := false
		p.attacksFrom(s, pc.Type(), by, func(t Square) {
			if t == sq {
				found = true
			}
		})
		if found {
			return true
		}
	}
	return false
}

// IsInCheck reports whether c's king is currently attacked.
func (p *Position) IsInCheck(c Color) bool {
	king := p.KingSquare[c]
	if king == NoSquare {
		return false
	}
	return p.IsAttacked(king, c.Other())
}

// GivesCheck reports whether playing m would put the opponent in check.
// Used by the search to extend checking moves (§4.4 step 2); it plays
// the move on p, tests, and unmakes it.
func (p *Position) GivesCheck(m Move) bool {
	var undo UndoInfo
	p.MakeMove(m, &undo)
	inCheck := p.IsInCheck(p.SideToMove)
	p.UnmakeMove(m, &undo)
	return inCheck
}

// attackersTo collects every square occupied by a piece of either color
// attacking sq, skipping squares for which occluded reports true. Used by
// SEE.
func (p *Position) attackersTo(sq Square, occluded func(Square) bool) []Square {
	var out []Square
	for s := Square(0); s < BoardSize; s++ {
		pc := p.Board[s]
		if pc == NoPiece || (occluded != nil && occluded(s)) {
			continue
		}
		found := false
		p.attacksFrom(s, pc.Type(), pc.Color(), func(t Square) {
			if t == sq {
				found = true
			}
		})
		if found {
			out = append(out, s)
		}
	}
	return out
}
