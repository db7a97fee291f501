package shogi

// MateIn1 looks for a single move by the side to move that checkmates the
// opponent outright (§2's "1-ply mate detection" collaborator). Returns
// the mating move and true if one exists.
func MateIn1(p *Position) (Move, bool) {
	var ml MoveList
	p.GenerateMoves(&ml)
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		if !p.IsLegal(m) {
			continue
		}
		var undo UndoInfo
		p.MakeMove(m, &undo)
		mate := p.IsInCheck(p.SideToMove) && !p.hasLegalMove()
		p.UnmakeMove(m, &undo)
		if mate {
			return m, true
		}
	}
	return NullMove, false
}

// MateIn3 performs a fixed 3-ply mate search: the attacker must give check
// on ply 1 and ply 3, the defender's ply-2 replies are all considered.
// Mirrors the "1/3-ply mate detection" collaborator named in spec.md §2;
// used by the main search's mate-in-3 probe (§4.4 pruning cascade) and by
// quiescence (§4.5) to shortcut provably won positions cheaply relative to
// a full search.
func MateIn3(p *Position) (Move, bool) {
	if m, ok := MateIn1(p); ok {
		return m, ok
	}
	var ml MoveList
	p.GenerateMoves(&ml)
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		if !p.IsLegal(m) {
			continue
		}
		if !p.GivesCheck(m) {
			continue
		}
		var undo UndoInfo
		p.MakeMove(m, &undo)
		ok := mateIn3Defend(p)
		p.UnmakeMove(m, &undo)
		if ok {
			return m, true
		}
	}
	return NullMove, false
}

// mateIn3Defend returns true if every legal defender reply (ply 2) leads
// to a mate-in-1 for the attacker (ply 3).
func mateIn3Defend(p *Position) bool {
	var ml MoveList
	p.GenerateMoves(&ml)
	any := false
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		if !p.IsLegal(m) {
			continue
		}
		any = true
		var undo UndoInfo
		p.MakeMove(m, &undo)
		_, mated := MateIn1(p)
		p.UnmakeMove(m, &undo)
		if !mated {
			return false
		}
	}
	return any
}
