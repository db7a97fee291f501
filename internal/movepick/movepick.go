// Package movepick implements the C4 staged move picker: a lazy per-node
// iterator that yields pseudo-legal moves in the phase order §4.3
// describes, without materializing a fully-scored move list up front for
// the common case. Grounded on the teacher's internal/engine/ordering.go
// PickMove/SortMoves selection-sort approach (good enough for shogi's
// typically-under-150-move lists) generalized into the multi-stage state
// machine the spec calls for.
package movepick

import (
	"github.com/hagoromo-shogi/engine/internal/ordering"
	"github.com/hagoromo-shogi/engine/internal/shogi"
)

// Variant selects which staged sequence the picker runs.
type Variant int

const (
	Main Variant = iota
	QuiescenceWithChecks
	QuiescenceNoChecks
	RecaptureOnly
	Evasion
	ProbCut
)

type stage int

const (
	stageTTMove stage = iota
	stageGoodCaptures
	stageKillers
	stageGoodQuiets
	stageQuiets
	stageBadCaptures
	stageDone
)

// scoredMove pairs a move with its ordering score for the active stage.
type scoredMove struct {
	move  shogi.Move
	score int
}

// Picker drives one node's move iteration. Not safe for concurrent use;
// each search thread owns its own picker per node (cheap to construct,
// allocation limited to the position's legal-move count).
type Picker struct {
	variant Variant
	pos     *shogi.Position
	tables  *ordering.Tables
	ply     int
	ttMove  shogi.Move
	prev    shogi.Move // previous ply's move, for counter-move lookup
	grand   shogi.Move // two plies back, for follow-up-move lookup
	probCutThreshold int
	recaptureSquare  shogi.Square

	stage stage
	yielded []shogi.Move // de-duplication against everything emitted so far

	captures    []scoredMove
	badCaptures []scoredMove
	quiets      []scoredMove
	killerCand  []shogi.Move

	idx int // cursor into the current stage's slice
}

// New builds a picker for the main-search variant. Use the With* setters
// for quiescence/evasion/probcut variants before the first Next call.
func New(pos *shogi.Position, tables *ordering.Tables, ply int, ttMove, prevMove, grandparentMove shogi.Move) *Picker {
	return &Picker{
		variant: Main,
		pos:     pos,
		tables:  tables,
		ply:     ply,
		ttMove:  ttMove,
		prev:    prevMove,
		grand:   grandparentMove,
	}
}

// WithVariant switches the picker to a non-default stage sequence.
func (p *Picker) WithVariant(v Variant) *Picker {
	p.variant = v
	return p
}

// WithProbCutThreshold configures the SEE floor for the ProbCut variant.
func (p *Picker) WithProbCutThreshold(threshold int) *Picker {
	p.probCutThreshold = threshold
	return p
}

// WithRecaptureSquare restricts the RecaptureOnly variant to captures on sq.
func (p *Picker) WithRecaptureSquare(sq shogi.Square) *Picker {
	p.recaptureSquare = sq
	return p
}

func (p *Picker) alreadyYielded(m shogi.Move) bool {
	for _, y := range p.yielded {
		if y == m {
			return true
		}
	}
	return false
}

func (p *Picker) emit(m shogi.Move) shogi.Move {
	p.yielded = append(p.yielded, m)
	return m
}

// Next returns the next move in phase order, or (NullMove, false) when
// exhausted. Each move is yielded exactly once across all stages.
func (p *Picker) Next() (shogi.Move, bool) {
	switch p.variant {
	case Evasion:
		return p.nextEvasion()
	case ProbCut:
		return p.nextProbCut()
	case QuiescenceWithChecks, QuiescenceNoChecks, RecaptureOnly:
		return p.nextQuiescence()
	default:
		return p.nextMain()
	}
}

func (p *Picker) nextMain() (shogi.Move, bool) {
	for {
		switch p.stage {
		case stageTTMove:
			p.stage = stageGoodCaptures
			if p.ttMove != shogi.NullMove && !p.ttMove.IsNull() && p.pos.IsPseudoLegal(p.ttMove) {
				return p.emit(p.ttMove), true
			}
		case stageGoodCaptures:
			if p.captures == nil && p.badCaptures == nil {
				p.splitCaptures()
			}
			if p.idx < len(p.captures) {
				pickBestInPlace(p.captures, p.idx)
				m := p.captures[p.idx].move
				p.idx++
				if m == p.ttMove {
					continue
				}
				return p.emit(m), true
			}
			p.idx = 0
			p.stage = stageKillers
			p.buildKillerCandidates()
		case stageKillers:
			if p.idx < len(p.killerCand) {
				m := p.killerCand[p.idx]
				p.idx++
				if m.IsNull() || m == p.ttMove || p.alreadyYielded(m) || !p.pos.IsPseudoLegal(m) || m.IsCapture() {
					continue
				}
				return p.emit(m), true
			}
			p.idx = 0
			p.stage = stageGoodQuiets
			p.buildQuiets()
		case stageGoodQuiets, stageQuiets:
			if p.idx < len(p.quiets) {
				pickBestInPlace(p.quiets, p.idx)
				sm := p.quiets[p.idx]
				p.idx++
				if p.stage == stageGoodQuiets && sm.score <= 0 {
					// Exhausted the positive-history prefix; fall through
					// to the remainder stage, which keeps the same
					// best-first selection.
					p.idx--
					p.stage = stageQuiets
					continue
				}
				if p.alreadyYielded(sm.move) {
					continue
				}
				return p.emit(sm.move), true
			}
			if p.stage == stageGoodQuiets {
				p.stage = stageQuiets
				continue
			}
			p.idx = 0
			p.stage = stageBadCaptures
		case stageBadCaptures:
			if p.idx < len(p.badCaptures) {
				m := p.badCaptures[p.idx].move
				p.idx++
				if m == p.ttMove {
					continue
				}
				return p.emit(m), true
			}
			p.stage = stageDone
		case stageDone:
			return shogi.NullMove, false
		}
	}
}

func (p *Picker) splitCaptures() {
	var ml shogi.MoveList
	p.pos.GenerateCaptures(&ml)
	p.captures = make([]scoredMove, 0, ml.Len())
	p.badCaptures = make([]scoredMove, 0, 4)
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		score := p.tables.MVVLVA(m)
		if m.IsPromotion() {
			score += 2000
		}
		if p.pos.SeeSign(m) {
			p.captures = append(p.captures, scoredMove{m, score})
		} else {
			p.badCaptures = append(p.badCaptures, scoredMove{m, score})
		}
	}
}

func (p *Picker) buildKillerCandidates() {
	k1, k2 := p.tables.Killers(p.ply)
	c1, c2 := p.tables.CounterMoves(p.prev)
	f1, f2 := p.tables.FollowUpMoves(p.grand)
	p.killerCand = []shogi.Move{k1, k2, c1, c2, f1, f2}
}

func (p *Picker) buildQuiets() {
	var ml shogi.MoveList
	p.pos.GenerateMoves(&ml)
	p.quiets = make([]scoredMove, 0, ml.Len())
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		if m.IsCapture() || p.alreadyYielded(m) || m == p.ttMove {
			continue
		}
		score := p.tables.HistoryScore(m) + p.tables.CountermoveHistoryScore(p.prev, m)/2
		p.quiets = append(p.quiets, scoredMove{m, score})
	}
}

func pickBestInPlace(s []scoredMove, from int) {
	best := from
	for i := from + 1; i < len(s); i++ {
		if s[i].score > s[best].score {
			best = i
		}
	}
	s[from], s[best] = s[best], s[from]
}

// nextQuiescence implements the WithChecks/NoChecks/RecaptureOnly variants:
// hash move is suppressed for RecaptureOnly (§4.3), captures always run,
// quiet checks are appended only for WithChecks.
func (p *Picker) nextQuiescence() (shogi.Move, bool) {
	for {
		switch p.stage {
		case stageTTMove:
			p.stage = stageGoodCaptures
			if p.variant != RecaptureOnly && p.ttMove != shogi.NullMove && p.pos.IsPseudoLegal(p.ttMove) {
				return p.emit(p.ttMove), true
			}
		case stageGoodCaptures:
			if p.captures == nil {
				var ml shogi.MoveList
				p.pos.GenerateCaptures(&ml)
				p.captures = make([]scoredMove, 0, ml.Len())
				for i := 0; i < ml.Len(); i++ {
					m := ml.Get(i)
					if p.variant == RecaptureOnly && m.To != p.recaptureSquare {
						continue
					}
					p.captures = append(p.captures, scoredMove{m, p.tables.MVVLVA(m)})
				}
			}
			if p.idx < len(p.captures) {
				pickBestInPlace(p.captures, p.idx)
				m := p.captures[p.idx].move
				p.idx++
				if m == p.ttMove {
					continue
				}
				return p.emit(m), true
			}
			p.idx = 0
			if p.variant == QuiescenceWithChecks {
				p.stage = stageKillers // reused as "quiet checks" stage here
				p.buildQuietChecks()
				continue
			}
			p.stage = stageDone
		case stageKillers:
			if p.idx < len(p.quiets) {
				m := p.quiets[p.idx].move
				p.idx++
				if p.alreadyYielded(m) {
					continue
				}
				return p.emit(m), true
			}
			p.stage = stageDone
		case stageDone:
			return shogi.NullMove, false
		default:
			p.stage = stageDone
		}
	}
}

func (p *Picker) buildQuietChecks() {
	var ml shogi.MoveList
	p.pos.GenerateMoves(&ml)
	p.quiets = make([]scoredMove, 0, 8)
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		if m.IsCapture() || m == p.ttMove {
			continue
		}
		if p.pos.GivesCheck(m) {
			p.quiets = append(p.quiets, scoredMove{m, 0})
		}
	}
}

// nextEvasion orders moves so winning captures come first, non-losing
// quiets next, and SEE-losing moves last, per §4.3's evasion variant.
func (p *Picker) nextEvasion() (shogi.Move, bool) {
	if p.captures == nil && p.quiets == nil && p.badCaptures == nil {
		var ml shogi.MoveList
		p.pos.GenerateMoves(&ml)
		p.captures = make([]scoredMove, 0, ml.Len())
		p.quiets = make([]scoredMove, 0, ml.Len())
		p.badCaptures = make([]scoredMove, 0, 4)
		for i := 0; i < ml.Len(); i++ {
			m := ml.Get(i)
			score := 0
			if m.IsCapture() {
				score = p.tables.MVVLVA(m)
			} else {
				score = p.tables.HistoryScore(m)
			}
			if m == p.ttMove {
				score += 1 << 20
			}
			switch {
			case !p.pos.SeeSign(m):
				p.badCaptures = append(p.badCaptures, scoredMove{m, score})
			case m.IsCapture():
				p.captures = append(p.captures, scoredMove{m, score})
			default:
				p.quiets = append(p.quiets, scoredMove{m, score})
			}
		}
	}
	if p.idx < len(p.captures) {
		pickBestInPlace(p.captures, p.idx)
		m := p.captures[p.idx].move
		p.idx++
		return p.emit(m), true
	}
	j := p.idx - len(p.captures)
	if j < len(p.quiets) {
		pickBestInPlace(p.quiets, j)
		m := p.quiets[j].move
		p.idx++
		return p.emit(m), true
	}
	k := p.idx - len(p.captures) - len(p.quiets)
	if k < len(p.badCaptures) {
		m := p.badCaptures[k].move
		p.idx++
		return p.emit(m), true
	}
	return shogi.NullMove, false
}

// nextProbCut requires the hash move to be a capture whose SEE exceeds the
// caller's threshold, then iterates remaining captures above that same
// threshold, per §4.3.
func (p *Picker) nextProbCut() (shogi.Move, bool) {
	if p.captures == nil {
		var ml shogi.MoveList
		p.pos.GenerateCaptures(&ml)
		p.captures = make([]scoredMove, 0, ml.Len())
		for i := 0; i < ml.Len(); i++ {
			m := ml.Get(i)
			if p.pos.SEE(m) <= p.probCutThreshold {
				continue
			}
			p.captures = append(p.captures, scoredMove{m, p.tables.MVVLVA(m)})
		}
		if p.ttMove != shogi.NullMove && p.ttMove.IsCapture() && p.pos.SEE(p.ttMove) > p.probCutThreshold {
			p.captures = append([]scoredMove{{p.ttMove, 1 << 20}}, p.captures...)
		}
	}
	if p.idx >= len(p.captures) {
		return shogi.NullMove, false
	}
	pickBestInPlace(p.captures, p.idx)
	m := p.captures[p.idx].move
	p.idx++
	if p.alreadyYielded(m) {
		return p.Next()
	}
	return p.emit(m), true
}
