package search

import (
	"math"

	"github.com/hagoromo-shogi/engine/internal/ordering"
	"github.com/hagoromo-shogi/engine/internal/shogi"
	"github.com/hagoromo-shogi/engine/internal/ttable"
)

// pvTable is a triangular array storing the principal variation rooted at
// each ply, matching the teacher's PVTable shape.
type pvTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]shogi.Move
}

func (t *pvTable) clear(ply int) {
	t.length[ply] = 0
}

func (t *pvTable) update(ply int, m shogi.Move) {
	t.moves[ply][0] = m
	n := t.length[ply+1]
	if n > 0 {
		copy(t.moves[ply][1:1+n], t.moves[ply+1][:n])
	}
	t.length[ply] = n + 1
}

func (t *pvTable) line(ply int) []shogi.Move {
	n := t.length[ply]
	out := make([]shogi.Move, n)
	copy(out, t.moves[ply][:n])
	return out
}

// Worker is the per-thread search state of C8's Lazy-SMP pool: one position
// copy, its own search stack and PV table, and pointers to the structures
// shared read/write across the pool (transposition table, move-ordering
// statistics, signals). Grounded on the teacher's engine.Worker, trimmed of
// NNUE/tablebase fields (dropped per SPEC_FULL.md) and generalized to
// shogi's position/move types.
type Worker struct {
	ID int

	pos *shogi.Position

	tt      *ttable.Table
	tables  *ordering.Tables // shared across the pool; races tolerated per §4.2/§5
	signals *Signals

	nodes uint64

	ss [stackSize]stackFrame
	pv pvTable

	// priorKeys holds the Zobrist keys of positions reached before this
	// search began (supplied by the caller from game history); only used
	// to detect an exact-repetition draw, since full SHEK classification
	// needs per-position hand/check detail this worker doesn't retain for
	// positions outside its own search path.
	priorKeys []uint64

	// posHistory snapshots every position reached during this search, for
	// full repetition classification (§4.4).
	posHistory []historyEntry

	rootMoves     RootMoves
	multiPVCursor int // moves [0:multiPVCursor) are already decided this iteration

	// skipMask implements Lazy-SMP worker iteration skipping (§4.6): a
	// worker with ID > 0 skips depth d when skipMask[(d+gamePly)%len] is
	// true, staggering exploration depths across the pool.
	skipMask []bool
	gamePly  int

	optimism    [2]int
	lmrTable    [MaxPly][64]int

	// drawScoreOption is the configured USI DrawScore value (§6), from the
	// perspective of rootColor; the opposing color sees its negation,
	// mirroring the teacher's set_draw_scores(root_side_to_move, ...).
	drawScoreOption int
	rootColor       shogi.Color
}

// drawScoreAt reports the draw score from stm's perspective: drawScoreOption
// if stm is the side that was to move at the root of this search, its
// negation otherwise.
func (w *Worker) drawScoreAt(stm shogi.Color) int {
	if stm == w.rootColor {
		return w.drawScoreOption
	}
	return -w.drawScoreOption
}

// drawScore reports the draw score for the position currently on w.pos.
func (w *Worker) drawScore() int {
	return w.drawScoreAt(w.pos.SideToMove)
}

// halfDensityMasks are Stockfish-style Lazy-SMP skip patterns: worker i
// (1-indexed among the non-master workers) uses masks[(i-1)%len(masks)].
// Each mask is a bitset over "iteration index mod 8", true meaning skip.
var halfDensityMasks = [][8]bool{
	{false, false, false, false, false, false, false, false},
	{false, false, false, true, false, false, false, true},
	{false, false, true, false, false, true, false, false},
	{false, true, false, true, false, true, false, true},
	{true, false, false, false, true, false, false, false},
	{true, true, false, false, true, true, false, false},
}

// NewWorker builds a worker sharing tt/tables/signals with its pool.
func NewWorker(id int, tt *ttable.Table, tables *ordering.Tables, signals *Signals, drawScore int) *Worker {
	w := &Worker{
		ID:              id,
		tt:              tt,
		tables:          tables,
		signals:         signals,
		drawScoreOption: drawScore,
	}
	w.ss = newSearchStack()
	initLMRTable(&w.lmrTable)
	if id > 0 {
		mask := halfDensityMasks[(id-1)%len(halfDensityMasks)]
		w.skipMask = mask[:]
	}
	return w
}

// initLMRTable precomputes the LMR reduction-by-(depth, moveCount) table,
// grounded on the teacher's Stockfish-derived formula. §4.4 step 7's
// alternate regime for d>=8 (reduction derived from a trained move
// probability model) is not implemented: see DESIGN.md's move-probability
// entry for why this table is used at every depth instead.
func initLMRTable(t *[MaxPly][64]int) {
	for d := 1; d < MaxPly; d++ {
		for mc := 1; mc < 64; mc++ {
			// (21.46*ln(d))*(21.46*ln(mc))/1024, matching the teacher's
			// Stockfish-derived lmrReductions formula.
			r := 21.46 * math.Log(float64(d)) * 21.46 * math.Log(float64(mc)) / 1024.0
			t[d][mc] = int(r)
		}
	}
}

// SetPosition installs pos as the worker's root position (copied so the
// worker never mutates the caller's copy) and resets per-search state.
func (w *Worker) SetPosition(pos *shogi.Position, priorKeys []uint64, gamePly int) {
	w.pos = pos.Copy()
	w.rootColor = pos.SideToMove
	w.priorKeys = append([]uint64(nil), priorKeys...)
	w.posHistory = w.posHistory[:0]
	w.gamePly = gamePly
	w.nodes = 0
	for i := range w.ss {
		w.ss[i] = stackFrame{hashMove: shogi.NullMove, currentMove: shogi.NullMove, excludedMove: shogi.NullMove}
	}
}

// SetRootMoves installs the root-move set this worker will iterate over.
func (w *Worker) SetRootMoves(rm RootMoves) {
	w.rootMoves = rm
}

// SetDrawScore updates the configured USI DrawScore value for a future
// search; it does not affect a search already in progress.
func (w *Worker) SetDrawScore(v int) { w.drawScoreOption = v }

func (w *Worker) Nodes() uint64 { return w.nodes }

// skipIteration reports whether this worker (per Lazy-SMP skipping) should
// skip depth d on this call.
func (w *Worker) skipIteration(d int) bool {
	if w.ID == 0 || len(w.skipMask) == 0 {
		return false
	}
	return w.skipMask[(d+w.gamePly)%len(w.skipMask)]
}
