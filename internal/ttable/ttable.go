// Package ttable implements the C2 transposition table: a fixed-capacity
// concurrent map from position fingerprint to cached search results.
// Grounded on the teacher's internal/engine/transposition.go (bucketed,
// generation-aged replacement) generalized from a flat one-entry-per-slot
// table to the small fixed-size buckets spec.md §3 calls for, and on
// RenWild-combusken's engine/engine.go TransTable interface shape for the
// Get/Set/Clear naming.
package ttable

import (
	"sync"

	"github.com/hagoromo-shogi/engine/internal/shogi"
)

// Bound classifies the kind of score stored: the search may not have
// explored enough of the tree to know the exact value.
type Bound uint8

const (
	BoundNone Bound = iota
	BoundExact
	BoundLower
	BoundUpper
)

const bucketSize = 4

// Entry is one cached search result (§3 "Transposition entry").
type Entry struct {
	key             uint32 // high bits of the fingerprint, for verification
	Move            shogi.Move
	Score           int16
	StaticEval      int16
	Depth           int8
	Bound           Bound
	Age             uint8
	Mate3AlreadyTried bool
}

func (e *Entry) occupied() bool { return e.Bound != BoundNone }

type bucket struct {
	entries [bucketSize]Entry
	mu      sync.Mutex
}

// Table is the fixed-capacity bucketed hash map. Reads and writes both
// take a narrow per-bucket lock. The spec's "Hyatt-lockless"
// CAS-on-packed-word scheme is approximated here with a per-bucket mutex
// sized small enough (4 entries) that contention is negligible relative
// to search cost, which keeps the Go implementation simple while
// preserving the documented invariant that a reader never observes a torn
// entry — callers must still validate the returned move as pseudo-legal
// before acting on it (§4.1), since the entry may belong to a different,
// colliding key whose low bits matched by chance.
type Table struct {
	buckets []bucket
	mask    uint64
	age     uint32
}

// New allocates a table sized to approximately sizeMB megabytes.
func New(sizeMB int) *Table {
	if sizeMB < 1 {
		sizeMB = 1
	}
	bytesPerBucket := uint64(bucketSize*24) + 8
	numBuckets := (uint64(sizeMB) * 1024 * 1024) / bytesPerBucket
	numBuckets = roundDownPow2(numBuckets)
	if numBuckets == 0 {
		numBuckets = 1
	}
	return &Table{
		buckets: make([]bucket, numBuckets),
		mask:    numBuckets - 1,
	}
}

func roundDownPow2(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

func (t *Table) bucketFor(key uint64) *bucket {
	return &t.buckets[key&t.mask]
}

// Prefetch is advisory only; Go has no portable software-prefetch
// intrinsic, so this touches the bucket's cache line to approximate it.
func (t *Table) Prefetch(key uint64) {
	b := t.bucketFor(key)
	_ = b.entries[0].key
}

// Lookup returns the matching entry in key's bucket, if any.
func (t *Table) Lookup(key uint64) (Entry, bool) {
	b := t.bucketFor(key)
	hi := uint32(key >> 32)
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.entries {
		if b.entries[i].occupied() && b.entries[i].key == hi {
			return b.entries[i], true
		}
	}
	return Entry{}, false
}

// Save stores a result, selecting a victim per §4.1: prefer the oldest
// generation, and within the oldest generation prefer the shallowest
// depth. A matching key is always overwritten; if the incoming move is
// null, the previously stored move is preserved (useful when re-storing
// just a refined score/bound without having re-discovered a best move).
func (t *Table) Save(key uint64, move shogi.Move, score, depth int, bound Bound, staticEval int, mate3Tried bool) {
	b := t.bucketFor(key)
	hi := uint32(key >> 32)
	b.mu.Lock()
	defer b.mu.Unlock()

	victim := -1
	for i := range b.entries {
		e := &b.entries[i]
		if !e.occupied() {
			victim = i
			break
		}
		if e.key == hi {
			victim = i
			break
		}
	}
	if victim == -1 {
		victim = 0
		for i := 1; i < bucketSize; i++ {
			if worseVictim(&b.entries[i], &b.entries[victim], uint8(t.age)) {
				victim = i
			}
		}
	}

	e := &b.entries[victim]
	finalMove := move
	if finalMove.IsNull() && e.key == hi && e.occupied() {
		finalMove = e.Move
	}
	e.key = hi
	e.Move = finalMove
	e.Score = int16(score)
	e.StaticEval = int16(staticEval)
	e.Depth = int8(depth)
	e.Bound = bound
	e.Age = uint8(t.age)
	e.Mate3AlreadyTried = mate3Tried || (e.key == hi && e.Mate3AlreadyTried)
}

// InsertMoves replants pv into the table by walking pos forward one move at
// a time, overwriting the Move field (and nothing else) of the entry
// already occupying each reached position's bucket slot. It stops at the
// first move that isn't pseudo-legal in the position reached so far, or the
// first position with no existing entry to replant into (every position
// this search actually visited was already Saved by searchMoves, so in
// practice this only stops early on a pv tail the search didn't revisit).
// Grounded on search.cc's post-iteration
// shared_.hash_table.InsertMoves(node, root_moves_.at(i).pv) call, run for
// every root move at or above the just-settled MultiPV index so the table
// stays in sync with the freshest iteration's PVs.
func (t *Table) InsertMoves(pos *shogi.Position, pv []shogi.Move) {
	p := pos.Copy()
	for _, m := range pv {
		if m.IsNull() || !p.IsPseudoLegal(m) {
			return
		}
		if !t.insertMove(p.Key, m) {
			return
		}
		var undo shogi.UndoInfo
		p.MakeMove(m, &undo)
	}
}

// insertMove overwrites the Move field of the occupied entry matching key,
// reporting whether one was found.
func (t *Table) insertMove(key uint64, m shogi.Move) bool {
	b := t.bucketFor(key)
	hi := uint32(key >> 32)
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.entries {
		e := &b.entries[i]
		if e.occupied() && e.key == hi {
			e.Move = m
			return true
		}
	}
	return false
}

// ExtractMoves extends pv by first walking pos forward along its existing
// moves, then continuing to append TT-stored best moves at each subsequent
// position for as long as the table has a pseudo-legal, legal continuation
// and maxLen hasn't been reached, stopping early if a position repeats
// (guarding against an infinite loop through a TT cycle). Grounded on
// search.cc's info-formatting call `shared_.hash_table.ExtractMoves(node,
// pv)`, used only when depth >= 3 and the live PV table captured two moves
// or fewer.
func (t *Table) ExtractMoves(pos *shogi.Position, pv []shogi.Move, maxLen int) []shogi.Move {
	p := pos.Copy()
	out := append([]shogi.Move(nil), pv...)
	seen := map[uint64]bool{p.Key: true}

	for _, m := range pv {
		if m.IsNull() || !p.IsPseudoLegal(m) || !p.IsLegal(m) {
			return out
		}
		var undo shogi.UndoInfo
		p.MakeMove(m, &undo)
		seen[p.Key] = true
	}

	for len(out) < maxLen {
		e, ok := t.Lookup(p.Key)
		if !ok || e.Move.IsNull() || !p.IsPseudoLegal(e.Move) || !p.IsLegal(e.Move) {
			break
		}
		m := e.Move
		var undo shogi.UndoInfo
		p.MakeMove(m, &undo)
		if seen[p.Key] {
			break
		}
		seen[p.Key] = true
		out = append(out, m)
	}
	return out
}

// worseVictim reports whether candidate is a worse (more replaceable)
// entry than current, under "oldest generation, then shallowest depth".
func worseVictim(candidate, current *Entry, curAge uint8) bool {
	candAgeDelta := curAge - candidate.Age
	curAgeDelta := curAge - current.Age
	if candAgeDelta != curAgeDelta {
		return candAgeDelta > curAgeDelta
	}
	return candidate.Depth < current.Depth
}

// NextAge increments the generation counter, called once per top-level
// search.
func (t *Table) NextAge() {
	t.age++
}

// Hashfull returns a coarse occupancy estimate in thousandths, sampling
// the first 1000 buckets' first slot (matches the teacher's sampling
// approach in Hashfull/HashFull).
func (t *Table) Hashfull() int {
	sample := len(t.buckets)
	if sample > 1000 {
		sample = 1000
	}
	if sample == 0 {
		return 0
	}
	used := 0
	for i := 0; i < sample; i++ {
		if t.buckets[i].entries[0].occupied() && t.buckets[i].entries[0].Age == uint8(t.age) {
			used++
		}
	}
	return used * 1000 / sample
}

// Clear wipes the whole table (used on ucinewgame-equivalent resets).
func (t *Table) Clear() {
	for i := range t.buckets {
		t.buckets[i] = bucket{}
	}
	t.age = 0
}

// ScoreToTT adjusts a mate-range score for storage, encoding its distance
// from the current node rather than from the root (§3 invariant).
func ScoreToTT(score, ply int) int {
	if score >= MateInMaxPly {
		return score + ply
	}
	if score <= -MateInMaxPly {
		return score - ply
	}
	return score
}

// ScoreFromTT is the inverse of ScoreToTT.
func ScoreFromTT(score, ply int) int {
	if score >= MateInMaxPly {
		return score - ply
	}
	if score <= -MateInMaxPly {
		return score + ply
	}
	return score
}

// MateInMaxPly mirrors Stockfish-family engines' threshold for "score is
// in the mate range"; scores beyond it are ply-adjusted on save/load.
const MateInMaxPly = 30000 - 128
