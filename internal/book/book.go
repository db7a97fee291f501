// Package book implements opening-book lookup: a map from position key to
// a set of recorded moves with frequency/win statistics, filtered and
// weighted-randomly selected per the USI options spec.md §6 names
// (OwnBook, BookMaxPly, MinBookScoreForBlack/White, NarrowBook, TinyBook).
// Grounded on original_source/book.cc's Book/BookMoves (the filtering and
// importance-scoring algorithm in Book::GetBookMoves/BookMoves::PickRandom),
// adapted from the teacher's internal/book (Probe/weighted-random-pick
// shape, verifyAndConvert re-resolution against the legal move list) which
// this package generalizes from Polyglot's chess-only wire format to a
// simple shogi-native one carrying the original's richer per-move stats.
package book

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/hagoromo-shogi/engine/internal/shogi"
)

// Entry is one recorded book move for a position, mirroring the
// original's Book::Entry (minus its opening-strategy bitset, which has no
// analogue here since this spec's book is consumed, not curated).
type Entry struct {
	Move      string // USI move token, e.g. "7g7f", "P*5e"
	Frequency uint32
	WinCount  uint32
	Score     int16 // side-to-move-relative centipawn score from book search
}

// Book is an in-memory opening book, keyed by shogi.Position.Key.
type Book struct {
	entries map[uint64][]Entry
}

// New returns an empty book.
func New() *Book {
	return &Book{entries: make(map[uint64][]Entry)}
}

// recordSize is one on-disk entry: 8 (key) + 6 (move string, fixed width,
// zero-padded) + 4 (frequency) + 4 (win count) + 2 (score) bytes.
const recordSize = 8 + 6 + 4 + 4 + 2

// Load reads the book's binary format from a file.
func Load(filename string) (*Book, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadReader(f)
}

// LoadReader reads the book's binary format from an arbitrary reader.
func LoadReader(r io.Reader) (*Book, error) {
	b := New()
	br := bufio.NewReader(r)
	var rec [recordSize]byte
	for {
		_, err := io.ReadFull(br, rec[:])
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return nil, err
		}
		key := binary.BigEndian.Uint64(rec[0:8])
		move := trimZero(rec[8:14])
		freq := binary.BigEndian.Uint32(rec[14:18])
		win := binary.BigEndian.Uint32(rec[18:22])
		score := int16(binary.BigEndian.Uint16(rec[22:24]))
		b.entries[key] = append(b.entries[key], Entry{
			Move: move, Frequency: freq, WinCount: win, Score: score,
		})
	}
	return b, nil
}

func trimZero(b []byte) string {
	i := 0
	for i < len(b) && b[i] != 0 {
		i++
	}
	return string(b[:i])
}

// Filter holds the USI-option-tunable book selection rules, spec.md §6.
type Filter struct {
	MinBookScoreForBlack int
	MinBookScoreForWhite int
	NarrowBook           bool
	TinyBook             bool
}

// candidate pairs an entry with its computed selection weight
// ("importance" in the original); a non-positive weight excludes the move.
type candidate struct {
	Entry
	weight int64
}

// rank scores every entry for pos per Book::GetBookMoves, returning only
// the positively-weighted candidates.
func (b *Book) rank(pos *shogi.Position, f Filter) []candidate {
	entries := b.entries[pos.Key]
	if len(entries) == 0 {
		return nil
	}

	minScore := f.MinBookScoreForBlack
	if pos.SideToMove == shogi.White {
		minScore = f.MinBookScoreForWhite
	}

	var bestRate float64
	var sumWin, sumFreq float64
	for _, e := range entries {
		rate := float64(e.WinCount) / float64(e.Frequency+7)
		if rate > bestRate {
			bestRate = rate
		}
		sumWin += float64(e.WinCount)
		sumFreq += float64(e.Frequency)
	}
	avgWinRate := sumWin / maxFloat(sumFreq, 1.0)

	out := make([]candidate, 0, len(entries))
	for _, e := range entries {
		weight := int64(e.WinCount)

		if int(e.Score) < minScore {
			weight = -1
		} else if f.NarrowBook {
			rate := float64(e.WinCount) / float64(e.Frequency+7)
			winRate := float64(e.WinCount) / maxFloat(float64(e.Frequency), 1.0)
			if rate < bestRate*0.85 || winRate < avgWinRate*0.85 {
				weight = -1
			}
		}
		if weight > 0 && f.TinyBook && e.WinCount < 15 {
			weight = -1
		}

		if weight > 0 {
			out = append(out, candidate{Entry: e, weight: weight})
		}
	}
	return out
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// GetBookMoves returns every filtered, still-legal book move for pos,
// each re-resolved against pos.LegalMoves() the way the teacher's
// verifyAndConvert does, since a stored USI token alone doesn't carry the
// full shogi.Move (captured/promoted piece types).
func (b *Book) GetBookMoves(pos *shogi.Position, f Filter) map[shogi.Move]Entry {
	cands := b.rank(pos, f)
	if len(cands) == 0 {
		return nil
	}
	legal := pos.LegalMoves()
	out := make(map[shogi.Move]Entry, len(cands))
	for _, c := range cands {
		if lm, ok := resolve(legal, c.Move); ok {
			out[lm] = c.Entry
		}
	}
	return out
}

// Probe picks one book move for pos by weighted random selection over
// win count, mirroring BookMoves::PickRandom; ok is false if no filtered
// move survives (book empty or every candidate filtered out). The caller
// is expected to have already checked BookMaxPly before calling Probe.
func (b *Book) Probe(pos *shogi.Position, f Filter) (shogi.Move, bool) {
	if b == nil {
		return shogi.NoMove, false
	}
	cands := b.rank(pos, f)
	if len(cands) == 0 {
		return shogi.NoMove, false
	}
	legal := pos.LegalMoves()

	var total int64
	for _, c := range cands {
		total += c.weight
	}
	if total <= 0 {
		return resolve(legal, cands[0].Move)
	}

	r := rand.Int63n(total)
	var cum int64
	for _, c := range cands {
		cum += c.weight
		if r < cum {
			return resolve(legal, c.Move)
		}
	}
	return resolve(legal, cands[len(cands)-1].Move)
}

func resolve(legal []shogi.Move, token string) (shogi.Move, bool) {
	for _, lm := range legal {
		if lm.String() == token {
			return lm, true
		}
	}
	return shogi.NoMove, false
}

// Size returns the number of distinct positions recorded in the book.
func (b *Book) Size() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}

// String is a small debugging helper naming the book's position count.
func (b *Book) String() string {
	return fmt.Sprintf("book(%d positions)", b.Size())
}
