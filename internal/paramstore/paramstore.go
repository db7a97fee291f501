package paramstore

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strconv"

	"github.com/dgraph-io/badger/v4"
)

const keyOptions = "options"

// Options holds every USI option spec.md §6 names, with its declared
// default. SetByName maps each USI option name to its field with a plain
// string switch, without reflection.
type Options struct {
	USIHash           int  `json:"usi_hash"`
	USIPonder         bool `json:"usi_ponder"`
	Threads           int  `json:"threads"`
	MultiPV           int  `json:"multi_pv"`
	DrawScore         int  `json:"draw_score"`
	ByoyomiMargin     int  `json:"byoyomi_margin_ms"`
	FischerMargin     int  `json:"fischer_margin_ms"`
	SuddenDeathMargin int  `json:"sudden_death_margin_s"`
	MinThinkingTime   int  `json:"min_thinking_time_ms"`
	OwnBook           bool `json:"own_book"`
	BookMaxPly        int  `json:"book_max_ply"`
	MinBookScoreBlack int  `json:"min_book_score_black"`
	MinBookScoreWhite int  `json:"min_book_score_white"`
	NarrowBook        bool `json:"narrow_book"`
	TinyBook          bool `json:"tiny_book"`
	LimitDepth        int  `json:"limit_depth"`
}

// DefaultOptions returns spec.md §6's default column, hwThreads being the
// caller-supplied runtime.NumCPU()-derived Threads default.
func DefaultOptions(hwThreads int) Options {
	if hwThreads < 1 {
		hwThreads = 1
	}
	return Options{
		USIHash:           256,
		USIPonder:         true,
		Threads:           hwThreads,
		MultiPV:           1,
		DrawScore:         0,
		ByoyomiMargin:     100,
		FischerMargin:     12000,
		SuddenDeathMargin: 60,
		MinThinkingTime:   1000,
		OwnBook:           true,
		BookMaxPly:        50,
		MinBookScoreBlack: 0,
		MinBookScoreWhite: -180,
		NarrowBook:        false,
		TinyBook:          false,
		LimitDepth:        127,
	}
}

// SetByName applies a "setoption name <N> value <V>" pair to o, clamping
// spin values to the ranges spec.md §6 names. Unknown names are ignored
// (a well-behaved USI GUI only sends names advertised by "option name").
func (o *Options) SetByName(name, value string) {
	clamp := func(v, lo, hi int) int {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	asBool := func(v string) bool { return v == "true" }
	asInt := func(v string) int {
		n, _ := strconv.Atoi(v)
		return n
	}

	switch name {
	case "USI_Hash":
		o.USIHash = clamp(asInt(value), 1, 16384)
	case "USI_Ponder":
		o.USIPonder = asBool(value)
	case "Threads":
		o.Threads = clamp(asInt(value), 1, 64)
	case "MultiPV":
		o.MultiPV = clamp(asInt(value), 1, 256)
	case "DrawScore":
		o.DrawScore = clamp(asInt(value), -200, 200)
	case "ByoyomiMargin":
		o.ByoyomiMargin = clamp(asInt(value), 0, 10000)
	case "FischerMargin":
		o.FischerMargin = clamp(asInt(value), 0, 60000)
	case "SuddenDeathMargin":
		o.SuddenDeathMargin = clamp(asInt(value), 0, 600)
	case "MinThinkingTime":
		o.MinThinkingTime = clamp(asInt(value), 10, 60000)
	case "OwnBook":
		o.OwnBook = asBool(value)
	case "BookMaxPly":
		o.BookMaxPly = clamp(asInt(value), 0, 50)
	case "MinBookScoreForBlack":
		o.MinBookScoreBlack = asInt(value)
	case "MinBookScoreForWhite":
		o.MinBookScoreWhite = asInt(value)
	case "NarrowBook":
		o.NarrowBook = asBool(value)
	case "TinyBook":
		o.TinyBook = asBool(value)
	case "LimitDepth":
		o.LimitDepth = clamp(asInt(value), 1, 127)
	}
}

// Descriptors returns the "option name ..." lines spec.md §6 requires,
// in table order.
func Descriptors() []string {
	return []string{
		"option name USI_Hash type spin default 256 min 1 max 16384",
		"option name USI_Ponder type check default true",
		fmt.Sprintf("option name Threads type spin default %d min 1 max 64", runtime.NumCPU()),
		"option name MultiPV type spin default 1 min 1 max 256",
		"option name DrawScore type spin default 0 min -200 max 200",
		"option name ByoyomiMargin type spin default 100 min 0 max 10000",
		"option name FischerMargin type spin default 12000 min 0 max 60000",
		"option name SuddenDeathMargin type spin default 60 min 0 max 600",
		"option name MinThinkingTime type spin default 1000 min 10 max 60000",
		"option name OwnBook type check default true",
		"option name BookMaxPly type spin default 50 min 0 max 50",
		"option name MinBookScoreForBlack type spin default 0 min -10000 max 10000",
		"option name MinBookScoreForWhite type spin default -180 min -10000 max 10000",
		"option name NarrowBook type check default false",
		"option name TinyBook type check default false",
		"option name LimitDepth type spin default 127 min 1 max 127",
		"option name BookFile type filename default <empty>",
	}
}

// Store wraps BadgerDB for persisting Options across restarts. The engine
// opens it once at startup and saves and closes it when it shuts down
// after "quit". Grounded on the teacher's
// internal/storage.Storage (same Open/Close/Save/Load shape).
type Store struct {
	db *badger.DB
}

// Open opens (creating if absent) the paramstore database.
func Open() (*Store, error) {
	dir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save persists o.
func (s *Store) Save(o Options) error {
	data, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyOptions), data)
	})
}

// Load loads persisted options, falling back to defaults (sized by
// hwThreads) if none were ever saved.
func (s *Store) Load(hwThreads int) (Options, error) {
	o := DefaultOptions(hwThreads)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyOptions))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &o)
		})
	})
	return o, err
}
