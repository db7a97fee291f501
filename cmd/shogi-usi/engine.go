package main

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/hagoromo-shogi/engine/internal/book"
	"github.com/hagoromo-shogi/engine/internal/cluster"
	"github.com/hagoromo-shogi/engine/internal/consultation"
	"github.com/hagoromo-shogi/engine/internal/ordering"
	"github.com/hagoromo-shogi/engine/internal/paramstore"
	"github.com/hagoromo-shogi/engine/internal/search"
	"github.com/hagoromo-shogi/engine/internal/shogi"
	"github.com/hagoromo-shogi/engine/internal/timeman"
	"github.com/hagoromo-shogi/engine/internal/ttable"
	"github.com/hagoromo-shogi/engine/internal/usiproto"
)

// Engine owns every long-lived component the USI command loop drives:
// the search pool, persisted options, the opening book and (optionally)
// a cluster or consultation coordinator standing in for a local search.
// Grounded on the teacher's internal/engine.Engine (owns the transposition
// table, move-ordering tables and a thread count, rebuilt on Hash/Threads
// setoption) and internal/uci.UCI (owns position/history/searching state).
type Engine struct {
	threads int
	tt      *ttable.Table
	tables  *ordering.Tables
	manager *search.Manager

	store *paramstore.Store
	opts  paramstore.Options
	book  *book.Book

	pos          *shogi.Position
	priorKeys    []uint64
	gamePly      int
	positionLine string // raw "position ..." line, relayed to child engines

	searching  bool
	stopDone   chan struct{}
	watcher    *timeman.Watcher

	coordKind string // "", "tree" or "consultation"
	master    *usiproto.ChildEngine
	workers   []*usiproto.ChildEngine
	treeCoord *cluster.Coordinator
	voteCoord *consultation.Coordinator
}

// NewEngine builds the search pool (sized by threads/hashMB), opens the
// persisted option store (falling back to in-memory defaults if the store
// can't be opened) and loads bookFile if given.
func NewEngine(threads, hashMB int, bookFile string) (*Engine, error) {
	if threads < 1 {
		threads = 1
	}
	tt := ttable.New(hashMB)
	tables := ordering.New()

	e := &Engine{
		threads: threads,
		tt:      tt,
		tables:  tables,
		manager: search.NewManager(threads, tt, tables, 0),
		opts:    paramstore.DefaultOptions(threads),
	}

	if store, err := paramstore.Open(); err != nil {
		log.Printf("[engine] option store unavailable, using defaults: %v", err)
	} else {
		e.store = store
		if opts, err := store.Load(threads); err != nil {
			log.Printf("[engine] failed to load persisted options: %v", err)
		} else {
			e.opts = opts
		}
	}
	e.manager.SetDrawScore(e.opts.DrawScore)

	if bookFile != "" {
		bk, err := book.Load(bookFile)
		if err != nil {
			log.Printf("[engine] failed to load book %q: %v", bookFile, err)
		} else {
			e.book = bk
			log.Printf("[engine] loaded %s from %s", bk, bookFile)
		}
	}

	e.resetPosition()
	return e, nil
}

func (e *Engine) resetPosition() {
	pos, err := shogi.ParseSFEN(shogi.StartSFEN)
	if err != nil {
		panic("shogi-usi: invalid built-in start SFEN: " + err.Error())
	}
	e.pos = pos
	e.priorKeys = []uint64{pos.Key}
	e.gamePly = 0
	e.positionLine = "position startpos"
}

// bookFilterFromOptions builds a book.Filter from the persisted options.
func bookFilterFromOptions(o paramstore.Options) book.Filter {
	return book.Filter{
		MinBookScoreForBlack: o.MinBookScoreBlack,
		MinBookScoreForWhite: o.MinBookScoreWhite,
		NarrowBook:           o.NarrowBook,
		TinyBook:             o.TinyBook,
	}
}

// ConfigureCoordinator spawns the child engines named in a comma-separated
// path list and wires a cluster ("tree") or consultation coordinator in
// front of the local search pool. The first path is always the master.
func (e *Engine) ConfigureCoordinator(kind, childPathsCSV string) error {
	paths := splitNonEmpty(childPathsCSV, ",")
	if len(paths) < 2 {
		log.Printf("[engine] -cluster=%s given but fewer than 2 -children paths; ignoring", kind)
		return nil
	}

	children := make([]*usiproto.ChildEngine, 0, len(paths))
	for _, p := range paths {
		c, err := usiproto.StartChildEngine(p)
		if err != nil {
			for _, started := range children {
				started.Kill()
			}
			return err
		}
		if err := handshake(c); err != nil {
			for _, started := range append(children, c) {
				started.Kill()
			}
			return err
		}
		children = append(children, c)
	}

	e.master = children[0]
	e.workers = children[1:]
	e.coordKind = kind

	switch kind {
	case "tree":
		e.treeCoord = cluster.New(e.master, e.workers)
	case "consultation":
		e.voteCoord = consultation.New(children, 0)
	default:
		log.Printf("[engine] unknown -cluster kind %q, running local search", kind)
		e.coordKind = ""
	}
	return nil
}

// handshake drives a freshly spawned child through "usi"/"usiok" and
// "isready"/"readyok", the minimum a coordinator needs before dispatching
// position/go commands.
func handshake(c *usiproto.ChildEngine) error {
	if err := c.Send("usi"); err != nil {
		return err
	}
	for {
		line, ok := c.ReadLine()
		if !ok {
			return errNoUsiOk
		}
		if line == "usiok" {
			break
		}
	}
	if err := c.Send("isready"); err != nil {
		return err
	}
	for {
		line, ok := c.ReadLine()
		if !ok {
			return errNoReadyOk
		}
		if line == "readyok" {
			break
		}
	}
	return nil
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Close releases every long-lived resource, persisting options first.
func (e *Engine) Close() {
	if e.master != nil {
		e.master.Send("quit")
		e.master.Wait()
	}
	for _, w := range e.workers {
		w.Send("quit")
		w.Wait()
	}
	if e.store != nil {
		if err := e.store.Save(e.opts); err != nil {
			log.Printf("[engine] failed to persist options: %v", err)
		}
		e.store.Close()
	}
}

// rebuildPool replaces tt/tables/manager to honor a Hash or Threads change
// made mid-session, mirroring the teacher's Engine being reconstructed on
// the same setoption names.
func (e *Engine) rebuildPool() {
	e.tt = ttable.New(e.opts.USIHash)
	e.tables = ordering.New()
	e.manager = search.NewManager(e.opts.Threads, e.tt, e.tables, e.opts.DrawScore)
}

func (e *Engine) applySetOption(name, value string) {
	e.opts.SetByName(name, value)
	switch name {
	case "USI_Hash", "Threads":
		e.rebuildPool()
	case "DrawScore":
		e.manager.SetDrawScore(e.opts.DrawScore)
	}
}

// timeLimits builds a timeman.Limits from a parsed "go" line for the side
// to move in e.pos.
func (e *Engine) timeLimits(g usiproto.GoOptions) timeman.Limits {
	l := timeman.Limits{
		Byoyomi:   g.Byoyomi,
		MovesToGo: g.MovesToGo,
		Ponder:    g.Ponder,
	}
	if e.pos.SideToMove == shogi.Black {
		l.Remaining, l.Inc = g.BTime, g.BInc
	} else {
		l.Remaining, l.Inc = g.WTime, g.WInc
	}
	return l
}

func (e *Engine) timeConfig() timeman.Config {
	return timeman.Config{
		ByoyomiMargin:     time.Duration(e.opts.ByoyomiMargin) * time.Millisecond,
		FischerMargin:     time.Duration(e.opts.FischerMargin) * time.Millisecond,
		SuddenDeathMargin: time.Duration(e.opts.SuddenDeathMargin) * time.Second,
		MinThinkTime:      time.Duration(e.opts.MinThinkingTime) * time.Millisecond,
	}
}

var (
	errNoUsiOk   = errors.New("shogi-usi: child engine closed before usiok")
	errNoReadyOk = errors.New("shogi-usi: child engine closed before readyok")
)
