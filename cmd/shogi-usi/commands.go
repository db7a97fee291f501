package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hagoromo-shogi/engine/internal/paramstore"
	"github.com/hagoromo-shogi/engine/internal/search"
	"github.com/hagoromo-shogi/engine/internal/shogi"
	"github.com/hagoromo-shogi/engine/internal/timeman"
	"github.com/hagoromo-shogi/engine/internal/usiproto"
)

// Run starts the USI main loop, grounded on internal/uci.UCI.Run's
// bufio.Scanner dispatch shape.
func (e *Engine) Run() {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "usi":
			e.handleUSI()
		case "isready":
			fmt.Println("readyok")
		case "setoption":
			e.handleSetOption(args)
		case "usinewgame":
			e.handleNewGame()
		case "position":
			e.handlePosition(args, line)
		case "go":
			e.handleGo(args)
		case "stop":
			e.handleStop()
		case "ponderhit":
			e.handlePonderhit()
		case "gameover":
			// no persisted per-game state to flush beyond options, which
			// are saved on quit.
		case "quit":
			return
		}
	}
}

func (e *Engine) handleUSI() {
	fmt.Println("id name Hagoromo")
	fmt.Println("id author Hagoromo Shogi Project")
	for _, d := range paramstore.Descriptors() {
		fmt.Println(d)
	}
	fmt.Println("usiok")
}

func (e *Engine) handleSetOption(args []string) {
	var name, value string
	var readingName, readingValue bool
	for _, a := range args {
		switch a {
		case "name":
			readingName, readingValue = true, false
		case "value":
			readingName, readingValue = false, true
		default:
			if readingName {
				if name != "" {
					name += " "
				}
				name += a
			} else if readingValue {
				if value != "" {
					value += " "
				}
				value += a
			}
		}
	}
	e.applySetOption(name, value)
}

func (e *Engine) handleNewGame() {
	e.tt.Clear()
	e.resetPosition()
}

func (e *Engine) handlePosition(args []string, raw string) {
	pos, _, err := usiproto.ParsePosition(args)
	if err != nil {
		fmt.Println(usiproto.InfoString(err.Error()))
		return
	}
	e.pos = pos
	e.priorKeys = replayKeys(args)
	e.gamePly = len(e.priorKeys) - 1
	e.positionLine = raw
}

// replayKeys recomputes the Zobrist key after every applied move, for
// repetition detection; usiproto.ParsePosition only returns the final
// position, not the intermediate keys a Worker needs.
func replayKeys(args []string) []uint64 {
	if len(args) == 0 {
		return nil
	}
	var pos *shogi.Position
	var err error
	idx := 0
	if args[0] == "startpos" {
		pos, err = shogi.ParseSFEN(shogi.StartSFEN)
		idx = 1
	} else if args[0] == "sfen" && len(args) >= 5 {
		pos, err = shogi.ParseSFEN(strings.Join(args[1:5], " "))
		idx = 5
	}
	if err != nil || pos == nil {
		return nil
	}
	keys := []uint64{pos.Key}
	if idx < len(args) && args[idx] == "moves" {
		for _, tok := range args[idx+1:] {
			m, perr := shogi.ParseMove(tok, pos)
			if perr != nil || !pos.IsPseudoLegal(m) || !pos.IsLegal(m) {
				break
			}
			var undo shogi.UndoInfo
			pos.MakeMove(m, &undo)
			keys = append(keys, pos.Key)
		}
	}
	return keys
}

func (e *Engine) handleGo(args []string) {
	if e.searching {
		return
	}
	g := usiproto.ParseGo(args)
	e.searching = true
	e.stopDone = make(chan struct{})
	go func() {
		defer close(e.stopDone)
		if e.coordKind != "" {
			e.runCoordinatedSearch(g)
		} else {
			e.runLocalSearch(g)
		}
		e.searching = false
	}()
}

func (e *Engine) handleStop() {
	if !e.searching {
		return
	}
	if e.watcher != nil {
		e.watcher.Cancel()
	}
	e.manager.Stop()
	for _, w := range e.workers {
		w.Send("stop")
	}
	if e.master != nil {
		e.master.Send("stop")
	}
	<-e.stopDone
}

func (e *Engine) handlePonderhit() {
	if e.watcher != nil {
		e.watcher.PonderHit()
	}
}


func (e *Engine) runLocalSearch(g usiproto.GoOptions) {
	if mv, ok := e.probeBook(g); ok {
		fmt.Println(usiproto.FormatBestMove(mv, false, false, shogi.NoMove))
		return
	}

	maxDepth := g.Depth
	if maxDepth <= 0 {
		maxDepth = e.opts.LimitDepth
	}
	multiPV := e.opts.MultiPV

	var searchmoves []shogi.Move
	if len(g.SearchMoves) > 0 {
		legal := e.pos.LegalMoves()
		for _, tok := range g.SearchMoves {
			for _, lm := range legal {
				if lm.String() == tok {
					searchmoves = append(searchmoves, lm)
				}
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if g.Infinite || g.MateInfinite {
		// No budget to enforce: only an explicit "stop" (or ponderhit
		// turning pondering into a timed search) ends this one.
		e.watcher = nil
	} else {
		e.watcher = timeman.New(e.timeLimits(g), e.timeConfig())
		e.watcher.Start(func() { e.manager.Stop() })
	}

	searchStart := time.Now()
	pos := e.pos.Copy()
	priorKeys := append([]uint64(nil), e.priorKeys...)
	gamePly := e.gamePly

	result := e.manager.Go(ctx, pos, priorKeys, gamePly, maxDepth, multiPV, searchmoves, func(info search.Info) {
		e.emitInfo(info, searchStart)
	})
	if e.watcher != nil {
		e.watcher.Cancel()
	}

	if len(result) == 0 {
		fmt.Println(usiproto.FormatBestMove(shogi.NoMove, true, false, shogi.NoMove))
		return
	}
	result.SortFrom(0)
	best := result[0]
	var ponder shogi.Move
	if len(best.PV) > 1 {
		ponder = best.PV[1]
	}
	fmt.Println(usiproto.FormatBestMove(best.Move, false, false, ponder))
}

// extractMovesMaxLen bounds how far emitInfo will extend a short PV by
// walking the transposition table (§4.1's ExtractMoves), matching the
// teacher's info-line length in the common case without risking an
// unbounded walk through a TT cycle.
const extractMovesMaxLen = 16

func (e *Engine) emitInfo(info search.Info, start time.Time) {
	pv := info.PV
	if info.Depth >= 3 && len(pv) <= 2 {
		pv = e.tt.ExtractMoves(e.pos, pv, extractMovesMaxLen)
	}
	line := usiproto.InfoLine{
		Depth:    info.Depth,
		Time:     time.Since(start),
		Nodes:    e.manager.TotalNodes(),
		MultiPV:  info.MultiPVIndex + 1,
		HashFull: e.tt.Hashfull(),
		PV:       pv,
	}
	if info.Score >= search.MateInMaxPly {
		line.MateScore = true
		line.MateDist = (search.MateScore - info.Score + 1) / 2
	} else if info.Score <= -search.MateInMaxPly {
		line.MateScore = true
		line.MateDist = -(search.MateScore + info.Score + 1) / 2
	} else {
		line.Score = info.Score
	}
	fmt.Println(usiproto.FormatInfo(line))
}

// probeBook returns a book move if own-book play applies: OwnBook is on,
// the game is still within BookMaxPly, and the book has a surviving
// candidate for the current position.
func (e *Engine) probeBook(g usiproto.GoOptions) (shogi.Move, bool) {
	if e.book == nil || !e.opts.OwnBook || g.Infinite || g.MateInfinite {
		return shogi.NoMove, false
	}
	if e.gamePly >= e.opts.BookMaxPly {
		return shogi.NoMove, false
	}
	filter := bookFilterFromOptions(e.opts)
	return e.book.Probe(e.pos, filter)
}
