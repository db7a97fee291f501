// Package usiproto implements the shared USI line protocol: encoding the
// info/bestmove lines the engine emits, parsing the position/go lines it
// consumes, and a child-process wrapper the cluster and consultation
// coordinators use to drive peer engine processes over stdin/stdout pipes.
// Grounded on the teacher's internal/uci/uci.go (info-line field order,
// go-option parsing) generalized to USI's extra byoyomi/searchmoves/
// ignoremoves/mate fields, and on original_source/process.cc (fork+pipe+
// exec child management, translated to os/exec).
package usiproto

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hagoromo-shogi/engine/internal/shogi"
)

// GoOptions is the parsed form of a "go ..." line, widened from the
// teacher's UCI GoOptions with USI's byoyomi/searchmoves/ignoremoves/mate
// fields.
type GoOptions struct {
	Ponder       bool
	BTime        time.Duration
	WTime        time.Duration
	BInc         time.Duration
	WInc         time.Duration
	Byoyomi      time.Duration
	MovesToGo    int
	Depth        int
	Nodes        uint64
	MoveTime     time.Duration
	Infinite     bool
	MateInfinite bool
	MateTime     time.Duration
	SearchMoves  []string
	IgnoreMoves  []string
}

// ParseGo parses the whitespace-separated tokens following "go".
func ParseGo(args []string) GoOptions {
	var g GoOptions
	ms := func(v string) time.Duration {
		n, _ := strconv.Atoi(v)
		return time.Duration(n) * time.Millisecond
	}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "ponder":
			g.Ponder = true
		case "btime":
			i++
			if i < len(args) {
				g.BTime = ms(args[i])
			}
		case "wtime":
			i++
			if i < len(args) {
				g.WTime = ms(args[i])
			}
		case "binc":
			i++
			if i < len(args) {
				g.BInc = ms(args[i])
			}
		case "winc":
			i++
			if i < len(args) {
				g.WInc = ms(args[i])
			}
		case "byoyomi":
			i++
			if i < len(args) {
				g.Byoyomi = ms(args[i])
			}
		case "movestogo":
			i++
			if i < len(args) {
				g.MovesToGo, _ = strconv.Atoi(args[i])
			}
		case "depth":
			i++
			if i < len(args) {
				g.Depth, _ = strconv.Atoi(args[i])
			}
		case "nodes":
			i++
			if i < len(args) {
				n, _ := strconv.ParseUint(args[i], 10, 64)
				g.Nodes = n
			}
		case "movetime":
			i++
			if i < len(args) {
				g.MoveTime = ms(args[i])
			}
		case "infinite":
			g.Infinite = true
		case "mate":
			i++
			if i < len(args) {
				if args[i] == "infinite" {
					g.MateInfinite = true
				} else {
					g.MateTime = ms(args[i])
				}
			}
		case "searchmoves":
			for i+1 < len(args) && !isGoKeyword(args[i+1]) {
				i++
				g.SearchMoves = append(g.SearchMoves, args[i])
			}
		case "ignoremoves":
			for i+1 < len(args) && !isGoKeyword(args[i+1]) {
				i++
				g.IgnoreMoves = append(g.IgnoreMoves, args[i])
			}
		}
	}
	return g
}

func isGoKeyword(tok string) bool {
	switch tok {
	case "ponder", "btime", "wtime", "binc", "winc", "byoyomi", "movestogo",
		"depth", "nodes", "movetime", "infinite", "mate", "searchmoves", "ignoremoves":
		return true
	}
	return false
}

// ParsePosition parses "(startpos|sfen <4 fields>) [moves m1 m2 ...]" and
// returns the resulting position plus the move list actually applied (for
// building a prior-key history for repetition detection).
func ParsePosition(args []string) (*shogi.Position, []shogi.Move, error) {
	if len(args) == 0 {
		return nil, nil, fmt.Errorf("usiproto: empty position line")
	}

	var pos *shogi.Position
	var err error
	idx := 0
	if args[0] == "startpos" {
		pos, err = shogi.ParseSFEN(shogi.StartSFEN)
		idx = 1
	} else if args[0] == "sfen" {
		if len(args) < 5 {
			return nil, nil, fmt.Errorf("usiproto: short sfen line")
		}
		pos, err = shogi.ParseSFEN(strings.Join(args[1:5], " "))
		idx = 5
	} else {
		return nil, nil, fmt.Errorf("usiproto: unrecognized position line %q", strings.Join(args, " "))
	}
	if err != nil {
		return nil, nil, err
	}

	var applied []shogi.Move
	if idx < len(args) && args[idx] == "moves" {
		for _, tok := range args[idx+1:] {
			m, perr := shogi.ParseMove(tok, pos)
			if perr == nil && (!pos.IsPseudoLegal(m) || !pos.IsLegal(m)) {
				perr = fmt.Errorf("not legal in this position")
			}
			if perr != nil {
				return nil, nil, fmt.Errorf("usiproto: illegal move %q: %w", tok, perr)
			}
			var undo shogi.UndoInfo
			pos.MakeMove(m, &undo)
			applied = append(applied, m)
		}
	}
	return pos, applied, nil
}

// InfoLine is everything the "info ..." output can carry per spec.md §6.
type InfoLine struct {
	Depth      int
	SelDepth   int
	Time       time.Duration
	Nodes      uint64
	Score      int
	MateScore  bool
	MateDist   int // valid iff MateScore
	UpperBound bool
	LowerBound bool
	HashFull   int
	MultiPV    int
	PV         []shogi.Move
}

// FormatInfo renders one "info ..." line in the field order spec.md §6
// names: depth seldepth time nodes score [bound] nps hashfull multipv pv.
func FormatInfo(in InfoLine) string {
	var b strings.Builder
	b.WriteString("info")
	fmt.Fprintf(&b, " depth %d", in.Depth)
	if in.SelDepth > 0 {
		fmt.Fprintf(&b, " seldepth %d", in.SelDepth)
	}
	fmt.Fprintf(&b, " time %d", in.Time.Milliseconds())
	fmt.Fprintf(&b, " nodes %d", in.Nodes)
	if in.MateScore {
		fmt.Fprintf(&b, " score mate %d", in.MateDist)
	} else {
		fmt.Fprintf(&b, " score cp %d", in.Score)
	}
	if in.UpperBound {
		b.WriteString(" upperbound")
	} else if in.LowerBound {
		b.WriteString(" lowerbound")
	}
	if in.Time > 0 {
		nps := uint64(float64(in.Nodes) / in.Time.Seconds())
		fmt.Fprintf(&b, " nps %d", nps)
	}
	if in.HashFull > 0 {
		fmt.Fprintf(&b, " hashfull %d", in.HashFull)
	}
	if in.MultiPV > 0 {
		fmt.Fprintf(&b, " multipv %d", in.MultiPV)
	}
	if len(in.PV) > 0 {
		strs := make([]string, len(in.PV))
		for i, m := range in.PV {
			strs[i] = m.String()
		}
		fmt.Fprintf(&b, " pv %s", strings.Join(strs, " "))
	}
	return b.String()
}

// FormatBestMove renders "bestmove (<m>|resign|win) [ponder <m>]".
func FormatBestMove(move shogi.Move, resign, win bool, ponder shogi.Move) string {
	var b strings.Builder
	b.WriteString("bestmove ")
	switch {
	case resign:
		b.WriteString("resign")
	case win:
		b.WriteString("win")
	default:
		b.WriteString(move.String())
	}
	if !ponder.IsNull() {
		fmt.Fprintf(&b, " ponder %s", ponder.String())
	}
	return b.String()
}

// InfoString renders a free-text "info string ..." line.
func InfoString(s string) string { return "info string " + s }

// ChildInfo is one parsed "info ..." line received from a child engine,
// kept in USI's wire form (string move tokens) since a coordinator never
// needs to interpret a child's moves against its own position — it only
// relays, compares and tallies them. Grounded on original_source/
// consultation.cc and cluster.cc's UsiInfo struct (same field set, same
// "pv front token is the vote" usage).
type ChildInfo struct {
	Depth    int
	SelDepth int
	Time     time.Duration
	Nodes    uint64
	NPS      uint64
	Score    int
	Mate     bool
	HashFull int
	MultiPV  int
	PV       []string
}

// ParseChildInfo parses one line of a child's output if it is an "info"
// line carrying a score; ok is false for anything else (readyok, id, a
// bare "info string ..." line, etc).
func ParseChildInfo(line string) (ChildInfo, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "info" {
		return ChildInfo{}, false
	}
	var ci ChildInfo
	haveScore := false
	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "depth":
			i++
			if i < len(fields) {
				ci.Depth, _ = strconv.Atoi(fields[i])
			}
		case "seldepth":
			i++
			if i < len(fields) {
				ci.SelDepth, _ = strconv.Atoi(fields[i])
			}
		case "time":
			i++
			if i < len(fields) {
				ms, _ := strconv.Atoi(fields[i])
				ci.Time = time.Duration(ms) * time.Millisecond
			}
		case "nodes":
			i++
			if i < len(fields) {
				ci.Nodes, _ = strconv.ParseUint(fields[i], 10, 64)
			}
		case "nps":
			i++
			if i < len(fields) {
				ci.NPS, _ = strconv.ParseUint(fields[i], 10, 64)
			}
		case "hashfull":
			i++
			if i < len(fields) {
				ci.HashFull, _ = strconv.Atoi(fields[i])
			}
		case "multipv":
			i++
			if i < len(fields) {
				ci.MultiPV, _ = strconv.Atoi(fields[i])
			}
		case "score":
			i++
			if i < len(fields) {
				switch fields[i] {
				case "cp":
					i++
					if i < len(fields) {
						ci.Score, _ = strconv.Atoi(fields[i])
						haveScore = true
					}
				case "mate":
					i++
					if i < len(fields) {
						ci.Mate = true
						ci.Score, _ = strconv.Atoi(fields[i])
						haveScore = true
					}
				}
			}
		case "pv":
			ci.PV = append([]string(nil), fields[i+1:]...)
			i = len(fields)
		}
	}
	if !haveScore {
		return ChildInfo{}, false
	}
	return ci, true
}

// ParseBestMove parses a "bestmove ..." line, returning the move token
// (possibly "resign"/"win") and an optional ponder token.
func ParseBestMove(line string) (move string, ponder string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "bestmove" {
		return "", "", false
	}
	move = fields[1]
	for i := 2; i < len(fields); i++ {
		if fields[i] == "ponder" && i+1 < len(fields) {
			ponder = fields[i+1]
		}
	}
	return move, ponder, true
}

// ChildEngine is one spawned peer engine process speaking USI over its
// stdin/stdout pipes, used by the cluster and consultation coordinators.
// Grounded on original_source/process.cc's Process type (fork, dup2 onto
// stdin/stdout, unbuffered pipe I/O) translated to os/exec's pipe API,
// which gives the same "line in, line out" shape without needing cgo or
// raw syscalls.
type ChildEngine struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Scanner

	mu    sync.Mutex
	alive bool
}

// StartChildEngine launches path with args, wiring its stdin/stdout for
// line-oriented USI traffic.
func StartChildEngine(path string, args ...string) (*ChildEngine, error) {
	cmd := exec.Command(path, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	sc := bufio.NewScanner(stdout)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &ChildEngine{cmd: cmd, stdin: stdin, stdout: sc, alive: true}, nil
}

// Send writes one line (without a trailing newline) to the child's stdin.
func (c *ChildEngine) Send(line string) error {
	_, err := io.WriteString(c.stdin, line+"\n")
	return err
}

// ReadLine blocks for the child's next output line. ok is false at EOF or
// once the scanner errors.
func (c *ChildEngine) ReadLine() (line string, ok bool) {
	if !c.stdout.Scan() {
		return "", false
	}
	return c.stdout.Text(), true
}

// Alive reports whether the child is still considered live (not yet
// flagged dead by a caller after a missed bestmove deadline).
func (c *ChildEngine) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive
}

// MarkDead flags the child as unreachable, per spec.md §4.10's "a worker
// that does not deliver bestmove within 1s of stop is flagged dead" rule.
// Its future lines should be ignored by the caller; MarkDead does not by
// itself kill the process.
func (c *ChildEngine) MarkDead() {
	c.mu.Lock()
	c.alive = false
	c.mu.Unlock()
}

// Kill terminates the child process.
func (c *ChildEngine) Kill() error {
	if c.cmd.Process == nil {
		return nil
	}
	return c.cmd.Process.Kill()
}

// Wait blocks for the child to exit, closing its stdin first so a
// well-behaved USI engine sees EOF and exits on its own.
func (c *ChildEngine) Wait() error {
	_ = c.stdin.Close()
	return c.cmd.Wait()
}
