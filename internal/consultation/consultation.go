// Package consultation implements the C11 consultation voting
// coordinator: a set of peer engine processes search the same root
// independently and a majority vote over their first-PV moves decides the
// move actually played. Grounded directly on original_source/
// consultation.cc (Consultation/ConsultationWorker/Vote), translated from
// its thread-per-worker-process design to one goroutine per ChildEngine
// feeding a single aggregation loop over a channel.
package consultation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hagoromo-shogi/engine/internal/usiproto"
)

// deadlineAfterStop is how long a worker has to deliver bestmove after
// stop before it is flagged dead, per spec.md §4.10.
const deadlineAfterStop = time.Second

// Worker is one peer engine participating in the vote. masterWorkerID
// casts zero votes (§ the original's get_vote_importance): if every real
// worker is unreachable, the coordinator still has the master's own line
// to fall back on, but the master never outvotes a single live worker.
type Worker struct {
	ID     int
	Master bool

	child *usiproto.ChildEngine
	mu    sync.Mutex
	alive bool
	last  usiproto.ChildInfo
}

// Coordinator runs the consultation vote over a pool of workers.
type Coordinator struct {
	workers []*Worker

	mu            sync.Mutex
	agreementRate float64
}

// New wraps already-started child engines into a Coordinator. The child at
// index masterIdx is treated as the master (zero voting weight).
func New(children []*usiproto.ChildEngine, masterIdx int) *Coordinator {
	c := &Coordinator{agreementRate: 1.0}
	for i, ch := range children {
		c.workers = append(c.workers, &Worker{
			ID:     i,
			Master: i == masterIdx,
			child:  ch,
			alive:  true,
		})
	}
	return c
}

// AgreementRate returns the last vote's winning-move weight fraction, for
// internal/timeman's SetAgreementRate.
func (c *Coordinator) AgreementRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.agreementRate
}

// vote importance: workers get weight 1, the master gets 0, mirroring
// get_vote_importance in the original.
func (w *Worker) weight() int {
	if w.Master {
		return 0
	}
	return 1
}

type ballot struct {
	count     int
	bestScore int
	mate      bool
	info      usiproto.ChildInfo
}

// less implements the original's Vote::operator< (a known-win score
// always wins regardless of vote count; otherwise count decides, ties
// broken by score).
func (a ballot) less(b ballot) bool {
	const knownWin = 28000
	if a.count == b.count || a.bestScore >= knownWin || b.bestScore >= knownWin {
		return a.bestScore < b.bestScore
	}
	return a.count < b.count
}

// tally runs one round of vote aggregation over each worker's last seen
// info line, mirroring Consultation::UpdateInfo.
func (c *Coordinator) tally() (bestMove string, best usiproto.ChildInfo, ok bool) {
	votes := make(map[string]*ballot)
	var totalNodes, totalNPS uint64

	for _, w := range c.workers {
		w.mu.Lock()
		alive := w.alive
		info := w.last
		w.mu.Unlock()
		if !alive || len(info.PV) == 0 {
			continue
		}
		move := info.PV[0]
		v, exists := votes[move]
		if !exists {
			v = &ballot{bestScore: -1 << 30}
			votes[move] = v
		}
		v.count += w.weight()
		if info.Score > v.bestScore {
			v.bestScore = info.Score
			v.mate = info.Mate
			v.info = info
		}
		totalNodes += info.Nodes
		totalNPS += info.NPS
	}

	if len(votes) == 0 {
		return "", usiproto.ChildInfo{}, false
	}

	moves := make([]string, 0, len(votes))
	for m := range votes {
		moves = append(moves, m)
	}
	sort.Strings(moves) // deterministic iteration before the max-by scan

	bestMove = moves[0]
	bv := votes[bestMove]
	for _, m := range moves[1:] {
		v := votes[m]
		if bv.less(*v) {
			bestMove, bv = m, v
		}
	}

	best = bv.info
	best.Nodes = totalNodes
	best.NPS = totalNPS

	numWorkers := 0
	for _, w := range c.workers {
		if !w.Master {
			numWorkers++
		}
	}
	c.mu.Lock()
	if numWorkers > 0 {
		c.agreementRate = float64(bv.count) / float64(numWorkers)
	} else {
		c.agreementRate = 1.0
	}
	c.mu.Unlock()

	return bestMove, best, true
}

// Go broadcasts position/go to every worker, streams their info lines
// into the shared vote tally, and returns once every worker has produced
// a bestmove or ctx is done. onInfo is called after every updated tally
// whose winning move or depth advanced, matching the original's
// "only print when something changed" throttle.
func (c *Coordinator) Go(ctx context.Context, positionCmd, goCmd string, onInfo func(move string, info usiproto.ChildInfo)) (string, error) {
	for _, w := range c.workers {
		if err := w.child.Send(positionCmd); err != nil {
			return "", err
		}
		if err := w.child.Send(goCmd); err != nil {
			return "", err
		}
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	lastMove := ""
	lastDepth := -1

	finished := make([]bool, len(c.workers))
	for i, w := range c.workers {
		i, w := i, w
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				line, ok := w.child.ReadLine()
				if !ok {
					w.mu.Lock()
					w.alive = false
					w.mu.Unlock()
					return
				}
				if info, ok := usiproto.ParseChildInfo(line); ok {
					w.mu.Lock()
					w.last = info
					w.mu.Unlock()

					mu.Lock()
					move, best, ok := c.tally()
					if ok && (move != lastMove || best.Depth > lastDepth) {
						lastMove, lastDepth = move, best.Depth
						if onInfo != nil {
							onInfo(move, best)
						}
					}
					mu.Unlock()
					continue
				}
				if _, _, ok := usiproto.ParseBestMove(line); ok {
					w.mu.Lock()
					finished[i] = true
					w.mu.Unlock()
					return
				}
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		deadline := time.NewTimer(deadlineAfterStop)
		defer deadline.Stop()
		select {
		case <-done:
		case <-deadline.C:
			for i, w := range c.workers {
				w.mu.Lock()
				if !finished[i] {
					w.alive = false
				}
				w.mu.Unlock()
			}
		}
	}

	move, _, ok := c.tally()
	if !ok {
		return "", ctx.Err()
	}
	return move, nil
}
