package search

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/hagoromo-shogi/engine/internal/ordering"
	"github.com/hagoromo-shogi/engine/internal/shogi"
	"github.com/hagoromo-shogi/engine/internal/ttable"
)

// Manager is the C8 Lazy-SMP thread pool: one Worker per thread, all
// sharing a single Table and Tables instance. Grounded on the teacher's
// Engine.SearchWithLimits/workerSearch pair (per-worker goroutines feeding
// a shared result channel), adapted to golang.org/x/sync/errgroup instead
// of a raw sync.WaitGroup so a future report/timeout path can propagate an
// error through the pool without a second channel.
type Manager struct {
	tt        *ttable.Table
	tables    *ordering.Tables
	signals   *Signals
	drawScore int

	workers []*Worker
}

// NewManager builds a pool of n worker threads (n >= 1; thread 0 is the
// master and drives the authoritative root-move set). drawScore is the
// configured USI DrawScore option (§6), threaded into every worker.
func NewManager(n int, tt *ttable.Table, tables *ordering.Tables, drawScore int) *Manager {
	if n < 1 {
		n = 1
	}
	signals := NewSignals()
	m := &Manager{tt: tt, tables: tables, signals: signals, drawScore: drawScore}
	m.workers = make([]*Worker, n)
	for i := 0; i < n; i++ {
		m.workers[i] = NewWorker(i, tt, tables, signals, drawScore)
	}
	return m
}

// SetDrawScore updates the configured DrawScore for every worker in the
// pool, taking effect on the next search.
func (m *Manager) SetDrawScore(v int) {
	m.drawScore = v
	for _, w := range m.workers {
		w.SetDrawScore(v)
	}
}

// Stop raises the shared stop signal, asking every worker to unwind.
func (m *Manager) Stop() { m.signals.Stop.Store(true) }

// Signals exposes the pool's shared Signals, e.g. for a time manager to
// set Stop or Ponderhit from outside a running search.
func (m *Manager) Signals() *Signals { return m.signals }

// TotalNodes sums every worker's node count.
func (m *Manager) TotalNodes() uint64 {
	var total uint64
	for _, w := range m.workers {
		total += w.Nodes()
	}
	return total
}

// Go runs the pool to maxDepth (or until ctx is done / Stop is called),
// broadcasting pos and priorKeys to every worker's root state first. onInfo
// is called only for thread 0's completed iterations, matching the
// teacher's "master thread reports, helpers just search" split; a helper
// finding a deeper or better line is reflected indirectly through the
// shared transposition table the master keeps probing.
func (m *Manager) Go(ctx context.Context, pos *shogi.Position, priorKeys []uint64, gamePly, maxDepth, multiPV int, searchmoves []shogi.Move, onInfo func(Info)) RootMoves {
	m.signals.Reset()

	var ml shogi.MoveList
	pos.GenerateMoves(&ml)
	legal := make([]shogi.Move, 0, ml.Len())
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		if pos.IsLegal(m) {
			legal = append(legal, m)
		}
	}
	root := NewRootMoves(legal, searchmoves)
	if len(root) == 0 {
		return root
	}

	for _, w := range m.workers {
		w.SetPosition(pos, priorKeys, gamePly)
		w.SetRootMoves(cloneRootMoves(root))
	}

	g, gctx := errgroup.WithContext(ctx)
	go func() {
		select {
		case <-gctx.Done():
			m.signals.Stop.Store(true)
		case <-ctx.Done():
			m.signals.Stop.Store(true)
		}
	}()

	for i, w := range m.workers {
		w := w
		isMaster := i == 0
		g.Go(func() error {
			var report func(Info)
			if isMaster {
				report = onInfo
			}
			w.IterativeDeepen(maxDepth, multiPV, report)
			return nil
		})
	}

	_ = g.Wait()
	m.signals.Stop.Store(true)

	return m.workers[0].rootMoves
}

func cloneRootMoves(src RootMoves) RootMoves {
	out := make(RootMoves, len(src))
	for i, rm := range src {
		out[i] = &RootMove{Move: rm.Move, PV: append([]shogi.Move(nil), rm.PV...)}
	}
	return out
}
