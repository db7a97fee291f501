// Package cluster implements the C10 tree-splitting coordinator: a master
// engine process runs a short MultiPV presearch to pick the most
// promising root moves, then hands each one (plus a catch-all remainder)
// to its own worker process to search to the node's own move horizon. The
// tree itself is an arena of MinimaxNode entries addressed by integer
// handle rather than pointer, following the teacher's Go-idiomatic
// translation of the original's pointer/parent-back-pointer tree shape.
// Grounded on original_source/cluster.cc (MinimaxNode, ClusterWorker,
// Cluster).
package cluster

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hagoromo-shogi/engine/internal/usiproto"
)

// maxSplitAtRoot bounds how many top moves get their own child node,
// mirroring the original's kMaxSplitAtRoot.
const maxSplitAtRoot = 8

// presearchByoyomi is the per-move budget given to the master's MultiPV
// presearch, mirroring the original's kPresearchTime (milliseconds).
const presearchByoyomi = "byoyomi 300"

// nodeHandle indexes into Tree.nodes; zero is the (always-present) root.
type nodeHandle int

const noParent nodeHandle = -1

// MinimaxNode is one node of the split search tree. A leaf node owns a
// worker process searching "position ... moves ... [ignoremoves ...]
// go infinite"; an internal node has no worker of its own and its score
// is the negamax of its children's scores. Grounded on the original's
// MinimaxNode class, translated from child pointers + a parent pointer to
// child handles + a parent handle into the same arena slice.
type MinimaxNode struct {
	parent   nodeHandle
	children []nodeHandle

	move        string // the move this node was split on, "" at the root
	ignoreMoves []string

	// search state, filled in by UpdateMinimaxTree from worker info lines
	score    int
	mate     bool
	depth    int
	nodes    uint64
	nps      uint64
	bestMove string
	settled  bool // true once this leaf (or all its children) produced bestmove
}

// Tree is the arena backing a split search: node 0 is always the root.
type Tree struct {
	nodes []*MinimaxNode
}

func newTree() *Tree {
	return &Tree{nodes: []*MinimaxNode{{parent: noParent}}}
}

// Score, Mate, Depth, Nodes, NPS and BestMove expose a node's current
// search state to a caller outside the package (the USI front end's info
// line reporting), without exposing the tree-internal handles.
func (n *MinimaxNode) Score() int        { return n.score }
func (n *MinimaxNode) Mate() bool        { return n.mate }
func (n *MinimaxNode) Depth() int        { return n.depth }
func (n *MinimaxNode) Nodes() uint64     { return n.nodes }
func (n *MinimaxNode) NPS() uint64       { return n.nps }
func (n *MinimaxNode) BestMove() string  { return n.bestMove }

func (t *Tree) node(h nodeHandle) *MinimaxNode { return t.nodes[h] }

func (t *Tree) addChild(parent nodeHandle, move string) nodeHandle {
	h := nodeHandle(len(t.nodes))
	t.nodes = append(t.nodes, &MinimaxNode{parent: parent, move: move})
	t.nodes[parent].children = append(t.nodes[parent].children, h)
	return h
}

// Split turns the root into an internal node with one child per move in
// topMoves (each reached by playing that move, with an empty ignoreMoves
// list) plus, if there are any moves left over, one more child covering the
// remainder: it plays no move of its own and instead restricts its search
// away from every split-out move via ignoreMoves. Grounded on
// MinimaxNode::Split.
func (t *Tree) Split(topMoves []string, allLegalMoves []string) {
	root := t.node(0)
	root.children = nil

	if len(topMoves) > maxSplitAtRoot {
		topMoves = topMoves[:maxSplitAtRoot]
	}
	taken := make(map[string]bool, len(topMoves))
	for _, m := range topMoves {
		t.addChild(0, m)
		taken[m] = true
	}

	var remainder []string
	for _, m := range allLegalMoves {
		if !taken[m] {
			remainder = append(remainder, m)
		}
	}
	if len(remainder) > 0 {
		h := t.addChild(0, "")
		t.node(h).ignoreMoves = topMoves // the remainder node excludes every split-out move
	}
}

// RegisterAllLeafNodes returns the handles of every node with no
// children (the nodes that own a worker search), in tree order.
func (t *Tree) RegisterAllLeafNodes() []nodeHandle {
	var leaves []nodeHandle
	for h, n := range t.nodes {
		if len(n.children) == 0 {
			leaves = append(leaves, nodeHandle(h))
		}
	}
	return leaves
}

// GetPositionCommand builds the "position ..." line a leaf's worker
// should receive: the master's position line plus this leaf's own split
// move appended, if it has one (a remainder node has move=="" and simply
// inherits basePositionCmd).
func (t *Tree) GetPositionCommand(h nodeHandle, basePositionCmd string) string {
	n := t.node(h)
	if n.move == "" {
		return basePositionCmd
	}
	if strings.Contains(basePositionCmd, "moves") {
		return basePositionCmd + " " + n.move
	}
	return basePositionCmd + " moves " + n.move
}

// GetGoCommand builds the "go infinite [ignoremoves ...]" line for leaf
// h. Only the remainder leaf carries ignoremoves (every split-out move),
// so the cluster's coverage of the position is a partition, not an
// overlap; a normal split leaf gets a plain "go infinite".
func (t *Tree) GetGoCommand(h nodeHandle) string {
	n := t.node(h)
	if len(n.ignoreMoves) == 0 {
		return "go infinite"
	}
	return "go infinite ignoremoves " + strings.Join(n.ignoreMoves, " ")
}

// UpdateMinimaxTree refreshes leaf h with worker info (or a final
// bestmove, marking it settled) and propagates the resulting score up
// through its ancestors: an internal node's score is the max over its
// children's scores as seen from the parent (see childScore: negated for
// a normal split child, unchanged for the remainder), and its nodes/nps
// are the sum over its children.
// Grounded on MinimaxNode::UpdateMinimaxTree.
func (t *Tree) UpdateMinimaxTree(h nodeHandle, info usiproto.ChildInfo, bestMove string, final bool) {
	n := t.node(h)
	n.depth = info.Depth
	n.nodes = info.Nodes
	n.nps = info.NPS
	n.score = info.Score
	n.mate = info.Mate
	if len(info.PV) > 0 {
		n.bestMove = info.PV[0]
	}
	if final {
		if bestMove != "" {
			n.bestMove = bestMove
		}
		n.settled = true
	}

	for cur := n.parent; cur != noParent; cur = t.node(cur).parent {
		t.aggregate(cur)
	}
}

// childScore reports a child's score in its parent's perspective. A normal
// split child (empty ignoreMoves) played one move deeper than its parent, so
// its score is negated, mirroring negamax at the split boundary. The
// catch-all/remainder child (non-empty ignoreMoves) searches the identical
// position as its parent and is left alone. Grounded on
// MinimaxNode::UpdateMinimaxTree's `if (child->ignoremoves_.empty())`.
func childScore(c *MinimaxNode) int {
	if len(c.ignoreMoves) == 0 {
		return -c.score
	}
	return c.score
}

func (t *Tree) aggregate(h nodeHandle) {
	n := t.node(h)
	if len(n.children) == 0 {
		return
	}
	best := t.node(n.children[0])
	bestScore := childScore(best)
	var nodes, nps uint64
	allSettled := true
	for _, ch := range n.children {
		c := t.node(ch)
		nodes += c.nodes
		nps += c.nps
		if !c.settled {
			allSettled = false
		}
		if s := childScore(c); s > bestScore {
			bestScore = s
			best = c
		}
	}
	n.score = bestScore
	n.mate = best.mate
	n.bestMove = best.move
	if n.bestMove == "" {
		n.bestMove = best.bestMove
	}
	n.depth = best.depth
	n.nodes = nodes
	n.nps = nps
	n.settled = allSettled
}

// Root returns the current root node (read-only view for reporting).
func (t *Tree) Root() *MinimaxNode { return t.node(0) }

// Coordinator drives one cluster search: a master ChildEngine used only
// for the presearch, and a pool of worker ChildEngines, one per leaf of
// the split tree. Grounded on original_source/cluster.cc's Cluster type.
type Coordinator struct {
	master  *usiproto.ChildEngine
	workers []*usiproto.ChildEngine

	tree *Tree
}

// New wraps an already-spawned master and a pool of idle workers.
func New(master *usiproto.ChildEngine, workers []*usiproto.ChildEngine) *Coordinator {
	return &Coordinator{master: master, workers: workers, tree: newTree()}
}

// Presearch runs a bounded MultiPV probe on the master to rank the root's
// legal moves, returning up to maxSplitAtRoot of them best-first.
// Grounded on Cluster::OnGoCommandEntered's presearch step.
func (c *Coordinator) Presearch(ctx context.Context, positionCmd string, legalMoves []string) ([]string, error) {
	if len(legalMoves) <= 1 {
		return legalMoves, nil
	}

	multiPV := len(legalMoves)
	if multiPV > maxSplitAtRoot {
		multiPV = maxSplitAtRoot
	}
	if err := c.master.Send(positionCmd); err != nil {
		return nil, err
	}
	if err := c.master.Send(fmt.Sprintf("setoption name MultiPV value %d", multiPV)); err != nil {
		return nil, err
	}
	if err := c.master.Send("go " + presearchByoyomi); err != nil {
		return nil, err
	}

	best := make(map[int]rankedMove)

	for {
		select {
		case <-ctx.Done():
			return sortRanked(best), ctx.Err()
		default:
		}
		line, ok := c.master.ReadLine()
		if !ok {
			return sortRanked(best), fmt.Errorf("cluster: master presearch closed early")
		}
		if info, ok := usiproto.ParseChildInfo(line); ok && len(info.PV) > 0 {
			pv := info.MultiPV
			if pv == 0 {
				pv = 1
			}
			best[pv] = rankedMove{score: info.Score, mate: info.Mate, move: info.PV[0]}
			continue
		}
		if _, _, ok := usiproto.ParseBestMove(line); ok {
			break
		}
	}
	return sortRanked(best), nil
}

// rankedMove is one presearch MultiPV slot's result.
type rankedMove struct {
	score int
	mate  bool
	move  string
}

// sortRanked turns the MultiPV-indexed scratch map into a best-first move
// list (mate scores first, then descending cp score).
func sortRanked(in map[int]rankedMove) []string {
	list := make([]rankedMove, 0, len(in))
	for _, r := range in {
		list = append(list, r)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].mate != list[j].mate {
			return list[i].mate
		}
		return list[i].score > list[j].score
	})
	out := make([]string, 0, len(list))
	for _, r := range list {
		out = append(out, r.move)
	}
	return out
}

// Go runs the split search: builds the tree from topMoves, dispatches
// each leaf's position/go commands to its worker, and aggregates info as
// it arrives until every leaf has reported bestmove or ctx is done.
func (c *Coordinator) Go(ctx context.Context, basePositionCmd string, topMoves, allLegalMoves []string, onInfo func(*MinimaxNode)) (string, error) {
	c.tree = newTree()
	c.tree.Split(topMoves, allLegalMoves)
	leaves := c.tree.RegisterAllLeafNodes()
	if len(leaves) == 0 {
		return "", fmt.Errorf("cluster: no legal moves to split")
	}
	if len(leaves) > len(c.workers) {
		return "", fmt.Errorf("cluster: %d leaves but only %d workers", len(leaves), len(c.workers))
	}

	var wg sync.WaitGroup
	var mu sync.Mutex

	for i, h := range leaves {
		h := h
		w := c.workers[i]
		posCmd := c.tree.GetPositionCommand(h, basePositionCmd)
		goCmd := c.tree.GetGoCommand(h)
		if err := w.Send(posCmd); err != nil {
			return "", err
		}
		if err := w.Send(goCmd); err != nil {
			return "", err
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				line, ok := w.ReadLine()
				if !ok {
					w.MarkDead()
					return
				}
				if info, ok := usiproto.ParseChildInfo(line); ok {
					mu.Lock()
					c.tree.UpdateMinimaxTree(h, info, "", false)
					if onInfo != nil {
						onInfo(c.tree.Root())
					}
					mu.Unlock()
					continue
				}
				if move, _, ok := usiproto.ParseBestMove(line); ok {
					mu.Lock()
					c.tree.UpdateMinimaxTree(h, usiproto.ChildInfo{}, move, true)
					if onInfo != nil {
						onInfo(c.tree.Root())
					}
					mu.Unlock()
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
		for _, w := range c.workers[:len(leaves)] {
			_ = w.Send("stop")
		}
		<-done
	}

	root := c.tree.Root()
	if root.bestMove == "" {
		return "", fmt.Errorf("cluster: no leaf produced a move")
	}
	return root.bestMove, nil
}
