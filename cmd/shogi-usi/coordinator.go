package main

import (
	"context"
	"fmt"

	"github.com/hagoromo-shogi/engine/internal/cluster"
	"github.com/hagoromo-shogi/engine/internal/shogi"
	"github.com/hagoromo-shogi/engine/internal/timeman"
	"github.com/hagoromo-shogi/engine/internal/usiproto"
)

// runCoordinatedSearch delegates "go" to the configured cluster or
// consultation coordinator instead of the local search pool.
func (e *Engine) runCoordinatedSearch(g usiproto.GoOptions) {
	legal := moveTokens(e.pos.LegalMoves())
	if len(legal) == 0 {
		fmt.Println(usiproto.FormatBestMove(shogi.NoMove, true, false, shogi.NoMove))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if g.Infinite || g.MateInfinite {
		e.watcher = nil
	} else {
		e.watcher = timeman.New(e.timeLimits(g), e.timeConfig())
		e.watcher.Start(cancel)
	}

	var bestToken string
	var err error
	switch e.coordKind {
	case "tree":
		bestToken, err = e.runTreeSearch(ctx, legal)
	case "consultation":
		bestToken, err = e.runConsultationSearch(ctx, legal, g)
	}
	if e.watcher != nil {
		e.watcher.Cancel()
	}

	if err != nil || bestToken == "" {
		e.printFallbackBestMove()
		return
	}
	move, ok := resolveToken(e.pos, bestToken)
	if !ok {
		e.printFallbackBestMove()
		return
	}
	fmt.Println(usiproto.FormatBestMove(move, false, false, shogi.NoMove))
}

func (e *Engine) runTreeSearch(ctx context.Context, legal []string) (string, error) {
	topMoves, err := e.treeCoord.Presearch(ctx, e.positionLine, legal)
	if err != nil {
		return "", err
	}
	return e.treeCoord.Go(ctx, e.positionLine, topMoves, legal, func(n *cluster.MinimaxNode) {
		e.printNodeInfo(n)
	})
}

func (e *Engine) runConsultationSearch(ctx context.Context, legal []string, g usiproto.GoOptions) (string, error) {
	goCmd := "go infinite"
	if g.Byoyomi > 0 {
		goCmd = fmt.Sprintf("go byoyomi %d", g.Byoyomi.Milliseconds())
	}
	best, err := e.voteCoord.Go(ctx, e.positionLine, goCmd, func(move string, info usiproto.ChildInfo) {
		if e.watcher != nil {
			e.watcher.SetAgreementRate(e.voteCoord.AgreementRate())
		}
		fmt.Println(usiproto.FormatInfo(usiproto.InfoLine{
			Depth:     info.Depth,
			Time:      info.Time,
			Nodes:     info.Nodes,
			Score:     info.Score,
			MateScore: info.Mate,
			MateDist:  info.Score,
			HashFull:  info.HashFull,
			MultiPV:   1,
		}))
	})
	return best, err
}

func (e *Engine) printNodeInfo(n *cluster.MinimaxNode) {
	line := usiproto.InfoLine{
		Depth: n.Depth(),
		Nodes: n.Nodes(),
	}
	if n.Mate() {
		line.MateScore = true
		line.MateDist = n.Score()
	} else {
		line.Score = n.Score()
	}
	fmt.Println(usiproto.FormatInfo(line))
}

func (e *Engine) printFallbackBestMove() {
	legal := e.pos.LegalMoves()
	if len(legal) == 0 {
		fmt.Println(usiproto.FormatBestMove(shogi.NoMove, true, false, shogi.NoMove))
		return
	}
	fmt.Println(usiproto.FormatBestMove(legal[0], false, false, shogi.NoMove))
}

func moveTokens(moves []shogi.Move) []string {
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.String()
	}
	return out
}

func resolveToken(pos *shogi.Position, token string) (shogi.Move, bool) {
	for _, lm := range pos.LegalMoves() {
		if lm.String() == token {
			return lm, true
		}
	}
	return shogi.NoMove, false
}
