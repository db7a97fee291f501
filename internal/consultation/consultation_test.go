package consultation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hagoromo-shogi/engine/internal/usiproto"
)

func TestWorkerWeight(t *testing.T) {
	master := &Worker{Master: true}
	worker := &Worker{Master: false}
	require.Equal(t, 0, master.weight())
	require.Equal(t, 1, worker.weight())
}

func TestBallotLessTieBrokenByScore(t *testing.T) {
	a := ballot{count: 2, bestScore: 50}
	b := ballot{count: 2, bestScore: 100}
	require.True(t, a.less(b))
	require.False(t, b.less(a))
}

func TestBallotLessCountDecidesBelowKnownWin(t *testing.T) {
	a := ballot{count: 1, bestScore: 500}
	b := ballot{count: 3, bestScore: 100}
	require.True(t, a.less(b)) // fewer votes loses even with a higher score
}

func TestBallotLessKnownWinOverridesCount(t *testing.T) {
	a := ballot{count: 5, bestScore: 100}
	b := ballot{count: 1, bestScore: 29000} // a known win, per knownWin = 28000
	require.True(t, a.less(b))              // the known win outranks raw vote count
}

func worker(id int, master bool, alive bool, info usiproto.ChildInfo) *Worker {
	return &Worker{ID: id, Master: master, alive: alive, last: info}
}

func TestTallyMajorityVoteWins(t *testing.T) {
	c := &Coordinator{agreementRate: 1.0}
	c.workers = []*Worker{
		worker(0, false, true, usiproto.ChildInfo{Score: 50, PV: []string{"7g7f"}, Nodes: 100}),
		worker(1, false, true, usiproto.ChildInfo{Score: 55, PV: []string{"7g7f"}, Nodes: 200}),
		worker(2, false, true, usiproto.ChildInfo{Score: 200, PV: []string{"2g2f"}, Nodes: 300}),
	}

	move, best, ok := c.tally()
	require.True(t, ok)
	require.Equal(t, "7g7f", move)
	require.Equal(t, uint64(600), best.Nodes) // summed across every live worker
	require.InDelta(t, 2.0/3.0, c.AgreementRate(), 1e-9)
}

func TestTallyKnownWinOverridesMajority(t *testing.T) {
	c := &Coordinator{agreementRate: 1.0}
	c.workers = []*Worker{
		worker(0, false, true, usiproto.ChildInfo{Score: 29000, Mate: true, PV: []string{"5e5d"}}),
		worker(1, false, true, usiproto.ChildInfo{Score: 60, PV: []string{"7g7f"}}),
		worker(2, false, true, usiproto.ChildInfo{Score: 60, PV: []string{"7g7f"}}),
	}

	move, best, ok := c.tally()
	require.True(t, ok)
	require.Equal(t, "5e5d", move)
	require.True(t, best.Mate)
}

func TestTallyIgnoresDeadAndEmptyWorkers(t *testing.T) {
	c := &Coordinator{agreementRate: 1.0}
	c.workers = []*Worker{
		worker(0, false, false, usiproto.ChildInfo{Score: 900, PV: []string{"1g1f"}}), // dead, excluded
		worker(1, false, true, usiproto.ChildInfo{}),                                  // no PV yet, excluded
		worker(2, false, true, usiproto.ChildInfo{Score: 10, PV: []string{"3g3f"}}),
	}

	move, _, ok := c.tally()
	require.True(t, ok)
	require.Equal(t, "3g3f", move)
}

func TestTallyMasterCastsNoVoteWeight(t *testing.T) {
	c := &Coordinator{agreementRate: 1.0}
	c.workers = []*Worker{
		worker(0, true, true, usiproto.ChildInfo{Score: 900, PV: []string{"1g1f"}}), // master, weight 0
		worker(1, false, true, usiproto.ChildInfo{Score: 10, PV: []string{"3g3f"}}),
	}

	move, _, ok := c.tally()
	require.True(t, ok)
	require.Equal(t, "3g3f", move) // the master's vote never outweighs a single real worker
	require.InDelta(t, 1.0, c.AgreementRate(), 1e-9) // agreement is over non-master workers only
}

func TestTallyEmptyWhenNoWorkerHasReported(t *testing.T) {
	c := &Coordinator{agreementRate: 1.0}
	c.workers = []*Worker{worker(0, false, true, usiproto.ChildInfo{})}
	_, _, ok := c.tally()
	require.False(t, ok)
}
