package sim

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lars-sto/congestion-control-lab/internal/config"
	"github.com/lars-sto/congestion-control-lab/internal/ns3"
)

type call struct {
	program string
	params  ns3.ParamSet
}

type fakeSim struct {
	calls []call
	fn    func(program string, p ns3.ParamSet) ns3.Result
}

func (f *fakeSim) Run(_ context.Context, program string, p ns3.ParamSet) ns3.Result {
	f.calls = append(f.calls, call{program: program, params: p})
	if f.fn == nil {
		return ns3.Result{}
	}
	return f.fn(program, p)
}

// fakeMover hands out a trace file per protocol; content "" means absent.
type fakeMover struct {
	dir    string
	traces map[string]string
	moves  []string
}

func (m *fakeMover) Move(part, protocol string) (string, bool, error) {
	m.moves = append(m.moves, part+"/"+protocol)
	content, ok := m.traces[protocol]
	if !ok {
		return "", false, nil
	}
	path := filepath.Join(m.dir, part, protocol, "Congestion_Control-cwnd.data")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", false, err
	}
	return path, true, os.WriteFile(path, []byte(content), 0o644)
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	return cfg
}

func newTestRunner(cfg config.Config, sim Simulator, mover TraceMover, rec Recorder) *Runner {
	if mover == nil {
		mover = &fakeMover{}
	}
	return NewRunner(cfg, sim, mover, rec, zerolog.New(io.Discard))
}

func aggregate(bps float64) ns3.Result {
	return ns3.Result{Aggregate: ns3.Goodput{Bps: bps, Valid: true}, Output: "ok"}
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return len(strings.Split(strings.TrimSpace(string(data)), "\n"))
}

func TestPart1bKeepsEveryCombinationWhenAllRunsFail(t *testing.T) {
	cfg := testConfig(t)
	sim := &fakeSim{}

	rep, err := newTestRunner(cfg, sim, nil, nil).Part1b(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2*3*6, rep.Table.Len())
	assert.Equal(t, 36, rep.Table.Missing())
	assert.Len(t, sim.calls, 36)
	assert.FileExists(t, rep.PlotPath)
	assert.Equal(t, 37, countLines(t, rep.CSVPath))

	first := sim.calls[0]
	assert.Equal(t, "lab2-part1", first.program)
	assert.Equal(t, []string{
		"--dataRate=1Mbps",
		"--errorRate=1e-05",
		"--seed=2",
		"--transport_prot=TcpCubic",
		"--nFlows=1",
		"--delay=50ms",
	}, first.params.Args())
	last := sim.calls[35]
	assert.Equal(t, "TcpNewReno", last.params.Lookup(ParamProtocol))
	assert.Equal(t, "4", last.params.Lookup(ParamFlows))
	assert.Equal(t, "300ms", last.params.Lookup(ParamDelay))
}

func TestPart1bGroupsByProtocolAndFlows(t *testing.T) {
	sim := &fakeSim{fn: func(string, ns3.ParamSet) ns3.Result { return aggregate(2.5e6) }}

	rep, err := newTestRunner(testConfig(t), sim, nil, nil).Part1b(context.Background())
	require.NoError(t, err)

	groups := rep.Table.GroupBy(func(r Row) string { return flowLabel(r.Protocol, r.Flows) })
	require.Len(t, groups, 6)
	assert.Equal(t, "TcpCubic (1 Flow)", groups[0].Key)
	assert.Equal(t, "TcpCubic (2 Flows)", groups[1].Key)
	assert.Equal(t, "TcpNewReno (4 Flows)", groups[5].Key)

	xs, ys := groups[0].XY()
	assert.Equal(t, []float64{50, 100, 150, 200, 250, 300}, xs)
	for _, y := range ys {
		assert.InDelta(t, 2.5, y, 1e-12)
	}
	assert.Zero(t, rep.Table.Missing())
}

func TestPart1cSweepsErrorRate(t *testing.T) {
	sim := &fakeSim{fn: func(_ string, p ns3.ParamSet) ns3.Result {
		if p.Lookup(ParamErrorRate) == "0.001" {
			return ns3.Result{}
		}
		return aggregate(1e6)
	}}

	rep, err := newTestRunner(testConfig(t), sim, nil, nil).Part1c(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2*3*5, rep.Table.Len())
	assert.Equal(t, 6, rep.Table.Missing())
	assert.Equal(t, []string{
		"--dataRate=1Mbps",
		"--delay=1ms",
		"--seed=3",
		"--transport_prot=TcpCubic",
		"--nFlows=1",
		"--errorRate=1e-05",
	}, sim.calls[0].params.Args())
	assert.Equal(t, "5e-05", sim.calls[1].params.Lookup(ParamErrorRate))
	assert.FileExists(t, rep.PlotPath)
}

func TestPart1cSingleSuccessfulErrorRate(t *testing.T) {
	sim := &fakeSim{fn: func(_ string, p ns3.ParamSet) ns3.Result {
		if p.Lookup(ParamErrorRate) == "1e-05" {
			return aggregate(9e5)
		}
		return ns3.Result{}
	}}
	r := newTestRunner(testConfig(t), sim, nil, nil)

	var (
		rep Report
		err error
	)
	require.NotPanics(t, func() { rep, err = r.Part1c(context.Background()) })
	require.NoError(t, err)
	assert.Equal(t, 2*3*4, rep.Table.Missing())
	assert.FileExists(t, rep.PlotPath)
}

func TestPart1aPlotsTracesAndWritesSamples(t *testing.T) {
	cfg := testConfig(t)
	sim := &fakeSim{fn: func(_ string, p ns3.ParamSet) ns3.Result {
		res := aggregate(1.2e6)
		res.Output = "output " + p.Lookup(ParamProtocol) + " " + p.Lookup(ParamFlows)
		return res
	}}
	mover := &fakeMover{dir: cfg.OutputDir, traces: map[string]string{
		"TcpCubic":   "0.0 536\n0.5 1072\n1.0 2144\n",
		"TcpNewReno": "0.0 536\n0.5 1072\n1.0 1608\n",
	}}

	rep, err := newTestRunner(cfg, sim, mover, nil).Part1a(context.Background())
	require.NoError(t, err)

	require.Len(t, sim.calls, 4)
	assert.Equal(t, []string{
		"--dataRate=10Mbps",
		"--delay=100ms",
		"--errorRate=1e-05",
		"--nFlows=1",
		"--seed=1",
		"--transport_prot=TcpCubic",
	}, sim.calls[0].params.Args())
	assert.Equal(t, "4", sim.calls[2].params.Lookup(ParamFlows))
	assert.Equal(t, []string{"Part1/TcpCubic", "Part1/TcpNewReno"}, mover.moves, "only the single-flow runs relocate")

	assert.Equal(t, filepath.Join(cfg.OutputDir, "Part1", "plots", "Part1a_CWND_Comparison.png"), rep.PlotPath)
	assert.FileExists(t, rep.PlotPath)

	require.Len(t, rep.Samples, 2)
	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "Part1", "Part1a_SampleOutput_4Flows_TcpNewReno.txt"))
	require.NoError(t, err)
	assert.Equal(t, "output TcpNewReno 4", string(data))

	rows := rep.Table.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, TcpCubic, rows[0].Protocol)
	assert.InDelta(t, 1.2, rows[0].GoodputMbps, 1e-12)
	assert.FileExists(t, rep.CSVPath)
}

func TestPart1aSkipsPlotWhenATraceIsMissing(t *testing.T) {
	cfg := testConfig(t)
	mover := &fakeMover{dir: cfg.OutputDir, traces: map[string]string{"TcpCubic": "0 1\n"}}

	rep, err := newTestRunner(cfg, &fakeSim{}, mover, nil).Part1a(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rep.PlotPath)
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "Part1", "plots", "Part1a_CWND_Comparison.png"))
	// failed runs still leave an (empty) sample behind
	assert.Len(t, rep.Samples, 2)
}

func TestPart1aBadTraceIsNotFatal(t *testing.T) {
	cfg := testConfig(t)
	mover := &fakeMover{dir: cfg.OutputDir, traces: map[string]string{
		"TcpCubic":   "0 1\n",
		"TcpNewReno": "not a trace\n",
	}}

	rep, err := newTestRunner(cfg, &fakeSim{}, mover, nil).Part1a(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rep.PlotPath)
	assert.Len(t, rep.Samples, 2)
}

func twoDest(d1, d2 float64) ns3.Result {
	return ns3.Result{
		Aggregate: ns3.Goodput{Bps: 2 * (d1 + d2), Valid: true},
		Dest1Avg:  ns3.Goodput{Bps: d1, Valid: true},
		Dest2Avg:  ns3.Goodput{Bps: d2, Valid: true},
		Output:    "two-dest report",
	}
}

func TestPart2DropsCombinationOnlyWhenAllRunsFail(t *testing.T) {
	cfg := testConfig(t)
	sim := &fakeSim{fn: func(_ string, p ns3.ParamSet) ns3.Result {
		seed, _ := strconv.Atoi(p.Lookup(ParamSeed))
		proto, flows := p.Lookup(ParamProtocol), p.Lookup(ParamFlows)
		switch {
		case proto == "TcpCubic" && flows == "2":
			return ns3.Result{}
		case proto == "TcpCubic" && flows == "4":
			if seed != 8085 {
				// aggregate only: not enough for the per-destination average
				return aggregate(1e6)
			}
			return twoDest(1e6, 5e5)
		default:
			return twoDest(float64(seed)*1000, 2e5)
		}
	}}

	rep, err := newTestRunner(cfg, sim, nil, nil).Part2(context.Background())
	require.NoError(t, err)

	require.Len(t, sim.calls, 2*4*10)
	assert.Equal(t, "lab2-part2", sim.calls[0].program)
	assert.Equal(t, []string{
		"--dataRate=1Mbps",
		"--delay=20ms",
		"--errorRate=1e-05",
		"--seed=8080",
		"--transport_prot=TcpCubic",
		"--nFlows=2",
	}, sim.calls[0].params.Args())
	assert.Equal(t, "8089", sim.calls[9].params.Lookup(ParamSeed))

	// 8 combinations, one dropped, two rows each
	assert.Equal(t, 14, rep.Table.Len())
	for _, r := range rep.Table.Rows() {
		assert.False(t, r.Protocol == TcpCubic && r.Flows == 2, "dropped combination present")
		assert.False(t, r.Missing)
	}

	rows := rep.Table.Rows()
	assert.Equal(t, Row{Protocol: TcpCubic, Flows: 4, Dest: Dest1, X: 4, GoodputMbps: 1, Runs: 1}, rows[0])
	assert.Equal(t, Row{Protocol: TcpCubic, Flows: 4, Dest: Dest2, X: 4, GoodputMbps: 0.5, Runs: 1}, rows[1])

	groups := rep.Table.GroupBy(func(r Row) string { return string(r.Protocol) + " - " + r.Dest })
	require.Len(t, groups, 4)
	reno := groups[2]
	assert.Equal(t, "TcpNewReno - Dest1 (Fast RTT)", reno.Key)
	require.Len(t, reno.Rows, 4)
	// mean of 8080..8089 kbps
	assert.InDelta(t, 8.0845, reno.Rows[0].GoodputMbps, 1e-9)
	assert.Equal(t, 10, reno.Rows[0].Runs)

	require.Len(t, rep.Samples, 2)
	cubicSample, err := os.ReadFile(rep.Samples[0])
	require.NoError(t, err)
	assert.Equal(t, "ok", string(cubicSample))
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "Part2", "Part2_SampleOutput_4Flows_TcpNewReno.txt"))
	assert.FileExists(t, rep.PlotPath)
}

func TestPart2AllFailuresYieldEmptyTable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Runs = 2

	rep, err := newTestRunner(cfg, &fakeSim{}, nil, nil).Part2(context.Background())
	require.NoError(t, err)
	assert.Zero(t, rep.Table.Len())
	assert.Equal(t, 1, countLines(t, rep.CSVPath))
}

func TestRunAllRunsEveryExperimentInOrder(t *testing.T) {
	cfg := testConfig(t)
	cfg.Runs = 1
	sum := NewSummaryRecorder()
	sim := &fakeSim{}

	reports, err := newTestRunner(cfg, sim, nil, sum).RunAll(context.Background())
	require.NoError(t, err)

	require.Len(t, reports, 4)
	for i, name := range []string{"part1a", "part1b", "part1c", "part2"} {
		assert.Equal(t, name, reports[i].Experiment)
	}
	want := 4 + 36 + 30 + 2*4*1
	assert.Equal(t, want, sum.Runs())
	assert.Equal(t, want, sum.Failed())
	assert.Equal(t, []ExperimentCounts{
		{Experiment: "part1a", Runs: 4, Failed: 4},
		{Experiment: "part1b", Runs: 36, Failed: 36},
		{Experiment: "part1c", Runs: 30, Failed: 30},
		{Experiment: "part2", Runs: 8, Failed: 8},
	}, sum.Experiments())
}

func TestRunAllStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sim := &fakeSim{}

	reports, err := newTestRunner(testConfig(t), sim, nil, nil).RunAll(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, reports)
	assert.Empty(t, sim.calls)
}
