package sim

import (
	"fmt"

	"github.com/lars-sto/congestion-control-lab/internal/ns3"
)

// Protocols is the outer sweep dimension of every experiment.
var Protocols = []Protocol{TcpCubic, TcpNewReno}

// Part 1a: single flow cwnd comparison, then a 4-flow sample run per protocol.
var (
	part1aBase = ns3.NewParamSet(
		ns3.Param{Name: ParamDataRate, Value: "10Mbps"},
		ns3.Param{Name: ParamDelay, Value: "100ms"},
		ns3.Param{Name: ParamErrorRate, Value: 0.00001},
		ns3.Param{Name: ParamFlows, Value: 1},
		ns3.Param{Name: ParamSeed, Value: 1},
		ns3.Param{Name: ParamProtocol, Value: ""},
	)
	part1aSampleFlows = 4
)

// Part 1b: goodput vs bottleneck delay.
var (
	part1bBase = ns3.NewParamSet(
		ns3.Param{Name: ParamDataRate, Value: "1Mbps"},
		ns3.Param{Name: ParamErrorRate, Value: 0.00001},
		ns3.Param{Name: ParamSeed, Value: 2},
	)
	part1bFlows    = []int{1, 2, 4}
	part1bDelaysMs = []int{50, 100, 150, 200, 250, 300}
)

// Part 1c: goodput vs packet error rate.
var (
	part1cBase = ns3.NewParamSet(
		ns3.Param{Name: ParamDataRate, Value: "1Mbps"},
		ns3.Param{Name: ParamDelay, Value: "1ms"},
		ns3.Param{Name: ParamSeed, Value: 3},
	)
	part1cFlows      = []int{1, 2, 4}
	part1cErrorRates = []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001}
)

// Part 2: heterogeneous RTT, averaged over seeds part2Seed+run.
var (
	part2Base = ns3.NewParamSet(
		ns3.Param{Name: ParamDataRate, Value: "1Mbps"},
		ns3.Param{Name: ParamDelay, Value: "20ms"},
		ns3.Param{Name: ParamErrorRate, Value: 0.00001},
		ns3.Param{Name: ParamSeed, Value: part2Seed},
	)
	part2Seed        = 8080
	part2Flows       = []int{2, 4, 6, 8}
	part2SampleFlows = 4
)

func delayArg(ms int) string { return fmt.Sprintf("%dms", ms) }

func flowLabel(p Protocol, n int) string {
	if n > 1 {
		return fmt.Sprintf("%s (%d Flows)", p, n)
	}
	return fmt.Sprintf("%s (%d Flow)", p, n)
}
