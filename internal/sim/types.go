package sim

import (
	"context"

	"github.com/lars-sto/congestion-control-lab/internal/ns3"
	"github.com/lars-sto/congestion-control-lab/internal/workspace"
)

type Protocol string

const (
	TcpCubic   Protocol = "TcpCubic"
	TcpNewReno Protocol = "TcpNewReno"
)

// Destination labels of the two-destination topology.
const (
	Dest1 = "Dest1 (Fast RTT)"
	Dest2 = "Dest2 (Slow RTT)"
)

// Parameter names understood by both simulator programs.
const (
	ParamDataRate  = "dataRate"
	ParamDelay     = "delay"
	ParamErrorRate = "errorRate"
	ParamFlows     = "nFlows"
	ParamSeed      = "seed"
	ParamProtocol  = "transport_prot"
)

// Simulator runs one program invocation. *ns3.Invoker implements it.
type Simulator interface {
	Run(ctx context.Context, program string, params ns3.ParamSet) ns3.Result
}

// TraceMover relocates the scratch cwnd trace. *workspace.Relocator implements it.
type TraceMover interface {
	Move(part, protocol string) (string, bool, error)
}

var (
	_ Simulator  = (*ns3.Invoker)(nil)
	_ TraceMover = (*workspace.Relocator)(nil)
)

// Row is one point of an experiment table. Rows are never mutated after
// being appended.
type Row struct {
	Protocol Protocol
	Flows    int
	// Dest is only set by the two-destination experiment.
	Dest string
	// X is the swept numeric dimension (delay ms, error rate, flow count).
	X float64

	// GoodputMbps is meaningless when Missing is set.
	GoodputMbps float64
	Missing     bool
	// Runs counts the successful runs averaged into GoodputMbps.
	Runs int
}

func goodputRow(p Protocol, flows int, x float64, g ns3.Goodput) Row {
	r := Row{Protocol: p, Flows: flows, X: x}
	if !g.Valid {
		r.Missing = true
		return r
	}
	r.GoodputMbps = g.Mbps()
	r.Runs = 1
	return r
}
