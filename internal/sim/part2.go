package sim

import (
	"context"
	"fmt"

	"github.com/lars-sto/congestion-control-lab/internal/plot"
	"github.com/lars-sto/congestion-control-lab/internal/workspace"
)

// Part2 runs the two-destination topology cfg.Runs times per
// (protocol, flows) with seeds part2Seed+run and averages the per-flow
// goodput of each destination over the runs that reported both. A
// combination where no run did is dropped from the table.
func (r *Runner) Part2(ctx context.Context) (Report, error) {
	const name = "part2"
	r.log.Info().Int("runs", r.cfg.Runs).Msg("starting part 2: heterogeneous RTT")

	rep := Report{
		Experiment: name,
		Table:      NewTable(),
		PlotPath:   workspace.PlotPath(r.cfg.OutputDir, workspace.Part2, "Part2_Goodput_vs_nFlows.png"),
		CSVPath:    r.outPath(workspace.Part2, "Part2_Goodput_vs_nFlows.csv"),
	}

	for _, p := range Protocols {
		for _, n := range part2Flows {
			var d1, d2 []float64
			for run := 0; run < r.cfg.Runs; run++ {
				if err := ctx.Err(); err != nil {
					return rep, err
				}
				params := part2Base.
					With(ParamProtocol, string(p)).
					With(ParamFlows, n).
					With(ParamSeed, part2Seed+run)
				res := r.run(ctx, name, r.cfg.DualProgram, params)

				if res.BothDestinations() {
					d1 = append(d1, res.Dest1Avg.Bps)
					d2 = append(d2, res.Dest2Avg.Bps)
				}

				if n == part2SampleFlows && run == 0 {
					path := r.outPath(workspace.Part2, fmt.Sprintf("Part2_SampleOutput_%dFlows_%s.txt", n, p))
					if err := writeSample(path, res); err != nil {
						return rep, err
					}
					rep.Samples = append(rep.Samples, path)
				}
			}

			if len(d1) == 0 {
				r.log.Warn().
					Str("protocol", string(p)).
					Int("flows", n).
					Int("runs", r.cfg.Runs).
					Msg("no goodput from any run, combination dropped")
				continue
			}

			rep.Table.Append(destRow(p, n, Dest1, d1))
			rep.Table.Append(destRow(p, n, Dest2, d2))
		}
	}

	xticks := make([]float64, 0, len(part2Flows))
	for _, n := range part2Flows {
		xticks = append(xticks, float64(n))
	}

	err := r.finish(rep, "n_flows_x", func(row Row) string {
		return fmt.Sprintf("%s - %s", row.Protocol, row.Dest)
	}, plot.Options{
		Title:     "Average Per-Flow Goodput vs. Number of Flows",
		XLabel:    "Number of Flows (nFlows)",
		YLabel:    "Average Per-Flow Goodput (Mbps)",
		XTicks:    xticks,
		YFromZero: true,
	})
	return rep, err
}

func destRow(p Protocol, flows int, dest string, samples []float64) Row {
	return Row{
		Protocol:    p,
		Flows:       flows,
		Dest:        dest,
		X:           float64(flows),
		GoodputMbps: mean(samples) / 1e6,
		Runs:        len(samples),
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
