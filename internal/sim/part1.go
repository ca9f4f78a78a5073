package sim

import (
	"context"
	"fmt"

	"gonum.org/v1/plot/vg"

	"github.com/lars-sto/congestion-control-lab/internal/plot"
	"github.com/lars-sto/congestion-control-lab/internal/trace"
	"github.com/lars-sto/congestion-control-lab/internal/workspace"
)

var cwndLabels = map[Protocol]string{
	TcpCubic:   "TCP CUBIC",
	TcpNewReno: "TCP NewReno",
}

// Part1a runs one flow per protocol and overlays their cwnd traces, then
// stores the raw output of a 4-flow run per protocol. The table holds the
// single-flow goodput, X being the flow count.
func (r *Runner) Part1a(ctx context.Context) (Report, error) {
	const name = "part1a"
	r.log.Info().Msg("starting part 1a: cwnd comparison")

	rep := Report{
		Experiment: name,
		Table:      NewTable(),
		CSVPath:    r.outPath(workspace.Part1, "Part1a_Goodput.csv"),
	}

	traces := make(map[Protocol]string, len(Protocols))
	for _, p := range Protocols {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		params := part1aBase.With(ParamProtocol, string(p))
		res, path, ok := r.runAndRelocate(ctx, name, workspace.Part1, params)
		rep.Table.Append(goodputRow(p, 1, 1, res.Aggregate))
		if ok {
			traces[p] = path
		}
	}

	if len(traces) == len(Protocols) {
		path := workspace.PlotPath(r.cfg.OutputDir, workspace.Part1, "Part1a_CWND_Comparison.png")
		if err := r.plotCwnd(path, traces); err != nil {
			// a bad trace only costs this one plot
			r.log.Error().Err(err).Msg("cwnd comparison plot skipped")
		} else {
			rep.PlotPath = path
			r.log.Info().Str("plot", path).Msg("cwnd comparison saved")
		}
	} else {
		r.log.Warn().Int("traces", len(traces)).Msg("cwnd trace missing, comparison plot skipped")
	}

	for _, p := range Protocols {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		params := part1aBase.With(ParamFlows, part1aSampleFlows).With(ParamProtocol, string(p))
		r.log.Info().Str("protocol", string(p)).Int("flows", part1aSampleFlows).Msg("recording sample output")
		res := r.run(ctx, name, r.cfg.SingleProgram, params)

		path := r.outPath(workspace.Part1, fmt.Sprintf("Part1a_SampleOutput_%dFlows_%s.txt", part1aSampleFlows, p))
		if err := writeSample(path, res); err != nil {
			return rep, err
		}
		rep.Samples = append(rep.Samples, path)
	}

	if err := WriteTableCSV(rep.CSVPath, "n_flows_x", rep.Table); err != nil {
		return rep, fmt.Errorf("write table: %w", err)
	}
	return rep, nil
}

func (r *Runner) plotCwnd(path string, traces map[Protocol]string) error {
	series := make([]plot.Series, 0, len(Protocols))
	for _, p := range Protocols {
		s, err := trace.ReadCwnd(traces[p])
		if err != nil {
			return fmt.Errorf("read cwnd trace: %w", err)
		}
		series = append(series, plot.Series{Label: cwndLabels[p], X: s.Times, Y: s.Sizes})
	}
	return plot.Save(path, plot.Options{
		Title:  "Cwnd vs Time - 1 Flow (10Mbps, 100ms, 1e-5)",
		XLabel: "Time (s)",
		YLabel: "Congestion Window (Bytes)",
		Step:   true,
		Width:  12 * vg.Inch,
		Height: 6 * vg.Inch,
	}, series)
}

// Part1b sweeps bottleneck delay for every protocol and flow count.
func (r *Runner) Part1b(ctx context.Context) (Report, error) {
	const name = "part1b"
	r.log.Info().Msg("starting part 1b: goodput vs delay")

	rep := Report{
		Experiment: name,
		Table:      NewTable(),
		PlotPath:   workspace.PlotPath(r.cfg.OutputDir, workspace.Part1, "Part1b_Goodput_vs_Delay.png"),
		CSVPath:    r.outPath(workspace.Part1, "Part1b_Goodput_vs_Delay.csv"),
	}

	for _, p := range Protocols {
		for _, n := range part1bFlows {
			for _, d := range part1bDelaysMs {
				if err := ctx.Err(); err != nil {
					return rep, err
				}
				params := part1bBase.
					With(ParamProtocol, string(p)).
					With(ParamFlows, n).
					With(ParamDelay, delayArg(d))
				res := r.run(ctx, name, r.cfg.SingleProgram, params)
				rep.Table.Append(goodputRow(p, n, float64(d), res.Aggregate))
			}
		}
	}

	err := r.finish(rep, "delay_ms", func(row Row) string {
		return flowLabel(row.Protocol, row.Flows)
	}, plot.Options{
		Title:     "Goodput vs. Delay (1 Mbps, Error Rate 1e-5)",
		XLabel:    "Delay (ms)",
		YLabel:    "Aggregate Goodput (Mbps)",
		YFromZero: true,
	})
	return rep, err
}

// Part1c sweeps the packet error rate, plotted on a log axis.
func (r *Runner) Part1c(ctx context.Context) (Report, error) {
	const name = "part1c"
	r.log.Info().Msg("starting part 1c: goodput vs error rate")

	rep := Report{
		Experiment: name,
		Table:      NewTable(),
		PlotPath:   workspace.PlotPath(r.cfg.OutputDir, workspace.Part1, "Part1c_Goodput_vs_ErrorRate.png"),
		CSVPath:    r.outPath(workspace.Part1, "Part1c_Goodput_vs_ErrorRate.csv"),
	}

	for _, p := range Protocols {
		for _, n := range part1cFlows {
			for _, e := range part1cErrorRates {
				if err := ctx.Err(); err != nil {
					return rep, err
				}
				params := part1cBase.
					With(ParamProtocol, string(p)).
					With(ParamFlows, n).
					With(ParamErrorRate, e)
				res := r.run(ctx, name, r.cfg.SingleProgram, params)
				rep.Table.Append(goodputRow(p, n, e, res.Aggregate))
			}
		}
	}

	err := r.finish(rep, "error_rate", func(row Row) string {
		return fmt.Sprintf("%s (%d Flows)", row.Protocol, row.Flows)
	}, plot.Options{
		Title:     "Goodput vs. Error Rate (1 Mbps, Delay: 1 ms)",
		XLabel:    "Error Rate",
		YLabel:    "Aggregate Goodput (Mbps)",
		LogX:      true,
		YFromZero: true,
	})
	return rep, err
}
