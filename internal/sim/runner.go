package sim

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/lars-sto/congestion-control-lab/internal/config"
	"github.com/lars-sto/congestion-control-lab/internal/ns3"
	"github.com/lars-sto/congestion-control-lab/internal/plot"
)

// Runner drives the experiments. Invocations are strictly sequential and
// happen in sweep order.
type Runner struct {
	cfg   config.Config
	sim   Simulator
	mover TraceMover
	rec   Recorder
	log   zerolog.Logger
}

func NewRunner(cfg config.Config, sim Simulator, mover TraceMover, rec Recorder, log zerolog.Logger) *Runner {
	if rec == nil {
		rec = MultiRecorder()
	}
	return &Runner{cfg: cfg, sim: sim, mover: mover, rec: rec, log: log}
}

type Experiment struct {
	Name string
	Run  func(ctx context.Context) (Report, error)
}

// Experiments lists the drivers in batch order.
func (r *Runner) Experiments() []Experiment {
	return []Experiment{
		{Name: "part1a", Run: r.Part1a},
		{Name: "part1b", Run: r.Part1b},
		{Name: "part1c", Run: r.Part1c},
		{Name: "part2", Run: r.Part2},
	}
}

// RunAll executes every experiment in order. A failing experiment is logged
// and the batch moves on; only cancellation stops it early.
func (r *Runner) RunAll(ctx context.Context) ([]Report, error) {
	var (
		reports []Report
		errs    []error
	)
	for _, e := range r.Experiments() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		rep, err := e.Run(ctx)
		if err != nil {
			r.log.Error().Err(err).Str("experiment", e.Name).Msg("experiment failed")
			errs = append(errs, fmt.Errorf("%s: %w", e.Name, err))
			continue
		}
		reports = append(reports, rep)
	}
	return reports, errors.Join(errs...)
}

func (r *Runner) run(ctx context.Context, experiment, program string, params ns3.ParamSet) ns3.Result {
	start := time.Now()
	res := r.sim.Run(ctx, program, params)
	r.rec.OnRun(RunRecord{
		Experiment: experiment,
		Program:    program,
		Params:     params,
		Result:     res,
		Elapsed:    time.Since(start),
	})
	return res
}

// runAndRelocate runs the single-topology program and moves the cwnd trace
// it leaves in scratch before anything else can overwrite it.
func (r *Runner) runAndRelocate(ctx context.Context, experiment, part string, params ns3.ParamSet) (ns3.Result, string, bool) {
	res := r.run(ctx, experiment, r.cfg.SingleProgram, params)

	path, ok, err := r.mover.Move(part, params.Lookup(ParamProtocol))
	if err != nil {
		r.log.Error().Err(err).Str("protocol", params.Lookup(ParamProtocol)).Msg("cwnd trace relocation failed")
		return res, "", false
	}
	return res, path, ok
}

func (r *Runner) outPath(elem ...string) string {
	return filepath.Join(append([]string{r.cfg.OutputDir}, elem...)...)
}

func writeSample(path string, res ns3.Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(res.Output), 0o644); err != nil {
		return fmt.Errorf("write sample output: %w", err)
	}
	return nil
}

// finish persists rep.Table as CSV and draws one line per group.
func (r *Runner) finish(rep Report, xColumn string, label func(Row) string, opt plot.Options) error {
	if err := WriteTableCSV(rep.CSVPath, xColumn, rep.Table); err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	groups := rep.Table.GroupBy(label)
	series := make([]plot.Series, 0, len(groups))
	for _, g := range groups {
		xs, ys := g.XY()
		series = append(series, plot.Series{Label: g.Key, X: xs, Y: ys})
	}
	if err := plot.Save(rep.PlotPath, opt, series); err != nil {
		return err
	}

	r.log.Info().
		Str("experiment", rep.Experiment).
		Int("rows", rep.Table.Len()).
		Int("missing", rep.Table.Missing()).
		Str("plot", rep.PlotPath).
		Msg("experiment saved")
	return nil
}
