package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/lars-sto/congestion-control-lab/internal/config"
	"github.com/lars-sto/congestion-control-lab/internal/ns3"
	"github.com/lars-sto/congestion-control-lab/internal/sim"
	"github.com/lars-sto/congestion-control-lab/internal/workspace"
)

const runsFile = "runs.csv"

func main() {
	app := &cli.App{
		Name:  "simulate",
		Usage: "run the ns-3 TCP CUBIC vs NewReno experiment batch",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "experiments.yaml",
				Usage:   "YAML config file, ignored when absent",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "also append JSON logs to this file",
			},
		},
		Action: runAll,
		Commands: []*cli.Command{
			{
				Name:   "all",
				Usage:  "wipe the output tree and run every experiment",
				Action: runAll,
			},
			{
				Name:   "prepare",
				Usage:  "recreate an empty output tree",
				Action: prepare,
			},
			experimentCommand("part1a", "single-flow cwnd comparison and 4-flow sample output"),
			experimentCommand("part1b", "goodput vs bottleneck delay"),
			experimentCommand("part1c", "goodput vs packet error rate"),
			experimentCommand("part2", "per-destination goodput vs flow count, averaged over seeds"),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := app.RunContext(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "simulate:", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return config.Config{}, err
	}
	cfg = cfg.WithLogLevel(c.String("log-level"))
	if f := c.String("log-file"); f != "" {
		cfg.LogFile = f
	}
	return cfg, cfg.Validate()
}

func prepare(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	if err := workspace.Prepare(cfg.OutputDir); err != nil {
		return err
	}
	log.Info().Str("dir", cfg.OutputDir).Msg("output tree ready")
	return nil
}

func runAll(c *cli.Context) error {
	return withRunner(c, workspace.Prepare, func(ctx context.Context, r *sim.Runner, log zerolog.Logger) error {
		reports, err := r.RunAll(ctx)
		for _, rep := range reports {
			if rep.Experiment == "part1a" {
				logSingleFlowGoodput(log, rep)
			}
		}
		return err
	})
}

func experimentCommand(name, usage string) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Action: func(c *cli.Context) error {
			return withRunner(c, workspace.Ensure, func(ctx context.Context, r *sim.Runner, log zerolog.Logger) error {
				for _, e := range r.Experiments() {
					if e.Name != name {
						continue
					}
					rep, err := e.Run(ctx)
					if err != nil {
						return err
					}
					if name == "part1a" {
						logSingleFlowGoodput(log, rep)
					}
					return nil
				}
				return fmt.Errorf("unknown experiment %q", name)
			})
		},
	}
}

// withRunner loads config and logging, lays out the output tree with
// layout (fatal on error), wires the runner and reports batch counters
// once fn returns.
func withRunner(c *cli.Context, layout func(root string) error, fn func(context.Context, *sim.Runner, zerolog.Logger) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	if err := layout(cfg.OutputDir); err != nil {
		log.Error().Err(err).Str("dir", cfg.OutputDir).Msg("cannot prepare output tree")
		return err
	}

	runs, err := sim.NewCSVRecorder(filepath.Join(cfg.OutputDir, runsFile))
	if err != nil {
		return err
	}
	summary := sim.NewSummaryRecorder()
	rec := sim.MultiRecorder(runs, summary)

	runner := sim.NewRunner(cfg, ns3.NewInvoker(cfg, log), workspace.NewRelocator(cfg, log), rec, log)

	start := time.Now()
	err = fn(c.Context, runner, log)

	if cerr := rec.Close(); cerr != nil {
		log.Error().Err(cerr).Msg("closing run log")
	}
	for _, e := range summary.Experiments() {
		log.Info().Str("experiment", e.Experiment).Int("runs", e.Runs).Int("failed", e.Failed).Msg("experiment runs")
	}
	log.Info().
		Int("runs", summary.Runs()).
		Int("failed", summary.Failed()).
		Dur("mean_run", summary.MeanElapsed()).
		Dur("elapsed", time.Since(start)).
		Msg("batch finished")
	return err
}

func logSingleFlowGoodput(log zerolog.Logger, rep sim.Report) {
	for _, row := range rep.Table.Rows() {
		if row.Missing {
			log.Warn().Str("protocol", string(row.Protocol)).Msg("single-flow goodput: no reading")
			continue
		}
		log.Info().
			Str("protocol", string(row.Protocol)).
			Str("goodput", fmt.Sprintf("%.2f bps", row.GoodputMbps*1e6)).
			Msg("single-flow goodput")
	}
}
