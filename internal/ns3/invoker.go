package ns3

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"github.com/lars-sto/congestion-control-lab/internal/config"
)

// Invoker runs one simulator program per call through the ns3 launcher.
// Calls block until the child exits; there is no timeout and no retry.
type Invoker struct {
	launcher string
	dir      string
	extract  *Extractor
	log      zerolog.Logger
}

func NewInvoker(cfg config.Config, log zerolog.Logger) *Invoker {
	return &Invoker{
		launcher: cfg.Launcher,
		dir:      cfg.WorkDir,
		extract:  NewExtractor(log),
		log:      log,
	}
}

// Run executes `<launcher> run "<program> --k=v ..."`. Every failure
// (non-zero exit, launcher missing, cancelled context) is logged and
// returned as an empty Result.
func (inv *Invoker) Run(ctx context.Context, program string, params ParamSet) Result {
	cmdLine := CommandLine(program, params)

	inv.log.Info().
		Str("protocol", params.Lookup("transport_prot")).
		Str("flows", params.Lookup("nFlows")).
		Str("args", cmdLine).
		Msg("running simulation")

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, inv.launcher, "run", cmdLine)
	cmd.Dir = inv.dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			inv.log.Error().
				Int("exit_code", exitErr.ExitCode()).
				Str("command", inv.launcher+" run "+cmdLine).
				Str("stderr", stderr.String()).
				Msg("simulator exited with error")
		case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
			inv.log.Error().
				Str("launcher", inv.launcher).
				Str("dir", inv.dir).
				Msg("simulator launcher not found")
		default:
			inv.log.Error().Err(err).Str("command", cmdLine).Msg("simulator failed to run")
		}
		return Result{}
	}

	inv.log.Debug().Dur("elapsed", time.Since(start)).Int("stdout_bytes", stdout.Len()).Msg("simulation finished")
	return inv.extract.Extract(stdout.String(), params)
}
