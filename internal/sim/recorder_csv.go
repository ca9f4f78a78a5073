package sim

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lars-sto/congestion-control-lab/internal/ns3"
)

// RunRecord describes one finished simulator invocation.
type RunRecord struct {
	Experiment string
	Program    string
	Params     ns3.ParamSet
	Result     ns3.Result
	Elapsed    time.Duration
}

// Recorder observes every invocation a Runner makes.
type Recorder interface {
	OnRun(r RunRecord)
	Close() error
}

// CSVRecorder writes one line per invocation.
type CSVRecorder struct {
	f *os.File
	w *csv.Writer
}

func NewCSVRecorder(path string) (*CSVRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)

	hdr := []string{
		"experiment",
		"program",
		"protocol",
		"n_flows",
		"seed",
		"args",
		"rule",
		"goodput_agg_bps",
		"dest1_avg_bps",
		"dest2_avg_bps",
		"flows_parsed",
		"elapsed_ms",
	}
	if err := w.Write(hdr); err != nil {
		_ = f.Close()
		return nil, err
	}
	w.Flush()

	return &CSVRecorder{f: f, w: w}, nil
}

func (r *CSVRecorder) OnRun(rec RunRecord) {
	row := []string{
		rec.Experiment,
		rec.Program,
		rec.Params.Lookup(ParamProtocol),
		rec.Params.Lookup(ParamFlows),
		rec.Params.Lookup(ParamSeed),
		ns3.CommandLine(rec.Program, rec.Params),
		rec.Result.Rule,
		fg(rec.Result.Aggregate),
		fg(rec.Result.Dest1Avg),
		fg(rec.Result.Dest2Avg),
		strconv.Itoa(len(rec.Result.Flows)),
		strconv.FormatInt(rec.Elapsed.Milliseconds(), 10),
	}
	_ = r.w.Write(row)
	// keep the file useful when a long batch is interrupted
	r.w.Flush()
}

func (r *CSVRecorder) Close() error {
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		_ = r.f.Close()
		return err
	}
	return r.f.Close()
}

func ff(v float64) string { return fmt.Sprintf("%.6f", v) }

// fg leaves the cell empty for a missing reading.
func fg(g ns3.Goodput) string {
	if !g.Valid {
		return ""
	}
	return ff(g.Bps)
}
