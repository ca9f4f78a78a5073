package sim

import "time"

// SummaryRecorder keeps batch-level counters: how many invocations ran,
// how many produced no goodput, and how long they took.
type SummaryRecorder struct {
	runs    int
	failed  int
	elapsed time.Duration

	perExperiment map[string]*ExperimentCounts
	order         []string
}

type ExperimentCounts struct {
	Experiment string
	Runs       int
	Failed     int
}

func NewSummaryRecorder() *SummaryRecorder {
	return &SummaryRecorder{perExperiment: make(map[string]*ExperimentCounts)}
}

func (r *SummaryRecorder) OnRun(rec RunRecord) {
	r.runs++
	r.elapsed += rec.Elapsed

	c, ok := r.perExperiment[rec.Experiment]
	if !ok {
		c = &ExperimentCounts{Experiment: rec.Experiment}
		r.perExperiment[rec.Experiment] = c
		r.order = append(r.order, rec.Experiment)
	}
	c.Runs++

	if !rec.Result.OK() {
		r.failed++
		c.Failed++
	}
}

func (r *SummaryRecorder) Close() error { return nil }

func (r *SummaryRecorder) Runs() int { return r.runs }

// Failed counts invocations without an aggregate goodput reading.
func (r *SummaryRecorder) Failed() int { return r.failed }

func (r *SummaryRecorder) Elapsed() time.Duration { return r.elapsed }

// MeanElapsed is averaged across all invocations
func (r *SummaryRecorder) MeanElapsed() time.Duration {
	if r.runs <= 0 {
		return 0
	}
	return r.elapsed / time.Duration(r.runs)
}

// Experiments returns per-experiment counters in first-seen order.
func (r *SummaryRecorder) Experiments() []ExperimentCounts {
	out := make([]ExperimentCounts, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, *r.perExperiment[name])
	}
	return out
}
