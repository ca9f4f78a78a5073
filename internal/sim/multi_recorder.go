package sim

// multiRecorder lets the runner report each simulator invocation once while
// the run log and the batch counters both see it.
type multiRecorder struct {
	rs []Recorder
}

// MultiRecorder combines recorders; nil entries are dropped so optional
// sinks can be passed unconditionally. Close reports the first failure.
func MultiRecorder(rs ...Recorder) Recorder {
	out := &multiRecorder{rs: make([]Recorder, 0, len(rs))}
	for _, r := range rs {
		if r != nil {
			out.rs = append(out.rs, r)
		}
	}
	return out
}

func (m *multiRecorder) OnRun(rec RunRecord) {
	for _, r := range m.rs {
		r.OnRun(rec)
	}
}

func (m *multiRecorder) Close() error {
	var firstErr error
	for _, r := range m.rs {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
