package ns3

// Goodput is a scraped bits/sec reading; Valid is false when the line was absent.
type Goodput struct {
	Bps   float64
	Valid bool
}

func bps(v float64) Goodput { return Goodput{Bps: v, Valid: true} }

func (g Goodput) Mbps() float64 {
	if !g.Valid {
		return 0
	}
	return g.Bps / 1e6
}

// Result is what one simulator invocation yielded. A failed run leaves every
// Goodput invalid and Output empty.
type Result struct {
	Aggregate Goodput

	// two-destination topology only
	Dest1Avg Goodput
	Dest2Avg Goodput
	Dest1Agg Goodput
	Dest2Agg Goodput

	// per-flow goodput in flow order, single topology only
	Flows []float64

	// Rule names the extraction rule that matched, empty if none did.
	Rule   string
	Output string
}

func (r Result) OK() bool { return r.Aggregate.Valid }

// BothDestinations reports whether both per-destination averages were scraped.
func (r Result) BothDestinations() bool { return r.Dest1Avg.Valid && r.Dest2Avg.Valid }
