package ns3

import (
	"regexp"
	"strconv"

	"github.com/rs/zerolog"
)

const (
	RuleTwoDestination    = "two-destination"
	RuleSingleDestination = "single-destination"
)

// number accepts plain decimals and scientific notation; the bps unit stays outside.
const number = `([-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?)`

var (
	totalAggregateRe = regexp.MustCompile(`Total Aggregate Goodput: ` + number + ` bps`)
	dest1AvgRe       = regexp.MustCompile(`Dest 1 \(Fast RTT\) \| Average Per-Flow Goodput: ` + number + ` bps`)
	dest2AvgRe       = regexp.MustCompile(`Dest 2 \(Slow RTT\) \| Average Per-Flow Goodput: ` + number + ` bps`)
	dest1AggRe       = regexp.MustCompile(`Dest 1 \(Fast RTT\) \| Aggregate Goodput: ` + number + ` bps`)
	dest2AggRe       = regexp.MustCompile(`Dest 2 \(Slow RTT\) \| Aggregate Goodput: ` + number + ` bps`)

	agregadoTotalRe = regexp.MustCompile(`Goodput Agregado Total: ` + number + ` bps`)
	flowGoodputRe   = regexp.MustCompile(`Flow numero \d+ \| Goodput: ` + number + ` bps`)
)

type rule struct {
	name string
	// all patterns must match; vals holds their captures in the same order
	patterns []*regexp.Regexp
	apply    func(res *Result, vals []float64, out string)
}

// Extractor scrapes goodput from simulator stdout. Rules are tried in
// order and the first one whose patterns all match wins, so the
// two-destination report is recognised before the looser single label.
type Extractor struct {
	rules []rule
	log   zerolog.Logger
}

func NewExtractor(log zerolog.Logger) *Extractor {
	return &Extractor{
		log: log,
		rules: []rule{
			{
				name:     RuleTwoDestination,
				patterns: []*regexp.Regexp{totalAggregateRe, dest1AvgRe, dest2AvgRe},
				apply: func(res *Result, vals []float64, out string) {
					res.Aggregate = bps(vals[0])
					res.Dest1Avg = bps(vals[1])
					res.Dest2Avg = bps(vals[2])
					if v, ok := find(dest1AggRe, out); ok {
						res.Dest1Agg = bps(v)
					}
					if v, ok := find(dest2AggRe, out); ok {
						res.Dest2Agg = bps(v)
					}
				},
			},
			{
				name:     RuleSingleDestination,
				patterns: []*regexp.Regexp{agregadoTotalRe},
				apply: func(res *Result, vals []float64, out string) {
					res.Aggregate = bps(vals[0])
					res.Flows = findAll(flowGoodputRe, out)
				},
			},
		},
	}
}

// Extract never fails: unrecognised output is logged together with the
// parameters that produced it and comes back with an invalid Aggregate.
func (e *Extractor) Extract(out string, params ParamSet) Result {
	for _, r := range e.rules {
		vals, ok := matchAll(r.patterns, out)
		if !ok {
			continue
		}
		res := Result{Rule: r.name, Output: out}
		r.apply(&res, vals, out)
		return res
	}

	e.log.Warn().Str("params", params.String()).Msg("goodput not found in simulator output")
	return Result{Output: out}
}

func matchAll(patterns []*regexp.Regexp, out string) ([]float64, bool) {
	vals := make([]float64, 0, len(patterns))
	for _, re := range patterns {
		v, ok := find(re, out)
		if !ok {
			return nil, false
		}
		vals = append(vals, v)
	}
	return vals, true
}

func find(re *regexp.Regexp, out string) (float64, bool) {
	m := re.FindStringSubmatch(out)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func findAll(re *regexp.Regexp, out string) []float64 {
	var vals []float64
	for _, m := range re.FindAllStringSubmatch(out, -1) {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			vals = append(vals, v)
		}
	}
	return vals
}
