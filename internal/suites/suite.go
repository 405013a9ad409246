// Package suites implements the four validation suites that exercise the
// concordance merge under perturbation: leave-one-anchor-out, the 2-D
// epistemic-parameter grid scan, bootstrap resampling of the systematic
// grid, and synthetic injection/recovery. Each suite reads its thresholds
// from the registry once, runs to completion, and reports gate verdicts;
// a failed gate is an expected outcome, never an error.
package suites

import (
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"concord/domain/concord"
	"concord/internal"
)

// Summary carries the diagnostic statistics reported alongside every
// suite's gated statistic. Only the gated statistic is compared against a
// threshold; the rest is informational.
type Summary struct {
	Median float64 `json:"median"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
}

func summarize(vals []float64) (Summary, error) {
	median, err := stats.Median(vals)
	if err != nil {
		return Summary{}, err
	}
	minV, err := stats.Min(vals)
	if err != nil {
		return Summary{}, err
	}
	maxV, err := stats.Max(vals)
	if err != nil {
		return Summary{}, err
	}
	p25, err := stats.Percentile(vals, 25)
	if err != nil {
		return Summary{}, err
	}
	p75, err := stats.Percentile(vals, 75)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Median: median,
		Mean:   stat.Mean(vals, nil),
		Std:    stat.StdDev(vals, nil),
		Min:    minV,
		Max:    maxV,
		P25:    p25,
		P75:    p75,
	}, nil
}

// warnNumericDomain flags adversarial epistemic parameters once per suite
// run. The computation proceeds with the raw arithmetic result; clamping
// would hide bugs in a test instrument.
func warnNumericDomain(log *internal.Logger, suite string, params concord.EpistemicParams) {
	if log == nil {
		return
	}
	if params.TensorMagnitude < 0 {
		log.Warn("%s: tensor magnitude %g is negative; penalty sign inverts", suite, params.TensorMagnitude)
	}
}
