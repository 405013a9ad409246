package suites

import (
	"math"
)

// GateKind distinguishes upper-bound gates from band gates
type GateKind string

const (
	GateMax  GateKind = "max"
	GateBand GateKind = "band"
)

// GateVerdict is the outcome of comparing one observed statistic against
// its pre-declared threshold. Margin is signed: positive means the
// observed value sits outside the acceptance region.
type GateVerdict struct {
	Name      string   `json:"name"`
	Kind      GateKind `json:"kind"`
	Passed    bool     `json:"passed"`
	Observed  float64  `json:"observed"`
	Threshold float64  `json:"threshold"`
	Lower     float64  `json:"lower,omitempty"`
	Margin    float64  `json:"margin"`
}

// EvaluateMax checks observed <= threshold within epsilon tolerance.
// Epsilon keeps a statistic that is genuinely on the threshold from
// failing through float representation, while a true excess of more than
// epsilon still fails.
func EvaluateMax(name string, observed, threshold, epsilon float64) GateVerdict {
	return GateVerdict{
		Name:      name,
		Kind:      GateMax,
		Passed:    observed <= threshold+epsilon,
		Observed:  observed,
		Threshold: threshold,
		Margin:    observed - threshold,
	}
}

// EvaluateBand checks lower <= observed <= upper, widening both edges by
// epsilon. Margin is the distance outside the band, negative when inside.
func EvaluateBand(name string, observed, lower, upper, epsilon float64) GateVerdict {
	return GateVerdict{
		Name:      name,
		Kind:      GateBand,
		Passed:    observed >= lower-epsilon && observed <= upper+epsilon,
		Observed:  observed,
		Threshold: upper,
		Lower:     lower,
		Margin:    math.Max(lower-observed, observed-upper),
	}
}
