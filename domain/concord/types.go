package concord

import (
	"concord/internal/errors"
)

// Measurement is one of the two competing estimates: the early-universe
// reference or the local distance-ladder value. Units are km/s/Mpc.
// Immutable once constructed; Sigma must be strictly positive.
type Measurement struct {
	Mean  float64 `json:"mean" yaml:"mean"`
	Sigma float64 `json:"sigma" yaml:"sigma"`
}

// Validate checks the measurement invariants
func (m Measurement) Validate() error {
	if m.Sigma <= 0 {
		return errors.ConfigInvalidf("measurement sigma must be > 0, got %g", m.Sigma)
	}
	return nil
}

// EpistemicParams are the two tunable constants governing the penalty
// formula. TensorMagnitude has no enforced domain: negative or zero values
// are accepted for boundary testing, and callers that care log a warning.
// SystematicFraction outside [0,1] is a configuration error.
type EpistemicParams struct {
	TensorMagnitude    float64 `json:"tensor_magnitude" yaml:"tensor_magnitude"`
	SystematicFraction float64 `json:"systematic_fraction" yaml:"systematic_fraction"`
}

// Validate checks the parameter domain
func (p EpistemicParams) Validate() error {
	if p.SystematicFraction < 0 || p.SystematicFraction > 1 {
		return errors.ConfigInvalidf("systematic_fraction must be in [0,1], got %g", p.SystematicFraction)
	}
	return nil
}

// ConcordanceResult is the output of one merge invocation. Every scenario
// produces a fresh instance; nothing mutates it after creation.
type ConcordanceResult struct {
	MuStar       float64 `json:"mu_star"`
	SigmaStar    float64 `json:"sigma_star"`
	Penalty      float64 `json:"u_epistemic"`
	Disagreement float64 `json:"disagreement"`

	SigmaEffA float64 `json:"sigma_eff_a"`
	SigmaEffB float64 `json:"sigma_eff_b"`

	WeightA     float64 `json:"w_a"`
	WeightB     float64 `json:"w_b"`
	WeightAFrac float64 `json:"w_a_frac"`
	WeightBFrac float64 `json:"w_b_frac"`

	// Tensions, all measured against the merged sigma alone.
	ZReference float64 `json:"z_reference"`
	ZA         float64 `json:"z_a"`
	ZB         float64 `json:"z_b"`
}
