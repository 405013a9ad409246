package suites

import (
	"math"

	"concord/domain/concord"
	"concord/internal"
	"concord/internal/errors"
	"concord/internal/registry"
	"concord/internal/rng"
)

const injectStream = "inject"

// InjectResult is the synthetic injection/recovery record. Two gates are
// evaluated independently and both must pass: the median absolute recovery
// bias and the median reference tension.
type InjectResult struct {
	Trials int `json:"trials"`

	PlantedAnchorBias   float64 `json:"planted_anchor_bias"`
	PlantedRelationBias float64 `json:"planted_relation_bias"`

	AbsBiasStats Summary `json:"abs_bias_stats"`
	ZStats       Summary `json:"z_reference_stats"`

	BiasGate GateVerdict `json:"gate_bias"`
	ZGate    GateVerdict `json:"gate_z"`
	Passed   bool        `json:"passed"`
}

// Inject plants a known truth, simulates a biased noisy local observation,
// recovers it through the same correction-and-merge pipeline, and scores
// the recovery.
type Inject struct {
	reg registry.Registry
	log *internal.Logger
}

// NewInject creates the suite with its registry snapshot
func NewInject(reg registry.Registry, log *internal.Logger) *Inject {
	return &Inject{reg: reg, log: log}
}

// Run executes the trials and evaluates both gates
func (s *Inject) Run(stream *rng.Stream, trials int) (*InjectResult, error) {
	if trials < 1 {
		return nil, errors.InvalidInput("injection trials must be >= 1")
	}
	warnNumericDomain(s.log, injectStream, s.reg.Epistemic)

	r := stream.Suite(injectStream)
	anchorBias := math.Abs(s.reg.AnchorCorrection)
	relationBias := math.Abs(s.reg.RelationCorrection)
	truthLo := s.reg.Inject.TruthMin
	truthHi := s.reg.Inject.TruthMax

	absBias := make([]float64, trials)
	zVals := make([]float64, trials)

	for i := 0; i < trials; i++ {
		truth := truthLo + r.Float64()*(truthHi-truthLo)

		// Observed local value: truth plus the planted biases plus
		// Gaussian noise at the raw local sigma.
		noise := r.NormFloat64() * s.reg.LocalRaw.Sigma
		observed := truth + anchorBias + relationBias + noise

		// Correct assuming the biases were estimated exactly; what remains
		// is the noise, which the merge should down-weight.
		corrected := observed - anchorBias - relationBias

		merged, err := concord.Concordance(
			s.reg.Epistemic,
			concord.Measurement{Mean: truth, Sigma: s.reg.Reference.Sigma},
			concord.Measurement{Mean: corrected, Sigma: s.reg.LocalCorrected.Sigma},
		)
		if err != nil {
			return nil, err
		}

		absBias[i] = math.Abs(merged.MuStar - truth)
		zVals[i] = merged.ZReference
	}

	biasStats, err := summarize(absBias)
	if err != nil {
		return nil, err
	}
	zStats, err := summarize(zVals)
	if err != nil {
		return nil, err
	}

	result := &InjectResult{
		Trials:              trials,
		PlantedAnchorBias:   anchorBias,
		PlantedRelationBias: relationBias,
		AbsBiasStats:        biasStats,
		ZStats:              zStats,
		BiasGate: EvaluateMax("inject_median_abs_bias", biasStats.Median,
			s.reg.Gates.InjectMedianAbsBias, s.reg.Epsilon),
		ZGate: EvaluateMax("inject_median_z", zStats.Median,
			s.reg.Gates.InjectMedianZ, s.reg.Epsilon),
	}
	result.Passed = result.BiasGate.Passed && result.ZGate.Passed

	if s.log != nil {
		s.log.Info("inject: %d trials, median |bias|=%.4f median z=%.4f", trials, biasStats.Median, zStats.Median)
	}
	return result, nil
}
