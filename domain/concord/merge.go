package concord

import (
	"math"
)

// Merge combines two measurements under an epistemic penalty.
//
// The penalty is applied symmetrically: each sigma is inflated in
// quadrature, the inflated sigmas define inverse-variance weights, and the
// weighted mean plus combined sigma fall out in closed form. Tension
// z-scores divide by the merged sigma only; the target's own sigma is
// deliberately not folded into the denominator.
//
// With penalty == 0 this degenerates to a plain inverse-variance merge of
// the raw uncertainties, which is the expected baseline behavior.
func Merge(a, b Measurement, penalty float64, reference Measurement) ConcordanceResult {
	sigmaEffA := math.Sqrt(a.Sigma*a.Sigma + penalty*penalty)
	sigmaEffB := math.Sqrt(b.Sigma*b.Sigma + penalty*penalty)

	wA := 1.0 / (sigmaEffA * sigmaEffA)
	wB := 1.0 / (sigmaEffB * sigmaEffB)

	muStar := (wA*a.Mean + wB*b.Mean) / (wA + wB)
	sigmaStar := 1.0 / math.Sqrt(wA+wB)

	return ConcordanceResult{
		MuStar:       muStar,
		SigmaStar:    sigmaStar,
		Penalty:      penalty,
		Disagreement: math.Abs(a.Mean - b.Mean),
		SigmaEffA:    sigmaEffA,
		SigmaEffB:    sigmaEffB,
		WeightA:      wA,
		WeightB:      wB,
		WeightAFrac:  wA / (wA + wB),
		WeightBFrac:  wB / (wA + wB),
		ZReference:   math.Abs(muStar-reference.Mean) / sigmaStar,
		ZA:           math.Abs(muStar-a.Mean) / sigmaStar,
		ZB:           math.Abs(muStar-b.Mean) / sigmaStar,
	}
}

// TensionTo reports the z-score of the merged mean against an arbitrary
// target, again using the merged sigma as the denominator.
func (r ConcordanceResult) TensionTo(target Measurement) float64 {
	return math.Abs(r.MuStar-target.Mean) / r.SigmaStar
}

// Concordance computes the penalty from the disagreement between the two
// measurements and merges them, with the first input doubling as the
// tension reference. This mirrors the standard pipeline: reference first,
// corrected local second.
func Concordance(params EpistemicParams, reference, local Measurement) (ConcordanceResult, error) {
	penalty, err := Penalty(reference.Mean, local.Mean, params)
	if err != nil {
		return ConcordanceResult{}, err
	}
	return Merge(reference, local, penalty, reference), nil
}
