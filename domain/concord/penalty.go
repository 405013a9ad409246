package concord

import (
	"math"
)

// Penalty computes the epistemic penalty for methodological disagreement
// between two means:
//
//	u = 0.5 * |meanA - meanB| * tensor_magnitude * (1 - systematic_fraction)
//
// The result is added in quadrature to both input sigmas before merging.
// A negative tensor magnitude yields a negative penalty; the value is
// returned as-is (no clamping) so boundary behavior stays observable.
func Penalty(meanA, meanB float64, params EpistemicParams) (float64, error) {
	if err := params.Validate(); err != nil {
		return 0, err
	}
	disagreement := math.Abs(meanA - meanB)
	return 0.5 * disagreement * params.TensorMagnitude * (1.0 - params.SystematicFraction), nil
}
