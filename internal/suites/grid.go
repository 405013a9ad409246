package suites

import (
	"concord/domain/concord"
	"concord/internal"
	"concord/internal/registry"
)

// GridPoint is one evaluation of the merge at a grid coordinate
type GridPoint struct {
	TensorMagnitude    float64 `json:"tensor_magnitude"`
	SystematicFraction float64 `json:"systematic_fraction"`
	MuStar             float64 `json:"mu_star"`
	SigmaStar          float64 `json:"sigma_star"`
	Penalty            float64 `json:"u_epistemic"`
	ZReference         float64 `json:"z_reference"`
	ZLocal             float64 `json:"z_local"`
	ZLocalRaw          float64 `json:"z_local_raw"`
}

// GridResult is the full grid-scan record. Only the median reference
// tension is gated; the remaining statistics are diagnostics.
type GridResult struct {
	Bounds     registry.ScanBounds `json:"bounds"`
	Surface    []GridPoint         `json:"surface"`
	ZStats     Summary             `json:"z_reference_stats"`
	MedianGate GateVerdict         `json:"gate_median"`
	Passed     bool                `json:"passed"`
}

// Grid scans the 2-D epistemic parameter space with baseline corrections
type Grid struct {
	reg registry.Registry
	log *internal.Logger
}

// NewGrid creates the suite with its registry snapshot
func NewGrid(reg registry.Registry, log *internal.Logger) *Grid {
	return &Grid{reg: reg, log: log}
}

// Run evaluates the merge at every grid point and gates the median tension
func (s *Grid) Run() (*GridResult, error) {
	bounds := s.reg.Scan
	result := &GridResult{
		Bounds:  bounds,
		Surface: make([]GridPoint, 0, bounds.Steps*bounds.Steps),
	}
	zVals := make([]float64, 0, bounds.Steps*bounds.Steps)

	for i := 0; i < bounds.Steps; i++ {
		tensor := linspace(bounds.TensorMin, bounds.TensorMax, bounds.Steps, i)
		for j := 0; j < bounds.Steps; j++ {
			params := concord.EpistemicParams{
				TensorMagnitude:    tensor,
				SystematicFraction: linspace(bounds.FractionMin, bounds.FractionMax, bounds.Steps, j),
			}
			merged, err := concord.Concordance(params, s.reg.Reference, s.reg.LocalCorrected)
			if err != nil {
				return nil, err
			}
			result.Surface = append(result.Surface, GridPoint{
				TensorMagnitude:    params.TensorMagnitude,
				SystematicFraction: params.SystematicFraction,
				MuStar:             merged.MuStar,
				SigmaStar:          merged.SigmaStar,
				Penalty:            merged.Penalty,
				ZReference:         merged.ZReference,
				ZLocal:             merged.ZB,
				ZLocalRaw:          merged.TensionTo(s.reg.LocalRaw),
			})
			zVals = append(zVals, merged.ZReference)
		}
	}

	zStats, err := summarize(zVals)
	if err != nil {
		return nil, err
	}
	result.ZStats = zStats
	result.MedianGate = EvaluateBand("grid_median_z", zStats.Median,
		s.reg.Gates.GridMedianZMin, s.reg.Gates.GridMedianZMax, s.reg.Epsilon)
	result.Passed = result.MedianGate.Passed

	if s.log != nil {
		s.log.Info("grid scan: %d points, median z=%.4f range [%.4f, %.4f]",
			len(result.Surface), zStats.Median, zStats.Min, zStats.Max)
	}
	return result, nil
}

func linspace(lo, hi float64, steps, i int) float64 {
	if steps == 1 {
		return lo
	}
	return lo + (hi-lo)*float64(i)/float64(steps-1)
}
