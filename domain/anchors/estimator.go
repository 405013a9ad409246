package anchors

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"concord/internal/errors"
)

// GroupStat summarizes one anchor group inside a scenario
type GroupStat struct {
	Mean  float64 `json:"mean"`
	Sigma float64 `json:"sigma"`
	N     int     `json:"n"`
}

// CorrectionEstimate holds the scenario-local corrections derived from the
// systematic grid. One instance per scenario; never reused across scenarios.
type CorrectionEstimate struct {
	Exclusion          Exclusion           `json:"-"`
	Scenario           string              `json:"scenario"`
	AnchorCorrection   float64             `json:"anchor_correction"`
	RelationCorrection float64             `json:"relation_correction"`
	MeanRaw            float64             `json:"mu_raw"`
	SigmaCorrected     float64             `json:"sigma_corrected"`
	Groups             map[Group]GroupStat `json:"groups"`
}

// EstimateCorrections derives the anchor and relation corrections for one
// scenario, using only rows from groups present in that scenario.
//
// The anchor correction compares the dominant MW anchor against the
// external anchors, and the policy is scenario-dependent:
//
//	baseline:    -0.5 * (mean_MW - 0.5*(mean_LMC + mean_N4258))
//	drop MW:     0 exactly. No MW-vs-external split exists, and it must
//	             not be approximated from the remaining groups: excluding
//	             the dominant anchor may not let its effect reappear
//	             through a proxy.
//	drop LMC:    -0.5 * (mean_MW - mean_N4258)
//	drop N4258:  -0.5 * (mean_MW - mean_LMC)
//
// The relation correction is half the span of anchor-demeaned variant
// means, signed toward reducing the disagreement. When rows carry no
// variant labels the span falls back to the q84-q16 quantile spread of the
// demeaned values. The corrected sigma is the sample scatter of the
// demeaned values.
func EstimateCorrections(t Table, excl Exclusion) (CorrectionEstimate, error) {
	scoped := t
	if excluded, ok := excl.Excluded(); ok {
		scoped = t.WithoutGroup(excluded)
	}
	if err := scoped.validateGroups(excl.Kept()); err != nil {
		return CorrectionEstimate{}, err
	}

	groups := make(map[Group]GroupStat, 3)
	for _, g := range excl.Kept() {
		vals := scoped.GroupValues(g)
		groups[g] = GroupStat{
			Mean:  stat.Mean(vals, nil),
			Sigma: stat.StdDev(vals, nil),
			N:     len(vals),
		}
	}

	anchorCorr, err := anchorCorrection(groups, excl)
	if err != nil {
		return CorrectionEstimate{}, err
	}

	demeaned := demean(scoped, groups)
	relationCorr := relationCorrection(scoped, demeaned)
	sigmaCorr := correctedSigma(scoped, demeaned)

	return CorrectionEstimate{
		Exclusion:          excl,
		Scenario:           excl.Label(),
		AnchorCorrection:   anchorCorr,
		RelationCorrection: relationCorr,
		MeanRaw:            stat.Mean(scoped.Values(), nil),
		SigmaCorrected:     sigmaCorr,
		Groups:             groups,
	}, nil
}

func anchorCorrection(groups map[Group]GroupStat, excl Exclusion) (float64, error) {
	switch excl {
	case ExcludeNone:
		ext := 0.5 * (groups[GroupLMC].Mean + groups[GroupN4258].Mean)
		return -0.5 * (groups[GroupMW].Mean - ext), nil
	case ExcludeMW:
		// Zero-leakage rule: see doc comment on EstimateCorrections.
		return 0.0, nil
	case ExcludeLMC:
		return -0.5 * (groups[GroupMW].Mean - groups[GroupN4258].Mean), nil
	case ExcludeN4258:
		return -0.5 * (groups[GroupMW].Mean - groups[GroupLMC].Mean), nil
	}
	return 0, errors.InvalidInput("unknown exclusion scenario")
}

// demean subtracts each row's group mean, removing anchor offsets so the
// residual spread reflects relation-variant systematics only.
func demean(t Table, groups map[Group]GroupStat) []float64 {
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row.Value - groups[row.Group].Mean
	}
	return out
}

func relationCorrection(t Table, demeaned []float64) float64 {
	byVariant := make(map[string][]float64)
	for i, row := range t.Rows {
		if row.Variant != "" {
			byVariant[row.Variant] = append(byVariant[row.Variant], demeaned[i])
		}
	}

	var span float64
	if len(byVariant) >= 2 {
		first := true
		var lo, hi float64
		for _, vals := range byVariant {
			m := stat.Mean(vals, nil)
			if first {
				lo, hi = m, m
				first = false
				continue
			}
			lo = math.Min(lo, m)
			hi = math.Max(hi, m)
		}
		span = hi - lo
	} else {
		sorted := append([]float64(nil), demeaned...)
		sort.Float64s(sorted)
		span = stat.Quantile(0.84, stat.Empirical, sorted, nil) -
			stat.Quantile(0.16, stat.Empirical, sorted, nil)
	}

	return -0.5 * span
}

func correctedSigma(t Table, demeaned []float64) float64 {
	sigma := stat.StdDev(demeaned, nil)
	if !math.IsNaN(sigma) && sigma > 0 {
		return sigma
	}
	// Degenerate demeaned spread; fall back to the raw scatter.
	return stat.StdDev(t.Values(), nil)
}
