package anchors_test

import (
	"math"
	"testing"

	"concord/domain/anchors"
	"concord/internal/errors"
	"concord/internal/testkit"
)

const tol = 1e-9

func TestEstimateCorrectionsBaseline(t *testing.T) {
	table := testkit.CanonicalTable()

	est, err := anchors.EstimateCorrections(table, anchors.ExcludeNone)
	if err != nil {
		t.Fatalf("EstimateCorrections failed: %v", err)
	}

	// Group means are exact because the per-group offsets sum to zero.
	// MW 75.5 against external mean 72.5 gives -0.5 * 3.0.
	if math.Abs(est.AnchorCorrection-(-1.5)) > tol {
		t.Errorf("AnchorCorrection = %v, expected -1.5", est.AnchorCorrection)
	}
	// Variant means of the demeaned values are +8/15 and -8/15, so the
	// half-span correction is -8/15.
	if math.Abs(est.RelationCorrection-(-8.0/15.0)) > tol {
		t.Errorf("RelationCorrection = %v, expected %v", est.RelationCorrection, -8.0/15.0)
	}
	if math.Abs(est.MeanRaw-73.5) > tol {
		t.Errorf("MeanRaw = %v, expected 73.5", est.MeanRaw)
	}
	if math.Abs(est.SigmaCorrected-1.7783) > 1e-4 {
		t.Errorf("SigmaCorrected = %v, expected ~1.7783", est.SigmaCorrected)
	}
	if len(est.Groups) != 3 {
		t.Errorf("expected 3 group stats, got %d", len(est.Groups))
	}
	if est.Groups[anchors.GroupMW].N != 6 {
		t.Errorf("MW group N = %d, expected 6", est.Groups[anchors.GroupMW].N)
	}
}

func TestEstimateCorrectionsExcludeMWIsExactlyZero(t *testing.T) {
	est, err := anchors.EstimateCorrections(testkit.CanonicalTable(), anchors.ExcludeMW)
	if err != nil {
		t.Fatalf("EstimateCorrections failed: %v", err)
	}

	// Removing the dominant anchor removes the MW-vs-external comparison
	// entirely. The correction must be identically zero, not a small
	// residual leaked from the remaining groups.
	if est.AnchorCorrection != 0.0 {
		t.Errorf("AnchorCorrection = %v, expected exactly 0", est.AnchorCorrection)
	}
	if math.Abs(est.MeanRaw-72.5) > tol {
		t.Errorf("MeanRaw = %v, expected 72.5", est.MeanRaw)
	}
	if _, ok := est.Groups[anchors.GroupMW]; ok {
		t.Error("excluded group must not appear in scenario group stats")
	}
}

func TestEstimateCorrectionsPerScenarioPolicy(t *testing.T) {
	table := testkit.CanonicalTable()

	tests := []struct {
		excl anchors.Exclusion
		want float64
	}{
		{anchors.ExcludeNone, -1.5},   // -0.5 * (75.5 - 72.5)
		{anchors.ExcludeMW, 0.0},
		{anchors.ExcludeLMC, -1.6},    // -0.5 * (75.5 - 72.3)
		{anchors.ExcludeN4258, -1.4},  // -0.5 * (75.5 - 72.7)
	}

	for _, tt := range tests {
		t.Run(tt.excl.Label(), func(t *testing.T) {
			est, err := anchors.EstimateCorrections(table, tt.excl)
			if err != nil {
				t.Fatalf("EstimateCorrections failed: %v", err)
			}
			if math.Abs(est.AnchorCorrection-tt.want) > tol {
				t.Errorf("AnchorCorrection = %v, expected %v", est.AnchorCorrection, tt.want)
			}
			// The per-group offset pattern is identical everywhere, so the
			// relation correction is scenario-independent on this table.
			if math.Abs(est.RelationCorrection-(-8.0/15.0)) > tol {
				t.Errorf("RelationCorrection = %v, expected %v", est.RelationCorrection, -8.0/15.0)
			}
			if est.Scenario != tt.excl.Label() {
				t.Errorf("Scenario = %q, expected %q", est.Scenario, tt.excl.Label())
			}
		})
	}
}

func TestEstimateCorrectionsQuantileFallback(t *testing.T) {
	table := testkit.CanonicalTableNoVariants()

	est, err := anchors.EstimateCorrections(table, anchors.ExcludeNone)
	if err != nil {
		t.Fatalf("EstimateCorrections failed: %v", err)
	}

	// Without variant labels the span comes from the empirical q84-q16
	// spread of the demeaned values, which is 2.4 - (-2.4) here.
	if math.Abs(est.RelationCorrection-(-2.4)) > tol {
		t.Errorf("RelationCorrection = %v, expected -2.4 via quantile fallback", est.RelationCorrection)
	}
}

func TestEstimateCorrectionsRejectsThinGroup(t *testing.T) {
	table := anchors.Table{Rows: []anchors.Row{
		{Group: anchors.GroupMW, Value: 75.0},
		{Group: anchors.GroupMW, Value: 76.0},
		{Group: anchors.GroupLMC, Value: 72.0},
		{Group: anchors.GroupLMC, Value: 73.0},
		{Group: anchors.GroupN4258, Value: 71.0},
	}}

	_, err := anchors.EstimateCorrections(table, anchors.ExcludeNone)
	if err == nil {
		t.Fatal("expected error for group with fewer than 2 rows")
	}
	if errors.GetCode(err) != errors.CodeDataIntegrity {
		t.Errorf("expected %s, got %s", errors.CodeDataIntegrity, errors.GetCode(err))
	}

	// The thin group is irrelevant once its scenario excludes it.
	if _, err := anchors.EstimateCorrections(table, anchors.ExcludeN4258); err != nil {
		t.Errorf("exclusion scenario should not validate the excluded group: %v", err)
	}
}
