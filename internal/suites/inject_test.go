package suites

import (
	"math"
	"testing"

	"concord/internal/registry"
	"concord/internal/rng"
)

func TestInjectRun(t *testing.T) {
	reg := registry.Default()
	result, err := NewInject(reg, nil).Run(rng.New(reg.MasterSeed), 500)
	if err != nil {
		t.Fatalf("inject failed: %v", err)
	}

	if result.Trials != 500 {
		t.Errorf("Trials = %d, expected 500", result.Trials)
	}
	if math.Abs(result.PlantedAnchorBias-1.92) > 1e-12 {
		t.Errorf("PlantedAnchorBias = %v, expected 1.92", result.PlantedAnchorBias)
	}
	if math.Abs(result.PlantedRelationBias-0.22) > 1e-12 {
		t.Errorf("PlantedRelationBias = %v, expected 0.22", result.PlantedRelationBias)
	}

	// With exact bias removal the residual recovery error is only the
	// down-weighted observation noise: the medians sit far inside both
	// gates.
	if !result.Passed || !result.BiasGate.Passed || !result.ZGate.Passed {
		t.Errorf("expected both gates to pass: bias %+v, z %+v", result.BiasGate, result.ZGate)
	}
	if result.AbsBiasStats.Median > 0.2 {
		t.Errorf("median |bias| = %v, expected well under the 0.3 gate", result.AbsBiasStats.Median)
	}
	if result.ZStats.Median > 0.4 {
		t.Errorf("median z = %v, expected well under the 1.0 gate", result.ZStats.Median)
	}
	if result.AbsBiasStats.Min < 0 {
		t.Errorf("absolute bias cannot be negative, min = %v", result.AbsBiasStats.Min)
	}
}

func TestInjectIsDeterministic(t *testing.T) {
	reg := registry.Default()

	a, err := NewInject(reg, nil).Run(rng.New(reg.MasterSeed), 200)
	if err != nil {
		t.Fatalf("inject failed: %v", err)
	}
	b, err := NewInject(reg, nil).Run(rng.New(reg.MasterSeed), 200)
	if err != nil {
		t.Fatalf("inject failed: %v", err)
	}

	if a.AbsBiasStats != b.AbsBiasStats {
		t.Errorf("bias statistics differ between identical runs: %+v vs %+v", a.AbsBiasStats, b.AbsBiasStats)
	}
	if a.ZStats != b.ZStats {
		t.Errorf("z statistics differ between identical runs: %+v vs %+v", a.ZStats, b.ZStats)
	}
}

func TestInjectSeedChangesDraws(t *testing.T) {
	reg := registry.Default()

	a, err := NewInject(reg, nil).Run(rng.New(172901), 100)
	if err != nil {
		t.Fatalf("inject failed: %v", err)
	}
	b, err := NewInject(reg, nil).Run(rng.New(999), 100)
	if err != nil {
		t.Fatalf("inject failed: %v", err)
	}
	if a.ZStats.Median == b.ZStats.Median {
		t.Error("different master seeds produced identical medians")
	}
}

func TestInjectRejectsBadTrials(t *testing.T) {
	reg := registry.Default()
	if _, err := NewInject(reg, nil).Run(rng.New(reg.MasterSeed), 0); err == nil {
		t.Error("expected error for zero trials")
	}
}
