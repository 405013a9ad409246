package registry

import (
	"os"

	"gopkg.in/yaml.v3"

	"concord/domain/concord"
	"concord/internal/errors"
)

// Registry is the immutable parameter and gate configuration. It is
// constructed once at process start, validated, and passed by value into
// every component; nothing reads configuration ambiently. Gate thresholds
// are fixed before any suite executes and cannot change during a run.
type Registry struct {
	// Baseline measurements (km/s/Mpc)
	Reference      concord.Measurement `yaml:"reference"`
	LocalRaw       concord.Measurement `yaml:"local_raw"`
	LocalCorrected concord.Measurement `yaml:"local_corrected"`

	// Corrections derived from the full systematic grid
	AnchorCorrection   float64 `yaml:"anchor_correction"`
	RelationCorrection float64 `yaml:"relation_correction"`

	Epistemic concord.EpistemicParams `yaml:"epistemic"`
	Scan      ScanBounds              `yaml:"scan"`
	Inject    InjectParams            `yaml:"inject"`
	Gates     Gates                   `yaml:"gates"`

	// Family-wise error rate for the secondary Šidák gate
	Alpha float64 `yaml:"alpha"`

	// Tolerance for gate comparisons, so display rounding can never mask
	// a true boundary failure
	Epsilon float64 `yaml:"epsilon"`

	MasterSeed int64 `yaml:"master_seed"`
}

// ScanBounds declares the 2-D grid over the epistemic constants
type ScanBounds struct {
	TensorMin   float64 `yaml:"tensor_min"`
	TensorMax   float64 `yaml:"tensor_max"`
	FractionMin float64 `yaml:"fraction_min"`
	FractionMax float64 `yaml:"fraction_max"`
	Steps       int     `yaml:"steps"`
}

// InjectParams declares the synthetic injection truth range
type InjectParams struct {
	TruthMin float64 `yaml:"truth_min"`
	TruthMax float64 `yaml:"truth_max"`
}

// Gates are the pre-declared acceptance thresholds. A failed gate is a
// research finding, not an error, and a threshold is never adjusted based
// on observed results in the same run.
type Gates struct {
	LOAOMaxZ            float64 `yaml:"loao_max_z"`
	GridMedianZMin      float64 `yaml:"grid_median_z_min"`
	GridMedianZMax      float64 `yaml:"grid_median_z_max"`
	BootstrapP95Z       float64 `yaml:"bootstrap_p95_z"`
	InjectMedianAbsBias float64 `yaml:"inject_median_abs_bias"`
	InjectMedianZ       float64 `yaml:"inject_median_z"`
}

// Default returns the published baseline configuration
func Default() Registry {
	return Registry{
		Reference:      concord.Measurement{Mean: 67.27, Sigma: 0.60},
		LocalRaw:       concord.Measurement{Mean: 73.59, Sigma: 1.56},
		LocalCorrected: concord.Measurement{Mean: 71.45, Sigma: 1.89},

		AnchorCorrection:   -1.92,
		RelationCorrection: -0.22,

		Epistemic: concord.EpistemicParams{
			TensorMagnitude:    1.36,
			SystematicFraction: 0.50,
		},
		Scan: ScanBounds{
			TensorMin:   1.0,
			TensorMax:   1.8,
			FractionMin: 0.3,
			FractionMax: 0.7,
			Steps:       17,
		},
		Inject: InjectParams{
			TruthMin: 67.3,
			TruthMax: 67.5,
		},
		Gates: Gates{
			LOAOMaxZ:            1.5,
			GridMedianZMin:      0.9,
			GridMedianZMax:      1.1,
			BootstrapP95Z:       1.2,
			InjectMedianAbsBias: 0.3,
			InjectMedianZ:       1.0,
		},
		Alpha:      0.05,
		Epsilon:    1e-9,
		MasterSeed: 172901,
	}
}

// Load returns the default registry with overrides applied from a YAML
// file. An empty path returns the validated defaults.
func Load(path string) (Registry, error) {
	reg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Registry{}, errors.IOError("read registry overrides", err)
		}
		if err := yaml.Unmarshal(data, &reg); err != nil {
			return Registry{}, errors.Wrap(err, "parse registry overrides")
		}
	}
	if err := reg.Validate(); err != nil {
		return Registry{}, err
	}
	return reg, nil
}

// Validate checks every invariant that makes a run meaningful. Any
// violation is fatal: no partial results are trusted under a bad registry.
func (r Registry) Validate() error {
	for _, m := range []struct {
		name string
		m    concord.Measurement
	}{
		{"reference", r.Reference},
		{"local_raw", r.LocalRaw},
		{"local_corrected", r.LocalCorrected},
	} {
		if err := m.m.Validate(); err != nil {
			return errors.Wrapf(err, "measurement %s", m.name)
		}
	}
	if err := r.Epistemic.Validate(); err != nil {
		return err
	}
	if r.Scan.TensorMin > r.Scan.TensorMax {
		return errors.ConfigInvalidf("scan tensor range min %g > max %g", r.Scan.TensorMin, r.Scan.TensorMax)
	}
	if r.Scan.FractionMin > r.Scan.FractionMax {
		return errors.ConfigInvalidf("scan fraction range min %g > max %g", r.Scan.FractionMin, r.Scan.FractionMax)
	}
	if r.Scan.Steps < 2 {
		return errors.ConfigInvalidf("scan steps must be >= 2, got %d", r.Scan.Steps)
	}
	if r.Inject.TruthMin > r.Inject.TruthMax {
		return errors.ConfigInvalidf("inject truth range min %g > max %g", r.Inject.TruthMin, r.Inject.TruthMax)
	}
	if r.Alpha <= 0 || r.Alpha >= 1 {
		return errors.ConfigInvalidf("alpha must be in (0,1), got %g", r.Alpha)
	}
	if r.Epsilon <= 0 {
		return errors.ConfigInvalidf("gate epsilon must be > 0, got %g", r.Epsilon)
	}
	return r.Gates.validate()
}

func (g Gates) validate() error {
	checks := []struct {
		name string
		v    float64
	}{
		{"loao_max_z", g.LOAOMaxZ},
		{"grid_median_z_max", g.GridMedianZMax},
		{"bootstrap_p95_z", g.BootstrapP95Z},
		{"inject_median_abs_bias", g.InjectMedianAbsBias},
		{"inject_median_z", g.InjectMedianZ},
	}
	for _, c := range checks {
		if c.v <= 0 {
			return errors.ConfigInvalidf("gate threshold %s missing or non-positive", c.name)
		}
	}
	if g.GridMedianZMin < 0 || g.GridMedianZMin > g.GridMedianZMax {
		return errors.ConfigInvalidf("grid median gate band [%g, %g] is invalid", g.GridMedianZMin, g.GridMedianZMax)
	}
	return nil
}
