package suites

import (
	"math/rand"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"concord/domain/anchors"
	"concord/domain/concord"
	"concord/internal"
	"concord/internal/errors"
	"concord/internal/registry"
	"concord/internal/rng"
)

const bootstrapStream = "bootstrap"

// BootstrapResult is the full bootstrap record. The 95th percentile of the
// reference tension is gated; distributions are kept for downstream
// reproducibility comparisons.
type BootstrapResult struct {
	Iterations int `json:"iterations"`
	Workers    int `json:"workers"`

	ZStats  Summary `json:"z_reference_stats"`
	ZP95    float64 `json:"z_reference_p95"`
	MuStats Summary `json:"mu_star_stats"`

	AnchorCorrMean   float64 `json:"anchor_correction_mean"`
	AnchorCorrStd    float64 `json:"anchor_correction_std"`
	RelationCorrMean float64 `json:"relation_correction_mean"`
	RelationCorrStd  float64 `json:"relation_correction_std"`

	Distributions BootstrapDistributions `json:"distributions"`

	P95Gate GateVerdict `json:"gate_p95"`
	Passed  bool        `json:"passed"`
}

// BootstrapDistributions holds the raw per-iteration draws
type BootstrapDistributions struct {
	Z      []float64 `json:"z_reference"`
	MuStar []float64 `json:"mu_star"`
}

type bootstrapDraw struct {
	z, mu, anchorCorr, relationCorr float64
}

// Bootstrap resamples the systematic grid with replacement, re-deriving
// baseline corrections and re-merging each time.
type Bootstrap struct {
	reg     registry.Registry
	log     *internal.Logger
	workers int
}

// NewBootstrap creates the suite. workers <= 1 runs serially on the
// suite's own sub-stream; workers > 1 splits iterations across goroutines
// with per-worker derived sub-seeds, so the output distribution is
// reproducible regardless of scheduling order.
func NewBootstrap(reg registry.Registry, log *internal.Logger, workers int) *Bootstrap {
	if workers < 1 {
		workers = 1
	}
	return &Bootstrap{reg: reg, log: log, workers: workers}
}

// Run executes the bootstrap and gates the 95th percentile tension
func (s *Bootstrap) Run(table anchors.Table, stream *rng.Stream, iterations int) (*BootstrapResult, error) {
	if iterations < 1 {
		return nil, errors.InvalidInput("bootstrap iterations must be >= 1")
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	warnNumericDomain(s.log, bootstrapStream, s.reg.Epistemic)

	var draws []bootstrapDraw
	var err error
	if s.workers == 1 {
		draws, err = s.drawChunk(table, stream.Suite(bootstrapStream), iterations)
	} else {
		draws, err = s.drawParallel(table, stream, iterations)
	}
	if err != nil {
		return nil, err
	}

	zVals := make([]float64, len(draws))
	muVals := make([]float64, len(draws))
	anchorVals := make([]float64, len(draws))
	relationVals := make([]float64, len(draws))
	for i, d := range draws {
		zVals[i] = d.z
		muVals[i] = d.mu
		anchorVals[i] = d.anchorCorr
		relationVals[i] = d.relationCorr
	}

	zStats, err := summarize(zVals)
	if err != nil {
		return nil, err
	}
	muStats, err := summarize(muVals)
	if err != nil {
		return nil, err
	}
	p95, err := stats.Percentile(zVals, 95)
	if err != nil {
		return nil, err
	}

	result := &BootstrapResult{
		Iterations:       iterations,
		Workers:          s.workers,
		ZStats:           zStats,
		ZP95:             p95,
		MuStats:          muStats,
		AnchorCorrMean:   stat.Mean(anchorVals, nil),
		AnchorCorrStd:    stat.StdDev(anchorVals, nil),
		RelationCorrMean: stat.Mean(relationVals, nil),
		RelationCorrStd:  stat.StdDev(relationVals, nil),
		Distributions:    BootstrapDistributions{Z: zVals, MuStar: muVals},
		P95Gate:          EvaluateMax("bootstrap_p95_z", p95, s.reg.Gates.BootstrapP95Z, s.reg.Epsilon),
	}
	result.Passed = result.P95Gate.Passed

	if s.log != nil {
		s.log.Info("bootstrap: %d iterations, z median=%.4f p95=%.4f", iterations, zStats.Median, p95)
	}
	return result, nil
}

// drawChunk runs a contiguous block of iterations on one generator
func (s *Bootstrap) drawChunk(table anchors.Table, r *rand.Rand, n int) ([]bootstrapDraw, error) {
	draws := make([]bootstrapDraw, n)
	for i := 0; i < n; i++ {
		d, err := s.drawOne(table, r)
		if err != nil {
			return nil, err
		}
		draws[i] = d
	}
	return draws, nil
}

// drawParallel splits iterations across workers. Statistics are computed
// only after every worker has finished: percentile gates need the complete
// sample, so there is a full barrier and no streaming aggregation.
func (s *Bootstrap) drawParallel(table anchors.Table, stream *rng.Stream, iterations int) ([]bootstrapDraw, error) {
	chunks := make([][]bootstrapDraw, s.workers)
	base := iterations / s.workers
	extra := iterations % s.workers

	var g errgroup.Group
	for w := 0; w < s.workers; w++ {
		n := base
		if w < extra {
			n++
		}
		w, n := w, n
		g.Go(func() error {
			draws, err := s.drawChunk(table, stream.Worker(bootstrapStream, w), n)
			if err != nil {
				return err
			}
			chunks[w] = draws
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	draws := make([]bootstrapDraw, 0, iterations)
	for _, c := range chunks {
		draws = append(draws, c...)
	}
	return draws, nil
}

func (s *Bootstrap) drawOne(table anchors.Table, r *rand.Rand) (bootstrapDraw, error) {
	sample := table.Resample(r)

	var local concord.Measurement
	var anchorCorr, relationCorr float64
	est, err := anchors.EstimateCorrections(sample, anchors.ExcludeNone)
	if err != nil {
		// A degenerate resample can lose a whole group; fall back to the
		// registry corrections and the raw resample scatter.
		anchorCorr = s.reg.AnchorCorrection
		relationCorr = s.reg.RelationCorrection
		vals := sample.Values()
		local = concord.Measurement{
			Mean:  stat.Mean(vals, nil) + anchorCorr + relationCorr,
			Sigma: stat.StdDev(vals, nil),
		}
	} else {
		anchorCorr = est.AnchorCorrection
		relationCorr = est.RelationCorrection
		local = concord.Measurement{
			Mean:  est.MeanRaw + anchorCorr + relationCorr,
			Sigma: est.SigmaCorrected,
		}
	}

	merged, err := concord.Concordance(s.reg.Epistemic, s.reg.Reference, local)
	if err != nil {
		return bootstrapDraw{}, err
	}
	return bootstrapDraw{
		z:            merged.ZReference,
		mu:           merged.MuStar,
		anchorCorr:   anchorCorr,
		relationCorr: relationCorr,
	}, nil
}
