package suites

import (
	"concord/domain/anchors"
	"concord/internal"
	"concord/internal/registry"
	"concord/internal/rng"
)

// Outcome aggregates one full run of all four suites. Overall pass is the
// logical AND of the four verdicts, but every suite always runs to
// completion first: one failed gate never stops the others.
type Outcome struct {
	LOAO      *LOAOResult      `json:"loao"`
	Grid      *GridResult      `json:"grid"`
	Bootstrap *BootstrapResult `json:"bootstrap"`
	Inject    *InjectResult    `json:"inject"`
	Passed    bool             `json:"passed"`
}

// Runner drives all four suites against one table and one random stream
type Runner struct {
	reg     registry.Registry
	log     *internal.Logger
	workers int
}

// NewRunner creates a runner; workers applies to the bootstrap suite only
func NewRunner(reg registry.Registry, log *internal.Logger, workers int) *Runner {
	return &Runner{reg: reg, log: log, workers: workers}
}

// RunAll executes every suite. Configuration and data-integrity errors
// abort the whole run; gate failures are recorded and execution continues.
func (r *Runner) RunAll(table anchors.Table, stream *rng.Stream, iterations, trials int) (*Outcome, error) {
	loao, err := NewLOAO(r.reg, r.log).Run(table)
	if err != nil {
		return nil, err
	}
	grid, err := NewGrid(r.reg, r.log).Run()
	if err != nil {
		return nil, err
	}
	bootstrap, err := NewBootstrap(r.reg, r.log, r.workers).Run(table, stream, iterations)
	if err != nil {
		return nil, err
	}
	inject, err := NewInject(r.reg, r.log).Run(stream, trials)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		LOAO:      loao,
		Grid:      grid,
		Bootstrap: bootstrap,
		Inject:    inject,
		Passed:    loao.Passed && grid.Passed && bootstrap.Passed && inject.Passed,
	}, nil
}
