package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"concord/adapters/tabular"
	"concord/domain/core"
	"concord/internal"
	"concord/internal/registry"
	"concord/internal/report"
	"concord/internal/rng"
	"concord/internal/suites"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var errGateFailed = fmt.Errorf("one or more gates failed")

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "concord",
		Short:         "Concordance merge and validation suites for the H0 dataset",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newLOAOCmd(),
		newGridCmd(),
		newBootstrapCmd(),
		newInjectCmd(),
		newRunCmd(),
		newVerifyCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLOAOCmd() *cobra.Command {
	var configPath, gridPath, outPath string

	cmd := &cobra.Command{
		Use:   "loao",
		Short: "Leave-one-anchor-out stress test",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.Load(configPath)
			if err != nil {
				return err
			}
			loaded, err := tabular.Load(gridPath)
			if err != nil {
				return err
			}
			result, err := suites.NewLOAO(reg, internal.DefaultLogger).Run(loaded.Table)
			if err != nil {
				return err
			}
			if err := writeRecord(reg, "loao", result.Passed, result, loaded.Checksum, outPath); err != nil {
				return err
			}
			fmt.Printf("loao: max_z=%.4f passed=%v\n", result.MaxZ, result.Passed)
			if !result.Passed {
				return errGateFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Registry override file (YAML)")
	cmd.Flags().StringVar(&gridPath, "grid", "", "Systematic grid file (CSV or XLSX)")
	cmd.Flags().StringVar(&outPath, "out", "outputs/results/loao.json", "Output record path")
	_ = cmd.MarkFlagRequired("grid")

	return cmd
}

func newGridCmd() *cobra.Command {
	var configPath, outPath string

	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Epistemic parameter grid scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.Load(configPath)
			if err != nil {
				return err
			}
			result, err := suites.NewGrid(reg, internal.DefaultLogger).Run()
			if err != nil {
				return err
			}
			if err := writeRecord(reg, "grid", result.Passed, result, "", outPath); err != nil {
				return err
			}
			fmt.Printf("grid: median_z=%.4f passed=%v\n", result.ZStats.Median, result.Passed)
			if !result.Passed {
				return errGateFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Registry override file (YAML)")
	cmd.Flags().StringVar(&outPath, "out", "outputs/results/grid.json", "Output record path")

	return cmd
}

func newBootstrapCmd() *cobra.Command {
	var configPath, gridPath, outPath string
	var iters, workers int

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Bootstrap resampling of the systematic grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.Load(configPath)
			if err != nil {
				return err
			}
			loaded, err := tabular.Load(gridPath)
			if err != nil {
				return err
			}
			stream := rng.New(reg.MasterSeed)
			suite := suites.NewBootstrap(reg, internal.DefaultLogger, workers)
			result, err := suite.Run(loaded.Table, stream, iters)
			if err != nil {
				return err
			}
			if err := writeRecord(reg, "bootstrap", result.Passed, result, loaded.Checksum, outPath); err != nil {
				return err
			}
			fmt.Printf("bootstrap: p95_z=%.4f passed=%v\n", result.ZP95, result.Passed)
			if !result.Passed {
				return errGateFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Registry override file (YAML)")
	cmd.Flags().StringVar(&gridPath, "grid", "", "Systematic grid file (CSV or XLSX)")
	cmd.Flags().StringVar(&outPath, "out", "outputs/results/bootstrap.json", "Output record path")
	cmd.Flags().IntVar(&iters, "iters", 10000, "Bootstrap iterations")
	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "Parallel resampling workers")
	_ = cmd.MarkFlagRequired("grid")

	return cmd
}

func newInjectCmd() *cobra.Command {
	var configPath, outPath string
	var trials int

	cmd := &cobra.Command{
		Use:   "inject",
		Short: "Injection and recovery trials",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.Load(configPath)
			if err != nil {
				return err
			}
			stream := rng.New(reg.MasterSeed)
			result, err := suites.NewInject(reg, internal.DefaultLogger).Run(stream, trials)
			if err != nil {
				return err
			}
			if err := writeRecord(reg, "inject", result.Passed, result, "", outPath); err != nil {
				return err
			}
			fmt.Printf("inject: median_abs_bias=%.4f median_z=%.4f passed=%v\n",
				result.AbsBiasStats.Median, result.ZStats.Median, result.Passed)
			if !result.Passed {
				return errGateFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Registry override file (YAML)")
	cmd.Flags().StringVar(&outPath, "out", "outputs/results/inject.json", "Output record path")
	cmd.Flags().IntVar(&trials, "trials", 2000, "Injection trials")

	return cmd
}

func newRunCmd() *cobra.Command {
	var configPath, gridPath, outDir string
	var iters, trials, workers int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every validation suite and emit one record per suite",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.Load(configPath)
			if err != nil {
				return err
			}
			loaded, err := tabular.Load(gridPath)
			if err != nil {
				return err
			}
			stream := rng.New(reg.MasterSeed)
			runner := suites.NewRunner(reg, internal.DefaultLogger, workers)
			outcome, err := runner.RunAll(loaded.Table, stream, iters, trials)
			if err != nil {
				return err
			}

			records := []struct {
				suite  string
				passed bool
				result any
				sum    core.Checksum
			}{
				{"loao", outcome.LOAO.Passed, outcome.LOAO, loaded.Checksum},
				{"grid", outcome.Grid.Passed, outcome.Grid, ""},
				{"bootstrap", outcome.Bootstrap.Passed, outcome.Bootstrap, loaded.Checksum},
				{"inject", outcome.Inject.Passed, outcome.Inject, ""},
				{"all", outcome.Passed, outcome, loaded.Checksum},
			}
			for _, rec := range records {
				path := filepath.Join(outDir, rec.suite+".json")
				if err := writeRecord(reg, rec.suite, rec.passed, rec.result, rec.sum, path); err != nil {
					return err
				}
			}

			fmt.Printf("run: loao=%v grid=%v bootstrap=%v inject=%v overall=%v\n",
				outcome.LOAO.Passed, outcome.Grid.Passed, outcome.Bootstrap.Passed,
				outcome.Inject.Passed, outcome.Passed)
			if !outcome.Passed {
				return errGateFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Registry override file (YAML)")
	cmd.Flags().StringVar(&gridPath, "grid", "", "Systematic grid file (CSV or XLSX)")
	cmd.Flags().StringVar(&outDir, "out-dir", "outputs/results", "Directory for suite records")
	cmd.Flags().IntVar(&iters, "iters", 10000, "Bootstrap iterations")
	cmd.Flags().IntVar(&trials, "trials", 2000, "Injection trials")
	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "Parallel resampling workers")
	_ = cmd.MarkFlagRequired("grid")

	return cmd
}

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [record.json...]",
		Short: "Validate emitted records against the result schema",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if err := report.ValidateFile(path); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				fmt.Printf("%s: ok\n", path)
			}
			return nil
		},
	}
	return cmd
}

func writeRecord(reg registry.Registry, suite string, passed bool, result any, checksum core.Checksum, path string) error {
	writer, err := report.NewWriter()
	if err != nil {
		return err
	}
	record := writer.NewRecord(suite, passed, result, reg.MasterSeed, checksum)
	return writer.Write(path, record)
}
