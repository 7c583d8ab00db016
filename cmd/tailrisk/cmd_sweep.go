package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/aristath/tailrisk/internal/modules/montecarlo"
	"github.com/aristath/tailrisk/internal/modules/sweep"
	"github.com/aristath/tailrisk/pkg/formulas"
)

var (
	sweepScenarioPath string
	curveMinSize      int
	curveMaxSize      int
	curvePoints       int
	curveTrials       int
	curveAlpha        float64
	curveSeed         uint64
	curveWorkers      int
)

// sweepCmd runs a cost-scaling sweep across oracles and epsilons.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a cost-scaling calibration sweep",
	Long: `Run the full epsilon-versus-cost sweep for each configured oracle and
fit log-log cost slopes. Without --scenario the built-in calibration
scenario is used.

Examples:
  tailrisk sweep
  tailrisk sweep --scenario scenarios/lognormal.yaml`,
	RunE: runSweep,
}

// errorCurveCmd measures Monte Carlo quantile error against sample size.
var errorCurveCmd = &cobra.Command{
	Use:   "errorcurve",
	Short: "Measure Monte Carlo error scaling",
	Long: `Estimate the quantile repeatedly at logarithmically spaced sample sizes
and fit the error-versus-N slope. For a Monte Carlo quantile estimator
the slope sits near -0.5.

Example:
  tailrisk errorcurve --min-size 100 --max-size 1000000 --points 12`,
	RunE: runErrorCurve,
}

func init() {
	sweepCmd.Flags().StringVar(&sweepScenarioPath, "scenario", "", "Path to a YAML scenario file")

	errorCurveCmd.Flags().IntVar(&curveMinSize, "min-size", 100, "Smallest sample size")
	errorCurveCmd.Flags().IntVar(&curveMaxSize, "max-size", 100000, "Largest sample size")
	errorCurveCmd.Flags().IntVar(&curvePoints, "points", 10, "Number of sample sizes")
	errorCurveCmd.Flags().IntVar(&curveTrials, "trials", 20, "Trials per sample size")
	errorCurveCmd.Flags().Float64Var(&curveAlpha, "alpha", 0.95, "Confidence level of the quantile")
	errorCurveCmd.Flags().Uint64Var(&curveSeed, "seed", 1, "Deterministic sampling seed")
	errorCurveCmd.Flags().IntVar(&curveWorkers, "workers", 4, "Parallel trial workers")

	errorCurveCmd.Flags().StringVar(&flagDist, "dist", "gaussian", "Distribution family: gaussian, lognormal, student_t")
	errorCurveCmd.Flags().Float64Var(&flagMu, "mu", 0.15, "Location parameter")
	errorCurveCmd.Flags().Float64Var(&flagSigma, "sigma", 0.20, "Scale parameter")
	errorCurveCmd.Flags().Float64Var(&flagNu, "nu", 0, "Degrees of freedom (student_t only)")
}

func runSweep(cmd *cobra.Command, args []string) error {
	scenario := sweep.DefaultScenario()
	if sweepScenarioPath != "" {
		loaded, err := sweep.LoadScenario(sweepScenarioPath)
		if err != nil {
			return err
		}
		scenario = loaded
	}

	svc := sweep.NewService(nil, nil, log.Logger)
	result, err := svc.Run(scenario)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runErrorCurve(cmd *cobra.Command, args []string) error {
	analyzer := montecarlo.NewAnalyzer(log.Logger)

	result, err := analyzer.ErrorCurve(montecarlo.CurveRequest{
		Spec:          distSpec(),
		Alpha:         curveAlpha,
		SampleSizes:   formulas.LogSpace(curveMinSize, curveMaxSize, curvePoints),
		TrialsPerSize: curveTrials,
		Seed:          curveSeed,
		Workers:       curveWorkers,
	})
	if err != nil {
		return err
	}
	return printJSON(result)
}
