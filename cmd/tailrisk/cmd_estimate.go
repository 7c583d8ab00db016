package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/aristath/tailrisk/internal/modules/risk"
	"github.com/aristath/tailrisk/internal/modules/search"
)

var (
	cvarMethod  string
	cvarSamples int
	cvarSteps   int
	evarSamples int
)

// varCmd estimates Value at Risk for a single distribution.
var varCmd = &cobra.Command{
	Use:   "var",
	Short: "Estimate Value at Risk",
	Long: `Estimate the Value at Risk threshold via bracketed search over the
chosen probability oracle.

Examples:
  tailrisk var --alpha 0.95 --oracle classical
  tailrisk var --oracle amplitude --epsilon 0.005 --mode interpolation
  tailrisk var --dist student_t --nu 5 --sigma 0.25`,
	RunE: runVaR,
}

// cvarCmd estimates Conditional Value at Risk.
var cvarCmd = &cobra.Command{
	Use:   "cvar",
	Short: "Estimate Conditional Value at Risk",
	Long: `Estimate the Conditional Value at Risk (expected shortfall beyond the
VaR threshold), either by conditional Monte Carlo averaging or by the
tail integral of the CDF.

Examples:
  tailrisk cvar --alpha 0.95
  tailrisk cvar --method tail_integral --steps 128 --oracle exact`,
	RunE: runCVaR,
}

// evarCmd estimates the expectile Value at Risk.
var evarCmd = &cobra.Command{
	Use:   "evar",
	Short: "Estimate expectile Value at Risk",
	Long: `Estimate the expectile Value at Risk by root-finding the first-order
expectile condition over a fixed sample set.

Example:
  tailrisk evar --alpha 0.95 --samples 200000`,
	RunE: runEVaR,
}

func init() {
	cvarCmd.Flags().StringVar(&cvarMethod, "method", "conditional_mc", "CVaR method: conditional_mc, tail_integral")
	cvarCmd.Flags().IntVar(&cvarSamples, "samples", 0, "Sample count for conditional Monte Carlo (0 = default)")
	cvarCmd.Flags().IntVar(&cvarSteps, "steps", 0, "Integration steps for tail integral (0 = default)")
	evarCmd.Flags().IntVar(&evarSamples, "samples", 0, "Sample count for the expectile score (0 = default)")
}

func baseRequest() risk.Request {
	return risk.Request{
		Distribution: distSpec(),
		Alpha:        flagAlpha,
		Epsilon:      flagEpsilon,
		Confidence:   flagConfidence,
		Oracle:       risk.OracleKind(flagOracle),
		Mode:         search.Mode(flagMode),
		Seed:         flagSeed,
	}
}

func runVaR(cmd *cobra.Command, args []string) error {
	svc := risk.NewService(nil, nil, log.Logger)

	res, err := svc.EstimateVaR(baseRequest())
	if res == nil {
		return err
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	return printJSON(res)
}

func runCVaR(cmd *cobra.Command, args []string) error {
	svc := risk.NewService(nil, nil, log.Logger)

	res, err := svc.EstimateCVaR(risk.CVaRRequest{
		Request: baseRequest(),
		Method:  risk.CVaRMethod(cvarMethod),
		Samples: cvarSamples,
		Steps:   cvarSteps,
	})
	if res == nil {
		return err
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	return printJSON(res)
}

func runEVaR(cmd *cobra.Command, args []string) error {
	svc := risk.NewService(nil, nil, log.Logger)

	res, err := svc.EstimateEVaR(risk.EVaRRequest{
		Request: baseRequest(),
		Samples: evarSamples,
	})
	if res == nil {
		return err
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	return printJSON(res)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
