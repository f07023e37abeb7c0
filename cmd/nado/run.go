package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jihwankim/nado/internal/appconfig"
	"github.com/jihwankim/nado/internal/logging"
	"github.com/jihwankim/nado/internal/metrics"
	"github.com/jihwankim/nado/pkg/differential"
	"github.com/spf13/cobra"
)

// runDifferential is rootCmd's RunE: it is the entire CLI surface. It
// loads the config, builds the logger and optional metrics server,
// runs the full corpus through the origin and every candidate, prints
// the verdict table, and exits with the code the run contract
// demands: 0 on all-pass, 1 on any failure.
//
// Configuration errors (a bad file, a contradictory constraint, a
// malformed candidate) are fatal and distinct from a candidate
// failure: they exit 2 before any case runs, since there is no
// meaningful partial result to report.
func runDifferential(cmd *cobra.Command, args []string) error {
	configPath := cfgFile
	if len(args) == 1 {
		configPath = args[0]
	}

	cfg, err := appconfig.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "nado: configuration error:", err)
		os.Exit(2)
	}

	logCfg := cfg.LoggerConfig(verbose)
	logCfg.Output = os.Stderr
	log := logging.New(logCfg)

	rec := metrics.NewRecorder()
	metricsSrv := metrics.Server(cfg.MetricsServerConfig(metricsAddr), rec)

	ctx, cancel := differential.WithSignalCancel(context.Background())
	defer cancel()

	if metricsSrv != nil {
		log.Info(fmt.Sprintf("serving metrics on %s", metricsSrv.Addr))
		go func() {
			if err := metrics.Serve(ctx, metricsSrv); err != nil {
				log.Error("metrics server stopped", err)
			}
		}()
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, "nado:", err)
		os.Exit(2)
	}

	orch, err := differential.New(cfg, cwd, log, rec)
	if err != nil {
		fmt.Fprintln(os.Stderr, "nado: configuration error:", err)
		os.Exit(2)
	}

	log.Info(fmt.Sprintf("evaluating %d cases against %d candidate(s)", orch.CorpusSize(), len(cfg.Candidates)))

	result, err := orch.RunAll(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "nado:", err)
		os.Exit(2)
	}

	printVerdicts(result)
	os.Exit(result.ExitCode)
	return nil
}

// printVerdicts is deliberately minimal: one line per candidate plus a
// flat list of the retained failures. A richer, formatted report is
// out of scope.
func printVerdicts(result differential.Result) {
	fmt.Println()
	for _, v := range result.Verdicts {
		fmt.Printf("%-24s %s\n", v.Candidate, v.String())
	}

	if len(result.Failures) == 0 {
		return
	}

	fmt.Println()
	for _, f := range result.Failures {
		who := f.Ref.String()
		if f.Ref.Kind == differential.RefCandidate && f.Ref.Index < len(result.Verdicts) {
			who = result.Verdicts[f.Ref.Index].Candidate
		}
		fmt.Printf("  case %d: %s: %s\n", f.CaseIndex, who, f.Reason)
	}
}
