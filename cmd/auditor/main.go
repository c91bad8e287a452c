// Package main is the entry point for the accessibility auditor CLI.
//
// Commands mirror the pipeline's stages: `run` executes every stage
// from --start onward for each configured domain, while `crawl`,
// `scan`, and `analyze` pin --start to a single stage for ad hoc use.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/a11y-auditor/auditor/internal/config"
	"github.com/a11y-auditor/auditor/internal/layout"
	"github.com/a11y-auditor/auditor/internal/orchestrator"
	"github.com/a11y-auditor/auditor/internal/store"
)

// Exit codes per spec §6: 0 clean, 1 one-or-more domains failed, 2
// configuration error, 130 interrupted (128+SIGINT).
const (
	exitOK             = 0
	exitDomainFailures = 1
	exitConfigError    = 2
	exitInterrupted    = 130
)

var (
	configPath string
	domains    []string
	startStage string
	maxURLs    int
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "auditor",
	Short: "Crawl sites, run axe-core accessibility scans, and report conformance",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a JSON/YAML/TOML config file")
	rootCmd.PersistentFlags().StringSliceVar(&domains, "domains", nil, "base URLs to audit (overrides config file)")
	rootCmd.PersistentFlags().StringVar(&startStage, "start", "", "pipeline stage to start from: crawler, auth, axe, funnel, analysis")
	rootCmd.PersistentFlags().IntVar(&maxURLs, "max-urls", 0, "override max URLs crawled per domain")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		pinnedStageCmd("crawl", "Crawl each domain and discover its template structure", config.StageCrawler),
		pinnedStageCmd("scan", "Run axe-core scans over already-discovered pages", config.StageAxe),
		pinnedStageCmd("analyze", "Aggregate persisted violations into a report workbook", config.StageAnalysis),
		runCmd,
	)
}

// pinnedStageCmd builds a subcommand that runs the full pipeline
// starting from a fixed stage, ignoring --start.
func pinnedStageCmd(use, short string, stage config.Stage) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(stage)
		},
	}
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline, honoring --start",
	RunE: func(cmd *cobra.Command, args []string) error {
		return execute("")
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitConfigError)
	}
}

// execute resolves configuration, builds the Orchestrator, and runs
// every configured domain. stageOverride, when non-empty, pins --start
// regardless of the flag/config/env-resolved value.
func execute(stageOverride config.Stage) error {
	cfg, err := resolveConfig(stageOverride)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(exitConfigError)
	}

	log, err := newLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(exitConfigError)
	}
	defer log.Sync()
	sugar := log.Sugar()

	l := layout.New(cfg.OutputDir)
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		sugar.Errorw("creating output directory failed", "error", err)
		os.Exit(exitConfigError)
	}
	st, err := store.Open(filepath.Join(cfg.OutputDir, "auditor.db"))
	if err != nil {
		sugar.Errorw("opening store failed", "error", err)
		os.Exit(exitConfigError)
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	interrupted := false
	go func() {
		<-sigCh
		sugar.Warn("received interrupt, cancelling run")
		interrupted = true
		cancel()
	}()

	seeds := cfg.BaseURLs
	if len(cfg.Domains) > 0 {
		seeds = cfg.Domains
	}

	orch := orchestrator.New(cfg, l, st, sugar)
	results, err := orch.Run(ctx, seeds)
	if err != nil {
		sugar.Errorw("orchestrator run failed", "error", err)
		os.Exit(exitConfigError)
	}

	failed := 0
	for _, r := range results {
		status := "ok"
		if !r.OK {
			status = "failed"
			failed++
		} else if r.Degraded {
			status = "degraded"
		}
		sugar.Infow("domain finished", "domain", r.Domain, "status", status, "errors", len(r.Errors))
	}

	if interrupted {
		os.Exit(exitInterrupted)
	}
	if failed > 0 {
		os.Exit(exitDomainFailures)
	}
	return nil
}

func resolveConfig(stageOverride config.Stage) (*config.Config, error) {
	resolver := config.NewResolver(configPath)

	overrides := &config.CLIOverrides{Domains: domains}
	if maxURLs > 0 {
		overrides.MaxURLs = &maxURLs
	}
	if debug {
		overrides.Debug = &debug
	}
	if stageOverride != "" {
		overrides.Start = &stageOverride
	} else if startStage != "" {
		stage := config.Stage(startStage)
		overrides.Start = &stage
	}

	return resolver.Resolve(overrides)
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
