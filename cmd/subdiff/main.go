package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kx0101/subdiff/internal/cli"
	"github.com/kx0101/subdiff/internal/config"
	"github.com/kx0101/subdiff/internal/fetch"
	"github.com/kx0101/subdiff/internal/input"
	"github.com/kx0101/subdiff/internal/logging"
	"github.com/kx0101/subdiff/internal/matrix"
	"github.com/kx0101/subdiff/internal/metrics"
	"github.com/kx0101/subdiff/internal/models"
	"github.com/kx0101/subdiff/internal/output"
	"github.com/kx0101/subdiff/internal/replay"
	"github.com/kx0101/subdiff/internal/report"
	"github.com/kx0101/subdiff/internal/rules"
)

var (
	loadConfig   = config.Load
	initLogger   = logging.InitializeLogger
	newRunID     = uuid.NewString
	serveMetrics = metrics.InitializeHTTP
	runSuites    = runWithServices
	writeResults = output.WriteResults
	generateHTML = report.GenerateHTML

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func main() {
	os.Exit(int(run(os.Args[1:])))
}

func run(argv []string) cli.ExitCode {
	args, code := cli.ParseArgs(argv, stderr)
	if code != cli.ExitOK {
		return code
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return execute(ctx, args)
}

func execute(ctx context.Context, args *cli.CliArgs) cli.ExitCode {
	cfg, err := loadConfig(args.ConfigFile)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return cli.ExitInvalid
	}
	applyOverrides(cfg, args)

	if err := initLogger(cfg.LogLevel, !args.OutputJSON); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return cli.ExitInvalid
	}
	defer func() { _ = logging.L.Sync() }()

	suites := input.Apply(input.Only(matrix.Suites(cfg.MockBase), args.Suites), args.Test)
	if len(suites) == 0 {
		fmt.Fprintln(stderr, "Error: no suites or cases match the given filters")
		return cli.ExitInvalid
	}

	if args.ListSuites {
		listSuites(stdout, suites)
		return cli.ExitOK
	}

	runID := newRunID()
	startedAt := time.Now()
	logging.L.Info("starting run",
		zap.String("run_id", runID),
		zap.Int("suites", len(suites)),
		zap.String("candidate", cfg.Candidate.BaseURL),
		zap.String("reference", cfg.Reference.BaseURL),
	)

	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Bind)
	}

	results, err := runSuites(ctx, cfg, args, suites)
	if err != nil {
		return handleError("Failed to start run", err)
	}

	out := output.NewRunData(runID, startedAt, results)
	logging.L.Info("run finished",
		zap.String("run_id", runID),
		zap.Int("cases", out.Summary.TotalCases),
		zap.Int("failed", out.Summary.Failed),
		zap.Duration("duration", out.Duration),
	)

	if !args.NoResults {
		if err := writeResults(cfg.ResultsFile, out); err != nil {
			return handleError("Failed to write results", err)
		}
	}

	if args.HTMLReport != "" {
		if err := generateHTML(out, args.HTMLReport); err != nil {
			return handleError("Failed to generate HTML report", err)
		}
	}

	if args.RulesFile != "" {
		return runRules(args, out)
	}

	return outputResults(args, out)
}

// applyOverrides lets flags win over the configuration file and environment.
func applyOverrides(cfg *config.Config, args *cli.CliArgs) {
	if args.LogLevel != "" {
		cfg.LogLevel = args.LogLevel
	}

	if args.Concurrency > 0 {
		cfg.Concurrency = args.Concurrency
	}

	if args.ResultsFile != "" {
		cfg.ResultsFile = args.ResultsFile
	}

	if args.MetricsBind != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Bind = args.MetricsBind
	}

	cfg.Progress = cfg.Progress && args.ProgressBar && !args.OutputJSON
}

func newPair(cfg *config.Config) (*fetch.Pair, error) {
	options := func(s config.Service) []fetch.Option {
		return []fetch.Option{fetch.WithToken(s.Token), fetch.WithRateLimit(cfg.RateLimit)}
	}

	candidate, err := fetch.NewClient(models.Candidate, cfg.Candidate.BaseURL, cfg.Timeout, options(cfg.Candidate)...)
	if err != nil {
		return nil, err
	}

	reference, err := fetch.NewClient(models.Reference, cfg.Reference.BaseURL, cfg.Timeout, options(cfg.Reference)...)
	if err != nil {
		return nil, err
	}

	pair := &fetch.Pair{Candidate: candidate, Reference: reference, Reload: cfg.ReloadOnScenario}
	if cfg.ResultsDir != "" {
		pair.OverlayDir = filepath.Join(cfg.ResultsDir, "scenarios")
	}

	return pair, nil
}

func runWithServices(ctx context.Context, cfg *config.Config, args *cli.CliArgs, suites []matrix.Suite) ([]models.SuiteResult, error) {
	pair, err := newPair(cfg)
	if err != nil {
		return nil, err
	}

	runner := &replay.Runner{
		Fetcher:     pair,
		Preparer:    pair,
		Concurrency: cfg.Concurrency,
		ArtifactDir: cfg.ResultsDir,
	}
	if cfg.Progress {
		runner.Progress = stderr
	}

	return runner.Run(ctx, suites, args.FailFast), nil
}

func listSuites(w io.Writer, suites []matrix.Suite) {
	for _, s := range suites {
		fmt.Fprintf(w, "%s (%d cases)\n", s.Name, len(s.Cases))
		for _, c := range s.Cases {
			fmt.Fprintf(w, "  %s\n", c.ID)
		}
	}
}

func runRules(args *cli.CliArgs, current models.RunData) cli.ExitCode {
	rulesConfig, err := rules.ParseRulesFile(args.RulesFile)
	if err != nil {
		return handleError("Failed to load rules", err)
	}

	evalResult := rules.EvaluateRules(rulesConfig, &current)

	if args.OutputJSON {
		return outputRulesJSON(current, evalResult)
	}

	printRun(args, current)
	fmt.Fprint(stderr, rules.FormatRuleResult(evalResult))
	return rules.GetExitCode(evalResult)
}

func outputRulesJSON(current models.RunData, evalResult *rules.RuleEvaluationResult) cli.ExitCode {
	out := map[string]any{
		"run":             current,
		"rule_evaluation": evalResult,
	}

	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		fmt.Fprintf(stderr, "Error encoding JSON: %v\n", err)
	}

	return rules.GetExitCode(evalResult)
}

func printRun(args *cli.CliArgs, out models.RunData) {
	if !args.SummaryOnly {
		output.PrintCases(stdout, out)
	}
	output.PrintSummary(stdout, out)
}

func outputResults(args *cli.CliArgs, out models.RunData) cli.ExitCode {
	if args.OutputJSON {
		if err := output.PrintJSON(stdout, out); err != nil {
			return handleError("Failed to print JSON", err)
		}
	} else {
		printRun(args, out)
	}

	return exitForResults(out.Suites)
}

func exitForResults(suites []models.SuiteResult) cli.ExitCode {
	for _, s := range suites {
		if s.Failed() {
			return cli.ExitFailures
		}
	}

	return cli.ExitOK
}

func handleError(msg string, err error) cli.ExitCode {
	fmt.Fprintf(stderr, "%s: %v\n", msg, err)
	return cli.ExitRuntime
}
