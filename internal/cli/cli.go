package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

type ExitCode int

const (
	ExitOK ExitCode = iota
	ExitFailures
	ExitRules
	ExitInvalid
	ExitRuntime
)

type CliArgs struct {
	ConfigFile  string
	Test        string
	Suites      []string
	FailFast    bool
	Concurrency int
	LogLevel    string

	OutputJSON  bool
	SummaryOnly bool
	HTMLReport  string
	ResultsFile string
	NoResults   bool
	ProgressBar bool
	RulesFile   string
	MetricsBind string

	ListSuites bool
}

// ParseArgs parses args without the program name. Errors are printed to
// stderr together with the usage.
func ParseArgs(args []string, stderr io.Writer) (*CliArgs, ExitCode) {
	fs := flag.NewFlagSet("subdiff", flag.ContinueOnError)
	fs.SetOutput(stderr)

	parsed := &CliArgs{}
	var noFailFast bool
	var suites string

	fs.StringVar(&parsed.ConfigFile, "config", "", "Path to the YAML configuration file")
	fs.StringVar(&parsed.Test, "test", "", "Only run suites or cases whose name contains this string")
	fs.StringVar(&suites, "suites", "", "Comma separated suite names to run")
	fs.BoolVar(&parsed.FailFast, "fail-fast", true, "Stop after the first failing suite")
	fs.BoolVar(&noFailFast, "no-fail-fast", false, "Run every suite even after failures")
	fs.IntVar(&parsed.Concurrency, "concurrency", 0, "Cases evaluated in parallel (0 = from config)")
	fs.StringVar(&parsed.LogLevel, "log-level", "", "Log level: debug, info, warn, error (empty = from config)")

	fs.BoolVar(&parsed.OutputJSON, "output-json", false, "Print the run as JSON")
	fs.BoolVar(&parsed.SummaryOnly, "summary-only", false, "Only print the summary")
	fs.StringVar(&parsed.HTMLReport, "html-report", "", "Generate HTML report at specified path")
	fs.StringVar(&parsed.ResultsFile, "results", "", "Results file to merge outcomes into (empty = from config)")
	fs.BoolVar(&parsed.NoResults, "no-results", false, "Do not write the results file")
	fs.BoolVar(&parsed.ProgressBar, "progress", true, "Show progress bar")
	fs.StringVar(&parsed.RulesFile, "rules", "", "Path to rules.yaml accepting known divergences")
	fs.StringVar(&parsed.MetricsBind, "metrics-bind", "", "Serve prometheus metrics on this address")

	fs.BoolVar(&parsed.ListSuites, "list", false, "List suites and cases without running them")

	if err := fs.Parse(args); err != nil {
		return nil, ExitInvalid
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "Error: unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		fs.Usage()
		return nil, ExitInvalid
	}

	if noFailFast {
		parsed.FailFast = false
	}

	if parsed.Concurrency < 0 {
		fmt.Fprintln(stderr, "Error: --concurrency cannot be negative")
		fs.Usage()
		return nil, ExitInvalid
	}

	for _, s := range strings.Split(suites, ",") {
		if s = strings.TrimSpace(s); s != "" {
			parsed.Suites = append(parsed.Suites, s)
		}
	}

	return parsed, ExitOK
}
