package output

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/kx0101/subdiff/internal/models"
	"github.com/kx0101/subdiff/internal/stats"
)

const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
	ColorBold   = "\033[1m"
)

// maxListedFailures caps the failures printed per suite.
const maxListedFailures = 10

func NewRunData(runID string, startedAt time.Time, suites []models.SuiteResult) models.RunData {
	return models.RunData{
		RunID:     runID,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Suites:    suites,
		Summary:   Summarize(suites),
	}
}

func Summarize(suites []models.SuiteResult) models.Summary {
	s := models.Summary{
		BySide:   make(map[models.Side]models.SideStats),
		ByStatus: make(map[string]int),
	}

	for _, suite := range suites {
		for _, r := range suite.Results {
			s.TotalCases++
			s.ByStatus[r.Status]++

			switch {
			case r.Failed():
				s.Failed++
			case r.Skipped():
				s.Skipped++
			default:
				s.Passed++
			}
		}
	}

	for _, side := range models.Sides {
		ss := models.SideStats{Latency: stats.CalculateLatencyStats(stats.SideLatencies(suites, side))}
		for _, suite := range suites {
			for _, r := range suite.Results {
				resp, ok := r.Responses[side]
				if !ok {
					continue
				}
				ss.Requests++
				if resp.FetchFailed() {
					ss.FetchErrors++
				}
			}
		}
		s.BySide[side] = ss
	}

	return s
}

func PrintSummary(w io.Writer, run models.RunData) {
	fmt.Fprintln(w, ColorBold+"==== Summary ===="+ColorReset)
	fmt.Fprintf(w, "Run: %s (%s)\n", run.RunID, run.Duration.Round(time.Millisecond))

	sum := run.Summary
	fmt.Fprintf(w, "Total Cases: %d\nPassed: %s%d%s\nFailed: %s%d%s\n",
		sum.TotalCases, ColorGreen, sum.Passed, ColorReset, ColorRed, sum.Failed, ColorReset)
	if sum.Skipped > 0 {
		fmt.Fprintf(w, "Skipped: %s%d%s\n", ColorYellow, sum.Skipped, ColorReset)
	}

	fmt.Fprintln(w, "\nSuites:")
	for _, s := range run.Suites {
		color, mark := ColorGreen, "PASS"
		if s.Failed() {
			color, mark = ColorRed, "FAIL"
		}

		fmt.Fprintf(w, "  %s%-4s%s %-24s %d cases, %d failures\n", color, mark, ColorReset, s.Name, len(s.Results), len(s.Failures))

		for i, f := range s.Failures {
			if i == maxListedFailures {
				fmt.Fprintf(w, "       ... and %d more\n", len(s.Failures)-maxListedFailures)
				break
			}
			fmt.Fprintf(w, "       %s%s%s\n", ColorYellow, f, ColorReset)
		}
	}

	if len(sum.ByStatus) > 0 {
		fmt.Fprintln(w, "\nStatuses:")
		statuses := make([]string, 0, len(sum.ByStatus))
		for st := range sum.ByStatus {
			statuses = append(statuses, st)
		}
		slices.Sort(statuses)
		for _, st := range statuses {
			fmt.Fprintf(w, "  %-28s %d\n", st, sum.ByStatus[st])
		}
	}

	fmt.Fprintln(w, "\nLatency (ms):")
	for _, side := range models.Sides {
		ss := sum.BySide[side]
		fmt.Fprintf(w, "%s%s%s: %d requests, %d fetch errors\n", ColorCyan, side, ColorReset, ss.Requests, ss.FetchErrors)
		printLatencyStats(w, ss.Latency)
	}
}

func printLatencyStats(w io.Writer, l models.LatencyStats) {
	fmt.Fprintf(w, "  min: %d  avg: %d  p50: %d  p90: %d  p95: %d  p99: %d  max: %d\n", l.Min, l.Avg, l.P50, l.P90, l.P95, l.P99, l.Max)
}

// PrintCases lists every case outcome, grouped by suite.
func PrintCases(w io.Writer, run models.RunData) {
	for _, s := range run.Suites {
		fmt.Fprintf(w, "%s[%s]%s\n", ColorBold, s.Name, ColorReset)
		if s.Error != "" {
			fmt.Fprintf(w, "  %sscenario failed: %s%s\n", ColorRed, s.Error, ColorReset)
		}

		for _, r := range s.Results {
			color := ColorGreen
			switch {
			case r.Failed():
				color = ColorRed
			case r.Skipped():
				color = ColorYellow
			}

			fmt.Fprintf(w, "  %-36s %s%s%s\n", r.ID, color, r.Outcome(), ColorReset)
		}
	}
	fmt.Fprintln(w)
}
