package replay

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/kx0101/subdiff/internal/classify"
	"github.com/kx0101/subdiff/internal/logging"
	"github.com/kx0101/subdiff/internal/matrix"
	"github.com/kx0101/subdiff/internal/metrics"
	"github.com/kx0101/subdiff/internal/models"
)

// Fetcher retrieves one side of a case. Failures are reported inside the
// Response, never as an error.
type Fetcher interface {
	Fetch(ctx context.Context, side models.Side, c matrix.Case) models.Response
}

// Preparer puts both services into a suite's scenario before it runs.
type Preparer interface {
	Prepare(ctx context.Context, sc matrix.Scenario) error
}

type Runner struct {
	Fetcher     Fetcher
	Preparer    Preparer
	Concurrency int

	// ArtifactDir receives both bodies of every case. Empty disables it.
	ArtifactDir string

	// Progress, when set, receives a progress bar per suite.
	Progress io.Writer
}

// Run executes suites in order. With failFast it stops after the first suite
// that has a failure.
func (r *Runner) Run(ctx context.Context, suites []matrix.Suite, failFast bool) []models.SuiteResult {
	results := make([]models.SuiteResult, 0, len(suites))

	for _, s := range suites {
		if ctx.Err() != nil {
			break
		}

		res := r.RunSuite(ctx, s)
		results = append(results, res)

		if res.Failed() && failFast {
			logging.L.Warn("stopping after failing suite", zap.String("suite", s.Name))
			break
		}
	}

	return results
}

func (r *Runner) RunSuite(ctx context.Context, s matrix.Suite) models.SuiteResult {
	result := models.SuiteResult{
		Name:     s.Name,
		Scenario: s.Scenario.Name,
		Results:  make([]models.CaseResult, len(s.Cases)),
		Failures: []string{},
	}

	logger := logging.L.With(zap.String("suite", s.Name))

	if r.Preparer != nil && s.Scenario.Name != "" {
		if err := r.Preparer.Prepare(ctx, s.Scenario); err != nil {
			logger.Error("preparing scenario failed", zap.Error(err))
			result.Error = err.Error()
			result.Failures = append(result.Failures, fmt.Sprintf("%s: %v", s.Name, err))
			return result
		}
	}

	outDir := ""
	if r.ArtifactDir != "" {
		outDir = filepath.Join(r.ArtifactDir, s.OutputDir)
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			logger.Warn("artifacts disabled", zap.Error(err))
			outDir = ""
		}
	}

	var bar *ProgressBar
	if r.Progress != nil {
		bar = NewProgressBar(r.Progress, s.Name, len(s.Cases))
	}

	concurrency := r.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	p := pool.New().WithMaxGoroutines(concurrency)
	for i, c := range s.Cases {
		p.Go(func() {
			result.Results[i] = r.runCase(ctx, s.Name, outDir, c)
			if bar != nil {
				bar.Increment()
			}
		})
	}
	p.Wait()

	if bar != nil {
		bar.Finish()
	}

	for _, cr := range result.Results {
		if cr.Failed() {
			result.Failures = append(result.Failures, fmt.Sprintf("%s: %s", cr.ID, cr.Failure))
		}
	}

	logger.Info("suite finished",
		zap.Int("cases", len(s.Cases)),
		zap.Int("failures", len(result.Failures)),
	)

	return result
}

func (r *Runner) runCase(ctx context.Context, suite, outDir string, c matrix.Case) models.CaseResult {
	responses := r.fetch(ctx, c)
	cand, ref := responses[models.Candidate], responses[models.Reference]

	var out classify.Outcome
	switch {
	case c.Kind == matrix.KindStandalone && c.Expect != nil:
		out = classify.Standalone(cand, *c.Expect)
	case c.Kind == matrix.KindRuleset:
		out = classify.Ruleset(cand, ref)
	default:
		out = classify.Classify(classify.Input{Candidate: cand, Reference: ref, Dialect: c.Dialect})
	}

	if outDir != "" {
		writeArtifacts(outDir, c.ID, responses)
	}

	metrics.CaseOutcomes.WithLabelValues(suite, string(c.Dialect), statusLabel(out.Status)).Inc()

	fields := []zap.Field{
		zap.String("suite", suite),
		zap.String("case", c.ID),
		zap.String("outcome", out.String()),
	}
	if out.Failed() {
		logging.L.Warn("case failed", append(fields, zap.String("failure", out.Failure))...)
	} else {
		logging.L.Debug("case passed", fields...)
	}

	nodes := map[models.Side]int{models.Candidate: out.CandidateRecords}
	if _, ok := responses[models.Reference]; ok {
		nodes[models.Reference] = out.ReferenceRecords
	}

	return models.CaseResult{
		ID:         c.ID,
		Kind:       string(c.Kind),
		Dialect:    string(c.Dialect),
		Status:     out.Status,
		Comparison: out.Comparison,
		Failure:    out.Failure,
		Nodes:      nodes,
		Responses:  responses,
	}
}

// fetch gets both sides concurrently. Standalone cases only go to the
// candidate.
func (r *Runner) fetch(ctx context.Context, c matrix.Case) map[models.Side]models.Response {
	if c.Kind == matrix.KindStandalone {
		return map[models.Side]models.Response{
			models.Candidate: r.Fetcher.Fetch(ctx, models.Candidate, c),
		}
	}

	var cand, ref models.Response

	var wg conc.WaitGroup
	wg.Go(func() { cand = r.Fetcher.Fetch(ctx, models.Candidate, c) })
	wg.Go(func() { ref = r.Fetcher.Fetch(ctx, models.Reference, c) })
	wg.Wait()

	return map[models.Side]models.Response{
		models.Candidate: cand,
		models.Reference: ref,
	}
}

// statusLabel drops the fetch error text from FAIL_CANDIDATE(...) so the
// metric label set stays bounded.
func statusLabel(status string) string {
	label, _, _ := strings.Cut(status, "(")
	return label
}

func writeArtifacts(dir, id string, responses map[models.Side]models.Response) {
	safe := matrix.SafeID(id)

	for side, resp := range responses {
		body := resp.Body
		if resp.FetchFailed() {
			body = resp.Err
		}

		path := filepath.Join(dir, fmt.Sprintf("%s_%s.txt", safe, side))
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			logging.L.Warn("writing artifact failed", zap.String("path", path), zap.Error(err))
		}
	}
}
