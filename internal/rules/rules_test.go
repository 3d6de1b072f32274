package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kx0101/subdiff/internal/cli"
	"github.com/kx0101/subdiff/internal/models"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()

	filePath := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	return filePath
}

func TestParseRulesFile(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		config, err := ParseRulesFile(writeRules(t, `rules:
  max_failures: 2
  allow:
    - suite: e2e_matrix*
      case: "ssd->*"
      status: FAIL_COMPARE
      reason: ssd groups are ordered differently
    - status: CAND_HTTP_5
  fetch_errors:
    side: reference
    max: 1
  latency:
    metric: p95
    regression_percent: 50
`))
		require.NoError(t, err)

		r := config.Rules
		assert.Equal(t, 2, r.MaxFailures)
		require.Len(t, r.Allow, 2)
		assert.Equal(t, "ssd->*", r.Allow[0].Case)
		assert.Equal(t, "ssd groups are ordered differently", r.Allow[0].Reason)
		assert.Equal(t, "CAND_HTTP_5", r.Allow[1].Status)
		require.NotNil(t, r.FetchErrors)
		assert.Equal(t, "reference", r.FetchErrors.Side)
		require.NotNil(t, r.Latency)
		assert.Equal(t, 50.0, r.Latency.RegressionPercent)
	})

	t.Run("file not found", func(t *testing.T) {
		_, err := ParseRulesFile("/nonexistent/path/rules.yaml")
		assert.ErrorContains(t, err, "failed to read rules file")
	})

	invalid := map[string]string{
		"broken yaml":      "rules:\n  max_failures: [\n",
		"negative max":     "rules:\n  max_failures: -1\n",
		"empty allow":      "rules:\n  allow:\n    - reason: nothing\n",
		"unknown side":     "rules:\n  fetch_errors:\n    side: both\n    max: 0\n",
		"bad metric":       "rules:\n  latency:\n    metric: p85\n    regression_percent: 20\n",
		"negative percent": "rules:\n  latency:\n    metric: p95\n    regression_percent: -5\n",
	}

	for name, content := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRulesFile(writeRules(t, content))
			assert.Error(t, err)
		})
	}
}

func run() *models.RunData {
	return &models.RunData{
		Suites: []models.SuiteResult{
			{
				Name: "e2e_matrix",
				Results: []models.CaseResult{
					{ID: "ss->clash", Status: "OK", Comparison: "MATCH(3)"},
					{ID: "ssd->clash", Status: "FAIL_COMPARE", Failure: "Comparison failed: EXTRA(1):['x']"},
					{ID: "ssd->surge", Status: "FAIL_COMPARE", Failure: "Comparison failed: MISSING(1):['y']"},
				},
			},
			{
				Name: "e2e_matrix_rename",
				Results: []models.CaseResult{
					{ID: "v2ray->loon", Status: "CAND_HTTP_502", Failure: "CAND_HTTP_502 (Ref: OK)"},
				},
			},
		},
		Summary: models.Summary{
			BySide: map[models.Side]models.SideStats{
				models.Candidate: {FetchErrors: 0, Latency: models.LatencyStats{P95: 300}},
				models.Reference: {FetchErrors: 2, Latency: models.LatencyStats{P95: 100}},
			},
		},
	}
}

func TestEvaluateRules(t *testing.T) {
	t.Run("no rules fails on any failure", func(t *testing.T) {
		result := EvaluateRules(&RulesConfig{}, run())
		assert.False(t, result.Passed)
		require.Len(t, result.Failures, 1)
		assert.Equal(t, "max_failures", result.Failures[0].Rule)
		assert.Equal(t, 3, result.Failures[0].Details["count"])
		assert.Equal(t, cli.ExitRules, GetExitCode(result))
	})

	t.Run("allowed divergences are accepted", func(t *testing.T) {
		config := &RulesConfig{Rules: Rules{
			Allow: []AllowRule{
				{Suite: "e2e_matrix*", Case: "ssd->*", Status: "FAIL_COMPARE", Reason: "known"},
				{Status: "CAND_HTTP_5"},
			},
		}}

		result := EvaluateRules(config, run())
		assert.True(t, result.Passed)
		assert.Len(t, result.Accepted, 3)
		assert.Equal(t, "known", result.Accepted[0].Reason)
		assert.Equal(t, cli.ExitOK, GetExitCode(result))
	})

	t.Run("status is a prefix not a glob", func(t *testing.T) {
		config := &RulesConfig{Rules: Rules{
			Allow: []AllowRule{{Case: "ssd->*", Status: "CAND_"}},
		}}

		result := EvaluateRules(config, run())
		assert.Empty(t, result.Accepted)
	})

	t.Run("max failures tolerates the rest", func(t *testing.T) {
		config := &RulesConfig{Rules: Rules{
			MaxFailures: 1,
			Allow:       []AllowRule{{Case: "ssd->*"}},
		}}

		result := EvaluateRules(config, run())
		assert.True(t, result.Passed)
	})

	t.Run("suite errors count as failures", func(t *testing.T) {
		data := &models.RunData{Suites: []models.SuiteResult{{Name: "e2e_matrix_emoji", Error: "reload failed"}}}

		result := EvaluateRules(&RulesConfig{}, data)
		assert.False(t, result.Passed)
	})

	t.Run("fetch errors and latency", func(t *testing.T) {
		config := &RulesConfig{Rules: Rules{
			MaxFailures: 10,
			FetchErrors: &FetchErrRule{Max: 1},
			Latency:     &LatencyRule{Metric: "p95", RegressionPercent: 100},
		}}

		result := EvaluateRules(config, run())
		require.Len(t, result.Failures, 2)
		assert.Equal(t, "latency", result.Failures[0].Rule)
		assert.Equal(t, "candidate", result.Failures[0].Scope)
		assert.Equal(t, "fetch_errors", result.Failures[1].Rule)
		assert.Equal(t, "reference", result.Failures[1].Scope)
	})
}

func TestFormatRuleResult(t *testing.T) {
	passed := FormatRuleResult(&RuleEvaluationResult{
		Passed:   true,
		Accepted: []Acceptance{{Suite: "e2e_matrix", Case: "ssd->clash", Status: "FAIL_COMPARE", Reason: "known"}},
	})
	assert.Contains(t, passed, "PASSED")
	assert.Contains(t, passed, "e2e_matrix/ssd->clash FAIL_COMPARE (known)")

	failed := FormatRuleResult(EvaluateRules(&RulesConfig{}, run()))
	assert.Contains(t, failed, "FAILED - 1 rule violation(s) detected")
	assert.Contains(t, failed, "Rule:    max_failures")

	out, err := FormatRuleResultJSON(&RuleEvaluationResult{Passed: true, Failures: []RuleFailure{}})
	require.NoError(t, err)
	assert.Contains(t, out, `"passed": true`)
}
