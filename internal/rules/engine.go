package rules

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/kx0101/subdiff/internal/models"
)

func EvaluateRules(config *RulesConfig, run *models.RunData) *RuleEvaluationResult {
	result := &RuleEvaluationResult{
		Passed:   true,
		Failures: []RuleFailure{},
	}

	rules := &config.Rules

	accepted, failure := evaluateFailures(rules, run.Suites)
	result.Accepted = accepted
	if failure != nil {
		result.Failures = append(result.Failures, *failure)
	}

	if rules.FetchErrors != nil {
		result.Failures = append(result.Failures, evaluateFetchErrors(rules.FetchErrors, run.Summary)...)
	}

	if rules.Latency != nil {
		cand := run.Summary.BySide[models.Candidate].Latency
		ref := run.Summary.BySide[models.Reference].Latency
		if f := evaluateLatencyRule(rules.Latency, cand, ref, "candidate"); f != nil {
			result.Failures = append(result.Failures, *f)
		}
	}

	sort.Slice(result.Failures, func(i, j int) bool {
		if result.Failures[i].Scope != result.Failures[j].Scope {
			return result.Failures[i].Scope < result.Failures[j].Scope
		}

		return result.Failures[i].Rule < result.Failures[j].Rule
	})

	result.Passed = len(result.Failures) == 0

	return result
}

func evaluateFailures(rules *Rules, suites []models.SuiteResult) ([]Acceptance, *RuleFailure) {
	var accepted []Acceptance
	var remaining []string

	for _, s := range suites {
		if s.Error != "" {
			remaining = append(remaining, fmt.Sprintf("%s: %s", s.Name, s.Error))
		}

		for _, r := range s.Results {
			if !r.Failed() {
				continue
			}

			if allow, ok := findAllow(rules.Allow, s.Name, r); ok {
				accepted = append(accepted, Acceptance{Suite: s.Name, Case: r.ID, Status: r.Status, Reason: allow.Reason})
				continue
			}

			remaining = append(remaining, fmt.Sprintf("%s/%s: %s", s.Name, r.ID, r.Failure))
		}
	}

	if len(remaining) <= rules.MaxFailures {
		return accepted, nil
	}

	return accepted, &RuleFailure{
		Rule:    "max_failures",
		Scope:   "global",
		Message: fmt.Sprintf("Found %d unaccepted failures, maximum allowed is %d", len(remaining), rules.MaxFailures),
		Details: map[string]any{
			"count":       len(remaining),
			"max_allowed": rules.MaxFailures,
			"failures":    remaining,
		},
	}
}

func findAllow(allows []AllowRule, suite string, r models.CaseResult) (AllowRule, bool) {
	for _, a := range allows {
		if matchGlob(a.Suite, suite) && matchGlob(a.Case, r.ID) && strings.HasPrefix(r.Status, a.Status) {
			return a, true
		}
	}

	return AllowRule{}, false
}

func matchGlob(pattern, value string) bool {
	if pattern == "" {
		return true
	}

	ok, err := path.Match(pattern, value)
	return err == nil && ok
}

func evaluateFetchErrors(rule *FetchErrRule, summary models.Summary) []RuleFailure {
	var failures []RuleFailure

	for _, side := range models.Sides {
		if rule.Side != "" && rule.Side != string(side) {
			continue
		}

		count := summary.BySide[side].FetchErrors
		if count > rule.Max {
			failures = append(failures, RuleFailure{
				Rule:    "fetch_errors",
				Scope:   string(side),
				Message: fmt.Sprintf("Found %d fetch errors, maximum allowed is %d", count, rule.Max),
				Details: map[string]any{
					"count":       count,
					"max_allowed": rule.Max,
				},
			})
		}
	}

	return failures
}

func evaluateLatencyRule(rule *LatencyRule, current, baseline models.LatencyStats, scope string) *RuleFailure {
	currentValue := getLatencyMetric(current, rule.Metric)
	baselineValue := getLatencyMetric(baseline, rule.Metric)

	if baselineValue == 0 {
		return nil
	}

	regression := ((float64(currentValue) - float64(baselineValue)) / float64(baselineValue)) * 100

	if regression > rule.RegressionPercent {
		return &RuleFailure{
			Rule:    "latency",
			Scope:   scope,
			Message: fmt.Sprintf("Candidate is %.2f%% slower than the reference, threshold is %.2f%% (%s: %dms vs %dms)", regression, rule.RegressionPercent, rule.Metric, currentValue, baselineValue),
			Details: map[string]any{
				"metric":             rule.Metric,
				"reference_ms":       baselineValue,
				"candidate_ms":       currentValue,
				"regression_percent": regression,
				"threshold_percent":  rule.RegressionPercent,
			},
		}
	}

	return nil
}

func getLatencyMetric(stats models.LatencyStats, metric string) int64 {
	switch metric {
	case "p50":
		return stats.P50
	case "p90":
		return stats.P90
	case "p95":
		return stats.P95
	case "p99":
		return stats.P99
	case "avg":
		return stats.Avg
	case "max":
		return stats.Max
	case "min":
		return stats.Min
	default:
		return 0
	}
}
