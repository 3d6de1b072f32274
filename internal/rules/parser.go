package rules

import (
	"fmt"
	"os"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/kx0101/subdiff/internal/models"
)

func ParseRulesFile(filePath string) (*RulesConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	return ParseRules(data)
}

func ParseRules(data []byte) (*RulesConfig, error) {
	var config RulesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse rules YAML: %w", err)
	}

	if err := validateRules(&config); err != nil {
		return nil, fmt.Errorf("invalid rules configuration: %w", err)
	}

	return &config, nil
}

func validateRules(config *RulesConfig) error {
	rules := config.Rules

	if rules.MaxFailures < 0 {
		return fmt.Errorf("max_failures cannot be negative: %d", rules.MaxFailures)
	}

	for i, allow := range rules.Allow {
		if allow.Suite == "" && allow.Case == "" && allow.Status == "" {
			return fmt.Errorf("allow[%d]: at least one of suite, case or status is required", i)
		}

		for _, pattern := range []string{allow.Suite, allow.Case} {
			if _, err := path.Match(pattern, ""); err != nil {
				return fmt.Errorf("allow[%d]: bad pattern %q: %w", i, pattern, err)
			}
		}
	}

	if fe := rules.FetchErrors; fe != nil {
		if fe.Side != "" && fe.Side != string(models.Candidate) && fe.Side != string(models.Reference) {
			return fmt.Errorf("fetch_errors: unknown side %q", fe.Side)
		}
		if fe.Max < 0 {
			return fmt.Errorf("fetch_errors: max cannot be negative: %d", fe.Max)
		}
	}

	if rules.Latency != nil {
		if err := validateLatencyRule(rules.Latency); err != nil {
			return fmt.Errorf("latency rule: %w", err)
		}
	}

	return nil
}

func validateLatencyRule(rule *LatencyRule) error {
	validMetrics := map[string]bool{
		"p50": true, "p90": true, "p95": true, "p99": true,
		"avg": true, "max": true, "min": true,
	}

	if !validMetrics[rule.Metric] {
		return fmt.Errorf("invalid metric '%s', must be one of: p50, p90, p95, p99, avg, max, min", rule.Metric)
	}

	if rule.RegressionPercent < 0 {
		return fmt.Errorf("regression_percent cannot be negative: %.2f", rule.RegressionPercent)
	}

	return nil
}
