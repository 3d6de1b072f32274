package rules

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/kx0101/subdiff/internal/cli"
)

const (
	heavyRule = "═══════════════════════════════════════════════════════\n"
	lightRule = "───────────────────────────────────────────────────────\n"
)

func FormatRuleResult(result *RuleEvaluationResult) string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(heavyRule)
	sb.WriteString("              DIFF RULES EVALUATION\n")
	sb.WriteString(heavyRule)
	sb.WriteString("\n")

	if len(result.Accepted) > 0 {
		sb.WriteString(fmt.Sprintf("Accepted %d known divergence(s):\n", len(result.Accepted)))
		for _, a := range result.Accepted {
			line := fmt.Sprintf("  %s/%s %s", a.Suite, a.Case, a.Status)
			if a.Reason != "" {
				line += " (" + a.Reason + ")"
			}
			sb.WriteString(line + "\n")
		}
		sb.WriteString("\n")
	}

	if result.Passed {
		sb.WriteString("PASSED - All rules satisfied\n")
		sb.WriteString(heavyRule)

		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("FAILED - %d rule violation(s) detected\n", len(result.Failures)))
	sb.WriteString("\n")

	for i, failure := range result.Failures {
		sb.WriteString(lightRule)
		sb.WriteString(fmt.Sprintf("Failure #%d\n", i+1))
		sb.WriteString(lightRule)
		sb.WriteString(fmt.Sprintf("Rule:    %s\n", failure.Rule))
		sb.WriteString(fmt.Sprintf("Scope:   %s\n", failure.Scope))
		sb.WriteString(fmt.Sprintf("Message: %s\n", failure.Message))

		if len(failure.Details) > 0 {
			sb.WriteString("\nDetails:\n")

			keys := make([]string, 0, len(failure.Details))
			for k := range failure.Details {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			for _, key := range keys {
				sb.WriteString(fmt.Sprintf("  %s: %v\n", key, failure.Details[key]))
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString(heavyRule)

	return sb.String()
}

func FormatRuleResultJSON(result *RuleEvaluationResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}

	return string(data), nil
}

func GetExitCode(result *RuleEvaluationResult) cli.ExitCode {
	if result.Passed {
		return cli.ExitOK
	}

	return cli.ExitRules
}
