package compare

import (
	"fmt"
	"strings"
)

type RulesetVerdict struct {
	Equal          bool
	CandidateLines int
	ReferenceLines int
}

func (v RulesetVerdict) String() string {
	if v.Equal {
		return fmt.Sprintf("MATCH_LINES(%d)", v.CandidateLines)
	}

	return fmt.Sprintf("RULESET_MISMATCH(%d vs %d)", v.CandidateLines, v.ReferenceLines)
}

// Ruleset loosely compares two rendered rulesets: same line count and the same
// first and last line.
func Ruleset(cand, ref string) RulesetVerdict {
	c := rulesetLines(cand)
	r := rulesetLines(ref)

	v := RulesetVerdict{CandidateLines: len(c), ReferenceLines: len(r)}
	v.Equal = len(c) > 0 && len(c) == len(r) && c[0] == r[0] && c[len(c)-1] == r[len(r)-1]

	return v
}

func rulesetLines(body string) []string {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil
	}

	lines := strings.Split(body, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}

	return lines
}
