package classify

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kx0101/subdiff/internal/dialect"
	"github.com/kx0101/subdiff/internal/models"
)

const StatusFailAssert = "FAIL_ASSERT"

type clashDocument struct {
	ProxyGroups []struct {
		Name    string   `yaml:"name"`
		Proxies []string `yaml:"proxies"`
	} `yaml:"proxy-groups"`
	Rules []string `yaml:"rules"`
}

type assertion struct {
	body    string
	records map[string]dialect.Record
	doc     clashDocument
}

type check func(a *assertion, exp models.Expectation) error

var checks = []check{
	checkPrefix,
	checkContains,
	checkProxies,
	checkProxyTypes,
	checkGroups,
	checkMatchRule,
	checkRules,
}

// Standalone checks a case that only the candidate serves. The first failed
// assertion fails the case.
func Standalone(cand models.Response, exp models.Expectation) Outcome {
	if cand.FetchFailed() {
		status := fmt.Sprintf("FAIL_CANDIDATE(%s)", cand.Err)
		return Outcome{Status: status, Comparison: comparisonFail, Failure: "Candidate fetch failed: " + cand.Err}
	}

	if cand.Status != 200 {
		status := fmt.Sprintf("CAND_HTTP_%d", cand.Status)
		return Outcome{Status: status, Comparison: comparisonFail, Failure: status}
	}

	a := &assertion{body: strings.TrimSpace(cand.Body)}

	if exp.Clash() {
		if err := dialect.ValidateClash(cand.Body); err != nil {
			status := structuralStatus(err)
			return Outcome{Status: status, Comparison: comparisonFail, Failure: status}
		}

		if err := yaml.Unmarshal([]byte(cand.Body), &a.doc); err != nil {
			return assertionFailed(fmt.Errorf("decoding clash document: %w", err))
		}

		a.records = make(map[string]dialect.Record)
		for _, r := range dialect.Extract(cand.Body, dialect.Clash) {
			a.records[r.Name] = r
		}
	}

	for _, c := range checks {
		if err := c(a, exp); err != nil {
			out := assertionFailed(err)
			out.CandidateRecords = len(a.records)
			return out
		}
	}

	return Outcome{
		Status:           StatusOK,
		Comparison:       fmt.Sprintf("ASSERT_OK(%d)", len(a.records)),
		CandidateRecords: len(a.records),
	}
}

func assertionFailed(err error) Outcome {
	return Outcome{Status: StatusFailAssert, Comparison: comparisonFail, Failure: "Assertion failed: " + err.Error()}
}

func checkPrefix(a *assertion, exp models.Expectation) error {
	if exp.Prefix != "" && !strings.HasPrefix(a.body, exp.Prefix) {
		return fmt.Errorf("unexpected payload: %q", truncate(a.body, 60))
	}
	return nil
}

func checkContains(a *assertion, exp models.Expectation) error {
	for _, s := range exp.Contains {
		if !strings.Contains(a.body, s) {
			return fmt.Errorf("body missing %s", s)
		}
	}
	return nil
}

func checkProxies(a *assertion, exp models.Expectation) error {
	var missing []string
	for _, name := range exp.Proxies {
		if _, ok := a.records[name]; !ok {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing proxies: %s", nameList(missing))
	}
	return nil
}

func checkProxyTypes(a *assertion, exp models.Expectation) error {
	for _, name := range slices.Sorted(maps.Keys(exp.ProxyTypes)) {
		want := exp.ProxyTypes[name]
		r, ok := a.records[name]
		if !ok {
			return fmt.Errorf("missing proxies: %s", nameList([]string{name}))
		}
		if r.Kind != want {
			return fmt.Errorf("%s type mismatch: expected %s, got %s", name, want, r.Kind)
		}
	}
	return nil
}

func checkGroups(a *assertion, exp models.Expectation) error {
	for _, group := range slices.Sorted(maps.Keys(exp.Groups)) {
		member := exp.Groups[group]

		found := false
		for _, g := range a.doc.ProxyGroups {
			if g.Name == group && slices.Contains(g.Proxies, member) {
				found = true
				break
			}
		}

		if !found {
			return fmt.Errorf("proxy group '%s' missing member '%s'", group, member)
		}
	}
	return nil
}

func checkMatchRule(a *assertion, exp models.Expectation) error {
	if !exp.MatchRule {
		return nil
	}

	for _, r := range a.doc.Rules {
		if strings.Contains(r, "MATCH") {
			return nil
		}
	}
	return fmt.Errorf("rules list missing MATCH entries")
}

func checkRules(a *assertion, exp models.Expectation) error {
	for _, rule := range exp.Rules {
		if !slices.Contains(a.doc.Rules, rule) {
			return fmt.Errorf("missing rule: %s", rule)
		}
	}
	return nil
}

func nameList(names []string) string {
	return "['" + strings.Join(names, "', '") + "']"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
