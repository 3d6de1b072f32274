package classify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kx0101/subdiff/internal/compare"
	"github.com/kx0101/subdiff/internal/dialect"
	"github.com/kx0101/subdiff/internal/models"
)

const (
	StatusOK          = "OK"
	StatusFailCompare = "FAIL_COMPARE"
	StatusFailRef     = "FAIL_REF"
	StatusSkipped     = "SKIPPED"

	issueEmpty   = "EMPTY"
	issueNoNodes = "ERR_NO_NODES"

	ComparisonMatchNoNodes = "MATCH_NO_NODES"
	comparisonMatch        = "MATCH"
	comparisonFail         = "FAIL"
	comparisonPending      = "-"
)

var (
	noNodesPhrases      = []string{"doesn't contain any valid node info", "no valid node info"}
	noValidProxyPhrases = []string{"no valid proxies found"}
)

type Input struct {
	Candidate models.Response
	Reference models.Response
	Dialect   dialect.Dialect
}

type Outcome struct {
	Status     string
	Comparison string

	// Failure is empty unless the case is a hard failure.
	Failure string

	CandidateRecords int
	ReferenceRecords int
}

func (o Outcome) String() string {
	return o.Status + " | " + o.Comparison
}

func (o Outcome) Failed() bool {
	return o.Failure != ""
}

type evaluation struct {
	in Input

	candidateIssue string
	reference      string

	out  Outcome
	done bool
}

func (e *evaluation) fail(status, comparison, failure string) {
	e.out.Status = status
	e.out.Comparison = comparison
	e.out.Failure = failure
	e.done = true
}

func (e *evaluation) settle(status, comparison string) {
	e.out.Status = status
	e.out.Comparison = comparison
	e.done = true
}

type step func(*evaluation)

var pipeline = []step{
	detectCandidateIssue,
	gateCandidateStatus,
	validateStructure,
	describeReference,
	reconcile,
	compareRecords,
}

// Classify decides the outcome of one case from two already fetched
// responses.
func Classify(in Input) Outcome {
	e := &evaluation{
		in:  in,
		out: Outcome{Status: StatusOK, Comparison: comparisonPending},
	}

	for _, s := range pipeline {
		if e.done {
			break
		}
		s(e)
	}

	return e.out
}

func containsAny(body string, phrases []string) bool {
	lower := strings.ToLower(body)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}

	return false
}

// contentIssue reports EMPTY or ERR_NO_NODES for a body, or "" when the body
// looks like a real conversion result.
func contentIssue(body string) string {
	if strings.TrimSpace(body) == "" {
		return issueEmpty
	}

	if containsAny(body, noNodesPhrases) {
		return issueNoNodes
	}

	return ""
}

func detectCandidateIssue(e *evaluation) {
	e.candidateIssue = contentIssue(e.in.Candidate.Body)
}

func gateCandidateStatus(e *evaluation) {
	cand := e.in.Candidate

	if cand.FetchFailed() {
		e.fail(fmt.Sprintf("FAIL_CANDIDATE(%s)", cand.Err), comparisonFail, "Candidate fetch failed: "+cand.Err)
		return
	}

	if cand.Status != 200 {
		if cand.Status == 400 && (containsAny(cand.Body, noValidProxyPhrases) || containsAny(cand.Body, noNodesPhrases)) {
			e.candidateIssue = issueNoNodes
		} else {
			e.candidateIssue = fmt.Sprintf("HTTP_%d", cand.Status)
		}
	}

	if e.candidateIssue != "" {
		e.out.Status = "CAND_" + e.candidateIssue
	}
}

func validateStructure(e *evaluation) {
	if e.out.Status != StatusOK {
		return
	}

	body := e.in.Candidate.Body

	switch e.in.Dialect {
	case dialect.Clash:
		if err := dialect.ValidateClash(body); err != nil {
			e.out.Status = structuralStatus(err)
		}
	case dialect.Singbox:
		if err := dialect.ValidateSingbox(body); err != nil {
			e.out.Status = structuralStatus(err)
		}
	case dialect.Surge, dialect.Loon, dialect.Quanx:
		if !dialect.HasINIFingerprint(body) {
			e.out.Status = "SUSPICIOUS_INI"
		}
	}
}

func structuralStatus(err error) string {
	switch {
	case errors.Is(err, dialect.ErrInvalidYAMLStructure):
		return "INVALID_YAML_STRUCTURE"
	case errors.Is(err, dialect.ErrInvalidYAML):
		return "INVALID_YAML"
	case errors.Is(err, dialect.ErrInvalidJSONStructure):
		return "INVALID_JSON_STRUCTURE"
	default:
		return "INVALID_JSON"
	}
}

// DescribeReference renders the reference side as OK, EMPTY, ERR_NO_NODES,
// HTTP_<code>, HTTP_<code>(NO_NODES) or ERR(<fetch error>).
func DescribeReference(ref models.Response) string {
	if ref.FetchFailed() {
		return fmt.Sprintf("ERR(%s)", ref.Err)
	}

	issue := contentIssue(ref.Body)

	if ref.Status != 200 {
		desc := fmt.Sprintf("HTTP_%d", ref.Status)
		if issue == issueNoNodes {
			desc += "(NO_NODES)"
		}
		return desc
	}

	if issue != "" {
		return issue
	}

	return StatusOK
}

func describeReference(e *evaluation) {
	e.reference = DescribeReference(e.in.Reference)
}

func referenceHasNoNodes(desc string) bool {
	return desc == issueNoNodes ||
		desc == issueEmpty ||
		strings.Contains(desc, "NO_NODES") ||
		strings.Contains(desc, "HTTP_400")
}

// referenceRejected reports a reference that refused the source outright. An
// empty 200 body does not count.
func referenceRejected(desc string) bool {
	return strings.Contains(desc, "NO_NODES") || strings.Contains(desc, "HTTP_400")
}

func reconcile(e *evaluation) {
	if e.out.Status == StatusOK {
		return
	}

	if e.out.Status == "CAND_"+issueNoNodes && referenceHasNoNodes(e.reference) {
		e.settle(StatusOK, ComparisonMatchNoNodes)
		return
	}

	e.fail(e.out.Status, comparisonFail, fmt.Sprintf("%s (Ref: %s)", e.out.Status, e.reference))
}

func compareRecords(e *evaluation) {
	cand := dialect.Extract(e.in.Candidate.Body, e.in.Dialect)
	ref := dialect.Extract(e.in.Reference.Body, e.in.Dialect)
	e.out.CandidateRecords = len(cand)
	e.out.ReferenceRecords = len(ref)

	if len(cand) > 0 && len(ref) > 0 {
		v := compare.Compare(cand, ref)
		if v.Failed() {
			e.fail(StatusFailCompare, v.String(), "Comparison failed: "+v.String())
			return
		}

		e.settle(StatusOK, v.String())
		return
	}

	if e.reference != StatusOK {
		comparison := "REF_" + e.reference

		if strings.HasPrefix(e.reference, "ERR(") {
			e.fail(StatusFailRef, comparison, "Reference fetch failed: "+e.in.Reference.Err)
			return
		}

		if len(cand) > 0 && referenceRejected(e.reference) {
			e.fail(StatusFailRef, comparison, fmt.Sprintf("Reference failed: %s but Candidate has %d nodes", e.reference, len(cand)))
			return
		}

		e.settle(StatusOK, comparison)
		return
	}

	if v, mismatch := compare.Sizes(len(e.in.Candidate.Body), len(e.in.Reference.Body)); mismatch {
		e.settle(StatusOK, v.String())
		return
	}

	e.settle(StatusOK, comparisonMatch)
}
