package classify

import (
	"fmt"

	"github.com/kx0101/subdiff/internal/compare"
	"github.com/kx0101/subdiff/internal/models"
)

// Ruleset classifies a /getruleset case. A reference that cannot serve the
// ruleset skips the case instead of failing it.
func Ruleset(cand, ref models.Response) Outcome {
	if cand.FetchFailed() {
		status := fmt.Sprintf("FAIL_CANDIDATE(%s)", cand.Err)
		return Outcome{Status: status, Comparison: comparisonFail, Failure: "Candidate fetch failed: " + cand.Err}
	}

	if cand.Status != 200 {
		status := fmt.Sprintf("CAND_HTTP_%d", cand.Status)
		return Outcome{Status: status, Comparison: comparisonFail, Failure: fmt.Sprintf("%s (Ref: %s)", status, DescribeReference(ref))}
	}

	if ref.Status != 200 {
		return Outcome{Status: StatusSkipped, Comparison: fmt.Sprintf("REF_HTTP_%d", ref.Status)}
	}

	v := compare.Ruleset(cand.Body, ref.Body)
	out := Outcome{
		Status:           StatusOK,
		Comparison:       v.String(),
		CandidateRecords: v.CandidateLines,
		ReferenceRecords: v.ReferenceLines,
	}

	if !v.Equal {
		out.Status = StatusFailCompare
		out.Failure = "Ruleset mismatch: " + v.String()
	}

	return out
}
