package compare

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kx0101/subdiff/internal/dialect"
)

const sampleLimit = 3

type VerdictKind int

const (
	Match VerdictKind = iota
	DetailMismatch
	SetMismatch
	SizeMismatch
)

// Verdict is the relationship between a candidate and a reference proxy set.
type Verdict struct {
	Kind VerdictKind

	// Count is the size of the shared name set for Match.
	Count int

	MismatchCount int
	Mismatches    []string

	Missing []string
	Extra   []string

	CandidateSize int
	ReferenceSize int
}

func (v Verdict) Failed() bool {
	return v.Kind == DetailMismatch || v.Kind == SetMismatch
}

func (v Verdict) String() string {
	switch v.Kind {
	case Match:
		return fmt.Sprintf("MATCH(%d)", v.Count)
	case DetailMismatch:
		return fmt.Sprintf("DETAIL_MISMATCH(%d): %s...", v.MismatchCount, strings.Join(v.Mismatches, ","))
	case SetMismatch:
		var parts []string
		if len(v.Missing) > 0 {
			parts = append(parts, fmt.Sprintf("MISSING(%d):%s", len(v.Missing), nameList(v.Missing)))
		}
		if len(v.Extra) > 0 {
			parts = append(parts, fmt.Sprintf("EXTRA(%d):%s", len(v.Extra), nameList(v.Extra)))
		}
		return strings.Join(parts, " ")
	case SizeMismatch:
		return fmt.Sprintf("SIZE_MISMATCH(%d vs %d)", v.CandidateSize, v.ReferenceSize)
	}

	return "UNKNOWN"
}

// nameList renders at most sampleLimit names as ['a', 'b', 'c'].
func nameList(names []string) string {
	if len(names) > sampleLimit {
		names = names[:sampleLimit]
	}

	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}

	return "[" + strings.Join(quoted, ", ") + "]"
}

func index(records []dialect.Record) map[string]dialect.Record {
	m := make(map[string]dialect.Record, len(records))
	for _, r := range records {
		m[r.Name] = r
	}

	return m
}

func sortedKeys(m map[string]dialect.Record) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return keys
}

// Compare joins both sides by record name. Later records win over earlier
// ones with the same name.
func Compare(candidate, reference []dialect.Record) Verdict {
	cand := index(candidate)
	ref := index(reference)

	var missing, extra []string
	for _, name := range sortedKeys(ref) {
		if _, ok := cand[name]; !ok {
			missing = append(missing, name)
		}
	}
	for _, name := range sortedKeys(cand) {
		if _, ok := ref[name]; !ok {
			extra = append(extra, name)
		}
	}

	if len(missing) > 0 || len(extra) > 0 {
		return Verdict{Kind: SetMismatch, Missing: missing, Extra: extra}
	}

	var samples []string
	count := 0
	for _, name := range sortedKeys(cand) {
		for _, diff := range fieldDiffs(cand[name], ref[name]) {
			count++
			if len(samples) < sampleLimit {
				samples = append(samples, diff)
			}
		}
	}

	if count > 0 {
		return Verdict{Kind: DetailMismatch, MismatchCount: count, Mismatches: samples}
	}

	return Verdict{Kind: Match, Count: len(cand)}
}

// fieldDiffs compares type, server and port. A field empty on either side is
// not compared.
func fieldDiffs(c, r dialect.Record) []string {
	fields := []struct {
		label string
		c, r  string
	}{
		{"type", c.Kind, r.Kind},
		{"server", c.Server, r.Server},
		{"port", c.Port, r.Port},
	}

	var diffs []string
	for _, f := range fields {
		cv, rv := strings.TrimSpace(f.c), strings.TrimSpace(f.r)
		if cv == "" || rv == "" || cv == rv {
			continue
		}

		diffs = append(diffs, fmt.Sprintf("%s.%s(%s!=%s)", c.Name, f.label, cv, rv))
	}

	return diffs
}

// Sizes is the last resort check used when neither body yields a record: the
// bodies differ when their lengths differ by more than half the candidate
// length.
func Sizes(candLen, refLen int) (Verdict, bool) {
	diff := candLen - refLen
	if diff < 0 {
		diff = -diff
	}

	if float64(diff) > float64(candLen)*0.5 {
		return Verdict{Kind: SizeMismatch, CandidateSize: candLen, ReferenceSize: refLen}, true
	}

	return Verdict{}, false
}
