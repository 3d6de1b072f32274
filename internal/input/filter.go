package input

import (
	"strings"

	"github.com/kx0101/subdiff/internal/matrix"
)

// Apply keeps the suites whose name contains filter, whole, and narrows the
// remaining suites to cases whose id contains it. Suites left without cases
// are dropped.
func Apply(suites []matrix.Suite, filter string) []matrix.Suite {
	if filter == "" {
		return suites
	}

	filtered := make([]matrix.Suite, 0, len(suites))

	for _, s := range suites {
		if strings.Contains(s.Name, filter) {
			filtered = append(filtered, s)
			continue
		}

		var cases []matrix.Case
		for _, c := range s.Cases {
			if strings.Contains(c.ID, filter) {
				cases = append(cases, c)
			}
		}

		if len(cases) == 0 {
			continue
		}

		s.Cases = cases
		filtered = append(filtered, s)
	}

	return filtered
}

// Only keeps the suites named in names, in their original order.
func Only(suites []matrix.Suite, names []string) []matrix.Suite {
	if len(names) == 0 {
		return suites
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.TrimSpace(n)] = true
	}

	filtered := make([]matrix.Suite, 0, len(names))
	for _, s := range suites {
		if want[s.Name] {
			filtered = append(filtered, s)
		}
	}

	return filtered
}
