package stats

import (
	"slices"

	"github.com/kx0101/subdiff/internal/models"
)

func CalculateLatencyStats(latencies []int64) models.LatencyStats {
	if len(latencies) == 0 {
		return models.LatencyStats{}
	}

	sorted := slices.Clone(latencies)
	slices.Sort(sorted)

	var sum int64
	for _, lat := range sorted {
		sum += lat
	}

	return models.LatencyStats{
		P50: Percentile(sorted, 50),
		P90: Percentile(sorted, 90),
		P95: Percentile(sorted, 95),
		P99: Percentile(sorted, 99),
		Min: sorted[0],
		Max: sorted[len(sorted)-1],
		Avg: sum / int64(len(sorted)),
	}
}

// Percentile expects latencies sorted ascending.
func Percentile(latencies []int64, p int) int64 {
	if len(latencies) == 0 {
		return 0
	}

	idx := len(latencies) * p / 100
	if idx >= len(latencies) {
		idx = len(latencies) - 1
	}

	return latencies[idx]
}

// SideLatencies collects the fetch latencies of one side across suites,
// leaving out fetches that never got a response.
func SideLatencies(suites []models.SuiteResult, side models.Side) []int64 {
	var out []int64
	for _, s := range suites {
		for _, r := range s.Results {
			resp, ok := r.Responses[side]
			if !ok || resp.FetchFailed() {
				continue
			}

			out = append(out, resp.LatencyMs)
		}
	}

	return out
}
