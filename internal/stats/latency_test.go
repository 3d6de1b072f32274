package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kx0101/subdiff/internal/models"
)

func TestCalculateLatencyStats(t *testing.T) {
	assert.Equal(t, models.LatencyStats{}, CalculateLatencyStats(nil))

	in := []int64{50, 10, 40, 20, 30}
	got := CalculateLatencyStats(in)

	assert.Equal(t, int64(10), got.Min)
	assert.Equal(t, int64(50), got.Max)
	assert.Equal(t, int64(30), got.Avg)
	assert.Equal(t, int64(30), got.P50)
	assert.Equal(t, int64(50), got.P99)
	assert.Equal(t, []int64{50, 10, 40, 20, 30}, in, "input must not be reordered")
}

func TestSideLatencies(t *testing.T) {
	suites := []models.SuiteResult{{
		Results: []models.CaseResult{
			{Responses: map[models.Side]models.Response{
				models.Candidate: {Status: 200, LatencyMs: 12},
				models.Reference: {Status: 0, Err: "dial tcp: refused", LatencyMs: 3},
			}},
			{Responses: map[models.Side]models.Response{
				models.Candidate: {Status: 400, LatencyMs: 7},
				models.Reference: {Status: 200, LatencyMs: 9},
			}},
		},
	}}

	assert.Equal(t, []int64{12, 7}, SideLatencies(suites, models.Candidate))
	assert.Equal(t, []int64{9}, SideLatencies(suites, models.Reference))
}
