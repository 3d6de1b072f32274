package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectors(t *testing.T) {
	before := testutil.ToFloat64(CaseOutcomes.WithLabelValues("e2e_matrix", "clash", "OK"))
	CaseOutcomes.WithLabelValues("e2e_matrix", "clash", "OK").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(CaseOutcomes.WithLabelValues("e2e_matrix", "clash", "OK")))

	FetchCounter.WithLabelValues("candidate", "200").Add(2)
	assert.GreaterOrEqual(t, testutil.ToFloat64(FetchCounter.WithLabelValues("candidate", "200")), 2.0)

	FetchDuration.WithLabelValues("reference", "/sub").Observe(0.2)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(FetchDuration), 1)
}
