package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kx0101/subdiff/internal/logging"
)

const namespace = "subdiff"

var (
	CaseOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "case_outcomes_total",
		Help:      "Classified cases by suite, dialect and status.",
	}, []string{"suite", "dialect", "status"})

	FetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fetch_duration_seconds",
		Help:      "Duration of conversion requests by service side.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"side", "path"})

	FetchCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_total",
		Help:      "Conversion requests by service side and response code.",
	}, []string{"side", "code"})
)

func init() {
	prometheus.MustRegister(CaseOutcomes, FetchDuration, FetchCounter)
}

// InitializeHTTP serves /metrics on bind and blocks.
func InitializeHTTP(bind string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	logging.L.Info("serving metrics", zap.String("bind", bind))
	if err := http.ListenAndServe(bind, mux); err != nil {
		logging.L.Error("metrics server stopped", zap.Error(err))
	}
}
