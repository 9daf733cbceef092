package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	buildDuration   prom.Histogram
	stageDuration   *prom.HistogramVec
	versionResults  *prom.CounterVec
	warnings        prom.Counter
	docsFilesCopied prom.Counter
	buildOutcome    *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers build metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "formdocs",
			Name:      "build_duration_seconds",
			Help:      "Total content build duration",
			Buckets:   prom.DefBuckets,
		}),
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "formdocs",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		versionResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "formdocs",
			Name:      "version_results_total",
			Help:      "Per-version processing results",
		}, []string{"result"}),
		warnings: prom.NewCounter(prom.CounterOpts{
			Namespace: "formdocs",
			Name:      "warnings_total",
			Help:      "Degraded-severity conditions observed during builds",
		}),
		docsFilesCopied: prom.NewCounter(prom.CounterOpts{
			Namespace: "formdocs",
			Name:      "docs_files_copied_total",
			Help:      "Documentation subtree files copied from archives",
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "formdocs",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
	}
	reg.MustRegister(pr.buildDuration, pr.stageDuration, pr.versionResults,
		pr.warnings, pr.docsFilesCopied, pr.buildOutcome)
	return pr
}

func (pr *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	pr.buildDuration.Observe(d.Seconds())
}

func (pr *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	pr.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (pr *PrometheusRecorder) IncVersionResult(result VersionResult) {
	pr.versionResults.WithLabelValues(string(result)).Inc()
}

func (pr *PrometheusRecorder) IncWarning() {
	pr.warnings.Inc()
}

func (pr *PrometheusRecorder) AddDocsFilesCopied(n int) {
	pr.docsFilesCopied.Add(float64(n))
}

func (pr *PrometheusRecorder) IncBuildOutcome(outcome string) {
	pr.buildOutcome.WithLabelValues(outcome).Inc()
}
