package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder_CountsResults(t *testing.T) {
	reg := prom.NewRegistry()
	rec := NewPrometheusRecorder(reg)

	rec.IncVersionResult(VersionSuccess)
	rec.IncVersionResult(VersionSuccess)
	rec.IncVersionResult(VersionSkipped)
	rec.IncWarning()
	rec.AddDocsFilesCopied(3)
	rec.ObserveBuildDuration(250 * time.Millisecond)
	rec.ObserveStageDuration("generate", 100*time.Millisecond)
	rec.IncBuildOutcome("success")

	require.Equal(t, float64(2), testutil.ToFloat64(rec.versionResults.WithLabelValues("success")))
	require.Equal(t, float64(1), testutil.ToFloat64(rec.versionResults.WithLabelValues("skipped")))
	require.Equal(t, float64(1), testutil.ToFloat64(rec.warnings))
	require.Equal(t, float64(3), testutil.ToFloat64(rec.docsFilesCopied))
	require.Equal(t, float64(1), testutil.ToFloat64(rec.buildOutcome.WithLabelValues("success")))
}

func TestNoopRecorder_IsSafe(t *testing.T) {
	var rec Recorder = NoopRecorder{}
	rec.ObserveBuildDuration(time.Second)
	rec.ObserveStageDuration("generate", time.Second)
	rec.IncVersionResult(VersionFailed)
	rec.IncWarning()
	rec.AddDocsFilesCopied(1)
	rec.IncBuildOutcome("failed")
}
