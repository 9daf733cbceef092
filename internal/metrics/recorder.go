// Package metrics defines observability hooks for the content build.
package metrics

import "time"

// VersionResult enumerates per-version outcome categories for counters.
type VersionResult string

const (
	VersionSuccess VersionResult = "success"
	VersionSkipped VersionResult = "skipped"
	VersionFailed  VersionResult = "failed"
)

// Recorder defines observability hooks for build metrics. Implementations may
// forward to Prometheus; the NoopRecorder makes injection optional.
type Recorder interface {
	ObserveBuildDuration(d time.Duration)
	ObserveStageDuration(stage string, d time.Duration)
	IncVersionResult(result VersionResult)
	IncWarning()
	AddDocsFilesCopied(n int)
	IncBuildOutcome(outcome string) // outcome: success|failed
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not
// configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncVersionResult(VersionResult)             {}
func (NoopRecorder) IncWarning()                                {}
func (NoopRecorder) AddDocsFilesCopied(int)                     {}
func (NoopRecorder) IncBuildOutcome(string)                     {}
