// Package build orchestrates one content rebuild: load the registry index,
// stage the output tree, process every package version in manifest order,
// and promote the result.
package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/formulary/formdocs/internal/archive"
	"github.com/formulary/formdocs/internal/config"
	"github.com/formulary/formdocs/internal/content"
	"github.com/formulary/formdocs/internal/docgen"
	"github.com/formulary/formdocs/internal/lint"
	"github.com/formulary/formdocs/internal/logfields"
	"github.com/formulary/formdocs/internal/metrics"
	"github.com/formulary/formdocs/internal/registry"
	"github.com/formulary/formdocs/internal/search"
)

// Result summarizes one completed run.
type Result struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Packages  int
	Versions  int // versions written
	Skipped   int // versions skipped (missing or unreadable archive)
	Warnings  int
	DocsFiles int
}

// Pipeline executes content rebuilds. Versions are processed sequentially:
// each owns a disjoint output subdirectory and the only shared state is the
// read-only index, so there is nothing to lock.
type Pipeline struct {
	cfg      *config.Config
	recorder metrics.Recorder
}

// New creates a pipeline for the given configuration.
func New(cfg *config.Config) *Pipeline {
	return &Pipeline{cfg: cfg, recorder: metrics.NoopRecorder{}}
}

// SetRecorder injects a metrics recorder. Returns the pipeline for chaining.
func (p *Pipeline) SetRecorder(r metrics.Recorder) *Pipeline {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	p.recorder = r
	return p
}

// Run performs one full rebuild. Index and output-root failures are fatal and
// return an error; per-version failures degrade to warnings and never stop
// the run.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), StartedAt: time.Now()}
	slog.Info("Starting content build", logfields.RunID(res.RunID), logfields.Path(p.cfg.IndexPath()))

	idx, err := timedStage(p.recorder, "load_index", func() (*registry.Index, error) {
		return registry.Load(p.cfg.IndexPath())
	})
	if err != nil {
		p.recorder.IncBuildOutcome("failed")
		return nil, err
	}
	res.Packages = len(idx.Packages)

	writer := content.NewWriter(p.cfg.Output.Dir)
	if _, err := timedStage(p.recorder, "prepare_output", func() (struct{}, error) {
		return struct{}{}, writer.Begin()
	}); err != nil {
		p.recorder.IncBuildOutcome("failed")
		return nil, err
	}

	generateStart := time.Now()
	for _, pkg := range idx.Packages {
		for _, ver := range pkg.Versions {
			if err := ctx.Err(); err != nil {
				writer.Abort()
				p.recorder.IncBuildOutcome("failed")
				return nil, err
			}
			if err := p.processVersion(writer, pkg, ver, res); err != nil {
				writer.Abort()
				p.recorder.IncBuildOutcome("failed")
				return nil, err
			}
		}
	}
	p.recorder.ObserveStageDuration("generate", time.Since(generateStart))

	if _, err := timedStage(p.recorder, "finalize", func() (struct{}, error) {
		return struct{}{}, writer.Finalize()
	}); err != nil {
		writer.Abort()
		p.recorder.IncBuildOutcome("failed")
		return nil, err
	}

	res.Duration = time.Since(res.StartedAt)
	p.recorder.ObserveBuildDuration(res.Duration)
	p.recorder.IncBuildOutcome("success")
	slog.Info("Content build complete",
		logfields.RunID(res.RunID),
		slog.Int("packages", res.Packages),
		slog.Int("versions", res.Versions),
		slog.Int("skipped", res.Skipped),
		slog.Int("warnings", res.Warnings),
		logfields.DurationMS(float64(res.Duration.Milliseconds())))
	return res, nil
}

// processVersion runs the per-version pipeline: extract, normalize, index,
// compose, write, lint. Returned errors are fatal (output tree unwritable);
// everything else degrades.
func (p *Pipeline) processVersion(writer *content.Writer, pkg registry.Package, ver registry.Version, res *Result) error {
	dir, err := writer.VersionDir(pkg.Name, ver.Version)
	if err != nil {
		return err
	}

	ex, err := archive.Extract(p.cfg.ArchivePath(ver.Path), dir)
	if err != nil {
		if errors.Is(err, archive.ErrArchiveMissing) {
			slog.Warn("Package archive missing, skipping version",
				logfields.Package(pkg.Name), logfields.Version(ver.Version), logfields.Path(ver.Path))
		} else {
			slog.Warn("Package archive unreadable, skipping version",
				logfields.Package(pkg.Name), logfields.Version(ver.Version), logfields.Error(err))
		}
		res.Skipped++
		res.Warnings++
		p.recorder.IncVersionResult(metrics.VersionSkipped)
		p.recorder.IncWarning()
		return nil
	}
	res.Warnings += ex.Warnings
	for i := 0; i < ex.Warnings; i++ {
		p.recorder.IncWarning()
	}

	keywords := ex.Descriptor.Keywords.Normalize()
	latest := ver.Version == pkg.Latest
	fm := docgen.Frontmatter{
		Title:        pkg.Name,
		Version:      ver.Version,
		Description:  pkg.Description,
		Latest:       latest,
		Keywords:     keywords,
		Homepage:     ex.Descriptor.Homepage,
		License:      ex.Descriptor.License,
		SearchIndex:  search.IndexString(pkg.Name, pkg.Description, keywords, ex.Functions),
		Dependencies: ver.Dependencies,
	}

	meta := content.Metadata{
		Name:         pkg.Name,
		Version:      ver.Version,
		Description:  pkg.Description,
		Owners:       pkg.Owners,
		Dependencies: ver.Dependencies,
		Latest:       latest,
		HasDocs:      ex.HasDocs,
		Keywords:     keywords,
		Homepage:     ex.Descriptor.Homepage,
		License:      ex.Descriptor.License,
		SearchIndex:  fm.SearchIndex,
	}
	if ex.Functions != nil {
		meta.Functions = ex.Functions.Raw
	}

	doc := content.ComposeDocument(fm, ex.Readme, ex.HasReadme, ex.Functions)
	if err := content.WriteVersion(dir, doc, meta); err != nil {
		return fmt.Errorf("write %s@%s: %w", pkg.Name, ver.Version, err)
	}

	if ex.HasDocs {
		p.lintDocs(pkg, ver, filepath.Join(dir, "docs"), res)
	}

	res.Versions++
	res.DocsFiles += len(ex.DocsFiles)
	p.recorder.IncVersionResult(metrics.VersionSuccess)
	p.recorder.AddDocsFilesCopied(len(ex.DocsFiles))
	slog.Debug("Version processed",
		logfields.Package(pkg.Name), logfields.Version(ver.Version),
		slog.Bool("readme", ex.HasReadme), slog.Bool("docs", ex.HasDocs))
	return nil
}

func (p *Pipeline) lintDocs(pkg registry.Package, ver registry.Version, docsDir string, res *Result) {
	findings, err := lint.CheckDocs(docsDir)
	if err != nil {
		slog.Warn("Docs lint failed", logfields.Package(pkg.Name), logfields.Version(ver.Version), logfields.Error(err))
		res.Warnings++
		p.recorder.IncWarning()
		return
	}
	for _, f := range findings {
		slog.Warn("Dangling docs link",
			logfields.Package(pkg.Name), logfields.Version(ver.Version),
			slog.String("file", f.File), slog.String("destination", f.Destination))
		res.Warnings++
		p.recorder.IncWarning()
	}
}

func timedStage[T any](rec metrics.Recorder, stage string, fn func() (T, error)) (T, error) {
	start := time.Now()
	out, err := fn()
	rec.ObserveStageDuration(stage, time.Since(start))
	if err != nil {
		var zero T
		return zero, fmt.Errorf("stage %s: %w", stage, err)
	}
	return out, nil
}
