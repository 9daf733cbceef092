package content

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/formulary/formdocs/internal/logfields"
)

// Writer manages the output content root for one run. All writes go to a
// sibling staging directory; Finalize promotes it over the previous output.
// Promotion is atomic on a single filesystem; across filesystems the rename
// fails and the previous output stays intact.
type Writer struct {
	root  string
	stage string
}

// NewWriter creates a writer for the given content root.
func NewWriter(root string) *Writer {
	return &Writer{root: filepath.Clean(root)}
}

// Begin creates a fresh staging directory. Any leftover staging tree from an
// interrupted run is removed first.
func (w *Writer) Begin() error {
	stage := w.root + "_stage"
	if err := os.RemoveAll(stage); err != nil {
		return fmt.Errorf("clear stale staging directory: %w", err)
	}
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	w.stage = stage
	slog.Debug("Initialized staging directory", logfields.Path(stage))
	return nil
}

// VersionDir creates (if needed) and returns the staged output directory for
// one package version. The directory exists even when the version is later
// skipped, so the output tree always mirrors the registry index.
func (w *Writer) VersionDir(pkg, version string) (string, error) {
	if w.stage == "" {
		return "", fmt.Errorf("staging not initialized")
	}
	dir := filepath.Join(w.stage, pkg, version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create version directory %s: %w", dir, err)
	}
	return dir, nil
}

// Finalize promotes the staging directory to the content root. The previous
// output is parked as <root>.prev until the rename succeeds, then removed
// best-effort.
func (w *Writer) Finalize() error {
	if w.stage == "" {
		return fmt.Errorf("no staging directory initialized")
	}

	prev := w.root + ".prev"
	if err := os.RemoveAll(prev); err != nil {
		return fmt.Errorf("remove previous backup: %w", err)
	}
	if _, err := os.Stat(w.root); err == nil {
		if err := os.Rename(w.root, prev); err != nil {
			return fmt.Errorf("backup existing output: %w", err)
		}
	}
	if err := os.Rename(w.stage, w.root); err != nil {
		// Try to restore the old output so a failed promote is not destructive.
		if _, statErr := os.Stat(prev); statErr == nil {
			_ = os.Rename(prev, w.root)
		}
		return fmt.Errorf("promote staging directory: %w", err)
	}
	w.stage = ""
	if err := os.RemoveAll(prev); err != nil {
		slog.Warn("Failed to remove previous output backup", logfields.Path(prev), logfields.Error(err))
	}
	slog.Info("Promoted content output", logfields.Path(w.root))
	return nil
}

// Abort removes the staging directory after a failed run so no orphaned
// temp trees accumulate. The previous output is left untouched.
func (w *Writer) Abort() {
	if w.stage == "" {
		return
	}
	if err := os.RemoveAll(w.stage); err != nil {
		slog.Warn("Failed to remove staging directory", logfields.Path(w.stage), logfields.Error(err))
	}
	w.stage = ""
}
