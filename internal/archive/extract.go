// Package archive opens one published package archive and recovers its
// embedded documentation and metadata entries.
//
// Recognized entries: readme.md, project.json, and functions.json (all matched
// case-insensitively by filename), plus everything under the literal docs/
// prefix. Archives are zip containers; nothing else about their layout is
// assumed.
package archive

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/formulary/formdocs/internal/logfields"
	"github.com/formulary/formdocs/internal/metadata"
)

const docsPrefix = "docs/"

// ErrArchiveMissing reports that the archive file itself does not exist. This
// is a degraded condition: the affected version is skipped, the run continues.
var ErrArchiveMissing = errors.New("package archive not found")

// Descriptor is the embedded project.json content.
type Descriptor struct {
	Keywords metadata.Keywords `json:"keywords"`
	Homepage string            `json:"homepage"`
	License  string            `json:"license"`
}

// Extraction is everything recovered from one archive.
type Extraction struct {
	Readme     string
	HasReadme  bool
	Descriptor Descriptor
	Functions  *FunctionManifest
	HasDocs    bool

	// DocsFiles lists the relative paths (prefix stripped, slash separated)
	// of copied docs entries, in archive order.
	DocsFiles []string

	// Warnings counts degraded conditions hit while extracting (malformed
	// descriptor or manifest, unreadable or skipped entries).
	Warnings int
}

// Extract opens the archive at archivePath and recovers its entries, writing
// any docs/ subtree byte-exact under outDir/docs.
//
// A missing archive returns ErrArchiveMissing. A malformed descriptor or
// function manifest degrades to empty/absent values with a logged warning;
// those never fail the extraction.
func Extract(archivePath, outDir string) (*Extraction, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArchiveMissing, archivePath)
		}
		return nil, fmt.Errorf("open archive %s: %w", archivePath, err)
	}
	defer r.Close()

	ex := &Extraction{}
	for _, f := range r.File {
		name := f.Name
		switch {
		case strings.EqualFold(name, "readme.md"):
			data, err := readEntry(f)
			if err != nil {
				slog.Warn("Failed to read readme entry", logfields.Path(archivePath), logfields.Error(err))
				ex.Warnings++
				continue
			}
			ex.Readme = string(data)
			ex.HasReadme = true

		case strings.EqualFold(name, "project.json"):
			data, err := readEntry(f)
			if err != nil {
				slog.Warn("Failed to read project descriptor", logfields.Path(archivePath), logfields.Error(err))
				ex.Warnings++
				continue
			}
			var desc Descriptor
			if err := json.Unmarshal(data, &desc); err != nil {
				slog.Warn("Malformed project descriptor, using defaults",
					logfields.Path(archivePath), logfields.Error(err))
				ex.Warnings++
				continue
			}
			ex.Descriptor = desc

		case strings.EqualFold(name, "functions.json"):
			data, err := readEntry(f)
			if err != nil {
				slog.Warn("Failed to read function manifest", logfields.Path(archivePath), logfields.Error(err))
				ex.Warnings++
				continue
			}
			m, err := ParseFunctionManifest(data)
			if err != nil {
				slog.Warn("Malformed function manifest, skipping",
					logfields.Path(archivePath), logfields.Error(err))
				ex.Warnings++
				continue
			}
			ex.Functions = m

		case strings.HasPrefix(name, docsPrefix):
			rel, ok := ex.copyDocsEntry(f, outDir)
			if !ok {
				continue
			}
			ex.HasDocs = true
			if rel != "" {
				ex.DocsFiles = append(ex.DocsFiles, rel)
			}
		}
	}
	return ex, nil
}

// copyDocsEntry writes one docs/ entry to outDir/docs with the prefix
// stripped, preserving byte content exactly. Returns the stripped relative
// path ("" for directories) and whether the entry counted as docs content.
func (ex *Extraction) copyDocsEntry(f *zip.File, outDir string) (string, bool) {
	rel := strings.TrimPrefix(f.Name, docsPrefix)
	if rel == "" {
		// Bare "docs/" directory entry: counts as having docs, nothing to write.
		return "", true
	}

	// Reject traversal attempts before touching the filesystem.
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) || filepath.IsAbs(cleaned) {
		slog.Warn("Skipping docs entry escaping output directory", logfields.Entry(f.Name))
		ex.Warnings++
		return "", false
	}

	dest := filepath.Join(outDir, "docs", cleaned)
	if strings.HasSuffix(f.Name, "/") {
		if err := os.MkdirAll(dest, 0o755); err != nil {
			slog.Warn("Failed to create docs directory", logfields.Path(dest), logfields.Error(err))
			ex.Warnings++
			return "", false
		}
		return "", true
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		slog.Warn("Failed to create docs directory", logfields.Path(dest), logfields.Error(err))
		ex.Warnings++
		return "", false
	}
	data, err := readEntry(f)
	if err != nil {
		slog.Warn("Failed to read docs entry", logfields.Entry(f.Name), logfields.Error(err))
		ex.Warnings++
		return "", false
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		slog.Warn("Failed to write docs entry", logfields.Path(dest), logfields.Error(err))
		ex.Warnings++
		return "", false
	}
	return rel, true
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
