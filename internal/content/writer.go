// Package content composes the final per-version documents and owns the
// output tree lifecycle: everything is written into a staging directory and
// promoted over the previous output in one rename.
package content

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/formulary/formdocs/internal/archive"
	"github.com/formulary/formdocs/internal/docgen"
)

// Metadata is the structured per-version artifact consumed by the site
// renderer alongside index.md.
type Metadata struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Owners       []string        `json:"owners"`
	Dependencies []string        `json:"dependencies"`
	Latest       bool            `json:"latest"`
	HasDocs      bool            `json:"hasDocs"`
	Keywords     string          `json:"keywords"`
	Homepage     string          `json:"homepage"`
	License      string          `json:"license"`
	SearchIndex  string          `json:"searchIndex"`
	Functions    json.RawMessage `json:"functions,omitempty"`
}

// ComposeDocument builds the markdown body for one version.
//
// With a readme, the document is the frontmatter followed by the readme text
// verbatim, then the API reference section when a function manifest exists.
// Without one, the whole page is synthesized.
func ComposeDocument(fm docgen.Frontmatter, readme string, hasReadme bool, functions *archive.FunctionManifest) string {
	if !hasReadme {
		return docgen.Synthesize(fm, functions)
	}

	var b strings.Builder
	b.WriteString(fm.Render())
	b.WriteString("\n")
	b.WriteString(readme)
	if ref := docgen.APIReference(functions); ref != "" {
		if !strings.HasSuffix(b.String(), "\n") {
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(ref)
	}
	return b.String()
}

// WriteVersion persists index.md and metadata.json into the version directory.
func WriteVersion(dir, document string, meta Metadata) error {
	// Keep the JSON arrays as arrays even when empty.
	if meta.Owners == nil {
		meta.Owners = []string{}
	}
	if meta.Dependencies == nil {
		meta.Dependencies = []string{}
	}

	if err := os.WriteFile(filepath.Join(dir, "index.md"), []byte(document), 0o644); err != nil {
		return fmt.Errorf("write index.md: %w", err)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), data, 0o644); err != nil {
		return fmt.Errorf("write metadata.json: %w", err)
	}
	return nil
}
