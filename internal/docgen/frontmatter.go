// Package docgen renders the markdown artifacts: frontmatter blocks, the API
// reference section, and the synthesized fallback page used when a package
// ships no readme.
package docgen

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Frontmatter is the metadata block prefixed to every generated document.
// Keywords, Homepage, and License are omitted when empty.
type Frontmatter struct {
	Title        string
	Version      string
	Description  string
	Latest       bool
	Keywords     string
	Homepage     string
	License      string
	SearchIndex  string
	Dependencies []string
}

// Render emits the frontmatter block, including both --- delimiters and a
// trailing newline. The searchIndex value is double-quoted with internal
// double quotes escaped; dependencies render as a JSON array literal so the
// downstream site renderer can parse them without YAML list handling.
func (f Frontmatter) Render() string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("title: " + f.Title + "\n")
	b.WriteString("version: " + f.Version + "\n")
	b.WriteString("description: " + f.Description + "\n")
	b.WriteString("latest: " + strconv.FormatBool(f.Latest) + "\n")
	if f.Keywords != "" {
		b.WriteString("keywords: " + f.Keywords + "\n")
	}
	if f.Homepage != "" {
		b.WriteString("homepage: " + f.Homepage + "\n")
	}
	if f.License != "" {
		b.WriteString("license: " + f.License + "\n")
	}
	b.WriteString(`searchIndex: "` + strings.ReplaceAll(f.SearchIndex, `"`, `\"`) + "\"\n")
	b.WriteString("dependencies: " + dependencyArrayLiteral(f.Dependencies) + "\n")
	b.WriteString("---\n")
	return b.String()
}

func dependencyArrayLiteral(deps []string) string {
	if deps == nil {
		deps = []string{}
	}
	out, err := json.Marshal(deps)
	if err != nil {
		// A []string cannot fail to marshal; keep the artifact well-formed anyway.
		return "[]"
	}
	return string(out)
}
