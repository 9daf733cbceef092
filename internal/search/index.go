// Package search builds the per-version free-text search index and answers
// queries against the generated metadata.
package search

import (
	"strings"

	"github.com/formulary/formdocs/internal/archive"
)

// IndexString flattens package and function metadata into a single search
// line: name, description, keywords (when non-empty), then each function's
// name and description in manifest order. Every run of whitespace collapses
// to one space. Identical inputs always yield byte-identical output.
func IndexString(name, description, keywords string, functions *archive.FunctionManifest) string {
	parts := []string{name, description}
	if keywords != "" {
		parts = append(parts, keywords)
	}
	if functions != nil {
		for _, fn := range functions.Functions {
			parts = append(parts, fn.Name, fn.Description)
		}
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
