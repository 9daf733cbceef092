package docgen

import (
	"strings"

	"github.com/formulary/formdocs/internal/archive"
	"github.com/formulary/formdocs/internal/registry"
)

// AutoGeneratedCallout is the fixed notice closing every synthesized page.
const AutoGeneratedCallout = "> This page was generated automatically from the package metadata. " +
	"Package authors can replace it by shipping a readme.md in the package archive."

// DependencyList renders the dependency section body: the literal
// `_No dependencies_` for an empty list, otherwise one markdown link per
// specifier. The link label is the specifier verbatim; the target strips any
// version constraint.
func DependencyList(deps []string) string {
	if len(deps) == 0 {
		return "_No dependencies_"
	}
	lines := make([]string, 0, len(deps))
	for _, dep := range deps {
		lines = append(lines, "- ["+dep+"](/packages/"+registry.BareName(dep)+")")
	}
	return strings.Join(lines, "\n")
}

// Synthesize builds the complete fallback document for a version without a
// readme: frontmatter, API reference (when a manifest exists), dependency
// section, and the auto-generated callout.
func Synthesize(fm Frontmatter, functions *archive.FunctionManifest) string {
	var b strings.Builder
	b.WriteString(fm.Render())
	b.WriteString("\n")
	if ref := APIReference(functions); ref != "" {
		b.WriteString(ref)
		b.WriteString("\n")
	}
	b.WriteString("## Dependencies\n\n")
	b.WriteString(DependencyList(fm.Dependencies))
	b.WriteString("\n\n")
	b.WriteString(AutoGeneratedCallout)
	b.WriteString("\n")
	return b.String()
}
