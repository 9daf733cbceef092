package docgen

import (
	"strings"

	"github.com/formulary/formdocs/internal/archive"
)

// noDescription is the literal fallback for functions without a description.
const noDescription = "No description provided."

// APIReference renders a function manifest as a markdown reference section.
// An absent manifest yields the empty string. Functions and arguments appear
// in the manifest's declared order.
func APIReference(m *archive.FunctionManifest) string {
	if m == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("## API Reference\n")
	for _, fn := range m.Functions {
		b.WriteString("\n### `" + fn.Name + "`\n\n")
		desc := fn.Description
		if desc == "" {
			desc = noDescription
		}
		b.WriteString(desc + "\n")
		if len(fn.Arguments) > 0 {
			b.WriteString("\n**Arguments**:\n\n")
			for _, arg := range fn.Arguments {
				b.WriteString("- `" + arg.Name + "`: " + arg.Description + "\n")
			}
		}
	}
	return b.String()
}
