package registry

import "regexp"

// Dependency specifiers come in three shapes: "name", "name@version", and
// "name>=version". The leading name is lowercase letters, digits, and hyphens;
// matching is case-insensitive to be forgiving about hand-edited manifests.
var specifierName = regexp.MustCompile(`(?i)^([a-z0-9-]+)(?:@|>=)`)

// BareName strips a trailing version-constraint suffix from a dependency
// specifier. Specifiers without a recognized constraint pass through unchanged.
func BareName(spec string) string {
	if m := specifierName.FindStringSubmatch(spec); m != nil {
		return m[1]
	}
	return spec
}
