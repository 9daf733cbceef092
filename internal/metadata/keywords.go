// Package metadata canonicalizes publisher-supplied descriptor fields.
//
// The keywords field is the one place external data is genuinely
// unpredictable: publishers ship it as a JSON list, a plain comma-separated
// string, or a stringified list literal written with single or double quotes.
// The shape is resolved once at decode time into a tagged union; everything
// downstream sees a single canonical string.
package metadata

import (
	"encoding/json"
	"strings"
)

type keywordsKind int

const (
	keywordsAbsent keywordsKind = iota
	keywordsList
	keywordsString
)

// Keywords is the raw keywords value from a project descriptor.
type Keywords struct {
	kind keywordsKind
	list []string
	str  string
}

// KeywordsFromList builds a list-shaped value. Mostly useful in tests.
func KeywordsFromList(items ...string) Keywords {
	return Keywords{kind: keywordsList, list: items}
}

// KeywordsFromString builds a string-shaped value. Mostly useful in tests.
func KeywordsFromString(s string) Keywords {
	return Keywords{kind: keywordsString, str: s}
}

// UnmarshalJSON accepts a list of strings or a bare string. Any other shape
// is treated as absent rather than failing the whole descriptor.
func (k *Keywords) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*k = Keywords{kind: keywordsList, list: list}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*k = Keywords{kind: keywordsString, str: s}
		return nil
	}
	*k = Keywords{}
	return nil
}

// Normalize produces the canonical comma-joined keyword string.
//
// Lists are joined with ", ". Strings that look like a bracketed list literal
// are parsed as JSON after rewriting single quotes; when that fails, the
// brackets are stripped and the tokens split, trimmed, and rejoined manually.
// That fallback never fails. Any other string passes through unchanged.
func (k Keywords) Normalize() string {
	switch k.kind {
	case keywordsList:
		return strings.Join(k.list, ", ")
	case keywordsString:
		return normalizeString(k.str)
	default:
		return ""
	}
}

func normalizeString(s string) string {
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return s
	}

	var parsed []string
	if err := json.Unmarshal([]byte(strings.ReplaceAll(s, "'", `"`)), &parsed); err == nil {
		return strings.Join(parsed, ", ")
	}

	inner := strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	var words []string
	for _, tok := range strings.Split(inner, ",") {
		tok = strings.TrimSpace(tok)
		tok = strings.Trim(tok, `"'`)
		if tok == "" {
			continue
		}
		words = append(words, tok)
	}
	return strings.Join(words, ", ")
}
