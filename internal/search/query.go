package search

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Document is the searchable subset of one generated metadata.json.
type Document struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Latest      bool   `json:"latest"`
	SearchIndex string `json:"searchIndex"`
}

// LoadDocuments walks the content root and loads every metadata.json found
// two levels deep (package/version). Unreadable documents are skipped.
func LoadDocuments(contentRoot string) ([]Document, error) {
	var docs []Document
	err := filepath.WalkDir(contentRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != "metadata.json" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		var doc Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk content root %s: %w", contentRoot, err)
	}
	return docs, nil
}

// Query matches documents whose search index contains every query token,
// using Unicode case folding. Results are ordered by name then version so
// repeated queries are stable.
func Query(docs []Document, query string, latestOnly bool) []Document {
	folder := cases.Fold()
	tokens := strings.Fields(folder.String(query))
	if len(tokens) == 0 {
		return nil
	}

	var out []Document
	for _, doc := range docs {
		if latestOnly && !doc.Latest {
			continue
		}
		blob := folder.String(doc.SearchIndex)
		matched := true
		for _, tok := range tokens {
			if !strings.Contains(blob, tok) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, doc)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].Version < out[j].Version
		}
		return out[i].Name < out[j].Name
	})
	return out
}
