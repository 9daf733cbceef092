// Package lint performs advisory checks on copied documentation subtrees.
//
// Findings never fail a build; they surface as warnings so package authors
// can fix dangling links in their shipped docs.
package lint

import (
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Finding reports one relative link whose target does not exist within the
// docs subtree.
type Finding struct {
	File        string // file containing the link, relative to the docs dir
	Destination string // the unresolvable destination as written
}

// CheckDocs scans every markdown and HTML file under docsDir and reports
// relative link destinations that do not resolve to a file or directory
// inside the subtree. External URLs, anchors, and absolute paths are out of
// scope here: only the subtree the build just copied can be verified.
func CheckDocs(docsDir string) ([]Finding, error) {
	var findings []Finding
	err := filepath.WalkDir(docsDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		var dests []string
		switch strings.ToLower(filepath.Ext(p)) {
		case ".md":
			body, err := os.ReadFile(p)
			if err != nil {
				return nil
			}
			dests = markdownDestinations(body)
		case ".html", ".htm":
			body, err := os.ReadFile(p)
			if err != nil {
				return nil
			}
			dests = htmlDestinations(body)
		default:
			return nil
		}

		rel, err := filepath.Rel(docsDir, p)
		if err != nil {
			return nil
		}
		for _, dest := range dests {
			if !checkable(dest) {
				continue
			}
			if !resolves(docsDir, rel, dest) {
				findings = append(findings, Finding{File: filepath.ToSlash(rel), Destination: dest})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return findings, nil
}

// checkable reports whether a destination is a relative path we can verify.
func checkable(dest string) bool {
	if dest == "" || strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "/") {
		return false
	}
	u, err := url.Parse(dest)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}

func resolves(docsDir, fromFile, dest string) bool {
	if i := strings.IndexAny(dest, "#?"); i >= 0 {
		dest = dest[:i]
	}
	if dest == "" {
		return true
	}
	target := path.Join(path.Dir(filepath.ToSlash(fromFile)), dest)
	if target == ".." || strings.HasPrefix(target, "../") {
		// Points outside the copied subtree; nothing there to verify.
		return false
	}
	_, err := os.Stat(filepath.Join(docsDir, filepath.FromSlash(target)))
	return err == nil
}
