// Package registry loads the registry-wide manifest (index.json) into memory.
//
// The index is decoded with declared order preserved: downstream stages process
// packages and versions in manifest order, so the usual map-based JSON decode
// is not good enough here.
package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/formulary/formdocs/internal/logfields"
)

// Index is the in-memory registry manifest. Read-only after Load.
type Index struct {
	Packages []Package
}

// Package is one registry entry with its published versions in declared order.
type Package struct {
	Name        string
	Description string
	Owners      []string
	Versions    []Version
	Latest      string
}

// Version records where a published archive lives and what it depends on.
type Version struct {
	Version      string
	Path         string
	Dependencies []string
}

// Load reads and decodes the registry manifest. Any read or shape error is
// fatal to the whole run; callers abort before touching the output tree.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry index %s: %w", path, err)
	}
	idx, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse registry index %s: %w", path, err)
	}
	for _, pkg := range idx.Packages {
		if _, ok := pkg.Version(pkg.Latest); !ok {
			slog.Warn("Latest pointer references unknown version",
				logfields.Package(pkg.Name), logfields.Version(pkg.Latest))
		}
	}
	return idx, nil
}

// Parse decodes manifest bytes, preserving package and version order.
func Parse(data []byte) (*Index, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("index root: %w", err)
	}

	idx := &Index{}
	for dec.More() {
		name, err := stringToken(dec)
		if err != nil {
			return nil, err
		}
		pkg, err := parsePackage(dec, name)
		if err != nil {
			return nil, fmt.Errorf("package %q: %w", name, err)
		}
		idx.Packages = append(idx.Packages, pkg)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, fmt.Errorf("index root: %w", err)
	}
	return idx, nil
}

// Version returns the record for the given version string.
func (p Package) Version(v string) (Version, bool) {
	for _, ver := range p.Versions {
		if ver.Version == v {
			return ver, true
		}
	}
	return Version{}, false
}

func parsePackage(dec *json.Decoder, name string) (Package, error) {
	pkg := Package{Name: name}
	if err := expectDelim(dec, '{'); err != nil {
		return pkg, err
	}
	for dec.More() {
		key, err := stringToken(dec)
		if err != nil {
			return pkg, err
		}
		switch key {
		case "description":
			if err := dec.Decode(&pkg.Description); err != nil {
				return pkg, fmt.Errorf("description: %w", err)
			}
		case "owners":
			if err := dec.Decode(&pkg.Owners); err != nil {
				return pkg, fmt.Errorf("owners: %w", err)
			}
		case "latest":
			if err := dec.Decode(&pkg.Latest); err != nil {
				return pkg, fmt.Errorf("latest: %w", err)
			}
		case "versions":
			versions, err := parseVersions(dec)
			if err != nil {
				return pkg, fmt.Errorf("versions: %w", err)
			}
			pkg.Versions = versions
		default:
			// Unknown fields are tolerated so the registry schema can grow.
			var ignored json.RawMessage
			if err := dec.Decode(&ignored); err != nil {
				return pkg, fmt.Errorf("field %q: %w", key, err)
			}
		}
	}
	return pkg, expectDelim(dec, '}')
}

func parseVersions(dec *json.Decoder) ([]Version, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	var versions []Version
	for dec.More() {
		ver, err := stringToken(dec)
		if err != nil {
			return nil, err
		}
		var rec struct {
			Path         string   `json:"path"`
			Dependencies []string `json:"dependencies"`
		}
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("version %q: %w", ver, err)
		}
		versions = append(versions, Version{
			Version:      ver,
			Path:         rec.Path,
			Dependencies: rec.Dependencies,
		})
	}
	return versions, expectDelim(dec, '}')
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return s, nil
}
