package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeArchive(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pkg-1.0.0.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return path
}

func TestExtract_MissingArchiveReturnsSentinel(t *testing.T) {
	_, err := Extract(filepath.Join(t.TempDir(), "nope.zip"), t.TempDir())
	require.ErrorIs(t, err, ErrArchiveMissing)
}

func TestExtract_ReadmeIsCaseInsensitive(t *testing.T) {
	path := writeArchive(t, map[string]string{"README.md": "# Prime\n"})

	ex, err := Extract(path, t.TempDir())
	require.NoError(t, err)
	require.True(t, ex.HasReadme)
	require.Equal(t, "# Prime\n", ex.Readme)
}

func TestExtract_DescriptorFields(t *testing.T) {
	path := writeArchive(t, map[string]string{
		"Project.json": `{"keywords": ["prime", "numbers"], "homepage": "https://example.org", "license": "MIT"}`,
	})

	ex, err := Extract(path, t.TempDir())
	require.NoError(t, err)
	require.Equal(t, "prime, numbers", ex.Descriptor.Keywords.Normalize())
	require.Equal(t, "https://example.org", ex.Descriptor.Homepage)
	require.Equal(t, "MIT", ex.Descriptor.License)
}

func TestExtract_MalformedDescriptorDegradesToEmpty(t *testing.T) {
	path := writeArchive(t, map[string]string{"project.json": `{"keywords": [broken`})

	ex, err := Extract(path, t.TempDir())
	require.NoError(t, err)
	require.Equal(t, Descriptor{}, ex.Descriptor)
}

func TestExtract_MalformedFunctionManifestDegradesToAbsent(t *testing.T) {
	path := writeArchive(t, map[string]string{"functions.json": `not json`})

	ex, err := Extract(path, t.TempDir())
	require.NoError(t, err)
	require.Nil(t, ex.Functions)
}

func TestExtract_DocsSubtreeCopiedByteExact(t *testing.T) {
	content := "# Guide\n\nline two\r\nbinary-ish \x00\x01 bytes"
	path := writeArchive(t, map[string]string{
		"docs/guide.md":       content,
		"docs/nested/more.md": "nested\n",
		"src/ignored.txt":     "not docs",
		"DOCS/wrong-case.md":  "prefix match is case-sensitive",
	})
	out := t.TempDir()

	ex, err := Extract(path, out)
	require.NoError(t, err)
	require.True(t, ex.HasDocs)
	require.ElementsMatch(t, []string{"guide.md", "nested/more.md"}, ex.DocsFiles)

	got, err := os.ReadFile(filepath.Join(out, "docs", "guide.md"))
	require.NoError(t, err)
	require.Equal(t, []byte(content), got)

	_, err = os.Stat(filepath.Join(out, "docs", "wrong-case.md"))
	require.True(t, os.IsNotExist(err))
}

func TestExtract_NoDocsEntriesMeansHasDocsFalse(t *testing.T) {
	path := writeArchive(t, map[string]string{"readme.md": "hello"})

	ex, err := Extract(path, t.TempDir())
	require.NoError(t, err)
	require.False(t, ex.HasDocs)
}

func TestExtract_TraversalEntriesAreSkipped(t *testing.T) {
	path := writeArchive(t, map[string]string{"docs/../../escape.md": "nope"})
	out := t.TempDir()

	_, err := Extract(path, out)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(filepath.Dir(out), "escape.md"))
	require.True(t, os.IsNotExist(err))
}

func TestParseFunctionManifest_PreservesDeclaredOrder(t *testing.T) {
	data := []byte(`{
		"ISPRIME": {"description": "Checks whether the provided value is a prime.", "arguments": {"value": {"description": "Value to test."}}},
		"PRIMEVECTOR": {"description": "Generates a vector of prime numbers.", "arguments": {"count": {"description": "How many primes."}, "start": {"description": "Lower bound."}}}
	}`)

	m, err := ParseFunctionManifest(data)
	require.NoError(t, err)
	require.Len(t, m.Functions, 2)
	require.Equal(t, "ISPRIME", m.Functions[0].Name)
	require.Equal(t, "PRIMEVECTOR", m.Functions[1].Name)
	require.Equal(t, "count", m.Functions[1].Arguments[0].Name)
	require.Equal(t, "start", m.Functions[1].Arguments[1].Name)
	require.JSONEq(t, string(data), string(m.Raw))
}

func TestParseFunctionManifest_RejectsNonObject(t *testing.T) {
	_, err := ParseFunctionManifest([]byte(`["ISPRIME"]`))
	require.Error(t, err)
}
