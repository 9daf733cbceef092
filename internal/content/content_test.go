package content

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/formulary/formdocs/internal/archive"
	"github.com/formulary/formdocs/internal/docgen"
	"github.com/stretchr/testify/require"
)

func testManifest(t *testing.T) *archive.FunctionManifest {
	t.Helper()
	m, err := archive.ParseFunctionManifest([]byte(`{"ISPRIME": {"description": "Checks primality."}}`))
	require.NoError(t, err)
	return m
}

func TestComposeDocument_ReadmePresent(t *testing.T) {
	fm := docgen.Frontmatter{Title: "prime", Version: "1.0.0", Description: "d"}
	readme := "# Prime\n\nHand-written docs.\n"

	out := ComposeDocument(fm, readme, true, testManifest(t))
	require.True(t, strings.HasPrefix(out, "---\ntitle: prime\n"))
	require.Contains(t, out, readme)
	require.Contains(t, out, "## API Reference")
	require.Greater(t, strings.Index(out, "## API Reference"), strings.Index(out, "Hand-written docs."))
	require.NotContains(t, out, docgen.AutoGeneratedCallout)
}

func TestComposeDocument_ReadmePresentWithoutManifest(t *testing.T) {
	fm := docgen.Frontmatter{Title: "prime", Version: "1.0.0"}
	out := ComposeDocument(fm, "body\n", true, nil)
	require.NotContains(t, out, "## API Reference")
	require.True(t, strings.HasSuffix(out, "body\n"))
}

func TestComposeDocument_ReadmeAbsentSynthesizes(t *testing.T) {
	fm := docgen.Frontmatter{Title: "prime", Version: "1.0.0"}
	out := ComposeDocument(fm, "", false, testManifest(t))
	require.True(t, strings.HasSuffix(out, docgen.AutoGeneratedCallout+"\n"))
}

func TestWriteVersion_WritesBothArtifacts(t *testing.T) {
	dir := t.TempDir()
	meta := Metadata{Name: "prime", Version: "1.0.0", HasDocs: true, SearchIndex: "prime"}

	require.NoError(t, WriteVersion(dir, "# doc\n", meta))

	doc, err := os.ReadFile(filepath.Join(dir, "index.md"))
	require.NoError(t, err)
	require.Equal(t, "# doc\n", string(doc))

	raw, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, "prime", decoded["name"])
	require.Equal(t, true, decoded["hasDocs"])
	// Empty collections must stay arrays, not null.
	require.Equal(t, []any{}, decoded["owners"])
	require.Equal(t, []any{}, decoded["dependencies"])
	require.NotContains(t, decoded, "functions")
}

func TestWriteVersion_EmbedsRawFunctionManifest(t *testing.T) {
	dir := t.TempDir()
	m := testManifest(t)
	meta := Metadata{Name: "prime", Version: "1.0.0", Functions: m.Raw}

	require.NoError(t, WriteVersion(dir, "doc", meta))

	raw, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	require.NoError(t, err)
	var decoded struct {
		Functions map[string]struct {
			Description string `json:"description"`
		} `json:"functions"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, "Checks primality.", decoded.Functions["ISPRIME"].Description)
}

func TestWriter_StagingLifecycle(t *testing.T) {
	root := filepath.Join(t.TempDir(), "content")
	w := NewWriter(root)
	require.NoError(t, w.Begin())

	dir, err := w.VersionDir("prime", "1.0.0")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.md"), []byte("doc"), 0o644))

	require.NoError(t, w.Finalize())
	_, err = os.Stat(filepath.Join(root, "prime", "1.0.0", "index.md"))
	require.NoError(t, err)
	_, err = os.Stat(root + "_stage")
	require.True(t, os.IsNotExist(err))
}

func TestWriter_FinalizeReplacesPreviousOutput(t *testing.T) {
	root := filepath.Join(t.TempDir(), "content")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "removed-pkg", "0.0.1"), 0o755))

	w := NewWriter(root)
	require.NoError(t, w.Begin())
	_, err := w.VersionDir("prime", "1.0.0")
	require.NoError(t, err)
	require.NoError(t, w.Finalize())

	// Stale artifacts from removed packages must not survive a rebuild.
	_, err = os.Stat(filepath.Join(root, "removed-pkg"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "prime", "1.0.0"))
	require.NoError(t, err)
	_, err = os.Stat(root + ".prev")
	require.True(t, os.IsNotExist(err))
}

func TestWriter_AbortLeavesPreviousOutputIntact(t *testing.T) {
	root := filepath.Join(t.TempDir(), "content")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "keep-me"), 0o755))

	w := NewWriter(root)
	require.NoError(t, w.Begin())
	_, err := w.VersionDir("prime", "1.0.0")
	require.NoError(t, err)
	w.Abort()

	_, err = os.Stat(filepath.Join(root, "keep-me"))
	require.NoError(t, err)
	_, err = os.Stat(root + "_stage")
	require.True(t, os.IsNotExist(err))
}

func TestWriter_VersionDirRequiresBegin(t *testing.T) {
	w := NewWriter(filepath.Join(t.TempDir(), "content"))
	_, err := w.VersionDir("p", "1.0.0")
	require.Error(t, err)
}
